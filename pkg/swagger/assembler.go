// Package swagger assembles Swagger 2.0 documents from a specification graph
// and serves them over HTTP.
package swagger

import (
	"regexp"
	"sort"
	"strings"

	"github.com/platinummonkey/specbook/pkg/model"
	"github.com/platinummonkey/specbook/pkg/textcodec"
)

// DefaultEdition is used when the caller asks for no edition
const DefaultEdition = "Basic"

var (
	whitespace      = regexp.MustCompile(`\s+`)
	visibilitySplit = regexp.MustCompile(`[\s,;|/]+`)
)

// Editions normalizes a caller-supplied edition list. Each entry is split on
// the same separators as a verb's visibility, blanks and duplicates are
// dropped and the result is sorted. An empty result becomes the default
// edition.
func Editions(editions []string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0, len(editions))
	for _, e := range editions {
		for _, token := range visibilitySplit.Split(e, -1) {
			if token == "" || seen[token] {
				continue
			}
			seen[token] = true
			out = append(out, token)
		}
	}
	if len(out) == 0 {
		return []string{DefaultEdition}
	}
	sort.Strings(out)
	return out
}

// Assemble builds the document for g as seen by the given editions. It does
// no validation: references to unknown models are emitted as-is.
func Assemble(g *model.Graph, editions []string) *Document {
	editions = Editions(editions)
	spec := g.Specification

	doc := &Document{
		Swagger: Version,
		Info: Info{
			Version:        spec.Version,
			Title:          spec.Title,
			Description:    spec.Description,
			TermsOfService: spec.TermsOfService,
		},
		Host:        spec.Host,
		BasePath:    spec.BasePath,
		Schemes:     splitTokens(spec.Schemes),
		Produces:    splitTokens(spec.Produces),
		Consumes:    splitTokens(spec.Consumes),
		Parameters:  NewOrderedMap[*Parameter](),
		Definitions: NewOrderedMap[*Schema](),
		Paths:       NewOrderedMap[*OrderedMap[*Operation]](),
	}

	for _, p := range g.PathParameters {
		doc.Parameters.Set(p.Name, &Parameter{
			Name:        p.Name,
			In:          "path",
			Type:        p.Type,
			Description: p.Description,
			Required:    true,
		})
	}

	for _, m := range g.Models {
		schema := objectSchema(m.Properties)
		schema.Description = m.Model.Description
		doc.Definitions.Set(m.Model.Name, schema)
	}

	for _, p := range g.Paths {
		item := NewOrderedMap[*Operation]()
		for _, v := range p.Verbs {
			if !Visible(v.Verb, editions) {
				continue
			}
			item.Set(strings.ToLower(v.Verb.Method), operation(v))
		}
		if item.Len() > 0 {
			doc.Paths.Set(p.Path.URI, item)
		}
	}

	return doc
}

// Visible reports whether v is exported for the given editions: one of its
// visibility tokens must be among editions and its status must be blank or
// "Normal"
func Visible(v *model.Verb, editions []string) bool {
	if v.Status != "" && v.Status != "Normal" {
		return false
	}
	for _, token := range visibilitySplit.Split(v.Visibility, -1) {
		if token == "" {
			continue
		}
		for _, e := range editions {
			if token == e {
				return true
			}
		}
	}
	return false
}

func operation(n *model.VerbNode) *Operation {
	op := &Operation{
		Tags:        splitTags(n.Verb.Tags),
		Description: n.Verb.Name,
		Responses: Responses{
			Default: &Response{Description: "OK"},
		},
	}

	for _, q := range n.QueryParameters {
		op.Parameters = append(op.Parameters, &Parameter{
			Name:        q.Name,
			In:          "query",
			Type:        q.Type,
			Format:      q.Format,
			Description: q.Description,
			Required:    q.Required,
		})
	}

	if schema := requestSchema(n); schema != nil {
		op.Parameters = append(op.Parameters, &Parameter{
			Name:   "body",
			In:     "body",
			Schema: schema,
		})
	}

	op.Responses.Default.Schema = responseSchema(n)
	return op
}

func requestSchema(n *model.VerbNode) *Schema {
	if len(n.RequestBody) > 0 {
		return objectSchema(n.RequestBody)
	}

	names := textcodec.ModelNames(n.Verb.RequestBodyText)
	switch {
	case len(names) == 0:
		return nil
	case len(names) == 1:
		return RefTo(names[0])
	}

	schema := &Schema{Type: "object"}
	for _, name := range names {
		schema.Enum = append(schema.Enum, RefTo(name))
	}
	return schema
}

// responseSchema references the first named model. The catalog rejects
// response texts naming more than one.
func responseSchema(n *model.VerbNode) *Schema {
	if len(n.ResponseBody) > 0 {
		return objectSchema(n.ResponseBody)
	}
	if names := textcodec.ModelNames(n.Verb.ResponseBodyText); len(names) > 0 {
		return RefTo(names[0])
	}
	return nil
}

func objectSchema(props []*model.Property) *Schema {
	schema := &Schema{Type: "object", Properties: NewOrderedMap[*Schema]()}
	for _, p := range props {
		schema.Properties.Set(p.Name, &Schema{
			Type:        p.Type,
			Format:      p.Format,
			Description: p.Description,
		})
		if p.Required {
			schema.Required = append(schema.Required, p.Name)
		}
	}
	return schema
}

func splitTokens(s string) []string {
	out := []string{}
	for _, t := range whitespace.Split(s, -1) {
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func splitTags(s string) []string {
	out := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
