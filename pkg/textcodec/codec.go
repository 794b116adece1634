// Package textcodec converts ordered property lists to and from the
// tab-delimited text blocks users edit in bulk.
//
// Each non-blank line is one record. Fields are separated by tabs and
// assigned positionally according to the kind's layout:
//
//	path_parameter:       name  type  description
//	everything else:      name  type  description  format  required
//
// Decoding trims every line and field and drops blank ones, so a line with
// fewer fields leaves the trailing fields at their zero value. Decoded
// records are transient: they carry no ID and their Position is the line
// index.
package textcodec

import (
	"regexp"
	"sort"
	"strings"

	"github.com/platinummonkey/specbook/pkg/model"
)

// Field identifies one positional column
type Field int

const (
	FieldName Field = iota
	FieldType
	FieldDescription
	FieldFormat
	FieldRequired
)

var (
	shortLayout = []Field{FieldName, FieldType, FieldDescription}
	fullLayout  = []Field{FieldName, FieldType, FieldDescription, FieldFormat, FieldRequired}

	lineBreak = regexp.MustCompile(`\r\n|\r|\n`)
)

// Layout returns the column order for kind
func Layout(kind model.PropertyKind) []Field {
	if kind == model.KindPathParameter {
		return shortLayout
	}
	return fullLayout
}

// Lines splits text on any line break, trims each line and drops blank ones
func Lines(text string) []string {
	raw := lineBreak.Split(text, -1)
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// Fields splits one line on tabs, trims each field and drops blank ones
func Fields(line string) []string {
	raw := strings.Split(line, "\t")
	fields := make([]string, 0, len(raw))
	for _, f := range raw {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Decode parses text into unsaved records of the given kind
func Decode(kind model.PropertyKind, text string) []*model.Property {
	layout := Layout(kind)
	lines := Lines(text)
	records := make([]*model.Property, 0, len(lines))

	for i, line := range lines {
		p := &model.Property{Kind: kind, Position: i}
		for j, value := range Fields(line) {
			if j >= len(layout) {
				break
			}
			assign(p, layout[j], value)
		}
		records = append(records, p)
	}
	return records
}

// DecodeStrict parses text and rejects records with a missing name or type
// and names repeated within the block
func DecodeStrict(kind model.PropertyKind, text string) ([]*model.Property, error) {
	records := Decode(kind, text)
	if err := model.ValidateProperties(records); err != nil {
		return nil, err
	}
	return records, nil
}

// Encode renders records as a text block, one line per record in position
// order. Trailing fields holding their zero value are left off the line.
func Encode(records []*model.Property) string {
	sorted := make([]*model.Property, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Position < sorted[j].Position
	})

	lines := make([]string, 0, len(sorted))
	for _, p := range sorted {
		layout := Layout(p.Kind)
		fields := make([]string, len(layout))
		last := 0
		for j, f := range layout {
			fields[j] = value(p, f)
			if fields[j] != "" {
				last = j + 1
			}
		}
		lines = append(lines, strings.Join(fields[:last], "\t"))
	}
	return strings.Join(lines, "\n")
}

// Normalize returns text as Encode(Decode(kind, text)) would render it
func Normalize(kind model.PropertyKind, text string) string {
	return Encode(Decode(kind, text))
}

// IsModelReference reports whether a body text names models rather than
// listing properties: it is non-blank and every line holds a single field.
func IsModelReference(text string) bool {
	lines := Lines(text)
	if len(lines) == 0 {
		return false
	}
	for _, line := range lines {
		if len(Fields(line)) != 1 {
			return false
		}
	}
	return true
}

func assign(p *model.Property, f Field, v string) {
	switch f {
	case FieldName:
		p.Name = v
	case FieldType:
		p.Type = v
	case FieldDescription:
		p.Description = v
	case FieldFormat:
		p.Format = v
	case FieldRequired:
		p.Required = ParseRequired(v)
	}
}

func value(p *model.Property, f Field) string {
	switch f {
	case FieldName:
		return p.Name
	case FieldType:
		return p.Type
	case FieldDescription:
		return p.Description
	case FieldFormat:
		return p.Format
	case FieldRequired:
		if p.Required {
			return "true"
		}
	}
	return ""
}

// ParseRequired interprets the required column
func ParseRequired(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "y", "1", "required":
		return true
	}
	return false
}

// ModelNames returns the model names listed in a body text, one per
// non-blank line
func ModelNames(text string) []string {
	return Lines(text)
}
