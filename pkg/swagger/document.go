package swagger

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// Version is the value of the root "swagger" field
const Version = "2.0"

// Document is a Swagger 2.0 document. Field order matches the order the
// keys are written in.
type Document struct {
	Swagger     string                               `json:"swagger" yaml:"swagger"`
	Info        Info                                 `json:"info" yaml:"info"`
	Host        string                               `json:"host" yaml:"host"`
	BasePath    string                               `json:"basePath" yaml:"basePath"`
	Schemes     []string                             `json:"schemes" yaml:"schemes"`
	Produces    []string                             `json:"produces" yaml:"produces"`
	Consumes    []string                             `json:"consumes" yaml:"consumes"`
	Parameters  *OrderedMap[*Parameter]              `json:"parameters" yaml:"parameters"`
	Definitions *OrderedMap[*Schema]                 `json:"definitions" yaml:"definitions"`
	Paths       *OrderedMap[*OrderedMap[*Operation]] `json:"paths" yaml:"paths"`
}

// Info is the document metadata block
type Info struct {
	Version        string `json:"version" yaml:"version"`
	Title          string `json:"title" yaml:"title"`
	Description    string `json:"description" yaml:"description"`
	TermsOfService string `json:"termsOfService" yaml:"termsOfService"`
}

// Operation is the fragment for one visible verb
type Operation struct {
	Tags        []string     `json:"tags" yaml:"tags"`
	Description string       `json:"description" yaml:"description"`
	Parameters  []*Parameter `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Responses   Responses    `json:"responses" yaml:"responses"`
}

// Responses holds the default response, the only one emitted
type Responses struct {
	Default *Response `json:"default" yaml:"default"`
}

// Response describes an operation result
type Response struct {
	Description string  `json:"description" yaml:"description"`
	Schema      *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Parameter is a query, path, or body parameter
type Parameter struct {
	Name        string  `json:"name" yaml:"name"`
	In          string  `json:"in" yaml:"in"`
	Type        string  `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string  `json:"format,omitempty" yaml:"format,omitempty"`
	Description string  `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool    `json:"required,omitempty" yaml:"required,omitempty"`
	Schema      *Schema `json:"schema,omitempty" yaml:"schema,omitempty"`
}

// Schema is the subset of the Swagger schema object the assembler emits:
// a $ref, a typed scalar, an object with properties, or an enum of refs
type Schema struct {
	Ref         string               `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Type        string               `json:"type,omitempty" yaml:"type,omitempty"`
	Format      string               `json:"format,omitempty" yaml:"format,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Properties  *OrderedMap[*Schema] `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required    []string             `json:"required,omitempty" yaml:"required,omitempty"`
	Enum        []*Schema            `json:"enum,omitempty" yaml:"enum,omitempty"`
}

// RefTo returns a schema referencing the named definition
func RefTo(name string) *Schema {
	return &Schema{Ref: DefinitionRef(name)}
}

// DefinitionRef returns the JSON pointer to a definition
func DefinitionRef(name string) string {
	return "#/definitions/" + name
}

// JSON renders the document as indented JSON
func (d *Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML renders the document as YAML
func (d *Document) YAML() ([]byte, error) {
	return yaml.Marshal(d)
}

// Operation returns the operation for method on uri, if present
func (d *Document) Operation(uri, method string) (*Operation, bool) {
	item, ok := d.Paths.Get(uri)
	if !ok {
		return nil, false
	}
	return item.Get(method)
}
