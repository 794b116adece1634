package model

import (
	"fmt"
	"time"
)

// Specification is a top-level API document under authoring. It maps to one
// Swagger document.
type Specification struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Version        string    `json:"version"`
	Description    string    `json:"description"`
	TermsOfService string    `json:"terms_of_service"`
	Host           string    `json:"host"`
	BasePath       string    `json:"base_path"`
	Schemes        string    `json:"schemes"`
	Produces       string    `json:"produces"`
	Consumes       string    `json:"consumes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DisplayName returns the title and version joined by a space
func (s *Specification) DisplayName() string {
	return fmt.Sprintf("%s %s", s.Title, s.Version)
}

// Path is a URI template within a Specification
type Path struct {
	ID              int64     `json:"id"`
	SpecificationID int64     `json:"specification_id"`
	URI             string    `json:"uri"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Verb is an HTTP operation defined on a Path
type Verb struct {
	ID                  int64     `json:"id"`
	PathID              int64     `json:"path_id"`
	Method              string    `json:"method"`
	Name                string    `json:"name"`
	Tags                string    `json:"tags"`
	Visibility          string    `json:"visibility"`
	Status              string    `json:"status"`
	Batch               bool      `json:"batch"`
	QueryParametersText string    `json:"query_parameters_text"`
	RequestBodyText     string    `json:"request_body_text"`
	ResponseBodyText    string    `json:"response_body_text"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Text returns the raw text blob mirrored into properties of the given kind
func (v *Verb) Text(kind PropertyKind) string {
	switch kind {
	case KindQueryParameter:
		return v.QueryParametersText
	case KindRequestBody:
		return v.RequestBodyText
	case KindResponseBody:
		return v.ResponseBodyText
	}
	return ""
}

// SetText stores the raw text blob for the given kind
func (v *Verb) SetText(kind PropertyKind, text string) {
	switch kind {
	case KindQueryParameter:
		v.QueryParametersText = text
	case KindRequestBody:
		v.RequestBodyText = text
	case KindResponseBody:
		v.ResponseBodyText = text
	}
}

// CommonModel is a named reusable schema fragment referenced by $ref from
// request and response bodies. It is exported under "definitions".
type CommonModel struct {
	ID              int64     `json:"id"`
	SpecificationID int64     `json:"specification_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	PropertiesText  string    `json:"properties_text"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// PropertyKind tags a Property with the list it belongs to
type PropertyKind string

const (
	KindQueryParameter PropertyKind = "query_parameter"
	KindRequestBody    PropertyKind = "request_body_property"
	KindResponseBody   PropertyKind = "response_body_property"
	KindPathParameter  PropertyKind = "path_parameter"
	KindModelProperty  PropertyKind = "model_property"
)

// VerbKinds are the property kinds owned by a Verb
var VerbKinds = []PropertyKind{KindQueryParameter, KindRequestBody, KindResponseBody}

// ParentType names the entity that owns a property list
type ParentType string

const (
	ParentVerb          ParentType = "verb"
	ParentSpecification ParentType = "specification"
	ParentModel         ParentType = "model"
)

// Parent returns the owning entity type for the kind
func (k PropertyKind) Parent() ParentType {
	switch k {
	case KindPathParameter:
		return ParentSpecification
	case KindModelProperty:
		return ParentModel
	default:
		return ParentVerb
	}
}

// Valid reports whether k is a known kind
func (k PropertyKind) Valid() bool {
	switch k {
	case KindQueryParameter, KindRequestBody, KindResponseBody, KindPathParameter, KindModelProperty:
		return true
	}
	return false
}

// Property is a named, typed field belonging to a query, request body,
// response body, path parameter, or model property list. Records are
// ordered by Position within (ParentID, Kind) and unique by Name there.
type Property struct {
	ID          int64        `json:"id"`
	ParentID    int64        `json:"parent_id"`
	Kind        PropertyKind `json:"kind"`
	Name        string       `json:"name"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Format      string       `json:"format"`
	Required    bool         `json:"required"`
	Position    int          `json:"position"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// SameValues reports whether the mutable fields of p and o are equal
func (p *Property) SameValues(o *Property) bool {
	return p.Type == o.Type &&
		p.Description == o.Description &&
		p.Format == o.Format &&
		p.Required == o.Required
}

// CopyValues copies the mutable fields of o into p
func (p *Property) CopyValues(o *Property) {
	p.Type = o.Type
	p.Description = o.Description
	p.Format = o.Format
	p.Required = o.Required
}
