package model

// Graph is a read snapshot of one Specification and everything it owns.
// Slices are in the order the repository returned them; properties are in
// position order.
type Graph struct {
	Specification  *Specification
	PathParameters []*Property
	Models         []*ModelNode
	Paths          []*PathNode
}

// ModelNode is a CommonModel with its properties
type ModelNode struct {
	Model      *CommonModel
	Properties []*Property
}

// PathNode is a Path with its verbs
type PathNode struct {
	Path  *Path
	Verbs []*VerbNode
}

// VerbNode is a Verb with its three property lists
type VerbNode struct {
	Verb            *Verb
	QueryParameters []*Property
	RequestBody     []*Property
	ResponseBody    []*Property
}

// Properties returns the list for kind
func (n *VerbNode) Properties(kind PropertyKind) []*Property {
	switch kind {
	case KindQueryParameter:
		return n.QueryParameters
	case KindRequestBody:
		return n.RequestBody
	case KindResponseBody:
		return n.ResponseBody
	}
	return nil
}

// SetProperties replaces the list for kind
func (n *VerbNode) SetProperties(kind PropertyKind, props []*Property) {
	switch kind {
	case KindQueryParameter:
		n.QueryParameters = props
	case KindRequestBody:
		n.RequestBody = props
	case KindResponseBody:
		n.ResponseBody = props
	}
}
