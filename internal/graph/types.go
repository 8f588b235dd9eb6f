package graph

type RelationKind string

const (
	RelationExtends       RelationKind = "extends"
	RelationImplements    RelationKind = "implements"
	RelationDeclaredIn    RelationKind = "declared_in"
	RelationFieldType     RelationKind = "field_type"
	RelationReturns       RelationKind = "returns"
	RelationParameter     RelationKind = "parameter"
	RelationThrows        RelationKind = "throws"
	RelationAnnotatedWith RelationKind = "annotated_with"
	RelationComponentType RelationKind = "component_type"
)

type UnresolvedReason string

const (
	ReasonNotFound  UnresolvedReason = "not_found"
	ReasonMalformed UnresolvedReason = "malformed"
	ReasonInvalid   UnresolvedReason = "invalid_name"
	ReasonOther     UnresolvedReason = "other"
)

// Edge is a name-level reference from one type to another.
type Edge struct {
	From string       `json:"from" yaml:"from"`
	To   string       `json:"to" yaml:"to"`
	Kind RelationKind `json:"kind" yaml:"kind"`
}

// Unresolved records a name the pool could not describe.
type Unresolved struct {
	Name   string           `json:"name" yaml:"name"`
	Reason UnresolvedReason `json:"reason" yaml:"reason"`
	Error  string           `json:"error,omitempty" yaml:"error,omitempty"`
}
