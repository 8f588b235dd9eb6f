package description

import (
	"strings"
)

const (
	objectTypeName       = "java.lang.Object"
	cloneableTypeName    = "java.lang.Cloneable"
	serializableTypeName = "java.io.Serializable"
)

// ArrayProjection describes an array of a component type. Its supertype and
// interfaces are looked up through the pool like any other reference.
type ArrayProjection struct {
	pool      Pool
	component TypeDescription
}

// OfArray wraps element arity levels deep. An arity of zero returns element unchanged.
func OfArray(pool Pool, element TypeDescription, arity int) TypeDescription {
	t := element
	for i := 0; i < arity; i++ {
		t = &ArrayProjection{pool: pool, component: t}
	}
	return t
}

func (a *ArrayProjection) Name() string {
	return "[" + strings.ReplaceAll(a.component.Descriptor(), "/", ".")
}

func (a *ArrayProjection) CanonicalName() string { return a.component.CanonicalName() + "[]" }
func (a *ArrayProjection) Descriptor() string    { return "[" + a.component.Descriptor() }
func (a *ArrayProjection) Modifiers() Modifiers  { return Public | Final | Abstract }
func (a *ArrayProjection) IsPrimitive() bool     { return false }
func (a *ArrayProjection) IsArray() bool         { return true }

func (a *ArrayProjection) ComponentType() TypeDescription { return a.component }

func (a *ArrayProjection) Supertype() (TypeDescription, error) {
	return a.pool.Describe(objectTypeName)
}

func (a *ArrayProjection) Interfaces() TypeList {
	return NewTypeList(a.pool, []string{cloneableTypeName, serializableTypeName}, 2)
}

func (a *ArrayProjection) DeclaringType() (TypeDescription, error)     { return nil, nil }
func (a *ArrayProjection) EnclosingType() (TypeDescription, error)     { return nil, nil }
func (a *ArrayProjection) EnclosingMethod() (MethodDescription, error) { return nil, nil }
func (a *ArrayProjection) IsAnonymous() bool                           { return false }
func (a *ArrayProjection) IsLocal() bool                               { return false }
func (a *ArrayProjection) IsMember() bool                              { return false }

func (a *ArrayProjection) DeclaredAnnotations() AnnotationList { return nil }
func (a *ArrayProjection) DeclaredFields() FieldList           { return nil }
func (a *ArrayProjection) DeclaredMethods() MethodList         { return nil }

func (a *ArrayProjection) String() string { return a.Name() }
