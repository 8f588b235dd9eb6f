// Package description defines the read-only metadata contract shared by every
// descriptor variant: resolved descriptors for primitives and arrays, and the
// lazy descriptors built from class-file tokens.
//
// Every cross-reference between descriptors is held as a name and resolved
// through a Pool when the accessor is called, so a descriptor never owns
// another descriptor and cyclic references between units are harmless.
package description

// Pool maps type names to descriptions.
type Pool interface {
	// Describe returns the description of the named type. Array names use the
	// descriptor shorthand ("[I", "[Ljava.lang.String;").
	Describe(name string) (TypeDescription, error)

	// Clear drops every cached description. Descriptions already handed out
	// stay valid.
	Clear()
}

// TypeDescription describes a class, interface, annotation, enum, primitive or array type.
type TypeDescription interface {
	// Name returns the binary name with dots, e.g. "pkg.Outer$Inner" or "[I".
	Name() string
	// CanonicalName returns the source-level spelling, e.g. "pkg.Outer.Inner" or "int[]".
	CanonicalName() string
	// Descriptor returns the JVM descriptor, e.g. "Lpkg/Outer$Inner;".
	Descriptor() string
	Modifiers() Modifiers

	IsPrimitive() bool
	IsArray() bool
	// ComponentType returns nil unless the type is an array.
	ComponentType() TypeDescription

	// Supertype returns nil without error for interfaces, primitives and java.lang.Object.
	Supertype() (TypeDescription, error)
	Interfaces() TypeList

	// DeclaringType is set only for member types.
	DeclaringType() (TypeDescription, error)
	EnclosingType() (TypeDescription, error)
	EnclosingMethod() (MethodDescription, error)
	IsAnonymous() bool
	IsLocal() bool
	IsMember() bool

	DeclaredAnnotations() AnnotationList
	DeclaredFields() FieldList
	DeclaredMethods() MethodList
}

// FieldDescription describes a declared field.
type FieldDescription interface {
	Name() string
	Descriptor() string
	Modifiers() Modifiers
	Type() (TypeDescription, error)
	DeclaringType() TypeDescription
	DeclaredAnnotations() AnnotationList
}

// MethodDescription describes a declared method or constructor.
type MethodDescription interface {
	// InternalName returns "<init>" for constructors.
	InternalName() string
	Descriptor() string
	Modifiers() Modifiers
	IsConstructor() bool
	ReturnType() (TypeDescription, error)
	ParameterTypes() TypeList
	ExceptionTypes() TypeList
	DeclaringType() TypeDescription
	DeclaredAnnotations() AnnotationList
	// ParameterAnnotations has one entry per parameter.
	ParameterAnnotations() []AnnotationList
	// DefaultValue returns the resolved annotation default, or nil if the
	// method declares none.
	DefaultValue() (any, error)
}

// AnnotationDescription describes one annotation instance.
type AnnotationDescription interface {
	// TypeName is available without resolving the annotation type.
	TypeName() string
	AnnotationType() (TypeDescription, error)
	// Value returns the resolved value of a property, falling back to the
	// default declared by the annotation type when no explicit value exists.
	Value(property string) (any, error)
	// ExplicitProperties lists the properties carrying an explicit value, sorted.
	ExplicitProperties() []string
	Materialize(m Materializer) (any, error)
}

// EnumerationValue is a resolved enum constant.
type EnumerationValue interface {
	TypeName() string
	Value() string
	EnumerationType() (TypeDescription, error)
}

// Materializer turns annotation values into live values of a host environment.
type Materializer interface {
	LoadType(name string) (any, error)
	LoadEnum(typeName, constant string) (any, error)
	LoadAnnotation(typeName string, values map[string]any) (any, error)
	LoadArray(componentType string, elements []any) (any, error)
}

// Arity returns the number of array dimensions of t.
func Arity(t TypeDescription) int {
	n := 0
	for t != nil && t.IsArray() {
		n++
		t = t.ComponentType()
	}
	return n
}

// ElementType strips every array dimension from t.
func ElementType(t TypeDescription) TypeDescription {
	for t != nil && t.IsArray() {
		t = t.ComponentType()
	}
	return t
}

// Equal reports whether both descriptions denote the same type.
func Equal(a, b TypeDescription) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Name() == b.Name()
}
