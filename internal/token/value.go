package token

import (
	"fmt"

	"typepool/internal/description"
)

// Value is an annotation value held until someone asks for it. Resolve
// yields the metadata-level form: scalars as-is, class literals as
// TypeDescription, enum constants as EnumerationValue, nested annotations
// as AnnotationDescription and arrays as typed slices of those. Materialize
// hands the value to a host environment.
type Value interface {
	Resolve(pool description.Pool) (any, error)
	Materialize(pool description.Pool, m description.Materializer) (any, error)
}

// Scalar is a literal: a number, bool, char, string or primitive array.
type Scalar struct {
	Value any
}

func (s Scalar) Resolve(description.Pool) (any, error) { return s.Value, nil }

func (s Scalar) Materialize(description.Pool, description.Materializer) (any, error) {
	return s.Value, nil
}

// TypeReference is a class literal, named by binary name ("java.lang.String", "[I", "void").
type TypeReference struct {
	Name string
}

func (r TypeReference) Resolve(pool description.Pool) (any, error) {
	return pool.Describe(r.Name)
}

func (r TypeReference) Materialize(_ description.Pool, m description.Materializer) (any, error) {
	return m.LoadType(r.Name)
}

// EnumConstant names one constant of an enum given by descriptor.
type EnumConstant struct {
	Descriptor string
	Constant   string
}

func (e EnumConstant) Resolve(pool description.Pool) (any, error) {
	return NewEnumValue(pool, DescriptorToName(e.Descriptor), e.Constant), nil
}

func (e EnumConstant) Materialize(_ description.Pool, m description.Materializer) (any, error) {
	return m.LoadEnum(DescriptorToName(e.Descriptor), e.Constant)
}

// NestedAnnotation is an annotation used as a value.
type NestedAnnotation struct {
	Token AnnotationToken
}

func (n NestedAnnotation) Resolve(pool description.Pool) (any, error) {
	return NewAnnotation(pool, n.Token), nil
}

func (n NestedAnnotation) Materialize(pool description.Pool, m description.Materializer) (any, error) {
	return NewAnnotation(pool, n.Token).Materialize(m)
}

// ComplexArray is an array of class literals, strings, enum constants or
// annotations. Its component type is only known through Component.
type ComplexArray struct {
	Component ComponentTypeReference
	Elements  []Value
}

const (
	classTypeName  = "java.lang.Class"
	stringTypeName = "java.lang.String"
)

// Empty primitive arrays reach the extractor as arrays rather than literals.
var emptyPrimitiveArrays = map[string]any{
	"boolean": []bool{},
	"byte":    []int8{},
	"char":    []uint16{},
	"short":   []int16{},
	"int":     []int32{},
	"long":    []int64{},
	"float":   []float32{},
	"double":  []float64{},
}

func (a ComplexArray) Resolve(pool description.Pool) (any, error) {
	component, err := a.Component.Lookup(pool)
	if err != nil {
		return nil, err
	}
	switch component {
	case classTypeName:
		return resolveElements[description.TypeDescription](pool, a.Elements, component)
	case stringTypeName:
		return resolveElements[string](pool, a.Elements, component)
	}
	if empty, ok := emptyPrimitiveArrays[component]; ok && len(a.Elements) == 0 {
		return empty, nil
	}

	t, err := pool.Describe(component)
	if err != nil {
		return nil, err
	}
	switch {
	case t.Modifiers().IsEnum():
		return resolveElements[description.EnumerationValue](pool, a.Elements, component)
	case t.Modifiers().IsAnnotation():
		return resolveElements[description.AnnotationDescription](pool, a.Elements, component)
	default:
		return nil, &description.UnexpectedShapeError{ComponentType: component}
	}
}

func resolveElements[T any](pool description.Pool, elements []Value, component string) ([]T, error) {
	out := make([]T, 0, len(elements))
	for i, e := range elements {
		v, err := e.Resolve(pool)
		if err != nil {
			return nil, fmt.Errorf("resolve element %d of %s array: %w", i, component, err)
		}
		typed, ok := v.(T)
		if !ok {
			return nil, &description.UnexpectedShapeError{ComponentType: component}
		}
		out = append(out, typed)
	}
	return out, nil
}

func (a ComplexArray) Materialize(pool description.Pool, m description.Materializer) (any, error) {
	component, err := a.Component.Lookup(pool)
	if err != nil {
		return nil, err
	}
	elements := make([]any, 0, len(a.Elements))
	for _, e := range a.Elements {
		v, err := e.Materialize(pool, m)
		if err != nil {
			return nil, err
		}
		elements = append(elements, v)
	}
	return m.LoadArray(component, elements)
}

// ComponentTypeReference yields the binary name of an array's component type.
type ComponentTypeReference interface {
	Lookup(pool description.Pool) (string, error)
}

// PropertyComponentType reads the component type from the return type of
// the annotation member the array is assigned to.
type PropertyComponentType struct {
	AnnotationType string
	Property       string
}

func (p PropertyComponentType) Lookup(pool description.Pool) (string, error) {
	t, err := pool.Describe(p.AnnotationType)
	if err != nil {
		return "", err
	}
	m, err := t.DeclaredMethods().Named(p.Property).Only()
	if err != nil {
		return "", fmt.Errorf("annotation %s property %q: %w", p.AnnotationType, p.Property, err)
	}
	r, err := m.ReturnType()
	if err != nil {
		return "", err
	}
	if !r.IsArray() {
		return "", fmt.Errorf("annotation %s property %q returns non-array type %s", p.AnnotationType, p.Property, r.Name())
	}
	return r.ComponentType().Name(), nil
}

// FixedComponentType is used for annotation defaults, whose component type
// is known from the method descriptor.
type FixedComponentType struct {
	Name string
}

func (f FixedComponentType) Lookup(description.Pool) (string, error) { return f.Name, nil }
