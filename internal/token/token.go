// Package token holds the immutable records a class-file parse produces.
// Tokens never reference a pool; every name is resolved later by whoever
// holds both a token and a pool.
package token

import (
	"strings"

	"typepool/internal/description"
)

// AnnotationToken is one annotation occurrence: its type descriptor and explicit values.
type AnnotationToken struct {
	Descriptor string
	Values     map[string]Value
}

// TypeName converts the descriptor "Lpkg/Ann;" to "pkg.Ann".
func (a AnnotationToken) TypeName() string {
	return DescriptorToName(a.Descriptor)
}

type FieldToken struct {
	Modifiers   description.Modifiers
	Name        string
	Descriptor  string
	Annotations []AnnotationToken
}

type MethodToken struct {
	Modifiers  description.Modifiers
	Name       string
	Descriptor string
	// Exceptions holds binary names of the declared exception types.
	Exceptions  []string
	Annotations []AnnotationToken
	// ParameterAnnotations is keyed by parameter index.
	ParameterAnnotations map[int][]AnnotationToken
	// Default is nil unless the method declares an annotation default.
	Default Value
}

// TypeToken is everything one class file contributes to a description.
type TypeToken struct {
	Modifiers   description.Modifiers
	Name        string
	SuperName   string
	Interfaces  []string
	Context     DeclarationContext
	Anonymous   bool
	Annotations []AnnotationToken
	Fields      []FieldToken
	Methods     []MethodToken
}

// ContextKind says where a type is declared.
type ContextKind int

const (
	SelfDeclared ContextKind = iota
	DeclaredInType
	DeclaredInMethod
)

func (k ContextKind) String() string {
	switch k {
	case DeclaredInType:
		return "type"
	case DeclaredInMethod:
		return "method"
	default:
		return "self"
	}
}

// DeclarationContext records the enclosing type and, for local and
// anonymous classes, the enclosing method.
type DeclarationContext struct {
	Kind             ContextKind
	Owner            string
	MethodName       string
	MethodDescriptor string
}

func InType(owner string) DeclarationContext {
	return DeclarationContext{Kind: DeclaredInType, Owner: owner}
}

func InMethod(owner, name, descriptor string) DeclarationContext {
	return DeclarationContext{Kind: DeclaredInMethod, Owner: owner, MethodName: name, MethodDescriptor: descriptor}
}

func (c DeclarationContext) IsSelfDeclared() bool     { return c.Kind == SelfDeclared }
func (c DeclarationContext) IsDeclaredInType() bool   { return c.Kind == DeclaredInType }
func (c DeclarationContext) IsDeclaredInMethod() bool { return c.Kind == DeclaredInMethod }

// DescriptorToName converts an object descriptor to a binary name. Anything
// that is not an object descriptor is returned with slashes replaced.
func DescriptorToName(descriptor string) string {
	if strings.HasPrefix(descriptor, "L") && strings.HasSuffix(descriptor, ";") {
		descriptor = descriptor[1 : len(descriptor)-1]
	}
	return strings.ReplaceAll(descriptor, "/", ".")
}
