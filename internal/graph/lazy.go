package graph

import (
	"fmt"
	"strings"

	"typepool/internal/classfile"
	"typepool/internal/description"
	"typepool/internal/token"
)

const constructorName = "<init>"

// LazyType is a TypeDescription over a token. Construction only wraps the
// token; every accessor naming another type asks the pool at call time.
type LazyType struct {
	pool        description.Pool
	tok         token.TypeToken
	annotations description.AnnotationList
	fields      description.FieldList
	methods     description.MethodList
}

// NewLazyType wraps tok. It performs no lookups.
func NewLazyType(pool description.Pool, tok token.TypeToken) *LazyType {
	t := &LazyType{pool: pool, tok: tok}
	t.annotations = annotationList(pool, tok.Annotations)
	t.fields = make(description.FieldList, 0, len(tok.Fields))
	for _, f := range tok.Fields {
		t.fields = append(t.fields, &lazyField{owner: t, tok: f, annotations: annotationList(pool, f.Annotations)})
	}
	t.methods = make(description.MethodList, 0, len(tok.Methods))
	for _, m := range tok.Methods {
		t.methods = append(t.methods, newLazyMethod(t, m))
	}
	return t
}

func annotationList(pool description.Pool, tokens []token.AnnotationToken) description.AnnotationList {
	list := make(description.AnnotationList, 0, len(tokens))
	for _, a := range tokens {
		list = append(list, token.NewAnnotation(pool, a))
	}
	return list
}

// Token returns the record the description was built from.
func (t *LazyType) Token() token.TypeToken { return t.tok }

func (t *LazyType) Name() string { return t.tok.Name }

func (t *LazyType) CanonicalName() string {
	if t.tok.Anonymous || t.IsLocal() {
		return ""
	}
	return strings.ReplaceAll(t.tok.Name, "$", ".")
}

func (t *LazyType) Descriptor() string {
	return "L" + strings.ReplaceAll(t.tok.Name, ".", "/") + ";"
}

func (t *LazyType) Modifiers() description.Modifiers { return t.tok.Modifiers }
func (t *LazyType) IsPrimitive() bool                { return false }
func (t *LazyType) IsArray() bool                    { return false }

func (t *LazyType) ComponentType() description.TypeDescription { return nil }

func (t *LazyType) Supertype() (description.TypeDescription, error) {
	if t.tok.SuperName == "" || t.tok.Modifiers.IsInterface() {
		return nil, nil
	}
	return t.pool.Describe(t.tok.SuperName)
}

func (t *LazyType) Interfaces() description.TypeList {
	return description.NewTypeList(t.pool, t.tok.Interfaces, len(t.tok.Interfaces))
}

func (t *LazyType) DeclaringType() (description.TypeDescription, error) {
	if !t.IsMember() {
		return nil, nil
	}
	return t.pool.Describe(t.tok.Context.Owner)
}

func (t *LazyType) EnclosingType() (description.TypeDescription, error) {
	if t.tok.Context.IsSelfDeclared() {
		return nil, nil
	}
	return t.pool.Describe(t.tok.Context.Owner)
}

// EnclosingMethod finds the method or constructor a local or anonymous class
// is declared in, matching on name and descriptor.
func (t *LazyType) EnclosingMethod() (description.MethodDescription, error) {
	ctx := t.tok.Context
	if !ctx.IsDeclaredInMethod() {
		return nil, nil
	}
	owner, err := t.pool.Describe(ctx.Owner)
	if err != nil {
		return nil, err
	}
	m, err := owner.DeclaredMethods().Filter(func(m description.MethodDescription) bool {
		if ctx.MethodName == constructorName && !m.IsConstructor() {
			return false
		}
		return m.InternalName() == ctx.MethodName && m.Descriptor() == ctx.MethodDescriptor
	}).Only()
	if err != nil {
		return nil, fmt.Errorf("enclosing method %s%s of %s: %w", ctx.MethodName, ctx.MethodDescriptor, t.tok.Name, err)
	}
	return m, nil
}

func (t *LazyType) IsAnonymous() bool { return t.tok.Anonymous }

func (t *LazyType) IsLocal() bool {
	return !t.tok.Anonymous && t.tok.Context.IsDeclaredInMethod()
}

func (t *LazyType) IsMember() bool {
	return !t.tok.Anonymous && t.tok.Context.IsDeclaredInType()
}

func (t *LazyType) DeclaredAnnotations() description.AnnotationList { return t.annotations }
func (t *LazyType) DeclaredFields() description.FieldList           { return t.fields }
func (t *LazyType) DeclaredMethods() description.MethodList         { return t.methods }

func (t *LazyType) String() string { return t.tok.Name }

type lazyField struct {
	owner       *LazyType
	tok         token.FieldToken
	annotations description.AnnotationList
}

func (f *lazyField) Name() string                     { return f.tok.Name }
func (f *lazyField) Descriptor() string               { return f.tok.Descriptor }
func (f *lazyField) Modifiers() description.Modifiers { return f.tok.Modifiers }

func (f *lazyField) Type() (description.TypeDescription, error) {
	typ, err := classfile.ParseType(f.tok.Descriptor)
	if err != nil {
		return nil, &description.MalformedFormatError{Name: f.owner.Name(), Err: err}
	}
	return f.owner.pool.Describe(typ.BinaryName())
}

func (f *lazyField) DeclaringType() description.TypeDescription      { return f.owner }
func (f *lazyField) DeclaredAnnotations() description.AnnotationList { return f.annotations }

func (f *lazyField) String() string { return f.owner.Name() + "." + f.tok.Name }

type lazyMethod struct {
	owner       *LazyType
	tok         token.MethodToken
	returnName  string
	parameters  []string
	stackSize   int
	annotations description.AnnotationList
	perParam    []description.AnnotationList
	err         error
}

func newLazyMethod(owner *LazyType, tok token.MethodToken) *lazyMethod {
	m := &lazyMethod{owner: owner, tok: tok, annotations: annotationList(owner.pool, tok.Annotations)}
	args, ret, err := classfile.ParseMethod(tok.Descriptor)
	if err != nil {
		m.err = &description.MalformedFormatError{Name: owner.Name(), Err: err}
		return m
	}
	m.returnName = ret.BinaryName()
	m.parameters = make([]string, 0, len(args))
	m.perParam = make([]description.AnnotationList, len(args))
	for i, a := range args {
		m.parameters = append(m.parameters, a.BinaryName())
		m.stackSize += a.Size()
		m.perParam[i] = annotationList(owner.pool, tok.ParameterAnnotations[i])
	}
	return m
}

func (m *lazyMethod) InternalName() string             { return m.tok.Name }
func (m *lazyMethod) Descriptor() string               { return m.tok.Descriptor }
func (m *lazyMethod) Modifiers() description.Modifiers { return m.tok.Modifiers }
func (m *lazyMethod) IsConstructor() bool              { return m.tok.Name == constructorName }

func (m *lazyMethod) ReturnType() (description.TypeDescription, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.owner.pool.Describe(m.returnName)
}

func (m *lazyMethod) ParameterTypes() description.TypeList {
	return description.NewTypeList(m.owner.pool, m.parameters, m.stackSize)
}

func (m *lazyMethod) ExceptionTypes() description.TypeList {
	return description.NewTypeList(m.owner.pool, m.tok.Exceptions, len(m.tok.Exceptions))
}

func (m *lazyMethod) DeclaringType() description.TypeDescription      { return m.owner }
func (m *lazyMethod) DeclaredAnnotations() description.AnnotationList { return m.annotations }

func (m *lazyMethod) ParameterAnnotations() []description.AnnotationList { return m.perParam }

func (m *lazyMethod) DefaultValue() (any, error) {
	if m.tok.Default == nil {
		return nil, nil
	}
	return m.tok.Default.Resolve(m.owner.pool)
}

func (m *lazyMethod) String() string {
	return m.owner.Name() + "." + m.tok.Name + m.tok.Descriptor
}
