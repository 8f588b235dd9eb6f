package token

import (
	"fmt"
	"strings"

	"typepool/internal/description"
)

// Annotation is an AnnotationDescription backed by a token. Its type is
// described through the pool only when a caller needs it.
type Annotation struct {
	pool  description.Pool
	token AnnotationToken
}

func NewAnnotation(pool description.Pool, t AnnotationToken) *Annotation {
	return &Annotation{pool: pool, token: t}
}

func (a *Annotation) TypeName() string { return a.token.TypeName() }

func (a *Annotation) AnnotationType() (description.TypeDescription, error) {
	return a.pool.Describe(a.TypeName())
}

// Value resolves an explicit value, or the default the annotation type
// declares for property.
func (a *Annotation) Value(property string) (any, error) {
	if v, ok := a.token.Values[property]; ok {
		return v.Resolve(a.pool)
	}
	t, err := a.AnnotationType()
	if err != nil {
		return nil, err
	}
	m, err := t.DeclaredMethods().Named(property).Only()
	if err != nil {
		return nil, fmt.Errorf("annotation %s has no property %q: %w", a.TypeName(), property, err)
	}
	v, err := m.DefaultValue()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("property %q of annotation %s has neither a value nor a default", property, a.TypeName())
	}
	return v, nil
}

func (a *Annotation) ExplicitProperties() []string {
	return description.SortedNames(a.token.Values)
}

// Materialize passes the explicit values to m. Defaults are the host's concern.
func (a *Annotation) Materialize(m description.Materializer) (any, error) {
	values := make(map[string]any, len(a.token.Values))
	for name, v := range a.token.Values {
		loaded, err := v.Materialize(a.pool, m)
		if err != nil {
			return nil, fmt.Errorf("materialize %s.%s: %w", a.TypeName(), name, err)
		}
		values[name] = loaded
	}
	return m.LoadAnnotation(a.TypeName(), values)
}

// Token returns the underlying record.
func (a *Annotation) Token() AnnotationToken { return a.token }

func (a *Annotation) String() string {
	var b strings.Builder
	b.WriteString("@")
	b.WriteString(a.TypeName())
	if len(a.token.Values) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(a.ExplicitProperties(), ", "))
		b.WriteString(")")
	}
	return b.String()
}

// EnumValue is an EnumerationValue whose enum type is resolved on demand.
type EnumValue struct {
	pool     description.Pool
	typeName string
	constant string
}

func NewEnumValue(pool description.Pool, typeName, constant string) *EnumValue {
	return &EnumValue{pool: pool, typeName: typeName, constant: constant}
}

func (e *EnumValue) TypeName() string { return e.typeName }
func (e *EnumValue) Value() string    { return e.constant }

func (e *EnumValue) EnumerationType() (description.TypeDescription, error) {
	return e.pool.Describe(e.typeName)
}

func (e *EnumValue) String() string { return e.typeName + "." + e.constant }
