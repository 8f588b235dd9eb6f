// Package report renders a type description as a plain serializable tree.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"typepool/internal/description"
)

// Type is the report of one described type.
type Type struct {
	Name            string       `json:"name" yaml:"name"`
	CanonicalName   string       `json:"canonical_name,omitempty" yaml:"canonical_name,omitempty"`
	Kind            string       `json:"kind" yaml:"kind"`
	Modifiers       string       `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Supertype       string       `json:"supertype,omitempty" yaml:"supertype,omitempty"`
	Interfaces      []string     `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	DeclaringType   string       `json:"declaring_type,omitempty" yaml:"declaring_type,omitempty"`
	EnclosingMethod string       `json:"enclosing_method,omitempty" yaml:"enclosing_method,omitempty"`
	Deprecated      bool         `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Annotations     []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Fields          []Field      `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods         []Method     `json:"methods,omitempty" yaml:"methods,omitempty"`
	Errors          []string     `json:"errors,omitempty" yaml:"errors,omitempty"`
}

type Field struct {
	Name        string       `json:"name" yaml:"name"`
	Type        string       `json:"type" yaml:"type"`
	Modifiers   string       `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Deprecated  bool         `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

type Method struct {
	Name        string       `json:"name" yaml:"name"`
	Descriptor  string       `json:"descriptor" yaml:"descriptor"`
	Modifiers   string       `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Parameters  []string     `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Exceptions  []string     `json:"exceptions,omitempty" yaml:"exceptions,omitempty"`
	Deprecated  bool         `json:"deprecated,omitempty" yaml:"deprecated,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty" yaml:"annotations,omitempty"`
	Default     any          `json:"default,omitempty" yaml:"default,omitempty"`
}

// Annotation carries the rendered values of one annotation. Values that
// could not be resolved are listed under Errors instead.
type Annotation struct {
	Type   string            `json:"type" yaml:"type"`
	Values map[string]any    `json:"values,omitempty" yaml:"values,omitempty"`
	Errors map[string]string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

const deprecated = "java.lang.Deprecated"

// Options controls how much of a type is resolved.
type Options struct {
	// Defaults adds annotation properties left at their declared default.
	Defaults bool
	// Members includes fields and methods.
	Members bool
}

// Build renders t. Lookups that fail are recorded in the report rather than
// returned, since an unresolvable reference is an ordinary outcome.
func Build(t description.TypeDescription, opts Options) *Type {
	r := &Type{
		Name:          t.Name(),
		CanonicalName: t.CanonicalName(),
		Kind:          kind(t),
		Modifiers:     t.Modifiers().String(),
		Interfaces:    t.Interfaces().Names(),
	}
	if t.CanonicalName() == t.Name() {
		r.CanonicalName = ""
	}
	if super, err := t.Supertype(); err != nil {
		r.Errors = append(r.Errors, err.Error())
	} else if super != nil {
		r.Supertype = super.Name()
	}
	if declaring, err := t.DeclaringType(); err != nil {
		r.Errors = append(r.Errors, err.Error())
	} else if declaring != nil {
		r.DeclaringType = declaring.Name()
	}
	if m, err := t.EnclosingMethod(); err != nil {
		r.Errors = append(r.Errors, err.Error())
	} else if m != nil {
		r.EnclosingMethod = m.DeclaringType().Name() + "." + m.InternalName() + m.Descriptor()
	}
	r.Deprecated = t.DeclaredAnnotations().IsPresent(deprecated)
	r.Annotations = annotations(t.DeclaredAnnotations(), opts)

	if !opts.Members {
		return r
	}
	for _, f := range t.DeclaredFields() {
		fr := Field{
			Name:        f.Name(),
			Type:        f.Descriptor(),
			Modifiers:   f.Modifiers().String(),
			Deprecated:  f.DeclaredAnnotations().IsPresent(deprecated),
			Annotations: annotations(f.DeclaredAnnotations(), opts),
		}
		if ft, err := f.Type(); err == nil {
			fr.Type = ft.Name()
		}
		r.Fields = append(r.Fields, fr)
	}
	for _, m := range t.DeclaredMethods() {
		mr := Method{
			Name:        m.InternalName(),
			Descriptor:  m.Descriptor(),
			Modifiers:   m.Modifiers().String(),
			Parameters:  m.ParameterTypes().Names(),
			Exceptions:  m.ExceptionTypes().Names(),
			Deprecated:  m.DeclaredAnnotations().IsPresent(deprecated),
			Annotations: annotations(m.DeclaredAnnotations(), opts),
		}
		if v, err := m.DefaultValue(); err != nil {
			r.Errors = append(r.Errors, fmt.Sprintf("default of %s: %v", m.InternalName(), err))
		} else if v != nil {
			mr.Default = Plain(v)
		}
		r.Methods = append(r.Methods, mr)
	}
	return r
}

func kind(t description.TypeDescription) string {
	m := t.Modifiers()
	switch {
	case t.IsPrimitive():
		return "primitive"
	case t.IsArray():
		return "array"
	case m.IsAnnotation():
		return "annotation"
	case m.IsInterface():
		return "interface"
	case m.IsEnum():
		return "enum"
	default:
		return "class"
	}
}

func annotations(list description.AnnotationList, opts Options) []Annotation {
	var out []Annotation
	for _, a := range list {
		out = append(out, annotation(a, opts))
	}
	return out
}

func annotation(a description.AnnotationDescription, opts Options) Annotation {
	out := Annotation{Type: a.TypeName()}
	if v, err := a.Materialize(Materializer{}); err != nil {
		out.errorf("*", err)
	} else {
		out.Values = v.(AnnotationValue).Values
	}
	if !opts.Defaults {
		return out
	}

	at, err := a.AnnotationType()
	if err != nil {
		out.errorf("*", err)
		return out
	}
	for _, m := range at.DeclaredMethods() {
		name := m.InternalName()
		if _, ok := out.Values[name]; ok {
			continue
		}
		v, err := a.Value(name)
		if err != nil {
			out.errorf(name, err)
			continue
		}
		if out.Values == nil {
			out.Values = make(map[string]any)
		}
		out.Values[name] = Plain(v)
	}
	return out
}

func (a *Annotation) errorf(property string, err error) {
	if a.Errors == nil {
		a.Errors = make(map[string]string)
	}
	a.Errors[property] = err.Error()
}

// Plain converts a resolved annotation value to strings, numbers, maps and
// slices.
func Plain(v any) any {
	switch x := v.(type) {
	case description.TypeDescription:
		return x.Name()
	case description.EnumerationValue:
		return x.TypeName() + "." + x.Value()
	case description.AnnotationDescription:
		if m, err := x.Materialize(Materializer{}); err == nil {
			return m
		}
		return "@" + x.TypeName()
	case []description.TypeDescription:
		return plainSlice(x)
	case []description.EnumerationValue:
		return plainSlice(x)
	case []description.AnnotationDescription:
		return plainSlice(x)
	case uint16:
		return string(rune(x))
	default:
		return v
	}
}

func plainSlice[T any](in []T) []any {
	out := make([]any, 0, len(in))
	for _, e := range in {
		out = append(out, Plain(e))
	}
	return out
}

// AnnotationValue is what Materializer produces for an annotation.
type AnnotationValue struct {
	Type   string         `json:"@type" yaml:"@type"`
	Values map[string]any `json:"values,omitempty" yaml:"values,omitempty"`
}

// Materializer loads annotation values as plain data.
type Materializer struct{}

func (Materializer) LoadType(name string) (any, error) { return name, nil }

func (Materializer) LoadEnum(typeName, constant string) (any, error) {
	return typeName + "." + constant, nil
}

func (Materializer) LoadAnnotation(typeName string, values map[string]any) (any, error) {
	for k, v := range values {
		values[k] = Plain(v)
	}
	return AnnotationValue{Type: typeName, Values: values}, nil
}

func (Materializer) LoadArray(_ string, elements []any) (any, error) { return elements, nil }

// Write encodes reports as "yaml" or "json".
func Write(w io.Writer, format string, reports ...*Type) error {
	switch format {
	case "yaml", "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, r := range reports {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to encode %s: %w", r.Name, err)
			}
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return fmt.Errorf("failed to encode reports: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
