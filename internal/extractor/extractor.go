// Package extractor turns class-file bytes into a token.TypeToken in a single
// pass over the file.
package extractor

import (
	"fmt"
	"os"

	"typepool/internal/classfile"
	"typepool/internal/description"
	"typepool/internal/token"
)

const (
	typeInitializer = "<clinit>"
	accSuper        = 0x20
)

// Extract parses data and returns the collected tokens. Any failure is a
// *description.MalformedFormatError.
func Extract(data []byte) (token.TypeToken, error) {
	reader, err := classfile.NewReader(data)
	if err != nil {
		return token.TypeToken{}, &description.MalformedFormatError{Err: err}
	}
	x := NewTypeExtractor()
	if err := reader.Accept(x); err != nil {
		return token.TypeToken{}, &description.MalformedFormatError{
			Name: classfile.BinaryNameOf(reader.ClassName()),
			Err:  err,
		}
	}
	return x.Token()
}

// ExtractFile reads and extracts a single .class file.
func ExtractFile(path string) (token.TypeToken, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return token.TypeToken{}, fmt.Errorf("failed to read class file %s: %w", path, err)
	}
	return Extract(data)
}

// TypeExtractor is a classfile.ClassVisitor that accumulates one TypeToken.
type TypeExtractor struct {
	internalName string
	tok          token.TypeToken
	err          error
	done         bool
}

func NewTypeExtractor() *TypeExtractor {
	return &TypeExtractor{}
}

// Token returns the collected token once the class has been fully visited.
func (x *TypeExtractor) Token() (token.TypeToken, error) {
	if x.err != nil {
		return token.TypeToken{}, &description.MalformedFormatError{Name: x.tok.Name, Err: x.err}
	}
	if !x.done {
		return token.TypeToken{}, &description.MalformedFormatError{
			Name: x.tok.Name,
			Err:  fmt.Errorf("%w: class was not visited to the end", classfile.ErrMalformed),
		}
	}
	return x.tok, nil
}

func (x *TypeExtractor) fail(err error) {
	if x.err == nil {
		x.err = err
	}
}

func (x *TypeExtractor) Visit(_ uint32, access int, name, _, superName string, interfaces []string) {
	x.internalName = name
	x.tok.Modifiers = description.Modifiers(access &^ accSuper)
	x.tok.Name = classfile.BinaryNameOf(name)
	if superName != "" {
		x.tok.SuperName = classfile.BinaryNameOf(superName)
	}
	x.tok.Interfaces = make([]string, 0, len(interfaces))
	for _, i := range interfaces {
		x.tok.Interfaces = append(x.tok.Interfaces, classfile.BinaryNameOf(i))
	}
}

// VisitOuterClass handles the EnclosingMethod record. An enclosing method is
// the most specific context and is never replaced afterwards.
func (x *TypeExtractor) VisitOuterClass(owner, name, descriptor string) {
	switch {
	case name != "":
		x.tok.Context = token.InMethod(classfile.BinaryNameOf(owner), name, descriptor)
	case owner != "" && !x.tok.Context.IsDeclaredInMethod():
		x.tok.Context = token.InType(classfile.BinaryNameOf(owner))
	}
}

// VisitInnerClass only cares about the record describing this class itself.
func (x *TypeExtractor) VisitInnerClass(name, outerName, innerName string, access int) {
	if name != x.internalName {
		return
	}
	x.tok.Modifiers = description.Modifiers(access)
	if innerName == "" {
		x.tok.Anonymous = true
	}
	if outerName != "" && x.tok.Context.IsSelfDeclared() {
		x.tok.Context = token.InType(classfile.BinaryNameOf(outerName))
	}
}

func (x *TypeExtractor) VisitAnnotation(descriptor string, _ bool) classfile.AnnotationVisitor {
	return x.annotationExtractor(descriptor, func(a token.AnnotationToken) {
		x.tok.Annotations = append(x.tok.Annotations, a)
	})
}

func (x *TypeExtractor) VisitField(access int, name, descriptor, _ string, _ any) classfile.FieldVisitor {
	if _, err := classfile.ParseType(descriptor); err != nil {
		x.fail(fmt.Errorf("field %s: %w", name, err))
		return nil
	}
	return &fieldExtractor{
		x:   x,
		tok: token.FieldToken{Modifiers: description.Modifiers(access), Name: name, Descriptor: descriptor},
	}
}

func (x *TypeExtractor) VisitMethod(access int, name, descriptor, _ string, exceptions []string) classfile.MethodVisitor {
	if name == typeInitializer {
		return nil
	}
	if _, _, err := classfile.ParseMethod(descriptor); err != nil {
		x.fail(fmt.Errorf("method %s: %w", name, err))
		return nil
	}
	m := &methodExtractor{
		x: x,
		tok: token.MethodToken{
			Modifiers:  description.Modifiers(access),
			Name:       name,
			Descriptor: descriptor,
			Exceptions: make([]string, 0, len(exceptions)),
		},
	}
	for _, e := range exceptions {
		m.tok.Exceptions = append(m.tok.Exceptions, classfile.BinaryNameOf(e))
	}
	return m
}

func (x *TypeExtractor) VisitEnd() {
	x.done = true
}

// annotationExtractor starts collecting one annotation; done receives the
// finished token on VisitEnd.
func (x *TypeExtractor) annotationExtractor(descriptor string, done func(token.AnnotationToken)) classfile.AnnotationVisitor {
	return &annotationExtractor{
		x:          x,
		registrant: newCollector(descriptor, done),
		locator:    forAnnotationProperty{annotationType: token.DescriptorToName(descriptor)},
	}
}

type fieldExtractor struct {
	x   *TypeExtractor
	tok token.FieldToken
}

func (f *fieldExtractor) VisitAnnotation(descriptor string, _ bool) classfile.AnnotationVisitor {
	return f.x.annotationExtractor(descriptor, func(a token.AnnotationToken) {
		f.tok.Annotations = append(f.tok.Annotations, a)
	})
}

func (f *fieldExtractor) VisitEnd() {
	f.x.tok.Fields = append(f.x.tok.Fields, f.tok)
}

type methodExtractor struct {
	x   *TypeExtractor
	tok token.MethodToken
}

func (m *methodExtractor) VisitAnnotationDefault() classfile.AnnotationVisitor {
	return &annotationExtractor{
		x:          m.x,
		registrant: &defaultValue{method: &m.tok},
		locator:    fixedArrayReturnType{descriptor: m.tok.Descriptor},
	}
}

func (m *methodExtractor) VisitAnnotation(descriptor string, _ bool) classfile.AnnotationVisitor {
	return m.x.annotationExtractor(descriptor, func(a token.AnnotationToken) {
		m.tok.Annotations = append(m.tok.Annotations, a)
	})
}

func (m *methodExtractor) VisitParameterAnnotation(parameter int, descriptor string, _ bool) classfile.AnnotationVisitor {
	return m.x.annotationExtractor(descriptor, func(a token.AnnotationToken) {
		if m.tok.ParameterAnnotations == nil {
			m.tok.ParameterAnnotations = make(map[int][]token.AnnotationToken)
		}
		m.tok.ParameterAnnotations[parameter] = append(m.tok.ParameterAnnotations[parameter], a)
	})
}

func (m *methodExtractor) VisitEnd() {
	m.x.tok.Methods = append(m.x.tok.Methods, m.tok)
}
