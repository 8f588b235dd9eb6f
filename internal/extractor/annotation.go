package extractor

import (
	"fmt"

	"typepool/internal/classfile"
	"typepool/internal/token"
)

// registrant receives the values of one annotation, array or default value.
type registrant interface {
	register(name string, v token.Value)
	complete()
}

// annotationExtractor classifies element values as they arrive and hands
// them to its registrant.
type annotationExtractor struct {
	x          *TypeExtractor
	registrant registrant
	locator    componentLocator
}

func (a *annotationExtractor) Visit(name string, value any) {
	switch v := value.(type) {
	case classfile.Type:
		a.registrant.register(name, token.TypeReference{Name: v.BinaryName()})
	default:
		a.registrant.register(name, token.Scalar{Value: v})
	}
}

func (a *annotationExtractor) VisitEnum(name, descriptor, value string) {
	a.registrant.register(name, token.EnumConstant{Descriptor: descriptor, Constant: value})
}

func (a *annotationExtractor) VisitAnnotation(name, descriptor string) classfile.AnnotationVisitor {
	parent := a.registrant
	return &annotationExtractor{
		x: a.x,
		registrant: newCollector(descriptor, func(t token.AnnotationToken) {
			parent.register(name, token.NestedAnnotation{Token: t})
		}),
		locator: forAnnotationProperty{annotationType: token.DescriptorToName(descriptor)},
	}
}

func (a *annotationExtractor) VisitArray(name string) classfile.AnnotationVisitor {
	ref, err := a.locator.bind(name)
	if err != nil {
		a.x.fail(err)
		return nil
	}
	return &annotationExtractor{
		x:          a.x,
		registrant: &arrayCollector{parent: a.registrant, name: name, component: ref},
		locator:    illegalLocator{},
	}
}

func (a *annotationExtractor) VisitEnd() {
	a.registrant.complete()
}

// collector builds an AnnotationToken.
type collector struct {
	descriptor string
	values     map[string]token.Value
	done       func(token.AnnotationToken)
}

func newCollector(descriptor string, done func(token.AnnotationToken)) *collector {
	return &collector{descriptor: descriptor, values: make(map[string]token.Value), done: done}
}

func (c *collector) register(name string, v token.Value) { c.values[name] = v }

func (c *collector) complete() {
	c.done(token.AnnotationToken{Descriptor: c.descriptor, Values: c.values})
}

type arrayCollector struct {
	parent    registrant
	name      string
	component token.ComponentTypeReference
	values    []token.Value
}

func (c *arrayCollector) register(_ string, v token.Value) { c.values = append(c.values, v) }

func (c *arrayCollector) complete() {
	values := c.values
	if values == nil {
		values = []token.Value{}
	}
	c.parent.register(c.name, token.ComplexArray{Component: c.component, Elements: values})
}

// defaultValue stores the single value of an AnnotationDefault attribute.
type defaultValue struct {
	method *token.MethodToken
}

func (d *defaultValue) register(_ string, v token.Value) { d.method.Default = v }

func (d *defaultValue) complete() {}

// componentLocator binds the component type of an array found under a
// property name.
type componentLocator interface {
	bind(property string) (token.ComponentTypeReference, error)
}

type forAnnotationProperty struct {
	annotationType string
}

func (l forAnnotationProperty) bind(property string) (token.ComponentTypeReference, error) {
	return token.PropertyComponentType{AnnotationType: l.annotationType, Property: property}, nil
}

type fixedArrayReturnType struct {
	descriptor string
}

func (l fixedArrayReturnType) bind(string) (token.ComponentTypeReference, error) {
	_, ret, err := classfile.ParseMethod(l.descriptor)
	if err != nil {
		return nil, err
	}
	if ret.Sort() != classfile.SortArray {
		return nil, fmt.Errorf("%w: array default value for method returning %s", classfile.ErrMalformed, ret.ClassName())
	}
	return token.FixedComponentType{Name: ret.ComponentType().BinaryName()}, nil
}

// illegalLocator is used inside arrays, which cannot nest.
type illegalLocator struct{}

func (illegalLocator) bind(string) (token.ComponentTypeReference, error) {
	return nil, fmt.Errorf("%w: nested array in annotation value", classfile.ErrMalformed)
}
