package description

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNoUniqueMethod is returned by MethodList.Only when the list does not
// hold exactly one method.
var ErrNoUniqueMethod = errors.New("no unique method")

// TypeList is an ordered view of type names resolved element by element.
type TypeList interface {
	Len() int
	Get(i int) (TypeDescription, error)
	// Names returns the element names without resolving them.
	Names() []string
	// StackSize counts long and double entries twice.
	StackSize() int
}

// LazyTypeList resolves each element through the pool on Get.
type LazyTypeList struct {
	pool      Pool
	names     []string
	stackSize int
}

// NewTypeList builds a lazy list over names. stackSize is the operand stack
// footprint of the elements; pass len(names) for reference types.
func NewTypeList(pool Pool, names []string, stackSize int) *LazyTypeList {
	return &LazyTypeList{pool: pool, names: names, stackSize: stackSize}
}

// EmptyTypeList returns a list without elements.
func EmptyTypeList() *LazyTypeList {
	return &LazyTypeList{}
}

func (l *LazyTypeList) Len() int { return len(l.names) }

func (l *LazyTypeList) Get(i int) (TypeDescription, error) {
	if i < 0 || i >= len(l.names) {
		return nil, fmt.Errorf("type list index %d out of range [0, %d)", i, len(l.names))
	}
	return l.pool.Describe(l.names[i])
}

func (l *LazyTypeList) Names() []string {
	out := make([]string, len(l.names))
	copy(out, l.names)
	return out
}

func (l *LazyTypeList) StackSize() int { return l.stackSize }

type AnnotationList []AnnotationDescription

// OfType returns the first annotation whose type name matches.
func (l AnnotationList) OfType(typeName string) (AnnotationDescription, bool) {
	for _, a := range l {
		if a.TypeName() == typeName {
			return a, true
		}
	}
	return nil, false
}

func (l AnnotationList) IsPresent(typeName string) bool {
	_, ok := l.OfType(typeName)
	return ok
}

// TypeNames lists the annotation type names in declaration order.
func (l AnnotationList) TypeNames() []string {
	out := make([]string, 0, len(l))
	for _, a := range l {
		out = append(out, a.TypeName())
	}
	return out
}

type FieldList []FieldDescription

func (l FieldList) Named(name string) (FieldDescription, bool) {
	for _, f := range l {
		if f.Name() == name {
			return f, true
		}
	}
	return nil, false
}

type MethodList []MethodDescription

func (l MethodList) Filter(keep func(MethodDescription) bool) MethodList {
	var out MethodList
	for _, m := range l {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}

func (l MethodList) Named(name string) MethodList {
	return l.Filter(func(m MethodDescription) bool { return m.InternalName() == name })
}

func (l MethodList) Constructors() MethodList {
	return l.Filter(func(m MethodDescription) bool { return m.IsConstructor() })
}

// Only returns the single element of l.
func (l MethodList) Only() (MethodDescription, error) {
	if len(l) != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrNoUniqueMethod, len(l))
	}
	return l[0], nil
}

// SortedNames is a helper for deterministic rendering of value maps.
func SortedNames[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
