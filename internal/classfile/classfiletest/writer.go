// Package classfiletest assembles class files in memory for tests.
package classfiletest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"

	"typepool/internal/classfile"
)

// Value is an annotation element value.
type Value interface {
	write(p *constPool, w *bytes.Buffer)
}

// Element is a named annotation element.
type Element struct {
	Name  string
	Value Value
}

func Elem(name string, v Value) Element { return Element{Name: name, Value: v} }

type scalar struct {
	tag  byte
	bits uint64
}

func (s scalar) write(p *constPool, w *bytes.Buffer) {
	w.WriteByte(s.tag)
	var idx uint16
	switch s.tag {
	case 'J':
		idx = p.long(s.bits, 5)
	case 'D':
		idx = p.long(s.bits, 6)
	case 'F':
		idx = p.integer(uint32(s.bits), 4)
	default:
		idx = p.integer(uint32(s.bits), 3)
	}
	u2(w, idx)
}

func Int(v int32) Value      { return scalar{'I', uint64(uint32(v))} }
func Byte(v int8) Value      { return scalar{'B', uint64(uint32(int32(v)))} }
func Short(v int16) Value    { return scalar{'S', uint64(uint32(int32(v)))} }
func Char(v uint16) Value    { return scalar{'C', uint64(v)} }
func Long(v int64) Value     { return scalar{'J', uint64(v)} }
func Float(v float32) Value  { return scalar{'F', uint64(math.Float32bits(v))} }
func Double(v float64) Value { return scalar{'D', math.Float64bits(v)} }

func Bool(v bool) Value {
	if v {
		return scalar{'Z', 1}
	}
	return scalar{'Z', 0}
}

type stringValue string

func (s stringValue) write(p *constPool, w *bytes.Buffer) {
	w.WriteByte('s')
	u2(w, p.utf8(string(s)))
}

func String(v string) Value { return stringValue(v) }

type classValue string

func (c classValue) write(p *constPool, w *bytes.Buffer) {
	w.WriteByte('c')
	u2(w, p.utf8(string(c)))
}

// Class is a class literal given by descriptor, e.g. "Ljava/lang/String;" or "V".
func Class(descriptor string) Value { return classValue(descriptor) }

type enumValue struct{ descriptor, name string }

func (e enumValue) write(p *constPool, w *bytes.Buffer) {
	w.WriteByte('e')
	u2(w, p.utf8(e.descriptor))
	u2(w, p.utf8(e.name))
}

func Enum(descriptor, name string) Value { return enumValue{descriptor, name} }

type nestedValue struct {
	descriptor string
	elements   []Element
}

func (n nestedValue) write(p *constPool, w *bytes.Buffer) {
	w.WriteByte('@')
	writeAnnotation(p, w, n.descriptor, n.elements)
}

func Nested(descriptor string, elements ...Element) Value {
	return nestedValue{descriptor, elements}
}

type arrayValue []Value

func (a arrayValue) write(p *constPool, w *bytes.Buffer) {
	w.WriteByte('[')
	u2(w, uint16(len(a)))
	for _, v := range a {
		v.write(p, w)
	}
}

func Array(values ...Value) Value { return arrayValue(values) }

type annotation struct {
	descriptor string
	visible    bool
	elements   []Element
}

type attribute struct {
	name string
	body []byte
}

// ClassFile accumulates the parts of one class file.
type ClassFile struct {
	access      int
	name        string
	superName   string
	interfaces  []string
	annotations []annotation
	fields      []*Field
	methods     []*Method
	inner       [][4]any
	enclosing   []string
	signature   string
	raw         []attribute
}

// NewClass starts a class. superName may be empty for java/lang/Object and module-info.
func NewClass(access int, name, superName string, interfaces ...string) *ClassFile {
	return &ClassFile{access: access, name: name, superName: superName, interfaces: interfaces}
}

func (c *ClassFile) Annotation(descriptor string, visible bool, elements ...Element) *ClassFile {
	c.annotations = append(c.annotations, annotation{descriptor, visible, elements})
	return c
}

func (c *ClassFile) Signature(signature string) *ClassFile {
	c.signature = signature
	return c
}

// InnerClass adds an InnerClasses entry. Empty names are written as index 0.
func (c *ClassFile) InnerClass(name, outerName, simpleName string, access int) *ClassFile {
	c.inner = append(c.inner, [4]any{name, outerName, simpleName, access})
	return c
}

// EnclosingMethod sets the EnclosingMethod attribute. An empty method name
// writes a zero method index.
func (c *ClassFile) EnclosingMethod(owner, name, descriptor string) *ClassFile {
	c.enclosing = []string{owner, name, descriptor}
	return c
}

// Attribute appends an attribute the reader does not model.
func (c *ClassFile) Attribute(name string, body []byte) *ClassFile {
	c.raw = append(c.raw, attribute{name, body})
	return c
}

type Field struct {
	access      int
	name        string
	descriptor  string
	constant    any
	annotations []annotation
}

func (c *ClassFile) Field(access int, name, descriptor string) *Field {
	f := &Field{access: access, name: name, descriptor: descriptor}
	c.fields = append(c.fields, f)
	return f
}

func (f *Field) Annotation(descriptor string, visible bool, elements ...Element) *Field {
	f.annotations = append(f.annotations, annotation{descriptor, visible, elements})
	return f
}

// Constant sets the ConstantValue attribute: int32, int64, float32, float64 or string.
func (f *Field) Constant(v any) *Field {
	f.constant = v
	return f
}

type parameterAnnotation struct {
	index int
	annotation
}

type Method struct {
	access       int
	name         string
	descriptor   string
	exceptions   []string
	annotations  []annotation
	parameters   []parameterAnnotation
	annotated    int
	defaultValue Value
	raw          []attribute
}

func (c *ClassFile) Method(access int, name, descriptor string, exceptions ...string) *Method {
	m := &Method{access: access, name: name, descriptor: descriptor, exceptions: exceptions}
	c.methods = append(c.methods, m)
	return m
}

func (m *Method) Annotation(descriptor string, visible bool, elements ...Element) *Method {
	m.annotations = append(m.annotations, annotation{descriptor, visible, elements})
	return m
}

func (m *Method) ParameterAnnotation(index int, descriptor string, visible bool, elements ...Element) *Method {
	m.parameters = append(m.parameters, parameterAnnotation{index, annotation{descriptor, visible, elements}})
	return m
}

// AnnotatedParameters writes n as the parameter count of the parameter
// annotation tables instead of the descriptor arity. Indexes passed to
// ParameterAnnotation then count from the first of those n parameters.
func (m *Method) AnnotatedParameters(n int) *Method {
	m.annotated = n
	return m
}

func (m *Method) AnnotationDefault(v Value) *Method {
	m.defaultValue = v
	return m
}

// Code attaches an opaque Code attribute.
func (m *Method) Code(body []byte) *Method {
	m.raw = append(m.raw, attribute{"Code", body})
	return m
}

// Bytes serializes the class file. It panics on descriptors it cannot parse,
// which only happens for broken test input.
func (c *ClassFile) Bytes() []byte {
	p := newConstPool()
	var body bytes.Buffer

	u2(&body, uint16(c.access))
	u2(&body, p.class(c.name))
	if c.superName == "" {
		u2(&body, 0)
	} else {
		u2(&body, p.class(c.superName))
	}
	u2(&body, uint16(len(c.interfaces)))
	for _, i := range c.interfaces {
		u2(&body, p.class(i))
	}

	u2(&body, uint16(len(c.fields)))
	for _, f := range c.fields {
		f.write(p, &body)
	}
	u2(&body, uint16(len(c.methods)))
	for _, m := range c.methods {
		m.write(p, &body)
	}

	var attrs []attribute
	if c.signature != "" {
		attrs = append(attrs, attribute{"Signature", index(p.utf8(c.signature))})
	}
	attrs = append(attrs, annotationAttributes(p, c.annotations)...)
	if len(c.inner) > 0 {
		var b bytes.Buffer
		u2(&b, uint16(len(c.inner)))
		for _, e := range c.inner {
			u2(&b, p.optionalClass(e[0].(string)))
			u2(&b, p.optionalClass(e[1].(string)))
			if simple := e[2].(string); simple != "" {
				u2(&b, p.utf8(simple))
			} else {
				u2(&b, 0)
			}
			u2(&b, uint16(e[3].(int)))
		}
		attrs = append(attrs, attribute{"InnerClasses", b.Bytes()})
	}
	if c.enclosing != nil {
		var b bytes.Buffer
		u2(&b, p.class(c.enclosing[0]))
		if c.enclosing[1] != "" {
			u2(&b, p.nameAndType(c.enclosing[1], c.enclosing[2]))
		} else {
			u2(&b, 0)
		}
		attrs = append(attrs, attribute{"EnclosingMethod", b.Bytes()})
	}
	attrs = append(attrs, c.raw...)
	writeAttributes(p, &body, attrs)

	var out bytes.Buffer
	u4(&out, 0xCAFEBABE)
	u2(&out, 0)
	u2(&out, 52)
	u2(&out, p.next)
	out.Write(p.buf.Bytes())
	out.Write(body.Bytes())
	return out.Bytes()
}

func (f *Field) write(p *constPool, w *bytes.Buffer) {
	u2(w, uint16(f.access))
	u2(w, p.utf8(f.name))
	u2(w, p.utf8(f.descriptor))
	var attrs []attribute
	if f.constant != nil {
		var idx uint16
		switch v := f.constant.(type) {
		case int32:
			idx = p.integer(uint32(v), 3)
		case float32:
			idx = p.integer(math.Float32bits(v), 4)
		case int64:
			idx = p.long(uint64(v), 5)
		case float64:
			idx = p.long(math.Float64bits(v), 6)
		case string:
			idx = p.str(v)
		default:
			panic(fmt.Sprintf("unsupported constant %T", v))
		}
		attrs = append(attrs, attribute{"ConstantValue", index(idx)})
	}
	attrs = append(attrs, annotationAttributes(p, f.annotations)...)
	writeAttributes(p, w, attrs)
}

func (m *Method) write(p *constPool, w *bytes.Buffer) {
	u2(w, uint16(m.access))
	u2(w, p.utf8(m.name))
	u2(w, p.utf8(m.descriptor))

	var attrs []attribute
	attrs = append(attrs, m.raw...)
	if len(m.exceptions) > 0 {
		var b bytes.Buffer
		u2(&b, uint16(len(m.exceptions)))
		for _, e := range m.exceptions {
			u2(&b, p.class(e))
		}
		attrs = append(attrs, attribute{"Exceptions", b.Bytes()})
	}
	if m.defaultValue != nil {
		var b bytes.Buffer
		m.defaultValue.write(p, &b)
		attrs = append(attrs, attribute{"AnnotationDefault", b.Bytes()})
	}
	attrs = append(attrs, annotationAttributes(p, m.annotations)...)

	if len(m.parameters) > 0 {
		args, _, err := classfile.ParseMethod(m.descriptor)
		if err != nil {
			panic(err)
		}
		count := len(args)
		if m.annotated > 0 {
			count = m.annotated
		}
		for _, visible := range []bool{true, false} {
			perIndex := make([][]annotation, count)
			found := false
			for _, pa := range m.parameters {
				if pa.visible == visible {
					perIndex[pa.index] = append(perIndex[pa.index], pa.annotation)
					found = true
				}
			}
			if !found {
				continue
			}
			var b bytes.Buffer
			b.WriteByte(byte(count))
			for _, list := range perIndex {
				u2(&b, uint16(len(list)))
				for _, a := range list {
					writeAnnotation(p, &b, a.descriptor, a.elements)
				}
			}
			name := "RuntimeVisibleParameterAnnotations"
			if !visible {
				name = "RuntimeInvisibleParameterAnnotations"
			}
			attrs = append(attrs, attribute{name, b.Bytes()})
		}
	}
	writeAttributes(p, w, attrs)
}

func annotationAttributes(p *constPool, annotations []annotation) []attribute {
	var attrs []attribute
	for _, visible := range []bool{true, false} {
		var selected []annotation
		for _, a := range annotations {
			if a.visible == visible {
				selected = append(selected, a)
			}
		}
		if len(selected) == 0 {
			continue
		}
		var b bytes.Buffer
		u2(&b, uint16(len(selected)))
		for _, a := range selected {
			writeAnnotation(p, &b, a.descriptor, a.elements)
		}
		name := "RuntimeVisibleAnnotations"
		if !visible {
			name = "RuntimeInvisibleAnnotations"
		}
		attrs = append(attrs, attribute{name, b.Bytes()})
	}
	return attrs
}

func writeAnnotation(p *constPool, w *bytes.Buffer, descriptor string, elements []Element) {
	u2(w, p.utf8(descriptor))
	u2(w, uint16(len(elements)))
	for _, e := range elements {
		u2(w, p.utf8(e.Name))
		e.Value.write(p, w)
	}
}

func writeAttributes(p *constPool, w *bytes.Buffer, attrs []attribute) {
	u2(w, uint16(len(attrs)))
	for _, a := range attrs {
		u2(w, p.utf8(a.name))
		u4(w, uint32(len(a.body)))
		w.Write(a.body)
	}
}

type constPool struct {
	buf   bytes.Buffer
	next  uint16
	index map[string]uint16
}

func newConstPool() *constPool {
	return &constPool{next: 1, index: make(map[string]uint16)}
}

func (p *constPool) add(key string, slots uint16, write func()) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	write()
	idx := p.next
	p.next += slots
	p.index[key] = idx
	return idx
}

func (p *constPool) utf8(s string) uint16 {
	return p.add("U"+s, 1, func() {
		encoded := encodeModifiedUTF8(s)
		p.buf.WriteByte(1)
		u2(&p.buf, uint16(len(encoded)))
		p.buf.Write(encoded)
	})
}

func (p *constPool) class(name string) uint16 {
	ref := p.utf8(name)
	return p.add("C"+name, 1, func() {
		p.buf.WriteByte(7)
		u2(&p.buf, ref)
	})
}

func (p *constPool) optionalClass(name string) uint16 {
	if name == "" {
		return 0
	}
	return p.class(name)
}

func (p *constPool) str(s string) uint16 {
	ref := p.utf8(s)
	return p.add("S"+s, 1, func() {
		p.buf.WriteByte(8)
		u2(&p.buf, ref)
	})
}

func (p *constPool) integer(bits uint32, tag byte) uint16 {
	return p.add(fmt.Sprintf("%d:%d", tag, bits), 1, func() {
		p.buf.WriteByte(tag)
		u4(&p.buf, bits)
	})
}

func (p *constPool) long(bits uint64, tag byte) uint16 {
	return p.add(fmt.Sprintf("%d:%d", tag, bits), 2, func() {
		p.buf.WriteByte(tag)
		u4(&p.buf, uint32(bits>>32))
		u4(&p.buf, uint32(bits))
	})
}

func (p *constPool) nameAndType(name, descriptor string) uint16 {
	n := p.utf8(name)
	d := p.utf8(descriptor)
	return p.add("N"+name+":"+descriptor, 1, func() {
		p.buf.WriteByte(12)
		u2(&p.buf, n)
		u2(&p.buf, d)
	})
}

func encodeModifiedUTF8(s string) []byte {
	var out []byte
	for _, r := range s {
		var units []uint16
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			units = []uint16{uint16(hi), uint16(lo)}
		} else {
			units = []uint16{uint16(r)}
		}
		for _, u := range units {
			switch {
			case u != 0 && u < 0x80:
				out = append(out, byte(u))
			case u < 0x800:
				out = append(out, byte(0xC0|u>>6), byte(0x80|u&0x3F))
			default:
				out = append(out, byte(0xE0|u>>12), byte(0x80|(u>>6)&0x3F), byte(0x80|u&0x3F))
			}
		}
	}
	return out
}

func index(idx uint16) []byte {
	var b bytes.Buffer
	u2(&b, idx)
	return b.Bytes()
}

func u2(w *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.Write(b[:])
}

func u4(w *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.Write(b[:])
}
