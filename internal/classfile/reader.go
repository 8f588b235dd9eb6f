// Package classfile reads the structural part of JVM class files and reports
// it to a visitor. Code, stack maps and generic signatures are skipped or
// passed through untouched; attributes the reader does not model are ignored.
package classfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"unicode/utf16"
)

// ErrMalformed is wrapped by every error caused by invalid class-file bytes.
var ErrMalformed = errors.New("malformed class file")

const magic = 0xCAFEBABE

const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

const accSynthetic = 0x1000

type constant struct {
	tag  byte
	text string
	ref  uint16
	ref2 uint16
	bits uint64
}

// Reader holds one parsed constant pool and streams the rest of the class on Accept.
type Reader struct {
	data    []byte
	version uint32
	pool    []constant
	header  int
	name    string
}

// NewReader validates the class-file header and constant pool.
func NewReader(data []byte) (*Reader, error) {
	in := &input{data: data}
	if in.u4() != magic {
		if in.err != nil {
			return nil, in.err
		}
		return nil, fmt.Errorf("%w: bad magic number", ErrMalformed)
	}
	minor := in.u2()
	major := in.u2()
	count := int(in.u2())
	if in.err != nil {
		return nil, in.err
	}

	pool := make([]constant, count)
	for i := 1; i < count; i++ {
		c := constant{tag: in.u1()}
		switch c.tag {
		case tagUtf8:
			raw := in.bytes(int(in.u2()))
			if in.err == nil {
				s, err := decodeModifiedUTF8(raw)
				if err != nil {
					return nil, fmt.Errorf("constant %d: %w", i, err)
				}
				c.text = s
			}
		case tagInteger, tagFloat:
			c.bits = uint64(in.u4())
		case tagLong, tagDouble:
			c.bits = uint64(in.u4())<<32 | uint64(in.u4())
			pool[i] = c
			i++ // eight-byte constants take two slots
			continue
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.ref = in.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			c.ref = in.u2()
			c.ref2 = in.u2()
		case tagMethodHandle:
			in.u1()
			c.ref = in.u2()
		default:
			if in.err == nil {
				return nil, fmt.Errorf("%w: unknown constant pool tag %d at index %d", ErrMalformed, c.tag, i)
			}
		}
		if in.err != nil {
			return nil, in.err
		}
		pool[i] = c
	}

	r := &Reader{
		data:    data,
		version: uint32(major)<<16 | uint32(minor),
		pool:    pool,
		header:  in.pos,
	}
	p := r.parser(in.pos, len(data))
	p.u2()
	r.name = p.class(p.u2())
	if p.err != nil {
		return nil, p.err
	}
	return r, nil
}

// ClassName returns the internal name of the class, e.g. "pkg/Outer$Inner".
func (r *Reader) ClassName() string { return r.name }

// Version returns major<<16 | minor.
func (r *Reader) Version() uint32 { return r.version }

// Accept walks the class structure once and reports it to v.
func (r *Reader) Accept(v ClassVisitor) error {
	p := r.parser(r.header, len(r.data))
	access := int(p.u2())
	name := p.class(p.u2())
	superName := p.optionalClass(p.u2())
	interfaces := make([]string, int(p.u2()))
	for i := range interfaces {
		interfaces[i] = p.class(p.u2())
	}
	if p.err != nil {
		return p.err
	}

	// Class attributes follow the member tables, so skip past them first.
	membersStart := p.pos
	for k := 0; k < 2; k++ {
		n := int(p.u2())
		for i := 0; i < n && p.err == nil; i++ {
			p.skip(6)
			p.readAttributes()
		}
	}
	attrs := p.readAttributes()
	if p.err != nil {
		return p.err
	}

	var signature string
	var innerClasses, enclosing *attribute
	var annotations []annotationsAttribute
	for i := range attrs {
		a := &attrs[i]
		switch a.name {
		case "Signature":
			signature = p.sub(*a).utf8Ref()
		case "InnerClasses":
			innerClasses = a
		case "EnclosingMethod":
			enclosing = a
		case "RuntimeVisibleAnnotations":
			annotations = append(annotations, annotationsAttribute{*a, true})
		case "RuntimeInvisibleAnnotations":
			annotations = append(annotations, annotationsAttribute{*a, false})
		}
	}

	v.Visit(r.version, access, name, signature, superName, interfaces)

	if enclosing != nil {
		ep := p.sub(*enclosing)
		owner := ep.class(ep.u2())
		var methodName, methodDescriptor string
		if idx := ep.u2(); idx != 0 {
			nt := ep.entry(idx, tagNameAndType)
			methodName = ep.utf8(nt.ref)
			methodDescriptor = ep.utf8(nt.ref2)
		}
		if err := p.absorb(ep); err != nil {
			return err
		}
		v.VisitOuterClass(owner, methodName, methodDescriptor)
	}

	for _, aa := range annotations {
		ap := p.sub(aa.attribute)
		visible := aa.visible
		ap.annotations(func(desc string) AnnotationVisitor { return v.VisitAnnotation(desc, visible) })
		if err := p.absorb(ap); err != nil {
			return err
		}
	}

	if innerClasses != nil {
		ip := p.sub(*innerClasses)
		n := int(ip.u2())
		for i := 0; i < n && ip.err == nil; i++ {
			inner := ip.optionalClass(ip.u2())
			outer := ip.optionalClass(ip.u2())
			var simpleName string
			if idx := ip.u2(); idx != 0 {
				simpleName = ip.utf8(idx)
			}
			flags := int(ip.u2())
			if ip.err == nil {
				v.VisitInnerClass(inner, outer, simpleName, flags)
			}
		}
		if err := p.absorb(ip); err != nil {
			return err
		}
	}

	p.pos = membersStart
	fields := int(p.u2())
	for i := 0; i < fields && p.err == nil; i++ {
		p.field(v)
	}
	methods := int(p.u2())
	for i := 0; i < methods && p.err == nil; i++ {
		p.method(v)
	}
	if p.err != nil {
		return p.err
	}

	v.VisitEnd()
	return nil
}

type attribute struct {
	name   string
	offset int
	length int
}

type annotationsAttribute struct {
	attribute
	visible bool
}

type parser struct {
	*Reader
	input
}

func (r *Reader) parser(pos, end int) *parser {
	return &parser{Reader: r, input: input{data: r.data[:end], pos: pos}}
}

// sub returns a parser confined to the body of a.
func (p *parser) sub(a attribute) *parser {
	return p.parser(a.offset, a.offset+a.length)
}

// absorb moves a sub-parser's failure into p.
func (p *parser) absorb(sub *parser) error {
	if sub.err != nil && p.err == nil {
		p.err = sub.err
	}
	return p.err
}

func (p *parser) fail(format string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: "+format, append([]any{ErrMalformed}, args...)...)
	}
}

func (p *parser) entry(idx uint16, tags ...byte) constant {
	if p.err != nil {
		return constant{}
	}
	if int(idx) <= 0 || int(idx) >= len(p.pool) {
		p.fail("constant pool index %d out of range", idx)
		return constant{}
	}
	c := p.pool[idx]
	for _, t := range tags {
		if c.tag == t {
			return c
		}
	}
	p.fail("constant %d has tag %d, want one of %v", idx, c.tag, tags)
	return constant{}
}

func (p *parser) utf8(idx uint16) string {
	return p.entry(idx, tagUtf8).text
}

func (p *parser) utf8Ref() string {
	return p.utf8(p.u2())
}

func (p *parser) class(idx uint16) string {
	c := p.entry(idx, tagClass)
	if p.err != nil {
		return ""
	}
	return p.utf8(c.ref)
}

func (p *parser) optionalClass(idx uint16) string {
	if idx == 0 {
		return ""
	}
	return p.class(idx)
}

func (p *parser) readAttributes() []attribute {
	n := int(p.u2())
	var attrs []attribute
	for i := 0; i < n && p.err == nil; i++ {
		name := p.utf8(p.u2())
		length := int(p.u4())
		a := attribute{name: name, offset: p.pos, length: length}
		p.skip(length)
		if p.err == nil {
			attrs = append(attrs, a)
		}
	}
	return attrs
}

func (p *parser) field(v ClassVisitor) {
	access := int(p.u2())
	name := p.utf8(p.u2())
	descriptor := p.utf8(p.u2())
	attrs := p.readAttributes()
	if p.err != nil {
		return
	}

	var signature string
	var value any
	var annotations []annotationsAttribute
	for _, a := range attrs {
		switch a.name {
		case "ConstantValue":
			sp := p.sub(a)
			value = sp.constantValue(sp.u2())
			p.absorb(sp)
		case "Signature":
			sp := p.sub(a)
			signature = sp.utf8Ref()
			p.absorb(sp)
		case "Synthetic":
			access |= accSynthetic
		case "RuntimeVisibleAnnotations":
			annotations = append(annotations, annotationsAttribute{a, true})
		case "RuntimeInvisibleAnnotations":
			annotations = append(annotations, annotationsAttribute{a, false})
		}
	}
	if p.err != nil {
		return
	}

	fv := v.VisitField(access, name, descriptor, signature, value)
	if fv == nil {
		return
	}
	for _, aa := range annotations {
		ap := p.sub(aa.attribute)
		visible := aa.visible
		ap.annotations(func(desc string) AnnotationVisitor { return fv.VisitAnnotation(desc, visible) })
		if p.absorb(ap) != nil {
			return
		}
	}
	fv.VisitEnd()
}

func (p *parser) method(v ClassVisitor) {
	access := int(p.u2())
	name := p.utf8(p.u2())
	descriptor := p.utf8(p.u2())
	attrs := p.readAttributes()
	if p.err != nil {
		return
	}

	var signature string
	var exceptions []string
	var annotationDefault *attribute
	var annotations, parameterAnnotations []annotationsAttribute
	for i := range attrs {
		a := attrs[i]
		switch a.name {
		case "Exceptions":
			sp := p.sub(a)
			n := int(sp.u2())
			for j := 0; j < n && sp.err == nil; j++ {
				exceptions = append(exceptions, sp.class(sp.u2()))
			}
			p.absorb(sp)
		case "Signature":
			sp := p.sub(a)
			signature = sp.utf8Ref()
			p.absorb(sp)
		case "Synthetic":
			access |= accSynthetic
		case "AnnotationDefault":
			annotationDefault = &attrs[i]
		case "RuntimeVisibleAnnotations":
			annotations = append(annotations, annotationsAttribute{a, true})
		case "RuntimeInvisibleAnnotations":
			annotations = append(annotations, annotationsAttribute{a, false})
		case "RuntimeVisibleParameterAnnotations":
			parameterAnnotations = append(parameterAnnotations, annotationsAttribute{a, true})
		case "RuntimeInvisibleParameterAnnotations":
			parameterAnnotations = append(parameterAnnotations, annotationsAttribute{a, false})
		}
	}
	if p.err != nil {
		return
	}

	mv := v.VisitMethod(access, name, descriptor, signature, exceptions)
	if mv == nil {
		return
	}

	if annotationDefault != nil {
		dp := p.sub(*annotationDefault)
		av := mv.VisitAnnotationDefault()
		dp.elementValue(av, "")
		if p.absorb(dp) != nil {
			return
		}
		if av != nil {
			av.VisitEnd()
		}
	}

	for _, aa := range annotations {
		ap := p.sub(aa.attribute)
		visible := aa.visible
		ap.annotations(func(desc string) AnnotationVisitor { return mv.VisitAnnotation(desc, visible) })
		if p.absorb(ap) != nil {
			return
		}
	}

	arity := -1
	if len(parameterAnnotations) > 0 {
		if args, _, err := ParseMethod(descriptor); err == nil {
			arity = len(args)
		}
	}
	for _, aa := range parameterAnnotations {
		ap := p.sub(aa.attribute)
		visible := aa.visible
		params := int(ap.u1())
		// javac may omit leading synthetic parameters (outer instance, enum
		// name and ordinal), so the table covers the trailing params only.
		shift := 0
		if arity > params {
			shift = arity - params
		}
		for i := 0; i < params && ap.err == nil; i++ {
			index := i + shift
			ap.annotations(func(desc string) AnnotationVisitor {
				return mv.VisitParameterAnnotation(index, desc, visible)
			})
		}
		if p.absorb(ap) != nil {
			return
		}
	}

	mv.VisitEnd()
}

// annotations reads a num_annotations-prefixed table of annotations.
func (p *parser) annotations(open func(descriptor string) AnnotationVisitor) {
	n := int(p.u2())
	for i := 0; i < n && p.err == nil; i++ {
		desc := p.utf8(p.u2())
		if p.err != nil {
			return
		}
		p.elementValues(open(desc), true)
	}
}

func (p *parser) elementValues(av AnnotationVisitor, named bool) {
	n := int(p.u2())
	for i := 0; i < n && p.err == nil; i++ {
		var name string
		if named {
			name = p.utf8(p.u2())
		}
		p.elementValue(av, name)
	}
	if av != nil && p.err == nil {
		av.VisitEnd()
	}
}

func (p *parser) elementValue(av AnnotationVisitor, name string) {
	tag := p.u1()
	if p.err != nil {
		return
	}
	switch tag {
	case 'B', 'C', 'I', 'S', 'Z', 'D', 'F', 'J':
		value := p.elementConstant(tag, p.u2())
		if av != nil && p.err == nil {
			av.Visit(name, value)
		}
	case 's':
		s := p.utf8(p.u2())
		if av != nil && p.err == nil {
			av.Visit(name, s)
		}
	case 'e':
		desc := p.utf8(p.u2())
		constName := p.utf8(p.u2())
		if av != nil && p.err == nil {
			av.VisitEnum(name, desc, constName)
		}
	case 'c':
		desc := p.utf8(p.u2())
		if p.err != nil {
			return
		}
		end, err := scanType(desc, 0, true)
		if err != nil || end != len(desc) {
			p.fail("invalid class literal descriptor %q", desc)
			return
		}
		if av != nil {
			av.Visit(name, Type{descriptor: desc})
		}
	case '@':
		desc := p.utf8(p.u2())
		var nested AnnotationVisitor
		if av != nil && p.err == nil {
			nested = av.VisitAnnotation(name, desc)
		}
		p.elementValues(nested, true)
	case '[':
		p.arrayValue(av, name)
	default:
		p.fail("unknown element value tag %q", tag)
	}
}

func (p *parser) arrayValue(av AnnotationVisitor, name string) {
	n := int(p.u2())
	if p.err != nil {
		return
	}
	if n > 0 {
		if tag := p.peek(); isPrimitiveTag(tag) {
			values := p.primitiveArray(tag, n)
			if av != nil && p.err == nil {
				av.Visit(name, values)
			}
			return
		}
	}
	var arr AnnotationVisitor
	if av != nil {
		arr = av.VisitArray(name)
	}
	for i := 0; i < n && p.err == nil; i++ {
		p.elementValue(arr, "")
	}
	if arr != nil && p.err == nil {
		arr.VisitEnd()
	}
}

func isPrimitiveTag(tag byte) bool {
	switch tag {
	case 'B', 'C', 'I', 'S', 'Z', 'D', 'F', 'J':
		return true
	}
	return false
}

func (p *parser) primitiveArray(tag byte, n int) any {
	switch tag {
	case 'B':
		return collect[int8](p, tag, n)
	case 'C':
		return collect[uint16](p, tag, n)
	case 'S':
		return collect[int16](p, tag, n)
	case 'Z':
		return collect[bool](p, tag, n)
	case 'I':
		return collect[int32](p, tag, n)
	case 'J':
		return collect[int64](p, tag, n)
	case 'F':
		return collect[float32](p, tag, n)
	default:
		return collect[float64](p, tag, n)
	}
}

func collect[T any](p *parser, tag byte, n int) []T {
	out := make([]T, 0, n)
	for i := 0; i < n && p.err == nil; i++ {
		if t := p.u1(); t != tag && p.err == nil {
			p.fail("mixed primitive array element tags %q and %q", tag, t)
			break
		}
		v := p.elementConstant(tag, p.u2())
		if p.err != nil {
			break
		}
		out = append(out, v.(T))
	}
	return out
}

func (p *parser) elementConstant(tag byte, idx uint16) any {
	switch tag {
	case 'J':
		return int64(p.entry(idx, tagLong).bits)
	case 'F':
		return math.Float32frombits(uint32(p.entry(idx, tagFloat).bits))
	case 'D':
		return math.Float64frombits(p.entry(idx, tagDouble).bits)
	}
	v := int32(uint32(p.entry(idx, tagInteger).bits))
	switch tag {
	case 'B':
		return int8(v)
	case 'C':
		return uint16(v)
	case 'S':
		return int16(v)
	case 'Z':
		return v != 0
	default:
		return v
	}
}

func (p *parser) constantValue(idx uint16) any {
	c := p.entry(idx, tagInteger, tagFloat, tagLong, tagDouble, tagString)
	switch c.tag {
	case tagInteger:
		return int32(uint32(c.bits))
	case tagFloat:
		return math.Float32frombits(uint32(c.bits))
	case tagLong:
		return int64(c.bits)
	case tagDouble:
		return math.Float64frombits(c.bits)
	case tagString:
		return p.utf8(c.ref)
	}
	return nil
}

type input struct {
	data []byte
	pos  int
	err  error
}

func (in *input) need(n int) bool {
	if in.err != nil {
		return false
	}
	if n < 0 || in.pos+n > len(in.data) {
		in.err = fmt.Errorf("%w: unexpected end of data at offset %d", ErrMalformed, in.pos)
		return false
	}
	return true
}

func (in *input) peek() byte {
	if !in.need(1) {
		return 0
	}
	return in.data[in.pos]
}

func (in *input) u1() byte {
	if !in.need(1) {
		return 0
	}
	b := in.data[in.pos]
	in.pos++
	return b
}

func (in *input) u2() uint16 {
	if !in.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(in.data[in.pos:])
	in.pos += 2
	return v
}

func (in *input) u4() uint32 {
	if !in.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(in.data[in.pos:])
	in.pos += 4
	return v
}

func (in *input) bytes(n int) []byte {
	if !in.need(n) {
		return nil
	}
	b := in.data[in.pos : in.pos+n]
	in.pos += n
	return b
}

func (in *input) skip(n int) {
	if in.need(n) {
		in.pos += n
	}
}

// decodeModifiedUTF8 decodes the class-file variant of UTF-8, which encodes
// NUL as two bytes and supplementary characters as surrogate pairs.
func decodeModifiedUTF8(b []byte) (string, error) {
	plain := true
	for _, c := range b {
		if c == 0 || c >= 0x80 {
			plain = false
			break
		}
	}
	if plain {
		return string(b), nil
	}

	units := make([]uint16, 0, len(b))
	for i := 0; i < len(b); {
		c := b[i]
		switch {
		case c != 0 && c < 0x80:
			units = append(units, uint16(c))
			i++
		case c&0xE0 == 0xC0:
			if i+1 >= len(b) || b[i+1]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w: invalid modified UTF-8 at byte %d", ErrMalformed, i)
			}
			units = append(units, uint16(c&0x1F)<<6|uint16(b[i+1]&0x3F))
			i += 2
		case c&0xF0 == 0xE0:
			if i+2 >= len(b) || b[i+1]&0xC0 != 0x80 || b[i+2]&0xC0 != 0x80 {
				return "", fmt.Errorf("%w: invalid modified UTF-8 at byte %d", ErrMalformed, i)
			}
			units = append(units, uint16(c&0x0F)<<12|uint16(b[i+1]&0x3F)<<6|uint16(b[i+2]&0x3F))
			i += 3
		default:
			return "", fmt.Errorf("%w: invalid modified UTF-8 at byte %d", ErrMalformed, i)
		}
	}
	return string(utf16.Decode(units)), nil
}
