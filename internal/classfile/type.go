package classfile

import (
	"fmt"
	"strings"
)

// Sort classifies a Type.
type Sort int

const (
	SortVoid Sort = iota
	SortBoolean
	SortChar
	SortByte
	SortShort
	SortInt
	SortFloat
	SortLong
	SortDouble
	SortArray
	SortObject
)

var primitiveSorts = map[byte]struct {
	sort Sort
	name string
}{
	'V': {SortVoid, "void"},
	'Z': {SortBoolean, "boolean"},
	'C': {SortChar, "char"},
	'B': {SortByte, "byte"},
	'S': {SortShort, "short"},
	'I': {SortInt, "int"},
	'F': {SortFloat, "float"},
	'J': {SortLong, "long"},
	'D': {SortDouble, "double"},
}

// Type is a parsed field or return type descriptor.
type Type struct {
	descriptor string
}

// ParseType validates a field descriptor such as "I", "[J" or "Ljava/lang/String;".
func ParseType(descriptor string) (Type, error) {
	end, err := scanType(descriptor, 0, false)
	if err != nil {
		return Type{}, err
	}
	if end != len(descriptor) {
		return Type{}, fmt.Errorf("%w: trailing data in type descriptor %q", ErrMalformed, descriptor)
	}
	return Type{descriptor: descriptor}, nil
}

// ObjectType returns the type of an internal class name such as "java/lang/String".
func ObjectType(internalName string) Type {
	if strings.HasPrefix(internalName, "[") {
		return Type{descriptor: internalName}
	}
	return Type{descriptor: "L" + internalName + ";"}
}

// ParseMethod splits a method descriptor into its argument and return types.
func ParseMethod(descriptor string) ([]Type, Type, error) {
	if !strings.HasPrefix(descriptor, "(") {
		return nil, Type{}, fmt.Errorf("%w: method descriptor %q does not start with '('", ErrMalformed, descriptor)
	}
	var args []Type
	i := 1
	for i < len(descriptor) && descriptor[i] != ')' {
		end, err := scanType(descriptor, i, false)
		if err != nil {
			return nil, Type{}, err
		}
		args = append(args, Type{descriptor: descriptor[i:end]})
		i = end
	}
	if i >= len(descriptor) {
		return nil, Type{}, fmt.Errorf("%w: unterminated method descriptor %q", ErrMalformed, descriptor)
	}
	i++
	end, err := scanType(descriptor, i, true)
	if err != nil {
		return nil, Type{}, err
	}
	if end != len(descriptor) {
		return nil, Type{}, fmt.Errorf("%w: trailing data in method descriptor %q", ErrMalformed, descriptor)
	}
	return args, Type{descriptor: descriptor[i:end]}, nil
}

func scanType(s string, i int, allowVoid bool) (int, error) {
	if i >= len(s) {
		return 0, fmt.Errorf("%w: truncated descriptor %q", ErrMalformed, s)
	}
	switch c := s[i]; c {
	case '[':
		for i < len(s) && s[i] == '[' {
			i++
		}
		return scanType(s, i, false)
	case 'L':
		semi := strings.IndexByte(s[i:], ';')
		if semi <= 1 {
			return 0, fmt.Errorf("%w: invalid object descriptor in %q", ErrMalformed, s)
		}
		return i + semi + 1, nil
	case 'V':
		if !allowVoid {
			return 0, fmt.Errorf("%w: void is not a field type in %q", ErrMalformed, s)
		}
		return i + 1, nil
	default:
		if _, ok := primitiveSorts[c]; ok {
			return i + 1, nil
		}
		return 0, fmt.Errorf("%w: unknown descriptor character %q in %q", ErrMalformed, c, s)
	}
}

func (t Type) Descriptor() string { return t.descriptor }

func (t Type) Sort() Sort {
	switch t.descriptor[0] {
	case '[':
		return SortArray
	case 'L':
		return SortObject
	default:
		return primitiveSorts[t.descriptor[0]].sort
	}
}

// Dimensions counts the leading array markers.
func (t Type) Dimensions() int {
	n := 0
	for n < len(t.descriptor) && t.descriptor[n] == '[' {
		n++
	}
	return n
}

// ComponentType strips one array dimension. It returns t unchanged for non-arrays.
func (t Type) ComponentType() Type {
	if t.Sort() != SortArray {
		return t
	}
	return Type{descriptor: t.descriptor[1:]}
}

// ElementType strips every array dimension.
func (t Type) ElementType() Type {
	return Type{descriptor: t.descriptor[t.Dimensions():]}
}

// InternalName returns "java/lang/String" for objects and the descriptor for arrays.
func (t Type) InternalName() string {
	if t.Sort() == SortObject {
		return t.descriptor[1 : len(t.descriptor)-1]
	}
	return t.descriptor
}

// ClassName returns the source-style name: "int", "java.lang.String", "java.lang.String[]".
func (t Type) ClassName() string {
	switch t.Sort() {
	case SortArray:
		return t.ElementType().ClassName() + strings.Repeat("[]", t.Dimensions())
	case SortObject:
		return strings.ReplaceAll(t.InternalName(), "/", ".")
	default:
		return primitiveSorts[t.descriptor[0]].name
	}
}

// BinaryName returns the name a pool is asked for: the class name for
// primitives and objects, the dotted descriptor ("[Ljava.lang.String;") for arrays.
func (t Type) BinaryName() string {
	if t.Sort() == SortArray {
		return strings.ReplaceAll(t.descriptor, "/", ".")
	}
	return t.ClassName()
}

// Size is the number of operand stack slots a value of t occupies.
func (t Type) Size() int {
	switch t.Sort() {
	case SortVoid:
		return 0
	case SortLong, SortDouble:
		return 2
	default:
		return 1
	}
}

func (t Type) String() string { return t.descriptor }

// BinaryNameOf converts an internal name ("pkg/Outer$Inner") to its dotted form.
func BinaryNameOf(internalName string) string {
	return strings.ReplaceAll(internalName, "/", ".")
}
