package classfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		descriptor string
		sort       Sort
		className  string
		binaryName string
		dimensions int
		size       int
	}{
		{"I", SortInt, "int", "int", 0, 1},
		{"J", SortLong, "long", "long", 0, 2},
		{"Ljava/lang/String;", SortObject, "java.lang.String", "java.lang.String", 0, 1},
		{"[I", SortArray, "int[]", "[I", 1, 1},
		{"[[Lpkg/Foo$Bar;", SortArray, "pkg.Foo$Bar[][]", "[[Lpkg.Foo$Bar;", 2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.descriptor, func(t *testing.T) {
			typ, err := ParseType(tt.descriptor)
			require.NoError(t, err)
			assert.Equal(t, tt.sort, typ.Sort())
			assert.Equal(t, tt.className, typ.ClassName())
			assert.Equal(t, tt.binaryName, typ.BinaryName())
			assert.Equal(t, tt.dimensions, typ.Dimensions())
			assert.Equal(t, tt.size, typ.Size())
		})
	}

	for _, bad := range []string{"", "V", "L;", "Ljava/lang/String", "Q", "II", "["} {
		_, err := ParseType(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestParseMethod(t *testing.T) {
	args, ret, err := ParseMethod("(IJ[Ljava/lang/String;D)V")
	require.NoError(t, err)
	require.Len(t, args, 4)
	assert.Equal(t, "int", args[0].ClassName())
	assert.Equal(t, 2, args[1].Size())
	assert.Equal(t, "[Ljava.lang.String;", args[2].BinaryName())
	assert.Equal(t, SortVoid, ret.Sort())
	assert.Equal(t, 0, ret.Size())

	for _, bad := range []string{"", "V", "(I", "(V)V", "(I)", "(I)VV"} {
		_, _, err := ParseMethod(bad)
		assert.ErrorIs(t, err, ErrMalformed, bad)
	}
}

func TestTypeComponents(t *testing.T) {
	typ, err := ParseType("[[J")
	require.NoError(t, err)
	assert.Equal(t, "[J", typ.ComponentType().Descriptor())
	assert.Equal(t, "J", typ.ElementType().Descriptor())
	assert.Equal(t, "[[J", typ.InternalName())

	obj := ObjectType("pkg/Foo")
	assert.Equal(t, "Lpkg/Foo;", obj.Descriptor())
	assert.Equal(t, "pkg/Foo", obj.InternalName())
	assert.Equal(t, obj, obj.ComponentType())
	assert.Equal(t, "[I", ObjectType("[I").Descriptor())
	assert.Equal(t, "pkg.Outer$Inner", BinaryNameOf("pkg/Outer$Inner"))
}
