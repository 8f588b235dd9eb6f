package description

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapPool resolves only primitives and the names it was seeded with.
type mapPool map[string]TypeDescription

func (p mapPool) Describe(name string) (TypeDescription, error) {
	for _, prim := range Primitives() {
		if prim.Name() == name {
			return prim, nil
		}
	}
	if t, ok := p[name]; ok {
		return t, nil
	}
	return nil, &UnresolvedNameError{Name: name}
}

func (p mapPool) Clear() {}

func TestOfArray(t *testing.T) {
	pool := mapPool{}

	assert.Same(t, Int, OfArray(pool, Int, 0))

	a := OfArray(pool, Int, 2)
	assert.Equal(t, "[[I", a.Name())
	assert.Equal(t, "[[I", a.Descriptor())
	assert.Equal(t, "int[][]", a.CanonicalName())
	assert.True(t, a.IsArray())
	assert.False(t, a.IsPrimitive())
	assert.Equal(t, 2, Arity(a))
	assert.Same(t, Int, ElementType(a))
	assert.Equal(t, "[I", a.ComponentType().Name())
	assert.Equal(t, []string{"java.lang.Cloneable", "java.io.Serializable"}, a.Interfaces().Names())
	assert.Nil(t, a.DeclaredMethods())

	_, err := a.Supertype()
	assert.ErrorIs(t, err, ErrUnresolvedName, "the array supertype is looked up like any other type")
}

func TestPrimitives(t *testing.T) {
	assert.Len(t, Primitives(), 9)
	assert.Equal(t, 2, StackSize(Long))
	assert.Equal(t, 2, StackSize(Double))
	assert.Equal(t, 0, StackSize(Void))
	assert.Equal(t, 1, StackSize(OfArray(mapPool{}, Long, 1)))

	super, err := Int.Supertype()
	require.NoError(t, err)
	assert.Nil(t, super)
	assert.Zero(t, Int.Interfaces().Len())
	assert.Zero(t, Arity(Int))
}

func TestModifiers_String(t *testing.T) {
	tests := []struct {
		name string
		mods Modifiers
		want string
	}{
		{"class", Public | Final, "public final"},
		{"interface", Public | Interface | Abstract, "public abstract interface"},
		{"annotation", Public | Interface | Abstract | Annotation, "public abstract @interface"},
		{"enum", Public | Final | Enum, "public final enum"},
		{"package private", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.mods.String())
		})
	}
}

func TestErrors(t *testing.T) {
	assert.ErrorIs(t, &InvalidNameError{Name: "a/b"}, ErrInvalidName)
	assert.ErrorIs(t, &UnresolvedNameError{Name: "pkg.Foo"}, ErrUnresolvedName)
	assert.ErrorIs(t, &UnexpectedShapeError{ComponentType: "pkg.Foo"}, ErrUnexpectedShape)

	cause := assert.AnError
	err := &MalformedFormatError{Name: "pkg.Foo", Err: cause}
	assert.ErrorIs(t, err, ErrMalformedFormat)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "malformed class file for pkg.Foo: "+cause.Error(), err.Error())
	assert.NotErrorIs(t, err, ErrUnresolvedName)
}

func TestEqual(t *testing.T) {
	pool := mapPool{}
	assert.True(t, Equal(OfArray(pool, Int, 1), OfArray(pool, Int, 1)))
	assert.False(t, Equal(Int, Long))
	assert.False(t, Equal(Int, nil))
	assert.True(t, Equal(nil, nil))
}

func TestMethodList_Only(t *testing.T) {
	_, err := MethodList{}.Only()
	assert.ErrorIs(t, err, ErrNoUniqueMethod)
	assert.EqualError(t, err, "no unique method: found 0")
}
