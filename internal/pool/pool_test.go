package pool

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/sync/errgroup"

	"typepool/internal/cache"
	"typepool/internal/classfile"
	"typepool/internal/classfile/classfiletest"
	"typepool/internal/description"
	"typepool/internal/locator"
)

const (
	accPublicClass      = 0x21
	accPublicAnnotation = 0x2601
	accPublicEnum       = 0x4031
	accPublic           = 0x1
	accPublicAbstract   = 0x401
)

// countingLocator records how often each name was asked for.
type countingLocator struct {
	inner locator.Locator

	mu    sync.Mutex
	calls map[string]int
}

func newCountingLocator(inner locator.Locator) *countingLocator {
	return &countingLocator{inner: inner, calls: make(map[string]int)}
}

func (c *countingLocator) Locate(name string) ([]byte, bool, error) {
	c.mu.Lock()
	c.calls[name]++
	c.mu.Unlock()
	return c.inner.Locate(name)
}

func (c *countingLocator) count(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[name]
}

func (c *countingLocator) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func classes(t *testing.T, files ...*classfiletest.ClassFile) *locator.Map {
	t.Helper()
	m := locator.NewMap()
	for _, f := range files {
		data := f.Bytes()
		r, err := classfile.NewReader(data)
		require.NoError(t, err)
		m.Put(strings.ReplaceAll(r.ClassName(), "/", "."), data)
	}
	return m
}

func fooAndBar(t *testing.T) *locator.Map {
	t.Helper()
	foo := classfiletest.NewClass(accPublicClass, "pkg/Foo", "pkg/Bar", "pkg/Baz")
	foo.Field(accPublic, "x", "I")
	return classes(t, foo, classfiletest.NewClass(accPublicClass, "pkg/Bar", "java/lang/Object"))
}

func TestDescribe_ExtractedType(t *testing.T) {
	loc := newCountingLocator(fooAndBar(t))
	p := New(loc)

	foo, err := p.Describe("pkg.Foo")
	require.NoError(t, err)
	assert.Equal(t, "pkg.Foo", foo.Name())
	assert.Equal(t, "Lpkg/Foo;", foo.Descriptor())
	assert.True(t, foo.Modifiers().IsPublic())

	fields := foo.DeclaredFields()
	require.Len(t, fields, 1)
	assert.Equal(t, "x", fields[0].Name())
	ft, err := fields[0].Type()
	require.NoError(t, err)
	assert.Same(t, description.Int, ft)

	assert.Zero(t, loc.count("pkg.Bar"), "construction performs no lookups")
	super, err := foo.Supertype()
	require.NoError(t, err)
	assert.Equal(t, "pkg.Bar", super.Name())
	_, err = foo.Supertype()
	require.NoError(t, err)
	assert.Equal(t, 1, loc.count("pkg.Bar"))
	assert.Equal(t, []string{"pkg.Baz"}, foo.Interfaces().Names())
}

func TestDescribe_SameInstance(t *testing.T) {
	loc := newCountingLocator(fooAndBar(t))
	p := New(loc)

	first, err := p.Describe("pkg.Foo")
	require.NoError(t, err)
	second, err := p.Describe("pkg.Foo")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, loc.count("pkg.Foo"))
}

func TestDescribe_ConcurrentCallersShareOneInstance(t *testing.T) {
	p := New(fooAndBar(t))

	const callers = 32
	results := make([]description.TypeDescription, callers)
	var g errgroup.Group
	for i := 0; i < callers; i++ {
		g.Go(func() error {
			d, err := p.Describe("pkg.Foo")
			results[i] = d
			return err
		})
	}
	require.NoError(t, g.Wait())

	for _, d := range results[1:] {
		assert.Same(t, results[0], d)
	}
	simple, ok := p.Cache().(*cache.Simple)
	require.True(t, ok)
	assert.Equal(t, 1, simple.Len())
}

func TestDescribe_ConcurrentWithClear(t *testing.T) {
	p := New(fooAndBar(t))

	var g errgroup.Group
	for i := 0; i < 16; i++ {
		g.Go(func() error {
			for n := 0; n < 50; n++ {
				if i%4 == 0 {
					p.Clear()
					continue
				}
				foo, err := p.Describe("pkg.Foo")
				if err != nil {
					return err
				}
				if foo.Name() != "pkg.Foo" {
					return fmt.Errorf("described %s as pkg.Foo", foo.Name())
				}
				super, err := foo.Supertype()
				if err != nil {
					return err
				}
				if super.Name() != "pkg.Bar" {
					return fmt.Errorf("supertype of pkg.Foo is %s", super.Name())
				}
				arr, err := p.Describe("[Lpkg.Foo;")
				if err != nil {
					return err
				}
				if arr.ComponentType().Name() != "pkg.Foo" {
					return fmt.Errorf("component of [Lpkg.Foo; is %s", arr.ComponentType().Name())
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	foo, err := p.Describe("pkg.Foo")
	require.NoError(t, err)
	assert.Equal(t, "pkg.Foo", foo.Name())
}

func TestDescribe_Arrays(t *testing.T) {
	loc := newCountingLocator(fooAndBar(t))
	p := New(loc)

	foo, err := p.Describe("pkg.Foo")
	require.NoError(t, err)

	tests := []struct {
		name      string
		element   description.TypeDescription
		arity     int
		canonical string
	}{
		{"[I", description.Int, 1, "int[]"},
		{"[[J", description.Long, 2, "long[][]"},
		{"[Lpkg.Foo;", foo, 1, "pkg.Foo[]"},
		{"[[[Lpkg.Foo;", foo, 3, "pkg.Foo[][][]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := p.Describe(tt.name)
			require.NoError(t, err)
			assert.True(t, d.IsArray())
			assert.Equal(t, tt.name, d.Name())
			assert.Equal(t, tt.canonical, d.CanonicalName())
			assert.Equal(t, tt.arity, description.Arity(d))
			assert.Same(t, tt.element, description.ElementType(d))
		})
	}
	assert.Equal(t, 1, loc.count("pkg.Foo"))
}

func TestDescribe_PrimitivesBypassLocator(t *testing.T) {
	loc := newCountingLocator(locator.NewMap())
	p := New(loc)

	for _, prim := range description.Primitives() {
		d, err := p.Describe(prim.Name())
		require.NoError(t, err)
		assert.Same(t, prim, d)
	}
	_, err := p.Describe("[Z")
	require.NoError(t, err)

	assert.Zero(t, loc.total())
}

func TestDescribe_InvalidNames(t *testing.T) {
	loc := newCountingLocator(locator.NewMap())
	p := New(loc)

	for _, name := range []string{"", "pkg/Foo", "[", "[V", "[Q", "[L;", "[Lpkg.Foo", "[[Lpkg/Foo;"} {
		t.Run(name, func(t *testing.T) {
			_, err := p.Describe(name)
			assert.ErrorIs(t, err, description.ErrInvalidName)
			var invalid *description.InvalidNameError
			require.ErrorAs(t, err, &invalid)
			assert.Equal(t, name, invalid.Name)
		})
	}
	assert.Zero(t, loc.total())
}

func TestDescribe_Unresolved(t *testing.T) {
	p := New(locator.NewMap())

	_, err := p.Describe("pkg.Missing")
	assert.ErrorIs(t, err, description.ErrUnresolvedName)

	_, err = p.Describe("[Lpkg.Missing;")
	assert.ErrorIs(t, err, description.ErrUnresolvedName)
}

func TestDescribe_LazySupertype(t *testing.T) {
	p := New(classes(t, classfiletest.NewClass(accPublicClass, "pkg/Orphan", "pkg/Gone")))

	d, err := p.Describe("pkg.Orphan")
	require.NoError(t, err, "missing references surface only when asked for")

	_, err = d.Supertype()
	var unresolved *description.UnresolvedNameError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "pkg.Gone", unresolved.Name)
}

func TestDescribe_LocatorError(t *testing.T) {
	boom := errors.New("io failure")
	p := New(locator.Func(func(string) ([]byte, bool, error) { return nil, false, boom }))

	_, err := p.Describe("pkg.Foo")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, description.ErrUnresolvedName)
}

func TestDescribe_MalformedBytes(t *testing.T) {
	m := locator.NewMap()
	m.Put("pkg.Broken", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00})
	p := New(m)

	_, err := p.Describe("pkg.Broken")
	var malformed *description.MalformedFormatError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "pkg.Broken", malformed.Name)

	_, ok := p.Cache().Find("pkg.Broken")
	assert.False(t, ok, "failures are not cached")
}

func TestDescribe_NameMismatch(t *testing.T) {
	m := locator.NewMap()
	m.Put("pkg.Alias", classfiletest.NewClass(accPublicClass, "pkg/Real", "java/lang/Object").Bytes())
	p := New(m)

	_, err := p.Describe("pkg.Alias")
	assert.ErrorIs(t, err, description.ErrMalformedFormat)
	assert.Contains(t, err.Error(), "pkg.Real")
}

func TestClear(t *testing.T) {
	loc := newCountingLocator(fooAndBar(t))
	p := New(loc)

	before, err := p.Describe("pkg.Foo")
	require.NoError(t, err)
	p.Clear()
	after, err := p.Describe("pkg.Foo")
	require.NoError(t, err)

	assert.NotSame(t, before, after)
	assert.Equal(t, before.Name(), after.Name())
	assert.Equal(t, 2, loc.count("pkg.Foo"))
}

func TestWithCache_NoOp(t *testing.T) {
	loc := newCountingLocator(fooAndBar(t))
	p := New(loc, WithCache(cache.NoOp{}))

	_, err := p.Describe("pkg.Foo")
	require.NoError(t, err)
	_, err = p.Describe("pkg.Foo")
	require.NoError(t, err)
	assert.Equal(t, 2, loc.count("pkg.Foo"))
}

func TestWithLogger_LogsMisses(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	p := New(fooAndBar(t), WithLogger(zap.New(core)))

	_, err := p.Describe("pkg.Foo")
	require.NoError(t, err)
	_, err = p.Describe("pkg.Foo")
	require.NoError(t, err)

	misses := logs.FilterMessage("cache miss").All()
	require.Len(t, misses, 1)
	assert.Equal(t, "pkg.Foo", misses[0].ContextMap()["type"])
}

func annotationFixtures(t *testing.T) *locator.Map {
	t.Helper()
	meta := classfiletest.NewClass(accPublicAnnotation, "pkg/Meta", "java/lang/Object", "java/lang/annotation/Annotation")
	meta.Method(accPublicAbstract, "level", "()I").AnnotationDefault(classfiletest.Int(7))
	meta.Method(accPublicAbstract, "names", "()[Ljava/lang/String;").AnnotationDefault(classfiletest.Array(classfiletest.String("a")))
	meta.Method(accPublicAbstract, "modes", "()[Lpkg/Mode;").AnnotationDefault(classfiletest.Array())
	meta.Method(accPublicAbstract, "types", "()[Ljava/lang/Class;").AnnotationDefault(classfiletest.Array())
	meta.Method(accPublicAbstract, "plain", "()[Lpkg/Plain;").AnnotationDefault(classfiletest.Array())
	meta.Method(accPublicAbstract, "counts", "()[I").AnnotationDefault(classfiletest.Array())
	meta.Method(accPublicAbstract, "required", "()Ljava/lang/String;")

	mode := classfiletest.NewClass(accPublicEnum, "pkg/Mode", "java/lang/Enum")
	plain := classfiletest.NewClass(accPublicClass, "pkg/Plain", "java/lang/Object")

	user := classfiletest.NewClass(accPublicClass, "pkg/User", "java/lang/Object").
		Annotation("Lpkg/Meta;", true,
			classfiletest.Elem("modes", classfiletest.Array(classfiletest.Enum("Lpkg/Mode;", "FAST"), classfiletest.Enum("Lpkg/Mode;", "SLOW"))),
			classfiletest.Elem("types", classfiletest.Array(classfiletest.Class("[I"), classfiletest.Class("Lpkg/Plain;"))),
			classfiletest.Elem("plain", classfiletest.Array()),
		)
	return classes(t, meta, mode, plain, user)
}

func userAnnotation(t *testing.T, p *Pool) description.AnnotationDescription {
	t.Helper()
	user, err := p.Describe("pkg.User")
	require.NoError(t, err)
	a, ok := user.DeclaredAnnotations().OfType("pkg.Meta")
	require.True(t, ok)
	return a
}

func TestAnnotation_DefaultsFallBack(t *testing.T) {
	p := New(annotationFixtures(t))
	a := userAnnotation(t, p)

	assert.Equal(t, []string{"modes", "plain", "types"}, a.ExplicitProperties())

	level, err := a.Value("level")
	require.NoError(t, err)
	assert.Equal(t, int32(7), level)

	names, err := a.Value("names")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, names)

	counts, err := a.Value("counts")
	require.NoError(t, err)
	assert.Equal(t, []int32{}, counts)

	_, err = a.Value("required")
	assert.Error(t, err)
	_, err = a.Value("nonexistent")
	assert.ErrorIs(t, err, description.ErrNoUniqueMethod)
	assert.ErrorContains(t, err, `has no property "nonexistent"`)
}

func TestAnnotation_ComplexArrays(t *testing.T) {
	p := New(annotationFixtures(t))
	a := userAnnotation(t, p)

	modes, err := a.Value("modes")
	require.NoError(t, err)
	enums, ok := modes.([]description.EnumerationValue)
	require.True(t, ok, "got %T", modes)
	require.Len(t, enums, 2)
	assert.Equal(t, "FAST", enums[0].Value())
	assert.Equal(t, "pkg.Mode", enums[1].TypeName())

	types, err := a.Value("types")
	require.NoError(t, err)
	literals, ok := types.([]description.TypeDescription)
	require.True(t, ok, "got %T", types)
	require.Len(t, literals, 2)
	assert.Equal(t, "[I", literals[0].Name())
	assert.Equal(t, "pkg.Plain", literals[1].Name())

	_, err = a.Value("plain")
	assert.ErrorIs(t, err, description.ErrUnexpectedShape)
}

func TestEnclosingMethod(t *testing.T) {
	outer := classfiletest.NewClass(accPublicClass, "pkg/Outer", "java/lang/Object").
		InnerClass("pkg/Outer$1", "", "", 0).
		InnerClass("pkg/Outer$Member", "pkg/Outer", "Member", accPublic)
	outer.Method(accPublic, "<init>", "()V")
	outer.Method(accPublic, "run", "(I)V")

	anon := classfiletest.NewClass(0x20, "pkg/Outer$1", "java/lang/Object").
		EnclosingMethod("pkg/Outer", "run", "(I)V").
		InnerClass("pkg/Outer$1", "", "", 0)
	member := classfiletest.NewClass(0x20, "pkg/Outer$Member", "java/lang/Object").
		InnerClass("pkg/Outer$Member", "pkg/Outer", "Member", accPublic|0x8)

	p := New(classes(t, outer, anon, member))

	a, err := p.Describe("pkg.Outer$1")
	require.NoError(t, err)
	assert.True(t, a.IsAnonymous())
	assert.False(t, a.IsLocal())
	assert.False(t, a.IsMember())
	assert.Empty(t, a.CanonicalName())

	m, err := a.EnclosingMethod()
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "run", m.InternalName())
	assert.Equal(t, "(I)V", m.Descriptor())
	assert.Equal(t, "pkg.Outer", m.DeclaringType().Name())

	enclosing, err := a.EnclosingType()
	require.NoError(t, err)
	assert.Equal(t, "pkg.Outer", enclosing.Name())

	mem, err := p.Describe("pkg.Outer$Member")
	require.NoError(t, err)
	assert.True(t, mem.IsMember())
	assert.True(t, mem.Modifiers().IsStatic())
	assert.Equal(t, "pkg.Outer.Member", mem.CanonicalName())
	declaring, err := mem.DeclaringType()
	require.NoError(t, err)
	assert.Equal(t, "pkg.Outer", declaring.Name())
	m, err = mem.EnclosingMethod()
	require.NoError(t, err)
	assert.Nil(t, m)
}
