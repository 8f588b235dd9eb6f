package classfile_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"typepool/internal/classfile"
	"typepool/internal/classfile/classfiletest"
)

// recorder logs every callback as one line.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) Visit(version uint32, access int, name, signature, superName string, interfaces []string) {
	r.add("class %d %s %s %s %v", access, name, signature, superName, interfaces)
}

func (r *recorder) VisitOuterClass(owner, name, descriptor string) {
	r.add("outer %s %s %s", owner, name, descriptor)
}

func (r *recorder) VisitInnerClass(name, outerName, innerName string, access int) {
	r.add("inner %s %s %s %d", name, outerName, innerName, access)
}

func (r *recorder) VisitAnnotation(descriptor string, visible bool) classfile.AnnotationVisitor {
	r.add("annotation %s %v", descriptor, visible)
	return &annotationRecorder{r: r, prefix: "  "}
}

func (r *recorder) VisitField(access int, name, descriptor, signature string, value any) classfile.FieldVisitor {
	r.add("field %d %s %s %v", access, name, descriptor, value)
	return &memberRecorder{r: r}
}

func (r *recorder) VisitMethod(access int, name, descriptor, signature string, exceptions []string) classfile.MethodVisitor {
	r.add("method %d %s %s %v", access, name, descriptor, exceptions)
	return &memberRecorder{r: r}
}

func (r *recorder) VisitEnd() { r.add("end") }

type memberRecorder struct{ r *recorder }

func (m *memberRecorder) VisitAnnotation(descriptor string, visible bool) classfile.AnnotationVisitor {
	m.r.add("  annotation %s %v", descriptor, visible)
	return &annotationRecorder{r: m.r, prefix: "    "}
}

func (m *memberRecorder) VisitAnnotationDefault() classfile.AnnotationVisitor {
	m.r.add("  default")
	return &annotationRecorder{r: m.r, prefix: "    "}
}

func (m *memberRecorder) VisitParameterAnnotation(parameter int, descriptor string, visible bool) classfile.AnnotationVisitor {
	m.r.add("  parameter %d %s %v", parameter, descriptor, visible)
	return &annotationRecorder{r: m.r, prefix: "    "}
}

func (m *memberRecorder) VisitEnd() { m.r.add("  end") }

type annotationRecorder struct {
	r      *recorder
	prefix string
}

func (a *annotationRecorder) Visit(name string, value any) {
	a.r.add("%svalue %s %T %v", a.prefix, name, value, value)
}

func (a *annotationRecorder) VisitEnum(name, descriptor, value string) {
	a.r.add("%senum %s %s %s", a.prefix, name, descriptor, value)
}

func (a *annotationRecorder) VisitAnnotation(name, descriptor string) classfile.AnnotationVisitor {
	a.r.add("%snested %s %s", a.prefix, name, descriptor)
	return &annotationRecorder{r: a.r, prefix: a.prefix + "  "}
}

func (a *annotationRecorder) VisitArray(name string) classfile.AnnotationVisitor {
	a.r.add("%sarray %s", a.prefix, name)
	return &annotationRecorder{r: a.r, prefix: a.prefix + "  "}
}

func (a *annotationRecorder) VisitEnd() { a.r.add("%send", a.prefix) }

func accept(t *testing.T, data []byte) []string {
	t.Helper()
	reader, err := classfile.NewReader(data)
	require.NoError(t, err)
	r := &recorder{}
	require.NoError(t, reader.Accept(r))
	return r.events
}

func TestReaderHeader(t *testing.T) {
	data := classfiletest.NewClass(0x21, "pkg/Foo", "pkg/Bar", "pkg/Baz", "pkg/Qux").Bytes()

	reader, err := classfile.NewReader(data)
	require.NoError(t, err)
	assert.Equal(t, "pkg/Foo", reader.ClassName())
	assert.Equal(t, uint32(52<<16), reader.Version())

	events := accept(t, data)
	assert.Equal(t, []string{
		"class 33 pkg/Foo  pkg/Bar [pkg/Baz pkg/Qux]",
		"end",
	}, events)
}

func TestReaderMembers(t *testing.T) {
	c := classfiletest.NewClass(0x21, "pkg/Foo", "java/lang/Object")
	c.Field(0x19, "LIMIT", "I").Constant(int32(7)).
		Annotation("Lpkg/Marker;", false)
	c.Field(0x2, "name", "Ljava/lang/String;")
	c.Method(0x1, "run", "(IJ)V", "java/io/IOException").
		Code([]byte{0, 1, 2, 3}).
		Annotation("Lpkg/Visible;", true, classfiletest.Elem("value", classfiletest.String("x"))).
		ParameterAnnotation(1, "Lpkg/Param;", true)
	c.Attribute("SourceFile", []byte{0, 0})

	events := accept(t, c.Bytes())
	assert.Equal(t, []string{
		"class 33 pkg/Foo  java/lang/Object []",
		"field 25 LIMIT I 7",
		"  annotation Lpkg/Marker; false",
		"    end",
		"  end",
		"field 2 name Ljava/lang/String; <nil>",
		"  end",
		"method 1 run (IJ)V [java/io/IOException]",
		"  annotation Lpkg/Visible; true",
		"    value value string x",
		"    end",
		"  parameter 1 Lpkg/Param; true",
		"    end",
		"  end",
		"end",
	}, events)
}

func TestReaderNesting(t *testing.T) {
	c := classfiletest.NewClass(0x20, "pkg/Outer$1", "java/lang/Object").
		InnerClass("pkg/Outer$1", "", "", 0x8).
		EnclosingMethod("pkg/Outer", "run", "()V")

	events := accept(t, c.Bytes())
	assert.Equal(t, []string{
		"class 32 pkg/Outer$1  java/lang/Object []",
		"outer pkg/Outer run ()V",
		"inner pkg/Outer$1   8",
		"end",
	}, events)

	t.Run("without method", func(t *testing.T) {
		c := classfiletest.NewClass(0x20, "pkg/Outer$1", "java/lang/Object").
			EnclosingMethod("pkg/Outer", "", "")
		events := accept(t, c.Bytes())
		assert.Contains(t, events, "outer pkg/Outer  ")
	})
}

func TestReaderElementValues(t *testing.T) {
	c := classfiletest.NewClass(0x2601, "pkg/Ann", "java/lang/Object", "java/lang/annotation/Annotation").
		Annotation("Lpkg/Meta;", true,
			classfiletest.Elem("b", classfiletest.Byte(-1)),
			classfiletest.Elem("c", classfiletest.Char('x')),
			classfiletest.Elem("z", classfiletest.Bool(true)),
			classfiletest.Elem("j", classfiletest.Long(1<<40)),
			classfiletest.Elem("d", classfiletest.Double(2.5)),
			classfiletest.Elem("type", classfiletest.Class("Ljava/lang/String;")),
			classfiletest.Elem("void", classfiletest.Class("V")),
			classfiletest.Elem("mode", classfiletest.Enum("Lpkg/Mode;", "FAST")),
			classfiletest.Elem("nested", classfiletest.Nested("Lpkg/Inner;",
				classfiletest.Elem("n", classfiletest.Int(3)))),
			classfiletest.Elem("ints", classfiletest.Array(classfiletest.Int(1), classfiletest.Int(2))),
			classfiletest.Elem("empty", classfiletest.Array()),
			classfiletest.Elem("names", classfiletest.Array(classfiletest.String("a"))),
		)

	events := accept(t, c.Bytes())
	assert.Equal(t, []string{
		"class 9729 pkg/Ann  java/lang/Object [java/lang/annotation/Annotation]",
		"annotation Lpkg/Meta; true",
		"  value b int8 -1",
		"  value c uint16 120",
		"  value z bool true",
		"  value j int64 1099511627776",
		"  value d float64 2.5",
		"  value type classfile.Type Ljava/lang/String;",
		"  value void classfile.Type V",
		"  enum mode Lpkg/Mode; FAST",
		"  nested nested Lpkg/Inner;",
		"    value n int32 3",
		"    end",
		"  value ints []int32 [1 2]",
		"  array empty",
		"    end",
		"  array names",
		"    value  string a",
		"    end",
		"  end",
		"end",
	}, events)
}

func TestReaderAnnotationDefault(t *testing.T) {
	c := classfiletest.NewClass(0x2601, "pkg/Ann", "java/lang/Object")
	c.Method(0x401, "tags", "()[Ljava/lang/String;").
		AnnotationDefault(classfiletest.Array(classfiletest.String("a"), classfiletest.String("b")))
	c.Method(0x401, "level", "()I").AnnotationDefault(classfiletest.Int(4))

	events := accept(t, c.Bytes())
	assert.Equal(t, []string{
		"class 9729 pkg/Ann  java/lang/Object []",
		"method 1025 tags ()[Ljava/lang/String; []",
		"  default",
		"    array ",
		"      value  string a",
		"      value  string b",
		"      end",
		"    end",
		"  end",
		"method 1025 level ()I []",
		"  default",
		"    value  int32 4",
		"    end",
		"  end",
		"end",
	}, events)
}

func TestReaderModifiedUTF8(t *testing.T) {
	name := "pkg/Café\U0001F600"
	events := accept(t, classfiletest.NewClass(0x1, name, "java/lang/Object").Bytes())
	assert.True(t, strings.HasPrefix(events[0], "class 1 "+name+" "))
}

func TestReaderMalformed(t *testing.T) {
	valid := classfiletest.NewClass(0x21, "pkg/Foo", "java/lang/Object").Bytes()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"bad magic", []byte{0xCA, 0xFE, 0xBA, 0xBF, 0, 0, 0, 52}},
		{"truncated pool", valid[:12]},
		{"truncated body", valid[:len(valid)-3]},
		{"unknown tag", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0, 0, 0, 52, 0, 2, 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader, err := classfile.NewReader(tt.data)
			if err == nil {
				err = reader.Accept(&recorder{})
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, classfile.ErrMalformed)
		})
	}
}

func TestReaderMixedPrimitiveArray(t *testing.T) {
	c := classfiletest.NewClass(0x21, "pkg/Foo", "java/lang/Object").
		Annotation("Lpkg/Meta;", true,
			classfiletest.Elem("mixed", classfiletest.Array(classfiletest.Int(1), classfiletest.Long(2))))

	reader, err := classfile.NewReader(c.Bytes())
	require.NoError(t, err)
	assert.ErrorIs(t, reader.Accept(&recorder{}), classfile.ErrMalformed)
}
