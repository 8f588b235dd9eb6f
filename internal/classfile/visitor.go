package classfile

// ClassVisitor receives the structural content of a class file in file order:
// Visit, VisitOuterClass, VisitAnnotation*, VisitInnerClass*, VisitField*,
// VisitMethod*, VisitEnd. Method bodies and generic signatures are never
// interpreted; signatures are handed over as opaque strings.
type ClassVisitor interface {
	Visit(version uint32, access int, name, signature, superName string, interfaces []string)
	// VisitOuterClass reports the EnclosingMethod record; name and descriptor
	// are empty when the class is not enclosed by a method.
	VisitOuterClass(owner, name, descriptor string)
	VisitInnerClass(name, outerName, innerName string, access int)
	VisitAnnotation(descriptor string, visible bool) AnnotationVisitor
	VisitField(access int, name, descriptor, signature string, value any) FieldVisitor
	VisitMethod(access int, name, descriptor, signature string, exceptions []string) MethodVisitor
	VisitEnd()
}

// FieldVisitor receives the annotations of one field.
type FieldVisitor interface {
	VisitAnnotation(descriptor string, visible bool) AnnotationVisitor
	VisitEnd()
}

// MethodVisitor receives the annotations and annotation default of one method.
type MethodVisitor interface {
	VisitAnnotationDefault() AnnotationVisitor
	VisitAnnotation(descriptor string, visible bool) AnnotationVisitor
	VisitParameterAnnotation(parameter int, descriptor string, visible bool) AnnotationVisitor
	VisitEnd()
}

// AnnotationVisitor receives the element values of an annotation or array.
//
// Visit delivers scalars as int8, uint16 (char), int16, int32, int64, float32,
// float64, bool, string, a Type for class literals, or a homogeneous slice of
// one of the primitive kinds for primitive arrays. Names are empty for array
// elements and for annotation defaults.
type AnnotationVisitor interface {
	Visit(name string, value any)
	VisitEnum(name, descriptor, value string)
	VisitAnnotation(name, descriptor string) AnnotationVisitor
	VisitArray(name string) AnnotationVisitor
	VisitEnd()
}
