package description

// primitive is a resolved description of one of the eight primitive types or void.
type primitive struct {
	name       string
	descriptor string
	stackSize  int
}

var (
	Boolean TypeDescription = &primitive{"boolean", "Z", 1}
	Byte    TypeDescription = &primitive{"byte", "B", 1}
	Short   TypeDescription = &primitive{"short", "S", 1}
	Char    TypeDescription = &primitive{"char", "C", 1}
	Int     TypeDescription = &primitive{"int", "I", 1}
	Long    TypeDescription = &primitive{"long", "J", 2}
	Float   TypeDescription = &primitive{"float", "F", 1}
	Double  TypeDescription = &primitive{"double", "D", 2}
	Void    TypeDescription = &primitive{"void", "V", 0}
)

// Primitives lists every primitive description, void included.
func Primitives() []TypeDescription {
	return []TypeDescription{Boolean, Byte, Short, Char, Int, Long, Float, Double, Void}
}

func (p *primitive) Name() string          { return p.name }
func (p *primitive) CanonicalName() string { return p.name }
func (p *primitive) Descriptor() string    { return p.descriptor }
func (p *primitive) Modifiers() Modifiers  { return Public | Final | Abstract }
func (p *primitive) IsPrimitive() bool     { return true }
func (p *primitive) IsArray() bool         { return false }

func (p *primitive) ComponentType() TypeDescription { return nil }

func (p *primitive) Supertype() (TypeDescription, error) { return nil, nil }
func (p *primitive) Interfaces() TypeList                { return EmptyTypeList() }

func (p *primitive) DeclaringType() (TypeDescription, error)     { return nil, nil }
func (p *primitive) EnclosingType() (TypeDescription, error)     { return nil, nil }
func (p *primitive) EnclosingMethod() (MethodDescription, error) { return nil, nil }
func (p *primitive) IsAnonymous() bool                           { return false }
func (p *primitive) IsLocal() bool                               { return false }
func (p *primitive) IsMember() bool                              { return false }

func (p *primitive) DeclaredAnnotations() AnnotationList { return nil }
func (p *primitive) DeclaredFields() FieldList           { return nil }
func (p *primitive) DeclaredMethods() MethodList         { return nil }

func (p *primitive) String() string { return p.name }

// StackSize returns the operand stack slots taken by a value of t.
func StackSize(t TypeDescription) int {
	if p, ok := t.(*primitive); ok {
		return p.stackSize
	}
	return 1
}
