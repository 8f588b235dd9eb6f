package description

import "strings"

// Modifiers is the access flag word of a class-file entity.
type Modifiers int

const (
	Public       Modifiers = 0x0001
	Private      Modifiers = 0x0002
	Protected    Modifiers = 0x0004
	Static       Modifiers = 0x0008
	Final        Modifiers = 0x0010
	Synchronized Modifiers = 0x0020
	Volatile     Modifiers = 0x0040
	Transient    Modifiers = 0x0080
	Native       Modifiers = 0x0100
	Interface    Modifiers = 0x0200
	Abstract     Modifiers = 0x0400
	Strict       Modifiers = 0x0800
	Synthetic    Modifiers = 0x1000
	Annotation   Modifiers = 0x2000
	Enum         Modifiers = 0x4000
)

var modifierNames = []struct {
	flag Modifiers
	name string
}{
	{Public, "public"},
	{Protected, "protected"},
	{Private, "private"},
	{Abstract, "abstract"},
	{Static, "static"},
	{Final, "final"},
	{Synthetic, "synthetic"},
	{Annotation, "@interface"},
	{Interface, "interface"},
	{Enum, "enum"},
}

func (m Modifiers) Has(flag Modifiers) bool { return m&flag == flag }

func (m Modifiers) IsPublic() bool     { return m.Has(Public) }
func (m Modifiers) IsPrivate() bool    { return m.Has(Private) }
func (m Modifiers) IsStatic() bool     { return m.Has(Static) }
func (m Modifiers) IsFinal() bool      { return m.Has(Final) }
func (m Modifiers) IsAbstract() bool   { return m.Has(Abstract) }
func (m Modifiers) IsInterface() bool  { return m.Has(Interface) }
func (m Modifiers) IsAnnotation() bool { return m.Has(Annotation) }
func (m Modifiers) IsEnum() bool       { return m.Has(Enum) }
func (m Modifiers) IsSynthetic() bool  { return m.Has(Synthetic) }

// String renders the flags as source keywords, e.g. "public abstract interface".
func (m Modifiers) String() string {
	var parts []string
	for _, mn := range modifierNames {
		if m.Has(mn.flag) {
			if mn.flag == Interface && m.IsAnnotation() {
				continue
			}
			parts = append(parts, mn.name)
		}
	}
	return strings.Join(parts, " ")
}
