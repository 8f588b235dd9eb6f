package graph

import (
	"sort"

	"typepool/internal/classfile"
	"typepool/internal/token"
)

// References lists the types tok names, without resolving any of them.
// Array types contribute their element type; primitives and self references
// are dropped. Each (target, kind) pair appears once, in declaration order.
func References(tok token.TypeToken) []Edge {
	c := &edgeCollector{from: tok.Name, seen: make(map[Edge]bool)}

	if tok.SuperName != "" {
		c.add(tok.SuperName, RelationExtends)
	}
	for _, i := range tok.Interfaces {
		c.add(i, RelationImplements)
	}
	if !tok.Context.IsSelfDeclared() {
		c.add(tok.Context.Owner, RelationDeclaredIn)
	}
	c.annotations(tok.Annotations)

	for _, f := range tok.Fields {
		if typ, err := classfile.ParseType(f.Descriptor); err == nil {
			c.addType(typ, RelationFieldType)
		}
		c.annotations(f.Annotations)
	}

	for _, m := range tok.Methods {
		if args, ret, err := classfile.ParseMethod(m.Descriptor); err == nil {
			c.addType(ret, RelationReturns)
			for _, a := range args {
				c.addType(a, RelationParameter)
			}
		}
		for _, e := range m.Exceptions {
			c.add(e, RelationThrows)
		}
		c.annotations(m.Annotations)
		indexes := make([]int, 0, len(m.ParameterAnnotations))
		for i := range m.ParameterAnnotations {
			indexes = append(indexes, i)
		}
		sort.Ints(indexes)
		for _, i := range indexes {
			c.annotations(m.ParameterAnnotations[i])
		}
	}
	return c.edges
}

type edgeCollector struct {
	from  string
	seen  map[Edge]bool
	edges []Edge
}

func (c *edgeCollector) add(to string, kind RelationKind) {
	if to == "" || to == c.from {
		return
	}
	e := Edge{From: c.from, To: to, Kind: kind}
	if c.seen[e] {
		return
	}
	c.seen[e] = true
	c.edges = append(c.edges, e)
}

func (c *edgeCollector) addType(t classfile.Type, kind RelationKind) {
	element := t.ElementType()
	if element.Sort() != classfile.SortObject {
		return
	}
	c.add(element.ClassName(), kind)
}

func (c *edgeCollector) annotations(list []token.AnnotationToken) {
	for _, a := range list {
		c.add(a.TypeName(), RelationAnnotatedWith)
	}
}
