// Package graph builds the lazy type descriptions and the name-level
// reference graph between types.
package graph

import (
	"sort"

	"typepool/internal/token"
)

// Node is one type that has been added to the graph.
type Node struct {
	Token token.TypeToken
}

// Graph collects the reference edges of a set of types. Edge targets need not
// be nodes; a target without a node is a type outside the indexed set.
type Graph struct {
	Nodes map[string]*Node
	Edges []Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		Nodes: make(map[string]*Node),
		Edges: []Edge{},
	}
}

// AddType adds tok as a node along with its outgoing references. Adding the
// same name twice replaces the earlier edges.
func (g *Graph) AddType(tok token.TypeToken) {
	if _, ok := g.Nodes[tok.Name]; ok {
		kept := g.Edges[:0]
		for _, e := range g.Edges {
			if e.From != tok.Name {
				kept = append(kept, e)
			}
		}
		g.Edges = kept
	}
	g.Nodes[tok.Name] = &Node{Token: tok}
	g.Edges = append(g.Edges, References(tok)...)
}

// Dependencies returns the edges leaving name.
func (g *Graph) Dependencies(name string) []Edge {
	var deps []Edge
	for _, e := range g.Edges {
		if e.From == name {
			deps = append(deps, e)
		}
	}
	return deps
}

// Dependents returns the edges pointing at name.
func (g *Graph) Dependents(name string) []Edge {
	var deps []Edge
	for _, e := range g.Edges {
		if e.To == name {
			deps = append(deps, e)
		}
	}
	return deps
}

// Missing lists edge targets that have no node, sorted.
func (g *Graph) Missing() []string {
	seen := make(map[string]bool)
	for _, e := range g.Edges {
		if _, ok := g.Nodes[e.To]; !ok {
			seen[e.To] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
