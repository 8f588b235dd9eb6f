package storage

import (
	"context"

	"typepool/internal/graph"
	"typepool/internal/locator"
)

// Store persists class files and the reference edges between them. It
// doubles as a locator so a pool can read straight from an index.
type Store interface {
	locator.Locator
	ClassStore
	EdgeStore
	Close() error
}

// ClassStore holds class-file bytes keyed by binary name.
type ClassStore interface {
	// SaveClasses upserts classes in one transaction.
	SaveClasses(ctx context.Context, classes []Class) error

	// ContentHashes returns name -> content hash for every class from source.
	ContentHashes(ctx context.Context, source string) (map[string]string, error)

	// DeleteClasses removes classes and the edges leaving them.
	DeleteClasses(ctx context.Context, names []string) error

	// Names lists every stored class name, sorted.
	Names(ctx context.Context) ([]string, error)
}

// EdgeStore holds the name-level reference graph.
type EdgeStore interface {
	// ReplaceEdges swaps the outgoing edges of from for edges.
	ReplaceEdges(ctx context.Context, from string, edges []graph.Edge) error

	Dependencies(ctx context.Context, name string) ([]graph.Edge, error)
	Dependents(ctx context.Context, name string) ([]graph.Edge, error)

	// LoadGraph rebuilds the edge set; nodes are not materialized.
	LoadGraph(ctx context.Context) (*graph.Graph, error)
}

// Class is one stored class file.
type Class struct {
	Name        string
	Source      string
	ContentHash string
	Data        []byte
}
