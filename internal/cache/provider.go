// Package cache stores type descriptions by name for a pool.
//
// Register is a test-and-set keyed by name: when two goroutines build the
// same description concurrently, the first registration wins and every caller
// receives that instance.
package cache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"typepool/internal/description"
)

// Provider is a name-keyed store of type descriptions.
type Provider interface {
	// Find returns the cached description or false.
	Find(name string) (description.TypeDescription, bool)
	// Register stores t unless a description of the same name exists and
	// returns whichever instance is canonical afterwards.
	Register(t description.TypeDescription) description.TypeDescription
	Clear()
}

// NoOp never stores anything.
type NoOp struct{}

func (NoOp) Find(string) (description.TypeDescription, bool) { return nil, false }

func (NoOp) Register(t description.TypeDescription) description.TypeDescription { return t }

func (NoOp) Clear() {}

// Simple is an unbounded concurrent cache.
type Simple struct {
	entries sync.Map // name -> description.TypeDescription
}

func NewSimple() *Simple {
	return &Simple{}
}

func (s *Simple) Find(name string) (description.TypeDescription, bool) {
	v, ok := s.entries.Load(name)
	if !ok {
		return nil, false
	}
	return v.(description.TypeDescription), true
}

func (s *Simple) Register(t description.TypeDescription) description.TypeDescription {
	actual, _ := s.entries.LoadOrStore(t.Name(), t)
	return actual.(description.TypeDescription)
}

func (s *Simple) Clear() {
	s.entries.Clear()
}

// Len counts the cached entries.
func (s *Simple) Len() int {
	n := 0
	s.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// LRU keeps at most a fixed number of descriptions, evicting the least
// recently used one. An evicted name is simply rebuilt on its next lookup.
type LRU struct {
	entries *lru.Cache
}

func NewLRU(size int) (*LRU, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("create lru cache of size %d: %w", size, err)
	}
	return &LRU{entries: c}, nil
}

func (l *LRU) Find(name string) (description.TypeDescription, bool) {
	v, ok := l.entries.Get(name)
	if !ok {
		return nil, false
	}
	return v.(description.TypeDescription), true
}

func (l *LRU) Register(t description.TypeDescription) description.TypeDescription {
	previous, ok, _ := l.entries.PeekOrAdd(t.Name(), t)
	if ok {
		return previous.(description.TypeDescription)
	}
	return t
}

func (l *LRU) Clear() {
	l.entries.Purge()
}

func (l *LRU) Len() int {
	return l.entries.Len()
}

// New returns the provider registered under kind ("simple", "noop" or "lru").
func New(kind string, size int) (Provider, error) {
	switch kind {
	case "", "simple":
		return NewSimple(), nil
	case "noop":
		return NoOp{}, nil
	case "lru":
		return NewLRU(size)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", kind)
	}
}
