// Package locator finds class-file bytes by binary type name. Every locator
// reports a missing type as (nil, false, nil); errors are reserved for I/O
// failures.
package locator

import (
	"sync"
)

// Locator maps a binary name such as "pkg.Outer$Inner" to class-file bytes.
type Locator interface {
	Locate(name string) ([]byte, bool, error)
}

// Func adapts a function to Locator.
type Func func(name string) ([]byte, bool, error)

func (f Func) Locate(name string) ([]byte, bool, error) { return f(name) }

// Map serves class files from memory.
type Map struct {
	mu    sync.RWMutex
	types map[string][]byte
}

func NewMap() *Map {
	return &Map{types: make(map[string][]byte)}
}

// Put stores data under name, replacing any earlier entry.
func (m *Map) Put(name string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[name] = data
}

func (m *Map) Locate(name string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.types[name]
	return data, ok, nil
}

// Names lists the stored names in no particular order.
func (m *Map) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.types))
	for n := range m.types {
		names = append(names, n)
	}
	return names
}
