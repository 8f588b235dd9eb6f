package locator

import (
	"fmt"
	"sync"
)

// LocateStats counts the lookups one stage of a chain has served.
type LocateStats struct {
	Attempted int
	Found     int
	Failed    int
}

// Stage is a named locator inside a Chain.
type Stage struct {
	Name    string
	Locator Locator
}

// Chain asks its stages in order and returns the first hit. A stage error
// stops the lookup; later stages are not consulted for that name.
type Chain struct {
	stages []Stage

	mu    sync.Mutex
	stats []LocateStats
}

func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages, stats: make([]LocateStats, len(stages))}
}

func (c *Chain) Locate(name string) ([]byte, bool, error) {
	for i, s := range c.stages {
		data, ok, err := s.Locator.Locate(name)
		c.record(i, ok, err)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", s.Name, err)
		}
		if ok {
			return data, true, nil
		}
	}
	return nil, false, nil
}

func (c *Chain) record(i int, found bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[i].Attempted++
	switch {
	case err != nil:
		c.stats[i].Failed++
	case found:
		c.stats[i].Found++
	}
}

// StageResult pairs a stage name with its counters.
type StageResult struct {
	Stage string
	Stats LocateStats
}

// Stats returns a snapshot of the per-stage counters in chain order.
func (c *Chain) Stats() []StageResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]StageResult, 0, len(c.stages))
	for i, s := range c.stages {
		out = append(out, StageResult{Stage: s.Name, Stats: c.stats[i]})
	}
	return out
}

// Len reports the number of stages.
func (c *Chain) Len() int { return len(c.stages) }
