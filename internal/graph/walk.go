package graph

import (
	"errors"
	"sort"

	"typepool/internal/description"
	"typepool/internal/token"
)

// WalkConfig controls how far Walk follows references.
type WalkConfig struct {
	MaxHops      int
	AllowedKinds map[RelationKind]bool
}

func DefaultWalkConfig() WalkConfig {
	return WalkConfig{
		MaxHops:      2,
		AllowedKinds: nil,
	}
}

// Subgraph is what a walk reached: the names the pool could describe, the
// ones it could not, and the edges followed.
type Subgraph struct {
	MaxHops    int          `json:"max_hops" yaml:"max_hops"`
	Roots      []string     `json:"roots" yaml:"roots"`
	Resolved   []string     `json:"resolved" yaml:"resolved"`
	Unresolved []Unresolved `json:"unresolved,omitempty" yaml:"unresolved,omitempty"`
	Edges      []Edge       `json:"edges" yaml:"edges"`
}

type tokenized interface {
	Token() token.TypeToken
}

type queueItem struct {
	name  string
	depth int
}

// Walk describes roots through pool and follows their references breadth
// first up to cfg.MaxHops. A name that cannot be described is recorded as
// unresolved and not expanded; the walk itself never fails.
func Walk(pool description.Pool, roots []string, cfg WalkConfig) *Subgraph {
	if cfg.MaxHops < 0 {
		cfg.MaxHops = 0
	}

	visited := make(map[string]bool, len(roots))
	queue := make([]queueItem, 0, len(roots))
	for _, r := range roots {
		if !visited[r] {
			visited[r] = true
			queue = append(queue, queueItem{name: r})
		}
	}

	out := &Subgraph{MaxHops: cfg.MaxHops, Roots: sortedKeys(visited)}
	edgeSeen := make(map[Edge]bool)

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		t, err := pool.Describe(cur.name)
		if err != nil {
			out.Unresolved = append(out.Unresolved, Unresolved{
				Name:   cur.name,
				Reason: classify(err),
				Error:  err.Error(),
			})
			continue
		}
		out.Resolved = append(out.Resolved, cur.name)

		if cur.depth >= cfg.MaxHops {
			continue
		}
		for _, e := range outgoing(t) {
			if len(cfg.AllowedKinds) > 0 && !cfg.AllowedKinds[e.Kind] {
				continue
			}
			if !edgeSeen[e] {
				edgeSeen[e] = true
				out.Edges = append(out.Edges, e)
			}
			if !visited[e.To] {
				visited[e.To] = true
				queue = append(queue, queueItem{name: e.To, depth: cur.depth + 1})
			}
		}
	}

	sort.Strings(out.Resolved)
	sort.Slice(out.Unresolved, func(i, j int) bool { return out.Unresolved[i].Name < out.Unresolved[j].Name })
	sort.Slice(out.Edges, func(i, j int) bool {
		if out.Edges[i].From == out.Edges[j].From {
			if out.Edges[i].To == out.Edges[j].To {
				return out.Edges[i].Kind < out.Edges[j].Kind
			}
			return out.Edges[i].To < out.Edges[j].To
		}
		return out.Edges[i].From < out.Edges[j].From
	})
	return out
}

func outgoing(t description.TypeDescription) []Edge {
	if lt, ok := t.(tokenized); ok {
		return References(lt.Token())
	}
	if t.IsArray() {
		element := description.ElementType(t)
		if element.IsPrimitive() {
			return nil
		}
		return []Edge{{From: t.Name(), To: element.Name(), Kind: RelationComponentType}}
	}
	return nil
}

func classify(err error) UnresolvedReason {
	switch {
	case errors.Is(err, description.ErrUnresolvedName):
		return ReasonNotFound
	case errors.Is(err, description.ErrMalformedFormat):
		return ReasonMalformed
	case errors.Is(err, description.ErrInvalidName):
		return ReasonInvalid
	default:
		return ReasonOther
	}
}
