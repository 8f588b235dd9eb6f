// Package index loads class directories and jars into a class store,
// recording the reference edges of every class so that reverse lookups
// work without describing anything.
package index

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"typepool/internal/crawler"
	"typepool/internal/extractor"
	"typepool/internal/graph"
	"typepool/internal/storage"
	"typepool/internal/token"
)

// Stats summarizes one Index run.
type Stats struct {
	Sources   int
	Added     int
	Updated   int
	Unchanged int
	Removed   int
	Failed    int

	// Shadowed counts classes skipped because an earlier source in the
	// same run already holds the name.
	Shadowed int
}

// Indexer orchestrates class scanning and store updates.
type Indexer struct {
	crawler *crawler.Crawler
	store   storage.Store
	logger  *zap.Logger
	workers int
}

// NewIndexer creates a new indexer. A nil logger is replaced by a no-op one.
func NewIndexer(c *crawler.Crawler, store storage.Store, logger *zap.Logger) *Indexer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{
		crawler: c,
		store:   store,
		logger:  logger,
		workers: runtime.GOMAXPROCS(0),
	}
}

type parsed struct {
	entry crawler.Entry
	hash  string
	tok   token.TypeToken
	err   error
}

// Index scans every root and brings the store in line with it. Classes
// whose bytes did not change are skipped; classes that disappeared from a
// source are removed. A class file that cannot be parsed is logged and
// counted but does not fail the run.
//
// Sources are visited in root order, and within a root in sorted order. As
// on a class path, the first source holding a name owns it; later copies
// are not stored.
func (i *Indexer) Index(ctx context.Context, roots ...string) (Stats, error) {
	var stats Stats
	claimed := make(map[string]string)
	for _, root := range roots {
		bySource := make(map[string][]crawler.Entry)
		err := i.crawler.Scan(root, func(e crawler.Entry) error {
			bySource[e.Source] = append(bySource[e.Source], e)
			return ctx.Err()
		})
		if err != nil {
			return stats, fmt.Errorf("scan failed: %w", err)
		}

		sources := make([]string, 0, len(bySource))
		for s := range bySource {
			sources = append(sources, s)
		}
		sort.Strings(sources)
		for _, source := range sources {
			if err := i.syncSource(ctx, source, bySource[source], claimed, &stats); err != nil {
				return stats, err
			}
			stats.Sources++
		}
	}
	return stats, nil
}

func (i *Indexer) syncSource(ctx context.Context, source string, entries []crawler.Entry, claimed map[string]string, stats *Stats) error {
	stored, err := i.store.ContentHashes(ctx, source)
	if err != nil {
		return err
	}

	seen := make(map[string]bool, len(entries))
	var changed []crawler.Entry
	shadowed := 0
	for _, e := range entries {
		if owner, ok := claimed[e.Name]; ok && owner != source {
			i.logger.Debug("class shadowed", zap.String("type", e.Name), zap.String("source", source), zap.String("owner", owner))
			shadowed++
			continue
		}
		claimed[e.Name] = source
		seen[e.Name] = true
		if stored[e.Name] == storage.ContentHash(e.Data) {
			stats.Unchanged++
			continue
		}
		changed = append(changed, e)
	}

	results := i.parseAll(ctx, changed)
	if err := ctx.Err(); err != nil {
		return err
	}

	classes := make([]storage.Class, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			i.logger.Warn("skipping class file", zap.String("type", r.entry.Name), zap.String("source", source), zap.Error(r.err))
			stats.Failed++
			continue
		}
		classes = append(classes, storage.Class{Name: r.entry.Name, Source: source, ContentHash: r.hash, Data: r.entry.Data})
		if _, ok := stored[r.entry.Name]; ok {
			stats.Updated++
		} else {
			stats.Added++
		}
	}
	if err := i.store.SaveClasses(ctx, classes); err != nil {
		return fmt.Errorf("failed to save classes from %s: %w", source, err)
	}
	for _, r := range results {
		if r.err != nil {
			continue
		}
		if err := i.store.ReplaceEdges(ctx, r.tok.Name, graph.References(r.tok)); err != nil {
			return fmt.Errorf("failed to save edges of %s: %w", r.tok.Name, err)
		}
	}

	var stale []string
	for name := range stored {
		if !seen[name] {
			stale = append(stale, name)
		}
	}
	sort.Strings(stale)
	if err := i.store.DeleteClasses(ctx, stale); err != nil {
		return fmt.Errorf("failed to remove stale classes from %s: %w", source, err)
	}
	stats.Removed += len(stale)
	stats.Shadowed += shadowed

	i.logger.Info("indexed source",
		zap.String("source", source),
		zap.Int("classes", len(entries)),
		zap.Int("changed", len(changed)),
		zap.Int("removed", len(stale)),
		zap.Int("shadowed", shadowed))
	return nil
}

func (i *Indexer) parseAll(ctx context.Context, entries []crawler.Entry) []parsed {
	results := make([]parsed, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(i.workers)
	for n, e := range entries {
		g.Go(func() error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			results[n] = parse(e)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func parse(e crawler.Entry) parsed {
	p := parsed{entry: e, hash: storage.ContentHash(e.Data)}
	p.tok, p.err = extractor.Extract(e.Data)
	if p.err == nil && p.tok.Name != e.Name {
		p.err = fmt.Errorf("class file at %s declares %s", e.Name, p.tok.Name)
	}
	return p
}

// BuildGraph scans roots and constructs the reference graph in memory
// without touching the store. Class files that cannot be parsed are skipped,
// and the first root holding a name wins as in Index.
func (i *Indexer) BuildGraph(roots ...string) (*graph.Graph, error) {
	g := graph.NewGraph()
	for _, root := range roots {
		err := i.crawler.Scan(root, func(e crawler.Entry) error {
			if _, ok := g.Nodes[e.Name]; ok {
				return nil
			}
			p := parse(e)
			if p.err != nil {
				i.logger.Debug("skipping class file", zap.String("type", e.Name), zap.Error(p.err))
				return nil
			}
			g.AddType(p.tok)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
	}
	return g, nil
}
