package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"typepool/internal/config"
	"typepool/internal/crawler"
	"typepool/internal/graph"
	"typepool/internal/index"
	"typepool/internal/storage"
)

var (
	depsHops    int
	depsReverse bool
	depsDirect  bool
	depsKinds   []string
)

var depsCmd = &cobra.Command{
	Use:   "deps NAME...",
	Short: "Follow type references through the pool, or list recorded edges of a type",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Sync()

		if depsReverse || depsDirect {
			return printEdges(cmd, cfg, logger, args)
		}

		s, err := openSession(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		defer s.logStats()

		walk := graph.DefaultWalkConfig()
		walk.MaxHops = depsHops
		if len(depsKinds) > 0 {
			walk.AllowedKinds = make(map[graph.RelationKind]bool, len(depsKinds))
			for _, k := range depsKinds {
				walk.AllowedKinds[graph.RelationKind(k)] = true
			}
		}

		sg := graph.Walk(s.pool, args, walk)
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(sg); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}

		if len(sg.Unresolved) > 0 {
			warn := color.New(color.FgYellow)
			for reason, n := range sg.UnresolvedReasonCounts() {
				warn.Fprintf(os.Stderr, "%d unresolved (%s)\n", n, reason)
			}
		}
		return nil
	},
}

// edgeIndex answers direct edge queries from the SQLite index when one
// exists, or else from a graph built over the class path.
type edgeIndex struct {
	store *storage.SQLiteStore
	graph *graph.Graph
}

func openEdgeIndex(cfg *config.Config, logger *zap.Logger) (*edgeIndex, error) {
	if cfg.Store.Path != "" {
		_, err := os.Stat(cfg.Store.Path)
		if err == nil {
			store, err := storage.NewSQLiteStore(cfg.Store.Path)
			if err != nil {
				return nil, err
			}
			return &edgeIndex{store: store}, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	if len(cfg.Classpath) == 0 {
		return nil, fmt.Errorf("no class index at %s and no class path, run `typepool index` first", cfg.Store.Path)
	}
	g, err := index.NewIndexer(crawler.NewCrawler(), nil, logger).BuildGraph(cfg.Classpath...)
	if err != nil {
		return nil, err
	}
	return &edgeIndex{graph: g}, nil
}

func (x *edgeIndex) edges(ctx context.Context, name string, reverse bool) ([]graph.Edge, error) {
	switch {
	case x.store != nil && reverse:
		return x.store.Dependents(ctx, name)
	case x.store != nil:
		return x.store.Dependencies(ctx, name)
	case reverse:
		return x.graph.Dependents(name), nil
	default:
		return x.graph.Dependencies(name), nil
	}
}

func (x *edgeIndex) Close() error {
	if x.store != nil {
		return x.store.Close()
	}
	return nil
}

func printEdges(cmd *cobra.Command, cfg *config.Config, logger *zap.Logger, names []string) error {
	x, err := openEdgeIndex(cfg, logger)
	if err != nil {
		return err
	}
	defer x.Close()

	out := map[string][]graph.Edge{}
	for _, name := range names {
		edges, err := x.edges(cmd.Context(), name, depsReverse)
		if err != nil {
			return err
		}
		out[name] = edges
	}
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func init() {
	depsCmd.Flags().IntVar(&depsHops, "hops", 2, "Maximum number of references to follow from each root")
	depsCmd.Flags().BoolVarP(&depsReverse, "reverse", "r", false, "List the recorded edges pointing at NAME")
	depsCmd.Flags().BoolVar(&depsDirect, "direct", false, "List the recorded edges leaving NAME without walking")
	depsCmd.Flags().StringSliceVar(&depsKinds, "kind", nil, "Only follow these relations (extends, implements, field_type, ...)")
	depsCmd.MarkFlagsMutuallyExclusive("reverse", "direct")
}
