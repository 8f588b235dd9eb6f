package main

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"typepool/internal/crawler"
	"typepool/internal/graph"
	"typepool/internal/index"
	"typepool/internal/storage"
)

var indexDryRun bool

var indexCmd = &cobra.Command{
	Use:   "index PATH...",
	Short: "Load class directories and jars into the local class index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Sync()

		out := cmd.OutOrStdout()
		start := time.Now()

		if indexDryRun {
			g, err := index.NewIndexer(crawler.NewCrawler(), nil, logger).BuildGraph(args...)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Fprintf(out, "scanned %d class(es) in %v (dry run)\n", len(g.Nodes), time.Since(start).Round(time.Millisecond))
			printRelationCounts(out, g)
			if missing := g.Missing(); len(missing) > 0 {
				color.New(color.FgYellow).Fprintf(out, "  %d referenced type(s) outside the scanned paths\n", len(missing))
			}
			return nil
		}

		store, err := storage.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer store.Close()

		idx := index.NewIndexer(crawler.NewCrawler(), store, logger)
		stats, err := idx.Index(cmd.Context(), args...)
		if err != nil {
			return err
		}

		color.New(color.FgGreen).Fprintf(out, "indexed %d source(s) in %v\n", stats.Sources, time.Since(start).Round(time.Millisecond))
		fmt.Fprintf(out, "  added %d, updated %d, unchanged %d, removed %d\n", stats.Added, stats.Updated, stats.Unchanged, stats.Removed)
		if stats.Shadowed > 0 {
			fmt.Fprintf(out, "  shadowed %d duplicate class(es)\n", stats.Shadowed)
		}
		if stats.Failed > 0 {
			color.New(color.FgYellow).Fprintf(out, "  skipped %d unreadable class file(s)\n", stats.Failed)
		}

		g, err := store.LoadGraph(cmd.Context())
		if err != nil {
			return err
		}
		printRelationCounts(out, g)
		fmt.Fprintf(out, "database: %s\n", cfg.Store.Path)
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexDryRun, "dry-run", false, "Scan and summarize references without writing the index")
}

func printRelationCounts(w io.Writer, g *graph.Graph) {
	counts := g.RelationCounts()
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-16s %d\n", k, counts[graph.RelationKind(k)])
	}
}
