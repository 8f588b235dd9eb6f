package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"typepool/internal/report"
)

var (
	describeFormat   string
	describeDefaults bool
	describeMembers  bool
)

var describeCmd = &cobra.Command{
	Use:   "describe NAME...",
	Short: "Describe types by binary name, e.g. java.lang.String or [Lpkg.Foo;",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg)
		defer logger.Sync()

		s, err := openSession(cfg, logger)
		if err != nil {
			return err
		}
		defer s.Close()
		defer s.logStats()

		opts := report.Options{Defaults: describeDefaults, Members: describeMembers}
		reports := make([]*report.Type, len(args))
		failures := make([]error, len(args))

		var g errgroup.Group
		g.SetLimit(8)
		for i, name := range args {
			g.Go(func() error {
				t, err := s.pool.Describe(name)
				if err != nil {
					failures[i] = err
					return nil
				}
				reports[i] = report.Build(t, opts)
				return nil
			})
		}
		_ = g.Wait()

		var found []*report.Type
		for i, r := range reports {
			if failures[i] != nil {
				color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s: %v\n", args[i], failures[i])
				continue
			}
			found = append(found, r)
		}
		if err := report.Write(cmd.OutOrStdout(), describeFormat, found...); err != nil {
			return err
		}
		if n := countErrors(failures); n > 0 {
			return fmt.Errorf("%d of %d types could not be described", n, len(args))
		}
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVarP(&describeFormat, "format", "f", "yaml", "Output format: yaml or json")
	describeCmd.Flags().BoolVar(&describeDefaults, "defaults", false, "Include annotation properties left at their default")
	describeCmd.Flags().BoolVarP(&describeMembers, "members", "m", false, "Include fields and methods")
}

func countErrors(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}
