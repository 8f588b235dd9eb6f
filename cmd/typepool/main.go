package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"typepool/internal/config"
	"typepool/internal/logging"
)

var (
	rootCmd = &cobra.Command{
		Use:           "typepool",
		Short:         "Describe JVM types straight from class files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configPath string
	dbPath     string
	classpath  []string
	logLevel   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "typepool.yaml", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the class index database (SQLite), overrides store.path")
	rootCmd.PersistentFlags().StringSliceVar(&classpath, "classpath", nil, "Class directories and jars to search, overrides classpath")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides log.level")

	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(depsCmd)
	rootCmd.AddCommand(publishCmd)
}

// loadConfig applies command line overrides on top of the config file.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if len(classpath) > 0 {
		cfg.Classpath = classpath
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *zap.Logger {
	logger, err := logging.New(cfg.Log.Level)
	if err != nil {
		color.Yellow("warning: %v, logging disabled", err)
		return zap.NewNop()
	}
	return logger
}
