// Package cmd implements the corpus CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/f0rbit/corpus/internal/app"
	"github.com/f0rbit/corpus/internal/config"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	Backend string
	Base    string
	DB      string
	Format  string
	Rate    float64
	Verbose bool
	Debug   bool
}

// rootCmd is the base command. Running `corpus` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "corpus",
	Short: "corpus — versioned, content-addressed snapshot store",
	Long: `corpus stores immutable, time-sortable snapshots of typed payloads with
content-addressed deduplication, lineage tracking, and a typed observations
layer pointing into stored snapshots.

Quick start:
  corpus put --store speeches draft.json    # store a snapshot
  corpus list --store speeches              # list versions
  corpus get --store speeches               # fetch the latest snapshot`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	if globalFlags.Backend != "" {
		cfg.Backend = globalFlags.Backend
	}
	if globalFlags.Base != "" {
		cfg.Base = globalFlags.Base
	}
	if globalFlags.DB != "" {
		cfg.DBPath = globalFlags.DB
	}
	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return app.New(cfg)
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.Backend, "backend", "",
		"storage backend: memory|local|sqlite (default: local)")
	pf.StringVar(&globalFlags.Base, "base", "",
		"base directory for the local backend (default: ~/.corpus)")
	pf.StringVar(&globalFlags.DB, "db", "",
		"database path for the sqlite backend")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl (default: table)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max backend operations per second (default: unlimited)")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"accepted; output is the same with or without it")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"set the default slog level to debug")
}
