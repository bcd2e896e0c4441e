package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"overdoc/internal/engine"
	"overdoc/internal/report"
	"overdoc/internal/storage"
)

type analyzeOptions struct {
	format  string
	top     int
	workers int
	save    bool
}

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	opts := &analyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a repository and print the report",
		Long: `Analyze walks the repository, builds the dependency graph and prints
the importance and knowledge report.

Examples:
  overdoc analyze
  overdoc analyze ../service --format=json
  overdoc analyze --top=25 --workers=4
  overdoc analyze --save`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, flags, opts, rootArg(args, 0))
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "human", "Output format (human, json, yaml, toml)")
	cmd.Flags().IntVar(&opts.top, "top", 0, "Entries per ranked list (default: analysis.top_n)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "Worker goroutines (default: analysis.workers)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Store the run in the snapshot database")
	return cmd
}

func runAnalyze(cmd *cobra.Command, flags *globalFlags, opts *analyzeOptions, root string) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	s, err := flags.open(cmd, root)
	if err != nil {
		return err
	}
	defer s.close()

	if cmd.Flags().Changed("workers") {
		s.cfg.Analysis.Workers = opts.workers
	}
	topN := s.cfg.Analysis.TopN
	if cmd.Flags().Changed("top") {
		topN = opts.top
	}

	a, err := engine.Run(cmd.Context(), engine.Options{Root: s.root, Config: s.cfg, Logger: s.logger})
	if err != nil {
		return err
	}
	rep := report.Build(a, topN)

	if opts.save || s.cfg.Storage.Enabled {
		lock, err := storage.AcquireLock(s.storePath())
		if err != nil {
			return err
		}
		defer lock.Release()
		db, err := s.openStore()
		if err != nil {
			return err
		}
		id, err := db.SaveRun(a, rep)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Saved run %s\n", id)
	}

	return report.Render(cmd.OutOrStdout(), rep, format)
}
