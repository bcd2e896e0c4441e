package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"overdoc/internal/engine"
	"overdoc/internal/graph"
	"overdoc/internal/paths"
	"overdoc/internal/report"
)

type depsOptions struct {
	format  string
	related int
}

// DepsResponseCLI describes one file's place in the dependency graph.
type DepsResponseCLI struct {
	File       string               `json:"file" yaml:"file" toml:"file"`
	Language   string               `json:"language,omitempty" yaml:"language,omitempty" toml:"language,omitempty"`
	Importance float64              `json:"importance" yaml:"importance" toml:"importance"`
	Knowledge  float64              `json:"knowledge" yaml:"knowledge" toml:"knowledge"`
	Exports    []report.ExportEntry `json:"exports" yaml:"exports" toml:"exports"`
	DependsOn  []string             `json:"dependsOn" yaml:"depends_on" toml:"depends_on"`
	Dependents []string             `json:"dependents" yaml:"dependents" toml:"dependents"`
	Related    []graph.Ranked       `json:"related,omitempty" yaml:"related,omitempty" toml:"related,omitempty"`
}

func newDepsCmd(flags *globalFlags) *cobra.Command {
	opts := &depsOptions{}
	cmd := &cobra.Command{
		Use:   "deps <file> [path]",
		Short: "Show exports, dependencies and dependents of one file",
		Long: `Deps analyzes the repository and reports what one file exports, how often
each export is used, which files it depends on and which files depend on it.
Related files are ranked by personalized PageRank from the file.

Examples:
  overdoc deps src/core/types.rs
  overdoc deps lib/config.py ../service --format=json
  overdoc deps src/app.ts --related=0`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, flags, opts, args[0], rootArg(args, 1))
		},
	}
	cmd.Flags().StringVar(&opts.format, "format", "human", "Output format (human, json, yaml, toml)")
	cmd.Flags().IntVar(&opts.related, "related", 5, "Related files to list (0 disables)")
	return cmd
}

func runDeps(cmd *cobra.Command, flags *globalFlags, opts *depsOptions, file, root string) error {
	format, err := report.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	s, err := flags.open(cmd, root)
	if err != nil {
		return err
	}
	defer s.close()

	a, err := engine.Run(cmd.Context(), engine.Options{Root: s.root, Config: s.cfg, Logger: s.logger})
	if err != nil {
		return err
	}
	resp, err := buildDeps(cmd, a, paths.NormalizePath(file), opts.related)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	return report.Encode(out, resp, format, func(w io.Writer) error {
		return writeDepsHuman(w, resp, report.NewStyles(w))
	})
}

func buildDeps(cmd *cobra.Command, a *engine.Analysis, file string, related int) (*DepsResponseCLI, error) {
	fs, ok := a.Scores.Tree.File(file)
	if !ok {
		return nil, fmt.Errorf("%s was not analyzed (no recognized language, filtered or outside %s)", file, a.Root)
	}
	resp := &DepsResponseCLI{
		File:       file,
		Language:   fs.Language,
		Importance: fs.Importance,
		Knowledge:  fs.Knowledge,
		Exports:    []report.ExportEntry{},
		DependsOn:  a.Graph.DependsOn(file),
		Dependents: a.Graph.Dependents(file),
	}
	for _, ex := range a.Index.ExportsOf(file) {
		resp.Exports = append(resp.Exports, report.ExportEntry{Name: ex.Name, Kind: string(ex.Kind), Line: ex.Line, Usage: ex.Usage})
	}
	if resp.DependsOn == nil {
		resp.DependsOn = []string{}
	}
	if resp.Dependents == nil {
		resp.Dependents = []string{}
	}

	if related > 0 && a.Graph.NumEdges() > 0 {
		opts := graph.DefaultRankOptions()
		opts.IncludePaths = true
		out, err := a.Graph.Related(cmd.Context(), []string{file}, opts)
		if err != nil {
			return nil, err
		}
		for _, r := range out.Results {
			if r.File == file || r.Score <= 0 {
				continue
			}
			resp.Related = append(resp.Related, r)
			if len(resp.Related) == related {
				break
			}
		}
	}
	return resp, nil
}
