package main

import (
	"io"

	"github.com/spf13/cobra"

	"overdoc/internal/report"
	"overdoc/internal/storage"
)

// HistoryResponseCLI lists saved runs, newest first.
type HistoryResponseCLI struct {
	Runs []storage.RunSummary `json:"runs" yaml:"runs" toml:"runs"`
}

// ChangedResponseCLI lists files that differ between two runs.
type ChangedResponseCLI struct {
	From    string           `json:"from" yaml:"from" toml:"from"`
	To      string           `json:"to" yaml:"to" toml:"to"`
	Changes []storage.Change `json:"changes" yaml:"changes" toml:"changes"`
}

// storeFlags are shared by the snapshot commands.
type storeFlags struct {
	repo   string
	format string
}

func (sf *storeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&sf.repo, "repo", ".", "Repository whose snapshot database to use")
	cmd.Flags().StringVar(&sf.format, "format", "human", "Output format (human, json, yaml, toml)")
}

// withStore opens the session and snapshot database for the command.
func (sf *storeFlags) withStore(cmd *cobra.Command, flags *globalFlags, fn func(db *storage.DB, f report.Format) error) error {
	f, err := report.ParseFormat(sf.format)
	if err != nil {
		return err
	}
	s, err := flags.open(cmd, sf.repo)
	if err != nil {
		return err
	}
	defer s.close()
	db, err := s.openStore()
	if err != nil {
		return err
	}
	return fn(db, f)
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	sf := &storeFlags{}
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved analysis runs",
		Long: `History lists the runs stored by 'overdoc analyze --save', newest first.

Examples:
  overdoc history
  overdoc history --limit=5 --format=json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sf.withStore(cmd, flags, func(db *storage.DB, f report.Format) error {
				runs, err := db.ListRuns(limit)
				if err != nil {
					return err
				}
				resp := &HistoryResponseCLI{Runs: runs}
				if resp.Runs == nil {
					resp.Runs = []storage.RunSummary{}
				}
				return report.Encode(cmd.OutOrStdout(), resp, f, func(w io.Writer) error {
					return writeHistoryHuman(w, resp, report.NewStyles(w))
				})
			})
		},
	}
	sf.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum runs to list (0 lists all)")
	return cmd
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	sf := &storeFlags{}
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Print the report of a saved run",
		Long: `Show re-renders the report stored with a run. The id may be a unique
prefix or "latest".

Examples:
  overdoc show latest
  overdoc show 3f2a9c --format=yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sf.withStore(cmd, flags, func(db *storage.DB, f report.Format) error {
				id, err := db.ResolveRunID(args[0])
				if err != nil {
					return err
				}
				rep, err := db.LoadReport(id)
				if err != nil {
					return err
				}
				return report.Render(cmd.OutOrStdout(), rep, f)
			})
		},
	}
	sf.register(cmd)
	return cmd
}

func newChangedCmd(flags *globalFlags) *cobra.Command {
	sf := &storeFlags{}
	cmd := &cobra.Command{
		Use:   "changed <from> <to>",
		Short: "List files added, removed or modified between two runs",
		Long: `Changed compares two saved runs by file content hash.

Examples:
  overdoc changed 3f2a9c latest
  overdoc changed 3f2a9c 8b71d0 --format=json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return sf.withStore(cmd, flags, func(db *storage.DB, f report.Format) error {
				from, err := db.ResolveRunID(args[0])
				if err != nil {
					return err
				}
				to, err := db.ResolveRunID(args[1])
				if err != nil {
					return err
				}
				changes, err := db.ChangedFiles(from, to)
				if err != nil {
					return err
				}
				resp := &ChangedResponseCLI{From: from, To: to, Changes: changes}
				if resp.Changes == nil {
					resp.Changes = []storage.Change{}
				}
				return report.Encode(cmd.OutOrStdout(), resp, f, func(w io.Writer) error {
					return writeChangedHuman(w, resp, report.NewStyles(w))
				})
			})
		},
	}
	sf.register(cmd)
	return cmd
}
