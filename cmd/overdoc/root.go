package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"overdoc/internal/config"
	"overdoc/internal/errors"
	"overdoc/internal/slogutil"
	"overdoc/internal/storage"
	"overdoc/internal/version"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	verbose    int
	quiet      bool
	logFile    string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:   "overdoc",
		Short: "OverDoc - repository knowledge analysis",
		Long: `OverDoc walks a repository, extracts the entities each file exports and the
names it imports, links them into a file dependency graph and scores every
file and directory by importance and knowledge content.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetVersionTemplate("overdoc version {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Config file (default: overdoc.yaml in the repository root)")
	pf.CountVarP(&flags.verbose, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress all log output")
	pf.StringVar(&flags.logFile, "log-file", "", "Also write logs to this file")

	cmd.AddCommand(
		newAnalyzeCmd(flags),
		newDepsCmd(flags),
		newLanguagesCmd(flags),
		newInitCmd(),
		newHistoryCmd(flags),
		newShowCmd(flags),
		newChangedCmd(flags),
	)
	return cmd
}

// session is the per-invocation state built from the global flags.
type session struct {
	root    string
	cfg     *config.Config
	logger  *slog.Logger
	closers []io.Closer
}

// open resolves root, loads its configuration and builds the logger.
// Logs go to stderr so stdout stays parseable.
func (f *globalFlags) open(cmd *cobra.Command, root string) (*session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.New(errors.RootNotFound, "cannot resolve root", err).WithPath(root)
	}
	cfg, err := config.LoadConfig(abs, f.configPath)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, err.Error(), err)
	}

	s := &session{root: abs, cfg: cfg}
	level := slogutil.LevelFromVerbosity(slogutil.LevelFromString(cfg.Logging.Level), f.verbose, f.quiet)
	handler := slogutil.NewHandler(cmd.ErrOrStderr(), level, cfg.Logging.Format)

	logFile := f.logFile
	if logFile == "" {
		logFile = cfg.Logging.File
	}
	if logFile != "" {
		fileHandler, file, err := slogutil.NewFileHandler(logFile, level)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		s.closers = append(s.closers, file)
		handler = slogutil.NewTeeHandler(handler, fileHandler)
	}
	s.logger = slog.New(handler)
	return s, nil
}

// storePath resolves the snapshot database location against the root.
func (s *session) storePath() string {
	p := s.cfg.Storage.Path
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(s.root, filepath.FromSlash(p))
}

func (s *session) openStore() (*storage.DB, error) {
	db, err := storage.Open(s.storePath(), s.logger)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, db)
	return db, nil
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
}

// rootArg returns args[i] or "." when absent.
func rootArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "."
}
