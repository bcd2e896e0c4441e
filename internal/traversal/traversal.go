// Package traversal enumerates the candidate files of a repository.
package traversal

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"
	"golang.org/x/sync/errgroup"

	"overdoc/internal/errors"
	"overdoc/internal/model"
	"overdoc/internal/paths"
)

// builtinSkipDirs are pruned regardless of configuration.
var builtinSkipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"target":       {},
	"dist":         {},
	"build":        {},
}

// Options configure a walk.
type Options struct {
	// IgnoreDirectories are glob patterns matched against a directory's
	// name and its repo-relative path.
	IgnoreDirectories []string
	// RespectGitignore applies the root .gitignore.
	RespectGitignore bool
	// Workers bounds concurrent directory reads; values below 1 mean 1.
	Workers int
	// Detect assigns a language tag from a repo-relative path.
	Detect func(rel string) string
}

// Result is the output of a walk. Files and Dirs are sorted by path.
type Result struct {
	Files    []model.FileRecord
	Dirs     []string
	Warnings []model.Warning
}

// Validate checks the ignore patterns.
func (o Options) Validate() error {
	for _, p := range o.IgnoreDirectories {
		if !doublestar.ValidatePattern(p) {
			return errors.New(errors.ConfigInvalid, fmt.Sprintf("invalid ignore_directories pattern %q", p), nil)
		}
	}
	return nil
}

// CheckRoot verifies root exists and is a directory.
func CheckRoot(root string) error {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.New(errors.RootNotFound, "repository root does not exist", err).WithPath(root)
		}
		return errors.New(errors.RootNotFound, "repository root is not accessible", err).WithPath(root)
	}
	if !info.IsDir() {
		return errors.New(errors.RootNotDirectory, "repository root is not a directory", nil).WithPath(root)
	}
	return nil
}

type walker struct {
	root      string
	opts      Options
	gitignore *ignore.GitIgnore
	logger    *slog.Logger

	g   *errgroup.Group
	ctx context.Context

	mu       sync.Mutex
	files    []model.FileRecord
	dirs     []string
	warnings []model.Warning
}

// Walk descends from root and returns every regular file that survives the
// directory pruning rules. Dot entries and symbolic links are never
// returned; unreadable directories become warnings. Independent subtrees
// are read concurrently.
func Walk(ctx context.Context, root string, opts Options, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := CheckRoot(root); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	w := &walker{root: root, opts: opts, logger: logger}
	if opts.RespectGitignore {
		w.gitignore = loadGitignore(root)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	w.g, w.ctx = g, gctx
	g.Go(func() error { return w.walkDir(paths.Root) })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(w.files, func(i, j int) bool { return w.files[i].Path < w.files[j].Path })
	sort.Strings(w.dirs)
	sort.Slice(w.warnings, func(i, j int) bool { return w.warnings[i].Path < w.warnings[j].Path })

	logger.Debug("Traversal complete", "files", len(w.files), "dirs", len(w.dirs), "warnings", len(w.warnings))
	return &Result{Files: w.files, Dirs: w.dirs, Warnings: w.warnings}, nil
}

func (w *walker) walkDir(rel string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	entries, err := os.ReadDir(paths.JoinRepoPath(w.root, rel))
	if err != nil {
		w.warn(rel, errors.New(errors.DirUnreadable, "cannot list directory", err))
		return nil
	}

	w.mu.Lock()
	w.dirs = append(w.dirs, rel)
	w.mu.Unlock()

	var files []model.FileRecord
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if e.Type()&fs.ModeSymlink != 0 {
			continue
		}
		childRel := join(rel, name)

		if e.IsDir() {
			if w.skipDir(name, childRel) {
				w.logger.Debug("Pruned directory", "path", childRel)
				continue
			}
			child := childRel
			if !w.g.TryGo(func() error { return w.walkDir(child) }) {
				if err := w.walkDir(child); err != nil {
					return err
				}
			}
			continue
		}

		if !e.Type().IsRegular() {
			continue
		}
		if w.gitignore != nil && w.gitignore.MatchesPath(childRel) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			w.warn(childRel, errors.New(errors.FileUnreadable, "cannot stat file", err))
			continue
		}
		rec := model.FileRecord{
			Path: childRel,
			Ext:  paths.Ext(name),
			Size: info.Size(),
		}
		if w.opts.Detect != nil {
			rec.Language = w.opts.Detect(childRel)
		}
		files = append(files, rec)
	}

	if len(files) > 0 {
		w.mu.Lock()
		w.files = append(w.files, files...)
		w.mu.Unlock()
	}
	return nil
}

func (w *walker) skipDir(name, rel string) bool {
	if _, skip := builtinSkipDirs[name]; skip {
		return true
	}
	for _, p := range w.opts.IgnoreDirectories {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	if w.gitignore != nil && (w.gitignore.MatchesPath(rel) || w.gitignore.MatchesPath(rel+"/")) {
		return true
	}
	return false
}

func (w *walker) warn(rel string, err *errors.OverdocError) {
	w.logger.Warn("Skipping unreadable path", "path", rel, "error", err)
	w.mu.Lock()
	w.warnings = append(w.warnings, model.Warning{Path: rel, Code: string(err.Code), Message: err.Error()})
	w.mu.Unlock()
}

func join(dir, name string) string {
	if dir == paths.Root {
		return name
	}
	return path.Join(dir, name)
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
