// Package engine runs one repository analysis: traversal, filtering,
// per-file extraction and metrics, dependency graph building and scoring.
// A run is stateless and either completes or fails as a whole.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"overdoc/internal/config"
	"overdoc/internal/errors"
	"overdoc/internal/extract"
	"overdoc/internal/filter"
	"overdoc/internal/graph"
	"overdoc/internal/index"
	"overdoc/internal/lang"
	"overdoc/internal/metrics"
	"overdoc/internal/model"
	"overdoc/internal/paths"
	"overdoc/internal/score"
	"overdoc/internal/traversal"
)

// Options configure a run.
type Options struct {
	// Root is the repository root.
	Root string
	// Config defaults to config.DefaultConfig(). Language packs found under
	// the root are merged into it.
	Config *config.Config
	Logger *slog.Logger
}

// Timings records the wall time of each stage.
type Timings struct {
	Traversal time.Duration `json:"traversal"`
	Filter    time.Duration `json:"filter"`
	Extract   time.Duration `json:"extract"`
	Graph     time.Duration `json:"graph"`
	Score     time.Duration `json:"score"`
	Total     time.Duration `json:"total"`
}

// Analysis is the complete output of a run. It is read-only.
type Analysis struct {
	Root      string
	StartedAt time.Time
	Config    *config.Config
	Registry  *lang.Registry

	// Candidates is the traversal output; Files the analysis set with
	// metrics and hashes attached. Skipped lists analysis-set files that
	// could not be read or decoded.
	Candidates []model.FileRecord
	Files      []model.FileRecord
	Skipped    []model.FileRecord
	Excluded   map[filter.Reason]int
	Dirs       []string

	Index       *index.Index
	Graph       *graph.Graph
	Resolutions graph.Resolutions
	Unresolved  []model.ImportReference
	Centrality  map[string]float64
	Scores      *score.Result

	LanguagePacks []string
	Warnings      []model.Warning
	Timings       Timings
}

// File returns the analysis-set record for path.
func (a *Analysis) File(path string) (model.FileRecord, bool) {
	i := sort.Search(len(a.Files), func(i int) bool { return a.Files[i].Path >= path })
	if i < len(a.Files) && a.Files[i].Path == path {
		return a.Files[i], true
	}
	return model.FileRecord{}, false
}

// Run analyzes the repository at opts.Root.
func Run(ctx context.Context, opts Options) (*Analysis, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	// Language packs are loaded into a private copy; the caller's config
	// may be shared across runs.
	var cfg *config.Config
	if opts.Config != nil {
		cfg = opts.Config.Clone()
	} else {
		cfg = config.DefaultConfig()
	}

	if err := traversal.CheckRoot(opts.Root); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, errors.New(errors.RootNotFound, "cannot resolve repository root", err).WithPath(opts.Root)
	}

	packs, err := cfg.LoadLanguagePacks(root)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "loading language packs", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, err.Error(), err)
	}
	registry, err := lang.NewRegistry(cfg.Languages, logger)
	if err != nil {
		return nil, err
	}

	a := &Analysis{
		Root:          root,
		StartedAt:     start,
		Config:        cfg,
		Registry:      registry,
		LanguagePacks: packs,
	}
	workers := cfg.Analysis.WorkerCount()
	logger.Info("Starting analysis", "root", root, "workers", workers, "languages", len(registry.Names()))

	// Traversal
	stage := time.Now()
	walked, err := traversal.Walk(ctx, root, traversal.Options{
		IgnoreDirectories: cfg.IgnoreDirectories,
		RespectGitignore:  cfg.Analysis.RespectGitignore,
		Workers:           workers,
		Detect: func(rel string) string {
			if l := registry.ForPath(rel); l != nil {
				return l.Name
			}
			return ""
		},
	}, logger)
	if err != nil {
		return nil, err
	}
	a.Candidates = walked.Files
	a.Dirs = walked.Dirs
	a.Warnings = append(a.Warnings, walked.Warnings...)
	a.Timings.Traversal = time.Since(stage)

	// Filter
	stage = time.Now()
	f, err := filter.New(cfg, registry)
	if err != nil {
		return nil, err
	}
	kept, excluded := f.Apply(walked.Files)
	a.Excluded = excluded
	a.Timings.Filter = time.Since(stage)
	logger.Info("Filtered candidates", "candidates", len(walked.Files), "kept", len(kept))

	// Extraction and metrics
	stage = time.Now()
	a.Index = index.New()
	processed, skipped, warnings, err := processFiles(ctx, root, kept, registry, a.Index, workers, logger)
	if err != nil {
		return nil, err
	}
	a.Files = processed
	a.Skipped = skipped
	a.Warnings = append(a.Warnings, warnings...)
	a.Index.Freeze()
	a.Timings.Extract = time.Since(stage)
	logger.Info("Extracted files",
		"files", len(processed),
		"skipped", len(skipped),
		"exports", a.Index.ExportCount(),
		"imports", a.Index.ImportCount(),
	)

	// Dependency graph
	stage = time.Now()
	filePaths := make([]string, len(a.Files))
	for i, rec := range a.Files {
		filePaths[i] = rec.Path
	}
	built, err := graph.Build(ctx, a.Index, filePaths, graph.Options{Workers: workers, Logger: logger})
	if err != nil {
		return nil, err
	}
	a.Graph = built.Graph
	a.Resolutions = built.Resolutions
	a.Unresolved = built.Unresolved
	for _, ref := range built.Unresolved {
		logger.Debug("Unresolved import", "file", ref.File, "name", ref.Name, "line", ref.Line)
	}
	ranked, err := a.Graph.Centrality(ctx, graph.DefaultRankOptions())
	if err != nil {
		return nil, err
	}
	a.Centrality = make(map[string]float64, len(ranked.Results))
	for _, r := range ranked.Results {
		a.Centrality[r.File] = r.Score
	}
	a.Timings.Graph = time.Since(stage)

	// Scoring
	stage = time.Now()
	inputs := make([]score.FileInput, len(a.Files))
	for i, rec := range a.Files {
		inputs[i] = score.FileInput{
			Path:       rec.Path,
			Language:   rec.Language,
			Metrics:    rec.Metrics,
			Usage:      a.Index.UsageSum(rec.Path),
			Dependents: a.Graph.InDegree(rec.Path),
		}
	}
	a.Scores, err = score.Compute(ctx, inputs, a.Dirs, score.ParamsFromConfig(cfg), workers)
	if err != nil {
		return nil, err
	}
	a.Timings.Score = time.Since(stage)

	sort.Slice(a.Warnings, func(i, j int) bool {
		if a.Warnings[i].Path != a.Warnings[j].Path {
			return a.Warnings[i].Path < a.Warnings[j].Path
		}
		return a.Warnings[i].Code < a.Warnings[j].Code
	})
	a.Timings.Total = time.Since(start)
	logger.Info("Analysis complete",
		"files", len(a.Files),
		"edges", a.Graph.NumEdges(),
		"unresolved", len(a.Unresolved),
		"warnings", len(a.Warnings),
		"duration", a.Timings.Total.Round(time.Millisecond),
	)
	return a, nil
}

// processFiles reads, hashes, extracts and measures each file on a bounded
// worker pool, merging each file's extraction into idx as one unit. A file
// that cannot be read or decoded becomes a warning; it never affects others.
func processFiles(
	ctx context.Context,
	root string,
	files []model.FileRecord,
	registry *lang.Registry,
	idx *index.Index,
	workers int,
	logger *slog.Logger,
) (processed, skipped []model.FileRecord, warnings []model.Warning, err error) {
	extractor := extract.New(registry)
	records := make([]model.FileRecord, len(files))
	copy(records, files)
	ok := make([]bool, len(records))

	var mu sync.Mutex
	warn := func(rel string, e *errors.OverdocError) {
		logger.Warn("Skipping file", "path", rel, "code", e.Code, "error", e.Error())
		mu.Lock()
		warnings = append(warnings, model.Warning{Path: rel, Code: string(e.Code), Message: e.Error()})
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec := &records[i]
			data, err := os.ReadFile(paths.JoinRepoPath(root, rec.Path))
			if err != nil {
				warn(rec.Path, errors.New(errors.FileUnreadable, "cannot read file", err).WithPath(rec.Path))
				return nil
			}
			if !utf8.Valid(data) {
				warn(rec.Path, errors.New(errors.FileUndecodable, "file is not valid UTF-8", nil).WithPath(rec.Path))
				return nil
			}
			hash, err := contentHash(data)
			if err != nil {
				return errors.New(errors.InternalError, "hashing file", err).WithPath(rec.Path)
			}
			rec.Hash = hash

			text := string(data)
			ex := extractor.Extract(rec.Path, text)
			rec.Metrics = metrics.Collect(registry.ForPath(rec.Path), text, ex.Declarations)
			if err := idx.Merge(ex); err != nil {
				return err
			}
			ok[i] = true
			logger.Debug("Processed file", "path", rec.Path, "exports", len(ex.Exports), "imports", len(ex.Imports))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("analysis cancelled: %w", err)
	}

	for i, rec := range records {
		if ok[i] {
			processed = append(processed, rec)
		} else {
			skipped = append(skipped, rec)
		}
	}
	return processed, skipped, warnings, nil
}
