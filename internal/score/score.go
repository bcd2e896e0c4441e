// Package score turns usage counts, graph degree and file metrics into
// importance and knowledge scores, and folds them into the directory tree.
package score

import (
	"context"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"overdoc/internal/config"
	"overdoc/internal/model"
)

// Params are the tunable scoring constants.
type Params struct {
	DependentWeight float64
	Weights         config.KnowledgeWeights
	Caps            config.ScoringCaps
}

// ParamsFromConfig reads the scoring section of cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		DependentWeight: cfg.Scoring.DependentWeight,
		Weights:         cfg.Scoring.KnowledgeWeights,
		Caps:            cfg.Scoring.Caps,
	}
}

// FileInput is what the scorer needs to know about one analyzed file.
type FileInput struct {
	Path       string
	Language   string
	Metrics    *model.FileMetrics
	Usage      int
	Dependents int
}

// Components are the clipped knowledge components, each in [0,100].
type Components struct {
	Complexity      float64 `json:"complexity" yaml:"complexity" toml:"complexity"`
	Maintainability float64 `json:"maintainability" yaml:"maintainability" toml:"maintainability"`
	Size            float64 `json:"size" yaml:"size" toml:"size"`
	Declarations    float64 `json:"declarations" yaml:"declarations" toml:"declarations"`
	Importance      float64 `json:"importance" yaml:"importance" toml:"importance"`
}

// FileScore is the score record of one file.
type FileScore struct {
	Path         string     `json:"path" yaml:"path" toml:"path"`
	Language     string     `json:"language,omitempty" yaml:"language,omitempty" toml:"language,omitempty"`
	Importance   float64    `json:"importance" yaml:"importance" toml:"importance"`
	Knowledge    float64    `json:"knowledge" yaml:"knowledge" toml:"knowledge"`
	Components   Components `json:"components" yaml:"components" toml:"components"`
	Usage        int        `json:"usage" yaml:"usage" toml:"usage"`
	Dependents   int        `json:"dependents" yaml:"dependents" toml:"dependents"`
	Lines        int        `json:"lines" yaml:"lines" toml:"lines"`
	CodeLines    int        `json:"codeLines" yaml:"code_lines" toml:"code_lines"`
	Functions    int        `json:"functions" yaml:"functions" toml:"functions"`
	Declarations int        `json:"declarations" yaml:"declarations" toml:"declarations"`
}

// Result holds every file score and the directory tree.
type Result struct {
	Files         []FileScore
	Tree          *Tree
	MaxImportance float64
}

// Importance is usage plus weighted dependent count.
func Importance(usage, dependents int, dependentWeight float64) float64 {
	return float64(usage) + dependentWeight*float64(dependents)
}

// Knowledge combines the clipped components into a score in [0,100].
// A nil metrics record scores as an empty file.
func Knowledge(m *model.FileMetrics, importance, maxImportance float64, p Params) (float64, Components) {
	if m == nil {
		m = &model.FileMetrics{Maintainability: 100}
	}
	caps := p.Caps

	var c Components
	c.Complexity = clip((ratio(float64(m.Cyclomatic), caps.Cyclomatic) + ratio(m.Cognitive, caps.Cognitive)) / 2 * 100)
	c.Maintainability = clip(100 - m.Maintainability)
	if caps.Lines > 0 {
		c.Size = clip(math.Log2(1+float64(m.CodeLines)) / math.Log2(1+caps.Lines) * 100)
	}
	c.Declarations = clip(ratio(float64(m.DeclarationTotal()+m.Functions), caps.Declarations) * 100)
	if maxImportance > 0 {
		c.Importance = clip(importance / maxImportance * 100)
	}

	w := p.Weights
	sum := w.Sum()
	if sum <= 0 {
		return 0, c
	}
	k := (w.Complexity*c.Complexity +
		w.Maintainability*c.Maintainability +
		w.Size*c.Size +
		w.Declarations*c.Declarations +
		w.Importance*c.Importance) / sum
	return clip(k), c
}

// Compute scores every input file and folds the results into a directory
// tree built from dirs and the files' ancestors. Importance is computed
// first since knowledge normalizes against the maximum.
func Compute(ctx context.Context, inputs []FileInput, dirs []string, p Params, workers int) (*Result, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	scores := make([]FileScore, len(inputs))
	maxImp := 0.0
	for i, in := range inputs {
		scores[i] = FileScore{
			Path:       in.Path,
			Language:   in.Language,
			Importance: Importance(in.Usage, in.Dependents, p.DependentWeight),
			Usage:      in.Usage,
			Dependents: in.Dependents,
		}
		if m := in.Metrics; m != nil {
			scores[i].Lines = m.TotalLines
			scores[i].CodeLines = m.CodeLines
			scores[i].Functions = m.Functions
			scores[i].Declarations = m.DeclarationTotal()
		}
		maxImp = math.Max(maxImp, scores[i].Importance)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range scores {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			scores[i].Knowledge, scores[i].Components = Knowledge(inputs[i].Metrics, scores[i].Importance, maxImp, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(scores, func(i, j int) bool { return scores[i].Path < scores[j].Path })

	return &Result{
		Files:         scores,
		Tree:          BuildTree(dirs, scores),
		MaxImportance: maxImp,
	}, nil
}

// ByImportance returns the files sorted by descending importance, ties by path.
func ByImportance(files []FileScore) []FileScore {
	return sortedBy(files, func(f FileScore) float64 { return f.Importance })
}

// ByKnowledge returns the files sorted by descending knowledge, ties by path.
func ByKnowledge(files []FileScore) []FileScore {
	return sortedBy(files, func(f FileScore) float64 { return f.Knowledge })
}

func sortedBy(files []FileScore, key func(FileScore) float64) []FileScore {
	out := append([]FileScore(nil), files...)
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := key(out[i]), key(out[j])
		if ki != kj {
			return ki > kj
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// Top returns at most n leading elements; n <= 0 keeps all.
func Top[T any](items []T, n int) []T {
	if n <= 0 || n >= len(items) {
		return items
	}
	return items[:n]
}

func ratio(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return v / limit
}

func clip(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}
