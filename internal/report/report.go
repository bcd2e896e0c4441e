// Package report summarizes an analysis into a format-independent record and
// renders it as human text, JSON, YAML or TOML.
package report

import (
	"sort"
	"time"

	"overdoc/internal/engine"
	"overdoc/internal/graph"
	"overdoc/internal/score"
	"overdoc/internal/version"
)

// UnknownLanguage labels files without a language tag.
const UnknownLanguage = "unknown"

// Report is the structured analysis summary.
type Report struct {
	Root        string    `json:"root" yaml:"root" toml:"root"`
	Version     string    `json:"version" yaml:"version" toml:"version"`
	GeneratedAt time.Time `json:"generatedAt" yaml:"generated_at" toml:"generated_at"`
	DurationMs  int64     `json:"durationMs" yaml:"duration_ms" toml:"duration_ms"`

	Summary     Summary           `json:"summary" yaml:"summary" toml:"summary"`
	Resolutions graph.Resolutions `json:"resolutions" yaml:"resolutions" toml:"resolutions"`
	Languages   []LanguageShare   `json:"languages" yaml:"languages" toml:"languages"`
	Excluded    map[string]int    `json:"excluded,omitempty" yaml:"excluded,omitempty" toml:"excluded,omitempty"`

	TopKnowledge   []FileEntry    `json:"topKnowledge" yaml:"top_knowledge" toml:"top_knowledge"`
	TopImportance  []FileEntry    `json:"topImportance" yaml:"top_importance" toml:"top_importance"`
	TopDirectories []DirEntry     `json:"topDirectories" yaml:"top_directories" toml:"top_directories"`
	Central        []CentralEntry `json:"central" yaml:"central" toml:"central"`
	Warnings       []WarningEntry `json:"warnings,omitempty" yaml:"warnings,omitempty" toml:"warnings,omitempty"`
}

// Summary holds the repository-wide totals.
type Summary struct {
	Candidates         int     `json:"candidates" yaml:"candidates" toml:"candidates"`
	FilesAnalyzed      int     `json:"filesAnalyzed" yaml:"files_analyzed" toml:"files_analyzed"`
	FilesSkipped       int     `json:"filesSkipped" yaml:"files_skipped" toml:"files_skipped"`
	ExportedEntities   int     `json:"exportedEntities" yaml:"exported_entities" toml:"exported_entities"`
	FilesWithExports   int     `json:"filesWithExports" yaml:"files_with_exports" toml:"files_with_exports"`
	ImportReferences   int     `json:"importReferences" yaml:"import_references" toml:"import_references"`
	TotalLines         int     `json:"totalLines" yaml:"total_lines" toml:"total_lines"`
	CodeLines          int     `json:"codeLines" yaml:"code_lines" toml:"code_lines"`
	CommentLines       int     `json:"commentLines" yaml:"comment_lines" toml:"comment_lines"`
	BlankLines         int     `json:"blankLines" yaml:"blank_lines" toml:"blank_lines"`
	CommentRatio       float64 `json:"commentRatio" yaml:"comment_ratio" toml:"comment_ratio"`
	AvgCyclomatic      float64 `json:"avgCyclomatic" yaml:"avg_cyclomatic" toml:"avg_cyclomatic"`
	AvgCognitive       float64 `json:"avgCognitive" yaml:"avg_cognitive" toml:"avg_cognitive"`
	AvgMaintainability float64 `json:"avgMaintainability" yaml:"avg_maintainability" toml:"avg_maintainability"`
	Edges              int     `json:"edges" yaml:"edges" toml:"edges"`
	UnresolvedImports  int     `json:"unresolvedImports" yaml:"unresolved_imports" toml:"unresolved_imports"`
	Warnings           int     `json:"warnings" yaml:"warnings" toml:"warnings"`
}

// LanguageShare is one row of the language distribution.
type LanguageShare struct {
	Language string  `json:"language" yaml:"language" toml:"language"`
	Files    int     `json:"files" yaml:"files" toml:"files"`
	Percent  float64 `json:"percent" yaml:"percent" toml:"percent"`
}

// ExportEntry is an exported entity with its usage.
type ExportEntry struct {
	Name  string `json:"name" yaml:"name" toml:"name"`
	Kind  string `json:"kind" yaml:"kind" toml:"kind"`
	Line  int    `json:"line" yaml:"line" toml:"line"`
	Usage int    `json:"usage" yaml:"usage" toml:"usage"`
}

// FileEntry is a ranked file.
type FileEntry struct {
	Path       string        `json:"path" yaml:"path" toml:"path"`
	Language   string        `json:"language,omitempty" yaml:"language,omitempty" toml:"language,omitempty"`
	Importance float64       `json:"importance" yaml:"importance" toml:"importance"`
	Knowledge  float64       `json:"knowledge" yaml:"knowledge" toml:"knowledge"`
	Usage      int           `json:"usage" yaml:"usage" toml:"usage"`
	Dependents int           `json:"dependents" yaml:"dependents" toml:"dependents"`
	Lines      int           `json:"lines" yaml:"lines" toml:"lines"`
	Exports    []ExportEntry `json:"exports,omitempty" yaml:"exports,omitempty" toml:"exports,omitempty"`
}

// DirEntry is a ranked directory.
type DirEntry struct {
	Path         string  `json:"path" yaml:"path" toml:"path"`
	Importance   float64 `json:"importance" yaml:"importance" toml:"importance"`
	Files        int     `json:"files" yaml:"files" toml:"files"`
	Lines        int     `json:"lines" yaml:"lines" toml:"lines"`
	Functions    int     `json:"functions" yaml:"functions" toml:"functions"`
	AvgKnowledge float64 `json:"avgKnowledge" yaml:"avg_knowledge" toml:"avg_knowledge"`
}

// CentralEntry is a file ranked by graph centrality.
type CentralEntry struct {
	Path  string  `json:"path" yaml:"path" toml:"path"`
	Score float64 `json:"score" yaml:"score" toml:"score"`
}

// WarningEntry is a recoverable problem met during the run.
type WarningEntry struct {
	Path    string `json:"path" yaml:"path" toml:"path"`
	Code    string `json:"code" yaml:"code" toml:"code"`
	Message string `json:"message" yaml:"message" toml:"message"`
}

// Build summarizes a. Ranked lists hold at most topN entries (0 keeps all).
func Build(a *engine.Analysis, topN int) *Report {
	r := &Report{
		Root:        a.Root,
		Version:     version.Version,
		GeneratedAt: a.StartedAt.UTC(),
		DurationMs:  a.Timings.Total.Milliseconds(),
		Resolutions: a.Resolutions,
	}

	s := &r.Summary
	s.Candidates = len(a.Candidates)
	s.FilesAnalyzed = len(a.Files)
	s.FilesSkipped = len(a.Skipped)
	s.ExportedEntities = a.Index.ExportCount()
	s.FilesWithExports = len(a.Index.ExportingFiles())
	s.ImportReferences = a.Index.ImportCount()
	s.Edges = a.Graph.NumEdges()
	s.UnresolvedImports = len(a.Unresolved)
	s.Warnings = len(a.Warnings)

	langCounts := make(map[string]int)
	var cyclomatic, cognitive, maintainability float64
	measured := 0
	for _, rec := range a.Files {
		lang := rec.Language
		if lang == "" {
			lang = UnknownLanguage
		}
		langCounts[lang]++

		m := rec.Metrics
		if m == nil {
			continue
		}
		measured++
		s.TotalLines += m.TotalLines
		s.CodeLines += m.CodeLines
		s.CommentLines += m.CommentLines
		s.BlankLines += m.BlankLines
		cyclomatic += float64(m.Cyclomatic)
		cognitive += m.Cognitive
		maintainability += m.Maintainability
	}
	if measured > 0 {
		s.AvgCyclomatic = RoundFloat(cyclomatic / float64(measured))
		s.AvgCognitive = RoundFloat(cognitive / float64(measured))
		s.AvgMaintainability = RoundFloat(maintainability / float64(measured))
	}
	if denom := s.CodeLines + s.CommentLines; denom > 0 {
		s.CommentRatio = RoundFloat(float64(s.CommentLines) / float64(denom))
	}

	for lang, n := range langCounts {
		r.Languages = append(r.Languages, LanguageShare{
			Language: lang,
			Files:    n,
			Percent:  RoundFloat(float64(n) / float64(len(a.Files)) * 100),
		})
	}
	sort.Slice(r.Languages, func(i, j int) bool {
		if r.Languages[i].Files != r.Languages[j].Files {
			return r.Languages[i].Files > r.Languages[j].Files
		}
		return r.Languages[i].Language < r.Languages[j].Language
	})

	if len(a.Excluded) > 0 {
		r.Excluded = make(map[string]int, len(a.Excluded))
		for reason, n := range a.Excluded {
			r.Excluded[string(reason)] = n
		}
	}

	for _, f := range score.Top(score.ByKnowledge(a.Scores.Files), topN) {
		r.TopKnowledge = append(r.TopKnowledge, fileEntry(a, f, false))
	}
	for _, f := range score.Top(score.ByImportance(a.Scores.Files), topN) {
		r.TopImportance = append(r.TopImportance, fileEntry(a, f, true))
	}
	for _, d := range score.Top(a.Scores.Tree.DirsByImportance(), topN) {
		r.TopDirectories = append(r.TopDirectories, DirEntry{
			Path:         d.Path,
			Importance:   RoundFloat(d.Importance),
			Files:        d.Aggregate.Files,
			Lines:        d.Lines,
			Functions:    d.Functions,
			AvgKnowledge: RoundFloat(d.AvgKnowledge()),
		})
	}

	central := make([]CentralEntry, 0, len(a.Centrality))
	for p, sc := range a.Centrality {
		central = append(central, CentralEntry{Path: p, Score: RoundFloat(sc)})
	}
	sort.Slice(central, func(i, j int) bool {
		if central[i].Score != central[j].Score {
			return central[i].Score > central[j].Score
		}
		return central[i].Path < central[j].Path
	})
	r.Central = score.Top(central, topN)

	for _, w := range a.Warnings {
		r.Warnings = append(r.Warnings, WarningEntry{Path: w.Path, Code: w.Code, Message: w.Message})
	}
	return r
}

func fileEntry(a *engine.Analysis, f score.FileScore, withExports bool) FileEntry {
	e := FileEntry{
		Path:       f.Path,
		Language:   f.Language,
		Importance: RoundFloat(f.Importance),
		Knowledge:  RoundFloat(f.Knowledge),
		Usage:      f.Usage,
		Dependents: f.Dependents,
		Lines:      f.Lines,
	}
	if withExports {
		for _, ex := range a.Index.ExportsOf(f.Path) {
			e.Exports = append(e.Exports, ExportEntry{Name: ex.Name, Kind: string(ex.Kind), Line: ex.Line, Usage: ex.Usage})
		}
	}
	return e
}
