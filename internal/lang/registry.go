// Package lang turns language records from the configuration into compiled
// matchers. Languages are data: adding one never requires code changes.
package lang

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"overdoc/internal/config"
	"overdoc/internal/errors"
	"overdoc/internal/paths"
)

// Language is a compiled language record.
type Language struct {
	Name              string
	Extensions        []string
	Exports           []*regexp.Regexp
	Imports           []*regexp.Regexp
	Declarations      []*regexp.Regexp
	IgnoreFiles       []string
	IgnoreDirectories []string
	LineComments      []string
	BlockStart        string
	BlockEnd          string
	BranchKeywords    []string
	LogicalOperators  []string
	Nesting           string
}

// Registry maps extensions to languages. Each extension belongs to exactly one language.
type Registry struct {
	languages map[string]*Language
	byExt     map[string]*Language
	names     []string
}

// NewRegistry compiles every language in langs. A pattern that fails to
// compile is a PATTERN_INVALID error. When two languages claim the same
// extension the one sorting first by name keeps it.
func NewRegistry(langs map[string]config.LanguageConfig, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		languages: make(map[string]*Language, len(langs)),
		byExt:     make(map[string]*Language),
	}
	for name := range langs {
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	for _, name := range r.names {
		l, err := compileLanguage(name, langs[name])
		if err != nil {
			return nil, err
		}
		r.languages[name] = l
		for _, ext := range l.Extensions {
			if owner, taken := r.byExt[ext]; taken {
				logger.Warn("Extension claimed by two languages",
					"ext", ext, "kept", owner.Name, "dropped", name)
				continue
			}
			r.byExt[ext] = l
		}
	}
	return r, nil
}

func compileLanguage(name string, lc config.LanguageConfig) (*Language, error) {
	l := &Language{
		Name:              name,
		IgnoreFiles:       lc.IgnoreFiles,
		IgnoreDirectories: lc.IgnoreDirectories,
		LineComments:      lc.LineComments,
		BranchKeywords:    lc.BranchKeywords,
		LogicalOperators:  lc.LogicalOperators,
		Nesting:           lc.Nesting,
	}
	for _, ext := range lc.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			l.Extensions = append(l.Extensions, ext)
		}
	}
	if len(lc.BlockComment) == 2 {
		l.BlockStart, l.BlockEnd = lc.BlockComment[0], lc.BlockComment[1]
	}
	if l.Nesting == "" {
		l.Nesting = config.NestingBrace
	}

	var err error
	if l.Exports, err = compileAll(name, "export", lc.ExportPatterns); err != nil {
		return nil, err
	}
	if l.Imports, err = compileAll(name, "import", lc.ImportPatterns); err != nil {
		return nil, err
	}
	if l.Declarations, err = compileAll(name, "declaration", lc.DeclarationPatterns); err != nil {
		return nil, err
	}
	return l, nil
}

func compileAll(language, role string, patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for i, p := range patterns {
		re, err := Compile(p)
		if err != nil {
			return nil, errors.New(errors.PatternInvalid,
				fmt.Sprintf("language %s: %s pattern #%d %q", language, role, i+1, p), err)
		}
		out = append(out, re)
	}
	return out, nil
}

// ForPath returns the language for a repo-relative path, or nil.
func (r *Registry) ForPath(p string) *Language {
	return r.ForExt(paths.Ext(p))
}

// ForExt returns the language owning ext (without dot), or nil.
func (r *Registry) ForExt(ext string) *Language {
	if ext == "" {
		return nil
	}
	return r.byExt[strings.ToLower(ext)]
}

// Get returns a language by name, or nil.
func (r *Registry) Get(name string) *Language {
	return r.languages[name]
}

// Names lists language names in sorted order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Languages lists the compiled languages sorted by name.
func (r *Registry) Languages() []*Language {
	out := make([]*Language, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.languages[n])
	}
	return out
}
