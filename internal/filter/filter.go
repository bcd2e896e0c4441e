// Package filter decides which traversed files enter analysis.
package filter

import (
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"overdoc/internal/config"
	"overdoc/internal/errors"
	"overdoc/internal/lang"
	"overdoc/internal/model"
	"overdoc/internal/paths"
)

// Reason explains an exclusion.
type Reason string

const (
	ReasonNoLanguage         Reason = "no-language"
	ReasonTooLarge           Reason = "too-large"
	ReasonIgnorePattern      Reason = "ignore-pattern"
	ReasonLanguageIgnoreFile Reason = "language-ignore-file"
	ReasonLanguageIgnoreDir  Reason = "language-ignore-directory"
)

// Filter is a pure predicate over file records; it holds only configuration.
type Filter struct {
	registry           *lang.Registry
	includeNoExtension bool
	maxBytes           int64
	patterns           []string
}

// New builds a Filter from cfg. Invalid glob patterns are a configuration error.
func New(cfg *config.Config, registry *lang.Registry) (*Filter, error) {
	f := &Filter{
		registry:           registry,
		includeNoExtension: cfg.DefaultSettings.IncludeNoExtension,
		maxBytes:           int64(cfg.DefaultSettings.MaxFileSizeKB) * 1024,
		patterns:           cfg.IgnorePatterns,
	}
	for _, p := range cfg.IgnorePatterns {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("invalid ignore pattern %q", p), nil)
		}
	}
	for _, l := range registry.Languages() {
		for _, p := range append(append([]string(nil), l.IgnoreFiles...), l.IgnoreDirectories...) {
			if !doublestar.ValidatePattern(p) {
				return nil, errors.New(errors.ConfigInvalid, fmt.Sprintf("language %s: invalid ignore pattern %q", l.Name, p), nil)
			}
		}
	}
	return f, nil
}

// Exclude reports whether rec must be dropped and why.
func (f *Filter) Exclude(rec model.FileRecord) (Reason, bool) {
	l := f.registry.ForPath(rec.Path)
	if l == nil && !f.includeNoExtension {
		return ReasonNoLanguage, true
	}
	if f.maxBytes > 0 && rec.Size > f.maxBytes {
		return ReasonTooLarge, true
	}
	for _, p := range f.patterns {
		if matchGlob(p, rec.Path) {
			return ReasonIgnorePattern, true
		}
	}
	if l == nil {
		return "", false
	}
	for _, p := range l.IgnoreFiles {
		if matchGlob(p, rec.Path) {
			return ReasonLanguageIgnoreFile, true
		}
	}
	if len(l.IgnoreDirectories) > 0 {
		for _, dir := range paths.Segments(paths.Parent(rec.Path)) {
			for _, p := range l.IgnoreDirectories {
				if ok, _ := doublestar.Match(p, dir); ok {
					return ReasonLanguageIgnoreDir, true
				}
			}
		}
	}
	return "", false
}

// Keep is the negation of Exclude.
func (f *Filter) Keep(rec model.FileRecord) bool {
	_, excluded := f.Exclude(rec)
	return !excluded
}

// Apply returns the records that survive, in input order, plus exclusion
// counts by reason. Applying it to its own output changes nothing.
func (f *Filter) Apply(recs []model.FileRecord) ([]model.FileRecord, map[Reason]int) {
	kept := make([]model.FileRecord, 0, len(recs))
	excluded := make(map[Reason]int)
	for _, rec := range recs {
		if reason, drop := f.Exclude(rec); drop {
			excluded[reason]++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, excluded
}

// matchGlob matches a pattern against a repo-relative path. Patterns
// without a slash also match the base name, so "*.lock" hits "a/b.lock".
func matchGlob(pattern, rel string) bool {
	if ok, _ := doublestar.Match(pattern, rel); ok {
		return true
	}
	if strings.Contains(pattern, "/") {
		return false
	}
	ok, _ := doublestar.Match(pattern, path.Base(rel))
	return ok
}
