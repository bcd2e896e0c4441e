// Package index holds the exports and imports indexes built from per-file
// extractions. Each file's contribution is merged atomically; once the index
// is frozen no further merges are accepted.
package index

import (
	"sort"
	"sync"

	"overdoc/internal/errors"
	"overdoc/internal/model"
)

// ErrFrozen is returned by Merge after Freeze.
var ErrFrozen = errors.New(errors.IndexFrozen, "index is frozen", nil)

// Location addresses one exported entity: its file and position within that file's list.
type Location struct {
	File string
	Pos  int
}

// Index is the ExportsIndex and ImportsIndex of one run.
type Index struct {
	mu     sync.RWMutex
	frozen bool

	byFile       map[string][]model.ExportedEntity
	byName       map[string][]Location
	imports      map[string][]model.ImportReference
	fileImports  map[string][]model.ImportReference
	declarations map[string]map[model.Kind]int
}

// New creates an empty index.
func New() *Index {
	return &Index{
		byFile:       make(map[string][]model.ExportedEntity),
		byName:       make(map[string][]Location),
		imports:      make(map[string][]model.ImportReference),
		fileImports:  make(map[string][]model.ImportReference),
		declarations: make(map[string]map[model.Kind]int),
	}
}

// Merge inserts one file's extraction. Either all of it becomes visible or
// none does; merges of different files commute.
func (x *Index) Merge(ex model.Extraction) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.frozen {
		return ErrFrozen
	}
	if _, dup := x.declarations[ex.File]; dup {
		return errors.New(errors.InternalError, "file merged twice", nil).WithPath(ex.File)
	}

	if len(ex.Exports) > 0 {
		entities := make([]model.ExportedEntity, len(ex.Exports))
		copy(entities, ex.Exports)
		for i := range entities {
			entities[i].File = ex.File
			entities[i].Usage = 0
			x.byName[entities[i].Name] = append(x.byName[entities[i].Name], Location{File: ex.File, Pos: i})
		}
		x.byFile[ex.File] = entities
	}
	if len(ex.Imports) > 0 {
		refs := make([]model.ImportReference, len(ex.Imports))
		copy(refs, ex.Imports)
		for i := range refs {
			refs[i].File = ex.File
			x.imports[refs[i].Name] = append(x.imports[refs[i].Name], refs[i])
		}
		x.fileImports[ex.File] = refs
	}
	decls := make(map[model.Kind]int, len(ex.Declarations))
	for k, n := range ex.Declarations {
		decls[k] = n
	}
	x.declarations[ex.File] = decls
	return nil
}

// Freeze closes the index to merges. It is the barrier before graph building.
func (x *Index) Freeze() {
	x.mu.Lock()
	x.frozen = true
	x.mu.Unlock()
}

// Frozen reports whether Freeze was called.
func (x *Index) Frozen() bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.frozen
}

// Candidates returns every export named name, ordered by file and position.
func (x *Index) Candidates(name string) []Location {
	x.mu.RLock()
	defer x.mu.RUnlock()
	locs := append([]Location(nil), x.byName[name]...)
	sort.Slice(locs, func(i, j int) bool {
		if locs[i].File != locs[j].File {
			return locs[i].File < locs[j].File
		}
		return locs[i].Pos < locs[j].Pos
	})
	return locs
}

// ImportNames lists every imported name, sorted.
func (x *Index) ImportNames() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	names := make([]string, 0, len(x.imports))
	for n := range x.imports {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ImportsNamed returns the references importing name.
func (x *Index) ImportsNamed(name string) []model.ImportReference {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]model.ImportReference(nil), x.imports[name]...)
}

// ImportsOf returns the references made by file.
func (x *Index) ImportsOf(file string) []model.ImportReference {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]model.ImportReference(nil), x.fileImports[file]...)
}

// ExportsOf returns a copy of file's entities, usage counters included.
func (x *Index) ExportsOf(file string) []model.ExportedEntity {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return append([]model.ExportedEntity(nil), x.byFile[file]...)
}

// Declarations returns the declaration counts recorded for file.
func (x *Index) Declarations(file string) map[model.Kind]int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	out := make(map[model.Kind]int, len(x.declarations[file]))
	for k, n := range x.declarations[file] {
		out[k] = n
	}
	return out
}

// ExportingFiles lists files with at least one export, sorted.
func (x *Index) ExportingFiles() []string {
	x.mu.RLock()
	defer x.mu.RUnlock()
	files := make([]string, 0, len(x.byFile))
	for f := range x.byFile {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// ExportCount is the total number of exported entities.
func (x *Index) ExportCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, ents := range x.byFile {
		n += len(ents)
	}
	return n
}

// ImportCount is the total number of import references.
func (x *Index) ImportCount() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	n := 0
	for _, refs := range x.fileImports {
		n += len(refs)
	}
	return n
}

// AddUsage applies resolved usage counts. Only valid after Freeze.
func (x *Index) AddUsage(deltas map[Location]int) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if !x.frozen {
		return errors.New(errors.InternalError, "usage applied before the index was frozen", nil)
	}
	for loc, d := range deltas {
		ents := x.byFile[loc.File]
		if loc.Pos < 0 || loc.Pos >= len(ents) {
			return errors.New(errors.InternalError, "usage for unknown entity", nil).WithPath(loc.File)
		}
		ents[loc.Pos].Usage += d
	}
	return nil
}

// UsageSum is the total usage over a file's exports.
func (x *Index) UsageSum(file string) int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	total := 0
	for _, e := range x.byFile[file] {
		total += e.Usage
	}
	return total
}
