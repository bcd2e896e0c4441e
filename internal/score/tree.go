package score

import (
	"sort"

	"overdoc/internal/paths"
)

// Aggregate is the additive part of a directory score.
type Aggregate struct {
	Importance float64 `json:"importance" yaml:"importance" toml:"importance"`
	Knowledge  float64 `json:"knowledgeSum" yaml:"knowledge_sum" toml:"knowledge_sum"`
	Files      int     `json:"files" yaml:"files" toml:"files"`
	Lines      int     `json:"lines" yaml:"lines" toml:"lines"`
	CodeLines  int     `json:"codeLines" yaml:"code_lines" toml:"code_lines"`
	Functions  int     `json:"functions" yaml:"functions" toml:"functions"`
}

func (a *Aggregate) add(o Aggregate) {
	a.Importance += o.Importance
	a.Knowledge += o.Knowledge
	a.Files += o.Files
	a.Lines += o.Lines
	a.CodeLines += o.CodeLines
	a.Functions += o.Functions
}

func fileAggregate(f FileScore) Aggregate {
	return Aggregate{
		Importance: f.Importance,
		Knowledge:  f.Knowledge,
		Files:      1,
		Lines:      f.Lines,
		CodeLines:  f.CodeLines,
		Functions:  f.Functions,
	}
}

// DirScore is the score record of one directory.
type DirScore struct {
	Path      string   `json:"path" yaml:"path" toml:"path"`
	Depth     int      `json:"depth" yaml:"depth" toml:"depth"`
	SubDirs   []string `json:"subDirs,omitempty" yaml:"sub_dirs,omitempty" toml:"sub_dirs,omitempty"`
	FilePaths []string `json:"filePaths,omitempty" yaml:"file_paths,omitempty" toml:"file_paths,omitempty"`
	Aggregate `yaml:",inline"`
}

// AvgKnowledge is the mean knowledge score of the files below the directory.
func (d DirScore) AvgKnowledge() float64 {
	if d.Aggregate.Files == 0 {
		return 0
	}
	return d.Knowledge / float64(d.Aggregate.Files)
}

// Tree is the directory hierarchy rooted at ".", with aggregates folded
// bottom-up. It is immutable once built.
type Tree struct {
	dirs  map[string]*DirScore
	files map[string]FileScore
}

// BuildTree creates a node for every directory in dirs and every ancestor of
// a scored file, then folds aggregates from the deepest directories up: each
// directory is the sum of its direct files and direct subdirectories.
func BuildTree(dirs []string, files []FileScore) *Tree {
	t := &Tree{
		dirs:  make(map[string]*DirScore),
		files: make(map[string]FileScore, len(files)),
	}
	t.ensure(paths.Root)
	for _, d := range dirs {
		t.ensure(paths.NormalizePath(d))
	}
	for _, f := range files {
		t.files[f.Path] = f
		parent := t.ensure(paths.Parent(f.Path))
		parent.FilePaths = append(parent.FilePaths, f.Path)
	}

	order := make([]*DirScore, 0, len(t.dirs))
	for _, d := range t.dirs {
		sort.Strings(d.SubDirs)
		sort.Strings(d.FilePaths)
		order = append(order, d)
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].Depth != order[j].Depth {
			return order[i].Depth > order[j].Depth
		}
		return order[i].Path < order[j].Path
	})

	for _, d := range order {
		var agg Aggregate
		for _, f := range d.FilePaths {
			agg.add(fileAggregate(t.files[f]))
		}
		for _, sub := range d.SubDirs {
			agg.add(t.dirs[sub].Aggregate)
		}
		d.Aggregate = agg
	}
	return t
}

// ensure returns the node for dir, creating it and its ancestors.
func (t *Tree) ensure(dir string) *DirScore {
	if d, ok := t.dirs[dir]; ok {
		return d
	}
	d := &DirScore{Path: dir, Depth: paths.Depth(dir)}
	t.dirs[dir] = d
	if dir != paths.Root {
		parent := t.ensure(paths.Parent(dir))
		parent.SubDirs = append(parent.SubDirs, dir)
	}
	return d
}

// Root returns the repository root's score.
func (t *Tree) Root() DirScore {
	return t.copyOf(t.dirs[paths.Root])
}

// Dir returns the score of one directory.
func (t *Tree) Dir(path string) (DirScore, bool) {
	d, ok := t.dirs[path]
	if !ok {
		return DirScore{}, false
	}
	return t.copyOf(d), true
}

// File returns the score of one file.
func (t *Tree) File(path string) (FileScore, bool) {
	f, ok := t.files[path]
	return f, ok
}

// Dirs returns every directory score sorted by path.
func (t *Tree) Dirs() []DirScore {
	out := make([]DirScore, 0, len(t.dirs))
	for _, d := range t.dirs {
		out = append(out, t.copyOf(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// DirsByImportance returns directories sorted by descending importance, ties
// by path. The root is excluded.
func (t *Tree) DirsByImportance() []DirScore {
	var out []DirScore
	for _, d := range t.Dirs() {
		if d.Path != paths.Root {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Importance != out[j].Importance {
			return out[i].Importance > out[j].Importance
		}
		return out[i].Path < out[j].Path
	})
	return out
}

func (t *Tree) copyOf(d *DirScore) DirScore {
	c := *d
	c.SubDirs = append([]string(nil), d.SubDirs...)
	c.FilePaths = append([]string(nil), d.FilePaths...)
	return c
}
