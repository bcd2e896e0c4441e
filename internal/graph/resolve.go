package graph

import (
	"context"
	"log/slog"
	"path"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"overdoc/internal/index"
	"overdoc/internal/model"
	"overdoc/internal/paths"
)

// Options configures Build.
type Options struct {
	// Workers bounds resolution parallelism; 0 means GOMAXPROCS.
	Workers int
	Logger  *slog.Logger
}

// Resolutions counts how import references were resolved.
type Resolutions struct {
	References   int `json:"references" yaml:"references" toml:"references"`
	Resolved     int `json:"resolved" yaml:"resolved" toml:"resolved"`
	Hinted       int `json:"hinted" yaml:"hinted" toml:"hinted"`
	HintFallback int `json:"hintFallback" yaml:"hint_fallback" toml:"hint_fallback"`
	FanOut       int `json:"fanOut" yaml:"fan_out" toml:"fan_out"`
	Unresolved   int `json:"unresolved" yaml:"unresolved" toml:"unresolved"`
}

func (r *Resolutions) add(o Resolutions) {
	r.References += o.References
	r.Resolved += o.Resolved
	r.Hinted += o.Hinted
	r.HintFallback += o.HintFallback
	r.FanOut += o.FanOut
	r.Unresolved += o.Unresolved
}

// Result is the output of Build.
type Result struct {
	Graph       *Graph
	Unresolved  []model.ImportReference
	Resolutions Resolutions
}

// partial is one worker's private share of the resolution.
type partial struct {
	usage      map[index.Location]int
	edges      map[Edge]struct{}
	unresolved []model.ImportReference
	stats      Resolutions
}

func newPartial() *partial {
	return &partial{
		usage: make(map[index.Location]int),
		edges: make(map[Edge]struct{}),
	}
}

// Build freezes idx, resolves every import reference against the exports
// index and returns the dependency graph. files seeds the graph's node set so
// files without edges still appear. Usage counters are applied to idx.
func Build(ctx context.Context, idx *index.Index, files []string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	idx.Freeze()

	names := idx.ImportNames()
	if workers > len(names) {
		workers = max(len(names), 1)
	}

	partials := make([]*partial, workers)
	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		partials[w] = newPartial()
		p := partials[w]
		g.Go(func() error {
			for i := w; i < len(names); i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				resolveName(idx, names[i], p)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Commutative reduction: counters add, edges union.
	merged := newPartial()
	for _, p := range partials {
		for loc, n := range p.usage {
			merged.usage[loc] += n
		}
		for e := range p.edges {
			merged.edges[e] = struct{}{}
		}
		merged.unresolved = append(merged.unresolved, p.unresolved...)
		merged.stats.add(p.stats)
	}

	if err := idx.AddUsage(merged.usage); err != nil {
		return nil, err
	}

	graph := New()
	for _, f := range files {
		graph.AddNode(f)
	}
	for e := range merged.edges {
		graph.AddEdge(e.From, e.To)
	}

	sort.Slice(merged.unresolved, func(i, j int) bool {
		a, b := merged.unresolved[i], merged.unresolved[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Name < b.Name
	})

	logger.Info("Dependency graph built",
		"files", graph.NumNodes(),
		"edges", graph.NumEdges(),
		"references", merged.stats.References,
		"unresolved", merged.stats.Unresolved,
		"fan_out", merged.stats.FanOut,
	)

	return &Result{
		Graph:       graph,
		Unresolved:  merged.unresolved,
		Resolutions: merged.stats,
	}, nil
}

func resolveName(idx *index.Index, name string, p *partial) {
	candidates := idx.Candidates(name)
	for _, ref := range idx.ImportsNamed(name) {
		p.stats.References++
		targets, hinted, fellBack := Resolve(ref, candidates)
		if len(targets) == 0 {
			p.stats.Unresolved++
			p.unresolved = append(p.unresolved, ref)
			continue
		}
		p.stats.Resolved++
		if hinted {
			p.stats.Hinted++
		}
		if fellBack {
			p.stats.HintFallback++
		}
		if len(targets) > 1 {
			p.stats.FanOut++
		}
		for _, loc := range targets {
			p.usage[loc]++
			if loc.File != ref.File {
				p.edges[Edge{From: ref.File, To: loc.File}] = struct{}{}
			}
		}
	}
}

// Resolve selects the candidates ref resolves to. With a usable module hint
// it keeps the candidates whose path matches the hint, then those whose stem
// matches its last segment; when neither narrows the set, or without a hint,
// every candidate is a target. hinted reports that the hint narrowed the set;
// fellBack that a hint was present but matched nothing.
func Resolve(ref model.ImportReference, candidates []index.Location) (targets []index.Location, hinted, fellBack bool) {
	if len(candidates) == 0 {
		return nil, false, false
	}
	hint := ParseHint(ref.Module)
	if hint.Empty() {
		return candidates, false, false
	}
	for _, match := range []func(string) bool{hint.Matches, hint.StemMatches} {
		for _, c := range candidates {
			if match(c.File) {
				targets = append(targets, c)
			}
		}
		if len(targets) > 0 {
			return targets, true, false
		}
	}
	return candidates, false, true
}

// Hint is a normalized source-module hint.
type Hint struct {
	Segments []string
	// Alt is the hint with a trailing file extension removed, if it had one.
	Alt []string
}

// Empty reports whether the hint carries no path information.
func (h Hint) Empty() bool {
	return len(h.Segments) == 0
}

var hintPrefixes = []string{"./", "../", "@/", "~/", "crate::", "self::", "super::"}

// ParseHint normalizes a module hint such as "./A", "../lib/util.js",
// "crate::config::Loader", ".models" or "pkg.sub" into path segments.
func ParseHint(raw string) Hint {
	h := strings.TrimSpace(raw)
	h = strings.Trim(h, "\"'`<>;")
	relative := strings.HasPrefix(h, "./") || strings.HasPrefix(h, "../")
	dotted := strings.HasPrefix(h, ".") && !relative

	for trimmed := true; trimmed; {
		trimmed = false
		for _, p := range hintPrefixes {
			if strings.HasPrefix(h, p) {
				h = strings.TrimPrefix(h, p)
				trimmed = true
			}
		}
	}

	var hint Hint
	switch {
	case dotted:
		// Python relative module: ".models", "..pkg.sub"
		h = strings.TrimLeft(h, ".")
		h = strings.ReplaceAll(h, ".", "/")
	case relative:
		if ext := path.Ext(h); ext != "" && ext != h {
			hint.Alt = split(strings.TrimSuffix(h, ext))
		}
	default:
		h = strings.ReplaceAll(h, "::", "/")
		h = strings.ReplaceAll(h, ".", "/")
	}
	hint.Segments = split(h)
	return hint
}

func split(h string) []string {
	var segs []string
	for _, s := range strings.Split(h, "/") {
		if s != "" && s != "." && s != ".." {
			segs = append(segs, s)
		}
	}
	return segs
}

// Matches reports whether file plausibly is the module the hint names: its
// extensionless path or its directory ends with the hint's segments.
func (h Hint) Matches(file string) bool {
	for _, segs := range [][]string{h.Segments, h.Alt} {
		if len(segs) == 0 {
			continue
		}
		if hasSuffix(paths.Segments(paths.TrimExt(file)), segs) || hasSuffix(paths.Segments(paths.Parent(file)), segs) {
			return true
		}
	}
	return false
}

// StemMatches reports whether file's stem equals the hint's last segment.
func (h Hint) StemMatches(file string) bool {
	segs := h.Segments
	if len(h.Alt) > 0 {
		segs = h.Alt
	}
	return len(segs) > 0 && paths.Stem(file) == segs[len(segs)-1]
}

func hasSuffix(have, want []string) bool {
	if len(want) > len(have) {
		return false
	}
	off := len(have) - len(want)
	for i, w := range want {
		if have[off+i] != w {
			return false
		}
	}
	return true
}
