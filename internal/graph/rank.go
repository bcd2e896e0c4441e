package graph

import (
	"context"
	"fmt"
	"sort"
)

// RankOptions configures PageRank over the dependency graph.
type RankOptions struct {
	// Damping is the probability of following an edge vs teleporting (default: 0.85)
	Damping float64

	// MaxIterations is the maximum number of power iterations (default: 200)
	MaxIterations int

	// Tolerance for convergence detection (default: 1e-8)
	Tolerance float64

	// TopK limits the results; 0 keeps every ranked file
	TopK int

	// IncludePaths enables backtracking to explain how a file was reached from a seed
	IncludePaths bool
}

// DefaultRankOptions returns the defaults used by the engine.
func DefaultRankOptions() RankOptions {
	return RankOptions{
		Damping:       0.85,
		MaxIterations: 200,
		Tolerance:     1e-8,
	}
}

// Ranked is one scored file.
type Ranked struct {
	File  string   `json:"file" yaml:"file" toml:"file"`
	Score float64  `json:"score" yaml:"score" toml:"score"`
	Path  []string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
}

// RankOutput is the result of a ranking run.
type RankOutput struct {
	Results    []Ranked `json:"results"`
	Iterations int      `json:"iterations"`
	Converged  bool     `json:"converged"`
	Seeds      []string `json:"seeds,omitempty"`
}

// Centrality ranks every file by PageRank with uniform teleport. Rank flows
// from importer to definer, so widely depended-on files score highest.
func (g *Graph) Centrality(ctx context.Context, opts RankOptions) (*RankOutput, error) {
	return g.rank(ctx, nil, opts)
}

// Related ranks files by personalized PageRank from the given seed files.
func (g *Graph) Related(ctx context.Context, seeds []string, opts RankOptions) (*RankOutput, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no seed files provided")
	}
	return g.rank(ctx, seeds, opts)
}

func (g *Graph) rank(ctx context.Context, seeds []string, opts RankOptions) (*RankOutput, error) {
	def := DefaultRankOptions()
	if opts.Damping <= 0 || opts.Damping >= 1 {
		opts.Damping = def.Damping
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}

	nodes := g.Nodes()
	n := len(nodes)
	out := &RankOutput{Results: []Ranked{}}
	if n == 0 {
		return out, nil
	}

	pos := make(map[string]int, n)
	for i, node := range nodes {
		pos[node] = i
	}
	outEdges := make([][]int, n)
	for i, node := range nodes {
		for _, to := range g.DependsOn(node) {
			outEdges[i] = append(outEdges[i], pos[to])
		}
	}

	teleport := make([]float64, n)
	seedSet := make(map[int]bool)
	if seeds == nil {
		for i := range teleport {
			teleport[i] = 1 / float64(n)
		}
	} else {
		for _, s := range seeds {
			if i, ok := pos[s]; ok && !seedSet[i] {
				seedSet[i] = true
				out.Seeds = append(out.Seeds, s)
			}
		}
		if len(seedSet) == 0 {
			return out, nil
		}
		for i := range seedSet {
			teleport[i] = 1 / float64(len(seedSet))
		}
	}

	scores := make([]float64, n)
	copy(scores, teleport)
	next := make([]float64, n)

	for iter := range opts.MaxIterations {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out.Iterations = iter + 1

		// Mass from files with no dependencies returns through the teleport vector.
		dangling := 0.0
		for i := range next {
			next[i] = 0
		}
		for i, edges := range outEdges {
			if len(edges) == 0 {
				dangling += scores[i]
				continue
			}
			contrib := scores[i] / float64(len(edges))
			for _, j := range edges {
				next[j] += contrib
			}
		}

		maxDiff := 0.0
		for i := range next {
			next[i] = opts.Damping*(next[i]+dangling*teleport[i]) + (1-opts.Damping)*teleport[i]
			if d := abs(next[i] - scores[i]); d > maxDiff {
				maxDiff = d
			}
		}
		scores, next = next, scores

		if maxDiff < opts.Tolerance {
			out.Converged = true
			break
		}
	}

	ranked := make([]int, 0, n)
	for i, s := range scores {
		if s > 0 {
			ranked = append(ranked, i)
		}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		if scores[ranked[a]] != scores[ranked[b]] {
			return scores[ranked[a]] > scores[ranked[b]]
		}
		return nodes[ranked[a]] < nodes[ranked[b]]
	})
	if opts.TopK > 0 && len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}

	for _, i := range ranked {
		r := Ranked{File: nodes[i], Score: scores[i]}
		if opts.IncludePaths && len(seedSet) > 0 && !seedSet[i] {
			r.Path = g.backtrackPath(nodes[i], seedSet, nodes, 5)
		}
		out.Results = append(out.Results, r)
	}
	return out, nil
}

// backtrackPath walks dependents back from target until a seed is reached,
// preferring the lexically first unvisited importer at each step.
func (g *Graph) backtrackPath(target string, seedSet map[int]bool, nodes []string, maxDepth int) []string {
	isSeed := make(map[string]bool, len(seedSet))
	for i := range seedSet {
		isSeed[nodes[i]] = true
	}

	path := []string{target}
	visited := map[string]bool{target: true}
	current := target
	for depth := 0; depth < maxDepth; depth++ {
		prev := ""
		for _, d := range g.Dependents(current) {
			if visited[d] {
				continue
			}
			if isSeed[d] {
				prev = d
				break
			}
			if prev == "" {
				prev = d
			}
		}
		if prev == "" {
			break
		}
		path = append(path, prev)
		visited[prev] = true
		if isSeed[prev] {
			break
		}
		current = prev
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
