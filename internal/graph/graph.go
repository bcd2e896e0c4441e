// Package graph builds the file-level dependency graph by resolving import
// references against exported entities, and ranks files by centrality.
package graph

import (
	"sort"
)

// Edge is a directed dependency: From imports at least one name defined in To.
type Edge struct {
	From string `json:"from" yaml:"from" toml:"from"`
	To   string `json:"to" yaml:"to" toml:"to"`
}

// Graph is a directed file graph with set-valued forward and reverse adjacency.
// It is built once per run and read-only afterwards.
type Graph struct {
	forward map[string]map[string]struct{}
	reverse map[string]map[string]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		forward: make(map[string]map[string]struct{}),
		reverse: make(map[string]map[string]struct{}),
	}
}

// AddNode registers a file with no edges.
func (g *Graph) AddNode(file string) {
	if _, ok := g.forward[file]; !ok {
		g.forward[file] = make(map[string]struct{})
	}
	if _, ok := g.reverse[file]; !ok {
		g.reverse[file] = make(map[string]struct{})
	}
}

// AddEdge inserts from->to. Self edges and duplicates are ignored; the
// return value reports whether the edge is new.
func (g *Graph) AddEdge(from, to string) bool {
	if from == to {
		return false
	}
	g.AddNode(from)
	g.AddNode(to)
	if _, ok := g.forward[from][to]; ok {
		return false
	}
	g.forward[from][to] = struct{}{}
	g.reverse[to][from] = struct{}{}
	return true
}

// HasNode reports whether file is in the graph.
func (g *Graph) HasNode(file string) bool {
	_, ok := g.forward[file]
	return ok
}

// HasEdge reports whether from depends on to.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.forward[from][to]
	return ok
}

// DependsOn returns the files file imports from, sorted.
func (g *Graph) DependsOn(file string) []string {
	return sortedKeys(g.forward[file])
}

// Dependents returns the files importing from file, sorted.
func (g *Graph) Dependents(file string) []string {
	return sortedKeys(g.reverse[file])
}

// InDegree is the number of distinct dependents of file.
func (g *Graph) InDegree(file string) int {
	return len(g.reverse[file])
}

// OutDegree is the number of distinct files file depends on.
func (g *Graph) OutDegree(file string) int {
	return len(g.forward[file])
}

// Nodes returns every file in the graph, sorted.
func (g *Graph) Nodes() []string {
	nodes := make([]string, 0, len(g.forward))
	for n := range g.forward {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	return nodes
}

// NumNodes returns the number of files in the graph.
func (g *Graph) NumNodes() int {
	return len(g.forward)
}

// NumEdges returns the number of distinct edges.
func (g *Graph) NumEdges() int {
	total := 0
	for _, targets := range g.forward {
		total += len(targets)
	}
	return total
}

// Edges returns all edges ordered by From, then To.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.NumEdges())
	for _, from := range g.Nodes() {
		for _, to := range sortedKeys(g.forward[from]) {
			edges = append(edges, Edge{From: from, To: to})
		}
	}
	return edges
}

// Stats summarizes the graph shape.
type Stats struct {
	Nodes        int     `json:"nodes" yaml:"nodes" toml:"nodes"`
	Edges        int     `json:"edges" yaml:"edges" toml:"edges"`
	Isolated     int     `json:"isolated" yaml:"isolated" toml:"isolated"`
	AvgOutDegree float64 `json:"avgOutDegree" yaml:"avg_out_degree" toml:"avg_out_degree"`
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	stats := Stats{
		Nodes: g.NumNodes(),
		Edges: g.NumEdges(),
	}
	for n := range g.forward {
		if len(g.forward[n]) == 0 && len(g.reverse[n]) == 0 {
			stats.Isolated++
		}
	}
	if stats.Nodes > 0 {
		stats.AvgOutDegree = float64(stats.Edges) / float64(stats.Nodes)
	}
	return stats
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
