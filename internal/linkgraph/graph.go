package linkgraph

import (
	"slices"
)

// Graph is a directed graph of document references. Edges are collapsed
// (a document linking another twice is one edge) and self references are
// not recorded.
type Graph struct {
	nodes    []string
	outbound map[string]map[string]struct{}
	inbound  map[string]map[string]struct{}
}

func newGraph(nodes []string) *Graph {
	g := &Graph{
		nodes:    slices.Clone(nodes),
		outbound: make(map[string]map[string]struct{}, len(nodes)),
		inbound:  make(map[string]map[string]struct{}, len(nodes)),
	}
	slices.Sort(g.nodes)
	return g
}

func (g *Graph) addEdge(from, to string) {
	if from == to {
		return
	}
	if g.outbound[from] == nil {
		g.outbound[from] = make(map[string]struct{})
	}
	g.outbound[from][to] = struct{}{}
	if g.inbound[to] == nil {
		g.inbound[to] = make(map[string]struct{})
	}
	g.inbound[to][from] = struct{}{}
}

// Nodes returns every document identity, sorted.
func (g *Graph) Nodes() []string {
	return slices.Clone(g.nodes)
}

// Targets returns the documents p references, sorted.
func (g *Graph) Targets(p string) []string {
	return sortedKeys(g.outbound[p])
}

// Sources returns the documents referencing p, sorted.
func (g *Graph) Sources(p string) []string {
	return sortedKeys(g.inbound[p])
}

// InDegree is the number of distinct documents referencing p.
func (g *Graph) InDegree(p string) int {
	return len(g.inbound[p])
}

// HasEdge reports whether from references to.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.outbound[from][to]
	return ok
}

// EdgeCount is the number of distinct edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, targets := range g.outbound {
		n += len(targets)
	}
	return n
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
