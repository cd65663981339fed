// Package flow runs graph analyses over a built control-flow graph:
// strongly connected components, reachability from entry blocks and
// summary statistics.
package flow

import (
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"

	"discfg/internal/cfg"
)

// Directed copies g into a gonum directed graph. Node IDs are block IDs.
// Self edges are omitted because simple.DirectedGraph does not hold them;
// use SelfLoops for those.
func Directed(g *cfg.Graph) *simple.DirectedGraph {
	dg := simple.NewDirectedGraph()
	for id := range g.Len() {
		dg.AddNode(simple.Node(id))
	}
	for _, e := range g.Edges() {
		if e.From == e.To {
			continue
		}
		dg.SetEdge(dg.NewEdge(simple.Node(e.From), simple.Node(e.To)))
	}
	return dg
}

// SelfLoops returns the IDs of blocks that are their own child.
func SelfLoops(g *cfg.Graph) []int {
	var ids []int
	for id, b := range g.All() {
		if slices.Contains(b.Children, id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Loops returns the cyclic regions of g: strongly connected components with
// more than one block, plus single blocks that branch to themselves. Each
// loop is sorted; loops are ordered by their smallest block ID.
func Loops(g *cfg.Graph) [][]int {
	var loops [][]int
	for _, scc := range topo.TarjanSCC(Directed(g)) {
		if len(scc) < 2 {
			continue
		}
		loops = append(loops, nodeIDs(scc))
	}
	for _, id := range SelfLoops(g) {
		inLoop := false
		for _, l := range loops {
			if slices.Contains(l, id) {
				inLoop = true
				break
			}
		}
		if !inLoop {
			loops = append(loops, []int{id})
		}
	}
	slices.SortFunc(loops, func(a, b []int) int { return a[0] - b[0] })
	return loops
}

// Reachable returns the set of blocks reachable from the graph's roots and
// from block 0. Block 0 is always an entry even when a back edge gives it a
// parent.
func Reachable(g *cfg.Graph) map[int]bool {
	seen := make(map[int]bool)
	if g.Len() == 0 {
		return seen
	}
	dg := Directed(g)
	df := traverse.DepthFirst{
		Visit: func(n graph.Node) { seen[int(n.ID())] = true },
	}
	for _, id := range entries(g) {
		if seen[id] {
			continue
		}
		df.Walk(dg, dg.Node(int64(id)), nil)
	}
	return seen
}

// Unreachable returns the sorted IDs of blocks no entry can reach. These
// are blocks fed only by a cycle that nothing outside it enters.
func Unreachable(g *cfg.Graph) []int {
	seen := Reachable(g)
	var ids []int
	for id := range g.Len() {
		if !seen[id] {
			ids = append(ids, id)
		}
	}
	return ids
}

func entries(g *cfg.Graph) []int {
	roots := g.Roots()
	if g.Len() > 0 && !slices.Contains(roots, 0) {
		roots = append([]int{0}, roots...)
	}
	return roots
}

func nodeIDs(nodes []graph.Node) []int {
	ids := make([]int, len(nodes))
	for i, n := range nodes {
		ids[i] = int(n.ID())
	}
	slices.Sort(ids)
	return ids
}

// Stats summarizes one graph.
type Stats struct {
	Blocks       int `json:"blocks"`
	Insts        int `json:"insts"`
	Edges        int `json:"edges"`
	Roots        int `json:"roots"`
	Loops        int `json:"loops"`
	Unreachable  int `json:"unreachable"`
	Diagnostics  int `json:"diagnostics"`
	LargestBlock int `json:"largest_block"` // instruction count
}

// Summarize computes Stats for g.
func Summarize(g *cfg.Graph) Stats {
	s := Stats{
		Blocks:      g.Len(),
		Insts:       g.NumInsts(),
		Edges:       len(g.Edges()),
		Roots:       len(g.Roots()),
		Loops:       len(Loops(g)),
		Unreachable: len(Unreachable(g)),
		Diagnostics: len(g.Diagnostics()),
	}
	for _, b := range g.All() {
		s.LargestBlock = max(s.LargestBlock, b.Len)
	}
	return s
}
