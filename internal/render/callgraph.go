package render

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// CallEdge is one caller → callee relation. To is the callee name, or the
// call operand text when Indirect.
type CallEdge struct {
	From     string
	To       string
	Indirect bool
}

// Provenance categories of a call edge.
const (
	ProvDirect   = "direct"
	ProvIndirect = "indirect"
	ProvExternal = "external"
)

// edgeColor returns the DOT color for an edge provenance category.
func edgeColor(prov string, t Theme) string {
	switch prov {
	case ProvIndirect:
		return t.EdgeIndirect
	case ProvExternal:
		return t.ExternalText
	default:
		return t.EdgeDirect
	}
}

// edgeStyle returns dot style attributes for provenance.
func edgeStyle(prov string) string {
	switch prov {
	case ProvIndirect:
		return "dashed"
	case ProvExternal:
		return "dotted"
	default:
		return "solid"
	}
}

// CallgraphDOT renders a call graph as themed DOT. funcs are the known
// function names; callees outside that set are drawn as plaintext nodes.
// Indirect calls all point at a shared "<indirect>" node.
// maxNodes limits the number of function nodes rendered (0 = all).
func CallgraphDOT(funcs []string, edges []CallEdge, title string, t Theme, maxNodes int) string {
	funcSet := make(map[string]bool, len(funcs))
	for _, f := range funcs {
		funcSet[f] = true
	}

	// Deduplicate edges: caller→callee→prov.
	type edgeKey struct {
		from, to, prov string
	}
	counts := make(map[edgeKey]int)
	for _, e := range edges {
		k := edgeKey{from: e.From, to: e.To, prov: ProvDirect}
		switch {
		case e.Indirect:
			k.to, k.prov = "<indirect>", ProvIndirect
		case !funcSet[e.To]:
			k.prov = ProvExternal
		}
		if k.to == "" {
			continue
		}
		counts[k]++
	}

	// Keep only functions that participate in edges.
	refNodes := make(map[string]bool)
	for k := range counts {
		refNodes[k.from] = true
		refNodes[k.to] = true
	}
	var nodes []string
	for _, f := range funcs {
		if refNodes[f] {
			nodes = append(nodes, f)
		}
	}
	if maxNodes > 0 && len(nodes) > maxNodes {
		nodes = nodes[:maxNodes]
	}
	rendered := make(map[string]bool, len(nodes))
	for _, f := range nodes {
		rendered[f] = true
	}

	keys := make([]edgeKey, 0, len(counts))
	external := make(map[string]bool)
	for k := range counts {
		if !rendered[k.from] {
			continue
		}
		keys = append(keys, k)
		if !rendered[k.to] {
			external[k.to] = true
		}
	}
	slices.SortFunc(keys, func(a, b edgeKey) int {
		return cmp.Or(cmp.Compare(a.from, b.from), cmp.Compare(a.to, b.to), cmp.Compare(a.prov, b.prov))
	})

	var b strings.Builder
	b.WriteString("digraph callgraph {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  nodesep=0.4;\n")
	b.WriteString("  ranksep=0.6;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Helvetica Neue,Helvetica,Arial\", fontsize=9, fontcolor=%q, height=0.3, margin=\"0.12,0.06\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.5, arrowsize=0.5, arrowhead=vee];\n")
	if title != "" {
		fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.TextColor, dotEscape(title))
	}
	b.WriteByte('\n')

	for _, f := range nodes {
		fmt.Fprintf(&b, "  %s [label=%q];\n", dotID(f), Truncate(f, 60))
	}
	b.WriteByte('\n')

	ext := make([]string, 0, len(external))
	for name := range external {
		ext = append(ext, name)
	}
	slices.Sort(ext)
	for _, name := range ext {
		fmt.Fprintf(&b, "  %s [label=%q, shape=plaintext, style=\"\", fillcolor=none, fontcolor=%q, fontsize=8];\n",
			dotID(name), Truncate(name, 50), t.ExternalText)
	}
	b.WriteByte('\n')

	for _, k := range keys {
		color := edgeColor(k.prov, t)
		attrs := fmt.Sprintf("color=%q, style=%q", color, edgeStyle(k.prov))
		if n := counts[k]; n > 1 {
			attrs += fmt.Sprintf(", penwidth=%.1f", 0.5+float64(n)*0.1)
			if n > 2 {
				attrs += fmt.Sprintf(", label=<<font point-size=\"7\" color=\"%s\">%dx</font>>", color, n)
			}
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(k.from), dotID(k.to), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}

// CallgraphStats summarizes a set of call edges.
type CallgraphStats struct {
	TotalFunctions int
	TotalEdges     int
	DirectEdges    int
	IndirectEdges  int
	TopCallers     []NameCount // sorted desc
	TopCallees     []NameCount // sorted desc
}

// NameCount pairs a name with a count.
type NameCount struct {
	Name  string
	Count int
}

// ComputeStats computes call graph statistics.
func ComputeStats(funcs []string, edges []CallEdge) CallgraphStats {
	stats := CallgraphStats{
		TotalFunctions: len(funcs),
		TotalEdges:     len(edges),
	}

	callerCount := make(map[string]int)
	calleeCount := make(map[string]int)
	for _, e := range edges {
		callerCount[e.From]++
		if e.Indirect {
			stats.IndirectEdges++
			continue
		}
		stats.DirectEdges++
		if e.To != "" {
			calleeCount[e.To]++
		}
	}

	stats.TopCallers = topNMap(callerCount, 20)
	stats.TopCallees = topNMap(calleeCount, 20)
	return stats
}

// topNMap returns the top N entries from a map, sorted by descending count
// then name.
func topNMap(m map[string]int, n int) []NameCount {
	entries := make([]NameCount, 0, len(m))
	for name, count := range m {
		entries = append(entries, NameCount{name, count})
	}
	slices.SortFunc(entries, func(a, b NameCount) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Name, b.Name))
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
