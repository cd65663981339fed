package render

import (
	"fmt"
	"slices"
	"strings"
)

// FindEntryPoints returns functions that have no incoming direct calls.
func FindEntryPoints(funcs []string, edges []CallEdge) []string {
	called := make(map[string]bool)
	for _, e := range edges {
		if !e.Indirect && e.To != "" && e.To != e.From {
			called[e.To] = true
		}
	}

	var entries []string
	for _, f := range funcs {
		if !called[f] {
			entries = append(entries, f)
		}
	}
	slices.Sort(entries)
	return entries
}

// ReachableSet performs BFS from entry points following direct calls
// and returns the set of all reachable function names.
func ReachableSet(entryPoints []string, edges []CallEdge) map[string]bool {
	adj := make(map[string][]string)
	for _, e := range edges {
		if !e.Indirect && e.To != "" {
			adj[e.From] = append(adj[e.From], e.To)
		}
	}

	reachable := make(map[string]bool)
	queue := make([]string, 0, len(entryPoints))
	for _, ep := range entryPoints {
		if !reachable[ep] {
			reachable[ep] = true
			queue = append(queue, ep)
		}
	}

	for len(queue) > 0 {
		fn := queue[0]
		queue = queue[1:]
		for _, target := range adj[fn] {
			if !reachable[target] {
				reachable[target] = true
				queue = append(queue, target)
			}
		}
	}
	return reachable
}

// ReachabilityDOT renders a call graph filtered to the reachable set.
// Entry points are highlighted. Only direct calls between reachable
// functions are shown.
func ReachabilityDOT(edges []CallEdge, reachable map[string]bool, entryPoints []string, title string, t Theme) string {
	entrySet := make(map[string]bool, len(entryPoints))
	for _, ep := range entryPoints {
		entrySet[ep] = true
	}

	type edgeKey struct{ from, to string }
	edgeCount := make(map[edgeKey]int)
	for _, e := range edges {
		if e.Indirect || e.To == "" {
			continue
		}
		if !reachable[e.From] || !reachable[e.To] {
			continue
		}
		edgeCount[edgeKey{e.From, e.To}]++
	}

	// Referenced nodes, plus entry points even if they have no edges.
	refNodes := make(map[string]bool)
	for k := range edgeCount {
		refNodes[k.from] = true
		refNodes[k.to] = true
	}
	for _, ep := range entryPoints {
		refNodes[ep] = true
	}
	names := make([]string, 0, len(refNodes))
	for name := range refNodes {
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteString("digraph reachable {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  splines=true;\n")
	b.WriteString("  nodesep=0.4;\n")
	b.WriteString("  ranksep=0.6;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Helvetica Neue,Helvetica,Arial\", fontsize=9, fontcolor=%q, height=0.3, margin=\"0.12,0.06\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.5, arrowsize=0.5, arrowhead=vee, color=%q];\n", t.EdgeDirect)
	if title != "" {
		fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
		fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"8\" color=\"%s\">%s</font>>;\n",
			t.TextColor, dotEscape(title))
	}
	b.WriteByte('\n')

	for _, name := range names {
		id := dotID(name)
		label := Truncate(name, 50)
		if entrySet[name] {
			fmt.Fprintf(&b, "  %s [label=%q, penwidth=1.5, color=%q];\n", id, label, t.EntryBorder)
		} else {
			fmt.Fprintf(&b, "  %s [label=%q];\n", id, label)
		}
	}
	b.WriteByte('\n')

	keys := make([]edgeKey, 0, len(edgeCount))
	for k := range edgeCount {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b edgeKey) int {
		if c := strings.Compare(a.from, b.from); c != 0 {
			return c
		}
		return strings.Compare(a.to, b.to)
	})
	for _, k := range keys {
		attrs := fmt.Sprintf("color=%q", t.EdgeDirect)
		if count := edgeCount[k]; count > 1 {
			attrs += fmt.Sprintf(", penwidth=%.1f", 0.5+float64(count)*0.1)
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n", dotID(k.from), dotID(k.to), attrs)
	}

	b.WriteString("}\n")
	return b.String()
}
