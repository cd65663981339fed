package render

import (
	"fmt"
	"strings"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
)

// maxBlockLines caps the instruction lines drawn per block.
const maxBlockLines = 12

// CFGDOT renders a basic-block CFG as themed DOT.
// Each basic block is a node; edges represent control flow.
// Root blocks are highlighted. Conditional edges use T/F colors.
func CFGDOT(g *cfg.Graph, insts []disasm.Inst, t Theme) string {
	if g.Len() == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("digraph cfg {\n")
	b.WriteString("  rankdir=TB;\n")
	b.WriteString("  nodesep=0.3;\n")
	b.WriteString("  ranksep=0.4;\n")
	fmt.Fprintf(&b, "  bgcolor=%q;\n", t.Background)
	fmt.Fprintf(&b, "  node [shape=rect, style=filled, fillcolor=%q, color=%q, penwidth=0.5, fontname=\"Courier,monospace\", fontsize=8, fontcolor=%q, margin=\"0.08,0.04\"];\n",
		t.NodeFill, t.NodeBorder, t.TextColor)
	fmt.Fprintf(&b, "  edge [penwidth=0.7, arrowsize=0.5, arrowhead=vee];\n")
	fmt.Fprintf(&b, "  labelloc=t;\n  labeljust=l;\n")
	fmt.Fprintf(&b, "  label=<<font face=\"Helvetica Neue,Helvetica\" point-size=\"9\" color=\"%s\">%s</font>>;\n",
		t.TextColor, dotEscape(g.Name()))
	b.WriteByte('\n')

	blocks := g.Blocks()
	for _, blk := range blocks {
		var lines []string
		end := min(blk.End(), len(insts))
		for i := blk.Start; i < end; i++ {
			inst := insts[i]
			line := fmt.Sprintf("0x%x: %s", inst.Addr, Truncate(inst.Text, 72))
			lines = append(lines, dotEscape(line))
		}
		// Truncate long blocks.
		if len(lines) > maxBlockLines {
			kept := append(lines[:5:5], fmt.Sprintf("... (%d more)", len(lines)-10))
			lines = append(kept, lines[len(lines)-5:]...)
		}

		label := strings.Join(lines, "<br align=\"left\"/>")
		label += "<br align=\"left\"/>"

		attrs := ""
		if len(blk.Parents) == 0 {
			attrs = fmt.Sprintf(", penwidth=1.5, color=%q", t.EntryBorder)
		}
		if blk.Last() < len(insts) && insts[blk.Last()].Kind == disasm.Terminal {
			attrs += fmt.Sprintf(", fillcolor=%q", t.TermFill)
		}
		fmt.Fprintf(&b, "  bb%d [label=<%s>%s];\n", blk.ID, label, attrs)
	}
	b.WriteByte('\n')

	for _, blk := range blocks {
		for _, c := range blk.Children {
			from, to := fmt.Sprintf("bb%d", blk.ID), fmt.Sprintf("bb%d", c)
			switch EdgeCond(blk, blocks[c], insts) {
			case CondTaken:
				fmt.Fprintf(&b, "  %s -> %s [color=%q, label=<<font point-size=\"7\" color=\"%s\">T</font>>];\n",
					from, to, t.EdgeTaken, t.EdgeTaken)
			case CondFallThrough:
				fmt.Fprintf(&b, "  %s -> %s [color=%q, label=<<font point-size=\"7\" color=\"%s\">F</font>>];\n",
					from, to, t.EdgeFall, t.EdgeFall)
			default:
				fmt.Fprintf(&b, "  %s -> %s [color=%q];\n", from, to, t.EdgeDirect)
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}
