package render

import (
	"bufio"
	"fmt"
	"io"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
)

// DOT writes g as a bare Graphviz digraph. Nodes are named n<first>_<last>;
// each parent → child pair appears once. Blocks with no edges are declared
// on their own so that every block is rendered.
func DOT(w io.Writer, g *cfg.Graph) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("digraph G\n{\n")
	blocks := g.Blocks()
	for _, b := range blocks {
		if len(b.Parents) == 0 && len(b.Children) == 0 {
			fmt.Fprintf(bw, "    %s;\n", nodeName(b))
			continue
		}
		for _, c := range b.Children {
			fmt.Fprintf(bw, "    %s -> %s;\n", nodeName(b), nodeName(blocks[c]))
		}
	}
	bw.WriteString("}\n")
	return bw.Flush()
}

// DOTInsts is DOT with box nodes labelled by the block's instructions, one
// "index : addr [size] text" line each.
func DOTInsts(w io.Writer, g *cfg.Graph, insts []disasm.Inst) error {
	if len(insts) < g.NumInsts() {
		return fmt.Errorf("render: %d instructions for a graph over %d", len(insts), g.NumInsts())
	}
	bw := bufio.NewWriter(w)
	bw.WriteString("digraph G\n{\n")
	blocks := g.Blocks()
	for _, b := range blocks {
		fmt.Fprintf(bw, "    %s [ shape = \"box\"\n", nodeName(b))
		bw.WriteString("             fontname = \"Monospace\"\n")
		bw.WriteString("             label = \"")
		for i := b.Start; i < b.End(); i++ {
			inst := insts[i]
			fmt.Fprintf(bw, "%6d : %08x [%2d] %s\\l", i, inst.Addr, inst.Size, dotQuote(inst.Text))
		}
		bw.WriteString("\" ];\n")
		for _, c := range b.Children {
			fmt.Fprintf(bw, "      %s -> %s;\n", nodeName(b), nodeName(blocks[c]))
		}
	}
	bw.WriteString("}\n")
	return bw.Flush()
}
