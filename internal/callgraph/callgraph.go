// Package callgraph converts per-function control-flow graphs and call
// sites into lattice CFG and call graph models.
package callgraph

import (
	"fmt"

	"github.com/zboralski/lattice"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
	"discfg/internal/render"
)

// FuncInfo holds the data needed to build call graph and CFG for one function.
type FuncInfo struct {
	Name      string
	Addr      uint64
	Insts     []disasm.Inst
	CallEdges []disasm.CallEdge
	Graph     *cfg.Graph // built from Insts on demand when nil
}

// calleeName names the target of a call edge. Indirect calls have no name.
func calleeName(e disasm.CallEdge) string {
	if e.Kind == disasm.CallIndirect {
		return ""
	}
	if e.TargetName != "" {
		return e.TargetName
	}
	return fmt.Sprintf("0x%x", e.TargetPC)
}

// BuildCallGraph constructs a lattice.Graph from disassembled functions.
// Each function becomes a node. Each direct call becomes an edge; indirect
// calls are skipped.
func BuildCallGraph(funcs []FuncInfo) *lattice.Graph {
	g := &lattice.Graph{}
	for _, f := range funcs {
		g.Nodes = append(g.Nodes, f.Name)
		for _, e := range f.CallEdges {
			callee := calleeName(e)
			if callee == "" {
				continue
			}
			g.Edges = append(g.Edges, lattice.Edge{
				Caller: f.Name,
				Callee: callee,
			})
		}
	}
	g.Dedup()
	return g
}

// RenderEdges flattens the call sites of funcs for the themed call graph
// renderers. Indirect calls keep their operand text.
func RenderEdges(funcs []FuncInfo) []render.CallEdge {
	var out []render.CallEdge
	for _, f := range funcs {
		for _, e := range f.CallEdges {
			if e.Kind == disasm.CallIndirect {
				out = append(out, render.CallEdge{From: f.Name, To: e.Operand, Indirect: true})
				continue
			}
			out = append(out, render.CallEdge{From: f.Name, To: calleeName(e)})
		}
	}
	return out
}

// Names returns the function names in order.
func Names(funcs []FuncInfo) []string {
	names := make([]string, len(funcs))
	for i, f := range funcs {
		names[i] = f.Name
	}
	return names
}
