package callgraph

import (
	"github.com/zboralski/lattice"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
	"discfg/internal/render"
)

// BuildCFG constructs a lattice.CFGGraph from disassembled functions.
// A function whose instructions violate the builder's input contract aborts
// the whole conversion.
func BuildCFG(funcs []FuncInfo, opts cfg.Options) (*lattice.CFGGraph, error) {
	cg := &lattice.CFGGraph{}
	for _, f := range funcs {
		lcfg, _, err := BuildFuncCFG(f, opts)
		if err != nil {
			return nil, err
		}
		cg.Funcs = append(cg.Funcs, lcfg)
	}
	return cg, nil
}

// BuildFuncCFG builds a single-function lattice.FuncCFG, reusing f.Graph
// when it is set. The underlying graph is returned as well for callers that
// render or analyze it.
func BuildFuncCFG(f FuncInfo, opts cfg.Options) (*lattice.FuncCFG, *cfg.Graph, error) {
	g := f.Graph
	if g == nil {
		var err error
		if g, err = cfg.Build(f.Name, f.Insts, opts); err != nil {
			return nil, nil, err
		}
	}
	return FuncCFG(g, f.Insts, f.CallEdges), g, nil
}

// FuncCFG maps a built graph to a lattice.FuncCFG.
// Call edges are mapped into blocks by matching instruction PCs.
func FuncCFG(g *cfg.Graph, insts []disasm.Inst, edges []disasm.CallEdge) *lattice.FuncCFG {
	edgeByPC := make(map[uint64]disasm.CallEdge, len(edges))
	for _, e := range edges {
		edgeByPC[e.FromPC] = e
	}

	blocks := g.Blocks()
	lcfg := &lattice.FuncCFG{Name: g.Name()}
	for _, b := range blocks {
		lb := &lattice.BasicBlock{
			ID:    b.ID,
			Start: b.Start,
			End:   b.End(),
			Term:  b.Last() < len(insts) && insts[b.Last()].Kind == disasm.Terminal,
		}

		for _, c := range b.Children {
			lb.Succs = append(lb.Succs, lattice.Successor{
				BlockID: c,
				Cond:    render.EdgeCond(b, blocks[c], insts),
			})
		}

		for idx := b.Start; idx < b.End() && idx < len(insts); idx++ {
			e, ok := edgeByPC[insts[idx].Addr]
			if !ok {
				continue
			}
			callee := calleeName(e)
			if callee == "" {
				callee = "<indirect>"
			}
			lb.Calls = append(lb.Calls, lattice.CallSite{
				Offset: idx,
				Callee: callee,
			})
		}

		lcfg.Blocks = append(lcfg.Blocks, lb)
	}
	return lcfg
}
