package output

import (
	"fmt"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
	"discfg/internal/flow"
)

// FuncRecord is one line in functions.jsonl.
type FuncRecord struct {
	PC   string `json:"pc"`
	Size int    `json:"size"`
	Name string `json:"name"`
	flow.Stats
}

// CallEdgeRecord is one line in call_edges.jsonl.
type CallEdgeRecord struct {
	FromFunc string `json:"from_func"`
	FromPC   string `json:"from_pc"`
	Kind     string `json:"kind"`              // "call" or "icall"
	Target   string `json:"target,omitempty"`  // resolved name or "0x..." for direct calls
	Operand  string `json:"operand,omitempty"` // operand text for indirect calls
}

// BlockRecord is one line in blocks.jsonl.
type BlockRecord struct {
	Func     string `json:"func"`
	ID       int    `json:"id"`
	Start    int    `json:"start"`
	Len      int    `json:"len"`
	StartPC  string `json:"start_pc,omitempty"`
	EndPC    string `json:"end_pc,omitempty"` // exclusive
	Root     bool   `json:"root,omitempty"`
	Parents  []int  `json:"parents,omitempty"`
	Children []int  `json:"children,omitempty"`
}

// DiagnosticRecord is one line in diagnostics.jsonl.
type DiagnosticRecord struct {
	Func    string `json:"func"`
	Index   int    `json:"index"`
	PC      string `json:"pc,omitempty"`
	Kind    string `json:"kind"`
	Target  string `json:"target"`
	Offset  int64  `json:"offset,omitempty"`
	Message string `json:"message"`
}

func hexPC(pc uint64) string { return fmt.Sprintf("0x%x", pc) }

// NewFuncRecord summarizes one function's graph.
func NewFuncRecord(g *cfg.Graph, addr uint64) FuncRecord {
	return FuncRecord{
		PC:    hexPC(addr),
		Size:  int(g.TotalBytes()),
		Name:  g.Name(),
		Stats: flow.Summarize(g),
	}
}

// CallEdgeRecords converts the call sites of one function.
func CallEdgeRecords(fn string, edges []disasm.CallEdge) []CallEdgeRecord {
	recs := make([]CallEdgeRecord, 0, len(edges))
	for _, e := range edges {
		r := CallEdgeRecord{
			FromFunc: fn,
			FromPC:   hexPC(e.FromPC),
			Kind:     e.Kind,
			Operand:  e.Operand,
		}
		if e.Kind == disasm.CallDirect {
			r.Target = e.TargetName
			if r.Target == "" {
				r.Target = hexPC(e.TargetPC)
			}
		}
		recs = append(recs, r)
	}
	return recs
}

// BlockRecords lists the blocks of g. insts supplies addresses; when it is
// shorter than the graph, the PC fields are left empty.
func BlockRecords(g *cfg.Graph, insts []disasm.Inst) []BlockRecord {
	recs := make([]BlockRecord, 0, g.Len())
	for id, b := range g.All() {
		r := BlockRecord{
			Func:     g.Name(),
			ID:       id,
			Start:    b.Start,
			Len:      b.Len,
			Root:     g.IsRoot(id),
			Parents:  b.Parents,
			Children: b.Children,
		}
		if b.Last() < len(insts) {
			last := insts[b.Last()]
			r.StartPC = hexPC(insts[b.Start].Addr)
			r.EndPC = hexPC(last.Addr + uint64(last.Size))
		}
		recs = append(recs, r)
	}
	return recs
}

// DiagnosticRecords lists the edges g dropped while building.
func DiagnosticRecords(g *cfg.Graph, insts []disasm.Inst) []DiagnosticRecord {
	var recs []DiagnosticRecord
	for _, d := range g.Diagnostics() {
		r := DiagnosticRecord{
			Func:    g.Name(),
			Index:   d.Index,
			Kind:    cfg.DiagnosticKind(d),
			Target:  d.Target,
			Offset:  d.Offset,
			Message: d.Error(),
		}
		if d.Index < len(insts) {
			r.PC = hexPC(insts[d.Index].Addr)
		}
		recs = append(recs, r)
	}
	return recs
}
