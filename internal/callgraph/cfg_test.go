package callgraph

import (
	"encoding/binary"
	"testing"

	"github.com/zboralski/lattice/render"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
)

func arm64Code(words ...uint32) []byte {
	data := make([]byte, 4*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}
	return data
}

func TestBuildCFG_DOTOutput(t *testing.T) {
	// A small ARM64 function with branches and calls:
	//
	// entry (B0):
	//   0x1000: MOV X0, #0
	//   0x1004: BL  0x1104       ; call "Foo.bar"
	//   0x1008: CBZ X0, 0x1018   ; taken → B2, fall-through → B1
	//
	// B1:
	//   0x100C: MOV X1, #1
	//   0x1010: BL  0x1210       ; call "Baz.qux"
	//   0x1014: B   0x1020       ; jump → B3
	//
	// B2:
	//   0x1018: BL  0x1318       ; call "Quux.run"
	//   0x101C: RET
	//
	// join (B3):
	//   0x1020: RET
	code := arm64Code(
		0xD2800000, // MOV X0, #0
		0x94000040, // BL +0x100
		0xB4000080, // CBZ X0, +0x10
		0xD2800021, // MOV X1, #1
		0x94000080, // BL +0x200
		0x14000003, // B +0xC
		0x940000C0, // BL +0x300
		0xD65F03C0, // RET
		0xD65F03C0, // RET
	)
	insts := disasm.Disassemble(code, disasm.Options{BaseAddr: 0x1000})
	syms := disasm.PlaceholderLookup(map[uint64]string{
		0x1104: "Foo.bar",
		0x1210: "Baz.qux",
		0x1318: "Quux.run",
	})

	funcs := []FuncInfo{
		{Name: "MyClass.myMethod", Addr: 0x1000, Insts: insts, CallEdges: disasm.ExtractCallEdges(insts, syms)},
	}

	cg, err := BuildCFG(funcs, cfg.Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(cg.Funcs) != 1 {
		t.Fatalf("expected 1 function, got %d", len(cg.Funcs))
	}
	f := cg.Funcs[0]
	if f.Name != "MyClass.myMethod" {
		t.Errorf("func name = %q", f.Name)
	}
	if len(f.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(f.Blocks))
	}

	// B0: entry, 1 call, 2 successors (F→B1, T→B2)
	b0 := f.Blocks[0]
	if b0.Start != 0 || b0.End != 3 {
		t.Errorf("B0 range = [%d,%d), want [0,3)", b0.Start, b0.End)
	}
	if len(b0.Calls) != 1 || b0.Calls[0].Callee != "Foo.bar" || b0.Calls[0].Offset != 1 {
		t.Errorf("B0 calls = %+v", b0.Calls)
	}
	if len(b0.Succs) != 2 ||
		b0.Succs[0].BlockID != 1 || b0.Succs[0].Cond != "F" ||
		b0.Succs[1].BlockID != 2 || b0.Succs[1].Cond != "T" {
		t.Errorf("B0 succs = %+v", b0.Succs)
	}

	// B1: 1 call, 1 unconditional successor
	b1 := f.Blocks[1]
	if len(b1.Calls) != 1 || b1.Calls[0].Callee != "Baz.qux" {
		t.Errorf("B1 calls = %+v", b1.Calls)
	}
	if len(b1.Succs) != 1 || b1.Succs[0].BlockID != 3 || b1.Succs[0].Cond != "" {
		t.Errorf("B1 succs = %+v", b1.Succs)
	}

	// B2: 1 call, terminal
	b2 := f.Blocks[2]
	if len(b2.Calls) != 1 || b2.Calls[0].Callee != "Quux.run" {
		t.Errorf("B2 calls = %+v", b2.Calls)
	}
	if !b2.Term {
		t.Error("B2 should be terminal")
	}

	// B3: join, terminal
	if b3 := f.Blocks[3]; !b3.Term || len(b3.Succs) != 0 {
		t.Errorf("B3 = %+v, want terminal with no successors", b3)
	}

	dot := render.DOTCFG(cg, "CFG example")
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}
}

func TestBuildCFG_MalformedInput(t *testing.T) {
	funcs := []FuncInfo{{Name: "bad", Insts: []disasm.Inst{{Size: 0}}}}
	if _, err := BuildCFG(funcs, cfg.Options{}); err == nil {
		t.Fatal("expected error for zero-size instruction")
	}
}

func TestBuildCFG_ReusesGraph(t *testing.T) {
	// Malformed instructions would fail a rebuild, so success means the
	// prebuilt graph was used as is.
	g, err := cfg.Build("prebuilt", []disasm.Inst{{Size: 1, Kind: disasm.Terminal}}, cfg.Options{})
	if err != nil {
		t.Fatal(err)
	}
	funcs := []FuncInfo{{Name: "prebuilt", Insts: []disasm.Inst{{Size: 1, Kind: disasm.Terminal}}, Graph: g}}
	funcs[0].Insts[0].Size = 0

	cg, err := BuildCFG(funcs, cfg.Options{})
	if err != nil {
		t.Fatalf("BuildCFG: %v", err)
	}
	if len(cg.Funcs) != 1 || cg.Funcs[0].Name != "prebuilt" || len(cg.Funcs[0].Blocks) != 1 {
		t.Fatalf("funcs = %+v", cg.Funcs)
	}
}

func TestFuncCFG_IndirectCall(t *testing.T) {
	// BLR X16; RET
	insts := disasm.Disassemble(arm64Code(0xD63F0200, 0xD65F03C0), disasm.Options{BaseAddr: 0x2000})
	f := FuncInfo{Name: "f", Insts: insts, CallEdges: disasm.ExtractCallEdges(insts, nil)}
	lcfg, g, err := BuildFuncCFG(f, cfg.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 1 || len(lcfg.Blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", g.Len())
	}
	calls := lcfg.Blocks[0].Calls
	if len(calls) != 1 || calls[0].Callee != "<indirect>" {
		t.Errorf("calls = %+v", calls)
	}
}

func TestBuildCallGraph_DOTOutput(t *testing.T) {
	funcs := []FuncInfo{
		{
			Name: "main",
			CallEdges: []disasm.CallEdge{
				{FromPC: 0x1004, Kind: disasm.CallDirect, TargetPC: 0x2000, TargetName: "Foo.init"},
				{FromPC: 0x1010, Kind: disasm.CallDirect, TargetPC: 0x3000, TargetName: "Bar.run"},
			},
		},
		{
			Name: "Foo.init",
			CallEdges: []disasm.CallEdge{
				{FromPC: 0x2008, Kind: disasm.CallDirect, TargetPC: 0x4000, TargetName: "Logger.log"},
			},
		},
		{
			Name: "Bar.run",
			CallEdges: []disasm.CallEdge{
				{FromPC: 0x3004, Kind: disasm.CallDirect, TargetPC: 0x4000, TargetName: "Logger.log"},
				{FromPC: 0x3010, Kind: disasm.CallIndirect, Operand: "x16"},
			},
		},
		{
			Name: "Logger.log",
		},
	}

	cg := BuildCallGraph(funcs)

	if len(cg.Nodes) != 4 {
		t.Errorf("expected 4 nodes, got %d", len(cg.Nodes))
	}
	if len(cg.Edges) != 4 {
		t.Errorf("expected 4 edges, got %d", len(cg.Edges))
	}

	dot := render.DOT(cg, "call graph example")
	if dot == "" {
		t.Error("expected non-empty DOT output")
	}

	edges := RenderEdges(funcs)
	if len(edges) != 5 {
		t.Fatalf("render edges = %d, want 5", len(edges))
	}
	if last := edges[4]; !last.Indirect || last.From != "Bar.run" || last.To != "x16" {
		t.Errorf("indirect edge = %+v", last)
	}
	if names := Names(funcs); len(names) != 4 || names[3] != "Logger.log" {
		t.Errorf("names = %v", names)
	}
}

func TestCalleeNameFallsBackToAddress(t *testing.T) {
	if got := calleeName(disasm.CallEdge{Kind: disasm.CallDirect, TargetPC: 0xabc}); got != "0xabc" {
		t.Errorf("calleeName = %q, want 0xabc", got)
	}
}
