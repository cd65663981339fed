package render

import (
	"bytes"
	"strings"
	"testing"
	"unicode/utf8"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
)

func inst(addr uint64, kind disasm.Kind, text string, targets ...disasm.Target) disasm.Inst {
	return disasm.Inst{Addr: addr, Raw: []byte{0x90}, Size: 1, Kind: kind, Text: text, Targets: targets}
}

// splitGraph is the mid-block split example:
//
//	0: nop
//	1: je +1     → 3
//	2: nop
//	3: ret
func splitGraph(t *testing.T) (*cfg.Graph, []disasm.Inst) {
	t.Helper()
	insts := []disasm.Inst{
		inst(0x1000, disasm.Sequential, "nop"),
		inst(0x1001, disasm.ConditionalBranch, "je 0x1003", disasm.Rel(1), disasm.FallThrough),
		inst(0x1002, disasm.Sequential, "nop"),
		inst(0x1003, disasm.Terminal, "ret"),
	}
	g, err := cfg.Build("split", insts, cfg.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g, insts
}

func TestDump(t *testing.T) {
	g, _ := splitGraph(t)
	var buf bytes.Buffer
	if err := Dump(&buf, g); err != nil {
		t.Fatal(err)
	}
	want := "node: 0, 0 -> 1\n  parents:\n  children: 1, 2,\n" +
		"node: 1, 2 -> 2\n  parents: 0,\n  children: 2,\n" +
		"node: 2, 3 -> 3\n  parents: 0, 1,\n  children:\n" +
		"\n"
	if buf.String() != want {
		t.Errorf("Dump =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestDOT(t *testing.T) {
	g, _ := splitGraph(t)
	var buf bytes.Buffer
	if err := DOT(&buf, g); err != nil {
		t.Fatal(err)
	}
	want := "digraph G\n{\n" +
		"    n0_1 -> n2_2;\n" +
		"    n0_1 -> n3_3;\n" +
		"    n2_2 -> n3_3;\n" +
		"}\n"
	if buf.String() != want {
		t.Errorf("DOT =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestDOTIsolatedBlock(t *testing.T) {
	g, err := cfg.Build("one", []disasm.Inst{inst(0, disasm.Terminal, "ret")}, cfg.Options{})
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := DOT(&buf, g); err != nil {
		t.Fatal(err)
	}
	if want := "digraph G\n{\n    n0_0;\n}\n"; buf.String() != want {
		t.Errorf("DOT = %q, want %q", buf.String(), want)
	}
}

func TestDOTInsts(t *testing.T) {
	g, insts := splitGraph(t)
	var buf bytes.Buffer
	if err := DOTInsts(&buf, g, insts); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"    n0_1 [ shape = \"box\"\n",
		"     0 : 00001000 [ 1] nop\\l     1 : 00001001 [ 1] je 0x1003\\l\" ];\n",
		"      n0_1 -> n2_2;\n",
		"      n2_2 -> n3_3;\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	if err := DOTInsts(&buf, g, insts[:2]); err == nil {
		t.Error("expected error for short instruction slice")
	}
}

func TestDOTQuote(t *testing.T) {
	if got := dotQuote("mov \"a\"\t\\b"); got != `mov \"a\" \\b` {
		t.Errorf("dotQuote = %q", got)
	}
}

func TestEdgeCond(t *testing.T) {
	g, insts := splitGraph(t)
	blocks := g.Blocks()
	if got := EdgeCond(blocks[0], blocks[1], insts); got != CondFallThrough {
		t.Errorf("0→1 = %q, want F", got)
	}
	if got := EdgeCond(blocks[0], blocks[2], insts); got != CondTaken {
		t.Errorf("0→2 = %q, want T", got)
	}
	if got := EdgeCond(blocks[1], blocks[2], insts); got != "" {
		t.Errorf("1→2 = %q, want unlabeled", got)
	}
}

func TestCFGDOT(t *testing.T) {
	g, insts := splitGraph(t)
	dot := CFGDOT(g, insts, NASA)
	for _, want := range []string{
		"digraph cfg {",
		"bb0 -> bb1 [color=\"#FC3D21\"",
		"bb0 -> bb2 [color=\"#0B3D91\"",
		"bb1 -> bb2 [color=\"#424242\"];",
		"0x1003: ret",
		"split",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("missing %q in:\n%s", want, dot)
		}
	}

	empty, _ := cfg.Build("empty", nil, cfg.Options{})
	if CFGDOT(empty, nil, NASA) != "" {
		t.Error("expected empty output for empty graph")
	}
}

func TestListing(t *testing.T) {
	g, insts := splitGraph(t)
	var buf bytes.Buffer
	if err := Listing(&buf, g, insts, ListingOptions{Annotators: []disasm.Annotator{disasm.BranchAnnotator()}}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"; block 0  [0..1]  root  children: 1,2\n",
		"; block 2  [3..3]  parents: 0,1\n",
		"je 0x1003  ; => 0x1003",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestColorize(t *testing.T) {
	out, err := Colorize("movq %rax, %rbx\nret\n", disasm.X86_64, "")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "\x1b[") {
		t.Errorf("expected ANSI escapes, got %q", out)
	}
}

func TestCallgraphDOT(t *testing.T) {
	funcs := []string{"main", "helper", "unused"}
	edges := []CallEdge{
		{From: "main", To: "helper"},
		{From: "main", To: "helper"},
		{From: "main", To: "helper"},
		{From: "main", To: "printf"},
		{From: "main", To: "*%rax", Indirect: true},
	}
	dot := CallgraphDOT(funcs, edges, "calls", NASA, 0)
	for _, want := range []string{
		"n_main -> n_helper [color=\"#424242\", style=\"solid\", penwidth=0.8, label=",
		">3x<",
		"n_printf [label=\"printf\", shape=plaintext",
		"n_main -> n__003cindirect_003e [color=\"#9E9E9E\", style=\"dashed\"]",
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("missing %q in:\n%s", want, dot)
		}
	}
	if strings.Contains(dot, "n_unused") {
		t.Error("function without edges should not be rendered")
	}
}

func TestComputeStats(t *testing.T) {
	edges := []CallEdge{
		{From: "a", To: "b"},
		{From: "a", To: "c"},
		{From: "b", To: "c"},
		{From: "b", Indirect: true},
	}
	s := ComputeStats([]string{"a", "b", "c"}, edges)
	if s.TotalFunctions != 3 || s.TotalEdges != 4 || s.DirectEdges != 3 || s.IndirectEdges != 1 {
		t.Errorf("stats = %+v", s)
	}
	if len(s.TopCallees) == 0 || s.TopCallees[0] != (NameCount{"c", 2}) {
		t.Errorf("top callees = %+v", s.TopCallees)
	}
	if len(s.TopCallers) != 2 || s.TopCallers[0] != (NameCount{"a", 2}) || s.TopCallers[1] != (NameCount{"b", 2}) {
		t.Errorf("top callers = %+v", s.TopCallers)
	}
}

func TestReachability(t *testing.T) {
	funcs := []string{"a", "b", "c", "d"}
	edges := []CallEdge{
		{From: "a", To: "b"},
		{From: "b", To: "c"},
		{From: "c", To: "c"},
		{From: "d", To: "d"},
	}
	entries := FindEntryPoints(funcs, edges)
	if len(entries) != 2 || entries[0] != "a" || entries[1] != "d" {
		t.Fatalf("entries = %v, want [a d]", entries)
	}
	reach := ReachableSet([]string{"a"}, edges)
	if len(reach) != 3 || !reach["c"] || reach["d"] {
		t.Errorf("reachable = %v", reach)
	}
	dot := ReachabilityDOT(edges, reach, []string{"a"}, "", NASA)
	if !strings.Contains(dot, "n_a [label=\"a\", penwidth=1.5") || !strings.Contains(dot, "n_b -> n_c") {
		t.Errorf("unexpected DOT:\n%s", dot)
	}
}

func TestWriteIndexHTML(t *testing.T) {
	var buf bytes.Buffer
	WriteIndexHTML(&buf, Index{
		Title:  "lib<x>",
		Funcs:  []FuncSummary{{Name: "main", Addr: 0x1000, Insts: 4, Blocks: 3, Edges: 3, Diagnostics: 1}},
		CFGDir: "cfg",
	})
	out := buf.String()
	for _, want := range []string{
		"<h1>lib&lt;x&gt;</h1>",
		`<a href="cfg/main.dot">main</a>`,
		`<span class="warn">1</span>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestThemeByName(t *testing.T) {
	if th, ok := ThemeByName("DARK"); !ok || th != Dark {
		t.Error("dark theme not found")
	}
	if th, ok := ThemeByName(""); !ok || th != NASA {
		t.Error("empty name should select NASA")
	}
	if _, ok := ThemeByName("neon"); ok {
		t.Error("unknown theme accepted")
	}
}

func TestSafeFileName(t *testing.T) {
	if got := SafeFileName("ns::f<int> (x)"); got != "ns__f_int__(x)" {
		t.Errorf("SafeFileName = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"a_long_function_name", 10, "a_long_..."},
		{"Ärger::überprüfen()", 8, "Ärger..."},
		{"函数名称很长的符号", 6, "函数名..."},
	}
	for _, tc := range tests {
		got := Truncate(tc.in, tc.n)
		if got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("Truncate(%q, %d) = %q is not valid UTF-8", tc.in, tc.n, got)
		}
	}
}
