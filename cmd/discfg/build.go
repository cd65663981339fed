package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	lrender "github.com/zboralski/lattice/render"

	"discfg/internal/callgraph"
	"discfg/internal/cfg"
	"discfg/internal/disasm"
	"discfg/internal/flow"
	"discfg/internal/output"
	"discfg/internal/render"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		in       inputFlags
		outDir   string
		title    string
		theme    string
		maxNodes int
		noASM    bool
	)
	cmd := &cobra.Command{
		Use:   "build <file>",
		Short: "Build graphs for every selected function and write them to a directory",
		Long: `build writes, under --out:

  functions.jsonl     one summary per function
  blocks.jsonl        one record per basic block
  diagnostics.jsonl   dropped branch edges
  call_edges.jsonl    call sites
  graph.msgpack       graph snapshots, readable by "discfg show"
  asm/<func>.txt      annotated disassembly
  cfg/<func>.dot      themed per-function CFG
  cfg.dot             all CFGs in one lattice rendering
  callgraph.dot       themed call graph (lattice_callgraph.dot: plain)
  reachable.dot       call graph reachable from entry points
  stats.json          call graph statistics
  index.html          summary page`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outDir == "" {
				outDir = a.conf.OutDir
			}
			if title == "" {
				title = filepath.Base(args[0])
			}
			units, lookup, err := a.load(cmd, &in, args[0])
			if err != nil {
				return err
			}
			return a.build(units, lookup, buildOptions{
				outDir:   outDir,
				title:    title,
				theme:    a.theme(theme),
				maxNodes: maxNodes,
				asm:      !noASM,
			})
		},
	}
	in.register(cmd)
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (default from config)")
	cmd.Flags().StringVar(&title, "title", "", "title for graphs and HTML (default: input file name)")
	cmd.Flags().StringVar(&theme, "theme", "", "color theme: nasa, dark")
	cmd.Flags().IntVar(&maxNodes, "max-nodes", 0, "max function nodes in the call graph (0 = all)")
	cmd.Flags().BoolVar(&noASM, "no-asm", false, "skip per-function disassembly listings")
	return cmd
}

type buildOptions struct {
	outDir   string
	title    string
	theme    render.Theme
	maxNodes int
	asm      bool
}

func (a *app) build(units []unit, lookup disasm.SymbolLookup, opts buildOptions) error {
	if err := os.MkdirAll(opts.outDir, 0755); err != nil {
		return fmt.Errorf("mkdir out: %w", err)
	}

	var (
		funcRecs  []output.FuncRecord
		blockRecs []output.BlockRecord
		diagRecs  []output.DiagnosticRecord
		edgeRecs  []output.CallEdgeRecord
		graphs    []*cfg.Graph
		infos     []callgraph.FuncInfo
		summaries []render.FuncSummary
	)
	annotators := []disasm.Annotator{
		disasm.SymbolAnnotator(lookup),
		disasm.CallAnnotator(lookup),
		disasm.BranchAnnotator(),
	}

	for _, u := range units {
		file := render.SafeFileName(u.Name)
		if opts.asm {
			if err := output.WriteASM(opts.outDir, file, u.Insts, annotators...); err != nil {
				return err
			}
		}
		if err := output.WriteDOT(opts.outDir, file, render.CFGDOT(u.Graph, u.Insts, opts.theme)); err != nil {
			return err
		}

		rec := output.NewFuncRecord(u.Graph, u.Addr)
		funcRecs = append(funcRecs, rec)
		blockRecs = append(blockRecs, output.BlockRecords(u.Graph, u.Insts)...)
		diagRecs = append(diagRecs, output.DiagnosticRecords(u.Graph, u.Insts)...)
		edgeRecs = append(edgeRecs, output.CallEdgeRecords(u.Name, u.Calls)...)
		graphs = append(graphs, u.Graph)
		infos = append(infos, callgraph.FuncInfo{Name: u.Name, Addr: u.Addr, Insts: u.Insts, CallEdges: u.Calls, Graph: u.Graph})
		summaries = append(summaries, summarize(u, rec.Stats))
	}

	if err := output.WriteJSONL(filepath.Join(opts.outDir, "functions.jsonl"), funcRecs); err != nil {
		return err
	}
	if err := output.WriteJSONL(filepath.Join(opts.outDir, "blocks.jsonl"), blockRecs); err != nil {
		return err
	}
	if err := output.WriteJSONL(filepath.Join(opts.outDir, "diagnostics.jsonl"), diagRecs); err != nil {
		return err
	}
	if err := output.WriteJSONL(filepath.Join(opts.outDir, "call_edges.jsonl"), edgeRecs); err != nil {
		return err
	}
	if err := output.SaveSnapshots(filepath.Join(opts.outDir, "graph.msgpack"), graphs); err != nil {
		return err
	}

	lcg, err := callgraph.BuildCFG(infos, cfg.Options{MaxBytes: a.conf.MaxBytes})
	if err != nil {
		return err
	}

	names := callgraph.Names(infos)
	edges := callgraph.RenderEdges(infos)
	entryPoints := render.FindEntryPoints(names, edges)
	reachable := render.ReachableSet(entryPoints, edges)
	stats := render.ComputeStats(names, edges)

	files := map[string]string{
		"cfg.dot":               lrender.DOTCFG(lcg, opts.title),
		"lattice_callgraph.dot": lrender.DOT(callgraph.BuildCallGraph(infos), opts.title),
		"callgraph.dot":         render.CallgraphDOT(names, edges, opts.title, opts.theme, opts.maxNodes),
		"reachable.dot":         render.ReachabilityDOT(edges, reachable, entryPoints, opts.title+" (reachable)", opts.theme),
	}
	for name, text := range files {
		if err := os.WriteFile(filepath.Join(opts.outDir, name), []byte(text), 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	if err := output.WriteJSON(filepath.Join(opts.outDir, "stats.json"), stats); err != nil {
		return err
	}

	f, err := os.Create(filepath.Join(opts.outDir, "index.html"))
	if err != nil {
		return fmt.Errorf("create index.html: %w", err)
	}
	render.WriteIndexHTML(f, render.Index{
		Title:       opts.title,
		Calls:       stats,
		Funcs:       summaries,
		EntryPoints: entryPoints,
		Reachable:   len(reachable),
		CFGDir:      "cfg",
	})
	if err := f.Close(); err != nil {
		return fmt.Errorf("write index.html: %w", err)
	}

	a.log.Info("build complete",
		"out", opts.outDir,
		"funcs", len(units),
		"blocks", len(blockRecs),
		"diagnostics", len(diagRecs),
		"call_edges", len(edgeRecs),
		"reachable", len(reachable))
	return nil
}

func summarize(u unit, st flow.Stats) render.FuncSummary {
	return render.FuncSummary{
		Name:        u.Name,
		Addr:        u.Addr,
		Insts:       st.Insts,
		Blocks:      st.Blocks,
		Edges:       st.Edges,
		Loops:       st.Loops,
		Unreachable: st.Unreachable,
		Diagnostics: st.Diagnostics,
	}
}
