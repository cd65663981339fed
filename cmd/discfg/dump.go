package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zboralski/lattice"
	lrender "github.com/zboralski/lattice/render"

	"discfg/internal/callgraph"
	"discfg/internal/config"
	"discfg/internal/disasm"
	"discfg/internal/output"
	"discfg/internal/render"
)

type dumpFlags struct {
	format string
	theme  string
	color  string
}

func (f *dumpFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "output format: "+strings.Join(config.Formats, ", ")+" (default from config)")
	cmd.Flags().StringVar(&f.theme, "theme", "", "color theme for themed output: "+strings.Join(render.ThemeNames, ", "))
	cmd.Flags().StringVar(&f.color, "color", "auto", "colorize listings: auto, always, never")
}

func newDumpCmd(a *app) *cobra.Command {
	var (
		in inputFlags
		df dumpFlags
	)
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the control-flow graph of an ELF file or raw code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, lookup, err := a.load(cmd, &in, args[0])
			if err != nil {
				return err
			}
			return a.emitAll(cmd.OutOrStdout(), &df, units, lookup)
		},
	}
	in.register(cmd)
	df.register(cmd)
	return cmd
}

func (a *app) emitAll(w io.Writer, df *dumpFlags, units []unit, lookup disasm.SymbolLookup) error {
	for i, u := range units {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if err := a.emit(w, df, u, lookup); err != nil {
			return fmt.Errorf("%s: %w", u.Name, err)
		}
	}
	return nil
}

// emit writes one unit in the selected format.
func (a *app) emit(w io.Writer, df *dumpFlags, u unit, lookup disasm.SymbolLookup) error {
	format := df.format
	if format == "" {
		format = a.conf.Format
	}
	switch format {
	case "dump":
		return render.Dump(w, u.Graph)
	case "dot":
		return render.DOT(w, u.Graph)
	case "dot-insts":
		return render.DOTInsts(w, u.Graph, u.Insts)
	case "themed":
		_, err := io.WriteString(w, render.CFGDOT(u.Graph, u.Insts, a.theme(df.theme)))
		return err
	case "lattice":
		lcfg := callgraph.FuncCFG(u.Graph, u.Insts, u.Calls)
		_, err := io.WriteString(w, lrender.DOTCFG(&lattice.CFGGraph{Funcs: []*lattice.FuncCFG{lcfg}}, u.Name))
		return err
	case "listing":
		return render.Listing(w, u.Graph, u.Insts, render.ListingOptions{
			Arch:  u.Arch,
			Color: a.color(w, df.color),
			Style: a.conf.Style,
			Annotators: []disasm.Annotator{
				disasm.SymbolAnnotator(lookup),
				disasm.CallAnnotator(lookup),
				disasm.BranchAnnotator(),
			},
		})
	case "json":
		return output.EncodeJSONL(w, output.BlockRecords(u.Graph, u.Insts))
	}
	return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(config.Formats, ", "))
}

func (a *app) color(w io.Writer, mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	return a.conf.Color && isTerminal(w)
}
