package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discfg/internal/flow"
	"discfg/internal/output"
	"discfg/internal/render"
)

func newStatsCmd(a *app) *cobra.Command {
	var (
		in      inputFlags
		asJSON  bool
		showAll bool
	)
	cmd := &cobra.Command{
		Use:   "stats <file>",
		Short: "Summarize block, edge, loop and reachability counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, _, err := a.load(cmd, &in, args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if asJSON {
				recs := make([]output.FuncRecord, len(units))
				for i, u := range units {
					recs[i] = output.NewFuncRecord(u.Graph, u.Addr)
				}
				return output.EncodeJSONL(w, recs)
			}

			fmt.Fprintf(w, "%-40s %7s %7s %7s %5s %5s %7s %7s\n",
				"FUNC", "INSTS", "BLOCKS", "EDGES", "ROOTS", "LOOPS", "UNREACH", "DROPPED")
			var total flow.Stats
			for _, u := range units {
				st := flow.Summarize(u.Graph)
				total.Insts += st.Insts
				total.Blocks += st.Blocks
				total.Edges += st.Edges
				total.Roots += st.Roots
				total.Loops += st.Loops
				total.Unreachable += st.Unreachable
				total.Diagnostics += st.Diagnostics
				if !showAll && st.Blocks <= 1 && st.Diagnostics == 0 {
					continue
				}
				fmt.Fprintf(w, "%-40s %7d %7d %7d %5d %5d %7d %7d\n",
					render.Truncate(u.Name, 40), st.Insts, st.Blocks, st.Edges, st.Roots, st.Loops, st.Unreachable, st.Diagnostics)
			}
			fmt.Fprintf(w, "%-40s %7d %7d %7d %5d %5d %7d %7d\n",
				fmt.Sprintf("total (%d funcs)", len(units)),
				total.Insts, total.Blocks, total.Edges, total.Roots, total.Loops, total.Unreachable, total.Diagnostics)
			return nil
		},
	}
	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit one JSON record per function")
	cmd.Flags().BoolVar(&showAll, "all-rows", false, "include single-block functions without dropped edges")
	return cmd
}
