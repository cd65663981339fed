package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discfg/internal/output"
	"discfg/internal/render"
)

func newShowCmd(a *app) *cobra.Command {
	var (
		format string
		name   string
	)
	cmd := &cobra.Command{
		Use:   "show <graph.msgpack>",
		Short: "Print graphs saved by build",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			graphs, err := output.LoadSnapshots(args[0])
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			shown := 0
			for _, g := range graphs {
				if name != "" && g.Name() != name {
					continue
				}
				if shown > 0 {
					fmt.Fprintln(w)
				}
				shown++
				switch format {
				case "dump":
					err = render.Dump(w, g)
				case "dot":
					err = render.DOT(w, g)
				case "json":
					err = output.EncodeJSONL(w, output.BlockRecords(g, nil))
				default:
					return fmt.Errorf("unknown format %q (want dump, dot or json)", format)
				}
				if err != nil {
					return err
				}
			}
			if name != "" && shown == 0 {
				return fmt.Errorf("no graph named %q in %s", name, args[0])
			}
			a.log.Debug("loaded snapshots", "file", args[0], "graphs", len(graphs), "shown", shown)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "dump", "output format: dump, dot, json")
	cmd.Flags().StringVar(&name, "name", "", "only show the graph with this name")
	return cmd
}
