package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
)

func newHexCmd(a *app) *cobra.Command {
	var (
		in    inputFlags
		df    dumpFlags
		insts bool
	)
	cmd := &cobra.Command{
		Use:   "hex [file]",
		Short: "Build a graph from hex-encoded bytes on stdin or in a file",
		Long: `hex reads whitespace-separated hex bytes ("55 48 89 e5", "0x55", "5548")
and prints the graph.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := cmd.InOrStdin()
			name := "stdin"
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r, name = f, args[0]
			}
			code, err := disasm.ParseHex(r)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			arch, err := a.rawArch(&in)
			if err != nil {
				return err
			}
			maxBytes, maxSteps := a.limits(&in)
			u, err := a.analyze(blob{name: name, addr: in.base, code: code}, arch, nil, cfg.Options{MaxBytes: maxBytes}, maxSteps)
			if err != nil {
				return err
			}
			if insts {
				_, err := fmt.Fprint(cmd.OutOrStdout(), disasm.Format(u.Insts, disasm.BranchAnnotator(), disasm.CallAnnotator(nil)))
				return err
			}
			return a.emit(cmd.OutOrStdout(), &df, u, nil)
		},
	}
	in.registerRaw(cmd)
	df.register(cmd)
	cmd.Flags().BoolVar(&insts, "insts", false, "print the decoded instructions instead of the graph")
	return cmd
}
