package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"discfg/internal/elfx"
)

func newFuncsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "funcs <elf>",
		Short: "List the sized function symbols of an ELF file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ef, err := elfx.Open(args[0])
			if err != nil {
				return err
			}
			defer ef.Close()

			fns, err := ef.FuncSymbols()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, fn := range fns {
				fmt.Fprintf(w, "0x%08x  %6d  %s\n", fn.Addr, fn.Size, fn.Name)
			}
			a.log.Debug("listed functions", "file", args[0], "arch", ef.Arch(), "count", len(fns))
			return nil
		},
	}
}
