package main

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"discfg/internal/config"
	"discfg/internal/logging"
	"discfg/internal/render"
)

// app carries the state shared by all subcommands once flags are parsed.
type app struct {
	cfgFile string
	debug   bool

	conf *config.Config
	log  *logging.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "discfg",
		Short: "Basic-block and control-flow graph builder for machine code",
		Long: `discfg decodes ARM64 or x86 machine code, partitions it into basic blocks
and writes the control-flow graph as text, DOT, JSONL or msgpack.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ~/.discfg/config.yaml, then ./.discfg.yaml)")
	root.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "debug logging")

	root.AddCommand(
		newBuildCmd(a),
		newDumpCmd(a),
		newFuncsCmd(a),
		newStatsCmd(a),
		newHexCmd(a),
		newShowCmd(a),
		newConfigCmd(a),
		newSchemaCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.cfgFile != "" {
		a.conf, err = config.LoadFromFile(a.cfgFile)
	} else {
		a.conf, err = config.Load()
	}
	if err != nil {
		return err
	}
	level := a.conf.LogLevel
	if a.debug {
		level = "debug"
	}
	a.log = logging.FromEnv(cmd.ErrOrStderr(), logging.Options{Level: level, Prefix: "discfg"})
	a.log.Debug("config loaded", "arch", a.conf.Arch, "format", a.conf.Format, "max_bytes", a.conf.MaxBytes)
	return nil
}

func (a *app) close() error {
	if a.log == nil {
		return nil
	}
	return a.log.Close()
}

func (a *app) theme(name string) render.Theme {
	if name == "" {
		name = a.conf.Theme
	}
	t, ok := render.ThemeByName(name)
	if !ok {
		a.log.Warn("unknown theme, using nasa", "theme", name)
		t = render.NASA
	}
	return t
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}

// Execute runs the root command. Interactive sessions get fang's styled
// help and errors; pipes get plain cobra output.
func Execute() {
	root := newRootCmd()
	if !isTerminal(os.Stdout) {
		if err := root.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
