package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
	"discfg/internal/elfx"
)

// inputFlags selects the code a command works on.
type inputFlags struct {
	arch     string
	base     uint64
	raw      bool
	funcs    []string
	section  string
	all      bool
	maxBytes int
	maxSteps int
}

func (f *inputFlags) register(cmd *cobra.Command) {
	f.registerRaw(cmd)
	fs := cmd.Flags()
	fs.BoolVar(&f.raw, "raw", false, "treat the input as raw machine code instead of ELF")
	fs.StringSliceVar(&f.funcs, "func", nil, "ELF function symbol to analyze (repeatable)")
	fs.StringVar(&f.section, "section", ".text", "ELF section to analyze when no --func is given")
	fs.BoolVar(&f.all, "all", false, "analyze every sized function symbol in the ELF file")
}

// registerRaw registers the flags that apply to raw code.
func (f *inputFlags) registerRaw(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.arch, "arch", "", "instruction set for raw input: arm64, x86-64, x86 (default from config)")
	fs.Uint64Var(&f.base, "base", 0, "load address of raw input")
	fs.IntVar(&f.maxBytes, "max-bytes", 0, "upper bound on bytes per instruction stream (default from config)")
	fs.IntVar(&f.maxSteps, "max-steps", 0, "upper bound on decoded instructions per function (default from config)")
}

// unit is one analyzed instruction stream: a function, a section or a raw blob.
type unit struct {
	Name  string
	Addr  uint64
	Arch  disasm.Arch
	Insts []disasm.Inst
	Calls []disasm.CallEdge
	Graph *cfg.Graph
}

type blob struct {
	name string
	addr uint64
	code []byte
}

// load reads the input at path and builds one unit per selected stream.
// "-" reads raw code from stdin.
func (a *app) load(cmd *cobra.Command, f *inputFlags, path string) ([]unit, disasm.SymbolLookup, error) {
	var (
		blobs  []blob
		arch   disasm.Arch
		lookup disasm.SymbolLookup
		err    error
	)
	if f.raw || path == "-" {
		arch, err = a.rawArch(f)
		if err != nil {
			return nil, nil, err
		}
		b, err := readRaw(cmd.InOrStdin(), path)
		if err != nil {
			return nil, nil, err
		}
		b.addr = f.base
		blobs = []blob{b}
	} else {
		blobs, arch, lookup, err = a.loadELF(f, path)
		if err != nil {
			return nil, nil, err
		}
	}

	maxBytes, maxSteps := a.limits(f)
	units := make([]unit, 0, len(blobs))
	for _, b := range blobs {
		u, err := a.analyze(b, arch, lookup, cfg.Options{MaxBytes: maxBytes}, maxSteps)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", b.name, err)
		}
		units = append(units, u)
	}
	return units, lookup, nil
}

// limits returns the flag limits, falling back to the config.
func (a *app) limits(f *inputFlags) (maxBytes, maxSteps int) {
	maxBytes, maxSteps = f.maxBytes, f.maxSteps
	if maxBytes == 0 {
		maxBytes = a.conf.MaxBytes
	}
	if maxSteps == 0 {
		maxSteps = a.conf.MaxSteps
	}
	return maxBytes, maxSteps
}

func (a *app) rawArch(f *inputFlags) (disasm.Arch, error) {
	name := f.arch
	if name == "" {
		name = a.conf.Arch
	}
	return disasm.ParseArch(name)
}

func readRaw(stdin io.Reader, path string) (blob, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return blob{}, fmt.Errorf("read stdin: %w", err)
		}
		return blob{name: "stdin", code: data}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return blob{}, err
	}
	return blob{name: filepath.Base(path), code: data}, nil
}

func (a *app) loadELF(f *inputFlags, path string) ([]blob, disasm.Arch, disasm.SymbolLookup, error) {
	ef, err := elfx.Open(path)
	if err != nil {
		return nil, 0, nil, err
	}
	defer ef.Close()

	lookup, err := ef.Lookup()
	if err != nil {
		a.log.Warn("no symbols", "file", path, "err", err)
		lookup = nil
	}

	var fns []elfx.Func
	switch {
	case len(f.funcs) > 0:
		for _, name := range f.funcs {
			fn, err := ef.Func(name)
			if err != nil {
				return nil, 0, nil, err
			}
			fns = append(fns, fn)
		}
	case f.all:
		fns, err = ef.FuncSymbols()
		if err != nil {
			return nil, 0, nil, err
		}
		if len(fns) == 0 {
			return nil, 0, nil, fmt.Errorf("%s: %w: no sized function symbols", path, elfx.ErrNoSymbol)
		}
	default:
		addr, data, err := ef.Section(f.section)
		if err != nil {
			return nil, 0, nil, err
		}
		return []blob{{name: f.section, addr: addr, code: data}}, ef.Arch(), lookup, nil
	}

	blobs := make([]blob, 0, len(fns))
	for _, fn := range fns {
		code, err := ef.FuncBytes(fn)
		if err != nil {
			if f.all && errors.Is(err, elfx.ErrNoSegment) {
				a.log.Warn("skipping function", "func", fn.Name, "err", err)
				continue
			}
			return nil, 0, nil, err
		}
		blobs = append(blobs, blob{name: fn.Name, addr: fn.Addr, code: code})
	}
	a.log.Debug("loaded ELF", "file", path, "arch", ef.Arch(), "funcs", len(blobs))
	return blobs, ef.Arch(), lookup, nil
}

// analyze decodes one blob and builds its graph. Dropped edges are logged
// at warn level; they never fail the build.
func (a *app) analyze(b blob, arch disasm.Arch, lookup disasm.SymbolLookup, opts cfg.Options, maxSteps int) (unit, error) {
	insts := disasm.Disassemble(b.code, disasm.Options{
		Arch:     arch,
		BaseAddr: b.addr,
		MaxSteps: maxSteps,
		Symbols:  lookup,
	})
	g, err := cfg.Build(b.name, insts, opts)
	if err != nil {
		return unit{}, err
	}
	for _, d := range g.Diagnostics() {
		a.log.Warn(d.Error(), "func", b.name, "pc", fmt.Sprintf("0x%x", insts[d.Index].Addr))
	}
	a.log.Debug("built graph", "func", b.name, "insts", len(insts), "blocks", g.Len())
	return unit{
		Name:  b.name,
		Addr:  b.addr,
		Arch:  arch,
		Insts: insts,
		Calls: disasm.ExtractCallEdges(insts, lookup),
		Graph: g,
	}, nil
}
