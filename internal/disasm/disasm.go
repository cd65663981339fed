// Package disasm provides linear-sweep disassembly for ARM64 and x86 code
// regions and classifies each instruction for basic-block construction.
package disasm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownArch is returned by ParseArch for an unsupported architecture name.
var ErrUnknownArch = errors.New("disasm: unknown architecture")

// Arch selects the instruction set to decode.
type Arch uint8

const (
	ARM64 Arch = iota
	X86_64
	X86
)

func (a Arch) String() string {
	switch a {
	case ARM64:
		return "arm64"
	case X86_64:
		return "x86_64"
	case X86:
		return "x86"
	}
	return fmt.Sprintf("arch(%d)", uint8(a))
}

// ParseArch maps a user-supplied name to an Arch.
func ParseArch(s string) (Arch, error) {
	switch strings.ToLower(s) {
	case "arm64", "aarch64":
		return ARM64, nil
	case "x86_64", "x86-64", "amd64", "x64":
		return X86_64, nil
	case "x86", "i386", "386", "ia32":
		return X86, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownArch, s)
}

// Kind is the control-flow classification of an instruction.
type Kind uint8

const (
	Sequential          Kind = iota // falls through to the next instruction
	UnconditionalBranch             // always transfers to its target
	ConditionalBranch               // taken target or fall-through
	Terminal                        // no successor (RET)
)

func (k Kind) String() string {
	switch k {
	case Sequential:
		return "seq"
	case UnconditionalBranch:
		return "jmp"
	case ConditionalBranch:
		return "jcc"
	case Terminal:
		return "ret"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsBranch reports whether instructions of this kind carry branch targets.
func (k Kind) IsBranch() bool {
	return k == UnconditionalBranch || k == ConditionalBranch
}

// Target is a branch destination relative to the end of the branching
// instruction. Resolved is false for absolute, register or memory operands;
// Operand then holds the operand text for diagnostics.
type Target struct {
	Disp     int64
	Resolved bool
	Operand  string
}

// Rel returns a resolved relative target.
func Rel(disp int64) Target {
	return Target{Disp: disp, Resolved: true}
}

// Unresolved returns a target whose displacement cannot be computed statically.
func Unresolved(operand string) Target {
	return Target{Operand: operand}
}

// FallThrough is the synthetic "next instruction" target of a conditional branch.
var FallThrough = Target{Disp: 0, Resolved: true}

func (t Target) String() string {
	if !t.Resolved {
		if t.Operand == "" {
			return "<indirect>"
		}
		return t.Operand
	}
	return fmt.Sprintf("%+d", t.Disp)
}

// Call describes a call site. Calls do not end basic blocks.
type Call struct {
	Target   uint64 // absolute VA for direct calls
	Indirect bool
}

// Inst is a decoded instruction with address, raw bytes and classification.
type Inst struct {
	Addr     uint64
	Raw      []byte
	Size     int
	Mnemonic string
	Operands string
	Text     string // full disassembly line
	Kind     Kind
	Targets  []Target
	Call     *Call
}

// Word returns the first four raw bytes as a little-endian word (the ARM64
// encoding). Shorter encodings are zero-extended.
func (i Inst) Word() uint32 {
	var buf [4]byte
	copy(buf[:], i.Raw)
	return binary.LittleEndian.Uint32(buf[:])
}

// SymbolLookup resolves an address to a symbolic name. Returns ("", false) if unknown.
type SymbolLookup func(addr uint64) (name string, ok bool)

// Options controls disassembly behavior.
type Options struct {
	Arch     Arch
	BaseAddr uint64       // VA of the first byte in Data
	MaxSteps int          // maximum instructions to decode; 0 = 10M
	Symbols  SymbolLookup // optional symbol resolver
}

const defaultMaxSteps = 10_000_000

func (o Options) effectiveMax() int {
	if o.MaxSteps > 0 {
		return o.MaxSteps
	}
	return defaultMaxSteps
}

// Disassemble decodes instructions from a byte region by linear sweep.
// Returns decoded instructions up to MaxSteps or end of data.
func Disassemble(data []byte, opts Options) []Inst {
	switch opts.Arch {
	case X86_64:
		return disassembleX86(data, 64, opts)
	case X86:
		return disassembleX86(data, 32, opts)
	default:
		return disassembleARM64(data, opts)
	}
}

// splitText splits a disassembly line into mnemonic and operands.
func splitText(text string) (mnemonic, operands string) {
	parts := strings.SplitN(text, " ", 2)
	mnemonic = parts[0]
	if len(parts) > 1 {
		operands = strings.TrimSpace(parts[1])
	}
	return mnemonic, operands
}

// Format renders a slice of instructions as stable text output.
// Each line: <addr>  <hex bytes>  <disasm>  ; <comments>
func Format(insts []Inst, annotators ...Annotator) string {
	var b strings.Builder
	for _, inst := range insts {
		fmt.Fprintf(&b, "0x%08x  ", inst.Addr)
		fmt.Fprintf(&b, "%-24s  ", hexBytes(inst.Raw))
		b.WriteString(inst.Text)
		if s := annotate(inst, annotators); s != "" {
			b.WriteString("  ; ")
			b.WriteString(s)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func hexBytes(raw []byte) string {
	var b strings.Builder
	for i, c := range raw {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}

// PlaceholderLookup returns a SymbolLookup backed by a fixed address → name map.
func PlaceholderLookup(entryPoints map[uint64]string) SymbolLookup {
	return func(addr uint64) (string, bool) {
		if name, ok := entryPoints[addr]; ok {
			return name, true
		}
		return "", false
	}
}
