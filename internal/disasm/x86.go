package disasm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"
)

// disassembleX86 decodes variable-length x86 instructions in the given mode
// (32 or 64). Undecodable bytes become single-byte ".byte" pseudo-instructions
// so the sweep always makes progress and every byte is covered.
func disassembleX86(data []byte, mode int, opts Options) []Inst {
	maxSteps := opts.effectiveMax()
	symname := gnuSymLookup(opts.Symbols)

	var result []Inst
	for off := 0; off < len(data) && len(result) < maxSteps; {
		addr := opts.BaseAddr + uint64(off)
		inst, err := x86asm.Decode(data[off:], mode)
		if err != nil || inst.Len == 0 || inst.Op == 0 {
			result = append(result, Inst{
				Addr:     addr,
				Raw:      data[off : off+1],
				Size:     1,
				Mnemonic: ".byte",
				Operands: fmt.Sprintf("0x%02x", data[off]),
				Text:     fmt.Sprintf(".byte 0x%02x", data[off]),
			})
			off++
			continue
		}

		text := x86asm.GNUSyntax(inst, addr, symname)
		mnemonic, operands := splitText(text)
		kind, targets := classifyX86(inst)
		result = append(result, Inst{
			Addr:     addr,
			Raw:      data[off : off+inst.Len],
			Size:     inst.Len,
			Mnemonic: mnemonic,
			Operands: operands,
			Text:     text,
			Kind:     kind,
			Targets:  targets,
			Call:     x86Call(inst, addr),
		})
		off += inst.Len
	}
	return result
}

// classifyX86 maps a decoded x86 instruction to a Kind and end-relative targets.
func classifyX86(inst x86asm.Inst) (Kind, []Target) {
	switch inst.Op {
	case x86asm.RET, x86asm.LRET, x86asm.IRET, x86asm.IRETD, x86asm.IRETQ:
		return Terminal, nil
	case x86asm.JMP, x86asm.LJMP:
		return UnconditionalBranch, []Target{x86Target(inst.Args[0])}
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JE, x86asm.JNE,
		x86asm.JG, x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JO, x86asm.JNO,
		x86asm.JP, x86asm.JNP, x86asm.JS, x86asm.JNS,
		x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ,
		x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
		return ConditionalBranch, []Target{x86Target(inst.Args[0]), FallThrough}
	}
	return Sequential, nil
}

// x86Target converts a branch operand. Only Rel operands are relative to the
// end of the instruction; everything else is reported unresolvable.
func x86Target(arg x86asm.Arg) Target {
	switch a := arg.(type) {
	case x86asm.Rel:
		return Rel(int64(a))
	case nil:
		return Unresolved("")
	default:
		return Unresolved(a.String())
	}
}

func x86Call(inst x86asm.Inst, pc uint64) *Call {
	if inst.Op != x86asm.CALL && inst.Op != x86asm.LCALL {
		return nil
	}
	if rel, ok := inst.Args[0].(x86asm.Rel); ok {
		return &Call{Target: uint64(int64(pc) + int64(inst.Len) + int64(rel))}
	}
	return &Call{Indirect: true}
}

func gnuSymLookup(lookup SymbolLookup) x86asm.SymLookup {
	if lookup == nil {
		return nil
	}
	return func(addr uint64) (string, uint64) {
		if name, ok := lookup(addr); ok {
			return name, addr
		}
		return "", 0
	}
}
