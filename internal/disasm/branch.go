package disasm

import "fmt"

// ARM64 control-flow detection from raw 32-bit encodings.
// These functions identify basic-block terminators and extract branch targets.

const arm64InstSize = 4

// BranchInfo describes a decoded ARM64 control-flow instruction.
// Offset is PC-relative (from the start of the instruction).
type BranchInfo struct {
	Offset   int64
	Cond     bool   // true if conditional (has fallthrough)
	IsRet    bool   // true if RET, ERET or an authenticated return
	Indirect string // register operand for BR Xn ("" if direct)
}

// DecodeBranch attempts to decode a branch instruction from its raw encoding.
// Returns nil if the instruction is not a branch/ret. BL and BLR are calls and
// are not reported here.
func DecodeBranch(raw uint32) *BranchInfo {
	// RET (0xD65F03C0 exactly, or RET Xn = 0xD65F0000 | Rn<<5)
	if raw&0xFFFFFC1F == 0xD65F0000 {
		return &BranchInfo{IsRet: true}
	}

	// RETAA / RETAB (pointer authentication)
	if raw&0xFFFFFBFF == 0xD65F0BFF {
		return &BranchInfo{IsRet: true}
	}

	// ERET, ERETAA / ERETAB
	if raw == 0xD69F03E0 || raw&0xFFFFFBFF == 0xD69F0BFF {
		return &BranchInfo{IsRet: true}
	}

	// BR Xn: 1101011 0000 11111 000000 Rn 00000
	if raw&0xFFFFFC1F == 0xD61F0000 {
		return &BranchInfo{Indirect: regName(raw)}
	}

	// BRAAZ / BRABZ Xn: 1101011 0000 11111 00001 M Rn 11111
	// BRAA / BRAB Xn, Xm: 1101011 1000 11111 00001 M Rn Rm
	if raw&0xFFFFF81F == 0xD61F081F || raw&0xFFFFF800 == 0xD71F0800 {
		return &BranchInfo{Indirect: regName(raw)}
	}

	// B (unconditional): 000101 imm26
	if raw&0xFC000000 == 0x14000000 {
		imm26 := raw & 0x03FFFFFF
		return &BranchInfo{Offset: int64(signExtend(imm26, 26)) * 4}
	}

	// B.cond: 01010100 imm19 0 cond
	if raw&0xFF000010 == 0x54000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		return &BranchInfo{Offset: int64(signExtend(imm19, 19)) * 4, Cond: true}
	}

	// CBZ: 0 sf 110100 imm19 Rt / CBNZ: 0 sf 110101 imm19 Rt
	if raw&0x7E000000 == 0x34000000 {
		imm19 := (raw >> 5) & 0x7FFFF
		return &BranchInfo{Offset: int64(signExtend(imm19, 19)) * 4, Cond: true}
	}

	// TBZ: 0 b5 110110 b40 imm14 Rt / TBNZ: 0 b5 110111 b40 imm14 Rt
	if raw&0x7E000000 == 0x36000000 {
		imm14 := (raw >> 5) & 0x3FFF
		return &BranchInfo{Offset: int64(signExtend(imm14, 14)) * 4, Cond: true}
	}

	return nil
}

// decodeCall detects BL (direct) and BLR (indirect) calls.
func decodeCall(raw uint32, pc uint64) *Call {
	// BL: 100101 imm26
	if raw&0xFC000000 == 0x94000000 {
		imm26 := raw & 0x03FFFFFF
		offset := int64(signExtend(imm26, 26)) * 4
		return &Call{Target: uint64(int64(pc) + offset)}
	}
	// BLR Xn, BLRAAZ / BLRABZ Xn, BLRAA / BLRAB Xn, Xm
	if raw&0xFFFFFC1F == 0xD63F0000 || raw&0xFFFFF81F == 0xD63F081F || raw&0xFFFFF800 == 0xD73F0800 {
		return &Call{Indirect: true}
	}
	return nil
}

// classifyARM64 maps a raw encoding to a Kind and end-relative targets.
func classifyARM64(raw uint32) (Kind, []Target) {
	bi := DecodeBranch(raw)
	switch {
	case bi == nil:
		return Sequential, nil
	case bi.IsRet:
		return Terminal, nil
	case bi.Indirect != "":
		return UnconditionalBranch, []Target{Unresolved(bi.Indirect)}
	case bi.Cond:
		return ConditionalBranch, []Target{Rel(bi.Offset - arm64InstSize), FallThrough}
	default:
		return UnconditionalBranch, []Target{Rel(bi.Offset - arm64InstSize)}
	}
}

// regName names the Rn field of a register branch.
func regName(raw uint32) string {
	return fmt.Sprintf("x%d", (raw>>5)&0x1F)
}

// signExtend sign-extends a value from the given bit width to int32.
func signExtend(val uint32, bits int) int32 {
	sign := uint32(1) << (bits - 1)
	mask := sign - 1
	if val&sign != 0 {
		return int32(val | ^mask) // negative
	}
	return int32(val & mask)
}
