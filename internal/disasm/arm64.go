package disasm

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"
)

// disassembleARM64 decodes fixed-width ARM64 words. Trailing bytes that do
// not form a full word are ignored.
func disassembleARM64(data []byte, opts Options) []Inst {
	maxSteps := opts.effectiveMax()
	n := len(data) / arm64InstSize
	if n > maxSteps {
		n = maxSteps
	}

	result := make([]Inst, 0, n)
	for i := 0; i < n; i++ {
		off := i * arm64InstSize
		word := data[off : off+arm64InstSize]
		raw := binary.LittleEndian.Uint32(word)
		addr := opts.BaseAddr + uint64(off)

		var mnemonic, operands, text string
		inst, err := arm64asm.Decode(word)
		if err != nil {
			mnemonic = ".word"
			operands = fmt.Sprintf("0x%08x", raw)
			text = fmt.Sprintf(".word 0x%08x", raw)
		} else {
			text = inst.String()
			mnemonic, operands = splitText(text)
		}

		kind, targets := classifyARM64(raw)
		result = append(result, Inst{
			Addr:     addr,
			Raw:      word,
			Size:     arm64InstSize,
			Mnemonic: mnemonic,
			Operands: operands,
			Text:     text,
			Kind:     kind,
			Targets:  targets,
			Call:     decodeCall(raw, addr),
		})
	}
	return result
}
