package cfg

import (
	"fmt"

	"discfg/internal/disasm"
)

// offsetIndex maps every byte offset of the stream to the index of the
// instruction covering it.
type offsetIndex struct {
	byteToInst []int32
	starts     []int64 // byte offset of each instruction
}

// newOffsetIndex builds the byte table. Sizes must already be validated.
func newOffsetIndex(insts []disasm.Inst, maxBytes int) (*offsetIndex, error) {
	var total int64
	for _, inst := range insts {
		total += int64(inst.Size)
	}
	if total > int64(maxBytes) {
		return nil, fmt.Errorf("%w: offset table of %d bytes (limit %d)", ErrAllocation, total, maxBytes)
	}

	idx := &offsetIndex{
		byteToInst: make([]int32, total),
		starts:     make([]int64, len(insts)),
	}
	var off int64
	for i, inst := range insts {
		idx.starts[i] = off
		for b := 0; b < inst.Size; b++ {
			idx.byteToInst[off] = int32(i)
			off++
		}
	}
	return idx, nil
}

func (x *offsetIndex) total() int64 { return int64(len(x.byteToInst)) }

// offset returns the byte offset of instruction i.
func (x *offsetIndex) offset(i int) int64 { return x.starts[i] }

// resolve returns the index of the instruction occupying byte off.
func (x *offsetIndex) resolve(off int64) (int, error) {
	if off < 0 || off >= x.total() {
		return 0, ErrOutOfRange
	}
	return int(x.byteToInst[off]), nil
}
