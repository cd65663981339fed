package cfg

import (
	"discfg/internal/disasm"
)

// partition splits the instruction run into maximal basic blocks.
//
// A block closes at k (inclusive) when k branches out or is terminal. It
// closes at k-1 when k turns out to be a branch target; the closed block then
// falls through into k, and that edge is added to the tables.
func partition(insts []disasm.Inst, t *edgeTables) (blocks []Block, blockOf []int) {
	n := len(insts)
	blockOf = make([]int, n)
	closes := func(k int) bool {
		return len(t.succs[k]) > 0 || insts[k].Kind == disasm.Terminal
	}

	for start := 0; start < n; {
		id := len(blocks)
		last := start
		blockOf[start] = id
		if !closes(start) {
			for k := start + 1; k < n; k++ {
				if len(t.preds[k]) > 0 {
					t.add(k-1, k)
					break
				}
				last = k
				blockOf[k] = id
				if closes(k) {
					break
				}
			}
		}
		blocks = append(blocks, Block{ID: id, Start: start, Len: last - start + 1})
		start = last + 1
	}
	return blocks, blockOf
}
