package cfg

import "slices"

// assemble links blocks through the instruction-level edge tables. Parent
// edges come from the block's first instruction, child edges from its last.
// Duplicate edges collapse: presence is boolean.
func assemble(blocks []Block, blockOf []int, t *edgeTables) (roots []int) {
	seenParent := make([]int, len(blocks))
	seenChild := make([]int, len(blocks))

	for i := range blocks {
		b := &blocks[i]
		stamp := i + 1

		for _, p := range t.preds[b.Start] {
			pb := blockOf[p]
			if seenParent[pb] != stamp {
				seenParent[pb] = stamp
				b.Parents = append(b.Parents, pb)
			}
		}
		for _, c := range t.succs[b.Last()] {
			cb := blockOf[c]
			if seenChild[cb] != stamp {
				seenChild[cb] = stamp
				b.Children = append(b.Children, cb)
			}
		}
		slices.Sort(b.Parents)
		slices.Sort(b.Children)

		if len(b.Parents) == 0 {
			roots = append(roots, b.ID)
		}
	}
	return roots
}
