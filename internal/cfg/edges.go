package cfg

import (
	"discfg/internal/disasm"
)

// edgeTables holds per-instruction predecessor and successor lists keyed by
// raw instruction index. Lists may hold duplicates; the assembler dedups.
type edgeTables struct {
	preds [][]int
	succs [][]int
}

func (t *edgeTables) add(from, to int) {
	t.preds[to] = append(t.preds[to], from)
	t.succs[from] = append(t.succs[from], to)
}

// discoverEdges resolves every branch target to an instruction index.
// A target that cannot be resolved drops only that edge and is reported.
func discoverEdges(insts []disasm.Inst, idx *offsetIndex) (*edgeTables, []Diagnostic) {
	t := &edgeTables{
		preds: make([][]int, len(insts)),
		succs: make([][]int, len(insts)),
	}
	var diags []Diagnostic

	for i, inst := range insts {
		if !inst.Kind.IsBranch() {
			continue
		}
		end := idx.offset(i) + int64(inst.Size)
		for _, tgt := range inst.Targets {
			if !tgt.Resolved {
				diags = append(diags, Diagnostic{
					Index:  i,
					Target: tgt.String(),
					Err:    ErrUnresolvableTarget,
				})
				continue
			}
			off := end + tgt.Disp
			j, err := idx.resolve(off)
			if err != nil {
				diags = append(diags, Diagnostic{
					Index:  i,
					Target: tgt.String(),
					Offset: off,
					Err:    err,
				})
				continue
			}
			t.add(i, j)
		}
	}
	return t, diags
}
