package cfg

import (
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"discfg/internal/disasm"
)

// randomStream generates a mix of sequential, branch, terminal and
// unresolvable instructions. Displacements may point outside the stream.
// It also returns the number of targets that must be dropped.
func randomStream(r *rand.Rand, n int) ([]disasm.Inst, int) {
	insts := make([]disasm.Inst, n)
	for i := range insts {
		size := 1 + r.IntN(4)
		switch r.IntN(10) {
		case 0, 1:
			insts[i] = jmp(size, int64(r.IntN(4*n)-2*n))
		case 2, 3:
			insts[i] = jcc(size, int64(r.IntN(4*n)-2*n))
		case 4:
			insts[i] = ret(size)
		case 5:
			insts[i] = jmpIndirect(size, "*%rax")
		default:
			insts[i] = seq(size)
		}
	}

	// Count dropped targets independently of the builder.
	var total int64
	offsets := make([]int64, n)
	for i, inst := range insts {
		offsets[i] = total
		total += int64(inst.Size)
	}
	dropped := 0
	for i, inst := range insts {
		if !inst.Kind.IsBranch() {
			continue
		}
		for _, tgt := range inst.Targets {
			off := offsets[i] + int64(inst.Size) + tgt.Disp
			if !tgt.Resolved || off < 0 || off >= total {
				dropped++
			}
		}
	}
	return insts, dropped
}

// boundaries computes, independently of the builder, which instructions
// must end a block (a recorded outgoing edge or Terminal) and which must
// start one (the target of a recorded edge).
func boundaries(insts []disasm.Inst) (closes, targeted []bool) {
	var total int64
	offsets := make([]int64, len(insts))
	for i, inst := range insts {
		offsets[i] = total
		total += int64(inst.Size)
	}
	covering := func(off int64) int {
		j, found := slices.BinarySearch(offsets, off)
		if !found {
			j--
		}
		return j
	}

	closes = make([]bool, len(insts))
	targeted = make([]bool, len(insts))
	for i, inst := range insts {
		if inst.Kind == disasm.Terminal {
			closes[i] = true
		}
		if !inst.Kind.IsBranch() {
			continue
		}
		for _, tgt := range inst.Targets {
			off := offsets[i] + int64(inst.Size) + tgt.Disp
			if !tgt.Resolved || off < 0 || off >= total {
				continue
			}
			closes[i] = true
			targeted[covering(off)] = true
		}
	}
	return closes, targeted
}

func TestBuild_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(0x5eed, 0xcf9))
	for iter := 0; iter < 300; iter++ {
		n := 1 + r.IntN(40)
		insts, dropped := randomStream(r, n)

		g, err := Build("prop", insts, Options{})
		if err != nil {
			t.Fatalf("iter %d: Build: %v", iter, err)
		}

		// Partition law: contiguous, ordered, covering [0, n).
		next := 0
		for id, b := range g.All() {
			if b.ID != id {
				t.Fatalf("iter %d: block %d has ID %d", iter, id, b.ID)
			}
			if b.Start != next || b.Len < 1 {
				t.Fatalf("iter %d: block %d = [%d,+%d), want start %d", iter, id, b.Start, b.Len, next)
			}
			for i := b.Start; i < b.End(); i++ {
				if owner, _ := g.BlockOf(i); owner != id {
					t.Fatalf("iter %d: BlockOf(%d) = %d, want %d", iter, i, owner, id)
				}
			}
			next = b.End()
		}
		if next != n {
			t.Fatalf("iter %d: blocks cover [0,%d), want [0,%d)", iter, next, n)
		}

		// Maximality: a block ends exactly where an instruction closes it or
		// where the next instruction is a branch target.
		closes, targeted := boundaries(insts)
		for id, b := range g.All() {
			for i := b.Start; i < b.Last(); i++ {
				if closes[i] {
					t.Fatalf("iter %d: block %d runs past closing instruction %d", iter, id, i)
				}
				if targeted[i+1] {
					t.Fatalf("iter %d: block %d runs over branch target %d", iter, id, i+1)
				}
			}
			if b.End() < n && !closes[b.Last()] && !targeted[b.End()] {
				t.Fatalf("iter %d: block %d split at %d without cause", iter, id, b.End())
			}
		}

		// Root law and edge symmetry.
		var roots []int
		for id, b := range g.All() {
			if len(b.Parents) == 0 {
				roots = append(roots, id)
			}
			for _, p := range b.Parents {
				if !slices.Contains(g.Children(p), id) {
					t.Fatalf("iter %d: block %d lists parent %d without matching child", iter, id, p)
				}
			}
			for _, c := range b.Children {
				if !slices.Contains(g.Parents(c), id) {
					t.Fatalf("iter %d: block %d lists child %d without matching parent", iter, id, c)
				}
			}
			if !slices.IsSorted(b.Parents) || len(slices.Compact(slices.Clone(b.Parents))) != len(b.Parents) {
				t.Fatalf("iter %d: block %d parents not a sorted set: %v", iter, id, b.Parents)
			}
		}
		if !slices.Equal(roots, g.Roots()) {
			t.Fatalf("iter %d: roots = %v, want %v", iter, g.Roots(), roots)
		}

		// Dangling-edge tolerance: exactly one diagnostic per dropped target.
		if len(g.Diagnostics()) != dropped {
			t.Fatalf("iter %d: diagnostics = %d, want %d", iter, len(g.Diagnostics()), dropped)
		}

		// Determinism.
		again, err := Build("prop", insts, Options{})
		if err != nil {
			t.Fatalf("iter %d: rebuild: %v", iter, err)
		}
		if !reflect.DeepEqual(g.Blocks(), again.Blocks()) || !slices.Equal(g.Roots(), again.Roots()) {
			t.Fatalf("iter %d: rebuild produced a different graph", iter)
		}
	}
}

func TestSnapshot_RestoreRoundTrip(t *testing.T) {
	g := mustBuild(t, []disasm.Inst{seq(1), jcc(1, 1), seq(1), ret(1), jmp(1, 50)})

	r, err := Restore(g.Snapshot())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !reflect.DeepEqual(g.Blocks(), r.Blocks()) {
		t.Errorf("blocks differ after restore:\n got %+v\nwant %+v", r.Blocks(), g.Blocks())
	}
	if !slices.Equal(g.Roots(), r.Roots()) {
		t.Errorf("roots = %v, want %v", r.Roots(), g.Roots())
	}
	if len(r.Diagnostics()) != 1 || DiagnosticKind(r.Diagnostics()[0]) != "out_of_range" {
		t.Errorf("diagnostics = %+v", r.Diagnostics())
	}
	if r.TotalBytes() != g.TotalBytes() || r.Name() != g.Name() {
		t.Errorf("header = %q/%d, want %q/%d", r.Name(), r.TotalBytes(), g.Name(), g.TotalBytes())
	}
}

func TestSnapshot_RestoreRejectsBrokenPartition(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		idx  int
	}{
		{
			name: "gap",
			snap: Snapshot{Blocks: []SnapshotBlock{{Start: 0, Len: 1}, {Start: 2, Len: 1}}},
			idx:  1,
		},
		{
			name: "empty block",
			snap: Snapshot{Blocks: []SnapshotBlock{{Start: 0, Len: 0}}},
			idx:  0,
		},
		{
			name: "asymmetric edge",
			snap: Snapshot{Blocks: []SnapshotBlock{{Start: 0, Len: 1, Children: []int{1}}, {Start: 1, Len: 1}}},
			idx:  0,
		},
		{
			name: "edge out of range",
			snap: Snapshot{Blocks: []SnapshotBlock{{Start: 0, Len: 1, Parents: []int{3}}}},
			idx:  0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Restore(tc.snap)
			ie, ok := err.(*InputError)
			if !ok {
				t.Fatalf("err = %v, want *InputError", err)
			}
			if ie.Index != tc.idx {
				t.Errorf("index = %d, want %d", ie.Index, tc.idx)
			}
		})
	}
}
