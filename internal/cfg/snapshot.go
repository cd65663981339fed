package cfg

import (
	"errors"
	"fmt"
	"slices"
)

// Snapshot is the serializable form of a Graph.
type Snapshot struct {
	Name        string               `json:"name" msgpack:"name"`
	TotalBytes  int64                `json:"total_bytes" msgpack:"total_bytes"`
	Blocks      []SnapshotBlock      `json:"blocks" msgpack:"blocks"`
	Diagnostics []SnapshotDiagnostic `json:"diagnostics,omitempty" msgpack:"diagnostics,omitempty"`
}

// SnapshotBlock is one block of a Snapshot.
type SnapshotBlock struct {
	Start    int   `json:"start" msgpack:"start"`
	Len      int   `json:"len" msgpack:"len"`
	Parents  []int `json:"parents,omitempty" msgpack:"parents,omitempty"`
	Children []int `json:"children,omitempty" msgpack:"children,omitempty"`
}

// SnapshotDiagnostic is one Diagnostic of a Snapshot.
type SnapshotDiagnostic struct {
	Index  int    `json:"index" msgpack:"index"`
	Target string `json:"target" msgpack:"target"`
	Offset int64  `json:"offset,omitempty" msgpack:"offset,omitempty"`
	Kind   string `json:"kind" msgpack:"kind"` // "unresolvable" or "out_of_range"
}

const (
	diagUnresolvable = "unresolvable"
	diagOutOfRange   = "out_of_range"
)

// DiagnosticKind returns the stable name of a diagnostic's error class.
func DiagnosticKind(d Diagnostic) string {
	if errors.Is(d.Err, ErrOutOfRange) {
		return diagOutOfRange
	}
	return diagUnresolvable
}

// Snapshot captures the graph for persistence.
func (g *Graph) Snapshot() Snapshot {
	s := Snapshot{
		Name:       g.name,
		TotalBytes: g.totalBytes,
		Blocks:     make([]SnapshotBlock, len(g.blocks)),
	}
	for i, b := range g.blocks {
		b = b.clone()
		s.Blocks[i] = SnapshotBlock{Start: b.Start, Len: b.Len, Parents: b.Parents, Children: b.Children}
	}
	for _, d := range g.diags {
		s.Diagnostics = append(s.Diagnostics, SnapshotDiagnostic{
			Index:  d.Index,
			Target: d.Target,
			Offset: d.Offset,
			Kind:   DiagnosticKind(d),
		})
	}
	return s
}

// Restore rebuilds a Graph from a snapshot. Block ranges must partition
// [0, N) in order and every edge must appear on both of its ends; violations
// are reported as *InputError naming the offending block.
func Restore(s Snapshot) (*Graph, error) {
	g := &Graph{name: s.Name, totalBytes: s.TotalBytes}
	next := 0
	for i, sb := range s.Blocks {
		if sb.Len < 1 {
			return nil, &InputError{Index: i, Reason: fmt.Sprintf("block length %d", sb.Len)}
		}
		if sb.Start != next {
			return nil, &InputError{Index: i, Reason: fmt.Sprintf("block starts at %d, want %d", sb.Start, next)}
		}
		next = sb.Start + sb.Len
		for k := 0; k < sb.Len; k++ {
			g.blockOf = append(g.blockOf, i)
		}
		g.blocks = append(g.blocks, Block{
			ID:       i,
			Start:    sb.Start,
			Len:      sb.Len,
			Parents:  dedupSorted(sb.Parents),
			Children: dedupSorted(sb.Children),
		})
	}

	n := len(g.blocks)
	for _, b := range g.blocks {
		for _, p := range b.Parents {
			if p < 0 || p >= n || !contains(g.blocks[p].Children, b.ID) {
				return nil, &InputError{Index: b.ID, Reason: fmt.Sprintf("parent %d has no matching child edge", p)}
			}
		}
		for _, c := range b.Children {
			if c < 0 || c >= n || !contains(g.blocks[c].Parents, b.ID) {
				return nil, &InputError{Index: b.ID, Reason: fmt.Sprintf("child %d has no matching parent edge", c)}
			}
		}
		if len(b.Parents) == 0 {
			g.roots = append(g.roots, b.ID)
		}
	}

	for _, sd := range s.Diagnostics {
		d := Diagnostic{Index: sd.Index, Target: sd.Target, Offset: sd.Offset, Err: ErrUnresolvableTarget}
		if sd.Kind == diagOutOfRange {
			d.Err = ErrOutOfRange
		}
		g.diags = append(g.diags, d)
	}
	return g, nil
}

func dedupSorted(ids []int) []int {
	if len(ids) == 0 {
		return nil
	}
	out := append([]int(nil), ids...)
	slices.Sort(out)
	return slices.Compact(out)
}

func contains(ids []int, id int) bool {
	_, found := slices.BinarySearch(ids, id)
	return found
}
