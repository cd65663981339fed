// Package cfg partitions a linear instruction sequence into maximal basic
// blocks and links them into a control-flow graph.
//
// Build makes two passes over the instructions: edge discovery resolves every
// relative branch target to an instruction index, then the partitioner splits
// the run into blocks, after which the assembler links blocks by ID. Blocks
// live in one table and refer to each other by index, so graphs with cycles
// carry no ownership cycles. A finished Graph is immutable and safe for
// concurrent readers.
package cfg

import (
	"fmt"
	"iter"
	"slices"

	"discfg/internal/disasm"
)

// DefaultMaxBytes bounds the byte → instruction table when Options.MaxBytes is 0.
const DefaultMaxBytes = 64 << 20

// Options controls graph construction.
type Options struct {
	MaxBytes int // upper bound on total stream bytes; 0 = DefaultMaxBytes
}

func (o Options) maxBytes() int {
	if o.MaxBytes > 0 {
		return o.MaxBytes
	}
	return DefaultMaxBytes
}

// Block is a maximal run of instructions entered only at Start and left only
// at Last. Parents and Children are block IDs, sorted and unique.
type Block struct {
	ID       int
	Start    int // first instruction index
	Len      int // number of instructions, >= 1
	Parents  []int
	Children []int
}

// Last returns the index of the block's final instruction.
func (b Block) Last() int { return b.Start + b.Len - 1 }

// End returns the index one past the block's final instruction.
func (b Block) End() int { return b.Start + b.Len }

// Contains reports whether instruction index i lies in the block.
func (b Block) Contains(i int) bool { return i >= b.Start && i < b.End() }

func (b Block) clone() Block {
	b.Parents = slices.Clone(b.Parents)
	b.Children = slices.Clone(b.Children)
	return b
}

// Edge is one parent → child relation between blocks.
type Edge struct {
	From, To int
}

// Graph is a finished control-flow graph.
type Graph struct {
	name       string
	blocks     []Block
	roots      []int
	blockOf    []int
	diags      []Diagnostic
	totalBytes int64
}

// Build constructs the control-flow graph of insts. Unresolvable or
// out-of-range branch targets drop one edge each and are reported through
// Graph.Diagnostics. A zero-size instruction aborts with an *InputError;
// exceeding Options.MaxBytes aborts with ErrAllocation.
func Build(name string, insts []disasm.Inst, opts Options) (*Graph, error) {
	for i, inst := range insts {
		if inst.Size <= 0 {
			return nil, &InputError{Index: i, Reason: fmt.Sprintf("instruction size %d", inst.Size)}
		}
	}

	g := &Graph{name: name}
	if len(insts) == 0 {
		return g, nil
	}

	idx, err := newOffsetIndex(insts, opts.maxBytes())
	if err != nil {
		return nil, err
	}
	g.totalBytes = idx.total()

	tables, diags := discoverEdges(insts, idx)
	g.diags = diags
	g.blocks, g.blockOf = partition(insts, tables)
	g.roots = assemble(g.blocks, g.blockOf, tables)
	return g, nil
}

// Name returns the label the graph was built with.
func (g *Graph) Name() string { return g.name }

// Len returns the number of blocks.
func (g *Graph) Len() int { return len(g.blocks) }

// NumInsts returns the number of instructions covered by the graph.
func (g *Graph) NumInsts() int { return len(g.blockOf) }

// TotalBytes returns the byte length of the instruction stream.
func (g *Graph) TotalBytes() int64 { return g.totalBytes }

// Block returns a copy of block id. It panics if id is out of range.
func (g *Graph) Block(id int) Block { return g.blocks[id].clone() }

// Blocks returns copies of all blocks in start order.
func (g *Graph) Blocks() []Block {
	out := make([]Block, len(g.blocks))
	for i, b := range g.blocks {
		out[i] = b.clone()
	}
	return out
}

// All iterates blocks in start order, yielding copies.
func (g *Graph) All() iter.Seq2[int, Block] {
	return func(yield func(int, Block) bool) {
		for i := range g.blocks {
			if !yield(i, g.blocks[i].clone()) {
				return
			}
		}
	}
}

// Roots returns the IDs of blocks with no parents.
func (g *Graph) Roots() []int { return slices.Clone(g.roots) }

// IsRoot reports whether block id has no parents.
func (g *Graph) IsRoot(id int) bool { return len(g.blocks[id].Parents) == 0 }

// Parents returns the parent block IDs of block id.
func (g *Graph) Parents(id int) []int { return slices.Clone(g.blocks[id].Parents) }

// Children returns the child block IDs of block id.
func (g *Graph) Children(id int) []int { return slices.Clone(g.blocks[id].Children) }

// BlockOf returns the ID of the block owning instruction index i.
func (g *Graph) BlockOf(i int) (int, bool) {
	if i < 0 || i >= len(g.blockOf) {
		return 0, false
	}
	return g.blockOf[i], true
}

// Edges returns every parent → child pair, ordered by From then To.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	for _, b := range g.blocks {
		for _, c := range b.Children {
			edges = append(edges, Edge{From: b.ID, To: c})
		}
	}
	return edges
}

// Diagnostics returns the dropped-edge reports collected during Build.
func (g *Graph) Diagnostics() []Diagnostic { return slices.Clone(g.diags) }
