package render

import (
	"bufio"
	"fmt"
	"io"

	"discfg/internal/cfg"
)

// Dump writes the plain debugging form of g: one stanza per block in start
// order followed by a blank line.
//
//	node: 0, 0 -> 1
//	  parents:
//	  children: 1, 2,
func Dump(w io.Writer, g *cfg.Graph) error {
	bw := bufio.NewWriter(w)
	for id, b := range g.All() {
		fmt.Fprintf(bw, "node: %d, %d -> %d\n  parents:", id, b.Start, b.Last())
		for _, p := range b.Parents {
			fmt.Fprintf(bw, " %d,", p)
		}
		bw.WriteString("\n  children:")
		for _, c := range b.Children {
			fmt.Fprintf(bw, " %d,", c)
		}
		bw.WriteByte('\n')
	}
	bw.WriteByte('\n')
	return bw.Flush()
}
