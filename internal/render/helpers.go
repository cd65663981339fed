// Package render produces text dumps, Graphviz DOT and assembly listings
// from control-flow graphs.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
)

// dotEscape escapes a string for use in DOT HTML labels.
func dotEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// dotQuote escapes a string for use inside a double-quoted DOT label.
// Tabs become spaces; graphviz renders them poorly.
func dotQuote(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\t", " ")
	return s
}

// dotID creates a safe DOT identifier from a function name.
func dotID(name string) string {
	var b strings.Builder
	b.WriteString("n_")
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' {
			b.WriteRune(c)
		} else {
			fmt.Fprintf(&b, "_%04x", c)
		}
	}
	return b.String()
}

// nodeName is the DOT node of a block: n<first>_<last>.
func nodeName(b cfg.Block) string {
	return fmt.Sprintf("n%d_%d", b.Start, b.Last())
}

// Truncate shortens s to at most maxLen runes, ending in "..." when cut.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:max(maxLen-3, 0)]) + "..."
}

// Edge conditions reported by EdgeCond.
const (
	CondTaken       = "T"
	CondFallThrough = "F"
)

// EdgeCond labels the edge from block b to child c. Edges out of a
// conditional branch are CondTaken or CondFallThrough; the fall-through
// child is the one starting right after b. Everything else is "".
func EdgeCond(b, c cfg.Block, insts []disasm.Inst) string {
	if b.Last() >= len(insts) || insts[b.Last()].Kind != disasm.ConditionalBranch || len(b.Children) < 2 {
		return ""
	}
	if c.Start == b.End() {
		return CondFallThrough
	}
	return CondTaken
}
