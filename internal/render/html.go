package render

import (
	"fmt"
	"io"
	"strings"
)

// FuncSummary is one row of the index page.
type FuncSummary struct {
	Name        string
	Addr        uint64
	Insts       int
	Blocks      int
	Edges       int
	Loops       int
	Unreachable int
	Diagnostics int
}

// Index is the content of the build summary page.
type Index struct {
	Title       string
	Calls       CallgraphStats
	Funcs       []FuncSummary
	EntryPoints []string
	Reachable   int
	CFGDir      string // relative directory holding per-function DOT files; "" = none
}

// WriteIndexHTML writes a small HTML page summarizing a build.
func WriteIndexHTML(w io.Writer, idx Index) {
	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: "Helvetica Neue", Helvetica, Arial, sans-serif; font-size: 14px; color: #1A1A1A; background: #F5F5F5; margin: 2em; max-width: 900px; }
h1 { font-size: 18px; font-weight: 600; margin-bottom: 0.5em; }
h2 { font-size: 14px; font-weight: 600; margin-top: 1.5em; border-bottom: 1px solid #ddd; padding-bottom: 4px; }
table { border-collapse: collapse; margin: 0.5em 0; }
th, td { text-align: left; padding: 3px 12px 3px 0; font-size: 13px; }
th { font-weight: 600; }
td.num { text-align: right; font-variant-numeric: tabular-nums; }
a { color: #0B3D91; }
.mbar { height: 6px; border-radius: 2px; display: inline-block; vertical-align: middle; background: #0B3D91; }
.ep { font-family: "Courier New", monospace; font-size: 12px; }
.warn { color: #FC3D21; }
</style>
</head>
<body>
`, htmlEscape(idx.Title))

	fmt.Fprintf(w, "<h1>%s</h1>\n", htmlEscape(idx.Title))

	var blocks, edges, loops, diags int
	for _, f := range idx.Funcs {
		blocks += f.Blocks
		edges += f.Edges
		loops += f.Loops
		diags += f.Diagnostics
	}

	fmt.Fprintln(w, "<h2>Summary</h2>")
	fmt.Fprintln(w, "<table>")
	fmt.Fprintf(w, "<tr><td>Functions</td><td class=\"num\">%d</td></tr>\n", len(idx.Funcs))
	fmt.Fprintf(w, "<tr><td>Basic blocks</td><td class=\"num\">%d</td></tr>\n", blocks)
	fmt.Fprintf(w, "<tr><td>Block edges</td><td class=\"num\">%d</td></tr>\n", edges)
	fmt.Fprintf(w, "<tr><td>Loops</td><td class=\"num\">%d</td></tr>\n", loops)
	fmt.Fprintf(w, "<tr><td>Dropped edges</td><td class=\"num\">%d</td></tr>\n", diags)
	fmt.Fprintf(w, "<tr><td>Direct calls</td><td class=\"num\">%d</td></tr>\n", idx.Calls.DirectEdges)
	fmt.Fprintf(w, "<tr><td>Indirect calls</td><td class=\"num\">%d</td></tr>\n", idx.Calls.IndirectEdges)
	fmt.Fprintf(w, "<tr><td>Entry points</td><td class=\"num\">%d</td></tr>\n", len(idx.EntryPoints))
	fmt.Fprintf(w, "<tr><td>Reachable functions</td><td class=\"num\">%d</td></tr>\n", idx.Reachable)
	fmt.Fprintln(w, "</table>")

	if len(idx.Funcs) > 0 {
		fmt.Fprintln(w, "<h2>Functions</h2>")
		fmt.Fprintln(w, "<table>")
		fmt.Fprintln(w, "<tr><th>Function</th><th>Address</th><th>Insts</th><th>Blocks</th><th>Edges</th><th>Loops</th><th>Unreachable</th><th>Dropped</th><th></th></tr>")
		maxBlocks := 1
		for _, f := range idx.Funcs {
			maxBlocks = max(maxBlocks, f.Blocks)
		}
		for _, f := range idx.Funcs {
			name := htmlEscape(f.Name)
			if idx.CFGDir != "" {
				name = fmt.Sprintf(`<a href="%s/%s.dot">%s</a>`, idx.CFGDir, SafeFileName(f.Name), name)
			}
			dropped := fmt.Sprint(f.Diagnostics)
			if f.Diagnostics > 0 {
				dropped = fmt.Sprintf(`<span class="warn">%d</span>`, f.Diagnostics)
			}
			barW := max(2, f.Blocks*120/maxBlocks)
			fmt.Fprintf(w, "<tr><td class=\"ep\">%s</td><td class=\"ep\">0x%x</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td class=\"num\">%d</td><td class=\"num\">%s</td><td><span class=\"mbar\" style=\"width:%dpx\"></span></td></tr>\n",
				name, f.Addr, f.Insts, f.Blocks, f.Edges, f.Loops, f.Unreachable, dropped, barW)
		}
		fmt.Fprintln(w, "</table>")
	}

	if len(idx.EntryPoints) > 0 {
		fmt.Fprintln(w, "<h2>Entry Points</h2>")
		fmt.Fprintf(w, "<p>%d functions with no incoming direct calls:</p>\n", len(idx.EntryPoints))
		fmt.Fprintln(w, "<table>")
		limit := min(50, len(idx.EntryPoints))
		for _, ep := range idx.EntryPoints[:limit] {
			fmt.Fprintf(w, "<tr><td class=\"ep\">%s</td></tr>\n", htmlEscape(ep))
		}
		if len(idx.EntryPoints) > limit {
			fmt.Fprintf(w, "<tr><td>... and %d more</td></tr>\n", len(idx.EntryPoints)-limit)
		}
		fmt.Fprintln(w, "</table>")
	}

	writeNameCounts(w, "Top Callers", "Outgoing", idx.Calls.TopCallers)
	writeNameCounts(w, "Top Callees", "Incoming", idx.Calls.TopCallees)

	fmt.Fprintln(w, "</body></html>")
}

func writeNameCounts(w io.Writer, title, column string, counts []NameCount) {
	if len(counts) == 0 {
		return
	}
	fmt.Fprintf(w, "<h2>%s</h2>\n", title)
	fmt.Fprintln(w, "<table>")
	fmt.Fprintf(w, "<tr><th>Function</th><th>%s</th></tr>\n", column)
	for _, nc := range counts[:min(15, len(counts))] {
		fmt.Fprintf(w, "<tr><td>%s</td><td class=\"num\">%d</td></tr>\n", htmlEscape(nc.Name), nc.Count)
	}
	fmt.Fprintln(w, "</table>")
}

func htmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// SafeFileName converts a function name to a safe filename.
func SafeFileName(name string) string {
	r := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	s := r.Replace(name)
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		s = "_"
	}
	return s
}
