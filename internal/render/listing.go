package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"discfg/internal/cfg"
	"discfg/internal/disasm"
)

// ListingOptions controls Listing output.
type ListingOptions struct {
	Arch       disasm.Arch
	Color      bool // syntax-highlight for a truecolor terminal
	Style      string
	Annotators []disasm.Annotator
}

// Listing writes the instructions of g block by block. Each block starts
// with a comment header naming its range and edges.
func Listing(w io.Writer, g *cfg.Graph, insts []disasm.Inst, opts ListingOptions) error {
	if len(insts) < g.NumInsts() {
		return fmt.Errorf("render: %d instructions for a graph over %d", len(insts), g.NumInsts())
	}

	var b strings.Builder
	for id, blk := range g.All() {
		fmt.Fprintf(&b, "; block %d  [%d..%d]", id, blk.Start, blk.Last())
		if len(blk.Parents) == 0 {
			b.WriteString("  root")
		} else {
			fmt.Fprintf(&b, "  parents: %s", joinIDs(blk.Parents))
		}
		if len(blk.Children) > 0 {
			fmt.Fprintf(&b, "  children: %s", joinIDs(blk.Children))
		}
		b.WriteByte('\n')
		b.WriteString(disasm.Format(insts[blk.Start:blk.End()], opts.Annotators...))
		b.WriteByte('\n')
	}

	text := b.String()
	if opts.Color {
		colored, err := Colorize(text, opts.Arch, opts.Style)
		if err != nil {
			return err
		}
		text = colored
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(text)
	return bw.Flush()
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, ",")
}

// assemblyLexer returns the lexer for the architecture's assembly syntax,
// falling back through the generic assembler lexers.
func assemblyLexer(arch disasm.Arch) chroma.Lexer {
	candidates := []string{"gas", "nasm"}
	if arch == disasm.ARM64 {
		candidates = []string{"armasm", "gas"}
	}
	for _, name := range candidates {
		if lexer := lexers.Get(name); lexer != nil {
			return chroma.Coalesce(lexer)
		}
	}
	return nil
}

// terminalFormatter returns a high-color terminal formatter with fallback.
func terminalFormatter() chroma.Formatter {
	for _, name := range []string{"terminal16m", "terminal256"} {
		if formatter := formatters.Get(name); formatter != nil {
			return formatter
		}
	}
	return formatters.Fallback
}

// Colorize syntax-highlights assembly text for a terminal. An empty style
// selects "monokai". Text for which no lexer exists is returned unchanged.
func Colorize(code string, arch disasm.Arch, style string) (string, error) {
	lexer := assemblyLexer(arch)
	if lexer == nil {
		return code, nil
	}
	if style == "" {
		style = "monokai"
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code, fmt.Errorf("render: tokenise: %w", err)
	}
	var buf strings.Builder
	if err := terminalFormatter().Format(&buf, styles.Get(style), iterator); err != nil {
		return code, fmt.Errorf("render: format: %w", err)
	}
	return buf.String(), nil
}
