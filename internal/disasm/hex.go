package disasm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrInvalidHex is returned by ParseHex for a token that is not a hex byte.
var ErrInvalidHex = errors.New("disasm: invalid hex input")

// ParseHex reads whitespace-separated hexadecimal bytes ("55 48 89 e5",
// "0x55", or run-together "554889e5") and returns the decoded bytes.
func ParseHex(r io.Reader) ([]byte, error) {
	var out []byte
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		tok := strings.TrimPrefix(strings.ToLower(sc.Text()), "0x")
		tok = strings.TrimSuffix(tok, ",")
		if tok == "" {
			continue
		}
		if len(tok)%2 == 1 {
			if len(tok) != 1 {
				return nil, fmt.Errorf("%w: odd-length token %q", ErrInvalidHex, sc.Text())
			}
			tok = "0" + tok
		}
		for i := 0; i < len(tok); i += 2 {
			v, err := strconv.ParseUint(tok[i:i+2], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidHex, sc.Text())
			}
			out = append(out, byte(v))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("disasm: read hex: %w", err)
	}
	return out, nil
}
