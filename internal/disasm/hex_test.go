package disasm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestParseHex(t *testing.T) {
	tests := []struct {
		in   string
		want []byte
	}{
		{"55 48 89 e5", []byte{0x55, 0x48, 0x89, 0xe5}},
		{"554889E5\n", []byte{0x55, 0x48, 0x89, 0xe5}},
		{"0x55, 0x48,\n0xc3", []byte{0x55, 0x48, 0xc3}},
		{"f", []byte{0x0f}},
		{"", nil},
	}
	for _, tc := range tests {
		got, err := ParseHex(strings.NewReader(tc.in))
		if err != nil {
			t.Errorf("ParseHex(%q): %v", tc.in, err)
			continue
		}
		if !bytes.Equal(got, tc.want) {
			t.Errorf("ParseHex(%q) = % x, want % x", tc.in, got, tc.want)
		}
	}
}

func TestParseHexInvalid(t *testing.T) {
	for _, in := range []string{"zz", "123", "55 4g"} {
		if _, err := ParseHex(strings.NewReader(in)); !errors.Is(err, ErrInvalidHex) {
			t.Errorf("ParseHex(%q) err = %v, want ErrInvalidHex", in, err)
		}
	}
}
