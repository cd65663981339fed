package disasm

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"
)

func TestDisassembleNOP(t *testing.T) {
	// ARM64 NOP = 0xd503201f
	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], 0xd503201f)
	binary.LittleEndian.PutUint32(data[4:8], 0xd503201f)

	insts := Disassemble(data, Options{BaseAddr: 0x1000})
	if len(insts) != 2 {
		t.Fatalf("got %d instructions, want 2", len(insts))
	}
	if insts[0].Addr != 0x1000 {
		t.Errorf("addr[0] = 0x%x, want 0x1000", insts[0].Addr)
	}
	if insts[1].Addr != 0x1004 {
		t.Errorf("addr[1] = 0x%x, want 0x1004", insts[1].Addr)
	}
	if !strings.Contains(strings.ToLower(insts[0].Text), "nop") {
		t.Errorf("expected NOP, got: %s", insts[0].Text)
	}
	if insts[0].Size != 4 || insts[0].Kind != Sequential {
		t.Errorf("size/kind = %d/%v, want 4/seq", insts[0].Size, insts[0].Kind)
	}
	if insts[0].Word() != 0xd503201f {
		t.Errorf("word = 0x%08x", insts[0].Word())
	}
}

func TestDisassembleARM64Branches(t *testing.T) {
	// 0: B.EQ +8 → 8
	// 4: NOP
	// 8: B -8    → 0
	// c: RET
	data := make([]byte, 16)
	binary.LittleEndian.PutUint32(data[0:], 0x54000000|(2<<5))
	binary.LittleEndian.PutUint32(data[4:], 0xd503201f)
	binary.LittleEndian.PutUint32(data[8:], 0x14000000|(0x03FFFFFF-1))
	binary.LittleEndian.PutUint32(data[12:], 0xd65f03c0)

	insts := Disassemble(data, Options{})
	want := []Kind{ConditionalBranch, Sequential, UnconditionalBranch, Terminal}
	for i, k := range want {
		if insts[i].Kind != k {
			t.Errorf("inst[%d] kind = %v, want %v", i, insts[i].Kind, k)
		}
	}
	// Targets are relative to the end of the instruction.
	if got := insts[0].Targets[0]; got != Rel(4) {
		t.Errorf("b.eq target = %+v, want +4", got)
	}
	if got := insts[2].Targets[0]; got != Rel(-12) {
		t.Errorf("b target = %+v, want -12", got)
	}
}

func TestDisassembleZeroWord(t *testing.T) {
	insts := Disassemble([]byte{0, 0, 0, 0}, Options{})
	if len(insts) != 1 {
		t.Fatalf("got %d instructions, want 1", len(insts))
	}
	if insts[0].Size != 4 || insts[0].Kind != Sequential {
		t.Errorf("got %+v", insts[0])
	}
}

func TestDisassembleMaxSteps(t *testing.T) {
	// 100 NOPs but max 10.
	data := make([]byte, 400)
	for i := 0; i < 100; i++ {
		binary.LittleEndian.PutUint32(data[i*4:], 0xd503201f)
	}

	insts := Disassemble(data, Options{MaxSteps: 10})
	if len(insts) != 10 {
		t.Fatalf("got %d instructions, want 10", len(insts))
	}
}

func TestDisassembleEmpty(t *testing.T) {
	insts := Disassemble(nil, Options{})
	if len(insts) != 0 {
		t.Fatalf("got %d instructions for nil data", len(insts))
	}
}

func TestDisassembleShort(t *testing.T) {
	// Less than 4 bytes.
	insts := Disassemble([]byte{0x01, 0x02}, Options{})
	if len(insts) != 0 {
		t.Fatalf("got %d instructions for 2 bytes", len(insts))
	}
}

func TestFormat(t *testing.T) {
	data := make([]byte, 4)
	binary.LittleEndian.PutUint32(data, 0xd503201f)
	insts := Disassemble(data, Options{BaseAddr: 0x1000})

	syms := map[uint64]string{0x1000: "nop_func"}
	text := Format(insts, SymbolAnnotator(PlaceholderLookup(syms)))
	if !strings.Contains(text, "0x00001000") {
		t.Errorf("missing address in output: %s", text)
	}
	if !strings.Contains(text, "1f 20 03 d5") {
		t.Errorf("missing raw bytes in output: %s", text)
	}
	if !strings.Contains(text, "; <nop_func>") {
		t.Errorf("missing symbol in output: %s", text)
	}
}

func TestFormatDeterministic(t *testing.T) {
	data := make([]byte, 20)
	for i := 0; i < 5; i++ {
		binary.LittleEndian.PutUint32(data[i*4:], 0xd503201f)
	}
	insts := Disassemble(data, Options{BaseAddr: 0x2000})
	out1 := Format(insts)
	out2 := Format(insts)
	if out1 != out2 {
		t.Error("non-deterministic output")
	}
	if strings.Contains(out1, ";") {
		t.Errorf("unexpected annotation without annotators: %s", out1)
	}
}

func TestParseArch(t *testing.T) {
	tests := []struct {
		in   string
		want Arch
	}{
		{"arm64", ARM64},
		{"AArch64", ARM64},
		{"x86_64", X86_64},
		{"amd64", X86_64},
		{"i386", X86},
		{"x86", X86},
	}
	for _, tc := range tests {
		got, err := ParseArch(tc.in)
		if err != nil || got != tc.want {
			t.Errorf("ParseArch(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
	if _, err := ParseArch("mips"); !errors.Is(err, ErrUnknownArch) {
		t.Errorf("ParseArch(mips) err = %v, want ErrUnknownArch", err)
	}
}

func TestTargetString(t *testing.T) {
	tests := []struct {
		t    Target
		want string
	}{
		{Rel(5), "+5"},
		{Rel(-3), "-3"},
		{FallThrough, "+0"},
		{Unresolved("*%rax"), "*%rax"},
		{Unresolved(""), "<indirect>"},
	}
	for _, tc := range tests {
		if got := tc.t.String(); got != tc.want {
			t.Errorf("String(%+v) = %q, want %q", tc.t, got, tc.want)
		}
	}
}
