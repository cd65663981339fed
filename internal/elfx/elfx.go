// Package elfx provides ELF loading helpers: machine detection, section and
// function-symbol lookup, and VA → file offset translation.
package elfx

import (
	"debug/elf"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/ianlancetaylor/demangle"

	"discfg/internal/disasm"
)

var (
	ErrNotELF             = errors.New("elfx: not an ELF file")
	ErrUnsupportedMachine = errors.New("elfx: unsupported machine")
	ErrNoSection          = errors.New("elfx: section not found")
	ErrNoSymbol           = errors.New("elfx: symbol not found")
	ErrNoSegment          = errors.New("elfx: no PT_LOAD segment covers address")
	ErrSymbolNoSize       = errors.New("elfx: symbol has zero size")
)

// File wraps a debug/elf.File with convenience methods for code extraction.
type File struct {
	ELF  *elf.File
	raw  *os.File
	size int64
	arch disasm.Arch
}

// Open opens an ELF file and validates its machine is one disasm can decode.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("elfx: open: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("elfx: stat: %w", err)
	}

	ef, err := elf.NewFile(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %v", ErrNotELF, err)
	}

	arch, err := machineArch(ef)
	if err != nil {
		ef.Close()
		f.Close()
		return nil, err
	}

	return &File{ELF: ef, raw: f, size: info.Size(), arch: arch}, nil
}

func machineArch(ef *elf.File) (disasm.Arch, error) {
	switch {
	case ef.Machine == elf.EM_AARCH64 && ef.Class == elf.ELFCLASS64:
		return disasm.ARM64, nil
	case ef.Machine == elf.EM_X86_64 && ef.Class == elf.ELFCLASS64:
		return disasm.X86_64, nil
	case ef.Machine == elf.EM_386:
		return disasm.X86, nil
	}
	return 0, fmt.Errorf("%w: %v/%v", ErrUnsupportedMachine, ef.Machine, ef.Class)
}

// Close releases resources.
func (f *File) Close() error {
	err := f.ELF.Close()
	if cerr := f.raw.Close(); err == nil {
		err = cerr
	}
	return err
}

// Arch returns the instruction set of the file's machine.
func (f *File) Arch() disasm.Arch { return f.arch }

// FileSize returns the size of the underlying file.
func (f *File) FileSize() int64 { return f.size }

// Section returns the load address and contents of the named section.
func (f *File) Section(name string) (addr uint64, data []byte, err error) {
	s := f.ELF.Section(name)
	if s == nil {
		return 0, nil, fmt.Errorf("%w: %s", ErrNoSection, name)
	}
	if s.Type == elf.SHT_NOBITS {
		return 0, nil, fmt.Errorf("%w: %s has no file data", ErrNoSection, name)
	}
	data, err = s.Data()
	if err != nil {
		return 0, nil, fmt.Errorf("elfx: read %s: %w", name, err)
	}
	return s.Addr, data, nil
}

// Text returns the .text section.
func (f *File) Text() (uint64, []byte, error) {
	return f.Section(".text")
}

// Func is a sized function symbol.
type Func struct {
	Name string // demangled
	Raw  string // as stored in the symbol table
	Addr uint64
	Size uint64
}

// FuncSymbols returns the sized STT_FUNC symbols from .symtab and .dynsym,
// sorted by address. Aliases at the same address keep the first name seen,
// .symtab before .dynsym.
func (f *File) FuncSymbols() ([]Func, error) {
	var all []elf.Symbol
	syms, err := f.ELF.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("elfx: symtab: %w", err)
	}
	all = append(all, syms...)
	dyn, err := f.ELF.DynamicSymbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return nil, fmt.Errorf("elfx: dynsym: %w", err)
	}
	all = append(all, dyn...)

	seen := make(map[uint64]bool)
	var funcs []Func
	for _, s := range all {
		if elf.ST_TYPE(s.Info) != elf.STT_FUNC || s.Value == 0 || s.Size == 0 {
			continue
		}
		if s.Section == elf.SHN_UNDEF || seen[s.Value] {
			continue
		}
		seen[s.Value] = true
		name := strings.TrimSuffix(s.Name, "@plt")
		funcs = append(funcs, Func{
			Name: demangle.Filter(name),
			Raw:  s.Name,
			Addr: s.Value,
			Size: s.Size,
		})
	}
	slices.SortFunc(funcs, func(a, b Func) int {
		switch {
		case a.Addr < b.Addr:
			return -1
		case a.Addr > b.Addr:
			return 1
		}
		return 0
	})
	return funcs, nil
}

// Symbol looks up a function symbol by raw or demangled name.
// Returns the symbol's virtual address and size.
func (f *File) Symbol(name string) (addr, size uint64, err error) {
	fn, err := f.Func(name)
	if err != nil {
		return 0, 0, err
	}
	return fn.Addr, fn.Size, nil
}

// Func looks up a function symbol by raw or demangled name.
func (f *File) Func(name string) (Func, error) {
	funcs, err := f.FuncSymbols()
	if err != nil {
		return Func{}, err
	}
	for _, fn := range funcs {
		if fn.Raw == name || fn.Name == name {
			return fn, nil
		}
	}
	return Func{}, fmt.Errorf("%w: %s", ErrNoSymbol, name)
}

// FuncBytes reads the code bytes of fn.
func (f *File) FuncBytes(fn Func) ([]byte, error) {
	if fn.Size == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSymbolNoSize, fn.Name)
	}
	return f.ReadBytesAtVA(fn.Addr, int(fn.Size))
}

// Lookup returns a SymbolLookup over the file's function entry points.
func (f *File) Lookup() (disasm.SymbolLookup, error) {
	funcs, err := f.FuncSymbols()
	if err != nil {
		return nil, err
	}
	names := make(map[uint64]string, len(funcs))
	for _, fn := range funcs {
		names[fn.Addr] = fn.Name
	}
	return disasm.PlaceholderLookup(names), nil
}

// VAToFileOffset converts a virtual address to a file offset using PT_LOAD segments.
func (f *File) VAToFileOffset(va uint64) (uint64, error) {
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if va >= p.Vaddr && va < p.Vaddr+p.Memsz {
			offset := va - p.Vaddr + p.Off
			if offset >= uint64(f.size) {
				return 0, fmt.Errorf("elfx: VA 0x%x maps to offset 0x%x beyond file size 0x%x", va, offset, f.size)
			}
			return offset, nil
		}
	}
	return 0, fmt.Errorf("%w: VA 0x%x", ErrNoSegment, va)
}

// ReadAt reads bytes from the underlying file at the given file offset.
func (f *File) ReadAt(buf []byte, off int64) (int, error) {
	return f.raw.ReadAt(buf, off)
}

// ReadBytesAtVA reads n bytes starting at the given virtual address.
func (f *File) ReadBytesAtVA(va uint64, n int) ([]byte, error) {
	off, err := f.VAToFileOffset(va)
	if err != nil {
		return nil, err
	}
	// Clamp to file size.
	avail := f.size - int64(off)
	if int64(n) > avail {
		n = int(avail)
	}
	buf := make([]byte, n)
	_, err = f.raw.ReadAt(buf, int64(off))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("elfx: read at 0x%x: %w", off, err)
	}
	return buf, nil
}

// SegmentInfo describes a PT_LOAD segment.
type SegmentInfo struct {
	Vaddr  uint64
	Memsz  uint64
	Filesz uint64
	Offset uint64
	Flags  elf.ProgFlag
}

// LoadSegments returns all PT_LOAD segments.
func (f *File) LoadSegments() []SegmentInfo {
	var segs []SegmentInfo
	for _, p := range f.ELF.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		segs = append(segs, SegmentInfo{
			Vaddr:  p.Vaddr,
			Memsz:  p.Memsz,
			Filesz: p.Filesz,
			Offset: p.Off,
			Flags:  p.Flags,
		})
	}
	return segs
}

// ByteOrder returns the ELF byte order.
func (f *File) ByteOrder() binary.ByteOrder {
	return f.ELF.ByteOrder
}
