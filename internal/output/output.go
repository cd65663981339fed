// Package output writes analysis results to files: JSONL record streams,
// annotated listings, DOT graphs and msgpack graph snapshots.
package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"discfg/internal/disasm"
)

// WriteASM writes disassembled instructions to asm/<name>.txt.
// name may contain path separators for directory grouping.
func WriteASM(dir string, name string, insts []disasm.Inst, annotators ...disasm.Annotator) error {
	text := disasm.Format(insts, annotators...)
	return writeFile(filepath.Join(dir, "asm", name+".txt"), []byte(text))
}

// WriteBin writes raw instruction bytes to asm/<name>.bin so a graph can be
// rebuilt from the dump later.
func WriteBin(dir string, name string, data []byte) error {
	return writeFile(filepath.Join(dir, "asm", name+".bin"), data)
}

// WriteDOT writes a rendered graph to cfg/<name>.dot.
func WriteDOT(dir string, name string, dot string) error {
	return writeFile(filepath.Join(dir, "cfg", name+".dot"), []byte(dot))
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(path string, v any) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}

// WriteJSONL writes one JSON object per line to path.
func WriteJSONL[T any](path string, records []T) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := EncodeJSONL(f, records); err != nil {
		return fmt.Errorf("output: encode %s: %w", path, err)
	}
	return nil
}

// EncodeJSONL writes records to w, one per line.
func EncodeJSONL[T any](w io.Writer, records []T) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

// ReadJSONL reads a JSONL file written by WriteJSONL.
func ReadJSONL[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var records []T
	dec := json.NewDecoder(f)
	for dec.More() {
		var rec T
		if err := dec.Decode(&rec); err != nil {
			return records, fmt.Errorf("line %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func create(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("output: mkdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("output: create %s: %w", path, err)
	}
	return f, nil
}

func writeFile(path string, data []byte) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	_, err = f.Write(data)
	return errors.Join(err, f.Close())
}
