package output

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"discfg/internal/cfg"
)

// SaveSnapshot persists g to w using msgpack.
func SaveSnapshot(w io.Writer, g *cfg.Graph) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(g.Snapshot()); err != nil {
		return fmt.Errorf("output: encode snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot restores a graph saved by SaveSnapshot. The decoded graph is
// validated before it is returned.
func LoadSnapshot(r io.Reader) (*cfg.Graph, error) {
	var s cfg.Snapshot
	dec := msgpack.NewDecoder(r)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("output: decode snapshot: %w", err)
	}
	return cfg.Restore(s)
}

// SaveSnapshots writes the graphs of several functions to path as
// consecutive SaveSnapshot records.
func SaveSnapshots(path string, graphs []*cfg.Graph) error {
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	for i, g := range graphs {
		if err := SaveSnapshot(bw, g); err != nil {
			return fmt.Errorf("output: %s: graph %d: %w", path, i, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}
	return f.Close()
}

// LoadSnapshots reads every graph from a file written by SaveSnapshots.
func LoadSnapshots(path string) ([]*cfg.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// LoadSnapshot decodes straight from a bufio.Reader without reading
	// ahead, so records can be taken one at a time.
	br := bufio.NewReader(f)
	var graphs []*cfg.Graph
	for {
		if _, err := br.Peek(1); err == io.EOF {
			return graphs, nil
		}
		g, err := LoadSnapshot(br)
		if err != nil {
			return nil, fmt.Errorf("output: %s: graph %d: %w", path, len(graphs), err)
		}
		graphs = append(graphs, g)
	}
}
