package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// WriteNodesCSV writes one header row plus one row per node (id, name, type).
func WriteNodesCSV(doc Document, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "name", "type"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, n := range doc.Nodes {
		if err := cw.Write([]string{n.ID, n.Name, n.Type}); err != nil {
			return fmt.Errorf("write node %s: %w", n.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdgesCSV writes one header row plus one row per edge (source, target, label).
func WriteEdgesCSV(doc Document, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"source", "target", "label"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, e := range doc.Edges {
		if err := cw.Write([]string{e.Source, e.Target, e.Label}); err != nil {
			return fmt.Errorf("write edge %s->%s: %w", e.Source, e.Target, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes the node table, a blank separator line, then the edge table.
// This is the single-file report form used by the CLI and HTTP exports.
func WriteCSV(doc Document, w io.Writer) error {
	if err := WriteNodesCSV(doc, w); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	return WriteEdgesCSV(doc, w)
}

// WriteCSVFile writes the combined CSV report to a file at path.
func WriteCSVFile(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return WriteCSV(doc, f)
}
