// Package export provides the serialization boundary for workflow graphs.
//
// Two forms are supported, both pure and lossless with no analytical
// content:
//
//   - [Document]: a structured record form (nodes + edges with the same
//     field names as the loader input), used for JSON files, API responses,
//     and caching.
//   - flat tabular form: CSV with one row per node and one row per edge,
//     for spreadsheet-style reporting (see WriteNodesCSV / WriteEdgesCSV).
//
// A Document round-trips: export a loaded graph, re-load the document, and
// node count, edge count, and every field value are preserved exactly.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/kdreher/flowmap/pkg/graph"
)

// NodeRecord mirrors the loader's node input shape.
type NodeRecord struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
	Type string `json:"type" bson:"type"`
}

// EdgeRecord mirrors the loader's edge input shape.
type EdgeRecord struct {
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Label  string `json:"label,omitempty" bson:"label,omitempty"`
}

// Document is the canonical structured record form of one process graph.
type Document struct {
	ProcessID   string       `json:"process_id,omitempty" bson:"process_id,omitempty"`
	ProcessName string       `json:"process_name,omitempty" bson:"process_name,omitempty"`
	Nodes       []NodeRecord `json:"nodes" bson:"nodes"`
	Edges       []EdgeRecord `json:"edges" bson:"edges"`
}

// FromGraph converts a graph snapshot to its record form. Node and edge
// order follow the graph's insertion order for round-trip fidelity.
func FromGraph(g *graph.Graph) Document {
	doc := Document{
		Nodes: make([]NodeRecord, 0, g.NodeCount()),
		Edges: make([]EdgeRecord, 0, g.EdgeCount()),
	}
	for _, n := range g.Nodes() {
		doc.Nodes = append(doc.Nodes, NodeRecord{ID: n.ID, Name: n.Name, Type: string(n.Type)})
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeRecord{Source: e.Source, Target: e.Target, Label: e.Label})
	}
	return doc
}

// ToGraph loads a document back into a validated graph snapshot.
// It returns the same validation errors as [graph.Load].
func ToGraph(doc Document) (*graph.Graph, error) {
	nodes := make([]graph.Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		nodes[i] = graph.Node{ID: n.ID, Name: n.Name, Type: graph.NodeType(n.Type)}
	}
	edges := make([]graph.Edge, len(doc.Edges))
	for i, e := range doc.Edges {
		edges[i] = graph.Edge{Source: e.Source, Target: e.Target, Label: e.Label}
	}
	return graph.Load(nodes, edges)
}

// Marshal serializes a Document to pretty-printed JSON bytes.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes JSON bytes into a Document.
func Unmarshal(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}

// Write encodes a Document as indented JSON to w.
func Write(doc Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON Document from r.
func Read(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode: %w", err)
	}
	return doc, nil
}

// WriteFile writes a Document to a JSON file at path.
func WriteFile(doc Document, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(doc, f)
}

// ReadFile reads a Document from a JSON file at path.
func ReadFile(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
