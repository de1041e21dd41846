package graph

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidNodeID is returned by [Load] when a node has an empty ID.
	// All workflow elements must have non-empty identifiers.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Load] when two input nodes share an
	// ID. Node IDs must be unique within a process.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDanglingEdge is returned by [Load] when an edge references a node
	// that is not part of the input set. A graph failing this invariant is
	// rejected outright, not silently repaired.
	ErrDanglingEdge = errors.New("edge references unknown node")
)

// DanglingEdgeError identifies the offending edge of an ErrDanglingEdge
// failure. It unwraps to ErrDanglingEdge for errors.Is checks.
type DanglingEdgeError struct {
	Edge    Edge
	Missing string // the endpoint ID that is absent from the node set
}

func (e *DanglingEdgeError) Error() string {
	return fmt.Sprintf("edge %s→%s references unknown node %q", e.Edge.Source, e.Edge.Target, e.Missing)
}

func (e *DanglingEdgeError) Unwrap() error { return ErrDanglingEdge }

// Graph is a validated, indexed snapshot of one process's nodes and edges.
// It is built once by [Load] and read-only for the remainder of its life, so
// any number of analyses may read it concurrently without synchronization.
// A fresh process load produces a new Graph instance; old snapshots stay
// valid for in-flight readers.
type Graph struct {
	nodes    map[string]Node
	order    []string            // node IDs in insertion order
	edges    []Edge              // insertion order
	outgoing map[string][]string // source ID -> target IDs, edge insertion order
	indegree map[string]int
}

// Load validates nodes and edges and builds the indexed graph.
//
// Load rejects the input with ErrInvalidNodeID or ErrDuplicateNodeID for bad
// node sets, and with a [DanglingEdgeError] when either endpoint of an edge
// is absent. An empty node set is legal and yields an empty Graph; callers
// must treat that as "nothing to display", not a failure.
func Load(nodes []Node, edges []Edge) (*Graph, error) {
	g := &Graph{
		nodes:    make(map[string]Node, len(nodes)),
		order:    make([]string, 0, len(nodes)),
		edges:    make([]Edge, 0, len(edges)),
		outgoing: make(map[string][]string),
		indegree: make(map[string]int),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, ErrInvalidNodeID
		}
		if _, exists := g.nodes[n.ID]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateNodeID, n.ID)
		}
		g.nodes[n.ID] = n
		g.order = append(g.order, n.ID)
	}

	for _, e := range edges {
		if _, ok := g.nodes[e.Source]; !ok {
			return nil, &DanglingEdgeError{Edge: e, Missing: e.Source}
		}
		if _, ok := g.nodes[e.Target]; !ok {
			return nil, &DanglingEdgeError{Edge: e, Missing: e.Target}
		}
		g.edges = append(g.edges, e)
		g.outgoing[e.Source] = append(g.outgoing[e.Source], e.Target)
		g.indegree[e.Target]++
	}

	return g, nil
}

// Nodes returns all nodes in insertion order as value copies.
func (g *Graph) Nodes() []Node {
	nodes := make([]Node, len(g.order))
	for i, id := range g.order {
		nodes[i] = g.nodes[id]
	}
	return nodes
}

// NodeIDs returns all node IDs in insertion order.
func (g *Graph) NodeIDs() []string { return slices.Clone(g.order) }

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// Node returns the node with the given ID and true, or a zero Node and false.
func (g *Graph) Node(id string) (Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Successors returns the target IDs of every edge leaving the node, in edge
// insertion order. Parallel edges yield repeated entries. The returned slice
// is a read-only view and must not be modified.
func (g *Graph) Successors(id string) []string { return g.outgoing[id] }

// InDegree returns the number of edges terminating at the node, counting
// every edge including parallel ones. Returns 0 for unknown IDs.
func (g *Graph) InDegree(id string) int { return g.indegree[id] }

// OutDegree returns the number of edges leaving the node.
func (g *Graph) OutDegree(id string) int { return len(g.outgoing[id]) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// NodesOfType returns all nodes of the given type in insertion order.
func (g *Graph) NodesOfType(t NodeType) []Node {
	var out []Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// Sources returns the layout and path-enumeration seed set: all nodes whose
// type is a process entry point (Start or Event), in insertion order.
func (g *Graph) Sources() []Node {
	var out []Node
	for _, id := range g.order {
		if n := g.nodes[id]; n.Type.IsSource() {
			out = append(out, n)
		}
	}
	return out
}
