package analysis

import (
	"slices"

	"github.com/kdreher/flowmap/pkg/graph"
)

// FindParallelBranches groups the outgoing edges of every fan-out point: for
// each source node with more than one outgoing edge, it emits that node's
// target IDs in edge insertion order. Repeated targets (parallel edges) are
// kept as-is - the caller sees one entry per edge. Groups are emitted in
// source-node insertion order for deterministic output.
//
// This flags gateway and decision fan-outs, but applies to any node with
// multiple successors regardless of its type.
func FindParallelBranches(g *graph.Graph) [][]string {
	var out [][]string
	for _, id := range g.NodeIDs() {
		targets := g.Successors(id)
		if len(targets) > 1 {
			out = append(out, slices.Clone(targets))
		}
	}
	return out
}
