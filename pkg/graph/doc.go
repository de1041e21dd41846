// Package graph owns the validated, indexed in-memory representation of one
// workflow process: typed nodes, directed labeled edges, and a precomputed
// adjacency index.
//
// # Overview
//
// A [Graph] is built once per process load via [Load] and is immutable for
// the remainder of its life. Every analytical component (layout, path
// finding, bottleneck detection, branch detection) is a pure read over the
// same snapshot, so analyses can run concurrently without locking. Loading a
// process again produces a new Graph; readers of the old snapshot never
// observe a mixed state.
//
// # Validation
//
// Load is the single place where structural failures surface:
//
//   - duplicate node IDs are rejected with [ErrDuplicateNodeID]
//   - edges whose endpoints are not in the node set are rejected with a
//     [DanglingEdgeError]
//
// A structurally valid Graph never causes a downstream component to fail;
// an empty node set is a valid (empty) Graph, and every component returns
// empty results for it.
//
// # Ordering
//
// Node insertion order and edge insertion order are preserved and exposed.
// Downstream components rely on this for deterministic output: the layout
// engine's fallback seed, tie-breaking in bottleneck ranking, and branch
// group ordering are all defined in terms of insertion order.
package graph
