// Package analysis answers structural questions about a workflow graph:
// which complete execution paths exist, which of them is longest (the
// critical path), where edges converge (bottlenecks), and where execution
// fans out into parallel branches.
//
// Every function here is a pure, side-effect-free read over an immutable
// [graph.Graph] snapshot. Results are value types with no references into
// the graph's internals, so they outlive the snapshot and can cross API
// boundaries freely. All functions return empty results for an empty graph;
// none of them can fail on a validated graph.
package analysis
