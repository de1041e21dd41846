package analysis

import (
	"github.com/kdreher/flowmap/pkg/graph"
)

// DefaultMaxPaths bounds how many complete Start→End paths FindPaths
// collects. Path enumeration is combinatorial on densely connected graphs,
// so the search is capped. Callers needing more can raise it via [Finder].
const DefaultMaxPaths = 1000

// Path is an ordered sequence of nodes with no node repeated (a simple
// path). Paths are value copies with no references into the graph.
type Path []graph.Node

// IDs returns the node IDs of the path in order.
func (p Path) IDs() []string {
	ids := make([]string, len(p))
	for i, n := range p {
		ids[i] = n.ID
	}
	return ids
}

// PathResult holds the enumerated paths plus a truncation indicator.
type PathResult struct {
	Paths []Path

	// Truncated is set when enumeration stopped accepting new paths because
	// the configured maximum was reached. This is a soft signal, not an
	// error: the paths collected so far are complete and valid.
	Truncated bool
}

// Finder enumerates simple directed paths from process entry points
// (Start/Event nodes) to End nodes. The zero value uses DefaultMaxPaths.
// A Finder is stateless and safe for concurrent use.
type Finder struct {
	// MaxPaths caps the number of completed paths; 0 means DefaultMaxPaths.
	MaxPaths int
}

// FindPaths enumerates every simple path from any Start- or Event-typed node
// to any End-typed node, following edges strictly forward in insertion
// order.
//
// The traversal is depth-first. Simplicity (no node repeated on the current
// path) makes the search correct on cyclic graphs without separate cycle
// detection: revisiting a node already on the path is disallowed, which also
// excludes self-loops. Recursion depth is implicitly capped at the node
// count, since a simple path cannot be longer than that.
func (f Finder) FindPaths(g *graph.Graph) PathResult {
	maxPaths := f.MaxPaths
	if maxPaths <= 0 {
		maxPaths = DefaultMaxPaths
	}

	var res PathResult
	if g.NodeCount() == 0 {
		return res
	}

	onPath := make(map[string]bool, g.NodeCount())
	current := make(Path, 0, g.NodeCount())

	var walk func(id string)
	walk = func(id string) {
		if res.Truncated || onPath[id] {
			return
		}
		n, ok := g.Node(id)
		if !ok {
			return
		}

		onPath[id] = true
		current = append(current, n)

		if n.Type.IsSink() {
			if len(res.Paths) < maxPaths {
				p := make(Path, len(current))
				copy(p, current)
				res.Paths = append(res.Paths, p)
			} else {
				res.Truncated = true
			}
		} else {
			for _, next := range g.Successors(id) {
				walk(next)
			}
		}

		current = current[:len(current)-1]
		onPath[id] = false
	}

	for _, src := range g.Sources() {
		walk(src.ID)
	}

	return res
}

// FindCriticalPath returns the longest path among FindPaths' results, with
// ties broken by first-found order. It returns an empty path when no
// Start→End path exists.
func (f Finder) FindCriticalPath(g *graph.Graph) Path {
	res := f.FindPaths(g)
	var longest Path
	for _, p := range res.Paths {
		if len(p) > len(longest) {
			longest = p
		}
	}
	return longest
}
