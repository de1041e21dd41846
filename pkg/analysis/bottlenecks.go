package analysis

import (
	"sort"

	"github.com/kdreher/flowmap/pkg/graph"
)

// Bottleneck is a node with more than one incoming edge, a candidate
// convergence point where work queues up.
type Bottleneck struct {
	Node     graph.Node `json:"node"`
	InDegree int        `json:"in_degree"`
}

// FindBottlenecks ranks nodes by incoming-edge count. In-degree counts every
// edge terminating at the node, including parallel edges between the same
// pair. Only nodes with in-degree > 1 are returned, sorted descending by
// in-degree; ties keep original node insertion order (stable sort).
func FindBottlenecks(g *graph.Graph) []Bottleneck {
	var out []Bottleneck
	for _, n := range g.Nodes() {
		if d := g.InDegree(n.ID); d > 1 {
			out = append(out, Bottleneck{Node: n, InDegree: d})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InDegree > out[j].InDegree
	})
	return out
}
