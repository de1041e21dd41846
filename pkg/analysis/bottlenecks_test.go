package analysis

import (
	"testing"

	"github.com/kdreher/flowmap/pkg/graph"
)

func TestFindBottlenecks_ConvergencePoint(t *testing.T) {
	// Start→A, Start→B, A→C, B→C, C→End: C is the only convergence point.
	g := mustLoad(t,
		[]graph.Node{
			{ID: "start", Type: graph.TypeStart},
			{ID: "a", Type: graph.TypeTask},
			{ID: "b", Type: graph.TypeTask},
			{ID: "c", Type: graph.TypeTask},
			{ID: "end", Type: graph.TypeEnd},
		},
		[]graph.Edge{
			{Source: "start", Target: "a"},
			{Source: "start", Target: "b"},
			{Source: "a", Target: "c"},
			{Source: "b", Target: "c"},
			{Source: "c", Target: "end"},
		},
	)

	got := FindBottlenecks(g)
	if len(got) != 1 {
		t.Fatalf("got %d bottlenecks, want 1", len(got))
	}
	if got[0].Node.ID != "c" || got[0].InDegree != 2 {
		t.Errorf("bottleneck = {%s, %d}, want {c, 2}", got[0].Node.ID, got[0].InDegree)
	}
}

func TestFindBottlenecks_NoneBelowThreshold(t *testing.T) {
	// Linear flow plus a second branch: every node has in-degree ≤ 1.
	g := mustLoad(t,
		[]graph.Node{
			{ID: "start", Type: graph.TypeStart},
			{ID: "a", Type: graph.TypeTask},
			{ID: "b", Type: graph.TypeTask},
			{ID: "c", Type: graph.TypeTask},
			{ID: "end", Type: graph.TypeEnd},
		},
		[]graph.Edge{
			{Source: "start", Target: "a"},
			{Source: "a", Target: "b"},
			{Source: "b", Target: "end"},
			{Source: "start", Target: "c"},
		},
	)

	if got := FindBottlenecks(g); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestFindBottlenecks_SortedDescendingStable(t *testing.T) {
	// x has in-degree 3, y and z each 2; y precedes z in insertion order and
	// must stay ahead after the stable sort.
	g := mustLoad(t,
		[]graph.Node{
			{ID: "y", Type: graph.TypeTask},
			{ID: "z", Type: graph.TypeTask},
			{ID: "x", Type: graph.TypeTask},
			{ID: "s1", Type: graph.TypeStart},
			{ID: "s2", Type: graph.TypeStart},
			{ID: "s3", Type: graph.TypeStart},
		},
		[]graph.Edge{
			{Source: "s1", Target: "x"},
			{Source: "s2", Target: "x"},
			{Source: "s3", Target: "x"},
			{Source: "s1", Target: "y"},
			{Source: "s2", Target: "y"},
			{Source: "s1", Target: "z"},
			{Source: "s2", Target: "z"},
		},
	)

	got := FindBottlenecks(g)
	want := []struct {
		id     string
		degree int
	}{{"x", 3}, {"y", 2}, {"z", 2}}

	if len(got) != len(want) {
		t.Fatalf("got %d bottlenecks, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Node.ID != w.id || got[i].InDegree != w.degree {
			t.Errorf("bottleneck[%d] = {%s, %d}, want {%s, %d}",
				i, got[i].Node.ID, got[i].InDegree, w.id, w.degree)
		}
	}
}

func TestFindBottlenecks_ParallelEdgesCount(t *testing.T) {
	g := mustLoad(t,
		[]graph.Node{
			{ID: "a", Type: graph.TypeTask},
			{ID: "b", Type: graph.TypeTask},
		},
		[]graph.Edge{
			{Source: "a", Target: "b", Label: "yes"},
			{Source: "a", Target: "b", Label: "no"},
		},
	)

	got := FindBottlenecks(g)
	if len(got) != 1 || got[0].Node.ID != "b" || got[0].InDegree != 2 {
		t.Errorf("got %v, want [{b 2}]", got)
	}
}

func TestFindBottlenecks_EmptyGraph(t *testing.T) {
	g := mustLoad(t, nil, nil)
	if got := FindBottlenecks(g); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}
