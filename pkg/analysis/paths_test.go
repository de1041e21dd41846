package analysis

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kdreher/flowmap/pkg/graph"
)

func mustLoad(t *testing.T, nodes []graph.Node, edges []graph.Edge) *graph.Graph {
	t.Helper()
	g, err := graph.Load(nodes, edges)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return g
}

func pathString(p Path) string { return strings.Join(p.IDs(), "→") }

// Two branches of different length: Start→A→B→End and Start→C→End.
func branchedProcess(t *testing.T) *graph.Graph {
	return mustLoad(t,
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
			{Source: "c", Target: "end"},
		},
	)
}

func TestFindPaths_TwoBranches(t *testing.T) {
	g := branchedProcess(t)
	res := Finder{}.FindPaths(g)

	if res.Truncated {
		t.Error("Truncated = true, want false")
	}
	if len(res.Paths) != 2 {
		t.Fatalf("got %d paths, want 2", len(res.Paths))
	}

	lengths := map[int]bool{}
	for _, p := range res.Paths {
		lengths[len(p)] = true
	}
	if !lengths[4] || !lengths[3] {
		t.Errorf("path lengths = %v, want one of 4 and one of 3", lengths)
	}
}

func TestFindPaths_Invariants(t *testing.T) {
	g := branchedProcess(t)
	res := Finder{}.FindPaths(g)

	for _, p := range res.Paths {
		if len(p) < 1 {
			t.Fatal("empty path returned")
		}
		if !p[0].Type.IsSource() {
			t.Errorf("path %s starts at %s node", pathString(p), p[0].Type)
		}
		if !p[len(p)-1].Type.IsSink() {
			t.Errorf("path %s ends at %s node", pathString(p), p[len(p)-1].Type)
		}
		seen := map[string]bool{}
		for _, n := range p {
			if seen[n.ID] {
				t.Errorf("path %s repeats node %s", pathString(p), n.ID)
			}
			seen[n.ID] = true
		}
	}
}

func TestFindCriticalPath_LongestWins(t *testing.T) {
	g := branchedProcess(t)
	crit := Finder{}.FindCriticalPath(g)

	if got := pathString(crit); got != "start→a→b→end" {
		t.Errorf("critical path = %s, want start→a→b→end", got)
	}

	// Its length equals the max over all enumerated paths.
	res := Finder{}.FindPaths(g)
	maxLen := 0
	for _, p := range res.Paths {
		if len(p) > maxLen {
			maxLen = len(p)
		}
	}
	if len(crit) != maxLen {
		t.Errorf("critical path length = %d, want %d", len(crit), maxLen)
	}
}

func TestFindPaths_CyclicGraphTerminates(t *testing.T) {
	// start→a→b→a cycle with an exit b→end. The cycle must not recur:
	// simple paths cannot revisit a.
	g := mustLoad(t,
		[]graph.Node{
			{ID: "start", Type: graph.TypeStart},
			{ID: "a", Type: graph.TypeTask},
			{ID: "b", Type: graph.TypeTask},
			{ID: "end", Type: graph.TypeEnd},
		},
		[]graph.Edge{
			{Source: "start", Target: "a"},
			{Source: "a", Target: "b"},
			{Source: "b", Target: "a"},
			{Source: "b", Target: "end"},
		},
	)

	res := Finder{}.FindPaths(g)
	if len(res.Paths) != 1 {
		t.Fatalf("got %d paths, want 1", len(res.Paths))
	}
	if got := pathString(res.Paths[0]); got != "start→a→b→end" {
		t.Errorf("path = %s, want start→a→b→end", got)
	}
}

func TestFindPaths_SelfLoopExcluded(t *testing.T) {
	g := mustLoad(t,
		[]graph.Node{
			{ID: "start", Type: graph.TypeStart},
			{ID: "a", Type: graph.TypeTask},
			{ID: "end", Type: graph.TypeEnd},
		},
		[]graph.Edge{
			{Source: "start", Target: "a"},
			{Source: "a", Target: "a"},
			{Source: "a", Target: "end"},
		},
	)

	res := Finder{}.FindPaths(g)
	if len(res.Paths) != 1 || pathString(res.Paths[0]) != "start→a→end" {
		t.Errorf("paths = %v, want exactly start→a→end", res.Paths)
	}
}

func TestFindPaths_NoEndReachable(t *testing.T) {
	tests := []struct {
		name  string
		nodes []graph.Node
		edges []graph.Edge
	}{
		{
			name:  "SingleNode",
			nodes: []graph.Node{{ID: "only", Type: graph.TypeStart}},
		},
		{
			name: "CycleWithoutTerminals",
			nodes: []graph.Node{
				{ID: "a", Type: graph.TypeTask},
				{ID: "b", Type: graph.TypeTask},
				{ID: "c", Type: graph.TypeTask},
			},
			edges: []graph.Edge{
				{Source: "a", Target: "b"},
				{Source: "b", Target: "c"},
				{Source: "c", Target: "a"},
			},
		},
		{
			name: "EmptyGraph",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := mustLoad(t, tt.nodes, tt.edges)
			res := Finder{}.FindPaths(g)
			if len(res.Paths) != 0 {
				t.Errorf("got %d paths, want 0", len(res.Paths))
			}
			if crit := (Finder{}).FindCriticalPath(g); len(crit) != 0 {
				t.Errorf("critical path = %v, want empty", crit)
			}
		})
	}
}

func TestFindPaths_TruncatesAtMaxPaths(t *testing.T) {
	// Three stacked diamonds give 2^3 = 8 distinct Start→End paths.
	nodes := []graph.Node{{ID: "start", Type: graph.TypeStart}}
	var edges []graph.Edge
	prev := "start"
	for i := 0; i < 3; i++ {
		up := fmt.Sprintf("u%d", i)
		down := fmt.Sprintf("d%d", i)
		join := fmt.Sprintf("j%d", i)
		nodes = append(nodes,
			graph.Node{ID: up, Type: graph.TypeTask},
			graph.Node{ID: down, Type: graph.TypeTask},
			graph.Node{ID: join, Type: graph.TypeTask},
		)
		edges = append(edges,
			graph.Edge{Source: prev, Target: up},
			graph.Edge{Source: prev, Target: down},
			graph.Edge{Source: up, Target: join},
			graph.Edge{Source: down, Target: join},
		)
		prev = join
	}
	nodes = append(nodes, graph.Node{ID: "end", Type: graph.TypeEnd})
	edges = append(edges, graph.Edge{Source: prev, Target: "end"})

	g := mustLoad(t, nodes, edges)

	all := Finder{}.FindPaths(g)
	if len(all.Paths) != 8 || all.Truncated {
		t.Fatalf("uncapped: %d paths (truncated=%v), want 8 untruncated", len(all.Paths), all.Truncated)
	}

	capped := Finder{MaxPaths: 5}.FindPaths(g)
	if len(capped.Paths) != 5 {
		t.Errorf("capped: %d paths, want 5", len(capped.Paths))
	}
	if !capped.Truncated {
		t.Error("capped: Truncated = false, want true")
	}
}
