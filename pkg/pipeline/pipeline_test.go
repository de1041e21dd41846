package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kdreher/flowmap/pkg/cache"
	"github.com/kdreher/flowmap/pkg/graph"
	"github.com/kdreher/flowmap/pkg/layout"
)

// stubSource serves one fixed graph for any process id, counting calls.
type stubSource struct {
	g     *graph.Graph
	err   error
	calls int
}

func (s *stubSource) GraphData(ctx context.Context, processID string) (*graph.Graph, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.g, nil
}

// recordingCache misses every Get and records the TTL of every Set.
type recordingCache struct {
	ttls []time.Duration
}

func (c *recordingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, nil
}

func (c *recordingCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	c.ttls = append(c.ttls, ttl)
	return nil
}

func (c *recordingCache) Delete(ctx context.Context, key string) error { return nil }
func (c *recordingCache) Close() error                                 { return nil }

func testGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g, err := graph.Load(
		[]graph.Node{
			{ID: "start", Name: "Start", Type: graph.TypeStart},
			{ID: "a", Name: "Review", Type: graph.TypeTask},
			{ID: "b", Name: "Approve", Type: graph.TypeTask},
			{ID: "end", Name: "Done", Type: graph.TypeEnd},
		},
		[]graph.Edge{
			{Source: "start", Target: "a"},
			{Source: "start", Target: "b"},
			{Source: "a", Target: "end"},
			{Source: "b", Target: "end"},
		},
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return g
}

func TestOptionsValidateAndSetDefaults(t *testing.T) {
	var missing Options
	if err := missing.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error for missing process_id")
	}

	opts := Options{ProcessID: "p-1"}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults error: %v", err)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("canvas defaults = %vx%v", opts.Width, opts.Height)
	}
	if opts.MaxPaths != DefaultMaxPaths {
		t.Errorf("MaxPaths default = %d", opts.MaxPaths)
	}
	if opts.Logger == nil {
		t.Error("Logger default not applied")
	}
	if opts.Layout.HSpacing != layout.DefaultConfig().HSpacing {
		t.Errorf("Layout not normalized: %+v", opts.Layout)
	}

	// Idempotent: explicit values survive a second call.
	opts2 := Options{ProcessID: "p-1", Width: 640, Height: 480, MaxPaths: 5}
	_ = opts2.ValidateAndSetDefaults()
	_ = opts2.ValidateAndSetDefaults()
	if opts2.Width != 640 || opts2.Height != 480 || opts2.MaxPaths != 5 {
		t.Errorf("explicit options changed: %+v", opts2)
	}

	negative := Options{ProcessID: "p-1", MaxPaths: -1}
	if err := negative.ValidateAndSetDefaults(); err == nil {
		t.Error("expected error for negative max_paths")
	}
}

func TestExecute_EndToEnd(t *testing.T) {
	src := &stubSource{g: testGraph(t)}
	runner := NewRunner(src, nil, nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), Options{ProcessID: "p-1"})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if result.Stats.NodeCount != 4 || result.Stats.EdgeCount != 4 {
		t.Errorf("stats = %d nodes / %d edges, want 4/4", result.Stats.NodeCount, result.Stats.EdgeCount)
	}
	if result.GraphHash == "" {
		t.Error("GraphHash is empty")
	}
	if len(result.Layout.Positions) != 4 {
		t.Errorf("got %d positions, want 4", len(result.Layout.Positions))
	}
	if len(result.Analysis.Paths) != 2 {
		t.Errorf("got %d paths, want 2", len(result.Analysis.Paths))
	}
	if len(result.Analysis.CriticalPath) != 3 {
		t.Errorf("critical path length = %d, want 3", len(result.Analysis.CriticalPath))
	}
	if len(result.Analysis.Bottlenecks) != 1 || result.Analysis.Bottlenecks[0].Node.ID != "end" {
		t.Errorf("bottlenecks = %v, want [end]", result.Analysis.Bottlenecks)
	}
	if len(result.Analysis.ParallelBranches) != 1 {
		t.Errorf("parallel branches = %v, want one group", result.Analysis.ParallelBranches)
	}
	if result.CacheInfo.LayoutHit || result.CacheInfo.AnalysisHit {
		t.Error("first run should not hit cache")
	}
}

func TestExecute_CacheHitOnSecondRun(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	src := &stubSource{g: testGraph(t)}
	runner := NewRunner(src, fc, nil)
	defer runner.Close()

	ctx := context.Background()
	first, err := runner.Execute(ctx, Options{ProcessID: "p-1"})
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	second, err := runner.Execute(ctx, Options{ProcessID: "p-1"})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	if !second.CacheInfo.LayoutHit {
		t.Error("second run should hit layout cache")
	}
	if !second.CacheInfo.AnalysisHit {
		t.Error("second run should hit analysis cache")
	}
	if len(second.Layout.Positions) != len(first.Layout.Positions) {
		t.Errorf("cached layout has %d positions, fresh had %d",
			len(second.Layout.Positions), len(first.Layout.Positions))
	}
	if len(second.Analysis.Paths) != len(first.Analysis.Paths) {
		t.Errorf("cached analysis has %d paths, fresh had %d",
			len(second.Analysis.Paths), len(first.Analysis.Paths))
	}
}

func TestExecute_RefreshBypassesCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache error: %v", err)
	}
	src := &stubSource{g: testGraph(t)}
	runner := NewRunner(src, fc, nil)
	defer runner.Close()

	ctx := context.Background()
	if _, err := runner.Execute(ctx, Options{ProcessID: "p-1"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	refreshed, err := runner.Execute(ctx, Options{ProcessID: "p-1", Refresh: true})
	if err != nil {
		t.Fatalf("Execute(refresh) error = %v", err)
	}
	if refreshed.CacheInfo.LayoutHit || refreshed.CacheInfo.AnalysisHit {
		t.Error("refresh run must not report cache hits")
	}
}

func TestExecute_SourceError(t *testing.T) {
	wantErr := errors.New("connection refused")
	runner := NewRunner(&stubSource{err: wantErr}, nil, nil)
	defer runner.Close()

	_, err := runner.Execute(context.Background(), Options{ProcessID: "p-1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("Execute() error = %v, want wrapped %v", err, wantErr)
	}
}

func TestGraphHash_Deterministic(t *testing.T) {
	g := testGraph(t)
	if GraphHash(g) != GraphHash(g) {
		t.Error("GraphHash should be deterministic")
	}

	other, _ := graph.Load([]graph.Node{{ID: "x", Type: graph.TypeTask}}, nil)
	if GraphHash(g) == GraphHash(other) {
		t.Error("different graphs should hash differently")
	}
}

func TestExecute_ConfiguredTTLReachesCache(t *testing.T) {
	rc := &recordingCache{}
	runner := NewRunner(&stubSource{g: testGraph(t)}, rc, nil)
	runner.TTL = time.Hour
	defer runner.Close()

	if _, err := runner.Execute(context.Background(), Options{ProcessID: "p-1"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(rc.ttls) != 2 {
		t.Fatalf("got %d cache writes, want 2 (layout + analysis)", len(rc.ttls))
	}
	for i, ttl := range rc.ttls {
		if ttl != time.Hour {
			t.Errorf("Set #%d used ttl %v, want configured 1h", i, ttl)
		}
	}
}

func TestExecute_ZeroTTLUsesDefaults(t *testing.T) {
	rc := &recordingCache{}
	runner := NewRunner(&stubSource{g: testGraph(t)}, rc, nil)
	defer runner.Close()

	if _, err := runner.Execute(context.Background(), Options{ProcessID: "p-1"}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(rc.ttls) != 2 || rc.ttls[0] != TTLLayout || rc.ttls[1] != TTLAnalysis {
		t.Errorf("ttls = %v, want [%v %v]", rc.ttls, TTLLayout, TTLAnalysis)
	}
}

func TestExecute_LayoutSpacingApplied(t *testing.T) {
	runner := NewRunner(&stubSource{g: testGraph(t)}, nil, nil)
	defer runner.Close()

	opts := Options{
		ProcessID: "p-1",
		Layout:    layout.Config{MarginX: 10, HSpacing: 300},
	}
	result, err := runner.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	start := result.Layout.Positions["start"]
	if start.X != 10 {
		t.Errorf("start.X = %v, want configured margin 10", start.X)
	}
	if got := result.Layout.Positions["a"].X - start.X; got != 300 {
		t.Errorf("level spacing = %v, want configured 300", got)
	}
	// Fields left zero still get the engine defaults.
	if start.Width != layout.DefaultConfig().NodeWidth {
		t.Errorf("node width = %v, want default", start.Width)
	}
}

func TestAnalyze_CriticalPathIsLongestPath(t *testing.T) {
	// Shortcut beside a longer chain: the critical path is the chain.
	g, err := graph.Load(
		[]graph.Node{
			{ID: "start", Type: graph.TypeStart},
			{ID: "a", Type: graph.TypeTask},
			{ID: "b", Type: graph.TypeTask},
			{ID: "end", Type: graph.TypeEnd},
		},
		[]graph.Edge{
			{Source: "start", Target: "a"},
			{Source: "a", Target: "b"},
			{Source: "b", Target: "end"},
			{Source: "start", Target: "end"},
		},
	)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	an := Analyze(g, 0)
	want := []string{"start", "a", "b", "end"}
	if len(an.CriticalPath) != len(want) {
		t.Fatalf("critical path = %v, want %v", an.CriticalPath, want)
	}
	for i := range want {
		if an.CriticalPath[i] != want[i] {
			t.Fatalf("critical path = %v, want %v", an.CriticalPath, want)
		}
	}
}

func TestAnalyze_TruncationPropagates(t *testing.T) {
	g := testGraph(t)
	an := Analyze(g, 1)
	if len(an.Paths) != 1 || !an.Truncated {
		t.Errorf("Analyze(maxPaths=1) = %d paths, truncated=%v", len(an.Paths), an.Truncated)
	}
}
