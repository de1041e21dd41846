package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kdreher/flowmap/pkg/analysis"
	"github.com/kdreher/flowmap/pkg/cache"
	"github.com/kdreher/flowmap/pkg/export"
	"github.com/kdreher/flowmap/pkg/graph"
	"github.com/kdreher/flowmap/pkg/layout"
	"github.com/kdreher/flowmap/pkg/observability"
)

// Source loads process graphs by id. The Neo4j store implements this;
// tests substitute an in-memory stub.
type Source interface {
	GraphData(ctx context.Context, processID string) (*graph.Graph, error)
}

// Runner encapsulates pipeline execution with caching.
// CLI, API, and TUI all use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the source, cache, and logger - it
// doesn't store pipeline results. Multiple goroutines can safely use the
// same Runner with different options.
type Runner struct {
	Source Source
	Cache  cache.Cache
	Logger *log.Logger

	// TTL bounds how long cached results are served. Zero falls back to the
	// per-kind package defaults (TTLLayout, TTLAnalysis).
	TTL time.Duration
}

// NewRunner creates a runner backed by the given source.
// If c is nil, a NullCache is used (caching disabled).
func NewRunner(source Source, c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Source: source,
		Cache:  c,
		Logger: logger,
	}
}

// Execute runs the complete load → layout → analyze pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	observability.Pipeline().OnLoadStart(ctx, opts.ProcessID)
	g, err := r.Source.GraphData(ctx, opts.ProcessID)
	result.Stats.LoadTime = time.Since(loadStart)
	if err != nil {
		observability.Pipeline().OnLoadComplete(ctx, opts.ProcessID, 0, result.Stats.LoadTime, err)
		return nil, fmt.Errorf("load: %w", err)
	}
	observability.Pipeline().OnLoadComplete(ctx, opts.ProcessID, g.NodeCount(), result.Stats.LoadTime, nil)

	result.Graph = g
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.GraphHash = GraphHash(g)

	opts.Logger.Info("loaded process",
		"process", opts.ProcessID,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"duration", result.Stats.LoadTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	observability.Pipeline().OnLayoutStart(ctx, opts.ProcessID, g.NodeCount())
	lay, layoutHit, err := r.LayoutWithCacheInfo(ctx, g, result.GraphHash, opts)
	result.Stats.LayoutTime = time.Since(layoutStart)
	observability.Pipeline().OnLayoutComplete(ctx, opts.ProcessID, result.Stats.LayoutTime, err)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	result.Layout = lay
	result.CacheInfo.LayoutHit = layoutHit

	opts.Logger.Info("computed layout",
		"positions", len(lay.Positions),
		"cached", layoutHit,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Analysis
	analysisStart := time.Now()
	observability.Pipeline().OnAnalysisStart(ctx, opts.ProcessID)
	an, analysisHit, err := r.AnalyzeWithCacheInfo(ctx, g, result.GraphHash, opts)
	result.Stats.AnalysisTime = time.Since(analysisStart)
	observability.Pipeline().OnAnalysisComplete(ctx, opts.ProcessID, len(an.Paths), result.Stats.AnalysisTime, err)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	result.Analysis = an
	result.CacheInfo.AnalysisHit = analysisHit

	opts.Logger.Info("analyzed process",
		"paths", len(an.Paths),
		"bottlenecks", len(an.Bottlenecks),
		"cached", analysisHit,
		"duration", result.Stats.AnalysisTime)

	return result, nil
}

// LayoutWithCacheInfo computes a layout with caching and returns cache hit info.
func (r *Runner) LayoutWithCacheInfo(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (layout.Result, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return layout.Result{}, false, err
	}

	cacheKey := cache.LayoutKey(graphHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached layout.Result
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "layout")
				return cached, true, nil
			}
			// Fall through to recompute on a corrupt entry.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	engine := layout.New(opts.Layout)
	result := engine.Calculate(g, opts.Width, opts.Height)

	if data, err := json.Marshal(result); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, r.ttl(TTLLayout))
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return result, false, nil
}

// AnalyzeWithCacheInfo runs path and structure analysis with caching.
func (r *Runner) AnalyzeWithCacheInfo(ctx context.Context, g *graph.Graph, graphHash string, opts Options) (Analysis, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return Analysis{}, false, err
	}

	cacheKey := cache.AnalysisKey(graphHash, opts.AnalysisKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var cached Analysis
			if err := json.Unmarshal(data, &cached); err == nil {
				observability.Cache().OnCacheHit(ctx, "analysis")
				return cached, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "analysis")
	}

	result := Analyze(g, opts.MaxPaths)

	if data, err := json.Marshal(result); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, r.ttl(TTLAnalysis))
		observability.Cache().OnCacheSet(ctx, "analysis", len(data))
	}

	return result, false, nil
}

// Analyze runs every analysis over a graph and bundles the serializable form.
// The critical path is taken from the single path enumeration, so paths are
// walked once per call.
func Analyze(g *graph.Graph, maxPaths int) Analysis {
	finder := analysis.Finder{MaxPaths: maxPaths}
	paths := finder.FindPaths(g)

	an := Analysis{
		Paths:            make([][]string, 0, len(paths.Paths)),
		Truncated:        paths.Truncated,
		Bottlenecks:      analysis.FindBottlenecks(g),
		ParallelBranches: analysis.FindParallelBranches(g),
	}
	var longest analysis.Path
	for _, p := range paths.Paths {
		an.Paths = append(an.Paths, p.IDs())
		if len(p) > len(longest) {
			longest = p
		}
	}
	if len(longest) > 0 {
		an.CriticalPath = longest.IDs()
	}
	return an
}

// GraphHash computes the content hash of a graph's record form.
// Two graphs with the same nodes and edges in the same order share a hash.
func GraphHash(g *graph.Graph) string {
	data, err := json.Marshal(export.FromGraph(g))
	if err != nil {
		return ""
	}
	return cache.Hash(data)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// ttl resolves the Set TTL for one result kind.
func (r *Runner) ttl(def time.Duration) time.Duration {
	if r.TTL > 0 {
		return r.TTL
	}
	return def
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
