// Package pipeline provides the core processing pipeline: load a process
// graph, compute its layout, and run path and structure analysis.
//
// CLI, HTTP API, and TUI all execute through the same Runner, so caching
// and defaults behave identically across entry points.
//
// Usage:
//
//	runner := pipeline.NewRunner(source, cache, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{ProcessID: "p-1"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	positions := result.Layout.Positions
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/kdreher/flowmap/pkg/analysis"
	"github.com/kdreher/flowmap/pkg/cache"
	"github.com/kdreher/flowmap/pkg/graph"
	"github.com/kdreher/flowmap/pkg/layout"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and TUI
// =============================================================================

const (
	// DefaultWidth is the default canvas width in pixels.
	DefaultWidth = 1200.0

	// DefaultHeight is the default canvas height in pixels.
	DefaultHeight = 800.0

	// DefaultMaxPaths caps path enumeration; matches analysis.DefaultMaxPaths.
	DefaultMaxPaths = analysis.DefaultMaxPaths
)

// Cache TTLs per result kind. Layouts and analyses are cheap to recompute,
// so short TTLs keep stale results from outliving database edits for long.
const (
	TTLLayout   = 15 * time.Minute
	TTLAnalysis = 15 * time.Minute
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// ProcessID selects which stored process to load.
	ProcessID string `json:"process_id"`

	// Layout options
	Width  float64       `json:"width,omitempty"`
	Height float64       `json:"height,omitempty"`
	Layout layout.Config `json:"layout"`

	// Analysis options
	MaxPaths int `json:"max_paths,omitempty"`

	// Refresh bypasses the cache and recomputes everything.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ProcessID == "" {
		return fmt.Errorf("process_id is required")
	}
	if o.Width < 0 || o.Height < 0 {
		return fmt.Errorf("canvas dimensions must be non-negative")
	}
	if o.MaxPaths < 0 {
		return fmt.Errorf("max_paths must be non-negative")
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.MaxPaths == 0 {
		o.MaxPaths = DefaultMaxPaths
	}
	// Normalized here so that zero and explicit-default spacing share a
	// cache key.
	o.Layout = o.Layout.WithDefaults()
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// LayoutKeyOpts returns cache key options for layout computation.
func (o *Options) LayoutKeyOpts() cache.LayoutKeyOpts {
	return cache.LayoutKeyOpts{
		Width:       int(o.Width),
		Height:      int(o.Height),
		MarginX:     o.Layout.MarginX,
		MarginY:     o.Layout.MarginY,
		NodeWidth:   o.Layout.NodeWidth,
		NodeHeight:  o.Layout.NodeHeight,
		HSpacing:    o.Layout.HSpacing,
		VSpacing:    o.Layout.VSpacing,
		GridColumns: o.Layout.GridColumns,
	}
}

// AnalysisKeyOpts returns cache key options for analysis.
func (o *Options) AnalysisKeyOpts() cache.AnalysisKeyOpts {
	return cache.AnalysisKeyOpts{MaxPaths: o.MaxPaths}
}

// =============================================================================
// Results
// =============================================================================

// Analysis bundles the serializable outputs of the analysis stage.
type Analysis struct {
	// Paths lists every complete execution path as node ID sequences.
	Paths [][]string `json:"paths"`

	// Truncated reports whether path enumeration hit the MaxPaths cap.
	Truncated bool `json:"truncated,omitempty"`

	// CriticalPath is the longest complete path, empty when none exists.
	CriticalPath []string `json:"critical_path,omitempty"`

	// Bottlenecks lists convergence points sorted by in-degree descending.
	Bottlenecks []analysis.Bottleneck `json:"bottlenecks"`

	// ParallelBranches groups fan-out targets per branching node.
	ParallelBranches [][]string `json:"parallel_branches"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the loaded process graph snapshot.
	Graph *graph.Graph

	// GraphHash is the content hash of the graph's record form.
	GraphHash string

	// Layout holds the computed node positions.
	Layout layout.Result

	// Analysis holds paths, bottlenecks, and parallel branches.
	Analysis Analysis

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	LoadTime     time.Duration
	LayoutTime   time.Duration
	AnalysisTime time.Duration
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	LayoutHit   bool // Whether the layout came from cache
	AnalysisHit bool // Whether the analysis came from cache
}
