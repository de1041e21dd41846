// Package layout computes a deterministic two-dimensional layered placement
// for a workflow graph: left-to-right levels from breadth-first distance,
// vertically centered within the canvas.
//
// The leveling pass tolerates arbitrary input - cycles, disconnected
// components, multiple entry points - and always terminates: the work queue
// is bounded at 2×|nodes| dequeues, and nodes the pass never reaches are
// appended as a trailing level so that every node receives exactly one
// position. A grid fallback covers the degenerate case where leveling
// produces nothing at all; it can never fail.
package layout

import (
	"github.com/kdreher/flowmap/pkg/graph"
)

// Position is the placement rectangle for one node. Positions are a separate
// output artifact keyed by node ID, not part of the graph's own state; the
// rendering collaborator owns everything downstream of them (zoom, pan, drag).
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Config holds the spacing constants of the layered placement. These are
// presentation values, not algorithmic parameters; see [DefaultConfig] for
// the documented defaults.
type Config struct {
	MarginX     float64 // left margin before level 0
	MarginY     float64 // top/bottom margin used when centering a level
	NodeWidth   float64
	NodeHeight  float64
	HSpacing    float64 // horizontal distance between consecutive levels
	VSpacing    float64 // vertical gap between nodes within a level
	GridColumns int     // column count of the defensive grid fallback
}

// DefaultConfig returns the standard spacing constants.
func DefaultConfig() Config {
	return Config{
		MarginX:     40,
		MarginY:     50,
		NodeWidth:   120,
		NodeHeight:  60,
		HSpacing:    170,
		VSpacing:    100,
		GridColumns: 3,
	}
}

// Engine computes layouts for graph snapshots. The zero value uses
// DefaultConfig; an Engine is stateless and safe for concurrent use.
type Engine struct {
	Config Config
}

// New returns an Engine with the given spacing configuration.
// Zero-valued fields are replaced with their defaults.
func New(cfg Config) *Engine {
	return &Engine{Config: cfg.WithDefaults()}
}

// WithDefaults returns a copy of the config with every zero-valued field
// replaced by its default. Calculate applies this itself, so a partially
// filled Config never produces zero-spacing positions.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.MarginX == 0 {
		c.MarginX = def.MarginX
	}
	if c.MarginY == 0 {
		c.MarginY = def.MarginY
	}
	if c.NodeWidth == 0 {
		c.NodeWidth = def.NodeWidth
	}
	if c.NodeHeight == 0 {
		c.NodeHeight = def.NodeHeight
	}
	if c.HSpacing == 0 {
		c.HSpacing = def.HSpacing
	}
	if c.VSpacing == 0 {
		c.VSpacing = def.VSpacing
	}
	if c.GridColumns == 0 {
		c.GridColumns = def.GridColumns
	}
	return c
}

// Result is the output of one layout computation.
type Result struct {
	// Positions maps every node ID in the graph to its placement rectangle.
	// The cardinality invariant holds on every code path, including the grid
	// fallback: exactly one Position per node.
	Positions map[string]Position `json:"positions"`

	// Unplaced lists nodes the leveling pass never reached (unreachable from
	// any seed, or cut off by the iteration bound), in insertion order. They
	// still receive positions on a trailing level; this field is purely
	// informational for callers that want to flag them.
	Unplaced []string `json:"unplaced,omitempty"`
}

// Calculate produces a position for every node of g within a canvas of the
// given dimensions. It never fails: structurally valid graphs cannot make
// layout raise, and an empty graph yields an empty result.
func (e *Engine) Calculate(g *graph.Graph, canvasWidth, canvasHeight float64) Result {
	cfg := e.Config.WithDefaults()

	res := Result{Positions: make(map[string]Position, g.NodeCount())}
	if g.NodeCount() == 0 {
		return res
	}

	levels, discovered := assignLevels(g)

	if len(levels) == 0 {
		// Defensive fallback: leveling assigned nothing. Place everything on
		// a fixed-column grid in insertion order.
		gridLayout(g, cfg, &res)
		return res
	}

	// Nodes never assigned a level go on one trailing level, after the
	// highest level found, in original insertion order.
	maxLevel := 0
	for _, lvl := range levels {
		if lvl > maxLevel {
			maxLevel = lvl
		}
	}
	for _, id := range g.NodeIDs() {
		if _, ok := levels[id]; !ok {
			levels[id] = maxLevel + 1
			discovered = append(discovered, id)
			res.Unplaced = append(res.Unplaced, id)
		}
	}

	// Group by level in first-discovery order.
	byLevel := make(map[int][]string)
	top := 0
	for _, id := range discovered {
		lvl := levels[id]
		byLevel[lvl] = append(byLevel[lvl], id)
		if lvl > top {
			top = lvl
		}
	}

	for lvl := 0; lvl <= top; lvl++ {
		ids := byLevel[lvl]
		if len(ids) == 0 {
			continue
		}
		x := cfg.MarginX + float64(lvl)*cfg.HSpacing

		// Center the level's nodes vertically. When the level is taller than
		// the canvas, y simply keeps increasing; scrolling is the rendering
		// layer's problem, not ours.
		totalHeight := float64(len(ids)) * (cfg.NodeHeight + cfg.VSpacing)
		startY := cfg.MarginY + (canvasHeight-2*cfg.MarginY-totalHeight)/2

		for i, id := range ids {
			res.Positions[id] = Position{
				X:      x,
				Y:      startY + float64(i)*(cfg.NodeHeight+cfg.VSpacing),
				Width:  cfg.NodeWidth,
				Height: cfg.NodeHeight,
			}
		}
	}

	return res
}

// assignLevels runs the bounded breadth-first leveling pass.
//
// Every seed (Start/Event node, or the first node as a deterministic
// fallback) starts at level 0. Dequeued nodes are expanded at most once per
// assigned level: a successor's level is raised to max(current, dequeued+1)
// and the successor re-enqueued whenever its level increases, so a node's
// final level is the greatest distance found from any seed - the "earliest
// it cannot execute before" tier. On acyclic input the queue drains with
// level(v) ≥ level(u)+1 holding for every edge (u,v); cycles re-enqueue
// without bound, which is what the 2×|nodes| dequeue cap cuts off.
//
// Returns the level of every reached node plus node IDs in first-discovery
// order.
func assignLevels(g *graph.Graph) (map[string]int, []string) {
	ids := g.NodeIDs()
	seeds := make([]string, 0, len(ids))
	for _, n := range g.Sources() {
		seeds = append(seeds, n.ID)
	}
	if len(seeds) == 0 {
		seeds = append(seeds, ids[0])
	}

	levels := make(map[string]int, len(ids))
	discovered := make([]string, 0, len(ids))
	queue := make([]string, 0, len(ids))
	for _, s := range seeds {
		levels[s] = 0
		discovered = append(discovered, s)
		queue = append(queue, s)
	}

	// expandedAt records the level a node last expanded at; a node whose
	// level has not changed since is skipped on dequeue.
	expandedAt := make(map[string]int, len(ids))
	queued := make(map[string]bool, len(ids))
	for _, s := range seeds {
		queued[s] = true
	}

	maxIter := 2 * len(ids)
	for iter := 0; len(queue) > 0 && iter < maxIter; iter++ {
		current := queue[0]
		queue = queue[1:]
		queued[current] = false

		if prev, ok := expandedAt[current]; ok && prev == levels[current] {
			continue
		}
		expandedAt[current] = levels[current]

		for _, next := range g.Successors(current) {
			nextLevel := levels[current] + 1
			prev, seen := levels[next]
			if !seen || prev < nextLevel {
				levels[next] = nextLevel
				if !seen {
					discovered = append(discovered, next)
				}
				if !queued[next] {
					queue = append(queue, next)
					queued[next] = true
				}
			}
		}
	}

	return levels, discovered
}

// gridLayout is the last-resort placement: row-major fixed-column grid in
// insertion order. It must always produce a position for every node and must
// never raise.
func gridLayout(g *graph.Graph, cfg Config, res *Result) {
	cols := cfg.GridColumns
	if cols < 1 {
		cols = 1
	}
	for i, id := range g.NodeIDs() {
		col := i % cols
		row := i / cols
		res.Positions[id] = Position{
			X:      cfg.MarginX + float64(col)*cfg.HSpacing,
			Y:      cfg.MarginY + float64(row)*(cfg.NodeHeight+cfg.VSpacing),
			Width:  cfg.NodeWidth,
			Height: cfg.NodeHeight,
		}
	}
}
