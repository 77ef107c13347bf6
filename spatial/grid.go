// Package spatial is the uniform-grid broad-phase spatial index:
// agents are hashed into fixed-size cells so that a radius or rectangle
// query only has to scan the handful of cells the query region overlaps,
// instead of every agent in the swarm.
//
// This follows the same cell-indexing idea as
// lvlath/gridgraph.GridGraph — precomputed neighbor handling over a grid —
// adapted from a grid of discrete integer cell *values* to a grid hashing
// continuous-space *agents* into buckets. Unlike GridGraph, the index here
// is rebuilt from scratch every tick (quoting: "Each tick: clear;
// insert(all agents)"); nothing about it is immutable or persisted across
// ticks.
package spatial

import (
	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/geom")

// DefaultCellSize is used when a Grid is constructed with a non-positive
// cell size; it matches the longest behavior radius in a typical
// flocking configuration.
const DefaultCellSize = 100.0

// cellKey identifies one grid cell.
type cellKey struct{ cx, cy int64 }

// Grid is the uniform-grid spatial index over a snapshot of agents.
type Grid struct {
	cellSize float64
	cells map[cellKey][]agent.Agent
}

// NewGrid returns an empty Grid with the given cell size. A non-positive
// cellSize is replaced with DefaultCellSize.
func NewGrid(cellSize float64) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Grid{cellSize: cellSize, cells: make(map[cellKey][]agent.Agent)}
}

// CellSize returns the configured cell size.
func (g *Grid) CellSize() float64 { return g.cellSize }

func (g *Grid) keyFor(p geom.Vector) cellKey {
	return cellKey{
		cx: int64(floorDiv(p.X, g.cellSize)),
		cy: int64(floorDiv(p.Y, g.cellSize)),
	}
}

// floorDiv is a floor (not truncating) division, so negative coordinates
// hash consistently (e.g. -0.5/100 lands in cell -1, not cell 0).
func floorDiv(a, b float64) float64 {
	q := a / b
	iq := float64(int64(q))
	if q < iq {
		iq--
	}
	return iq
}

// Clear empties the grid by replacing its cell map with a fresh one,
// pre-sized to the previous cell count; old buckets are not reused.
//
// Complexity: no per-entry sweep — the old map is dropped whole.
func (g *Grid) Clear() {
	g.cells = make(map[cellKey][]agent.Agent, len(g.cells))
}

// Rebuild clears the grid and inserts every agent in agents. This is the
// per-tick entry point the scheduler calls (step 2).
//
// Complexity: O(n).
func (g *Grid) Rebuild(agents []agent.Agent) {
	g.Clear()
	for _, a := range agents {
		g.Insert(a)
	}
}

// Insert adds a to its grid cell.
//
// Complexity: O(1) amortized.
func (g *Grid) Insert(a agent.Agent) {
	k := g.keyFor(a.Position)
	g.cells[k] = append(g.cells[k], a)
}

// Radius returns every agent within r of point, scanning only the cells
// the disc of radius r overlaps. Any agent within r is guaranteed to be
// returned ; callers filter out self by ID afterward.
//
// Complexity: O(k) where k is the agent count across overlapped cells.
func (g *Grid) Radius(point geom.Vector, r float64) []agent.Agent {
	if r < 0 {
		return nil
	}
	minCell := g.keyFor(geom.Vector{X: point.X - r, Y: point.Y - r})
	maxCell := g.keyFor(geom.Vector{X: point.X + r, Y: point.Y + r})

	rSq := r * r
	var out []agent.Agent
	for cx := minCell.cx; cx <= maxCell.cx; cx++ {
		for cy := minCell.cy; cy <= maxCell.cy; cy++ {
			for _, a := range g.cells[cellKey{cx, cy}] {
				if geom.DistanceSq(a.Position, point) <= rSq {
					out = append(out, a)
				}
			}
		}
	}
	return out
}

// Rectangle returns every agent within the axis-aligned rectangle
// described by topLeft/bottomRight (corner order is not significant).
//
// Complexity: O(k) where k is the agent count across overlapped cells.
func (g *Grid) Rectangle(topLeft, bottomRight geom.Vector) []agent.Agent {
	rect := geom.Rect{TopLeft: topLeft, BottomRight: bottomRight}
	minCell := g.keyFor(topLeft)
	maxCell := g.keyFor(bottomRight)
	if minCell.cx > maxCell.cx {
		minCell.cx, maxCell.cx = maxCell.cx, minCell.cx
	}
	if minCell.cy > maxCell.cy {
		minCell.cy, maxCell.cy = maxCell.cy, minCell.cy
	}

	var out []agent.Agent
	for cx := minCell.cx; cx <= maxCell.cx; cx++ {
		for cy := minCell.cy; cy <= maxCell.cy; cy++ {
			for _, a := range g.cells[cellKey{cx, cy}] {
				if rect.Contains(a.Position) {
					out = append(out, a)
				}
			}
		}
	}
	return out
}

// BruteForceRadius is the O(n)-per-query reference implementation used
// to assert spatial-index equivalence (invariant 8: "for any radius
// query, the set returned equals the brute-force O(n^2) set"). It is not
// used by the scheduler; it exists for tests.
func BruteForceRadius(agents []agent.Agent, point geom.Vector, r float64) []agent.Agent {
	rSq := r * r
	var out []agent.Agent
	for _, a := range agents {
		if geom.DistanceSq(a.Position, point) <= rSq {
			out = append(out, a)
		}
	}
	return out
}
