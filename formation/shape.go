// Package formation implements the formation controller: pure
// per-shape slot position functions, maintenance correction forces, and
// time-based shape transitions. Like the flocking producer, every
// position function here is total and side-effect free — the only
// mutable state in the package is the Formation record itself, and even
// that is mutated solely by the package's own exported operations, never
// by a slot function.
package formation

import (
	"math"

	"github.com/orbitswarm/swarmcore/geom")

// Shape is one of the six supported formation topologies (Formation).
type Shape int

const (Line Shape = iota
	Wedge
	Circle
	Column
	Grid
	Diamond)

var shapeNames = map[Shape]string{
	Line: "Line",
	Wedge: "Wedge",
	Circle: "Circle",
	Column: "Column",
	Grid: "Grid",
	Diamond: "Diamond",
}

// String implements fmt.Stringer. An unrecognized Shape renders as
// "Unknown" rather than panicking.
func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return "Unknown"
}

// minimumAgentsTable holds the smallest agent count each shape can form
// (quoting: "Each shape declares minimumAgents"). Wedge, Circle and
// Diamond need enough agents to have a recognizable silhouette (3, 3 and
// 4); Grid/Column tolerate as few as 2; Line only needs 2 to have a
// direction.
var minimumAgentsTable = map[Shape]int{
	Line: 2,
	Wedge: 3,
	Circle: 3,
	Column: 2,
	Grid: 2,
	Diamond: 4,
}

// MinimumAgents returns the minimum agent count shape requires. Unknown
// shapes report a minimum of 1 (never block formation on absent data).
func MinimumAgents(shape Shape) int {
	if n, ok := minimumAgentsTable[shape]; ok {
		return n
	}
	return 1
}

// RecommendedSpacing returns a recommended spacing f(n) for shape given n
// agents: for Circle, Diamond and Grid, denser shapes with more agents want
// the crowding kept in check, so spacing grows with sqrt(n); every other
// shape gets a fixed spacing of 20.
func RecommendedSpacing(shape Shape, n int) float64 {
	if n < 1 {
		n = 1
	}
	switch shape {
	case Circle, Diamond:
		return 20 + 4*math.Sqrt(float64(n))
	case Grid:
		return 15 + 3*math.Sqrt(float64(n))
	default:
		return 20
	}
}

// Slots returns the n slot positions for shape given center, spacing, and
// heading (a unit or non-unit direction vector; only its angle matters).
// Calling Slots twice with identical arguments yields identical output
// (property 6: purity).
//
// Complexity: O(n).
func Slots(shape Shape, center geom.Vector, spacing float64, heading geom.Vector, n int) []geom.Vector {
	if n <= 0 {
		return nil
	}
	dir := geom.Normalize(heading)
	if dir == geom.Zero {
		dir = geom.Vector{X: 1, Y: 0}
	}
	perp := geom.Perp(dir)

	switch shape {
	case Line:
		return lineSlots(center, spacing, perp, n)
	case Wedge:
		return wedgeSlots(center, spacing, dir, perp, n)
	case Circle:
		return circleSlots(center, spacing, n)
	case Column:
		return columnSlots(center, spacing, dir, perp, n)
	case Grid:
		return gridSlots(center, spacing, dir, perp, n)
	case Diamond:
		return diamondSlots(center, spacing, dir, perp, n)
	default:
		return lineSlots(center, spacing, perp, n)
	}
}

// lineSlots places slots at center ± k*spacing*perp, centered on the
// median index (Line).
func lineSlots(center geom.Vector, spacing float64, perp geom.Vector, n int) []geom.Vector {
	out := make([]geom.Vector, n)
	median := float64(n-1) / 2
	for k := 0; k < n; k++ {
		offset := (float64(k) - median) * spacing
		out[k] = geom.Add(center, geom.Scale(perp, offset))
	}
	return out
}

// wedgeSlots places slot 0 at the tip along heading, with remaining
// slots alternating left/right, each row offset spacing back and
// spacing*0.7 outward (Wedge).
func wedgeSlots(center geom.Vector, spacing float64, dir, perp geom.Vector, n int) []geom.Vector {
	const outwardFactor = 0.7
	out := make([]geom.Vector, n)
	out[0] = geom.Add(center, geom.Scale(dir, spacing))
	for k := 1; k < n; k++ {
		row := (k + 1) / 2
		side := 1.0
		if k%2 == 0 {
			side = -1.0
		}
		back := geom.Scale(dir, spacing*(1-float64(row)))
		outward := geom.Scale(perp, side*spacing*outwardFactor*float64(row))
		out[k] = geom.Add(center, geom.Add(back, outward))
	}
	return out
}

// circleSlots places slot k at center + radius*(cos θ_k, sin θ_k), with
// θ_k = 2π·k/n and radius derived from spacing, clamped to a minimum so a
// small n never collapses the ring to a point (Circle).
func circleSlots(center geom.Vector, spacing float64, n int) []geom.Vector {
	const minRadius = 5.0
	radius := spacing * float64(n) / (2 * math.Pi)
	if radius < minRadius {
		radius = minRadius
	}
	out := make([]geom.Vector, n)
	for k := 0; k < n; k++ {
		theta := 2 * math.Pi * float64(k) / float64(n)
		out[k] = geom.Add(center, geom.Scale(geom.FromAngle(theta), radius))
	}
	return out
}

// columnSlots arranges two parallel lines, rows spaced `spacing` back
// along heading, columns `spacing/2` apart across perp (Column).
func columnSlots(center geom.Vector, spacing float64, dir, perp geom.Vector, n int) []geom.Vector {
	out := make([]geom.Vector, n)
	for k := 0; k < n; k++ {
		row := k / 2
		side := 1.0
		if k%2 == 1 {
			side = -1.0
		}
		back := geom.Scale(dir, -spacing*float64(row))
		across := geom.Scale(perp, side*spacing/4)
		out[k] = geom.Add(center, geom.Add(back, across))
	}
	return out
}

// gridSlots places slots in ceil(sqrt(n)) columns, row-major, centered
// on the formation center on both axes (Grid).
func gridSlots(center geom.Vector, spacing float64, dir, perp geom.Vector, n int) []geom.Vector {
	cols := int(math.Ceil(math.Sqrt(float64(n))))
	if cols < 1 {
		cols = 1
	}
	rows := (n + cols - 1) / cols
	colMedian := float64(cols-1) / 2
	rowMedian := float64(rows-1) / 2

	out := make([]geom.Vector, n)
	for k := 0; k < n; k++ {
		row := k / cols
		col := k % cols
		across := geom.Scale(perp, (float64(col)-colMedian)*spacing)
		back := geom.Scale(dir, (rowMedian-float64(row))*spacing)
		out[k] = geom.Add(center, geom.Add(across, back))
	}
	return out
}

// diamondSlots places agents around a rhombus perimeter with four
// corners on the ±heading/±perp axes, interpolating additional agents
// along the four edges in order (Diamond).
func diamondSlots(center geom.Vector, spacing float64, dir, perp geom.Vector, n int) []geom.Vector {
	radius := spacing * float64(n) / 4
	if radius < spacing {
		radius = spacing
	}
	corners := []geom.Vector{
		geom.Add(center, geom.Scale(dir, radius)),
		geom.Add(center, geom.Scale(perp, radius)),
		geom.Add(center, geom.Scale(dir, -radius)),
		geom.Add(center, geom.Scale(perp, -radius)),
	}
	out := make([]geom.Vector, n)
	for k := 0; k < n; k++ {
		t := float64(k) / float64(n) * 4
		edge := int(t) % 4
		frac := t - math.Floor(t)
		out[k] = geom.Lerp(corners[edge], corners[(edge+1)%4], frac)
	}
	return out
}
