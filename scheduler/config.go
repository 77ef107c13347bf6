package scheduler

import "github.com/orbitswarm/swarmcore/geom"

// DefaultTickHz is the default fixed tick rate ("default 1/60 s").
const DefaultTickHz = 60.0

// FlockingOnlyTickHz is the reduced rate allows for a flocking-only
// mode ("optionally 15 Hz").
const FlockingOnlyTickHz = 15.0

// BoundsPolicy selects how the integrator handles an agent that would
// leave the configured world rectangle (step 6: "wrap or clamp to
// world bounds according to configuration").
type BoundsPolicy int

const (// NoBounds performs no correction; agents may leave the rectangle
	// freely. This is the zero value, matching an unconfigured world.
	NoBounds BoundsPolicy = iota
	// Clamp stops a coordinate at the rectangle edge and zeroes the
	// velocity component driving it further out.
	Clamp
	// Wrap teleports a coordinate that exits one edge to the opposite
	// edge, preserving velocity (a toroidal world).
	Wrap)

// WorldBounds is the optional world rectangle the integrator enforces
// after every position update.
type WorldBounds struct {
	Policy BoundsPolicy
	MinX, MinY float64
	MaxX, MaxY float64
}

// apply returns pos/vel corrected according to b.Policy. A zero-value
// WorldBounds (Policy == NoBounds) returns its arguments unchanged.
func (b WorldBounds) apply(pos, vel geom.Vector) (geom.Vector, geom.Vector) {
	switch b.Policy {
	case Clamp:
		if pos.X < b.MinX {
			pos.X = b.MinX
			vel.X = 0
		} else if pos.X > b.MaxX {
			pos.X = b.MaxX
			vel.X = 0
		}
		if pos.Y < b.MinY {
			pos.Y = b.MinY
			vel.Y = 0
		} else if pos.Y > b.MaxY {
			pos.Y = b.MaxY
			vel.Y = 0
		}
	case Wrap:
		width := b.MaxX - b.MinX
		height := b.MaxY - b.MinY
		if width > 0 {
			pos.X = wrap(pos.X, b.MinX, width)
		}
		if height > 0 {
			pos.Y = wrap(pos.Y, b.MinY, height)
		}
	}
	return pos, vel
}

func wrap(x, min, span float64) float64 {
	offset := x - min
	offset -= span * floor(offset/span)
	return min + offset
}

func floor(x float64) float64 {
	i := float64(int64(x))
	if x < i {
		i--
	}
	return i
}
