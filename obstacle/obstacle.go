// Package obstacle implements the three obstacle-avoidance strategies:
// individual repulsion, a collective side-stepping maneuver, and
// polyline pathfinding around multiple blocking obstacles. Strategy
// selection itself is a pure function of obstacle size and swarm size
// ("Strategy selection").
package obstacle

import (
	"fmt"

	"github.com/orbitswarm/swarmcore/behavior"
	"github.com/orbitswarm/swarmcore/geom")

// Obstacle is a circular static/dynamic obstacle in the shared space.
type Obstacle struct {
	ID string
	Center geom.Vector
	Radius float64
}

// NewObstacle validates radius > 0 and returns an Obstacle.
func NewObstacle(id string, center geom.Vector, radius float64) (Obstacle, error) {
	if radius <= 0 {
		return Obstacle{}, fmt.Errorf("obstacle: id=%s radius=%g: %w", id, radius, ErrInvalidObstacle)
	}
	return Obstacle{ID: id, Center: center, Radius: radius}, nil
}

// Strategy is one of the three avoidance modes.
type Strategy int

const (Individual Strategy = iota
	Collective
	Pathfinding)

// smallObstacleRadius and smallSwarmSize are the strategy-selection
// thresholds ("small obstacle (r<30) and small swarm (n<=5) -> Individual").
const (smallObstacleRadius = 30.0
	smallSwarmSize = 5
	manyObstacles = 3)

// Select picks the avoidance strategy for the given obstacle set and
// swarm size (Strategy selection). obstacles must be non-empty;
// callers should not invoke avoidance at all when there is nothing to
// avoid.
func Select(obstacles []Obstacle, swarmSize int) Strategy {
	if len(obstacles) > manyObstacles {
		return Pathfinding
	}
	if len(obstacles) == 1 {
		o := obstacles[0]
		if o.Radius < smallObstacleRadius && swarmSize <= smallSwarmSize {
			return Individual
		}
		return Collective
	}
	return Individual
}

// DefaultDetectionRange, DefaultCriticalDistance and DefaultMaxForce
// default the individual-repulsion parameters (Individual).
const (DefaultDetectionRange = 60.0
	DefaultCriticalDistance = 15.0
	DefaultMaxForce = 5.0)

// IndividualRepulsion computes, for one agent, the accumulated repulsion force
// from every obstacle within detectionRange (Individual). Obstacles
// farther than detectionRange contribute nothing.
//
// Complexity: O(len(obstacles)).
func IndividualRepulsion(agentID int64, selfPos geom.Vector, obstacles []Obstacle, detectionRange, criticalDistance, maxForce float64, timestamp int64) behavior.BehaviorRequest {
	var sum geom.Vector
	for _, o := range obstacles {
		d := geom.Distance(selfPos, o.Center) - o.Radius
		if d < 0 {
			d = 0
		}
		if d >= detectionRange {
			continue
		}
		var strength float64
		if d < criticalDistance {
			strength = maxForce
		} else {
			strength = maxForce * (detectionRange - d) / detectionRange
		}
		dir := geom.Normalize(geom.Sub(selfPos, o.Center))
		sum = geom.Add(sum, geom.Scale(dir, strength))
	}
	sum = geom.Clamp(sum, maxForce)

	return behavior.BehaviorRequest{
		AgentID: agentID,
		Kind: behavior.Evading,
		Command: behavior.MovementCommand{
			AgentID: agentID,
			Type: behavior.AvoidObstacle,
			CombinedForce: behavior.Vector2(sum),
		},
		Timestamp: timestamp,
	}
}

// CollectiveBuffer is the extra clearance (on top of obstacle.Radius)
// used when computing the side-step waypoint (Collective: "radius +
// buffer + 30").
const CollectiveBuffer = 10.0

// Collective computes, for every agent in swarmPositions, a MoveToTarget
// command that preserves the agent's offset from swarmCenter while
// routing the whole group around obstacle on whichever side
// swarmDirection naturally passes (Collective).
//
// Complexity: O(len(swarmPositions)).
func Collective(swarmPositions map[int64]geom.Vector, swarmCenter, swarmDirection geom.Vector, o Obstacle, timestamp int64) []behavior.BehaviorRequest {
	toObstacle := geom.Sub(o.Center, swarmCenter)
	side := geom.Cross(toObstacle, swarmDirection)
	sign := 1.0
	if side < 0 {
		sign = -1.0
	}
	perp := geom.Scale(geom.Normalize(geom.Perp(swarmDirection)), sign)
	waypointOffset := o.Radius + CollectiveBuffer + 30

	waypoint := geom.Add(o.Center, geom.Scale(perp, waypointOffset))

	out := make([]behavior.BehaviorRequest, 0, len(swarmPositions))
	for agentID, pos := range swarmPositions {
		offset := geom.Sub(pos, swarmCenter)
		target := geom.Add(waypoint, offset) // preserves each agent's offset from swarmCenter
		out = append(out, behavior.BehaviorRequest{
			AgentID: agentID,
			Kind: behavior.Evading,
			Command: behavior.MovementCommand{
				AgentID: agentID,
				Type: behavior.MoveToTarget,
				TargetPosition: behavior.Vector2(target),
			},
			Timestamp: timestamp,
		})
	}
	return out
}

// Pathfinding generates a polyline start -> waypoints -> goal that
// detours around every obstacle the direct segment would hit (// Pathfinding). For each blocking obstacle, one perpendicular waypoint is
// inserted on whichever side is closer to goal; the result is
// re-validated against all obstacles (a single waypoint can clear
// several obstacles in a cluster) until no segment intersects any
// obstacle or a safety iteration cap is hit.
//
// Complexity: O(k * m) where k is iteration count (bounded) and m =
// len(obstacles).
func Pathfinding(start, goal geom.Vector, obstacles []Obstacle, buffer float64) []geom.Vector {
	const maxIterations = 2 * 8 // generous cap; a handful of obstacles never needs more
	path := []geom.Vector{start, goal}

	for iter := 0; iter < maxIterations; iter++ {
		blockerIdx, obsIdx, ok := firstBlockedSegment(path, obstacles, buffer)
		if !ok {
			break
		}
		waypoint := perpendicularWaypoint(path[blockerIdx], path[blockerIdx+1], obstacles[obsIdx], goal, buffer)
		path = insertAt(path, blockerIdx+1, waypoint)
	}
	return path
}

// firstBlockedSegment scans path's segments in order and returns the
// index of the first one that intersects an obstacle, and which
// obstacle.
func firstBlockedSegment(path []geom.Vector, obstacles []Obstacle, buffer float64) (segIdx, obsIdx int, ok bool) {
	for i := 0; i < len(path)-1; i++ {
		for j, o := range obstacles {
			closest, _ := geom.ClosestPointOnSegment(o.Center, path[i], path[i+1])
			if geom.Distance(closest, o.Center) < o.Radius+buffer {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// perpendicularWaypoint inserts one waypoint clearing o by buffer, on
// whichever side of the segment a to b is closer to goal (// "insert one perpendicular waypoint on whichever side is closer to
// the goal").
func perpendicularWaypoint(a, b geom.Vector, o Obstacle, goal geom.Vector, buffer float64) geom.Vector {
	dir := geom.Normalize(geom.Sub(b, a))
	if dir == geom.Zero {
		dir = geom.Vector{X: 1, Y: 0}
	}
	perp := geom.Perp(dir)
	clearance := o.Radius + buffer + 5

	left := geom.Add(o.Center, geom.Scale(perp, clearance))
	right := geom.Add(o.Center, geom.Scale(perp, -clearance))

	if geom.DistanceSq(left, goal) <= geom.DistanceSq(right, goal) {
		return left
	}
	return right
}

// insertAt returns path with v inserted at index i.
func insertAt(path []geom.Vector, i int, v geom.Vector) []geom.Vector {
	out := make([]geom.Vector, 0, len(path)+1)
	out = append(out, path[:i]...)
	out = append(out, v)
	out = append(out, path[i:]...)
	return out
}
