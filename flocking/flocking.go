// Package flocking implements the separation/alignment/cohesion producer:
// the three rules partition neighbors into disjoint distance bands
// — [0,Rs), [Rs,Ra), [Ra,Rc) — so that no single neighbor contributes to
// more than one rule in the same tick. design notes call this out
// explicitly: the disjoint partition exists specifically to avoid the
// oscillation a double-counted neighbor can cause, the same failure mode
// lvlath/algorithms' traversal producers sidestep by marking each vertex
// visited exactly once.
package flocking

import (
	"github.com/orbitswarm/swarmcore/behavior"
	"github.com/orbitswarm/swarmcore/geom"
	"github.com/orbitswarm/swarmcore/neighbor")

// Compute returns the combined steering force and corresponding
// BehaviorRequest for one agent, given its neighbors (already filtered to
// whatever radius covers Rc — callers typically query Rc and let Compute
// bucket by band). Neighbors outside [0, Rc) are ignored.
//
// Complexity: O(k), k = len(neighbors).
func Compute(agentID int64, selfPos, selfVel geom.Vector, neighbors []neighbor.Info, cfg Config, timestamp int64) behavior.BehaviorRequest {
	force := geom.Clamp(combine(selfPos, selfVel, neighbors, cfg), cfg.MaxForce)

	cmd := behavior.MovementCommand{
		AgentID: agentID,
		Type: behavior.FlockingBehavior,
		CombinedForce: behavior.Vector2(force),
	}
	return behavior.BehaviorRequest{
		AgentID: agentID,
		Kind: behavior.Flocking,
		Command: cmd,
		Timestamp: timestamp,
	}
}

func combine(selfPos, selfVel geom.Vector, neighbors []neighbor.Info, cfg Config) geom.Vector {
	s := separation(selfPos, neighbors, cfg.Rs)
	a := alignment(selfVel, neighbors, cfg.Rs, cfg.Ra)
	c := cohesion(selfPos, neighbors, cfg.Ra, cfg.Rc)

	return geom.Add(geom.Add(geom.Scale(s, cfg.Ws), geom.Scale(a, cfg.Wa)), geom.Scale(c, cfg.Wc))
}

// separation accumulates (selfPos - neighborPos)/d for every neighbor with
// 0 < d < Rs, then averages and normalizes. Closer neighbors push
// harder via the 1/d weighting before normalization collapses the
// magnitude back to unit length.
func separation(selfPos geom.Vector, neighbors []neighbor.Info, rs float64) geom.Vector {
	var sum geom.Vector
	count := 0
	for _, n := range neighbors {
		if n.Distance > 0 && n.Distance < rs {
			away := geom.Sub(selfPos, n.Position)
			sum = geom.Add(sum, geom.Scale(away, 1/n.Distance))
			count++
		}
	}
	if count == 0 {
		return geom.Zero
	}
	return geom.Normalize(geom.Scale(sum, 1/float64(count)))
}

// alignment averages neighbor velocity for every neighbor with
// Rs <= d < Ra, subtracts self velocity, and normalizes.
func alignment(selfVel geom.Vector, neighbors []neighbor.Info, rs, ra float64) geom.Vector {
	var sum geom.Vector
	count := 0
	for _, n := range neighbors {
		if n.Distance >= rs && n.Distance < ra {
			sum = geom.Add(sum, n.Velocity)
			count++
		}
	}
	if count == 0 {
		return geom.Zero
	}
	avg := geom.Scale(sum, 1/float64(count))
	return geom.Normalize(geom.Sub(avg, selfVel))
}

// cohesion averages neighbor positions for every neighbor with
// Ra <= d < Rc, forms the vector from self to that center of mass, and
// normalizes.
func cohesion(selfPos geom.Vector, neighbors []neighbor.Info, ra, rc float64) geom.Vector {
	var sum geom.Vector
	count := 0
	for _, n := range neighbors {
		if n.Distance >= ra && n.Distance < rc {
			sum = geom.Add(sum, n.Position)
			count++
		}
	}
	if count == 0 {
		return geom.Zero
	}
	center := geom.Scale(sum, 1/float64(count))
	return geom.Normalize(geom.Sub(center, selfPos))
}
