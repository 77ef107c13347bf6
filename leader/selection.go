// Package leader implements the leader-follower coordinator:
// scoring-based leader selection, per-follower offset tracking, a
// periodic health check, and succession when the current leader becomes
// unhealthy.
package leader

import (
	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/geom")

// Mode selects how candidate agents are scored for leadership.
type Mode int

const (HighestBattery Mode = iota
	CentralPosition
	BestSensors
	LowestID
	Auto)

func (m Mode) String() string {
	switch m {
	case HighestBattery:
		return "highest_battery"
	case CentralPosition:
		return "central_position"
	case BestSensors:
		return "best_sensors"
	case LowestID:
		return "lowest_id"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Auto's weighted-blend component weights (quoting: "battery 0.4,
// centrality 0.3, stability 0.3").
const (autoBatteryWeight = 0.4
	autoCentralityWeight = 0.3
	autoStabilityWeight = 0.3)

// Score returns candidate's suitability for leadership under mode, given
// the live swarm (for centrality) and center (the swarm's centroid).
// Higher scores are better. Every mode is a pure function of agent state
// and swarm center.
func Score(mode Mode, candidate agent.Agent, swarm []agent.Agent, center geom.Vector) float64 {
	switch mode {
	case HighestBattery:
		return candidate.Battery
	case CentralPosition:
		return centralityScore(candidate, swarm, center)
	case BestSensors:
		return sensorScore(candidate)
	case LowestID:
		return -float64(candidate.ID)
	case Auto:
		return autoBatteryWeight*candidate.Battery +
			autoCentralityWeight*centralityScore(candidate, swarm, center) +
			autoStabilityWeight*stabilityScore(candidate)
	default:
		return 0
	}
}

// centralityScore rewards proximity to the swarm centroid, normalized
// against the largest distance present in swarm so the score stays in
// [0,1] regardless of absolute scale.
func centralityScore(candidate agent.Agent, swarm []agent.Agent, center geom.Vector) float64 {
	maxDist := 0.0
	for _, a := range swarm {
		if d := geom.Distance(a.Position, center); d > maxDist {
			maxDist = d
		}
	}
	if maxDist == 0 {
		return 1
	}
	d := geom.Distance(candidate.Position, center)
	return 1 - geom.ClampScalar(d/maxDist, 0, 1)
}

// sensorScore uses communication range as a proxy for sensor quality,
// normalized against a documented reference range.
func sensorScore(candidate agent.Agent) float64 {
	const referenceRange = 200.0
	return geom.ClampScalar(candidate.CommunicationRange/referenceRange, 0, 1)
}

// stabilityScore rewards a slower-moving agent (relative to its own max
// speed) as a steadier leadership candidate — an agent already moving
// near its speed cap is more likely to need to maneuver away from its
// post soon.
func stabilityScore(candidate agent.Agent) float64 {
	if candidate.MaxSpeed <= 0 {
		return 1
	}
	ratio := geom.Magnitude(candidate.Velocity) / candidate.MaxSpeed
	return 1 - geom.ClampScalar(ratio, 0, 1)
}

// SelectBest returns the highest-scoring eligible candidate under mode.
// Eligibility is the health predicate (Active status, battery >=
// 0.2); candidates failing it are skipped regardless of score. Ties break
// on lower agent id for reproducibility. Returns ErrNoEligibleLeader if
// no candidate qualifies.
func SelectBest(mode Mode, swarm []agent.Agent, center geom.Vector) (agent.Agent, error) {
	var best agent.Agent
	bestScore := 0.0
	found := false

	for _, a := range swarm {
		if !eligible(a) {
			continue
		}
		s := Score(mode, a, swarm, center)
		if !found || s > bestScore || (s == bestScore && a.ID < best.ID) {
			best = a
			bestScore = s
			found = true
		}
	}
	if !found {
		return agent.Agent{}, ErrNoEligibleLeader
	}
	return best, nil
}

// eligible is the baseline candidacy requirement shared by selection and
// health checks: Active status and battery at or above MinLeaderBattery.
func eligible(a agent.Agent) bool {
	return a.Status == agent.Active && a.Battery >= MinLeaderBattery
}

// MinLeaderBattery is the minimum battery fraction a leader candidate
// must have (health check: "battery >= 0.2").
const MinLeaderBattery = 0.2
