// Package neighbor turns a spatial-index query into the lightweight
// NeighborInfo view producers consume: reconstructed fresh each
// tick, it references the snapshot rather than owning it, and carries a
// pre-computed distance so every downstream producer (flocking, obstacle
// avoidance, leader-follower) avoids recomputing geom.Distance per pair.
//
// The conversion from a spatial-index agent snapshot to this view is
// exactly the kind of cross-representation adapter lvlath/converterts was
// reserved for (a stub package of adapters between a core representation
// and external/lightweight views); this package is that adapter, grounded
// on the same "one conversion function per direction" shape.
package neighbor

import (
	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/geom"
	"github.com/orbitswarm/swarmcore/randsrc"
	"github.com/orbitswarm/swarmcore/spatial")

// Info is the lightweight, ownership-free neighbor view (NeighborInfo).
type Info struct {
	AgentID agent.ID
	Position geom.Vector
	Velocity geom.Vector
	Distance float64
}

// FromAgents converts a spatial-index radius/rectangle result into Info
// values relative to origin, excluding self. Distance is computed once
// here so producers never recompute it.
func FromAgents(agents []agent.Agent, selfID agent.ID, origin geom.Vector) []Info {
	out := make([]Info, 0, len(agents))
	for _, a := range agents {
		if a.ID == selfID {
			continue
		}
		out = append(out, Info{
			AgentID: a.ID,
			Position: a.Position,
			Velocity: a.Velocity,
			Distance: geom.Distance(origin, a.Position),
		})
	}
	return out
}

// Query returns the neighbors of self within radius, via the spatial
// index, excluding self.
func Query(grid *spatial.Grid, self agent.Agent, radius float64) []Info {
	found := grid.Radius(self.Position, radius)
	return FromAgents(found, self.ID, self.Position)
}

// LinkFilter drops neighbors probabilistically to simulate imperfect
// network links (quoting: "An optional link filter may drop neighbors
// probabilistically... the filter is pure given a seeded source"). A
// dropProbability of 0 never drops; 1 always drops.
type LinkFilter struct {
	dropProbability float64
	source *randsrc.Source
}

// NewLinkFilter returns a LinkFilter with the given per-neighbor drop
// probability (clamped to [0,1]) driven by source. source must be the
// swarm's single controllable randomness source (non-goals) so that a
// whole run is reproducible from one seed.
func NewLinkFilter(dropProbability float64, source *randsrc.Source) *LinkFilter {
	return &LinkFilter{
		dropProbability: geom.ClampScalar(dropProbability, 0, 1),
		source: source,
	}
}

// Apply returns neighbors with each entry independently dropped with
// probability f.dropProbability. A nil filter (or one built with
// probability 0) is a no-op passthrough.
func (f *LinkFilter) Apply(neighbors []Info) []Info {
	if f == nil || f.dropProbability <= 0 {
		return neighbors
	}
	out := make([]Info, 0, len(neighbors))
	for _, n := range neighbors {
		if f.source.Float64() < f.dropProbability {
			continue
		}
		out = append(out, n)
	}
	return out
}
