// Package connectivity builds the swarm's same-tick communication graph
// and derives reachability (ConnectedComponents), a minimum-cost
// backbone (Backbone), and multi-hop distances (HopDistances) from it —
// a supplemental communication-topology view. No other package in this
// module calls it; voting and leader succession do not consult it.
package connectivity

import (
	"sort"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/geom")

// Graph is a same-tick, undirected communication graph: an edge exists
// between two agents iff their distance is within both endpoints'
// CommunicationRange. It is rebuilt fresh every tick and never mutated
// in place, so it is plain data, not a store.
type Graph struct {
	ids []agent.ID
	index map[agent.ID]int
	adj map[agent.ID]map[agent.ID]float64
}

// Build constructs the communication graph for the given agent snapshot
// ("Communication connectivity": "edge iff distance ≤
// agent.communicationRange for both endpoints").
func Build(agents []agent.Agent) *Graph {
	g := &Graph{
		index: make(map[agent.ID]int, len(agents)),
		adj: make(map[agent.ID]map[agent.ID]float64, len(agents)),
	}
	for i, a := range agents {
		g.ids = append(g.ids, a.ID)
		g.index[a.ID] = i
		g.adj[a.ID] = make(map[agent.ID]float64)
	}
	for i := 0; i < len(agents); i++ {
		for j := i + 1; j < len(agents); j++ {
			a, b := agents[i], agents[j]
			dist := geom.Distance(a.Position, b.Position)
			if dist <= a.CommunicationRange && dist <= b.CommunicationRange {
				g.adj[a.ID][b.ID] = dist
				g.adj[b.ID][a.ID] = dist
			}
		}
	}
	return g
}

// Agents returns every agent id the graph was built over, in input order.
func (g *Graph) Agents() []agent.ID {
	return append([]agent.ID(nil), g.ids...)
}

// HasAgent reports whether id belongs to this graph.
func (g *Graph) HasAgent(id agent.ID) bool {
	_, ok := g.index[id]
	return ok
}

// Neighbors returns the ids of id's directly reachable agents, sorted by
// agent id for determinism.
func (g *Graph) Neighbors(id agent.ID) ([]agent.ID, error) {
	nbrs, ok := g.adj[id]
	if !ok {
		return nil, ErrUnknownAgent
	}
	out := make([]agent.ID, 0, len(nbrs))
	for nbr := range nbrs {
		out = append(out, nbr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// edge is one undirected communication link, used internally by
// Backbone's Kruskal pass.
type edge struct {
	a, b agent.ID
	weight float64
}

// edges returns every undirected edge exactly once, sorted by weight
// ascending (ties broken by endpoint id) for deterministic MST output.
func (g *Graph) edges() []edge {
	var out []edge
	for _, a := range g.ids {
		for b, w := range g.adj[a] {
			if a < b {
				out = append(out, edge{a: a, b: b, weight: w})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].weight != out[j].weight {
			return out[i].weight < out[j].weight
		}
		if out[i].a != out[j].a {
			return out[i].a < out[j].a
		}
		return out[i].b < out[j].b
	})
	return out
}
