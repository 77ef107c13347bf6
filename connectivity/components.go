package connectivity

import (
	"sort"

	"github.com/orbitswarm/swarmcore/agent"
)

// ConnectedComponents partitions every agent in g into its reachable
// set, via breadth-first expansion from each unvisited agent (grounded
// on the visit-queue-plus-visited-set shape of a BFS walk). Each
// component is sorted by agent id; components are ordered by their
// smallest member, for determinism.
func ConnectedComponents(g *Graph) [][]agent.ID {
	visited := make(map[agent.ID]bool, len(g.ids))
	var components [][]agent.ID

	for _, start := range g.ids {
		if visited[start] {
			continue
		}
		var component []agent.ID
		queue := []agent.ID{start}
		visited[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			component = append(component, cur)
			nbrs, _ := g.Neighbors(cur)
			for _, n := range nbrs {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sortIDs(component)
		components = append(components, component)
	}
	sort.Slice(components, func(i, j int) bool { return components[i][0] < components[j][0] })
	return components
}

// ComponentOf returns the connected component containing id, or
// ErrUnknownAgent if id is not part of g.
func ComponentOf(g *Graph, id agent.ID) ([]agent.ID, error) {
	if !g.HasAgent(id) {
		return nil, ErrUnknownAgent
	}
	for _, c := range ConnectedComponents(g) {
		for _, member := range c {
			if member == id {
				return c, nil
			}
		}
	}
	return nil, ErrUnknownAgent
}

func sortIDs(ids []agent.ID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
