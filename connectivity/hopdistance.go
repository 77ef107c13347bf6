package connectivity

import (
	"fmt"
	"math"

	"github.com/orbitswarm/swarmcore/agent"
)

// MaxHopDistanceAgents bounds HopDistances' all-pairs pass: beyond this
// many agents the O(n^3) relaxation would dominate a tick, so callers
// get ErrTooManyAgents instead of a silent stall.
const MaxHopDistanceAgents = 256

// HopDistances computes the fewest-hops path length between every pair
// of agents reachable from one another, via Floyd-Warshall's triple-
// nested relaxation over a hop-count matrix (unweighted: every direct
// link costs one hop, regardless of its physical distance). Unreachable
// pairs are absent from the result.
func HopDistances(g *Graph) (map[agent.ID]map[agent.ID]int, error) {
	n := len(g.ids)
	if n > MaxHopDistanceAgents {
		return nil, fmt.Errorf("connectivity: %d agents > %d: %w", n, MaxHopDistanceAgents, ErrTooManyAgents)
	}

	const unreachable = math.MaxInt32
	dist := make([][]int, n)
	for i := range dist {
		dist[i] = make([]int, n)
		for j := range dist[i] {
			if i == j {
				dist[i][j] = 0
			} else {
				dist[i][j] = unreachable
			}
		}
	}
	for i, a := range g.ids {
		for nbr := range g.adj[a] {
			j := g.index[nbr]
			dist[i][j] = 1
		}
	}

	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			if dist[i][k] == unreachable {
				continue
			}
			for j := 0; j < n; j++ {
				if dist[k][j] == unreachable {
					continue
				}
				if via := dist[i][k] + dist[k][j]; via < dist[i][j] {
					dist[i][j] = via
				}
			}
		}
	}

	out := make(map[agent.ID]map[agent.ID]int, n)
	for i, a := range g.ids {
		row := make(map[agent.ID]int)
		for j, b := range g.ids {
			if i != j && dist[i][j] != unreachable {
				row[b] = dist[i][j]
			}
		}
		out[a] = row
	}
	return out, nil
}
