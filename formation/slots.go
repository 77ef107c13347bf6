package formation

import (
	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/geom"
)

// assignSlots maps each agent to one of slots (len(agents) == len(slots))
// so as to minimize total travel distance, via deterministic greedy
// nearest-pair matching followed by first-improvement pairwise-swap
// refinement — the same two-stage shape as a greedy matching seed
// refined by 2-opt, the way a traveling-salesman solver seeds a tour
// with greedy odd-vertex matching before refining it. Agent order is a
// stable tie-break: among equal-cost candidates the lower agent id is
// preferred, so the assignment is reproducible.
//
// Complexity: O(n^2) for the greedy seed, O(n^2) per refinement sweep.
func assignSlots(agents []agent.Agent, slots []geom.Vector) map[agent.ID]geom.Vector {
	n := len(agents)
	if n == 0 || n != len(slots) {
		return map[agent.ID]geom.Vector{}
	}

	assigned := make([]int, n) // agents[i] -> slots[assigned[i]]
	used := make([]bool, n)

	// Greedy seed: process agents in id order, each claiming its nearest
	// still-unused slot.
	order := sortedAgentIndices(agents)
	for _, i := range order {
		best := -1
		bestD := 0.0
		for s := 0; s < n; s++ {
			if used[s] {
				continue
			}
			d := geom.DistanceSq(agents[i].Position, slots[s])
			if best == -1 || d < bestD {
				best = s
				bestD = d
			}
		}
		assigned[i] = best
		used[best] = true
	}

	// First-improvement pairwise-swap refinement: swap any two agents'
	// slots if doing so reduces total squared travel distance.
	improved := true
	for improved {
		improved = false
		for _, i := range order {
			for _, j := range order {
				if i >= j {
					continue
				}
				si, sj := assigned[i], assigned[j]
				current := geom.DistanceSq(agents[i].Position, slots[si]) + geom.DistanceSq(agents[j].Position, slots[sj])
				swapped := geom.DistanceSq(agents[i].Position, slots[sj]) + geom.DistanceSq(agents[j].Position, slots[si])
				if swapped < current {
					assigned[i], assigned[j] = sj, si
					improved = true
				}
			}
		}
	}

	out := make(map[agent.ID]geom.Vector, n)
	for i, a := range agents {
		out[a.ID] = slots[assigned[i]]
	}
	return out
}

// sortedAgentIndices returns the indices of agents in ascending agent.ID
// order, giving the assignment a deterministic, tie-break-stable
// iteration order independent of input ordering.
func sortedAgentIndices(agents []agent.Agent) []int {
	idx := make([]int, len(agents))
	for i := range idx {
		idx[i] = i
	}
	for i := 1; i < len(idx); i++ {
		j := i
		for j > 0 && agents[idx[j-1]].ID > agents[idx[j]].ID {
			idx[j-1], idx[j] = idx[j], idx[j-1]
			j--
		}
	}
	return idx
}
