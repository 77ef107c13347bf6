// Package arbiter implements the behavior arbitration pipeline:
// sort every producer's BehaviorRequest for one agent by priority, then
// resolve by emergency override, narrow blend, compatibility-gated
// weighted blend, or highest-priority-wins, in that order.
package arbiter

import (
	"sort"

	"github.com/orbitswarm/swarmcore/behavior")

// compatible is the symmetric compatibility table of step 4. Pairs
// not listed here (including a kind with itself, outside the special
// cases below) are treated as incompatible.
var compatible = map[behavior.Kind]map[behavior.Kind]bool{
	behavior.Flocking: {behavior.Formation: true, behavior.Leader: true, behavior.Follower: true, behavior.Scout: true, behavior.Guard: true},
	behavior.Formation: {behavior.Flocking: true, behavior.Leader: true, behavior.Follower: true, behavior.Guard: true},
	behavior.Leader: {behavior.Flocking: true, behavior.Formation: true},
	behavior.Scout: {behavior.Flocking: true},
	behavior.Guard: {behavior.Flocking: true, behavior.Formation: true},
	behavior.Returning: {behavior.Evading: true},
}

// neverBlend holds the kinds step 4 says "never blend": even paired
// with something nominally listed above, these kinds never participate
// in a weighted blend; arbitration falls through to highest-priority-wins.
var neverBlend = map[behavior.Kind]bool{
	behavior.TaskExecution: true,
	behavior.Evading: true,
	behavior.Failed: true,
	behavior.Idle: true,
}

// isCompatible reports whether a and b may appear together in a weighted
// blend, per the symmetric table.
func isCompatible(a, b behavior.Kind) bool {
	if neverBlend[a] || neverBlend[b] {
		return false
	}
	if m, ok := compatible[a]; ok && m[b] {
		return true
	}
	if m, ok := compatible[b]; ok && m[a] {
		return true
	}
	return false
}

// Resolve arbitrates every BehaviorRequest submitted for one agent in one
// tick and returns the single resulting MovementCommand. requests
// must be non-empty; Resolve panics on an empty slice since the tick
// scheduler never calls arbitration for an agent with no pending request.
func Resolve(requests []behavior.BehaviorRequest) behavior.MovementCommand {
	sorted := make([]behavior.BehaviorRequest, len(requests))
	copy(sorted, requests)
	sort.SliceStable(sorted, func(i, j int) bool {
		return behavior.Priority(sorted[i].Kind) > behavior.Priority(sorted[j].Kind)
	})

	top := sorted[0]
	topPriority := behavior.Priority(top.Kind)

	// Step 2: emergency override — emit verbatim, never blend.
	if topPriority >= behavior.EmergencyThreshold {
		return top.Command
	}

	// Step 3: narrow blend window — only Evading may join the top request.
	if topPriority >= behavior.NarrowBlendThreshold {
		var toBlend []behavior.BehaviorRequest
		toBlend = append(toBlend, top)
		for _, r := range sorted[1:] {
			if r.Kind == behavior.Evading {
				toBlend = append(toBlend, r)
			}
		}
		if len(toBlend) == 1 {
			return top.Command
		}
		return weightedBlend(toBlend)
	}

	// Step 4: compatibility-gated blend across every pair with the top.
	group := []behavior.BehaviorRequest{top}
	allCompatible := true
	for _, r := range sorted[1:] {
		if isCompatible(top.Kind, r.Kind) {
			group = append(group, r)
		} else {
			allCompatible = false
		}
	}
	if allCompatible && len(group) > 1 {
		return weightedBlend(group)
	}

	// Step 6: otherwise, highest-priority command wins verbatim.
	return top.Command
}

// weightedBlend computes Σ(priority_i/Σpriority)·field_i for force,
// target, and speed, and tags the result with the highest-priority
// contributor's command type (step 5).
func weightedBlend(group []behavior.BehaviorRequest) behavior.MovementCommand {
	var totalWeight float64
	for _, r := range group {
		totalWeight += float64(behavior.Priority(r.Kind))
	}
	if totalWeight == 0 {
		return group[0].Command
	}

	var force, target behavior.Vector2
	var speed float64
	for _, r := range group {
		w := float64(behavior.Priority(r.Kind)) / totalWeight
		force.X += w * r.Command.CombinedForce.X
		force.Y += w * r.Command.CombinedForce.Y
		target.X += w * r.Command.TargetPosition.X
		target.Y += w * r.Command.TargetPosition.Y
		speed += w * r.Command.Speed
	}

	return behavior.MovementCommand{
		AgentID: group[0].Command.AgentID,
		Type: group[0].Command.Type, // group[0] is the highest-priority contributor
		CombinedForce: force,
		TargetPosition: target,
		Speed: speed,
	}
}

// InEmergencyMode reports whether any of requests carries emergency
// priority (quoting: "An agent is 'in emergency mode' iff any pending
// request has priority >= 100").
func InEmergencyMode(requests []behavior.BehaviorRequest) bool {
	for _, r := range requests {
		if behavior.Priority(r.Kind) >= behavior.EmergencyThreshold {
			return true
		}
	}
	return false
}
