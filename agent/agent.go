// Package agent owns the swarm's agent records. The Store is the only
// component permitted to mutate an Agent; every other package holds a
// stable ID and resolves it through Store.Get (a relation, never
// ownership — see DESIGN.md, "Cyclic / reference-heavy graphs").
package agent

import "github.com/orbitswarm/swarmcore/geom"

// ID identifies an agent for the lifetime of the simulation. IDs are never
// reused after Remove.
type ID int64

// Status is the agent's current lifecycle/behavior phase.
type Status int

const (// Active agents participate fully in producers, voting, and tasking.
	Active Status = iota
	// Voting agents are mid-vote on a proposal; they still move.
	Voting
	// DecisionMade agents have cast their vote and are awaiting the
	// proposal's resolution.
	DecisionMade
	// Returning agents are headed back (e.g. to base, or to a safe
	// formation) under the Returning behavior, priority 90.
	Returning
	// Failed agents have reported a failure; they are excluded from new
	// task/formation assignment and trigger reassignment/succession.
	Failed
	// Idle agents have no active behavior.
	Idle)

// String renders the status for logs and metric tags.
func (s Status) String() string {
	switch s {
	case Active:
		return "active"
	case Voting:
		return "voting"
	case DecisionMade:
		return "decision_made"
	case Returning:
		return "returning"
	case Failed:
		return "failed"
	case Idle:
		return "idle"
	default:
		return "unknown"
	}
}

// Agent is one member of the swarm. Only Store mutates an Agent in place;
// every other package treats values read via Store.Get as a snapshot valid
// for the duration of the current tick.
type Agent struct {
	ID ID
	Position Vector
	Velocity Vector
	Status Status

	// CurrentBehavior is the behavior tag the arbiter assigned at the end
	// of the previous tick; at most one per agent (invariant).
	CurrentBehavior string

	Battery float64 // in [0,1]
	MaxSpeed float64
	CommunicationRange float64

	// FormationID is set when the agent holds a formation slot; TaskID is
	// set when the agent holds a task assignment. The empty string means
	// "unassigned".
	FormationID string
	TaskID string
}

// Vector re-exports geom.Vector under the agent package so callers that
// only need agent state don't need a second import for position/velocity
// types; the underlying representation is identical.
type Vector = geom.Vector

// Clone returns a value copy of a, safe to hand out as a snapshot.
func (a Agent) Clone() Agent {
	return a
}
