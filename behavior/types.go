// Package behavior defines the shared vocabulary every per-agent producer
// (flocking, formation, leader-follower, obstacle avoidance, and the
// swarm-level coordinators) submits to the arbiter: BehaviorKind, the
// priority table of, MovementCommand, and BehaviorRequest.
//
// The kind/priority/compatibility tables here follow the same
// tagged-variant-plus-lookup-table shape lvlath/builder uses for its shape
// enums (e.g. variants_platonic.go's PlatonicName + data tables): a single
// source of truth per table, looked up with a switch or map rather than
// dispatched through a method on each variant, so the ordering rule lives
// in one place ("Behavior polymorphism").
package behavior

// Kind tags which producer submitted a BehaviorRequest and fixes its
// priority under arbitration.
type Kind int

const (Evading Kind = iota
	Returning
	Failed
	TaskExecution
	Formation
	Leader
	Scout
	Guard
	Follower
	Flocking
	Idle)

// String renders the kind for logs and metric tags.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

var kindNames = map[Kind]string{
	Evading: "evading",
	Returning: "returning",
	Failed: "failed",
	TaskExecution: "task_execution",
	Formation: "formation",
	Leader: "leader",
	Scout: "scout",
	Guard: "guard",
	Follower: "follower",
	Flocking: "flocking",
	Idle: "idle",
}

// priorityTable is the single source of truth for priority table.
// Higher wins on pure override.
var priorityTable = map[Kind]int{
	Evading: 100,
	Returning: 90,
	Failed: 85,
	TaskExecution: 70,
	Formation: 60,
	Leader: 55,
	Scout: 50,
	Guard: 50,
	Follower: 40,
	Flocking: 30,
	Idle: 10,
}

// Priority returns k's fixed priority. Unknown kinds return 0, sorting
// below Idle — a producer bug should lose arbitration, not win it.
func Priority(k Kind) int {
	if p, ok := priorityTable[k]; ok {
		return p
	}
	return 0
}

// EmergencyThreshold is the priority at/above which arbitration is a pure
// emergency override (step 2).
const EmergencyThreshold = 100

// NarrowBlendThreshold is the priority at/above which only a narrow blend
// with Evading is permitted (step 3).
const NarrowBlendThreshold = 90

// CommandType tags the payload carried by a MovementCommand.
type CommandType int

const (FlockingBehavior CommandType = iota
	FormationPosition
	MoveToTarget
	AvoidObstacle
	StopAndHold)

// String renders the command type for logs and metric tags.
func (c CommandType) String() string {
	switch c {
	case FlockingBehavior:
		return "flocking_behavior"
	case FormationPosition:
		return "formation_position"
	case MoveToTarget:
		return "move_to_target"
	case AvoidObstacle:
		return "avoid_obstacle"
	case StopAndHold:
		return "stop_and_hold"
	default:
		return "unknown"
	}
}

// Vector2 avoids importing geom into every consumer package's type
// signatures where only the field shape matters; swarmcore's facade
// re-exports geom.Vector as the concrete alias used everywhere else, and
// this type is structurally identical so conversions are a plain cast.
type Vector2 struct{ X, Y float64 }

// MovementCommand is the tagged, immutable-once-produced command a
// producer emits for one agent. Only the fields relevant to Type are
// meaningful; the rest are zero.
type MovementCommand struct {
	AgentID int64
	Type CommandType

	// CombinedForce carries a steering force (Flocking, AvoidObstacle, and
	// the corrective force of Formation).
	CombinedForce Vector2

	// TargetPosition carries a destination (MoveToTarget, FormationPosition).
	TargetPosition Vector2

	// Speed carries a scalar speed override, when a producer wants to
	// constrain speed independent of force (e.g. StopAndHold uses Speed=0).
	Speed float64
}

// BehaviorRequest is what a producer submits to the arbiter for one agent,
// once per tick.
type BehaviorRequest struct {
	AgentID int64
	Kind Kind
	Command MovementCommand
	Timestamp int64
}
