// Package task implements the task allocator: eligibility
// scoring, greedy single- and multi-task assignment, failure-triggered
// reassignment, and workload-balance tracking.
package task

import (
	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/geom")

// Priority orders tasks during multi-task assignment: High before
// Normal before Low ("Multi-task assignment").
type Priority int

const (Low Priority = iota
	Normal
	High)

func (p Priority) String() string {
	switch p {
	case High:
		return "high"
	case Normal:
		return "normal"
	case Low:
		return "low"
	default:
		return "unknown"
	}
}

// Task is a unit of work the allocator can assign to an agent (Task).
type Task struct {
	ID string
	Kind string
	Priority Priority
	TargetLocation *geom.Vector // nil means "no target", per distance scoring
	EstimatedDurationMs int64
	MinimumBattery float64 // in [0,1]
	RequiredRole string // empty means "no role required"
}

// Valid reports whether t satisfies Task invariant: non-empty id,
// non-empty kind, minimumBattery in [0,1].
func (t Task) Valid() bool {
	if t.ID == "" || t.Kind == "" {
		return false
	}
	return t.MinimumBattery >= 0 && t.MinimumBattery <= 1
}

// Status is a TaskAssignment's lifecycle stage (TaskAssignment).
type Status int

const (Pending Status = iota
	InProgress
	Completed
	Failed
	Cancelled
	Blocked)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// Terminal reports whether s is one of the terminal states that removes
// an assignment from its agent's workload (TaskAssignment).
func (s Status) Terminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// Reason explains why a TaskAssignment exists in its current form.
type Reason int

const (InitialAssignment Reason = iota
	Reassignment)

func (r Reason) String() string {
	if r == Reassignment {
		return "reassignment"
	}
	return "initial"
}

// TaskAssignment binds a Task to an agent (TaskAssignment). Exactly
// one assignment exists per (task, agent) pair at a time.
type TaskAssignment struct {
	Task Task
	AgentID agent.ID
	Status Status
	Reason Reason
	Score float64
	CreatedAt int64
	ReassignmentCount int
}

// Defaults for eligibility rule.
const (DefaultMaxTasksPerAgent = 3
	SafetyFloorBattery = 0.2)
