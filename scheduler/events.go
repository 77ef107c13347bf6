package scheduler

import "sync"

// EventKind tags one of the observable, non-error occurrences the tick
// loop reports ("Events emitted" / first-class LeaderLost and
// FormationViolation events, which are notifications, not errors).
type EventKind int

const (// MovementCommandsEmitted carries every MovementCommand produced this
	// tick, keyed by agent id, as the payload.
	MovementCommandsEmitted EventKind = iota
	// VoteResult carries a voting.VoteResult when a tracked proposal
	// terminates (decided or timed out).
	VoteResult
	// TaskAssignment carries a *task.TaskAssignment for a brand-new
	// assignment.
	TaskAssignment
	// TaskReassignment carries a *task.TaskAssignment produced by
	// Allocator.AgentFailed.
	TaskReassignment
	// LeadershipChange carries a leader.Succession.
	LeadershipChange
	// FormationTransitionComplete carries the formation id whose
	// transition just reached progress 1.
	FormationTransitionComplete
	// FormationViolation carries the formation id that fell below its
	// shape's minimum agent count and was disbanded.
	FormationViolation
	// LeaderLost carries the agent id of the leader whose health check
	// failed.
	LeaderLost
	// MetricsSample carries the tick's MetricsSnapshot.
	MetricsSample)

// String renders the event kind for logs and metric tags.
func (k EventKind) String() string {
	switch k {
	case MovementCommandsEmitted:
		return "movement_commands"
	case VoteResult:
		return "vote_result"
	case TaskAssignment:
		return "task_assignment"
	case TaskReassignment:
		return "task_reassignment"
	case LeadershipChange:
		return "leadership_change"
	case FormationTransitionComplete:
		return "formation_transition_complete"
	case FormationViolation:
		return "formation_violation"
	case LeaderLost:
		return "leader_lost"
	case MetricsSample:
		return "metrics_sample"
	default:
		return "unknown"
	}
}

// Event is one observable occurrence emitted by a tick, delivered to every
// subscriber of its Kind.
type Event struct {
	Kind EventKind
	Payload interface{}
	Tick int64
	Timestamp int64
}

// Bus is a mutex-guarded, synchronous publish/subscribe fan-out (// "subscribe(eventKind, callback)"). Unlike a channel-based broadcaster,
// callbacks run inline on the tick goroutine in subscription order — the
// tick loop has no suspension points, so delivery must not block on
// anything a callback itself doesn't control.
type Bus struct {
	mu sync.Mutex
	listeners map[EventKind][]func(Event)
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{listeners: make(map[EventKind][]func(Event))}
}

// Subscribe registers callback to run for every future event of kind.
// Subscriptions are never removed within a run; the core has no use case
// for unsubscribing mid-simulation.
func (b *Bus) Subscribe(kind EventKind, callback func(Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[kind] = append(b.listeners[kind], callback)
}

// Publish delivers evt to every subscriber of evt.Kind, in subscription
// order. A panicking callback is not recovered: a broken subscriber is a
// host bug, and the core does not paper over it.
func (b *Bus) Publish(evt Event) {
	b.mu.Lock()
	callbacks := make([]func(Event), len(b.listeners[evt.Kind]))
	copy(callbacks, b.listeners[evt.Kind])
	b.mu.Unlock()
	for _, cb := range callbacks {
		cb(evt)
	}
}
