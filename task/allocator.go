package task

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/geom")

// Score weights ("Score").
const (distanceWeight = 30.0
	noTargetScore = 15.0
	loadWeight = 25.0
	batteryWeight = 20.0
	roleMatchBonus = 25.0
	roleOpenBonus = 12.0)

// Allocator assigns Tasks to agents and tracks per-agent workload. Safe
// for concurrent use.
type Allocator struct {
	mu sync.Mutex

	maxTasksPerAgent int
	worldScale float64 // Dmax used by the distance score term

	assignments map[string]*TaskAssignment // keyed by task id, current assignment only
	pending []Task
	workload map[agent.ID][]string // agent id -> task ids currently held

	log zerolog.Logger
}

// NewAllocator returns an Allocator. worldScale is Dmax, the reference
// distance used to normalize the distance score term; maxTasksPerAgent
// of 0 falls back to DefaultMaxTasksPerAgent.
func NewAllocator(worldScale float64, maxTasksPerAgent int) *Allocator {
	if maxTasksPerAgent <= 0 {
		maxTasksPerAgent = DefaultMaxTasksPerAgent
	}
	return &Allocator{
		maxTasksPerAgent: maxTasksPerAgent,
		worldScale: worldScale,
		assignments: make(map[string]*TaskAssignment),
		workload: make(map[agent.ID][]string),
		log: zerolog.Nop(),
	}
}

// WithLogger replaces the default no-op logger.
func (al *Allocator) WithLogger(l zerolog.Logger) *Allocator {
	al.mu.Lock()
	defer al.mu.Unlock()
	al.log = l
	return al
}

// activeLoad reports how many non-terminal assignments agent id
// currently holds.
func (al *Allocator) activeLoad(id agent.ID) int {
	return len(al.workload[id])
}

// eligible implements "Eligibility".
func (al *Allocator) eligible(t Task, a agent.Agent) bool {
	if a.Status != agent.Active {
		return false
	}
	floor := t.MinimumBattery
	if SafetyFloorBattery > floor {
		floor = SafetyFloorBattery
	}
	if a.Battery < floor {
		return false
	}
	return al.activeLoad(a.ID) < al.maxTasksPerAgent
}

// score implements "Score".
func (al *Allocator) score(t Task, a agent.Agent) float64 {
	var s float64

	if t.TargetLocation != nil {
		dmax := al.worldScale
		if dmax <= 0 {
			dmax = 1
		}
		dist := geom.Distance(a.Position, *t.TargetLocation)
		frac := (dmax - dist) / dmax
		if frac < 0 {
			frac = 0
		}
		s += distanceWeight * frac
	} else {
		s += noTargetScore
	}

	s += loadWeight * float64(al.maxTasksPerAgent-al.activeLoad(a.ID)) / float64(al.maxTasksPerAgent)
	s += batteryWeight * a.Battery

	if t.RequiredRole != "" {
		switch {
		case a.CurrentBehavior == t.RequiredRole:
			s += roleMatchBonus
		case a.CurrentBehavior == "":
			s += roleOpenBonus
		}
	}

	return s
}

// bestEligible returns the highest-scoring eligible agent among agents,
// breaking ties by the lowest agent id ("on tie, lower agent id
// wins").
func (al *Allocator) bestEligible(t Task, agents []agent.Agent) (agent.Agent, float64, bool) {
	var (best agent.Agent
		bestScore = -1.0
		found bool)
	for _, a := range agents {
		if !al.eligible(t, a) {
			continue
		}
		sc := al.score(t, a)
		if !found || sc > bestScore || (sc == bestScore && a.ID < best.ID) {
			best = a
			bestScore = sc
			found = true
		}
	}
	return best, bestScore, found
}

// AssignTask implements `assignTask(task, agents)`: it picks the
// highest-score eligible agent and records a Pending assignment, or
// queues the task as pending if none is eligible.
func (al *Allocator) AssignTask(t Task, agents []agent.Agent, now int64) (*TaskAssignment, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("task: id=%q kind=%q minBattery=%v: %w", t.ID, t.Kind, t.MinimumBattery, ErrInvalidTask)
	}

	al.mu.Lock()
	defer al.mu.Unlock()
	return al.assignLocked(t, agents, now, InitialAssignment, 0)
}

func (al *Allocator) assignLocked(t Task, agents []agent.Agent, now int64, reason Reason, reassignCount int) (*TaskAssignment, error) {
	best, sc, ok := al.bestEligible(t, agents)
	if !ok {
		al.log.Debug().Str("task", t.ID).Msg("no eligible agent: task left pending")
		al.pending = append(al.pending, t)
		return nil, nil
	}

	a := &TaskAssignment{
		Task: t,
		AgentID: best.ID,
		Status: Pending,
		Reason: reason,
		Score: sc,
		CreatedAt: now,
		ReassignmentCount: reassignCount,
	}
	al.assignments[t.ID] = a
	al.workload[best.ID] = append(al.workload[best.ID], t.ID)
	return a, nil
}

// AssignMany implements "Multi-task assignment": tasks are sorted
// High > Normal > Low before being assigned in order, so an earlier,
// higher-priority task's load impact is visible to every later decision
// in the same batch.
func (al *Allocator) AssignMany(tasks []Task, agents []agent.Agent, now int64) ([]*TaskAssignment, error) {
	sorted := make([]Task, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	out := make([]*TaskAssignment, 0, len(sorted))
	for _, t := range sorted {
		if !t.Valid() {
			return out, fmt.Errorf("task: id=%q kind=%q minBattery=%v: %w", t.ID, t.Kind, t.MinimumBattery, ErrInvalidTask)
		}
		al.mu.Lock()
		a, err := al.assignLocked(t, agents, now, InitialAssignment, 0)
		al.mu.Unlock()
		if err != nil {
			return out, err
		}
		if a != nil {
			out = append(out, a)
		}
	}
	return out, nil
}

// AgentFailed implements "Reassignment on failure": every
// non-terminal assignment owned by id is re-run through assignLocked
// against the remaining agents, with reassignmentCount incremented and
// reason set to Reassignment. If no eligible agent remains the task
// returns to pending.
func (al *Allocator) AgentFailed(id agent.ID, agents []agent.Agent, now int64) ([]*TaskAssignment, error) {
	al.mu.Lock()
	defer al.mu.Unlock()

	owned := append([]string(nil), al.workload[id]...)
	delete(al.workload, id)

	var reassigned []*TaskAssignment
	for _, taskID := range owned {
		old, ok := al.assignments[taskID]
		if !ok || old.Status.Terminal() {
			continue
		}
		delete(al.assignments, taskID)

		a, err := al.assignLocked(old.Task, agents, now, Reassignment, old.ReassignmentCount+1)
		if err != nil {
			return reassigned, err
		}
		if a != nil {
			reassigned = append(reassigned, a)
		}
	}
	return reassigned, nil
}

// SetStatus transitions taskID's current assignment to status. When
// status is terminal (TaskAssignment), the assignment is removed
// from its agent's workload list; an empty list removes the agent key
// from the workload map entirely ("Assignment lifecycle
// callback").
func (al *Allocator) SetStatus(taskID string, status Status) error {
	al.mu.Lock()
	defer al.mu.Unlock()

	a, ok := al.assignments[taskID]
	if !ok {
		return ErrUnknownAssignment
	}
	a.Status = status
	if !status.Terminal() {
		return nil
	}

	remaining := al.workload[a.AgentID][:0]
	for _, id := range al.workload[a.AgentID] {
		if id != taskID {
			remaining = append(remaining, id)
		}
	}
	if len(remaining) == 0 {
		delete(al.workload, a.AgentID)
	} else {
		al.workload[a.AgentID] = remaining
	}
	return nil
}

// Get returns a copy of taskID's current assignment.
func (al *Allocator) Get(taskID string) (TaskAssignment, error) {
	al.mu.Lock()
	defer al.mu.Unlock()
	a, ok := al.assignments[taskID]
	if !ok {
		return TaskAssignment{}, ErrUnknownAssignment
	}
	return *a, nil
}

// Pending returns a copy of the tasks currently queued with no
// assignment.
func (al *Allocator) Pending() []Task {
	al.mu.Lock()
	defer al.mu.Unlock()
	return append([]Task(nil), al.pending...)
}

// WorkloadOf returns a copy of the task ids currently held by id.
func (al *Allocator) WorkloadOf(id agent.ID) []string {
	al.mu.Lock()
	defer al.mu.Unlock()
	return append([]string(nil), al.workload[id]...)
}

// Unbalanced implements "Workload balance invariant" check: it
// returns the agents whose activeLoad exceeds 2x the mean activeLoad
// across every agent with at least one assignment. An empty result
// means the invariant holds; violations are surfaced by the caller
// (normally the metrics sink), never auto-corrected here.
func (al *Allocator) Unbalanced() []agent.ID {
	al.mu.Lock()
	defer al.mu.Unlock()

	if len(al.workload) == 0 {
		return nil
	}
	var total int
	for _, tasks := range al.workload {
		total += len(tasks)
	}
	avg := float64(total) / float64(len(al.workload))

	var violators []agent.ID
	for id, tasks := range al.workload {
		if float64(len(tasks)) > 2*avg {
			violators = append(violators, id)
		}
	}
	sort.Slice(violators, func(i, j int) bool { return violators[i] < violators[j] })
	return violators
}
