package agent

import "sync"

// Store owns every Agent record. It is mutated only by the tick scheduler,
// between the producer and integrator phases ; producers never call
// a mutating method directly, only Get/AllActive.
//
// Thread-safe: acquires s.mu for every access, mirroring
// lvlath/core.Graph's RWMutex discipline, so that a scheduler which
// parallelizes read-only producer execution against a consistent snapshot
// (quoting: "if an implementation parallelizes producers, it must do so against
// an immutable snapshot") can still safely call AllActive/Get concurrently.
type Store struct {
	mu sync.RWMutex
	agents map[ID]*Agent
	nextID ID
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{agents: make(map[ID]*Agent)}
}

// Spawn creates a new agent at position with the given max speed and
// communication range, and returns its ID. Battery defaults to 1.0 and
// status to Active.
//
// Complexity: O(1).
func (s *Store) Spawn(position Vector, maxSpeed, commRange float64) (ID, error) {
	if maxSpeed <= 0 {
		return 0, ErrInvalidSpeed
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.agents[id] = &Agent{
		ID: id,
		Position: position,
		Status: Active,
		Battery: 1.0,
		MaxSpeed: maxSpeed,
		CommunicationRange: commRange,
	}
	return id, nil
}

// Remove deletes the agent with the given ID. Removing an unknown ID is a
// no-op returning ErrUnknownAgent, per the error-handling policy: a single
// bad input never halts the tick loop.
//
// Complexity: O(1).
func (s *Store) Remove(id ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.agents[id]; !ok {
		return ErrUnknownAgent
	}
	delete(s.agents, id)
	return nil
}

// Get returns a snapshot copy of the agent with the given ID.
//
// Complexity: O(1).
func (s *Store) Get(id ID) (Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents[id]
	if !ok {
		return Agent{}, ErrUnknownAgent
	}
	return a.Clone(), nil
}

// AllActive returns a snapshot of every agent currently in Active status,
// ordered ascending by ID — the allocator and formation controller depend
// on this ordering for deterministic outcomes (quoting: "the allocator must
// iterate agents in ascending id for repeatable outcomes").
//
// Complexity: O(n^2) worst case for the insertion sort; n = agent count.
func (s *Store) AllActive() []Agent {
	return s.filter(func(a *Agent) bool { return a.Status == Active })
}

// All returns a snapshot of every agent regardless of status, ordered
// ascending by ID.
//
// Complexity: O(n^2) worst case for the insertion sort.
func (s *Store) All() []Agent {
	return s.filter(func(*Agent) bool { return true })
}

func (s *Store) filter(keep func(*Agent) bool) []Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Agent, 0, len(s.agents))
	for _, a := range s.agents {
		if keep(a) {
			out = append(out, a.Clone())
		}
	}
	sortByID(out)
	return out
}

func sortByID(agents []Agent) {
	// Insertion sort: agent counts in this core's target range (tens to a
	// few thousand) make O(n^2) worst case fine, and it keeps this package
	// free of a sort.Slice closure allocation on every call. Swap to
	// sort.Slice if profiling ever shows otherwise.
	for i := 1; i < len(agents); i++ {
		j := i
		for j > 0 && agents[j-1].ID > agents[j].ID {
			agents[j-1], agents[j] = agents[j], agents[j-1]
			j--
		}
	}
}

// ApplyStep writes the integrator's result for id back into the store:
// new position and new velocity. Status, battery, behavior tag, formation
// and task fields are changed through their own Set* methods; the
// scheduler is the only caller (contract).
//
// Complexity: O(1).
func (s *Store) ApplyStep(id ID, newPos, newVel Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return ErrUnknownAgent
	}
	a.Position = newPos
	a.Velocity = newVel
	return nil
}

// SetStatus transitions an agent's status (e.g. Active -> Failed on
// failure report, Failed -> Active on recovery).
//
// Complexity: O(1).
func (s *Store) SetStatus(id ID, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return ErrUnknownAgent
	}
	a.Status = status
	return nil
}

// SetBattery sets an agent's battery level, clamped to [0,1].
//
// Complexity: O(1).
func (s *Store) SetBattery(id ID, level float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return ErrUnknownAgent
	}
	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}
	a.Battery = level
	return nil
}

// SetBehaviorTag records the arbiter's chosen behavior tag for id, the
// "at most one behavior tag per agent at end of tick" invariant.
//
// Complexity: O(1).
func (s *Store) SetBehaviorTag(id ID, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return ErrUnknownAgent
	}
	a.CurrentBehavior = tag
	return nil
}

// SetFormationSlot records the formation/slot assignment for id, or clears
// it when formationID is empty.
//
// Complexity: O(1).
func (s *Store) SetFormationSlot(id ID, formationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return ErrUnknownAgent
	}
	a.FormationID = formationID
	return nil
}

// SetTask records the task assignment for id, or clears it when taskID is
// empty.
//
// Complexity: O(1).
func (s *Store) SetTask(id ID, taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.agents[id]
	if !ok {
		return ErrUnknownAgent
	}
	a.TaskID = taskID
	return nil
}
