package swarmcore

import (
	"github.com/rs/zerolog"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/formation"
	"github.com/orbitswarm/swarmcore/geom"
	"github.com/orbitswarm/swarmcore/leader"
	"github.com/orbitswarm/swarmcore/randsrc"
	"github.com/orbitswarm/swarmcore/scheduler"
	"github.com/orbitswarm/swarmcore/spatial"
	"github.com/orbitswarm/swarmcore/task"
	"github.com/orbitswarm/swarmcore/voting")

// EventKind and Event are re-exported verbatim so a host never imports
// the scheduler package directly.
type (
	EventKind = scheduler.EventKind
	Event = scheduler.Event
)

// Re-exported event kinds, one per scheduler.EventKind constant.
const (
	MovementCommandsEmitted = scheduler.MovementCommandsEmitted
	VoteResult = scheduler.VoteResult
	TaskAssignment = scheduler.TaskAssignment
	TaskReassignment = scheduler.TaskReassignment
	LeadershipChange = scheduler.LeadershipChange
	FormationTransitionComplete = scheduler.FormationTransitionComplete
	FormationViolation = scheduler.FormationViolation
	LeaderLost = scheduler.LeaderLost
	MetricsSample = scheduler.MetricsSample
)

// Swarm is the single entry point a host embeds: every operation a caller
// needs — spawning agents, registering obstacles, running votes,
// assigning tasks, requesting formations, and advancing the simulation —
// goes through it. Swarm owns one scheduler.Scheduler plus the random
// sources derived from Configuration.RandomSeed (the root source and the
// spawn-jitter stream); it exists to give that scheduler a stable, documented surface instead
// of exposing every collaborator package directly.
type Swarm struct {
	sched *scheduler.Scheduler
	rng *randsrc.Source
	jitter *randsrc.Source
}

// New validates cfg and returns a Swarm with no agents, no obstacles, and
// no live formations, ready for Spawn and Tick.
func New(cfg Configuration) (*Swarm, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	store := agent.NewStore()
	grid := spatial.NewGrid(cfg.Spatial.CellSize)
	sched := scheduler.NewScheduler(store, grid, cfg.Flocking).WithLogger(log)

	leaderCoord := leader.NewCoordinator(cfg.Leader.Mode).
		WithTolerances(cfg.Leader.PositionTolerance, cfg.Leader.SmoothFactor, cfg.Leader.TimeoutMs).
		WithLogger(log)
	allocator := task.NewAllocator(cfg.Tasks.WorldScale, cfg.Tasks.MaxTasksPerAgent).WithLogger(log)
	sched = sched.
		WithLeaderCoordinator(leaderCoord).
		WithAllocator(allocator).
		WithFormationController(formation.NewController().WithThresholds(cfg.Formation)).
		WithBounds(cfg.Bounds)

	rng := randsrc.New(cfg.RandomSeed)
	sched = sched.WithVotingEngine(voting.NewEngine(rng.Derive(votingStream)).WithLogger(log))

	if cfg.Sink != nil {
		sched = sched.WithSink(cfg.Sink)
	}

	return &Swarm{sched: sched, rng: rng, jitter: rng.Derive(spawnJitterStream)}, nil
}

// spawnJitterRadius bounds the random offset applied to every Spawn
// position, breaking exact-overlap ties between agents spawned at the
// same nominal point without perceptibly moving them.
const spawnJitterRadius = 0.01

// votingStream identifies the voting engine's derived random sub-stream,
// kept distinct from the spawn-jitter stream so neither draw sequence
// affects the other.
const votingStream uint64 = 1

// spawnJitterStream identifies Spawn's derived random sub-stream.
const spawnJitterStream uint64 = 2

// Spawn creates a new agent near position, perturbed by a small random
// jitter so agents spawned at identical coordinates never perfectly
// overlap, and returns its id (`spawn(position) -> agentId`).
func (s *Swarm) Spawn(position geom.Vector, maxSpeed, commRange float64) (agent.ID, error) {
	offset := geom.Vector{
		X: (s.jitter.Float64()*2 - 1) * spawnJitterRadius,
		Y: (s.jitter.Float64()*2 - 1) * spawnJitterRadius,
	}
	return s.sched.Store().Spawn(geom.Add(position, offset), maxSpeed, commRange)
}

// Remove deletes agentID (`remove(agentId)`).
func (s *Swarm) Remove(agentID agent.ID) error {
	return s.sched.Store().Remove(agentID)
}

// Agent returns a snapshot of agentID's current state.
func (s *Swarm) Agent(agentID agent.ID) (agent.Agent, error) {
	return s.sched.Store().Get(agentID)
}

// Agents returns a snapshot of every agent regardless of status, ordered
// ascending by id.
func (s *Swarm) Agents() []agent.Agent {
	return s.sched.Store().All()
}

// RegisterObstacle adds an obstacle to the avoidance producer's working
// set and returns its id (`registerObstacle(obstacle)`).
func (s *Swarm) RegisterObstacle(id string, center geom.Vector, radius float64) (string, error) {
	return s.sched.RegisterObstacle(id, center, radius)
}

// UnregisterObstacle removes obstacle id (`unregisterObstacle(id)`).
func (s *Swarm) UnregisterObstacle(id string) error {
	return s.sched.UnregisterObstacle(id)
}

// SubmitProposal submits p to the voting engine and returns its id
// (`submitProposal(proposal) -> proposalId`).
func (s *Swarm) SubmitProposal(p voting.Proposal, now int64) (string, error) {
	return s.sched.SubmitProposal(p, now)
}

// CancelProposal cancels proposalID; subsequent votes on it are rejected.
func (s *Swarm) CancelProposal(proposalID string) error {
	return s.sched.CancelProposal(proposalID)
}

// RecordVote submits response for the leader identified by leaderID, used
// only if the proposal's tiebreaker is LeaderDecides (`recordVote(response)`).
func (s *Swarm) RecordVote(response voting.VoteResponse, leaderID int64, now int64) error {
	return s.sched.RecordVote(response, leaderID, now)
}

// Proposal returns a copy of proposalID's current state.
func (s *Swarm) Proposal(proposalID string) (voting.Proposal, error) {
	return s.sched.Voting().Get(proposalID)
}

// SubmitTask queues t for assignment at the next Tick (`submitTask(task)`).
func (s *Swarm) SubmitTask(t task.Task) {
	s.sched.SubmitTask(t)
}

// CancelTask transitions taskID's assignment to Cancelled
// (`cancelTask(taskId)`).
func (s *Swarm) CancelTask(taskID string) error {
	return s.sched.Allocator().SetStatus(taskID, task.Cancelled)
}

// ReportTaskOutcome reports taskID's terminal status, applied at the next
// Tick (`reportTaskOutcome(taskId, outcome)`).
func (s *Swarm) ReportTaskOutcome(taskID string, outcome task.Status) {
	s.sched.ReportTaskOutcome(taskID, outcome)
}

// ReportAgentFailure marks agentID Failed and reassigns its workload at
// the next Tick.
func (s *Swarm) ReportAgentFailure(agentID agent.ID) {
	s.sched.ReportAgentFailure(agentID)
}

// TaskAssignmentStatus returns a copy of taskID's current assignment.
func (s *Swarm) TaskAssignmentStatus(taskID string) (task.TaskAssignment, error) {
	return s.sched.Allocator().Get(taskID)
}

// RequestFormation assigns agents to slots of shape centered on center and
// returns the new formation's id
// (`requestFormation(shape, agentIds, center, spacing, heading) -> formationId`).
func (s *Swarm) RequestFormation(shape formation.Shape, agents []agent.Agent, center geom.Vector, spacing float64, heading geom.Vector) (string, error) {
	return s.sched.Formations().Request(shape, agents, center, spacing, heading)
}

// TransitionFormation begins a timed shape change for formationID
// (`transitionFormation(formationId, newShape, durationMs)`).
func (s *Swarm) TransitionFormation(formationID string, newShape formation.Shape, durationMs int64, now int64) error {
	return s.sched.Formations().Transition(formationID, newShape, durationMs, now)
}

// Formation returns a copy of formationID's current slot map and metadata.
func (s *Swarm) Formation(formationID string) (formation.Formation, error) {
	return s.sched.Formations().Get(formationID)
}

// SetLeader transitions leadership to agentID for reason
// (`setLeader(agentId, reason)`).
func (s *Swarm) SetLeader(agentID agent.ID, reason string, now int64) {
	s.sched.LeaderCoordinator().SetLeader(agentID, reason, s.sched.Store().All(), now)
}

// SelectLeader runs the configured selection mode over every active agent
// and installs the winner (`selectLeader(reason)`).
func (s *Swarm) SelectLeader(reason string, now int64) (agent.ID, error) {
	candidate, err := leader.SelectBest(s.sched.LeaderCoordinator().Mode(), s.sched.Store().AllActive(), centroidOf(s.sched.Store().AllActive()))
	if err != nil {
		return 0, err
	}
	s.sched.LeaderCoordinator().SetLeader(candidate.ID, reason, s.sched.Store().All(), now)
	return candidate.ID, nil
}

// RegisterFollower sets follower's offset from the leader's position;
// SetLeader, SelectLeader and leader successions recompute it from the
// agents' positions at that moment.
func (s *Swarm) RegisterFollower(follower agent.ID, offset geom.Vector) {
	s.sched.LeaderCoordinator().RegisterFollower(follower, offset)
}

// Leader returns the current leader id and whether one is set.
func (s *Swarm) Leader() (agent.ID, bool) {
	return s.sched.LeaderCoordinator().Leader()
}

// Tick advances the simulation by one fixed step of duration dt seconds
// at simulation time now, emitting every event the tick produces to
// subscribed callbacks (`tick(dt)`).
func (s *Swarm) Tick(dt float64, now int64) {
	s.sched.Tick(dt, now)
}

// Subscribe registers callback for every future event of kind
// (`subscribe(eventKind, callback)`).
func (s *Swarm) Subscribe(kind EventKind, callback func(Event)) {
	s.sched.Subscribe(kind, callback)
}

func centroidOf(agents []agent.Agent) geom.Vector {
	if len(agents) == 0 {
		return geom.Zero
	}
	var sum geom.Vector
	for _, a := range agents {
		sum = geom.Add(sum, a.Position)
	}
	return geom.Scale(sum, 1/float64(len(agents)))
}
