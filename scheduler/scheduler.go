// Package scheduler drives the fixed-Δt tick loop: rebuild the
// spatial index, advance time-based coordinators, run every per-agent
// producer, arbitrate, integrate physics, react to external task signals,
// and emit metrics — the single ordering every other package's output
// flows through once per tick.
package scheduler

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/arbiter"
	"github.com/orbitswarm/swarmcore/behavior"
	"github.com/orbitswarm/swarmcore/flocking"
	"github.com/orbitswarm/swarmcore/formation"
	"github.com/orbitswarm/swarmcore/geom"
	"github.com/orbitswarm/swarmcore/leader"
	"github.com/orbitswarm/swarmcore/neighbor"
	"github.com/orbitswarm/swarmcore/obstacle"
	"github.com/orbitswarm/swarmcore/randsrc"
	"github.com/orbitswarm/swarmcore/spatial"
	"github.com/orbitswarm/swarmcore/task"
	"github.com/orbitswarm/swarmcore/voting")

// outcomeSignal is a queued externally-reported task terminal status,
// drained at step 7 of the next tick (step 7: "task allocator
// reactions to completed tasks").
type outcomeSignal struct {
	taskID string
	status task.Status
}

// Scheduler owns the collaborators a tick walks through in order and the
// small input queues that let external callers (the facade) feed it
// between ticks without racing the tick goroutine ("external inputs
//... are drained from input queues and applied before the next tick").
type Scheduler struct {
	mu sync.Mutex

	store *agent.Store
	grid *spatial.Grid
	flockCfg flocking.Config
	formations *formation.Controller
	leaderCoord *leader.Coordinator
	votingEng *voting.Engine
	allocator *task.Allocator
	bus *Bus
	sink MetricsSink
	bounds WorldBounds
	log zerolog.Logger

	obstacleDetectionRange float64
	obstacleCriticalDistance float64
	obstacleMaxForce float64

	obstacles []obstacle.Obstacle
	trackedProposals map[string]int64 // proposal id -> submittedAt, for consensus-time metrics
	pendingFailures []agent.ID
	pendingOutcomes []outcomeSignal
	pendingTasks []task.Task
	notifiedDisbanded map[string]bool

	tickCount int64
}

// NewScheduler returns a Scheduler over store and grid, using flockCfg for
// every agent's flocking producer. Every other collaborator is given a
// default instance (an empty formation controller, a highest-battery
// leader coordinator, a voting engine seeded deterministically, and a
// generous-default task allocator); use the With* methods to replace any
// of them before the first Tick.
func NewScheduler(store *agent.Store, grid *spatial.Grid, flockCfg flocking.Config) *Scheduler {
	return &Scheduler{
		store: store,
		grid: grid,
		flockCfg: flockCfg,
		formations: formation.NewController(),
		leaderCoord: leader.NewCoordinator(leader.HighestBattery),
		votingEng: voting.NewEngine(randsrc.New(0)),
		allocator: task.NewAllocator(1000, task.DefaultMaxTasksPerAgent),
		bus: NewBus(),
		sink: NoopSink{},
		log: zerolog.Nop(),
		obstacleDetectionRange: obstacle.DefaultDetectionRange,
		obstacleCriticalDistance: obstacle.DefaultCriticalDistance,
		obstacleMaxForce: obstacle.DefaultMaxForce,
		trackedProposals: make(map[string]int64),
		notifiedDisbanded: make(map[string]bool),
	}
}

// WithFormationController replaces the default formation controller.
func (s *Scheduler) WithFormationController(c *formation.Controller) *Scheduler {
	s.formations = c
	return s
}

// WithLeaderCoordinator replaces the default leader coordinator.
func (s *Scheduler) WithLeaderCoordinator(c *leader.Coordinator) *Scheduler {
	s.leaderCoord = c
	return s
}

// WithVotingEngine replaces the default voting engine.
func (s *Scheduler) WithVotingEngine(e *voting.Engine) *Scheduler {
	s.votingEng = e
	return s
}

// WithAllocator replaces the default task allocator.
func (s *Scheduler) WithAllocator(a *task.Allocator) *Scheduler {
	s.allocator = a
	return s
}

// WithBounds sets the world-bounds policy the integrator enforces.
func (s *Scheduler) WithBounds(b WorldBounds) *Scheduler {
	s.bounds = b
	return s
}

// WithLogger replaces the default no-op logger. The scheduler never
// writes to stdout/stderr on its own initiative beyond this logger;
// logging is diagnostic tracing only, never a substitute for the
// published Event stream.
func (s *Scheduler) WithLogger(l zerolog.Logger) *Scheduler {
	s.log = l
	return s
}

// WithSink replaces the default no-op metrics sink.
func (s *Scheduler) WithSink(sink MetricsSink) *Scheduler {
	s.sink = sink
	return s
}

// WithObstacleTuning overrides the individual-repulsion parameters used
// by the obstacle producer (defaults otherwise).
func (s *Scheduler) WithObstacleTuning(detectionRange, criticalDistance, maxForce float64) *Scheduler {
	s.obstacleDetectionRange = detectionRange
	s.obstacleCriticalDistance = criticalDistance
	s.obstacleMaxForce = maxForce
	return s
}

// Store, Grid, Formations, LeaderCoordinator, Voting, and Allocator expose
// the collaborators a facade wires external operations (spawn,
// requestFormation, submitProposal, submitTask,...) through directly;
// the scheduler only needs to own them for ordering, not gate every call.
func (s *Scheduler) Store() *agent.Store { return s.store }
func (s *Scheduler) Grid() *spatial.Grid { return s.grid }
func (s *Scheduler) Formations() *formation.Controller { return s.formations }
func (s *Scheduler) LeaderCoordinator() *leader.Coordinator { return s.leaderCoord }
func (s *Scheduler) Voting() *voting.Engine { return s.votingEng }
func (s *Scheduler) Allocator() *task.Allocator { return s.allocator }

// Subscribe registers callback for every future event of kind (// "subscribe(eventKind, callback)").
func (s *Scheduler) Subscribe(kind EventKind, callback func(Event)) {
	s.bus.Subscribe(kind, callback)
}

// RegisterObstacle adds an obstacle to the avoidance producer's working
// set and returns its id ("registerObstacle(obstacle)").
func (s *Scheduler) RegisterObstacle(id string, center geom.Vector, radius float64) (string, error) {
	o, err := obstacle.NewObstacle(id, center, radius)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.obstacles = append(s.obstacles, o)
	s.mu.Unlock()
	return o.ID, nil
}

// UnregisterObstacle removes obstacle id from the working set.
func (s *Scheduler) UnregisterObstacle(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.obstacles {
		if o.ID == id {
			s.obstacles = append(s.obstacles[:i], s.obstacles[i+1:]...)
			return nil
		}
	}
	return ErrUnknownObstacle
}

// SubmitProposal submits p to the voting engine and starts tracking it for
// timeout checks and the consensus-time metric.
func (s *Scheduler) SubmitProposal(p voting.Proposal, now int64) (string, error) {
	id, err := s.votingEng.Submit(p, now)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.trackedProposals[id] = now
	s.mu.Unlock()
	return id, nil
}

// CancelProposal cancels proposalID and stops tracking it.
func (s *Scheduler) CancelProposal(proposalID string) error {
	if err := s.votingEng.Cancel(proposalID); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.trackedProposals, proposalID)
	s.mu.Unlock()
	return nil
}

// RecordVote forwards response to the voting engine and, if it reached
// quorum immediately, resolves and publishes the result without waiting
// for the next tick's timeout pass (quoting: "within a tick, responses are
// evaluated before the deadline check").
func (s *Scheduler) RecordVote(response voting.VoteResponse, leaderID int64, now int64) error {
	if err := s.votingEng.RecordVote(response); err != nil {
		return err
	}
	result, err := s.votingEng.Evaluate(response.ProposalID, leaderID, now)
	if err == nil && result.Consensus {
		s.finishProposal(response.ProposalID, result, now)
	}
	return nil
}

// SubmitTask queues t for assignment at the next tick's step 7.
func (s *Scheduler) SubmitTask(t task.Task) {
	s.mu.Lock()
	s.pendingTasks = append(s.pendingTasks, t)
	s.mu.Unlock()
}

// ReportTaskOutcome queues a terminal-status signal for taskID, applied at
// the next tick's step 7.
func (s *Scheduler) ReportTaskOutcome(taskID string, status task.Status) {
	s.mu.Lock()
	s.pendingOutcomes = append(s.pendingOutcomes, outcomeSignal{taskID: taskID, status: status})
	s.mu.Unlock()
}

// ReportAgentFailure queues a failure notification for id, applied at the
// next tick's step 7 (marks the agent Failed and reassigns its workload).
func (s *Scheduler) ReportAgentFailure(id agent.ID) {
	s.mu.Lock()
	s.pendingFailures = append(s.pendingFailures, id)
	s.mu.Unlock()
}

// Tick advances the simulation by one fixed step of duration dt (seconds),
// at simulation time now, following eight-step order exactly.
func (s *Scheduler) Tick(dt float64, now int64) {
	s.mu.Lock()
	failures := s.pendingFailures
	s.pendingFailures = nil
	outcomes := s.pendingOutcomes
	s.pendingOutcomes = nil
	newTasks := s.pendingTasks
	s.pendingTasks = nil
	obstacles := append([]obstacle.Obstacle(nil), s.obstacles...)
	tracked := make([]string, 0, len(s.trackedProposals))
	for id := range s.trackedProposals {
		tracked = append(tracked, id)
	}
	sort.Strings(tracked)
	s.mu.Unlock()

	s.tickCount++

	// Step 1-2: snapshot agents, rebuild the spatial index.
	agents := s.store.AllActive()
	byID := make(map[agent.ID]agent.Agent, len(agents))
	for _, a := range agents {
		byID[a.ID] = a
	}
	s.grid.Rebuild(agents)

	// Step 3: advance time-based coordinators.
	s.advanceFormations(now)
	s.checkVoteTimeouts(tracked, now)
	s.checkLeaderHealth(agents, now)

	// Step 4: per-agent producers.
	requests := make(map[agent.ID][]behavior.BehaviorRequest, len(agents))
	for _, a := range agents {
		nbrs := neighbor.Query(s.grid, a, s.flockCfg.Rc)
		requests[a.ID] = append(requests[a.ID], flocking.Compute(int64(a.ID), a.Position, a.Velocity, nbrs, s.flockCfg, now))
	}
	s.appendFormationRequests(requests, now)
	s.appendLeaderRequests(agents, requests, now)
	s.appendObstacleRequests(agents, obstacles, requests, now)

	// Step 5: arbitrate; step 6: integrate.
	commands := make(map[agent.ID]behavior.MovementCommand, len(requests))
	for id, reqs := range requests {
		if len(reqs) == 0 {
			continue
		}
		commands[id] = arbiter.Resolve(reqs)
		s.store.SetBehaviorTag(id, dominantKind(reqs).String())
	}
	for id, cmd := range commands {
		a := byID[id]
		newPos, newVel := s.integrate(a, cmd, dt)
		s.store.ApplyStep(id, newPos, newVel)
	}
	s.bus.Publish(Event{Kind: MovementCommandsEmitted, Payload: commands, Tick: s.tickCount, Timestamp: now})

	// Step 7: task allocator reactions to externally-signalled events.
	s.runAllocatorReactions(newTasks, failures, outcomes, agents, now)

	// Step 8: metrics.
	s.emitMetrics(agents, requests, now)
}

// dominantKind returns the kind of the highest-priority request in reqs,
// the arbiter's own sort key used here only to label the agent's
// CurrentBehavior tag, not to influence arbitration itself.
func dominantKind(reqs []behavior.BehaviorRequest) behavior.Kind {
	best := reqs[0]
	for _, r := range reqs[1:] {
		if behavior.Priority(r.Kind) > behavior.Priority(best.Kind) {
			best = r
		}
	}
	return best.Kind
}

// integrate converts cmd into an acceleration and applies the Newtonian
// step (step 6): `v <- clip(v + a*dt, maxSpeed); p <- p + v*dt`,
// then enforces world bounds.
func (s *Scheduler) integrate(a agent.Agent, cmd behavior.MovementCommand, dt float64) (geom.Vector, geom.Vector) {
	accel := commandAcceleration(a, cmd)
	maxSpeed := a.MaxSpeed
	if cmd.Type == behavior.StopAndHold {
		maxSpeed = cmd.Speed
	}
	newVel := geom.Clamp(geom.Add(a.Velocity, geom.Scale(accel, dt)), maxSpeed)
	newPos := geom.Add(a.Position, geom.Scale(newVel, dt))
	return s.bounds.apply(newPos, newVel)
}

// commandAcceleration derives a steering acceleration from cmd's payload:
// a force-carrying command applies its force directly; a target-carrying
// command steers toward the target; StopAndHold decelerates to zero.
func commandAcceleration(a agent.Agent, cmd behavior.MovementCommand) geom.Vector {
	switch cmd.Type {
	case behavior.FlockingBehavior, behavior.AvoidObstacle:
		return geom.Vector(cmd.CombinedForce)
	case behavior.FormationPosition:
		return geom.Add(geom.Vector(cmd.CombinedForce), steerTo(a, geom.Vector(cmd.TargetPosition)))
	case behavior.MoveToTarget:
		return steerTo(a, geom.Vector(cmd.TargetPosition))
	case behavior.StopAndHold:
		return geom.Scale(a.Velocity, -1)
	default:
		return geom.Zero
	}
}

// steerTo returns a unit-direction acceleration toward target; a.Position
// already at target yields zero (no direction to steer).
func steerTo(a agent.Agent, target geom.Vector) geom.Vector {
	return geom.Normalize(geom.Sub(target, a.Position))
}

// advanceFormations progresses every tracked formation's active
// transition and, once disbanded, publishes FormationViolation exactly
// once (step 3, FormationViolation).
func (s *Scheduler) advanceFormations(now int64) {
	for _, id := range s.formations.IDs() {
		completed, err := s.formations.Advance(id, now)
		if err != nil {
			continue
		}
		f, err := s.formations.Get(id)
		if err != nil {
			continue
		}
		if f.Disbanded() {
			if !s.notifiedDisbanded[id] {
				s.notifiedDisbanded[id] = true
				s.log.Debug().Str("formation", id).Msg("formation disbanded: agent count fell below shape minimum")
				s.bus.Publish(Event{Kind: FormationViolation, Payload: id, Tick: s.tickCount, Timestamp: now})
			}
			continue
		}
		if completed {
			s.bus.Publish(Event{Kind: FormationTransitionComplete, Payload: id, Tick: s.tickCount, Timestamp: now})
		}
	}
}

// checkVoteTimeouts runs CheckTimeout for every tracked proposal and
// publishes VoteResult once a proposal leaves Active (step 3, 
// "the voting engine owns deadlines; checks occur each tick").
func (s *Scheduler) checkVoteTimeouts(tracked []string, now int64) {
	leaderID := int64(0)
	if id, ok := s.leaderCoord.Leader(); ok {
		leaderID = int64(id)
	}
	for _, id := range tracked {
		result, newRound, err := s.votingEng.CheckTimeout(id, leaderID, now)
		if err != nil {
			s.mu.Lock()
			delete(s.trackedProposals, id)
			s.mu.Unlock()
			continue
		}
		if newRound {
			continue
		}
		if result.State == voting.Completed || result.State == voting.Expired {
			s.finishProposal(id, result, now)
		}
	}
}

// finishProposal publishes a proposal's VoteResult, records the
// consensus-time and success metrics, and stops tracking it.
func (s *Scheduler) finishProposal(id string, result voting.VoteResult, now int64) {
	s.mu.Lock()
	submittedAt, ok := s.trackedProposals[id]
	delete(s.trackedProposals, id)
	s.mu.Unlock()

	s.log.Debug().Str("proposal", id).Str("state", result.State.String()).Bool("consensus", result.Consensus).Msg("vote finished")
	s.bus.Publish(Event{Kind: VoteResult, Payload: result, Tick: s.tickCount, Timestamp: now})
	if ok {
		s.record("vote.consensus_time_ms", float64(now-submittedAt), map[string]string{"proposal": id})
	}
	successValue := 0.0
	if result.Consensus {
		successValue = 1.0
	}
	s.record("vote.success", successValue, map[string]string{"proposal": id})
}

// checkLeaderHealth runs the leader health check and publishes LeaderLost
// or LeadershipChange when the leader changes.
func (s *Scheduler) checkLeaderHealth(agents []agent.Agent, now int64) {
	if len(agents) == 0 {
		return
	}
	prevLeader, hadLeader := s.leaderCoord.Leader()
	center := centroid(agents)
	newLeader, changed, err := s.leaderCoord.HealthCheck(agents, center, now)
	if err != nil {
		if hadLeader {
			s.log.Debug().Int64("agent", int64(prevLeader)).Msg("leader lost: health check failed with no replacement")
			s.bus.Publish(Event{Kind: LeaderLost, Payload: prevLeader, Tick: s.tickCount, Timestamp: now})
		}
		return
	}
	if changed {
		if hadLeader {
			s.log.Debug().Int64("agent", int64(prevLeader)).Msg("leader lost: superseded by election")
			s.bus.Publish(Event{Kind: LeaderLost, Payload: prevLeader, Tick: s.tickCount, Timestamp: now})
		}
		history := s.leaderCoord.History()
		var latest leader.Succession
		if len(history) > 0 {
			latest = history[len(history)-1]
		} else {
			latest = leader.Succession{AgentID: newLeader, Timestamp: now}
		}
		s.bus.Publish(Event{Kind: LeadershipChange, Payload: latest, Tick: s.tickCount, Timestamp: now})
	}
}

// appendFormationRequests runs Maintain for every live formation and
// merges its requests into the per-agent map.
func (s *Scheduler) appendFormationRequests(requests map[agent.ID][]behavior.BehaviorRequest, now int64) {
	for _, id := range s.formations.IDs() {
		f, err := s.formations.Get(id)
		if err != nil || f.Disbanded() {
			continue
		}
		reqs, err := s.formations.Maintain(id, slotPositionsFromStore(s, f), now)
		if err != nil {
			continue
		}
		for _, r := range reqs {
			requests[agent.ID(r.AgentID)] = append(requests[agent.ID(r.AgentID)], r)
		}
	}
}

// slotPositionsFromStore resolves every formation member's live position
// from the store, since Maintain compares against current position, not
// the slot's own (target) position.
func slotPositionsFromStore(s *Scheduler, f formation.Formation) map[agent.ID]geom.Vector {
	out := make(map[agent.ID]geom.Vector, len(f.Slots))
	for aid := range f.Slots {
		if a, err := s.store.Get(aid); err == nil {
			out[aid] = a.Position
		}
	}
	return out
}

// appendLeaderRequests merges the leader-follower producer's output into
// the per-agent map.
func (s *Scheduler) appendLeaderRequests(agents []agent.Agent, requests map[agent.ID][]behavior.BehaviorRequest, now int64) {
	for _, r := range s.leaderCoord.FollowCommands(agents, now) {
		requests[agent.ID(r.AgentID)] = append(requests[agent.ID(r.AgentID)], r)
	}
}

// appendObstacleRequests runs the obstacle-avoidance producer selected by
// obstacle.Select and merges non-zero-force results into the per-agent
// map.
func (s *Scheduler) appendObstacleRequests(agents []agent.Agent, obstacles []obstacle.Obstacle, requests map[agent.ID][]behavior.BehaviorRequest, now int64) {
	if len(obstacles) == 0 {
		return
	}
	switch obstacle.Select(obstacles, len(agents)) {
	case obstacle.Individual:
		for _, a := range agents {
			req := obstacle.IndividualRepulsion(int64(a.ID), a.Position, obstacles, s.obstacleDetectionRange, s.obstacleCriticalDistance, s.obstacleMaxForce, now)
			if req.Command.CombinedForce == (behavior.Vector2{}) {
				continue
			}
			requests[a.ID] = append(requests[a.ID], req)
		}
	case obstacle.Collective:
		center := centroid(agents)
		direction := averageVelocity(agents)
		positions := make(map[int64]geom.Vector, len(agents))
		for _, a := range agents {
			positions[int64(a.ID)] = a.Position
		}
		for _, o := range obstacles {
			for _, r := range obstacle.Collective(positions, center, direction, o, now) {
				requests[agent.ID(r.AgentID)] = append(requests[agent.ID(r.AgentID)], r)
			}
		}
	default: // Pathfinding is a planning query, not a per-tick force producer.
	}
}

// runAllocatorReactions drains the externally-queued task signals (// step 7): new submissions, agent failures (which mark the agent Failed
// and trigger reassignment), and reported outcomes.
func (s *Scheduler) runAllocatorReactions(newTasks []task.Task, failures []agent.ID, outcomes []outcomeSignal, agents []agent.Agent, now int64) {
	if len(newTasks) > 0 {
		assignments, _ := s.allocator.AssignMany(newTasks, agents, now)
		for _, asg := range assignments {
			if asg == nil {
				continue
			}
			s.bus.Publish(Event{Kind: TaskAssignment, Payload: asg, Tick: s.tickCount, Timestamp: now})
			s.record("task.assignment_score", asg.Score, map[string]string{"task": asg.Task.ID})
		}
	}
	for _, id := range failures {
		_ = s.store.SetStatus(id, agent.Failed)
		s.log.Debug().Int64("agent", int64(id)).Msg("agent failed: reassigning its tasks")
		reassigned, _ := s.allocator.AgentFailed(id, agents, now)
		for _, asg := range reassigned {
			if asg == nil {
				continue
			}
			s.log.Debug().Str("task", asg.Task.ID).Float64("score", asg.Score).Msg("task reassigned")
			s.bus.Publish(Event{Kind: TaskReassignment, Payload: asg, Tick: s.tickCount, Timestamp: now})
			s.record("task.assignment_score", asg.Score, map[string]string{"task": asg.Task.ID})
		}
	}
	for _, o := range outcomes {
		_ = s.allocator.SetStatus(o.taskID, o.status)
	}
}

// emitMetrics computes and records per-tick instantaneous samples
// (the sink, not the scheduler, is responsible for turning these into
// running averages) and publishes a consolidated MetricsSample event.
func (s *Scheduler) emitMetrics(agents []agent.Agent, requests map[agent.ID][]behavior.BehaviorRequest, now int64) {
	snap := Snapshot{}

	if len(agents) > 0 {
		snap.FlockingCohesion = cohesionMetric(agents)
		snap.FlockingAlignment = alignmentMetric(agents)
		snap.FlockingSeparationSafety = separationSafetyMetric(agents, s.grid, s.flockCfg.Rs)
		s.record("flocking.cohesion", snap.FlockingCohesion, nil)
		s.record("flocking.alignment", snap.FlockingAlignment, nil)
		s.record("flocking.separation_safety", snap.FlockingSeparationSafety, nil)
	}

	if accuracy, ok := s.formationAccuracy(); ok {
		snap.FormationAccuracy = accuracy
		s.record("formation.accuracy", accuracy, nil)
	}

	unbalanced := s.allocator.Unbalanced()
	snap.TaskWorkloadBalanced = len(unbalanced) == 0
	s.record("task.workload.balance", float64(len(unbalanced)), nil)

	snap.CoordinationAvgResponseMs = s.coordinationResponseMetric(agents, now)
	s.record("coordination.avg_response_ms", snap.CoordinationAvgResponseMs, nil)

	s.bus.Publish(Event{Kind: MetricsSample, Payload: snap, Tick: s.tickCount, Timestamp: now})
}

// formationAccuracy averages, across every live (non-disbanded) formation
// and its members, 1 minus the member's position error normalized by
// EpsilonMinor (clamped to [0,1]) — 1.0 means every member sits exactly on
// its slot.
func (s *Scheduler) formationAccuracy() (float64, bool) {
	var total float64
	var count int
	for _, id := range s.formations.IDs() {
		f, err := s.formations.Get(id)
		if err != nil || f.Disbanded() {
			continue
		}
		for aid, slotPos := range f.Slots {
			a, err := s.store.Get(aid)
			if err != nil {
				continue
			}
			errMag := geom.Distance(a.Position, slotPos)
			norm := geom.ClampScalar(errMag/formation.DefaultEpsilonMinor, 0, 1)
			total += 1 - norm
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return total / float64(count), true
}

// coordinationResponseMetric averages how long every currently in-flight
// task assignment has been open, a proxy for coordination responsiveness.
func (s *Scheduler) coordinationResponseMetric(agents []agent.Agent, now int64) float64 {
	var total float64
	var count int
	for _, a := range agents {
		for _, taskID := range s.allocator.WorkloadOf(a.ID) {
			asg, err := s.allocator.Get(taskID)
			if err != nil {
				continue
			}
			total += float64(now - asg.CreatedAt)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return total / float64(count)
}

func centroid(agents []agent.Agent) geom.Vector {
	if len(agents) == 0 {
		return geom.Zero
	}
	var sum geom.Vector
	for _, a := range agents {
		sum = geom.Add(sum, a.Position)
	}
	return geom.Scale(sum, 1/float64(len(agents)))
}

func averageVelocity(agents []agent.Agent) geom.Vector {
	if len(agents) == 0 {
		return geom.Vector{X: 1}
	}
	var sum geom.Vector
	for _, a := range agents {
		sum = geom.Add(sum, a.Velocity)
	}
	avg := geom.Scale(sum, 1/float64(len(agents)))
	if geom.Magnitude(avg) == 0 {
		return geom.Vector{X: 1}
	}
	return avg
}

func cohesionMetric(agents []agent.Agent) float64 {
	c := centroid(agents)
	var total float64
	for _, a := range agents {
		total += geom.Distance(a.Position, c)
	}
	return total / float64(len(agents))
}

// alignmentMetric is the classic flocking order parameter: the magnitude
// of the mean heading unit vector, in [0,1] — 1 means every agent moving
// in the same direction, 0 means headings cancel out or everyone is
// stationary.
func alignmentMetric(agents []agent.Agent) float64 {
	var sum geom.Vector
	for _, a := range agents {
		sum = geom.Add(sum, geom.Normalize(a.Velocity))
	}
	return geom.Magnitude(geom.Scale(sum, 1/float64(len(agents))))
}

// separationSafetyMetric returns the minimum nearest-neighbor distance
// across the swarm minus rs: positive means every agent keeps its
// separation radius clear, negative flags a violation.
func separationSafetyMetric(agents []agent.Agent, grid *spatial.Grid, rs float64) float64 {
	min := -1.0
	for _, a := range agents {
		for _, n := range neighbor.Query(grid, a, rs*2) {
			if min < 0 || n.Distance < min {
				min = n.Distance
			}
		}
	}
	if min < 0 {
		return rs // no neighbors within range: fully safe
	}
	return min - rs
}
