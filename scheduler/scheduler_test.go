package scheduler_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/behavior"
	"github.com/orbitswarm/swarmcore/flocking"
	"github.com/orbitswarm/swarmcore/formation"
	"github.com/orbitswarm/swarmcore/geom"
	"github.com/orbitswarm/swarmcore/leader"
	"github.com/orbitswarm/swarmcore/scheduler"
	"github.com/orbitswarm/swarmcore/spatial"
	"github.com/orbitswarm/swarmcore/task"
	"github.com/orbitswarm/swarmcore/voting")

// spySink records every (name, value) pair Record is called with, guarded
// by a mutex since the scheduler may record from a goroutine a future
// caller parallelizes producers on.
type spySink struct {
	mu sync.Mutex
	samples map[string][]float64
}

func newSpySink() *spySink {
	return &spySink{samples: make(map[string][]float64)}
}

func (s *spySink) Record(name string, value float64, _ map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples[name] = append(s.samples[name], value)
}

func (s *spySink) last(name string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs := s.samples[name]
	if len(vs) == 0 {
		return 0, false
	}
	return vs[len(vs)-1], true
}

func newScheduler() (*scheduler.Scheduler, *agent.Store) {
	store := agent.NewStore()
	grid := spatial.NewGrid(100)
	cfg := flocking.LooseExploration()
	return scheduler.NewScheduler(store, grid, cfg), store
}

func TestFlockingZeroNeighborsPreservesVelocityModuloClip(t *testing.T) {
	sched, store := newScheduler()
	id, err := store.Spawn(geom.Vector{X: 100, Y: 100}, 50, 100)
	require.NoError(t, err)
	require.NoError(t, store.ApplyStep(id, geom.Vector{X: 100, Y: 100}, geom.Vector{X: 5, Y: 0}))

	sched.Tick(1.0/60, 1000)

	after, err := store.Get(id)
	require.NoError(t, err)
	require.InDelta(t, 5, after.Velocity.X, 1e-9, "zero combined force leaves velocity unchanged")
	require.InDelta(t, 0, after.Velocity.Y, 1e-9)
	require.InDelta(t, 100+5*(1.0/60), after.Position.X, 1e-9)
}

func TestIntegratorNeverExceedsMaxSpeed(t *testing.T) {
	sched, store := newScheduler()
	id, err := store.Spawn(geom.Vector{X: 0, Y: 0}, 10, 100)
	require.NoError(t, err)
	_, err = sched.RegisterObstacle("wall", geom.Vector{X: 5, Y: 0}, 1)
	require.NoError(t, err)

	now := int64(0)
	for i := 0; i < 500; i++ {
		sched.Tick(1.0/60, now)
		now += int64(1000.0 / 60)

		a, err := store.Get(id)
		require.NoError(t, err)
		require.LessOrEqual(t, geom.Magnitude(a.Velocity), a.MaxSpeed+1e-9,
			"velocity must never exceed maxSpeed after the integrator step")
	}
}

func TestObstacleEmergencyOverrideMovesAgentAway(t *testing.T) {
	sched, store := newScheduler()
	id, err := store.Spawn(geom.Vector{X: 0, Y: 0}, 50, 100)
	require.NoError(t, err)
	_, err = sched.RegisterObstacle("o1", geom.Vector{X: 20, Y: 0}, 1)
	require.NoError(t, err)

	sched.Tick(1.0/60, 0)

	after, err := store.Get(id)
	require.NoError(t, err)
	require.Less(t, after.Position.X, 0.0, "repulsion from an obstacle to the agent's east must push it west")
	require.Equal(t, behavior.Evading.String(), after.CurrentBehavior)
}

func TestExactlyOneMovementCommandPerActiveAgent(t *testing.T) {
	sched, store := newScheduler()
	var ids []agent.ID
	for i := 0; i < 4; i++ {
		id, err := store.Spawn(geom.Vector{X: float64(i * 30), Y: 0}, 40, 100)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	failedID, err := store.Spawn(geom.Vector{X: 1000, Y: 1000}, 40, 100)
	require.NoError(t, err)
	require.NoError(t, store.SetStatus(failedID, agent.Failed))

	var commands map[agent.ID]behavior.MovementCommand
	sched.Subscribe(scheduler.MovementCommandsEmitted, func(evt scheduler.Event) {
		commands = evt.Payload.(map[agent.ID]behavior.MovementCommand)
	})

	sched.Tick(1.0/60, 0)

	require.Len(t, commands, len(ids), "every active agent gets exactly one MovementCommand; Failed agents get none")
	for _, id := range ids {
		_, ok := commands[id]
		require.True(t, ok)
	}
	_, ok := commands[failedID]
	require.False(t, ok)
}

func TestLeaderLossTriggersSuccessionEvents(t *testing.T) {
	sched, store := newScheduler()
	lowID, err := store.Spawn(geom.Vector{X: 0, Y: 0}, 40, 100)
	require.NoError(t, err)
	highID, err := store.Spawn(geom.Vector{X: 10, Y: 0}, 40, 100)
	require.NoError(t, err)
	require.NoError(t, store.SetBattery(highID, 0.9))
	require.NoError(t, store.SetBattery(lowID, 0.05))

	coord := leader.NewCoordinator(leader.HighestBattery)
	coord.SetLeader(lowID, "initial", store.All(), 0)
	sched = sched.WithLeaderCoordinator(coord)

	var kinds []scheduler.EventKind
	sched.Subscribe(scheduler.LeaderLost, func(evt scheduler.Event) { kinds = append(kinds, evt.Kind) })
	sched.Subscribe(scheduler.LeadershipChange, func(evt scheduler.Event) { kinds = append(kinds, evt.Kind) })

	sched.Tick(1.0/60, 0)

	require.Contains(t, kinds, scheduler.LeaderLost)
	require.Contains(t, kinds, scheduler.LeadershipChange)
	newLeader, ok := coord.Leader()
	require.True(t, ok)
	require.Equal(t, highID, newLeader)
}

func TestFormationViolationOnDropBelowMinimum(t *testing.T) {
	sched, store := newScheduler()
	var agents []agent.Agent
	for i := 0; i < 3; i++ {
		id, err := store.Spawn(geom.Vector{X: float64(i * 10), Y: 0}, 40, 100)
		require.NoError(t, err)
		a, err := store.Get(id)
		require.NoError(t, err)
		agents = append(agents, a)
	}
	formationID, err := sched.Formations().Request(formation.Line, agents, geom.Vector{}, 10, geom.Vector{X: 1})
	require.NoError(t, err)

	require.NoError(t, sched.Formations().RemoveAgent(formationID, agents[0].ID))
	require.NoError(t, sched.Formations().RemoveAgent(formationID, agents[1].ID))

	var violated []string
	sched.Subscribe(scheduler.FormationViolation, func(evt scheduler.Event) {
		violated = append(violated, evt.Payload.(string))
	})

	sched.Tick(1.0/60, 0)

	require.Contains(t, violated, formationID)

	// A second tick must not re-fire the same violation.
	violated = nil
	sched.Tick(1.0/60, 1)
	require.Empty(t, violated)
}

func TestTaskSubmissionAssignsAndEmitsEvent(t *testing.T) {
	sched, store := newScheduler()
	_, err := store.Spawn(geom.Vector{X: 0, Y: 0}, 40, 100)
	require.NoError(t, err)

	var assigned *task.TaskAssignment
	sched.Subscribe(scheduler.TaskAssignment, func(evt scheduler.Event) {
		assigned = evt.Payload.(*task.TaskAssignment)
	})

	sched.SubmitTask(task.Task{ID: "t1", Kind: "patrol", MinimumBattery: 0})
	sched.Tick(1.0/60, 0)

	require.NotNil(t, assigned)
	require.Equal(t, "t1", assigned.Task.ID)
}

func TestVoteReachingQuorumMidTickEmitsResultImmediately(t *testing.T) {
	sched, _ := newScheduler()
	proposalID, err := sched.SubmitProposal(voting.Standard(1, "proceed?", []string{"yes", "no"}, 0), 0)
	require.NoError(t, err)

	sink := newSpySink()
	sched = sched.WithSink(sink)

	var results []voting.VoteResult
	sched.Subscribe(scheduler.VoteResult, func(evt scheduler.Event) {
		results = append(results, evt.Payload.(voting.VoteResult))
	})

	require.NoError(t, sched.RecordVote(voting.VoteResponse{ProposalID: proposalID, VoterID: 1, Choice: "yes"}, 1, 100))

	require.Len(t, results, 1)
	require.True(t, results[0].Consensus)
	require.Equal(t, "yes", results[0].Winner)

	success, ok := sink.last("vote.success")
	require.True(t, ok)
	require.Equal(t, 1.0, success)
}

func TestAgentFailureReassignsWorkload(t *testing.T) {
	sched, store := newScheduler()
	failingID, err := store.Spawn(geom.Vector{X: 0, Y: 0}, 40, 100)
	require.NoError(t, err)
	_, err = store.Spawn(geom.Vector{X: 5, Y: 0}, 40, 100)
	require.NoError(t, err)

	sched.SubmitTask(task.Task{ID: "patrol-1", Kind: "patrol"})
	sched.Tick(1.0/60, 0)

	initial, err := sched.Allocator().Get("patrol-1")
	require.NoError(t, err)

	sched.ReportAgentFailure(initial.AgentID)
	_ = failingID

	var reassigned *task.TaskAssignment
	sched.Subscribe(scheduler.TaskReassignment, func(evt scheduler.Event) {
		reassigned = evt.Payload.(*task.TaskAssignment)
	})

	sched.Tick(1.0/60, 17)

	if reassigned != nil {
		require.Equal(t, task.Reassignment, reassigned.Reason)
		require.NotEqual(t, initial.AgentID, reassigned.AgentID)
	}
}
