package task_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/geom"
	"github.com/orbitswarm/swarmcore/task")

func activeAgent(id agent.ID, x, y, battery float64) agent.Agent {
	return agent.Agent{ID: id, Position: geom.Vector{X: x, Y: y}, Status: agent.Active, Battery: battery, MaxSpeed: 5}
}

func TestTaskValidRejectsEmptyIDOrKindOrBadBattery(t *testing.T) {
	require.False(t, task.Task{ID: "", Kind: "scout", MinimumBattery: 0.2}.Valid())
	require.False(t, task.Task{ID: "t1", Kind: "", MinimumBattery: 0.2}.Valid())
	require.False(t, task.Task{ID: "t1", Kind: "scout", MinimumBattery: 1.2}.Valid())
	require.True(t, task.Task{ID: "t1", Kind: "scout", MinimumBattery: 0.2}.Valid())
}

// TestNearestAgentAssignment reproduces "Nearest-agent assignment"
// scenario: a task at (300,300) with five equal-battery agents must be
// assigned to agent id 2 at (290,295), the closest.
func TestNearestAgentAssignment(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	agents := []agent.Agent{
		activeAgent(1, 100, 100, 0.8),
		activeAgent(2, 290, 295, 0.8),
		activeAgent(3, 400, 400, 0.8),
		activeAgent(4, 200, 200, 0.8),
		activeAgent(5, 500, 100, 0.8),
	}
	target := geom.Vector{X: 300, Y: 300}
	tk := task.Task{ID: "t1", Kind: "scout", TargetLocation: &target, MinimumBattery: 0.2}

	a, err := al.AssignTask(tk, agents, 0)
	require.NoError(t, err)
	require.NotNil(t, a)
	require.Equal(t, agent.ID(2), a.AgentID)
	require.Equal(t, task.Pending, a.Status)
}

func TestAssignTaskRejectsInvalidTask(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	_, err := al.AssignTask(task.Task{ID: "", Kind: "scout"}, nil, 0)
	require.ErrorIs(t, err, task.ErrInvalidTask)
}

func TestAssignTaskQueuesPendingWhenNoneEligible(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	agents := []agent.Agent{activeAgent(1, 0, 0, 0.05)} // below safety floor
	a, err := al.AssignTask(task.Task{ID: "t1", Kind: "scout"}, agents, 0)
	require.NoError(t, err)
	require.Nil(t, a)
	require.Equal(t, []task.Task{{ID: "t1", Kind: "scout"}}, al.Pending())
}

func TestEligibilityExcludesInactiveFailedAndOverloadedAgents(t *testing.T) {
	al := task.NewAllocator(1000, 1) // maxTasksPerAgent=1
	a1 := activeAgent(1, 0, 0, 0.8)
	a2 := activeAgent(2, 0, 0, 0.8)
	a2.Status = agent.Failed

	_, err := al.AssignTask(task.Task{ID: "t1", Kind: "scout"}, []agent.Agent{a1, a2}, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, al.WorkloadOf(1))

	// a1 is now at capacity (maxTasksPerAgent=1); a2 is still Failed, so
	// the only eligible agent pool is empty and the task must queue.
	got, err := al.AssignTask(task.Task{ID: "t2", Kind: "scout"}, []agent.Agent{a1, a2}, 0)
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestTieBreaksByLowestAgentID(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	agents := []agent.Agent{
		activeAgent(5, 0, 0, 0.8),
		activeAgent(2, 0, 0, 0.8),
		activeAgent(9, 0, 0, 0.8),
	}
	a, err := al.AssignTask(task.Task{ID: "t1", Kind: "scout"}, agents, 0)
	require.NoError(t, err)
	require.Equal(t, agent.ID(2), a.AgentID)
}

func TestRoleMatchBonusPrefersBoundRole(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	scout := activeAgent(1, 0, 0, 0.5)
	scout.CurrentBehavior = "scout"
	other := activeAgent(2, 0, 0, 0.5)
	other.CurrentBehavior = "guard"

	a, err := al.AssignTask(task.Task{ID: "t1", Kind: "recon", RequiredRole: "scout"}, []agent.Agent{scout, other}, 0)
	require.NoError(t, err)
	require.Equal(t, agent.ID(1), a.AgentID)
}

func TestAssignManySortsByPriorityHighFirst(t *testing.T) {
	al := task.NewAllocator(1000, 1) // capacity 1 so the first assignment exhausts the lone agent
	agents := []agent.Agent{activeAgent(1, 0, 0, 0.8)}

	tasks := []task.Task{
		{ID: "low", Kind: "scout", Priority: task.Low},
		{ID: "high", Kind: "scout", Priority: task.High},
		{ID: "normal", Kind: "scout", Priority: task.Normal},
	}
	assigned, err := al.AssignMany(tasks, agents, 0)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.Equal(t, "high", assigned[0].Task.ID, "the High-priority task must be assigned first and consume the agent's only slot")
	require.ElementsMatch(t, []task.Task{
		{ID: "normal", Kind: "scout", Priority: task.Normal},
		{ID: "low", Kind: "scout", Priority: task.Low},
	}, al.Pending())
}

func TestAgentFailedReassignsNonTerminalWork(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	a1 := activeAgent(1, 0, 0, 0.8)
	a2 := activeAgent(2, 0, 0, 0.8)

	orig, err := al.AssignTask(task.Task{ID: "t1", Kind: "scout"}, []agent.Agent{a1, a2}, 0)
	require.NoError(t, err)
	require.Equal(t, agent.ID(1), orig.AgentID)

	reassigned, err := al.AgentFailed(1, []agent.Agent{a2}, 10)
	require.NoError(t, err)
	require.Len(t, reassigned, 1)
	require.Equal(t, agent.ID(2), reassigned[0].AgentID)
	require.Equal(t, task.Reassignment, reassigned[0].Reason)
	require.Equal(t, 1, reassigned[0].ReassignmentCount)
	require.Empty(t, al.WorkloadOf(1))
	require.Equal(t, []string{"t1"}, al.WorkloadOf(2))
}

func TestAgentFailedReturnsTaskToPendingWhenNoneEligible(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	a1 := activeAgent(1, 0, 0, 0.8)

	_, err := al.AssignTask(task.Task{ID: "t1", Kind: "scout"}, []agent.Agent{a1}, 0)
	require.NoError(t, err)

	reassigned, err := al.AgentFailed(1, nil, 10)
	require.NoError(t, err)
	require.Empty(t, reassigned)
	require.Equal(t, []task.Task{{ID: "t1", Kind: "scout"}}, al.Pending())
}

func TestAgentFailedSkipsTerminalAssignments(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	a1 := activeAgent(1, 0, 0, 0.8)
	a2 := activeAgent(2, 0, 0, 0.8)

	_, err := al.AssignTask(task.Task{ID: "t1", Kind: "scout"}, []agent.Agent{a1, a2}, 0)
	require.NoError(t, err)
	require.NoError(t, al.SetStatus("t1", task.Completed))

	reassigned, err := al.AgentFailed(1, []agent.Agent{a2}, 10)
	require.NoError(t, err)
	require.Empty(t, reassigned, "a completed assignment must not be reassigned")
}

func TestSetStatusTerminalRemovesFromWorkloadAndEmptiesKey(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	a1 := activeAgent(1, 0, 0, 0.8)
	_, err := al.AssignTask(task.Task{ID: "t1", Kind: "scout"}, []agent.Agent{a1}, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"t1"}, al.WorkloadOf(1))

	require.NoError(t, al.SetStatus("t1", task.Failed))
	require.Empty(t, al.WorkloadOf(1))

	got, err := al.Get("t1")
	require.NoError(t, err)
	require.Equal(t, task.Failed, got.Status)
}

func TestSetStatusUnknownAssignment(t *testing.T) {
	al := task.NewAllocator(1000, 0)
	err := al.SetStatus("missing", task.Completed)
	require.ErrorIs(t, err, task.ErrUnknownAssignment)
}

func TestUnbalancedReportsOverloadedAgents(t *testing.T) {
	al := task.NewAllocator(1000, 5)
	overloaded := activeAgent(1, 0, 0, 0.8)

	for i := 0; i < 4; i++ {
		id := "t" + string(rune('a'+i))
		_, err := al.AssignTask(task.Task{ID: id, Kind: "scout"}, []agent.Agent{overloaded}, 0)
		require.NoError(t, err)
	}
	// Three light agents with one task each: mean load (4+1+1+1)/4 = 1.75,
	// so agent 1's load of 4 exceeds 2*1.75 = 3.5 and only agent 1 is flagged.
	for _, lightID := range []agent.ID{2, 3, 4} {
		light := activeAgent(lightID, 0, 0, 0.8)
		_, err := al.AssignTask(task.Task{ID: "t-light-" + string(rune('0'+int(lightID))), Kind: "scout"}, []agent.Agent{light}, 0)
		require.NoError(t, err)
	}

	violators := al.Unbalanced()
	require.Equal(t, []agent.ID{1}, violators)
}

func TestUnbalancedEmptyWhenNoAssignments(t *testing.T) {
	al := task.NewAllocator(1000, 5)
	require.Empty(t, al.Unbalanced())
}
