package arbiter_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orbitswarm/swarmcore/arbiter"
	"github.com/orbitswarm/swarmcore/behavior"
)

func req(kind behavior.Kind, cmd behavior.MovementCommand) behavior.BehaviorRequest {
	return behavior.BehaviorRequest{AgentID: cmd.AgentID, Kind: kind, Command: cmd}
}

func TestEmergencyOverrideIsVerbatim(t *testing.T) {
	evadeCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.AvoidObstacle, CombinedForce: behavior.Vector2{X: 5, Y: 0}}
	flockCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.FlockingBehavior, CombinedForce: behavior.Vector2{X: 1, Y: 1}}

	out := arbiter.Resolve([]behavior.BehaviorRequest{
		req(behavior.Flocking, flockCmd),
		req(behavior.Evading, evadeCmd),
	})
	require.Equal(t, evadeCmd, out)
}

func TestNarrowBlendWindowIgnoresNonEvadingLowerPriority(t *testing.T) {
	// Evading always outranks Returning (100 > 90), so whenever Evading is
	// present it is the top request and triggers emergency override
	// (step 2), never the narrow-blend window. The narrow-blend window
	// (step 3) only governs a Returning-top tick, where the rule "blend
	// only with Evading" means every other lower-priority request
	// (Flocking here) is excluded and Returning wins verbatim.
	returningCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.MoveToTarget, TargetPosition: behavior.Vector2{X: 10, Y: 0}}
	flockCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.FlockingBehavior, CombinedForce: behavior.Vector2{X: 100, Y: 0}}

	out := arbiter.Resolve([]behavior.BehaviorRequest{
		req(behavior.Returning, returningCmd),
		req(behavior.Flocking, flockCmd),
	})
	require.Equal(t, returningCmd, out)
}

func TestEvadingAlwaysOutranksReturningIntoEmergencyOverride(t *testing.T) {
	returningCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.MoveToTarget, TargetPosition: behavior.Vector2{X: 10, Y: 0}}
	evadeCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.AvoidObstacle, CombinedForce: behavior.Vector2{X: 4, Y: 0}}

	out := arbiter.Resolve([]behavior.BehaviorRequest{
		req(behavior.Returning, returningCmd),
		req(behavior.Evading, evadeCmd),
	})
	require.Equal(t, evadeCmd, out)
}

func TestCompatibleGroupWeightedBlend(t *testing.T) {
	flockCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.FlockingBehavior, CombinedForce: behavior.Vector2{X: 10, Y: 0}}
	formCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.FormationPosition, CombinedForce: behavior.Vector2{X: 0, Y: 10}}

	out := arbiter.Resolve([]behavior.BehaviorRequest{
		req(behavior.Flocking, flockCmd),
		req(behavior.Formation, formCmd),
	})
	// priorities: Formation=60, Flocking=30; total=90.
	require.InDelta(t, 10*30.0/90.0, out.CombinedForce.X, 1e-9)
	require.InDelta(t, 10*60.0/90.0, out.CombinedForce.Y, 1e-9)
	require.Equal(t, behavior.FormationPosition, out.Type, "Formation is the highest-priority contributor")
}

func TestIncompatiblePairFallsBackToHighestPriority(t *testing.T) {
	taskCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.MoveToTarget, TargetPosition: behavior.Vector2{X: 1, Y: 1}}
	flockCmd := behavior.MovementCommand{AgentID: 1, Type: behavior.FlockingBehavior, CombinedForce: behavior.Vector2{X: 10, Y: 0}}

	out := arbiter.Resolve([]behavior.BehaviorRequest{
		req(behavior.TaskExecution, taskCmd),
		req(behavior.Flocking, flockCmd),
	})
	require.Equal(t, taskCmd, out, "TaskExecution never blends, so it wins verbatim")
}

func TestSingleRequestReturnsVerbatim(t *testing.T) {
	cmd := behavior.MovementCommand{AgentID: 7, Type: behavior.FlockingBehavior}
	out := arbiter.Resolve([]behavior.BehaviorRequest{req(behavior.Flocking, cmd)})
	require.Equal(t, cmd, out)
}

func TestInEmergencyMode(t *testing.T) {
	require.True(t, arbiter.InEmergencyMode([]behavior.BehaviorRequest{req(behavior.Evading, behavior.MovementCommand{})}))
	require.False(t, arbiter.InEmergencyMode([]behavior.BehaviorRequest{req(behavior.Flocking, behavior.MovementCommand{})}))
}
