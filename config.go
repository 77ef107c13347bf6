package swarmcore

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/orbitswarm/swarmcore/flocking"
	"github.com/orbitswarm/swarmcore/formation"
	"github.com/orbitswarm/swarmcore/leader"
	"github.com/orbitswarm/swarmcore/scheduler"
	"github.com/orbitswarm/swarmcore/spatial"
	"github.com/orbitswarm/swarmcore/task")

// ErrInvalidConfiguration indicates a Configuration field was outside its
// documented range; construction is rejected before any collaborator is
// built.
var ErrInvalidConfiguration = errors.New("swarmcore: invalid configuration")

// TaskConfig bundles the task allocator's tuning parameters.
type TaskConfig struct {
	// WorldScale is Dmax, the reference distance the distance-score term
	// normalizes against.
	WorldScale float64
	// MaxTasksPerAgent caps concurrent non-terminal assignments per
	// agent; 0 falls back to task.DefaultMaxTasksPerAgent.
	MaxTasksPerAgent int
}

// LeaderConfig bundles the leader-follower coordinator's tuning
// parameters and initial selection mode.
type LeaderConfig struct {
	Mode leader.Mode
	// TimeoutMs is the staleness window before a health check forces
	// succession; 0 falls back to leader.DefaultLeaderTimeout.
	TimeoutMs int64
	SmoothFactor float64
	PositionTolerance float64
}

// SpatialConfig bundles the broad-phase spatial index's tuning parameter.
type SpatialConfig struct {
	// CellSize is the uniform grid's bucket width; non-positive falls
	// back to spatial.DefaultCellSize.
	CellSize float64
}

// Configuration is every tunable a host supplies at construction time.
// Configuration.Validate checks the Flocking, Spatial, Tasks and Leader
// settings before New builds any collaborator; Formation and Bounds are
// not checked.
type Configuration struct {
	// TickHz documents the rate the host intends to call Tick at; the
	// scheduler itself is agnostic to rate and takes dt directly on
	// every Tick call, so this field is informational only (it does not
	// gate Tick), letting a host switch between DefaultTickHz and
	// FlockingOnlyTickHz without reconstructing the Swarm.
	TickHz float64

	Flocking flocking.Config
	Spatial SpatialConfig
	Tasks TaskConfig
	Formation formation.Thresholds
	Leader LeaderConfig
	Bounds scheduler.WorldBounds

	// RandomSeed seeds the one controllable random source, from which the
	// vote-tiebreak and spawn-jitter streams are derived; two Swarms built
	// with the same seed produce identical Random-tiebreak outcomes and
	// spawn offsets given identical inputs.
	RandomSeed int64

	// Sink receives every per-tick metric sample. A nil Sink is replaced
	// with scheduler.NoopSink{}.
	Sink scheduler.MetricsSink

	// Logger receives diagnostic tracing from the scheduler and its
	// collaborators (dropped votes, disbanded formations, leader
	// succession, task reassignment). A nil Logger is replaced with
	// zerolog.Nop(), which discards everything.
	Logger *zerolog.Logger
}

// DefaultConfiguration returns a Configuration using every collaborator's
// documented defaults: LooseExploration flocking, a highest-battery
// leader, DefaultCellSize spatial buckets, DefaultMaxTasksPerAgent,
// DefaultThresholds formation maintenance, and no world bounds.
func DefaultConfiguration() Configuration {
	return Configuration{
		TickHz: scheduler.DefaultTickHz,
		Flocking: flocking.LooseExploration(),
		Spatial: SpatialConfig{CellSize: spatial.DefaultCellSize},
		Tasks: TaskConfig{WorldScale: 1000, MaxTasksPerAgent: task.DefaultMaxTasksPerAgent},
		Formation: formation.DefaultThresholds(),
		Leader: LeaderConfig{
			Mode: leader.HighestBattery,
			TimeoutMs: leader.DefaultLeaderTimeout,
			SmoothFactor: leader.DefaultSmoothFactor,
			PositionTolerance: leader.DefaultPositionTolerance,
		},
	}
}

// Validate checks every range constraint a Configuration's fields must
// satisfy, mirroring each collaborator's own validation so a host learns
// about a bad value at construction, not on the first Tick.
func (c Configuration) Validate() error {
	if err := c.Flocking.Validate(); err != nil {
		return fmt.Errorf("swarmcore: flocking config: %w: %v", ErrInvalidConfiguration, err)
	}
	if c.Spatial.CellSize < 0 {
		return fmt.Errorf("swarmcore: spatial.cellSize=%v must be >= 0: %w", c.Spatial.CellSize, ErrInvalidConfiguration)
	}
	if c.Tasks.WorldScale <= 0 {
		return fmt.Errorf("swarmcore: tasks.worldScale=%v must be positive: %w", c.Tasks.WorldScale, ErrInvalidConfiguration)
	}
	if c.Tasks.MaxTasksPerAgent < 0 {
		return fmt.Errorf("swarmcore: tasks.maxTasksPerAgent=%v must be >= 0: %w", c.Tasks.MaxTasksPerAgent, ErrInvalidConfiguration)
	}
	if c.Leader.TimeoutMs < 0 {
		return fmt.Errorf("swarmcore: leader.timeoutMs=%v must be >= 0: %w", c.Leader.TimeoutMs, ErrInvalidConfiguration)
	}
	if c.Leader.SmoothFactor < 0 || c.Leader.SmoothFactor > 1 {
		return fmt.Errorf("swarmcore: leader.smoothFactor=%v must be in [0,1]: %w", c.Leader.SmoothFactor, ErrInvalidConfiguration)
	}
	if c.Leader.PositionTolerance < 0 {
		return fmt.Errorf("swarmcore: leader.positionTolerance=%v must be >= 0: %w", c.Leader.PositionTolerance, ErrInvalidConfiguration)
	}
	return nil
}
