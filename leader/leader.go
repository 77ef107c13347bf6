package leader

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/behavior"
	"github.com/orbitswarm/swarmcore/geom")

// DefaultPositionTolerance is the default maximum allowed error before a
// follower emits a correction command.
const DefaultPositionTolerance = 10.0

// DefaultSmoothFactor is the default lerp factor toward a follower's
// target position (quoting: "default smoothFactor = 0.3").
const DefaultSmoothFactor = 0.3

// DefaultLeaderTimeout is the default staleness window, in the same time
// units as tick timestamps, for leader health ("default 5s").
const DefaultLeaderTimeout = 5000

// Succession records one leadership transition for history retention
// (quoting: "setLeader(id, reason) transitions leadership; history is
// retained").
type Succession struct {
	AgentID agent.ID
	Reason string
	Timestamp int64
}

// Coordinator owns the current leader, the per-follower offset table,
// and leadership history for one swarm group (Ownership).
type Coordinator struct {
	mu sync.RWMutex

	mode Mode
	leader agent.ID
	hasLeader bool
	lastSeen int64 // timestamp the leader's state was last refreshed

	offsets map[agent.ID]geom.Vector

	positionTolerance float64
	smoothFactor float64
	leaderTimeout int64

	history []Succession

	log zerolog.Logger
}

// NewCoordinator returns a Coordinator with no leader set yet, using mode
// for future selections and the default tolerances.
func NewCoordinator(mode Mode) *Coordinator {
	return &Coordinator{
		mode: mode,
		offsets: make(map[agent.ID]geom.Vector),
		positionTolerance: DefaultPositionTolerance,
		smoothFactor: DefaultSmoothFactor,
		leaderTimeout: DefaultLeaderTimeout,
		log: zerolog.Nop(),
	}
}

// WithLogger replaces the default no-op logger.
func (c *Coordinator) WithLogger(l zerolog.Logger) *Coordinator {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log = l
	return c
}

// WithTolerances overrides the default position tolerance, smooth
// factor, and leader timeout.
func (c *Coordinator) WithTolerances(positionTolerance, smoothFactor float64, leaderTimeout int64) *Coordinator {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.positionTolerance = positionTolerance
	c.smoothFactor = smoothFactor
	c.leaderTimeout = leaderTimeout
	return c
}

// Leader returns the current leader id and whether one is set.
func (c *Coordinator) Leader() (agent.ID, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.leader, c.hasLeader
}

// Mode returns the selection mode candidates are scored with.
func (c *Coordinator) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// History returns a copy of every recorded leadership transition, oldest
// first.
func (c *Coordinator) History() []Succession {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Succession, len(c.history))
	copy(out, c.history)
	return out
}

// SetLeader transitions leadership to id for reason, recomputing every
// tracked follower's offset relative to the new leader's position found
// in swarm ("setLeader(id, reason) transitions leadership; history
// is retained").
func (c *Coordinator) SetLeader(id agent.ID, reason string, swarm []agent.Agent, now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLeaderLocked(id, reason, swarm, now)
}

func (c *Coordinator) setLeaderLocked(id agent.ID, reason string, swarm []agent.Agent, now int64) {
	c.leader = id
	c.hasLeader = true
	c.lastSeen = now
	c.history = append(c.history, Succession{AgentID: id, Reason: reason, Timestamp: now})

	leaderPos, ok := positionOf(swarm, id)
	if !ok {
		return
	}
	for followerID := range c.offsets {
		if followerPos, ok := positionOf(swarm, followerID); ok {
			c.offsets[followerID] = geom.Sub(followerPos, leaderPos)
		}
	}
}

// RegisterFollower sets follower's offset from the leader's position.
// SetLeader and every succession recompute the offsets of registered
// followers from their positions at that moment.
func (c *Coordinator) RegisterFollower(follower agent.ID, offset geom.Vector) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsets[follower] = offset
}

// Touch refreshes the leader's last-seen timestamp, called whenever the
// scheduler observes a fresh state update for the leader agent.
func (c *Coordinator) Touch(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastSeen = now
}

// HealthCheck evaluates the current leader's health against swarm and,
// on failure, selects and installs a successor via mode ("Leader
// health check each tick"). Returns the (possibly unchanged) leader id,
// whether a succession occurred, and ErrNoEligibleLeader when the leader
// is unset or unhealthy and no successor can be selected.
func (c *Coordinator) HealthCheck(swarm []agent.Agent, center geom.Vector, now int64) (agent.ID, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.hasLeader && c.healthyLocked(swarm, now) {
		return c.leader, false, nil
	}

	successor, err := SelectBest(c.mode, excluding(swarm, c.leader), center)
	if err != nil {
		c.log.Debug().Err(err).Msg("leader succession failed: no eligible candidate")
		return c.leader, false, err
	}
	c.log.Debug().Int64("agent", int64(successor.ID)).Str("mode", c.mode.String()).Msg("leader succession")
	c.setLeaderLocked(successor.ID, "health_check_succession", swarm, now)
	return successor.ID, true, nil
}

func (c *Coordinator) healthyLocked(swarm []agent.Agent, now int64) bool {
	leaderAgent, ok := agentByID(swarm, c.leader)
	if !ok {
		return false
	}
	if leaderAgent.Status != agent.Active || leaderAgent.Battery < MinLeaderBattery {
		return false
	}
	return now-c.lastSeen <= c.leaderTimeout
}

// excluding returns swarm without the agent matching id (used to keep a
// failed leader out of its own successor pool).
func excluding(swarm []agent.Agent, id agent.ID) []agent.Agent {
	out := make([]agent.Agent, 0, len(swarm))
	for _, a := range swarm {
		if a.ID != id {
			out = append(out, a)
		}
	}
	return out
}

func agentByID(swarm []agent.Agent, id agent.ID) (agent.Agent, bool) {
	for _, a := range swarm {
		if a.ID == id {
			return a, true
		}
	}
	return agent.Agent{}, false
}

func positionOf(swarm []agent.Agent, id agent.ID) (geom.Vector, bool) {
	a, ok := agentByID(swarm, id)
	if !ok {
		return geom.Zero, false
	}
	return a.Position, true
}

// FollowCommands computes a MoveToTarget BehaviorRequest for every
// registered follower whose error from leaderPos+offset exceeds
// positionTolerance (Followers).
func (c *Coordinator) FollowCommands(swarm []agent.Agent, timestamp int64) []behavior.BehaviorRequest {
	c.mu.RLock()
	defer c.mu.RUnlock()

	leaderPos, ok := positionOf(swarm, c.leader)
	if !c.hasLeader || !ok {
		return nil
	}

	var out []behavior.BehaviorRequest
	for followerID, offset := range c.offsets {
		followerPos, ok := positionOf(swarm, followerID)
		if !ok {
			continue
		}
		target := geom.Add(leaderPos, offset)
		if geom.Distance(followerPos, target) <= c.positionTolerance {
			continue
		}
		smoothTarget := geom.Lerp(followerPos, target, c.smoothFactor)
		out = append(out, behavior.BehaviorRequest{
			AgentID: int64(followerID),
			Kind: behavior.Follower,
			Command: behavior.MovementCommand{
				AgentID: int64(followerID),
				Type: behavior.MoveToTarget,
				TargetPosition: behavior.Vector2(smoothTarget),
			},
			Timestamp: timestamp,
		})
	}
	return out
}
