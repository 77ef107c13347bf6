package formation

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/orbitswarm/swarmcore/agent"
	"github.com/orbitswarm/swarmcore/behavior"
	"github.com/orbitswarm/swarmcore/geom")

// Default maintenance thresholds and gains ("formation:
// {ε_ok, ε_minor, minor_gain, major_gain}").
const (DefaultEpsilonOK = 5.0
	DefaultEpsilonMinor = 15.0
	DefaultMinorGain = 0.6
	DefaultMajorGain = 1.5)

// Thresholds bundles the maintenance policy constants so a Controller can
// be tuned without touching call sites.
type Thresholds struct {
	EpsilonOK float64
	EpsilonMinor float64
	MinorGain float64
	MajorGain float64
}

// DefaultThresholds returns the default maintenance policy.
func DefaultThresholds() Thresholds {
	return Thresholds{
		EpsilonOK: DefaultEpsilonOK,
		EpsilonMinor: DefaultEpsilonMinor,
		MinorGain: DefaultMinorGain,
		MajorGain: DefaultMajorGain,
	}
}

// transition holds the in-progress state for a shape change (// Transition). A Formation has at most one active transition.
type transition struct {
	fromShape Shape
	toShape Shape
	fromSlots map[agent.ID]geom.Vector
	toSlots map[agent.ID]geom.Vector
	t0 int64
	durationMs int64
}

// Formation is one live formation instance (Formation).
type Formation struct {
	ID string
	Shape Shape
	Center geom.Vector
	Spacing float64
	Heading geom.Vector
	Slots map[agent.ID]geom.Vector
	LeaderAgentID agent.ID
	HasLeader bool

	disbanded bool
	transition *transition
}

// Disbanded reports whether f has fallen below its shape's minimumAgents
// and is no longer maintained ("Agent failure").
func (f *Formation) Disbanded() bool { return f.disbanded }

// Controller owns every live Formation (Ownership: "The formation
// controller owns formation objects"). Safe for concurrent use.
type Controller struct {
	mu sync.RWMutex
	formations map[string]*Formation
	thresholds Thresholds
}

// NewController returns an empty Controller using the default maintenance
// thresholds.
func NewController() *Controller {
	return &Controller{
		formations: make(map[string]*Formation),
		thresholds: DefaultThresholds(),
	}
}

// WithThresholds overrides the controller's maintenance policy.
func (c *Controller) WithThresholds(t Thresholds) *Controller {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.thresholds = t
	return c
}

// Request creates a new formation of shape for agents, centered on
// center with the given spacing and heading, and returns its id
// (requestFormation). Agents are assigned to slots by minimal-travel
// matching (see assignSlots). Returns ErrTooFewAgents if len(agents) is
// below shape.minimumAgents.
func (c *Controller) Request(shape Shape, agents []agent.Agent, center geom.Vector, spacing float64, heading geom.Vector) (string, error) {
	if len(agents) < MinimumAgents(shape) {
		return "", fmt.Errorf("formation: shape=%s agents=%d min=%d: %w", shape, len(agents), MinimumAgents(shape), ErrTooFewAgents)
	}

	slotPositions := Slots(shape, center, spacing, heading, len(agents))
	slots := assignSlots(agents, slotPositions)

	f := &Formation{
		ID: uuid.NewString(),
		Shape: shape,
		Center: center,
		Spacing: spacing,
		Heading: heading,
		Slots: slots,
	}

	c.mu.Lock()
	c.formations[f.ID] = f
	c.mu.Unlock()
	return f.ID, nil
}

// IDs returns every formation id the controller currently holds
// (disbanded or not), sorted for deterministic iteration — the tick
// scheduler walks this list each tick to advance transitions and run
// maintenance.
func (c *Controller) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.formations))
	for id := range c.formations {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Get returns a copy of formation id's slot map and metadata.
func (c *Controller) Get(id string) (Formation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.formations[id]
	if !ok {
		return Formation{}, ErrUnknownFormation
	}
	return cloneFormation(f), nil
}

func cloneFormation(f *Formation) Formation {
	slots := make(map[agent.ID]geom.Vector, len(f.Slots))
	for id, pos := range f.Slots {
		slots[id] = pos
	}
	out := *f
	out.Slots = slots
	out.transition = nil
	return out
}

// SetLeader marks agentID as the formation's leader, for producers (e.g.
// leader-follower) that key off formation membership.
func (c *Controller) SetLeader(id string, agentID agent.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.formations[id]
	if !ok {
		return ErrUnknownFormation
	}
	f.LeaderAgentID = agentID
	f.HasLeader = true
	return nil
}

// RemoveAgent drops agentID from formation id's slot map ("Agent
// failure"). If the resulting count falls below shape.minimumAgents, the
// formation is disbanded and any active transition is cancelled (// Cancellation).
func (c *Controller) RemoveAgent(id string, agentID agent.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.formations[id]
	if !ok {
		return ErrUnknownFormation
	}
	delete(f.Slots, agentID)
	if f.transition != nil {
		delete(f.transition.fromSlots, agentID)
		delete(f.transition.toSlots, agentID)
	}
	if len(f.Slots) < MinimumAgents(f.Shape) {
		f.disbanded = true
		f.transition = nil
	}
	return nil
}

// Transition begins a timed shape change: toShape over durationMs,
// starting at tick time now (Transition). The agent set is
// preserved; only slot positions move. Returns ErrFormationDisbanded if
// the formation has fallen below minimumAgents, and ErrTooFewAgents if
// the current agent count cannot satisfy toShape's minimum.
func (c *Controller) Transition(id string, toShape Shape, durationMs int64, now int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.formations[id]
	if !ok {
		return ErrUnknownFormation
	}
	if f.disbanded {
		return ErrFormationDisbanded
	}
	n := len(f.Slots)
	if n < MinimumAgents(toShape) {
		return fmt.Errorf("formation: transition to %s needs %d agents, have %d: %w", toShape, MinimumAgents(toShape), n, ErrTooFewAgents)
	}

	agents := agentsFromSlots(f.Slots)
	toPositions := Slots(toShape, f.Center, f.Spacing, f.Heading, n)
	toSlots := assignSlots(agents, toPositions)

	fromSlots := make(map[agent.ID]geom.Vector, n)
	for aid, pos := range f.Slots {
		fromSlots[aid] = pos
	}

	f.transition = &transition{
		fromShape: f.Shape,
		toShape: toShape,
		fromSlots: fromSlots,
		toSlots: toSlots,
		t0: now,
		durationMs: durationMs,
	}
	return nil
}

// agentsFromSlots builds a synthetic agent slice (id + current slot
// position) so assignSlots can re-run its minimal-travel matching during
// a transition.
func agentsFromSlots(slots map[agent.ID]geom.Vector) []agent.Agent {
	out := make([]agent.Agent, 0, len(slots))
	for id, pos := range slots {
		out = append(out, agent.Agent{ID: id, Position: pos})
	}
	return out
}

// Advance progresses any active transition for formation id to tick time
// now. When progress reaches 1, the transition's target shape becomes
// the active shape and transition state is cleared (Transition),
// and completed is true. Advance is a no-op (completed=false) if no
// transition is active.
func (c *Controller) Advance(id string, now int64) (completed bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.formations[id]
	if !ok {
		return false, ErrUnknownFormation
	}
	if f.transition == nil || f.disbanded {
		return false, nil
	}
	t := f.transition
	progress := geom.ClampScalar(float64(now-t.t0)/float64(t.durationMs), 0, 1)

	lerped := make(map[agent.ID]geom.Vector, len(t.toSlots))
	for aid, toPos := range t.toSlots {
		fromPos, ok := t.fromSlots[aid]
		if !ok {
			fromPos = toPos
		}
		lerped[aid] = geom.Lerp(fromPos, toPos, progress)
	}
	f.Slots = lerped

	if progress >= 1 {
		f.Shape = t.toShape
		f.Slots = t.toSlots
		f.transition = nil
		return true, nil
	}
	return false, nil
}

// Maintain computes the per-agent corrective MovementCommand for every
// agent currently in formation id, given live positions (// Maintenance). Agents within EpsilonOK of their slot receive no command.
// Disbanded formations return no commands.
func (c *Controller) Maintain(id string, positions map[agent.ID]geom.Vector, timestamp int64) ([]behavior.BehaviorRequest, error) {
	c.mu.RLock()
	f, ok := c.formations[id]
	if !ok {
		c.mu.RUnlock()
		return nil, ErrUnknownFormation
	}
	if f.disbanded {
		c.mu.RUnlock()
		return nil, nil
	}
	slots := make(map[agent.ID]geom.Vector, len(f.Slots))
	for aid, pos := range f.Slots {
		slots[aid] = pos
	}
	th := c.thresholds
	c.mu.RUnlock()

	var out []behavior.BehaviorRequest
	for aid, slotPos := range slots {
		pos, ok := positions[aid]
		if !ok {
			continue
		}
		cmd, fire := correction(pos, slotPos, th)
		if !fire {
			continue
		}
		out = append(out, behavior.BehaviorRequest{
			AgentID: int64(aid),
			Kind: behavior.Formation,
			Command: behavior.MovementCommand{
				AgentID: int64(aid),
				Type: behavior.FormationPosition,
				CombinedForce: behavior.Vector2(cmd),
				TargetPosition: behavior.Vector2(slotPos),
			},
			Timestamp: timestamp,
		})
	}
	return out, nil
}

// correction implements the maintenance policy: no force inside
// EpsilonOK, a scaled minor correction in [EpsilonOK, EpsilonMinor), and a
// scaled major correction at or beyond EpsilonMinor.
func correction(pos, slotPos geom.Vector, th Thresholds) (geom.Vector, bool) {
	delta := geom.Sub(slotPos, pos)
	errMag := geom.Magnitude(delta)
	if errMag < th.EpsilonOK {
		return geom.Zero, false
	}
	dir := geom.Normalize(delta)

	var strength float64
	ratio := errMag / th.EpsilonMinor
	if ratio > 2 {
		ratio = 2
	}
	if errMag < th.EpsilonMinor {
		strength = th.MinorGain * ratio
	} else {
		strength = th.MajorGain * ratio
	}
	return geom.Scale(dir, strength), true
}
