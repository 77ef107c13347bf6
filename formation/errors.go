package formation

import "errors"

// ErrTooFewAgents indicates fewer agents were supplied than shape's
// minimumAgents requires (quoting: "|slots| >= shape.minimumAgents").
var ErrTooFewAgents = errors.New("formation: too few agents for shape")

// ErrUnknownFormation indicates an operation referenced a formation id that
// does not exist in the Controller.
var ErrUnknownFormation = errors.New("formation: unknown formation id")

// ErrUnknownAgent indicates an operation referenced an agent id not
// currently assigned a slot in the formation.
var ErrUnknownAgent = errors.New("formation: agent has no slot in this formation")

// ErrFormationDisbanded indicates an operation was attempted against a
// formation that has already disbanded (agent failure below
// minimumAgents).
var ErrFormationDisbanded = errors.New("formation: formation is disbanded")
