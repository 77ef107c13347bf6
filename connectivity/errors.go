package connectivity

import "errors"

// ErrUnknownAgent indicates an operation referenced an agent id absent
// from the graph it was built from.
var ErrUnknownAgent = errors.New("connectivity: unknown agent")

// ErrTooManyAgents indicates HopDistances was asked to run its bounded
// all-pairs pass over more agents than MaxHopDistanceAgents allows.
var ErrTooManyAgents = errors.New("connectivity: agent count exceeds bounded hop-distance limit")
