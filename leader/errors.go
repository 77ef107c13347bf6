package leader

import "errors"

// ErrNoEligibleLeader indicates no candidate agent satisfies the health
// requirements to become leader (quoting: "select a new leader from
// remaining active agents").
var ErrNoEligibleLeader = errors.New("leader: no eligible agent to lead")

// ErrUnknownAgent indicates an operation referenced an agent id the
// Coordinator has no follower record for.
var ErrUnknownAgent = errors.New("leader: agent has no follower record")
