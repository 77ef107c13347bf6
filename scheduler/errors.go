package scheduler

import "errors"

// ErrUnknownObstacle indicates an UnregisterObstacle call named an id the
// scheduler never registered.
var ErrUnknownObstacle = errors.New("scheduler: unknown obstacle")

// ErrUnknownProposal indicates a tracked-proposal lookup named an id the
// scheduler is not currently watching for timeouts.
var ErrUnknownProposal = errors.New("scheduler: unknown proposal")
