package agent

import "errors"

// ErrUnknownAgent indicates an operation referenced an agent ID that does
// not exist in the store (error kind `UnknownAgent`). Per the error
// handling policy, this is reported to the caller and the operation is a
// no-op; it never halts the tick loop.
var ErrUnknownAgent = errors.New("agent: unknown agent")

// ErrInvalidSpeed indicates a non-positive MaxSpeed was supplied to Spawn.
var ErrInvalidSpeed = errors.New("agent: max speed must be positive")
