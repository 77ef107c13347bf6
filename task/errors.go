package task

import "errors"

// ErrInvalidTask indicates a task failed its validity invariant (Task:
// "valid requires non-empty id, non-null kind, minimumBattery in
// [0,1]").
var ErrInvalidTask = errors.New("task: invalid task")

// ErrUnknownTask indicates an operation referenced a task id the
// Allocator has no record of.
var ErrUnknownTask = errors.New("task: unknown task")

// ErrUnknownAssignment indicates an operation referenced a task with no
// current assignment.
var ErrUnknownAssignment = errors.New("task: task has no current assignment")
