package voting

import "errors"

// ErrInvalidProposal indicates a proposal failed validation at submit
// time (submit: ">=2 options, deadline > now, minimumVotes >= 1").
var ErrInvalidProposal = errors.New("voting: invalid proposal")

// ErrUnknownProposal indicates an operation referenced a proposal id not
// held by the Engine.
var ErrUnknownProposal = errors.New("voting: unknown proposal")

// ErrProposalNotActive indicates a vote was attempted against a proposal
// no longer in the Active state.
var ErrProposalNotActive = errors.New("voting: proposal is not active")

// ErrInvalidChoice indicates a vote's choice was not one of the
// proposal's options.
var ErrInvalidChoice = errors.New("voting: choice is not a valid option")

// ErrDuplicateVote indicates a voter attempted to vote twice on a
// proposal that does not allow revoting.
var ErrDuplicateVote = errors.New("voting: voter has already voted")
