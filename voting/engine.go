package voting

import (
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/orbitswarm/swarmcore/randsrc")

// record is the engine's internal bookkeeping for one proposal: the
// Proposal itself, who has voted (for the allowRevoting=false check), and
// the raw responses.
type record struct {
	proposal Proposal
	voters map[int64]bool
	votes []VoteResponse
}

// Engine owns every proposal submitted to it (Ownership: "the
// voting engine owns proposals and responses"). Safe for concurrent use.
type Engine struct {
	mu sync.Mutex
	records map[string]*record
	rng *randsrc.Source
	log zerolog.Logger
}

// NewEngine returns an empty Engine. source drives the Random tiebreak
// mode; pass a dedicated randsrc.Source (via randsrc.Derive) so voting's
// draws never interfere with another subsystem's stream.
func NewEngine(source *randsrc.Source) *Engine {
	return &Engine{
		records: make(map[string]*record),
		rng: source,
		log: zerolog.Nop(),
	}
}

// WithLogger replaces the default no-op logger.
func (e *Engine) WithLogger(l zerolog.Logger) *Engine {
	e.log = l
	return e
}

// Submit validates p (submit) and stores it as Active, assigning an
// id if p.ID is empty. Returns the proposal's id.
func (e *Engine) Submit(p Proposal, now int64) (string, error) {
	if len(p.Options) < 2 {
		return "", fmt.Errorf("voting: %d options: %w", len(p.Options), ErrInvalidProposal)
	}
	if p.Deadline <= now {
		return "", fmt.Errorf("voting: deadline %d <= now %d: %w", p.Deadline, now, ErrInvalidProposal)
	}
	if p.MinimumVotes < 1 {
		return "", fmt.Errorf("voting: minimumVotes=%d: %w", p.MinimumVotes, ErrInvalidProposal)
	}
	if p.Threshold <= 0 {
		p.Threshold = DefaultThreshold
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.State = Active
	p.Round = 1

	e.mu.Lock()
	defer e.mu.Unlock()
	e.records[p.ID] = &record{proposal: p, voters: make(map[int64]bool)}
	return p.ID, nil
}

// RecordVote accepts response iff the proposal is Active, the choice is
// one of its options, and (unless allowRevoting) the voter has not
// already voted (recordVote).
func (e *Engine) RecordVote(response VoteResponse) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rec, ok := e.records[response.ProposalID]
	if !ok {
		return ErrUnknownProposal
	}
	if rec.proposal.State != Active {
		return ErrProposalNotActive
	}
	if !containsOption(rec.proposal.Options, response.Choice) {
		return ErrInvalidChoice
	}
	if !rec.proposal.AllowRevoting && rec.voters[response.VoterID] {
		return ErrDuplicateVote
	}

	if response.Weight <= 0 {
		response.Weight = 1
	}
	rec.voters[response.VoterID] = true
	rec.votes = append(rec.votes, response)
	return nil
}

func containsOption(options []string, choice string) bool {
	for _, o := range options {
		if o == choice {
			return true
		}
	}
	return false
}

// Evaluate computes the current VoteResult for proposalID (// evaluate). On consensus the proposal transitions to Completed.
// leaderID is consulted only if the tiebreaker is LeaderDecides.
func (e *Engine) Evaluate(proposalID string, leaderID int64, now int64) (VoteResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[proposalID]
	if !ok {
		return VoteResult{}, ErrUnknownProposal
	}
	return e.evaluateLocked(rec, leaderID, now), nil
}

func (e *Engine) evaluateLocked(rec *record, leaderID int64, now int64) VoteResult {
	p := rec.proposal

	totals := make(map[string]float64, len(p.Options))
	for _, o := range p.Options {
		totals[o] = 0
	}
	var total float64
	uniqueVoters := make(map[int64]bool, len(rec.votes))
	for _, v := range rec.votes {
		w := v.Weight
		if !p.Weighted {
			w = 1 // uniform voting: every vote counts once
		}
		totals[v.Choice] += w
		total += w
		uniqueVoters[v.VoterID] = true
	}
	votesReceived := len(uniqueVoters)

	result := VoteResult{
		ProposalID: p.ID,
		Totals: totals,
		VotesReceived: votesReceived,
		State: p.State,
	}

	if votesReceived < p.MinimumVotes {
		return result // no quorum yet
	}

	if p.RequiresUnanimous {
		choice, unanimous := unanimousChoice(rec.votes)
		if !unanimous {
			return result
		}
		result.Consensus = true
		result.Winner = choice
	} else {
		winner, maxWeight, tied := topOption(totals, p.Options)
		threshold := math.Ceil(total * p.Threshold)
		if maxWeight < threshold {
			return result
		}
		if tied {
			winner = e.breakTie(p, totals, rec.votes, leaderID)
			result.Tied = true
			e.log.Debug().Str("proposal", p.ID).Str("tiebreaker", p.Tiebreaker.String()).Str("winner", winner).Msg("tie broken")
		}
		result.Consensus = true
		result.Winner = winner
	}

	rec.proposal.State = Completed
	result.State = Completed
	return result
}

// unanimousChoice reports the single choice every vote agreed on, or
// ("", false) if votes disagree or there are none.
func unanimousChoice(votes []VoteResponse) (string, bool) {
	if len(votes) == 0 {
		return "", false
	}
	first := votes[0].Choice
	for _, v := range votes[1:] {
		if v.Choice != first {
			return "", false
		}
	}
	return first, true
}

// topOption returns the option(s) with the maximum total, in options
// order for determinism, and whether more than one option shares that
// maximum.
func topOption(totals map[string]float64, options []string) (winner string, maxWeight float64, tied bool) {
	count := 0
	maxWeight = -1
	for _, o := range options {
		w := totals[o]
		if w > maxWeight {
			maxWeight = w
			winner = o
			count = 1
		} else if w == maxWeight {
			count++
		}
	}
	return winner, maxWeight, count > 1
}

// breakTie resolves a tied vote per p.Tiebreaker ("Tie"). LeaderID
// deciding means: if the leader cast one of the tied votes, its choice
// wins; otherwise the tie falls back to FirstOption among the tied set.
func (e *Engine) breakTie(p Proposal, totals map[string]float64, votes []VoteResponse, leaderID int64) string {
	tiedOptions := tiedAt(totals, p.Options)

	switch p.Tiebreaker {
	case LeaderDecides:
		for _, v := range votes {
			if v.VoterID == leaderID && containsOption(tiedOptions, v.Choice) {
				return v.Choice
			}
		}
		return tiedOptions[0]
	case LowestID:
		return lexicographicallyLowest(tiedOptions)
	case Random:
		idx := e.rng.Intn(len(tiedOptions))
		return tiedOptions[idx]
	case FirstOption:
		return tiedOptions[0]
	default:
		return tiedOptions[0]
	}
}

// lexicographicallyLowest returns the smallest string in options, the
// LowestID tiebreak's stand-in for "lower id wins" (options here are
// strings, not integer ids, but the tie-break intent — a stable,
// content-derived winner — is the same one the task allocator applies to
// agent ids).
func lexicographicallyLowest(options []string) string {
	lowest := options[0]
	for _, o := range options[1:] {
		if o < lowest {
			lowest = o
		}
	}
	return lowest
}

// tiedAt returns every option in options (in declared order) whose total
// equals the maximum.
func tiedAt(totals map[string]float64, options []string) []string {
	max := -1.0
	for _, o := range options {
		if totals[o] > max {
			max = totals[o]
		}
	}
	var out []string
	for _, o := range options {
		if totals[o] == max {
			out = append(out, o)
		}
	}
	return out
}

// CheckTimeout evaluates proposalID once if now has reached its
// deadline and it is still Active, applying timeoutFallback if consensus
// still was not reached (Timeout). Returns the result and whether
// a new round was started (RetryOnce).
func (e *Engine) CheckTimeout(proposalID string, leaderID int64, now int64) (VoteResult, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[proposalID]
	if !ok {
		return VoteResult{}, false, ErrUnknownProposal
	}
	if rec.proposal.State != Active || now < rec.proposal.Deadline {
		return VoteResult{ProposalID: proposalID, State: rec.proposal.State}, false, nil
	}

	result := e.evaluateLocked(rec, leaderID, now)
	if result.Consensus {
		return result, false, nil
	}

	switch rec.proposal.TimeoutFallback {
	case FallbackLeaderDecides:
		winner, _, tied := topOption(result.Totals, rec.proposal.Options)
		if tied || winner == "" {
			winner = rec.proposal.Options[0]
		}
		result.Consensus = true
		result.Winner = winner
		rec.proposal.State = Completed
		result.State = Completed
		return result, false, nil
	case FallbackRetryOnce:
		if rec.proposal.MaxRounds > 0 && rec.proposal.Round >= rec.proposal.MaxRounds {
			rec.proposal.State = Expired
			result.State = Expired
			return result, false, nil
		}
		rec.proposal.Round++
		rec.proposal.Deadline = now + rec.proposal.RevoteDelay
		rec.votes = nil
		rec.voters = make(map[int64]bool)
		result.State = Active
		return result, true, nil
	default: // FallbackAbort
		rec.proposal.State = Expired
		result.State = Expired
		return result, false, nil
	}
}

// Cancel moves proposalID to Cancelled; subsequent votes are rejected
// (Cancellation).
func (e *Engine) Cancel(proposalID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[proposalID]
	if !ok {
		return ErrUnknownProposal
	}
	rec.proposal.State = Cancelled
	return nil
}

// Get returns a copy of the current proposal state.
func (e *Engine) Get(proposalID string) (Proposal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[proposalID]
	if !ok {
		return Proposal{}, ErrUnknownProposal
	}
	return rec.proposal, nil
}
