package model

import (
	"time"
)

type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

func (v VoteType) Valid() bool {
	return v == VoteUp || v == VoteDown
}

// Vote records one user's standing vote on one solution. Uniqueness of
// (user_id, solution_id) is enforced by the database; the vote row is the
// source of truth, the solution counters are a derived cache.
type Vote struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	SolutionID string    `json:"solution_id"`
	VoteType   VoteType  `json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// Reputation deltas applied as side effects of vote and acceptance
// transitions. The asymmetric up/down rewards are an anti-griefing choice:
// an upvote received is worth more than a downvote costs.
const (
	RepUpvoteReceived   = 2
	RepDownvoteReceived = -1
	RepSolutionAccepted = 15
	RepSolutionPosted   = 5
)
