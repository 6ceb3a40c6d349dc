package model

import (
	"time"
)

type Solution struct {
	ID         string      `json:"id"`
	ProblemID  string      `json:"problem_id"`
	Problem    *ProblemRef `json:"problem,omitempty"`
	AuthorID   string      `json:"author_id"`
	Author     *PublicUser `json:"author,omitempty"`
	Content    string      `json:"content"`
	Images     []string    `json:"images"`
	Upvotes    int         `json:"upvotes"`
	Downvotes  int         `json:"downvotes"`
	IsAccepted bool        `json:"is_accepted"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// ProblemRef is the parent view embedded in global solution listings.
type ProblemRef struct {
	ID     string        `json:"id"`
	Title  string        `json:"title"`
	Status ProblemStatus `json:"status"`
}

// VoteTally is what castVote returns: the post-mutation counters.
type VoteTally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}
