package model

import (
	"time"
)

type ProblemStatus string

const (
	StatusOpen   ProblemStatus = "open"
	StatusSolved ProblemStatus = "solved"
	StatusClosed ProblemStatus = "closed"
)

func (s ProblemStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusSolved, StatusClosed:
		return true
	}
	return false
}

// Location is an optional GeoJSON point attached to a problem.
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"` // [lng, lat]
	Address     *string    `json:"address,omitempty"`
}

type Problem struct {
	ID                 string        `json:"id"`
	Title              string        `json:"title"`
	Slug               string        `json:"slug"`
	Description        string        `json:"description"`
	Images             []string      `json:"images"`
	Tags               []string      `json:"tags"`
	Location           *Location     `json:"location,omitempty"`
	AuthorID           string        `json:"author_id"`
	Author             *PublicUser   `json:"author,omitempty"`
	Status             ProblemStatus `json:"status"`
	AcceptedSolutionID *string       `json:"accepted_solution_id,omitempty"`
	Views              int           `json:"views"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}
