package model

import (
	"time"
)

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Bio            *string   `json:"bio,omitempty"`
	Avatar         *string   `json:"avatar,omitempty"`
	Reputation     int       `json:"reputation"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PublicUser is the author view embedded in problems and solutions.
type PublicUser struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Avatar     *string `json:"avatar,omitempty"`
	Reputation int     `json:"reputation"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:         u.ID,
		Username:   u.Username,
		Avatar:     u.Avatar,
		Reputation: u.Reputation,
	}
}
