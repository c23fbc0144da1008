package model

import "time"

// User carries the persistent identity record behind a hashed user ID.
type User struct {
	UserID         string    `json:"userId"`
	Reputation     float64   `json:"reputation"`
	IsVIP          bool      `json:"isVip"`
	IsShadowBanned bool      `json:"-"`
	FirstSeen      time.Time `json:"-"`
	LastActive     time.Time `json:"-"`
}

// Trust is the classification the consensus engine consumes. It is computed
// per request and never cached across requests.
type Trust struct {
	UserID         string
	IsVIP          bool
	Reputation     float64
	IsShadowBanned bool
	ActiveWarnings int
}

// UserResponse is the API response for user info lookups.
type UserResponse struct {
	UserID        string  `json:"userId"`
	Reputation    float64 `json:"reputation"`
	SegmentCount  int     `json:"segmentCount"`
	VoteCount     int     `json:"voteCount"`
	AccountAge    int     `json:"accountAge"`
	IsVIP         bool    `json:"isVip"`
}
