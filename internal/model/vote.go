package model

import "time"

// Numeric vote types on the wire, kept compatible with the extension
// protocol.
const (
	VoteDown      = 0
	VoteUp        = 1
	VoteCategory  = 2
	VoteUndo      = 20
	VoteMalicious = 30
)

// Audit record kinds. A voter holds at most one live record per
// (segment, kind): a superseding vote updates the row in place.
const (
	AuditKindScore    = "score"
	AuditKindCategory = "category"
)

// AuditVote is one row of the private audit-vote store. Weight is the score
// delta (or tally weight) that was actually applied, so an undo can reverse
// exactly what this identity contributed.
type AuditVote struct {
	UUID      string    `json:"UUID"`
	UserID    string    `json:"-"`
	Kind      string    `json:"kind"`
	Type      int       `json:"type"`
	Weight    float64   `json:"weight"`
	Category  string    `json:"category,omitempty"`
	IPHash    string    `json:"-"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// VoteRequest is the API request body for voting on a segment. Either Type
// is set (score vote) or Category is non-empty (category vote).
type VoteRequest struct {
	UUID          string  `json:"UUID"`
	UserID        string  `json:"userId"`
	Type          *int    `json:"type,omitempty"`
	Category      string  `json:"category,omitempty"`
	VideoDuration float64 `json:"videoDuration,omitempty"`
	UserAgent     string  `json:"userAgent,omitempty"`
}

// VoteResponse is the API response after a vote is processed. Score changes
// suppressed by anti-abuse gates still report success here.
type VoteResponse struct {
	Success bool `json:"success"`
}
