// Package store defines the narrow contracts the consensus engine consumes.
// The pgx-backed implementations live in internal/repository; tests supply
// in-memory fakes.
package store

import (
	"context"

	"github.com/openskip/openskip-go/internal/model"
)

// Store is the combined segment + audit-vote store. UpdateVotes must be
// atomic per UUID (no read-modify-write in process), and Atomic must commit
// everything the closure did or nothing.
type Store interface {
	// GetSegmentsForVideo returns eligible segments only: not hidden, not
	// shadow-hidden, votes strictly above the dead threshold.
	GetSegmentsForVideo(ctx context.Context, videoID string, deadThreshold int) ([]model.Segment, error)
	// GetAllSegmentsForVideo returns every segment regardless of state.
	GetAllSegmentsForVideo(ctx context.Context, videoID string) ([]model.Segment, error)
	// GetSegment returns nil when the UUID is unknown.
	GetSegment(ctx context.Context, uuid string) (*model.Segment, error)

	InsertSegment(ctx context.Context, seg model.Segment, ipHash string) error
	CountUserSegments(ctx context.Context, videoID, userID string) (int, error)
	SegmentExists(ctx context.Context, videoID string, start, end float64) (bool, error)
	FindVideoIDsByHashPrefix(ctx context.Context, prefix string) ([]string, error)

	UpdateVotes(ctx context.Context, uuid string, delta int) (int, error)
	SetLocked(ctx context.Context, uuid string, locked bool) error
	SetHidden(ctx context.Context, uuid string, hidden bool) error
	SetHiddenBatch(ctx context.Context, uuids []string, hidden bool) error
	SetCategory(ctx context.Context, uuid, category string) error
	SetVideoDuration(ctx context.Context, uuid string, duration float64) error

	GetCategoryTallies(ctx context.Context, uuid string) ([]model.CategoryTally, error)
	AddCategoryTally(ctx context.Context, uuid, category string, delta float64) error

	// HasQualifyingSubmission reports whether the user has an alive,
	// non-hidden submission on the video. An empty category matches any.
	HasQualifyingSubmission(ctx context.Context, userID, videoID, category string, deadThreshold int) (bool, error)

	// TouchUser upserts the identity row and refreshes last_active.
	TouchUser(ctx context.Context, userID string) error

	UpsertVote(ctx context.Context, rec model.AuditVote) error
	// GetVote returns nil when no live record exists.
	GetVote(ctx context.Context, uuid, userID, kind string) (*model.AuditVote, error)
	HasOtherIPDownvote(ctx context.Context, uuid, ipHash, userID string) (bool, error)

	Atomic(ctx context.Context, fn func(Store) error) error
}

// TrustClassifier resolves a hashed identity to its trust classification.
// Unknown identities classify as the anonymous low-trust default.
type TrustClassifier interface {
	Classify(ctx context.Context, userID string) (model.Trust, error)
}

// LockRegistry answers whether a (video, category, actionType) tuple is
// administratively locked against non-VIP mutation.
type LockRegistry interface {
	IsLocked(ctx context.Context, videoID, category, actionType string) (bool, error)
}

// CacheInvalidator signals the external read cache. Calls are
// fire-and-forget: failures are logged by the implementation and never fail
// the vote.
type CacheInvalidator interface {
	InvalidateSegments(ctx context.Context, videoID string)
	InvalidateSegment(ctx context.Context, uuid string)
}
