package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openskip/openskip-go/internal/model"
)

// TrustRepo reads the trust side tables: users, warnings and the
// locked-categories registry. All reads, no mutation — abuse history is
// administered elsewhere.
type TrustRepo struct {
	pool *pgxpool.Pool
}

func NewTrustRepo(pool *pgxpool.Pool) *TrustRepo {
	return &TrustRepo{pool: pool}
}

// GetUser returns nil for unknown identities; callers treat those as the
// anonymous low-trust default.
func (r *TrustRepo) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, reputation, is_vip, is_shadow_banned, first_seen, last_active
		FROM users
		WHERE user_id = $1`,
		userID).Scan(&u.UserID, &u.Reputation, &u.IsVIP, &u.IsShadowBanned,
		&u.FirstSeen, &u.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ActiveWarningCount counts enabled warnings issued within the expiry
// window.
func (r *TrustRepo) ActiveWarningCount(ctx context.Context, userID string, window time.Duration) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM warnings
		WHERE user_id = $1 AND enabled = true AND issue_time > $2`,
		userID, time.Now().Add(-window)).Scan(&n)
	return n, err
}

// IsLocked reports whether the (video, category, actionType) tuple is in the
// locked-categories registry.
func (r *TrustRepo) IsLocked(ctx context.Context, videoID, category, actionType string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM lock_categories
			WHERE video_id = $1 AND category = $2 AND action_type = $3)`,
		videoID, category, actionType).Scan(&exists)
	return exists, err
}
