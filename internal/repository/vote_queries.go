package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/openskip/openskip-go/internal/model"
)

// UpsertVote keeps at most one live audit record per (UUID, user, kind). A
// superseding vote by the same identity updates the row instead of adding a
// second one.
func (s *Store) UpsertVote(ctx context.Context, rec model.AuditVote) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO vote_records (uuid, user_id, kind, type, weight, category, ip_hash, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (uuid, user_id, kind) DO UPDATE
		SET type = EXCLUDED.type, weight = EXCLUDED.weight,
		    category = EXCLUDED.category, ip_hash = EXCLUDED.ip_hash,
		    updated_at = NOW()`,
		rec.UUID, rec.UserID, rec.Kind, rec.Type, rec.Weight, rec.Category, rec.IPHash)
	return err
}

// GetVote returns nil when the identity has no live record of that kind.
func (s *Store) GetVote(ctx context.Context, uuid, userID, kind string) (*model.AuditVote, error) {
	var rec model.AuditVote
	err := s.q.QueryRow(ctx, `
		SELECT uuid, user_id, kind, type, weight, category, ip_hash, updated_at
		FROM vote_records
		WHERE uuid = $1 AND user_id = $2 AND kind = $3`,
		uuid, userID, kind).Scan(
		&rec.UUID, &rec.UserID, &rec.Kind, &rec.Type, &rec.Weight,
		&rec.Category, &rec.IPHash, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// HasOtherIPDownvote reports whether a different identity already downvoted
// this segment from the same network origin.
func (s *Store) HasOtherIPDownvote(ctx context.Context, uuid, ipHash, userID string) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM vote_records
			WHERE uuid = $1 AND ip_hash = $2 AND user_id <> $3
			  AND kind = $4 AND type = $5)`,
		uuid, ipHash, userID, model.AuditKindScore, model.VoteDown).Scan(&exists)
	return exists, err
}
