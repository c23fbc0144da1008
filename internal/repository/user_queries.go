package repository

import (
	"context"

	"github.com/openskip/openskip-go/internal/model"
)

// UserSegmentCount counts a user's eligible submissions across all videos.
func (s *Store) UserSegmentCount(ctx context.Context, userID string, deadThreshold int) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM segments
		WHERE submitter_id = $1 AND votes > $2
		  AND hidden = false AND shadow_hidden = false`,
		userID, deadThreshold).Scan(&n)
	return n, err
}

// UserVoteCount counts a user's live audit-vote records.
func (s *Store) UserVoteCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM vote_records WHERE user_id = $1`,
		userID).Scan(&n)
	return n, err
}

// GetStats returns aggregate statistics for the stats endpoint.
func (s *Store) GetStats(ctx context.Context) (*model.StatsResponse, error) {
	var stats model.StatsResponse
	err := s.q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM segments WHERE hidden = false AND shadow_hidden = false) AS total_segments,
			(SELECT COUNT(*) FROM vote_records) AS total_votes,
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM users WHERE last_active > NOW() - INTERVAL '24 hours') AS active_users_24h`).
		Scan(&stats.TotalSegments, &stats.TotalVotes, &stats.TotalUsers, &stats.ActiveUsers24h)
	if err != nil {
		return nil, err
	}

	rows, err := s.q.Query(ctx, `
		SELECT category, COUNT(*) AS total
		FROM segments
		WHERE hidden = false AND shadow_hidden = false
		GROUP BY category
		ORDER BY total DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats.SegmentsByCat = make(map[string]int)
	for rows.Next() {
		var cat string
		var count int
		if err := rows.Scan(&cat, &count); err != nil {
			return nil, err
		}
		stats.SegmentsByCat[cat] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ExportSegments returns all eligible segments for the public CSV export,
// oldest first.
func (s *Store) ExportSegments(ctx context.Context, deadThreshold int) ([]model.Segment, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+segmentColumns+`
		FROM segments
		WHERE hidden = false AND shadow_hidden = false AND votes > $1
		ORDER BY time_submitted, uuid`,
		deadThreshold)
	if err != nil {
		return nil, err
	}
	return s.collectSegments(rows)
}

// TouchUser upserts the user row and refreshes last_active. New identities
// start with default trust.
func (s *Store) TouchUser(ctx context.Context, userID string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO users (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO UPDATE SET last_active = NOW()`,
		userID)
	return err
}
