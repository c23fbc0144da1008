package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/openskip/openskip-go/internal/model"
)

const segmentColumns = `uuid, video_id, start_time, end_time, votes, category,
	action_type, submitter_id, locked, hidden, shadow_hidden, video_duration,
	time_submitted`

func scanSegment(row pgx.Row) (model.Segment, error) {
	var seg model.Segment
	err := row.Scan(
		&seg.UUID, &seg.VideoID, &seg.StartTime, &seg.EndTime, &seg.Votes,
		&seg.Category, &seg.ActionType, &seg.SubmitterID, &seg.Locked,
		&seg.Hidden, &seg.ShadowHidden, &seg.VideoDuration, &seg.TimeSubmitted,
	)
	return seg, err
}

func (s *Store) collectSegments(rows pgx.Rows) ([]model.Segment, error) {
	defer rows.Close()
	var segments []model.Segment
	for rows.Next() {
		seg, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

// GetSegmentsForVideo returns eligible segments in stable (startTime,
// timeSubmitted, UUID) order so selection buckets are reproducible.
func (s *Store) GetSegmentsForVideo(ctx context.Context, videoID string, deadThreshold int) ([]model.Segment, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+segmentColumns+`
		FROM segments
		WHERE video_id = $1 AND hidden = false AND shadow_hidden = false
		  AND votes > $2
		ORDER BY start_time, time_submitted, uuid`,
		videoID, deadThreshold)
	if err != nil {
		return nil, err
	}
	return s.collectSegments(rows)
}

// GetAllSegmentsForVideo returns every segment for a video regardless of
// visibility state, for batch side effects like duration-drift hiding.
func (s *Store) GetAllSegmentsForVideo(ctx context.Context, videoID string) ([]model.Segment, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+segmentColumns+`
		FROM segments
		WHERE video_id = $1
		ORDER BY start_time, time_submitted, uuid`,
		videoID)
	if err != nil {
		return nil, err
	}
	return s.collectSegments(rows)
}

func (s *Store) GetSegment(ctx context.Context, uuid string) (*model.Segment, error) {
	seg, err := scanSegment(s.q.QueryRow(ctx, `
		SELECT `+segmentColumns+` FROM segments WHERE uuid = $1`, uuid))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

func (s *Store) InsertSegment(ctx context.Context, seg model.Segment, ipHash string) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO segments (uuid, video_id, start_time, end_time, votes,
			category, action_type, submitter_id, locked, hidden, shadow_hidden,
			video_duration, time_submitted, ip_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		seg.UUID, seg.VideoID, seg.StartTime, seg.EndTime, seg.Votes,
		seg.Category, seg.ActionType, seg.SubmitterID, seg.Locked, seg.Hidden,
		seg.ShadowHidden, seg.VideoDuration, seg.TimeSubmitted, ipHash)
	return err
}

func (s *Store) CountUserSegments(ctx context.Context, videoID, userID string) (int, error) {
	var n int
	err := s.q.QueryRow(ctx, `
		SELECT COUNT(*) FROM segments WHERE video_id = $1 AND submitter_id = $2`,
		videoID, userID).Scan(&n)
	return n, err
}

func (s *Store) SegmentExists(ctx context.Context, videoID string, start, end float64) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM segments
			WHERE video_id = $1 AND start_time = $2 AND end_time = $3)`,
		videoID, start, end).Scan(&exists)
	return exists, err
}

// FindVideoIDsByHashPrefix returns the IDs of videos with eligible segments
// whose hashed ID starts with the given prefix (k-anonymity lookups).
func (s *Store) FindVideoIDsByHashPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.q.Query(ctx, `
		SELECT DISTINCT video_id
		FROM segments
		WHERE encode(sha256(convert_to(video_id, 'UTF8')), 'hex') LIKE $1 || '%'
		LIMIT 1000`,
		prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateVotes applies the delta with a single atomic statement and returns
// the new score. Concurrent votes on the same UUID serialize in the store.
func (s *Store) UpdateVotes(ctx context.Context, uuid string, delta int) (int, error) {
	var votes int
	err := s.q.QueryRow(ctx, `
		UPDATE segments SET votes = votes + $2 WHERE uuid = $1
		RETURNING votes`,
		uuid, delta).Scan(&votes)
	return votes, err
}

func (s *Store) SetLocked(ctx context.Context, uuid string, locked bool) error {
	_, err := s.q.Exec(ctx, `UPDATE segments SET locked = $2 WHERE uuid = $1`, uuid, locked)
	return err
}

func (s *Store) SetHidden(ctx context.Context, uuid string, hidden bool) error {
	_, err := s.q.Exec(ctx, `UPDATE segments SET hidden = $2 WHERE uuid = $1`, uuid, hidden)
	return err
}

// SetHiddenBatch flips visibility for a group of segments in one statement,
// so readers never observe a partially-applied drift event.
func (s *Store) SetHiddenBatch(ctx context.Context, uuids []string, hidden bool) error {
	if len(uuids) == 0 {
		return nil
	}
	_, err := s.q.Exec(ctx, `UPDATE segments SET hidden = $2 WHERE uuid = ANY($1)`, uuids, hidden)
	return err
}

func (s *Store) SetCategory(ctx context.Context, uuid, category string) error {
	_, err := s.q.Exec(ctx, `UPDATE segments SET category = $2 WHERE uuid = $1`, uuid, category)
	return err
}

func (s *Store) SetVideoDuration(ctx context.Context, uuid string, duration float64) error {
	_, err := s.q.Exec(ctx, `UPDATE segments SET video_duration = $2 WHERE uuid = $1`, uuid, duration)
	return err
}

func (s *Store) GetCategoryTallies(ctx context.Context, uuid string) ([]model.CategoryTally, error) {
	rows, err := s.q.Query(ctx, `
		SELECT uuid, category, votes FROM category_votes
		WHERE uuid = $1
		ORDER BY category`,
		uuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tallies []model.CategoryTally
	for rows.Next() {
		var t model.CategoryTally
		if err := rows.Scan(&t.UUID, &t.Category, &t.Votes); err != nil {
			return nil, err
		}
		tallies = append(tallies, t)
	}
	return tallies, rows.Err()
}

// AddCategoryTally creates the (UUID, category) row lazily and accumulates
// the signed weight.
func (s *Store) AddCategoryTally(ctx context.Context, uuid, category string, delta float64) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO category_votes (uuid, category, votes)
		VALUES ($1, $2, $3)
		ON CONFLICT (uuid, category) DO UPDATE
		SET votes = category_votes.votes + EXCLUDED.votes`,
		uuid, category, delta)
	return err
}

// HasQualifyingSubmission reports whether the user has an alive, non-hidden
// submission on the video. An empty category matches any category.
func (s *Store) HasQualifyingSubmission(ctx context.Context, userID, videoID, category string, deadThreshold int) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM segments
			WHERE submitter_id = $1 AND video_id = $2
			  AND ($3 = '' OR category = $3)
			  AND votes > $4 AND hidden = false AND shadow_hidden = false)`,
		userID, videoID, category, deadThreshold).Scan(&exists)
	return exists, err
}
