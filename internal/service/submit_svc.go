package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/openskip/openskip-go/internal/config"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/store"
)

// SubmitService accepts new segment candidates. Submissions from
// shadow-banned identities are stored shadow-hidden: the submitter sees them
// in their own listings, nobody else ever does.
type SubmitService struct {
	store  store.Store
	trust  store.TrustClassifier
	cache  store.CacheInvalidator
	policy config.Policy
}

func NewSubmitService(st store.Store, trust store.TrustClassifier,
	cache store.CacheInvalidator, policy config.Policy) *SubmitService {
	return &SubmitService{store: st, trust: trust, cache: cache, policy: policy}
}

// Submit stores one new candidate and returns its minted UUID.
func (s *SubmitService) Submit(ctx context.Context, req model.SubmitRequest, userID, ipHash string) (*model.SubmitResponse, error) {
	if !model.ValidCategories[req.Category] {
		return nil, ErrInvalidCategory
	}
	actionType := req.ActionType
	if actionType == "" {
		actionType = model.ActionSkip
	}
	if !model.ValidActionTypes[actionType] {
		return nil, ErrInvalidCategory
	}
	// Structural pairings are fixed: chapters are chapters, highlights are
	// points.
	if (actionType == model.ActionChapter) != (req.Category == model.CategoryChapter) {
		return nil, ErrInvalidCategory
	}
	if req.Category == model.CategoryHighlight && actionType != model.ActionPOI {
		return nil, ErrInvalidCategory
	}

	if req.StartTime < 0 || req.EndTime < req.StartTime {
		return nil, ErrInvalidSegmentTimes
	}
	if actionType != model.ActionFull && actionType != model.ActionPOI && req.EndTime == req.StartTime {
		return nil, ErrInvalidSegmentTimes
	}

	exists, err := s.store.SegmentExists(ctx, req.VideoID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil, ErrDuplicateSegment
	}

	count, err := s.store.CountUserSegments(ctx, req.VideoID, userID)
	if err != nil {
		return nil, fmt.Errorf("count submissions: %w", err)
	}
	if count >= s.policy.MaxSegmentsPerVideoUser {
		return nil, ErrSubmissionLimit
	}

	trust, err := s.trust.Classify(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("classify submitter: %w", err)
	}
	if trust.ActiveWarnings >= s.policy.MaxActiveWarnings {
		return nil, ErrVoteRestricted
	}

	seg := model.Segment{
		UUID:          uuid.NewString(),
		VideoID:       req.VideoID,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		Votes:         0,
		Category:      req.Category,
		ActionType:    actionType,
		SubmitterID:   userID,
		Locked:        trust.IsVIP,
		ShadowHidden:  trust.IsShadowBanned,
		VideoDuration: req.VideoDuration,
		TimeSubmitted: time.Now().UnixMilli(),
	}

	if err := s.store.InsertSegment(ctx, seg, ipHash); err != nil {
		return nil, fmt.Errorf("insert segment: %w", err)
	}
	if err := s.store.TouchUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("touch user: %w", err)
	}

	if !seg.ShadowHidden {
		s.cache.InvalidateSegments(ctx, req.VideoID)
	}

	log.Info().Str("uuid", seg.UUID).Str("videoID", req.VideoID).
		Str("category", seg.Category).Str("actionType", seg.ActionType).
		Msg("segment submitted")

	return &model.SubmitResponse{UUID: seg.UUID}, nil
}
