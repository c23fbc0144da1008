package service

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/openskip/openskip-go/internal/config"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/store"
)

// VoteService applies a single vote to a segment, enforcing the trust and
// anti-abuse gates and triggering the resulting state transitions. Most gate
// rejections intentionally resolve as successful no-ops: the caller gets
// success, the score does not move, and the abuser learns nothing about
// which rule fired.
type VoteService struct {
	store    store.Store
	trust    store.TrustClassifier
	locks    store.LockRegistry
	cache    store.CacheInvalidator
	category *CategoryService
	policy   config.Policy
}

func NewVoteService(st store.Store, trust store.TrustClassifier, locks store.LockRegistry,
	cache store.CacheInvalidator, category *CategoryService, policy config.Policy) *VoteService {
	return &VoteService{
		store:    st,
		trust:    trust,
		locks:    locks,
		cache:    cache,
		category: category,
		policy:   policy,
	}
}

// ApplyVote processes one vote request. req.Category set means a category
// vote; otherwise req.Type must be one of the recognized numeric kinds.
func (s *VoteService) ApplyVote(ctx context.Context, req model.VoteRequest, ipHash string) error {
	if req.Category == "" {
		if req.Type == nil {
			return ErrInvalidVoteType
		}
		switch *req.Type {
		case model.VoteUp, model.VoteDown, model.VoteUndo, model.VoteMalicious:
		default:
			return ErrInvalidVoteType
		}
	}

	seg, err := s.store.GetSegment(ctx, req.UUID)
	if err != nil {
		return fmt.Errorf("get segment: %w", err)
	}
	if seg == nil {
		return ErrSegmentNotFound
	}

	trust, err := s.trust.Classify(ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("classify voter: %w", err)
	}

	// Warning gate: the only rejection surfaced as an error, so clients can
	// show "account restricted".
	if trust.ActiveWarnings >= s.policy.MaxActiveWarnings {
		return ErrVoteRestricted
	}

	if err := s.store.TouchUser(ctx, trust.UserID); err != nil {
		return fmt.Errorf("touch user: %w", err)
	}

	if req.Category != "" {
		return s.category.CastVote(ctx, seg, trust, req.Category, ipHash)
	}

	// Shadow-ban gate: accepted, zero effect, no audit record. The ban must
	// not be observable from the response.
	if trust.IsShadowBanned {
		return nil
	}

	switch *req.Type {
	case model.VoteUndo:
		return s.undoVote(ctx, seg, trust, ipHash)
	case model.VoteMalicious:
		return s.maliciousVote(ctx, seg, trust, ipHash)
	default:
		return s.scoreVote(ctx, seg, trust, *req.Type, req.VideoDuration, ipHash)
	}
}

func (s *VoteService) scoreVote(ctx context.Context, seg *model.Segment, trust model.Trust,
	voteType int, observedDuration float64, ipHash string) error {

	isUp := voteType == model.VoteUp
	isOwner := seg.SubmitterID == trust.UserID
	dead := seg.Votes <= s.policy.DeadVoteThreshold

	// Dead segments can only be revived by a VIP; everyone else gets a
	// silent no-op in both directions.
	if dead && !trust.IsVIP {
		return nil
	}

	weightZero := false

	// Categories with stricter trust requirements: votes only count from
	// identities with a qualifying alive submission of the same category on
	// this video.
	if !trust.IsVIP && !isOwner && s.policy.TrustRequired(seg.Category) {
		qualified, err := s.store.HasQualifyingSubmission(ctx, trust.UserID, seg.VideoID,
			seg.Category, s.policy.DeadVoteThreshold)
		if err != nil {
			return fmt.Errorf("check prior submission: %w", err)
		}
		if !qualified {
			weightZero = true
		}
	}

	// Locked segments and locked (video, category, actionType) tuples stop
	// non-VIP downvotes.
	if !isUp && !trust.IsVIP && !weightZero {
		if seg.Locked {
			weightZero = true
		} else {
			locked, err := s.locks.IsLocked(ctx, seg.VideoID, seg.Category, seg.ActionType)
			if err != nil {
				return fmt.Errorf("check lock registry: %w", err)
			}
			if locked {
				weightZero = true
			}
		}
	}

	// A second identity downvoting from the same network origin is recorded
	// for audit but does not move the score again.
	if !isUp && !weightZero {
		dup, err := s.store.HasOtherIPDownvote(ctx, seg.UUID, ipHash, trust.UserID)
		if err != nil {
			return fmt.Errorf("check duplicate origin: %w", err)
		}
		if dup {
			weightZero = true
		}
	}

	var delta int
	switch {
	case weightZero:
		delta = 0
	case trust.IsVIP && isUp:
		delta = s.policy.VIPVoteDelta
	case trust.IsVIP:
		delta = -s.policy.VIPVoteDelta
	case isUp:
		delta = 1
	case isOwner:
		// Submitters may kill their own segment outright.
		delta = s.policy.DeadVoteThreshold - seg.Votes
		if delta > -1 {
			delta = -1
		}
	default:
		delta = -1
	}

	changed := false
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		prior, err := tx.GetVote(ctx, seg.UUID, trust.UserID, model.AuditKindScore)
		if err != nil {
			return err
		}

		if weightZero {
			// Audit-only: never disturb a previously counted contribution.
			if prior == nil {
				return tx.UpsertVote(ctx, model.AuditVote{
					UUID: seg.UUID, UserID: trust.UserID,
					Kind: model.AuditKindScore, Type: voteType,
					Weight: 0, IPHash: ipHash,
				})
			}
			return nil
		}

		// A superseding vote by the same identity replaces its previous
		// contribution instead of stacking on top of it.
		applied := delta
		priorWeight := 0
		if prior != nil {
			priorWeight = int(prior.Weight)
			applied = delta - priorWeight
		}

		// An unprivileged downvote never lands the score below the dead
		// threshold, even when retracting the voter's own prior upvote
		// doubles the swing. Owners, VIPs and voters with a qualifying
		// submission on the video are exempt.
		if applied < 0 && !trust.IsVIP && !isOwner {
			if floor := s.policy.DeadVoteThreshold - seg.Votes; applied < floor {
				qualified, err := tx.HasQualifyingSubmission(ctx, trust.UserID, seg.VideoID,
					seg.Category, s.policy.DeadVoteThreshold)
				if err != nil {
					return err
				}
				if !qualified {
					applied = floor
				}
			}
		}

		newVotes := seg.Votes
		if applied != 0 {
			newVotes, err = tx.UpdateVotes(ctx, seg.UUID, applied)
			if err != nil {
				return err
			}
			changed = true
		}

		if trust.IsVIP {
			if err := s.applyVIPTransitions(ctx, tx, seg, isUp, newVotes, observedDuration, &changed); err != nil {
				return err
			}
		}

		if !isUp && applied != 0 {
			if err := s.hideDriftedSegments(ctx, tx, seg, observedDuration, &changed); err != nil {
				return err
			}
		}

		// Weight is the net score contribution this identity now holds, so
		// an undo reverses exactly what was applied. When the clamp bit,
		// that is less than the nominal delta.
		return tx.UpsertVote(ctx, model.AuditVote{
			UUID: seg.UUID, UserID: trust.UserID,
			Kind: model.AuditKindScore, Type: voteType,
			Weight: float64(priorWeight + applied), IPHash: ipHash,
		})
	})
	if err != nil {
		return err
	}

	if changed {
		s.invalidate(ctx, seg)
	}
	return nil
}

// applyVIPTransitions handles the lock/unhide/duration side effects only
// VIP votes can trigger. Upvotes lock, unhide, and refresh a drifted stored
// duration; downvotes unlock, and a downvote that leaves the segment dead
// clears hidden (death and hiding are orthogonal states).
func (s *VoteService) applyVIPTransitions(ctx context.Context, tx store.Store, seg *model.Segment,
	isUp bool, newVotes int, observedDuration float64, changed *bool) error {

	if isUp {
		if !seg.Locked {
			if err := tx.SetLocked(ctx, seg.UUID, true); err != nil {
				return err
			}
			*changed = true
		}
		if seg.Hidden {
			if err := tx.SetHidden(ctx, seg.UUID, false); err != nil {
				return err
			}
			*changed = true
		}
		if observedDuration > 0 &&
			math.Abs(observedDuration-seg.VideoDuration) > s.policy.DurationDriftTolerance {
			if err := tx.SetVideoDuration(ctx, seg.UUID, observedDuration); err != nil {
				return err
			}
			*changed = true
		}
		return nil
	}

	if seg.Locked {
		if err := tx.SetLocked(ctx, seg.UUID, false); err != nil {
			return err
		}
		*changed = true
	}
	if newVotes <= s.policy.DeadVoteThreshold && seg.Hidden {
		if err := tx.SetHidden(ctx, seg.UUID, false); err != nil {
			return err
		}
		*changed = true
	}
	return nil
}

// hideDriftedSegments is the batch side effect of a downvote cast with a
// freshly observed video duration: every other visible segment computed
// against a stale duration gets hidden, since the video was likely edited or
// re-encoded underneath them. Applied inside the vote's transaction so
// readers never see a partially-hidden drift event.
func (s *VoteService) hideDriftedSegments(ctx context.Context, tx store.Store, seg *model.Segment,
	observedDuration float64, changed *bool) error {

	tol := s.policy.DurationDriftTolerance
	if observedDuration <= 0 || math.Abs(observedDuration-seg.VideoDuration) <= tol {
		return nil
	}

	all, err := tx.GetAllSegmentsForVideo(ctx, seg.VideoID)
	if err != nil {
		return err
	}

	var stale []string
	for _, other := range all {
		if other.UUID == seg.UUID || other.Hidden {
			continue
		}
		if math.Abs(other.VideoDuration-observedDuration) > tol {
			stale = append(stale, other.UUID)
		}
	}
	if len(stale) == 0 {
		return nil
	}
	if err := tx.SetHiddenBatch(ctx, stale, true); err != nil {
		return err
	}
	log.Info().Str("videoID", seg.VideoID).Int("count", len(stale)).
		Msg("hid segments with stale video duration")
	*changed = true
	return nil
}

// undoVote reverses this identity's own prior contribution back to neutral.
// Undoing with no live contribution is a no-op, so vote-then-undo is exactly
// idempotent.
func (s *VoteService) undoVote(ctx context.Context, seg *model.Segment, trust model.Trust, ipHash string) error {
	changed := false
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		prior, err := tx.GetVote(ctx, seg.UUID, trust.UserID, model.AuditKindScore)
		if err != nil {
			return err
		}
		if prior == nil || prior.Weight == 0 {
			return nil
		}
		if _, err := tx.UpdateVotes(ctx, seg.UUID, -int(prior.Weight)); err != nil {
			return err
		}
		changed = true
		return tx.UpsertVote(ctx, model.AuditVote{
			UUID: seg.UUID, UserID: trust.UserID,
			Kind: model.AuditKindScore, Type: model.VoteUndo,
			Weight: 0, IPHash: ipHash,
		})
	})
	if err != nil {
		return err
	}
	if changed {
		s.invalidate(ctx, seg)
	}
	return nil
}

// maliciousVote is chapter-specific tooling: a strong downvote that drives
// the segment straight to the dead threshold. Non-VIPs may only use it on
// chapter segments they submitted or where they have a qualifying chapter
// submission on the video; everything else resolves as a silent no-op.
func (s *VoteService) maliciousVote(ctx context.Context, seg *model.Segment, trust model.Trust, ipHash string) error {
	if !trust.IsVIP {
		if seg.ActionType != model.ActionChapter {
			return nil
		}
		if seg.SubmitterID != trust.UserID {
			qualified, err := s.store.HasQualifyingSubmission(ctx, trust.UserID, seg.VideoID,
				model.CategoryChapter, s.policy.DeadVoteThreshold)
			if err != nil {
				return fmt.Errorf("check prior submission: %w", err)
			}
			if !qualified {
				return nil
			}
		}
	}

	if seg.Votes <= s.policy.DeadVoteThreshold {
		return nil
	}
	delta := s.policy.DeadVoteThreshold - seg.Votes

	err := s.store.Atomic(ctx, func(tx store.Store) error {
		if _, err := tx.UpdateVotes(ctx, seg.UUID, delta); err != nil {
			return err
		}
		return tx.UpsertVote(ctx, model.AuditVote{
			UUID: seg.UUID, UserID: trust.UserID,
			Kind: model.AuditKindScore, Type: model.VoteMalicious,
			Weight: float64(delta), IPHash: ipHash,
		})
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, seg)
	return nil
}

func (s *VoteService) invalidate(ctx context.Context, seg *model.Segment) {
	s.cache.InvalidateSegments(ctx, seg.VideoID)
	s.cache.InvalidateSegment(ctx, seg.UUID)
}
