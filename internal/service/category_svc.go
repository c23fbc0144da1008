package service

import (
	"context"
	"fmt"

	"github.com/openskip/openskip-go/internal/config"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/store"
)

// CategoryService runs the per-segment category consensus: weighted tallies
// per candidate category, with the displayed category flipping once a
// candidate earns a supermajority, or immediately for a VIP or the
// submitter.
type CategoryService struct {
	store  store.Store
	locks  store.LockRegistry
	cache  store.CacheInvalidator
	policy config.Policy
}

func NewCategoryService(st store.Store, locks store.LockRegistry,
	cache store.CacheInvalidator, policy config.Policy) *CategoryService {
	return &CategoryService{store: st, locks: locks, cache: cache, policy: policy}
}

// CastVote applies one category vote proposing candidate for seg. The caller
// has already resolved the segment and classified the voter; warnings are
// gated upstream.
func (s *CategoryService) CastVote(ctx context.Context, seg *model.Segment, trust model.Trust,
	candidate, ipHash string) error {

	if !model.VoteableCategories[candidate] {
		return ErrInvalidCategory
	}
	// Structural segments keep their category for life.
	if seg.ActionType == model.ActionFull || seg.ActionType == model.ActionChapter ||
		!model.VoteableCategories[seg.Category] {
		return ErrInvalidCategory
	}
	if candidate == seg.Category {
		return nil
	}

	// Shadow-banned voters get the usual silent treatment: accepted, no
	// tally movement, no audit record.
	if trust.IsShadowBanned {
		return nil
	}

	isOwner := seg.SubmitterID == trust.UserID

	// Non-VIPs cannot move a segment out of or into a locked category, nor
	// recategorize a locked segment. Their vote still lands in the tally
	// and the audit record; only the flip is suppressed.
	lockBlocked := false
	if !trust.IsVIP {
		if seg.Locked {
			lockBlocked = true
		} else {
			for _, cat := range []string{seg.Category, candidate} {
				locked, err := s.locks.IsLocked(ctx, seg.VideoID, cat, seg.ActionType)
				if err != nil {
					return fmt.Errorf("check lock registry: %w", err)
				}
				if locked {
					lockBlocked = true
					break
				}
			}
		}
	}

	weight := CategoryVoteWeight(trust)

	flipped := false
	err := s.store.Atomic(ctx, func(tx store.Store) error {
		tallies, err := tx.GetCategoryTallies(ctx, seg.UUID)
		if err != nil {
			return err
		}

		// First category vote on this segment seeds the incumbent with a
		// single implicit vote, so a lone challenger cannot flip it with
		// weight 1.
		if len(tallies) == 0 {
			if err := tx.AddCategoryTally(ctx, seg.UUID, seg.Category, 1); err != nil {
				return err
			}
			tallies = append(tallies, model.CategoryTally{
				UUID: seg.UUID, Category: seg.Category, Votes: 1,
			})
		}

		// Supersede: retract this identity's previous candidate before
		// counting the new one.
		prior, err := tx.GetVote(ctx, seg.UUID, trust.UserID, model.AuditKindCategory)
		if err != nil {
			return err
		}
		if prior != nil && prior.Weight > 0 && prior.Category != "" {
			if err := tx.AddCategoryTally(ctx, seg.UUID, prior.Category, -prior.Weight); err != nil {
				return err
			}
			for i := range tallies {
				if tallies[i].Category == prior.Category {
					tallies[i].Votes -= prior.Weight
				}
			}
		}

		if err := tx.AddCategoryTally(ctx, seg.UUID, candidate, weight); err != nil {
			return err
		}

		var candidateVotes, total float64
		found := false
		for i := range tallies {
			if tallies[i].Category == candidate {
				tallies[i].Votes += weight
				found = true
			}
			total += tallies[i].Votes
		}
		if !found {
			total += weight
		}
		for _, t := range tallies {
			if t.Category == candidate {
				candidateVotes = t.Votes
			}
		}
		if !found {
			candidateVotes = weight
		}

		switch {
		case lockBlocked:
		case trust.IsVIP, isOwner:
			flipped = true
		case total > 0 && candidateVotes/total >= s.policy.CategoryMajorityRatio:
			flipped = true
		}

		if flipped {
			if err := tx.SetCategory(ctx, seg.UUID, candidate); err != nil {
				return err
			}
		}

		return tx.UpsertVote(ctx, model.AuditVote{
			UUID: seg.UUID, UserID: trust.UserID,
			Kind: model.AuditKindCategory, Type: model.VoteCategory,
			Weight: weight, Category: candidate, IPHash: ipHash,
		})
	})
	if err != nil {
		return err
	}

	if flipped {
		s.cache.InvalidateSegments(ctx, seg.VideoID)
		s.cache.InvalidateSegment(ctx, seg.UUID)
	}
	return nil
}
