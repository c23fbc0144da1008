package service

import (
	"context"

	"github.com/openskip/openskip-go/internal/config"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/repository"
	"github.com/openskip/openskip-go/internal/store"
)

// TrustService folds the trust side tables into the single classification
// the consensus engine consumes. Identities with no user row classify as the
// anonymous default: not VIP, zero reputation, no ban, no warnings.
type TrustService struct {
	repo   *repository.TrustRepo
	policy config.Policy
}

var _ store.TrustClassifier = (*TrustService)(nil)

func NewTrustService(repo *repository.TrustRepo, policy config.Policy) *TrustService {
	return &TrustService{repo: repo, policy: policy}
}

func (s *TrustService) Classify(ctx context.Context, userID string) (model.Trust, error) {
	t := model.Trust{UserID: userID}

	u, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return t, err
	}
	if u != nil {
		t.IsVIP = u.IsVIP
		t.Reputation = u.Reputation
		t.IsShadowBanned = u.IsShadowBanned
	}

	warnings, err := s.repo.ActiveWarningCount(ctx, userID, s.policy.WarningExpiry)
	if err != nil {
		return t, err
	}
	t.ActiveWarnings = warnings
	return t, nil
}

// CategoryVoteWeight converts a classification into the weight one category
// vote carries in the tally. Reputation earned through accurate submissions
// buys a heavier vote, capped so no single identity dominates a tally.
func CategoryVoteWeight(t model.Trust) float64 {
	const maxReputationBonus = 4.0

	w := 1.0
	if t.Reputation > 0 {
		bonus := t.Reputation
		if bonus > maxReputationBonus {
			bonus = maxReputationBonus
		}
		w += bonus
	}
	return w
}
