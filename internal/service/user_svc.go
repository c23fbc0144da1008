package service

import (
	"context"
	"fmt"
	"time"

	"github.com/openskip/openskip-go/internal/config"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/repository"
)

// UserService serves the public identity and statistics reads.
type UserService struct {
	store  *repository.Store
	trust  *repository.TrustRepo
	policy config.Policy
}

func NewUserService(st *repository.Store, trust *repository.TrustRepo, policy config.Policy) *UserService {
	return &UserService{store: st, trust: trust, policy: policy}
}

// Lookup returns the public profile for a hashed user ID. Unknown identities
// get a zeroed profile rather than a 404: the ID space is opaque, so
// existence itself is not disclosed.
func (s *UserService) Lookup(ctx context.Context, userID string) (*model.UserResponse, error) {
	resp := model.UserResponse{UserID: userID}

	u, err := s.trust.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u != nil {
		resp.Reputation = u.Reputation
		resp.IsVIP = u.IsVIP
		resp.AccountAge = int(time.Since(u.FirstSeen).Hours() / 24)
	}

	resp.SegmentCount, err = s.store.UserSegmentCount(ctx, userID, s.policy.DeadVoteThreshold)
	if err != nil {
		return nil, fmt.Errorf("count segments: %w", err)
	}
	resp.VoteCount, err = s.store.UserVoteCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	return &resp, nil
}

// Stats returns the global service statistics.
func (s *UserService) Stats(ctx context.Context) (*model.StatsResponse, error) {
	return s.store.GetStats(ctx)
}

// Export returns every eligible segment for the public dataset dump.
func (s *UserService) Export(ctx context.Context) ([]model.Segment, error) {
	return s.store.ExportSegments(ctx, s.policy.DeadVoteThreshold)
}
