package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/store"
)

// fakeStore is an in-memory store.Store for service tests. Atomic applies
// the closure directly; transactional rollback is the repository's concern,
// not the engine's.
type fakeStore struct {
	segments map[string]*model.Segment
	votes    map[string]*model.AuditVote
	tallies  map[string]map[string]float64
	touched  map[string]int
}

var _ store.Store = (*fakeStore)(nil)

func newFakeStore(segments ...model.Segment) *fakeStore {
	s := &fakeStore{
		segments: make(map[string]*model.Segment),
		votes:    make(map[string]*model.AuditVote),
		tallies:  make(map[string]map[string]float64),
		touched:  make(map[string]int),
	}
	for i := range segments {
		seg := segments[i]
		s.segments[seg.UUID] = &seg
	}
	return s
}

func voteKey(uuid, userID, kind string) string {
	return uuid + "|" + userID + "|" + kind
}

func (s *fakeStore) GetSegmentsForVideo(_ context.Context, videoID string, deadThreshold int) ([]model.Segment, error) {
	var out []model.Segment
	for _, seg := range s.segments {
		if seg.VideoID == videoID && seg.Votes > deadThreshold && !seg.Hidden && !seg.ShadowHidden {
			out = append(out, *seg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].UUID < out[j].UUID
	})
	return out, nil
}

func (s *fakeStore) GetAllSegmentsForVideo(_ context.Context, videoID string) ([]model.Segment, error) {
	var out []model.Segment
	for _, seg := range s.segments {
		if seg.VideoID == videoID {
			out = append(out, *seg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })
	return out, nil
}

func (s *fakeStore) GetSegment(_ context.Context, uuid string) (*model.Segment, error) {
	seg, ok := s.segments[uuid]
	if !ok {
		return nil, nil
	}
	cp := *seg
	return &cp, nil
}

func (s *fakeStore) InsertSegment(_ context.Context, seg model.Segment, _ string) error {
	if _, ok := s.segments[seg.UUID]; ok {
		return fmt.Errorf("duplicate uuid %s", seg.UUID)
	}
	s.segments[seg.UUID] = &seg
	return nil
}

func (s *fakeStore) CountUserSegments(_ context.Context, videoID, userID string) (int, error) {
	n := 0
	for _, seg := range s.segments {
		if seg.VideoID == videoID && seg.SubmitterID == userID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) SegmentExists(_ context.Context, videoID string, start, end float64) (bool, error) {
	for _, seg := range s.segments {
		if seg.VideoID == videoID && seg.StartTime == start && seg.EndTime == end {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) FindVideoIDsByHashPrefix(_ context.Context, _ string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, seg := range s.segments {
		if !seen[seg.VideoID] {
			seen[seg.VideoID] = true
			out = append(out, seg.VideoID)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeStore) UpdateVotes(_ context.Context, uuid string, delta int) (int, error) {
	seg, ok := s.segments[uuid]
	if !ok {
		return 0, fmt.Errorf("unknown uuid %s", uuid)
	}
	seg.Votes += delta
	return seg.Votes, nil
}

func (s *fakeStore) SetLocked(_ context.Context, uuid string, locked bool) error {
	s.segments[uuid].Locked = locked
	return nil
}

func (s *fakeStore) SetHidden(_ context.Context, uuid string, hidden bool) error {
	s.segments[uuid].Hidden = hidden
	return nil
}

func (s *fakeStore) SetHiddenBatch(_ context.Context, uuids []string, hidden bool) error {
	for _, u := range uuids {
		s.segments[u].Hidden = hidden
	}
	return nil
}

func (s *fakeStore) SetCategory(_ context.Context, uuid, category string) error {
	s.segments[uuid].Category = category
	return nil
}

func (s *fakeStore) SetVideoDuration(_ context.Context, uuid string, duration float64) error {
	s.segments[uuid].VideoDuration = duration
	return nil
}

func (s *fakeStore) GetCategoryTallies(_ context.Context, uuid string) ([]model.CategoryTally, error) {
	cats := s.tallies[uuid]
	var out []model.CategoryTally
	for cat, votes := range cats {
		out = append(out, model.CategoryTally{UUID: uuid, Category: cat, Votes: votes})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

func (s *fakeStore) AddCategoryTally(_ context.Context, uuid, category string, delta float64) error {
	if s.tallies[uuid] == nil {
		s.tallies[uuid] = make(map[string]float64)
	}
	s.tallies[uuid][category] += delta
	return nil
}

func (s *fakeStore) HasQualifyingSubmission(_ context.Context, userID, videoID, category string, deadThreshold int) (bool, error) {
	for _, seg := range s.segments {
		if seg.SubmitterID != userID || seg.VideoID != videoID {
			continue
		}
		if category != "" && seg.Category != category {
			continue
		}
		if seg.Votes > deadThreshold && !seg.Hidden && !seg.ShadowHidden {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) TouchUser(_ context.Context, userID string) error {
	s.touched[userID]++
	return nil
}

func (s *fakeStore) UpsertVote(_ context.Context, rec model.AuditVote) error {
	rec.UpdatedAt = time.Now()
	s.votes[voteKey(rec.UUID, rec.UserID, rec.Kind)] = &rec
	return nil
}

func (s *fakeStore) GetVote(_ context.Context, uuid, userID, kind string) (*model.AuditVote, error) {
	v, ok := s.votes[voteKey(uuid, userID, kind)]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *fakeStore) HasOtherIPDownvote(_ context.Context, uuid, ipHash, userID string) (bool, error) {
	for _, v := range s.votes {
		if v.UUID == uuid && v.Kind == model.AuditKindScore &&
			v.Type == model.VoteDown && v.IPHash == ipHash && v.UserID != userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Atomic(ctx context.Context, fn func(store.Store) error) error {
	return fn(s)
}

// fakeTrust classifies from a fixed table; unknown identities get the
// anonymous default.
type fakeTrust struct {
	users map[string]model.Trust
}

func (f *fakeTrust) Classify(_ context.Context, userID string) (model.Trust, error) {
	if t, ok := f.users[userID]; ok {
		t.UserID = userID
		return t, nil
	}
	return model.Trust{UserID: userID}, nil
}

// fakeLocks answers from a fixed lock table keyed video|category|actionType.
type fakeLocks struct {
	locked map[string]bool
}

func (f *fakeLocks) IsLocked(_ context.Context, videoID, category, actionType string) (bool, error) {
	return f.locked[videoID+"|"+category+"|"+actionType], nil
}

// fakeCache counts invalidations.
type fakeCache struct {
	segmentLists int
	segments     int
}

func (f *fakeCache) InvalidateSegments(context.Context, string) { f.segmentLists++ }
func (f *fakeCache) InvalidateSegment(context.Context, string)  { f.segments++ }
