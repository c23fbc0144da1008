package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openskip/openskip-go/internal/model"
)

type submitEnv struct {
	store *fakeStore
	trust *fakeTrust
	cache *fakeCache
	svc   *SubmitService
}

func newSubmitEnv(t *testing.T, segments ...model.Segment) *submitEnv {
	t.Helper()
	st := newFakeStore(segments...)
	trust := &fakeTrust{users: make(map[string]model.Trust)}
	cache := &fakeCache{}
	return &submitEnv{
		store: st,
		trust: trust,
		cache: cache,
		svc:   NewSubmitService(st, trust, cache, testPolicy()),
	}
}

func submitReq(videoID string, start, end float64) model.SubmitRequest {
	return model.SubmitRequest{
		VideoID:   videoID,
		StartTime: start,
		EndTime:   end,
		Category:  model.CategorySponsor,
	}
}

func TestSubmit_StoresSegment(t *testing.T) {
	env := newSubmitEnv(t)

	resp, err := env.svc.Submit(context.Background(), submitReq("vid1", 10, 20), "alice", "ip-a")
	require.NoError(t, err)
	require.NotEmpty(t, resp.UUID)

	seg, _ := env.store.GetSegment(context.Background(), resp.UUID)
	require.NotNil(t, seg)
	require.Equal(t, "alice", seg.SubmitterID)
	require.Equal(t, model.ActionSkip, seg.ActionType)
	require.Equal(t, 0, seg.Votes)
	require.False(t, seg.ShadowHidden)
	require.Equal(t, 1, env.cache.segmentLists)
	require.Equal(t, 1, env.store.touched["alice"])
}

func TestSubmit_DuplicateRejected(t *testing.T) {
	existing := skipSegment("seg1", "vid1", 0)
	env := newSubmitEnv(t, existing)

	_, err := env.svc.Submit(context.Background(), submitReq("vid1", existing.StartTime, existing.EndTime), "alice", "ip-a")
	require.ErrorIs(t, err, ErrDuplicateSegment)
}

func TestSubmit_PerVideoCap(t *testing.T) {
	env := newSubmitEnv(t)
	ctx := context.Background()

	for i := range 4 {
		_, err := env.svc.Submit(ctx, submitReq("vid1", float64(i*30), float64(i*30+10)), "alice", "ip-a")
		require.NoError(t, err)
	}

	_, err := env.svc.Submit(ctx, submitReq("vid1", 200, 210), "alice", "ip-a")
	require.ErrorIs(t, err, ErrSubmissionLimit)

	// The cap is per (video, user): another video is fine.
	_, err = env.svc.Submit(ctx, submitReq("vid2", 10, 20), "alice", "ip-a")
	require.NoError(t, err)
}

func TestSubmit_InvalidCategoryAndAction(t *testing.T) {
	env := newSubmitEnv(t)
	ctx := context.Background()

	req := submitReq("vid1", 10, 20)
	req.Category = "bogus"
	_, err := env.svc.Submit(ctx, req, "alice", "ip-a")
	require.ErrorIs(t, err, ErrInvalidCategory)

	// Chapter category without the chapter actionType, and vice versa.
	req = submitReq("vid1", 10, 20)
	req.Category = model.CategoryChapter
	_, err = env.svc.Submit(ctx, req, "alice", "ip-a")
	require.ErrorIs(t, err, ErrInvalidCategory)

	req = submitReq("vid1", 10, 20)
	req.ActionType = model.ActionChapter
	_, err = env.svc.Submit(ctx, req, "alice", "ip-a")
	require.ErrorIs(t, err, ErrInvalidCategory)
}

func TestSubmit_InvalidTimes(t *testing.T) {
	env := newSubmitEnv(t)
	ctx := context.Background()

	_, err := env.svc.Submit(ctx, submitReq("vid1", 20, 10), "alice", "ip-a")
	require.ErrorIs(t, err, ErrInvalidSegmentTimes)

	_, err = env.svc.Submit(ctx, submitReq("vid1", -1, 10), "alice", "ip-a")
	require.ErrorIs(t, err, ErrInvalidSegmentTimes)

	// Zero-length skips are meaningless; zero-length POIs are the format.
	_, err = env.svc.Submit(ctx, submitReq("vid1", 10, 10), "alice", "ip-a")
	require.ErrorIs(t, err, ErrInvalidSegmentTimes)

	poi := submitReq("vid1", 10, 10)
	poi.Category = model.CategoryHighlight
	poi.ActionType = model.ActionPOI
	_, err = env.svc.Submit(ctx, poi, "alice", "ip-a")
	require.NoError(t, err)
}

func TestSubmit_ShadowBannedStoredHidden(t *testing.T) {
	env := newSubmitEnv(t)
	env.trust.users["alice"] = model.Trust{IsShadowBanned: true}

	resp, err := env.svc.Submit(context.Background(), submitReq("vid1", 10, 20), "alice", "ip-a")
	require.NoError(t, err)

	seg, _ := env.store.GetSegment(context.Background(), resp.UUID)
	require.True(t, seg.ShadowHidden)
	// Nothing visible changed, so the cache entry stays.
	require.Equal(t, 0, env.cache.segmentLists)
}

func TestSubmit_VIPSubmissionLocked(t *testing.T) {
	env := newSubmitEnv(t)
	env.trust.users["vip"] = model.Trust{IsVIP: true}

	resp, err := env.svc.Submit(context.Background(), submitReq("vid1", 10, 20), "vip", "ip-a")
	require.NoError(t, err)

	seg, _ := env.store.GetSegment(context.Background(), resp.UUID)
	require.True(t, seg.Locked)
}

func TestSubmit_ActiveWarningBlocks(t *testing.T) {
	env := newSubmitEnv(t)
	env.trust.users["alice"] = model.Trust{ActiveWarnings: 1}

	_, err := env.svc.Submit(context.Background(), submitReq("vid1", 10, 20), "alice", "ip-a")
	require.ErrorIs(t, err, ErrVoteRestricted)
}
