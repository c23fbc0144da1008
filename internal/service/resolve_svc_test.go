package service

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openskip/openskip-go/internal/model"
)

// fixedRand replays a fixed sequence of draws.
type fixedRand struct {
	vals []float64
	i    int
}

func (f *fixedRand) Float64() float64 {
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v
}

func seg(uuid string, start, end float64, votes int) model.Segment {
	return model.Segment{
		UUID: uuid, VideoID: "vid1", StartTime: start, EndTime: end,
		Votes: votes, Category: model.CategorySponsor, ActionType: model.ActionSkip,
	}
}

func uuids(segments []model.Segment) []string {
	out := make([]string, 0, len(segments))
	for _, s := range segments {
		out = append(out, s.UUID)
	}
	return out
}

func TestReduce_NonOverlappingAllReturned(t *testing.T) {
	svc := NewResolveService(newFakeStore(), testPolicy())

	in := []model.Segment{
		seg("a", 0, 10, 5),
		seg("b", 20, 30, 3),
		seg("c", 40, 50, 0),
	}
	out := svc.Reduce(in)
	require.Equal(t, []string{"a", "b", "c"}, uuids(out))
}

func TestReduce_ContainedSegmentsGroupToOne(t *testing.T) {
	// b starts strictly inside a, so they describe the same real interval.
	in := []model.Segment{
		seg("a", 10, 20, 10),
		seg("b", 12, 18, 0),
	}

	// Draw 0 lands in the first cumulative bucket: the high-vote member.
	svc := NewResolveService(newFakeStore(), testPolicy()).WithRand(&fixedRand{vals: []float64{0}})
	out := svc.Reduce(in)
	require.Equal(t, []string{"a"}, uuids(out))

	// A draw near the top of the range lands past sqrt(10), on the floored
	// zero-vote member.
	svc = NewResolveService(newFakeStore(), testPolicy()).WithRand(&fixedRand{vals: []float64{0.99}})
	out = svc.Reduce(in)
	require.Equal(t, []string{"b"}, uuids(out))
}

func TestReduce_IdenticalBoundsDoNotGroup(t *testing.T) {
	// Containment is strict: equal start times never group, so two exact
	// duplicates both survive.
	svc := NewResolveService(newFakeStore(), testPolicy()).WithRand(&fixedRand{vals: []float64{0}})

	in := []model.Segment{
		seg("a", 1, 11, 2),
		seg("b", 1, 11, 2),
	}
	out := svc.Reduce(in)
	require.Equal(t, []string{"a", "b"}, uuids(out))
}

func TestReduce_TransitiveOverlapFormsOneGroup(t *testing.T) {
	svc := NewResolveService(newFakeStore(), testPolicy()).WithRand(&fixedRand{vals: []float64{0}})

	// a contains b's start, b contains c's start: all three are one
	// component even though a and c never touch.
	in := []model.Segment{
		seg("a", 0, 10, 9),
		seg("b", 5, 15, 1),
		seg("c", 12, 14, 1),
	}
	out := svc.Reduce(in)
	require.Len(t, out, 1)
	require.Equal(t, "a", out[0].UUID)
}

func TestReduce_FullVideoSegmentsExempt(t *testing.T) {
	svc := NewResolveService(newFakeStore(), testPolicy()).WithRand(&fixedRand{vals: []float64{0}})

	full := seg("full", 0, 0, 1)
	full.ActionType = model.ActionFull
	in := []model.Segment{
		full,
		seg("a", 10, 20, 10),
		seg("b", 12, 18, 0),
	}
	out := svc.Reduce(in)
	require.Equal(t, []string{"full", "a"}, uuids(out))
}

func TestReduce_ZeroVoteGroupStillPicksOne(t *testing.T) {
	policy := testPolicy()
	policy.MinSelectionWeight = 0
	svc := NewResolveService(newFakeStore(), policy).WithRand(&fixedRand{vals: []float64{0.5}})

	in := []model.Segment{
		seg("a", 10, 20, 0),
		seg("b", 12, 18, 0),
	}
	out := svc.Reduce(in)
	require.Len(t, out, 1)
}

func TestReduce_SelectionFrequencyFollowsVotes(t *testing.T) {
	in := []model.Segment{
		seg("a", 10, 20, 100),
		seg("b", 12, 18, 1),
	}

	rng := rand.New(rand.NewSource(1))
	counts := make(map[string]int)
	for range 400 {
		svc := NewResolveService(newFakeStore(), testPolicy()).WithRand(rng)
		out := svc.Reduce(in)
		require.Len(t, out, 1)
		counts[out[0].UUID]++
	}

	// sqrt(100)=10 vs sqrt(1)=1: the strong segment wins most draws but the
	// weak one keeps a real chance.
	require.Greater(t, counts["a"], counts["b"])
	require.Greater(t, counts["b"], 0)
}

func TestResolve_FiltersDeadAndHidden(t *testing.T) {
	alive := seg("alive", 0, 10, 0)
	dead := seg("dead", 20, 30, -2)
	hidden := seg("hidden", 40, 50, 5)
	hidden.Hidden = true
	shadow := seg("shadow", 60, 70, 5)
	shadow.ShadowHidden = true

	st := newFakeStore(alive, dead, hidden, shadow)
	svc := NewResolveService(st, testPolicy())

	out, err := svc.Resolve(context.Background(), "vid1")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "alive", out[0].UUID)
}

func TestResolveByHashPrefix_SkipsEmptyVideos(t *testing.T) {
	a := seg("a", 0, 10, 0)
	b := seg("b", 0, 10, -5)
	b.VideoID = "vid2"

	st := newFakeStore(a, b)
	svc := NewResolveService(st, testPolicy())

	out, err := svc.ResolveByHashPrefix(context.Background(), "abcd")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "vid1", out[0].VideoID)
}
