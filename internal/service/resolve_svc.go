package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/openskip/openskip-go/internal/config"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/store"
)

// RandSource supplies the uniform draw used for weighted selection. Tests
// inject fixed sequences to assert exact winners.
type RandSource interface {
	Float64() float64
}

type systemRand struct{}

func (systemRand) Float64() float64 { return rand.Float64() }

// ResolveService collapses the overlapping, duplicate segment candidates for
// a video into the subset actually shown to viewers.
type ResolveService struct {
	store  store.Store
	policy config.Policy
	rand   RandSource
}

func NewResolveService(st store.Store, policy config.Policy) *ResolveService {
	return &ResolveService{store: st, policy: policy, rand: systemRand{}}
}

// WithRand replaces the random source.
func (s *ResolveService) WithRand(r RandSource) *ResolveService {
	s.rand = r
	return s
}

// Resolve returns the viewer-facing segment set for one video. Dead and
// hidden segments are filtered at the store boundary, before grouping ever
// sees them. An empty result is not an error; the handler maps it to 404.
func (s *ResolveService) Resolve(ctx context.Context, videoID string) ([]model.SegmentResponse, error) {
	segments, err := s.store.GetSegmentsForVideo(ctx, videoID, s.policy.DeadVoteThreshold)
	if err != nil {
		return nil, fmt.Errorf("get segments: %w", err)
	}

	chosen := s.Reduce(segments)
	out := make([]model.SegmentResponse, 0, len(chosen))
	for _, seg := range chosen {
		out = append(out, model.SegmentResponse{
			UUID:       seg.UUID,
			StartTime:  seg.StartTime,
			EndTime:    seg.EndTime,
			Votes:      seg.Votes,
			Category:   seg.Category,
			ActionType: seg.ActionType,
			Locked:     seg.Locked,
		})
	}
	return out, nil
}

// ResolveByHashPrefix resolves every video whose SHA256(videoID) starts with
// prefix. Videos whose eligible set is empty are dropped from the response.
func (s *ResolveService) ResolveByHashPrefix(ctx context.Context, prefix string) ([]model.VideoSegmentsResponse, error) {
	videoIDs, err := s.store.FindVideoIDsByHashPrefix(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("find videos by prefix: %w", err)
	}

	out := make([]model.VideoSegmentsResponse, 0, len(videoIDs))
	for _, videoID := range videoIDs {
		segments, err := s.Resolve(ctx, videoID)
		if err != nil {
			return nil, err
		}
		if len(segments) == 0 {
			continue
		}
		out = append(out, model.VideoSegmentsResponse{
			VideoID:  videoID,
			Segments: segments,
		})
	}
	return out, nil
}

// Reduce deduplicates segments describing the same real-world interval:
// connected components are built over the containment relation, then one
// member per component is drawn with probability proportional to
// sqrt(votes). Low-vote alternatives keep a nonzero chance, so new
// submissions can still surface and accumulate votes. Segments spanning the
// full video never group. Output preserves input order.
func (s *ResolveService) Reduce(segments []model.Segment) []model.Segment {
	if len(segments) == 0 {
		return nil
	}

	uf := newUnionFind(len(segments))
	for i := range segments {
		if segments[i].ActionType == model.ActionFull {
			continue
		}
		for j := range segments {
			if i == j || segments[j].ActionType == model.ActionFull {
				continue
			}
			if contains(segments[i], segments[j]) {
				uf.union(i, j)
			}
		}
	}

	// Collect components in first-seen order so cumulative-weight buckets
	// are stable across runs with the same input and random sequence.
	groups := make(map[int][]int)
	var roots []int
	for i := range segments {
		if segments[i].ActionType == model.ActionFull {
			continue
		}
		r := uf.find(i)
		if _, seen := groups[r]; !seen {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}

	selected := make([]bool, len(segments))
	for i := range segments {
		if segments[i].ActionType == model.ActionFull {
			selected[i] = true
		}
	}
	for _, r := range roots {
		members := groups[r]
		if len(members) == 1 {
			selected[members[0]] = true
			continue
		}
		selected[s.pickWeighted(segments, members)] = true
	}

	out := make([]model.Segment, 0, len(segments))
	for i := range segments {
		if selected[i] {
			out = append(out, segments[i])
		}
	}
	return out
}

// contains reports whether j's start lies strictly inside i's interval.
// Deliberately asymmetric, and deliberately strict: two segments with
// identical bounds do not group. Viewer UIs assume these exact semantics.
func contains(i, j model.Segment) bool {
	return j.StartTime > i.StartTime && j.StartTime < i.EndTime
}

func (s *ResolveService) pickWeighted(segments []model.Segment, members []int) int {
	floor := s.policy.MinSelectionWeight
	weights := make([]float64, len(members))
	var total float64
	for k, idx := range members {
		w := math.Sqrt(math.Max(float64(segments[idx].Votes), 0))
		if w < floor {
			w = floor
		}
		weights[k] = w
		total += w
	}

	// Every member weightless (floor set to zero): uniform fallback still
	// emits exactly one winner.
	if total <= 0 {
		k := int(s.rand.Float64() * float64(len(members)))
		if k >= len(members) {
			k = len(members) - 1
		}
		return members[k]
	}

	r := s.rand.Float64() * total
	var cum float64
	for k, w := range weights {
		cum += w
		if r < cum {
			return members[k]
		}
	}
	return members[len(members)-1]
}

// unionFind is a plain disjoint-set with path halving and union by size.
type unionFind struct {
	parent []int
	size   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), size: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
}
