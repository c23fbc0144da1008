package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/openskip/openskip-go/internal/store"
)

// SegmentCacheTTL bounds staleness for readers; correctness relies on
// explicit invalidation after every mutation, never on expiry.
const SegmentCacheTTL = 5 * time.Minute

// CacheService provides a Redis cache-aside layer for resolved segment
// lists. It also implements the engine's CacheInvalidator contract:
// invalidation is fire-and-forget and never fails a vote.
type CacheService struct {
	rdb *redis.Client
}

var _ store.CacheInvalidator = (*CacheService)(nil)

// NewCacheService creates a new CacheService. If redisURL is empty or the
// connection fails, it returns a CacheService with a nil client and all
// operations become no-ops.
func NewCacheService(redisURL string) *CacheService {
	if redisURL == "" {
		log.Info().Msg("redis: no URL configured, caching disabled")
		return &CacheService{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis: invalid URL, caching disabled")
		return &CacheService{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("redis: connection failed, caching disabled")
		return &CacheService{}
	}

	log.Info().Msg("redis: connected, caching enabled")
	return &CacheService{rdb: rdb}
}

// Client returns the underlying Redis client (for health checks). May be nil.
func (c *CacheService) Client() *redis.Client {
	return c.rdb
}

// GetSegments retrieves a cached segment-list response. Returns nil when not
// cached or caching is disabled.
func (c *CacheService) GetSegments(ctx context.Context, videoID string) ([]byte, error) {
	if c.rdb == nil {
		return nil, nil
	}
	data, err := c.rdb.Get(ctx, segmentsKey(videoID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetSegments stores a resolved segment list.
func (c *CacheService) SetSegments(ctx context.Context, videoID string, data any) error {
	if c.rdb == nil {
		return nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, segmentsKey(videoID), b, SegmentCacheTTL).Err()
}

// InvalidateSegments drops the segment-list entry for a video.
func (c *CacheService) InvalidateSegments(ctx context.Context, videoID string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, segmentsKey(videoID)).Err(); err != nil {
		log.Warn().Err(err).Str("videoID", videoID).Msg("cache: invalidate segments failed")
	}
}

// InvalidateSegment drops the per-UUID entry.
func (c *CacheService) InvalidateSegment(ctx context.Context, uuid string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, segmentKey(uuid)).Err(); err != nil {
		log.Warn().Err(err).Str("uuid", uuid).Msg("cache: invalidate segment failed")
	}
}

// Close shuts down the Redis connection.
func (c *CacheService) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

func segmentsKey(videoID string) string {
	return fmt.Sprintf("segments:%s", videoID)
}

func segmentKey(uuid string) string {
	return fmt.Sprintf("segment:%s", uuid)
}
