package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/openskip/openskip-go/internal/middleware"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/service"
	"github.com/openskip/openskip-go/pkg/hash"
)

type SegmentHandler struct {
	resolve *service.ResolveService
	submit  *service.SubmitService
	cache   *service.CacheService
	salt    string
}

func NewSegmentHandler(resolve *service.ResolveService, submit *service.SubmitService,
	cache *service.CacheService, salt string) *SegmentHandler {
	return &SegmentHandler{resolve: resolve, submit: submit, cache: cache, salt: salt}
}

// Get handles GET /api/segments?videoID=X
func (h *SegmentHandler) Get(c fiber.Ctx) error {
	videoID := fiber.Query[string](c, "videoID")
	if videoID == "" {
		videoID = fiber.Query[string](c, "videoId")
	}
	videoID, errMsg := middleware.ValidateVideoID(videoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	// Cache-aside: resolved lists are cached as raw JSON so hits skip both
	// the database and re-serialization.
	if cached, err := h.cache.GetSegments(c.Context(), videoID); err == nil && cached != nil {
		Metrics.CacheHits.Inc()
		c.Set("Content-Type", "application/json")
		return c.Send(cached)
	}
	Metrics.CacheMisses.Inc()

	start := time.Now()
	segments, err := h.resolve.Resolve(c.Context(), videoID)
	Metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load segments")
	}
	if len(segments) == 0 {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No segments for this video")
	}

	if err := h.cache.SetSegments(c.Context(), videoID, segments); err != nil {
		middleware.Logger.Warn().Err(err).Msg("cache: store segments failed")
	}
	return c.JSON(segments)
}

// GetByHashPrefix handles GET /api/segments/:hashPrefix — the k-anonymity
// read path. The response carries every matching video so the server cannot
// tell which one the client wanted.
func (h *SegmentHandler) GetByHashPrefix(c fiber.Ctx) error {
	prefix, errMsg := middleware.ValidateHashPrefix(c.Params("hashPrefix"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PREFIX", errMsg)
	}

	videos, err := h.resolve.ResolveByHashPrefix(c.Context(), prefix)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load segments")
	}
	if len(videos) == 0 {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No segments matching prefix")
	}
	return c.JSON(videos)
}

// Submit handles POST /api/segments
func (h *SegmentHandler) Submit(c fiber.Ctx) error {
	var req model.SubmitRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.VideoID = videoID

	localID, errMsg := middleware.ValidateUserID(req.UserID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.UserAgent = middleware.ValidateUserAgent(req.UserAgent)

	userID := hash.UserID(localID)
	ipHash := hash.IP(c.IP(), h.salt)

	resp, err := h.submit.Submit(c.Context(), req, userID, ipHash)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCategory):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CATEGORY", "Invalid category or actionType")
		case errors.Is(err, service.ErrInvalidSegmentTimes):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_TIMES", "Segment times are invalid")
		case errors.Is(err, service.ErrDuplicateSegment):
			return middleware.ErrorResponse(c, fiber.StatusConflict, "DUPLICATE", "Segment already submitted")
		case errors.Is(err, service.ErrSubmissionLimit):
			return middleware.ErrorResponse(c, fiber.StatusTooManyRequests, "SUBMISSION_LIMIT", "Too many segments for this video")
		case errors.Is(err, service.ErrVoteRestricted):
			return middleware.ErrorResponse(c, fiber.StatusForbidden, "RESTRICTED", "Account restricted by active warnings")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to submit segment")
	}
	Metrics.SubmissionsTotal.WithLabelValues(req.Category).Inc()
	return c.JSON(resp)
}
