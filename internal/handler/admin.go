package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/openskip/openskip-go/internal/middleware"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/store"
	"github.com/openskip/openskip-go/pkg/hash"
)

// segmentLister is the slice of the store the admin endpoints need.
type segmentLister interface {
	GetAllSegmentsForVideo(ctx context.Context, videoID string) ([]model.Segment, error)
}

// AdminHandler serves the VIP-only operational endpoints.
type AdminHandler struct {
	trust    store.TrustClassifier
	segments segmentLister
	cache    store.CacheInvalidator
}

func NewAdminHandler(trust store.TrustClassifier, segments segmentLister, cache store.CacheInvalidator) *AdminHandler {
	return &AdminHandler{trust: trust, segments: segments, cache: cache}
}

type clearCacheRequest struct {
	VideoID string `json:"videoID"`
	UserID  string `json:"userID"`
}

// ClearCache handles POST /api/clearCache — drops the cached segment list
// for one video plus every per-UUID entry under it, so the next read
// reflects fresh database state.
func (h *AdminHandler) ClearCache(c fiber.Ctx) error {
	var req clearCacheRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	videoID, errMsg := middleware.ValidateVideoID(req.VideoID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	localID, errMsg := middleware.ValidateUserID(req.UserID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	trust, err := h.trust.Classify(c.Context(), hash.UserID(localID))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify permissions")
	}
	if !trust.IsVIP {
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "NOT_VIP", "Insufficient permissions")
	}

	segments, err := h.segments.GetAllSegmentsForVideo(c.Context(), videoID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear cache")
	}

	h.cache.InvalidateSegments(c.Context(), videoID)
	for _, seg := range segments {
		h.cache.InvalidateSegment(c.Context(), seg.UUID)
	}
	return c.JSON(fiber.Map{"message": "Cache cleared for video " + videoID})
}
