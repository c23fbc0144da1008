package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/openskip/openskip-go/internal/middleware"
	"github.com/openskip/openskip-go/internal/model"
	"github.com/openskip/openskip-go/internal/service"
	"github.com/openskip/openskip-go/pkg/hash"
)

type VoteHandler struct {
	svc  *service.VoteService
	salt string
}

func NewVoteHandler(svc *service.VoteService, salt string) *VoteHandler {
	return &VoteHandler{svc: svc, salt: salt}
}

// Submit handles POST /api/votes. Votes suppressed by anti-abuse gates
// return the same success body as counted votes; only structural problems
// (bad input, unknown segment, restricted account) surface as errors.
func (h *VoteHandler) Submit(c fiber.Ctx) error {
	var req model.VoteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	uuid, errMsg := middleware.ValidateUUID(req.UUID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.UUID = uuid

	localID, errMsg := middleware.ValidateUserID(req.UserID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.UserID = hash.UserID(localID)
	req.UserAgent = middleware.ValidateUserAgent(req.UserAgent)

	if req.Type == nil && req.Category == "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELDS", "Either type or category is required")
	}

	ipHash := hash.IP(c.IP(), h.salt)

	if err := h.svc.ApplyVote(c.Context(), req, ipHash); err != nil {
		switch {
		case errors.Is(err, service.ErrSegmentNotFound):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Segment not found")
		case errors.Is(err, service.ErrInvalidVoteType):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_TYPE", "Invalid vote type")
		case errors.Is(err, service.ErrInvalidCategory):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_CATEGORY", "Invalid category for this segment")
		case errors.Is(err, service.ErrVoteRestricted):
			return middleware.ErrorResponse(c, fiber.StatusForbidden, "RESTRICTED", "Account restricted by active warnings")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process vote")
	}

	Metrics.VotesTotal.WithLabelValues(voteTypeLabel(req)).Inc()
	return c.JSON(model.VoteResponse{Success: true})
}

func voteTypeLabel(req model.VoteRequest) string {
	if req.Category != "" {
		return "category"
	}
	switch *req.Type {
	case model.VoteUp:
		return "up"
	case model.VoteDown:
		return "down"
	case model.VoteUndo:
		return "undo"
	case model.VoteMalicious:
		return "malicious"
	}
	return "unknown"
}
