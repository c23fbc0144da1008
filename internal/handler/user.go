package handler

import (
	"github.com/gofiber/fiber/v3"

	"github.com/openskip/openskip-go/internal/middleware"
	"github.com/openskip/openskip-go/internal/service"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// GetByUserID handles GET /api/users/:userId. The path parameter is the
// public (hashed) user ID, never the raw private one.
func (h *UserHandler) GetByUserID(c fiber.Ctx) error {
	userID, errMsg := middleware.ValidatePublicUserID(c.Params("userId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.svc.Lookup(c.Context(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user")
	}
	return c.JSON(resp)
}
