package handler

import (
	"encoding/csv"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/openskip/openskip-go/internal/middleware"
	"github.com/openskip/openskip-go/internal/service"
)

type ExportHandler struct {
	svc *service.UserService
}

func NewExportHandler(svc *service.UserService) *ExportHandler {
	return &ExportHandler{svc: svc}
}

// Export handles GET /api/export/segments.csv — streams the public dataset
// as CSV. Submitter and origin hashes are not part of the public dump.
func (h *ExportHandler) Export(c fiber.Ctx) error {
	segments, err := h.svc.Export(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to export segments")
	}

	filename := "segments-" + time.Now().UTC().Format("20060102") + ".csv"
	c.Set("Content-Type", "text/csv")
	c.Set("Content-Disposition", "attachment; filename="+filename)

	w := csv.NewWriter(c.Response().BodyWriter())
	if err := w.Write([]string{"uuid", "videoId", "startTime", "endTime", "votes", "category", "actionType", "locked", "timeSubmitted"}); err != nil {
		return err
	}
	for _, seg := range segments {
		rec := []string{
			seg.UUID,
			seg.VideoID,
			strconv.FormatFloat(seg.StartTime, 'f', -1, 64),
			strconv.FormatFloat(seg.EndTime, 'f', -1, 64),
			strconv.Itoa(seg.Votes),
			seg.Category,
			seg.ActionType,
			strconv.FormatBool(seg.Locked),
			strconv.FormatInt(seg.TimeSubmitted, 10),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
