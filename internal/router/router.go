package router

import (
	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/openskip/openskip-go/internal/handler"
	"github.com/openskip/openskip-go/internal/middleware"
)

// Handlers holds all handler instances needed by the router.
type Handlers struct {
	Segment *handler.SegmentHandler
	Vote    *handler.VoteHandler
	User    *handler.UserHandler
	Stats   *handler.StatsHandler
	Export  *handler.ExportHandler
	Admin   *handler.AdminHandler
	Health  *handler.HealthHandler
}

// Setup configures the middleware stack and all API routes on the given Fiber app.
func Setup(app *fiber.App, h *Handlers, corsOrigins string) {
	// Middleware stack (order matters)
	app.Use(recoverer.New())
	app.Use(middleware.NewRequestLogger())
	app.Use(middleware.NewCORS(corsOrigins))
	app.Use(handler.MetricsMiddleware())

	// Probes and metrics live outside the API group
	app.Get("/health/live", h.Health.Live)
	app.Get("/health/ready", h.Health.Ready)
	app.Get("/metrics", handler.MetricsHandler())

	// Rate limiters per route group
	readLimit := middleware.NewSegmentReadRateLimiter()
	submitLimit := middleware.NewSubmitRateLimiter()
	voteLimit := middleware.NewVoteRateLimiter()
	statsLimit := middleware.NewStatsRateLimiter()
	exportLimit := middleware.NewExportRateLimiter()

	api := app.Group("/api")

	// Segment routes. The static /api/segments path must be registered
	// before the :hashPrefix wildcard.
	api.Get("/segments", h.Segment.Get, readLimit.Handler())
	api.Post("/segments", h.Segment.Submit, submitLimit.Handler())
	api.Get("/segments/:hashPrefix", h.Segment.GetByHashPrefix, readLimit.Handler())

	// Vote routes
	api.Post("/votes", h.Vote.Submit, voteLimit.Handler())

	// User routes
	api.Get("/users/:userId", h.User.GetByUserID, statsLimit.Handler())

	// Stats and export
	api.Get("/stats", h.Stats.GetStats, statsLimit.Handler())
	api.Get("/export/segments.csv", h.Export.Export, exportLimit.Handler())

	// VIP operational routes
	api.Post("/clearCache", h.Admin.ClearCache, voteLimit.Handler())
}
