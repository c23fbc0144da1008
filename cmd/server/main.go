package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/openskip/openskip-go/internal/config"
	"github.com/openskip/openskip-go/internal/db"
	"github.com/openskip/openskip-go/internal/handler"
	"github.com/openskip/openskip-go/internal/middleware"
	"github.com/openskip/openskip-go/internal/repository"
	"github.com/openskip/openskip-go/internal/router"
	"github.com/openskip/openskip-go/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("configuration invalid")
	}

	middleware.InitLogger(cfg.LogLevel, "openskip-api")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	handler.InitMetrics(pool)

	cacheSvc := service.NewCacheService(cfg.RedisURL)
	defer cacheSvc.Close()

	st := repository.NewStore(pool)
	trustRepo := repository.NewTrustRepo(pool)

	trustSvc := service.NewTrustService(trustRepo, cfg.Policy)
	resolveSvc := service.NewResolveService(st, cfg.Policy)
	categorySvc := service.NewCategoryService(st, trustRepo, cacheSvc, cfg.Policy)
	voteSvc := service.NewVoteService(st, trustSvc, trustRepo, cacheSvc, categorySvc, cfg.Policy)
	submitSvc := service.NewSubmitService(st, trustSvc, cacheSvc, cfg.Policy)
	userSvc := service.NewUserService(st, trustRepo, cfg.Policy)

	h := &router.Handlers{
		Segment: handler.NewSegmentHandler(resolveSvc, submitSvc, cacheSvc, cfg.GlobalSalt),
		Vote:    handler.NewVoteHandler(voteSvc, cfg.GlobalSalt),
		User:    handler.NewUserHandler(userSvc),
		Stats:   handler.NewStatsHandler(userSvc),
		Export:  handler.NewExportHandler(userSvc),
		Admin:   handler.NewAdminHandler(trustSvc, st, cacheSvc),
		Health:  handler.NewHealthHandler(pool, cacheSvc.Client()),
	}

	app := fiber.New(fiber.Config{
		AppName:      "OpenSkip API",
		ServerHeader: "OpenSkip",
	})
	router.Setup(app, h, cfg.CORSOrigins)

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).
			Msg("openskip backend starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}
