package main

import (
	"fmt"
	"os"

	"fleet-analytics/internal/auth"
	"fleet-analytics/internal/ceiba"
	"fleet-analytics/internal/config"
	"fleet-analytics/internal/db"
	httphandler "fleet-analytics/internal/http"
	"fleet-analytics/internal/http/middleware"
	"fleet-analytics/internal/logger"
	"fleet-analytics/internal/repository"
	"fleet-analytics/internal/service"
	"fleet-analytics/internal/session"
	"fleet-analytics/internal/topology"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	backend := ceiba.NewClient(cfg.Ceiba, appLogger)
	sessions := session.NewManager(cfg.Auth.SessionTTL)
	resolver := topology.NewResolver(backend, cfg.Analytics.TopologyCacheTTL)
	snapshots := repository.NewSnapshotRepository(database)

	analyticsService := service.NewAnalyticsService(
		resolver,
		backend,
		snapshots,
		appLogger,
		cfg.Analytics.RollingWindowDays,
		cfg.Analytics.MaxRangeDays,
		cfg.Analytics.MileageToleranceKm,
	)

	tokens := auth.NewManager(cfg.Auth.AccessSecret, cfg.Auth.SessionTTL)

	handler := httphandler.NewHandler(analyticsService, resolver, backend, sessions, tokens, appLogger)
	authMiddleware := middleware.Auth(tokens, sessions)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting fleet analytics service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}
