package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/driftarr/driftarr/internal/config"
	"github.com/driftarr/driftarr/internal/database"
	"github.com/driftarr/driftarr/internal/indexer"
	"github.com/driftarr/driftarr/internal/indexer/torznab"
	"github.com/driftarr/driftarr/internal/localization"
	"github.com/driftarr/driftarr/internal/logger"
	"github.com/driftarr/driftarr/internal/scheduler"
	"github.com/driftarr/driftarr/internal/scheduler/tasks"
)

func main() {
	// A missing .env is fine.
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	log.Info().Str("logLevel", cfg.Logging.Level).Msg("Starting driftarr")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	log.Info().Msg("Running database migrations")
	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	localizer, err := localization.NewService(&log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load localization strings")
	}

	capsTTL := time.Duration(cfg.Indexer.CapsCacheTTLHours) * time.Hour
	capsProvider := torznab.NewCachedProvider(torznab.NewClient(&log.Logger), capsTTL)
	connectivity := indexer.NewHTTPConnectivityTester(localizer, &log.Logger)

	indexerService := indexer.NewService(db.Conn(), capsProvider, connectivity, localizer, &log.Logger)

	if cfg.Indexer.SeedDefaults {
		if err := indexerService.SeedDefaults(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to seed default indexers")
		}
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := tasks.RegisterCapsRefreshTask(sched, indexerService, cfg.Indexer.CapsRefreshCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register capability refresh task")
	}
	sched.Start()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())

	api := e.Group("/api/v1")
	indexer.NewHandlers(indexerService).RegisterRoutes(api.Group("/indexers"))

	e.GET("/api/v1/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	go func() {
		addr := cfg.Server.Address()
		log.Info().Str("address", addr).Msg("HTTP server listening")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Received shutdown signal")

	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown error")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Server stopped")
}
