package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stemsi/kidquest-backend/internal/catalog"
	"github.com/stemsi/kidquest-backend/internal/config"
	"github.com/stemsi/kidquest-backend/internal/database"
	"github.com/stemsi/kidquest-backend/internal/handler"
	"github.com/stemsi/kidquest-backend/internal/logger"
	"github.com/stemsi/kidquest-backend/internal/metrics"
	"github.com/stemsi/kidquest-backend/internal/repository"
	"github.com/stemsi/kidquest-backend/internal/router"
	"github.com/stemsi/kidquest-backend/internal/service"
	"github.com/stemsi/kidquest-backend/internal/validator"
	"github.com/stemsi/kidquest-backend/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat, "kidquest-server")
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting KidQuest Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Game Catalog ─────────────────────────────────────────────
	games, err := catalog.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load game catalog")
	}
	log.Info().Int("games", len(games.List())).Msg("Game catalog loaded")

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	m := metrics.New()

	// ─── Initialize Repositories ───────────────────────────────────────
	resultRepo := repository.NewPlayResultRepository(pool)
	playerRepo := repository.NewPlayerRepository(rdb)
	walletRepo := repository.NewWalletRepository(rdb)
	resultQueue := worker.NewResultQueue(rdb)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, playerRepo)
	catalogService := service.NewCatalogService(games)
	resultService := service.NewResultService(resultRepo, games, playerRepo, walletRepo)
	playService := service.NewPlayService(games, walletRepo, resultQueue, service.PlayOptions{
		DefaultCoinsPerLevel: cfg.DefaultCoinsPerLevel,
		Metrics:              m,
	}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Player:  handler.NewPlayerHandler(authService, resultService, log),
		Game:    handler.NewGameHandler(catalogService, playService, resultService, log),
		Session: handler.NewSessionHandler(playService, log),
		WS:      handler.NewWSHandler(playService, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workers, workerCtx := errgroup.WithContext(workerCtx)

	resultWorker := worker.NewResultWorker(resultRepo, rdb, m, log)
	workers.Go(func() error {
		return resultWorker.Start(workerCtx)
	})

	// ─── Schedule Idle Session Reaper ─────────────────────────────────
	reaper := cron.New()
	if _, err := reaper.AddFunc(cfg.ReapSchedule, func() {
		if n := playService.ReapIdle(cfg.SessionIdle); n > 0 {
			log.Info().Int("reaped", n).Int("live", playService.LiveCount()).Msg("Idle sessions reaped")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.ReapSchedule).Msg("Invalid reap schedule")
	}
	reaper.Start()

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(ctx, authService, handlers, m, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the reaper and close live sessions. Streams end with a close frame.
	<-reaper.Stop().Done()
	playService.Shutdown()

	// 3. Stop background workers and wait for the result queue to drain.
	workerCancel()
	if err := workers.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}
