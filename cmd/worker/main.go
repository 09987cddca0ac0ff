package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/hugh/go-pools/internal/auth"
	"github.com/hugh/go-pools/internal/boards"
	"github.com/hugh/go-pools/internal/database"
	"github.com/hugh/go-pools/internal/tasks"
	"github.com/hugh/go-pools/pkg/config"
	"github.com/hugh/go-pools/pkg/queue"
	"github.com/hugh/go-pools/pkg/util"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	logger.Info("starting pools worker")

	if err := util.ValidateCronExpr(cfg.Maintenance.CleanupCron); err != nil {
		logger.Error("invalid cleanup schedule", "cron", cfg.Maintenance.CleanupCron, "error", err)
		os.Exit(1)
	}

	// Connect to database
	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	}()

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	handler := tasks.NewHandler(
		auth.NewService(db, jwtService),
		boards.NewService(db, logger),
		logger,
	)

	mux := asynq.NewServeMux()
	handler.RegisterHandlers(mux)

	srv := queue.NewServer(&cfg.Redis, cfg.Maintenance.WorkerConcurrency, logger)
	if err := srv.Start(mux); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// Periodic housekeeping
	scheduler := queue.NewScheduler(&cfg.Redis)
	entryID, err := scheduler.Register(cfg.Maintenance.CleanupCron, tasks.NewCleanupTask())
	if err != nil {
		logger.Error("failed to register cleanup schedule", "error", err)
		srv.Shutdown()
		os.Exit(1)
	}
	if err := scheduler.Start(); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		srv.Shutdown()
		os.Exit(1)
	}

	if next, err := util.NextCronTime(cfg.Maintenance.CleanupCron, time.Now()); err == nil {
		logger.Info("cleanup scheduled", "entry_id", entryID, "cron", cfg.Maintenance.CleanupCron, "next_run", next)
	}

	logger.Info("worker started, waiting for tasks...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker...")
	scheduler.Shutdown()
	srv.Shutdown()

	logger.Info("worker stopped")
}
