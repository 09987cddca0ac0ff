package main

import (
	"log/slog"
	"os"

	"github.com/hugh/go-pools/internal/database"
	"github.com/hugh/go-pools/pkg/config"
	"github.com/hugh/go-pools/pkg/util"
	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

func main() {
	down := flag.Bool("down", false, "roll back instead of applying")
	steps := flag.Int("steps", 1, "number of migrations to roll back")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.Server.Env)
	slog.SetDefault(logger)

	if *down {
		err = database.MigrateDown(cfg.Database.URL(), *steps, logger)
	} else {
		err = database.MigrateUp(cfg.Database.URL(), logger)
	}
	if err != nil {
		logger.Error("migration failed", "error", err)
		os.Exit(1)
	}
}
