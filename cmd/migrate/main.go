package main

import (
	"flag"
	"log/slog"
	"os"

	"crewdesk/internal/app/server"
	"crewdesk/internal/platform/config"
	"crewdesk/internal/platform/db"
)

func main() {
	action := flag.String("action", "up", "migration action: up, down, drop or version")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}
	slog.SetDefault(server.NewLogger(cfg.LogLevel))
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	if err := db.RunMigration(cfg.DatabaseURL, *action); err != nil {
		slog.Error("migration failed", "action", *action, "err", err)
		os.Exit(1)
	}
	slog.Info("migration complete", "action", *action)
}
