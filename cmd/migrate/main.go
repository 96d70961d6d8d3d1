// Command migrate runs schema operations for the backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"pixelgram/internal/config"
	"pixelgram/internal/database"
	"pixelgram/internal/middleware"

	"github.com/joho/godotenv"
)

func main() {
	if err := run(); err != nil {
		middleware.Logger.Error("migrate failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	ctx := context.Background()
	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		middleware.Logger.Info("migrations applied")
	case "status":
		pending, err := database.PendingMigrations(ctx, db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		middleware.Logger.Info("schema status",
			slog.Int("registered", len(database.GetMigrations())),
			slog.Int("pending", len(pending)),
		)
		for _, m := range pending {
			middleware.Logger.Info("pending", slog.String("migration", m.String()))
		}
	default:
		return usage()
	}
	return nil
}
