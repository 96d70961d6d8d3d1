// Command seed populates the database with demo users, posts and chats.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"pixelgram/internal/config"
	"pixelgram/internal/database"
	"pixelgram/internal/middleware"
	"pixelgram/internal/seed"

	"github.com/joho/godotenv"
)

func main() {
	scenarioPath := flag.String("scenario", "", "YAML scenario file (defaults built in)")
	users := flag.Int("users", 0, "Override the number of generated users")
	shouldClean := flag.Bool("clean", false, "Delete existing data before seeding")
	flag.Parse()

	_ = godotenv.Load()
	log := middleware.Logger

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Error("Failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.IsProduction() {
		log.Error("Refusing to seed a production database")
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Error("Failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	sc := seed.DefaultScenario
	if *scenarioPath != "" {
		if sc, err = seed.LoadScenario(*scenarioPath); err != nil {
			log.Error("Failed to load scenario", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if *users > 0 {
		sc.Users = *users
	}

	s := seed.NewSeeder(db)
	if *shouldClean {
		if err := s.ClearAll(ctx); err != nil {
			log.Error("Cleanup failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}
	if _, err := s.Run(ctx, sc); err != nil {
		log.Error("Seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("Seeded accounts share one password", slog.String("password", seed.DefaultPassword))
}
