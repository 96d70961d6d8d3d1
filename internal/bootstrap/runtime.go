// Package bootstrap wires process-level dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"pixelgram/internal/cache"
	"pixelgram/internal/config"
	"pixelgram/internal/database"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// InitRuntime connects to the database and Redis. The Redis client is nil
// when Redis is unreachable; the caller then runs single-instance.
func InitRuntime(ctx context.Context, cfg *config.Config) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}
	return db, cache.InitRedis(ctx, cfg.RedisURL), nil
}
