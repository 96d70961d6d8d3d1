package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy defines the behavior when the rate limit store (Redis) is unavailable.
type FailPolicy int

const (
	// FailOpen allows the request to proceed if Redis is unavailable.
	FailOpen FailPolicy = iota
	// FailClosed blocks the request (503 Service Unavailable) if Redis is unavailable.
	FailClosed
)

// ErrNoRedis is returned by CheckRateLimit when no Redis client is configured.
var ErrNoRedis = errors.New("redis client is nil")

// RateLimiter applies fixed-window limits stored in Redis. A disabled limiter
// admits everything, which is how development and test environments run.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter returns a limiter backed by rdb.
func NewRateLimiter(rdb *redis.Client, enabled bool) *RateLimiter {
	return &RateLimiter{rdb: rdb, enabled: enabled}
}

// Allow reports whether id may perform one more resource action in the current window.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (bool, error) {
	if l == nil || !l.enabled {
		return true, nil
	}
	return CheckRateLimit(ctx, l.rdb, resource, id, limit, window)
}

// CheckRateLimit increments the window counter for (resource, id) and reports
// whether it is still within limit.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, resource, id string, limit int, window time.Duration) (bool, error) {
	if rdb == nil {
		return false, ErrNoRedis
	}

	key := fmt.Sprintf("rl:%s:%s", resource, id)

	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(limit), nil
}

// Middleware returns a Fiber handler enforcing limit requests per window.
// It keys by authenticated userID when present, otherwise by remote IP.
func (l *RateLimiter) Middleware(name string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var id string
		if uid, ok := c.Locals("userID").(uint); ok {
			id = fmt.Sprintf("user:%d", uid)
		} else {
			id = "ip:" + c.IP()
		}

		allowed, err := l.Allow(c.UserContext(), name, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable",
					slog.String("resource", name), slog.String("error", err.Error()))
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
