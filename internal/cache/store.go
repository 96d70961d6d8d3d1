package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"pixelgram/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const (
	userSummaryKeyPrefix = "user:summary:%d"
	relationshipKeyFmt   = "user:relationship:%d"
)

const (
	UserSummaryTTL  = 5 * time.Minute
	RelationshipTTL = time.Minute
)

// UserSummaryKey is the cache key for a user's public summary.
func UserSummaryKey(userID uint) string {
	return fmt.Sprintf(userSummaryKeyPrefix, userID)
}

// RelationshipKey is the cache key for a user's follower/following counts.
func RelationshipKey(userID uint) string {
	return fmt.Sprintf(relationshipKeyFmt, userID)
}

// Store is a JSON cache over Redis. A Store with a nil client is a pass-through.
type Store struct {
	rdb *redis.Client
}

// NewStore wraps rdb, which may be nil.
func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

// GetJSON reads key into dest. Returns (false, nil) on a miss.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if s == nil || s.rdb == nil {
		return false, nil
	}
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

// SetJSON marshals v under key with ttl.
func (s *Store) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s == nil || s.rdb == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, b, ttl).Err()
}

// CacheAside serves dest from cache, or calls fetch to fill dest and stores
// the result. Cache failures fall through to fetch.
func (s *Store) CacheAside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := s.GetJSON(ctx, key, dest)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if found {
		return nil
	}

	if err := fetch(); err != nil {
		return err
	}

	if err := s.SetJSON(ctx, key, dest, ttl); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return nil
}

// Invalidate deletes keys, ignoring errors.
func (s *Store) Invalidate(ctx context.Context, keys ...string) {
	if s == nil || s.rdb == nil || len(keys) == 0 {
		return
	}
	s.rdb.Del(ctx, keys...)
}
