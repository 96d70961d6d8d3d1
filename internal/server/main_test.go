package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"pixelgram/internal/config"
	"pixelgram/internal/database"
	"pixelgram/internal/middleware"
	"pixelgram/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testJWTSecret = "test-secret-that-is-at-least-32-characters"

var userSeq atomic.Int64

type testServer struct {
	s   *Server
	app *fiber.App
	mr  *miniredis.Miniredis
	rdb *redis.Client
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.RunMigrations(context.Background(), db))
	return db
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		JWTSecret:         testJWTSecret,
		Env:               "test",
		InstanceID:        "test-instance",
		FeedPageSize:      10,
		WSMaxConnsPerUser: 4,
		WSMaxTotalConns:   100,
	}
	s, err := NewServerWithDeps(cfg, setupTestDB(t), rdb)
	require.NoError(t, err)
	t.Cleanup(s.presence.Stop)

	return &testServer{s: s, app: s.NewApp(), mr: mr, rdb: rdb}
}

// user creates an account directly and returns it with a bearer token.
func (ts *testServer) user(t *testing.T) (*models.User, string) {
	t.Helper()
	n := userSeq.Add(1)
	u := &models.User{
		Username: fmt.Sprintf("shooter%d", n),
		Email:    fmt.Sprintf("shooter%d@example.com", n),
		Password: "x",
	}
	require.NoError(t, ts.s.userRepo.Create(context.Background(), u))
	token, err := middleware.IssueToken(testJWTSecret, u.ID, time.Hour)
	require.NoError(t, err)
	return u, token
}

// do sends a request with an optional JSON body and bearer token.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
