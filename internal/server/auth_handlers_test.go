package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"pixelgram/internal/models"
	"pixelgram/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "golden_hour",
		"email":    "golden@example.com",
		"password": "SecurePass12!@",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[service.AuthResult](t, resp)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "golden_hour", created.User.Username)

	resp = ts.do(t, http.MethodPost, "/api/auth/signup", "", fiber.Map{
		"username": "golden_hour",
		"email":    "other@example.com",
		"password": "SecurePass12!@",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "golden@example.com",
		"password": "SecurePass12!@",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[service.AuthResult](t, resp)
	assert.Equal(t, created.User.ID, login.User.ID)

	resp = ts.do(t, http.MethodGet, "/api/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	me := decode[service.SelfProfile](t, resp)
	assert.Equal(t, "golden@example.com", me.Email)

	resp = ts.do(t, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"email":    "golden@example.com",
		"password": "WrongPass12!@",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSignup_Validation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"missing password", fiber.Map{"username": "someone", "email": "s@example.com"}, "password is required"},
		{"bad avatar", fiber.Map{"username": "someone", "email": "s@example.com", "password": "SecurePass12!@", "avatar": "nope"}, "avatar must be a URL"},
		{"weak password", fiber.Map{"username": "someone", "email": "s@example.com", "password": "short"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/auth/signup", "", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[models.ErrorResponse](t, resp)
			assert.Equal(t, models.CodeValidation, body.Code)
			if tt.want != "" {
				assert.Equal(t, tt.want, body.Error)
			}
		})
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.user(t)

	resp := ts.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me?token="+token, nil)
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuthRequired_WSTicket(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	app := fiber.New()
	app.Get("/api/ws", ts.s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	t.Run("ticket is single use", func(t *testing.T) {
		require.NoError(t, ts.rdb.Set(ctx, wsTicketPrefix+"t-1", "123", time.Minute).Err())

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ws?ticket=t-1", nil))
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decode[map[string]float64](t, resp)
		assert.Equal(t, float64(123), body["userID"])

		exists, err := ts.rdb.Exists(ctx, wsTicketPrefix+"t-1").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)

		resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/ws?ticket=t-1", nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("query token refused on websocket path", func(t *testing.T) {
		_, token := ts.user(t)
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/ws?token="+token, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestIssueWSTicket(t *testing.T) {
	ts := newTestServer(t)
	u, token := ts.user(t)

	resp := ts.do(t, http.MethodPost, "/api/ws/ticket", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[struct {
		Ticket    string `json:"ticket"`
		ExpiresIn int    `json:"expires_in"`
	}](t, resp)
	require.NotEmpty(t, body.Ticket)
	assert.Equal(t, int(wsTicketTTL.Seconds()), body.ExpiresIn)

	stored, err := ts.rdb.Get(context.Background(), wsTicketPrefix+body.Ticket).Result()
	require.NoError(t, err)
	assert.Equal(t, strconv.FormatUint(uint64(u.ID), 10), stored)
	assert.Equal(t, wsTicketTTL, ts.mr.TTL(wsTicketPrefix+body.Ticket))
}

func TestIssueWSTicket_NoRedis(t *testing.T) {
	s := &Server{}
	app := fiber.New()
	app.Post("/api/ws/ticket", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(1))
		return c.Next()
	}, s.IssueWSTicket)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/ws/ticket", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
