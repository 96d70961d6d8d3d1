package server

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pixelgram/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostLifecycle(t *testing.T) {
	ts := newTestServer(t)
	author, authorToken := ts.user(t)
	reader, readerToken := ts.user(t)

	resp := ts.do(t, http.MethodPost, "/api/posts", authorToken, fiber.Map{
		"content": "blue hour over the harbour",
		"photos":  []string{"https://cdn.example.com/harbour.jpg"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decode[models.Post](t, resp)
	assert.Equal(t, author.ID, post.UserID)
	postPath := fmt.Sprintf("/api/posts/%d", post.ID)

	resp = ts.do(t, http.MethodPost, postPath+"/like", readerToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, postPath+"/like", readerToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, postPath, readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.Post](t, resp)
	assert.Equal(t, 1, got.LikeCount)
	assert.True(t, got.Liked)

	resp = ts.do(t, http.MethodPost, postPath+"/comments", readerToken, fiber.Map{"content": "stunning"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	comment := decode[models.Comment](t, resp)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/comments/%d/like", comment.ID), authorToken, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp = ts.do(t, http.MethodDelete, fmt.Sprintf("/api/comments/%d/like", comment.ID), authorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, postPath+"/comments", authorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	comments := decode[[]models.Comment](t, resp)
	require.Len(t, comments, 1)
	assert.Equal(t, reader.ID, comments[0].UserID)

	// liked_post, commented_on_post; the comment like went the other way.
	resp = ts.do(t, http.MethodGet, "/api/notifications", authorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inbox := decode[[]models.NotificationEvent](t, resp)
	require.Len(t, inbox, 2)
	assert.Equal(t, models.NotificationCommentedOnPost, inbox[0].Kind)
	require.NotNil(t, inbox[0].Subject)
	assert.Equal(t, comment.ID, *inbox[0].Subject.CommentID)

	resp = ts.do(t, http.MethodDelete, postPath+"/like", readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodDelete, postPath+"/like", readerToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, postPath, readerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = ts.do(t, http.MethodDelete, postPath, authorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, postPath, authorToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePost_Validation(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.user(t)

	tests := []struct {
		name string
		body any
	}{
		{"empty", fiber.Map{"content": "  "}},
		{"photo not a url", fiber.Map{"photos": []string{"not a url"}}},
		{"too long", fiber.Map{"content": strings.Repeat("a", 2201)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/posts", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	resp := ts.do(t, http.MethodGet, "/api/posts/abc", token, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetFeed(t *testing.T) {
	ts := newTestServer(t)
	author, authorToken := ts.user(t)
	_, readerToken := ts.user(t)

	resp := ts.do(t, http.MethodPost, "/api/users/"+author.Username+"/follow", readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for i := 0; i < 3; i++ {
		resp = ts.do(t, http.MethodPost, "/api/posts", authorToken, fiber.Map{"content": fmt.Sprintf("frame %d", i)})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp = ts.do(t, http.MethodGet, "/api/posts/feed?page=1&page_size=2", readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[FeedPage](t, resp)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.PageSize)
	require.Len(t, page.Posts, 2)
	assert.Equal(t, "frame 2", page.Posts[0].Content)

	resp = ts.do(t, http.MethodGet, "/api/posts/feed?page=0&page_size=-4", readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[FeedPage](t, resp)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 10, page.PageSize)
	assert.Len(t, page.Posts, 3)

	resp = ts.do(t, http.MethodGet, "/api/posts/feed?page=1844674407370955161&page_size=10", readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[FeedPage](t, resp)
	assert.Empty(t, page.Posts)

	resp = ts.do(t, http.MethodGet, "/api/posts/feed", authorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[FeedPage](t, resp)
	assert.NotNil(t, page.Posts)
	assert.Empty(t, page.Posts)
}

func TestUpdatePostAndExplore(t *testing.T) {
	ts := newTestServer(t)
	_, authorToken := ts.user(t)
	_, readerToken := ts.user(t)

	resp := ts.do(t, http.MethodPost, "/api/posts", authorToken, fiber.Map{"content": "draft"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	post := decode[models.Post](t, resp)
	postPath := fmt.Sprintf("/api/posts/%d", post.ID)

	resp = ts.do(t, http.MethodPatch, postPath, readerToken, fiber.Map{"content": "mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = ts.do(t, http.MethodPatch, postPath, authorToken, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = ts.do(t, http.MethodPatch, "/api/posts/4040", authorToken, fiber.Map{"content": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodPatch, postPath, authorToken, fiber.Map{"content": "final cut"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "final cut", decode[models.Post](t, resp).Content)

	resp = ts.do(t, http.MethodPost, "/api/posts", authorToken, fiber.Map{"content": "second"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/posts/explore?count=1", readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Post](t, resp), 1)

	resp = ts.do(t, http.MethodGet, "/api/posts/explore", readerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]models.Post](t, resp), 2)
}

func TestGetUserPostsRSS(t *testing.T) {
	ts := newTestServer(t)
	author, token := ts.user(t)
	resp := ts.do(t, http.MethodPost, "/api/posts", token, fiber.Map{"content": "first light\nover the dunes"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Public: no token.
	rss, err := ts.app.Test(httptest.NewRequest(http.MethodGet, "/api/users/"+author.Username+"/posts.rss", nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, rss.StatusCode)
	assert.Contains(t, rss.Header.Get("Content-Type"), "application/rss+xml")
	body, err := io.ReadAll(rss.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<title>first light</title>")
	assert.Contains(t, string(body), "Pixelgram - "+author.Username)

	missing, err := ts.app.Test(httptest.NewRequest(http.MethodGet, "/api/users/nobody_here/posts.rss", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

var fixedTime = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func TestRSSTitle(t *testing.T) {
	assert.Equal(t, "hello", rssTitle("  hello\nworld", fixedTime))
	assert.Equal(t, "2024-03-01 09:30", rssTitle("", fixedTime))
	assert.Equal(t, strings.Repeat("é", 80)+"…", rssTitle(strings.Repeat("é", 81), fixedTime))
}
