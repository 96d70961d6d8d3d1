package server

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"pixelgram/internal/cache"
	"pixelgram/internal/models"
	"pixelgram/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowFlow(t *testing.T) {
	ts := newTestServer(t)
	alice, aliceToken := ts.user(t)
	bob, bobToken := ts.user(t)

	resp := ts.do(t, http.MethodPost, "/api/users/"+bob.Username+"/follow", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rel := decode[models.RelationshipSummary](t, resp)
	assert.True(t, rel.Following)
	assert.Equal(t, bob.ID, rel.User.ID)
	assert.Equal(t, int64(1), rel.FollowersCount)

	resp = ts.do(t, http.MethodPost, "/api/users/"+bob.Username+"/follow", aliceToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/users/"+alice.Username+"/follow", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/users/nobody_here/follow", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/notifications", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inbox := decode[[]models.NotificationEvent](t, resp)
	require.Len(t, inbox, 1)
	assert.Equal(t, models.NotificationFollowed, inbox[0].Kind)
	assert.Equal(t, alice.ID, inbox[0].Actor.ID)

	resp = ts.do(t, http.MethodGet, "/api/users/"+bob.Username, aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[service.Profile](t, resp)
	assert.True(t, profile.Following)
	assert.Equal(t, int64(1), profile.FollowersCount)

	resp = ts.do(t, http.MethodGet, "/api/users/"+bob.Username+"/followers", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	followers := decode[[]models.UserSummary](t, resp)
	require.Len(t, followers, 1)
	assert.Equal(t, alice.Username, followers[0].Username)

	resp = ts.do(t, http.MethodDelete, "/api/users/"+bob.Username+"/follow", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rel = decode[models.RelationshipSummary](t, resp)
	assert.False(t, rel.Following)
	assert.Zero(t, rel.FollowersCount)

	resp = ts.do(t, http.MethodDelete, "/api/users/"+bob.Username+"/follow", aliceToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSearchUsers(t *testing.T) {
	ts := newTestServer(t)
	u, token := ts.user(t)

	resp := ts.do(t, http.MethodGet, "/api/users/search?q="+u.Username, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	found := decode[[]models.UserSummary](t, resp)
	require.NotEmpty(t, found)
	assert.Equal(t, u.Username, found[0].Username)

	resp = ts.do(t, http.MethodGet, "/api/users/search", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.UserSummary](t, resp))
}

func TestProfileHidesEmail(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.user(t)
	other, _ := ts.user(t)

	resp := ts.do(t, http.MethodGet, "/api/users/"+other.Username, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[map[string]any](t, resp)
	assert.NotContains(t, body, "email")
	assert.Contains(t, body, "online")
}

func TestUpdateMyProfile(t *testing.T) {
	ts := newTestServer(t)
	me, token := ts.user(t)
	other, otherToken := ts.user(t)
	third, _ := ts.user(t)

	// Following caches my summary as the notification actor.
	resp := ts.do(t, http.MethodPost, "/api/users/"+other.Username+"/follow", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, ts.mr.Exists(cache.UserSummaryKey(me.ID)))

	resp = ts.do(t, http.MethodPatch, "/api/users/me", token, fiber.Map{
		"username": "harbour_light",
		"bio":      "film and fog",
		"website":  "https://harbour.example.com",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	self := decode[service.SelfProfile](t, resp)
	assert.Equal(t, me.ID, self.ID)
	assert.Equal(t, "harbour_light", self.Username)
	assert.Equal(t, "film and fog", self.Bio)
	assert.Equal(t, "https://harbour.example.com", self.Website)

	resp = ts.do(t, http.MethodGet, "/api/users/"+me.Username, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/api/users/harbour_light", otherToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	profile := decode[service.Profile](t, resp)
	assert.Equal(t, "https://harbour.example.com", profile.Website)

	summary, err := ts.s.userRepo.GetSummary(context.Background(), me.ID)
	require.NoError(t, err)
	assert.Equal(t, "harbour_light", summary.Username)

	resp = ts.do(t, http.MethodPost, "/api/users/"+third.Username+"/follow", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inbox, err := ts.s.notificationService.ListInbox(context.Background(), third.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, "harbour_light", inbox[0].Event().Actor.Username)

	resp = ts.do(t, http.MethodPatch, "/api/users/me", token, fiber.Map{"username": other.Username})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp = ts.do(t, http.MethodPatch, "/api/users/me", token, fiber.Map{"website": "not a site"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = ts.do(t, http.MethodPatch, "/api/users/me", token, fiber.Map{"bio": strings.Repeat("b", 151)})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRecentSearchesFlow(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.user(t)
	first, _ := ts.user(t)
	second, _ := ts.user(t)

	for _, u := range []*models.User{first, second, first} {
		resp := ts.do(t, http.MethodPost, "/api/users/me/searches", token, fiber.Map{"username": u.Username})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := ts.do(t, http.MethodGet, "/api/users/me/searches", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	recent := decode[[]models.UserSummary](t, resp)
	require.Len(t, recent, 2)
	assert.Equal(t, first.ID, recent[0].ID)
	assert.Equal(t, second.ID, recent[1].ID)

	resp = ts.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	self := decode[service.SelfProfile](t, resp)
	assert.Len(t, self.RecentSearches, 2)

	resp = ts.do(t, http.MethodPost, "/api/users/me/searches", token, fiber.Map{"username": "no_such_user"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp = ts.do(t, http.MethodPost, "/api/users/me/searches", token, fiber.Map{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/users/me/searches", token, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = ts.do(t, http.MethodGet, "/api/users/me/searches", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[[]models.UserSummary](t, resp))
}
