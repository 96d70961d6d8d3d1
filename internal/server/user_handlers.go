package server

import (
	"strings"

	"pixelgram/internal/models"
	"pixelgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

type updateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,max=30"`
	Bio      *string `json:"bio" validate:"omitempty,max=150"`
	Website  *string `json:"website" validate:"omitempty,max=120"`
	Avatar   *string `json:"avatar" validate:"omitempty,max=2048"`
}

type recentSearchRequest struct {
	Username string `json:"username" validate:"required,max=30"`
}

// GetMyProfile handles GET /api/users/me
// @Summary Get own profile
// @Description Own profile with relationship summaries and the newest notifications
// @Tags users
// @Produce json
// @Success 200 {object} service.SelfProfile
// @Security BearerAuth
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetSelf(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PATCH /api/users/me
// @Summary Edit own profile
// @Description Absent fields are kept; an empty bio or website clears it
// @Tags users
// @Accept json
// @Produce json
// @Param request body updateProfileRequest true "Profile fields"
// @Success 200 {object} service.SelfProfile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me [patch]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.userService.UpdateProfile(c.UserContext(), currentUserID(c), service.UpdateProfileInput{
		Username: req.Username,
		Bio:      req.Bio,
		Website:  req.Website,
		Avatar:   req.Avatar,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(profile)
}

// GetRecentSearches handles GET /api/users/me/searches
// @Summary Recently searched users, most recent first
// @Tags users
// @Produce json
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /users/me/searches [get]
func (s *Server) GetRecentSearches(c *fiber.Ctx) error {
	users, err := s.userService.RecentSearches(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(users)
}

// AddRecentSearch handles POST /api/users/me/searches
// @Summary Remember a user picked from search results
// @Tags users
// @Accept json
// @Produce json
// @Param request body recentSearchRequest true "Searched user"
// @Success 200 {array} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/me/searches [post]
func (s *Server) AddRecentSearch(c *fiber.Ctx) error {
	var req recentSearchRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if err := s.userService.AddRecentSearch(c.UserContext(), currentUserID(c), req.Username); err != nil {
		return respondAppError(c, err)
	}
	return s.GetRecentSearches(c)
}

// ClearRecentSearches handles DELETE /api/users/me/searches
// @Summary Forget all recent searches
// @Tags users
// @Success 204
// @Security BearerAuth
// @Router /users/me/searches [delete]
func (s *Server) ClearRecentSearches(c *fiber.Ctx) error {
	if err := s.userService.ClearRecentSearches(c.UserContext(), currentUserID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SearchUsers handles GET /api/users/search?q=
// @Summary Search users by username prefix
// @Tags users
// @Produce json
// @Param q query string true "Username prefix"
// @Param limit query int false "Max results"
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.userService.Search(c.UserContext(), strings.TrimSpace(c.Query("q")), page.Limit)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(users)
}

// GetUserProfile handles GET /api/users/:username
// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} service.Profile
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetProfile(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(profile)
}

// GetFollowers handles GET /api/users/:username/followers
// @Summary List followers
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /users/{username}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.userService.Followers(c.UserContext(), c.Params("username"), page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(users)
}

// GetFollowing handles GET /api/users/:username/following
// @Summary List followed users
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {array} models.UserSummary
// @Security BearerAuth
// @Router /users/{username}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	users, err := s.userService.Following(c.UserContext(), c.Params("username"), page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(users)
}

// FollowUser handles POST /api/users/:username/follow
// @Summary Follow a user
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.RelationshipSummary
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{username}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	summary, err := s.socialService.Follow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(summary)
}

// UnfollowUser handles DELETE /api/users/:username/follow
// @Summary Unfollow a user
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.RelationshipSummary
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /users/{username}/follow [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	summary, err := s.socialService.Unfollow(c.UserContext(), currentUserID(c), c.Params("username"))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(summary)
}

// GetNotifications handles GET /api/notifications
// @Summary List own notifications, newest first
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.NotificationEvent
// @Security BearerAuth
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	list, err := s.notificationService.ListInbox(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	events := make([]models.NotificationEvent, 0, len(list))
	for i := range list {
		events = append(events, list[i].Event())
	}
	return c.JSON(events)
}
