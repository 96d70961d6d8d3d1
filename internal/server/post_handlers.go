package server

import (
	"pixelgram/internal/models"
	"pixelgram/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createPostRequest struct {
	Content string   `json:"content" validate:"max=2200"`
	Photos  []string `json:"photos" validate:"max=10,dive,url"`
}

type updatePostRequest struct {
	Content string `json:"content" validate:"required,max=2200"`
}

type createCommentRequest struct {
	Content string `json:"content" validate:"required,max=2200"`
}

// FeedPage is one page of the home feed.
type FeedPage struct {
	Posts    []models.Post `json:"posts"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body createPostRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:  currentUserID(c),
		Content: req.Content,
		Photos:  req.Photos,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.GetPost(c.UserContext(), id, currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PATCH /api/posts/:id
// @Summary Edit the caption of own post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body updatePostRequest true "New caption"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req updatePostRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	post, err := s.postService.UpdatePost(c.UserContext(), currentUserID(c), id, req.Content)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(post)
}

// GetExplore handles GET /api/posts/explore
// @Summary Random posts from everyone
// @Tags posts
// @Produce json
// @Param count query int false "How many posts, at most 50"
// @Success 200 {array} models.Post
// @Security BearerAuth
// @Router /posts/explore [get]
func (s *Server) GetExplore(c *fiber.Ctx) error {
	posts, err := s.postService.ExplorePosts(c.UserContext(), currentUserID(c), c.QueryInt("count", 0))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(posts)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete own post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), id); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

// GetFeed handles GET /api/posts/feed
// @Summary Home feed of followed users, newest first
// @Tags posts
// @Produce json
// @Param page query int false "Page, starting at 1"
// @Param page_size query int false "Page size"
// @Success 200 {object} FeedPage
// @Security BearerAuth
// @Router /posts/feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	def := s.config.FeedPageSize
	if def <= 0 {
		def = service.DefaultFeedPageSize
	}
	page, size := service.NormalizePage(c.QueryInt("page", 1), c.QueryInt("page_size", 0), def)

	posts, err := s.feedService.GetFollowedFeed(c.UserContext(), currentUserID(c), page, size)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(FeedPage{Posts: posts, Page: page, PageSize: size})
}

// LikePost handles POST /api/posts/:id/like
// @Summary Like a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 201 {object} models.Like
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.like(c, models.LikeTargetPost)
}

// UnlikePost handles DELETE /api/posts/:id/like
// @Summary Remove a like from a post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	return s.unlike(c, models.LikeTargetPost)
}

// LikeComment handles POST /api/comments/:id/like
// @Summary Like a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 201 {object} models.Like
// @Failure 409 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id}/like [post]
func (s *Server) LikeComment(c *fiber.Ctx) error {
	return s.like(c, models.LikeTargetComment)
}

// UnlikeComment handles DELETE /api/comments/:id/like
// @Summary Remove a like from a comment
// @Tags comments
// @Produce json
// @Param id path int true "Comment ID"
// @Success 200 {object} object{message=string}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /comments/{id}/like [delete]
func (s *Server) UnlikeComment(c *fiber.Ctx) error {
	return s.unlike(c, models.LikeTargetComment)
}

func (s *Server) like(c *fiber.Ctx, kind models.LikeTargetKind) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	like, err := s.socialService.Like(c.UserContext(), currentUserID(c), models.LikeTarget{Kind: kind, ID: id})
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(like)
}

func (s *Server) unlike(c *fiber.Ctx, kind models.LikeTargetKind) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.socialService.Unlike(c.UserContext(), currentUserID(c), models.LikeTarget{Kind: kind, ID: id}); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Like removed"})
}

// GetComments handles GET /api/posts/:id/comments
// @Summary List comments of a post, oldest first
// @Tags comments
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.Comment
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	comments, err := s.postService.ListComments(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(comments)
}

// CreateComment handles POST /api/posts/:id/comments
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body createCommentRequest true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /posts/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req createCommentRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	comment, err := s.socialService.AddComment(c.UserContext(), currentUserID(c), id, req.Content)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}
