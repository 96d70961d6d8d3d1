package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"
	"pixelgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	MaxPostLength    = 2200
	MaxPhotosPerPost = 10

	DefaultExploreCount = 12
	MaxExploreCount     = 50
)

// PostService provides post business logic.
type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
}

// CreatePostInput is the input for creating a post. Photos are opaque media URLs.
type CreatePostInput struct {
	UserID  uint
	Content string
	Photos  []string
}

// NewPostService returns a new PostService.
func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
) *PostService {
	return &PostService{postRepo: postRepo, commentRepo: commentRepo, userRepo: userRepo}
}

// CreatePost validates and stores a new post.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "CreatePost",
		attribute.Int64("user.id", int64(in.UserID)),
	)
	defer span.End()

	content := strings.TrimSpace(in.Content)
	photos := make([]string, 0, len(in.Photos))
	for _, p := range in.Photos {
		if p = strings.TrimSpace(p); p != "" {
			photos = append(photos, p)
		}
	}

	var verr error
	switch {
	case content == "" && len(photos) == 0:
		verr = models.NewValidationError("A post needs content or at least one photo")
	case utf8.RuneCountInString(content) > MaxPostLength:
		verr = models.NewValidationError("Post content is too long")
	case len(photos) > MaxPhotosPerPost:
		verr = models.NewValidationError("Too many photos")
	}
	if verr != nil {
		span.SetError(verr)
		return nil, verr
	}

	post := &models.Post{UserID: in.UserID, Content: content, Photos: photos}
	if err := s.postRepo.Create(ctx, post); err != nil {
		span.SetError(err)
		return nil, err
	}
	return post, nil
}

// GetPost returns a post; Liked is computed for viewerID.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, postID, viewerID)
}

// UpdatePost replaces the caption of a post owned by userID. Photos are
// fixed once posted.
func (s *PostService) UpdatePost(ctx context.Context, userID, postID uint, content string) (*models.Post, error) {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "UpdatePost",
		attribute.Int64("post.id", int64(postID)),
	)
	defer span.End()

	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if post.UserID != userID {
		err := models.NewUnauthorizedError("You can only edit your own posts")
		span.SetError(err)
		return nil, err
	}

	content = strings.TrimSpace(content)
	switch {
	case content == "":
		err = models.NewValidationError("Content is required to update a post")
	case utf8.RuneCountInString(content) > MaxPostLength:
		err = models.NewValidationError("Post content is too long")
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	if err := s.postRepo.UpdateContent(ctx, postID, content); err != nil {
		span.SetError(err)
		return nil, err
	}
	return s.postRepo.GetByID(ctx, postID, userID)
}

// ExplorePosts returns a random sample of posts from everyone. count falls
// back to DefaultExploreCount and is capped at MaxExploreCount.
func (s *PostService) ExplorePosts(ctx context.Context, viewerID uint, count int) ([]models.Post, error) {
	if count <= 0 {
		count = DefaultExploreCount
	}
	if count > MaxExploreCount {
		count = MaxExploreCount
	}
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "ExplorePosts",
		attribute.Int("explore.count", count),
	)
	defer span.End()

	posts, err := s.postRepo.Sample(ctx, count, viewerID)
	span.SetError(err)
	return posts, err
}

// DeletePost deletes a post owned by userID.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	ctx, span := observability.StartServiceSpan(ctx, "PostService", "DeletePost",
		attribute.Int64("post.id", int64(postID)),
	)
	defer span.End()

	post, err := s.postRepo.GetByID(ctx, postID, 0)
	if err != nil {
		span.SetError(err)
		return err
	}
	if post.UserID != userID {
		err := models.NewUnauthorizedError("You can only delete your own posts")
		span.SetError(err)
		return err
	}
	err = s.postRepo.Delete(ctx, postID)
	span.SetError(err)
	return err
}

// ListUserPosts returns the posts of the user named username, newest first.
func (s *PostService) ListUserPosts(ctx context.Context, username string, limit, offset int) (*models.User, []models.Post, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.postRepo.ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	return user, posts, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *PostService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return nil, err
	}
	return s.commentRepo.ListByPost(ctx, postID, limit, offset)
}
