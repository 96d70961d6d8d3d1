package service

import (
	"context"
	"math"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"
	"pixelgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultFeedPageSize = 10
	MaxFeedPageSize     = 100
)

// FeedService assembles the home feed from followed authors.
type FeedService struct {
	followRepo      repository.FollowRepository
	postRepo        repository.PostRepository
	defaultPageSize int
}

// NewFeedService returns a new FeedService. A non-positive defaultPageSize
// falls back to DefaultFeedPageSize.
func NewFeedService(followRepo repository.FollowRepository, postRepo repository.PostRepository, defaultPageSize int) *FeedService {
	if defaultPageSize <= 0 {
		defaultPageSize = DefaultFeedPageSize
	}
	return &FeedService{followRepo: followRepo, postRepo: postRepo, defaultPageSize: defaultPageSize}
}

// NormalizePage clamps paging input: page starts at 1, size falls back to def
// and never exceeds MaxFeedPageSize.
func NormalizePage(page, size, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if size > MaxFeedPageSize {
		size = MaxFeedPageSize
	}
	return page, size
}

// PageOffset returns the row offset of page. ok is false when the offset
// does not fit in an int; no result set reaches that far.
func PageOffset(page, size int) (offset int, ok bool) {
	if page < 1 || size <= 0 {
		return 0, true
	}
	if page-1 > math.MaxInt/size {
		return 0, false
	}
	return (page - 1) * size, true
}

// GetFollowedFeed returns one page of posts by the users userID follows,
// newest first. Pages are offset based, so a post inserted between two reads
// can shift an item onto the next page.
func (s *FeedService) GetFollowedFeed(ctx context.Context, userID uint, page, pageSize int) ([]models.Post, error) {
	page, pageSize = NormalizePage(page, pageSize, s.defaultPageSize)
	ctx, span := observability.StartServiceSpan(ctx, "FeedService", "GetFollowedFeed",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int("feed.page", page),
		attribute.Int("feed.page_size", pageSize),
	)
	defer span.End()

	offset, ok := PageOffset(page, pageSize)
	if !ok {
		return []models.Post{}, nil
	}

	authors, err := s.followRepo.GetFollowingIDs(ctx, userID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}
	if len(authors) == 0 {
		return []models.Post{}, nil
	}

	posts, err := s.postRepo.ListByAuthors(ctx, authors, pageSize, offset, userID)
	span.SetError(err)
	return posts, err
}
