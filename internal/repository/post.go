package repository

import (
	"context"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error)
	ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]models.Post, error)
	Sample(ctx context.Context, n int, viewerID uint) ([]models.Post, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
}

type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return internalError(ctx, r.log, err, "create")
	}
	if err := r.db.WithContext(ctx).Preload("User").First(post, post.ID).Error; err != nil {
		return internalError(ctx, r.log, err, "reload")
	}
	return nil
}

// GetByID loads the post with its author. Liked reflects viewerID when non-zero.
func (r *postRepository) GetByID(ctx context.Context, id, viewerID uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, lookupError(ctx, r.log, err, "Post", id)
	}
	posts := []models.Post{post}
	if err := r.markLiked(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit, 20, 100)).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "list_by_user")
	}
	return posts, nil
}

// ListByAuthors returns one page of posts by any of authorIDs, newest first
// with ID as the tiebreak. An empty author set yields an empty page.
func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]models.Post, error) {
	posts := []models.Post{}
	if len(authorIDs) == 0 {
		return posts, nil
	}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id IN ?", authorIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "list_by_authors")
	}
	if err := r.markLiked(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// Sample returns up to n posts in random order.
func (r *postRepository) Sample(ctx context.Context, n int, viewerID uint) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("RANDOM()").
		Limit(n).
		Find(&posts).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "sample")
	}
	if err := r.markLiked(ctx, viewerID, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdateContent replaces the caption of a live post.
func (r *postRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	result := r.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Update("content", content)
	if result.Error != nil {
		return internalError(ctx, r.log, result.Error, "update_content")
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

// Delete soft-deletes the post and its comments and hard-deletes every like
// on either, in one transaction.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Post{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return models.NewNotFoundError("Post", id)
		}
		commentIDs := tx.Unscoped().Model(&models.Comment{}).Select("id").Where("post_id = ?", id)
		if err := tx.Where("target_kind = ? AND target_id IN (?)", models.LikeTargetComment, commentIDs).
			Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("target_kind = ? AND target_id = ?", models.LikeTargetPost, id).Delete(&models.Like{}).Error
	})
	if err != nil {
		return internalError(ctx, r.log, err, "delete")
	}
	return nil
}

func (r *postRepository) markLiked(ctx context.Context, viewerID uint, posts []models.Post) error {
	if viewerID == 0 || len(posts) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	var liked []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND target_kind = ? AND target_id IN ?", viewerID, models.LikeTargetPost, ids).
		Pluck("target_id", &liked).Error; err != nil {
		return internalError(ctx, r.log, err, "liked_ids")
	}
	set := make(map[uint]struct{}, len(liked))
	for _, id := range liked {
		set[id] = struct{}{}
	}
	for i := range posts {
		_, posts[i].Liked = set[posts[i].ID]
	}
	return nil
}
