package repository

import (
	"context"
	"fmt"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository stores likes and keeps the target's like_count in step.
type LikeRepository interface {
	Create(ctx context.Context, userID uint, target models.LikeTarget) (*models.Like, error)
	Delete(ctx context.Context, userID uint, target models.LikeTarget) error
	Count(ctx context.Context, target models.LikeTarget) (int64, error)
}

type likeRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db, log: observability.NewRepoLogger("likes")}
}

func targetModel(kind models.LikeTargetKind) (interface{}, string, error) {
	switch kind {
	case models.LikeTargetPost:
		return &models.Post{}, "Post", nil
	case models.LikeTargetComment:
		return &models.Comment{}, "Comment", nil
	default:
		return nil, "", models.NewValidationError(fmt.Sprintf("unknown like target %q", kind))
	}
}

// Create records the like and increments like_count in one transaction.
// A second like by the same user is a Conflict; a missing target is NotFound.
func (r *likeRepository) Create(ctx context.Context, userID uint, target models.LikeTarget) (*models.Like, error) {
	model, resource, err := targetModel(target.Kind)
	if err != nil {
		return nil, err
	}

	like := &models.Like{UserID: userID, TargetKind: target.Kind, TargetID: target.ID}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bumped := tx.Model(model).
			Where("id = ?", target.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1"))
		if bumped.Error != nil {
			return bumped.Error
		}
		if bumped.RowsAffected == 0 {
			return models.NewNotFoundError(resource, target.ID)
		}

		inserted := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if inserted.Error != nil {
			return inserted.Error
		}
		if inserted.RowsAffected == 0 {
			return models.NewConflictError(resource + " already liked")
		}
		return nil
	})
	if err != nil {
		return nil, writeError(ctx, r.log, err, resource+" already liked", "create")
	}
	return like, nil
}

// Delete removes the user's like on target and decrements like_count in one
// transaction. NotFound when the user has no like on target.
func (r *likeRepository) Delete(ctx context.Context, userID uint, target models.LikeTarget) error {
	model, _, err := targetModel(target.Kind)
	if err != nil {
		return err
	}

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		removed := tx.
			Where("user_id = ? AND target_kind = ? AND target_id = ?", userID, target.Kind, target.ID).
			Delete(&models.Like{})
		if removed.Error != nil {
			return removed.Error
		}
		if removed.RowsAffected == 0 {
			return models.NewNotFoundMessage("Like not found")
		}
		return tx.Unscoped().Model(model).
			Where("id = ?", target.ID).
			UpdateColumn("like_count", gorm.Expr("like_count - 1")).Error
	})
	if err != nil {
		return internalError(ctx, r.log, err, "delete")
	}
	return nil
}

// Count returns the number of like rows on target.
func (r *likeRepository) Count(ctx context.Context, target models.LikeTarget) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("target_kind = ? AND target_id = ?", target.Kind, target.ID).
		Count(&count).Error; err != nil {
		return 0, internalError(ctx, r.log, err, "count")
	}
	return count, nil
}
