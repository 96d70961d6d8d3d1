package repository

import (
	"context"
	"time"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecentSearchRepository keeps each user's recently searched profiles.
type RecentSearchRepository interface {
	Record(ctx context.Context, userID, searchedUserID uint) error
	List(ctx context.Context, userID uint, limit int) ([]models.User, error)
	Clear(ctx context.Context, userID uint) error
}

type recentSearchRepository struct {
	db   *gorm.DB
	keep int
	log  *observability.RepoLogger
}

// NewRecentSearchRepository returns a repository that keeps the newest keep
// entries per user.
func NewRecentSearchRepository(db *gorm.DB, keep int) RecentSearchRepository {
	if keep <= 0 {
		keep = 20
	}
	return &recentSearchRepository{db: db, keep: keep, log: observability.NewRepoLogger("recent_searches")}
}

// Record upserts the entry and trims the history to the newest entries.
func (r *recentSearchRepository) Record(ctx context.Context, userID, searchedUserID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry := models.RecentSearch{UserID: userID, SearchedUserID: searchedUserID, SearchedAt: time.Now()}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "searched_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"searched_at"}),
		}).Create(&entry).Error; err != nil {
			return err
		}
		newest := tx.Model(&models.RecentSearch{}).
			Select("id").
			Where("user_id = ?", userID).
			Order("searched_at DESC, id DESC").
			Limit(r.keep)
		return tx.Where("user_id = ? AND id NOT IN (?)", userID, newest).Delete(&models.RecentSearch{}).Error
	})
	if err != nil {
		return internalError(ctx, r.log, err, "record")
	}
	return nil
}

// List returns the searched users, most recent first. Deleted accounts drop out.
func (r *recentSearchRepository) List(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	users := []models.User{}
	err := r.db.WithContext(ctx).
		Joins("JOIN recent_searches ON recent_searches.searched_user_id = users.id").
		Where("recent_searches.user_id = ?", userID).
		Order("recent_searches.searched_at DESC, recent_searches.id DESC").
		Limit(clampLimit(limit, r.keep, r.keep)).
		Find(&users).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "list")
	}
	return users, nil
}

func (r *recentSearchRepository) Clear(ctx context.Context, userID uint) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RecentSearch{}).Error; err != nil {
		return internalError(ctx, r.log, err, "clear")
	}
	return nil
}
