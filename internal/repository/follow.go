package repository

import (
	"context"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository stores the directed follow graph. Followers and following
// lists are two reads of the same rows.
type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID uint) error
	Delete(ctx context.Context, followerID, followingID uint) error
	Exists(ctx context.Context, followerID, followingID uint) (bool, error)
	GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error)
	Counts(ctx context.Context, userID uint) (followers, following int64, err error)
}

type followRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db, log: observability.NewRepoLogger("follows")}
}

// Create inserts the edge. An existing edge is reported as Conflict by the
// unique index rather than by a prior read.
func (r *followRepository) Create(ctx context.Context, followerID, followingID uint) error {
	follow := models.Follow{FollowerID: followerID, FollowingID: followingID}
	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&follow)
	if result.Error != nil {
		return writeError(ctx, r.log, result.Error, "Already following this user", "create")
	}
	if result.RowsAffected == 0 {
		return models.NewConflictError("Already following this user")
	}
	return nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID uint) error {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return internalError(ctx, r.log, result.Error, "delete")
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundMessage("Not following this user")
	}
	return nil
}

func (r *followRepository) Exists(ctx context.Context, followerID, followingID uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error; err != nil {
		return false, internalError(ctx, r.log, err, "exists")
	}
	return count > 0, nil
}

func (r *followRepository) GetFollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error; err != nil {
		return nil, internalError(ctx, r.log, err, "following_ids")
	}
	return ids, nil
}

func (r *followRepository) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.listUsers(ctx, "follows.follower_id", "follows.following_id = ?", userID, limit, offset)
}

func (r *followRepository) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return r.listUsers(ctx, "follows.following_id", "follows.follower_id = ?", userID, limit, offset)
}

func (r *followRepository) listUsers(ctx context.Context, joinCol, where string, userID uint, limit, offset int) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN follows ON users.id = "+joinCol).
		Where(where, userID).
		Order("follows.created_at DESC, follows.id DESC").
		Limit(clampLimit(limit, 50, 100)).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "list")
	}
	return users, nil
}

func (r *followRepository) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	var followers, following int64
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, internalError(ctx, r.log, err, "count_followers")
	}
	if err := r.db.WithContext(ctx).Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&following).Error; err != nil {
		return 0, 0, internalError(ctx, r.log, err, "count_following")
	}
	return followers, following, nil
}
