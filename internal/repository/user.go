package repository

import (
	"context"
	"errors"
	"strings"

	"pixelgram/internal/cache"
	"pixelgram/internal/models"
	"pixelgram/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetSummary(ctx context.Context, id uint) (*models.UserSummary, error)
	Create(ctx context.Context, user *models.User) error
	Search(ctx context.Context, prefix string, limit int) ([]models.User, error)
	UpdateProfile(ctx context.Context, id uint, changes ProfileChanges) error
}

// ProfileChanges lists the profile columns to overwrite. Nil fields are kept.
type ProfileChanges struct {
	Username *string
	Bio      *string
	Website  *string
	Avatar   *string
}

func (c ProfileChanges) columns() map[string]any {
	cols := map[string]any{}
	if c.Username != nil {
		cols["username"] = *c.Username
	}
	if c.Bio != nil {
		cols["bio"] = *c.Bio
	}
	if c.Website != nil {
		cols["website"] = *c.Website
	}
	if c.Avatar != nil {
		cols["avatar"] = *c.Avatar
	}
	return cols
}

type userRepository struct {
	db    *gorm.DB
	cache *cache.Store
	log   *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository. store may be nil.
func NewUserRepository(db *gorm.DB, store *cache.Store) UserRepository {
	return &userRepository{db: db, cache: store, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, lookupError(ctx, r.log, err, "User", id)
	}
	return &user, nil
}

// GetByEmail returns nil, nil when no account uses email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, internalError(ctx, r.log, err, "get_by_email")
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundMessage("User " + username + " not found")
		}
		return nil, internalError(ctx, r.log, err, "get_by_username")
	}
	return &user, nil
}

// GetSummary reads the public summary of a user through the cache.
// UpdateProfile drops the entry when the username or avatar changes.
func (r *userRepository) GetSummary(ctx context.Context, id uint) (*models.UserSummary, error) {
	var summary models.UserSummary
	err := r.cache.CacheAside(ctx, cache.UserSummaryKey(id), &summary, cache.UserSummaryTTL, func() error {
		user, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		summary = user.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &summary, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(user.Email)
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return writeError(ctx, r.log, err, "Username or email already taken", "create")
	}
	return nil
}

// Search returns users whose username starts with prefix, alphabetically.
func (r *userRepository) Search(ctx context.Context, prefix string, limit int) ([]models.User, error) {
	limit = clampLimit(limit, 20, 50)
	var users []models.User
	err := r.db.WithContext(ctx).
		Where(`LOWER(username) LIKE ? ESCAPE '\'`, strings.ToLower(escapeLike(prefix))+"%").
		Order("username ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "search")
	}
	return users, nil
}

// UpdateProfile writes changes to user id. A taken username is a Conflict.
func (r *userRepository) UpdateProfile(ctx context.Context, id uint, changes ProfileChanges) error {
	cols := changes.columns()
	if len(cols) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(cols)
	if result.Error != nil {
		return writeError(ctx, r.log, result.Error, "Username already taken", "update_profile")
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("User", id)
	}
	if changes.Username != nil || changes.Avatar != nil {
		r.cache.Invalidate(ctx, cache.UserSummaryKey(id))
	}
	return nil
}
