package repository

import (
	"context"

	"pixelgram/internal/models"
	"pixelgram/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NotificationRepository persists a user's inbox.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error)
	CountForRecipient(ctx context.Context, recipientID uint) (int64, error)
}

type notificationRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db, log: observability.NewRepoLogger("notifications")}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(n).Error; err != nil {
		return internalError(ctx, r.log, err, "create")
	}
	return nil
}

// ListForRecipient returns the inbox newest first, actors loaded.
func (r *notificationRepository) ListForRecipient(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	items := []models.Notification{}
	err := r.db.WithContext(ctx).
		Preload("Actor").
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC, id DESC").
		Limit(clampLimit(limit, 20, 100)).
		Offset(offset).
		Find(&items).Error
	if err != nil {
		return nil, internalError(ctx, r.log, err, "list")
	}
	return items, nil
}

func (r *notificationRepository) CountForRecipient(ctx context.Context, recipientID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&count).Error; err != nil {
		return 0, internalError(ctx, r.log, err, "count")
	}
	return count, nil
}
