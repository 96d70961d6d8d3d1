package service

import (
	"context"
	"log/slog"

	"pixelgram/internal/models"
	"pixelgram/internal/notifications"
	"pixelgram/internal/observability"
	"pixelgram/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const inboxPreviewSize = 10

// NotificationService persists notifications and pushes them to live channels.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	pusher           Pusher
	log              *observability.WSLogger
}

// NewNotificationService returns a new NotificationService. pusher may be nil,
// in which case notifications are only persisted.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	pusher Pusher,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		pusher:           pusherOrNop(pusher),
		log:              observability.NewWSLogger("notifications"),
	}
}

// Notify records that actorID did kind to recipientID and pushes it if the
// recipient is connected. Acting on yourself produces nothing and returns (nil, nil).
// The notification is persisted whether or not the push reaches anyone.
func (s *NotificationService) Notify(
	ctx context.Context,
	actorID, recipientID uint,
	kind models.NotificationKind,
	subject models.NotificationSubject,
) (*models.Notification, error) {
	ctx, span := observability.StartServiceSpan(ctx, "NotificationService", "Notify",
		attribute.String("notification.kind", string(kind)),
		attribute.Int64("notification.recipient_id", int64(recipientID)),
	)
	defer span.End()

	if actorID == recipientID {
		return nil, nil
	}
	if !kind.Valid() {
		err := models.NewValidationError("Unknown notification kind: " + string(kind))
		span.SetError(err)
		return nil, err
	}

	// Existence goes to the database; a cached summary can outlive the row.
	if _, err := s.userRepo.GetByID(ctx, recipientID); err != nil {
		span.SetError(err)
		return nil, err
	}
	actor, err := s.userRepo.GetSummary(ctx, actorID)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	n := &models.Notification{
		RecipientID:      recipientID,
		ActorID:          actorID,
		Kind:             kind,
		SubjectPostID:    subject.PostID,
		SubjectCommentID: subject.CommentID,
	}
	if err := s.notificationRepo.Create(ctx, n); err != nil {
		span.SetError(err)
		return nil, err
	}
	n.Actor = models.User{ID: actor.ID, Username: actor.Username, Avatar: actor.Avatar}
	observability.NotificationsCreated.WithLabelValues(string(kind)).Inc()

	ev := notifications.Event{Type: notifications.EventNotification, Payload: n.Event()}
	if !s.pusher.Push(ctx, recipientID, ev) {
		s.log.LogLifecycle(ctx, "notification_not_delivered_locally",
			slog.Uint64("user_id", uint64(recipientID)),
			slog.Uint64("notification_id", uint64(n.ID)),
		)
	}
	return n, nil
}

// ListInbox returns the recipient's notifications, newest first.
func (s *NotificationService) ListInbox(ctx context.Context, recipientID uint, limit, offset int) ([]models.Notification, error) {
	ctx, span := observability.StartServiceSpan(ctx, "NotificationService", "ListInbox")
	defer span.End()

	list, err := s.notificationRepo.ListForRecipient(ctx, recipientID, limit, offset)
	span.SetError(err)
	return list, err
}

// notifyQuietly runs Notify for a side effect of a primary action that has
// already committed. Failures are logged and never surface to the caller.
func (s *NotificationService) notifyQuietly(
	ctx context.Context,
	actorID, recipientID uint,
	kind models.NotificationKind,
	subject models.NotificationSubject,
) {
	if s == nil {
		return
	}
	if _, err := s.Notify(ctx, actorID, recipientID, kind, subject); err != nil {
		s.log.LogError(ctx, recipientID, err, "notify_"+string(kind))
	}
}
