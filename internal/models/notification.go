package models

import "time"

// NotificationKind names the social action that produced a notification.
type NotificationKind string

const (
	NotificationFollowed        NotificationKind = "followed"
	NotificationLikedPost       NotificationKind = "likedPost"
	NotificationLikedComment    NotificationKind = "likedComment"
	NotificationCommentedOnPost NotificationKind = "commentedOnPost"
)

// Valid reports whether k is a known kind.
func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationFollowed, NotificationLikedPost, NotificationLikedComment, NotificationCommentedOnPost:
		return true
	}
	return false
}

// NotificationSubject points at the post and/or comment a notification is about.
type NotificationSubject struct {
	PostID    *uint `json:"post_id,omitempty"`
	CommentID *uint `json:"comment_id,omitempty"`
}

// IsZero reports whether the subject references nothing.
func (s NotificationSubject) IsZero() bool {
	return s.PostID == nil && s.CommentID == nil
}

// Notification is a persisted record of a social action aimed at Recipient.
// A user's inbox is the recipient index read newest first.
type Notification struct {
	ID               uint             `gorm:"primaryKey" json:"id"`
	RecipientID      uint             `gorm:"not null;index:idx_notifications_recipient_created,priority:1" json:"recipient_id"`
	ActorID          uint             `gorm:"not null" json:"actor_id"`
	Actor            User             `gorm:"foreignKey:ActorID" json:"actor"`
	Kind             NotificationKind `gorm:"type:varchar(32);not null" json:"kind"`
	SubjectPostID    *uint            `json:"subject_post_id,omitempty"`
	SubjectCommentID *uint            `json:"subject_comment_id,omitempty"`
	Read             bool             `gorm:"not null;default:false" json:"read"`
	CreatedAt        time.Time        `gorm:"index:idx_notifications_recipient_created,priority:2" json:"created_at"`
}

// Subject returns the subject references of n.
func (n *Notification) Subject() NotificationSubject {
	return NotificationSubject{PostID: n.SubjectPostID, CommentID: n.SubjectCommentID}
}

// NotificationEvent is the payload of a live "notification" push.
type NotificationEvent struct {
	ID        uint                 `json:"id"`
	Kind      NotificationKind     `json:"kind"`
	Actor     UserSummary          `json:"actor"`
	Subject   *NotificationSubject `json:"subject,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// Event builds the push payload for n. Actor must be loaded.
func (n *Notification) Event() NotificationEvent {
	ev := NotificationEvent{
		ID:        n.ID,
		Kind:      n.Kind,
		Actor:     n.Actor.Summary(),
		CreatedAt: n.CreatedAt,
	}
	if subject := n.Subject(); !subject.IsZero() {
		ev.Subject = &subject
	}
	return ev
}
