package models

import "time"

// LikeTargetKind tags what a Like points at.
type LikeTargetKind string

const (
	LikeTargetPost    LikeTargetKind = "post"
	LikeTargetComment LikeTargetKind = "comment"
)

// Valid reports whether k is a known target kind.
func (k LikeTargetKind) Valid() bool {
	return k == LikeTargetPost || k == LikeTargetComment
}

// LikeTarget identifies a likeable entity.
type LikeTarget struct {
	Kind LikeTargetKind `json:"kind"`
	ID   uint           `json:"id"`
}

// PostTarget returns the LikeTarget for a post.
func PostTarget(postID uint) LikeTarget {
	return LikeTarget{Kind: LikeTargetPost, ID: postID}
}

// CommentTarget returns the LikeTarget for a comment.
func CommentTarget(commentID uint) LikeTarget {
	return LikeTarget{Kind: LikeTargetComment, ID: commentID}
}

// Like records that a user likes a post or a comment.
// One row per (user, kind, target); rows are hard-deleted on unlike so the
// unique index never collides with a tombstone.
type Like struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UserID     uint           `gorm:"not null;uniqueIndex:idx_like_user_target" json:"user_id"`
	TargetKind LikeTargetKind `gorm:"type:varchar(16);not null;uniqueIndex:idx_like_user_target;index:idx_like_target" json:"target_kind"`
	TargetID   uint           `gorm:"not null;uniqueIndex:idx_like_user_target;index:idx_like_target" json:"target_id"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Target returns the tagged target of l.
func (l *Like) Target() LikeTarget {
	return LikeTarget{Kind: l.TargetKind, ID: l.TargetID}
}
