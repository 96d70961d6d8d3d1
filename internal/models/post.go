package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a post in the Pixelgram application.
// LikeCount always equals the number of likes rows targeting the post; both
// change inside the same transaction.
type Post struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Content      string         `gorm:"type:text" json:"content"`
	Photos       []string       `gorm:"serializer:json" json:"photos"`
	UserID       uint           `gorm:"not null;index" json:"user_id"`
	User         User           `gorm:"foreignKey:UserID" json:"user"`
	LikeCount    int            `gorm:"not null;default:0" json:"like_count"`
	CommentCount int            `gorm:"not null;default:0" json:"comment_count"`
	Liked        bool           `gorm:"-" json:"liked"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
