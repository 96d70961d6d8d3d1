// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// DefaultAvatar is assigned to accounts created without an avatar.
const DefaultAvatar = "https://api.dicebear.com/9.x/thumbs/svg?seed="

// User represents a user in the Pixelgram application.
//
// Follower and following sets are not stored on the row. Both are projections
// of the follows table, so A follows B and B has follower A are the same fact.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null" json:"-"`
	Password  string         `gorm:"not null" json:"-"`
	Bio       string         `json:"bio"`
	Website   string         `gorm:"size:120" json:"website"`
	Avatar    string         `json:"avatar"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// UserSummary is the public shape embedded in events, chats and lists.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Summary returns the public summary of u. A nil user yields the zero summary.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{ID: u.ID, Username: u.Username, Avatar: u.Avatar}
}

// Summaries maps users to their public summaries, preserving order.
func Summaries(users []User) []UserSummary {
	out := make([]UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}

// BeforeCreate fills in the default avatar.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.Avatar == "" {
		u.Avatar = DefaultAvatar + u.Username
	}
	return nil
}
