package models

import "time"

// RecentSearch is one entry of a user's search history. A user appears at
// most once per owner; searching again moves them to the front.
type RecentSearch struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;uniqueIndex:idx_recent_searches_pair" json:"-"`
	SearchedUserID uint      `gorm:"not null;uniqueIndex:idx_recent_searches_pair" json:"-"`
	SearchedUser   User      `gorm:"foreignKey:SearchedUserID" json:"-"`
	SearchedAt     time.Time `gorm:"not null;index" json:"searched_at"`
}
