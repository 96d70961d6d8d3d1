package models

import "time"

// Follow is one directed edge of the social graph: Follower follows Following.
// The unique pair index turns a duplicate follow into a constraint violation.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_follower_following" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_follower_following;index" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID" json:"-"`
	Following User `gorm:"foreignKey:FollowingID" json:"-"`
}

// TableName specifies the table name for GORM
func (Follow) TableName() string {
	return "follows"
}

// RelationshipSummary is returned by follow and unfollow.
type RelationshipSummary struct {
	User           UserSummary `json:"user"`
	Following      bool        `json:"following"`
	FollowersCount int64       `json:"followers_count"`
	FollowingCount int64       `json:"following_count"`
}
