// Package models contains data structures for the application's domain models.
package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// DefaultAvatarURL returns the generated avatar assigned to new accounts.
func DefaultAvatarURL(username string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", username)
}

// User represents an account in Scrolla.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:30;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;not null" json:"-"`
	Password  string         `gorm:"not null" json:"-"`
	Bio       string         `gorm:"size:200" json:"bio"`
	Avatar    string         `json:"avatar"`
	KidsMode  bool           `gorm:"not null;default:false" json:"kids_mode"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Account is the caller's own user record. It is the only view that carries
// the email address; authors embedded in posts, comments and follow lists
// never serialize it.
type Account struct {
	User
	Email string `json:"email"`
}

// NewAccount exposes u's email for its owner.
func NewAccount(u *User) Account {
	return Account{User: *u, Email: u.Email}
}

// UserProfile is a user with its derived social graph counters.
type UserProfile struct {
	User
	// Email is only set when the viewer is the user.
	Email string `json:"email,omitempty"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
	// IsFollowing reports whether the viewer follows this user (false for anonymous viewers).
	IsFollowing bool `json:"is_following"`
}

// Follow is a directed edge of the social graph: FollowerID follows FolloweeID.
// "following" and "followers" are both derived from this single table.
type Follow struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FollowerID uint      `gorm:"not null;uniqueIndex:idx_follows_pair,priority:1" json:"follower_id"`
	FolloweeID uint      `gorm:"not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}
