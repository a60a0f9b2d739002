package models

import "time"

// PostLike records that a user likes a post.
type PostLike struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post,priority:1" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_user_post,priority:2;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// SavedPost is a post in a user's saved set.
type SavedPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_saved_posts_user_post,priority:1" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_saved_posts_user_post,priority:2" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// HiddenPost is a post the user asked not to see.
type HiddenPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_hidden_posts_user_post,priority:1" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_hidden_posts_user_post,priority:2" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportedPost is a post the user flagged for moderation.
type ReportedPost struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reported_posts_user_post,priority:1" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_reported_posts_user_post,priority:2;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// PostSet names one of the per-user membership sets.
type PostSet string

const (
	SetSaved    PostSet = "saved"
	SetHidden   PostSet = "hidden"
	SetReported PostSet = "reported"
)
