// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a feed entry. LikeCount and CommentCount are stored
// counters kept in step with post_likes and comments by atomic increments.
type Post struct {
	ID           uint     `gorm:"primaryKey" json:"id"`
	UserID       uint     `gorm:"not null;index" json:"user_id"`
	User         User     `gorm:"foreignKey:UserID" json:"user"`
	Content      string   `gorm:"type:text;not null" json:"content"`
	Images       []string `gorm:"type:text;serializer:json" json:"images"`
	Mood         Mood     `gorm:"size:16;not null;index:idx_posts_mood_kid_safe,priority:1" json:"mood"`
	Hashtags     []string `gorm:"type:text;serializer:json" json:"hashtags"`
	KidSafe      bool     `gorm:"not null;default:false;index:idx_posts_mood_kid_safe,priority:2" json:"kid_safe"`
	LikeCount    int      `gorm:"not null;default:0" json:"like_count"`
	CommentCount int      `gorm:"not null;default:0" json:"comment_count"`
	// Liked and Saved describe the requesting user's relation to the post (computed)
	Liked     bool           `gorm:"-" json:"liked"`
	Saved     bool           `gorm:"-" json:"saved"`
	Comments  []Comment      `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Comment represents a comment on a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	PostID    uint           `gorm:"not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	User      User           `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time      `gorm:"index:idx_comments_post_created,priority:2" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// Page is a paginated listing envelope.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
}

// NewPage builds the envelope, deriving Pages as ceil(total/limit).
func NewPage[T any](items []T, total int64, page, limit int) Page[T] {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: page, Pages: pages}
}
