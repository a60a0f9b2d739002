package models

import "time"

// Journey is a timed, mood-driven browsing session.
type Journey struct {
	ID          uint           `gorm:"primaryKey" json:"id" bson:"_id"`
	UserID      uint           `gorm:"not null;index:idx_journeys_user_start,priority:1" json:"user_id" bson:"user_id"`
	Mood        JourneyMood    `gorm:"size:16;not null" json:"mood" bson:"mood"`
	Purpose     JourneyPurpose `gorm:"size:16;not null" json:"purpose" bson:"purpose"`
	Duration    int            `gorm:"not null" json:"duration" bson:"duration"`
	StartTime   time.Time      `gorm:"not null;index:idx_journeys_user_start,priority:2" json:"start_time" bson:"start_time"`
	EndTime     *time.Time     `json:"end_time" bson:"end_time,omitempty"`
	PostsViewed []uint         `gorm:"type:text;serializer:json" json:"posts_viewed" bson:"posts_viewed"`
	Completed   bool           `gorm:"not null;default:false" json:"completed" bson:"completed"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" bson:"updated_at"`
}
