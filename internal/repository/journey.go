package repository

import (
	"context"
	"time"

	"scrolla/internal/models"
	"scrolla/internal/observability"

	"gorm.io/gorm"
)

// JourneyRepository stores timed browsing sessions.
type JourneyRepository interface {
	Create(ctx context.Context, journey *models.Journey) error
	GetByID(ctx context.Context, id uint) (*models.Journey, error)
	// Complete marks an open journey finished. Finishing an already completed
	// journey is an InvalidOperation error.
	Complete(ctx context.Context, id uint, endTime time.Time, postsViewed []uint) (*models.Journey, error)
	// ListByUser returns the user's journeys newest first.
	ListByUser(ctx context.Context, userID uint, limit int) ([]*models.Journey, error)
}

type journeyRepository struct {
	db *gorm.DB
}

// NewJourneyRepository returns the relational JourneyRepository.
func NewJourneyRepository(db *gorm.DB) JourneyRepository {
	return &journeyRepository{db: db}
}

func (r *journeyRepository) Create(ctx context.Context, journey *models.Journey) error {
	if journey.PostsViewed == nil {
		journey.PostsViewed = []uint{}
	}
	if err := r.db.WithContext(ctx).Create(journey).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *journeyRepository) GetByID(ctx context.Context, id uint) (*models.Journey, error) {
	var journey models.Journey
	if err := r.db.WithContext(ctx).First(&journey, id).Error; err != nil {
		return nil, wrapNotFound(err, "Journey", id)
	}
	return &journey, nil
}

func (r *journeyRepository) Complete(ctx context.Context, id uint, endTime time.Time, postsViewed []uint) (*models.Journey, error) {
	defer observability.TrackRepository("journeys", "Complete")()

	if postsViewed == nil {
		postsViewed = []uint{}
	}
	var journey models.Journey
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Journey{}).
			Where("id = ? AND completed = ?", id, false).
			Select("completed", "end_time", "posts_viewed").
			Updates(&models.Journey{Completed: true, EndTime: &endTime, PostsViewed: postsViewed})
		if res.Error != nil {
			return res.Error
		}
		if err := tx.First(&journey, id).Error; err != nil {
			return wrapNotFound(err, "Journey", id)
		}
		if res.RowsAffected == 0 {
			return models.NewInvalidOperationError("Journey already completed")
		}
		return nil
	})
	if err != nil {
		return nil, passAppError(err)
	}
	return &journey, nil
}

func (r *journeyRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]*models.Journey, error) {
	journeys := make([]*models.Journey, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_time DESC").
		Order("id DESC").
		Limit(limit).
		Find(&journeys).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return journeys, nil
}
