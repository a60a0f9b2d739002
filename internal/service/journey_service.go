package service

import (
	"context"
	"time"

	"scrolla/internal/models"
	"scrolla/internal/repository"
)

// JourneyService runs timed browsing sessions.
type JourneyService struct {
	repo repository.JourneyRepository
	now  func() time.Time
}

type StartJourneyInput struct {
	UserID   uint
	Mood     string
	Purpose  string
	Duration int
}

// CompleteJourneyInput finishes a journey. A nil PostsViewed keeps the
// journey's current list.
type CompleteJourneyInput struct {
	UserID      uint
	JourneyID   uint
	PostsViewed *[]uint
}

func NewJourneyService(repo repository.JourneyRepository) *JourneyService {
	return &JourneyService{repo: repo, now: time.Now}
}

func (s *JourneyService) Start(ctx context.Context, in StartJourneyInput) (*models.Journey, error) {
	var fields []models.FieldError
	mood := models.JourneyMood(in.Mood)
	if !mood.Valid() {
		fields = append(fields, models.FieldError{Field: "mood", Message: "mood must be one of calm, focused, motivated, low, happy, stressed"})
	}
	purpose := models.JourneyPurpose(in.Purpose)
	if !purpose.Valid() {
		fields = append(fields, models.FieldError{Field: "purpose", Message: "purpose must be one of learn, relax, discuss, inspire, entertain"})
	}
	if !models.ValidJourneyDuration(in.Duration) {
		fields = append(fields, models.FieldError{Field: "duration", Message: "duration must be 5, 10, 20 or 30 minutes"})
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields...)
	}

	journey := &models.Journey{
		UserID:      in.UserID,
		Mood:        mood,
		Purpose:     purpose,
		Duration:    in.Duration,
		StartTime:   s.now().UTC(),
		PostsViewed: []uint{},
	}
	if err := s.repo.Create(ctx, journey); err != nil {
		return nil, err
	}
	return journey, nil
}

func (s *JourneyService) Complete(ctx context.Context, in CompleteJourneyInput) (*models.Journey, error) {
	journey, err := s.repo.GetByID(ctx, in.JourneyID)
	if err != nil {
		return nil, err
	}
	if err := AssertOwner(in.UserID, journey.UserID); err != nil {
		return nil, err
	}
	if journey.Completed {
		return nil, models.NewInvalidOperationError("Journey already completed")
	}

	viewed := journey.PostsViewed
	if in.PostsViewed != nil {
		viewed = *in.PostsViewed
	}
	return s.repo.Complete(ctx, journey.ID, s.now().UTC(), viewed)
}

// History returns the user's most recent journeys, newest first.
func (s *JourneyService) History(ctx context.Context, userID uint) ([]*models.Journey, error) {
	return s.repo.ListByUser(ctx, userID, historyLimit)
}
