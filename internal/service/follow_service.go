package service

import (
	"context"

	"scrolla/internal/models"
	"scrolla/internal/repository"
)

// FollowService provides the follow graph business logic.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
	}
}

// Follow makes userID follow targetID.
func (s *FollowService) Follow(ctx context.Context, userID, targetID uint) error {
	if userID == targetID {
		return models.NewInvalidOperationError("You cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	created, err := s.followRepo.Follow(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if !created {
		return models.NewAlreadyExistsError("You already follow this user")
	}
	return nil
}

// Unfollow removes the follow edge from userID to targetID.
func (s *FollowService) Unfollow(ctx context.Context, userID, targetID uint) error {
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}

	removed, err := s.followRepo.Unfollow(ctx, userID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewNotFoundError("Follow of user", targetID)
	}
	return nil
}

// ListFollowers returns the users following userID, newest first.
func (s *FollowService) ListFollowers(ctx context.Context, userID uint, limit, page int) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	p := NewPagination(limit, page)
	return s.followRepo.ListFollowers(ctx, userID, p.Limit, p.Offset())
}

// ListFollowing returns the users userID follows, newest first.
func (s *FollowService) ListFollowing(ctx context.Context, userID uint, limit, page int) ([]models.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	p := NewPagination(limit, page)
	return s.followRepo.ListFollowing(ctx, userID, p.Limit, p.Offset())
}
