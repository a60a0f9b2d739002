package service

import (
	"context"
	"strings"

	"scrolla/internal/cache"
	"scrolla/internal/models"
	"scrolla/internal/repository"
	"scrolla/internal/validation"
)

const maxBioLen = 200

type UserService struct {
	userRepo   repository.UserRepository
	followRepo repository.FollowRepository
	// feed pages embed author names and avatars
	cache *cache.Cache
}

// UpdateProfileInput carries a partial profile edit; nil fields are left unchanged.
type UpdateProfileInput struct {
	ActorID  uint
	UserID   uint
	Username *string
	Bio      *string
	Avatar   *string
	KidsMode *bool
}

// NewUserService wires the profile rules. feed may be nil.
func NewUserService(userRepo repository.UserRepository, followRepo repository.FollowRepository, feed *cache.Cache) *UserService {
	return &UserService{userRepo: userRepo, followRepo: followRepo, cache: feed}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetProfile returns the user with follower counts. IsFollowing is filled for
// authenticated viewers other than the user.
func (s *UserService) GetProfile(ctx context.Context, id, viewerID uint) (*models.UserProfile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	followers, following, err := s.followRepo.Counts(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &models.UserProfile{
		User:           *user,
		FollowerCount:  followers,
		FollowingCount: following,
	}
	if viewerID == id {
		profile.Email = user.Email
	}
	if viewerID != 0 && viewerID != id {
		profile.IsFollowing, err = s.followRepo.IsFollowing(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
	}
	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.UserProfile, error) {
	if err := AssertOwner(in.ActorID, in.UserID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	var fields []models.FieldError
	if in.Username != nil {
		username := strings.TrimSpace(*in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			fields = append(fields, models.FieldError{Field: "username", Message: err.Error()})
		}
		user.Username = username
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if err := validation.ValidateLength("bio", bio, 0, maxBioLen); err != nil {
			fields = append(fields, models.FieldError{Field: "bio", Message: err.Error()})
		}
		user.Bio = bio
	}
	if in.Avatar != nil {
		if err := validation.ValidateURI(*in.Avatar); err != nil {
			fields = append(fields, models.FieldError{Field: "avatar", Message: err.Error()})
		}
		user.Avatar = *in.Avatar
	}
	if in.KidsMode != nil {
		user.KidsMode = *in.KidsMode
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields...)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	s.cache.InvalidateFeed(ctx)
	return s.GetProfile(ctx, user.ID, user.ID)
}
