package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"scrolla/internal/models"
	"scrolla/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn           func(context.Context, *models.Post) error
	getByIDFn          func(context.Context, uint) (*models.Post, error)
	listFn             func(context.Context, repository.PostFilter) ([]*models.Post, int64, error)
	listSavedFn        func(context.Context, uint, int, int) ([]*models.Post, int64, error)
	updateFn           func(context.Context, *models.Post) error
	deleteFn           func(context.Context, uint) error
	toggleLikeFn       func(context.Context, uint, uint) (bool, int, error)
	toggleMembershipFn func(context.Context, models.PostSet, uint, uint) (bool, error)
	relationsFn        func(context.Context, uint, []uint) (map[uint]bool, map[uint]bool, error)
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, f repository.PostFilter) ([]*models.Post, int64, error) {
	return s.listFn(ctx, f)
}
func (s *postRepoStub) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, int64, error) {
	return s.listSavedFn(ctx, userID, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *postRepoStub) ToggleLike(ctx context.Context, userID, postID uint) (bool, int, error) {
	return s.toggleLikeFn(ctx, userID, postID)
}
func (s *postRepoStub) ToggleMembership(ctx context.Context, set models.PostSet, userID, postID uint) (bool, error) {
	return s.toggleMembershipFn(ctx, set, userID, postID)
}
func (s *postRepoStub) Relations(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, map[uint]bool, error) {
	return s.relationsFn(ctx, userID, postIDs)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return &models.Post{ID: id}, nil },
		listFn: func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		listSavedFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Post, int64, error) {
			return nil, 0, nil
		},
		updateFn:     func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
		toggleLikeFn: func(_ context.Context, _, _ uint) (bool, int, error) { return true, 1, nil },
		toggleMembershipFn: func(_ context.Context, _ models.PostSet, _, _ uint) (bool, error) {
			return true, nil
		},
		relationsFn: func(_ context.Context, _ uint, _ []uint) (map[uint]bool, map[uint]bool, error) {
			return map[uint]bool{}, map[uint]bool{}, nil
		},
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint) ([]*models.Comment, error)
	updateFn     func(context.Context, *models.Comment) error
	deleteFn     func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, comment *models.Comment) error {
	return s.createFn(ctx, comment)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID)
}
func (s *commentRepoStub) Update(ctx context.Context, comment *models.Comment) error {
	return s.updateFn(ctx, comment)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, _ uint) (*models.Comment, error) { return &models.Comment{}, nil },
		listByPostFn: func(_ context.Context, _ uint) ([]*models.Comment, error) { return nil, nil },
		updateFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn    func(context.Context, uint) (*models.User, error)
	getByEmailFn func(context.Context, string) (*models.User, error)
	createFn     func(context.Context, *models.User) error
	updateFn     func(context.Context, *models.User) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "user"}, nil
		},
		getByEmailFn: func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:     func(_ context.Context, _ *models.User) error { return nil },
		updateFn:     func(_ context.Context, _ *models.User) error { return nil },
	}
}

// followRepoStub is a stub for repository.FollowRepository.
type followRepoStub struct {
	followFn        func(context.Context, uint, uint) (bool, error)
	unfollowFn      func(context.Context, uint, uint) (bool, error)
	isFollowingFn   func(context.Context, uint, uint) (bool, error)
	listFollowersFn func(context.Context, uint, int, int) ([]models.User, error)
	listFollowingFn func(context.Context, uint, int, int) ([]models.User, error)
	countsFn        func(context.Context, uint) (int64, int64, error)
}

func (s *followRepoStub) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.followFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.unfollowFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followeeID)
}
func (s *followRepoStub) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return s.listFollowersFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.User, error) {
	return s.listFollowingFn(ctx, userID, limit, offset)
}
func (s *followRepoStub) Counts(ctx context.Context, userID uint) (int64, int64, error) {
	return s.countsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:        func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unfollowFn:      func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		isFollowingFn:   func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listFollowersFn: func(_ context.Context, _ uint, _, _ int) ([]models.User, error) { return nil, nil },
		listFollowingFn: func(_ context.Context, _ uint, _, _ int) ([]models.User, error) { return nil, nil },
		countsFn:        func(_ context.Context, _ uint) (int64, int64, error) { return 0, 0, nil },
	}
}

// journeyRepoStub is a stub for repository.JourneyRepository.
type journeyRepoStub struct {
	createFn     func(context.Context, *models.Journey) error
	getByIDFn    func(context.Context, uint) (*models.Journey, error)
	completeFn   func(context.Context, uint, time.Time, []uint) (*models.Journey, error)
	listByUserFn func(context.Context, uint, int) ([]*models.Journey, error)
}

func (s *journeyRepoStub) Create(ctx context.Context, j *models.Journey) error {
	return s.createFn(ctx, j)
}
func (s *journeyRepoStub) GetByID(ctx context.Context, id uint) (*models.Journey, error) {
	return s.getByIDFn(ctx, id)
}
func (s *journeyRepoStub) Complete(ctx context.Context, id uint, end time.Time, viewed []uint) (*models.Journey, error) {
	return s.completeFn(ctx, id, end, viewed)
}
func (s *journeyRepoStub) ListByUser(ctx context.Context, userID uint, limit int) ([]*models.Journey, error) {
	return s.listByUserFn(ctx, userID, limit)
}

func noopJourneyRepo() *journeyRepoStub {
	return &journeyRepoStub{
		createFn:  func(_ context.Context, _ *models.Journey) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Journey, error) { return &models.Journey{ID: id}, nil },
		completeFn: func(_ context.Context, id uint, end time.Time, viewed []uint) (*models.Journey, error) {
			return &models.Journey{ID: id, Completed: true, EndTime: &end, PostsViewed: viewed}, nil
		},
		listByUserFn: func(_ context.Context, _ uint, _ int) ([]*models.Journey, error) { return nil, nil },
	}
}

func assertCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, models.CodeValidation, err)
}

// assertForbiddenError asserts that err is an AppError with code FORBIDDEN.
func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assertCode(t, models.CodeForbidden, err)
}
