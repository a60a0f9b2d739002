package service

import (
	"context"
	"testing"

	"scrolla/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowService_Follow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	missingUsers := noopUserRepo()
	missingUsers.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	duplicate := noopFollowRepo()
	duplicate.followFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }

	tests := []struct {
		name     string
		follows  *followRepoStub
		users    *userRepoStub
		actor    uint
		target   uint
		wantCode string
	}{
		{name: "self", follows: noopFollowRepo(), users: noopUserRepo(), actor: 1, target: 1, wantCode: models.CodeInvalidOperation},
		{name: "missing target", follows: noopFollowRepo(), users: missingUsers, actor: 1, target: 2, wantCode: models.CodeNotFound},
		{name: "already following", follows: duplicate, users: noopUserRepo(), actor: 1, target: 2, wantCode: models.CodeAlreadyExists},
		{name: "success", follows: noopFollowRepo(), users: noopUserRepo(), actor: 1, target: 2},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewFollowService(tt.follows, tt.users)
			err := svc.Follow(ctx, tt.actor, tt.target)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assertCode(t, tt.wantCode, err)
		})
	}
}

func TestFollowService_Unfollow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	notFollowing := noopFollowRepo()
	notFollowing.unfollowFn = func(_ context.Context, _, _ uint) (bool, error) { return false, nil }

	err := NewFollowService(notFollowing, noopUserRepo()).Unfollow(ctx, 1, 2)
	assertCode(t, models.CodeNotFound, err)

	require.NoError(t, NewFollowService(noopFollowRepo(), noopUserRepo()).Unfollow(ctx, 1, 2))
}

func TestFollowService_Lists(t *testing.T) {
	t.Parallel()

	follows := noopFollowRepo()
	follows.listFollowersFn = func(_ context.Context, userID uint, limit, offset int) ([]models.User, error) {
		assert.Equal(t, uint(5), userID)
		assert.Equal(t, 20, limit)
		assert.Equal(t, 20, offset)
		return []models.User{{ID: 9}}, nil
	}
	svc := NewFollowService(follows, noopUserRepo())

	users, err := svc.ListFollowers(context.Background(), 5, 0, 2)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	missing := noopUserRepo()
	missing.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	_, err = NewFollowService(noopFollowRepo(), missing).ListFollowing(context.Background(), 5, 20, 1)
	assertCode(t, models.CodeNotFound, err)
}
