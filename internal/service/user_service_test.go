package service

import (
	"context"
	"strings"
	"testing"

	"scrolla/internal/cache"
	"scrolla/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool { return &b }

func TestUserService_GetProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	follows := noopFollowRepo()
	follows.countsFn = func(_ context.Context, _ uint) (int64, int64, error) { return 3, 7, nil }
	follows.isFollowingFn = func(_ context.Context, followerID, followeeID uint) (bool, error) {
		return followerID == 2 && followeeID == 1, nil
	}
	svc := NewUserService(noopUserRepo(), follows, nil)

	profile, err := svc.GetProfile(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), profile.FollowerCount)
	assert.Equal(t, int64(7), profile.FollowingCount)
	assert.True(t, profile.IsFollowing)

	anon, err := svc.GetProfile(ctx, 1, 0)
	require.NoError(t, err)
	assert.False(t, anon.IsFollowing)
}

func TestUserService_UpdateProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("owner updates", func(t *testing.T) {
		t.Parallel()
		var saved *models.User
		users := noopUserRepo()
		users.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc := NewUserService(users, noopFollowRepo(), nil)

		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{
			ActorID:  4,
			UserID:   4,
			Bio:      strPtr(" hi there "),
			Avatar:   strPtr("https://cdn.example.com/me.webp"),
			KidsMode: boolPtr(true),
		})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "hi there", saved.Bio)
		assert.True(t, saved.KidsMode)
		assert.Equal(t, "user", saved.Username)
	})

	t.Run("bumps the feed version", func(t *testing.T) {
		t.Parallel()
		mr := miniredis.RunT(t)
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = rdb.Close() })
		feed := cache.New(rdb)
		svc := NewUserService(noopUserRepo(), noopFollowRepo(), feed)

		before := feed.FeedKey(ctx, "", false, 1, 20)
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{ActorID: 4, UserID: 4, Username: strPtr("renamed")})
		require.NoError(t, err)
		assert.NotEqual(t, before, feed.FeedKey(ctx, "", false, 1, 20))
	})

	t.Run("other user forbidden", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo(), noopFollowRepo(), nil)
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{ActorID: 4, UserID: 5, Bio: strPtr("x")})
		assertForbiddenError(t, err)
	})

	t.Run("invalid fields", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo(), noopFollowRepo(), nil)
		_, err := svc.UpdateProfile(ctx, UpdateProfileInput{
			ActorID:  4,
			UserID:   4,
			Username: strPtr("a"),
			Bio:      strPtr(strings.Repeat("b", 201)),
			Avatar:   strPtr("not a uri"),
		})
		assertValidationError(t, err)
		appErr := err.(*models.AppError)
		assert.Len(t, appErr.Fields, 3)
	})
}
