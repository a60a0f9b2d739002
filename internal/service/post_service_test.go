package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"scrolla/internal/cache"
	"scrolla/internal/featureflags"
	"scrolla/internal/models"
	"scrolla/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopCommentRepo(), noopUserRepo(), nil, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreatePostInput
	}{
		{"empty content", CreatePostInput{UserID: 1, Content: "   ", Mood: "calm"}},
		{"content too long", CreatePostInput{UserID: 1, Content: strings.Repeat("x", 1001), Mood: "calm"}},
		{"missing mood", CreatePostInput{UserID: 1, Content: "hello"}},
		{"wildcard mood", CreatePostInput{UserID: 1, Content: "hello", Mood: "all"}},
		{"unknown mood", CreatePostInput{UserID: 1, Content: "hello", Mood: "angry"}},
		{"too many images", CreatePostInput{UserID: 1, Content: "hello", Mood: "calm", Images: make([]string, 11)}},
		{"bad image uri", CreatePostInput{UserID: 1, Content: "hello", Mood: "calm", Images: []string{"ftp://x/y.png"}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreatePost(ctx, tt.in)
			assertValidationError(t, err)
		})
	}
}

func TestPostService_CreatePost_Success(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	var stored *models.Post
	postRepo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = 7
		stored = p
		return nil
	}
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Username: "alice"}, nil
	}

	svc := NewPostService(postRepo, noopCommentRepo(), users, nil, nil)
	post, err := svc.CreatePost(context.Background(), CreatePostInput{
		UserID:   3,
		Content:  "  sunrise walk  ",
		Mood:     "calm",
		Hashtags: []string{"#Morning", "morning", " ", "walk"},
		Images:   []string{"https://cdn.example.com/a.webp", "/uploads/b.webp"},
		KidSafe:  true,
	})
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, uint(7), post.ID)
	assert.Equal(t, "sunrise walk", post.Content)
	assert.Equal(t, []string{"Morning", "walk"}, post.Hashtags)
	assert.Equal(t, models.MoodCalm, post.Mood)
	assert.True(t, post.KidSafe)
	assert.Equal(t, "alice", post.User.Username)
}

func TestPostService_CreatePost_UnknownAuthor(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}
	svc := NewPostService(noopPostRepo(), noopCommentRepo(), users, nil, nil)

	_, err := svc.CreatePost(context.Background(), CreatePostInput{UserID: 9, Content: "hi", Mood: "low"})
	assertCode(t, models.CodeNotFound, err)
}

func TestPostService_ListPosts_Filters(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name        string
		in          ListPostsInput
		kidsMode    bool
		flags       string
		wantMood    models.Mood
		wantKidSafe bool
		wantSuppr   uint
		wantLimit   int
		wantOffset  int
	}{
		{name: "defaults", in: ListPostsInput{}, wantLimit: 20},
		{name: "all wildcard", in: ListPostsInput{Mood: "all"}, wantLimit: 20},
		{name: "mood filter", in: ListPostsInput{Mood: "Energetic"}, wantMood: models.MoodEnergetic, wantLimit: 20},
		{name: "kid safe query", in: ListPostsInput{KidSafe: true}, wantKidSafe: true, wantLimit: 20},
		{name: "viewer kids mode", in: ListPostsInput{ViewerID: 4}, kidsMode: true, wantKidSafe: true, wantLimit: 20},
		{name: "limit capped", in: ListPostsInput{Limit: 500, Page: 3}, wantLimit: 100, wantOffset: 200},
		{name: "suppression flag", in: ListPostsInput{ViewerID: 4}, flags: "server_side_suppression=on", wantSuppr: 4, wantLimit: 20},
		{name: "suppression ignored for anonymous", in: ListPostsInput{}, flags: "server_side_suppression=on", wantLimit: 20},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got repository.PostFilter
			postRepo := noopPostRepo()
			postRepo.listFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, int64, error) {
				got = f
				return []*models.Post{{ID: 1}}, 41, nil
			}
			users := noopUserRepo()
			users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
				return &models.User{ID: id, KidsMode: tt.kidsMode}, nil
			}

			svc := NewPostService(postRepo, noopCommentRepo(), users, nil, featureflags.NewManager(tt.flags))
			page, err := svc.ListPosts(ctx, tt.in)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMood, got.Mood)
			assert.Equal(t, tt.wantKidSafe, got.KidSafeOnly)
			assert.Equal(t, tt.wantSuppr, got.SuppressFor)
			assert.Equal(t, tt.wantLimit, got.Limit)
			assert.Equal(t, tt.wantOffset, got.Offset)
			assert.Equal(t, int64(41), page.Total)
			assert.Equal(t, (41+tt.wantLimit-1)/tt.wantLimit, page.Pages)
		})
	}
}

func TestPostService_ListPosts_InvalidMood(t *testing.T) {
	t.Parallel()

	svc := NewPostService(noopPostRepo(), noopCommentRepo(), noopUserRepo(), nil, nil)
	_, err := svc.ListPosts(context.Background(), ListPostsInput{Mood: "grumpy"})
	assertValidationError(t, err)
}

func TestPostService_ListPosts_DecoratesViewer(t *testing.T) {
	t.Parallel()

	postRepo := noopPostRepo()
	postRepo.listFn = func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
		return []*models.Post{{ID: 1}, {ID: 2}}, 2, nil
	}
	postRepo.relationsFn = func(_ context.Context, userID uint, ids []uint) (map[uint]bool, map[uint]bool, error) {
		assert.Equal(t, uint(5), userID)
		assert.Equal(t, []uint{1, 2}, ids)
		return map[uint]bool{2: true}, map[uint]bool{1: true}, nil
	}

	svc := NewPostService(postRepo, noopCommentRepo(), noopUserRepo(), nil, nil)
	page, err := svc.ListPosts(context.Background(), ListPostsInput{ViewerID: 5})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.False(t, page.Items[0].Liked)
	assert.True(t, page.Items[0].Saved)
	assert.True(t, page.Items[1].Liked)
	assert.Equal(t, 1, page.Pages)
}

func TestPostService_ListPosts_FeedCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	calls := 0
	postRepo := noopPostRepo()
	postRepo.listFn = func(_ context.Context, _ repository.PostFilter) ([]*models.Post, int64, error) {
		calls++
		return []*models.Post{{ID: uint(calls), Content: "hello", Mood: models.MoodCalm}}, 1, nil
	}
	svc := NewPostService(postRepo, noopCommentRepo(), noopUserRepo(), cache.New(rdb), featureflags.NewManager("feed_cache=on"))
	ctx := context.Background()

	first, err := svc.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	second, err := svc.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second anonymous read must be served from cache")
	assert.Equal(t, first.Items[0].ID, second.Items[0].ID)

	// A mutation bumps the feed version.
	_, err = svc.ToggleLike(ctx, 1, 1)
	require.NoError(t, err)
	third, err := svc.ListPosts(ctx, ListPostsInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, uint(2), third.Items[0].ID)

	// Authenticated viewers bypass the shared cache.
	_, err = svc.ListPosts(ctx, ListPostsInput{ViewerID: 9})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPostService_UpdatePost(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	newRepo := func() (*postRepoStub, **models.Post) {
		repo := noopPostRepo()
		var updated *models.Post
		repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
			return &models.Post{ID: id, UserID: 1, Content: "old", Mood: models.MoodLow, Hashtags: []string{"a"}}, nil
		}
		repo.updateFn = func(_ context.Context, p *models.Post) error {
			updated = p
			return nil
		}
		return repo, &updated
	}

	t.Run("owner edits content only", func(t *testing.T) {
		t.Parallel()
		repo, updated := newRepo()
		svc := NewPostService(repo, noopCommentRepo(), noopUserRepo(), nil, nil)
		post, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: 1, PostID: 2, Content: strPtr(" new ")})
		require.NoError(t, err)
		assert.Equal(t, "new", post.Content)
		assert.Equal(t, models.MoodLow, post.Mood)
		assert.Equal(t, []string{"a"}, post.Hashtags)
		require.NotNil(t, *updated)
	})

	t.Run("non owner is forbidden", func(t *testing.T) {
		t.Parallel()
		repo, updated := newRepo()
		svc := NewPostService(repo, noopCommentRepo(), noopUserRepo(), nil, nil)
		_, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: 2, PostID: 2, Content: strPtr("hack")})
		assertForbiddenError(t, err)
		assert.Nil(t, *updated)
	})

	t.Run("invalid mood", func(t *testing.T) {
		t.Parallel()
		repo, _ := newRepo()
		svc := NewPostService(repo, noopCommentRepo(), noopUserRepo(), nil, nil)
		_, err := svc.UpdatePost(ctx, UpdatePostInput{UserID: 1, PostID: 2, Mood: strPtr("all")})
		assertValidationError(t, err)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	t.Parallel()

	deleted := false
	repo := noopPostRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Post, error) {
		return &models.Post{ID: id, UserID: 1}, nil
	}
	repo.deleteFn = func(_ context.Context, _ uint) error {
		deleted = true
		return nil
	}
	svc := NewPostService(repo, noopCommentRepo(), noopUserRepo(), nil, nil)

	_, err := svc.DeletePost(context.Background(), 2, 5)
	assertForbiddenError(t, err)
	assert.False(t, deleted)

	post, err := svc.DeletePost(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, uint(5), post.ID)
	assert.True(t, deleted)
}

func TestPostService_Toggles(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var sets []models.PostSet
	repo := noopPostRepo()
	repo.toggleMembershipFn = func(_ context.Context, set models.PostSet, _, _ uint) (bool, error) {
		sets = append(sets, set)
		return len(sets)%2 == 1, nil
	}
	repo.toggleLikeFn = func(_ context.Context, _, _ uint) (bool, int, error) {
		return false, 4, nil
	}
	svc := NewPostService(repo, noopCommentRepo(), noopUserRepo(), nil, nil)

	res, err := svc.ToggleLike(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, ToggleResult{Liked: false, LikeCount: 4}, res)

	on, err := svc.ToggleSave(ctx, 1, 2)
	require.NoError(t, err)
	assert.True(t, on)
	on, err = svc.ToggleHide(ctx, 1, 2)
	require.NoError(t, err)
	assert.False(t, on)
	_, err = svc.Report(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []models.PostSet{models.SetSaved, models.SetHidden, models.SetReported}, sets)
}

func TestPostService_ToggleLike_MissingPost(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.toggleLikeFn = func(_ context.Context, _, postID uint) (bool, int, error) {
		return false, 0, models.NewNotFoundError("Post", postID)
	}
	svc := NewPostService(repo, noopCommentRepo(), noopUserRepo(), nil, nil)
	_, err := svc.ToggleLike(context.Background(), 1, 99)
	assertCode(t, models.CodeNotFound, err)
}

func TestPostService_GetPost(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	repo.relationsFn = func(_ context.Context, _ uint, _ []uint) (map[uint]bool, map[uint]bool, error) {
		return map[uint]bool{3: true}, map[uint]bool{}, nil
	}
	comments := noopCommentRepo()
	comments.listByPostFn = func(_ context.Context, postID uint) ([]*models.Comment, error) {
		return []*models.Comment{{ID: 2, PostID: postID}, {ID: 1, PostID: postID}}, nil
	}
	svc := NewPostService(repo, comments, noopUserRepo(), nil, nil)

	post, err := svc.GetPost(context.Background(), 3, 8)
	require.NoError(t, err)
	assert.True(t, post.Liked)
	assert.False(t, post.Saved)
	require.Len(t, post.Comments, 2)
	assert.Equal(t, uint(2), post.Comments[0].ID)
}

func TestNewPagination(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Pagination{Limit: 20, Page: 1}, NewPagination(0, 0))
	assert.Equal(t, Pagination{Limit: 100, Page: 2}, NewPagination(1000, 2))
	assert.Equal(t, 40, NewPagination(20, 3).Offset())

	huge := NewPagination(20, math.MaxInt)
	assert.Equal(t, math.MaxInt32/20, huge.Page)
	assert.GreaterOrEqual(t, huge.Offset(), 0)
	assert.LessOrEqual(t, huge.Offset(), math.MaxInt32)
	assert.GreaterOrEqual(t, NewPagination(1, math.MaxInt).Offset(), 0)
}

func TestPostService_ListPosts_DeletedViewer(t *testing.T) {
	t.Parallel()

	var got repository.PostFilter
	postRepo := noopPostRepo()
	postRepo.listFn = func(_ context.Context, f repository.PostFilter) ([]*models.Post, int64, error) {
		got = f
		return []*models.Post{{ID: 1}}, 1, nil
	}
	postRepo.relationsFn = func(_ context.Context, _ uint, _ []uint) (map[uint]bool, map[uint]bool, error) {
		t.Fatal("an unknown viewer has no relations to load")
		return nil, nil, nil
	}
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return nil, models.NewNotFoundError("User", id)
	}

	svc := NewPostService(postRepo, noopCommentRepo(), users, nil, featureflags.NewManager("server_side_suppression=on"))
	page, err := svc.ListPosts(context.Background(), ListPostsInput{ViewerID: 99})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Zero(t, got.SuppressFor)
	assert.False(t, got.KidSafeOnly)
}

func TestPostService_ListPosts_ViewerLookupFails(t *testing.T) {
	t.Parallel()

	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) {
		return nil, models.NewInternalError(errors.New("connection reset"))
	}
	svc := NewPostService(noopPostRepo(), noopCommentRepo(), users, nil, nil)
	_, err := svc.ListPosts(context.Background(), ListPostsInput{ViewerID: 3})
	require.Error(t, err)
	assert.Equal(t, models.CodeInternal, models.ErrorCode(err))
}
