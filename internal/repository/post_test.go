package repository

import (
	"context"
	"regexp"
	"testing"

	"scrolla/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createPost(t *testing.T, db *gorm.DB, author *models.User, mood models.Mood, kidSafe bool) *models.Post {
	t.Helper()
	p := &models.Post{
		UserID:   author.ID,
		Content:  "post by " + author.Username,
		Mood:     mood,
		KidSafe:  kidSafe,
		Hashtags: []string{"#go"},
	}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}

func TestPostRepository_Create(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	post := &models.Post{UserID: 1, Content: "Content", Mood: models.MoodCalm}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "posts"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	err := repo.Create(ctx, post)
	assert.NoError(t, err)
	assert.Equal(t, uint(1), post.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_GetByID(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts" WHERE "posts"."id" = $1 AND "posts"."deleted_at" IS NULL ORDER BY "posts"."id" LIMIT $2`)).
		WithArgs(1, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "content", "user_id", "like_count"}).AddRow(1, "Post 1", 10, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "users" WHERE "users"."id" = $1 AND "users"."deleted_at" IS NULL`)).
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}).AddRow(10, "user10"))

	post, err := repo.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Post 1", post.Content)
	assert.Equal(t, 3, post.LikeCount)
	assert.Equal(t, "user10", post.User.Username)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "posts"`)).
		WithArgs(2, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	_, err = repo.GetByID(ctx, 2)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPostRepository_ListFilters(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	calm := createPost(t, db, alice, models.MoodCalm, true)
	createPost(t, db, alice, models.MoodCalm, false)
	createPost(t, db, bob, models.MoodEnergetic, true)
	newest := createPost(t, db, bob, models.MoodCalm, true)

	tests := []struct {
		name     string
		filter   PostFilter
		expected int64
	}{
		{"all", PostFilter{Limit: 20}, 4},
		{"mood", PostFilter{Mood: models.MoodCalm, Limit: 20}, 3},
		{"kid safe", PostFilter{KidSafeOnly: true, Limit: 20}, 3},
		{"mood and kid safe", PostFilter{Mood: models.MoodCalm, KidSafeOnly: true, Limit: 20}, 2},
		{"author", PostFilter{AuthorID: bob.ID, Limit: 20}, 2},
		{"no match", PostFilter{Mood: models.MoodDiscuss, Limit: 20}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, total)
			assert.Len(t, posts, int(tt.expected))
			for _, p := range posts {
				if tt.filter.KidSafeOnly {
					assert.True(t, p.KidSafe)
				}
				if tt.filter.Mood != "" {
					assert.Equal(t, tt.filter.Mood, p.Mood)
				}
			}
		})
	}

	posts, total, err := repo.List(ctx, PostFilter{Limit: 1, Offset: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	require.Len(t, posts, 1)
	assert.Equal(t, newest.ID, posts[0].ID)
	assert.Equal(t, "bob", posts[0].User.Username)

	posts, _, err = repo.List(ctx, PostFilter{Limit: 1, Offset: 3})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, calm.ID, posts[0].ID)
	assert.Equal(t, []string{"#go"}, posts[0].Hashtags)
}

func TestPostRepository_ListSuppression(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	viewer := createUser(t, db, "viewer")
	hidden := createPost(t, db, alice, models.MoodCalm, false)
	reported := createPost(t, db, alice, models.MoodCalm, false)
	visible := createPost(t, db, alice, models.MoodCalm, false)

	_, err := repo.ToggleMembership(ctx, models.SetHidden, viewer.ID, hidden.ID)
	require.NoError(t, err)
	_, err = repo.ToggleMembership(ctx, models.SetReported, viewer.ID, reported.ID)
	require.NoError(t, err)

	_, total, err := repo.List(ctx, PostFilter{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	posts, total, err := repo.List(ctx, PostFilter{SuppressFor: viewer.ID, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, visible.ID, posts[0].ID)

	// Another viewer still sees everything.
	_, total, err = repo.List(ctx, PostFilter{SuppressFor: alice.ID, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestPostRepository_ToggleLike(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	post := createPost(t, db, alice, models.MoodCalm, false)

	liked, count, err := repo.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 1, count)

	liked, count, err = repo.ToggleLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, 2, count)

	liked, count, err = repo.ToggleLike(ctx, bob.ID, post.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, 1, count)

	var rows int64
	require.NoError(t, db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&rows).Error)
	assert.Equal(t, int64(1), rows)

	_, _, err = repo.ToggleLike(ctx, bob.ID, 9999)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestPostRepository_ToggleMembership(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	post := createPost(t, db, alice, models.MoodCalm, false)

	for _, set := range []models.PostSet{models.SetSaved, models.SetHidden, models.SetReported} {
		t.Run(string(set), func(t *testing.T) {
			on, err := repo.ToggleMembership(ctx, set, alice.ID, post.ID)
			require.NoError(t, err)
			assert.True(t, on)

			on, err = repo.ToggleMembership(ctx, set, alice.ID, post.ID)
			require.NoError(t, err)
			assert.False(t, on)

			_, err = repo.ToggleMembership(ctx, set, alice.ID, 9999)
			assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
		})
	}

	_, err := repo.ToggleMembership(ctx, models.PostSet("pinned"), alice.ID, post.ID)
	assert.Error(t, err)
}

func TestPostRepository_RelationsAndSaved(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	p1 := createPost(t, db, alice, models.MoodCalm, false)
	p2 := createPost(t, db, alice, models.MoodLow, false)

	_, _, err := repo.ToggleLike(ctx, alice.ID, p1.ID)
	require.NoError(t, err)
	_, err = repo.ToggleMembership(ctx, models.SetSaved, alice.ID, p2.ID)
	require.NoError(t, err)

	liked, saved, err := repo.Relations(ctx, alice.ID, []uint{p1.ID, p2.ID})
	require.NoError(t, err)
	assert.True(t, liked[p1.ID])
	assert.False(t, liked[p2.ID])
	assert.True(t, saved[p2.ID])
	assert.False(t, saved[p1.ID])

	liked, saved, err = repo.Relations(ctx, 0, []uint{p1.ID})
	require.NoError(t, err)
	assert.Empty(t, liked)
	assert.Empty(t, saved)

	posts, total, err := repo.ListSaved(ctx, alice.ID, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, posts, 1)
	assert.Equal(t, p2.ID, posts[0].ID)
}

func TestPostRepository_UpdateKeepsCounters(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	post := createPost(t, db, alice, models.MoodCalm, false)
	_, _, err := repo.ToggleLike(ctx, alice.ID, post.ID)
	require.NoError(t, err)

	// post still carries like_count 0 in memory.
	post.Content = "edited"
	post.KidSafe = true
	require.NoError(t, repo.Update(ctx, post))

	got, err := repo.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.True(t, got.KidSafe)
	assert.Equal(t, 1, got.LikeCount)
}

func TestPostRepository_Delete(t *testing.T) {
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	post := createPost(t, db, alice, models.MoodCalm, false)

	require.NoError(t, repo.Delete(ctx, post.ID))
	_, err := repo.GetByID(ctx, post.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))

	err = repo.Delete(ctx, post.ID)
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
