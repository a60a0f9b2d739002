package repository

import (
	"context"
	"fmt"

	"scrolla/internal/models"
	"scrolla/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter selects posts for a feed listing.
type PostFilter struct {
	// Mood restricts to one mood; empty means any.
	Mood models.Mood
	// KidSafeOnly requires kid_safe = true.
	KidSafeOnly bool
	// AuthorID restricts to one author; zero means any.
	AuthorID uint
	// SuppressFor excludes the posts this user hid or reported; zero disables.
	SuppressFor uint
	Limit       int
	Offset      int
}

// PostRepository defines persistence operations for posts and the
// per-user interaction sets attached to them.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*models.Post, int64, error)
	ListSaved(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, int64, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	// ToggleLike flips the user's like and returns the new state and like count.
	ToggleLike(ctx context.Context, userID, postID uint) (bool, int, error)
	// ToggleMembership flips the post in one of the user's sets and returns the new state.
	ToggleMembership(ctx context.Context, set models.PostSet, userID, postID uint) (bool, error)
	// Relations reports which of postIDs the user liked and saved.
	Relations(ctx context.Context, userID uint, postIDs []uint) (liked, saved map[uint]bool, err error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository returns a new PostRepository implementation.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackRepository("posts", "GetByID")()

	var post models.Post
	if err := r.db.WithContext(ctx).Preload("User").First(&post, id).Error; err != nil {
		return nil, wrapNotFound(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, f PostFilter) ([]*models.Post, int64, error) {
	defer observability.TrackRepository("posts", "List")()

	q := r.db.WithContext(ctx).Model(&models.Post{})
	if f.Mood != "" {
		q = q.Where("posts.mood = ?", f.Mood)
	}
	if f.KidSafeOnly {
		q = q.Where("posts.kid_safe = ?", true)
	}
	if f.AuthorID != 0 {
		q = q.Where("posts.user_id = ?", f.AuthorID)
	}
	if f.SuppressFor != 0 {
		hidden := r.db.Model(&models.HiddenPost{}).Select("post_id").Where("user_id = ?", f.SuppressFor)
		reported := r.db.Model(&models.ReportedPost{}).Select("post_id").Where("user_id = ?", f.SuppressFor)
		q = q.Where("posts.id NOT IN (?)", hidden).Where("posts.id NOT IN (?)", reported)
	}
	return r.page(q.Session(&gorm.Session{}), f.Limit, f.Offset)
}

func (r *postRepository) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, int64, error) {
	saved := r.db.Model(&models.SavedPost{}).Select("post_id").Where("user_id = ?", userID)
	q := r.db.WithContext(ctx).Model(&models.Post{}).Where("posts.id IN (?)", saved)
	return r.page(q.Session(&gorm.Session{}), limit, offset)
}

// page counts q and fetches one newest-first page of it. q must be a
// reusable session.
func (r *postRepository) page(q *gorm.DB, limit, offset int) ([]*models.Post, int64, error) {
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	posts := make([]*models.Post, 0, limit)
	if total == 0 {
		return posts, 0, nil
	}
	err := q.Preload("User").
		Order("posts.created_at DESC").
		Order("posts.id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// Update writes the author-editable fields only, so concurrent counter
// increments are never overwritten.
func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).Model(post).
		Select("content", "images", "mood", "hashtags", "kid_safe").
		Updates(post).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) ToggleLike(ctx context.Context, userID, postID uint) (bool, int, error) {
	defer observability.TrackRepository("posts", "ToggleLike")()

	var (
		liked bool
		count int
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		delta := -1
		if res.RowsAffected == 0 {
			res = tx.Clauses(clause.OnConflict{DoNothing: true}).
				Create(&models.PostLike{UserID: userID, PostID: postID})
			if res.Error != nil {
				return res.Error
			}
			liked = true
			// A concurrent request may have inserted the same like first.
			delta = int(res.RowsAffected)
		}

		if delta != 0 {
			err := tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("like_count", gorm.Expr("like_count + ?", delta)).Error
			if err != nil {
				return err
			}
		}
		return tx.Model(&models.Post{}).Select("like_count").Where("id = ?", postID).Row().Scan(&count)
	})
	if err != nil {
		return false, 0, passAppError(err)
	}
	return liked, count, nil
}

func (r *postRepository) ToggleMembership(ctx context.Context, set models.PostSet, userID, postID uint) (bool, error) {
	defer observability.TrackRepository("posts", "Toggle"+string(set))()

	var on bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockPost(tx, postID); err != nil {
			return err
		}

		existing, err := membershipRow(set, 0, 0)
		if err != nil {
			return err
		}
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(existing)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		row, err := membershipRow(set, userID, postID)
		if err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return err
		}
		on = true
		return nil
	})
	if err != nil {
		return false, passAppError(err)
	}
	return on, nil
}

func (r *postRepository) Relations(ctx context.Context, userID uint, postIDs []uint) (map[uint]bool, map[uint]bool, error) {
	liked := make(map[uint]bool)
	saved := make(map[uint]bool)
	if userID == 0 || len(postIDs) == 0 {
		return liked, saved, nil
	}

	var likedIDs, savedIDs []uint
	if err := r.db.WithContext(ctx).Model(&models.PostLike{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &likedIDs).Error; err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	if err := r.db.WithContext(ctx).Model(&models.SavedPost{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &savedIDs).Error; err != nil {
		return nil, nil, models.NewInternalError(err)
	}
	for _, id := range likedIDs {
		liked[id] = true
	}
	for _, id := range savedIDs {
		saved[id] = true
	}
	return liked, saved, nil
}

// lockPost checks the post exists inside tx, taking a row lock where the
// dialect supports one so toggles on the same post serialize.
func lockPost(tx *gorm.DB, postID uint) error {
	q := tx.Model(&models.Post{}).Select("id").Where("id = ?", postID)
	if tx.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var ids []uint
	if err := q.Limit(1).Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return models.NewNotFoundError("Post", postID)
	}
	return nil
}

func membershipRow(set models.PostSet, userID, postID uint) (interface{}, error) {
	switch set {
	case models.SetSaved:
		return &models.SavedPost{UserID: userID, PostID: postID}, nil
	case models.SetHidden:
		return &models.HiddenPost{UserID: userID, PostID: postID}, nil
	case models.SetReported:
		return &models.ReportedPost{UserID: userID, PostID: postID}, nil
	default:
		return nil, fmt.Errorf("unknown post set %q", set)
	}
}
