// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"scrolla/internal/models"
	"scrolla/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password every seeded account shares.
const DefaultPassword = "password123"

var moodHashtags = map[models.Mood][]string{
	models.MoodCalm:      {"calm", "mindful", "slowliving", "nature", "breathe"},
	models.MoodMotivated: {"goals", "growth", "discipline", "mondaymotivation", "progress"},
	models.MoodLow:       {"support", "youarenotalone", "mentalhealth", "healing"},
	models.MoodEntertain: {"funny", "memes", "movies", "music", "weekend"},
	models.MoodEnergetic: {"workout", "adventure", "dance", "sports", "run"},
	models.MoodDiscuss:   {"debate", "question", "thoughts", "opinion", "books"},
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db     *gorm.DB
	opts   Options
	faker  *gofakeit.Faker
	hashed string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a Factory bound to db. A zero opts.RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{db: db, opts: opts, faker: gofakeit.New(seed), nextID: 1000}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	if f.hashed == "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return "", err
		}
		f.hashed = string(hashed)
	}
	return f.hashed, nil
}

// BuildUser returns an unsaved user whose username carries n for uniqueness.
func (f *Factory) BuildUser(n int) *models.User {
	base := sanitizeUsername(f.faker.FirstName() + "_" + f.faker.LastName())
	suffix := fmt.Sprintf("%d", n)
	if room := 30 - len(suffix); len(base) > room {
		base = strings.TrimRight(base[:room], "_-")
	}
	username := base + suffix
	return &models.User{
		Username: username,
		Email:    username + "@example.com",
		Bio:      truncate(f.faker.Sentence(f.faker.Number(4, 14)), 200),
		Avatar:   models.DefaultAvatarURL(username),
		KidsMode: f.faker.Number(1, 10) == 1,
	}
}

// CreateUser persists a generated user. Overrides run before saving.
func (f *Factory) CreateUser(ctx context.Context, n int, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(n)
	password, err := f.password()
	if err != nil {
		return nil, err
	}
	user.Password = password

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}
	if err := f.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs an unsaved post for user with a created_at spread over
// the last MaxDays days.
func (f *Factory) BuildPost(user *models.User, mood models.Mood, overrides ...func(*models.Post)) *models.Post {
	tags := moodHashtags[mood]
	picked := make([]string, 0, 3)
	for i := f.faker.Number(0, 3); i > 0; i-- {
		picked = append(picked, tags[f.faker.Number(0, len(tags)-1)])
	}

	post := &models.Post{
		UserID:   user.ID,
		Content:  truncate(f.faker.Paragraph(1, f.faker.Number(1, 4), 12, " "), 2000),
		Images:   []string{},
		Mood:     mood,
		Hashtags: validation.NormalizeHashtags(picked),
		// The low and discuss moods skew towards adult topics.
		KidSafe: mood != models.MoodLow && mood != models.MoodDiscuss && f.faker.Number(1, 10) <= 7,
	}
	if f.faker.Number(1, 10) <= 3 {
		post.Images = append(post.Images, fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()))
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60-1)) * time.Minute
	post.CreatedAt = time.Now().Add(-back)

	for _, override := range overrides {
		override(post)
	}
	return post
}

// RandomMood picks one of the storable post moods.
func (f *Factory) RandomMood() models.Mood {
	return models.PostMoods[f.faker.Number(0, len(models.PostMoods)-1)]
}

// CreatePostsBatch persists posts in batches of opts.BatchSize.
func (f *Factory) CreatePostsBatch(ctx context.Context, posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.WithContext(ctx).Omit(clause.Associations).CreateInBatches(posts, batch).Error
}

// CreateComment persists a comment and bumps the post's comment_count.
func (f *Factory) CreateComment(ctx context.Context, user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: truncate(f.faker.Sentence(f.faker.Number(3, 16)), 1000),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("comment_count", gorm.Expr("comment_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	post.CommentCount++
	return comment, nil
}

// CreateLike persists a like and bumps the post's like_count. An existing
// like is left alone.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) error {
	return f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PostLike{UserID: user.ID, PostID: post.ID})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		post.LikeCount++
		return tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("like_count", gorm.Expr("like_count + 1")).Error
	})
}

// CreateSave adds post to the user's saved set.
func (f *Factory) CreateSave(ctx context.Context, user *models.User, post *models.Post) error {
	return f.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.SavedPost{UserID: user.ID, PostID: post.ID}).Error
}

// CreateFollow makes follower follow followee and reports whether a new edge
// was written. Self-follows and duplicates are skipped.
func (f *Factory) CreateFollow(ctx context.Context, follower, followee *models.User) (bool, error) {
	if follower.ID == followee.ID {
		return false, nil
	}
	res := f.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID})
	return res.RowsAffected > 0, res.Error
}

// CreateJourney persists a finished journey for user.
func (f *Factory) CreateJourney(ctx context.Context, user *models.User, viewed []uint) (*models.Journey, error) {
	duration := models.JourneyDurations[f.faker.Number(0, len(models.JourneyDurations)-1)]
	start := time.Now().Add(-time.Duration(f.faker.Number(60, 60*24*30)) * time.Minute).UTC()
	end := start.Add(time.Duration(duration) * time.Minute)
	journey := &models.Journey{
		UserID:      user.ID,
		Mood:        models.JourneyMoods[f.faker.Number(0, len(models.JourneyMoods)-1)],
		Purpose:     models.JourneyPurposes[f.faker.Number(0, len(models.JourneyPurposes)-1)],
		Duration:    duration,
		StartTime:   start,
		EndTime:     &end,
		PostsViewed: viewed,
		Completed:   true,
	}
	if err := f.db.WithContext(ctx).Create(journey).Error; err != nil {
		return nil, err
	}
	return journey, nil
}

func sanitizeUsername(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return "user"
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
