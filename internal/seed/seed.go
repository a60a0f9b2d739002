package seed

import (
	"context"
	"fmt"
	"log"

	"scrolla/internal/models"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	Users int
	Posts int
	// Clean wipes every table before seeding.
	Clean bool
	// SkipBcrypt stores DefaultPassword unhashed; only for throwaway databases.
	SkipBcrypt bool
	DryRun     bool
	BatchSize  int
	// MaxDays bounds how far back post timestamps are spread.
	MaxDays  int
	RandSeed int64
}

// Summary counts what a run created.
type Summary struct {
	Users    int
	Follows  int
	Posts    int
	Likes    int
	Comments int
	Saves    int
	Journeys int
}

// Seeder populates a database with a connected demo community.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
	opts    Options
}

// NewSeeder creates a Seeder over db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts), opts: opts}
}

// Factory exposes the underlying factory for fixtures and tests.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// seededTables lists tables children first so deletes respect foreign keys.
var seededTables = []string{
	"journeys", "reported_posts", "hidden_posts", "saved_posts", "post_likes",
	"comments", "posts", "follows", "users",
}

// ClearAll removes every row the seeder could have created.
func (s *Seeder) ClearAll(ctx context.Context) error {
	log.Println("Clearing existing data...")
	db := s.db.WithContext(ctx)
	if db.Dialector.Name() == "postgres" {
		sql := "TRUNCATE TABLE journeys, reported_posts, hidden_posts, saved_posts, post_likes, comments, posts, follows, users RESTART IDENTITY CASCADE"
		return db.Exec(sql).Error
	}
	for _, table := range seededTables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// Run seeds users, the follow graph, posts, engagement and journeys.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if s.opts.Clean && !s.opts.DryRun {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clean: %w", err)
		}
	}

	sum := &Summary{}
	users, err := s.SeedUsers(ctx, s.opts.Users)
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	sum.Users = len(users)
	log.Printf("✓ %d users created", sum.Users)

	posts, err := s.SeedPosts(ctx, users, s.opts.Posts)
	if err != nil {
		return nil, fmt.Errorf("posts: %w", err)
	}
	sum.Posts = len(posts)
	log.Printf("✓ %d posts created", sum.Posts)

	if s.opts.DryRun {
		return sum, nil
	}

	if sum.Follows, err = s.SeedFollowGraph(ctx, users); err != nil {
		return nil, fmt.Errorf("follows: %w", err)
	}
	log.Printf("✓ %d follows created", sum.Follows)

	if err := s.SeedEngagement(ctx, users, posts, sum); err != nil {
		return nil, fmt.Errorf("engagement: %w", err)
	}
	log.Printf("✓ %d likes, %d comments, %d saves", sum.Likes, sum.Comments, sum.Saves)

	if sum.Journeys, err = s.SeedJourneys(ctx, users, posts); err != nil {
		return nil, fmt.Errorf("journeys: %w", err)
	}
	log.Printf("✓ %d journeys created", sum.Journeys)

	return sum, nil
}

// SeedUsers creates count users. The first one is always "demo" so there is
// a predictable account to log in with.
func (s *Seeder) SeedUsers(ctx context.Context, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)
	for i := 0; i < count; i++ {
		var overrides []func(*models.User)
		if i == 0 {
			overrides = append(overrides, func(u *models.User) {
				u.Username = "demo"
				u.Email = "demo@example.com"
				u.Avatar = models.DefaultAvatarURL("demo")
				u.KidsMode = false
			})
		}
		user, err := s.factory.CreateUser(ctx, i, overrides...)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

// SeedPosts spreads count posts over users and moods.
func (s *Seeder) SeedPosts(ctx context.Context, users []*models.User, count int) ([]*models.Post, error) {
	if len(users) == 0 || count <= 0 {
		return nil, nil
	}
	posts := make([]*models.Post, 0, count)
	for i := 0; i < count; i++ {
		author := users[s.factory.faker.Number(0, len(users)-1)]
		posts = append(posts, s.factory.BuildPost(author, s.factory.RandomMood()))
	}
	if err := s.factory.CreatePostsBatch(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// SeedFollowGraph gives every user between one and a quarter of the others
// to follow.
func (s *Seeder) SeedFollowGraph(ctx context.Context, users []*models.User) (int, error) {
	if len(users) < 2 {
		return 0, nil
	}
	created := 0
	for _, follower := range users {
		maxFollows := len(users) / 4
		if maxFollows < 1 {
			maxFollows = 1
		}
		for n := s.factory.faker.Number(1, maxFollows); n > 0; n-- {
			followee := users[s.factory.faker.Number(0, len(users)-1)]
			ok, err := s.factory.CreateFollow(ctx, follower, followee)
			if err != nil {
				return created, err
			}
			if !ok {
				continue
			}
			created++
		}
	}
	return created, nil
}

// SeedEngagement adds likes, comments and saves so counters have realistic values.
func (s *Seeder) SeedEngagement(ctx context.Context, users []*models.User, posts []*models.Post, sum *Summary) error {
	if len(users) == 0 {
		return nil
	}
	for _, post := range posts {
		for n := s.factory.faker.Number(0, min(len(users), 8)); n > 0; n-- {
			before := post.LikeCount
			if err := s.factory.CreateLike(ctx, users[s.factory.faker.Number(0, len(users)-1)], post); err != nil {
				return err
			}
			sum.Likes += post.LikeCount - before
		}
		for n := s.factory.faker.Number(0, 3); n > 0; n-- {
			if _, err := s.factory.CreateComment(ctx, users[s.factory.faker.Number(0, len(users)-1)], post); err != nil {
				return err
			}
			sum.Comments++
		}
		if s.factory.faker.Number(1, 5) == 1 {
			if err := s.factory.CreateSave(ctx, users[s.factory.faker.Number(0, len(users)-1)], post); err != nil {
				return err
			}
			sum.Saves++
		}
	}
	return nil
}

// SeedJourneys gives roughly half the users one completed journey each.
func (s *Seeder) SeedJourneys(ctx context.Context, users []*models.User, posts []*models.Post) (int, error) {
	created := 0
	for _, user := range users {
		if s.factory.faker.Number(0, 1) == 0 {
			continue
		}
		viewed := []uint{}
		for n := s.factory.faker.Number(0, min(len(posts), 6)); n > 0; n-- {
			viewed = append(viewed, posts[s.factory.faker.Number(0, len(posts)-1)].ID)
		}
		if _, err := s.factory.CreateJourney(ctx, user, viewed); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}
