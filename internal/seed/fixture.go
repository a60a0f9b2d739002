package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"scrolla/internal/models"
	"scrolla/internal/validation"

	"gopkg.in/yaml.v3"
)

// Fixture is a hand-written data set, typically checked in as YAML so demos
// start from the same accounts and posts every time.
type Fixture struct {
	Users []FixtureUser `yaml:"users"`
	Posts []FixturePost `yaml:"posts"`
}

type FixtureUser struct {
	Username string   `yaml:"username"`
	Email    string   `yaml:"email"`
	Bio      string   `yaml:"bio"`
	KidsMode bool     `yaml:"kids_mode"`
	Follows  []string `yaml:"follows"`
}

type FixturePost struct {
	Author   string   `yaml:"author"`
	Content  string   `yaml:"content"`
	Mood     string   `yaml:"mood"`
	Hashtags []string `yaml:"hashtags"`
	Images   []string `yaml:"images"`
	KidSafe  bool     `yaml:"kid_safe"`
}

// LoadFixture reads and validates a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes YAML and checks references between users and posts.
func ParseFixture(raw []byte) (*Fixture, error) {
	var fx Fixture
	if err := yaml.Unmarshal(raw, &fx); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}

	known := make(map[string]bool, len(fx.Users))
	for i, u := range fx.Users {
		if err := validation.ValidateUsername(u.Username); err != nil {
			return nil, fmt.Errorf("users[%d]: %w", i, err)
		}
		if known[u.Username] {
			return nil, fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		known[u.Username] = true
	}
	for i, u := range fx.Users {
		for _, target := range u.Follows {
			if !known[target] {
				return nil, fmt.Errorf("users[%d]: follows unknown user %q", i, target)
			}
		}
	}
	for i, p := range fx.Posts {
		if !known[p.Author] {
			return nil, fmt.Errorf("posts[%d]: unknown author %q", i, p.Author)
		}
		if !models.Mood(p.Mood).Valid() {
			return nil, fmt.Errorf("posts[%d]: invalid mood %q", i, p.Mood)
		}
		if strings.TrimSpace(p.Content) == "" {
			return nil, fmt.Errorf("posts[%d]: content is required", i)
		}
	}
	return &fx, nil
}

// ApplyFixture creates the fixture's users, follow edges and posts.
func (s *Seeder) ApplyFixture(ctx context.Context, fx *Fixture) (*Summary, error) {
	sum := &Summary{}
	byName := make(map[string]*models.User, len(fx.Users))

	for i, fu := range fx.Users {
		fu := fu
		user, err := s.factory.CreateUser(ctx, i, func(u *models.User) {
			u.Username = fu.Username
			u.Email = fu.Email
			if u.Email == "" {
				u.Email = fu.Username + "@example.com"
			}
			u.Bio = fu.Bio
			u.Avatar = models.DefaultAvatarURL(fu.Username)
			u.KidsMode = fu.KidsMode
		})
		if err != nil {
			return nil, fmt.Errorf("create user %s: %w", fu.Username, err)
		}
		byName[fu.Username] = user
		sum.Users++
	}

	if !s.opts.DryRun {
		for _, fu := range fx.Users {
			for _, target := range fu.Follows {
				ok, err := s.factory.CreateFollow(ctx, byName[fu.Username], byName[target])
				if err != nil {
					return nil, fmt.Errorf("follow %s -> %s: %w", fu.Username, target, err)
				}
				if ok {
					sum.Follows++
				}
			}
		}
	}

	posts := make([]*models.Post, 0, len(fx.Posts))
	for _, fp := range fx.Posts {
		fp := fp
		posts = append(posts, s.factory.BuildPost(byName[fp.Author], models.Mood(fp.Mood), func(p *models.Post) {
			p.Content = strings.TrimSpace(fp.Content)
			p.Hashtags = validation.NormalizeHashtags(fp.Hashtags)
			p.Images = fp.Images
			if p.Images == nil {
				p.Images = []string{}
			}
			p.KidSafe = fp.KidSafe
		}))
	}
	if err := s.factory.CreatePostsBatch(ctx, posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	sum.Posts = len(posts)

	return sum, nil
}
