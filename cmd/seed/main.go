// Command main runs the database seeder for Scrolla.
package main

import (
	"context"
	"flag"
	"log"

	"scrolla/internal/bootstrap"
	"scrolla/internal/config"
	"scrolla/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fixture := flag.String("fixture", "", "YAML fixture applied after the random community")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	fast := flag.Bool("fast", false, "Store the default password unhashed (throwaway databases only)")
	randSeed := flag.Int64("seed", 0, "Random seed; 0 uses the clock")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v, dry-run=%v\n", *numUsers, *numPosts, *shouldClean, *dryRun)

	var fx *seed.Fixture
	if *fixture != "" {
		loaded, err := seed.LoadFixture(*fixture)
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
		fx = loaded
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{ApplySchema: true, SkipOptional: true})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = rt.Close(ctx) }()

	s := seed.NewSeeder(rt.Store.DB(), seed.Options{
		Users:      *numUsers,
		Posts:      *numPosts,
		Clean:      *shouldClean,
		SkipBcrypt: *fast,
		DryRun:     *dryRun,
		BatchSize:  100,
		RandSeed:   *randSeed,
	})

	sum, err := s.Run(ctx)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	if fx != nil {
		fxSum, err := s.ApplyFixture(ctx, fx)
		if err != nil {
			log.Fatalf("❌ Fixture seeding failed: %v", err)
		}
		log.Printf("✓ fixture: %d users, %d follows, %d posts", fxSum.Users, fxSum.Follows, fxSum.Posts)
	}

	log.Printf("✨ All done! %d users, %d posts, %d follows, %d likes, %d comments, %d journeys",
		sum.Users, sum.Posts, sum.Follows, sum.Likes, sum.Comments, sum.Journeys)
	log.Printf("📧 All seeded users have the password: %s (log in as demo@example.com)", seed.DefaultPassword)
}
