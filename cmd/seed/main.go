// Command main runs the database seeder for Chapel.
package main

import (
	"flag"
	"log"

	"chapel/internal/config"
	"chapel/internal/database"
	"chapel/internal/seed"
)

func main() {
	numMembers := flag.Int("members", 20, "Number of member accounts to create")
	numAdmins := flag.Int("admins", 1, "Number of admin accounts to create")
	numPosts := flag.Int("posts", 30, "Number of blog posts to create")
	commentsPerPost := flag.Int("comments", 4, "Comments per published post")
	maxDays := flag.Int("days", 90, "Spread post dates over this many past days")
	approved := flag.Float64("approved", 0.6, "Share of comments created already approved")
	randomSeed := flag.Int64("seed", 0, "Random seed (0 uses the clock)")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Hash the seed password with the minimum bcrypt cost")
	dryRun := flag.Bool("dry-run", false, "Log what would be created without writing")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d members, %d admins, %d posts, %d comments/post, clean=%v\n",
		*numMembers, *numAdmins, *numPosts, *commentsPerPost, *shouldClean)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	summary, err := seed.Seed(db, seed.Options{
		NumMembers:      *numMembers,
		NumAdmins:       *numAdmins,
		NumPosts:        *numPosts,
		CommentsPerPost: *commentsPerPost,
		MaxDays:         *maxDays,
		ApprovedRatio:   float32(*approved),
		RandomSeed:      *randomSeed,
		ShouldClean:     *shouldClean,
		SkipBcrypt:      *fast,
		DryRun:          *dryRun,
	})
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d members, %d admins, %d posts (%d published), %d comments (%d approved)",
		summary.Members, summary.Admins, summary.Posts, summary.Published, summary.Comments, summary.Approved)
	log.Printf("📧 All seeded accounts have the password: %s", seed.DefaultPassword)
}
