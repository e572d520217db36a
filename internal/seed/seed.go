package seed

import (
	"fmt"
	"log"

	"chapel/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumMembers      int
	NumAdmins       int
	NumPosts        int
	CommentsPerPost int
	MaxDays         int
	BatchSize       int
	ApprovedRatio   float32
	RandomSeed      int64
	ShouldClean     bool
	SkipBcrypt      bool
	DryRun          bool
}

// Summary reports what a seeding run created.
type Summary struct {
	Admins    int
	Members   int
	Posts     int
	Published int
	Comments  int
	Approved  int
}

// Seed populates the database with demo content.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	log.Printf("🌱 Seeding %d members, %d admins and %d posts...", opts.NumMembers, opts.NumAdmins, opts.NumPosts)

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)
	summary := &Summary{}

	admins := make([]*models.Profile, 0, opts.NumAdmins)
	for i := 0; i < max(opts.NumAdmins, 1); i++ {
		admin, err := f.CreateMember(models.RoleAdmin)
		if err != nil {
			return nil, fmt.Errorf("failed to create admin: %w", err)
		}
		admins = append(admins, admin)
	}
	summary.Admins = len(admins)

	members := make([]*models.Profile, 0, opts.NumMembers)
	for i := 0; i < opts.NumMembers; i++ {
		member, err := f.CreateMember(models.RoleUser)
		if err != nil {
			return nil, fmt.Errorf("failed to create member: %w", err)
		}
		members = append(members, member)
	}
	summary.Members = len(members)
	log.Printf("✓ %d admins and %d members created", summary.Admins, summary.Members)

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		posts = append(posts, f.BuildPost(admins[i%len(admins)]))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	summary.Posts = len(posts)
	for _, p := range posts {
		if p.Published {
			summary.Published++
		}
	}
	log.Printf("✓ %d posts created", summary.Posts)

	if len(members) > 0 {
		for _, post := range posts {
			if !post.Published {
				continue
			}
			for j := 0; j < opts.CommentsPerPost; j++ {
				c, err := f.CreateComment(members[f.rng.Intn(len(members))], post)
				if err != nil {
					return nil, fmt.Errorf("failed to create comment: %w", err)
				}
				summary.Comments++
				if c.Approved {
					summary.Approved++
				}
			}
		}
	}
	log.Printf("✓ %d comments created", summary.Comments)

	log.Println("🎉 Database seeding completed successfully!")
	return summary, nil
}

// clearData removes content in dependency order; it works on postgres and sqlite.
func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	for _, table := range []string{"moderation_events", "comments", "blog_posts", "profiles", "auth_identities"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
