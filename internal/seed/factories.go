// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"chapel/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	hash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{
		db:   db,
		opts: opts,
		// #nosec G404: acceptable for seeding
		rng: rand.New(rand.NewSource(seed)),
	}
}

func (f *Factory) passwordHash() (string, error) {
	if f.hash != "" {
		return f.hash, nil
	}
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	f.hash = string(hashed)
	return f.hash, nil
}

// CreateMember persists an identity and its profile with the given role.
func (f *Factory) CreateMember(role models.Role, overrides ...func(*models.Profile)) (*models.Profile, error) {
	name := gofakeit.FirstName() + " " + gofakeit.LastName()
	email := strings.ToLower(fmt.Sprintf("%s.%d@chapel.local",
		strings.ReplaceAll(name, " ", "."), gofakeit.Number(100, 999)))

	profile := &models.Profile{Email: email, FullName: &name, Role: role}
	for _, override := range overrides {
		override(profile)
	}

	if f.opts.DryRun {
		profile.ID = gofakeit.UUID()
		log.Printf("[dry-run] CreateMember: %s (%s)", profile.Email, profile.Role)
		return profile, nil
	}

	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	identity := &models.Identity{Email: profile.Email, PasswordHash: hash}

	err = f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		profile.ID = identity.ID
		profile.Email = identity.Email
		return tx.Create(profile).Error
	})
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// BuildPost constructs a post by author without persisting it. The creation
// date is spread over the last MaxDays days.
func (f *Factory) BuildPost(author *models.Profile, overrides ...func(*models.Post)) *models.Post {
	title := strings.TrimSuffix(gofakeit.Sentence(f.rng.Intn(5)+3), ".")
	content := gofakeit.Paragraph(f.rng.Intn(3)+2, 4, 12, "\n\n")
	excerpt := gofakeit.Sentence(14)

	post := &models.Post{
		Title:      title,
		Content:    content,
		Excerpt:    excerpt,
		Category:   models.Categories[f.rng.Intn(len(models.Categories))],
		AuthorID:   author.ID,
		AuthorName: author.DisplayName(),
		Featured:   f.rng.Float32() < 0.15,
		Published:  f.rng.Float32() < 0.8,
	}

	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	post.CreatedAt = time.Now().Add(-time.Duration(f.rng.Intn(maxDays))*24*time.Hour -
		time.Duration(f.rng.Intn(24))*time.Hour - time.Duration(f.rng.Intn(60))*time.Minute)
	post.UpdatedAt = post.CreatedAt

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = gofakeit.UUID()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	batch := f.opts.BatchSize
	if batch <= 0 {
		batch = 100
	}
	return f.db.Select("*").CreateInBatches(posts, batch).Error
}

// CreateComment persists a comment by author on post. Comments land after the post date.
func (f *Factory) CreateComment(author *models.Profile, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		UserID:    author.ID,
		UserName:  author.DisplayName(),
		Content:   gofakeit.Sentence(f.rng.Intn(12) + 4),
		Approved:  f.rng.Float32() < f.approvalRatio(),
		CreatedAt: post.CreatedAt.Add(time.Duration(f.rng.Intn(72)+1) * time.Hour),
	}
	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		comment.ID = gofakeit.UUID()
		return comment, nil
	}
	if err := f.db.Select("*").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (f *Factory) approvalRatio() float32 {
	if f.opts.ApprovedRatio > 0 {
		return f.opts.ApprovedRatio
	}
	return 0.6
}
