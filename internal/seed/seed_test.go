package seed

import (
	"testing"
	"time"

	"chapel/internal/database"
	"chapel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupSeedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func TestBuildPost_CategoryAndTimestamps(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30, RandomSeed: 42}
	f := NewFactory(nil, opts)
	name := "Jean Dupont"
	author := &models.Profile{ID: "a1", Email: "jean@chapel.local", FullName: &name}

	for i := 0; i < 20; i++ {
		p := f.BuildPost(author)
		assert.Contains(t, models.Categories, p.Category)
		assert.Equal(t, "Jean Dupont", p.AuthorName)
		assert.NotEmpty(t, p.Title)
		assert.NotEmpty(t, p.Excerpt)
		assert.Less(t, time.Since(p.CreatedAt), 31*24*time.Hour)
	}

	p := f.BuildPost(author, func(p *models.Post) { p.Published = false })
	assert.False(t, p.Published)
}

func TestSeed_SQLite(t *testing.T) {
	db := setupSeedDB(t)

	summary, err := Seed(db, Options{
		NumMembers:      4,
		NumAdmins:       1,
		NumPosts:        10,
		CommentsPerPost: 2,
		SkipBcrypt:      true,
		RandomSeed:      7,
		ApprovedRatio:   0.5,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Admins)
	assert.Equal(t, 4, summary.Members)
	assert.Equal(t, 10, summary.Posts)

	var admins, identities, posts, comments int64
	require.NoError(t, db.Model(&models.Profile{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error)
	require.NoError(t, db.Model(&models.Identity{}).Count(&identities).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	require.NoError(t, db.Model(&models.Comment{}).Count(&comments).Error)
	assert.EqualValues(t, 1, admins)
	assert.EqualValues(t, 5, identities)
	assert.EqualValues(t, 10, posts)
	assert.EqualValues(t, summary.Comments, comments)
	assert.Equal(t, summary.Published*2, summary.Comments)

	var published, approved int64
	require.NoError(t, db.Model(&models.Post{}).Where("published = ?", true).Count(&published).Error)
	require.NoError(t, db.Model(&models.Comment{}).Where("approved = ?", true).Count(&approved).Error)
	assert.EqualValues(t, summary.Published, published)
	assert.EqualValues(t, summary.Approved, approved)

	var draftComments int64
	require.NoError(t, db.Table("comments").
		Joins("JOIN blog_posts ON blog_posts.id = comments.post_id").
		Where("blog_posts.published = ?", false).
		Count(&draftComments).Error)
	assert.Zero(t, draftComments)
}

func TestSeed_CleanReplacesData(t *testing.T) {
	db := setupSeedDB(t)
	opts := Options{NumMembers: 1, NumPosts: 3, SkipBcrypt: true}

	_, err := Seed(db, opts)
	require.NoError(t, err)

	opts.ShouldClean = true
	_, err = Seed(db, opts)
	require.NoError(t, err)

	var posts int64
	require.NoError(t, db.Model(&models.Post{}).Count(&posts).Error)
	assert.EqualValues(t, 3, posts)
}
