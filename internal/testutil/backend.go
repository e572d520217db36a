// Package testutil runs the real API in-process for client-side tests.
package testutil

import (
	"net/http/httptest"
	"testing"

	"chapel/internal/config"
	"chapel/internal/database"
	"chapel/internal/models"
	"chapel/internal/seed"
	"chapel/internal/server"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	AnonKey = "test-anon-key"
	// Password is the password of every account created through a Backend.
	Password = seed.DefaultPassword

	jwtSecret = "test-secret-key-0123456789abcdef0123456789"
)

// Backend is an API server backed by in-memory sqlite and miniredis.
type Backend struct {
	URL   string
	DB    *gorm.DB
	Redis *miniredis.Miniredis

	factory *seed.Factory
}

// NewBackend starts a server with comments and self-signup enabled.
// Everything is torn down with t.Cleanup.
func NewBackend(t testing.TB) *Backend {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.AutoMigrate(db))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	cfg := &config.Config{
		JWTSecret:      jwtSecret,
		AnonKey:        AnonKey,
		AllowedOrigins: "http://localhost:5173",
		FeatureFlags:   "self_signup=on,comments=on",
		Env:            "test",
	}
	srv, err := server.NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)

	ts := httptest.NewServer(adaptor.FiberApp(srv.App()))
	t.Cleanup(func() {
		ts.Close()
		_ = rdb.Close()
		_ = sqlDB.Close()
	})

	return &Backend{
		URL:     ts.URL,
		DB:      db,
		Redis:   mr,
		factory: seed.NewFactory(db, seed.Options{SkipBcrypt: true, RandomSeed: 42}),
	}
}

// CreateUser inserts an account that can sign in with Password.
func (b *Backend) CreateUser(t testing.TB, email, name string, role models.Role) *models.Profile {
	t.Helper()
	p, err := b.factory.CreateMember(role, func(p *models.Profile) {
		p.Email = email
		p.FullName = &name
	})
	require.NoError(t, err)
	return p
}

// CreatePost inserts a post written by author.
func (b *Backend) CreatePost(t testing.TB, author *models.Profile, published bool, overrides ...func(*models.Post)) *models.Post {
	t.Helper()
	post := b.factory.BuildPost(author, func(p *models.Post) {
		p.Published = published
		p.Featured = false
	})
	for _, o := range overrides {
		o(post)
	}
	require.NoError(t, b.factory.CreatePostsBatch([]*models.Post{post}))
	return post
}

// CreateComment inserts a comment by author on post.
func (b *Backend) CreateComment(t testing.TB, author *models.Profile, post *models.Post, approved bool) *models.Comment {
	t.Helper()
	c, err := b.factory.CreateComment(author, post, func(c *models.Comment) {
		c.Approved = approved
	})
	require.NoError(t, err)
	return c
}
