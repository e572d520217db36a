package repository

import (
	"testing"
	"time"

	"chapel/internal/database"
	"chapel/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

// setupSQLiteDB returns a migrated in-memory database pinned to a single connection.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func seedProfile(t *testing.T, db *gorm.DB, id string, role models.Role) *models.Profile {
	t.Helper()
	p := &models.Profile{ID: id, Email: id + "@chapel.test", FullName: strPtr("Name " + id), Role: role}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedPost(t *testing.T, db *gorm.DB, id string, published bool, createdAt time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		ID:         id,
		Title:      "Title " + id,
		Content:    "Content",
		Excerpt:    "Excerpt",
		Category:   models.CategoryTeaching,
		AuthorID:   "author",
		AuthorName: "Pasteur",
		CreatedAt:  createdAt,
	}
	require.NoError(t, db.Create(p).Error)
	if published {
		require.NoError(t, db.Model(p).Update("published", true).Error)
		p.Published = true
	}
	return p
}

func seedComment(t *testing.T, db *gorm.DB, id, postID string, approved bool, createdAt time.Time) *models.Comment {
	t.Helper()
	c := &models.Comment{ID: id, PostID: postID, UserID: "u1", UserName: "Alice", Content: "Amen " + id, CreatedAt: createdAt}
	require.NoError(t, db.Create(c).Error)
	if approved {
		require.NoError(t, db.Model(c).Update("approved", true).Error)
		c.Approved = true
	}
	return c
}
