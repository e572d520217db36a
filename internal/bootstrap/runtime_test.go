package bootstrap

import (
	"testing"

	"chapel/internal/config"
	"chapel/internal/database"
	"chapel/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) *gorm.DB {
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

func TestEnsureDevRootAdmin(t *testing.T) {
	db := setupDB(t)
	cfg := &config.Config{
		Env:              "development",
		DevBootstrapRoot: true,
		DevRootEmail:     "Root@Chapel.local",
		DevRootPassword:  "rootpass123",
		DevRootName:      "Pasteur",
	}

	require.NoError(t, ensureDevRootAdmin(cfg, db))

	var identity models.Identity
	require.NoError(t, db.Where("email = ?", "root@chapel.local").First(&identity).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte("rootpass123")))

	var profile models.Profile
	require.NoError(t, db.First(&profile, "id = ?", identity.ID).Error)
	assert.Equal(t, models.RoleAdmin, profile.Role)
	assert.Equal(t, "Pasteur", profile.DisplayName())

	// A demoted root is promoted again on the next start.
	require.NoError(t, db.Model(&profile).Update("role", models.RoleUser).Error)
	require.NoError(t, ensureDevRootAdmin(cfg, db))
	require.NoError(t, db.First(&profile, "id = ?", identity.ID).Error)
	assert.Equal(t, models.RoleAdmin, profile.Role)

	var identities int64
	require.NoError(t, db.Model(&models.Identity{}).Count(&identities).Error)
	assert.EqualValues(t, 1, identities)
}

func TestEnsureDevRootAdmin_Skipped(t *testing.T) {
	db := setupDB(t)

	require.NoError(t, ensureDevRootAdmin(&config.Config{Env: "production", DevBootstrapRoot: true}, db))
	require.NoError(t, ensureDevRootAdmin(&config.Config{Env: "development"}, db))

	var profiles int64
	require.NoError(t, db.Model(&models.Profile{}).Count(&profiles).Error)
	assert.Zero(t, profiles)

	err := ensureDevRootAdmin(&config.Config{Env: "development", DevBootstrapRoot: true}, db)
	assert.Error(t, err)
}
