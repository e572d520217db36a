// Package bootstrap wires the runtime dependencies shared by the server and the CLIs.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"chapel/internal/cache"
	"chapel/internal/config"
	"chapel/internal/database"
	"chapel/internal/middleware"
	"chapel/internal/models"
	"chapel/internal/seed"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with demo content.
	SeedDemo bool
}

// InitRuntime connects to DB and Redis and optionally seeds demo content.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Init Redis (may result in nil client if unreachable)
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if err := ensureDevRootAdmin(cfg, db); err != nil {
		return nil, nil, fmt.Errorf("failed to bootstrap development root admin: %w", err)
	}

	if opts.SeedDemo {
		var posts int64
		if err := db.Model(&models.Post{}).Count(&posts).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to count posts: %w", err)
		}
		if posts == 0 {
			if _, err := seed.Seed(db, seed.Options{NumMembers: 5, NumPosts: 12, CommentsPerPost: 3}); err != nil {
				return nil, nil, fmt.Errorf("failed to seed demo content: %w", err)
			}
		}
	}

	return db, r, nil
}

// ensureDevRootAdmin creates or promotes the configured development administrator.
// It only runs in development with DEV_BOOTSTRAP_ROOT enabled.
func ensureDevRootAdmin(cfg *config.Config, db *gorm.DB) error {
	if cfg == nil || db == nil {
		return nil
	}
	if !strings.EqualFold(cfg.Env, "development") || !cfg.DevBootstrapRoot {
		return nil
	}

	email := models.NormalizeEmail(cfg.DevRootEmail)
	if email == "" {
		email = "root@chapel.local"
	}
	name := strings.TrimSpace(cfg.DevRootName)
	if name == "" {
		name = "Administrateur"
	}
	password := cfg.DevRootPassword
	if password == "" {
		return fmt.Errorf("DEV_ROOT_PASSWORD must be set when DEV_BOOTSTRAP_ROOT is enabled")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash root password: %w", err)
	}

	var rootID string
	if err := db.Transaction(func(tx *gorm.DB) error {
		var identity models.Identity
		findErr := tx.Where("email = ?", email).First(&identity).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			identity = models.Identity{Email: email, PasswordHash: string(hashedPassword)}
			if err := tx.Create(&identity).Error; err != nil {
				return err
			}
		case findErr != nil:
			return findErr
		}
		rootID = identity.ID

		var profile models.Profile
		findErr = tx.Where("id = ?", identity.ID).First(&profile).Error
		switch {
		case errors.Is(findErr, gorm.ErrRecordNotFound):
			profile = models.Profile{ID: identity.ID, Email: email, FullName: &name, Role: models.RoleAdmin}
			return tx.Create(&profile).Error
		case findErr != nil:
			return findErr
		}
		return tx.Model(&models.Profile{}).Where("id = ?", identity.ID).Update("role", models.RoleAdmin).Error
	}); err != nil {
		return err
	}

	cache.InvalidateProfile(context.Background(), rootID)
	middleware.Logger.Info("development root admin ensured",
		slog.String("user_id", rootID), slog.String("email", email))
	return nil
}
