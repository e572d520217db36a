package repository

import (
	"context"
	"errors"

	"chapel/internal/cache"
	"chapel/internal/models"

	"gorm.io/gorm"
)

// IdentityRepository stores authentication records and their profiles.
type IdentityRepository interface {
	CreateWithProfile(ctx context.Context, identity *models.Identity, profile *models.Profile) error
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

type identityRepository struct {
	db *gorm.DB
}

// NewIdentityRepository returns a new IdentityRepository implementation.
func NewIdentityRepository(db *gorm.DB) IdentityRepository {
	return &identityRepository{db: db}
}

// CreateWithProfile inserts the identity and its profile row in one transaction.
// The profile shares the identity's ID.
func (r *identityRepository) CreateWithProfile(ctx context.Context, identity *models.Identity, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(identity).Error; err != nil {
			return err
		}
		profile.ID = identity.ID
		profile.Email = identity.Email
		return tx.Create(profile).Error
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Email already registered")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, profile.ID)
	return nil
}

// GetByEmail returns (nil, nil) when no identity uses the email.
func (r *identityRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	var identity models.Identity
	err := r.db.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &identity, nil
}

func (r *identityRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	var identity models.Identity
	if err := r.db.WithContext(ctx).First(&identity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Identity", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &identity, nil
}

func (r *identityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&models.Identity{}).Where("id = ?", id).Update("password_hash", passwordHash)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Identity", id)
	}
	return nil
}
