package repository

import (
	"context"
	"errors"

	"chapel/internal/cache"
	"chapel/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetRole(ctx context.Context, id string) (models.Role, error)
	List(ctx context.Context) ([]models.Profile, error)
	Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error)
	ChangeRole(ctx context.Context, id string, role models.Role) (*models.Profile, error)
	CountAdmins(ctx context.Context) (int64, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(id), &profile, cache.ProfileTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Profile", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetRole reads the role from the primary, bypassing the profile cache and the
// replica, so authorization sees a role change as soon as it commits.
func (r *profileRepository) GetRole(ctx context.Context, id string) (models.Role, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Select("id", "role").First(&profile, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", models.NewNotFoundError("Profile", id)
		}
		return "", models.NewInternalError(err)
	}
	return profile.Role, nil
}

// List returns every profile, newest first.
func (r *profileRepository) List(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	if err := readDB(r.db).WithContext(ctx).Order("created_at DESC").Find(&profiles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

// Update writes the display name. Role changes go through ChangeRole.
func (r *profileRepository) Update(ctx context.Context, id string, patch models.ProfilePatch) (*models.Profile, error) {
	cols := patch.Columns()
	delete(cols, "role")
	if len(cols) == 0 {
		return r.GetByID(ctx, id)
	}

	var profile models.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&profile, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Model(&profile).Updates(cols).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Profile", id)
		}
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, id)
	return &profile, nil
}

// ChangeRole sets the role, refusing to demote the last remaining admin.
func (r *profileRepository) ChangeRole(ctx context.Context, id string, role models.Role) (*models.Profile, error) {
	if !role.Valid() {
		return nil, models.NewValidationError("role must be 'user' or 'admin'")
	}

	var profile models.Profile
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&profile, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Profile", id)
			}
			return err
		}
		if profile.Role == role {
			return nil
		}
		if profile.Role == models.RoleAdmin && role != models.RoleAdmin {
			var admins int64
			if err := tx.Model(&models.Profile{}).Where("role = ?", models.RoleAdmin).Count(&admins).Error; err != nil {
				return err
			}
			if admins <= 1 {
				return models.NewConflictError("Cannot remove the last administrator")
			}
		}
		return tx.Model(&profile).Update("role", role).Error
	})
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, id)
	return &profile, nil
}

func (r *profileRepository) CountAdmins(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Profile{}).Where("role = ?", models.RoleAdmin).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
