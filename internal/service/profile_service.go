package service

import (
	"context"
	"strings"

	"chapel/internal/models"
	"chapel/internal/repository"
	"chapel/internal/validation"
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
	audit       *AuditService
	isAdmin     AdminCheck
}

func NewProfileService(profileRepo repository.ProfileRepository, audit *AuditService, isAdmin AdminCheck) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, audit: audit, isAdmin: isAdmin}
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.profileRepo.GetByID(ctx, id)
}

// ListProfiles is the privileged read the client uses to confirm admin capability.
func (s *ProfileService) ListProfiles(ctx context.Context, actorID string) ([]models.Profile, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return nil, err
	}
	return s.profileRepo.List(ctx)
}

// UpdateProfile changes the display name of the actor's own profile, or any profile for an admin.
func (s *ProfileService) UpdateProfile(ctx context.Context, actorID, id string, patch models.ProfilePatch) (*models.Profile, error) {
	if actorID != id {
		if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
			return nil, err
		}
	}
	if patch.Role != nil {
		return nil, models.NewValidationError("role cannot be changed here")
	}
	if patch.FullName != nil {
		name := strings.TrimSpace(*patch.FullName)
		if err := validation.ValidateDisplayName(name); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		patch.FullName = &name
	}
	return s.profileRepo.Update(ctx, id, patch)
}

// SetRole assigns a role. The repository refuses to remove the last admin.
func (s *ProfileService) SetRole(ctx context.Context, actorID, targetID string, role models.Role) (*models.Profile, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, models.NewValidationError("role must be 'user' or 'admin'")
	}

	before, err := s.profileRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	updated, err := s.profileRepo.ChangeRole(ctx, targetID, role)
	if err != nil {
		return nil, err
	}
	if before.Role != updated.Role {
		s.audit.Record(ctx, actorID, models.ActionProfileRoleChanged, models.TargetProfile, targetID, map[string]string{
			"from": string(before.Role),
			"to":   string(updated.Role),
		})
	}
	return updated, nil
}
