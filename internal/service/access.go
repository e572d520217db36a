// Package service holds the business rules behind the HTTP handlers.
package service

import (
	"context"

	"chapel/internal/models"
	"chapel/internal/repository"
)

// AdminCheck reports whether userID currently holds the admin role.
type AdminCheck func(ctx context.Context, userID string) (bool, error)

// NewAdminCheck reads the role from the primary profile row on every call.
// A missing profile is not an admin.
func NewAdminCheck(profiles repository.ProfileRepository) AdminCheck {
	return func(ctx context.Context, userID string) (bool, error) {
		role, err := profiles.GetRole(ctx, userID)
		if err != nil {
			if models.ErrorCode(err) == models.CodeNotFound {
				return false, nil
			}
			return false, err
		}
		return role == models.RoleAdmin, nil
	}
}

func requireAdmin(ctx context.Context, isAdmin AdminCheck, userID string) error {
	if userID == "" {
		return models.NewUnauthorizedError("Authentication required")
	}
	if isAdmin == nil {
		return models.NewForbiddenError("Admin access required")
	}
	ok, err := isAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}
