package service

import (
	"context"
	"testing"

	"chapel/internal/models"
	"chapel/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedServiceProfile(t *testing.T, db *gorm.DB, id string, role models.Role) {
	t.Helper()
	require.NoError(t, db.Create(&models.Profile{ID: id, Email: id + "@chapel.test", Role: role}).Error)
}

func TestProfileService_SetRole(t *testing.T) {
	db := setupServiceDB(t)
	repo := repository.NewProfileRepository(db)
	audit := &auditRepoStub{}
	svc := NewProfileService(repo, NewAuditService(audit, nil, nil), NewAdminCheck(repo))
	ctx := context.Background()

	seedServiceProfile(t, db, "admin1", models.RoleAdmin)
	seedServiceProfile(t, db, "u1", models.RoleUser)

	_, err := svc.SetRole(ctx, "u1", "u1", models.RoleAdmin)
	assertCode(t, err, models.CodeForbidden)

	updated, err := svc.SetRole(ctx, "admin1", "u1", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, updated.Role)
	require.Len(t, audit.events, 1)
	assert.JSONEq(t, `{"from":"user","to":"admin"}`, audit.events[0].Detail)

	// u1 is now admin and passes the privileged read.
	profiles, err := svc.ListProfiles(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, profiles, 2)

	// Self-demotion works while another admin remains, then the last admin is kept.
	_, err = svc.SetRole(ctx, "admin1", "admin1", models.RoleUser)
	require.NoError(t, err)
	_, err = svc.SetRole(ctx, "u1", "u1", models.RoleUser)
	assertCode(t, err, models.CodeConflict)

	_, err = svc.SetRole(ctx, "u1", "ghost", models.RoleAdmin)
	assertCode(t, err, models.CodeNotFound)

	_, err = svc.SetRole(ctx, "u1", "admin1", models.Role("root"))
	assertCode(t, err, models.CodeValidation)
}

func TestProfileService_UpdateProfile(t *testing.T) {
	db := setupServiceDB(t)
	repo := repository.NewProfileRepository(db)
	svc := NewProfileService(repo, nil, NewAdminCheck(repo))
	ctx := context.Background()

	seedServiceProfile(t, db, "u1", models.RoleUser)
	seedServiceProfile(t, db, "u2", models.RoleUser)

	got, err := svc.UpdateProfile(ctx, "u1", "u1", models.ProfilePatch{FullName: strPtr("  Marie ")})
	require.NoError(t, err)
	assert.Equal(t, "Marie", got.DisplayName())

	_, err = svc.UpdateProfile(ctx, "u2", "u1", models.ProfilePatch{FullName: strPtr("Mallory")})
	assertCode(t, err, models.CodeForbidden)

	admin := models.RoleAdmin
	_, err = svc.UpdateProfile(ctx, "u1", "u1", models.ProfilePatch{Role: &admin})
	assertCode(t, err, models.CodeValidation)
}

func TestNewAdminCheck(t *testing.T) {
	db := setupServiceDB(t)
	repo := repository.NewProfileRepository(db)
	seedServiceProfile(t, db, "admin1", models.RoleAdmin)
	seedServiceProfile(t, db, "u1", models.RoleUser)
	check := NewAdminCheck(repo)
	ctx := context.Background()

	ok, err := check(ctx, "admin1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = check(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = check(ctx, "ghost")
	require.NoError(t, err)
	assert.False(t, ok)
}
