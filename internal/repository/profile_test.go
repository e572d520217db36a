package repository

import (
	"context"
	"testing"
	"time"

	"chapel/internal/cache"
	"chapel/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileRepository_ChangeRole(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		seed     map[string]models.Role
		target   string
		role     models.Role
		wantCode string
		wantRole models.Role
	}{
		{
			name:     "promote user",
			seed:     map[string]models.Role{"admin1": models.RoleAdmin, "u1": models.RoleUser},
			target:   "u1",
			role:     models.RoleAdmin,
			wantRole: models.RoleAdmin,
		},
		{
			name:     "demote one of two admins",
			seed:     map[string]models.Role{"admin1": models.RoleAdmin, "admin2": models.RoleAdmin},
			target:   "admin1",
			role:     models.RoleUser,
			wantRole: models.RoleUser,
		},
		{
			name:     "last admin is kept",
			seed:     map[string]models.Role{"admin1": models.RoleAdmin, "u1": models.RoleUser},
			target:   "admin1",
			role:     models.RoleUser,
			wantCode: models.CodeConflict,
			wantRole: models.RoleAdmin,
		},
		{
			name:     "same role is a no-op",
			seed:     map[string]models.Role{"admin1": models.RoleAdmin},
			target:   "admin1",
			role:     models.RoleAdmin,
			wantRole: models.RoleAdmin,
		},
		{
			name:     "unknown role",
			seed:     map[string]models.Role{"u1": models.RoleUser},
			target:   "u1",
			role:     models.Role("owner"),
			wantCode: models.CodeValidation,
			wantRole: models.RoleUser,
		},
		{
			name:     "missing profile",
			seed:     map[string]models.Role{"admin1": models.RoleAdmin},
			target:   "ghost",
			role:     models.RoleAdmin,
			wantCode: models.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := setupSQLiteDB(t)
			for id, role := range tt.seed {
				seedProfile(t, db, id, role)
			}
			repo := NewProfileRepository(db)

			got, err := repo.ChangeRole(ctx, tt.target, tt.role)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, models.ErrorCode(err))
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantRole, got.Role)
			}

			if tt.wantRole != "" {
				var stored models.Profile
				require.NoError(t, db.First(&stored, "id = ?", tt.target).Error)
				assert.Equal(t, tt.wantRole, stored.Role)
			}
		})
	}
}

func TestProfileRepository_ListNewestFirst(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewProfileRepository(db)

	first := seedProfile(t, db, "first", models.RoleUser)
	second := seedProfile(t, db, "second", models.RoleAdmin)
	require.NoError(t, db.Model(first).Update("created_at", first.CreatedAt.Add(-time.Hour)).Error)

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, second.ID, profiles[0].ID)

	admins, err := repo.CountAdmins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), admins)
}

func TestProfileRepository_UpdateIgnoresRole(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewProfileRepository(db)
	seedProfile(t, db, "u1", models.RoleUser)

	admin := models.RoleAdmin
	got, err := repo.Update(context.Background(), "u1", models.ProfilePatch{FullName: strPtr("Bob"), Role: &admin})
	require.NoError(t, err)
	assert.Equal(t, "Bob", got.DisplayName())
	assert.Equal(t, models.RoleUser, got.Role)

	_, err = repo.Update(context.Background(), "ghost", models.ProfilePatch{FullName: strPtr("x")})
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestProfileRepository_GetByIDUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	db := setupSQLiteDB(t)
	repo := NewProfileRepository(db)
	seedProfile(t, db, "u1", models.RoleUser)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
	assert.True(t, mr.Exists(cache.ProfileKey("u1")))

	_, err = repo.ChangeRole(ctx, "u1", models.RoleAdmin)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.ProfileKey("u1")), "role change must evict the cached profile")

	got, err = repo.GetByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	_, err = repo.GetByID(ctx, "ghost")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}

func TestProfileRepository_GetRoleIgnoresStaleCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() { cache.SetClient(nil) })

	db := setupSQLiteDB(t)
	repo := NewProfileRepository(db)
	seedProfile(t, db, "a1", models.RoleAdmin)
	seedProfile(t, db, "a2", models.RoleAdmin)
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	stale, err := mr.Get(cache.ProfileKey("a1"))
	require.NoError(t, err)

	_, err = repo.ChangeRole(ctx, "a1", models.RoleUser)
	require.NoError(t, err)
	// A lagging replica read repopulates the cache with the old role.
	require.NoError(t, mr.Set(cache.ProfileKey("a1"), stale))

	cached, err := repo.GetByID(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, cached.Role)

	role, err := repo.GetRole(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)

	_, err = repo.GetRole(ctx, "ghost")
	assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
}
