package moderation

import (
	"context"
	"slices"
	"sync"

	"chapel/internal/models"
)

// ProfileStore is the profile half of content.Repository.
type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]models.Profile, error)
	SetUserRole(ctx context.Context, userID string, role models.Role) (*models.Profile, error)
}

// UserManager lists profiles and changes roles.
type UserManager struct {
	store ProfileStore
	gen   generation

	mu       sync.RWMutex
	profiles []models.Profile
}

func NewUserManager(store ProfileStore) *UserManager {
	return &UserManager{store: store}
}

func (m *UserManager) Load(ctx context.Context) error {
	gen := m.gen.next()
	profiles, err := m.store.ListProfiles(ctx)
	if !m.gen.current(gen) {
		return ErrStale
	}
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.profiles = profiles
	m.mu.Unlock()
	return nil
}

func (m *UserManager) Reset() {
	m.gen.next()
	m.mu.Lock()
	m.profiles = nil
	m.mu.Unlock()
}

func (m *UserManager) Profiles() []models.Profile {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.profiles)
}

// SetRole changes a role; the backend refuses to demote the last admin.
func (m *UserManager) SetRole(ctx context.Context, userID string, role models.Role) (*models.Profile, error) {
	updated, err := m.store.SetUserRole(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	for i := range m.profiles {
		if m.profiles[i].ID == updated.ID {
			m.profiles[i] = *updated
		}
	}
	m.mu.Unlock()
	return updated, nil
}
