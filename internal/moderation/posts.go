package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"chapel/internal/models"
)

// PostStore is the post half of content.Repository.
type PostStore interface {
	ListAllPosts(ctx context.Context) ([]models.Post, error)
	CreatePost(ctx context.Context, in models.PostInput) (*models.Post, error)
	UpdatePost(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error)
	DeletePost(ctx context.Context, id string) error
}

// PostManager drives the admin post list: drafts and published, newest first.
type PostManager struct {
	store  PostStore
	logger *slog.Logger
	gen    generation

	mu    sync.RWMutex
	posts []models.Post
}

func NewPostManager(store PostStore, logger *slog.Logger) *PostManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostManager{store: store, logger: logger}
}

// Load replaces the list with every post.
func (m *PostManager) Load(ctx context.Context) error {
	gen := m.gen.next()
	posts, err := m.store.ListAllPosts(ctx)
	if !m.gen.current(gen) {
		return ErrStale
	}
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.posts = posts
	m.mu.Unlock()
	return nil
}

// Reset empties the list and drops in-flight loads.
func (m *PostManager) Reset() {
	m.gen.next()
	m.mu.Lock()
	m.posts = nil
	m.mu.Unlock()
}

// Posts returns a copy of the list.
func (m *PostManager) Posts() []models.Post {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.posts)
}

func (m *PostManager) find(id string) (models.Post, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	i := slices.IndexFunc(m.posts, func(p models.Post) bool { return p.ID == id })
	if i < 0 {
		return models.Post{}, false
	}
	return m.posts[i], true
}

func (m *PostManager) replace(p models.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := slices.IndexFunc(m.posts, func(x models.Post) bool { return x.ID == p.ID }); i >= 0 {
		m.posts[i] = p
	}
}

// TogglePublished flips a post between draft and published.
func (m *PostManager) TogglePublished(ctx context.Context, id string) (*models.Post, error) {
	p, ok := m.find(id)
	if !ok {
		return nil, fmt.Errorf("%w: post %s", ErrUnknownItem, id)
	}
	return m.SetPublished(ctx, id, !p.Published)
}

// SetPublished is idempotent: setting the current value still succeeds.
func (m *PostManager) SetPublished(ctx context.Context, id string, published bool) (*models.Post, error) {
	return m.update(ctx, id, models.PostPatch{Published: &published})
}

// SetFeatured is independent of the published state.
func (m *PostManager) SetFeatured(ctx context.Context, id string, featured bool) (*models.Post, error) {
	return m.update(ctx, id, models.PostPatch{Featured: &featured})
}

func (m *PostManager) update(ctx context.Context, id string, patch models.PostPatch) (*models.Post, error) {
	updated, err := m.store.UpdatePost(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	m.replace(*updated)
	return updated, nil
}

// Save creates a post when id is empty and overwrites every editor field otherwise.
func (m *PostManager) Save(ctx context.Context, id string, in models.PostInput) (*models.Post, error) {
	if id == "" {
		created, err := m.store.CreatePost(ctx, in)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.posts = slices.Insert(m.posts, 0, *created)
		m.mu.Unlock()
		return created, nil
	}

	patch := models.PostPatch{
		Title:     &in.Title,
		Content:   &in.Content,
		Excerpt:   &in.Excerpt,
		Featured:  &in.Featured,
		Published: &in.Published,
	}
	if in.Category != "" {
		patch.Category = &in.Category
	}
	return m.update(ctx, id, patch)
}

// Delete removes a post after confirmation. On failure the list is untouched.
func (m *PostManager) Delete(ctx context.Context, id string, c Confirmer) error {
	title := id
	if p, ok := m.find(id); ok {
		title = p.Title
	}
	if err := confirm(ctx, c, fmt.Sprintf("Supprimer l'article %q ?", title)); err != nil {
		return err
	}
	if err := m.store.DeletePost(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "post delete failed", slog.String("post_id", id), slog.String("error", err.Error()))
		return err
	}
	m.mu.Lock()
	m.posts = slices.DeleteFunc(m.posts, func(p models.Post) bool { return p.ID == id })
	m.mu.Unlock()
	return nil
}
