package moderation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"chapel/internal/models"
)

// CommentStore is the comment half of content.Repository.
type CommentStore interface {
	ListCommentsForModeration(ctx context.Context, filter models.CommentFilter) ([]models.ModerationComment, error)
	PendingCommentCount(ctx context.Context) (int64, error)
	ApproveComment(ctx context.Context, id string) (*models.Comment, error)
	RejectComment(ctx context.Context, id string) error
}

// CommentManager drives the moderation queue. The filter defaults to pending.
type CommentManager struct {
	store  CommentStore
	logger *slog.Logger
	gen    generation

	mu       sync.RWMutex
	filter   models.CommentFilter
	comments []models.ModerationComment
}

func NewCommentManager(store CommentStore, logger *slog.Logger) *CommentManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentManager{store: store, logger: logger, filter: models.CommentFilterPending}
}

func (m *CommentManager) Filter() models.CommentFilter {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.filter
}

// SetFilter switches the filter and reloads. A load still running for the old
// filter is dropped.
func (m *CommentManager) SetFilter(ctx context.Context, filter models.CommentFilter) error {
	if _, ok := models.ParseCommentFilter(string(filter)); !ok || filter == "" {
		return fmt.Errorf("unknown comment filter %q", filter)
	}
	m.mu.Lock()
	m.filter = filter
	m.mu.Unlock()
	return m.Load(ctx)
}

// Load fetches the comments matching the current filter, newest first.
func (m *CommentManager) Load(ctx context.Context) error {
	gen := m.gen.next()
	filter := m.Filter()
	comments, err := m.store.ListCommentsForModeration(ctx, filter)
	if !m.gen.current(gen) {
		return ErrStale
	}
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.comments = comments
	m.mu.Unlock()
	return nil
}

// Reset empties the list and drops in-flight loads.
func (m *CommentManager) Reset() {
	m.gen.next()
	m.mu.Lock()
	m.comments = nil
	m.mu.Unlock()
}

func (m *CommentManager) Comments() []models.ModerationComment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.comments)
}

// PendingCount asks the backend how many comments await approval.
func (m *CommentManager) PendingCount(ctx context.Context) (int64, error) {
	return m.store.PendingCommentCount(ctx)
}

// Approve is terminal and idempotent. Under the pending filter the comment
// leaves the list; otherwise it is marked approved in place.
func (m *CommentManager) Approve(ctx context.Context, id string) error {
	approved, err := m.store.ApproveComment(ctx, id)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.filter == models.CommentFilterPending {
		m.comments = slices.DeleteFunc(m.comments, func(c models.ModerationComment) bool { return c.ID == id })
		return nil
	}
	for i := range m.comments {
		if m.comments[i].ID == id {
			m.comments[i].Approved = approved.Approved
		}
	}
	return nil
}

// Reject deletes the comment after confirmation.
func (m *CommentManager) Reject(ctx context.Context, id string, c Confirmer) error {
	if err := confirm(ctx, c, "Supprimer ce commentaire ?"); err != nil {
		return err
	}
	if err := m.store.RejectComment(ctx, id); err != nil {
		m.logger.WarnContext(ctx, "comment reject failed", slog.String("comment_id", id), slog.String("error", err.Error()))
		return err
	}
	m.mu.Lock()
	m.comments = slices.DeleteFunc(m.comments, func(c models.ModerationComment) bool { return c.ID == id })
	m.mu.Unlock()
	return nil
}
