package repository

import (
	"context"
	"time"

	"chapel/internal/models"
	"chapel/internal/observability"

	"gorm.io/gorm"
)

// AuditFilter narrows the moderation event listing. Zero values match everything.
type AuditFilter struct {
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Since      time.Time
	Limit      int
}

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

// AuditRepository appends and reads moderation events.
type AuditRepository interface {
	Record(ctx context.Context, event *models.ModerationEvent) error
	List(ctx context.Context, filter AuditFilter) ([]models.ModerationEvent, error)
}

type auditRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db, log: observability.NewRepoLogger("moderation_events")}
}

func (r *auditRepository) Record(ctx context.Context, event *models.ModerationEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{
		"action":    event.Action,
		"target_id": event.TargetID,
		"actor_id":  event.ActorID,
	})
	return nil
}

// List returns events newest first.
func (r *auditRepository) List(ctx context.Context, filter AuditFilter) ([]models.ModerationEvent, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.ModerationEvent{})
	if filter.ActorID != "" {
		q = q.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.TargetType != "" {
		q = q.Where("target_type = ?", filter.TargetType)
	}
	if filter.TargetID != "" {
		q = q.Where("target_id = ?", filter.TargetID)
	}
	if !filter.Since.IsZero() {
		q = q.Where("created_at >= ?", filter.Since)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	events := []models.ModerationEvent{}
	if err := q.Order("created_at DESC").Limit(limit).Find(&events).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return events, nil
}
