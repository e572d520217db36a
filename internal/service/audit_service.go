package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"chapel/internal/middleware"
	"chapel/internal/models"
	"chapel/internal/notifications"
	"chapel/internal/observability"
	"chapel/internal/repository"
)

// ModerationPublisher fans moderation events out to connected admins.
type ModerationPublisher interface {
	PublishModeration(ctx context.Context, payload string) error
}

// AuditService appends moderation events and announces them.
type AuditService struct {
	repo      repository.AuditRepository
	publisher ModerationPublisher
	isAdmin   AdminCheck
}

func NewAuditService(repo repository.AuditRepository, publisher ModerationPublisher, isAdmin AdminCheck) *AuditService {
	return &AuditService{repo: repo, publisher: publisher, isAdmin: isAdmin}
}

// Record appends an event after a successful mutation. Failures are logged and
// never undo the mutation. detail is stored as JSON when non-nil.
func (s *AuditService) Record(ctx context.Context, actorID, action, targetType, targetID string, detail any) {
	if s == nil {
		return
	}
	ctx, span := observability.GetTraceLayer().TraceModeration(ctx, action, targetType, targetID)
	defer span.End()
	observability.RecordModerationAction(action)

	event := &models.ModerationEvent{
		ActorID:    actorID,
		Action:     action,
		TargetType: targetType,
		TargetID:   targetID,
	}
	if detail != nil {
		if b, err := json.Marshal(detail); err == nil {
			event.Detail = string(b)
		}
	}

	if s.repo != nil {
		if err := s.repo.Record(ctx, event); err != nil {
			span.RecordError(err)
			observability.LogAsyncOperationError(ctx, "audit_record", err, map[string]any{
				"action":    action,
				"target_id": targetID,
			})
			return
		}
	}

	if s.publisher == nil {
		return
	}
	payload, err := notifications.Encode(notifications.EventModeration, event)
	if err != nil {
		return
	}
	if err := s.publisher.PublishModeration(ctx, payload); err != nil {
		middleware.Logger.WarnContext(ctx, "moderation publish failed",
			slog.String("action", action), slog.String("error", err.Error()))
	}
}

// List returns audit rows for an admin actor.
func (s *AuditService) List(ctx context.Context, actorID string, filter repository.AuditFilter) ([]models.ModerationEvent, error) {
	if err := requireAdmin(ctx, s.isAdmin, actorID); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}
