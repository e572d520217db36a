package server

import (
	"time"

	"chapel/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// GetAuditEvents handles GET /api/admin/audit
// @Summary Moderation audit trail
// @Description Newest first
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param actor_id query string false "Actor"
// @Param action query string false "Action, e.g. comment.approved"
// @Param target_type query string false "post, comment or profile"
// @Param target_id query string false "Target"
// @Param since query string false "RFC3339 lower bound"
// @Param limit query int false "Max rows (default 100, max 500)"
// @Success 200 {array} models.ModerationEvent
// @Router /admin/audit [get]
func (s *Server) GetAuditEvents(c *fiber.Ctx) error {
	filter := repository.AuditFilter{
		ActorID:    c.Query("actor_id"),
		Action:     c.Query("action"),
		TargetType: c.Query("target_type"),
		TargetID:   c.Query("target_id"),
		Limit:      c.QueryInt("limit", 0),
	}
	if raw := c.Query("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return badRequest(c, "since must be an RFC3339 timestamp")
		}
		filter.Since = since
	}

	events, err := s.auditService.List(c.UserContext(), userIDFrom(c), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(events)
}
