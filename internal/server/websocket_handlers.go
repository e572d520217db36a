package server

import (
	"encoding/json"
	"errors"
	"log/slog"

	"chapel/internal/cache"
	"chapel/internal/middleware"
	"chapel/internal/models"
	"chapel/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// IssueWSTicket handles POST /api/ws/ticket
// @Summary Issue a websocket ticket
// @Description Return a single-use ticket for the moderation feed, valid for 60 seconds
// @Tags moderation
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{ticket=string,expires_in=int}
// @Router /ws/ticket [post]
func (s *Server) IssueWSTicket(c *fiber.Ctx) error {
	if s.redis == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			models.NewInternalError(errors.New("ticket store unavailable")))
	}

	ticket := uuid.NewString()
	if err := s.redis.Set(c.UserContext(), cache.WSTicketKey(ticket), userIDFrom(c), cache.WSTicketTTL).Err(); err != nil {
		middleware.RecordRedisError("set")
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"ticket":     ticket,
		"expires_in": int(cache.WSTicketTTL.Seconds()),
	})
}

// refusalFrame is the last message sent on a feed the hub would not register.
func refusalFrame(err error) []byte {
	b, merr := json.Marshal(models.ErrorResponse{Error: err.Error(), Code: models.CodeUnavailable})
	if merr != nil {
		return []byte(`{"error":"moderation feed unavailable","code":"` + models.CodeUnavailable + `"}`)
	}
	return b
}

// ModerationFeedHandler streams moderation events to a connected admin.
// The feed is push-only; anything the client sends is discarded.
func (s *Server) ModerationFeedHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		userID, _ := conn.Locals("userID").(string)
		if s.hub == nil || userID == "" {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(userID, conn)
		if err != nil {
			middleware.Logger.Warn("moderation feed registration refused",
				slog.String("user_id", userID), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, refusalFrame(err))
			_ = conn.Close()
			return
		}

		if hello, err := notifications.Encode("connected", fiber.Map{"user_id": userID}); err == nil {
			client.TrySend([]byte(hello))
		}

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
