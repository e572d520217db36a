package server

import (
	"context"
	"errors"
	"log/slog"

	"chapel/internal/cache"
	"chapel/internal/featureflags"
	"chapel/internal/middleware"
	"chapel/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// userIDFrom returns the authenticated user set by AuthRequired, or "".
func userIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals("userID").(string)
	return id
}

// respondError answers with the status mapped from the error code.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusForError(err)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()), slog.String("error", err.Error()))
	}
	return models.RespondWithError(c, status, err)
}

func badRequest(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(message))
}

func (s *Server) setUser(c *fiber.Ctx, userID string) {
	c.Locals("userID", userID)
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}

// AuthRequired validates the bearer token and rejects revoked tokens.
// Tokens are only read from the Authorization header.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := middleware.BearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := middleware.ParseAccessToken(s.config.JWTSecret, tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError(err.Error()))
		}

		if claims.JTI != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), cache.BlacklistKey(claims.JTI)).Result()
			if err != nil {
				middleware.RecordRedisError("exists")
			} else if revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("jti", claims.JTI)
		s.setUser(c, claims.UserID)
		return c.Next()
	}
}

// WSTicketRequired authenticates a websocket upgrade with a single-use ticket.
func (s *Server) WSTicketRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ticket := c.Query("ticket")
		if ticket == "" || s.redis == nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("WebSocket ticket required"))
		}

		userID, err := s.redis.GetDel(c.UserContext(), cache.WSTicketKey(ticket)).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				middleware.RecordRedisError("getdel")
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
		}

		s.setUser(c, userID)
		return c.Next()
	}
}

// AdminRequired rejects non-admin users with 403.
// It re-reads the role from the profile on every request.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := userIDFrom(c)
		if userID == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		admin, err := s.isAdmin(c.UserContext(), userID)
		if err != nil {
			return respondError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}

func (s *Server) isAdmin(ctx context.Context, userID string) (bool, error) {
	if s.isAdminCheck == nil {
		return false, nil
	}
	return s.isAdminCheck(ctx, userID)
}

// CommentsEnabled rejects comment submission when the comments toggle is off.
func (s *Server) CommentsEnabled() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Enabled(featureflags.Comments) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Comments are currently closed"))
		}
		return c.Next()
	}
}
