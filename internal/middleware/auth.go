// Package middleware provides authentication and authorization middleware for the application.
package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"

	"chapel/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// Token issuer and audience stamped on every access token.
const (
	TokenIssuer   = "chapel-api"
	TokenAudience = "chapel-client"
)

// APIKeyHeader carries the anonymous key every client request must present.
const APIKeyHeader = "apikey"

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrInvalidIssuer  = errors.New("invalid token issuer")
	ErrInvalidSubject = errors.New("invalid subject claim")
)

// AccessClaims is the parsed content of an access token.
type AccessClaims struct {
	UserID string
	JTI    string
}

// ParseAccessToken validates signature, issuer and audience and returns the subject and JTI.
func ParseAccessToken(secret, tokenString string) (*AccessClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	if issuer, ok := claims["iss"].(string); !ok || issuer != TokenIssuer {
		return nil, ErrInvalidIssuer
	}
	if audience, ok := claims["aud"].(string); !ok || audience != TokenAudience {
		return nil, ErrInvalidIssuer
	}

	sub, ok := claims["sub"].(string)
	if !ok || strings.TrimSpace(sub) == "" {
		return nil, ErrInvalidSubject
	}

	jti, _ := claims["jti"].(string)
	return &AccessClaims{UserID: sub, JTI: jti}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// APIKeyRequired rejects requests that do not carry the configured anonymous key.
func APIKeyRequired(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get(APIKeyHeader)
		if got == "" {
			got = c.Query(APIKeyHeader)
		}
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid API key"))
		}
		return c.Next()
	}
}
