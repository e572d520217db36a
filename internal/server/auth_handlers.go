package server

import (
	"fmt"
	"strings"
	"time"

	"chapel/internal/cache"
	"chapel/internal/middleware"
	"chapel/internal/models"
	"chapel/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// accessTokenTTL bounds how long a token stays valid without logout.
const accessTokenTTL = 24 * time.Hour

// SessionResponse is returned by signup and login.
type SessionResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int64           `json:"expires_in"`
	User        SessionUser     `json:"user"`
	Profile     *models.Profile `json:"profile"`
}

// SessionUser is the identity part of a session.
type SessionUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Signup handles POST /api/auth/signup
// @Summary Register
// @Description Create an identity and a profile with the user role, then sign in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string,full_name=string} true "Signup request"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return badRequest(c, "Email and password are required")
	}

	profile, err := s.authService.SignUp(c.UserContext(), service.SignUpInput{
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.FullName,
	})
	if err != nil {
		return respondError(c, err)
	}

	session, err := s.newSession(profile)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.Status(fiber.StatusCreated).JSON(session)
}

// Login handles POST /api/auth/login
// @Summary Sign in
// @Description Authenticate with email and password and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} SessionResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	profile, err := s.authService.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	session, err := s.newSession(profile)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}
	return c.JSON(session)
}

// Logout handles POST /api/auth/logout by revoking the presented token.
// @Summary Sign out
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	if jti != "" && s.redis != nil {
		if err := s.redis.Set(c.UserContext(), cache.BlacklistKey(jti), userIDFrom(c), accessTokenTTL).Err(); err != nil {
			middleware.RecordRedisError("set")
			return respondError(c, models.NewInternalError(err))
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCurrentUser handles GET /api/auth/user
// @Summary Current session
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{user=SessionUser,profile=models.Profile}
// @Router /auth/user [get]
func (s *Server) GetCurrentUser(c *fiber.Ctx) error {
	identity, err := s.identityRepo.GetByID(c.UserContext(), userIDFrom(c))
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Unknown user"))
		}
		return respondError(c, err)
	}
	profile, err := s.profileService.GetProfile(c.UserContext(), identity.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"user":    SessionUser{ID: identity.ID, Email: identity.Email},
		"profile": profile,
	})
}

// ChangePassword handles POST /api/auth/password
// @Summary Change password
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param request body object{current_password=string,new_password=string} true "Passwords"
// @Success 204
// @Router /auth/password [post]
func (s *Server) ChangePassword(c *fiber.Ctx) error {
	var req struct {
		Current string `json:"current_password"`
		New     string `json:"new_password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := s.authService.ChangePassword(c.UserContext(), userIDFrom(c), req.Current, req.New); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) newSession(profile *models.Profile) (*SessionResponse, error) {
	token, err := s.generateToken(profile.ID)
	if err != nil {
		return nil, err
	}
	return &SessionResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
		User:        SessionUser{ID: profile.ID, Email: profile.Email},
		Profile:     profile,
	}, nil
}

// generateToken creates a signed access token for the given user ID.
func (s *Server) generateToken(userID string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": middleware.TokenIssuer,
		"aud": middleware.TokenAudience,
		"exp": now.Add(accessTokenTTL).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}
