package server

import (
	"chapel/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/profiles/me
// @Summary Current profile
// @Tags profiles
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.profileService.GetProfile(c.UserContext(), userIDFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PATCH /api/profiles/me
// @Summary Update own profile
// @Description Only the display name can be changed here; the role is rejected
// @Tags profiles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body models.ProfilePatch true "Profile changes"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /profiles/me [patch]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var patch models.ProfilePatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "Invalid request body")
	}

	userID := userIDFrom(c)
	profile, err := s.profileService.UpdateProfile(c.UserContext(), userID, userID, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// ListProfiles handles GET /api/profiles
// @Summary List profiles
// @Tags profiles
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Profile
// @Failure 403 {object} models.ErrorResponse
// @Router /profiles [get]
func (s *Server) ListProfiles(c *fiber.Ctx) error {
	profiles, err := s.profileService.ListProfiles(c.UserContext(), userIDFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profiles)
}

// SetProfileRole handles PATCH /api/profiles/:id/role
// @Summary Change a profile's role
// @Tags profiles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param request body object{role=string} true "New role"
// @Success 200 {object} models.Profile
// @Failure 409 {object} models.ErrorResponse
// @Router /profiles/{id}/role [patch]
func (s *Server) SetProfileRole(c *fiber.Ctx) error {
	var req struct {
		Role models.Role `json:"role"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	profile, err := s.profileService.SetRole(c.UserContext(), userIDFrom(c), c.Params("id"), req.Role)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetProfile handles GET /api/profiles/:id. Users may read their own profile; admins any.
// @Summary Get a profile
// @Tags profiles
// @Security BearerAuth
// @Produce json
// @Param id path string true "Profile ID"
// @Success 200 {object} models.Profile
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /profiles/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := userIDFrom(c)
	id := c.Params("id")

	if id != userID {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return respondError(c, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
	}

	profile, err := s.profileService.GetProfile(ctx, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
