package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags returns the state of every site toggle and the FEATURE_FLAGS
// entries that were ignored.
// @Summary Feature flags
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} object{toggles=map[string]bool,ignored=[]string}
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	ignored := s.featureFlags.Ignored()
	if ignored == nil {
		ignored = []string{}
	}
	return c.JSON(fiber.Map{
		"toggles": s.featureFlags.Snapshot(),
		"ignored": ignored,
	})
}
