package server

import (
	"talenthub/internal/featureflags"

	"github.com/gofiber/fiber/v2"
)

// FeatureFlagsResponse lists flags as evaluated for the caller.
type FeatureFlagsResponse struct {
	Flags []featureflags.State `json:"flags"`
	// StrictStatusTransitions is the value challenge status changes are checked against.
	StrictStatusTransitions bool `json:"strict_status_transitions"`
}

// GetFeatureFlags handles GET /api/admin/feature-flags
// @Summary Feature flags
// @Description Known and configured flags, evaluated for the caller
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FeatureFlagsResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /admin/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(FeatureFlagsResponse{
		Flags:                   s.featureFlags.States(currentUser(c).ID),
		StrictStatusTransitions: s.featureFlags.EnabledGlobally(featureflags.StrictStatusTransitions),
	})
}
