package server

import (
	"context"
	"errors"

	"talenthub/internal/middleware"
	"talenthub/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthRequired.
const (
	localUserID      = "userID"
	localCurrentUser = "currentUser"
	localClaims      = "claims"
)

// AuthRequired verifies the bearer token, rejects revoked tokens and loads
// the caller. The user id lands in locals and in the request context for
// logging.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := middleware.BearerToken(c)
		if err != nil {
			msg := "Authorization required"
			if errors.Is(err, middleware.ErrInvalidToken) {
				msg = "Invalid authorization header"
			}
			return models.RespondWithError(c, fiber.StatusUnauthorized, models.NewUnauthorizedError(msg))
		}

		claims, err := s.authService.Authenticate(c.UserContext(), token)
		if err != nil {
			return respondError(c, err)
		}

		user, err := s.userRepo.GetByID(c.UserContext(), claims.UserID)
		if err != nil {
			if mapServiceError(err) == fiber.StatusNotFound {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("User no longer exists"))
			}
			return respondError(c, err)
		}

		c.Locals(localUserID, user.ID)
		c.Locals(localCurrentUser, user)
		c.Locals(localClaims, claims)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, user.ID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// RequireRoles returns middleware that rejects callers whose role is not one
// of roles. Must be placed after AuthRequired.
func (s *Server) RequireRoles(roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !currentUser(c).HasRole(roles...) {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Insufficient permissions"))
		}
		return c.Next()
	}
}

// SuperAdminRequired rejects everyone but super admins.
func (s *Server) SuperAdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !currentUser(c).IsSuperAdmin() {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Super admin access required"))
		}
		return c.Next()
	}
}

// currentUser returns the user loaded by AuthRequired, or nil.
func currentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localCurrentUser).(*models.User)
	return user
}

func currentClaims(c *fiber.Ctx) *middleware.TokenClaims {
	claims, _ := c.Locals(localClaims).(*middleware.TokenClaims)
	return claims
}
