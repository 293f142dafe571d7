package server

import (
	"talenthub/internal/models"
	"talenthub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/users/profile
// @Summary Current user profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} models.ErrorResponse
// @Router /users/profile [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// UpdateProfile handles PATCH /api/users/profile
// @Summary Update current user profile
// @Description Fields the caller may not change for their role are ignored
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UserPatch true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/profile [patch]
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	me := currentUser(c)
	return s.updateUser(c, me.ID)
}

// UpdateUser handles PATCH /api/users/:id
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body models.UserPatch true "User fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [patch]
func (s *Server) UpdateUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.updateUser(c, id)
}

func (s *Server) updateUser(c *fiber.Ctx, targetID uint) error {
	var patch models.UserPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}

	user, err := s.userService.UpdateUser(c.UserContext(), service.UpdateUserInput{
		Actor:    currentUser(c),
		TargetID: targetID,
		Patch:    patch,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// DeleteUser handles DELETE /api/users/:id
// @Summary Delete a user
// @Description Super admins can only be deleted by a super admin
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.userService.DeleteUser(c.UserContext(), currentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}

// SearchUsers handles GET /api/users/search?query=
// @Summary Search users
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param query query string true "Name or email fragment"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/search [get]
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	users, err := s.userService.SearchUsers(c.UserContext(), c.Query("query"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetMyStats handles GET /api/users/stats
// @Summary Caller's challenge lists
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserStats
// @Router /users/stats [get]
func (s *Server) GetMyStats(c *fiber.Ctx) error {
	stats, err := s.userService.Stats(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// SetUserChallengeLists handles PATCH /api/users/:id/stats
// @Summary Replace a user's challenge lists
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body models.ChallengeListsPatch true "Challenge ids per list"
// @Success 200 {object} models.UserStats
// @Failure 400 {object} models.ErrorResponse
// @Router /users/{id}/stats [patch]
func (s *Server) SetUserChallengeLists(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var patch models.ChallengeListsPatch
	if err := parseBody(c, &patch); err != nil {
		return nil
	}

	stats, err := s.userService.SetChallengeLists(c.UserContext(), id, patch)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// RequestAdminRole handles POST /api/users/request-admin
// @Summary Request the admin role
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string,admin_request=models.AdminRequest}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/request-admin [post]
func (s *Server) RequestAdminRole(c *fiber.Ctx) error {
	user, err := s.userService.RequestAdminRole(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"message":       "Admin request submitted",
		"admin_request": user.AdminRequest,
	})
}

// GetPendingAdminRequests handles GET /api/users/pending-admin-requests
// @Summary Pending admin requests
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.User
// @Failure 403 {object} models.ErrorResponse
// @Router /users/pending-admin-requests [get]
func (s *Server) GetPendingAdminRequests(c *fiber.Ctx) error {
	users, err := s.userService.PendingAdminRequests(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// ProcessAdminRequest handles PATCH /api/users/process-admin-request/:userId
// @Summary Approve or reject an admin request
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Param request body object{status=string,reason=string} true "Decision"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/process-admin-request/{userId} [patch]
func (s *Server) ProcessAdminRequest(c *fiber.Ctx) error {
	targetID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	var req service.ProcessAdminInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.ActorID = currentUser(c).ID
	req.TargetID = targetID

	user, err := s.userService.ProcessAdminRequest(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
