package server

import (
	"talenthub/internal/models"
	"talenthub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateChallenge handles POST /api/challenges
// @Summary Post a challenge
// @Tags challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CreateChallengeInput true "Challenge"
// @Success 201 {object} models.Challenge
// @Failure 400 {object} models.ErrorResponse
// @Router /challenges [post]
func (s *Server) CreateChallenge(c *fiber.Ctx) error {
	var req service.CreateChallengeInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.CreatorID = currentUser(c).ID

	challenge, err := s.challengeService.CreateChallenge(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(challenge)
}

// SearchChallenges handles GET /api/challenges/search?query=
// @Summary Search challenges
// @Tags challenges
// @Produce json
// @Param query query string true "Text to match in title, brief or description"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Challenge
// @Failure 400 {object} models.ErrorResponse
// @Router /challenges/search [get]
func (s *Server) SearchChallenges(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPageSize)
	challenges, err := s.challengeService.SearchChallenges(c.UserContext(), c.Query("query"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(challenges)
}

// UpdateChallenge handles PATCH /api/challenges/:id
// @Summary Update challenge details
// @Tags challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Challenge ID"
// @Param request body service.UpdateChallengeInput true "Fields to change"
// @Success 200 {object} models.Challenge
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /challenges/{id} [patch]
func (s *Server) UpdateChallenge(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req service.UpdateChallengeInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	challenge, err := s.challengeService.UpdateChallenge(c.UserContext(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(challenge)
}

// Participate handles POST /api/challenges/:id/participate
// @Summary Join an open challenge
// @Tags challenges
// @Produce json
// @Security BearerAuth
// @Param id path int true "Challenge ID"
// @Success 200 {object} models.Challenge
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /challenges/{id}/participate [post]
func (s *Server) Participate(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	challenge, err := s.challengeService.Participate(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(challenge)
}

// UpdateChallengeStatus handles PATCH /api/challenges/:id/status
// @Summary Change challenge status
// @Tags challenges
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Challenge ID"
// @Param request body object{status=string} true "open, ongoing or completed"
// @Success 200 {object} models.Challenge
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /challenges/{id}/status [patch]
func (s *Server) UpdateChallengeStatus(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Status models.ChallengeStatus `json:"status"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	challenge, err := s.challengeService.UpdateStatus(c.UserContext(), id, req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(challenge)
}

// GetChallengeStats handles GET /api/challenges/stats
// @Summary Challenge counts by status
// @Tags challenges
// @Produce json
// @Success 200 {object} models.ChallengeStats
// @Router /challenges/stats [get]
func (s *Server) GetChallengeStats(c *fiber.Ctx) error {
	stats, err := s.challengeService.Stats(c.UserContext(), nil)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}

// GetCreatorChallengeStats handles GET /api/challenges/user/:userId
// @Summary Challenge counts by status for one creator
// @Tags challenges
// @Produce json
// @Security BearerAuth
// @Param userId path int true "Creator ID"
// @Success 200 {object} models.ChallengeStats
// @Router /challenges/user/{userId} [get]
func (s *Server) GetCreatorChallengeStats(c *fiber.Ctx) error {
	creatorID, err := parseID(c, "userId")
	if err != nil {
		return nil
	}
	stats, err := s.challengeService.Stats(c.UserContext(), &creatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(stats)
}
