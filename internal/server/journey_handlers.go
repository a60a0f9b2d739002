package server

import (
	"scrolla/internal/service"

	"github.com/gofiber/fiber/v2"
)

// StartJourney handles POST /api/journeys/start
// @Summary Start a mindful journey
// @Tags journeys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{mood=string,purpose=string,duration=int} true "Journey"
// @Success 201 {object} models.Journey
// @Failure 400 {object} models.ErrorResponse
// @Router /journeys/start [post]
func (s *Server) StartJourney(c *fiber.Ctx) error {
	var req struct {
		Mood     string `json:"mood"`
		Purpose  string `json:"purpose"`
		Duration int    `json:"duration"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	journey, err := s.journeyService.Start(c.UserContext(), service.StartJourneyInput{
		UserID:   currentUserID(c),
		Mood:     req.Mood,
		Purpose:  req.Purpose,
		Duration: req.Duration,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(journey)
}

// CompleteJourney handles PUT /api/journeys/:id/complete
// @Summary Complete a journey
// @Tags journeys
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Journey ID"
// @Param request body object{posts_viewed=[]int} false "Posts seen during the journey"
// @Success 200 {object} models.Journey
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /journeys/{id}/complete [put]
func (s *Server) CompleteJourney(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		PostsViewed *[]uint `json:"posts_viewed"`
	}
	// The body is optional.
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	journey, err := s.journeyService.Complete(c.UserContext(), service.CompleteJourneyInput{
		UserID:      currentUserID(c),
		JourneyID:   id,
		PostsViewed: req.PostsViewed,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(journey)
}

// GetJourneyHistory handles GET /api/journeys/history
// @Summary Journey history
// @Tags journeys
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Journey
// @Router /journeys/history [get]
func (s *Server) GetJourneyHistory(c *fiber.Ctx) error {
	journeys, err := s.journeyService.History(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(journeys)
}
