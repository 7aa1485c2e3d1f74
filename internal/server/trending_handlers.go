package server

import (
	"stuverflow/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetTrendingTags returns the most used tags over the window. Query params:
// days (default 7), limit (default 10).
func (s *Server) GetTrendingTags(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	limit := c.QueryInt("limit", 0)

	tags, err := s.trendingService.Tags(c.UserContext(), days, limit)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, tags)
}

// GetTrendingTopics returns tag scores weighted by votes, views and answers.
func (s *Server) GetTrendingTopics(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	limit := c.QueryInt("limit", 0)

	topics, err := s.trendingService.Topics(c.UserContext(), days, limit)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, topics)
}

// GetTrendingUsers returns the most active authors over the window.
func (s *Server) GetTrendingUsers(c *fiber.Ctx) error {
	days := c.QueryInt("days", 0)
	limit := c.QueryInt("limit", 0)

	users, err := s.trendingService.Users(c.UserContext(), days, limit)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, users)
}
