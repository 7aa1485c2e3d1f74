package server

import (
	"strings"

	"stuverflow/internal/models"
	"stuverflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SearchQuestions searches questions with filters and sorts. Query params:
// q, tags (comma-separated), author, date, answered, min_votes, sort_by,
// limit, offset.
func (s *Server) SearchQuestions(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	var tags []string
	if raw := c.Query("tags"); raw != "" {
		tags = strings.Split(raw, ",")
	}

	result, err := s.searchService.Questions(c.UserContext(), service.SearchQuestionsInput{
		Query:    c.Query("q"),
		Tags:     tags,
		AuthorID: uint(c.QueryInt("author", 0)),
		Date:     c.Query("date"),
		Answered: c.Query("answered"),
		MinVotes: c.QueryInt("min_votes", 0),
		SortBy:   c.Query("sort_by"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}

	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{
		"questions": questionViews(result.Questions),
		"total":     result.Total,
		"has_more":  result.HasMore,
	})
}

// SearchUsers searches profiles by substring over name, handle, institution,
// expertise and bio.
func (s *Server) SearchUsers(c *fiber.Ctx) error {
	p := parsePagination(c, 20)

	users, err := s.searchService.Users(c.UserContext(), c.Query("q"), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, users)
}
