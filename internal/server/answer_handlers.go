package server

import (
	"stuverflow/internal/models"
	"stuverflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetAnswers lists answers for a question, newest first.
func (s *Server) GetAnswers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	answers, err := s.answerService.ListByQuestion(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, answers)
}

// CreateAnswer posts an answer to a question, notifying the question owner.
func (s *Server) CreateAnswer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	answer, err := s.answerService.Create(c.UserContext(), service.CreateAnswerInput{
		UserID:     uid,
		QuestionID: id,
		Content:    req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, answer)
}

// UpdateAnswer edits the caller's own answer.
func (s *Server) UpdateAnswer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	answer, err := s.answerService.Update(c.UserContext(), service.UpdateAnswerInput{
		UserID:   uid,
		AnswerID: id,
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, answer)
}

// DeleteAnswer removes the caller's own answer.
func (s *Server) DeleteAnswer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.answerService.Delete(c.UserContext(), uid, id); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Answer deleted", nil)
}

// VoteAnswer applies an upvote or downvote to an answer.
func (s *Server) VoteAnswer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req voteRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	answer, err := s.answerService.Vote(c.UserContext(), service.VoteAnswerInput{
		ActorID:  uid,
		AnswerID: id,
		Vote:     req.VoteType,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, answer)
}

// AcceptAnswer marks an answer as accepted. Question owner only.
func (s *Server) AcceptAnswer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	answer, err := s.answerService.Accept(c.UserContext(), service.AcceptAnswerInput{
		ActorID:  uid,
		AnswerID: id,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, answer)
}
