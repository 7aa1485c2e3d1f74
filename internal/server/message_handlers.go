package server

import (
	"stuverflow/internal/models"
	"stuverflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

type postMessageRequest struct {
	Content       string             `json:"content"`
	MessageType   models.MessageType `json:"message_type"`
	QuestionTitle string             `json:"question_title"`
	QuestionTags  []string           `json:"question_tags"`
}

// GetCommunityMessages lists top-level messages with replies and like
// counts. Members only.
func (s *Server) GetCommunityMessages(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	p := parsePagination(c, 50)

	messages, err := s.messageService.List(c.UserContext(), id, uid, p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, messages)
}

// PostCommunityMessage posts a top-level message and notifies members.
func (s *Server) PostCommunityMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req postMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	message, err := s.messageService.Post(c.UserContext(), service.PostMessageInput{
		ActorID:       uid,
		CommunityID:   id,
		Content:       req.Content,
		Type:          req.MessageType,
		QuestionTitle: req.QuestionTitle,
		QuestionTags:  req.QuestionTags,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, message)
}

// ReplyCommunityMessage posts a reply under a top-level message.
func (s *Server) ReplyCommunityMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	messageID, err := s.parseID(c, "messageID")
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

	reply, err := s.messageService.Reply(c.UserContext(), service.ReplyInput{
		ActorID:     uid,
		CommunityID: id,
		MessageID:   messageID,
		Content:     req.Content,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, reply)
}

// LikeCommunityMessage toggles the caller's like on a message.
func (s *Server) LikeCommunityMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	messageID, err := s.parseID(c, "messageID")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	liked, count, err := s.messageService.ToggleLike(c.UserContext(), uid, id, messageID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{
		"liked":      liked,
		"like_count": count,
	})
}

// DeleteCommunityMessage removes a message. Author or community admin.
func (s *Server) DeleteCommunityMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	messageID, err := s.parseID(c, "messageID")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.messageService.Delete(c.UserContext(), uid, id, messageID); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Message deleted", nil)
}
