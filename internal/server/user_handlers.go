package server

import (
	"stuverflow/internal/models"
	"stuverflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile returns a user's public profile.
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, user)
}

type updateProfileRequest struct {
	Name           *string `json:"name"`
	Handle         *string `json:"handle"`
	Bio            *string `json:"bio"`
	Institution    *string `json:"institution"`
	Title          *string `json:"title"`
	Expertise      *string `json:"expertise"`
	Certifications *string `json:"certifications"`
	Interests      *string `json:"interests"`
	ProfilePicture *string `json:"profile_picture"`
}

// UpdateProfile updates the caller's own profile. Absent fields stay
// unchanged.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	if uid != id {
		return models.RespondWithError(c, models.NewForbiddenError("You can only update your own profile"))
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:         id,
		Name:           req.Name,
		Handle:         req.Handle,
		Bio:            req.Bio,
		Institution:    req.Institution,
		Title:          req.Title,
		Expertise:      req.Expertise,
		Certifications: req.Certifications,
		Interests:      req.Interests,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, user)
}

// GetNewUsers returns the latest registered users.
func (s *Server) GetNewUsers(c *fiber.Ctx) error {
	users, err := s.userService.Search(c.UserContext(), "", 10, 0)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, users)
}

// GetUserQuestions lists a user's questions, newest first.
func (s *Server) GetUserQuestions(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	questions, err := s.questionService.ListByUser(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, questionViews(questions))
}

// GetUserQuestionsByInterests lists recent questions matching the user's
// interest tags.
func (s *Server) GetUserQuestionsByInterests(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	questions, err := s.questionService.ListByInterests(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, questionViews(questions))
}

// GetUserBookmarks lists the caller's bookmarked questions.
func (s *Server) GetUserBookmarks(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}
	if uid != id {
		return models.RespondWithError(c, models.NewForbiddenError("You can only view your own bookmarks"))
	}

	bookmarks, err := s.questionService.ListBookmarks(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, bookmarks)
}
