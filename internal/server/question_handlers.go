package server

import (
	"stuverflow/internal/models"
	"stuverflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

// questionView decorates a question with its decoded tag list; the raw
// column is not serialized.
type questionView struct {
	models.Question
	Tags []string `json:"tags"`
}

func newQuestionView(q models.Question) questionView {
	tags := q.TagList()
	if tags == nil {
		tags = []string{}
	}
	return questionView{Question: q, Tags: tags}
}

func questionViews(questions []models.Question) []questionView {
	views := make([]questionView, 0, len(questions))
	for _, q := range questions {
		views = append(views, newQuestionView(q))
	}
	return views
}

type createQuestionRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// GetQuestions lists questions newest first.
func (s *Server) GetQuestions(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	questions, err := s.questionService.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, questionViews(questions))
}

// CreateQuestion posts a new question for the caller.
func (s *Server) CreateQuestion(c *fiber.Ctx) error {
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req createQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	question, err := s.questionService.Create(c.UserContext(), service.CreateQuestionInput{
		UserID:      uid,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, newQuestionView(*question))
}

// GetQuestion returns question detail and bumps the view counter.
func (s *Server) GetQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	question, err := s.questionService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, newQuestionView(*question))
}

// DeleteQuestion removes the caller's question together with its answers
// and bookmarks.
func (s *Server) DeleteQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.questionService.Delete(c.UserContext(), service.DeleteQuestionInput{
		UserID:     uid,
		QuestionID: id,
	}); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Question deleted", nil)
}

type voteRequest struct {
	VoteType models.VoteType `json:"vote_type"`
}

// VoteQuestion applies an upvote or downvote.
func (s *Server) VoteQuestion(c *fiber.Ctx) error {
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

	question, err := s.questionService.Vote(c.UserContext(), service.VoteQuestionInput{
		ActorID:    uid,
		QuestionID: id,
		Vote:       req.VoteType,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, newQuestionView(*question))
}

// ToggleBookmark bookmarks or unbookmarks the question for the caller.
func (s *Server) ToggleBookmark(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	bookmarked, err := s.questionService.ToggleBookmark(c.UserContext(), uid, id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"bookmarked": bookmarked})
}

// GetHotQuestions returns the most viewed questions.
func (s *Server) GetHotQuestions(c *fiber.Ctx) error {
	questions, err := s.trendingService.Hot(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, questionViews(questions))
}

// GetTrendingQuestions returns the most upvoted recent questions.
func (s *Server) GetTrendingQuestions(c *fiber.Ctx) error {
	questions, err := s.trendingService.Trending(c.UserContext())
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, questionViews(questions))
}
