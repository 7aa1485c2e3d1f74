package service

import (
	"context"
	"fmt"
	"strings"

	"stuverflow/internal/cache"
	"stuverflow/internal/models"
	"stuverflow/internal/repository"
)

// QuestionService handles question CRUD, votes, views and bookmarks.
type QuestionService struct {
	questionRepo repository.QuestionRepository
	bookmarkRepo repository.BookmarkRepository
	userRepo     repository.UserRepository
	notifier     *NotificationService
}

type CreateQuestionInput struct {
	UserID      uint
	Title       string
	Description string
	Tags        []string
}

type VoteQuestionInput struct {
	ActorID    uint
	QuestionID uint
	Vote       models.VoteType
}

type DeleteQuestionInput struct {
	UserID     uint
	QuestionID uint
}

const maxTitleLen = 255

func NewQuestionService(
	questionRepo repository.QuestionRepository,
	bookmarkRepo repository.BookmarkRepository,
	userRepo repository.UserRepository,
	notifier *NotificationService,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		bookmarkRepo: bookmarkRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

func (s *QuestionService) Create(ctx context.Context, in CreateQuestionInput) (*models.Question, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 255 characters)")
	}
	if in.Description == "" {
		return nil, models.NewValidationError("Description is required")
	}

	question := &models.Question{
		Title:       in.Title,
		Description: in.Description,
		UserID:      in.UserID,
	}
	question.SetTagList(normalizeTags(in.Tags))

	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}
	cache.InvalidateRankings(ctx)
	return s.questionRepo.GetByID(ctx, question.ID)
}

func (s *QuestionService) List(ctx context.Context, limit, offset int) ([]models.Question, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.questionRepo.ListNewest(ctx, limit, offset)
}

// Get returns the question and bumps its view counter. The bump is a single
// atomic statement; concurrent readers never lose increments.
func (s *QuestionService) Get(ctx context.Context, id uint) (*models.Question, error) {
	if err := s.questionRepo.IncrementView(ctx, id); err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cache.InvalidateQuestion(ctx, id)
	return question, nil
}

func (s *QuestionService) ListByUser(ctx context.Context, userID uint) ([]models.Question, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.questionRepo.ListByUser(ctx, userID)
}

// ListByInterests returns recent questions whose tags overlap the user's
// comma-separated interests, case-insensitively.
func (s *QuestionService) ListByInterests(ctx context.Context, userID uint) ([]models.Question, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	interests := make(map[string]bool)
	for _, raw := range strings.Split(user.Interests, ",") {
		interest := strings.ToLower(strings.TrimSpace(raw))
		if interest != "" {
			interests[interest] = true
		}
	}
	if len(interests) == 0 {
		return nil, nil
	}

	questions, err := s.questionRepo.ListNewest(ctx, 100, 0)
	if err != nil {
		return nil, err
	}

	var matched []models.Question
	for _, q := range questions {
		for _, tag := range q.TagList() {
			if interests[strings.ToLower(tag)] {
				matched = append(matched, q)
				break
			}
		}
	}
	return matched, nil
}

// Vote applies a strict +1 to the chosen counter. There is no toggle and no
// undo; repeated votes keep incrementing. The question owner is notified
// unless they voted on their own question.
func (s *QuestionService) Vote(ctx context.Context, in VoteQuestionInput) (*models.Question, error) {
	if !in.Vote.Valid() {
		return nil, models.NewValidationError("vote_type must be 'upvote' or 'downvote'")
	}

	question, err := s.questionRepo.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}
	if err := s.questionRepo.IncrementVote(ctx, in.QuestionID, in.Vote); err != nil {
		return nil, err
	}
	cache.InvalidateQuestion(ctx, in.QuestionID)
	cache.InvalidateRankings(ctx)

	if in.Vote == models.VoteUpvote {
		actor, err := s.userRepo.GetByID(ctx, in.ActorID)
		if err != nil {
			return nil, err
		}
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			RecipientID: question.UserID,
			SenderID:    &in.ActorID,
			Type:        models.NotificationQuestionVote,
			Title:       "Your question got an upvote",
			Message:     fmt.Sprintf("%s upvoted your question \"%s\"", actor.DisplayName(), question.Title),
			QuestionID:  &question.ID,
		}); err != nil {
			return nil, err
		}
	}

	return s.questionRepo.GetByID(ctx, in.QuestionID)
}

func (s *QuestionService) Delete(ctx context.Context, in DeleteQuestionInput) error {
	question, err := s.questionRepo.GetByID(ctx, in.QuestionID)
	if err != nil {
		return err
	}
	if question.UserID != in.UserID {
		return models.NewForbiddenError("You can only delete your own questions")
	}
	if err := s.questionRepo.Delete(ctx, in.QuestionID); err != nil {
		return err
	}
	cache.InvalidateQuestion(ctx, in.QuestionID)
	cache.InvalidateRankings(ctx)
	return nil
}

// ToggleBookmark adds or removes the bookmark and reports the resulting
// state. Adding notifies the question owner; removing is silent.
func (s *QuestionService) ToggleBookmark(ctx context.Context, userID, questionID uint) (bool, error) {
	existing, err := s.bookmarkRepo.Get(ctx, userID, questionID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if err := s.bookmarkRepo.Delete(ctx, existing.ID); err != nil {
			return false, err
		}
		return false, nil
	}

	question, err := s.questionRepo.GetByID(ctx, questionID)
	if err != nil {
		return false, err
	}
	if err := s.bookmarkRepo.Create(ctx, &models.Bookmark{
		UserID:     userID,
		QuestionID: questionID,
	}); err != nil {
		return false, err
	}

	actor, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return true, err
	}
	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: question.UserID,
		SenderID:    &userID,
		Type:        models.NotificationBookmark,
		Title:       "Your question was bookmarked",
		Message:     fmt.Sprintf("%s bookmarked your question \"%s\"", actor.DisplayName(), question.Title),
		QuestionID:  &question.ID,
	}); err != nil {
		return true, err
	}
	return true, nil
}

func (s *QuestionService) ListBookmarks(ctx context.Context, userID uint) ([]models.Bookmark, error) {
	return s.bookmarkRepo.ListByUser(ctx, userID)
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
