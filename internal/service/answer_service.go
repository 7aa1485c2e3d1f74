package service

import (
	"context"
	"fmt"
	"strings"

	"stuverflow/internal/cache"
	"stuverflow/internal/models"
	"stuverflow/internal/repository"
)

// AnswerService handles answers, answer votes and the accepted-answer flow.
type AnswerService struct {
	answerRepo   repository.AnswerRepository
	questionRepo repository.QuestionRepository
	userRepo     repository.UserRepository
	notifier     *NotificationService
}

type CreateAnswerInput struct {
	UserID     uint
	QuestionID uint
	Content    string
}

type UpdateAnswerInput struct {
	UserID   uint
	AnswerID uint
	Content  string
}

type VoteAnswerInput struct {
	ActorID  uint
	AnswerID uint
	Vote     models.VoteType
}

type AcceptAnswerInput struct {
	ActorID  uint
	AnswerID uint
}

func NewAnswerService(
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	notifier *NotificationService,
) *AnswerService {
	return &AnswerService{
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		userRepo:     userRepo,
		notifier:     notifier,
	}
}

func (s *AnswerService) ListByQuestion(ctx context.Context, questionID uint) ([]models.Answer, error) {
	if _, err := s.questionRepo.GetByID(ctx, questionID); err != nil {
		return nil, err
	}
	return s.answerRepo.ListByQuestion(ctx, questionID)
}

func (s *AnswerService) Create(ctx context.Context, in CreateAnswerInput) (*models.Answer, error) {
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	question, err := s.questionRepo.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}

	answer := &models.Answer{
		Content:    in.Content,
		UserID:     in.UserID,
		QuestionID: in.QuestionID,
	}
	if err := s.answerRepo.Create(ctx, answer); err != nil {
		return nil, err
	}

	actor, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: question.UserID,
		SenderID:    &in.UserID,
		Type:        models.NotificationAnswer,
		Title:       "New answer to your question",
		Message:     fmt.Sprintf("%s answered your question \"%s\"", actor.DisplayName(), question.Title),
		QuestionID:  &question.ID,
		AnswerID:    &answer.ID,
	}); err != nil {
		return nil, err
	}

	return s.answerRepo.GetByID(ctx, answer.ID)
}

func (s *AnswerService) Update(ctx context.Context, in UpdateAnswerInput) (*models.Answer, error) {
	answer, err := s.answerRepo.GetByID(ctx, in.AnswerID)
	if err != nil {
		return nil, err
	}
	if answer.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own answers")
	}
	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	answer.Content = in.Content
	if err := s.answerRepo.Update(ctx, answer); err != nil {
		return nil, err
	}
	return s.answerRepo.GetByID(ctx, answer.ID)
}

func (s *AnswerService) Delete(ctx context.Context, userID, answerID uint) error {
	answer, err := s.answerRepo.GetByID(ctx, answerID)
	if err != nil {
		return err
	}
	if answer.UserID != userID {
		return models.NewForbiddenError("You can only delete your own answers")
	}
	return s.answerRepo.Delete(ctx, answerID)
}

// Vote applies a strict +1 to the chosen counter, then notifies the answer
// owner on upvotes unless they voted on their own answer.
func (s *AnswerService) Vote(ctx context.Context, in VoteAnswerInput) (*models.Answer, error) {
	if !in.Vote.Valid() {
		return nil, models.NewValidationError("vote_type must be 'upvote' or 'downvote'")
	}

	answer, err := s.answerRepo.GetByID(ctx, in.AnswerID)
	if err != nil {
		return nil, err
	}
	if err := s.answerRepo.IncrementVote(ctx, in.AnswerID, in.Vote); err != nil {
		return nil, err
	}
	cache.InvalidateQuestion(ctx, answer.QuestionID)

	if in.Vote == models.VoteUpvote {
		actor, err := s.userRepo.GetByID(ctx, in.ActorID)
		if err != nil {
			return nil, err
		}
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			RecipientID: answer.UserID,
			SenderID:    &in.ActorID,
			Type:        models.NotificationAnswerVote,
			Title:       "Your answer got an upvote",
			Message:     fmt.Sprintf("%s upvoted your answer", actor.DisplayName()),
			QuestionID:  &answer.QuestionID,
			AnswerID:    &answer.ID,
		}); err != nil {
			return nil, err
		}
	}

	return s.answerRepo.GetByID(ctx, in.AnswerID)
}

// Accept marks the answer as the question's accepted one. Only the question
// owner may accept, and the clear-then-set happens in one transaction so at
// most one answer per question carries the flag.
func (s *AnswerService) Accept(ctx context.Context, in AcceptAnswerInput) (*models.Answer, error) {
	answer, err := s.answerRepo.GetByID(ctx, in.AnswerID)
	if err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetByID(ctx, answer.QuestionID)
	if err != nil {
		return nil, err
	}
	if question.UserID != in.ActorID {
		return nil, models.NewForbiddenError("Only the question owner can accept an answer")
	}

	if err := s.answerRepo.Accept(ctx, question.ID, answer.ID); err != nil {
		return nil, err
	}
	cache.InvalidateQuestion(ctx, question.ID)

	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: answer.UserID,
		SenderID:    &in.ActorID,
		Type:        models.NotificationAnswerAccepted,
		Title:       "Your answer was accepted",
		Message:     fmt.Sprintf("Your answer to \"%s\" was marked as accepted", question.Title),
		QuestionID:  &question.ID,
		AnswerID:    &answer.ID,
	}); err != nil {
		return nil, err
	}

	return s.answerRepo.GetByID(ctx, in.AnswerID)
}
