package repository

import (
	"context"
	"errors"
	"time"

	"stuverflow/internal/models"

	"gorm.io/gorm"
)

// AnswerRepository defines persistence operations for answers.
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	GetByID(ctx context.Context, id uint) (*models.Answer, error)
	Update(ctx context.Context, answer *models.Answer) error
	Delete(ctx context.Context, id uint) error
	ListByQuestion(ctx context.Context, questionID uint) ([]models.Answer, error)
	IncrementVote(ctx context.Context, id uint, vote models.VoteType) error
	Accept(ctx context.Context, questionID, answerID uint) error
	ListSince(ctx context.Context, since time.Time) ([]models.Answer, error)
	CountByQuestion(ctx context.Context, questionIDs []uint) (map[uint]int, error)
}

type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository returns a new AnswerRepository implementation.
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (*models.Answer, error) {
	var answer models.Answer
	if err := r.db.WithContext(ctx).Preload("User").First(&answer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Answer", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &answer, nil
}

func (r *answerRepository) Update(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Save(answer).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *answerRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Answer{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *answerRepository) ListByQuestion(ctx context.Context, questionID uint) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("question_id = ?", questionID).
		Order("created_at DESC").
		Find(&answers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return answers, nil
}

func (r *answerRepository) IncrementVote(ctx context.Context, id uint, vote models.VoteType) error {
	column := "upvotes"
	if vote == models.VoteDownvote {
		column = "downvotes"
	}
	res := r.db.WithContext(ctx).Model(&models.Answer{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Answer", id)
	}
	return nil
}

// Accept clears any previously accepted answer for the question and flags
// the new one inside a single transaction, so the one-accepted-answer
// invariant holds even under concurrent accepts.
func (r *answerRepository) Accept(ctx context.Context, questionID, answerID uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND is_accepted = ?", questionID, true).
			UpdateColumn("is_accepted", false).Error; err != nil {
			return err
		}
		res := tx.Model(&models.Answer{}).
			Where("id = ? AND question_id = ?", answerID, questionID).
			UpdateColumn("is_accepted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.NewNotFoundError("Answer", answerID)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *answerRepository) CountByQuestion(ctx context.Context, questionIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(questionIDs))
	if len(questionIDs) == 0 {
		return counts, nil
	}

	type answerCount struct {
		QuestionID uint
		Count      int
	}
	var rows []answerCount
	if err := r.db.WithContext(ctx).Model(&models.Answer{}).
		Select("question_id, COUNT(*) AS count").
		Where("question_id IN ?", questionIDs).
		Group("question_id").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts[row.QuestionID] = row.Count
	}
	return counts, nil
}

func (r *answerRepository) ListSince(ctx context.Context, since time.Time) ([]models.Answer, error) {
	var answers []models.Answer
	if err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Find(&answers).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return answers, nil
}
