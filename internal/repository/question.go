package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"stuverflow/internal/models"

	"gorm.io/gorm"
)

// QuestionWithAnswerCount pairs a question with its answer count for
// read-side scoring.
type QuestionWithAnswerCount struct {
	Question    models.Question
	AnswerCount int
}

// QuestionFilter narrows question searches. Zero values mean "no filter".
type QuestionFilter struct {
	Query    string     // case-insensitive substring over title/description/tags
	AuthorID uint       // questions by a specific user
	Since    *time.Time // created_at lower bound
	MinVotes int        // minimum upvote count
	Answered *bool      // true: has answers, false: has none
}

// QuestionRepository defines persistence operations for questions.
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	ListNewest(ctx context.Context, limit, offset int) ([]models.Question, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Question, error)
	Search(ctx context.Context, filter QuestionFilter) ([]models.Question, error)
	IncrementView(ctx context.Context, id uint) error
	IncrementVote(ctx context.Context, id uint, vote models.VoteType) error
	Hot(ctx context.Context, limit int) ([]models.Question, error)
	TrendingByUpvotes(ctx context.Context, since time.Time, limit int) ([]models.Question, error)
	ListSince(ctx context.Context, since time.Time) ([]models.Question, error)
	ListWithAnswerCountsSince(ctx context.Context, since time.Time) ([]QuestionWithAnswerCount, error)
}

type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository returns a new QuestionRepository implementation.
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := r.db.WithContext(ctx).Preload("User").First(&question, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Question", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &question, nil
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	if err := r.db.WithContext(ctx).Save(question).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	// Child rows cascade at the database level; answers and bookmarks are
	// removed explicitly so SQLite-backed tests behave identically.
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		if err := tx.Where("question_id = ?", id).Delete(&models.Bookmark{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *questionRepository) ListNewest(ctx context.Context, limit, offset int) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&questions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return questions, nil
}

func (r *questionRepository) ListByUser(ctx context.Context, userID uint) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&questions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return questions, nil
}

func (r *questionRepository) Search(ctx context.Context, filter QuestionFilter) ([]models.Question, error) {
	q := r.db.WithContext(ctx).Model(&models.Question{}).Preload("User")

	if filter.Query != "" {
		pattern := "%" + strings.ToLower(filter.Query) + "%"
		q = q.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?",
			pattern, pattern, pattern,
		)
	}
	if filter.AuthorID != 0 {
		q = q.Where("user_id = ?", filter.AuthorID)
	}
	if filter.Since != nil {
		q = q.Where("created_at >= ?", *filter.Since)
	}
	if filter.MinVotes > 0 {
		q = q.Where("upvotes >= ?", filter.MinVotes)
	}
	if filter.Answered != nil {
		sub := r.db.Model(&models.Answer{}).
			Select("1").
			Where("answers.question_id = questions.id")
		if *filter.Answered {
			q = q.Where("EXISTS (?)", sub)
		} else {
			q = q.Where("NOT EXISTS (?)", sub)
		}
	}

	var questions []models.Question
	if err := q.Find(&questions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return questions, nil
}

func (r *questionRepository) IncrementView(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + 1"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Question", id)
	}
	return nil
}

func (r *questionRepository) IncrementVote(ctx context.Context, id uint, vote models.VoteType) error {
	column := "upvotes"
	if vote == models.VoteDownvote {
		column = "downvotes"
	}
	res := r.db.WithContext(ctx).Model(&models.Question{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Question", id)
	}
	return nil
}

func (r *questionRepository) Hot(ctx context.Context, limit int) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Preload("User").
		Order("views DESC").
		Limit(limit).
		Find(&questions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return questions, nil
}

func (r *questionRepository) TrendingByUpvotes(ctx context.Context, since time.Time, limit int) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("created_at >= ?", since).
		Order("upvotes DESC").
		Limit(limit).
		Find(&questions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return questions, nil
}

func (r *questionRepository) ListSince(ctx context.Context, since time.Time) ([]models.Question, error) {
	var questions []models.Question
	if err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Find(&questions).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return questions, nil
}

func (r *questionRepository) ListWithAnswerCountsSince(ctx context.Context, since time.Time) ([]QuestionWithAnswerCount, error) {
	questions, err := r.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, nil
	}

	ids := make([]uint, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}

	type answerCount struct {
		QuestionID uint
		Count      int
	}
	var counts []answerCount
	if err := r.db.WithContext(ctx).Model(&models.Answer{}).
		Select("question_id, COUNT(*) AS count").
		Where("question_id IN ?", ids).
		Group("question_id").
		Scan(&counts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}

	byID := make(map[uint]int, len(counts))
	for _, c := range counts {
		byID[c.QuestionID] = c.Count
	}

	out := make([]QuestionWithAnswerCount, 0, len(questions))
	for _, q := range questions {
		out = append(out, QuestionWithAnswerCount{Question: q, AnswerCount: byID[q.ID]})
	}
	return out, nil
}
