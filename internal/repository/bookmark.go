package repository

import (
	"context"
	"errors"

	"stuverflow/internal/models"

	"gorm.io/gorm"
)

// BookmarkRepository defines persistence operations for bookmarks.
type BookmarkRepository interface {
	Get(ctx context.Context, userID, questionID uint) (*models.Bookmark, error)
	Create(ctx context.Context, bookmark *models.Bookmark) error
	Delete(ctx context.Context, id uint) error
	ListByUser(ctx context.Context, userID uint) ([]models.Bookmark, error)
}

type bookmarkRepository struct {
	db *gorm.DB
}

// NewBookmarkRepository returns a new BookmarkRepository implementation.
func NewBookmarkRepository(db *gorm.DB) BookmarkRepository {
	return &bookmarkRepository{db: db}
}

// Get returns the bookmark for the pair, or (nil, nil) when absent.
func (r *bookmarkRepository) Get(ctx context.Context, userID, questionID uint) (*models.Bookmark, error) {
	var bookmark models.Bookmark
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&bookmark).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &bookmark, nil
}

func (r *bookmarkRepository) Create(ctx context.Context, bookmark *models.Bookmark) error {
	if err := r.db.WithContext(ctx).Create(bookmark).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Question already bookmarked")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *bookmarkRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Bookmark{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *bookmarkRepository) ListByUser(ctx context.Context, userID uint) ([]models.Bookmark, error) {
	var bookmarks []models.Bookmark
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("Question.User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&bookmarks).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return bookmarks, nil
}
