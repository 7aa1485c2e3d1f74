package repository

import (
	"context"
	"errors"
	"strings"

	"stuverflow/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	ListNewest(ctx context.Context, limit int) ([]models.User, error)
	ListByIDs(ctx context.Context, ids []uint) ([]models.User, error)
	Search(ctx context.Context, query string, limit, offset int) ([]models.User, error)
	CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error
	GetResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error)
	DeleteResetToken(ctx context.Context, id uint) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Duplicate field (e.g., handle or email)")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Duplicate field (e.g., handle or email)")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) ListNewest(ctx context.Context, limit int) ([]models.User, error) {
	var users []models.User
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []uint) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]models.User, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var users []models.User
	if err := r.db.WithContext(ctx).
		Where(
			"LOWER(name) LIKE ? OR LOWER(COALESCE(handle, '')) LIKE ? OR LOWER(institution) LIKE ? OR LOWER(expertise) LIKE ? OR LOWER(bio) LIKE ?",
			pattern, pattern, pattern, pattern, pattern,
		).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) CreateResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) GetResetToken(ctx context.Context, token string) (*models.PasswordResetToken, error) {
	var row models.PasswordResetToken
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewValidationError("Invalid token")
		}
		return nil, models.NewInternalError(err)
	}
	return &row, nil
}

func (r *userRepository) DeleteResetToken(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.PasswordResetToken{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
