package repository

import (
	"context"
	"errors"

	"stuverflow/internal/models"

	"gorm.io/gorm"
)

// MessageRepository defines persistence operations for community messages
// and their likes.
type MessageRepository interface {
	Create(ctx context.Context, message *models.CommunityMessage) error
	GetByID(ctx context.Context, id uint) (*models.CommunityMessage, error)
	Update(ctx context.Context, message *models.CommunityMessage) error
	Delete(ctx context.Context, id uint) error
	ListTopLevel(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityMessage, error)

	GetLike(ctx context.Context, userID, messageID uint) (*models.CommunityMessageLike, error)
	CreateLike(ctx context.Context, like *models.CommunityMessageLike) error
	DeleteLike(ctx context.Context, id uint) error
	CountLikes(ctx context.Context, messageID uint) (int64, error)
	CountLikesFor(ctx context.Context, messageIDs []uint) (map[uint]int64, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, message *models.CommunityMessage) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.CommunityMessage, error) {
	var message models.CommunityMessage
	if err := r.db.WithContext(ctx).
		Preload("Author").
		First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Message", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &message, nil
}

func (r *messageRepository) Update(ctx context.Context, message *models.CommunityMessage) error {
	if err := r.db.WithContext(ctx).Save(message).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the message, its replies and any likes on either, inside
// one transaction.
func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ? OR message_id IN (?)",
			id,
			tx.Model(&models.CommunityMessage{}).Select("id").Where("parent_message_id = ?", id),
		).Delete(&models.CommunityMessageLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parent_message_id = ?", id).Delete(&models.CommunityMessage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.CommunityMessage{}, id)
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
			return models.NewNotFoundError("Message", id)
		}
		return models.NewInternalError(err)
	}
	return nil
}

// ListTopLevel returns top-level messages newest first, with replies
// (oldest first) and authors preloaded.
func (r *messageRepository) ListTopLevel(ctx context.Context, communityID uint, limit, offset int) ([]models.CommunityMessage, error) {
	var messages []models.CommunityMessage
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Replies.Author").
		Where("community_id = ? AND parent_message_id IS NULL", communityID).
		Order("is_pinned DESC, created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return messages, nil
}

// GetLike returns the like for the pair, or (nil, nil) when absent.
func (r *messageRepository) GetLike(ctx context.Context, userID, messageID uint) (*models.CommunityMessageLike, error) {
	var like models.CommunityMessageLike
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &like, nil
}

func (r *messageRepository) CreateLike(ctx context.Context, like *models.CommunityMessageLike) error {
	if err := r.db.WithContext(ctx).Create(like).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Message already liked")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) DeleteLike(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.CommunityMessageLike{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) CountLikes(ctx context.Context, messageID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CommunityMessageLike{}).
		Where("message_id = ?", messageID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *messageRepository) CountLikesFor(ctx context.Context, messageIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(messageIDs))
	if len(messageIDs) == 0 {
		return counts, nil
	}

	type likeCount struct {
		MessageID uint
		Count     int64
	}
	var rows []likeCount
	if err := r.db.WithContext(ctx).Model(&models.CommunityMessageLike{}).
		Select("message_id, COUNT(*) AS count").
		Where("message_id IN ?", messageIDs).
		Group("message_id").
		Scan(&rows).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		counts[row.MessageID] = row.Count
	}
	return counts, nil
}
