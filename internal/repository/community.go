package repository

import (
	"context"
	"errors"
	"time"

	"stuverflow/internal/models"

	"gorm.io/gorm"
)

// CommunityRepository defines persistence operations for communities,
// memberships and community-question links.
type CommunityRepository interface {
	Create(ctx context.Context, community *models.Community) error
	GetByID(ctx context.Context, id uint) (*models.Community, error)
	Update(ctx context.Context, community *models.Community) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, limit, offset int) ([]models.Community, error)
	ListByMember(ctx context.Context, userID uint) ([]models.Community, error)

	GetMembership(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error)
	GetMembershipByID(ctx context.Context, id uint) (*models.CommunityMembership, error)
	CreateMembership(ctx context.Context, membership *models.CommunityMembership) error
	UpdateMembership(ctx context.Context, membership *models.CommunityMembership) error
	DeleteMembership(ctx context.Context, id uint) error
	ListMemberships(ctx context.Context, communityID uint, status models.MembershipStatus) ([]models.CommunityMembership, error)
	ListAdmins(ctx context.Context, communityID uint) ([]models.CommunityMembership, error)
	CountApprovedMembers(ctx context.Context, communityID uint) (int64, error)

	LinkQuestion(ctx context.Context, link *models.CommunityQuestion) error
	GetQuestionLink(ctx context.Context, communityID, questionID uint) (*models.CommunityQuestion, error)
	ListQuestionLinks(ctx context.Context, communityID uint) ([]models.CommunityQuestion, error)
	UnlinkQuestion(ctx context.Context, id uint) error
}

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository returns a new CommunityRepository implementation.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

// Create inserts the community and its creator's approved admin membership
// in one transaction, so a community never exists without an admin.
func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(community).Error; err != nil {
			return err
		}
		now := time.Now()
		membership := &models.CommunityMembership{
			CommunityID:  community.ID,
			UserID:       community.CreatorID,
			Role:         models.RoleAdmin,
			Status:       models.StatusApproved,
			RequestedAt:  now,
			ApprovedAt:   &now,
			ApprovedByID: &community.CreatorID,
		}
		return tx.Create(membership).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, id uint) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Preload("Creator").First(&community, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Community", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &community, nil
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	if err := r.db.WithContext(ctx).Save(community).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// Delete removes the community and all dependent rows in one transaction.
// Message likes go first since they hang off messages.
func (r *communityRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id IN (?)",
			tx.Model(&models.CommunityMessage{}).Select("id").Where("community_id = ?", id),
		).Delete(&models.CommunityMessageLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", id).Delete(&models.CommunityMessage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", id).Delete(&models.CommunityQuestion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("community_id = ?", id).Delete(&models.CommunityMembership{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Community{}, id)
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
			return models.NewNotFoundError("Community", id)
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) List(ctx context.Context, limit, offset int) ([]models.Community, error) {
	var communities []models.Community
	if err := r.db.WithContext(ctx).
		Preload("Creator").
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&communities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

func (r *communityRepository) ListByMember(ctx context.Context, userID uint) ([]models.Community, error) {
	var communities []models.Community
	if err := r.db.WithContext(ctx).
		Joins("JOIN community_memberships ON community_memberships.community_id = communities.id").
		Where("community_memberships.user_id = ? AND community_memberships.status = ?", userID, models.StatusApproved).
		Order("communities.created_at DESC").
		Find(&communities).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return communities, nil
}

// GetMembership returns the row for the pair, or (nil, nil) when absent.
func (r *communityRepository) GetMembership(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error) {
	var membership models.CommunityMembership
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND user_id = ?", communityID, userID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &membership, nil
}

func (r *communityRepository) GetMembershipByID(ctx context.Context, id uint) (*models.CommunityMembership, error) {
	var membership models.CommunityMembership
	if err := r.db.WithContext(ctx).Preload("User").First(&membership, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Membership", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &membership, nil
}

func (r *communityRepository) CreateMembership(ctx context.Context, membership *models.CommunityMembership) error {
	if err := r.db.WithContext(ctx).Create(membership).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Membership already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) UpdateMembership(ctx context.Context, membership *models.CommunityMembership) error {
	if err := r.db.WithContext(ctx).Save(membership).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *communityRepository) DeleteMembership(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.CommunityMembership{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Membership", id)
	}
	return nil
}

func (r *communityRepository) ListMemberships(ctx context.Context, communityID uint, status models.MembershipStatus) ([]models.CommunityMembership, error) {
	q := r.db.WithContext(ctx).
		Preload("User").
		Where("community_id = ?", communityID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var memberships []models.CommunityMembership
	if err := q.Order("requested_at ASC").Find(&memberships).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return memberships, nil
}

func (r *communityRepository) ListAdmins(ctx context.Context, communityID uint) ([]models.CommunityMembership, error) {
	var admins []models.CommunityMembership
	if err := r.db.WithContext(ctx).
		Preload("User").
		Where("community_id = ? AND role = ? AND status = ?",
			communityID, models.RoleAdmin, models.StatusApproved).
		Find(&admins).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return admins, nil
}

func (r *communityRepository) CountApprovedMembers(ctx context.Context, communityID uint) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CommunityMembership{}).
		Where("community_id = ? AND status = ?", communityID, models.StatusApproved).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}

func (r *communityRepository) LinkQuestion(ctx context.Context, link *models.CommunityQuestion) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Question already shared to this community")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// GetQuestionLink returns the link for the pair, or (nil, nil) when absent.
func (r *communityRepository) GetQuestionLink(ctx context.Context, communityID, questionID uint) (*models.CommunityQuestion, error) {
	var link models.CommunityQuestion
	err := r.db.WithContext(ctx).
		Where("community_id = ? AND question_id = ?", communityID, questionID).
		First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &link, nil
}

func (r *communityRepository) UnlinkQuestion(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.CommunityQuestion{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Community question", id)
	}
	return nil
}

func (r *communityRepository) ListQuestionLinks(ctx context.Context, communityID uint) ([]models.CommunityQuestion, error) {
	var links []models.CommunityQuestion
	if err := r.db.WithContext(ctx).
		Preload("Question").
		Preload("Question.User").
		Where("community_id = ?", communityID).
		Order("created_at DESC").
		Find(&links).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return links, nil
}
