package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"stuverflow/internal/models"
	"stuverflow/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.PasswordResetToken{},
		&models.Question{},
		&models.Answer{},
		&models.Bookmark{},
		&models.Notification{},
		&models.Community{},
		&models.CommunityMembership{},
		&models.CommunityQuestion{},
		&models.CommunityMessage{},
		&models.CommunityMessageLike{},
	))
	return db
}

type fixtures struct {
	db *gorm.DB
	t  *testing.T
}

func newFixtures(t *testing.T, db *gorm.DB) *fixtures {
	return &fixtures{db: db, t: t}
}

func (f *fixtures) user(name string) *models.User {
	f.t.Helper()
	handle := models.HandlePrefix + name
	user := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@example.com", name),
		Password: "hashed",
		Name:     name,
		Handle:   &handle,
	}
	require.NoError(f.t, f.db.Create(user).Error)
	return user
}

func (f *fixtures) question(owner *models.User, title string, tags ...string) *models.Question {
	f.t.Helper()
	question := &models.Question{
		Title:       title,
		Description: "description of " + title,
		UserID:      owner.ID,
	}
	question.SetTagList(tags)
	require.NoError(f.t, f.db.Create(question).Error)
	return question
}

func (f *fixtures) answer(owner *models.User, question *models.Question) *models.Answer {
	f.t.Helper()
	answer := &models.Answer{
		Content:    "an answer",
		UserID:     owner.ID,
		QuestionID: question.ID,
	}
	require.NoError(f.t, f.db.Create(answer).Error)
	return answer
}

func (f *fixtures) community(creator *models.User, name string) *models.Community {
	f.t.Helper()
	repo := repository.NewCommunityRepository(f.db)
	community := &models.Community{
		Name:        name,
		Description: "about " + name,
		CreatorID:   creator.ID,
		IsPublic:    true,
	}
	require.NoError(f.t, repo.Create(context.Background(), community))
	return community
}

// newTestNotifier builds a NotificationService writing to the test DB with
// no publisher and no feature flags.
func newTestNotifier(db *gorm.DB) *NotificationService {
	return NewNotificationService(repository.NewNotificationRepository(db), nil, nil)
}

func countNotifications(t *testing.T, db *gorm.DB, recipientID uint) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).
		Where("recipient_id = ?", recipientID).
		Count(&count).Error)
	return count
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %v", err)
	require.Equal(t, code, appErr.Code)
}
