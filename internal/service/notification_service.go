package service

import (
	"context"
	"fmt"

	"stuverflow/internal/featureflags"
	"stuverflow/internal/middleware"
	"stuverflow/internal/models"
	"stuverflow/internal/repository"
)

// Publisher pushes a created notification row to its recipient's channel.
// Publishing is best-effort; a failure never fails the triggering request.
type Publisher interface {
	PublishNotification(ctx context.Context, notif *models.Notification) error
}

// NotificationService creates notification rows synchronously inside the
// requests that trigger them. A notification is never created when the
// sender and recipient are the same user.
type NotificationService struct {
	notifRepo repository.NotificationRepository
	publisher Publisher
	flags     *featureflags.Manager
}

type NotifyInput struct {
	RecipientID uint
	SenderID    *uint
	Type        models.NotificationType
	Title       string
	Message     string
	QuestionID  *uint
	AnswerID    *uint
	ActionURL   *string
}

func NewNotificationService(
	notifRepo repository.NotificationRepository,
	publisher Publisher,
	flags *featureflags.Manager,
) *NotificationService {
	return &NotificationService{
		notifRepo: notifRepo,
		publisher: publisher,
		flags:     flags,
	}
}

// build validates the input and returns the row to insert, or (nil, nil)
// when the notification is a suppressed self-notification.
func (s *NotificationService) build(in NotifyInput) (*models.Notification, error) {
	if !in.Type.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("Unknown notification type %q", in.Type))
	}
	if in.Title == "" || in.Message == "" {
		return nil, models.NewValidationError("Title and message are required")
	}
	if in.SenderID != nil && *in.SenderID == in.RecipientID {
		middleware.NotificationsSuppressed.Inc()
		return nil, nil
	}

	actionURL := in.ActionURL
	if actionURL == nil && in.QuestionID != nil {
		url := fmt.Sprintf("/question/%d", *in.QuestionID)
		actionURL = &url
	}

	return &models.Notification{
		RecipientID: in.RecipientID,
		SenderID:    in.SenderID,
		Type:        in.Type,
		Title:       in.Title,
		Message:     in.Message,
		QuestionID:  in.QuestionID,
		AnswerID:    in.AnswerID,
		ActionURL:   actionURL,
	}, nil
}

func (s *NotificationService) publish(ctx context.Context, notif *models.Notification) {
	if s.publisher == nil {
		return
	}
	if s.flags != nil && !s.flags.Enabled(featureflags.NotificationPublish, notif.RecipientID) {
		return
	}
	_ = s.publisher.PublishNotification(ctx, notif)
}

// Notify creates a single notification. Self-notifications are dropped
// silently and count toward the suppression metric.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.Notification, error) {
	notif, err := s.build(in)
	if err != nil {
		return nil, err
	}
	if notif == nil {
		return nil, nil
	}

	if err := s.notifRepo.Create(ctx, notif); err != nil {
		return nil, err
	}
	middleware.NotificationsCreated.WithLabelValues(string(notif.Type)).Inc()
	s.publish(ctx, notif)
	return notif, nil
}

// NotifyMany creates one row per input inside a single transaction, so a
// fan-out lands either completely or not at all. Suppressed inputs are
// filtered before the insert.
func (s *NotificationService) NotifyMany(ctx context.Context, inputs []NotifyInput) ([]*models.Notification, error) {
	rows := make([]*models.Notification, 0, len(inputs))
	for _, in := range inputs {
		notif, err := s.build(in)
		if err != nil {
			return nil, err
		}
		if notif != nil {
			rows = append(rows, notif)
		}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	if err := s.notifRepo.CreateBatch(ctx, rows); err != nil {
		return nil, err
	}
	for _, notif := range rows {
		middleware.NotificationsCreated.WithLabelValues(string(notif.Type)).Inc()
		s.publish(ctx, notif)
	}
	return rows, nil
}

func (s *NotificationService) List(ctx context.Context, recipientID uint, unreadOnly bool, limit, offset int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notifRepo.ListByRecipient(ctx, recipientID, unreadOnly, limit, offset)
}

func (s *NotificationService) Summary(ctx context.Context, recipientID uint) (*repository.NotificationSummary, error) {
	return s.notifRepo.Summary(ctx, recipientID, 5)
}

func (s *NotificationService) MarkRead(ctx context.Context, recipientID, id uint) error {
	return s.notifRepo.MarkRead(ctx, recipientID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, recipientID uint) (int64, error) {
	return s.notifRepo.MarkAllRead(ctx, recipientID)
}

func (s *NotificationService) Delete(ctx context.Context, recipientID, id uint) error {
	return s.notifRepo.Delete(ctx, recipientID, id)
}
