package service

import (
	"context"
	"fmt"
	"strings"

	"stuverflow/internal/models"
	"stuverflow/internal/repository"
)

// MessageService handles community message threads and likes.
type MessageService struct {
	messageRepo   repository.MessageRepository
	communityRepo repository.CommunityRepository
	userRepo      repository.UserRepository
	notifier      *NotificationService
}

// MessageView is a message decorated with its like count; replies carry
// their own counts.
type MessageView struct {
	models.CommunityMessage
	LikeCount int64         `json:"like_count"`
	ReplyList []MessageView `json:"replies"`
}

type PostMessageInput struct {
	ActorID       uint
	CommunityID   uint
	Content       string
	Type          models.MessageType
	QuestionTitle string
	QuestionTags  []string
}

type ReplyInput struct {
	ActorID     uint
	CommunityID uint
	MessageID   uint
	Content     string
}

const maxMessageLen = 10000

func NewMessageService(
	messageRepo repository.MessageRepository,
	communityRepo repository.CommunityRepository,
	userRepo repository.UserRepository,
	notifier *NotificationService,
) *MessageService {
	return &MessageService{
		messageRepo:   messageRepo,
		communityRepo: communityRepo,
		userRepo:      userRepo,
		notifier:      notifier,
	}
}

func (s *MessageService) requireApprovedMember(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error) {
	membership, err := s.communityRepo.GetMembership(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.Status != models.StatusApproved {
		return nil, models.NewForbiddenError("Community membership required")
	}
	return membership, nil
}

// List returns top-level messages for the community, pinned first then
// newest, with nested replies and like counts.
func (s *MessageService) List(ctx context.Context, communityID, userID uint, limit, offset int) ([]MessageView, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	if _, err := s.requireApprovedMember(ctx, communityID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	messages, err := s.messageRepo.ListTopLevel(ctx, communityID, limit, offset)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(messages))
	for _, m := range messages {
		ids = append(ids, m.ID)
		for _, reply := range m.Replies {
			ids = append(ids, reply.ID)
		}
	}
	counts, err := s.messageRepo.CountLikesFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		view := MessageView{CommunityMessage: m, LikeCount: counts[m.ID]}
		view.ReplyList = make([]MessageView, 0, len(m.Replies))
		for _, reply := range m.Replies {
			view.ReplyList = append(view.ReplyList, MessageView{
				CommunityMessage: reply,
				LikeCount:        counts[reply.ID],
				ReplyList:        []MessageView{},
			})
		}
		view.Replies = nil
		views = append(views, view)
	}
	return views, nil
}

// Post creates a top-level message and notifies approved members except the
// author.
func (s *MessageService) Post(ctx context.Context, in PostMessageInput) (*models.CommunityMessage, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireApprovedMember(ctx, in.CommunityID, in.ActorID); err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}
	if len(in.Content) > maxMessageLen {
		return nil, models.NewValidationError("Message too long (max 10000 characters)")
	}
	if in.Type == "" {
		in.Type = models.MessageRegular
	}
	if !in.Type.Valid() {
		return nil, models.NewValidationError("message_type must be 'message', 'question' or 'announcement'")
	}

	message := &models.CommunityMessage{
		Content:     in.Content,
		Type:        in.Type,
		AuthorID:    in.ActorID,
		CommunityID: in.CommunityID,
	}
	if in.Type == models.MessageQuestion {
		if in.QuestionTitle == "" {
			return nil, models.NewValidationError("question_title is required for question messages")
		}
		message.QuestionTitle = &in.QuestionTitle
		message.SetQuestionTagList(normalizeTags(in.QuestionTags))
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	if err := s.fanOut(ctx, community, in.ActorID,
		"New community post",
		fmt.Sprintf("%s posted in %s", author.DisplayName(), community.Name),
	); err != nil {
		return nil, err
	}

	return s.messageRepo.GetByID(ctx, message.ID)
}

// Reply attaches a message under a top-level parent. Threads stay one level
// deep: replying to a reply attaches to its parent.
func (s *MessageService) Reply(ctx context.Context, in ReplyInput) (*models.CommunityMessage, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireApprovedMember(ctx, in.CommunityID, in.ActorID); err != nil {
		return nil, err
	}

	parent, err := s.messageRepo.GetByID(ctx, in.MessageID)
	if err != nil {
		return nil, err
	}
	if parent.CommunityID != in.CommunityID {
		return nil, models.NewNotFoundError("Message", in.MessageID)
	}
	parentID := parent.ID
	if parent.ParentMessageID != nil {
		parentID = *parent.ParentMessageID
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return nil, models.NewValidationError("Content is required")
	}

	reply := &models.CommunityMessage{
		Content:         in.Content,
		Type:            models.MessageRegular,
		AuthorID:        in.ActorID,
		CommunityID:     in.CommunityID,
		ParentMessageID: &parentID,
	}
	if err := s.messageRepo.Create(ctx, reply); err != nil {
		return nil, err
	}

	author, err := s.userRepo.GetByID(ctx, in.ActorID)
	if err != nil {
		return nil, err
	}
	if err := s.fanOut(ctx, community, in.ActorID,
		"New reply",
		fmt.Sprintf("%s replied in %s", author.DisplayName(), community.Name),
	); err != nil {
		return nil, err
	}

	return s.messageRepo.GetByID(ctx, reply.ID)
}

// ToggleLike likes or unlikes the message and reports the resulting state
// plus the fresh count.
func (s *MessageService) ToggleLike(ctx context.Context, userID, communityID, messageID uint) (bool, int64, error) {
	if _, err := s.requireApprovedMember(ctx, communityID, userID); err != nil {
		return false, 0, err
	}
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return false, 0, err
	}
	if message.CommunityID != communityID {
		return false, 0, models.NewNotFoundError("Message", messageID)
	}

	liked := false
	existing, err := s.messageRepo.GetLike(ctx, userID, messageID)
	if err != nil {
		return false, 0, err
	}
	if existing != nil {
		if err := s.messageRepo.DeleteLike(ctx, existing.ID); err != nil {
			return false, 0, err
		}
	} else {
		if err := s.messageRepo.CreateLike(ctx, &models.CommunityMessageLike{
			UserID:    userID,
			MessageID: messageID,
		}); err != nil {
			return false, 0, err
		}
		liked = true
	}

	count, err := s.messageRepo.CountLikes(ctx, messageID)
	if err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

// Delete removes a message. Allowed for the author and community admins.
func (s *MessageService) Delete(ctx context.Context, userID, communityID, messageID uint) error {
	message, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.CommunityID != communityID {
		return models.NewNotFoundError("Message", messageID)
	}

	if message.AuthorID != userID {
		membership, err := s.communityRepo.GetMembership(ctx, communityID, userID)
		if err != nil {
			return err
		}
		if membership == nil || membership.Status != models.StatusApproved || membership.Role != models.RoleAdmin {
			return models.NewForbiddenError("You can only delete your own messages")
		}
	}
	return s.messageRepo.Delete(ctx, messageID)
}

func (s *MessageService) fanOut(ctx context.Context, community *models.Community, actorID uint, title, message string) error {
	members, err := s.communityRepo.ListMemberships(ctx, community.ID, models.StatusApproved)
	if err != nil {
		return err
	}

	inputs := make([]NotifyInput, 0, len(members))
	for _, member := range members {
		inputs = append(inputs, NotifyInput{
			RecipientID: member.UserID,
			SenderID:    &actorID,
			Type:        models.NotificationCommunityPost,
			Title:       title,
			Message:     message,
		})
	}
	_, err = s.notifier.NotifyMany(ctx, inputs)
	return err
}
