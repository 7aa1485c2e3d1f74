package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stuverflow/internal/models"
	"stuverflow/internal/repository"
)

// CommunityService handles communities, the membership state machine and
// community questions.
type CommunityService struct {
	communityRepo repository.CommunityRepository
	questionRepo  repository.QuestionRepository
	userRepo      repository.UserRepository
	notifier      *NotificationService
	now           func() time.Time
}

type CreateCommunityInput struct {
	CreatorID   uint
	Name        string
	Description string
	IsPublic    *bool
}

type JoinCommunityInput struct {
	UserID      uint
	CommunityID uint
}

type ReviewJoinRequestInput struct {
	ActorID      uint
	CommunityID  uint
	MembershipID uint
}

type AddCommunityQuestionInput struct {
	ActorID     uint
	CommunityID uint
	QuestionID  uint
}

type AskCommunityQuestionInput struct {
	ActorID     uint
	CommunityID uint
	Title       string
	Description string
	Tags        []string
}

func NewCommunityService(
	communityRepo repository.CommunityRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
	notifier *NotificationService,
) *CommunityService {
	return &CommunityService{
		communityRepo: communityRepo,
		questionRepo:  questionRepo,
		userRepo:      userRepo,
		notifier:      notifier,
		now:           time.Now,
	}
}

func (s *CommunityService) Create(ctx context.Context, in CreateCommunityInput) (*models.Community, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" {
		return nil, models.NewValidationError("Name is required")
	}
	if in.Description == "" {
		return nil, models.NewValidationError("Description is required")
	}

	community := &models.Community{
		Name:        in.Name,
		Description: in.Description,
		CreatorID:   in.CreatorID,
		IsPublic:    true,
	}
	if in.IsPublic != nil {
		community.IsPublic = *in.IsPublic
	}
	if err := s.communityRepo.Create(ctx, community); err != nil {
		return nil, err
	}
	return s.communityRepo.GetByID(ctx, community.ID)
}

func (s *CommunityService) List(ctx context.Context, limit, offset int) ([]models.Community, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.communityRepo.List(ctx, limit, offset)
}

func (s *CommunityService) Get(ctx context.Context, id uint) (*models.Community, error) {
	return s.communityRepo.GetByID(ctx, id)
}

// Join runs the membership state machine for one (community, user) row:
// no row creates a pending request, pending and approved are rejected, and a
// declined row flips back to pending with a fresh requested_at.
func (s *CommunityService) Join(ctx context.Context, in JoinCommunityInput) (*models.CommunityMembership, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}

	membership, err := s.communityRepo.GetMembership(ctx, in.CommunityID, in.UserID)
	if err != nil {
		return nil, err
	}

	switch {
	case membership == nil:
		membership = &models.CommunityMembership{
			CommunityID: in.CommunityID,
			UserID:      in.UserID,
			Role:        models.RoleMember,
			Status:      models.StatusPending,
			RequestedAt: s.now(),
		}
		if err := s.communityRepo.CreateMembership(ctx, membership); err != nil {
			return nil, err
		}
	case membership.Status == models.StatusPending:
		return nil, models.NewValidationError("Join request already pending")
	case membership.Status == models.StatusApproved:
		return nil, models.NewValidationError("Already a member of this community")
	default: // declined: re-request
		membership.Status = models.StatusPending
		membership.RequestedAt = s.now()
		membership.ApprovedAt = nil
		membership.ApprovedByID = nil
		if err := s.communityRepo.UpdateMembership(ctx, membership); err != nil {
			return nil, err
		}
	}

	if err := s.notifyAdmins(ctx, community, in.UserID); err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *CommunityService) notifyAdmins(ctx context.Context, community *models.Community, requesterID uint) error {
	requester, err := s.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}
	admins, err := s.communityRepo.ListAdmins(ctx, community.ID)
	if err != nil {
		return err
	}

	inputs := make([]NotifyInput, 0, len(admins))
	for _, admin := range admins {
		inputs = append(inputs, NotifyInput{
			RecipientID: admin.UserID,
			SenderID:    &requesterID,
			Type:        models.NotificationJoinRequest,
			Title:       "New join request",
			Message:     fmt.Sprintf("%s requested to join %s", requester.DisplayName(), community.Name),
		})
	}
	_, err = s.notifier.NotifyMany(ctx, inputs)
	return err
}

// Leave removes the caller's membership row. The creator cannot leave their
// own community; they delete it instead.
func (s *CommunityService) Leave(ctx context.Context, in JoinCommunityInput) error {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return err
	}
	if community.CreatorID == in.UserID {
		return models.NewForbiddenError("The creator cannot leave their own community")
	}

	membership, err := s.communityRepo.GetMembership(ctx, in.CommunityID, in.UserID)
	if err != nil {
		return err
	}
	if membership == nil {
		return models.NewValidationError("Not a member of this community")
	}
	return s.communityRepo.DeleteMembership(ctx, membership.ID)
}

// Membership returns the caller's row for the community, or nil when there
// is none.
func (s *CommunityService) Membership(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	return s.communityRepo.GetMembership(ctx, communityID, userID)
}

func (s *CommunityService) ListMembers(ctx context.Context, communityID uint) ([]models.CommunityMembership, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	return s.communityRepo.ListMemberships(ctx, communityID, models.StatusApproved)
}

func (s *CommunityService) ListJoinRequests(ctx context.Context, communityID, actorID uint) ([]models.CommunityMembership, error) {
	if err := s.requireAdmin(ctx, communityID, actorID); err != nil {
		return nil, err
	}
	return s.communityRepo.ListMemberships(ctx, communityID, models.StatusPending)
}

func (s *CommunityService) requireAdmin(ctx context.Context, communityID, userID uint) error {
	membership, err := s.communityRepo.GetMembership(ctx, communityID, userID)
	if err != nil {
		return err
	}
	if membership == nil || membership.Status != models.StatusApproved || membership.Role != models.RoleAdmin {
		return models.NewForbiddenError("Admin access required")
	}
	return nil
}

func (s *CommunityService) requireApprovedMember(ctx context.Context, communityID, userID uint) (*models.CommunityMembership, error) {
	membership, err := s.communityRepo.GetMembership(ctx, communityID, userID)
	if err != nil {
		return nil, err
	}
	if membership == nil || membership.Status != models.StatusApproved {
		return nil, models.NewForbiddenError("Community membership required")
	}
	return membership, nil
}

// Approve moves a pending request to approved, stamping approver and time,
// and notifies the requester.
func (s *CommunityService) Approve(ctx context.Context, in ReviewJoinRequestInput) (*models.CommunityMembership, error) {
	community, membership, err := s.reviewTarget(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	membership.Status = models.StatusApproved
	membership.ApprovedAt = &now
	membership.ApprovedByID = &in.ActorID
	if err := s.communityRepo.UpdateMembership(ctx, membership); err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: membership.UserID,
		SenderID:    &in.ActorID,
		Type:        models.NotificationRequestApproved,
		Title:       "Join request approved",
		Message:     fmt.Sprintf("Your request to join %s was approved", community.Name),
	}); err != nil {
		return nil, err
	}
	return membership, nil
}

// Decline moves a pending request to declined and notifies the requester.
// The row stays so a later Join can flip it back to pending.
func (s *CommunityService) Decline(ctx context.Context, in ReviewJoinRequestInput) (*models.CommunityMembership, error) {
	community, membership, err := s.reviewTarget(ctx, in)
	if err != nil {
		return nil, err
	}

	membership.Status = models.StatusDeclined
	membership.ApprovedAt = nil
	membership.ApprovedByID = &in.ActorID
	if err := s.communityRepo.UpdateMembership(ctx, membership); err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: membership.UserID,
		SenderID:    &in.ActorID,
		Type:        models.NotificationRequestDeclined,
		Title:       "Join request declined",
		Message:     fmt.Sprintf("Your request to join %s was declined", community.Name),
	}); err != nil {
		return nil, err
	}
	return membership, nil
}

func (s *CommunityService) reviewTarget(ctx context.Context, in ReviewJoinRequestInput) (*models.Community, *models.CommunityMembership, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireAdmin(ctx, in.CommunityID, in.ActorID); err != nil {
		return nil, nil, err
	}

	membership, err := s.communityRepo.GetMembershipByID(ctx, in.MembershipID)
	if err != nil {
		return nil, nil, err
	}
	if membership.CommunityID != in.CommunityID {
		return nil, nil, models.NewNotFoundError("Membership", in.MembershipID)
	}
	if membership.Status != models.StatusPending {
		return nil, nil, models.NewValidationError("Join request is not pending")
	}
	return community, membership, nil
}

// Delete removes the community with all children and notifies every approved
// member. The deleter is excluded by the fan-out's self-suppression.
func (s *CommunityService) Delete(ctx context.Context, communityID, actorID uint) error {
	community, err := s.communityRepo.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if community.CreatorID != actorID {
		return models.NewForbiddenError("Only the creator can delete a community")
	}

	members, err := s.communityRepo.ListMemberships(ctx, communityID, models.StatusApproved)
	if err != nil {
		return err
	}
	if err := s.communityRepo.Delete(ctx, communityID); err != nil {
		return err
	}

	inputs := make([]NotifyInput, 0, len(members))
	for _, member := range members {
		inputs = append(inputs, NotifyInput{
			RecipientID: member.UserID,
			SenderID:    &actorID,
			Type:        models.NotificationSystem,
			Title:       "Community deleted",
			Message:     fmt.Sprintf("The community %s was deleted", community.Name),
		})
	}
	_, err = s.notifier.NotifyMany(ctx, inputs)
	return err
}

func (s *CommunityService) ListQuestions(ctx context.Context, communityID uint) ([]models.CommunityQuestion, error) {
	if _, err := s.communityRepo.GetByID(ctx, communityID); err != nil {
		return nil, err
	}
	return s.communityRepo.ListQuestionLinks(ctx, communityID)
}

// AddQuestion shares an existing question into the community and notifies
// approved members except the actor.
func (s *CommunityService) AddQuestion(ctx context.Context, in AddCommunityQuestionInput) (*models.CommunityQuestion, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireApprovedMember(ctx, in.CommunityID, in.ActorID); err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetByID(ctx, in.QuestionID)
	if err != nil {
		return nil, err
	}

	link := &models.CommunityQuestion{
		QuestionID:  in.QuestionID,
		CommunityID: in.CommunityID,
	}
	if err := s.communityRepo.LinkQuestion(ctx, link); err != nil {
		return nil, err
	}

	if err := s.notifyMembers(ctx, community, in.ActorID, models.NotificationCommunityQuestn,
		"New community question",
		fmt.Sprintf("A question was shared to %s: \"%s\"", community.Name, question.Title),
		&question.ID,
	); err != nil {
		return nil, err
	}
	return link, nil
}

// AskQuestion creates a question and shares it to the community in one call.
func (s *CommunityService) AskQuestion(ctx context.Context, questions *QuestionService, in AskCommunityQuestionInput) (*models.Question, error) {
	community, err := s.communityRepo.GetByID(ctx, in.CommunityID)
	if err != nil {
		return nil, err
	}
	if _, err := s.requireApprovedMember(ctx, in.CommunityID, in.ActorID); err != nil {
		return nil, err
	}

	question, err := questions.Create(ctx, CreateQuestionInput{
		UserID:      in.ActorID,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
	})
	if err != nil {
		return nil, err
	}
	if err := s.communityRepo.LinkQuestion(ctx, &models.CommunityQuestion{
		QuestionID:  question.ID,
		CommunityID: in.CommunityID,
	}); err != nil {
		return nil, err
	}

	if err := s.notifyMembers(ctx, community, in.ActorID, models.NotificationCommunityQuestn,
		"New community question",
		fmt.Sprintf("A question was asked in %s: \"%s\"", community.Name, question.Title),
		&question.ID,
	); err != nil {
		return nil, err
	}
	return question, nil
}

// RemoveQuestion unlinks a question. Allowed for community admins and the
// question owner.
func (s *CommunityService) RemoveQuestion(ctx context.Context, in AddCommunityQuestionInput) error {
	if _, err := s.communityRepo.GetByID(ctx, in.CommunityID); err != nil {
		return err
	}
	link, err := s.communityRepo.GetQuestionLink(ctx, in.CommunityID, in.QuestionID)
	if err != nil {
		return err
	}
	if link == nil {
		return models.NewNotFoundError("Community question", in.QuestionID)
	}

	question, err := s.questionRepo.GetByID(ctx, in.QuestionID)
	if err != nil {
		return err
	}
	if question.UserID != in.ActorID {
		if err := s.requireAdmin(ctx, in.CommunityID, in.ActorID); err != nil {
			return err
		}
	}
	return s.communityRepo.UnlinkQuestion(ctx, link.ID)
}

// notifyMembers fans out to every approved member. Self-suppression drops
// the actor's own row.
func (s *CommunityService) notifyMembers(ctx context.Context, community *models.Community, actorID uint, typ models.NotificationType, title, message string, questionID *uint) error {
	members, err := s.communityRepo.ListMemberships(ctx, community.ID, models.StatusApproved)
	if err != nil {
		return err
	}

	inputs := make([]NotifyInput, 0, len(members))
	for _, member := range members {
		inputs = append(inputs, NotifyInput{
			RecipientID: member.UserID,
			SenderID:    &actorID,
			Type:        typ,
			Title:       title,
			Message:     message,
			QuestionID:  questionID,
		})
	}
	_, err = s.notifier.NotifyMany(ctx, inputs)
	return err
}
