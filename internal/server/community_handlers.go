package server

import (
	"stuverflow/internal/models"
	"stuverflow/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    *bool  `json:"is_public"`
}

// GetCommunities lists communities, newest first.
func (s *Server) GetCommunities(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	communities, err := s.communityService.List(c.UserContext(), p.Limit, p.Offset)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, communities)
}

// CreateCommunity creates a community; the creator becomes its approved
// admin.
func (s *Server) CreateCommunity(c *fiber.Ctx) error {
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req createCommunityRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	community, err := s.communityService.Create(c.UserContext(), service.CreateCommunityInput{
		CreatorID:   uid,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, community)
}

// GetCommunity returns community detail.
func (s *Server) GetCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	community, err := s.communityService.Get(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, community)
}

// DeleteCommunity removes the community and notifies its members. Creator
// only.
func (s *Server) DeleteCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.communityService.Delete(c.UserContext(), id, uid); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Community deleted", nil)
}

// JoinCommunity submits or re-submits a join request.
func (s *Server) JoinCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	membership, err := s.communityService.Join(c.UserContext(), service.JoinCommunityInput{
		UserID:      uid,
		CommunityID: id,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, membership)
}

// LeaveCommunity removes the caller's membership.
func (s *Server) LeaveCommunity(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.communityService.Leave(c.UserContext(), service.JoinCommunityInput{
		UserID:      uid,
		CommunityID: id,
	}); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Left community", nil)
}

// GetMembership returns the caller's membership row for the community, or
// null when there is none.
func (s *Server) GetMembership(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	membership, err := s.communityService.Membership(c.UserContext(), id, uid)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, membership)
}

// CheckMember reports whether a user is an approved member.
func (s *Server) CheckMember(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userID")
	if err != nil {
		return nil
	}

	membership, err := s.communityService.Membership(c.UserContext(), id, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	isMember := membership != nil && membership.Status == models.StatusApproved
	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{"is_member": isMember})
}

// GetMembers lists approved members.
func (s *Server) GetMembers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	members, err := s.communityService.ListMembers(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, members)
}

// GetJoinRequests lists pending join requests. Admin only.
func (s *Server) GetJoinRequests(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	requests, err := s.communityService.ListJoinRequests(c.UserContext(), id, uid)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, requests)
}

// ApproveJoinRequest approves a pending join request. Admin only.
func (s *Server) ApproveJoinRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	membershipID, err := s.parseID(c, "membershipID")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	membership, err := s.communityService.Approve(c.UserContext(), service.ReviewJoinRequestInput{
		ActorID:      uid,
		CommunityID:  id,
		MembershipID: membershipID,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, membership)
}

// DeclineJoinRequest declines a pending join request. Admin only.
func (s *Server) DeclineJoinRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	membershipID, err := s.parseID(c, "membershipID")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	membership, err := s.communityService.Decline(c.UserContext(), service.ReviewJoinRequestInput{
		ActorID:      uid,
		CommunityID:  id,
		MembershipID: membershipID,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, membership)
}

// GetCommunityQuestions lists questions shared to the community.
func (s *Server) GetCommunityQuestions(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	links, err := s.communityService.ListQuestions(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusOK, links)
}

// AddCommunityQuestion shares an existing question into the community.
func (s *Server) AddCommunityQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req struct {
		QuestionID uint `json:"question_id"`
	}
	if err := c.BodyParser(&req); err != nil || req.QuestionID == 0 {
		return models.RespondWithError(c, models.NewValidationError("question_id is required"))
	}

	link, err := s.communityService.AddQuestion(c.UserContext(), service.AddCommunityQuestionInput{
		ActorID:     uid,
		CommunityID: id,
		QuestionID:  req.QuestionID,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, link)
}

// AskCommunityQuestion creates a question and shares it to the community.
func (s *Server) AskCommunityQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	var req createQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	question, err := s.communityService.AskQuestion(c.UserContext(), s.questionService, service.AskCommunityQuestionInput{
		ActorID:     uid,
		CommunityID: id,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithData(c, fiber.StatusCreated, newQuestionView(*question))
}

// RemoveCommunityQuestion unlinks a question from the community.
func (s *Server) RemoveCommunityQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	questionID, err := s.parseID(c, "questionID")
	if err != nil {
		return nil
	}
	uid, err := s.currentUser(c)
	if err != nil {
		return nil
	}

	if err := s.communityService.RemoveQuestion(c.UserContext(), service.AddCommunityQuestionInput{
		ActorID:     uid,
		CommunityID: id,
		QuestionID:  questionID,
	}); err != nil {
		return models.RespondWithError(c, err)
	}
	return models.RespondWithMessage(c, fiber.StatusOK, "Question removed from community", nil)
}
