package service

import (
	"context"
	"testing"
	"time"

	"stuverflow/internal/models"
	"stuverflow/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newCommunityService(db *gorm.DB) *CommunityService {
	return NewCommunityService(
		repository.NewCommunityRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewUserRepository(db),
		newTestNotifier(db),
	)
}

func TestCommunityService_Create_CreatorBecomesAdmin(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")

	svc := newCommunityService(db)
	community, err := svc.Create(context.Background(), CreateCommunityInput{
		CreatorID:   creator.ID,
		Name:        "Gophers",
		Description: "All things Go",
	})
	require.NoError(t, err)

	membership, err := svc.Membership(context.Background(), community.ID, creator.ID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, models.RoleAdmin, membership.Role)
	assert.Equal(t, models.StatusApproved, membership.Status)
}

func TestCommunityService_Join_StateMachine(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	joiner := f.user("joiner")
	community := f.community(creator, "Gophers")

	svc := newCommunityService(db)
	ctx := context.Background()
	in := JoinCommunityInput{UserID: joiner.ID, CommunityID: community.ID}

	membership, err := svc.Join(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, membership.Status)
	assert.Equal(t, models.RoleMember, membership.Role)

	// The admin hears about the request.
	assert.EqualValues(t, 1, countNotifications(t, db, creator.ID))

	_, err = svc.Join(ctx, in)
	assertAppErrorCode(t, err, models.CodeValidation)

	approved, err := svc.Approve(ctx, ReviewJoinRequestInput{
		ActorID:      creator.ID,
		CommunityID:  community.ID,
		MembershipID: membership.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedAt)
	require.NotNil(t, approved.ApprovedByID)
	assert.Equal(t, creator.ID, *approved.ApprovedByID)

	// The requester hears about the approval.
	assert.EqualValues(t, 1, countNotifications(t, db, joiner.ID))

	_, err = svc.Join(ctx, in)
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestCommunityService_Join_AfterDeclineReusesRow(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	joiner := f.user("joiner")
	community := f.community(creator, "Gophers")

	svc := newCommunityService(db)
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	in := JoinCommunityInput{UserID: joiner.ID, CommunityID: community.ID}

	membership, err := svc.Join(ctx, in)
	require.NoError(t, err)
	firstRequestedAt := membership.RequestedAt

	declined, err := svc.Decline(ctx, ReviewJoinRequestInput{
		ActorID:      creator.ID,
		CommunityID:  community.ID,
		MembershipID: membership.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, declined.Status)
	assert.Nil(t, declined.ApprovedAt)

	svc.now = func() time.Time { return time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC) }
	again, err := svc.Join(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, membership.ID, again.ID)
	assert.Equal(t, models.StatusPending, again.Status)
	assert.True(t, again.RequestedAt.After(firstRequestedAt))

	var count int64
	require.NoError(t, db.Model(&models.CommunityMembership{}).
		Where("community_id = ? AND user_id = ?", community.ID, joiner.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestCommunityService_Review_RequiresAdmin(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	joiner := f.user("joiner")
	stranger := f.user("stranger")
	community := f.community(creator, "Gophers")

	svc := newCommunityService(db)
	ctx := context.Background()

	membership, err := svc.Join(ctx, JoinCommunityInput{UserID: joiner.ID, CommunityID: community.ID})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, ReviewJoinRequestInput{
		ActorID:      stranger.ID,
		CommunityID:  community.ID,
		MembershipID: membership.ID,
	})
	assertAppErrorCode(t, err, models.CodeForbidden)

	_, err = svc.ListJoinRequests(ctx, community.ID, stranger.ID)
	assertAppErrorCode(t, err, models.CodeForbidden)

	requests, err := svc.ListJoinRequests(ctx, community.ID, creator.ID)
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestCommunityService_Leave(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	joiner := f.user("joiner")
	community := f.community(creator, "Gophers")

	svc := newCommunityService(db)
	ctx := context.Background()

	err := svc.Leave(ctx, JoinCommunityInput{UserID: creator.ID, CommunityID: community.ID})
	assertAppErrorCode(t, err, models.CodeForbidden)

	err = svc.Leave(ctx, JoinCommunityInput{UserID: joiner.ID, CommunityID: community.ID})
	assertAppErrorCode(t, err, models.CodeValidation)

	membership, err := svc.Join(ctx, JoinCommunityInput{UserID: joiner.ID, CommunityID: community.ID})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, ReviewJoinRequestInput{
		ActorID:      creator.ID,
		CommunityID:  community.ID,
		MembershipID: membership.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Leave(ctx, JoinCommunityInput{UserID: joiner.ID, CommunityID: community.ID}))
	got, err := svc.Membership(ctx, community.ID, joiner.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommunityService_AddQuestion_NotifiesMembers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	member := f.user("member")
	community := f.community(creator, "Gophers")
	question := f.question(member, "Shareable")

	svc := newCommunityService(db)
	ctx := context.Background()

	// Non-members cannot share questions.
	_, err := svc.AddQuestion(ctx, AddCommunityQuestionInput{
		ActorID:     member.ID,
		CommunityID: community.ID,
		QuestionID:  question.ID,
	})
	assertAppErrorCode(t, err, models.CodeForbidden)

	membership, err := svc.Join(ctx, JoinCommunityInput{UserID: member.ID, CommunityID: community.ID})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, ReviewJoinRequestInput{
		ActorID:      creator.ID,
		CommunityID:  community.ID,
		MembershipID: membership.ID,
	})
	require.NoError(t, err)
	creatorBefore := countNotifications(t, db, creator.ID)

	link, err := svc.AddQuestion(ctx, AddCommunityQuestionInput{
		ActorID:     member.ID,
		CommunityID: community.ID,
		QuestionID:  question.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, question.ID, link.QuestionID)

	// The other approved member hears about it, the actor does not.
	assert.EqualValues(t, creatorBefore+1, countNotifications(t, db, creator.ID))
	memberCount := countNotifications(t, db, member.ID)

	// Sharing the same question twice is rejected.
	_, err = svc.AddQuestion(ctx, AddCommunityQuestionInput{
		ActorID:     member.ID,
		CommunityID: community.ID,
		QuestionID:  question.ID,
	})
	assertAppErrorCode(t, err, models.CodeConflict)
	assert.EqualValues(t, memberCount, countNotifications(t, db, member.ID))
}

func TestCommunityService_AskQuestion_CreatesAndLinks(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	community := f.community(creator, "Gophers")

	svc := newCommunityService(db)
	questions := newQuestionService(db)
	ctx := context.Background()

	question, err := svc.AskQuestion(ctx, questions, AskCommunityQuestionInput{
		ActorID:     creator.ID,
		CommunityID: community.ID,
		Title:       "Asked inside",
		Description: "body",
		Tags:        []string{"go"},
	})
	require.NoError(t, err)

	links, err := svc.ListQuestions(ctx, community.ID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, question.ID, links[0].QuestionID)
}

func TestCommunityService_Delete_CreatorOnlyAndNotifies(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	member := f.user("member")
	community := f.community(creator, "Gophers")

	svc := newCommunityService(db)
	ctx := context.Background()

	membership, err := svc.Join(ctx, JoinCommunityInput{UserID: member.ID, CommunityID: community.ID})
	require.NoError(t, err)
	_, err = svc.Approve(ctx, ReviewJoinRequestInput{
		ActorID:      creator.ID,
		CommunityID:  community.ID,
		MembershipID: membership.ID,
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, community.ID, member.ID)
	assertAppErrorCode(t, err, models.CodeForbidden)

	memberBefore := countNotifications(t, db, member.ID)
	creatorBefore := countNotifications(t, db, creator.ID)

	require.NoError(t, svc.Delete(ctx, community.ID, creator.ID))

	_, err = svc.Get(ctx, community.ID)
	assertAppErrorCode(t, err, models.CodeNotFound)

	// Members hear about the deletion, the deleter does not.
	assert.EqualValues(t, memberBefore+1, countNotifications(t, db, member.ID))
	assert.EqualValues(t, creatorBefore, countNotifications(t, db, creator.ID))
}
