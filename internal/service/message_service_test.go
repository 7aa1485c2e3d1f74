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

func newMessageService(db *gorm.DB) *MessageService {
	return NewMessageService(
		repository.NewMessageRepository(db),
		repository.NewCommunityRepository(db),
		repository.NewUserRepository(db),
		newTestNotifier(db),
	)
}

func approveMember(t *testing.T, db *gorm.DB, community *models.Community, user *models.User) {
	t.Helper()
	now := time.Now()
	require.NoError(t, db.Create(&models.CommunityMembership{
		CommunityID: community.ID,
		UserID:      user.ID,
		Role:        models.RoleMember,
		Status:      models.StatusApproved,
		RequestedAt: now,
		ApprovedAt:  &now,
	}).Error)
}

func TestMessageService_Post_MemberOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	outsider := f.user("outsider")
	community := f.community(creator, "Gophers")

	svc := newMessageService(db)
	_, err := svc.Post(context.Background(), PostMessageInput{
		ActorID:     outsider.ID,
		CommunityID: community.ID,
		Content:     "hello",
	})
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func TestMessageService_Post_FansOutToMembers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	member := f.user("member")
	community := f.community(creator, "Gophers")
	approveMember(t, db, community, member)

	svc := newMessageService(db)
	message, err := svc.Post(context.Background(), PostMessageInput{
		ActorID:     member.ID,
		CommunityID: community.ID,
		Content:     "hello everyone",
	})
	require.NoError(t, err)
	assert.Equal(t, models.MessageRegular, message.Type)

	assert.EqualValues(t, 1, countNotifications(t, db, creator.ID))
	assert.EqualValues(t, 0, countNotifications(t, db, member.ID))
}

func TestMessageService_Post_QuestionTypeNeedsTitle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	community := f.community(creator, "Gophers")

	svc := newMessageService(db)
	ctx := context.Background()

	_, err := svc.Post(ctx, PostMessageInput{
		ActorID:     creator.ID,
		CommunityID: community.ID,
		Content:     "how do I range over a channel?",
		Type:        models.MessageQuestion,
	})
	assertAppErrorCode(t, err, models.CodeValidation)

	message, err := svc.Post(ctx, PostMessageInput{
		ActorID:       creator.ID,
		CommunityID:   community.ID,
		Content:       "how do I range over a channel?",
		Type:          models.MessageQuestion,
		QuestionTitle: "Ranging over channels",
		QuestionTags:  []string{"Go", "channels"},
	})
	require.NoError(t, err)
	require.NotNil(t, message.QuestionTitle)
	assert.Equal(t, "Ranging over channels", *message.QuestionTitle)
	assert.Equal(t, []string{"go", "channels"}, message.QuestionTagList())
}

func TestMessageService_Reply_StaysOneLevelDeep(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	community := f.community(creator, "Gophers")

	svc := newMessageService(db)
	ctx := context.Background()

	top, err := svc.Post(ctx, PostMessageInput{
		ActorID:     creator.ID,
		CommunityID: community.ID,
		Content:     "top level",
	})
	require.NoError(t, err)

	reply, err := svc.Reply(ctx, ReplyInput{
		ActorID:     creator.ID,
		CommunityID: community.ID,
		MessageID:   top.ID,
		Content:     "first reply",
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ParentMessageID)
	assert.Equal(t, top.ID, *reply.ParentMessageID)

	// Replying to a reply attaches to the top-level parent.
	nested, err := svc.Reply(ctx, ReplyInput{
		ActorID:     creator.ID,
		CommunityID: community.ID,
		MessageID:   reply.ID,
		Content:     "reply to the reply",
	})
	require.NoError(t, err)
	require.NotNil(t, nested.ParentMessageID)
	assert.Equal(t, top.ID, *nested.ParentMessageID)

	views, err := svc.List(ctx, community.ID, creator.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Len(t, views[0].ReplyList, 2)
}

func TestMessageService_List_PinnedFirst(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	community := f.community(creator, "Gophers")

	svc := newMessageService(db)
	ctx := context.Background()

	pinned, err := svc.Post(ctx, PostMessageInput{
		ActorID:     creator.ID,
		CommunityID: community.ID,
		Content:     "read the rules",
	})
	require.NoError(t, err)
	_, err = svc.Post(ctx, PostMessageInput{
		ActorID:     creator.ID,
		CommunityID: community.ID,
		Content:     "later message",
	})
	require.NoError(t, err)
	require.NoError(t, db.Model(pinned).Update("is_pinned", true).Error)

	views, err := svc.List(ctx, community.ID, creator.ID, 50, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, pinned.ID, views[0].ID)
}

func TestMessageService_ToggleLike(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	member := f.user("member")
	community := f.community(creator, "Gophers")
	approveMember(t, db, community, member)

	svc := newMessageService(db)
	ctx := context.Background()

	message, err := svc.Post(ctx, PostMessageInput{
		ActorID:     creator.ID,
		CommunityID: community.ID,
		Content:     "likeable",
	})
	require.NoError(t, err)

	liked, count, err := svc.ToggleLike(ctx, member.ID, community.ID, message.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.EqualValues(t, 1, count)

	liked, count, err = svc.ToggleLike(ctx, member.ID, community.ID, message.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.EqualValues(t, 0, count)
}

func TestMessageService_Delete_AuthorOrAdmin(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	creator := f.user("creator")
	author := f.user("author")
	other := f.user("other")
	community := f.community(creator, "Gophers")
	approveMember(t, db, community, author)
	approveMember(t, db, community, other)

	svc := newMessageService(db)
	ctx := context.Background()

	message, err := svc.Post(ctx, PostMessageInput{
		ActorID:     author.ID,
		CommunityID: community.ID,
		Content:     "short lived",
	})
	require.NoError(t, err)

	err = svc.Delete(ctx, other.ID, community.ID, message.ID)
	assertAppErrorCode(t, err, models.CodeForbidden)

	// The community admin may remove anyone's message.
	require.NoError(t, svc.Delete(ctx, creator.ID, community.ID, message.ID))
}
