package service

import (
	"context"
	"testing"

	"stuverflow/internal/models"
	"stuverflow/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newAnswerService(db *gorm.DB) *AnswerService {
	return NewAnswerService(
		repository.NewAnswerRepository(db),
		repository.NewQuestionRepository(db),
		repository.NewUserRepository(db),
		newTestNotifier(db),
	)
}

func TestAnswerService_Create_NotifiesQuestionOwner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	asker := f.user("asker")
	answerer := f.user("answerer")
	question := f.question(asker, "How do goroutines work?")

	svc := newAnswerService(db)
	answer, err := svc.Create(context.Background(), CreateAnswerInput{
		UserID:     answerer.ID,
		QuestionID: question.ID,
		Content:    "They are lightweight threads.",
	})
	require.NoError(t, err)
	assert.Equal(t, answerer.ID, answer.UserID)
	assert.EqualValues(t, 1, countNotifications(t, db, asker.ID))
}

func TestAnswerService_Create_OwnQuestionNoNotification(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	asker := f.user("asker")
	question := f.question(asker, "Self answered")

	svc := newAnswerService(db)
	_, err := svc.Create(context.Background(), CreateAnswerInput{
		UserID:     asker.ID,
		QuestionID: question.ID,
		Content:    "Answering my own question.",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, countNotifications(t, db, asker.ID))
}

func TestAnswerService_Vote_IncrementsAndNotifies(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	asker := f.user("asker")
	answerer := f.user("answerer")
	voter := f.user("voter")
	question := f.question(asker, "Voting")
	answer := f.answer(answerer, question)

	svc := newAnswerService(db)
	in := VoteAnswerInput{ActorID: voter.ID, AnswerID: answer.ID, Vote: models.VoteUpvote}

	updated, err := svc.Vote(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Upvotes)

	updated, err = svc.Vote(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Upvotes)

	assert.EqualValues(t, 2, countNotifications(t, db, answerer.ID))
}

func TestAnswerService_Vote_SelfUpvoteSuppressed(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	asker := f.user("asker")
	answerer := f.user("answerer")
	question := f.question(asker, "Self vote")
	answer := f.answer(answerer, question)

	svc := newAnswerService(db)
	updated, err := svc.Vote(context.Background(), VoteAnswerInput{
		ActorID:  answerer.ID,
		AnswerID: answer.ID,
		Vote:     models.VoteUpvote,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Upvotes)
	assert.EqualValues(t, 0, countNotifications(t, db, answerer.ID))
}

func TestAnswerService_Vote_RejectsUnknownVoteType(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newAnswerService(db)
	_, err := svc.Vote(context.Background(), VoteAnswerInput{ActorID: 1, AnswerID: 1, Vote: "sideways"})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestAnswerService_Accept_MovesFlagBetweenAnswers(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	asker := f.user("asker")
	answerer := f.user("answerer")
	question := f.question(asker, "Which one?")
	first := f.answer(answerer, question)
	second := f.answer(answerer, question)

	svc := newAnswerService(db)
	ctx := context.Background()

	accepted, err := svc.Accept(ctx, AcceptAnswerInput{ActorID: asker.ID, AnswerID: first.ID})
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)

	accepted, err = svc.Accept(ctx, AcceptAnswerInput{ActorID: asker.ID, AnswerID: second.ID})
	require.NoError(t, err)
	assert.True(t, accepted.IsAccepted)

	var count int64
	require.NoError(t, db.Model(&models.Answer{}).
		Where("question_id = ? AND is_accepted = ?", question.ID, true).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	assert.EqualValues(t, 2, countNotifications(t, db, answerer.ID))
}

func TestAnswerService_Accept_OnlyQuestionOwner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	asker := f.user("asker")
	answerer := f.user("answerer")
	stranger := f.user("stranger")
	question := f.question(asker, "Ownership")
	answer := f.answer(answerer, question)

	svc := newAnswerService(db)
	_, err := svc.Accept(context.Background(), AcceptAnswerInput{ActorID: stranger.ID, AnswerID: answer.ID})
	assertAppErrorCode(t, err, models.CodeForbidden)
}

func TestAnswerService_UpdateDelete_OwnerOnly(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	asker := f.user("asker")
	answerer := f.user("answerer")
	stranger := f.user("stranger")
	question := f.question(asker, "Edits")
	answer := f.answer(answerer, question)

	svc := newAnswerService(db)
	ctx := context.Background()

	_, err := svc.Update(ctx, UpdateAnswerInput{UserID: stranger.ID, AnswerID: answer.ID, Content: "nope"})
	assertAppErrorCode(t, err, models.CodeForbidden)

	err = svc.Delete(ctx, stranger.ID, answer.ID)
	assertAppErrorCode(t, err, models.CodeForbidden)

	updated, err := svc.Update(ctx, UpdateAnswerInput{UserID: answerer.ID, AnswerID: answer.ID, Content: "edited"})
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Content)

	require.NoError(t, svc.Delete(ctx, answerer.ID, answer.ID))
	_, err = svc.ListByQuestion(ctx, question.ID)
	require.NoError(t, err)
}
