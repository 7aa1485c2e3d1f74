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

func newSearchService(db *gorm.DB) *SearchService {
	return NewSearchService(
		repository.NewQuestionRepository(db),
		repository.NewAnswerRepository(db),
		repository.NewUserRepository(db),
	)
}

func TestSearchService_Questions_SubstringMatch(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	author := f.user("author")
	f.question(author, "Understanding goroutines")
	f.question(author, "Baking bread")

	svc := newSearchService(db)
	result, err := svc.Questions(context.Background(), SearchQuestionsInput{Query: "GOROUTINE"})
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "Understanding goroutines", result.Questions[0].Title)
	assert.Equal(t, 1, result.Total)
}

func TestSearchService_Questions_TagIntersection(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	author := f.user("author")
	f.question(author, "Both tags", "go", "testing")
	f.question(author, "Only go", "go")
	f.question(author, "Only testing", "testing")

	svc := newSearchService(db)
	result, err := svc.Questions(context.Background(), SearchQuestionsInput{
		Tags: []string{"go", "testing"},
	})
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "Both tags", result.Questions[0].Title)
}

func TestSearchService_Questions_Pagination(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	author := f.user("author")
	f.question(author, "First")
	f.question(author, "Second")
	f.question(author, "Third")

	svc := newSearchService(db)
	ctx := context.Background()

	page, err := svc.Questions(ctx, SearchQuestionsInput{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Len(t, page.Questions, 1)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasMore)

	last, err := svc.Questions(ctx, SearchQuestionsInput{Limit: 1, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, last.Questions, 1)
	assert.False(t, last.HasMore)

	past, err := svc.Questions(ctx, SearchQuestionsInput{Limit: 1, Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, past.Questions)
	assert.False(t, past.HasMore)
}

func TestSearchService_Questions_RelevanceOrdering(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	author := f.user("author")

	inTitle := f.question(author, "Graphs in practice")
	inDesc := &models.Question{Title: "Shortest paths", Description: "uses graphs heavily", UserID: author.ID}
	require.NoError(t, db.Create(inDesc).Error)
	inTags := f.question(author, "Traversal tricks", "graphs")
	require.NoError(t, db.Model(inTags).Update("description", "walking structures").Error)
	_ = inTitle

	svc := newSearchService(db)
	result, err := svc.Questions(context.Background(), SearchQuestionsInput{
		Query:  "graphs",
		SortBy: "relevance",
	})
	require.NoError(t, err)
	require.Len(t, result.Questions, 3)
	assert.Equal(t, "Graphs in practice", result.Questions[0].Title)
	assert.Equal(t, "Shortest paths", result.Questions[1].Title)
	assert.Equal(t, "Traversal tricks", result.Questions[2].Title)
}

func TestSearchService_Questions_AnsweredFilter(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	author := f.user("author")
	answerer := f.user("answerer")
	answered := f.question(author, "Answered one")
	f.answer(answerer, answered)
	f.question(author, "Unanswered one")

	svc := newSearchService(db)
	ctx := context.Background()

	result, err := svc.Questions(ctx, SearchQuestionsInput{Answered: "answered"})
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "Answered one", result.Questions[0].Title)

	result, err = svc.Questions(ctx, SearchQuestionsInput{Answered: "unanswered"})
	require.NoError(t, err)
	require.Len(t, result.Questions, 1)
	assert.Equal(t, "Unanswered one", result.Questions[0].Title)

	_, err = svc.Questions(ctx, SearchQuestionsInput{Answered: "maybe"})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestSearchService_Questions_RejectsBadDateAndSort(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newSearchService(db)
	ctx := context.Background()

	_, err := svc.Questions(ctx, SearchQuestionsInput{Date: "fortnight"})
	assertAppErrorCode(t, err, models.CodeValidation)

	_, err = svc.Questions(ctx, SearchQuestionsInput{SortBy: "karma"})
	assertAppErrorCode(t, err, models.CodeValidation)
}

func TestSearchService_Users(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	f := newFixtures(t, db)
	f.user("alice")
	f.user("bob")

	svc := newSearchService(db)
	ctx := context.Background()

	users, err := svc.Users(ctx, "ali", 10, 0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Name)

	_, err = svc.Users(ctx, "  ", 10, 0)
	assertAppErrorCode(t, err, models.CodeValidation)
}
