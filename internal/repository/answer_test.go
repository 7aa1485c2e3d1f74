package repository

import (
	"context"
	"regexp"
	"testing"

	"stuverflow/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerRepository_Accept_ClearsThenSets(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnswerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "answers" SET "is_accepted"=$1 WHERE question_id = $2 AND is_accepted = $3`)).
		WithArgs(false, 5, true).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "answers" SET "is_accepted"=$1 WHERE id = $2 AND question_id = $3`)).
		WithArgs(true, 9, 5).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Accept(context.Background(), 5, 9)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerRepository_Accept_UnknownAnswerRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnswerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "answers" SET "is_accepted"=$1 WHERE question_id = $2 AND is_accepted = $3`)).
		WithArgs(false, 5, true).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "answers" SET "is_accepted"=$1 WHERE id = $2 AND question_id = $3`)).
		WithArgs(true, 99, 5).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Accept(context.Background(), 5, 99)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAnswerRepository_IncrementVote(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAnswerRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "answers" SET "downvotes"=downvotes + 1 WHERE id = $1`)).
		WithArgs(3).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.IncrementVote(context.Background(), 3, models.VoteDownvote)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
