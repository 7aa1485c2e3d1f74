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

func TestNotificationRepository_MarkRead_ScopedToRecipient(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "notifications" SET "is_read"=$1 WHERE id = $2 AND recipient_id = $3`)).
		WithArgs(true, 4, 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.MarkRead(context.Background(), 10, 4)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkRead_OtherRecipientNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "notifications" SET "is_read"=$1 WHERE id = $2 AND recipient_id = $3`)).
		WithArgs(true, 4, 11).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.MarkRead(context.Background(), 11, 4)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, models.CodeNotFound, appErr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkAllRead_ReturnsCount(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE "notifications" SET "is_read"=$1 WHERE recipient_id = $2 AND is_read = $3`)).
		WithArgs(true, 10, false).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	updated, err := repo.MarkAllRead(context.Background(), 10)
	require.NoError(t, err)
	assert.EqualValues(t, 3, updated)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CreateBatch_Empty(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewNotificationRepository(db)

	// No SQL at all for an empty batch.
	err := repo.CreateBatch(context.Background(), nil)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
