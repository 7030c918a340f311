package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const creditKey = "weekly-goal:g1:2024-06-03:u1"

func TestPointsRepositoryCredit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPointsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO point_transactions").
		WithArgs(sqlmock.AnyArg(), "u1", 10, "weekly goal achieved", creditKey, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET points = points").
		WithArgs("u1", 10).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	credited, err := repo.Credit(context.Background(), "u1", 10, "weekly goal achieved", creditKey)
	require.NoError(t, err)
	assert.True(t, credited)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepositoryCreditDuplicateKey(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPointsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO point_transactions").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	credited, err := repo.Credit(context.Background(), "u1", 10, "weekly goal achieved", creditKey)
	require.NoError(t, err)
	assert.False(t, credited)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsRepositoryCreditUnknownUser(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPointsRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO point_transactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET points").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	credited, err := repo.Credit(context.Background(), "ghost", 10, "weekly goal achieved", creditKey)
	require.Error(t, err)
	assert.False(t, credited)
	assert.NoError(t, mock.ExpectationsWereMet())
}
