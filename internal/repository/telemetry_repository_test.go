package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

func TestTelemetryRepositoryMemberTotals(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTelemetryRepository(db)

	week := models.WeekOf(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("FROM step_logs").
		WithArgs("u1", week.Start, week.Until()).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(52000)))
	mock.ExpectQuery("FROM activity_logs").
		WithArgs("u1", week.Start, week.Until()).
		WillReturnRows(sqlmock.NewRows([]string{"kcal", "distance"}).AddRow(2100.5, 38.2))
	mock.ExpectQuery("FROM exercise_logs").
		WithArgs("u1", week.Start, week.Until()).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(int64(240)))

	totals, err := repo.MemberTotals(context.Background(), "u1", week.Start, week.Until())
	require.NoError(t, err)
	assert.Equal(t, models.MemberTotals{Steps: 52000, Kcal: 2100.5, ActiveMinutes: 240, Distance: 38.2}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTelemetryRepositoryMemberTotalsError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTelemetryRepository(db)

	mock.ExpectQuery("FROM step_logs").WillReturnError(errors.New("connection reset"))

	_, err := repo.MemberTotals(context.Background(), "u1", time.Now(), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum member steps")
	assert.NoError(t, mock.ExpectationsWereMet())
}
