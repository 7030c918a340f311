package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

func TestGoalRecordRepositoryExists(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalRecordRepository(db)

	week := models.WeekOf(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	mock.ExpectQuery("SELECT EXISTS \\(SELECT 1 FROM goal_records").
		WithArgs("g1", "2024-06-03").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	exists, err := repo.Exists(context.Background(), "g1", week)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRecordRepositoryCreateIsIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalRecordRepository(db)

	week := models.WeekOf(time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC))
	record := &models.GoalRecord{GroupID: "g1", WeekStart: week.Start, StepsGoal: 10000, StepsActual: 12000, StepsPct: 120, Success: true}

	mock.ExpectExec("INSERT INTO goal_records .* ON CONFLICT \\(group_id, week_start\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO goal_records").
		WillReturnResult(sqlmock.NewResult(0, 0))

	written, err := repo.Create(context.Background(), record)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = repo.Create(context.Background(), record)
	require.NoError(t, err)
	assert.False(t, written)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGoalRecordRepositoryListByGroup(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGoalRecordRepository(db)

	now := time.Now()
	cols := []string{"id", "group_id", "week_start", "steps_goal", "steps_actual", "steps_pct", "kcal_goal", "kcal_actual", "kcal_pct", "duration_goal", "duration_actual", "duration_pct", "distance_goal", "distance_actual", "distance_pct", "selected_metric", "success", "created_at"}
	mock.ExpectQuery("FROM goal_records WHERE group_id = \\$1 ORDER BY week_start DESC LIMIT \\$2").
		WithArgs("g1", 52).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("r1", "g1", now, 100.0, 120.0, 120.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, nil, true, now))

	records, err := repo.ListByGroup(context.Background(), "g1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Nil(t, records[0].SelectedMetric)
	assert.True(t, records[0].Success)
	assert.NoError(t, mock.ExpectationsWereMet())
}
