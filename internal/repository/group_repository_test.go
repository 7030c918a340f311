package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

func TestGroupRepositoryGetGroup(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "group_type", "created_at"}).
		AddRow("g1", "Morning Walkers", "HEALTH", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, group_type, created_at FROM groups WHERE id = $1")).
		WithArgs("g1").
		WillReturnRows(rows)

	group, err := repo.GetGroup(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, models.GroupTypeHealth, group.Type)

	mock.ExpectQuery(regexp.QuoteMeta("FROM groups WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.GetGroup(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListGroupIDs(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM groups WHERE group_type = $1 ORDER BY id")).
		WithArgs(models.GroupTypeHealth).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("g1").AddRow("g2"))
	ids, err := repo.ListGroupIDs(context.Background(), models.GroupTypeHealth)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, ids)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM groups ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("g1"))
	ids, err = repo.ListGroupIDs(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, ids, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryListMembers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	birth := time.Date(1990, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"user_id", "birth_date", "height_cm", "weight_kg"}).
		AddRow("u1", birth, 175.0, 70.0).
		AddRow("u2", nil, nil, nil)
	mock.ExpectQuery("FROM group_members gm").
		WithArgs("g1").
		WillReturnRows(rows)

	members, err := repo.ListMembers(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, members, 2)
	require.NotNil(t, members[0].HeightCm)
	assert.Equal(t, 175.0, *members[0].HeightCm)
	assert.Nil(t, members[1].BirthDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryIsMember(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)")).
		WithArgs("g1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsMember(context.Background(), "g1", "u1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGroupRepositoryGetCriteria(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewGroupRepository(db)

	mock.ExpectQuery("FROM goal_criteria WHERE group_id").
		WithArgs("g1").
		WillReturnRows(sqlmock.NewRows([]string{"group_id", "min_steps", "min_kcal", "min_duration", "min_distance"}).
			AddRow("g1", int64(5000), nil, nil, 10.5))
	criteria, err := repo.GetCriteria(context.Background(), "g1")
	require.NoError(t, err)
	require.NotNil(t, criteria.MinSteps)
	assert.Equal(t, int64(5000), *criteria.MinSteps)
	assert.Nil(t, criteria.MinKcal)
	require.NotNil(t, criteria.MinDistance)
	assert.Equal(t, 10.5, *criteria.MinDistance)

	mock.ExpectQuery("FROM goal_criteria WHERE group_id").
		WithArgs("g2").
		WillReturnError(sql.ErrNoRows)
	criteria, err = repo.GetCriteria(context.Background(), "g2")
	require.NoError(t, err)
	assert.Nil(t, criteria)
	assert.NoError(t, mock.ExpectationsWereMet())
}
