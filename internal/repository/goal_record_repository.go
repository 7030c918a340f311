package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

// GoalRecordRepository persists the weekly audit records.
type GoalRecordRepository struct {
	db *sqlx.DB
}

// NewGoalRecordRepository creates a new instance of GoalRecordRepository.
func NewGoalRecordRepository(db *sqlx.DB) *GoalRecordRepository {
	return &GoalRecordRepository{db: db}
}

// Exists reports whether a record has been written for the group-week.
func (r *GoalRecordRepository) Exists(ctx context.Context, groupID string, week models.Week) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM goal_records WHERE group_id = $1 AND week_start = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, groupID, week.Key()); err != nil {
		return false, fmt.Errorf("check goal record: %w", err)
	}
	return exists, nil
}

// Create inserts the record. It returns false when one already existed.
func (r *GoalRecordRepository) Create(ctx context.Context, record *models.GoalRecord) (bool, error) {
	const query = `INSERT INTO goal_records (id, group_id, week_start, steps_goal, steps_actual, steps_pct, kcal_goal, kcal_actual, kcal_pct, duration_goal, duration_actual, duration_pct, distance_goal, distance_actual, distance_pct, selected_metric, success, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
ON CONFLICT (group_id, week_start) DO NOTHING`
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, query,
		record.ID, record.GroupID, record.WeekStart.Format(models.DateLayout),
		record.StepsGoal, record.StepsActual, record.StepsPct,
		record.KcalGoal, record.KcalActual, record.KcalPct,
		record.DurationGoal, record.DurationActual, record.DurationPct,
		record.DistanceGoal, record.DistanceActual, record.DistancePct,
		record.SelectedMetric, record.Success, record.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create goal record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("goal record rows: %w", err)
	}
	return affected > 0, nil
}

// ListByGroup returns a group's records, newest week first.
func (r *GoalRecordRepository) ListByGroup(ctx context.Context, groupID string, limit int) ([]models.GoalRecord, error) {
	if limit <= 0 || limit > 520 {
		limit = 52
	}
	const query = `SELECT id, group_id, week_start, steps_goal, steps_actual, steps_pct, kcal_goal, kcal_actual, kcal_pct, duration_goal, duration_actual, duration_pct, distance_goal, distance_actual, distance_pct, selected_metric, success, created_at
FROM goal_records WHERE group_id = $1 ORDER BY week_start DESC LIMIT $2`
	var records []models.GoalRecord
	if err := r.db.SelectContext(ctx, &records, query, groupID, limit); err != nil {
		return nil, fmt.Errorf("list goal records: %w", err)
	}
	return records, nil
}
