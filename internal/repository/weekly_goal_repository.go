package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

const weeklyGoalColumns = `id, group_id, week_start, steps_goal, kcal_goal, duration_goal, distance_goal, steps_growth_rate, kcal_growth_rate, duration_growth_rate, distance_growth_rate, selected_metric, created_at, updated_at`

// WeeklyGoalRepository persists predicted and selected weekly goals.
type WeeklyGoalRepository struct {
	db *sqlx.DB
}

// NewWeeklyGoalRepository creates a new instance of WeeklyGoalRepository.
func NewWeeklyGoalRepository(db *sqlx.DB) *WeeklyGoalRepository {
	return &WeeklyGoalRepository{db: db}
}

// Get returns the goal for a group-week. A missing row yields sql.ErrNoRows.
func (r *WeeklyGoalRepository) Get(ctx context.Context, groupID string, week models.Week) (*models.WeeklyGoal, error) {
	query := `SELECT ` + weeklyGoalColumns + ` FROM weekly_goals WHERE group_id = $1 AND week_start = $2`
	var goal models.WeeklyGoal
	if err := r.db.GetContext(ctx, &goal, query, groupID, week.Key()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get weekly goal: %w", err)
	}
	return &goal, nil
}

// Create inserts a new goal row.
func (r *WeeklyGoalRepository) Create(ctx context.Context, goal *models.WeeklyGoal) error {
	const query = `INSERT INTO weekly_goals (id, group_id, week_start, steps_goal, kcal_goal, duration_goal, distance_goal, steps_growth_rate, kcal_growth_rate, duration_growth_rate, distance_growth_rate, selected_metric, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	goal.CreatedAt = now
	goal.UpdatedAt = now
	if _, err := r.db.ExecContext(ctx, query,
		goal.ID, goal.GroupID, goal.WeekStart.Format(models.DateLayout),
		goal.StepsGoal, goal.KcalGoal, goal.DurationGoal, goal.DistanceGoal,
		goal.StepsGrowthRate, goal.KcalGrowthRate, goal.DurationGrowthRate, goal.DistanceGrowthRate,
		goal.SelectedMetric, goal.CreatedAt, goal.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create weekly goal: %w", err)
	}
	return nil
}

// Update overwrites targets, growth rates and selection of an existing goal.
func (r *WeeklyGoalRepository) Update(ctx context.Context, goal *models.WeeklyGoal) error {
	const query = `UPDATE weekly_goals SET steps_goal = $2, kcal_goal = $3, duration_goal = $4, distance_goal = $5,
    steps_growth_rate = $6, kcal_growth_rate = $7, duration_growth_rate = $8, distance_growth_rate = $9,
    selected_metric = $10, updated_at = $11
WHERE id = $1`
	goal.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.StepsGoal, goal.KcalGoal, goal.DurationGoal, goal.DistanceGoal,
		goal.StepsGrowthRate, goal.KcalGrowthRate, goal.DurationGrowthRate, goal.DistanceGrowthRate,
		goal.SelectedMetric, goal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update weekly goal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update weekly goal rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
