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

const weeklyStatsColumns = `id, group_id, week_start, week_end, member_count, avg_age, avg_bmi, total_steps, total_kcal, total_active_minutes, total_distance, step_variance, created_at`

// WeeklyStatsRepository persists weekly group statistics.
type WeeklyStatsRepository struct {
	db *sqlx.DB
}

// NewWeeklyStatsRepository creates a new instance of WeeklyStatsRepository.
func NewWeeklyStatsRepository(db *sqlx.DB) *WeeklyStatsRepository {
	return &WeeklyStatsRepository{db: db}
}

// Upsert writes the stats row for (group, week), replacing any earlier aggregation.
func (r *WeeklyStatsRepository) Upsert(ctx context.Context, stats *models.WeeklyStats) error {
	const query = `INSERT INTO weekly_group_stats (id, group_id, week_start, week_end, member_count, avg_age, avg_bmi, total_steps, total_kcal, total_active_minutes, total_distance, step_variance, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (group_id, week_start)
DO UPDATE SET week_end = EXCLUDED.week_end, member_count = EXCLUDED.member_count, avg_age = EXCLUDED.avg_age,
              avg_bmi = EXCLUDED.avg_bmi, total_steps = EXCLUDED.total_steps, total_kcal = EXCLUDED.total_kcal,
              total_active_minutes = EXCLUDED.total_active_minutes, total_distance = EXCLUDED.total_distance,
              step_variance = EXCLUDED.step_variance, created_at = EXCLUDED.created_at
RETURNING id`
	if stats.ID == "" {
		stats.ID = uuid.NewString()
	}
	if stats.CreatedAt.IsZero() {
		stats.CreatedAt = time.Now().UTC()
	}
	err := r.db.QueryRowxContext(ctx, query,
		stats.ID, stats.GroupID,
		stats.WeekStart.Format(models.DateLayout), stats.WeekEnd.Format(models.DateLayout),
		stats.MemberCount, stats.AvgAge, stats.AvgBMI,
		stats.TotalSteps, stats.TotalKcal, stats.TotalActiveMinutes, stats.TotalDistance,
		stats.StepVariance, stats.CreatedAt,
	).Scan(&stats.ID)
	if err != nil {
		return fmt.Errorf("upsert weekly stats: %w", err)
	}
	return nil
}

// Get returns the stats for a group-week. A missing row yields sql.ErrNoRows.
func (r *WeeklyStatsRepository) Get(ctx context.Context, groupID string, week models.Week) (*models.WeeklyStats, error) {
	query := `SELECT ` + weeklyStatsColumns + ` FROM weekly_group_stats WHERE group_id = $1 AND week_start = $2`
	var stats models.WeeklyStats
	if err := r.db.GetContext(ctx, &stats, query, groupID, week.Key()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get weekly stats: %w", err)
	}
	return &stats, nil
}

// ListBefore returns up to limit stats rows that start before the given week, newest first.
func (r *WeeklyStatsRepository) ListBefore(ctx context.Context, groupID string, before models.Week, limit int) ([]models.WeeklyStats, error) {
	if limit <= 0 {
		limit = 3
	}
	query := `SELECT ` + weeklyStatsColumns + ` FROM weekly_group_stats WHERE group_id = $1 AND week_start < $2 ORDER BY week_start DESC LIMIT $3`
	var history []models.WeeklyStats
	if err := r.db.SelectContext(ctx, &history, query, groupID, before.Key(), limit); err != nil {
		return nil, fmt.Errorf("list weekly stats history: %w", err)
	}
	return history, nil
}
