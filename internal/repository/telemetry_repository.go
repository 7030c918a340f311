package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

// TelemetryRepository sums raw activity logs written by the ingestion service.
type TelemetryRepository struct {
	db *sqlx.DB
}

// NewTelemetryRepository creates a new instance of TelemetryRepository.
func NewTelemetryRepository(db *sqlx.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// MemberTotals returns a user's sums for the half-open interval [from, to).
func (r *TelemetryRepository) MemberTotals(ctx context.Context, userID string, from, to time.Time) (models.MemberTotals, error) {
	const stepsQuery = `SELECT COALESCE(SUM(steps), 0) FROM step_logs WHERE user_id = $1 AND logged_at >= $2 AND logged_at < $3`
	const activityQuery = `SELECT COALESCE(SUM(kcal), 0) AS kcal, COALESCE(SUM(distance_km), 0) AS distance FROM activity_logs WHERE user_id = $1 AND logged_at >= $2 AND logged_at < $3`
	const exerciseQuery = `SELECT COALESCE(SUM(duration_minutes), 0) FROM exercise_logs WHERE user_id = $1 AND started_at >= $2 AND started_at < $3`

	var totals models.MemberTotals
	if err := r.db.GetContext(ctx, &totals.Steps, stepsQuery, userID, from, to); err != nil {
		return models.MemberTotals{}, fmt.Errorf("sum member steps: %w", err)
	}

	var activity struct {
		Kcal     float64 `db:"kcal"`
		Distance float64 `db:"distance"`
	}
	if err := r.db.GetContext(ctx, &activity, activityQuery, userID, from, to); err != nil {
		return models.MemberTotals{}, fmt.Errorf("sum member activity: %w", err)
	}
	totals.Kcal = activity.Kcal
	totals.Distance = activity.Distance

	if err := r.db.GetContext(ctx, &totals.ActiveMinutes, exerciseQuery, userID, from, to); err != nil {
		return models.MemberTotals{}, fmt.Errorf("sum member exercise: %w", err)
	}
	return totals, nil
}
