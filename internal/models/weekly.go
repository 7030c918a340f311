package models

import "time"

// WeeklyStats is a group's aggregated telemetry for one completed week.
type WeeklyStats struct {
	ID                 string    `db:"id" json:"id"`
	GroupID            string    `db:"group_id" json:"group_id"`
	WeekStart          time.Time `db:"week_start" json:"week_start"`
	WeekEnd            time.Time `db:"week_end" json:"week_end"`
	MemberCount        int       `db:"member_count" json:"member_count"`
	AvgAge             float64   `db:"avg_age" json:"avg_age"`
	AvgBMI             float64   `db:"avg_bmi" json:"avg_bmi"`
	TotalSteps         int64     `db:"total_steps" json:"total_steps"`
	TotalKcal          float64   `db:"total_kcal" json:"total_kcal"`
	TotalActiveMinutes int64     `db:"total_active_minutes" json:"total_active_minutes"`
	TotalDistance      float64   `db:"total_distance" json:"total_distance"`
	// StepVariance holds the population standard deviation of member step totals.
	StepVariance float64   `db:"step_variance" json:"step_variance"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// WeeklyGoal holds predicted targets for a group-week and the metric the
// group committed to, if any.
type WeeklyGoal struct {
	ID                 string    `db:"id" json:"id"`
	GroupID            string    `db:"group_id" json:"group_id"`
	WeekStart          time.Time `db:"week_start" json:"week_start"`
	StepsGoal          int64     `db:"steps_goal" json:"steps_goal"`
	KcalGoal           float64   `db:"kcal_goal" json:"kcal_goal"`
	DurationGoal       int64     `db:"duration_goal" json:"duration_goal"`
	DistanceGoal       float64   `db:"distance_goal" json:"distance_goal"`
	StepsGrowthRate    float64   `db:"steps_growth_rate" json:"steps_growth_rate"`
	KcalGrowthRate     float64   `db:"kcal_growth_rate" json:"kcal_growth_rate"`
	DurationGrowthRate float64   `db:"duration_growth_rate" json:"duration_growth_rate"`
	DistanceGrowthRate float64   `db:"distance_growth_rate" json:"distance_growth_rate"`
	SelectedMetric     *Metric   `db:"selected_metric" json:"selected_metric,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// NewBlankGoal returns a goal with zero targets and neutral growth rates.
func NewBlankGoal(groupID string, week Week) *WeeklyGoal {
	goal := &WeeklyGoal{GroupID: groupID, WeekStart: week.Start}
	for _, spec := range metricSpecs {
		spec.SetGrowthRate(goal, 1.0)
	}
	return goal
}

// GoalCriteria are per-group floors applied to user-chosen targets.
type GoalCriteria struct {
	GroupID     string   `db:"group_id" json:"group_id"`
	MinSteps    *int64   `db:"min_steps" json:"min_steps,omitempty"`
	MinKcal     *float64 `db:"min_kcal" json:"min_kcal,omitempty"`
	MinDuration *int64   `db:"min_duration" json:"min_duration,omitempty"`
	MinDistance *float64 `db:"min_distance" json:"min_distance,omitempty"`
}

// GoalRecord is the permanent audit snapshot of a group-week's outcome.
type GoalRecord struct {
	ID             string    `db:"id" json:"id"`
	GroupID        string    `db:"group_id" json:"group_id"`
	WeekStart      time.Time `db:"week_start" json:"week_start"`
	StepsGoal      float64   `db:"steps_goal" json:"steps_goal"`
	StepsActual    float64   `db:"steps_actual" json:"steps_actual"`
	StepsPct       float64   `db:"steps_pct" json:"steps_pct"`
	KcalGoal       float64   `db:"kcal_goal" json:"kcal_goal"`
	KcalActual     float64   `db:"kcal_actual" json:"kcal_actual"`
	KcalPct        float64   `db:"kcal_pct" json:"kcal_pct"`
	DurationGoal   float64   `db:"duration_goal" json:"duration_goal"`
	DurationActual float64   `db:"duration_actual" json:"duration_actual"`
	DurationPct    float64   `db:"duration_pct" json:"duration_pct"`
	DistanceGoal   float64   `db:"distance_goal" json:"distance_goal"`
	DistanceActual float64   `db:"distance_actual" json:"distance_actual"`
	DistancePct    float64   `db:"distance_pct" json:"distance_pct"`
	SelectedMetric *Metric   `db:"selected_metric" json:"selected_metric,omitempty"`
	Success        bool      `db:"success" json:"success"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
