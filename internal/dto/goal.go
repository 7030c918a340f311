package dto

import "github.com/noah-isme/fitgroup-api/internal/models"

// SelectGoalRequest captures PUT /groups/:id/goals/current/selection payload.
type SelectGoalRequest struct {
	Metric string  `json:"metric" validate:"required,metric"`
	Value  float64 `json:"value" validate:"gte=0"`
}

// GoalRecordListQuery bounds the audit history listing.
type GoalRecordListQuery struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=520"`
}

// GoalRecordExportQuery selects the export encoding.
type GoalRecordExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf CSV PDF"`
}

// CurrentGoalResponse wraps the week's goal with its date range.
type CurrentGoalResponse struct {
	Week models.Week        `json:"week"`
	Goal *models.WeeklyGoal `json:"goal"`
}
