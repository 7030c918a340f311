package dto

import "github.com/noah-isme/fitgroup-api/internal/models"

// RunStatsRequest forces aggregation. WeekOf is any date in the target week;
// empty means the week that just ended.
type RunStatsRequest struct {
	WeekOf string `json:"weekOf" validate:"omitempty,datetime=2006-01-02"`
}

// RunAtRequest forces a trigger as if it fired at At (RFC3339). Empty means now.
type RunAtRequest struct {
	At string `json:"at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// PipelineRunResponse lists the batch reports a manual run produced.
type PipelineRunResponse struct {
	Reports []*models.BatchReport `json:"reports"`
}
