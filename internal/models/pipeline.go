package models

import (
	"sync"
	"time"
)

// PipelineStage names a weekly batch step.
type PipelineStage string

const (
	StageStats       PipelineStage = "weekly_stats"
	StageGoals       PipelineStage = "goal_generation"
	StageAchievement PipelineStage = "achievement_check"
	StageRecords     PipelineStage = "goal_records"
)

// EntityFailure identifies one group that failed inside a batch.
type EntityFailure struct {
	GroupID string `json:"group_id"`
	Error   string `json:"error"`
}

// BatchReport summarises a fleet-wide run.
type BatchReport struct {
	Stage           PipelineStage   `json:"stage"`
	WeekStart       string          `json:"week_start"`
	Total           int             `json:"total"`
	Succeeded       int             `json:"succeeded"`
	Failed          int             `json:"failed"`
	Skipped         int             `json:"skipped"`
	Achieved        int             `json:"achieved,omitempty"`
	MembersCredited int             `json:"members_credited,omitempty"`
	Failures        []EntityFailure `json:"failures,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`

	mu sync.Mutex
}

// NewBatchReport starts a report for stage and week.
func NewBatchReport(stage PipelineStage, week Week) *BatchReport {
	return &BatchReport{Stage: stage, WeekStart: week.Key(), StartedAt: time.Now().UTC()}
}

// Succeed counts a processed group.
func (r *BatchReport) Succeed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Total++
	r.Succeeded++
}

// Skip counts a group that had nothing to do.
func (r *BatchReport) Skip() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Total++
	r.Skipped++
}

// Fail counts a group whose processing errored.
func (r *BatchReport) Fail(groupID string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Total++
	r.Failed++
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	r.Failures = append(r.Failures, EntityFailure{GroupID: groupID, Error: msg})
}

// Achieve counts an achieving group and the members it credited.
func (r *BatchReport) Achieve(membersCredited int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Achieved++
	r.MembersCredited += membersCredited
}

// Finish stamps the end time.
func (r *BatchReport) Finish() *BatchReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now().UTC()
	return r
}

// Duration is the wall time of the run.
func (r *BatchReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// AchievementStatus classifies a group-week after evaluation.
type AchievementStatus string

const (
	AchievementAchieved    AchievementStatus = "ACHIEVED"
	AchievementNotAchieved AchievementStatus = "NOT_ACHIEVED"
	AchievementNoGoalSet   AchievementStatus = "NO_GOAL_SET"
	AchievementNoStatsData AchievementStatus = "NO_STATS_DATA"
)

// AchievementOutcome is the evaluator's verdict for one group-week.
type AchievementOutcome struct {
	GroupID   string            `json:"group_id"`
	WeekStart string            `json:"week_start"`
	Status    AchievementStatus `json:"status"`
	Metric    *Metric           `json:"metric,omitempty"`
	Goal      float64           `json:"goal"`
	Actual    float64           `json:"actual"`
}

// RewardResult counts per-member crediting outcomes.
type RewardResult struct {
	Credited int `json:"credited"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// RecordResult reports what the audit writer did for a group-week.
type RecordResult string

const (
	RecordWritten  RecordResult = "written"
	RecordExists   RecordResult = "exists"
	RecordNotReady RecordResult = "not_ready"
)
