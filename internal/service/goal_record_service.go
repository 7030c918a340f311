package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
	"github.com/noah-isme/fitgroup-api/pkg/export"
	"github.com/noah-isme/fitgroup-api/pkg/jobs"
)

const goalRecordJobType = "goal_record"

type goalRecordJob struct {
	GroupID string
	Week    models.Week
}

// GoalRecordConfig sizes the audit writer pool.
type GoalRecordConfig struct {
	CoreWorkers int
	MaxWorkers  int
	QueueSize   int
	MaxRetries  int
	Location    *time.Location
}

// GoalRecordService writes the permanent weekly audit records on a bounded
// worker pool.
type GoalRecordService struct {
	groups   GroupDirectory
	records  GoalRecordStore
	goals    WeeklyGoalStore
	stats    WeeklyStatsStore
	metrics  *MetricsService
	logger   *zap.Logger
	location *time.Location
	queue    *jobs.Queue
}

// NewGoalRecordService constructs the writer and its queue. Call Start before Submit.
func NewGoalRecordService(groups GroupDirectory, records GoalRecordStore, goals WeeklyGoalStore, stats WeeklyStatsStore, metrics *MetricsService, logger *zap.Logger, cfg GoalRecordConfig) *GoalRecordService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.CoreWorkers <= 0 {
		cfg.CoreWorkers = 3
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 5
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 5000
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = -1
	}
	s := &GoalRecordService{
		groups:   groups,
		records:  records,
		goals:    goals,
		stats:    stats,
		metrics:  metrics,
		logger:   logger,
		location: cfg.Location,
	}
	s.queue = jobs.NewQueue("goal-records", s.handle, jobs.QueueConfig{
		Workers:    cfg.CoreWorkers,
		MaxWorkers: cfg.MaxWorkers,
		BufferSize: cfg.QueueSize,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return s
}

// Start launches the core workers.
func (s *GoalRecordService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Shutdown drains queued records until ctx expires.
func (s *GoalRecordService) Shutdown(ctx context.Context) error {
	return s.queue.Shutdown(ctx)
}

// Pending reports buffered units of work.
func (s *GoalRecordService) Pending() int {
	return s.queue.Stats().Pending
}

// Submit queues the record for a group-week without waiting for it.
func (s *GoalRecordService) Submit(groupID string, week models.Week) error {
	err := s.queue.Enqueue(jobs.Job{
		ID:      groupID + ":" + week.Key(),
		Type:    goalRecordJobType,
		Payload: goalRecordJob{GroupID: groupID, Week: week},
	})
	s.metrics.SetQueueDepth("goal-records", s.Pending())
	return err
}

func (s *GoalRecordService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(goalRecordJob)
	if !ok {
		return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
	}
	_, err := s.Record(ctx, payload.GroupID, payload.Week)
	s.metrics.SetQueueDepth("goal-records", s.Pending())
	return err
}

// Record writes the audit record for a group-week unless it exists or the
// week's goal and stats are not both present.
func (s *GoalRecordService) Record(ctx context.Context, groupID string, week models.Week) (models.RecordResult, error) {
	exists, err := s.records.Exists(ctx, groupID, week)
	if err != nil {
		s.metrics.RecordGoalRecord("error")
		return "", internalError(err, "failed to check goal record")
	}
	if exists {
		s.metrics.RecordGoalRecord(string(models.RecordExists))
		return models.RecordExists, nil
	}

	goal, err := s.goals.Get(ctx, groupID, week)
	if err != nil && !isNoRows(err) {
		s.metrics.RecordGoalRecord("error")
		return "", internalError(err, "failed to load weekly goal")
	}
	stats, err := s.stats.Get(ctx, groupID, week)
	if err != nil && !isNoRows(err) {
		s.metrics.RecordGoalRecord("error")
		return "", internalError(err, "failed to load weekly stats")
	}
	if goal == nil || stats == nil {
		s.logger.Sugar().Infow("goal record not ready", "group_id", groupID, "week_start", week.Key(),
			"has_goal", goal != nil, "has_stats", stats != nil)
		s.metrics.RecordGoalRecord(string(models.RecordNotReady))
		return models.RecordNotReady, nil
	}

	record := BuildGoalRecord(goal, stats)
	record.GroupID = groupID
	record.WeekStart = week.Start

	written, err := s.records.Create(ctx, record)
	if err != nil {
		s.metrics.RecordGoalRecord("error")
		return "", internalError(err, "failed to store goal record")
	}
	if !written {
		s.metrics.RecordGoalRecord(string(models.RecordExists))
		return models.RecordExists, nil
	}
	s.metrics.RecordGoalRecord(string(models.RecordWritten))
	s.logger.Sugar().Infow("goal record written", "group_id", groupID, "week_start", week.Key(), "success", record.Success)
	return models.RecordWritten, nil
}

// BuildGoalRecord computes per-metric achievement. A metric with a zero goal
// scores 0%. The record succeeds when any metric reaches 100%.
func BuildGoalRecord(goal *models.WeeklyGoal, stats *models.WeeklyStats) *models.GoalRecord {
	record := &models.GoalRecord{SelectedMetric: goal.SelectedMetric}
	for _, spec := range models.MetricSpecs() {
		result := models.MetricResult{Goal: spec.Goal(goal), Actual: spec.Actual(stats)}
		if result.Goal != 0 {
			result.Percent = result.Actual / result.Goal * 100
		}
		if result.Percent >= 100 {
			record.Success = true
		}
		spec.SetResult(record, result)
	}
	return record
}

// SubmitAll queues last week's record for every group.
func (s *GoalRecordService) SubmitAll(ctx context.Context, now time.Time) (*models.BatchReport, error) {
	week := models.WeekOf(now.In(s.location)).Previous()
	report := models.NewBatchReport(models.StageRecords, week)
	ids, err := s.groups.ListGroupIDs(ctx, "")
	if err != nil {
		return nil, internalError(err, "failed to list groups")
	}
	for _, id := range ids {
		if err := s.Submit(id, week); err != nil {
			s.logger.Sugar().Errorw("goal record submit failed", "group_id", id, "week_start", week.Key(), "error", err)
			report.Fail(id, err)
			continue
		}
		report.Succeed()
	}
	report.Finish()
	s.metrics.ObserveBatch(report)
	return report, nil
}

// ListRecords returns a group's audit history for a member.
func (s *GoalRecordService) ListRecords(ctx context.Context, groupID, userID string, limit int) ([]models.GoalRecord, error) {
	if _, err := requireGroupMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}
	records, err := s.records.ListByGroup(ctx, groupID, limit)
	if err != nil {
		return nil, internalError(err, "failed to list goal records")
	}
	return records, nil
}

// Export renders a group's audit history as CSV or PDF.
func (s *GoalRecordService) Export(ctx context.Context, groupID string, format export.Format) ([]byte, error) {
	group, err := s.groups.GetGroup(ctx, groupID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, internalError(err, "failed to load group")
	}
	records, err := s.records.ListByGroup(ctx, groupID, 520)
	if err != nil {
		return nil, internalError(err, "failed to list goal records")
	}

	specs := models.MetricSpecs()
	headers := []string{"week_start"}
	for _, spec := range specs {
		headers = append(headers, spec.Key+"_goal", spec.Key+"_actual", spec.Key+"_pct")
	}
	headers = append(headers, "selected_metric", "success")

	rows := make([][]string, 0, len(records))
	for i := range records {
		rec := &records[i]
		row := []string{rec.WeekStart.Format(models.DateLayout)}
		for _, spec := range specs {
			r := spec.Result(rec)
			row = append(row, formatFloat(r.Goal), formatFloat(r.Actual), strconv.FormatFloat(r.Percent, 'f', 1, 64))
		}
		selected := ""
		if rec.SelectedMetric != nil {
			selected = string(*rec.SelectedMetric)
		}
		row = append(row, selected, strconv.FormatBool(rec.Success))
		rows = append(rows, row)
	}

	payload, err := export.Render(export.Table{
		Title:   fmt.Sprintf("Weekly goal records: %s", group.Name),
		Headers: headers,
		Rows:    rows,
	}, format)
	if err != nil {
		return nil, internalError(err, "failed to render goal records")
	}
	return payload, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
