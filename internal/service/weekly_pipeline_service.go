package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fitgroup-api/internal/models"
	"github.com/noah-isme/fitgroup-api/pkg/logger"
	"github.com/noah-isme/fitgroup-api/pkg/scheduler"
)

// StatsAggregator aggregates every group for a week.
type StatsAggregator interface {
	AggregateAll(ctx context.Context, week models.Week) (*models.BatchReport, error)
}

// GoalGenerator predicts goals fleet-wide.
type GoalGenerator interface {
	GenerateAll(ctx context.Context, ref time.Time) (*models.BatchReport, error)
}

// AchievementChecker evaluates and rewards last week.
type AchievementChecker interface {
	CheckAll(ctx context.Context, now time.Time) (*models.BatchReport, error)
}

// RecordSubmitter fans last week's audit records out to the writer pool.
type RecordSubmitter interface {
	SubmitAll(ctx context.Context, now time.Time) (*models.BatchReport, error)
}

// PipelineSchedule holds the cron specs and options for the weekly triggers.
type PipelineSchedule struct {
	StatsCron         string
	AchievementCron   string
	RecordsCron       string
	AutoGenerateGoals bool
	Location          *time.Location
}

// WeeklyPipelineService binds the pipeline stages to scheduled triggers and
// exposes them for manual runs.
type WeeklyPipelineService struct {
	aggregator   StatsAggregator
	generator    GoalGenerator
	achievements AchievementChecker
	records      RecordSubmitter
	logger       *zap.Logger
	schedule     PipelineSchedule

	mu   sync.Mutex
	last map[models.PipelineStage]*models.BatchReport
}

// NewWeeklyPipelineService constructs the pipeline coordinator.
func NewWeeklyPipelineService(aggregator StatsAggregator, generator GoalGenerator, achievements AchievementChecker, records RecordSubmitter, log *zap.Logger, schedule PipelineSchedule) *WeeklyPipelineService {
	if log == nil {
		log = zap.NewNop()
	}
	if schedule.Location == nil {
		schedule.Location = time.UTC
	}
	if schedule.StatsCron == "" {
		schedule.StatsCron = "5 0 * * 1"
	}
	if schedule.AchievementCron == "" {
		schedule.AchievementCron = "30 0 * * 1"
	}
	if schedule.RecordsCron == "" {
		schedule.RecordsCron = "0 1 * * 1"
	}
	return &WeeklyPipelineService{
		aggregator:   aggregator,
		generator:    generator,
		achievements: achievements,
		records:      records,
		logger:       log,
		schedule:     schedule,
		last:         make(map[models.PipelineStage]*models.BatchReport),
	}
}

// Register adds the three weekly triggers to s.
func (p *WeeklyPipelineService) Register(s *scheduler.Scheduler) error {
	triggers := []struct {
		name string
		spec string
		task scheduler.Task
	}{
		{name: string(models.StageStats), spec: p.schedule.StatsCron, task: func(ctx context.Context, at time.Time) { _, _ = p.RunStats(ctx, at) }},
		{name: string(models.StageAchievement), spec: p.schedule.AchievementCron, task: func(ctx context.Context, at time.Time) { _, _ = p.RunAchievements(ctx, at) }},
		{name: string(models.StageRecords), spec: p.schedule.RecordsCron, task: func(ctx context.Context, at time.Time) { _, _ = p.RunRecords(ctx, at) }},
	}
	for _, t := range triggers {
		if err := s.Register(t.name, t.spec, t.task); err != nil {
			return err
		}
	}
	return nil
}

// RunStats aggregates the week before at and, when enabled, predicts goals
// for the week containing at.
func (p *WeeklyPipelineService) RunStats(ctx context.Context, at time.Time) ([]*models.BatchReport, error) {
	week := models.WeekOf(at.In(p.schedule.Location)).Previous()
	report, err := p.aggregator.AggregateAll(ctx, week)
	if err != nil {
		p.logFailure(models.StageStats, err)
		return nil, err
	}
	p.finish(report)
	reports := []*models.BatchReport{report}

	if p.schedule.AutoGenerateGoals && p.generator != nil {
		goals, err := p.generator.GenerateAll(ctx, at)
		if err != nil {
			p.logFailure(models.StageGoals, err)
			return reports, err
		}
		p.finish(goals)
		reports = append(reports, goals)
	}
	return reports, nil
}

// RunAchievements checks and rewards the week before at.
func (p *WeeklyPipelineService) RunAchievements(ctx context.Context, at time.Time) (*models.BatchReport, error) {
	report, err := p.achievements.CheckAll(ctx, at)
	if err != nil {
		p.logFailure(models.StageAchievement, err)
		return nil, err
	}
	p.finish(report)
	return report, nil
}

// RunRecords queues audit records for the week before at.
func (p *WeeklyPipelineService) RunRecords(ctx context.Context, at time.Time) (*models.BatchReport, error) {
	report, err := p.records.SubmitAll(ctx, at)
	if err != nil {
		p.logFailure(models.StageRecords, err)
		return nil, err
	}
	p.finish(report)
	return report, nil
}

// LastRuns returns the most recent report of each stage, ordered by start time.
func (p *WeeklyPipelineService) LastRuns() []*models.BatchReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*models.BatchReport, 0, len(p.last))
	for _, report := range p.last {
		out = append(out, report)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

func (p *WeeklyPipelineService) finish(report *models.BatchReport) {
	p.mu.Lock()
	p.last[report.Stage] = report
	p.mu.Unlock()

	logger.Stage(p.logger, string(report.Stage)).Sugar().Infow("pipeline run finished",
		"week_start", report.WeekStart,
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
		"skipped", report.Skipped,
		"achieved", report.Achieved,
		"members_credited", report.MembersCredited,
		"duration", report.Duration(),
	)
}

func (p *WeeklyPipelineService) logFailure(stage models.PipelineStage, err error) {
	logger.Stage(p.logger, string(stage)).Sugar().Errorw("pipeline run aborted", "error", err)
}
