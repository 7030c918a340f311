package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
)

// StatsAggregatorService rolls member telemetry up into weekly group statistics.
type StatsAggregatorService struct {
	groups    GroupDirectory
	telemetry TelemetrySource
	stats     WeeklyStatsStore
	metrics   *MetricsService
	logger    *zap.Logger
	now       func() time.Time
}

// NewStatsAggregatorService constructs the aggregator.
func NewStatsAggregatorService(groups GroupDirectory, telemetry TelemetrySource, stats WeeklyStatsStore, metrics *MetricsService, logger *zap.Logger) *StatsAggregatorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsAggregatorService{groups: groups, telemetry: telemetry, stats: stats, metrics: metrics, logger: logger, now: time.Now}
}

// AggregateGroup computes and stores one group's stats for week.
func (s *StatsAggregatorService) AggregateGroup(ctx context.Context, groupID string, week models.Week) (*models.WeeklyStats, error) {
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, internalError(err, "failed to load group members")
	}

	stats := &models.WeeklyStats{
		GroupID:     groupID,
		WeekStart:   week.Start,
		WeekEnd:     week.End,
		MemberCount: len(members),
		CreatedAt:   s.now().UTC(),
	}

	var ageSum, bmiSum float64
	var ageCount, bmiCount int
	stepTotals := make([]float64, len(members))
	for i, member := range members {
		if age, ok := member.KoreanAge(week.End); ok {
			ageSum += float64(age)
			ageCount++
		}
		if bmi, ok := member.BMI(); ok {
			bmiSum += bmi
			bmiCount++
		}

		totals, err := s.telemetry.MemberTotals(ctx, member.UserID, week.Start, week.Until())
		if err != nil {
			s.logger.Sugar().Warnw("member telemetry unavailable, counting as zero",
				"group_id", groupID, "user_id", member.UserID, "week_start", week.Key(), "error", err)
			continue
		}
		stepTotals[i] = float64(totals.Steps)
		stats.TotalSteps += totals.Steps
		stats.TotalKcal += totals.Kcal
		stats.TotalActiveMinutes += totals.ActiveMinutes
		stats.TotalDistance += totals.Distance
	}

	if ageCount > 0 {
		stats.AvgAge = ageSum / float64(ageCount)
	}
	if bmiCount > 0 {
		stats.AvgBMI = bmiSum / float64(bmiCount)
	}
	stats.StepVariance = populationStd(stepTotals)

	if err := s.stats.Upsert(ctx, stats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store weekly stats")
	}
	return stats, nil
}

// AggregateAll aggregates every health group for week. A failing group is
// recorded in the report and the run moves on.
func (s *StatsAggregatorService) AggregateAll(ctx context.Context, week models.Week) (*models.BatchReport, error) {
	report := models.NewBatchReport(models.StageStats, week)
	ids, err := s.groups.ListGroupIDs(ctx, models.GroupTypeHealth)
	if err != nil {
		return nil, internalError(err, "failed to list groups")
	}

	for _, id := range ids {
		groupID := id
		err := runIsolated(func() error {
			_, err := s.AggregateGroup(ctx, groupID, week)
			return err
		})
		if err != nil {
			s.logger.Sugar().Errorw("weekly stats aggregation failed", "group_id", groupID, "week_start", week.Key(), "error", err)
			report.Fail(groupID, err)
			continue
		}
		report.Succeed()
	}

	report.Finish()
	s.metrics.ObserveBatch(report)
	return report, nil
}
