package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

// Rewarder pays out an achieving group.
type Rewarder interface {
	Distribute(ctx context.Context, groupID string, week models.Week) (models.RewardResult, error)
}

// AchievementService decides whether last week's selected goal was met.
type AchievementService struct {
	groups   GroupDirectory
	goals    WeeklyGoalStore
	stats    WeeklyStatsStore
	rewarder Rewarder
	metrics  *MetricsService
	logger   *zap.Logger
	location *time.Location
}

// NewAchievementService constructs the evaluator.
func NewAchievementService(groups GroupDirectory, goals WeeklyGoalStore, stats WeeklyStatsStore, rewarder Rewarder, metrics *MetricsService, logger *zap.Logger, location *time.Location) *AchievementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if location == nil {
		location = time.UTC
	}
	return &AchievementService{groups: groups, goals: goals, stats: stats, rewarder: rewarder, metrics: metrics, logger: logger, location: location}
}

// Evaluate classifies one group-week. Missing goal or stats are outcomes, not errors.
func (s *AchievementService) Evaluate(ctx context.Context, groupID string, week models.Week) (*models.AchievementOutcome, error) {
	outcome := &models.AchievementOutcome{GroupID: groupID, WeekStart: week.Key()}

	goal, err := s.goals.Get(ctx, groupID, week)
	if err != nil && !isNoRows(err) {
		return nil, internalError(err, "failed to load weekly goal")
	}
	if goal == nil || goal.SelectedMetric == nil {
		outcome.Status = models.AchievementNoGoalSet
		return outcome, nil
	}
	spec, ok := models.SpecFor(*goal.SelectedMetric)
	if !ok {
		outcome.Status = models.AchievementNoGoalSet
		return outcome, nil
	}
	outcome.Metric = goal.SelectedMetric

	stats, err := s.stats.Get(ctx, groupID, week)
	if err != nil && !isNoRows(err) {
		return nil, internalError(err, "failed to load weekly stats")
	}
	if stats == nil {
		outcome.Status = models.AchievementNoStatsData
		return outcome, nil
	}

	outcome.Goal = spec.Goal(goal)
	outcome.Actual = spec.Actual(stats)
	if outcome.Actual >= outcome.Goal {
		outcome.Status = models.AchievementAchieved
	} else {
		outcome.Status = models.AchievementNotAchieved
	}
	return outcome, nil
}

// CheckAll evaluates the week before now for every group and rewards the
// achieving ones.
func (s *AchievementService) CheckAll(ctx context.Context, now time.Time) (*models.BatchReport, error) {
	week := models.WeekOf(now.In(s.location)).Previous()
	report := models.NewBatchReport(models.StageAchievement, week)

	ids, err := s.groups.ListGroupIDs(ctx, "")
	if err != nil {
		return nil, internalError(err, "failed to list groups")
	}

	for _, id := range ids {
		groupID := id
		var outcome *models.AchievementOutcome
		var reward models.RewardResult
		err := runIsolated(func() error {
			var err error
			outcome, err = s.Evaluate(ctx, groupID, week)
			if err != nil || outcome.Status != models.AchievementAchieved {
				return err
			}
			reward, err = s.rewarder.Distribute(ctx, groupID, week)
			return err
		})
		if err != nil {
			s.logger.Sugar().Errorw("achievement check failed", "group_id", groupID, "week_start", week.Key(), "error", err)
			report.Fail(groupID, err)
			continue
		}

		switch outcome.Status {
		case models.AchievementAchieved:
			report.Succeed()
			report.Achieve(reward.Credited)
			s.logger.Sugar().Infow("weekly goal achieved", "group_id", groupID, "week_start", week.Key(),
				"metric", *outcome.Metric, "goal", outcome.Goal, "actual", outcome.Actual, "members_credited", reward.Credited)
		case models.AchievementNotAchieved:
			report.Succeed()
		default:
			report.Skip()
		}
	}

	report.Finish()
	s.metrics.ObserveBatch(report)
	return report, nil
}
