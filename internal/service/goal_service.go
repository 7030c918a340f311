package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
)

const (
	goalHistoryWeeks         = 3
	defaultGenerationTimeout = 30 * time.Second
)

// GrowthPredictor returns a predicted multiplicative growth factor for one metric.
type GrowthPredictor interface {
	PredictGrowthRate(ctx context.Context, metric models.Metric, input PredictionInput) (float64, error)
}

// RegenerationLimiter enforces the per-group regeneration cooldown.
type RegenerationLimiter interface {
	Acquire(ctx context.Context, groupID string, cooldown time.Duration) (bool, time.Duration, error)
	Release(ctx context.Context, groupID string) error
}

// GoalConfig tunes goal generation.
type GoalConfig struct {
	Location             *time.Location
	CacheTTL             time.Duration
	RegenerationCooldown time.Duration
	// GenerationTimeout bounds one shared generation run. It is detached
	// from the callers' cancellation.
	GenerationTimeout time.Duration
}

// GoalService predicts weekly goals and applies group selections.
type GoalService struct {
	groups    GroupDirectory
	stats     WeeklyStatsStore
	goals     WeeklyGoalStore
	predictor GrowthPredictor
	cache     *CacheService
	limiter   RegenerationLimiter
	metrics   *MetricsService
	logger    *zap.Logger
	config    GoalConfig

	flight singleflight.Group
}

// NewGoalService constructs the goal predictor.
func NewGoalService(groups GroupDirectory, stats WeeklyStatsStore, goals WeeklyGoalStore, predictor GrowthPredictor, cache *CacheService, limiter RegenerationLimiter, metrics *MetricsService, logger *zap.Logger, config GoalConfig) *GoalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.RegenerationCooldown <= 0 {
		config.RegenerationCooldown = time.Hour
	}
	if config.GenerationTimeout <= 0 {
		config.GenerationTimeout = defaultGenerationTimeout
	}
	return &GoalService{
		groups:    groups,
		stats:     stats,
		goals:     goals,
		predictor: predictor,
		cache:     cache,
		limiter:   limiter,
		metrics:   metrics,
		logger:    logger,
		config:    config,
	}
}

func (s *GoalService) weekOf(ref time.Time) models.Week {
	return models.WeekOf(ref.In(s.config.Location))
}

// GenerateGoal predicts the goal for the week containing ref from up to three
// prior weeks of stats. Concurrent calls for the same group-week share one run.
func (s *GoalService) GenerateGoal(ctx context.Context, groupID string, ref time.Time) (*models.WeeklyGoal, error) {
	week := s.weekOf(ref)
	ch := s.flight.DoChan(groupID+":"+week.Key(), func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.GenerationTimeout)
		defer cancel()
		return s.generate(runCtx, groupID, week)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		goal := *res.Val.(*models.WeeklyGoal)
		return &goal, nil
	}
}

func (s *GoalService) generate(ctx context.Context, groupID string, week models.Week) (*models.WeeklyGoal, error) {
	if _, err := s.groups.GetGroup(ctx, groupID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, internalError(err, "failed to load group")
	}

	history, err := s.stats.ListBefore(ctx, groupID, week, goalHistoryWeeks)
	if err != nil {
		return nil, internalError(err, "failed to load stats history")
	}
	if len(history) == 0 {
		return nil, appErrors.ErrInsufficientHistory
	}

	specs := models.MetricSpecs()
	means := make([]float64, len(specs))
	stds := make([]float64, len(specs))
	var durationMean float64
	for i, spec := range specs {
		values := make([]float64, len(history))
		for j := range history {
			values[j] = spec.Actual(&history[j])
		}
		means[i] = mean(values)
		stds[i] = populationStd(values)
		if spec.Metric == models.MetricDuration {
			durationMean = means[i]
		}
	}

	newest := history[0]
	rates := make([]float64, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	for i, spec := range specs {
		i, spec := i, spec
		input := PredictionInput{
			Metric:       spec.Key,
			MemberCount:  newest.MemberCount,
			AvgAge:       newest.AvgAge,
			AvgBMI:       newest.AvgBMI,
			Mean:         means[i],
			Std:          stds[i],
			DurationMean: durationMean,
			StepVariance: newest.StepVariance,
		}
		g.Go(func() error {
			rate, err := s.predictor.PredictGrowthRate(gctx, spec.Metric, input)
			if err != nil {
				return err
			}
			rates[i] = rate
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			s.logger.Sugar().Warnw("goal generation interrupted", "group_id", groupID, "week_start", week.Key(), "error", ctxErr)
			return nil, ctxErr
		}
		if !errors.Is(err, appErrors.ErrPredictionUnavailable) {
			err = appErrors.Wrap(err, appErrors.ErrPredictionUnavailable.Code, appErrors.ErrPredictionUnavailable.Status, appErrors.ErrPredictionUnavailable.Message)
		}
		s.logger.Sugar().Warnw("goal generation aborted", "group_id", groupID, "week_start", week.Key(), "error", err)
		return nil, err
	}

	goal, create, err := s.loadOrBlank(ctx, groupID, week)
	if err != nil {
		return nil, err
	}
	for i, spec := range specs {
		spec.SetGrowthRate(goal, rates[i])
		spec.SetGoal(goal, spec.Round(means[i]*rates[i]))
	}
	goal.SelectedMetric = nil

	if err := s.save(ctx, goal, create); err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("weekly goal generated",
		"group_id", groupID, "week_start", week.Key(), "history_weeks", len(history),
		"steps_goal", goal.StepsGoal, "duration_goal", goal.DurationGoal)
	return goal, nil
}

// GenerateAll predicts the week containing ref for every health group.
// Groups without history are skipped.
func (s *GoalService) GenerateAll(ctx context.Context, ref time.Time) (*models.BatchReport, error) {
	week := s.weekOf(ref)
	report := models.NewBatchReport(models.StageGoals, week)
	ids, err := s.groups.ListGroupIDs(ctx, models.GroupTypeHealth)
	if err != nil {
		return nil, internalError(err, "failed to list groups")
	}
	for _, id := range ids {
		groupID := id
		err := runIsolated(func() error {
			_, err := s.GenerateGoal(ctx, groupID, week.Start)
			return err
		})
		switch {
		case err == nil:
			report.Succeed()
		case errors.Is(err, appErrors.ErrInsufficientHistory):
			report.Skip()
		default:
			s.logger.Sugar().Errorw("goal generation failed", "group_id", groupID, "week_start", week.Key(), "error", err)
			report.Fail(groupID, err)
		}
	}
	report.Finish()
	s.metrics.ObserveBatch(report)
	return report, nil
}

// GetCurrentGoal returns the goal for the week containing ref, generating it
// on first access.
func (s *GoalService) GetCurrentGoal(ctx context.Context, groupID, userID string, ref time.Time) (*models.WeeklyGoal, error) {
	if _, err := requireGroupMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}
	week := s.weekOf(ref)
	key := goalCacheKey(groupID, week)

	var cached models.WeeklyGoal
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, nil
	}

	goal, err := s.goals.Get(ctx, groupID, week)
	if err != nil {
		if !isNoRows(err) {
			return nil, internalError(err, "failed to load weekly goal")
		}
		goal, err = s.GenerateGoal(ctx, groupID, ref)
		if err != nil {
			return nil, err
		}
	}
	_ = s.cache.Set(ctx, key, goal, s.config.CacheTTL)
	return goal, nil
}

// RegenerateGoal re-runs prediction on a member's request, at most once per
// cooldown window per group.
func (s *GoalService) RegenerateGoal(ctx context.Context, groupID, userID string, ref time.Time) (*models.WeeklyGoal, error) {
	if _, err := requireGroupMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}
	if s.limiter != nil {
		ok, remaining, err := s.limiter.Acquire(ctx, groupID, s.config.RegenerationCooldown)
		if err != nil {
			return nil, internalError(err, "failed to check regeneration cooldown")
		}
		if !ok {
			return nil, appErrors.RateLimited(remaining)
		}
	}

	goal, err := s.GenerateGoal(ctx, groupID, ref)
	if err != nil {
		if s.limiter != nil {
			if releaseErr := s.limiter.Release(context.WithoutCancel(ctx), groupID); releaseErr != nil {
				s.logger.Sugar().Warnw("failed to release regeneration cooldown", "group_id", groupID, "error", releaseErr)
			}
		}
		return nil, err
	}
	s.logger.Sugar().Infow("weekly goal regenerated", "group_id", groupID, "user_id", userID, "week_start", s.weekOf(ref).Key())
	return goal, nil
}

// SelectGoal commits the group to one metric with a chosen target. The target
// is raised to the group's configured minimum when below it.
func (s *GoalService) SelectGoal(ctx context.Context, groupID, userID string, metric models.Metric, value float64, ref time.Time) (*models.WeeklyGoal, error) {
	spec, ok := models.SpecFor(metric)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown metric")
	}
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "goal value must be a non-negative number")
	}
	if _, err := requireGroupMember(ctx, s.groups, groupID, userID); err != nil {
		return nil, err
	}

	criteria, err := s.groups.GetCriteria(ctx, groupID)
	if err != nil {
		return nil, internalError(err, "failed to load goal criteria")
	}
	if criteria != nil {
		if minimum, ok := spec.Minimum(criteria); ok && value < minimum {
			value = minimum
		}
	}

	week := s.weekOf(ref)
	goal, create, err := s.loadOrBlank(ctx, groupID, week)
	if err != nil {
		return nil, err
	}
	spec.SetGoal(goal, spec.Round(value))
	selected := metric
	goal.SelectedMetric = &selected

	if err := s.save(ctx, goal, create); err != nil {
		return nil, err
	}
	s.logger.Sugar().Infow("weekly goal selected", "group_id", groupID, "user_id", userID, "week_start", week.Key(), "metric", metric, "value", spec.Goal(goal))
	return goal, nil
}

func (s *GoalService) loadOrBlank(ctx context.Context, groupID string, week models.Week) (*models.WeeklyGoal, bool, error) {
	goal, err := s.goals.Get(ctx, groupID, week)
	if err == nil {
		return goal, false, nil
	}
	if !isNoRows(err) {
		return nil, false, internalError(err, "failed to load weekly goal")
	}
	return models.NewBlankGoal(groupID, week), true, nil
}

func (s *GoalService) save(ctx context.Context, goal *models.WeeklyGoal, create bool) error {
	var err error
	if create {
		err = s.goals.Create(ctx, goal)
	} else {
		err = s.goals.Update(ctx, goal)
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store weekly goal")
	}
	_ = s.cache.Invalidate(ctx, goalCachePattern(goal.GroupID))
	return nil
}
