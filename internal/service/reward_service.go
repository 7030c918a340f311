package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

const defaultRewardPoints = 10

// RewardService credits members of achieving groups.
type RewardService struct {
	groups  GroupDirectory
	ledger  PointsLedger
	points  int
	metrics *MetricsService
	logger  *zap.Logger
}

// NewRewardService constructs the distributor. Non-positive points fall back to 10.
func NewRewardService(groups GroupDirectory, ledger PointsLedger, points int, metrics *MetricsService, logger *zap.Logger) *RewardService {
	if points <= 0 {
		points = defaultRewardPoints
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RewardService{groups: groups, ledger: ledger, points: points, metrics: metrics, logger: logger}
}

// RewardKey is the ledger idempotency key for one member's reward for a group-week.
func RewardKey(groupID string, week models.Week, userID string) string {
	return fmt.Sprintf("weekly-goal:%s:%s:%s", groupID, week.Key(), userID)
}

// Distribute credits every current member once for the group-week. Member
// failures are counted and do not stop the rest.
func (s *RewardService) Distribute(ctx context.Context, groupID string, week models.Week) (models.RewardResult, error) {
	var result models.RewardResult
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return result, internalError(err, "failed to load group members")
	}

	reason := fmt.Sprintf("weekly goal achieved (%s)", week.Key())
	for _, member := range members {
		userID := member.UserID
		var credited bool
		err := runIsolated(func() error {
			var err error
			credited, err = s.ledger.Credit(ctx, userID, s.points, reason, RewardKey(groupID, week, userID))
			return err
		})
		switch {
		case err != nil:
			result.Failed++
			s.logger.Sugar().Warnw("reward credit failed", "group_id", groupID, "user_id", userID, "week_start", week.Key(), "error", err)
		case credited:
			result.Credited++
			s.metrics.AddPointsCredited(s.points)
		default:
			result.Skipped++
		}
	}

	s.logger.Sugar().Infow("weekly rewards distributed", "group_id", groupID, "week_start", week.Key(),
		"credited", result.Credited, "skipped", result.Skipped, "failed", result.Failed)
	return result, nil
}
