package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/noah-isme/fitgroup-api/internal/models"
	appErrors "github.com/noah-isme/fitgroup-api/pkg/errors"
)

// GroupDirectory is the membership collaborator.
type GroupDirectory interface {
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	ListGroupIDs(ctx context.Context, groupType models.GroupType) ([]string, error)
	ListMembers(ctx context.Context, groupID string) ([]models.Member, error)
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	GetCriteria(ctx context.Context, groupID string) (*models.GoalCriteria, error)
}

// TelemetrySource returns a member's activity sums for [from, to).
type TelemetrySource interface {
	MemberTotals(ctx context.Context, userID string, from, to time.Time) (models.MemberTotals, error)
}

// PointsLedger credits reward points. It reports false when the idempotency key was already used.
type PointsLedger interface {
	Credit(ctx context.Context, userID string, amount int, reason, key string) (bool, error)
}

// WeeklyStatsStore persists weekly aggregates.
type WeeklyStatsStore interface {
	Upsert(ctx context.Context, stats *models.WeeklyStats) error
	Get(ctx context.Context, groupID string, week models.Week) (*models.WeeklyStats, error)
	ListBefore(ctx context.Context, groupID string, before models.Week, limit int) ([]models.WeeklyStats, error)
}

// WeeklyGoalStore persists weekly goals.
type WeeklyGoalStore interface {
	Get(ctx context.Context, groupID string, week models.Week) (*models.WeeklyGoal, error)
	Create(ctx context.Context, goal *models.WeeklyGoal) error
	Update(ctx context.Context, goal *models.WeeklyGoal) error
}

// GoalRecordStore persists audit records.
type GoalRecordStore interface {
	Exists(ctx context.Context, groupID string, week models.Week) (bool, error)
	Create(ctx context.Context, record *models.GoalRecord) (bool, error)
	ListByGroup(ctx context.Context, groupID string, limit int) ([]models.GoalRecord, error)
}

// runIsolated runs fn and converts a panic into an error so one group cannot abort a batch.
func runIsolated(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func internalError(err error, message string) error {
	var typed *appErrors.Error
	if errors.As(err, &typed) {
		return err
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

// requireGroupMember resolves the group and confirms the caller belongs to it.
func requireGroupMember(ctx context.Context, groups GroupDirectory, groupID, userID string) (*models.Group, error) {
	group, err := groups.GetGroup(ctx, groupID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, internalError(err, "failed to load group")
	}
	ok, err := groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, internalError(err, "failed to check membership")
	}
	if !ok {
		return nil, appErrors.ErrNotGroupMember
	}
	return group, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// populationStd is the standard deviation with divisor n.
func populationStd(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}
