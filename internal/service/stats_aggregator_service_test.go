package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fitgroup-api/internal/models"
)

func testWeek() models.Week {
	return models.WeekOf(time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC))
}

func ptrTime(t time.Time) *time.Time { return &t }
func ptrFloat(v float64) *float64   { return &v }

func TestAggregateGroupComputesStats(t *testing.T) {
	groups := newMockGroupDirectory()
	groups.addGroup("g1")
	groups.members["g1"] = []models.Member{
		{UserID: "u1", BirthDate: ptrTime(time.Date(1990, 3, 1, 0, 0, 0, 0, time.UTC)), HeightCm: ptrFloat(180), WeightKg: ptrFloat(81)},
		{UserID: "u2", BirthDate: ptrTime(time.Date(2000, 11, 1, 0, 0, 0, 0, time.UTC)), WeightKg: ptrFloat(70)},
		{UserID: "u3", HeightCm: ptrFloat(160), WeightKg: ptrFloat(64)},
	}
	telemetry := &mockTelemetry{
		totals: map[string]models.MemberTotals{
			"u1": {Steps: 10000, Kcal: 100.5, ActiveMinutes: 60, Distance: 5.5},
			"u2": {Steps: 20000, Kcal: 200, ActiveMinutes: 120, Distance: 10},
		},
		errs: map[string]error{"u3": errors.New("telemetry timeout")},
	}
	store := newMockStatsStore()
	svc := NewStatsAggregatorService(groups, telemetry, store, nil, nil)

	week := testWeek()
	stats, err := svc.AggregateGroup(context.Background(), "g1", week)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.MemberCount)
	assert.InDelta(t, 30.0, stats.AvgAge, 1e-9, "korean age averaged over members with a birth date")
	assert.InDelta(t, 25.0, stats.AvgBMI, 1e-9, "bmi averaged over members with height and weight")
	assert.Equal(t, int64(30000), stats.TotalSteps)
	assert.InDelta(t, 300.5, stats.TotalKcal, 1e-9)
	assert.Equal(t, int64(180), stats.TotalActiveMinutes)
	assert.InDelta(t, 15.5, stats.TotalDistance, 1e-9)
	assert.InDelta(t, math.Sqrt(2e8/3), stats.StepVariance, 1e-6, "failed member counts as zero steps")
	assert.Equal(t, []string{"u1", "u2", "u3"}, telemetry.calls)

	stored, err := store.Get(context.Background(), "g1", week)
	require.NoError(t, err)
	assert.Equal(t, stats.TotalSteps, stored.TotalSteps)
}

func TestAggregateGroupWithoutProfilesDefaultsToZero(t *testing.T) {
	groups := newMockGroupDirectory()
	groups.addGroup("g1", "u1")
	store := newMockStatsStore()
	svc := NewStatsAggregatorService(groups, &mockTelemetry{}, store, nil, nil)

	stats, err := svc.AggregateGroup(context.Background(), "g1", testWeek())
	require.NoError(t, err)
	assert.Zero(t, stats.AvgAge)
	assert.Zero(t, stats.AvgBMI)
	assert.Zero(t, stats.StepVariance)
}

func TestAggregateGroupReplacesPriorRun(t *testing.T) {
	groups := newMockGroupDirectory()
	groups.addGroup("g1", "u1")
	telemetry := &mockTelemetry{totals: map[string]models.MemberTotals{"u1": {Steps: 100}}}
	store := newMockStatsStore()
	svc := NewStatsAggregatorService(groups, telemetry, store, nil, nil)
	week := testWeek()

	_, err := svc.AggregateGroup(context.Background(), "g1", week)
	require.NoError(t, err)
	telemetry.totals["u1"] = models.MemberTotals{Steps: 250}
	_, err = svc.AggregateGroup(context.Background(), "g1", week)
	require.NoError(t, err)

	assert.Len(t, store.rows, 1)
	stored, err := store.Get(context.Background(), "g1", week)
	require.NoError(t, err)
	assert.Equal(t, int64(250), stored.TotalSteps)
}

func TestAggregateAllIsolatesFailures(t *testing.T) {
	groups := newMockGroupDirectory()
	for i := 1; i <= 10; i++ {
		groups.addGroup(fmt.Sprintf("g%02d", i), fmt.Sprintf("u%02d", i))
	}
	groups.memberErr["g04"] = errors.New("membership service unavailable")
	groups.panicOn["g07"] = true

	store := newMockStatsStore()
	metrics := NewMetricsService()
	svc := NewStatsAggregatorService(groups, &mockTelemetry{}, store, metrics, nil)

	report, err := svc.AggregateAll(context.Background(), testWeek())
	require.NoError(t, err)
	assert.Equal(t, 10, report.Total)
	assert.Equal(t, 8, report.Succeeded)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, "g04", report.Failures[0].GroupID)
	assert.Equal(t, "g07", report.Failures[1].GroupID)
	assert.Contains(t, report.Failures[1].Error, "panic")
	assert.Len(t, store.rows, 8)
	assert.False(t, report.FinishedAt.IsZero())
}

func TestAggregateAllSingleFailureLeavesNineGroups(t *testing.T) {
	groups := newMockGroupDirectory()
	for i := 1; i <= 10; i++ {
		groups.addGroup(fmt.Sprintf("g%02d", i), "u")
	}
	groups.memberErr["g04"] = errors.New("boom")
	store := newMockStatsStore()
	svc := NewStatsAggregatorService(groups, &mockTelemetry{}, store, nil, nil)

	report, err := svc.AggregateAll(context.Background(), testWeek())
	require.NoError(t, err)
	assert.Equal(t, 9, report.Succeeded)
	assert.Equal(t, 1, report.Failed)
}

func TestAggregateAllListError(t *testing.T) {
	groups := newMockGroupDirectory()
	groups.listErr = errors.New("db down")
	svc := NewStatsAggregatorService(groups, &mockTelemetry{}, newMockStatsStore(), nil, nil)

	_, err := svc.AggregateAll(context.Background(), testWeek())
	require.Error(t, err)
}
