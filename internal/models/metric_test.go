package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMetric(t *testing.T) {
	m, err := ParseMetric(" steps ")
	require.NoError(t, err)
	assert.Equal(t, MetricSteps, m)

	_, err = ParseMetric("pushups")
	assert.Error(t, err)
}

func TestMetricTableCoversEveryField(t *testing.T) {
	specs := MetricSpecs()
	require.Len(t, specs, 4)

	stats := &WeeklyStats{TotalSteps: 11000, TotalKcal: 2500.5, TotalActiveMinutes: 300, TotalDistance: 42.2}
	goal := NewBlankGoal("group-1", WeekOf(stats.CreatedAt))
	record := &GoalRecord{}

	for i, spec := range specs {
		assert.Equal(t, 1.0, spec.GrowthRate(goal), spec.Key)
		spec.SetGoal(goal, float64(100*(i+1))+0.6)
		spec.SetGrowthRate(goal, 1.1)
		spec.SetResult(record, MetricResult{Goal: 1, Actual: 2, Percent: 200})
		assert.Equal(t, MetricResult{Goal: 1, Actual: 2, Percent: 200}, spec.Result(record), spec.Key)
	}

	assert.Equal(t, int64(101), goal.StepsGoal)
	assert.InDelta(t, 200.6, goal.KcalGoal, 1e-9)
	assert.Equal(t, int64(301), goal.DurationGoal)
	assert.InDelta(t, 400.6, goal.DistanceGoal, 1e-9)
	assert.Equal(t, 1.1, goal.DurationGrowthRate)

	steps, _ := SpecFor(MetricSteps)
	assert.Equal(t, 11000.0, steps.Actual(stats))
	assert.Equal(t, 12100.0, steps.Round(12099.5))
	kcal, _ := SpecFor(MetricKcal)
	assert.Equal(t, 12099.5, kcal.Round(12099.5))
}

func TestMetricMinimum(t *testing.T) {
	minSteps := int64(5000)
	criteria := &GoalCriteria{MinSteps: &minSteps}

	steps, _ := SpecFor(MetricSteps)
	v, ok := steps.Minimum(criteria)
	assert.True(t, ok)
	assert.Equal(t, 5000.0, v)

	distance, _ := SpecFor(MetricDistance)
	_, ok = distance.Minimum(criteria)
	assert.False(t, ok)
}
