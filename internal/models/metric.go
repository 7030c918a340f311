package models

import (
	"fmt"
	"math"
	"strings"
)

// Metric is one of the four tracked weekly goal dimensions.
type Metric string

const (
	MetricSteps    Metric = "STEPS"
	MetricKcal     Metric = "KCAL"
	MetricDuration Metric = "DURATION"
	MetricDistance Metric = "DISTANCE"
)

// ParseMetric accepts a metric name in any case.
func ParseMetric(raw string) (Metric, error) {
	m := Metric(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := SpecFor(m); !ok {
		return "", fmt.Errorf("unknown metric %q", raw)
	}
	return m, nil
}

// MetricResult is one metric's line in a goal record.
type MetricResult struct {
	Goal    float64 `json:"goal"`
	Actual  float64 `json:"actual"`
	Percent float64 `json:"percent"`
}

// MetricSpec binds a metric to its fields on each entity so callers iterate
// the table instead of switching per metric.
type MetricSpec struct {
	Metric Metric
	// Key is the lower-case name used on the prediction wire and in exports.
	Key string
	// Round applies the metric's target rounding rule.
	Round func(float64) float64

	Actual        func(*WeeklyStats) float64
	Goal          func(*WeeklyGoal) float64
	SetGoal       func(*WeeklyGoal, float64)
	GrowthRate    func(*WeeklyGoal) float64
	SetGrowthRate func(*WeeklyGoal, float64)
	Minimum       func(*GoalCriteria) (float64, bool)
	Result        func(*GoalRecord) MetricResult
	SetResult     func(*GoalRecord, MetricResult)
}

func roundWhole(v float64) float64 { return math.Round(v) }

func keepReal(v float64) float64 { return v }

func optInt(v *int64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return float64(*v), true
}

func optFloat(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

var metricSpecs = []MetricSpec{
	{
		Metric:        MetricSteps,
		Key:           "steps",
		Round:         roundWhole,
		Actual:        func(s *WeeklyStats) float64 { return float64(s.TotalSteps) },
		Goal:          func(g *WeeklyGoal) float64 { return float64(g.StepsGoal) },
		SetGoal:       func(g *WeeklyGoal, v float64) { g.StepsGoal = int64(math.Round(v)) },
		GrowthRate:    func(g *WeeklyGoal) float64 { return g.StepsGrowthRate },
		SetGrowthRate: func(g *WeeklyGoal, v float64) { g.StepsGrowthRate = v },
		Minimum:       func(c *GoalCriteria) (float64, bool) { return optInt(c.MinSteps) },
		Result: func(r *GoalRecord) MetricResult {
			return MetricResult{Goal: r.StepsGoal, Actual: r.StepsActual, Percent: r.StepsPct}
		},
		SetResult: func(r *GoalRecord, m MetricResult) {
			r.StepsGoal, r.StepsActual, r.StepsPct = m.Goal, m.Actual, m.Percent
		},
	},
	{
		Metric:        MetricKcal,
		Key:           "kcal",
		Round:         keepReal,
		Actual:        func(s *WeeklyStats) float64 { return s.TotalKcal },
		Goal:          func(g *WeeklyGoal) float64 { return g.KcalGoal },
		SetGoal:       func(g *WeeklyGoal, v float64) { g.KcalGoal = v },
		GrowthRate:    func(g *WeeklyGoal) float64 { return g.KcalGrowthRate },
		SetGrowthRate: func(g *WeeklyGoal, v float64) { g.KcalGrowthRate = v },
		Minimum:       func(c *GoalCriteria) (float64, bool) { return optFloat(c.MinKcal) },
		Result: func(r *GoalRecord) MetricResult {
			return MetricResult{Goal: r.KcalGoal, Actual: r.KcalActual, Percent: r.KcalPct}
		},
		SetResult: func(r *GoalRecord, m MetricResult) {
			r.KcalGoal, r.KcalActual, r.KcalPct = m.Goal, m.Actual, m.Percent
		},
	},
	{
		Metric:        MetricDuration,
		Key:           "duration",
		Round:         roundWhole,
		Actual:        func(s *WeeklyStats) float64 { return float64(s.TotalActiveMinutes) },
		Goal:          func(g *WeeklyGoal) float64 { return float64(g.DurationGoal) },
		SetGoal:       func(g *WeeklyGoal, v float64) { g.DurationGoal = int64(math.Round(v)) },
		GrowthRate:    func(g *WeeklyGoal) float64 { return g.DurationGrowthRate },
		SetGrowthRate: func(g *WeeklyGoal, v float64) { g.DurationGrowthRate = v },
		Minimum:       func(c *GoalCriteria) (float64, bool) { return optInt(c.MinDuration) },
		Result: func(r *GoalRecord) MetricResult {
			return MetricResult{Goal: r.DurationGoal, Actual: r.DurationActual, Percent: r.DurationPct}
		},
		SetResult: func(r *GoalRecord, m MetricResult) {
			r.DurationGoal, r.DurationActual, r.DurationPct = m.Goal, m.Actual, m.Percent
		},
	},
	{
		Metric:        MetricDistance,
		Key:           "distance",
		Round:         keepReal,
		Actual:        func(s *WeeklyStats) float64 { return s.TotalDistance },
		Goal:          func(g *WeeklyGoal) float64 { return g.DistanceGoal },
		SetGoal:       func(g *WeeklyGoal, v float64) { g.DistanceGoal = v },
		GrowthRate:    func(g *WeeklyGoal) float64 { return g.DistanceGrowthRate },
		SetGrowthRate: func(g *WeeklyGoal, v float64) { g.DistanceGrowthRate = v },
		Minimum:       func(c *GoalCriteria) (float64, bool) { return optFloat(c.MinDistance) },
		Result: func(r *GoalRecord) MetricResult {
			return MetricResult{Goal: r.DistanceGoal, Actual: r.DistanceActual, Percent: r.DistancePct}
		},
		SetResult: func(r *GoalRecord, m MetricResult) {
			r.DistanceGoal, r.DistanceActual, r.DistancePct = m.Goal, m.Actual, m.Percent
		},
	},
}

// MetricSpecs returns the metric table in canonical order.
func MetricSpecs() []MetricSpec {
	out := make([]MetricSpec, len(metricSpecs))
	copy(out, metricSpecs)
	return out
}

// SpecFor looks up a metric's table entry.
func SpecFor(m Metric) (MetricSpec, bool) {
	for _, spec := range metricSpecs {
		if spec.Metric == m {
			return spec, true
		}
	}
	return MetricSpec{}, false
}
