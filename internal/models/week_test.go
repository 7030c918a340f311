package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekOfResolvesMonday(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "monday midnight", at: time.Date(2024, 6, 3, 0, 0, 0, 0, loc), want: "2024-06-03"},
		{name: "wednesday", at: time.Date(2024, 6, 5, 15, 30, 0, 0, loc), want: "2024-06-03"},
		{name: "sunday late", at: time.Date(2024, 6, 9, 23, 59, 59, 0, loc), want: "2024-06-03"},
		{name: "across month", at: time.Date(2024, 7, 2, 8, 0, 0, 0, loc), want: "2024-07-01"},
		{name: "across year", at: time.Date(2025, 1, 1, 8, 0, 0, 0, loc), want: "2024-12-30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			week := WeekOf(tt.at)
			assert.Equal(t, tt.want, week.Key())
			assert.Equal(t, time.Monday, week.Start.Weekday())
			assert.Equal(t, time.Sunday, week.End.Weekday())
			assert.True(t, week.Contains(tt.at))
		})
	}
}

func TestWeekNavigation(t *testing.T) {
	week := WeekOf(time.Date(2024, 6, 5, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, "2024-05-27", week.Previous().Key())
	assert.Equal(t, "2024-06-10", week.Next().Key())
	assert.Equal(t, "2024-06-09", week.EndKey())
	assert.False(t, week.Contains(week.Until()))
	assert.True(t, week.Contains(week.End))
}

func TestParseWeek(t *testing.T) {
	week, err := ParseWeek("2024-06-07", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-03", week.Key())

	_, err = ParseWeek("06/07/2024", time.UTC)
	assert.Error(t, err)
}
