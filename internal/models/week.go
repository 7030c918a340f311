package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// Week spans Monday 00:00 through the last instant of Sunday.
type Week struct {
	Start time.Time `json:"week_start"`
	End   time.Time `json:"week_end"`
}

// WeekOf returns the week containing t, in t's location.
func WeekOf(t time.Time) Week {
	offset := (int(t.Weekday()) + 6) % 7
	day := t.AddDate(0, 0, -offset)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, t.Location())
	return weekFrom(start)
}

// ParseWeek resolves a YYYY-MM-DD date (any day of the week) in loc.
func ParseWeek(raw string, loc *time.Location) (Week, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return Week{}, fmt.Errorf("parse week %q: %w", raw, err)
	}
	return WeekOf(day), nil
}

func weekFrom(start time.Time) Week {
	return Week{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Nanosecond)}
}

// Previous returns the week before w.
func (w Week) Previous() Week {
	return weekFrom(w.Start.AddDate(0, 0, -7))
}

// Next returns the week after w.
func (w Week) Next() Week {
	return weekFrom(w.Start.AddDate(0, 0, 7))
}

// Until is the exclusive upper bound of the week.
func (w Week) Until() time.Time {
	return w.Start.AddDate(0, 0, 7)
}

// Contains reports whether t falls inside the week.
func (w Week) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.Until())
}

// Key is the Monday date, used as the storage key for week-scoped rows.
func (w Week) Key() string {
	return w.Start.Format(DateLayout)
}

// EndKey is the Sunday date.
func (w Week) EndKey() string {
	return w.End.Format(DateLayout)
}

func (w Week) String() string {
	return w.Key() + ".." + w.EndKey()
}
