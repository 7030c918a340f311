package models

import "time"

// GroupType distinguishes health-tracking groups from other kinds.
type GroupType string

const (
	GroupTypeHealth GroupType = "HEALTH"
)

// Group is the membership collaborator's view of a group.
type Group struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      GroupType `db:"group_type" json:"type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Member carries the profile fields the aggregator needs.
type Member struct {
	UserID    string     `db:"user_id" json:"user_id"`
	BirthDate *time.Time `db:"birth_date" json:"birth_date,omitempty"`
	HeightCm  *float64   `db:"height_cm" json:"height_cm,omitempty"`
	WeightKg  *float64   `db:"weight_kg" json:"weight_kg,omitempty"`
}

// KoreanAge counts the birth year as age one, so age = year - birthYear + 1.
func (m Member) KoreanAge(asOf time.Time) (int, bool) {
	if m.BirthDate == nil || m.BirthDate.IsZero() {
		return 0, false
	}
	return asOf.Year() - m.BirthDate.Year() + 1, true
}

// BMI returns kg / m^2 when both height and weight are positive.
func (m Member) BMI() (float64, bool) {
	if m.HeightCm == nil || m.WeightKg == nil || *m.HeightCm <= 0 || *m.WeightKg <= 0 {
		return 0, false
	}
	h := *m.HeightCm / 100.0
	return *m.WeightKg / (h * h), true
}

// MemberTotals are one member's telemetry sums for a week.
type MemberTotals struct {
	Steps         int64   `db:"steps" json:"steps"`
	Kcal          float64 `db:"kcal" json:"kcal"`
	ActiveMinutes int64   `db:"active_minutes" json:"active_minutes"`
	Distance      float64 `db:"distance" json:"distance"`
}
