package model

import (
	"fmt"
	"time"
)

// Wire formats for consumption record dates.
const (
	RecordDateLayout   = "02/01/2006"
	RecordMomentLayout = "15:04:05"
)

// MealRecord says that an aliment in a meal was eaten on a given day.
type MealRecord struct {
	RecordID   ID      `json:"record_id,omitempty"`
	UserID     ID      `json:"user_id"`
	MealID     ID      `json:"meal_id"`
	AlimentID  ID      `json:"aliment_id"`
	Amount     Decimal `json:"amount"`
	Unit       string  `json:"unit"`
	MealDate   string  `json:"meal_date"`
	MealMoment string  `json:"meal_moment"`
}

// Day parses MealDate in loc. Backends sometimes return ISO dates, which
// are accepted as well.
func (r MealRecord) Day(loc *time.Location) (time.Time, error) {
	for _, layout := range []string{RecordDateLayout, "2006-01-02", time.RFC3339} {
		if t, err := time.ParseInLocation(layout, r.MealDate, loc); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised meal_date %q", r.MealDate)
}

// OnDay reports whether the record's date falls on the calendar day of t.
func (r MealRecord) OnDay(t time.Time) bool {
	day, err := r.Day(t.Location())
	if err != nil {
		return false
	}
	y1, m1, d1 := day.Date()
	y2, m2, d2 := t.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ConsumptionKey is the composite identity of a consumption toggle.
type ConsumptionKey struct {
	MealID    ID
	AlimentID ID
}
