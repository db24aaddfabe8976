package model

// CalendarEvent is a user note pinned to a calendar day. Events live only
// in the local cache.
type CalendarEvent struct {
	ID           string `json:"id" db:"id"`
	CalendarDate string `json:"calendarDate" db:"calendar_date"`
	Time         string `json:"time" db:"time"`
	Description  string `json:"description" db:"description"`
}
