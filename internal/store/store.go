package store

import (
	"context"

	"github.com/nhle/diet-tracker/internal/model"
)

// EventStore is the per-user local calendar event cache. Events have no
// remote counterpart.
type EventStore interface {
	// LoadEvents returns the user's events in insertion order. It never
	// fails: an empty or unreadable store yields an empty list.
	LoadEvents(ctx context.Context, userID model.ID) []model.CalendarEvent

	// AddEvent stores ev, replacing an existing event with the same id,
	// and returns the updated list.
	AddEvent(ctx context.Context, userID model.ID, ev model.CalendarEvent) ([]model.CalendarEvent, error)

	// RemoveEvent deletes the event with eventID, if present, and returns
	// the updated list.
	RemoveEvent(ctx context.Context, userID model.ID, eventID string) ([]model.CalendarEvent, error)

	// EventsOn returns the user's events for one calendar date.
	EventsOn(ctx context.Context, userID model.ID, date string) ([]model.CalendarEvent, error)
}

var _ EventStore = (*SQLiteStore)(nil)
