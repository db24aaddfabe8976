package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/diet-tracker/internal/model"
)

const selectEvents = `
	SELECT id, calendar_date, event_time AS time, description
	FROM calendar_events`

// LoadEvents returns the user's events in insertion order, or an empty
// list when nothing is stored or the read fails.
func (s *SQLiteStore) LoadEvents(ctx context.Context, userID model.ID) []model.CalendarEvent {
	events, err := s.listEvents(ctx, userID)
	if err != nil {
		s.logger.Printf("store: loading events for user %s: %v", userID, err)
		return []model.CalendarEvent{}
	}
	return events
}

// AddEvent inserts ev, or updates it in place when the user already has an
// event with the same id. Generates a UUID if ID is empty.
func (s *SQLiteStore) AddEvent(
	ctx context.Context,
	userID model.ID,
	ev model.CalendarEvent,
) ([]model.CalendarEvent, error) {
	if userID.IsZero() {
		return nil, fmt.Errorf("adding event: user id is required")
	}
	ev.ID = strings.TrimSpace(ev.ID)
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calendar_events (
			user_id, id, calendar_date, event_time, description, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			calendar_date = excluded.calendar_date,
			event_time    = excluded.event_time,
			description   = excluded.description,
			updated_at    = excluded.updated_at`,
		userID.String(), ev.ID, ev.CalendarDate, ev.Time, ev.Description, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("adding event %s: %w", ev.ID, err)
	}

	return s.listEvents(ctx, userID)
}

// RemoveEvent deletes an event by id. Removing an unknown id is not an
// error and leaves the list unchanged.
func (s *SQLiteStore) RemoveEvent(
	ctx context.Context,
	userID model.ID,
	eventID string,
) ([]model.CalendarEvent, error) {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM calendar_events WHERE user_id = ? AND id = ?",
		userID.String(), eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("removing event %s: %w", eventID, err)
	}

	return s.listEvents(ctx, userID)
}

// EventsOn returns the user's events on date, ordered by time.
func (s *SQLiteStore) EventsOn(
	ctx context.Context,
	userID model.ID,
	date string,
) ([]model.CalendarEvent, error) {
	events := []model.CalendarEvent{}
	err := s.db.SelectContext(ctx, &events,
		selectEvents+" WHERE user_id = ? AND calendar_date = ? ORDER BY event_time, seq",
		userID.String(), date,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events on %s: %w", date, err)
	}
	return events, nil
}

func (s *SQLiteStore) listEvents(ctx context.Context, userID model.ID) ([]model.CalendarEvent, error) {
	events := []model.CalendarEvent{}
	err := s.db.SelectContext(ctx, &events,
		selectEvents+" WHERE user_id = ? ORDER BY seq",
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return events, nil
}
