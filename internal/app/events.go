package app

import (
	"context"
	"strings"

	"github.com/nhle/diet-tracker/internal/model"
)

func (a *App) eventsCmd(ctx context.Context, args []string) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	if len(args) == 0 {
		a.printEvents(a.events.LoadEvents(ctx, sess.UserID))
		return nil
	}

	switch args[0] {
	case "list":
		if len(args) == 1 {
			a.printEvents(a.events.LoadEvents(ctx, sess.UserID))
			return nil
		}
		evs, err := a.events.EventsOn(ctx, sess.UserID, args[1])
		if err != nil {
			return err
		}
		a.printEvents(evs)
		return nil
	case "add":
		if len(args) < 4 {
			return usageError("events add <YYYY-MM-DD> <HH:MM> <description...>")
		}
		ev := model.CalendarEvent{
			CalendarDate: args[1],
			Time:         args[2],
			Description:  strings.Join(args[3:], " "),
		}
		evs, err := a.events.AddEvent(ctx, sess.UserID, ev)
		if err != nil {
			return err
		}
		a.printEvents(evs)
		return nil
	case "remove":
		if len(args) != 2 {
			return usageError("events remove <eventID>")
		}
		evs, err := a.events.RemoveEvent(ctx, sess.UserID, args[1])
		if err != nil {
			return err
		}
		a.printEvents(evs)
		return nil
	default:
		return usageError("unknown events command %q", args[0])
	}
}

func (a *App) printEvents(evs []model.CalendarEvent) {
	if len(evs) == 0 {
		a.printf("No events\n")
		return
	}
	rows := make([][]string, 0, len(evs))
	for _, ev := range evs {
		rows = append(rows, []string{ev.CalendarDate, ev.Time, ev.Description, ev.ID})
	}
	a.printTable([]string{"DATE", "TIME", "DESCRIPTION", "ID"}, rows)
}
