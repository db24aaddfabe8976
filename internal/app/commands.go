package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUsage is returned when a command is called with the wrong arguments.
var ErrUsage = errors.New("usage")

// Usage is printed for ErrUsage.
const Usage = `usage: diettracker <command> [args]

  login <email>                              sign in and store the token
  logout                                     forget the stored token
  dashboard                                  today's totals against the active plan

  plans [list]                               list meal plans, active one marked
  plans create                               create a plan interactively
  plans edit <planID>                        change a plan's name, targets or state
  plans activate <planID>                    make a plan the active one
  plans deactivate <planID>                  switch a plan off
  plans delete <planID>                      delete a plan and its meals

  meals [list] <planID>                      foods of a plan grouped by category
  meals create <planID> <name> [category]    add a meal to a plan
  meals delete <mealID>                      remove a meal
  meals add <mealID> <alimentID> <qty> [unit] put a food in a meal
  meals remove <planID> <mealID> <alimentID> take a food out of a meal
  toggle <planID> <mealID> <alimentID>       mark a food eaten today, or undo it

  foods search <name...>                     look foods up by name
  foods show <alimentID>                     nutrition facts per 100 units

  events [list [YYYY-MM-DD]]                 local calendar events
  events add <YYYY-MM-DD> <HH:MM> <description...>
  events remove <eventID>
`

func usageError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUsage}, args...)...)
}

// Run dispatches a command line.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout()
	case "dashboard":
		return a.RunDashboard(ctx)
	case "plans":
		return a.plansCmd(ctx, rest)
	case "meals":
		return a.mealsCmd(ctx, rest)
	case "toggle":
		return a.toggle(ctx, rest)
	case "foods":
		return a.foodsCmd(ctx, rest)
	case "events":
		return a.eventsCmd(ctx, rest)
	default:
		return usageError("unknown command %q", cmd)
	}
}

func (a *App) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usageError("login <email>")
	}
	email := args[0]
	password, err := a.prompts.Password(ctx, email)
	if err != nil {
		return err
	}
	sess, err := a.backend.Login(ctx, email, password)
	if err != nil {
		return err
	}
	a.printf("Signed in as user %s\n", sess.UserID)
	return nil
}

func (a *App) logout() error {
	if err := a.backend.Logout(); err != nil {
		return err
	}
	a.printf("Signed out\n")
	return nil
}

// parseQuantity accepts "150", "12.5" or "12,5".
func parseQuantity(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
}
