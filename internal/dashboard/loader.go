package dashboard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/model"
)

const (
	recordsRoute  = "mealRecords"
	alimentsRoute = "aliments"

	maxConcurrentLookups = 4
)

// PlanSource finds the user's active plan.
type PlanSource interface {
	ActivePlan(ctx context.Context, sess model.Session) (model.MealPlan, bool, error)
}

// API is the part of the gateway the loader needs.
type API interface {
	Fetch(ctx context.Context, route string, out any) (bool, error)
	FetchByID(ctx context.Context, route string, id model.ID, out any) (bool, error)
}

// Loader gathers the active plan, the user's recent records, and the
// facts of the foods they refer to, then derives the dashboard.
type Loader struct {
	plans  PlanSource
	api    API
	now    func() time.Time
	logger gateway.Logger
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithClock sets the function used to decide what "today" is.
func WithClock(now func() time.Time) LoaderOption {
	return func(l *Loader) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(lg gateway.Logger) LoaderOption {
	return func(l *Loader) { l.logger = lg }
}

// NewLoader creates a Loader.
func NewLoader(plans PlanSource, api API, opts ...LoaderOption) *Loader {
	l := &Loader{
		plans:  plans,
		api:    api,
		now:    time.Now,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches everything the dashboard shows and derives it. Nothing is
// cached between loads.
func (l *Loader) Load(ctx context.Context, sess model.Session) (Data, error) {
	if !sess.Valid() {
		return Data{}, fmt.Errorf("loading dashboard: no signed-in user")
	}
	now := l.now()

	var (
		plan    model.MealPlan
		hasPlan bool
		records []model.MealRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		plan, hasPlan, err = l.plans.ActivePlan(gctx, sess)
		if err != nil {
			return fmt.Errorf("loading active plan: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = l.recentRecords(gctx, sess, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return Data{}, err
	}

	aliments, err := l.lookupAliments(ctx, records)
	if err != nil {
		return Data{}, err
	}

	in := Input{Now: now}
	if hasPlan {
		in.Plan = &plan
	}
	for _, r := range records {
		j := JoinedRecord{Record: r}
		if a, ok := aliments[r.AlimentID]; ok {
			j.Aliment = &a
		}
		in.Week = append(in.Week, j)
		if r.OnDay(now) {
			in.Today = append(in.Today, j)
		}
	}

	data := Derive(in)
	if data.ExcludedRecords > 0 {
		l.logger.Printf("dashboard: %d of today's records reference unknown foods", data.ExcludedRecords)
	}
	return data, nil
}

// recentRecords returns the user's records dated within the last WeekDays
// days.
func (l *Loader) recentRecords(ctx context.Context, sess model.Session, now time.Time) ([]model.MealRecord, error) {
	var all []model.MealRecord
	found, err := l.api.Fetch(ctx, recordsRoute, &all)
	if err != nil {
		return nil, fmt.Errorf("fetching records: %w", err)
	}
	if !found {
		return nil, nil
	}

	loc := now.Location()
	y, m, d := now.Date()
	end := time.Date(y, m, d, 0, 0, 0, 0, loc)
	start := end.AddDate(0, 0, -(WeekDays - 1))

	var out []model.MealRecord
	for _, r := range all {
		if r.UserID.String() != sess.UserID.String() {
			continue
		}
		day, err := r.Day(loc)
		if err != nil || day.Before(start) || day.After(end) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// lookupAliments fetches each distinct food once. Foods that cannot be
// fetched or decoded are missing from the result, so their records stay
// unjoined. Only cancellation fails the lookup.
func (l *Loader) lookupAliments(ctx context.Context, records []model.MealRecord) (map[model.ID]model.Aliment, error) {
	seen := make(map[model.ID]bool)
	var ids []model.ID
	for _, r := range records {
		if r.AlimentID.IsZero() || seen[r.AlimentID] {
			continue
		}
		seen[r.AlimentID] = true
		ids = append(ids, r.AlimentID)
	}

	var mu sync.Mutex
	out := make(map[model.ID]model.Aliment, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for _, id := range ids {
		g.Go(func() error {
			var a model.Aliment
			found, err := l.api.FetchByID(gctx, alimentsRoute, id, &a)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				l.logger.Printf("dashboard: skipping aliment %s: %v", id, err)
				return nil
			}
			if !found {
				return nil
			}
			mu.Lock()
			out[id] = a
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
