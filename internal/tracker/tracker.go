package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/model"
)

const (
	recordsRoute     = "mealRecords"
	mealRecordsRoute = "mealRecords/meal"
)

var (
	// ErrUnconfirmedRecord is returned when the backend accepted a new
	// record but did not report its id. Nothing is indexed.
	ErrUnconfirmedRecord = errors.New("backend did not return a record id")

	// ErrToggleInFlight is returned when the same food is toggled again
	// before the previous toggle finished.
	ErrToggleInFlight = errors.New("toggle already in progress")
)

// API is the part of the gateway the tracker needs.
type API interface {
	Fetch(ctx context.Context, route string, out any) (bool, error)
	Post(ctx context.Context, route string, body, out any) error
	DeleteByID(ctx context.Context, route string, id model.ID) error
}

// FoodContext carries what a new consumption record copies from the food
// row being toggled.
type FoodContext struct {
	Quantity float64
	Unit     string
}

// Tracker keeps today's (meal, aliment) → record id index and maps
// consumption toggles to record creates and deletes.
type Tracker struct {
	api    API
	now    func() time.Time
	logger gateway.Logger

	mu       sync.Mutex
	index    map[model.ConsumptionKey]model.ID
	inFlight map[model.ConsumptionKey]bool
}

// Option customizes a Tracker.
type Option func(*Tracker)

// WithClock sets the function used to decide what "today" is.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the logger.
func WithLogger(l gateway.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New creates an empty Tracker.
func New(api API, opts ...Option) *Tracker {
	t := &Tracker{
		api:      api,
		now:      time.Now,
		logger:   log.Default(),
		index:    make(map[model.ConsumptionKey]model.ID),
		inFlight: make(map[model.ConsumptionKey]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Rebuild replaces the index with the session user's records dated today
// for the given meals. Meals whose records cannot be fetched or decoded
// contribute nothing; only cancellation fails the rebuild.
func (t *Tracker) Rebuild(ctx context.Context, sess model.Session, mealIDs []model.ID) error {
	if !sess.Valid() {
		return fmt.Errorf("rebuilding consumption index: no signed-in user")
	}

	ids := dedupe(mealIDs)
	perMeal := make([][]model.MealRecord, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		g.Go(func() error {
			var recs []model.MealRecord
			found, err := t.api.Fetch(gctx, gateway.ResourcePath(mealRecordsRoute, id.String()), &recs)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				t.logger.Printf("tracker: skipping records of meal %s: %v", id, err)
				return nil
			}
			if found {
				perMeal[i] = recs
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	today := t.now()
	index := make(map[model.ConsumptionKey]model.ID)
	for _, recs := range perMeal {
		for _, r := range recs {
			if r.UserID.String() != sess.UserID.String() || r.RecordID.IsZero() || !r.OnDay(today) {
				continue
			}
			index[model.ConsumptionKey{MealID: r.MealID, AlimentID: r.AlimentID}] = r.RecordID
		}
	}

	t.mu.Lock()
	t.index = index
	t.mu.Unlock()
	return nil
}

// Toggle flips the consumed state of an aliment in a meal for today and
// returns the new state. On failure the state is unchanged.
func (t *Tracker) Toggle(
	ctx context.Context,
	sess model.Session,
	mealID, alimentID model.ID,
	food FoodContext,
) (bool, error) {
	if !sess.Valid() {
		return false, fmt.Errorf("toggling consumption: no signed-in user")
	}
	key := model.ConsumptionKey{MealID: mealID, AlimentID: alimentID}

	t.mu.Lock()
	if t.inFlight[key] {
		t.mu.Unlock()
		return false, ErrToggleInFlight
	}
	t.inFlight[key] = true
	recordID, present := t.index[key]
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.inFlight, key)
		t.mu.Unlock()
	}()

	if present {
		return t.unconsume(ctx, key, recordID)
	}
	return t.consume(ctx, sess, key, food)
}

func (t *Tracker) unconsume(ctx context.Context, key model.ConsumptionKey, recordID model.ID) (bool, error) {
	if err := t.api.DeleteByID(ctx, recordsRoute, recordID); err != nil {
		return true, fmt.Errorf("deleting record %s: %w", recordID, err)
	}

	t.mu.Lock()
	delete(t.index, key)
	t.mu.Unlock()
	return false, nil
}

func (t *Tracker) consume(ctx context.Context, sess model.Session, key model.ConsumptionKey, food FoodContext) (bool, error) {
	now := t.now()
	rec := model.MealRecord{
		UserID:     sess.UserID,
		MealID:     key.MealID,
		AlimentID:  key.AlimentID,
		Amount:     model.Decimal(food.Quantity),
		Unit:       food.Unit,
		MealDate:   now.Format(model.RecordDateLayout),
		MealMoment: now.Format(model.RecordMomentLayout),
	}

	var saved model.MealRecord
	if err := t.api.Post(ctx, recordsRoute, rec, &saved); err != nil {
		return false, fmt.Errorf("creating record: %w", err)
	}
	if saved.RecordID.IsZero() {
		t.logger.Printf("tracker: record for meal %s aliment %s created without id", key.MealID, key.AlimentID)
		return false, ErrUnconfirmedRecord
	}

	t.mu.Lock()
	t.index[key] = saved.RecordID
	t.mu.Unlock()
	return true, nil
}

// IsConsumed reports whether the aliment is marked eaten today in the meal.
func (t *Tracker) IsConsumed(mealID, alimentID model.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.index[model.ConsumptionKey{MealID: mealID, AlimentID: alimentID}]
	return ok
}

// Consumed returns a copy of the index.
func (t *Tracker) Consumed() map[model.ConsumptionKey]model.ID {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[model.ConsumptionKey]model.ID, len(t.index))
	for k, v := range t.index {
		out[k] = v
	}
	return out
}

func dedupe(ids []model.ID) []model.ID {
	seen := make(map[model.ID]bool, len(ids))
	out := make([]model.ID, 0, len(ids))
	for _, id := range ids {
		if id.IsZero() || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
