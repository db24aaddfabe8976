package foods

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/model"
)

const (
	mealsRoute        = "meals"
	alimentsRoute     = "aliments"
	mealAlimentsRoute = "mealAliments"
	plansRoute        = "mealplans"

	// maxConcurrentFetches bounds the per-meal fan-out.
	maxConcurrentFetches = 4
)

// ErrMealUnavailable is recorded on a MealView whose foods could not be
// fetched.
var ErrMealUnavailable = errors.New("meal foods unavailable")

// API is the part of the gateway the aggregator needs.
type API interface {
	Fetch(ctx context.Context, route string, out any) (bool, error)
	FetchByID(ctx context.Context, route string, id model.ID, out any) (bool, error)
	Post(ctx context.Context, route string, body, out any) error
	DeleteByID(ctx context.Context, route string, id model.ID) error
}

// Aggregator joins a plan's meals, the meal↔food relations, and the food
// nutrition facts into per-meal and per-plan totals.
type Aggregator struct {
	api    API
	logger gateway.Logger
}

// New creates an Aggregator. A nil logger falls back to log.Default().
func New(api API, logger gateway.Logger) *Aggregator {
	if logger == nil {
		logger = log.Default()
	}
	return &Aggregator{api: api, logger: logger}
}

// AggregatePlan loads every meal of planID with its foods and totals.
//
// A meal whose foods fail to load keeps an empty shape and records LoadErr;
// the rest of the plan still renders. A meal list or relation set that
// cannot be decoded is returned as an error, and an absent meal list gives
// an empty view.
func (a *Aggregator) AggregatePlan(ctx context.Context, planID model.ID) (*PlanView, error) {
	view := &PlanView{PlanID: planID, Meals: []MealView{}}

	var meals []model.Meal
	found, err := a.api.Fetch(ctx, gateway.ResourcePath(plansRoute, planID.String(), mealsRoute), &meals)
	if err != nil {
		return nil, fmt.Errorf("fetching meals of plan %s: %w", planID, err)
	}
	if !found || len(meals) == 0 {
		return view, nil
	}

	var relations []model.MealAliment
	if _, err := a.api.Fetch(ctx, mealAlimentsRoute, &relations); err != nil {
		return nil, fmt.Errorf("fetching meal relations: %w", err)
	}

	views := make([]MealView, len(meals))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	for i, meal := range meals {
		views[i] = MealView{Meal: meal, Foods: []FoodRow{}}

		g.Go(func() error {
			rows, err := a.mealFoods(gctx, meal, relations)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				a.logger.Printf("foods: meal %s: %v", meal.MealID, err)
				views[i].LoadErr = err
				return nil
			}
			views[i].Foods = rows
			views[i].Totals = sumFoods(rows)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating plan %s: %w", planID, err)
	}

	view.Meals = views
	view.Totals = sumMeals(views)
	return view, nil
}

// mealFoods fetches one meal's foods and resolves each row's relation id.
func (a *Aggregator) mealFoods(ctx context.Context, meal model.Meal, relations []model.MealAliment) ([]FoodRow, error) {
	var entries []model.MealFoodEntry
	found, err := a.api.Fetch(ctx, gateway.ResourcePath(mealsRoute, meal.MealID.String(), alimentsRoute), &entries)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrMealUnavailable
	}

	resolver := newRelationResolver(meal.MealID, relations)
	rows := make([]FoodRow, 0, len(entries))
	for _, e := range entries {
		qty := e.Quantity.Float()
		rows = append(rows, FoodRow{
			Aliment:   e.Aliment,
			MealID:    meal.MealID,
			Quantity:  qty,
			Unit:      e.MeasurementUnit,
			Relation:  resolver.resolve(e),
			Nutrients: e.Aliment.ForQuantity(qty),
		})
	}
	return rows, nil
}

// relationResolver matches food rows of one meal to relation ids. A
// relation is handed out at most once, so a food added twice to the same
// meal maps to two distinct relations.
type relationResolver struct {
	candidates []model.MealAliment
	used       map[model.ID]bool
}

func newRelationResolver(mealID model.ID, relations []model.MealAliment) *relationResolver {
	r := &relationResolver{used: make(map[model.ID]bool)}
	for _, rel := range relations {
		if rel.MealID == mealID {
			r.candidates = append(r.candidates, rel)
		}
	}
	return r
}

// resolve prefers the matching relation's id, then the id the row reports
// itself, and otherwise yields an unresolved reference.
func (r *relationResolver) resolve(e model.MealFoodEntry) model.RelationRef {
	for _, rel := range r.candidates {
		id := rel.RelationID()
		if rel.AlimentID != e.AlimentID || id.IsZero() || r.used[id] {
			continue
		}
		r.used[id] = true
		return model.ResolvedRelation(id)
	}

	if id := e.ReportedRelationID(); !id.IsZero() {
		r.used[id] = true
		return model.ResolvedRelation(id)
	}
	return model.UnresolvedRelation()
}
