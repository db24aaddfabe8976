package foods

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nhle/diet-tracker/internal/model"
)

var (
	// ErrUnresolvedRelation is returned by RemoveFood when the row has no
	// known relation id. No request is made.
	ErrUnresolvedRelation = errors.New("food has no known relation id")

	// ErrInvalidQuantity is returned by AddFood for a quantity that is not
	// positive.
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)

// SearchAliments looks foods up by name. An empty query returns nothing.
func (a *Aggregator) SearchAliments(ctx context.Context, query string) ([]model.Aliment, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.Aliment{}, nil
	}

	var out []model.Aliment
	found, err := a.api.Fetch(ctx, alimentsRoute+"?name="+url.QueryEscape(query), &out)
	if err != nil {
		return nil, fmt.Errorf("searching aliments %q: %w", query, err)
	}
	if !found || out == nil {
		return []model.Aliment{}, nil
	}
	return out, nil
}

// GetAliment fetches one food's nutrition facts.
func (a *Aggregator) GetAliment(ctx context.Context, id model.ID) (model.Aliment, bool, error) {
	var out model.Aliment
	found, err := a.api.FetchByID(ctx, alimentsRoute, id, &out)
	if err != nil {
		return model.Aliment{}, false, fmt.Errorf("fetching aliment %s: %w", id, err)
	}
	return out, found, nil
}

// CreateMeal adds a meal to planID.
func (a *Aggregator) CreateMeal(ctx context.Context, planID model.ID, name, category string) (model.Meal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Meal{}, fmt.Errorf("meal name is required")
	}

	meal := model.Meal{
		MealName: name,
		PlanID:   planID,
		Category: strings.TrimSpace(category),
	}
	var saved model.Meal
	if err := a.api.Post(ctx, mealsRoute, meal, &saved); err != nil {
		return model.Meal{}, fmt.Errorf("creating meal %q: %w", name, err)
	}
	if saved.MealID.IsZero() {
		return meal, nil
	}
	return saved, nil
}

// DeleteMeal removes a meal.
func (a *Aggregator) DeleteMeal(ctx context.Context, mealID model.ID) error {
	if err := a.api.DeleteByID(ctx, mealsRoute, mealID); err != nil {
		return fmt.Errorf("deleting meal %s: %w", mealID, err)
	}
	return nil
}

// AddFood assigns quantity of an aliment to a meal.
func (a *Aggregator) AddFood(
	ctx context.Context,
	mealID, alimentID model.ID,
	quantity float64,
	unit string,
) (model.MealAliment, error) {
	if quantity <= 0 {
		return model.MealAliment{}, ErrInvalidQuantity
	}
	if unit = strings.TrimSpace(unit); unit == "" {
		unit = "g"
	}

	rel := model.MealAliment{
		MealID:          mealID,
		AlimentID:       alimentID,
		Quantity:        model.Decimal(quantity),
		MeasurementUnit: unit,
	}
	var saved model.MealAliment
	if err := a.api.Post(ctx, mealAlimentsRoute, rel, &saved); err != nil {
		return model.MealAliment{}, fmt.Errorf("adding aliment %s to meal %s: %w", alimentID, mealID, err)
	}
	if saved.RelationID().IsZero() {
		return rel, nil
	}
	return saved, nil
}

// RemoveFood deletes the relation behind row. A row whose relation id is
// unknown is refused with ErrUnresolvedRelation rather than guessing.
func (a *Aggregator) RemoveFood(ctx context.Context, row FoodRow) error {
	id, ok := row.Relation.ID()
	if !ok {
		return fmt.Errorf("removing %q from meal %s: %w", row.Aliment.Name, row.MealID, ErrUnresolvedRelation)
	}
	if err := a.api.DeleteByID(ctx, mealAlimentsRoute, id); err != nil {
		return fmt.Errorf("removing %q from meal %s: %w", row.Aliment.Name, row.MealID, err)
	}
	return nil
}
