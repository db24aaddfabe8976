package foods

import (
	"strings"

	"github.com/nhle/diet-tracker/internal/model"
)

// FoodRow is one food in a meal with its nutrition scaled to the assigned
// quantity.
type FoodRow struct {
	Aliment   model.Aliment
	MealID    model.ID
	Quantity  float64
	Unit      string
	Relation  model.RelationRef
	Nutrients model.Nutrients
}

// MealView is a meal with its foods and their summed nutrition. LoadErr is
// set when the meal's foods could not be fetched; the meal is then shown
// with no foods and zero totals.
type MealView struct {
	Meal    model.Meal
	Foods   []FoodRow
	Totals  model.Nutrients
	LoadErr error
}

// Category returns the meal's category, or DefaultMealCategory when unset.
func (m MealView) Category() string {
	if c := strings.TrimSpace(m.Meal.Category); c != "" {
		return c
	}
	return model.DefaultMealCategory
}

// PlanView is the aggregated content of a plan.
type PlanView struct {
	PlanID model.ID
	Meals  []MealView
	Totals model.Nutrients
}

// FoodCount returns the number of loaded food rows across all meals.
func (p PlanView) FoodCount() int {
	n := 0
	for _, m := range p.Meals {
		n += len(m.Foods)
	}
	return n
}

// CategoryGroup is a display group of meals sharing a category.
type CategoryGroup struct {
	Category string
	Meals    []MealView
}

// GroupByCategory groups meals by category in order of first appearance.
// Every meal lands in exactly one group and keeps its relative order.
func GroupByCategory(meals []MealView) []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)

	for _, m := range meals {
		cat := m.Category()
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, CategoryGroup{Category: cat})
		}
		groups[i].Meals = append(groups[i].Meals, m)
	}
	return groups
}

func sumFoods(rows []FoodRow) model.Nutrients {
	var total model.Nutrients
	for _, r := range rows {
		total = total.Add(r.Nutrients)
	}
	return total
}

func sumMeals(meals []MealView) model.Nutrients {
	var total model.Nutrients
	for _, m := range meals {
		total = total.Add(m.Totals)
	}
	return total
}
