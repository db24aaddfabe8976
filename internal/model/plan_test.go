package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTargetsFallBackPerField(t *testing.T) {
	plan := MealPlan{
		TargetCalories: DecimalPtr(1800),
		TargetProtein:  DecimalPtr(0),
		TargetFat:      DecimalPtr(60),
	}

	got := plan.Targets()
	def := DefaultTargets()

	assert.Equal(t, 1800.0, got.Calories)
	assert.Equal(t, def.Protein, got.Protein, "zero target uses the default")
	assert.Equal(t, def.Carbs, got.Carbs, "missing target uses the default")
	assert.Equal(t, 60.0, got.Fat)
	assert.Equal(t, def.Water, got.Water)
}

func TestForQuantityScalesPer100(t *testing.T) {
	rice := Aliment{Calories100: 150, Protein100: 3, Carbs100: 30}

	got := rice.ForQuantity(200)

	assert.InDelta(t, 300, got.Calories, 1e-9)
	assert.InDelta(t, 6, got.Protein, 1e-9)
	assert.InDelta(t, 60, got.Carbs, 1e-9)
	assert.Zero(t, got.Fat)
}

func TestRelationRef(t *testing.T) {
	ref := ResolvedRelation("9")
	id, ok := ref.ID()
	assert.True(t, ok)
	assert.Equal(t, ID("9"), id)

	assert.False(t, UnresolvedRelation().Resolved())
	assert.False(t, ResolvedRelation("").Resolved())
}

func TestMealAlimentRelationIDFallsBackToID(t *testing.T) {
	assert.Equal(t, ID("3"), MealAliment{MealAlimentID: "3", ID: "8"}.RelationID())
	assert.Equal(t, ID("8"), MealAliment{ID: "8"}.RelationID())
}

func TestMealRecordDay(t *testing.T) {
	loc := time.UTC
	day := time.Date(2024, time.March, 5, 18, 30, 0, 0, loc)

	assert.True(t, MealRecord{MealDate: "05/03/2024"}.OnDay(day))
	assert.True(t, MealRecord{MealDate: "2024-03-05"}.OnDay(day))
	assert.False(t, MealRecord{MealDate: "03/05/2024"}.OnDay(day))
	assert.False(t, MealRecord{MealDate: "not a date"}.OnDay(day))
}
