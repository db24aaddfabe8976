package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/model"
)

func statusOf(err error) int { return gateway.StatusCode(err) }

func TestDraftValidate(t *testing.T) {
	plan, err := PlanDraft{
		Name:     "  Bulk ",
		Calories: "3000",
		Carbs:    "",
		Water:    "2,5",
	}.Validate()
	require.NoError(t, err)

	assert.Equal(t, "Bulk", plan.PlanName)
	assert.Equal(t, model.PlanSourceManual, plan.Source)
	require.NotNil(t, plan.TargetCalories)
	assert.Equal(t, 3000.0, plan.TargetCalories.Float())
	assert.Nil(t, plan.TargetCarbs, "empty fields are omitted")
	require.NotNil(t, plan.TargetWater)
	assert.Equal(t, 2.5, plan.TargetWater.Float())
}

func TestDraftValidateErrors(t *testing.T) {
	tests := []struct {
		name  string
		draft PlanDraft
		field string
	}{
		{"missing name", PlanDraft{}, "name"},
		{"bad number", PlanDraft{Name: "x", Fat: "abc"}, "fat"},
		{"negative", PlanDraft{Name: "x", Protein: "-1"}, "protein"},
		{"bad source", PlanDraft{Name: "x", Source: "IMPORTED"}, "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.draft.Validate()
			require.ErrorIs(t, err, ErrInvalidDraft)
			assert.Contains(t, err.(*ValidationError).Fields, tt.field)
		})
	}
}

func TestDraftFromPlan(t *testing.T) {
	d := DraftFromPlan(model.MealPlan{
		PlanName:       "Cut",
		TargetCalories: model.DecimalPtr(1750.5),
		Source:         model.PlanSourceAutomatic,
		Active:         true,
	})

	assert.Equal(t, "Cut", d.Name)
	assert.Equal(t, "1750.5", d.Calories)
	assert.Empty(t, d.Protein)
	assert.True(t, d.Active)
}
