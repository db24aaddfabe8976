package dashboard_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/diet-tracker/internal/dashboard"
	"github.com/nhle/diet-tracker/internal/model"
	"github.com/nhle/diet-tracker/internal/plans"
	"github.com/nhle/diet-tracker/internal/testutil"
)

var loadNow = time.Date(2024, time.March, 5, 20, 0, 0, 0, time.UTC)

func newLoader(t *testing.T) (*dashboard.Loader, *testutil.Backend) {
	t.Helper()
	b := testutil.NewBackend(t)
	client := b.Client()
	l := dashboard.NewLoader(
		plans.New(client, testutil.DiscardLogger{}),
		client,
		dashboard.WithClock(func() time.Time { return loadNow }),
		dashboard.WithLogger(testutil.DiscardLogger{}),
	)
	return l, b
}

func TestLoadWithoutPlanUsesDefaults(t *testing.T) {
	l, b := newLoader(t)

	d, err := l.Load(context.Background(), b.Session())
	require.NoError(t, err)
	assert.True(t, d.UsingDefaults)
	assert.Equal(t, model.DefaultTargets(), d.Targets)
	assert.Len(t, d.Weekly, dashboard.WeekDays)
}

func TestLoadJoinsRecordsWithFoods(t *testing.T) {
	l, b := newLoader(t)
	b.AddPlan(model.MealPlan{PlanName: "Cut", UserID: "42", Active: true, TargetCalories: model.DecimalPtr(1500)})
	bread := b.AddAliment(model.Aliment{Name: "Bread", Calories100: 250, Carbs100: 50})
	cheese := b.AddAliment(model.Aliment{Name: "Cheese", Calories100: 400, Fat100: 30})

	b.AddRecord(model.MealRecord{UserID: "42", MealID: "1", AlimentID: bread.AlimentID, Amount: 100, MealDate: "05/03/2024"})
	b.AddRecord(model.MealRecord{UserID: "42", MealID: "1", AlimentID: cheese.AlimentID, Amount: 50, MealDate: "05/03/2024"})
	b.AddRecord(model.MealRecord{UserID: "42", MealID: "1", AlimentID: bread.AlimentID, Amount: 200, MealDate: "03/03/2024"})
	b.AddRecord(model.MealRecord{UserID: "42", MealID: "1", AlimentID: "404", Amount: 100, MealDate: "05/03/2024"})
	b.AddRecord(model.MealRecord{UserID: "7", MealID: "1", AlimentID: bread.AlimentID, Amount: 999, MealDate: "05/03/2024"})
	b.AddRecord(model.MealRecord{UserID: "42", MealID: "1", AlimentID: bread.AlimentID, Amount: 999, MealDate: "01/01/2024"})

	d, err := l.Load(context.Background(), b.Session())
	require.NoError(t, err)

	assert.False(t, d.UsingDefaults)
	assert.Equal(t, "Cut", d.PlanName)
	assert.InDelta(t, 450, d.Consumed.Calories, 1e-9)
	assert.InDelta(t, 30, d.Percent.Calories, 1e-9)
	assert.Equal(t, 1, d.ExcludedRecords)

	assert.InDelta(t, 500, d.Weekly[4].Calories, 1e-9)
	assert.InDelta(t, 450, d.Weekly[6].Calories, 1e-9)

	assert.Equal(t, 1, b.Count("GET /aliments/"+bread.AlimentID.String()), "foods are fetched once")
}

func TestLoadExcludesRecordsWithMalformedFood(t *testing.T) {
	l, b := newLoader(t)
	bread := b.AddAliment(model.Aliment{Name: "Bread", Calories100: 250})
	b.AddRecord(model.MealRecord{UserID: "42", MealID: "1", AlimentID: bread.AlimentID, Amount: 100, MealDate: "05/03/2024"})
	b.AddRecord(model.MealRecord{UserID: "42", MealID: "1", AlimentID: "2", Amount: 100, MealDate: "05/03/2024"})
	b.Respond(http.MethodGet, "/aliments/2", http.StatusOK, `{"aliment_id":2,"calories_100g":"n/a"}`)

	d, err := l.Load(context.Background(), b.Session())
	require.NoError(t, err)
	assert.InDelta(t, 250, d.Consumed.Calories, 1e-9)
	assert.Equal(t, 1, d.ExcludedRecords)
	assert.InDelta(t, 250, d.Weekly[6].Calories, 1e-9)
}

func TestLoadToleratesMissingRecords(t *testing.T) {
	l, b := newLoader(t)
	b.Fail(http.MethodGet, "/mealRecords", http.StatusInternalServerError)

	d, err := l.Load(context.Background(), b.Session())
	require.NoError(t, err)
	assert.Zero(t, d.Consumed)
}

func TestLoadRequiresSession(t *testing.T) {
	l, _ := newLoader(t)

	_, err := l.Load(context.Background(), model.Session{})
	assert.Error(t, err)
}

func TestLoadCancelled(t *testing.T) {
	l, b := newLoader(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := l.Load(ctx, b.Session())
	assert.ErrorIs(t, err, context.Canceled)
}
