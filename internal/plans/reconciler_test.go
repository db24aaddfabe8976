package plans

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/diet-tracker/internal/model"
	"github.com/nhle/diet-tracker/internal/testutil"
)

func newReconciler(t *testing.T) (*Reconciler, *testutil.Backend) {
	t.Helper()
	b := testutil.NewBackend(t)
	return New(b.Client(), testutil.DiscardLogger{}), b
}

func activeCount(plans []model.MealPlan, userID model.ID) int {
	n := 0
	for _, p := range plans {
		if p.UserID == userID && p.Active {
			n++
		}
	}
	return n
}

func choose(c ConflictChoice) ResolverFunc {
	return func(context.Context, model.MealPlan, model.MealPlan) (ConflictChoice, error) {
		return c, nil
	}
}

func TestListPlansFiltersByUser(t *testing.T) {
	r, b := newReconciler(t)
	b.AddPlan(model.MealPlan{PlanName: "Mine", UserID: "42"})
	b.AddPlan(model.MealPlan{PlanName: "Theirs", UserID: "7"})
	b.AddPlan(model.MealPlan{PlanName: "Also mine", UserID: "42", Active: true})

	plans, err := r.ListPlans(context.Background(), b.Session())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Mine", plans[0].PlanName)
	assert.Equal(t, "Also mine", plans[1].PlanName)

	active, ok := FindActivePlan(plans)
	require.True(t, ok)
	assert.Equal(t, "Also mine", active.PlanName)
}

func TestListPlansAbsentIsEmpty(t *testing.T) {
	r, b := newReconciler(t)
	b.Fail(http.MethodGet, "/users/mealplans", http.StatusInternalServerError)

	plans, err := r.ListPlans(context.Background(), b.Session())
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestListPlansRequiresSession(t *testing.T) {
	r, _ := newReconciler(t)

	_, err := r.ListPlans(context.Background(), model.Session{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestFindActivePlanFirstWins(t *testing.T) {
	plans := []model.MealPlan{
		{PlanID: "1"},
		{PlanID: "2", Active: true},
		{PlanID: "3", Active: true},
	}

	p, ok := FindActivePlan(plans)
	require.True(t, ok)
	assert.Equal(t, model.ID("2"), p.PlanID)

	_, ok = FindActivePlan(nil)
	assert.False(t, ok)
}

func TestCreatePlanReplaceAndActivate(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true, Source: model.PlanSourceManual})

	res, err := r.CreatePlan(context.Background(), b.Session(),
		PlanDraft{Name: "B", Calories: "1800", Active: true}, choose(ChoiceReplaceAndActivate))
	require.NoError(t, err)

	assert.Equal(t, "B", res.Plan.PlanName)
	assert.True(t, res.Plan.Active)
	require.NotNil(t, res.Replaced)
	assert.Equal(t, a.PlanID, res.Replaced.PlanID)

	stored, ok := b.Plan(a.PlanID)
	require.True(t, ok)
	assert.False(t, stored.Active, "A must be inactive")

	created, ok := b.Plan(res.Plan.PlanID)
	require.True(t, ok)
	assert.True(t, created.Active, "B must be active")
	assert.Equal(t, 1, activeCount(b.Plans(), "42"))
}

func TestCreatePlanKeepInactive(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})

	res, err := r.CreatePlan(context.Background(), b.Session(),
		PlanDraft{Name: "B", Active: true}, choose(ChoiceKeepInactive))
	require.NoError(t, err)
	assert.False(t, res.Plan.Active)
	assert.Nil(t, res.Replaced)

	stored, _ := b.Plan(a.PlanID)
	assert.True(t, stored.Active)
	assert.Equal(t, 1, activeCount(b.Plans(), "42"))
}

func TestCreatePlanCancelWritesNothing(t *testing.T) {
	r, b := newReconciler(t)
	b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})

	_, err := r.CreatePlan(context.Background(), b.Session(),
		PlanDraft{Name: "B", Active: true}, choose(ChoiceCancel))
	assert.ErrorIs(t, err, ErrCreateCancelled)
	assert.Len(t, b.Plans(), 1)
	assert.Zero(t, b.Count("POST /mealplans"))
}

func TestCreatePlanWithoutConflictSkipsResolver(t *testing.T) {
	r, b := newReconciler(t)
	b.AddPlan(model.MealPlan{PlanName: "Other user", UserID: "7", Active: true})

	resolver := ResolverFunc(func(context.Context, model.MealPlan, model.MealPlan) (ConflictChoice, error) {
		t.Error("resolver should not be asked")
		return ChoiceCancel, nil
	})

	res, err := r.CreatePlan(context.Background(), b.Session(),
		PlanDraft{Name: "First", Active: true, Source: model.PlanSourceAutomatic}, resolver)
	require.NoError(t, err)
	assert.True(t, res.Plan.Active)
	assert.Equal(t, model.PlanSourceAutomatic, res.Plan.Source)
	assert.Equal(t, model.ID("42"), res.Plan.UserID)
}

func TestCreatePlanInvalidDraftMakesNoRequest(t *testing.T) {
	r, b := newReconciler(t)

	_, err := r.CreatePlan(context.Background(), b.Session(),
		PlanDraft{Name: "  ", Calories: "lots"}, nil)
	require.ErrorIs(t, err, ErrInvalidDraft)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "calories")
	assert.Empty(t, b.Requests())
}

func TestCreatePlanFailureRestoresReplacedPlan(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})
	b.Fail(http.MethodPost, "/mealplans", http.StatusInternalServerError)

	_, err := r.CreatePlan(context.Background(), b.Session(),
		PlanDraft{Name: "B", Active: true}, choose(ChoiceReplaceAndActivate))
	require.Error(t, err)

	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, StepCreate, actErr.Step)
	assert.Equal(t, []model.ID{a.PlanID}, actErr.Deactivated)
	assert.True(t, actErr.Restored)
	assert.Equal(t, http.StatusInternalServerError, statusOf(err))

	stored, _ := b.Plan(a.PlanID)
	assert.True(t, stored.Active)
}

func TestSwitchActivePlan(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})
	c := b.AddPlan(model.MealPlan{PlanName: "C", UserID: "42"})

	require.NoError(t, r.SwitchActivePlan(context.Background(), b.Session(), c.PlanID, a.PlanID))

	storedA, _ := b.Plan(a.PlanID)
	storedC, _ := b.Plan(c.PlanID)
	assert.False(t, storedA.Active)
	assert.True(t, storedC.Active)
	assert.Equal(t, []string{
		"PUT /mealplans/" + a.PlanID.String(),
		"PUT /mealplans/" + c.PlanID.String(),
	}, b.Requests())
}

func TestSwitchActivePlanActivateFailureReportsState(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})
	c := b.AddPlan(model.MealPlan{PlanName: "C", UserID: "42"})
	b.Fail(http.MethodPut, "/mealplans/"+c.PlanID.String(), http.StatusBadGateway)

	err := r.SwitchActivePlan(context.Background(), b.Session(), c.PlanID, a.PlanID)

	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.Equal(t, StepActivate, actErr.Step)
	assert.Equal(t, c.PlanID, actErr.PlanID)
	assert.True(t, actErr.Restored)

	storedA, _ := b.Plan(a.PlanID)
	assert.True(t, storedA.Active, "A is reactivated")
}

// cancelOnActivate cancels the caller's context when plan id is switched on.
type cancelOnActivate struct {
	API
	id     model.ID
	cancel context.CancelFunc
}

func (c *cancelOnActivate) PutByID(ctx context.Context, route string, id model.ID, body, out any) error {
	if id == c.id {
		c.cancel()
		return ctx.Err()
	}
	return c.API.PutByID(ctx, route, id, body, out)
}

func TestSwitchActivePlanRestoresAfterCancellation(t *testing.T) {
	b := testutil.NewBackend(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})
	c := b.AddPlan(model.MealPlan{PlanName: "C", UserID: "42"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := New(&cancelOnActivate{API: b.Client(), id: c.PlanID, cancel: cancel}, testutil.DiscardLogger{})

	err := r.SwitchActivePlan(ctx, b.Session(), c.PlanID, a.PlanID)
	assert.ErrorIs(t, err, context.Canceled)

	var actErr *ActivationError
	require.True(t, errors.As(err, &actErr))
	assert.True(t, actErr.Restored)

	storedA, _ := b.Plan(a.PlanID)
	assert.True(t, storedA.Active, "A is reactivated despite the cancelled context")
}

func TestActivatePlanDeactivatesEverySibling(t *testing.T) {
	r, b := newReconciler(t)
	b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})
	b.AddPlan(model.MealPlan{PlanName: "B", UserID: "42", Active: true})
	c := b.AddPlan(model.MealPlan{PlanName: "C", UserID: "42"})
	other := b.AddPlan(model.MealPlan{PlanName: "Other", UserID: "7", Active: true})

	require.NoError(t, r.ActivatePlan(context.Background(), b.Session(), c.PlanID))

	assert.Equal(t, 1, activeCount(b.Plans(), "42"))
	storedC, _ := b.Plan(c.PlanID)
	assert.True(t, storedC.Active)

	storedOther, _ := b.Plan(other.PlanID)
	assert.True(t, storedOther.Active, "other users' plans are untouched")
}

func TestDeactivatePlan(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})

	require.NoError(t, r.DeactivatePlan(context.Background(), a.PlanID))
	stored, _ := b.Plan(a.PlanID)
	assert.False(t, stored.Active)
	assert.Equal(t, "A", stored.PlanName)
}

func TestDeletePlanReportsWasActive(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})
	c := b.AddPlan(model.MealPlan{PlanName: "C", UserID: "42"})

	res, err := r.DeletePlan(context.Background(), b.Session(), a.PlanID)
	require.NoError(t, err)
	assert.True(t, res.WasActive)

	res, err = r.DeletePlan(context.Background(), b.Session(), c.PlanID)
	require.NoError(t, err)
	assert.False(t, res.WasActive)
	assert.Empty(t, b.Plans())
}

func TestDeletePlanFailureIsReturned(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42"})
	b.Fail(http.MethodDelete, "/mealplans/"+a.PlanID.String(), http.StatusInternalServerError)

	_, err := r.DeletePlan(context.Background(), b.Session(), a.PlanID)
	assert.Error(t, err)
	assert.Len(t, b.Plans(), 1)
}

func TestUpdatePlanKeepsActivation(t *testing.T) {
	r, b := newReconciler(t)
	a := b.AddPlan(model.MealPlan{PlanName: "A", UserID: "42", Active: true})

	saved, err := r.UpdatePlan(context.Background(), b.Session(), a.PlanID,
		PlanDraft{Name: "A renamed", Protein: "160,5", Active: false})
	require.NoError(t, err)
	assert.Equal(t, "A renamed", saved.PlanName)

	stored, _ := b.Plan(a.PlanID)
	assert.True(t, stored.Active)
	require.NotNil(t, stored.TargetProtein)
	assert.Equal(t, 160.5, stored.TargetProtein.Float())
}
