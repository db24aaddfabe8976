package plans

import (
	"context"
	"fmt"

	"github.com/nhle/diet-tracker/internal/model"
)

// ConflictChoice is the user's answer when a new plan should be active but
// another plan already is.
type ConflictChoice int

const (
	// ChoiceCancel aborts the creation without writing anything.
	ChoiceCancel ConflictChoice = iota
	// ChoiceKeepInactive saves the new plan as inactive.
	ChoiceKeepInactive
	// ChoiceReplaceAndActivate deactivates the current plan and saves the
	// new one as active.
	ChoiceReplaceAndActivate
)

func (c ConflictChoice) String() string {
	switch c {
	case ChoiceKeepInactive:
		return "keep inactive"
	case ChoiceReplaceAndActivate:
		return "replace and activate"
	default:
		return "cancel"
	}
}

// ConflictResolver asks the user what to do about an already active plan.
type ConflictResolver interface {
	ResolveConflict(ctx context.Context, current model.MealPlan, draft model.MealPlan) (ConflictChoice, error)
}

// ResolverFunc adapts a function to ConflictResolver.
type ResolverFunc func(ctx context.Context, current, draft model.MealPlan) (ConflictChoice, error)

// ResolveConflict calls f.
func (f ResolverFunc) ResolveConflict(ctx context.Context, current, draft model.MealPlan) (ConflictChoice, error) {
	return f(ctx, current, draft)
}

// CreateResult is the outcome of CreatePlan.
type CreateResult struct {
	Plan model.MealPlan

	// Replaced is the plan that was deactivated to make room, if any.
	Replaced *model.MealPlan
}

// CreatePlan validates and saves a new plan for the session user. When the
// draft asks to be active and another plan already is, resolver decides:
// keep the new plan inactive, replace the active plan, or cancel.
func (r *Reconciler) CreatePlan(
	ctx context.Context,
	sess model.Session,
	draft PlanDraft,
	resolver ConflictResolver,
) (*CreateResult, error) {
	if !sess.Valid() {
		return nil, ErrNoSession
	}

	plan, err := draft.Validate()
	if err != nil {
		return nil, err
	}
	plan.UserID = sess.UserID

	if !plan.Active {
		return r.post(ctx, plan, nil)
	}

	current, hasActive, err := r.ActivePlan(ctx, sess)
	if err != nil {
		return nil, err
	}
	if !hasActive {
		return r.post(ctx, plan, nil)
	}

	if resolver == nil {
		return nil, fmt.Errorf("plan %q conflicts with active plan %q and no resolver was given",
			plan.PlanName, current.PlanName)
	}
	choice, err := resolver.ResolveConflict(ctx, current, plan)
	if err != nil {
		return nil, fmt.Errorf("resolving active plan conflict: %w", err)
	}
	r.logger.Printf("plans: user %s: plan %q conflicts with active plan %s, chose %s",
		sess.UserID, plan.PlanName, current.PlanID, choice)

	switch choice {
	case ChoiceKeepInactive:
		plan.Active = false
		return r.post(ctx, plan, nil)
	case ChoiceReplaceAndActivate:
		return r.replaceAndCreate(ctx, sess, plan, current)
	default:
		return nil, ErrCreateCancelled
	}
}

// replaceAndCreate deactivates current, then creates plan as active. If
// the create fails, current is reactivated.
func (r *Reconciler) replaceAndCreate(
	ctx context.Context,
	sess model.Session,
	plan model.MealPlan,
	current model.MealPlan,
) (*CreateResult, error) {
	deactivated, err := r.deactivateAll(ctx, sess, []model.ID{current.PlanID})
	if err != nil {
		return nil, err
	}

	r.logger.Printf("plans: user %s: creating active plan %q", sess.UserID, plan.PlanName)
	res, err := r.post(ctx, plan, &current)
	if err != nil {
		return nil, r.failAfterDeactivate(ctx, sess, StepCreate, "", deactivated, err)
	}
	res.Replaced.Active = false
	return res, nil
}

func (r *Reconciler) post(ctx context.Context, plan model.MealPlan, replaced *model.MealPlan) (*CreateResult, error) {
	var saved model.MealPlan
	if err := r.api.Post(ctx, plansRoute, plan, &saved); err != nil {
		return nil, fmt.Errorf("creating plan %q: %w", plan.PlanName, err)
	}
	if saved.PlanID.IsZero() {
		// 201 with an empty body.
		saved = plan
	}
	return &CreateResult{Plan: saved, Replaced: replaced}, nil
}
