package plans

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/nhle/diet-tracker/internal/gateway"
	"github.com/nhle/diet-tracker/internal/model"
)

// restoreTimeout bounds the compensating reactivation after a failed switch.
const restoreTimeout = 10 * time.Second

// Routes used by the reconciler.
const (
	userPlansRoute = "users/mealplans"
	plansRoute     = "mealplans"
)

// API is the part of the gateway the reconciler needs.
type API interface {
	Fetch(ctx context.Context, route string, out any) (bool, error)
	Post(ctx context.Context, route string, body, out any) error
	PutByID(ctx context.Context, route string, id model.ID, body, out any) error
	DeleteByID(ctx context.Context, route string, id model.ID) error
}

// Reconciler lists a user's meal plans and mediates every change to which
// plan is active. Activation always deactivates the currently active
// siblings first; the two writes are logged step by step and a failure in
// between is reported as an *ActivationError.
type Reconciler struct {
	api    API
	logger gateway.Logger
}

// New creates a Reconciler. A nil logger falls back to log.Default().
func New(api API, logger gateway.Logger) *Reconciler {
	if logger == nil {
		logger = log.Default()
	}
	return &Reconciler{api: api, logger: logger}
}

// ListPlans returns the session user's plans. The backend is not trusted to
// scope the list, so plans are filtered by user id; ids compare as strings
// so numeric and string ids from the backend match.
func (r *Reconciler) ListPlans(ctx context.Context, sess model.Session) ([]model.MealPlan, error) {
	if !sess.Valid() {
		return nil, ErrNoSession
	}

	var all []model.MealPlan
	found, err := r.api.Fetch(ctx, userPlansRoute, &all)
	if err != nil {
		return nil, fmt.Errorf("listing plans: %w", err)
	}
	if !found {
		return []model.MealPlan{}, nil
	}

	mine := make([]model.MealPlan, 0, len(all))
	for _, p := range all {
		if p.UserID.String() == sess.UserID.String() {
			mine = append(mine, p)
		}
	}
	return mine, nil
}

// FindActivePlan returns the first active plan in list order. When the
// backend reports several active plans the first one wins.
func FindActivePlan(plans []model.MealPlan) (model.MealPlan, bool) {
	for _, p := range plans {
		if p.Active {
			return p, true
		}
	}
	return model.MealPlan{}, false
}

// ActivePlan lists the user's plans and returns the active one.
func (r *Reconciler) ActivePlan(ctx context.Context, sess model.Session) (model.MealPlan, bool, error) {
	plans, err := r.ListPlans(ctx, sess)
	if err != nil {
		return model.MealPlan{}, false, err
	}
	p, ok := FindActivePlan(plans)
	return p, ok, nil
}

// UpdatePlan saves the draft's name, targets, and source over plan id. The
// activation flag is left alone; use ActivatePlan or DeactivatePlan.
func (r *Reconciler) UpdatePlan(
	ctx context.Context,
	sess model.Session,
	id model.ID,
	draft PlanDraft,
) (model.MealPlan, error) {
	if !sess.Valid() {
		return model.MealPlan{}, ErrNoSession
	}
	plan, err := draft.Validate()
	if err != nil {
		return model.MealPlan{}, err
	}

	body := planUpdate{
		PlanName:       plan.PlanName,
		TargetCalories: plan.TargetCalories,
		TargetProtein:  plan.TargetProtein,
		TargetCarbs:    plan.TargetCarbs,
		TargetFat:      plan.TargetFat,
		TargetWater:    plan.TargetWater,
		Source:         plan.Source,
		UserID:         sess.UserID,
	}

	var saved model.MealPlan
	if err := r.api.PutByID(ctx, plansRoute, id, body, &saved); err != nil {
		return model.MealPlan{}, fmt.Errorf("updating plan %s: %w", id, err)
	}
	if saved.PlanID.IsZero() {
		saved = plan
		saved.PlanID = id
		saved.UserID = sess.UserID
	}
	return saved, nil
}

// planUpdate is the PUT body for an edit; it has no active field so an
// edit never changes which plan is active.
type planUpdate struct {
	PlanName       string           `json:"plan_name"`
	TargetCalories *model.Decimal   `json:"target_calories,omitempty"`
	TargetProtein  *model.Decimal   `json:"target_protein,omitempty"`
	TargetCarbs    *model.Decimal   `json:"target_carbs,omitempty"`
	TargetFat      *model.Decimal   `json:"target_fat,omitempty"`
	TargetWater    *model.Decimal   `json:"target_water,omitempty"`
	Source         model.PlanSource `json:"source"`
	UserID         model.ID         `json:"user_id"`
}

type activeUpdate struct {
	Active bool `json:"active"`
}

// DeactivatePlan sets active=false on plan id. It is always safe to call
// and never activates anything.
func (r *Reconciler) DeactivatePlan(ctx context.Context, id model.ID) error {
	if err := r.setActive(ctx, id, false); err != nil {
		return fmt.Errorf("deactivating plan %s: %w", id, err)
	}
	return nil
}

// ActivatePlan makes id the user's only active plan, deactivating every
// other active plan first.
func (r *Reconciler) ActivatePlan(ctx context.Context, sess model.Session, id model.ID) error {
	plans, err := r.ListPlans(ctx, sess)
	if err != nil {
		return err
	}

	var siblings []model.ID
	for _, p := range plans {
		if p.Active && p.PlanID != id {
			siblings = append(siblings, p.PlanID)
		}
	}
	return r.switchActive(ctx, sess, id, siblings)
}

// SwitchActivePlan deactivates oldID, when set, and then activates newID.
func (r *Reconciler) SwitchActivePlan(ctx context.Context, sess model.Session, newID, oldID model.ID) error {
	if !sess.Valid() {
		return ErrNoSession
	}
	var olds []model.ID
	if !oldID.IsZero() && oldID != newID {
		olds = append(olds, oldID)
	}
	return r.switchActive(ctx, sess, newID, olds)
}

// switchActive runs the deactivate-then-activate sequence. If activation
// fails after siblings were switched off, they are switched back on so the
// user is not left without an active plan.
func (r *Reconciler) switchActive(ctx context.Context, sess model.Session, newID model.ID, olds []model.ID) error {
	deactivated, err := r.deactivateAll(ctx, sess, olds)
	if err != nil {
		return err
	}

	r.logger.Printf("plans: user %s: activating plan %s", sess.UserID, newID)
	if err := r.setActive(ctx, newID, true); err != nil {
		return r.failAfterDeactivate(ctx, sess, StepActivate, newID, deactivated, err)
	}
	r.logger.Printf("plans: user %s: plan %s is now active", sess.UserID, newID)
	return nil
}

// deactivateAll switches off each plan in order. A failure part way
// reactivates the ones already switched off.
func (r *Reconciler) deactivateAll(ctx context.Context, sess model.Session, ids []model.ID) ([]model.ID, error) {
	done := make([]model.ID, 0, len(ids))
	for _, id := range ids {
		r.logger.Printf("plans: user %s: deactivating plan %s", sess.UserID, id)
		if err := r.setActive(ctx, id, false); err != nil {
			return nil, r.failAfterDeactivate(ctx, sess, StepDeactivate, id, done, err)
		}
		done = append(done, id)
	}
	return done, nil
}

// failAfterDeactivate tries to reactivate the plans switched off so far and
// builds the ActivationError describing the final state.
func (r *Reconciler) failAfterDeactivate(
	ctx context.Context,
	sess model.Session,
	step string,
	planID model.ID,
	deactivated []model.ID,
	cause error,
) error {
	r.logger.Printf("plans: user %s: %s plan %s failed: %v", sess.UserID, step, planID, cause)

	actErr := &ActivationError{
		Step:        step,
		PlanID:      planID,
		Deactivated: deactivated,
		Err:         cause,
	}
	if len(deactivated) == 0 {
		return actErr
	}

	// The restore outlives a cancelled caller so plans are not left inactive.
	restoreCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), restoreTimeout)
	defer cancel()

	restored := true
	for _, id := range deactivated {
		if err := r.setActive(restoreCtx, id, true); err != nil {
			r.logger.Printf("plans: user %s: reactivating plan %s failed: %v", sess.UserID, id, err)
			restored = false
			continue
		}
		r.logger.Printf("plans: user %s: reactivated plan %s", sess.UserID, id)
	}
	actErr.Restored = restored
	return actErr
}

func (r *Reconciler) setActive(ctx context.Context, id model.ID, active bool) error {
	return r.api.PutByID(ctx, plansRoute, id, activeUpdate{Active: active}, nil)
}

// DeleteResult reports what a deletion changed.
type DeleteResult struct {
	// WasActive is true when the deleted plan was the active one; the
	// caller must drop any dashboard or active-plan state it holds.
	WasActive bool
}

// DeletePlan removes plan id. The backend cascades the plan's meals.
func (r *Reconciler) DeletePlan(ctx context.Context, sess model.Session, id model.ID) (DeleteResult, error) {
	plans, err := r.ListPlans(ctx, sess)
	if err != nil {
		return DeleteResult{}, err
	}

	var res DeleteResult
	for _, p := range plans {
		if p.PlanID == id {
			res.WasActive = p.Active
			break
		}
	}

	if err := r.api.DeleteByID(ctx, plansRoute, id); err != nil {
		return DeleteResult{}, fmt.Errorf("deleting plan %s: %w", id, err)
	}
	r.logger.Printf("plans: user %s: deleted plan %s (active=%t)", sess.UserID, id, res.WasActive)
	return res, nil
}
