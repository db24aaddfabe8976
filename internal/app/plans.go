package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/diet-tracker/internal/model"
	"github.com/nhle/diet-tracker/internal/plans"
	"github.com/nhle/diet-tracker/internal/theme"
)

func (a *App) plansCmd(ctx context.Context, args []string) error {
	sess, err := a.session()
	if err != nil {
		return err
	}
	if len(args) == 0 || args[0] == "list" {
		return a.listPlans(ctx, sess)
	}

	switch args[0] {
	case "create":
		return a.createPlan(ctx, sess)
	case "edit":
		if len(args) != 2 {
			return usageError("plans edit <planID>")
		}
		return a.editPlan(ctx, sess, model.ID(args[1]))
	case "activate":
		if len(args) != 2 {
			return usageError("plans activate <planID>")
		}
		if err := a.plans.ActivatePlan(ctx, sess, model.ID(args[1])); err != nil {
			return err
		}
		a.printf("Plan %s is now active\n", args[1])
		return nil
	case "deactivate":
		if len(args) != 2 {
			return usageError("plans deactivate <planID>")
		}
		if err := a.plans.DeactivatePlan(ctx, model.ID(args[1])); err != nil {
			return err
		}
		a.printf("Plan %s is no longer active\n", args[1])
		return nil
	case "delete":
		if len(args) != 2 {
			return usageError("plans delete <planID>")
		}
		res, err := a.plans.DeletePlan(ctx, sess, model.ID(args[1]))
		if err != nil {
			return err
		}
		a.printf("Deleted plan %s\n", args[1])
		if res.WasActive {
			a.printf("It was the active plan; the dashboard now uses default targets\n")
		}
		return nil
	default:
		return usageError("unknown plans command %q", args[0])
	}
}

func (a *App) listPlans(ctx context.Context, sess model.Session) error {
	list, err := a.plans.ListPlans(ctx, sess)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		a.printf("No meal plans yet\n")
		return nil
	}

	rows := make([][]string, 0, len(list))
	for _, p := range list {
		mark := ""
		if p.Active {
			mark = theme.ActiveBadgeStyle.Render("*")
		}
		t := p.Targets()
		rows = append(rows, []string{
			mark, p.PlanID.String(), p.PlanName,
			fmt.Sprintf("%.0f", t.Calories),
			fmt.Sprintf("%.0f", t.Protein),
			fmt.Sprintf("%.0f", t.Carbs),
			fmt.Sprintf("%.0f", t.Fat),
			fmt.Sprintf("%.0f", t.Water),
		})
	}
	a.printTable([]string{"", "ID", "NAME", "KCAL", "PROTEIN", "CARBS", "FAT", "WATER"}, rows)
	return nil
}

func (a *App) createPlan(ctx context.Context, sess model.Session) error {
	draft, err := a.prompts.PlanDraft(ctx)
	if err != nil {
		return err
	}
	res, err := a.plans.CreatePlan(ctx, sess, draft, a.prompts)
	if errors.Is(err, plans.ErrCreateCancelled) {
		a.printf("Cancelled\n")
		return nil
	}
	if err != nil {
		return err
	}

	state := "inactive"
	if res.Plan.Active {
		state = "active"
	}
	a.printf("Created plan %q (%s)\n", res.Plan.PlanName, state)
	if res.Replaced != nil {
		a.printf("Deactivated %q\n", res.Replaced.PlanName)
	}
	return nil
}

// editPlan saves the edited name and targets, then applies a change of the
// active flag through the switch or deactivate paths.
func (a *App) editPlan(ctx context.Context, sess model.Session, id model.ID) error {
	list, err := a.plans.ListPlans(ctx, sess)
	if err != nil {
		return err
	}
	var current model.MealPlan
	found := false
	for _, p := range list {
		if p.PlanID == id {
			current, found = p, true
			break
		}
	}
	if !found {
		return fmt.Errorf("plan %s not found", id)
	}

	draft, err := a.prompts.EditPlan(ctx, plans.DraftFromPlan(current))
	if errors.Is(err, plans.ErrEditCancelled) {
		a.printf("Cancelled\n")
		return nil
	}
	if err != nil {
		return err
	}

	saved, err := a.plans.UpdatePlan(ctx, sess, id, draft)
	if err != nil {
		return err
	}
	a.printf("Updated plan %q\n", saved.PlanName)

	switch {
	case draft.Active && !current.Active:
		var oldID model.ID
		if prev, ok := plans.FindActivePlan(list); ok {
			oldID = prev.PlanID
		}
		if err := a.plans.SwitchActivePlan(ctx, sess, id, oldID); err != nil {
			return err
		}
		a.printf("Plan %s is now active\n", id)
	case !draft.Active && current.Active:
		if err := a.plans.DeactivatePlan(ctx, id); err != nil {
			return err
		}
		a.printf("Plan %s is no longer active\n", id)
	}
	return nil
}
