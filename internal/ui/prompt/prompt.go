// Package prompt holds the interactive forms used by the command line:
// signing in, drafting or editing a meal plan, and settling an active-plan
// conflict.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/diet-tracker/internal/model"
	"github.com/nhle/diet-tracker/internal/plans"
)

// RunFunc runs a form to completion.
type RunFunc func(ctx context.Context, f *huh.Form) error

func runForm(ctx context.Context, f *huh.Form) error {
	return f.RunWithContext(ctx)
}

// Prompter shows forms on the terminal.
type Prompter struct {
	run RunFunc
}

// New creates a Prompter. A nil run uses the terminal.
func New(run RunFunc) *Prompter {
	if run == nil {
		run = runForm
	}
	return &Prompter{run: run}
}

// Password asks for the password of email.
func (p *Prompter) Password(ctx context.Context, email string) (string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Password").
				Description("Signing in as " + email).
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(validateRequired("Password")),
		),
	)
	if err := p.run(ctx, form); err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return password, nil
}

// PlanDraft asks for a new meal plan's name and targets. Empty targets are
// left for the defaults.
func (p *Prompter) PlanDraft(ctx context.Context) (plans.PlanDraft, error) {
	d := plans.PlanDraft{Source: model.PlanSourceManual, Active: true}
	if err := p.run(ctx, planForm(&d, "Make it the active plan?")); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return plans.PlanDraft{}, plans.ErrCreateCancelled
		}
		return plans.PlanDraft{}, fmt.Errorf("reading plan: %w", err)
	}
	return d, nil
}

// EditPlan shows the plan form prefilled with current and returns the
// edited draft.
func (p *Prompter) EditPlan(ctx context.Context, current plans.PlanDraft) (plans.PlanDraft, error) {
	d := current
	if err := p.run(ctx, planForm(&d, "Active plan?")); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return plans.PlanDraft{}, plans.ErrEditCancelled
		}
		return plans.PlanDraft{}, fmt.Errorf("editing plan: %w", err)
	}
	return d, nil
}

func planForm(d *plans.PlanDraft, activeTitle string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("Cutting phase").
				Value(&d.Name).
				Validate(validateRequired("Name")),
			huh.NewInput().Title("Calories (kcal)").Placeholder("2000").Value(&d.Calories).Validate(validateOptionalNumber),
			huh.NewInput().Title("Protein (g)").Placeholder("150").Value(&d.Protein).Validate(validateOptionalNumber),
			huh.NewInput().Title("Carbs (g)").Placeholder("250").Value(&d.Carbs).Validate(validateOptionalNumber),
			huh.NewInput().Title("Fat (g)").Placeholder("70").Value(&d.Fat).Validate(validateOptionalNumber),
			huh.NewInput().Title("Water (ml)").Placeholder("2500").Value(&d.Water).Validate(validateOptionalNumber),
			huh.NewConfirm().
				Title(activeTitle).
				Value(&d.Active),
		),
	)
}

// ResolveConflict asks whether the new plan should replace the active one.
// Aborting the form counts as cancelling.
func (p *Prompter) ResolveConflict(ctx context.Context, current, draft model.MealPlan) (plans.ConflictChoice, error) {
	choice := plans.ChoiceCancel
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[plans.ConflictChoice]().
				Title(fmt.Sprintf("%q is already active", current.PlanName)).
				Description(fmt.Sprintf("What should happen to %q?", draft.PlanName)).
				Options(
					huh.NewOption("Replace the active plan and activate the new one", plans.ChoiceReplaceAndActivate),
					huh.NewOption("Save the new plan as inactive", plans.ChoiceKeepInactive),
					huh.NewOption("Cancel", plans.ChoiceCancel),
				).
				Value(&choice),
		),
	)
	if err := p.run(ctx, form); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return plans.ChoiceCancel, nil
		}
		return plans.ChoiceCancel, err
	}
	return choice, nil
}

var _ plans.ConflictResolver = (*Prompter)(nil)

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// validateOptionalNumber accepts an empty value or a non-negative number
// written with either decimal separator.
func validateOptionalNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return fmt.Errorf("%q is not a number", s)
	}
	if v < 0 {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
