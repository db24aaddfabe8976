package plans

import (
	"strconv"
	"strings"

	"github.com/nhle/diet-tracker/internal/model"
)

// PlanDraft is the in-memory form of a plan before it is persisted. Target
// fields hold the text the user typed; empty means "not set".
type PlanDraft struct {
	Name     string
	Calories string
	Protein  string
	Carbs    string
	Fat      string
	Water    string
	Source   model.PlanSource
	Active   bool
}

// DraftFromPlan fills a draft from an existing plan so it can be edited.
func DraftFromPlan(p model.MealPlan) PlanDraft {
	return PlanDraft{
		Name:     p.PlanName,
		Calories: formatTarget(p.TargetCalories),
		Protein:  formatTarget(p.TargetProtein),
		Carbs:    formatTarget(p.TargetCarbs),
		Fat:      formatTarget(p.TargetFat),
		Water:    formatTarget(p.TargetWater),
		Source:   p.Source,
		Active:   p.Active,
	}
}

func formatTarget(v *model.Decimal) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(v.Float(), 'f', -1, 64)
}

// Validate checks the draft and converts it into a plan ready to submit.
// The returned plan has no id or owner.
func (d PlanDraft) Validate() (model.MealPlan, error) {
	fields := map[string]string{}

	name := strings.TrimSpace(d.Name)
	if name == "" {
		fields["name"] = "is required"
	}

	source := d.Source
	if source == "" {
		source = model.PlanSourceManual
	}
	if !source.Valid() {
		fields["source"] = "must be MANUAL or AUTOMATIC"
	}

	plan := model.MealPlan{
		PlanName: name,
		Source:   source,
		Active:   d.Active,
	}

	targets := []struct {
		name string
		text string
		dst  **model.Decimal
	}{
		{"calories", d.Calories, &plan.TargetCalories},
		{"protein", d.Protein, &plan.TargetProtein},
		{"carbs", d.Carbs, &plan.TargetCarbs},
		{"fat", d.Fat, &plan.TargetFat},
		{"water", d.Water, &plan.TargetWater},
	}
	for _, t := range targets {
		v, msg := parseTarget(t.text)
		if msg != "" {
			fields[t.name] = msg
			continue
		}
		*t.dst = v
	}

	if len(fields) > 0 {
		return model.MealPlan{}, &ValidationError{Fields: fields}
	}
	return plan, nil
}

// parseTarget accepts a non-negative number, with either "." or "," as the
// decimal separator. Empty text yields nil.
func parseTarget(text string) (*model.Decimal, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ""
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
	if err != nil {
		return nil, "must be a number"
	}
	if f < 0 {
		return nil, "must not be negative"
	}
	return model.DecimalPtr(f), ""
}
