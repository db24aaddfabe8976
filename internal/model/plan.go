package model

// PlanSource records how a meal plan was created.
type PlanSource string

const (
	PlanSourceManual    PlanSource = "MANUAL"
	PlanSourceAutomatic PlanSource = "AUTOMATIC"
)

// Valid reports whether s is one of the known plan sources.
func (s PlanSource) Valid() bool {
	return s == PlanSourceManual || s == PlanSourceAutomatic
}

// MealPlan is a user's nutrition plan with its daily targets. At most one
// plan per user is expected to be active at a time; the client keeps that
// true by deactivating siblings before activating a plan.
type MealPlan struct {
	PlanID         ID         `json:"plan_id,omitempty"`
	PlanName       string     `json:"plan_name"`
	TargetCalories *Decimal   `json:"target_calories,omitempty"`
	TargetProtein  *Decimal   `json:"target_protein,omitempty"`
	TargetCarbs    *Decimal   `json:"target_carbs,omitempty"`
	TargetFat      *Decimal   `json:"target_fat,omitempty"`
	TargetWater    *Decimal   `json:"target_water,omitempty"`
	Source         PlanSource `json:"source"`
	Active         bool       `json:"active"`
	UserID         ID         `json:"user_id"`
}

// Targets returns the plan's daily targets. Targets the plan does not set
// (missing or zero) fall back to the matching value in DefaultTargets.
func (p MealPlan) Targets() Targets {
	def := DefaultTargets()
	return Targets{
		Calories: orDefault(p.TargetCalories, def.Calories),
		Protein:  orDefault(p.TargetProtein, def.Protein),
		Carbs:    orDefault(p.TargetCarbs, def.Carbs),
		Fat:      orDefault(p.TargetFat, def.Fat),
		Water:    orDefault(p.TargetWater, def.Water),
	}
}

func orDefault(v *Decimal, def float64) float64 {
	if v == nil || *v <= 0 {
		return def
	}
	return v.Float()
}

// Targets are the daily nutrition goals shown on the dashboard. Water is in
// millilitres, the macros in grams.
type Targets struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Water    float64 `json:"water"`
}

// DefaultTargets are used when the user has no active plan so the
// dashboard always has something to measure against.
func DefaultTargets() Targets {
	return Targets{
		Calories: 2000,
		Protein:  150,
		Carbs:    250,
		Fat:      70,
		Water:    2500,
	}
}
