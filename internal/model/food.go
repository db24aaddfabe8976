package model

// DefaultMealCategory is the group a meal lands in when it has no category.
const DefaultMealCategory = "Outros"

// Meal is a named slot within a plan, e.g. "Lunch".
type Meal struct {
	MealID   ID     `json:"meal_id,omitempty"`
	MealName string `json:"meal_name"`
	PlanID   ID     `json:"plan_id"`
	Category string `json:"category,omitempty"`
}

// Aliment is a global food record with nutrition facts per 100 units.
type Aliment struct {
	AlimentID   ID      `json:"aliment_id"`
	Name        string  `json:"name"`
	Calories100 Decimal `json:"calories_100g"`
	Protein100  Decimal `json:"protein_100g"`
	Carbs100    Decimal `json:"carbs_100g"`
	Fat100      Decimal `json:"fat_100g"`
}

// ForQuantity scales the per-100 facts to quantity. The measurement unit is
// display-only and does not take part in the scaling.
func (a Aliment) ForQuantity(quantity float64) Nutrients {
	return Nutrients{
		Calories: scale(a.Calories100, quantity),
		Protein:  scale(a.Protein100, quantity),
		Carbs:    scale(a.Carbs100, quantity),
		Fat:      scale(a.Fat100, quantity),
	}
}

func scale(per100 Decimal, quantity float64) float64 {
	if per100 == 0 || quantity == 0 {
		return 0
	}
	return per100.Float() * quantity / 100
}

// MealAliment assigns a quantity of an aliment to a meal.
type MealAliment struct {
	MealAlimentID   ID      `json:"meal_aliment_id,omitempty"`
	ID              ID      `json:"id,omitempty"`
	MealID          ID      `json:"meal_id"`
	AlimentID       ID      `json:"aliment_id"`
	Quantity        Decimal `json:"quantity"`
	MeasurementUnit string  `json:"measurement_unit"`
}

// RelationID returns the relation id, preferring meal_aliment_id and
// falling back to the generic id some endpoints report instead.
func (m MealAliment) RelationID() ID {
	if !m.MealAlimentID.IsZero() {
		return m.MealAlimentID
	}
	return m.ID
}

// MealFoodEntry is one row of GET meals/:id/aliments: the aliment's facts
// joined with the quantity assigned to the meal.
type MealFoodEntry struct {
	Aliment
	MealAlimentID   ID      `json:"meal_aliment_id,omitempty"`
	ID              ID      `json:"id,omitempty"`
	Quantity        Decimal `json:"quantity"`
	MeasurementUnit string  `json:"measurement_unit"`
}

// ReportedRelationID is the relation id the entry carries itself, if any.
func (e MealFoodEntry) ReportedRelationID() ID {
	if !e.MealAlimentID.IsZero() {
		return e.MealAlimentID
	}
	return e.ID
}

// RelationRef identifies the meal↔food relation behind a food row. When
// neither the relation set nor the row itself carries an id the reference
// is unresolved, and operations that need the id must refuse to run.
type RelationRef struct {
	id ID
}

// ResolvedRelation returns a reference to the relation with the given id.
// A zero id yields an unresolved reference.
func ResolvedRelation(id ID) RelationRef {
	return RelationRef{id: id}
}

// UnresolvedRelation returns a reference with no known relation id.
func UnresolvedRelation() RelationRef {
	return RelationRef{}
}

// ID returns the relation id and whether it is known.
func (r RelationRef) ID() (ID, bool) {
	return r.id, !r.id.IsZero()
}

// Resolved reports whether the relation id is known.
func (r RelationRef) Resolved() bool { return !r.id.IsZero() }

// Nutrients is a calories/macros tuple.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// Add returns the element-wise sum of n and o.
func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}
