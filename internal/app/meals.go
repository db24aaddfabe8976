package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/diet-tracker/internal/foods"
	"github.com/nhle/diet-tracker/internal/model"
	"github.com/nhle/diet-tracker/internal/tracker"
)

func (a *App) mealsCmd(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("meals [list] <planID>")
	}
	sess, err := a.session()
	if err != nil {
		return err
	}

	switch args[0] {
	case "list":
		if len(args) != 2 {
			return usageError("meals list <planID>")
		}
		return a.listMeals(ctx, sess, model.ID(args[1]))
	case "create":
		if len(args) < 3 || len(args) > 4 {
			return usageError("meals create <planID> <name> [category]")
		}
		category := ""
		if len(args) == 4 {
			category = args[3]
		}
		meal, err := a.foods.CreateMeal(ctx, model.ID(args[1]), args[2], category)
		if err != nil {
			return err
		}
		a.printf("Created meal %q [%s]\n", meal.MealName, meal.MealID)
		return nil
	case "delete":
		if len(args) != 2 {
			return usageError("meals delete <mealID>")
		}
		if err := a.foods.DeleteMeal(ctx, model.ID(args[1])); err != nil {
			return err
		}
		a.printf("Deleted meal %s\n", args[1])
		return nil
	case "add":
		return a.addFood(ctx, args[1:])
	case "remove":
		return a.removeFood(ctx, args[1:])
	default:
		if len(args) != 1 {
			return usageError("meals [list] <planID>")
		}
		return a.listMeals(ctx, sess, model.ID(args[0]))
	}
}

func (a *App) listMeals(ctx context.Context, sess model.Session, planID model.ID) error {
	view, err := a.foods.AggregatePlan(ctx, planID)
	if err != nil {
		return err
	}
	if err := a.tracker.Rebuild(ctx, sess, mealIDs(view)); err != nil {
		return err
	}

	for _, g := range foods.GroupByCategory(view.Meals) {
		a.printf("== %s ==\n", g.Category)
		for _, m := range g.Meals {
			a.printf("%s [%s]  %.0f kcal\n", m.Meal.MealName, m.Meal.MealID, m.Totals.Calories)
			if m.LoadErr != nil {
				a.printf("  (foods unavailable)\n")
				continue
			}
			for _, f := range m.Foods {
				box := "[ ]"
				if a.tracker.IsConsumed(f.MealID, f.Aliment.AlimentID) {
					box = "[x]"
				}
				a.printf("  %s %s [%s] %g %s  %.0f kcal\n",
					box, f.Aliment.Name, f.Aliment.AlimentID, f.Quantity, f.Unit, f.Nutrients.Calories)
			}
		}
	}
	t := view.Totals
	a.printf("Total: %.0f kcal, %.1f g protein, %.1f g carbs, %.1f g fat\n",
		t.Calories, t.Protein, t.Carbs, t.Fat)
	return nil
}

func (a *App) addFood(ctx context.Context, args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return usageError("meals add <mealID> <alimentID> <qty> [unit]")
	}
	qty, err := parseQuantity(args[2])
	if err != nil {
		return usageError("quantity %q is not a number", args[2])
	}
	unit := ""
	if len(args) == 4 {
		unit = args[3]
	}

	mealID, alimentID := model.ID(args[0]), model.ID(args[1])
	aliment, found, err := a.foods.GetAliment(ctx, alimentID)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("aliment %s not found", alimentID)
	}

	rel, err := a.foods.AddFood(ctx, mealID, alimentID, qty, unit)
	if err != nil {
		return err
	}
	a.printf("Added %g %s of %s to meal %s\n", rel.Quantity.Float(), rel.MeasurementUnit, aliment.Name, mealID)
	return nil
}

func (a *App) removeFood(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usageError("meals remove <planID> <mealID> <alimentID>")
	}
	planID, mealID, alimentID := model.ID(args[0]), model.ID(args[1]), model.ID(args[2])

	view, err := a.foods.AggregatePlan(ctx, planID)
	if err != nil {
		return err
	}
	row, ok := findRow(view, mealID, alimentID)
	if !ok {
		return fmt.Errorf("aliment %s is not in meal %s of plan %s", alimentID, mealID, planID)
	}
	if err := a.foods.RemoveFood(ctx, row); err != nil {
		return err
	}
	a.printf("Removed %s from meal %s\n", row.Aliment.Name, mealID)
	return nil
}

func (a *App) toggle(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return usageError("toggle <planID> <mealID> <alimentID>")
	}
	sess, err := a.session()
	if err != nil {
		return err
	}
	planID, mealID, alimentID := model.ID(args[0]), model.ID(args[1]), model.ID(args[2])

	view, err := a.foods.AggregatePlan(ctx, planID)
	if err != nil {
		return err
	}
	row, ok := findRow(view, mealID, alimentID)
	if !ok {
		return fmt.Errorf("aliment %s is not in meal %s of plan %s", alimentID, mealID, planID)
	}
	if err := a.tracker.Rebuild(ctx, sess, mealIDs(view)); err != nil {
		return err
	}

	consumed, err := a.tracker.Toggle(ctx, sess, mealID, alimentID,
		tracker.FoodContext{Quantity: row.Quantity, Unit: row.Unit})
	if err != nil {
		return err
	}
	if consumed {
		a.printf("%s marked as eaten today\n", row.Aliment.Name)
	} else {
		a.printf("%s no longer marked as eaten today\n", row.Aliment.Name)
	}
	return nil
}

func (a *App) foodsCmd(ctx context.Context, args []string) error {
	if _, err := a.session(); err != nil {
		return err
	}
	if len(args) < 2 {
		return usageError("foods search <name...> | foods show <alimentID>")
	}

	switch args[0] {
	case "search":
		found, err := a.foods.SearchAliments(ctx, strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		if len(found) == 0 {
			a.printf("No foods found\n")
			return nil
		}
		a.printAliments(found)
		return nil
	case "show":
		if len(args) != 2 {
			return usageError("foods show <alimentID>")
		}
		al, ok, err := a.foods.GetAliment(ctx, model.ID(args[1]))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("aliment %s not found", args[1])
		}
		a.printAliments([]model.Aliment{al})
		return nil
	default:
		return usageError("unknown foods command %q", args[0])
	}
}

func (a *App) printAliments(list []model.Aliment) {
	rows := make([][]string, 0, len(list))
	for _, al := range list {
		rows = append(rows, []string{
			al.AlimentID.String(), al.Name,
			fmt.Sprintf("%g", al.Calories100.Float()),
			fmt.Sprintf("%g", al.Protein100.Float()),
			fmt.Sprintf("%g", al.Carbs100.Float()),
			fmt.Sprintf("%g", al.Fat100.Float()),
		})
	}
	a.printTable([]string{"ID", "NAME", "KCAL/100", "PROTEIN", "CARBS", "FAT"}, rows)
}

func mealIDs(view *foods.PlanView) []model.ID {
	ids := make([]model.ID, 0, len(view.Meals))
	for _, m := range view.Meals {
		ids = append(ids, m.Meal.MealID)
	}
	return ids
}

func findRow(view *foods.PlanView, mealID, alimentID model.ID) (foods.FoodRow, bool) {
	for _, m := range view.Meals {
		if m.Meal.MealID != mealID {
			continue
		}
		for _, f := range m.Foods {
			if f.Aliment.AlimentID == alimentID {
				return f, true
			}
		}
	}
	return foods.FoodRow{}, false
}
