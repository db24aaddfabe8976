package dashboard

import (
	"time"

	"github.com/nhle/diet-tracker/internal/model"
)

// WeekDays is the length of the trailing calorie series.
const WeekDays = 7

// JoinedRecord is a consumption record with the facts of the food it
// refers to. Aliment is nil when the food could not be loaded.
type JoinedRecord struct {
	Record  model.MealRecord
	Aliment *model.Aliment
}

// Nutrients returns what the record contributed, and false when its food
// is unknown.
func (j JoinedRecord) Nutrients() (model.Nutrients, bool) {
	if j.Aliment == nil {
		return model.Nutrients{}, false
	}
	return j.Aliment.ForQuantity(j.Record.Amount.Float()), true
}

// Input is everything Derive needs.
type Input struct {
	Now  time.Time
	Plan *model.MealPlan

	// Today holds today's records; Week holds the records of the last
	// WeekDays days, today included.
	Today []JoinedRecord
	Week  []JoinedRecord
}

// Percentages are consumed/target ratios in percent.
type Percentages struct {
	Calories float64
	Protein  float64
	Carbs    float64
	Fat      float64
}

// DayPoint is one day of the weekly series.
type DayPoint struct {
	Date     time.Time
	Calories float64
}

// Label is the short weekday name of the point.
func (p DayPoint) Label() string { return p.Date.Format("Mon") }

// Data is the derived dashboard content. It is recomputed on every load.
type Data struct {
	PlanName      string
	Targets       model.Targets
	UsingDefaults bool
	Consumed      model.Nutrients
	Percent       Percentages
	Weekly        []DayPoint

	// ExcludedRecords counts today's records left out of Consumed because
	// their food could not be loaded.
	ExcludedRecords int
}

// Derive computes the dashboard. Records whose food is unknown are left
// out of the sums rather than counted as zero, and the weekly series
// always has WeekDays points, oldest first, ending on Now's day.
func Derive(in Input) Data {
	var d Data

	if in.Plan != nil {
		d.PlanName = in.Plan.PlanName
		d.Targets = in.Plan.Targets()
	} else {
		d.Targets = model.DefaultTargets()
		d.UsingDefaults = true
	}

	for _, r := range in.Today {
		n, ok := r.Nutrients()
		if !ok {
			d.ExcludedRecords++
			continue
		}
		d.Consumed = d.Consumed.Add(n)
	}

	d.Percent = Percentages{
		Calories: percent(d.Consumed.Calories, d.Targets.Calories),
		Protein:  percent(d.Consumed.Protein, d.Targets.Protein),
		Carbs:    percent(d.Consumed.Carbs, d.Targets.Carbs),
		Fat:      percent(d.Consumed.Fat, d.Targets.Fat),
	}

	d.Weekly = weeklySeries(in.Now, in.Week)
	return d
}

func percent(consumed, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return consumed / target * 100
}

// weeklySeries buckets calories by calendar day in now's location.
func weeklySeries(now time.Time, records []JoinedRecord) []DayPoint {
	loc := now.Location()
	y, m, dd := now.Date()
	today := time.Date(y, m, dd, 0, 0, 0, 0, loc)

	points := make([]DayPoint, WeekDays)
	index := make(map[string]int, WeekDays)
	for i := range points {
		day := today.AddDate(0, 0, i-(WeekDays-1))
		points[i] = DayPoint{Date: day}
		index[day.Format(time.DateOnly)] = i
	}

	for _, r := range records {
		n, ok := r.Nutrients()
		if !ok {
			continue
		}
		day, err := r.Record.Day(loc)
		if err != nil {
			continue
		}
		if i, ok := index[day.Format(time.DateOnly)]; ok {
			points[i].Calories += n.Calories
		}
	}
	return points
}
