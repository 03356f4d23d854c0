// Package reconcile builds cumulative target-versus-actual series over the
// months of a fiscal year.
//
// Achieved values carry forward through closed months even when a month saw
// no activity. From the current month onward a month with no recorded delta
// reports zero instead of a flat line, since its data is not yet in. Targets
// are known in advance and always accumulate.
package reconcile

import (
	"github.com/okian/crmpulse/internal/domain/fiscal"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Row labels of a reconciliation table.
const (
	RowTarget      = "Target"
	RowActual      = "Actual"
	RowAchievement = "Achievement%"
	RowBalance     = "Balance"
)

// Point holds the raw deltas for one month.
type Point struct {
	Month         fiscal.Month
	AchievedDelta decimal.Decimal
	TargetDelta   decimal.Decimal
}

// Cell is one month of the cumulative series.
type Cell struct {
	Month fiscal.Month
	// Achieved is the displayed cumulative achieved value.
	Achieved decimal.Decimal
	Target   decimal.Decimal
	// Reported is false for current or future months with no delta.
	Reported bool
}

// Achievement returns 100*Achieved/Target, or zero when Target is zero.
func (c Cell) Achievement() decimal.Decimal {
	if c.Target.IsZero() {
		return decimal.Zero
	}
	return c.Achieved.Mul(hundred).Div(c.Target)
}

// Balance returns Target-Achieved. Negative means the target was exceeded.
func (c Cell) Balance() decimal.Decimal {
	return c.Target.Sub(c.Achieved)
}

// Series is a cumulative series in fiscal month order.
type Series []Cell

// Cumulate walks points in order and applies the carry rule relative to now.
// Points must be in fiscal order; inputs are not modified.
func Cumulate(points []Point, now fiscal.Month) Series {
	out := make(Series, len(points))
	achieved, target := decimal.Zero, decimal.Zero
	for i, p := range points {
		target = target.Add(p.TargetDelta)
		cell := Cell{Month: p.Month, Target: target, Reported: true}
		switch {
		case p.Month.Before(now):
			achieved = achieved.Add(p.AchievedDelta)
			cell.Achieved = achieved
		case p.AchievedDelta.IsZero():
			cell.Achieved = decimal.Zero
			cell.Reported = false
		default:
			achieved = achieved.Add(p.AchievedDelta)
			cell.Achieved = achieved
		}
		out[i] = cell
	}
	return out
}

// Achieved returns the displayed cumulative achieved values.
func (s Series) Achieved() []decimal.Decimal {
	out := make([]decimal.Decimal, len(s))
	for i, c := range s {
		out[i] = c.Achieved
	}
	return out
}

// Row is one labelled line of a reconciliation table.
type Row struct {
	Label  string
	Values []decimal.Decimal
}

// Table renders the series as the Target, Actual, Achievement% and Balance
// rows. Achievement is rounded to two decimal places.
func (s Series) Table() []Row {
	rows := []Row{
		{Label: RowTarget, Values: make([]decimal.Decimal, len(s))},
		{Label: RowActual, Values: make([]decimal.Decimal, len(s))},
		{Label: RowAchievement, Values: make([]decimal.Decimal, len(s))},
		{Label: RowBalance, Values: make([]decimal.Decimal, len(s))},
	}
	for i, c := range s {
		rows[0].Values[i] = c.Target
		rows[1].Values[i] = c.Achieved
		rows[2].Values[i] = c.Achievement().Round(2)
		rows[3].Values[i] = c.Balance()
	}
	return rows
}

// Points builds one zero-valued point per month, ready to accumulate into.
func Points(months []fiscal.Month) []Point {
	out := make([]Point, len(months))
	for i, m := range months {
		out[i] = Point{Month: m, AchievedDelta: decimal.Zero, TargetDelta: decimal.Zero}
	}
	return out
}
