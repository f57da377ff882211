package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryChange is the movement of a single category between a reference
// snapshot and the current one. HasPercent is false when the reference amount
// for the category is zero, in which case no percentage exists ("no prior
// data"), deliberately distinct from a numeric 0.
type CategoryChange struct {
	Key        string
	Amount     decimal.Decimal
	Delta      decimal.Decimal
	Percent    decimal.Decimal
	HasPercent bool
}

// ValuationSummary is derived, never stored: per-snapshot total plus
// per-category deltas and percentages against a reference snapshot.
// Categories are ordered by descending current amount, ready for
// presentation.
type ValuationSummary struct {
	Snapshot   Snapshot
	Reference  *Snapshot
	Total      decimal.Decimal
	Delta      decimal.Decimal
	Percent    decimal.Decimal
	HasPercent bool
	Categories []CategoryChange
}

// Summarize derives a ValuationSummary for snap against ref. It is a pure
// function with no storage side effects; ref may be nil when no prior
// snapshot exists, in which case every delta equals the current amount and
// no percentage is defined.
func Summarize(reg *Registry, snap Snapshot, ref *Snapshot) ValuationSummary {
	summary := ValuationSummary{
		Snapshot: snap.Clone(),
		Total:    snap.Total(),
	}
	if ref != nil {
		clone := ref.Clone()
		summary.Reference = &clone
	}

	refTotal := decimal.Zero
	if ref != nil {
		refTotal = ref.Total()
	}
	summary.Delta = summary.Total.Sub(refTotal)
	summary.Percent, summary.HasPercent = PercentChange(refTotal, summary.Total)

	for _, key := range reg.Keys() {
		amount := snap.Value(key)
		refAmount := decimal.Zero
		if ref != nil {
			refAmount = ref.Value(key)
		}
		change := CategoryChange{
			Key:    key,
			Amount: amount,
			Delta:  amount.Sub(refAmount),
		}
		change.Percent, change.HasPercent = PercentChange(refAmount, amount)
		summary.Categories = append(summary.Categories, change)
	}

	// Descending by amount; registry order breaks ties so output is stable.
	sort.SliceStable(summary.Categories, func(i, j int) bool {
		return summary.Categories[i].Amount.GreaterThan(summary.Categories[j].Amount)
	})

	return summary
}

// PercentChange computes (current-reference)/reference*100. The percentage is
// undefined when the reference is zero: the second return is false and the
// caller must render "no prior data" rather than a number.
func PercentChange(reference, current decimal.Decimal) (decimal.Decimal, bool) {
	if reference.IsZero() {
		return decimal.Zero, false
	}
	return current.Sub(reference).Div(reference).Mul(decimal.NewFromInt(100)), true
}
