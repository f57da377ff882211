package core

import (
	"github.com/shopspring/decimal"
)

// BudgetStatus describes the state of the running balance.
type BudgetStatus string

const (
	// BudgetOK means the remaining balance is zero or positive.
	BudgetOK BudgetStatus = "ok"
	// BudgetOverspent means the remaining balance went negative. Over-budget
	// is a valid, reportable state, not an error, and is never clamped.
	BudgetOverspent BudgetStatus = "over_budget"
)

// LedgerEntry is one dated record in the append-only budget history. The
// ledger's current balance is always the Remaining field of its most recent
// entry; there is no separate mutable balance cell.
type LedgerEntry struct {
	Date      Date
	Allocated decimal.Decimal
	Spent     decimal.Decimal
	Remaining decimal.Decimal
	CarryOver decimal.Decimal
}

// Status reports whether the entry's balance is over budget.
func (e LedgerEntry) Status() BudgetStatus {
	if e.Remaining.IsNegative() {
		return BudgetOverspent
	}
	return BudgetOK
}

// OverBudget reports whether the remaining balance is negative.
func (e LedgerEntry) OverBudget() bool {
	return e.Remaining.IsNegative()
}
