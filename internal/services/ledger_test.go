package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"varlik/internal/core"
	"varlik/internal/rows/memory"
)

func testLedger(t *testing.T) *BudgetLedger {
	t.Helper()
	l := NewBudgetLedger(memory.New(), "ledger")
	l.now = func() core.Date { return core.MustParseDate("2024-06-01") }
	return l
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestLedgerLifecycle(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	if _, err := l.Current(ctx); !errors.Is(err, core.ErrUninitialized) {
		t.Errorf("Current on empty ledger = %v, want ErrUninitialized", err)
	}
	if _, err := l.Spend(ctx, dec(10)); !errors.Is(err, core.ErrUninitialized) {
		t.Errorf("Spend on empty ledger = %v, want ErrUninitialized", err)
	}

	entry, err := l.Initialize(ctx, dec(1000))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !entry.Remaining.Equal(dec(1000)) || !entry.Spent.IsZero() {
		t.Errorf("initial entry = %+v", entry)
	}

	if _, err := l.Initialize(ctx, dec(500)); !errors.Is(err, core.ErrAlreadyInitialized) {
		t.Errorf("second initialize = %v, want ErrAlreadyInitialized", err)
	}
}

// initialize(1000), spend(300), spend(800): the balance goes to -100 and the
// allocation stays untouched throughout.
func TestLedgerOverspend(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	l.Initialize(ctx, dec(1000))
	if _, err := l.Spend(ctx, dec(300)); err != nil {
		t.Fatalf("spend 300: %v", err)
	}
	last, err := l.Spend(ctx, dec(800))
	if err != nil {
		t.Fatalf("spend 800: %v", err)
	}

	if !last.Remaining.Equal(dec(-100)) {
		t.Errorf("remaining = %s, want -100", last.Remaining)
	}
	if !last.Spent.Equal(dec(800)) {
		t.Errorf("spent = %s, want 800", last.Spent)
	}
	if !last.Allocated.Equal(dec(1000)) {
		t.Errorf("allocated = %s, want 1000 unchanged", last.Allocated)
	}
	if last.Status() != core.BudgetOverspent {
		t.Errorf("status = %s, want over_budget", last.Status())
	}

	history, _ := l.History(ctx)
	for _, e := range history {
		if !e.Allocated.Equal(dec(1000)) {
			t.Errorf("allocation drifted to %s", e.Allocated)
		}
	}
}

func TestLedgerRecurrence(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	l.Initialize(ctx, dec(1000))
	l.Spend(ctx, dec(250))
	l.Replenish(ctx, dec(500))
	l.Spend(ctx, dec(100))

	history, err := l.History(ctx)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("entries = %d, want 4", len(history))
	}

	// remaining(i) must equal remaining(i-1) adjusted by exactly that
	// operation's effect.
	for i := 1; i < len(history); i++ {
		prev, cur := history[i-1], history[i]
		var want decimal.Decimal
		if cur.Spent.IsZero() {
			want = prev.Remaining.Add(cur.Allocated) // replenish
		} else {
			want = prev.Remaining.Sub(cur.Spent) // spend
		}
		if !cur.Remaining.Equal(want) {
			t.Errorf("entry %d remaining = %s, want %s", i, cur.Remaining, want)
		}
	}

	current, _ := l.Current(ctx)
	if !current.Remaining.Equal(dec(1150)) {
		t.Errorf("final remaining = %s, want 1150", current.Remaining)
	}
}

func TestReplenishSemantics(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()

	// Replenish on an uninitialized ledger behaves as initialize.
	entry, err := l.Replenish(ctx, dec(800))
	if err != nil {
		t.Fatalf("replenish uninitialized: %v", err)
	}
	if !entry.Remaining.Equal(dec(800)) || !entry.CarryOver.IsZero() {
		t.Errorf("bootstrap replenish = %+v", entry)
	}

	l.Spend(ctx, dec(300))
	entry, err = l.Replenish(ctx, dec(1000))
	if err != nil {
		t.Fatalf("replenish: %v", err)
	}
	if !entry.Allocated.Equal(dec(1000)) || !entry.Spent.IsZero() {
		t.Errorf("replenish entry = %+v", entry)
	}
	if !entry.Remaining.Equal(dec(1500)) {
		t.Errorf("remaining = %s, want 1500 (500 carried + 1000 new)", entry.Remaining)
	}
	if !entry.CarryOver.Equal(dec(500)) {
		t.Errorf("carry-over = %s, want 500", entry.CarryOver)
	}
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	l := testLedger(t)
	ctx := context.Background()
	l.Initialize(ctx, dec(100))

	for _, amount := range []decimal.Decimal{decimal.Zero, dec(-5)} {
		if _, err := l.Spend(ctx, amount); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("Spend(%s) = %v, want ErrInvalidAmount", amount, err)
		}
		if _, err := l.Replenish(ctx, amount); !errors.Is(err, core.ErrInvalidAmount) {
			t.Errorf("Replenish(%s) = %v, want ErrInvalidAmount", amount, err)
		}
	}
	if _, err := l.Initialize(ctx, decimal.Zero); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("Initialize(0) = %v, want ErrInvalidAmount", err)
	}
}

func TestLedgerSurvivesReload(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()

	first := NewBudgetLedger(backend, "ledger")
	first.now = func() core.Date { return core.MustParseDate("2024-06-01") }
	first.Initialize(ctx, dec(1000))
	first.Spend(ctx, dec(400))

	// A second instance over the same table reads the true latest entry.
	second := NewBudgetLedger(backend, "ledger")
	second.now = func() core.Date { return core.MustParseDate("2024-06-02") }
	entry, err := second.Spend(ctx, dec(100))
	if err != nil {
		t.Fatalf("spend on reloaded ledger: %v", err)
	}
	if !entry.Remaining.Equal(dec(500)) {
		t.Errorf("remaining = %s, want 500", entry.Remaining)
	}
}

// Hand-edited sheet cells show up with whitespace and a decimal comma; the
// negative-capable columns must tolerate them just like the others do.
func TestLedgerLoadsHandEditedNegativeCells(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	for _, row := range [][]string{
		{"Date", "Allocated", "Spent", "Remaining", "CarryOver"},
		{"2024-06-01", " 1000 ", "1100,5", " -100,5 ", " -0,5 "},
	} {
		if err := backend.AppendRow(ctx, "ledger", row); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	l := NewBudgetLedger(backend, "ledger")
	entry, err := l.Current(ctx)
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if entry.Remaining.String() != "-100.5" {
		t.Errorf("remaining = %s, want -100.5", entry.Remaining)
	}
	if entry.CarryOver.String() != "-0.5" {
		t.Errorf("carry over = %s, want -0.5", entry.CarryOver)
	}
	if entry.Status() != core.BudgetOverspent {
		t.Errorf("status = %s, want over_budget", entry.Status())
	}
}
