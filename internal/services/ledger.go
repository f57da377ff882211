package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"varlik/internal/core"
	"varlik/internal/rows"
)

var ledgerHeader = []string{core.DateColumn, "Allocated", "Spent", "Remaining", "CarryOver"}

// BudgetLedger is the append-only budget history. Every entry's Remaining is
// derived from the previous entry, so the current balance is always the
// Remaining of the most recent row; there is no separate mutable balance
// cell to drift out of sync.
type BudgetLedger struct {
	table rows.TableStore
	name  string

	// Spend and replenish read the true latest entry and append; the mutex
	// serializes them so the remaining-balance recurrence cannot break under
	// concurrent callers.
	mu sync.Mutex

	now func() core.Date
}

// NewBudgetLedger binds the ledger to one backend table.
func NewBudgetLedger(table rows.TableStore, name string) *BudgetLedger {
	return &BudgetLedger{table: table, name: name, now: core.Today}
}

// Initialize writes the first entry: remaining = allocated, spent = 0. It
// fails with core.ErrAlreadyInitialized when the ledger already has entries;
// starting a fresh period on an active ledger is an explicit Replenish.
func (l *BudgetLedger) Initialize(ctx context.Context, allocated decimal.Decimal) (core.LedgerEntry, error) {
	if !allocated.IsPositive() {
		return core.LedgerEntry{}, fmt.Errorf("%w: allocation must be positive, got %s", core.ErrInvalidAmount, allocated)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, empty, err := l.load(ctx)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if len(entries) > 0 {
		return core.LedgerEntry{}, core.ErrAlreadyInitialized
	}

	entry := core.LedgerEntry{
		Date:      l.now(),
		Allocated: allocated,
		Spent:     decimal.Zero,
		Remaining: allocated,
		CarryOver: decimal.Zero,
	}
	if err := l.append(ctx, entry, empty); err != nil {
		return core.LedgerEntry{}, err
	}
	slog.InfoContext(ctx, "Budget initialized",
		"stream", l.name,
		"allocated", allocated.String())
	return entry, nil
}

// Spend appends an entry deducting amount from the previous remaining
// balance. The balance may go negative: over-budget is a reportable state,
// surfaced through the entry's Status, never clamped.
func (l *BudgetLedger) Spend(ctx context.Context, amount decimal.Decimal) (core.LedgerEntry, error) {
	if !amount.IsPositive() {
		return core.LedgerEntry{}, fmt.Errorf("%w: spend must be positive, got %s", core.ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, empty, err := l.load(ctx)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if len(entries) == 0 {
		return core.LedgerEntry{}, core.ErrUninitialized
	}
	prev := entries[len(entries)-1]

	entry := core.LedgerEntry{
		Date:      l.now(),
		Allocated: prev.Allocated,
		Spent:     amount,
		Remaining: prev.Remaining.Sub(amount),
		CarryOver: prev.CarryOver,
	}
	if err := l.append(ctx, entry, empty); err != nil {
		return core.LedgerEntry{}, err
	}
	slog.InfoContext(ctx, "Budget spend recorded",
		"stream", l.name,
		"spent", amount.String(),
		"remaining", entry.Remaining.String(),
		"status", string(entry.Status()))
	return entry, nil
}

// Replenish starts a new allocation period, carrying the previous remaining
// balance forward. On an uninitialized ledger it behaves as Initialize.
func (l *BudgetLedger) Replenish(ctx context.Context, amount decimal.Decimal) (core.LedgerEntry, error) {
	if !amount.IsPositive() {
		return core.LedgerEntry{}, fmt.Errorf("%w: replenish must be positive, got %s", core.ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, empty, err := l.load(ctx)
	if err != nil {
		return core.LedgerEntry{}, err
	}

	entry := core.LedgerEntry{
		Date:      l.now(),
		Allocated: amount,
		Spent:     decimal.Zero,
	}
	if len(entries) == 0 {
		entry.Remaining = amount
		entry.CarryOver = decimal.Zero
	} else {
		prev := entries[len(entries)-1]
		entry.Remaining = prev.Remaining.Add(amount)
		entry.CarryOver = prev.Remaining
	}
	if err := l.append(ctx, entry, empty); err != nil {
		return core.LedgerEntry{}, err
	}
	slog.InfoContext(ctx, "Budget replenished",
		"stream", l.name,
		"allocated", amount.String(),
		"remaining", entry.Remaining.String())
	return entry, nil
}

// Current returns the most recent entry, or core.ErrUninitialized when the
// ledger has none.
func (l *BudgetLedger) Current(ctx context.Context) (core.LedgerEntry, error) {
	entries, _, err := l.load(ctx)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	if len(entries) == 0 {
		return core.LedgerEntry{}, core.ErrUninitialized
	}
	return entries[len(entries)-1], nil
}

// History returns every entry in append order.
func (l *BudgetLedger) History(ctx context.Context) ([]core.LedgerEntry, error) {
	entries, _, err := l.load(ctx)
	return entries, err
}

func (l *BudgetLedger) append(ctx context.Context, entry core.LedgerEntry, writeHeader bool) error {
	if writeHeader {
		if err := l.table.AppendRow(ctx, l.name, ledgerHeader); err != nil {
			return err
		}
	}
	return l.table.AppendRow(ctx, l.name, []string{
		entry.Date.String(),
		entry.Allocated.String(),
		entry.Spent.String(),
		entry.Remaining.String(),
		entry.CarryOver.String(),
	})
}

func (l *BudgetLedger) load(ctx context.Context) (entries []core.LedgerEntry, empty bool, err error) {
	tbl, err := l.table.ReadAllRows(ctx, l.name)
	if err != nil {
		return nil, false, err
	}
	if tbl.IsEmpty() {
		return nil, true, nil
	}

	header := rows.NormalizeHeader(tbl.Header)
	cols := make([]int, len(ledgerHeader))
	for i, name := range ledgerHeader {
		cols[i] = rows.ColumnIndex(header, name)
		if cols[i] < 0 {
			return nil, false, fmt.Errorf("stream %q: missing column %q in header %v", l.name, name, header)
		}
	}

	entries = make([]core.LedgerEntry, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		date, err := core.ParseDate(rows.Cell(row, cols[0]))
		if err != nil {
			return nil, false, fmt.Errorf("stream %q row %d: %w", l.name, i, err)
		}
		entry := core.LedgerEntry{Date: date}
		// Remaining may legitimately be negative, so it bypasses the
		// non-negative amount parser.
		fields := []struct {
			dst           *decimal.Decimal
			col           int
			allowNegative bool
		}{
			{&entry.Allocated, cols[1], false},
			{&entry.Spent, cols[2], false},
			{&entry.Remaining, cols[3], true},
			{&entry.CarryOver, cols[4], true},
		}
		for _, f := range fields {
			cell := rows.Cell(row, f.col)
			if cell == "" {
				*f.dst = decimal.Zero
				continue
			}
			parse := core.ParseAmount
			if f.allowNegative {
				parse = core.ParseSignedAmount
			}
			v, err := parse(cell)
			if err != nil {
				return nil, false, fmt.Errorf("stream %q row %d: %w", l.name, i, err)
			}
			*f.dst = v
		}
		entries = append(entries, entry)
	}
	return entries, false, nil
}
