package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"varlik/internal/core"
	"varlik/internal/pricefeed"
)

// MirrorPublisher announces a successful write on a stream so the mirror
// worker can replicate it to the spreadsheet. Publishing is best-effort.
type MirrorPublisher interface {
	PublishMirror(ctx context.Context, stream string) error
}

// ReportService is the write-side orchestrator: it validates and normalizes
// incoming reports, converts unit quantities through the price feed when
// asked, upserts into the snapshot store, drives the budget ledger and
// announces writes for mirroring. Mirror or feed trouble never corrupts the
// primary write path.
type ReportService struct {
	snapshots *SnapshotStore
	ledger    *BudgetLedger
	analyzer  *Analyzer

	feed        pricefeed.Source
	feedTimeout time.Duration

	publisher MirrorPublisher
}

// NewReportService wires the engine together. feed and publisher may be nil;
// a nil feed rejects unit reports, a nil publisher skips mirroring.
func NewReportService(snapshots *SnapshotStore, ledger *BudgetLedger, feed pricefeed.Source, feedTimeout time.Duration, publisher MirrorPublisher) *ReportService {
	if feedTimeout <= 0 {
		feedTimeout = 5 * time.Second
	}
	return &ReportService{
		snapshots:   snapshots,
		ledger:      ledger,
		analyzer:    NewAnalyzer(snapshots),
		feed:        feed,
		feedTimeout: feedTimeout,
		publisher:   publisher,
	}
}

// Snapshots exposes the read model for the snapshot stream.
func (s *ReportService) Snapshots() *SnapshotStore { return s.snapshots }

// Analyzer exposes the performance analyzer.
func (s *ReportService) Analyzer() *Analyzer { return s.analyzer }

// RecordAmounts upserts a category→amount report for date. Amounts are
// pre-computed currency values; the price feed is not consulted.
func (s *ReportService) RecordAmounts(ctx context.Context, date core.Date, values map[string]decimal.Decimal) (core.Snapshot, error) {
	snap, err := s.snapshots.Upsert(ctx, date, values)
	if err != nil {
		return core.Snapshot{}, err
	}
	s.announce(ctx, s.snapshots.name)
	return snap, nil
}

// RecordUnits converts unit quantities into currency amounts through the
// price feed, then upserts the result. Every conversion runs under the feed
// timeout so a stuck feed cannot hang the write path; a quantity whose price
// cannot be obtained (live or last-known) rejects the whole report.
func (s *ReportService) RecordUnits(ctx context.Context, date core.Date, units map[string]decimal.Decimal) (core.Snapshot, error) {
	if s.feed == nil {
		return core.Snapshot{}, fmt.Errorf("%w: no price feed configured", core.ErrPriceUnavailable)
	}

	values := make(map[string]decimal.Decimal, len(units))
	for code, qty := range units {
		if qty.IsNegative() {
			return core.Snapshot{}, fmt.Errorf("%w: %s units of %q", core.ErrInvalidAmount, qty, code)
		}
		price, err := s.unitPrice(ctx, code)
		if err != nil {
			return core.Snapshot{}, err
		}
		values[code] = qty.Mul(price)
	}
	return s.RecordAmounts(ctx, date, values)
}

func (s *ReportService) unitPrice(ctx context.Context, code string) (decimal.Decimal, error) {
	feedCtx, cancel := context.WithTimeout(ctx, s.feedTimeout)
	defer cancel()
	return s.feed.UnitPrice(feedCtx, code)
}

// Valuation summarizes the latest snapshot against its immediate predecessor.
func (s *ReportService) Valuation(ctx context.Context) (core.ValuationSummary, error) {
	latest, err := s.snapshots.Latest(ctx)
	if err != nil {
		return core.ValuationSummary{}, err
	}
	var ref *core.Snapshot
	prev, err := s.snapshots.Before(ctx, latest.Date)
	switch {
	case err == nil:
		ref = &prev
	case IsNotFound(err):
		// First snapshot ever: summary has no reference.
	default:
		return core.ValuationSummary{}, err
	}
	return core.Summarize(s.snapshots.reg, latest, ref), nil
}

// InitializeBudget starts the ledger with its first allocation.
func (s *ReportService) InitializeBudget(ctx context.Context, allocated decimal.Decimal) (core.LedgerEntry, error) {
	entry, err := s.ledger.Initialize(ctx, allocated)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	s.announce(ctx, s.ledger.name)
	return entry, nil
}

// Spend records a spend event against the budget.
func (s *ReportService) Spend(ctx context.Context, amount decimal.Decimal) (core.LedgerEntry, error) {
	entry, err := s.ledger.Spend(ctx, amount)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	s.announce(ctx, s.ledger.name)
	return entry, nil
}

// Replenish starts a new allocation period on the budget.
func (s *ReportService) Replenish(ctx context.Context, amount decimal.Decimal) (core.LedgerEntry, error) {
	entry, err := s.ledger.Replenish(ctx, amount)
	if err != nil {
		return core.LedgerEntry{}, err
	}
	s.announce(ctx, s.ledger.name)
	return entry, nil
}

// CurrentBudget returns the latest ledger entry.
func (s *ReportService) CurrentBudget(ctx context.Context) (core.LedgerEntry, error) {
	return s.ledger.Current(ctx)
}

// BudgetHistory returns the full ledger history.
func (s *ReportService) BudgetHistory(ctx context.Context) ([]core.LedgerEntry, error) {
	return s.ledger.History(ctx)
}

// announce publishes a mirror message for the stream. The primary write has
// already succeeded, so a publish failure is logged and swallowed; the
// periodic reconcile pass catches up later.
func (s *ReportService) announce(ctx context.Context, stream string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishMirror(ctx, stream); err != nil {
		slog.ErrorContext(ctx, "Failed to publish mirror message",
			"stream", stream,
			"error", err)
	}
}
