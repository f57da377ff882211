package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"varlik/internal/core"
)

// Window is a requested lookback used to select a comparison reference point.
type Window struct {
	Label string
	Days  int
}

var (
	WindowWeek    = Window{Label: "1W", Days: 7}
	WindowMonth   = Window{Label: "1M", Days: 30}
	WindowQuarter = Window{Label: "3M", Days: 90}
	WindowYear    = Window{Label: "1Y", Days: 365}
)

// CustomWindow builds a window for an arbitrary positive day count.
func CustomWindow(days int) Window {
	return Window{Label: fmt.Sprintf("%dD", days), Days: days}
}

// NamedWindow resolves a predefined window label.
func NamedWindow(label string) (Window, bool) {
	for _, w := range []Window{WindowWeek, WindowMonth, WindowQuarter, WindowYear} {
		if w.Label == label {
			return w, true
		}
	}
	return Window{}, false
}

// CategoryPerformance is the windowed movement of one category. New marks a
// category absent (zero) in the reference: it gets no computed percentage,
// avoiding the spurious +100%/divide-by-zero artifact.
type CategoryPerformance struct {
	Key        string
	Start      decimal.Decimal
	End        decimal.Decimal
	Delta      decimal.Decimal
	Percent    decimal.Decimal
	HasPercent bool
	New        bool
}

// PerformanceWindow is the derived result of a windowed-return query. When
// FallbackApplied is true the reference does not sit exactly at the requested
// lookback point and SpanDays carries the days actually spanned; callers must
// render that distinction.
type PerformanceWindow struct {
	Window          Window
	Reference       core.Snapshot
	Current         core.Snapshot
	FallbackApplied bool
	SpanDays        int
	Percent         decimal.Decimal
	HasPercent      bool
	Categories      []CategoryPerformance
}

// Analyzer answers "how has this changed over period P" against a snapshot
// store, degrading gracefully when history is short.
type Analyzer struct {
	store *SnapshotStore
}

func NewAnalyzer(store *SnapshotStore) *Analyzer {
	return &Analyzer{store: store}
}

// WindowedReturn computes the window's return as of the latest snapshot.
func (a *Analyzer) WindowedReturn(ctx context.Context, w Window) (PerformanceWindow, error) {
	current, err := a.store.Latest(ctx)
	if err != nil {
		if IsNotFound(err) {
			return PerformanceWindow{}, core.ErrInsufficientHistory
		}
		return PerformanceWindow{}, err
	}
	return a.WindowedReturnAsOf(ctx, w, current)
}

// WindowedReturnAsOf computes the window's return against an explicit current
// snapshot. The reference is the most recent snapshot dated at or before
// current-lookback; when none exists and at least two snapshots are stored,
// the earliest snapshot is used instead. Any reference that does not sit
// exactly at the lookback date flags the result, so callers always learn when
// the spanned period differs from the one they asked for.
func (a *Analyzer) WindowedReturnAsOf(ctx context.Context, w Window, current core.Snapshot) (PerformanceWindow, error) {
	if w.Days <= 0 {
		return PerformanceWindow{}, fmt.Errorf("window days must be positive, got %d", w.Days)
	}

	target := current.Date.AddDays(-w.Days)
	reference, err := a.store.AtOrBefore(ctx, target)
	if err != nil {
		if !IsNotFound(err) {
			return PerformanceWindow{}, err
		}
		count, err := a.store.Count(ctx)
		if err != nil {
			return PerformanceWindow{}, err
		}
		if count <= 1 {
			return PerformanceWindow{}, core.ErrInsufficientHistory
		}
		reference, err = a.store.Earliest(ctx)
		if err != nil {
			return PerformanceWindow{}, err
		}
	}

	span := current.Date.DaysSince(reference.Date)
	result := PerformanceWindow{
		Window:          w,
		Reference:       reference,
		Current:         current,
		FallbackApplied: span != w.Days,
		SpanDays:        span,
	}
	result.Percent, result.HasPercent = core.PercentChange(reference.Total(), current.Total())

	for _, key := range a.store.Registry().Keys() {
		start := reference.Value(key)
		end := current.Value(key)
		cp := CategoryPerformance{
			Key:   key,
			Start: start,
			End:   end,
			Delta: end.Sub(start),
		}
		if start.IsZero() {
			cp.New = !end.IsZero()
		} else {
			cp.Percent, cp.HasPercent = core.PercentChange(start, end)
		}
		result.Categories = append(result.Categories, cp)
	}

	return result, nil
}
