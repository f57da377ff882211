package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"varlik/internal/core"
	"varlik/internal/rows/memory"
)

func testRegistry(t *testing.T, keys ...string) *core.Registry {
	t.Helper()
	if len(keys) == 0 {
		keys = []string{"Gold", "Cash"}
	}
	reg, err := core.NewRegistry(keys...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func testAmounts(pairs map[string]int64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(pairs))
	for k, v := range pairs {
		out[k] = decimal.NewFromInt(v)
	}
	return out
}

func TestUpsertInsertsAndReplaces(t *testing.T) {
	store := NewSnapshotStore(testRegistry(t), memory.New(), "snapshots")
	ctx := context.Background()
	day := core.MustParseDate("2024-01-01")

	first, err := store.Upsert(ctx, day, testAmounts(map[string]int64{"Gold": 1000}))
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !first.Value("Cash").IsZero() {
		t.Errorf("omitted category must be zero, got %s", first.Value("Cash"))
	}

	// Same date, different payload: replaced in place, never a second row.
	second, err := store.Upsert(ctx, day, testAmounts(map[string]int64{"Gold": 1500, "Cash": 200}))
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if !second.Value("Gold").Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Gold = %s, want 1500", second.Value("Gold"))
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("snapshots = %d, want exactly 1 for the date", len(all))
	}
	if !all[0].Value("Cash").Equal(decimal.NewFromInt(200)) {
		t.Errorf("stored Cash = %s, want the second payload", all[0].Value("Cash"))
	}
}

func TestUpsertRejectsBadInput(t *testing.T) {
	store := NewSnapshotStore(testRegistry(t), memory.New(), "snapshots")
	ctx := context.Background()
	day := core.MustParseDate("2024-01-01")

	_, err := store.Upsert(ctx, day, testAmounts(map[string]int64{"Silver": 1}))
	if !errors.Is(err, core.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}

	_, err = store.Upsert(ctx, day, testAmounts(map[string]int64{"Gold": -5}))
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}

	// Rejected writes leave no trace.
	if n, _ := store.Count(ctx); n != 0 {
		t.Errorf("count after rejected writes = %d, want 0", n)
	}
}

func TestQueriesOrderAndBounds(t *testing.T) {
	store := NewSnapshotStore(testRegistry(t), memory.New(), "snapshots")
	ctx := context.Background()

	// Written out of order on purpose; reads must come back sorted.
	for _, day := range []string{"2024-01-05", "2024-01-01", "2024-01-03"} {
		if _, err := store.Upsert(ctx, core.MustParseDate(day), testAmounts(map[string]int64{"Gold": 1})); err != nil {
			t.Fatalf("upsert %s: %v", day, err)
		}
	}

	all, _ := store.All(ctx)
	if len(all) != 3 || all[0].Date.String() != "2024-01-01" || all[2].Date.String() != "2024-01-05" {
		t.Fatalf("All not sorted ascending: %v", datesOf(all))
	}

	latest, err := store.Latest(ctx)
	if err != nil || latest.Date.String() != "2024-01-05" {
		t.Errorf("Latest = %v, %v", latest.Date, err)
	}
	earliest, err := store.Earliest(ctx)
	if err != nil || earliest.Date.String() != "2024-01-01" {
		t.Errorf("Earliest = %v, %v", earliest.Date, err)
	}

	before, err := store.Before(ctx, core.MustParseDate("2024-01-05"))
	if err != nil || before.Date.String() != "2024-01-03" {
		t.Errorf("Before = %v, %v", before.Date, err)
	}
	if _, err := store.Before(ctx, core.MustParseDate("2024-01-01")); !IsNotFound(err) {
		t.Errorf("Before earliest day must be ErrNotFound, got %v", err)
	}

	atOrBefore, err := store.AtOrBefore(ctx, core.MustParseDate("2024-01-03"))
	if err != nil || atOrBefore.Date.String() != "2024-01-03" {
		t.Errorf("AtOrBefore = %v, %v (exact date must match)", atOrBefore.Date, err)
	}
}

func TestEmptyStoreQueries(t *testing.T) {
	store := NewSnapshotStore(testRegistry(t), memory.New(), "snapshots")
	ctx := context.Background()

	if _, err := store.Latest(ctx); !IsNotFound(err) {
		t.Errorf("Latest on empty store = %v, want ErrNotFound", err)
	}
	if _, err := store.Earliest(ctx); !IsNotFound(err) {
		t.Errorf("Earliest on empty store = %v, want ErrNotFound", err)
	}
	all, err := store.All(ctx)
	if err != nil || len(all) != 0 {
		t.Errorf("All on empty store = %v, %v", all, err)
	}
}

func TestLoadRejectsUnknownHeaderColumn(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	backend.AppendRow(ctx, "snapshots", []string{"Date", "Gold", "Mystery"})
	backend.AppendRow(ctx, "snapshots", []string{"2024-01-01", "1", "2"})

	store := NewSnapshotStore(testRegistry(t, "Gold"), backend, "snapshots")
	if _, err := store.All(ctx); !errors.Is(err, core.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory for rogue header column, got %v", err)
	}
}

func TestLoadRejectsCorruptAmount(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	backend.AppendRow(ctx, "snapshots", []string{"Date", "Gold"})
	backend.AppendRow(ctx, "snapshots", []string{"2024-01-01", "n/a"})

	store := NewSnapshotStore(testRegistry(t, "Gold"), backend, "snapshots")
	if _, err := store.All(ctx); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("corrupt cell must reject the read, got %v", err)
	}
}

func TestLoadToleratesHeaderWhitespace(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	backend.AppendRow(ctx, "snapshots", []string{" Date ", " Gold "})
	backend.AppendRow(ctx, "snapshots", []string{"2024-01-01", "42"})

	store := NewSnapshotStore(testRegistry(t, "Gold"), backend, "snapshots")
	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("load with padded headers: %v", err)
	}
	if !all[0].Value("Gold").Equal(decimal.NewFromInt(42)) {
		t.Errorf("Gold = %s, want 42", all[0].Value("Gold"))
	}
}

func TestShortRowsReadAsZero(t *testing.T) {
	backend := memory.New()
	ctx := context.Background()
	backend.AppendRow(ctx, "snapshots", []string{"Date", "Gold", "Cash"})
	backend.AppendRow(ctx, "snapshots", []string{"2024-01-01", "10"})

	store := NewSnapshotStore(testRegistry(t), backend, "snapshots")
	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !all[0].Value("Cash").IsZero() {
		t.Errorf("trailing missing cell must read as zero, got %s", all[0].Value("Cash"))
	}
}

func datesOf(snaps []core.Snapshot) []string {
	out := make([]string, len(snaps))
	for i, s := range snaps {
		out[i] = s.Date.String()
	}
	return out
}
