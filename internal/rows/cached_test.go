package rows

import (
	"context"
	"errors"
	"testing"
	"time"

	"varlik/internal/cache"
)

// countingStore records how many times each operation runs.
type countingStore struct {
	reads   int
	appends int
	updates int
	failing bool
	table   Table
}

func (c *countingStore) AppendRow(_ context.Context, _ string, values []string) error {
	c.appends++
	if c.failing {
		return errors.New("boom")
	}
	if len(c.table.Header) == 0 {
		c.table.Header = values
		return nil
	}
	c.table.Rows = append(c.table.Rows, values)
	return nil
}

func (c *countingStore) ReadAllRows(_ context.Context, _ string) (Table, error) {
	c.reads++
	if c.failing {
		return Table{}, errors.New("boom")
	}
	return c.table, nil
}

func (c *countingStore) UpdateRow(_ context.Context, _ string, rowIndex int, values []string) error {
	c.updates++
	if c.failing {
		return errors.New("boom")
	}
	c.table.Rows[rowIndex] = values
	return nil
}

func TestCachedReadsHitCache(t *testing.T) {
	inner := &countingStore{}
	cached := NewCached(inner, cache.NewTTL[Table](time.Minute))
	ctx := context.Background()

	cached.AppendRow(ctx, "t", []string{"Date", "Gold"})
	if _, err := cached.ReadAllRows(ctx, "t"); err != nil {
		t.Fatalf("read: %v", err)
	}
	if _, err := cached.ReadAllRows(ctx, "t"); err != nil {
		t.Fatalf("read: %v", err)
	}
	if inner.reads != 1 {
		t.Errorf("inner reads = %d, want 1 (second read cached)", inner.reads)
	}
}

func TestCachedInvalidatesOnWrite(t *testing.T) {
	inner := &countingStore{}
	cached := NewCached(inner, cache.NewTTL[Table](time.Minute))
	ctx := context.Background()

	cached.AppendRow(ctx, "t", []string{"Date", "Gold"})
	cached.ReadAllRows(ctx, "t")

	// A write must be visible to the very next read, not after the TTL.
	cached.AppendRow(ctx, "t", []string{"2024-01-01", "1000"})
	tbl, err := cached.ReadAllRows(ctx, "t")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("rows after write = %d, want 1", len(tbl.Rows))
	}
	if inner.reads != 2 {
		t.Errorf("inner reads = %d, want 2 (cache invalidated)", inner.reads)
	}

	cached.ReadAllRows(ctx, "t")
	cached.UpdateRow(ctx, "t", 0, []string{"2024-01-01", "1200"})
	tbl, _ = cached.ReadAllRows(ctx, "t")
	if tbl.Rows[0][1] != "1200" {
		t.Error("update not visible after cache invalidation")
	}
}

func TestCachedDoesNotCacheFailures(t *testing.T) {
	inner := &countingStore{failing: true}
	cached := NewCached(inner, cache.NewTTL[Table](time.Minute))
	ctx := context.Background()

	if _, err := cached.ReadAllRows(ctx, "t"); err == nil {
		t.Fatal("expected error")
	}
	inner.failing = false
	if _, err := cached.ReadAllRows(ctx, "t"); err != nil {
		t.Fatalf("read after recovery: %v", err)
	}
}
