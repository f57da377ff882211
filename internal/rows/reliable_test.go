package rows

import (
	"context"
	"errors"
	"testing"
	"time"

	"varlik/internal/core"
)

// flakyStore fails the first failures calls of each operation.
type flakyStore struct {
	failures int
	calls    int
	table    Table
}

func (f *flakyStore) step() error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("transient")
	}
	return nil
}

func (f *flakyStore) AppendRow(_ context.Context, _ string, values []string) error {
	if err := f.step(); err != nil {
		return err
	}
	f.table.Rows = append(f.table.Rows, values)
	return nil
}

func (f *flakyStore) ReadAllRows(_ context.Context, _ string) (Table, error) {
	if err := f.step(); err != nil {
		return Table{}, err
	}
	return f.table, nil
}

func (f *flakyStore) UpdateRow(_ context.Context, _ string, _ int, _ []string) error {
	return f.step()
}

func TestReliableRetriesTransientFailures(t *testing.T) {
	inner := &flakyStore{failures: 2}
	r := NewReliable(inner, 3, time.Millisecond)

	if err := r.AppendRow(context.Background(), "t", []string{"x"}); err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if inner.calls != 3 {
		t.Errorf("calls = %d, want 3", inner.calls)
	}
}

func TestReliableSurfacesTypedFailure(t *testing.T) {
	inner := &flakyStore{failures: 10}
	r := NewReliable(inner, 2, time.Millisecond)

	_, err := r.ReadAllRows(context.Background(), "t")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	var ce *core.CollaboratorError
	if !errors.As(err, &ce) {
		t.Fatalf("expected CollaboratorError, got %T: %v", err, err)
	}
	if inner.calls != 2 {
		t.Errorf("calls = %d, want 2", inner.calls)
	}
}

func TestReliableStopsOnCancelledContext(t *testing.T) {
	inner := &flakyStore{failures: 10}
	r := NewReliable(inner, 5, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.UpdateRow(ctx, "t", 0, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if inner.calls > 2 {
		t.Errorf("calls = %d, retries must stop once the context is done", inner.calls)
	}
}
