// Package services holds the engine: the snapshot store, the budget ledger,
// the performance analyzer and the orchestration around the collaborators.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"varlik/internal/core"
	"varlik/internal/rows"
)

// SnapshotStore keeps at most one snapshot per calendar day in one table of
// the row backend. Writes are idempotent upserts keyed by date; reads hand
// out independent copies ordered by date ascending.
type SnapshotStore struct {
	reg   *core.Registry
	table rows.TableStore
	name  string

	// Upsert is a read-modify-write; the mutex keeps two concurrent upserts
	// for the same date from racing into duplicate rows.
	mu sync.Mutex
}

// NewSnapshotStore binds a registry and a backend table.
func NewSnapshotStore(reg *core.Registry, table rows.TableStore, name string) *SnapshotStore {
	return &SnapshotStore{reg: reg, table: table, name: name}
}

// Registry returns the category registry this store validates against.
func (s *SnapshotStore) Registry() *core.Registry { return s.reg }

// Upsert validates values against the registry, fills omitted categories with
// zero and stores the result under date, replacing any snapshot already
// stored for that day. The whole write is rejected on an unknown category or
// a negative amount; nothing is coerced.
func (s *SnapshotStore) Upsert(ctx context.Context, date core.Date, values map[string]decimal.Decimal) (core.Snapshot, error) {
	if date.IsZero() {
		return core.Snapshot{}, fmt.Errorf("upsert: date is required")
	}
	normalized, err := s.reg.Normalize(values)
	if err != nil {
		return core.Snapshot{}, err
	}
	snap := core.Snapshot{Date: date, Values: normalized}

	s.mu.Lock()
	defer s.mu.Unlock()

	loaded, err := s.load(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}

	if loaded.empty {
		header := append([]string{core.DateColumn}, s.reg.Keys()...)
		if err := s.table.AppendRow(ctx, s.name, header); err != nil {
			return core.Snapshot{}, err
		}
	}

	row := s.encode(snap)
	for _, stored := range loaded.snapshots {
		if stored.snap.Date.Equal(date) {
			if err := s.table.UpdateRow(ctx, s.name, stored.rowIndex, row); err != nil {
				return core.Snapshot{}, err
			}
			slog.InfoContext(ctx, "Snapshot replaced",
				"stream", s.name,
				"date", date.String())
			return snap.Clone(), nil
		}
	}

	if err := s.table.AppendRow(ctx, s.name, row); err != nil {
		return core.Snapshot{}, err
	}
	slog.InfoContext(ctx, "Snapshot stored",
		"stream", s.name,
		"date", date.String())
	return snap.Clone(), nil
}

// Latest returns the most recent snapshot, or core.ErrNotFound.
func (s *SnapshotStore) Latest(ctx context.Context) (core.Snapshot, error) {
	all, err := s.All(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	if len(all) == 0 {
		return core.Snapshot{}, core.ErrNotFound
	}
	return all[len(all)-1], nil
}

// Earliest returns the oldest snapshot, or core.ErrNotFound.
func (s *SnapshotStore) Earliest(ctx context.Context) (core.Snapshot, error) {
	all, err := s.All(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	if len(all) == 0 {
		return core.Snapshot{}, core.ErrNotFound
	}
	return all[0], nil
}

// Before returns the most recent snapshot strictly before date, or
// core.ErrNotFound.
func (s *SnapshotStore) Before(ctx context.Context, date core.Date) (core.Snapshot, error) {
	all, err := s.All(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].Date.Before(date) {
			return all[i], nil
		}
	}
	return core.Snapshot{}, core.ErrNotFound
}

// AtOrBefore returns the most recent snapshot with date <= the given day, or
// core.ErrNotFound.
func (s *SnapshotStore) AtOrBefore(ctx context.Context, date core.Date) (core.Snapshot, error) {
	return s.Before(ctx, date.AddDays(1))
}

// All returns every snapshot ordered by date ascending. The result is a
// finite, restartable projection, not a live view.
func (s *SnapshotStore) All(ctx context.Context) ([]core.Snapshot, error) {
	loaded, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.Snapshot, 0, len(loaded.snapshots))
	for _, stored := range loaded.snapshots {
		out = append(out, stored.snap.Clone())
	}
	return out, nil
}

// Count returns the number of stored snapshots.
func (s *SnapshotStore) Count(ctx context.Context) (int, error) {
	loaded, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(loaded.snapshots), nil
}

type storedSnapshot struct {
	snap     core.Snapshot
	rowIndex int
}

type loadedTable struct {
	empty     bool
	snapshots []storedSnapshot
}

// load reads and parses the whole table, sorted by date ascending. Stored
// rows that fail to parse reject the read: a corrupt cell must surface, not
// silently become zero.
func (s *SnapshotStore) load(ctx context.Context) (loadedTable, error) {
	tbl, err := s.table.ReadAllRows(ctx, s.name)
	if err != nil {
		return loadedTable{}, err
	}
	if tbl.IsEmpty() {
		return loadedTable{empty: true}, nil
	}

	header := rows.NormalizeHeader(tbl.Header)
	dateCol := rows.ColumnIndex(header, core.DateColumn)
	if dateCol != 0 {
		return loadedTable{}, fmt.Errorf("stream %q: first column must be %q, got %v", s.name, core.DateColumn, header)
	}
	for _, h := range header[1:] {
		if h == "" {
			continue
		}
		if !s.reg.Valid(h) {
			return loadedTable{}, fmt.Errorf("stream %q: %w: header column %q", s.name, core.ErrUnknownCategory, h)
		}
	}

	columns := make(map[string]int, s.reg.Len())
	for _, key := range s.reg.Keys() {
		columns[key] = rows.ColumnIndex(header, key)
	}

	loaded := loadedTable{snapshots: make([]storedSnapshot, 0, len(tbl.Rows))}
	for i, row := range tbl.Rows {
		date, err := core.ParseDate(rows.Cell(row, dateCol))
		if err != nil {
			return loadedTable{}, fmt.Errorf("stream %q row %d: %w", s.name, i, err)
		}
		values := make(map[string]decimal.Decimal, s.reg.Len())
		for key, col := range columns {
			cell := rows.Cell(row, col)
			if col < 0 || cell == "" {
				values[key] = decimal.Zero
				continue
			}
			amount, err := core.ParseAmount(cell)
			if err != nil {
				return loadedTable{}, fmt.Errorf("stream %q row %d category %q: %w", s.name, i, key, err)
			}
			values[key] = amount
		}
		loaded.snapshots = append(loaded.snapshots, storedSnapshot{
			snap:     core.Snapshot{Date: date, Values: values},
			rowIndex: i,
		})
	}

	sort.SliceStable(loaded.snapshots, func(i, j int) bool {
		return loaded.snapshots[i].snap.Date.Before(loaded.snapshots[j].snap.Date)
	})
	return loaded, nil
}

func (s *SnapshotStore) encode(snap core.Snapshot) []string {
	row := make([]string, 0, s.reg.Len()+1)
	row = append(row, snap.Date.String())
	for _, key := range s.reg.Keys() {
		row = append(row, snap.Value(key).String())
	}
	return row
}

// IsNotFound reports whether err is the store's explicit absent-value.
func IsNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
