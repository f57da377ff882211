// Package memory provides an in-process TableStore used for tests and as the
// default backend when no durable storage is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"varlik/internal/rows"
)

type Store struct {
	mu     sync.Mutex
	tables map[string][][]string
}

func New() *Store {
	return &Store{tables: make(map[string][][]string)}
}

var _ rows.TableStore = (*Store)(nil)

// AppendRow appends one row; the first row of a fresh table is its header.
func (s *Store) AppendRow(_ context.Context, table string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], append([]string(nil), values...))
	return nil
}

// ReadAllRows returns a copy of the table; never-written tables come back
// empty.
func (s *Store) ReadAllRows(_ context.Context, table string) (rows.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tables[table]
	if !ok || len(stored) == 0 {
		return rows.Table{}, nil
	}
	out := rows.Table{
		Header: append([]string(nil), stored[0]...),
		Rows:   make([][]string, 0, len(stored)-1),
	}
	for _, row := range stored[1:] {
		out.Rows = append(out.Rows, append([]string(nil), row...))
	}
	return out, nil
}

// UpdateRow replaces the data row at rowIndex (zero-based, header excluded).
func (s *Store) UpdateRow(_ context.Context, table string, rowIndex int, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.tables[table]
	if !ok || rowIndex < 0 || rowIndex >= len(stored)-1 {
		return fmt.Errorf("memory: table %q has no row %d", table, rowIndex)
	}
	stored[rowIndex+1] = append([]string(nil), values...)
	return nil
}
