// Package rows defines the row-oriented persistence port the engine consumes.
// Each logical stream (snapshots, budget ledger) maps onto one named table
// whose first column is always the ISO-8601 date.
package rows

import (
	"context"
	"strings"
)

// Table is a read-only projection of one stored table: a header row plus data
// rows in storage order. An empty Table (nil header) means the table has not
// been written yet.
type Table struct {
	Header []string
	Rows   [][]string
}

// IsEmpty reports whether the table holds no header and no rows.
func (t Table) IsEmpty() bool {
	return len(t.Header) == 0 && len(t.Rows) == 0
}

// TableStore is the narrow collaborator interface over a row-oriented backend
// (hosted spreadsheet, sqlite, memory). Row indexes are zero-based into
// Table.Rows, excluding the header.
type TableStore interface {
	// AppendRow appends one row to the named table. The first append of a
	// fresh table is expected to carry the header.
	AppendRow(ctx context.Context, table string, values []string) error

	// ReadAllRows returns the whole table including its header. A table that
	// was never written is returned empty, not as an error.
	ReadAllRows(ctx context.Context, table string) (Table, error)

	// UpdateRow replaces the data row at rowIndex in place.
	UpdateRow(ctx context.Context, table string, rowIndex int, values []string) error
}

// NormalizeHeader trims surrounding whitespace from every header cell.
// Spreadsheet headers routinely carry stray spaces; normalizing on load keeps
// column lookups stable.
func NormalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}

// ColumnIndex returns the index of the named column in header, comparing
// case-insensitively after trimming, or -1 when absent.
func ColumnIndex(header []string, name string) int {
	name = strings.TrimSpace(name)
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// Cell returns the value at idx or "" when the row is too short. Spreadsheet
// APIs drop trailing empty cells, so short rows are normal.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
