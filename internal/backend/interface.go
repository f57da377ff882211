// Package backend selects and constructs the row store backing the engine.
package backend

import (
	"context"

	"varlik/internal/rows"
)

// CleanupFunc releases resources held by a backend.
type CleanupFunc func() error

// Result contains the store instance and optional cleanup function.
type Result struct {
	Store   rows.TableStore
	Cleanup CleanupFunc
}

// Factory creates row stores based on configuration.
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for store creation.
type Config struct {
	Type Type

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// Type represents the kind of row store.
type Type string

const (
	SQLiteStore Type = "sqlite"
	SheetsStore Type = "sheets"
	MemoryStore Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the store type is known.
func (t Type) IsValid() bool {
	switch t {
	case SQLiteStore, SheetsStore, MemoryStore:
		return true
	default:
		return false
	}
}
