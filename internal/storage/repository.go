// Package storage implements the rows.TableStore port on SQLite, the durable
// local backend. Every logical stream is stored as JSON-encoded cell arrays
// keyed by (stream, row_index); row 0 is the header.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"varlik/internal/rows"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ rows.TableStore = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// AppendRow appends one row inside a transaction so concurrent appends can
// never claim the same row index.
func (r *SQLiteRepository) AppendRow(ctx context.Context, table string, values []string) error {
	cells, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var next int
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(row_index), -1) + 1 FROM stream_rows WHERE stream = ?`,
		table).Scan(&next)
	if err != nil {
		return fmt.Errorf("next row index for %s: %w", table, err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO stream_rows (stream, row_index, cells) VALUES (?, ?, ?)`,
		table, next, string(cells))
	if err != nil {
		return fmt.Errorf("insert row into %s: %w", table, err)
	}

	return tx.Commit()
}

// ReadAllRows returns the stream's header and data rows in storage order.
func (r *SQLiteRepository) ReadAllRows(ctx context.Context, table string) (rows.Table, error) {
	result, err := r.db.QueryContext(ctx,
		`SELECT cells FROM stream_rows WHERE stream = ? ORDER BY row_index`,
		table)
	if err != nil {
		return rows.Table{}, fmt.Errorf("read stream %s: %w", table, err)
	}
	defer result.Close()

	var stored [][]string
	for result.Next() {
		var cells string
		if err := result.Scan(&cells); err != nil {
			return rows.Table{}, fmt.Errorf("scan row from %s: %w", table, err)
		}
		var row []string
		if err := json.Unmarshal([]byte(cells), &row); err != nil {
			return rows.Table{}, fmt.Errorf("decode row from %s: %w", table, err)
		}
		stored = append(stored, row)
	}
	if err := result.Err(); err != nil {
		return rows.Table{}, fmt.Errorf("iterate stream %s: %w", table, err)
	}

	if len(stored) == 0 {
		return rows.Table{}, nil
	}
	return rows.Table{
		Header: rows.NormalizeHeader(stored[0]),
		Rows:   stored[1:],
	}, nil
}

// UpdateRow replaces the data row at rowIndex; the header lives at index 0,
// so data row i is stored at row_index i+1.
func (r *SQLiteRepository) UpdateRow(ctx context.Context, table string, rowIndex int, values []string) error {
	cells, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encode row: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE stream_rows SET cells = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE stream = ? AND row_index = ?`,
		string(cells), table, rowIndex+1)
	if err != nil {
		return fmt.Errorf("update row in %s: %w", table, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update row in %s: %w", table, err)
	}
	if affected == 0 {
		return fmt.Errorf("stream %q has no row %d", table, rowIndex)
	}
	return nil
}
