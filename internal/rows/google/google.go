// Package google implements the rows.TableStore port on a Google Sheets
// spreadsheet. Each logical table maps onto one sheet; row 1 is the header.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"varlik/internal/rows"
)

// Config holds the credentials and target spreadsheet for a Client.
type Config struct {
	SpreadsheetID string
	// Service account credentials: inline JSON wins over the file path. When
	// both are empty, GOOGLE_APPLICATION_CREDENTIALS is consulted.
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ rows.TableStore = (*Client)(nil)

// New creates a Sheets-backed TableStore using service account credentials.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := newSheetsService(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: cfg.SpreadsheetID}, nil
}

func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	credsFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	switch {
	case credsJSON != "":
		credentials = []byte(credsJSON)
	case credsFile != "":
		data, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentials = data
	default:
		return nil, errors.New("missing service account credentials")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendRow appends one row after the last non-empty row of the sheet.
func (c *Client) AppendRow(ctx context.Context, table string, values []string) error {
	rng := fmt.Sprintf("%s!A1", table)
	vr := &gsheet.ValueRange{Values: [][]any{toAnys(values)}}

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", table, err)
	}

	slog.DebugContext(ctx, "Row appended to sheet",
		"sheet", table,
		"columns", len(values))
	return nil
}

// ReadAllRows reads the whole sheet. The header is normalized on load because
// hand-edited sheets routinely carry stray whitespace in header cells.
func (c *Client) ReadAllRows(ctx context.Context, table string) (rows.Table, error) {
	rng := fmt.Sprintf("%s!A:ZZ", table)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return rows.Table{}, fmt.Errorf("read sheet %s: %w", table, err)
	}
	return tableFromValues(resp.Values), nil
}

// UpdateRow replaces the data row at rowIndex in place. Row 1 of the sheet is
// the header, so data row i lives at sheet row i+2.
func (c *Client) UpdateRow(ctx context.Context, table string, rowIndex int, values []string) error {
	if rowIndex < 0 {
		return fmt.Errorf("update sheet %s: negative row index %d", table, rowIndex)
	}
	sheetRow := rowIndex + 2
	rng := fmt.Sprintf("%s!A%d:%s%d", table, sheetRow, columnName(len(values)-1), sheetRow)
	vr := &gsheet.ValueRange{Values: [][]any{toAnys(values)}}

	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s row %d: %w", table, sheetRow, err)
	}

	slog.DebugContext(ctx, "Row replaced in sheet",
		"sheet", table,
		"row", sheetRow)
	return nil
}
