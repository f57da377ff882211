package google

import (
	"fmt"
	"strings"

	"varlik/internal/rows"
)

// tableFromValues converts a values matrix as returned by the Sheets API into
// a rows.Table with a normalized header.
func tableFromValues(values [][]interface{}) rows.Table {
	if len(values) == 0 {
		return rows.Table{}
	}
	out := rows.Table{
		Header: rows.NormalizeHeader(toStrings(values[0])),
		Rows:   make([][]string, 0, len(values)-1),
	}
	for _, row := range values[1:] {
		out.Rows = append(out.Rows, toStrings(row))
	}
	return out
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func toAnys(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

// columnName returns the A1-notation column letter for a zero-based index
// (0 -> A, 25 -> Z, 26 -> AA).
func columnName(idx int) string {
	if idx < 0 {
		return "A"
	}
	name := ""
	for idx >= 0 {
		name = string(rune('A'+idx%26)) + name
		idx = idx/26 - 1
	}
	return name
}
