package google

import "testing"

func TestTableFromValues(t *testing.T) {
	tbl := tableFromValues([][]interface{}{
		{" Date ", "Gold", " Cash"},
		{"2024-01-01", 1000, "500"},
		{"2024-01-02", "1200.50"},
	})

	if len(tbl.Header) != 3 || tbl.Header[0] != "Date" || tbl.Header[2] != "Cash" {
		t.Errorf("header not normalized: %v", tbl.Header)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(tbl.Rows))
	}
	if tbl.Rows[0][1] != "1000" {
		t.Errorf("numeric cell = %q, want \"1000\"", tbl.Rows[0][1])
	}
	// Trailing cells dropped by the API leave short rows.
	if len(tbl.Rows[1]) != 2 {
		t.Errorf("short row length = %d, want 2", len(tbl.Rows[1]))
	}
}

func TestTableFromValuesEmpty(t *testing.T) {
	if tbl := tableFromValues(nil); !tbl.IsEmpty() {
		t.Errorf("expected empty table, got %+v", tbl)
	}
}

func TestColumnName(t *testing.T) {
	cases := []struct {
		idx  int
		want string
	}{
		{0, "A"},
		{4, "E"},
		{25, "Z"},
		{26, "AA"},
		{51, "AZ"},
		{52, "BA"},
		{-1, "A"},
	}
	for _, tc := range cases {
		if got := columnName(tc.idx); got != tc.want {
			t.Errorf("columnName(%d) = %q, want %q", tc.idx, got, tc.want)
		}
	}
}
