package rows

import "testing"

func TestNormalizeHeader(t *testing.T) {
	got := NormalizeHeader([]string{" Date ", "Gold\t", "  Cash"})
	want := []string{"Date", "Gold", "Cash"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("NormalizeHeader[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestColumnIndex(t *testing.T) {
	header := []string{" Date ", "Gold", "Cash "}
	cases := []struct {
		name string
		want int
	}{
		{"Date", 0},
		{"date", 0},
		{"Cash", 2},
		{" gold ", 1},
		{"Silver", -1},
	}
	for _, tc := range cases {
		if got := ColumnIndex(header, tc.name); got != tc.want {
			t.Errorf("ColumnIndex(%q) = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestCell(t *testing.T) {
	row := []string{"a", "b"}
	if Cell(row, 1) != "b" {
		t.Error("Cell(1) broken")
	}
	if Cell(row, 5) != "" || Cell(row, -1) != "" {
		t.Error("out-of-range Cell must return empty string")
	}
}
