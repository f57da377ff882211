package core

import (
	"github.com/shopspring/decimal"
)

// Snapshot is one dated record of category→amount observations. At most one
// snapshot exists per date within a store. Values always cover the full
// registry; omitted categories are zero, never absent or negative.
type Snapshot struct {
	Date   Date
	Values map[string]decimal.Decimal
}

// Value returns the amount recorded for key, zero when the key is absent.
func (s Snapshot) Value(key string) decimal.Decimal {
	if v, ok := s.Values[key]; ok {
		return v
	}
	return decimal.Zero
}

// Total returns the sum of all category amounts.
func (s Snapshot) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.Values {
		total = total.Add(v)
	}
	return total
}

// Clone returns an independent copy. Stores hand out clones so callers can
// never mutate stored state.
func (s Snapshot) Clone() Snapshot {
	values := make(map[string]decimal.Decimal, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	return Snapshot{Date: s.Date, Values: values}
}
