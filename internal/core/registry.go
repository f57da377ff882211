package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DateColumn is the reserved name of the first column in every stream. No
// category may use it.
const DateColumn = "Date"

// Registry is the fixed, deployment-configured set of valid category keys.
// It is immutable after construction.
type Registry struct {
	keys  []string
	index map[string]int
}

// NewRegistry builds a registry from an ordered list of category keys. Keys
// are trimmed; the set must be non-empty, free of duplicates and must not
// contain the reserved date column name.
func NewRegistry(keys ...string) (*Registry, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("registry: at least one category is required")
	}
	r := &Registry{
		keys:  make([]string, 0, len(keys)),
		index: make(map[string]int, len(keys)),
	}
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			return nil, fmt.Errorf("registry: empty category key")
		}
		if strings.EqualFold(k, DateColumn) {
			return nil, fmt.Errorf("registry: %q is reserved for the date column", k)
		}
		if _, dup := r.index[k]; dup {
			return nil, fmt.Errorf("registry: duplicate category %q", k)
		}
		r.index[k] = len(r.keys)
		r.keys = append(r.keys, k)
	}
	return r, nil
}

// Valid reports whether key is a registered category.
func (r *Registry) Valid(key string) bool {
	_, ok := r.index[key]
	return ok
}

// Keys returns the registered category keys in construction order.
func (r *Registry) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of registered categories.
func (r *Registry) Len() int { return len(r.keys) }

// Normalize validates a category→amount map against the registry and returns
// a complete map with every registered category present, missing categories
// filled with zero. A key outside the registry or a negative amount rejects
// the whole map.
func (r *Registry) Normalize(values map[string]decimal.Decimal) (map[string]decimal.Decimal, error) {
	for k, v := range values {
		if !r.Valid(k) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, k)
		}
		if v.IsNegative() {
			return nil, fmt.Errorf("%w: %s for category %q", ErrInvalidAmount, v, k)
		}
	}
	out := make(map[string]decimal.Decimal, len(r.keys))
	for _, k := range r.keys {
		if v, ok := values[k]; ok {
			out[k] = v
		} else {
			out[k] = decimal.Zero
		}
	}
	return out, nil
}

// ParseAmount parses a non-negative decimal amount from a string, tolerating
// surrounding whitespace and a decimal comma. Negative or non-numeric input
// is rejected with ErrInvalidAmount, never coerced to zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := ParseSignedAmount(s)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %q is negative", ErrInvalidAmount, strings.TrimSpace(s))
	}
	return d, nil
}

// ParseSignedAmount is ParseAmount without the sign restriction, for fields
// like a running balance that may legitimately go negative.
func ParseSignedAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return d, nil
}
