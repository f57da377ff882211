package core

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateFormat is the ISO-8601 layout used for the first column of every stream.
const DateFormat = "2006-01-02"

// Date is a calendar day with no time-of-day component. The zero value is not
// a valid date; construct through NewDate, ParseDate or Today.
type Date struct {
	t time.Time
}

// NewDate returns a normalized Date for the given year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar day.
func Today() Date {
	return NewDate(time.Now().Date())
}

// ParseDate parses an ISO-8601 day (YYYY-MM-DD). Surrounding whitespace is
// tolerated because spreadsheet cells frequently carry it.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want %q: %w", s, DateFormat, err)
	}
	return Date{t: t.UTC()}, nil
}

// MustParseDate is like ParseDate but panics on error. Intended for tests and
// fixed configuration values.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }

// IsZero reports whether d is the uninitialized date.
func (d Date) IsZero() bool { return d.t.IsZero() }

// Before reports whether d is strictly before x.
func (d Date) Before(x Date) bool { return d.t.Before(x.t) }

// After reports whether d is strictly after x.
func (d Date) After(x Date) bool { return d.t.After(x.t) }

// Equal reports whether d and x are the same calendar day.
func (d Date) Equal(x Date) bool { return d.t.Equal(x.t) }

// AddDays returns the date i days after d (or before, for negative i).
func (d Date) AddDays(i int) Date {
	return Date{t: d.t.AddDate(0, 0, i)}
}

// DaysSince returns the number of whole days between x and d (positive when d
// is after x).
func (d Date) DaysSince(x Date) int {
	return int(d.t.Sub(x.t) / (24 * time.Hour))
}

// String formats the date in its ISO-8601 form.
func (d Date) String() string { return d.t.Format(DateFormat) }

// MarshalJSON encodes the date as an ISO-8601 string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes an ISO-8601 string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var (
	_ json.Marshaler   = (*Date)(nil)
	_ json.Unmarshaler = (*Date)(nil)
)
