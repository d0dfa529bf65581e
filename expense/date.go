package expense

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the only accepted date format: four digit year, two digit month
// and two digit day.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day.
type Date struct {
	time.Time
}

// ParseDate parses s strictly as yyyy-MM-dd.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &ParseError{Field: "date", Value: s, Err: err}
	}
	return Date{Time: t}, nil
}

// MustParseDate is like ParseDate but panics on error.
// Use only in tests or with constant input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// NewDateFromTime truncates t to its calendar date.
func NewDateFromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// String formats the date as yyyy-MM-dd.
func (d Date) String() string {
	return d.Format(DateLayout)
}

// Month returns the upper-case English month name (e.g. "MARCH"). The year is
// discarded, so March 2023 and March 2024 share a bucket.
func (d Date) Month() string {
	return strings.ToUpper(d.Time.Month().String())
}

// Within reports whether d lies in the inclusive range [start, end].
func (d Date) Within(start, end Date) bool {
	return !d.Before(start.Time) && !d.After(end.Time)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON encodes the date as a yyyy-MM-dd string instead of the
// timestamp inherited from time.Time.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.String())), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	s, err := strconv.Unquote(string(data))
	if err != nil {
		return &ParseError{Field: "date", Value: string(data), Err: err}
	}
	return d.UnmarshalText([]byte(s))
}
