// Package expense defines the records held by an expense ledger: the closed set of
// expense types, strict calendar dates, stored records, and recurring templates.
//
// Everything in this package is a plain value. Parsing functions are pure and
// report failures as *ParseError instead of panicking, so callers can decide
// whether a malformed field aborts the surrounding operation.
package expense

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is a single stored expense entry.
//
// Category is stored verbatim and matched case-insensitively. Amount is always
// strictly positive while the record is held by a ledger. Currency, CreatedAt and
// ID are stamped by the ledger when the record is added and are informational.
type Record struct {
	ID        uuid.UUID
	Category  string
	Amount    decimal.Decimal
	Date      Date
	Type      Type
	Currency  string
	CreatedAt time.Time
}

// MatchesCategory reports whether the record belongs to category, ignoring case.
func (r *Record) MatchesCategory(category string) bool {
	return strings.EqualFold(r.Category, category)
}

// Month returns the year-less month bucket the record contributes to.
func (r *Record) Month() string {
	return r.Date.Month()
}

// Template is a declared recurring expense. It is never expanded into records;
// IntervalDays is kept only for reporting.
type Template struct {
	Category     string
	Amount       decimal.Decimal
	StartDate    Date
	IntervalDays int
	Currency     string
}
