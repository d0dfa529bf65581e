// Package ledger provides the in-memory expense ledger: the ordered record store,
// the running aggregates derived from it, the recurring registry, and read-only
// reports over all three.
//
// The ledger maintains, after every mutation:
//   - the grand total equals the sum of all record amounts
//   - each category total equals the sum of amounts of records stored under
//     that category
//   - every held record has a strictly positive amount
//
// Month buckets are keyed by month name only (the year is discarded) and are
// fed by Add alone; Deduct leaves them untouched.
//
// Example usage:
//
//	l := ledger.New(ledger.WithCurrency("EUR"), ledger.WithMonthlyLimit(decimal.NewFromInt(500)))
//
//	exceeded, err := l.Add("Food", decimal.NewFromInt(50), "2024-03-01", expense.Variable)
//	if err != nil {
//	    // *ledger.ValidationError or *expense.ParseError
//	}
//	if exceeded {
//	    fmt.Println("Warning: monthly limit exceeded")
//	}
//
//	if err := l.Deduct("food", decimal.NewFromInt(20)); err != nil {
//	    switch ledger.ReasonOf(err) {
//	    case ledger.ReasonInvalidAmount, ledger.ReasonNotFound:
//	        fmt.Println(err)
//	    }
//	}
//
// A Ledger is not safe for concurrent use.
package ledger

import (
	"github.com/robinvdvleuten/expenses/expense"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Ledger holds the expense records in insertion order together with their
// aggregates and the recurring registry.
type Ledger struct {
	records        []*expense.Record
	total          decimal.Decimal
	categoryTotals map[string]decimal.Decimal
	monthlyTotals  map[string]decimal.Decimal
	recurring      *Registry
	config         *Config
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	config := NewConfig()
	for _, opt := range opts {
		opt(config)
	}

	return &Ledger{
		records:        make([]*expense.Record, 0),
		total:          decimal.Zero,
		categoryTotals: make(map[string]decimal.Decimal),
		monthlyTotals:  make(map[string]decimal.Decimal),
		recurring:      NewRegistry(),
		config:         config,
	}
}

// Add appends a new record stamped with the configured currency and the current
// time. It reports whether the grand total now exceeds the monthly limit; the
// limit is advisory and never blocks the add.
//
// Add fails with *ValidationError when amount is not positive or category is
// blank, and with *expense.ParseError when date is not yyyy-MM-dd. A failed Add
// does not change the ledger.
func (l *Ledger) Add(category string, amount decimal.Decimal, date string, typ expense.Type) (bool, error) {
	v := newValidator(l.records, l.total, l.config)

	delta, err := v.validateAdd(category, amount, date, typ)
	if err != nil {
		return false, err
	}

	l.ApplyAddDelta(delta)
	return delta.LimitExceeded, nil
}

// ApplyAddDelta mutates ledger state by appending the delta's record.
func (l *Ledger) ApplyAddDelta(delta *AddDelta) {
	record := delta.Record

	l.records = append(l.records, record)
	l.total = l.total.Add(record.Amount)
	l.categoryTotals[record.Category] = l.categoryTotals[record.Category].Add(record.Amount)
	l.monthlyTotals[delta.Month] = l.monthlyTotals[delta.Month].Add(record.Amount)
}

// Deduct reduces the first record, in store order, whose category matches
// case-insensitively and whose amount is at least amount. A record reaching
// zero is removed.
//
// Deduct fails with *ValidationError when amount is not positive or exceeds the
// grand total, and with *NotFoundError when no single record qualifies, even if
// the category total would cover it.
func (l *Ledger) Deduct(category string, amount decimal.Decimal) error {
	v := newValidator(l.records, l.total, l.config)

	delta, err := v.validateDeduct(category, amount)
	if err != nil {
		return err
	}

	l.ApplyDeductDelta(delta)
	return nil
}

// ApplyDeductDelta mutates ledger state by reducing the matched record.
// Month buckets are not touched.
func (l *Ledger) ApplyDeductDelta(delta *DeductDelta) {
	record := l.records[delta.Index]

	record.Amount = record.Amount.Sub(delta.Amount)
	l.total = l.total.Sub(delta.Amount)
	l.categoryTotals[delta.Category] = l.categoryTotals[delta.Category].Sub(delta.Amount)

	if delta.Remove {
		l.records = slices.Delete(l.records, delta.Index, delta.Index+1)
	}
}

// DeclareRecurring registers a recurring template under category. It always
// succeeds and never affects totals.
func (l *Ledger) DeclareRecurring(category string, amount decimal.Decimal, start expense.Date, intervalDays int) {
	l.recurring.Declare(expense.Template{
		Category:     category,
		Amount:       amount,
		StartDate:    start,
		IntervalDays: intervalDays,
		Currency:     l.config.Currency,
	})
}

// Reset clears records, all aggregates and the recurring registry. The monthly
// limit and currency are kept.
func (l *Ledger) Reset() {
	l.records = l.records[:0]
	l.total = decimal.Zero
	clear(l.categoryTotals)
	clear(l.monthlyTotals)
	l.recurring.Reset()
}

// SetMonthlyLimit replaces the monthly limit.
func (l *Ledger) SetMonthlyLimit(limit decimal.Decimal) {
	l.config.MonthlyLimit = limit
}

// MonthlyLimit returns the configured monthly limit.
func (l *Ledger) MonthlyLimit() decimal.Decimal {
	return l.config.MonthlyLimit
}

// SetCurrency replaces the currency stamped on records added from now on.
func (l *Ledger) SetCurrency(currency string) {
	l.config.Currency = currency
}

// Currency returns the configured currency label.
func (l *Ledger) Currency() string {
	return l.config.Currency
}

// Len returns the number of records held.
func (l *Ledger) Len() int {
	return len(l.records)
}

// Total returns the grand total.
func (l *Ledger) Total() decimal.Decimal {
	return l.total
}

// CategoryBreakdown returns a copy of the category totals.
func (l *Ledger) CategoryBreakdown() map[string]decimal.Decimal {
	return copyTotals(l.categoryTotals)
}

// MonthlyBreakdown returns a copy of the month totals keyed by month name.
func (l *Ledger) MonthlyBreakdown() map[string]decimal.Decimal {
	return copyTotals(l.monthlyTotals)
}

func copyTotals(m map[string]decimal.Decimal) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
