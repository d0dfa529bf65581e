package ledger

import (
	"fmt"
	"strings"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Totals is the grand total measured against the monthly limit.
type Totals struct {
	Total        decimal.Decimal
	MonthlyLimit decimal.Decimal
	Currency     string
	OverLimit    bool
}

// Overage returns how far the total exceeds the limit, or zero when within it.
func (t Totals) Overage() decimal.Decimal {
	if !t.OverLimit {
		return decimal.Zero
	}
	return t.Total.Sub(t.MonthlyLimit)
}

// Headroom returns how much can still be spent before the limit is exceeded,
// or zero when already over it.
func (t Totals) Headroom() decimal.Decimal {
	if t.OverLimit {
		return decimal.Zero
	}
	return t.MonthlyLimit.Sub(t.Total)
}

// AllExpenses returns copies of all records in current store order.
func (l *Ledger) AllExpenses() []expense.Record {
	out := make([]expense.Record, len(l.records))
	for i, record := range l.records {
		out[i] = *record
	}
	return out
}

// TotalExpenses returns the grand total and whether it exceeds the monthly limit.
func (l *Ledger) TotalExpenses() Totals {
	return Totals{
		Total:        l.total,
		MonthlyLimit: l.config.MonthlyLimit,
		Currency:     l.config.Currency,
		OverLimit:    l.total.GreaterThan(l.config.MonthlyLimit),
	}
}

// CategoryReport returns a snapshot of the category totals.
func (l *Ledger) CategoryReport() map[string]decimal.Decimal {
	return l.CategoryBreakdown()
}

// MonthlyReport returns a snapshot of the month totals.
func (l *Ledger) MonthlyReport() map[string]decimal.Decimal {
	return l.MonthlyBreakdown()
}

// RecurringReport returns all declared templates grouped by category.
func (l *Ledger) RecurringReport() []CategoryTemplates {
	return l.recurring.AllByCategory()
}

// SortByAmount reorders the store in place by ascending amount. Ties keep
// their relative order.
func (l *Ledger) SortByAmount() {
	slices.SortStableFunc(l.records, func(a, b *expense.Record) int {
		return a.Amount.Cmp(b.Amount)
	})
}

// SortByDate reorders the store in place by ascending yyyy-MM-dd string, which
// is chronological for conforming dates. Ties keep their relative order.
func (l *Ledger) SortByDate() {
	slices.SortStableFunc(l.records, func(a, b *expense.Record) int {
		return strings.Compare(a.Date.String(), b.Date.String())
	})
}

// FilterByCategory returns the records of category (case-insensitive) in store
// order. It returns ErrNoExpenses when nothing matches.
func (l *Ledger) FilterByCategory(category string) ([]expense.Record, error) {
	var out []expense.Record
	for _, record := range l.records {
		if record.MatchesCategory(category) {
			out = append(out, *record)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in category %q", ErrNoExpenses, category)
	}
	return out, nil
}

// FilterByDate returns the records dated exactly date in store order. The date
// is compared as text; a malformed date simply matches nothing. It returns
// ErrNoExpenses when nothing matches.
func (l *Ledger) FilterByDate(date string) ([]expense.Record, error) {
	var out []expense.Record
	for _, record := range l.records {
		if record.Date.String() == date {
			out = append(out, *record)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w on date %q", ErrNoExpenses, date)
	}
	return out, nil
}

// CustomRangeTotal sums the records dated within [start, end] inclusive, using
// calendar comparison. Both bounds must be yyyy-MM-dd or *expense.ParseError is
// returned.
func (l *Ledger) CustomRangeTotal(start, end string) (decimal.Decimal, error) {
	from, err := expense.ParseDate(start)
	if err != nil {
		return decimal.Zero, err
	}
	to, err := expense.ParseDate(end)
	if err != nil {
		return decimal.Zero, err
	}

	sum := decimal.Zero
	for _, record := range l.records {
		if record.Date.Within(from, to) {
			sum = sum.Add(record.Amount)
		}
	}
	return sum, nil
}

// YearlyTotal sums every record currently held. It does not filter by calendar
// year, so it always equals the grand total.
func (l *Ledger) YearlyTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, record := range l.records {
		sum = sum.Add(record.Amount)
	}
	return sum
}

// SavingsProjection returns goal minus the grand total. A positive value is the
// remaining headroom; zero or negative means the goal is met or exceeded by the
// absolute value.
func (l *Ledger) SavingsProjection(goal decimal.Decimal) decimal.Decimal {
	return goal.Sub(l.total)
}
