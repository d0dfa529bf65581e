package session

import (
	"github.com/robinvdvleuten/expenses/expense"
	"github.com/shopspring/decimal"
)

// Command is an already-parsed request for exactly one ledger operation.
type Command interface {
	// Name identifies the command in logs and results.
	Name() string
}

// Add records a new expense.
type Add struct {
	Category string
	Amount   decimal.Decimal
	Date     string
	Type     expense.Type
}

// Deduct subtracts Amount from the first qualifying record of Category.
type Deduct struct {
	Category string
	Amount   decimal.Decimal
}

// DeclareRecurring registers a recurring template. StartDate is yyyy-MM-dd.
type DeclareRecurring struct {
	Category     string
	Amount       decimal.Decimal
	StartDate    string
	IntervalDays int
}

// Reset clears records, aggregates and templates.
type Reset struct{}

// SetMonthlyLimit changes the advisory monthly limit.
type SetMonthlyLimit struct {
	Limit decimal.Decimal
}

type (
	AllExpenses     struct{}
	TotalExpenses   struct{}
	CategoryReport  struct{}
	MonthlyReport   struct{}
	SortByAmount    struct{}
	SortByDate      struct{}
	YearlyTotal     struct{}
	RecurringReport struct{}
)

// FilterByCategory lists records of a category, compared case-insensitively.
type FilterByCategory struct {
	Category string
}

// FilterByDate lists records dated exactly Date.
type FilterByDate struct {
	Date string
}

// CustomRangeTotal sums records within [Start, End].
type CustomRangeTotal struct {
	Start string
	End   string
}

// SavingsProjection compares Goal with the grand total.
type SavingsProjection struct {
	Goal decimal.Decimal
}

// Save writes the ledger to Path.
type Save struct {
	Path string
}

// Load replays Path into the ledger.
type Load struct {
	Path string
}

func (Add) Name() string               { return "add" }
func (Deduct) Name() string            { return "deduct" }
func (DeclareRecurring) Name() string  { return "declare-recurring" }
func (Reset) Name() string             { return "reset" }
func (SetMonthlyLimit) Name() string   { return "set-monthly-limit" }
func (AllExpenses) Name() string       { return "all-expenses" }
func (TotalExpenses) Name() string     { return "total-expenses" }
func (CategoryReport) Name() string    { return "category-report" }
func (MonthlyReport) Name() string     { return "monthly-report" }
func (SortByAmount) Name() string      { return "sort-by-amount" }
func (SortByDate) Name() string        { return "sort-by-date" }
func (FilterByCategory) Name() string  { return "filter-by-category" }
func (FilterByDate) Name() string      { return "filter-by-date" }
func (CustomRangeTotal) Name() string  { return "custom-range-total" }
func (YearlyTotal) Name() string       { return "yearly-total" }
func (SavingsProjection) Name() string { return "savings-projection" }
func (RecurringReport) Name() string   { return "recurring-report" }
func (Save) Name() string              { return "save" }
func (Load) Name() string              { return "load" }
