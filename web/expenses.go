package web

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
)

// ExpenseResponse is a single record for JSON serialization.
type ExpenseResponse struct {
	ID        string          `json:"id"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Date      expense.Date    `json:"date"`
	Type      expense.Type    `json:"type"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ExpensesResponse is the JSON response structure for the expenses endpoint.
type ExpensesResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Total    decimal.Decimal   `json:"total"`
}

// TotalsResponse is the JSON response structure for the totals endpoint.
type TotalsResponse struct {
	Total        decimal.Decimal `json:"total"`
	MonthlyLimit decimal.Decimal `json:"monthlyLimit"`
	Currency     string          `json:"currency"`
	OverLimit    bool            `json:"overLimit"`
	Overage      decimal.Decimal `json:"overage"`
	Headroom     decimal.Decimal `json:"headroom"`
	Yearly       decimal.Decimal `json:"yearly"`
}

// BreakdownEntry is one bucket of a category or month breakdown.
type BreakdownEntry struct {
	Name  string          `json:"name"`
	Total decimal.Decimal `json:"total"`
}

// BreakdownResponse is the JSON response structure for the breakdown endpoints.
type BreakdownResponse struct {
	Currency string           `json:"currency"`
	Entries  []BreakdownEntry `json:"entries"`
}

// RangeResponse is the JSON response structure for the range endpoint.
type RangeResponse struct {
	Start string          `json:"start"`
	End   string          `json:"end"`
	Total decimal.Decimal `json:"total"`
}

// SavingsResponse is the JSON response structure for the savings endpoint.
type SavingsResponse struct {
	Goal      decimal.Decimal `json:"goal"`
	Total     decimal.Decimal `json:"total"`
	Remaining decimal.Decimal `json:"remaining"`
	OnTrack   bool            `json:"onTrack"`
}

// TemplateResponse is a recurring template for JSON serialization.
type TemplateResponse struct {
	Amount       decimal.Decimal `json:"amount"`
	StartDate    expense.Date    `json:"startDate"`
	IntervalDays int             `json:"intervalDays"`
	Currency     string          `json:"currency"`
}

// RecurringCategory groups templates by category.
type RecurringCategory struct {
	Category  string             `json:"category"`
	Templates []TemplateResponse `json:"templates"`
}

// RecurringResponse is the JSON response structure for the recurring endpoint.
type RecurringResponse struct {
	Categories []RecurringCategory `json:"categories"`
}

func newExpenseResponses(records []expense.Record) []ExpenseResponse {
	out := make([]ExpenseResponse, len(records))
	for i, r := range records {
		out[i] = ExpenseResponse{
			ID:        r.ID.String(),
			Category:  r.Category,
			Amount:    r.Amount,
			Date:      r.Date,
			Type:      r.Type,
			Currency:  r.Currency,
			CreatedAt: r.CreatedAt,
		}
	}
	return out
}

// handleGetExpenses handles GET requests to /api/expenses.
//
// Query parameters:
//   - category: Only records of this category (case-insensitive).
//   - date: Only records dated exactly YYYY-MM-DD.
//   - sort: "amount" or "date", ascending and stable. Store order if omitted.
//
// Sorting applies to the response only; the store order is untouched.
func (s *Server) handleGetExpenses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category := query.Get("category")
	date := query.Get("date")
	sortBy := query.Get("sort")

	var cmp func(a, b expense.Record) int
	switch sortBy {
	case "":
	case "amount":
		cmp = func(a, b expense.Record) int { return a.Amount.Cmp(b.Amount) }
	case "date":
		cmp = func(a, b expense.Record) int { return strings.Compare(a.Date.String(), b.Date.String()) }
	default:
		http.Error(w, "invalid sort (expected amount or date): "+sortBy, http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	var (
		records []expense.Record
		err     error
	)
	switch {
	case category != "":
		records, err = s.ledger.FilterByCategory(category)
	case date != "":
		records, err = s.ledger.FilterByDate(date)
	default:
		records = s.ledger.AllExpenses()
	}
	s.mu.RUnlock()

	if err != nil && !errors.Is(err, ledger.ErrNoExpenses) {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if category != "" && date != "" {
		records = slices.DeleteFunc(records, func(r expense.Record) bool {
			return r.Date.String() != date
		})
	}

	if cmp != nil {
		slices.SortStableFunc(records, cmp)
	}

	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.Amount)
	}

	writeJSONResponse(w, &ExpensesResponse{
		Expenses: newExpenseResponses(records),
		Total:    total,
	})
}

// handleGetTotals handles GET requests to /api/totals.
func (s *Server) handleGetTotals(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	totals := s.ledger.TotalExpenses()
	yearly := s.ledger.YearlyTotal()
	s.mu.RUnlock()

	writeJSONResponse(w, &TotalsResponse{
		Total:        totals.Total,
		MonthlyLimit: totals.MonthlyLimit,
		Currency:     totals.Currency,
		OverLimit:    totals.OverLimit,
		Overage:      totals.Overage(),
		Headroom:     totals.Headroom(),
		Yearly:       yearly,
	})
}

// handleGetCategories handles GET requests to /api/categories.
// Entries are sorted alphabetically by category.
func (s *Server) handleGetCategories(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.ledger.CategoryReport()
	currency := s.ledger.Currency()
	s.mu.RUnlock()

	names := maps.Keys(report)
	slices.Sort(names)

	writeJSONResponse(w, &BreakdownResponse{
		Currency: currency,
		Entries:  breakdownEntries(names, report),
	})
}

// handleGetMonths handles GET requests to /api/months.
// Entries are sorted in calendar order, January first.
func (s *Server) handleGetMonths(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.ledger.MonthlyReport()
	currency := s.ledger.Currency()
	s.mu.RUnlock()

	names := maps.Keys(report)
	slices.SortFunc(names, func(a, b string) int {
		return monthIndex(a) - monthIndex(b)
	})

	writeJSONResponse(w, &BreakdownResponse{
		Currency: currency,
		Entries:  breakdownEntries(names, report),
	})
}

func breakdownEntries(names []string, report map[string]decimal.Decimal) []BreakdownEntry {
	entries := make([]BreakdownEntry, len(names))
	for i, name := range names {
		entries[i] = BreakdownEntry{Name: name, Total: report[name]}
	}
	return entries
}

func monthIndex(name string) int {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), name) {
			return int(m)
		}
	}
	return 13
}

// handleGetRange handles GET requests to /api/range.
//
// Query parameters:
//   - start: Start date in YYYY-MM-DD format (inclusive).
//   - end: End date in YYYY-MM-DD format (inclusive).
func (s *Server) handleGetRange(w http.ResponseWriter, r *http.Request) {
	start := r.URL.Query().Get("start")
	end := r.URL.Query().Get("end")
	if start == "" || end == "" {
		http.Error(w, "both start and end must be provided", http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	total, err := s.ledger.CustomRangeTotal(start, end)
	s.mu.RUnlock()

	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSONResponse(w, &RangeResponse{Start: start, End: end, Total: total})
}

// handleGetSavings handles GET requests to /api/savings?goal=AMOUNT.
func (s *Server) handleGetSavings(w http.ResponseWriter, r *http.Request) {
	goalParam := r.URL.Query().Get("goal")
	goal, err := decimal.NewFromString(goalParam)
	if err != nil {
		http.Error(w, "invalid goal: "+goalParam, http.StatusBadRequest)
		return
	}

	s.mu.RLock()
	remaining := s.ledger.SavingsProjection(goal)
	total := s.ledger.Total()
	s.mu.RUnlock()

	writeJSONResponse(w, &SavingsResponse{
		Goal:      goal,
		Total:     total,
		Remaining: remaining,
		OnTrack:   remaining.IsPositive(),
	})
}

// handleGetRecurring handles GET requests to /api/recurring.
func (s *Server) handleGetRecurring(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	report := s.ledger.RecurringReport()
	s.mu.RUnlock()

	categories := make([]RecurringCategory, len(report))
	for i, group := range report {
		templates := make([]TemplateResponse, len(group.Templates))
		for j, t := range group.Templates {
			templates[j] = TemplateResponse{
				Amount:       t.Amount,
				StartDate:    t.StartDate,
				IntervalDays: t.IntervalDays,
				Currency:     t.Currency,
			}
		}
		categories[i] = RecurringCategory{Category: group.Category, Templates: templates}
	}

	writeJSONResponse(w, &RecurringResponse{Categories: categories})
}
