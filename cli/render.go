package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/output"
)

// renderer writes reports to a terminal. Column widths are measured in
// terminal cells so categories with wide characters stay aligned.
type renderer struct {
	w      io.Writer
	styles *output.Styles
}

func newRenderer(w io.Writer, styles *output.Styles) *renderer {
	return &renderer{w: w, styles: styles}
}

func (r *renderer) title(text string) {
	_, _ = fmt.Fprintln(r.w, headerStyle.Render(text))
}

// table writes rows under a header. Every row has len(header) cells.
func (r *renderer) table(header []string, rows [][]string, rightAligned map[int]bool) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	line := func(cells []string) string {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if rightAligned[i] {
				parts[i] = runewidth.FillLeft(cell, widths[i])
			} else {
				parts[i] = runewidth.FillRight(cell, widths[i])
			}
		}
		return strings.TrimRight(strings.Join(parts, "  "), " ")
	}

	_, _ = fmt.Fprintln(r.w, headerStyle.Render(line(header)))
	for _, row := range rows {
		_, _ = fmt.Fprintln(r.w, line(row))
	}
}

func (r *renderer) records(title string, records []expense.Record) {
	if len(records) == 0 {
		printInfof(r.w, "No expenses recorded yet.")
		return
	}

	r.title(title)
	rows := make([][]string, len(records))
	for i, rec := range records {
		rows[i] = []string{
			rec.Category,
			output.FormatMoney(rec.Currency, rec.Amount),
			rec.Date.String(),
			rec.Type.String(),
			rec.CreatedAt.Format(time.DateTime),
		}
	}
	r.table([]string{"Category", "Amount", "Date", "Type", "Created"}, rows, map[int]bool{1: true})
}

func (r *renderer) totals(totals ledger.Totals) {
	_, _ = fmt.Fprintf(r.w, "Total Expenses: %s\n", r.styles.Money(totals.Currency, totals.Total))
	if totals.OverLimit {
		printWarning(r.w, fmt.Sprintf("You have exceeded your monthly expense limit by %s!",
			output.FormatMoney(totals.Currency, totals.Overage())))
		return
	}
	printSuccess(r.w, fmt.Sprintf("You are within your monthly limit of %s (%s left).",
		output.FormatMoney(totals.Currency, totals.MonthlyLimit),
		output.FormatMoney(totals.Currency, totals.Headroom())))
}

// categories writes the category breakdown sorted by name.
func (r *renderer) categories(currency string, report map[string]decimal.Decimal) {
	if len(report) == 0 {
		printInfof(r.w, "No categories found.")
		return
	}

	names := maps.Keys(report)
	slices.Sort(names)

	r.title("Expense Breakdown by Category:")
	r.breakdown("Category", names, currency, report)
}

// months writes the month breakdown in calendar order.
func (r *renderer) months(currency string, report map[string]decimal.Decimal) {
	if len(report) == 0 {
		printInfof(r.w, "No monthly data found.")
		return
	}

	names := maps.Keys(report)
	slices.SortFunc(names, func(a, b string) int {
		return monthIndex(a) - monthIndex(b)
	})

	r.title("Monthly Expense Breakdown:")
	r.breakdown("Month", names, currency, report)
}

func (r *renderer) breakdown(label string, names []string, currency string, report map[string]decimal.Decimal) {
	rows := make([][]string, len(names))
	for i, name := range names {
		rows[i] = []string{name, output.FormatMoney(currency, report[name])}
	}
	r.table([]string{label, "Total"}, rows, map[int]bool{1: true})
}

func monthIndex(name string) int {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String(), name) {
			return int(m)
		}
	}
	return 13
}

func (r *renderer) recurring(groups []ledger.CategoryTemplates) {
	if len(groups) == 0 {
		printInfof(r.w, "No recurring expenses recorded.")
		return
	}

	r.title("Recurring Expense Breakdown:")
	var rows [][]string
	for _, group := range groups {
		for _, t := range group.Templates {
			rows = append(rows, []string{
				group.Category,
				output.FormatMoney(t.Currency, t.Amount),
				t.StartDate.String(),
				fmt.Sprintf("%d days", t.IntervalDays),
			})
		}
	}
	r.table([]string{"Category", "Amount", "Start", "Interval"}, rows, map[int]bool{1: true, 3: true})
}

func (r *renderer) yearly(currency string, total decimal.Decimal) {
	_, _ = fmt.Fprintf(r.w, "Yearly Report: Total expenses for the year: %s\n", r.styles.Money(currency, total))
}

func (r *renderer) customRange(currency, start, end string, total decimal.Decimal) {
	_, _ = fmt.Fprintf(r.w, "Custom Report: Total expenses from %s to %s: %s\n", start, end, r.styles.Money(currency, total))
}

func (r *renderer) savings(currency string, goal, remaining decimal.Decimal) {
	_, _ = fmt.Fprintf(r.w, "Savings Goal: %s\n", r.styles.Money(currency, goal))
	if remaining.IsPositive() {
		printSuccess(r.w, fmt.Sprintf("You're on track! You have %s left to reach your goal.", output.FormatMoney(currency, remaining)))
		return
	}
	printSuccess(r.w, fmt.Sprintf("Great job! You've exceeded your savings goal by %s.", output.FormatMoney(currency, remaining.Neg())))
}
