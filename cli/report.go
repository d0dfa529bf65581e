package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/loader"
	"github.com/robinvdvleuten/expenses/output"
	"github.com/robinvdvleuten/expenses/session"
)

// reportSections lists the sections in print order.
var reportSections = []string{"expenses", "totals", "categories", "months", "yearly", "recurring", "range", "savings"}

type ReportCmd struct {
	File     FileOrStdin `help:"Ledger file (use '-' for stdin, defaults to data_file)." arg:"" optional:""`
	Sections []string    `help:"Sections to print: all, expenses, totals, categories, months, yearly, recurring, range, savings." default:"totals,categories,months" sep:","`
	Category string      `help:"Only list expenses of this category."`
	Date     string      `help:"Only list expenses on this date (yyyy-MM-dd)."`
	Sort     string      `help:"Sort listed expenses." enum:"none,amount,date" default:"none"`
	From     string      `help:"Start of the custom range (yyyy-MM-dd)."`
	To       string      `help:"End of the custom range (yyyy-MM-dd)."`
	Goal     string      `help:"Savings goal to compare against."`
}

func (cmd *ReportCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}
	cmd.File.EnsureFile(cfg.DataFile)

	runCtx, reportTelemetry := globals.startTelemetry(ctx, "report "+cmd.File.Filename)
	defer reportTelemetry()

	logger := globals.Logger(ctx.Stderr)
	sess := session.New(cfg.LedgerConfig().WithContext(runCtx), session.WithLogger(logger))
	cfg.DeclareRecurring(sess.Ledger())

	result, err := cmd.File.LoadInto(runCtx, loader.New(loader.WithLogger(logger)), sess.Ledger())
	cfg.ApplyLimitOverride(sess.Ledger())
	var validationErrs *ledger.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		for _, e := range validationErrs.Errors {
			printWarning(ctx.Stderr, "Rejected "+e.Error())
		}
	case err != nil:
		if result != nil {
			for _, e := range result.Rejected {
				printWarning(ctx.Stderr, "Rejected "+e.Error())
			}
		}
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}
	if len(result.Skipped) > 0 {
		printWarning(ctx.Stderr, fmt.Sprintf("Skipped %d malformed line(s).", len(result.Skipped)))
	}

	if err := cmd.print(runCtx, sess, ctx.Stdout); err != nil {
		printError(ctx.Stderr, err.Error())
		return NewCommandError(1)
	}
	return nil
}

// print writes the selected sections in their fixed order.
func (cmd *ReportCmd) print(ctx context.Context, sess *session.Session, w io.Writer) error {
	selected := make(map[string]bool, len(cmd.Sections))
	for _, section := range cmd.Sections {
		section = strings.ToLower(strings.TrimSpace(section))
		if section == "all" {
			for _, s := range reportSections {
				selected[s] = true
			}
			continue
		}
		if !slices.Contains(reportSections, section) {
			return fmt.Errorf("unknown section %q (expected one of: all, %s)", section, strings.Join(reportSections, ", "))
		}
		selected[section] = true
	}
	if cmd.Category != "" || cmd.Date != "" {
		selected["expenses"] = true
	}
	if cmd.From != "" || cmd.To != "" {
		selected["range"] = true
	}
	if cmd.Goal != "" {
		selected["savings"] = true
	}

	out := newRenderer(w, output.NewStyles(w))
	currency := sess.Ledger().Currency()

	first := true
	for _, section := range reportSections {
		if !selected[section] {
			continue
		}
		if !first {
			_, _ = fmt.Fprintln(w)
		}
		first = false

		if err := cmd.printSection(ctx, sess, out, currency, section); err != nil {
			return err
		}
	}
	return nil
}

func (cmd *ReportCmd) printSection(ctx context.Context, sess *session.Session, out *renderer, currency, section string) error {
	switch section {
	case "expenses":
		records, err := cmd.expenses(ctx, sess)
		if errors.Is(err, ledger.ErrNoExpenses) {
			printInfof(out.w, "No expenses match.")
			return nil
		}
		if err != nil {
			return err
		}
		out.records("Expenses:", records)

	case "totals":
		result, err := sess.Execute(ctx, session.TotalExpenses{})
		if err != nil {
			return err
		}
		out.totals(result.Totals)

	case "categories":
		result, err := sess.Execute(ctx, session.CategoryReport{})
		if err != nil {
			return err
		}
		out.categories(currency, result.Breakdown)

	case "months":
		result, err := sess.Execute(ctx, session.MonthlyReport{})
		if err != nil {
			return err
		}
		out.months(currency, result.Breakdown)

	case "yearly":
		result, err := sess.Execute(ctx, session.YearlyTotal{})
		if err != nil {
			return err
		}
		out.yearly(currency, result.Amount)

	case "recurring":
		result, err := sess.Execute(ctx, session.RecurringReport{})
		if err != nil {
			return err
		}
		out.recurring(result.Recurring)

	case "range":
		if cmd.From == "" || cmd.To == "" {
			return errors.New("the range section needs both --from and --to")
		}
		result, err := sess.Execute(ctx, session.CustomRangeTotal{Start: cmd.From, End: cmd.To})
		if err != nil {
			return err
		}
		out.customRange(currency, cmd.From, cmd.To, result.Amount)

	case "savings":
		goal, err := decimal.NewFromString(cmd.Goal)
		if err != nil {
			return fmt.Errorf("invalid --goal %q", cmd.Goal)
		}
		result, err := sess.Execute(ctx, session.SavingsProjection{Goal: goal})
		if err != nil {
			return err
		}
		out.savings(currency, goal, result.Amount)
	}
	return nil
}

// expenses lists records after applying the filter and sort flags. Sorting
// reorders the loaded ledger, which is discarded after the report.
func (cmd *ReportCmd) expenses(ctx context.Context, sess *session.Session) ([]expense.Record, error) {
	switch cmd.Sort {
	case "amount":
		if _, err := sess.Execute(ctx, session.SortByAmount{}); err != nil {
			return nil, err
		}
	case "date":
		if _, err := sess.Execute(ctx, session.SortByDate{}); err != nil {
			return nil, err
		}
	}

	var query session.Command = session.AllExpenses{}
	switch {
	case cmd.Category != "":
		query = session.FilterByCategory{Category: cmd.Category}
	case cmd.Date != "":
		query = session.FilterByDate{Date: cmd.Date}
	}

	result, err := sess.Execute(ctx, query)
	if err != nil {
		return nil, err
	}

	records := result.Records
	if cmd.Category != "" && cmd.Date != "" {
		filtered := records[:0]
		for _, r := range records {
			if r.Date.String() == cmd.Date {
				filtered = append(filtered, r)
			}
		}
		if len(filtered) == 0 {
			return nil, ledger.ErrNoExpenses
		}
		records = filtered
	}
	return records, nil
}
