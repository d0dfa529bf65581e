package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/alecthomas/kong"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/loader"
	"github.com/robinvdvleuten/expenses/output"
	"github.com/robinvdvleuten/expenses/session"
)

type ShellCmd struct {
	File string `help:"Ledger file used by the save and load actions (defaults to data_file)." arg:"" optional:"" type:"path"`
	Load bool   `help:"Load the ledger file on start when it exists." negatable:""`
}

func (cmd *ShellCmd) Run(ctx *kong.Context, globals *Globals) error {
	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}

	runCtx, reportTelemetry := globals.startTelemetry(ctx, "shell")
	defer reportTelemetry()

	logger := globals.Logger(ctx.Stderr)
	path := cmd.File
	if path == "" {
		path = cfg.DataFile
	}

	ldr := loader.New(append(cfg.LoaderOptions(), loader.WithLogger(logger))...)
	sess := session.New(cfg.LedgerConfig().WithContext(runCtx),
		session.WithLoader(ldr),
		session.WithLogger(logger),
	)
	cfg.DeclareRecurring(sess.Ledger())

	var p prompter = newLinePrompter(os.Stdin, ctx.Stdout)
	if isTerminal() {
		p = formPrompter{}
	}

	sh := newShell(sess, p, ctx.Stdout, output.NewStyles(ctx.Stdout), path)

	_, _ = fmt.Fprintln(ctx.Stdout, "Welcome to Personal Expense Tracker!")
	if cmd.Load {
		if _, err := os.Stat(path); err == nil {
			sh.load(runCtx, path)
			cfg.ApplyLimitOverride(sess.Ledger())
		}
	}

	return sh.run(runCtx)
}

type action int

const (
	actionAdd action = iota + 1
	actionDeduct
	actionAll
	actionTotal
	actionSetLimit
	actionCategoryReport
	actionMonthlyReport
	actionSave
	actionLoad
	actionSortAmount
	actionSortDate
	actionLimitReport
	actionYearly
	actionFilterCategory
	actionFilterDate
	actionCustomRange
	actionSavings
	actionReset
	actionDeclareRecurring
	actionRecurringReport
	actionExit
)

type menuItem struct {
	action action
	title  string
}

var menu = []menuItem{
	{actionAdd, "Add Expense"},
	{actionDeduct, "Deduct Expense"},
	{actionAll, "View All Expenses"},
	{actionTotal, "View Total Expenses"},
	{actionSetLimit, "Set Monthly Limit"},
	{actionCategoryReport, "View Category Report"},
	{actionMonthlyReport, "View Monthly Report"},
	{actionSave, "Save Data to File"},
	{actionLoad, "Load Data from File"},
	{actionSortAmount, "Sort Expenses by Amount"},
	{actionSortDate, "Sort Expenses by Date"},
	{actionLimitReport, "Generate Monthly Report"},
	{actionYearly, "Generate Yearly Report"},
	{actionFilterCategory, "Filter Expenses by Category"},
	{actionFilterDate, "Filter Expenses by Date"},
	{actionCustomRange, "Generate Custom Report"},
	{actionSavings, "Track Savings Progress"},
	{actionReset, "Reset Expenses for New Year"},
	{actionDeclareRecurring, "Add Recurring Expense"},
	{actionRecurringReport, "View Recurring Expenses"},
	{actionExit, "Exit"},
}

// shell is the interactive menu loop. It translates menu choices and inputs
// into session commands and renders their results.
type shell struct {
	session *session.Session
	prompt  prompter
	w       io.Writer
	out     *renderer
	styles  *output.Styles
	path    string
}

func newShell(sess *session.Session, p prompter, w io.Writer, styles *output.Styles, path string) *shell {
	return &shell{
		session: sess,
		prompt:  p,
		w:       w,
		out:     newRenderer(w, styles),
		styles:  styles,
		path:    path,
	}
}

// run shows the menu until the user exits or input ends.
func (s *shell) run(ctx context.Context) error {
	for {
		choice, err := s.prompt.Choose(menu)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
		if choice == actionExit {
			printInfof(s.w, "Goodbye!")
			return nil
		}

		if err := s.dispatch(ctx, choice); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// dispatch runs one menu action. Only prompt failures are returned; command
// failures are printed.
func (s *shell) dispatch(ctx context.Context, choice action) error {
	switch choice {
	case actionAdd:
		return s.add(ctx)
	case actionDeduct:
		return s.deduct(ctx)
	case actionAll:
		if result, ok := s.execute(ctx, session.AllExpenses{}); ok {
			s.out.records("All Expenses:", result.Records)
		}
	case actionTotal:
		if result, ok := s.execute(ctx, session.TotalExpenses{}); ok {
			s.out.totals(result.Totals)
		}
	case actionSetLimit:
		limit, err := s.inputDecimal("Enter new monthly limit")
		if err != nil || limit == nil {
			return err
		}
		if _, ok := s.execute(ctx, session.SetMonthlyLimit{Limit: *limit}); ok {
			printSuccess(s.w, "Monthly expense limit updated to "+s.money(*limit))
		}
	case actionCategoryReport:
		if result, ok := s.execute(ctx, session.CategoryReport{}); ok {
			s.out.categories(s.currency(), result.Breakdown)
		}
	case actionMonthlyReport:
		if result, ok := s.execute(ctx, session.MonthlyReport{}); ok {
			s.out.months(s.currency(), result.Breakdown)
		}
	case actionSave:
		path, err := s.inputPath("Enter filename to save")
		if err != nil {
			return err
		}
		if _, ok := s.execute(ctx, session.Save{Path: path}); ok {
			printSuccess(s.w, "Data saved to "+s.styles.FilePath(path))
		}
	case actionLoad:
		path, err := s.inputPath("Enter filename to load")
		if err != nil {
			return err
		}
		s.load(ctx, path)
	case actionSortAmount:
		if _, ok := s.execute(ctx, session.SortByAmount{}); ok {
			printSuccess(s.w, "Expenses sorted by amount.")
		}
	case actionSortDate:
		if _, ok := s.execute(ctx, session.SortByDate{}); ok {
			printSuccess(s.w, "Expenses sorted by date.")
		}
	case actionLimitReport:
		if result, ok := s.execute(ctx, session.TotalExpenses{}); ok {
			s.limitReport(result.Totals)
		}
	case actionYearly:
		if result, ok := s.execute(ctx, session.YearlyTotal{}); ok {
			s.out.yearly(s.currency(), result.Amount)
		}
	case actionFilterCategory:
		category, err := s.prompt.Input("Enter category to filter by")
		if err != nil {
			return err
		}
		if result, ok := s.execute(ctx, session.FilterByCategory{Category: category}); ok {
			s.out.records("Expenses in "+s.styles.Category(category)+":", result.Records)
		}
	case actionFilterDate:
		date, err := s.prompt.Input("Enter date to filter by (yyyy-MM-dd)")
		if err != nil {
			return err
		}
		if result, ok := s.execute(ctx, session.FilterByDate{Date: date}); ok {
			s.out.records("Expenses on "+date+":", result.Records)
		}
	case actionCustomRange:
		return s.customRange(ctx)
	case actionSavings:
		goal, err := s.inputDecimal("Enter your savings goal")
		if err != nil || goal == nil {
			return err
		}
		if result, ok := s.execute(ctx, session.SavingsProjection{Goal: *goal}); ok {
			s.out.savings(s.currency(), *goal, result.Amount)
		}
	case actionReset:
		if _, ok := s.execute(ctx, session.Reset{}); ok {
			printSuccess(s.w, "Expenses have been reset for the new year.")
		}
	case actionDeclareRecurring:
		return s.declareRecurring(ctx)
	case actionRecurringReport:
		if result, ok := s.execute(ctx, session.RecurringReport{}); ok {
			s.out.recurring(result.Recurring)
		}
	}
	return nil
}

func (s *shell) add(ctx context.Context) error {
	category, err := s.prompt.Input("Enter expense category")
	if err != nil {
		return err
	}
	amount, err := s.inputDecimal("Enter expense amount")
	if err != nil || amount == nil {
		return err
	}
	date, err := s.prompt.Input("Enter expense date (yyyy-MM-dd)")
	if err != nil {
		return err
	}
	typeName, err := s.prompt.Input("Enter expense type (fixed/variable/recurring)")
	if err != nil {
		return err
	}
	typ, err := expense.ParseType(typeName)
	if err != nil {
		printError(s.w, fmt.Sprintf("Unknown expense type %q.", typeName))
		return nil
	}

	result, ok := s.execute(ctx, session.Add{Category: category, Amount: *amount, Date: date, Type: typ})
	if !ok {
		return nil
	}
	if result.LimitExceeded {
		printWarning(s.w, "Warning: Adding this expense exceeds your monthly limit!")
	}
	printSuccess(s.w, "Expense added successfully!")
	return nil
}

func (s *shell) deduct(ctx context.Context) error {
	category, err := s.prompt.Input("Enter category to deduct from")
	if err != nil {
		return err
	}
	amount, err := s.inputDecimal("Enter amount to deduct")
	if err != nil || amount == nil {
		return err
	}

	if _, ok := s.execute(ctx, session.Deduct{Category: category, Amount: *amount}); ok {
		printSuccess(s.w, "Expense deducted successfully!")
	}
	return nil
}

func (s *shell) customRange(ctx context.Context) error {
	start, err := s.prompt.Input("Enter start date (yyyy-MM-dd)")
	if err != nil {
		return err
	}
	end, err := s.prompt.Input("Enter end date (yyyy-MM-dd)")
	if err != nil {
		return err
	}

	if result, ok := s.execute(ctx, session.CustomRangeTotal{Start: start, End: end}); ok {
		s.out.customRange(s.currency(), start, end, result.Amount)
	}
	return nil
}

func (s *shell) declareRecurring(ctx context.Context) error {
	category, err := s.prompt.Input("Enter recurring expense category")
	if err != nil {
		return err
	}
	amount, err := s.inputDecimal("Enter recurring expense amount")
	if err != nil || amount == nil {
		return err
	}
	start, err := s.prompt.Input("Enter start date (yyyy-MM-dd)")
	if err != nil {
		return err
	}
	intervalText, err := s.prompt.Input("Enter interval in days")
	if err != nil {
		return err
	}
	interval, err := strconv.Atoi(intervalText)
	if err != nil {
		printError(s.w, fmt.Sprintf("Invalid interval %q.", intervalText))
		return nil
	}

	cmd := session.DeclareRecurring{Category: category, Amount: *amount, StartDate: start, IntervalDays: interval}
	if _, ok := s.execute(ctx, cmd); ok {
		printSuccess(s.w, fmt.Sprintf("Recurring expense added for category: %s with an interval of %d days.", category, interval))
	}
	return nil
}

// load replays path into the session ledger and reports problems line by
// line.
func (s *shell) load(ctx context.Context, path string) {
	result, err := s.session.Execute(ctx, session.Load{Path: path})

	var fileErr *loader.FileError
	if errors.As(err, &fileErr) {
		printError(s.w, "Error loading from file: "+fileErr.Err.Error())
		return
	}

	var validationErrs *ledger.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		for _, e := range validationErrs.Errors {
			printWarning(s.w, "Rejected "+e.Error())
		}
	case err != nil:
		if result != nil && result.Load != nil {
			for _, e := range result.Load.Rejected {
				printWarning(s.w, "Rejected "+e.Error())
			}
		}
		printError(s.w, err.Error())
		if result != nil && result.Load != nil {
			printInfof(s.w, "Kept %d expense(s) read before the error.", result.Load.Applied)
		}
		return
	}

	if result.Load.LimitExceeded > 0 {
		printWarning(s.w, fmt.Sprintf("Warning: %d loaded expense(s) exceeded your monthly limit!", result.Load.LimitExceeded))
	}
	printSuccess(s.w, fmt.Sprintf("Data loaded from %s (%d expenses).", s.styles.FilePath(path), result.Load.Applied))
}

func (s *shell) limitReport(totals ledger.Totals) {
	_, _ = fmt.Fprintf(s.w, "Monthly Report: Total expenses for the month: %s\n", s.styles.Money(totals.Currency, totals.Total))
	if totals.OverLimit {
		printWarning(s.w, "Warning: You've exceeded your monthly limit by "+s.money(totals.Overage()))
		return
	}
	printSuccess(s.w, "You're within the monthly limit by "+s.money(totals.Headroom()))
}

// execute runs cmd and prints its failure. It reports whether cmd succeeded.
func (s *shell) execute(ctx context.Context, cmd session.Command) (*session.Result, bool) {
	result, err := s.session.Execute(ctx, cmd)
	if err != nil {
		printError(s.w, describeError(cmd, err))
		return nil, false
	}
	return result, true
}

// inputPath asks for a filename. An empty answer selects the configured data
// file.
func (s *shell) inputPath(title string) (string, error) {
	path, err := s.prompt.Input(fmt.Sprintf("%s (default %s)", title, s.path))
	if err != nil {
		return "", err
	}
	if path == "" {
		return s.path, nil
	}
	return path, nil
}

// inputDecimal asks for an amount. It returns nil after printing an error when
// the input is not a number.
func (s *shell) inputDecimal(title string) (*decimal.Decimal, error) {
	text, err := s.prompt.Input(title)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(text)
	if err != nil {
		printError(s.w, fmt.Sprintf("Invalid amount %q.", text))
		return nil, nil
	}
	return &amount, nil
}

func (s *shell) currency() string {
	return s.session.Ledger().Currency()
}

func (s *shell) money(amount decimal.Decimal) string {
	return output.FormatMoney(s.currency(), amount)
}

// describeError turns a command failure into a message for the user.
func describeError(cmd session.Command, err error) string {
	var fileErr *loader.FileError
	if errors.As(err, &fileErr) {
		return "Error saving to file: " + fileErr.Err.Error()
	}

	if errors.Is(err, ledger.ErrNoExpenses) {
		switch c := cmd.(type) {
		case session.FilterByCategory:
			return "No expenses found in the category: " + c.Category
		case session.FilterByDate:
			return "No expenses found on the date: " + c.Date
		}
	}

	var decodeErr *codec.DecodeError
	if errors.As(err, &decodeErr) {
		return err.Error()
	}

	switch ledger.ReasonOf(err) {
	case ledger.ReasonInvalidAmount:
		if _, ok := cmd.(session.Deduct); ok {
			return "Invalid amount to deduct."
		}
		return "Amount should be greater than zero."
	case ledger.ReasonEmptyCategory:
		return "Category must not be empty."
	case ledger.ReasonNotFound:
		return "No matching expense found or insufficient amount in the category."
	case ledger.ReasonParse:
		var parseErr *expense.ParseError
		if errors.As(err, &parseErr) && parseErr.Field == "date" {
			return fmt.Sprintf("Invalid date %q, expected yyyy-MM-dd.", parseErr.Value)
		}
	}

	return err.Error()
}
