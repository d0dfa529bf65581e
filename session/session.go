// Package session dispatches parsed commands to a ledger.
//
// A Session owns one ledger and one loader. Each Command maps to exactly one
// ledger or loader call, and Execute returns the outcome as a Result for the
// presentation layer to render. The session never prints.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/robinvdvleuten/expenses/loader"
	"github.com/shopspring/decimal"
)

// ErrUnknownCommand is returned by Execute for commands it cannot dispatch.
var ErrUnknownCommand = errors.New("unknown command")

// Result is the structured outcome of one command. Only the fields relevant to
// the executed command are set.
type Result struct {
	Command string

	// LimitExceeded is set by Add when the new total exceeds the monthly limit.
	LimitExceeded bool

	Records   []expense.Record
	Totals    ledger.Totals
	Breakdown map[string]decimal.Decimal
	Amount    decimal.Decimal
	Recurring []ledger.CategoryTemplates

	// Load summarizes a Load command.
	Load *codec.Result
}

// Session binds a ledger to a loader.
type Session struct {
	ledger *ledger.Ledger
	loader *loader.Loader
	logger *slog.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLedger uses an existing ledger instead of building one.
func WithLedger(l *ledger.Ledger) Option {
	return func(s *Session) {
		s.ledger = l
	}
}

// WithLoader sets the loader used by Save and Load commands.
func WithLoader(l *loader.Loader) Option {
	return func(s *Session) {
		s.loader = l
	}
}

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Session. Unless WithLedger is given, the ledger is built from
// the ledger.Config attached to ctx.
func New(ctx context.Context, opts ...Option) *Session {
	s := &Session{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.ledger == nil {
		s.ledger = ledger.New(ledger.ConfigFromContext(ctx).Options()...)
	}
	if s.loader == nil {
		s.loader = loader.New(loader.WithLogger(s.logger))
	}
	return s
}

// Ledger returns the ledger the session operates on.
func (s *Session) Ledger() *ledger.Ledger {
	return s.ledger
}

// Execute runs cmd against the ledger. Engine errors are returned unchanged so
// callers can inspect them with errors.As and ledger.ReasonOf.
func (s *Session) Execute(ctx context.Context, cmd Command) (*Result, error) {
	if cmd == nil {
		return nil, ErrUnknownCommand
	}

	result := &Result{Command: cmd.Name()}
	err := s.dispatch(ctx, cmd, result)

	if err != nil {
		s.logger.DebugContext(ctx, "command failed",
			"command", result.Command,
			"reason", ledger.ReasonOf(err).String(),
			"error", err,
		)
		if errors.Is(err, ErrUnknownCommand) {
			return nil, err
		}
		return result, err
	}

	s.logger.DebugContext(ctx, "command executed",
		"command", result.Command,
		"records", s.ledger.Len(),
		"total", s.ledger.Total().String(),
	)
	return result, nil
}

func (s *Session) dispatch(ctx context.Context, cmd Command, result *Result) error {
	l := s.ledger

	switch c := cmd.(type) {
	case Add:
		exceeded, err := l.Add(c.Category, c.Amount, c.Date, c.Type)
		result.LimitExceeded = exceeded
		return err

	case Deduct:
		return l.Deduct(c.Category, c.Amount)

	case DeclareRecurring:
		start, err := expense.ParseDate(c.StartDate)
		if err != nil {
			return err
		}
		l.DeclareRecurring(c.Category, c.Amount, start, c.IntervalDays)

	case Reset:
		l.Reset()

	case SetMonthlyLimit:
		l.SetMonthlyLimit(c.Limit)

	case AllExpenses:
		result.Records = l.AllExpenses()

	case TotalExpenses:
		result.Totals = l.TotalExpenses()

	case CategoryReport:
		result.Breakdown = l.CategoryReport()

	case MonthlyReport:
		result.Breakdown = l.MonthlyReport()

	case SortByAmount:
		l.SortByAmount()

	case SortByDate:
		l.SortByDate()

	case FilterByCategory:
		records, err := l.FilterByCategory(c.Category)
		result.Records = records
		return err

	case FilterByDate:
		records, err := l.FilterByDate(c.Date)
		result.Records = records
		return err

	case CustomRangeTotal:
		total, err := l.CustomRangeTotal(c.Start, c.End)
		result.Amount = total
		return err

	case YearlyTotal:
		result.Amount = l.YearlyTotal()

	case SavingsProjection:
		result.Amount = l.SavingsProjection(c.Goal)

	case RecurringReport:
		result.Recurring = l.RecurringReport()

	case Save:
		return s.loader.Save(ctx, c.Path, l)

	case Load:
		loaded, err := s.loader.Load(ctx, c.Path, l)
		result.Load = loaded
		return err

	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, cmd)
	}

	return nil
}
