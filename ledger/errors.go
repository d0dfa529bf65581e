package ledger

import (
	"errors"
	"fmt"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/shopspring/decimal"
)

// Reason classifies why a mutation was rejected.
type Reason int

const (
	ReasonNone Reason = iota
	ReasonInvalidAmount
	ReasonEmptyCategory
	ReasonInvalidType
	ReasonNotFound
	ReasonParse
	ReasonUnknown
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonInvalidAmount:
		return "invalid amount"
	case ReasonEmptyCategory:
		return "empty category"
	case ReasonInvalidType:
		return "invalid type"
	case ReasonNotFound:
		return "not found"
	case ReasonParse:
		return "parse error"
	default:
		return "unknown"
	}
}

// ErrNoExpenses is returned by filters that matched nothing.
var ErrNoExpenses = errors.New("no expenses found")

// ValidationError is returned when a mutation is rejected before touching state.
type ValidationError struct {
	Op       string // "add" or "deduct"
	Reason   Reason
	Category string
	Amount   decimal.Decimal
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Category, e.Message)
}

func (e *ValidationError) GetReason() Reason {
	return e.Reason
}

func newInvalidAmountError(op, category string, amount decimal.Decimal, message string) *ValidationError {
	return &ValidationError{
		Op:       op,
		Reason:   ReasonInvalidAmount,
		Category: category,
		Amount:   amount,
		Message:  message,
	}
}

// NotFoundError is returned by Deduct when no single record of the category
// holds at least the requested amount.
type NotFoundError struct {
	Category string
	Amount   decimal.Decimal
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("deduct %s: no matching expense holds at least %s", e.Category, e.Amount)
}

func (e *NotFoundError) GetReason() Reason {
	return ReasonNotFound
}

// ValidationErrors wraps multiple rejected mutations
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}

// ReasonOf maps an error returned by Add or Deduct onto its Reason.
// A nil error is ReasonNone.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}

	var reasoned interface{ GetReason() Reason }
	if errors.As(err, &reasoned) {
		return reasoned.GetReason()
	}

	var parseErr *expense.ParseError
	if errors.As(err, &parseErr) {
		return ReasonParse
	}

	return ReasonUnknown
}
