package ledger

import (
	"strings"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/shopspring/decimal"
)

// Validation Architecture
//
// Every mutation runs in two phases:
//
// 1. Validation (pure): the validator reads the current records, total and
//    config, checks the request and produces a delta.
// 2. Mutation: the ledger applies the delta. Apply functions assume the delta
//    is valid.
//
// ADD:
//   Ledger.Add(category, amount, date, type)
//     ↓
//   validator.validateAdd() → (*AddDelta, error)
//     ├─ amount > 0
//     ├─ category not blank
//     ├─ date parses as yyyy-MM-dd
//     └─ type is declared
//     ↓
//   Ledger.ApplyAddDelta(delta)
//     └─ append record, bump total, category and month buckets
//
// DEDUCT:
//   Ledger.Deduct(category, amount)
//     ↓
//   validator.validateDeduct() → (*DeductDelta, error)
//     ├─ 0 < amount <= total
//     └─ first record (store order) of the category holding >= amount
//     ↓
//   Ledger.ApplyDeductDelta(delta)
//     └─ reduce record, total and category bucket; drop record at zero

// validator provides read-only access to ledger state.
type validator struct {
	records []*expense.Record
	total   decimal.Decimal
	config  *Config
}

func newValidator(records []*expense.Record, total decimal.Decimal, config *Config) *validator {
	return &validator{
		records: records,
		total:   total,
		config:  config,
	}
}

func (v *validator) validateAdd(category string, amount decimal.Decimal, date string, typ expense.Type) (*AddDelta, error) {
	if !amount.IsPositive() {
		return nil, newInvalidAmountError("add", category, amount, "amount should be greater than zero")
	}

	if strings.TrimSpace(category) == "" {
		return nil, &ValidationError{
			Op:       "add",
			Reason:   ReasonEmptyCategory,
			Category: category,
			Amount:   amount,
			Message:  "category must not be empty",
		}
	}

	d, err := expense.ParseDate(date)
	if err != nil {
		return nil, err
	}

	if !typ.Valid() {
		return nil, &ValidationError{
			Op:       "add",
			Reason:   ReasonInvalidType,
			Category: category,
			Amount:   amount,
			Message:  "unknown expense type " + typ.String(),
		}
	}

	record := &expense.Record{
		ID:        v.config.NewID(),
		Category:  category,
		Amount:    amount,
		Date:      d,
		Type:      typ,
		Currency:  v.config.Currency,
		CreatedAt: v.config.Clock(),
	}

	return &AddDelta{
		Record:        record,
		Month:         d.Month(),
		LimitExceeded: v.total.Add(amount).GreaterThan(v.config.MonthlyLimit),
	}, nil
}

func (v *validator) validateDeduct(category string, amount decimal.Decimal) (*DeductDelta, error) {
	if !amount.IsPositive() {
		return nil, newInvalidAmountError("deduct", category, amount, "amount should be greater than zero")
	}
	if amount.GreaterThan(v.total) {
		return nil, newInvalidAmountError("deduct", category, amount, "amount exceeds total expenses of "+v.total.String())
	}

	// A deduction is satisfied by exactly one record, never split.
	for i, record := range v.records {
		if record.MatchesCategory(category) && record.Amount.GreaterThanOrEqual(amount) {
			return &DeductDelta{
				Index:    i,
				Category: record.Category,
				Amount:   amount,
				Remove:   record.Amount.Equal(amount),
			}, nil
		}
	}

	return nil, &NotFoundError{Category: category, Amount: amount}
}
