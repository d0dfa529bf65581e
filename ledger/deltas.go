package ledger

import (
	"fmt"

	"github.com/robinvdvleuten/expenses/expense"
	"github.com/shopspring/decimal"
)

// Validators return deltas instead of mutating the ledger. The ledger applies a
// delta only once validation passed, so a rejected operation never leaves
// partial state behind.

// AddDelta describes the insertion of one record.
type AddDelta struct {
	Record        *expense.Record
	Month         string
	LimitExceeded bool
}

func (d *AddDelta) String() string {
	return fmt.Sprintf("add %s %s to %s (%s)", d.Record.Amount, d.Record.Currency, d.Record.Category, d.Month)
}

// DeductDelta describes a reduction of a single record.
type DeductDelta struct {
	Index    int    // position of the record in store order
	Category string // stored category of the matched record
	Amount   decimal.Decimal
	Remove   bool // record reaches exactly zero
}

func (d *DeductDelta) String() string {
	action := "reduce"
	if d.Remove {
		action = "remove"
	}
	return fmt.Sprintf("%s record %d: deduct %s from %s", action, d.Index, d.Amount, d.Category)
}
