// Package codec reads and writes the line-oriented expense file format:
//
//	Monthly Limit: <number>
//	<category>,<amount>,<yyyy-MM-dd>,<TYPE>,<createdAt>,<currency>
//	...
//
// Decoding never restores records directly. Every record line is replayed
// through the target's Add, so the stored currency and creation time are
// discarded and re-stamped from the target's current configuration.
package codec

import (
	"github.com/robinvdvleuten/expenses/expense"
	"github.com/shopspring/decimal"
)

// HeaderPrefix starts the first line of an encoded ledger.
const HeaderPrefix = "Monthly Limit: "

// TimestampLayout formats CreatedAt on record lines.
const TimestampLayout = "2006-01-02T15:04:05.999999999"

// recordFields is the number of comma separated fields on a record line.
const recordFields = 6

// Source is what Encode reads from.
type Source interface {
	MonthlyLimit() decimal.Decimal
	AllExpenses() []expense.Record
}

// Target is what Decode replays into.
type Target interface {
	SetMonthlyLimit(limit decimal.Decimal)
	Add(category string, amount decimal.Decimal, date string, typ expense.Type) (bool, error)
}
