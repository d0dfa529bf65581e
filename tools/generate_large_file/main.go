// Large Expense File Generator
//
// This tool generates a large expense ledger file for performance testing and profiling.
// It builds realistic records through the ledger and writes them with the file codec, so
// the output always loads back cleanly.
//
// Usage:
//
//	go run main.go > large.txt
//	go run main.go 20000000 > large.txt  # Specify target size in bytes
package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/expenses/codec"
	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB

	// approximate encoded size of one record line
	recordSize = 60
)

var (
	categories = []struct {
		name     string
		typ      expense.Type
		min, max int
	}{
		{"Rent", expense.Fixed, 700, 1500},
		{"Utilities", expense.Fixed, 40, 200},
		{"Insurance", expense.Fixed, 20, 150},
		{"Groceries", expense.Variable, 5, 150},
		{"Restaurant", expense.Variable, 10, 120},
		{"Fuel", expense.Variable, 20, 90},
		{"Transit", expense.Variable, 2, 40},
		{"Clothing", expense.Variable, 15, 300},
		{"Electronics", expense.Variable, 25, 1200},
		{"Medical", expense.Variable, 10, 400},
		{"Gym", expense.Recurring, 20, 60},
		{"Streaming", expense.Recurring, 5, 20},
		{"Phone", expense.Recurring, 15, 80},
	}

	currencies = []string{"USD", "EUR", "GBP", "CAD"}
)

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	l := ledger.New(
		ledger.WithCurrency(currencies[rand.Intn(len(currencies))]),
		ledger.WithMonthlyLimit(decimal.NewFromInt(2500)),
	)

	currentDate := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for count := 0; count*recordSize < targetSize; count++ {
		c := categories[rand.Intn(len(categories))]
		if _, err := l.Add(c.name, randAmount(c.min, c.max), currentDate.Format(expense.DateLayout), c.typ); err != nil {
			fmt.Fprintf(os.Stderr, "failed to add record: %v\n", err)
			os.Exit(1)
		}

		// Advance date by 0-2 days
		currentDate = currentDate.AddDate(0, 0, rand.Intn(3))
	}

	if err := codec.Encode(os.Stdout, l); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write records: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "\nGenerated %d records totalling %s\n", l.Len(), l.Total().StringFixed(2))
}

func randAmount(min, max int) decimal.Decimal {
	cents := int64(min*100 + rand.Intn((max-min)*100+1))
	return decimal.New(cents, -2)
}
