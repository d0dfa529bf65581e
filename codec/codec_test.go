package codec

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/robinvdvleuten/expenses/expense"
	"github.com/robinvdvleuten/expenses/ledger"
	"github.com/shopspring/decimal"
)

var (
	savedAt  = time.Date(2024, 3, 20, 9, 30, 15, 0, time.UTC)
	loadedAt = time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedLedger(t *testing.T) *ledger.Ledger {
	t.Helper()

	l := ledger.New(
		ledger.WithCurrency("EUR"),
		ledger.WithMonthlyLimit(dec("1500.5")),
		ledger.WithClock(func() time.Time { return savedAt }),
	)
	for _, e := range []struct {
		category, amount, date string
		typ                    expense.Type
	}{
		{"Rent", "800", "2024-02-10", expense.Fixed},
		{"Food", "25.50", "2024-01-05", expense.Variable},
		{"Gym", "30", "2024-02-01", expense.Recurring},
	} {
		_, err := l.Add(e.category, dec(e.amount), e.date, e.typ)
		assert.NoError(t, err)
	}
	return l
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, seedLedger(t)))

	want := "Monthly Limit: 1500.5\n" +
		"Rent,800,2024-02-10,FIXED,2024-03-20T09:30:15,EUR\n" +
		"Food,25.5,2024-01-05,VARIABLE,2024-03-20T09:30:15,EUR\n" +
		"Gym,30,2024-02-01,RECURRING,2024-03-20T09:30:15,EUR\n"
	assert.Equal(t, want, buf.String())
}

func TestEncodeEmptyLedger(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, ledger.New()))
	assert.Equal(t, "Monthly Limit: 0\n", buf.String())
}

func TestRoundTrip(t *testing.T) {
	original := seedLedger(t)

	var buf bytes.Buffer
	assert.NoError(t, Encode(&buf, original))

	restored := ledger.New(
		ledger.WithCurrency("GBP"),
		ledger.WithClock(func() time.Time { return loadedAt }),
	)
	result, err := Decode(context.Background(), &buf, restored)
	assert.NoError(t, err)
	assert.Equal(t, 3, result.Applied)
	assert.True(t, result.HeaderFound)
	assert.True(t, dec("1500.5").Equal(restored.MonthlyLimit()))

	want := original.AllExpenses()
	got := restored.AllExpenses()
	assert.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].Category, got[i].Category)
		assert.True(t, want[i].Amount.Equal(got[i].Amount))
		assert.Equal(t, want[i].Date.String(), got[i].Date.String())
		assert.Equal(t, want[i].Type, got[i].Type)

		// Re-stamped from the loading ledger.
		assert.Equal(t, "GBP", got[i].Currency)
		assert.Equal(t, loadedAt, got[i].CreatedAt)
	}
	assert.True(t, original.Total().Equal(restored.Total()))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantApplied int
		wantSkipped []int
		wantLimit   string
		checkErr    func(*testing.T, error)
	}{
		{
			name:        "header only",
			input:       "Monthly Limit: 250\n",
			wantLimit:   "250",
			wantApplied: 0,
		},
		{
			name:        "header with surrounding spaces",
			input:       "Monthly Limit:  99.5 \n",
			wantLimit:   "99.5",
			wantApplied: 0,
		},
		{
			name:        "first line without header is never a record",
			input:       "Food,5,2024-03-01,VARIABLE,x,USD\nFood,6,2024-03-02,VARIABLE,x,USD\n",
			wantLimit:   "0",
			wantApplied: 1,
		},
		{
			name:        "wrong field counts are skipped",
			input:       "Monthly Limit: 10\nFood,5,2024-03-01,VARIABLE,x\n\nFood,5,2024-03-01,VARIABLE,x,USD,extra\nFuel,7,2024-03-02,fixed,x,USD\n",
			wantLimit:   "10",
			wantApplied: 1,
			wantSkipped: []int{2, 3, 4},
		},
		{
			name:        "trailing empty currency drops below six fields",
			input:       "Monthly Limit: 10\nFood,5,2024-03-01,VARIABLE,x,\n",
			wantLimit:   "10",
			wantApplied: 0,
			wantSkipped: []int{2},
		},
		{
			name:        "repeated save blocks accumulate",
			input:       "Monthly Limit: 10\nFood,5,2024-03-01,VARIABLE,x,USD\nMonthly Limit: 20\nFood,5,2024-03-01,VARIABLE,x,USD\n",
			wantLimit:   "10",
			wantApplied: 2,
			wantSkipped: []int{3},
		},
		{
			name:        "non-numeric limit",
			input:       "Monthly Limit: lots\n",
			wantLimit:   "0",
			wantApplied: 0,
			checkErr: func(t *testing.T, err error) {
				var decodeErr *DecodeError
				assert.True(t, errors.As(err, &decodeErr))
				assert.Equal(t, 1, decodeErr.GetLine())
			},
		},
		{
			name:        "non-numeric amount stops decoding",
			input:       "Monthly Limit: 10\nFood,5,2024-03-01,VARIABLE,x,USD\nFood,five,2024-03-02,VARIABLE,x,USD\nFood,6,2024-03-03,VARIABLE,x,USD\n",
			wantLimit:   "10",
			wantApplied: 1,
			checkErr: func(t *testing.T, err error) {
				var decodeErr *DecodeError
				assert.True(t, errors.As(err, &decodeErr))
				assert.Equal(t, 3, decodeErr.Line)
				var parseErr *expense.ParseError
				assert.True(t, errors.As(err, &parseErr))
				assert.Equal(t, "amount", parseErr.Field)
			},
		},
		{
			name:        "unknown type stops decoding",
			input:       "Monthly Limit: 10\nFood,5,2024-03-01,WEEKLY,x,USD\n",
			wantLimit:   "10",
			wantApplied: 0,
			checkErr: func(t *testing.T, err error) {
				assert.True(t, errors.Is(err, expense.ErrUnknownType))
			},
		},
		{
			name:        "malformed date stops decoding",
			input:       "Monthly Limit: 10\nFood,5,03/01/2024,VARIABLE,x,USD\n",
			wantLimit:   "10",
			wantApplied: 0,
			checkErr: func(t *testing.T, err error) {
				var parseErr *expense.ParseError
				assert.True(t, errors.As(err, &parseErr))
				assert.Equal(t, "date", parseErr.Field)
			},
		},
		{
			name:        "rejected amounts do not stop decoding",
			input:       "Monthly Limit: 10\nFood,0,2024-03-01,VARIABLE,x,USD\nFood,-3,2024-03-01,VARIABLE,x,USD\nFood,4,2024-03-01,VARIABLE,x,USD\n",
			wantLimit:   "10",
			wantApplied: 1,
			checkErr: func(t *testing.T, err error) {
				var validationErrs *ledger.ValidationErrors
				assert.True(t, errors.As(err, &validationErrs))
				assert.Equal(t, 2, len(validationErrs.Errors))
				var rejected *RejectedLineError
				assert.True(t, errors.As(validationErrs.Errors[1], &rejected))
				assert.Equal(t, 3, rejected.GetLine())
				assert.Equal(t, ledger.ReasonInvalidAmount, ledger.ReasonOf(rejected))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ledger.New()

			result, err := Decode(context.Background(), strings.NewReader(tt.input), l)
			if tt.checkErr != nil {
				assert.Error(t, err)
				tt.checkErr(t, err)
			} else {
				assert.NoError(t, err)
			}

			assert.Equal(t, tt.wantApplied, result.Applied)
			assert.Equal(t, tt.wantApplied, l.Len())
			assert.Equal(t, tt.wantSkipped, result.Skipped)
			assert.True(t, dec(tt.wantLimit).Equal(l.MonthlyLimit()), "limit %s", l.MonthlyLimit())
		})
	}
}

func TestDecodeKeepsRejectionsBeforeFatalLine(t *testing.T) {
	l := ledger.New()
	input := "Monthly Limit: 10\n" +
		"Food,4,2024-03-01,VARIABLE,x,USD\n" +
		"Fuel,-3,2024-03-01,VARIABLE,x,USD\n" +
		"Fuel,NaN,2024-03-02,VARIABLE,x,USD\n"

	result, err := Decode(context.Background(), strings.NewReader(input), l)

	var decodeErr *DecodeError
	assert.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, 4, decodeErr.Line)
	assert.Equal(t, 1, result.Applied)
	assert.Equal(t, 1, len(result.Rejected))
	assert.Equal(t, 3, result.Rejected[0].(*RejectedLineError).GetLine())
}

func TestDecodeSkipsOverlongLine(t *testing.T) {
	l := ledger.New()
	input := "Monthly Limit: 10\n" +
		"Food,4,2024-03-01,VARIABLE,x,USD\n" +
		strings.Repeat("z", 70000) + "\n" +
		"Fuel,2,2024-03-02,VARIABLE,x,USD\n"

	result, err := Decode(context.Background(), strings.NewReader(input), l)
	assert.NoError(t, err)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, []int{3}, result.Skipped)
	assert.Equal(t, 2, l.Len())
}

func TestDecodeCountsLimitWarnings(t *testing.T) {
	l := ledger.New()
	input := "Monthly Limit: 10\nFood,6,2024-03-01,VARIABLE,x,USD\nFood,6,2024-03-02,VARIABLE,x,USD\n"

	result, err := Decode(context.Background(), strings.NewReader(input), l)
	assert.NoError(t, err)
	assert.Equal(t, 1, result.LimitExceeded)
}

func TestDecodeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := ledger.New()
	_, err := Decode(ctx, strings.NewReader("Monthly Limit: 10\n"), l)
	assert.True(t, errors.Is(err, context.Canceled))
}
