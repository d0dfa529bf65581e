package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/google/uuid"
	"github.com/robinvdvleuten/expenses/expense"
	"github.com/shopspring/decimal"
)

var fixedTime = time.Date(2024, 3, 20, 9, 30, 0, 0, time.UTC)

func newTestLedger(opts ...Option) *Ledger {
	base := []Option{
		WithClock(func() time.Time { return fixedTime }),
		WithMonthlyLimit(decimal.NewFromInt(1000)),
	}
	return New(append(base, opts...)...)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

// assertInvariants checks totals against the records actually held.
func assertInvariants(t *testing.T, l *Ledger) {
	t.Helper()

	sum := decimal.Zero
	perCategory := map[string]decimal.Decimal{}
	for _, r := range l.AllExpenses() {
		assert.True(t, r.Amount.IsPositive(), "record %s has non-positive amount %s", r.Category, r.Amount)
		sum = sum.Add(r.Amount)
		perCategory[r.Category] = perCategory[r.Category].Add(r.Amount)
	}

	assert.True(t, sum.Equal(l.Total()), "total %s != sum %s", l.Total(), sum)
	for category, total := range l.CategoryBreakdown() {
		assert.True(t, perCategory[category].Equal(total), "category %s: %s != %s", category, total, perCategory[category])
	}
}

func TestLedger_Add(t *testing.T) {
	tests := []struct {
		name       string
		category   string
		amount     string
		date       string
		typ        expense.Type
		wantReason Reason
		wantParse  bool
	}{
		{name: "valid", category: "Food", amount: "50", date: "2024-03-01", typ: expense.Variable},
		{name: "fractional", category: "Fuel", amount: "12.34", date: "2024-01-05", typ: expense.Fixed},
		{name: "zero amount", category: "Food", amount: "0", date: "2024-03-01", typ: expense.Variable, wantReason: ReasonInvalidAmount},
		{name: "negative amount", category: "Food", amount: "-5", date: "2024-03-01", typ: expense.Variable, wantReason: ReasonInvalidAmount},
		{name: "blank category", category: "  ", amount: "5", date: "2024-03-01", typ: expense.Variable, wantReason: ReasonEmptyCategory},
		{name: "malformed date", category: "Food", amount: "5", date: "2024/03/01", typ: expense.Variable, wantReason: ReasonParse, wantParse: true},
		{name: "unknown type", category: "Food", amount: "5", date: "2024-03-01", typ: expense.Type(9), wantReason: ReasonInvalidType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newTestLedger(WithCurrency("EUR"))

			_, err := l.Add(tt.category, dec(tt.amount), tt.date, tt.typ)
			assert.Equal(t, tt.wantReason, ReasonOf(err))

			if tt.wantReason != ReasonNone {
				assert.Error(t, err)
				assert.Equal(t, 0, l.Len())
				assertAmount(t, "0", l.Total())
				assert.Equal(t, 0, len(l.MonthlyBreakdown()))
				if tt.wantParse {
					var parseErr *expense.ParseError
					assert.True(t, errors.As(err, &parseErr))
				}
				return
			}

			assert.NoError(t, err)
			records := l.AllExpenses()
			assert.Equal(t, 1, len(records))
			assert.Equal(t, tt.category, records[0].Category)
			assertAmount(t, tt.amount, records[0].Amount)
			assert.Equal(t, tt.date, records[0].Date.String())
			assert.Equal(t, tt.typ, records[0].Type)
			assert.Equal(t, "EUR", records[0].Currency)
			assert.Equal(t, fixedTime, records[0].CreatedAt)
			assert.NotEqual(t, uuid.Nil, records[0].ID)
		})
	}
}

func TestLedger_AddAggregates(t *testing.T) {
	l := newTestLedger()

	_, err := l.Add("Food", dec("50"), "2024-03-01", expense.Variable)
	assert.NoError(t, err)
	_, err = l.Add("Food", dec("30"), "2024-03-15", expense.Variable)
	assert.NoError(t, err)

	assertAmount(t, "80", l.CategoryBreakdown()["Food"])
	assertAmount(t, "80", l.MonthlyBreakdown()["MARCH"])
	assertAmount(t, "80", l.Total())
	assertInvariants(t, l)
}

func TestLedger_AddMonthBucketIgnoresYear(t *testing.T) {
	l := newTestLedger()

	_, err := l.Add("Rent", dec("700"), "2023-05-01", expense.Fixed)
	assert.NoError(t, err)
	_, err = l.Add("Rent", dec("750"), "2024-05-01", expense.Fixed)
	assert.NoError(t, err)

	months := l.MonthlyBreakdown()
	assert.Equal(t, 1, len(months))
	assertAmount(t, "1450", months["MAY"])
}

func TestLedger_AddLimitExceeded(t *testing.T) {
	l := newTestLedger(WithMonthlyLimit(dec("100")))

	exceeded, err := l.Add("Food", dec("60"), "2024-03-01", expense.Variable)
	assert.NoError(t, err)
	assert.False(t, exceeded)

	exceeded, err = l.Add("Food", dec("40"), "2024-03-02", expense.Variable)
	assert.NoError(t, err)
	assert.False(t, exceeded, "total equal to the limit is not over it")

	exceeded, err = l.Add("Food", dec("0.01"), "2024-03-03", expense.Variable)
	assert.NoError(t, err)
	assert.True(t, exceeded)
	assert.Equal(t, 3, l.Len(), "limit is advisory")
}

func TestLedger_AddCategoryKeptVerbatim(t *testing.T) {
	l := newTestLedger()

	_, err := l.Add("Food", dec("10"), "2024-03-01", expense.Variable)
	assert.NoError(t, err)
	_, err = l.Add("food", dec("5"), "2024-03-01", expense.Variable)
	assert.NoError(t, err)

	categories := l.CategoryBreakdown()
	assertAmount(t, "10", categories["Food"])
	assertAmount(t, "5", categories["food"])
}

func TestLedger_Deduct(t *testing.T) {
	seed := func(t *testing.T) *Ledger {
		l := newTestLedger()
		for _, e := range []struct{ category, amount, date string }{
			{"Food", "50", "2024-03-01"},
			{"Food", "30", "2024-03-15"},
			{"Fuel", "40", "2024-04-02"},
		} {
			_, err := l.Add(e.category, dec(e.amount), e.date, expense.Variable)
			assert.NoError(t, err)
		}
		return l
	}

	t.Run("FirstRecordWithEnough", func(t *testing.T) {
		l := seed(t)

		assert.NoError(t, l.Deduct("Food", dec("20")))

		records := l.AllExpenses()
		assertAmount(t, "30", records[0].Amount)
		assertAmount(t, "30", records[1].Amount)
		assertAmount(t, "100", l.Total())
		assertAmount(t, "60", l.CategoryBreakdown()["Food"])
		assertInvariants(t, l)
	})

	t.Run("SkipsRecordsTooSmall", func(t *testing.T) {
		l := newTestLedger()
		_, _ = l.Add("Food", dec("10"), "2024-03-01", expense.Variable)
		_, _ = l.Add("Food", dec("70"), "2024-03-02", expense.Variable)

		assert.NoError(t, l.Deduct("Food", dec("25")))

		records := l.AllExpenses()
		assertAmount(t, "10", records[0].Amount)
		assertAmount(t, "45", records[1].Amount)
		assertInvariants(t, l)
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		l := seed(t)

		assert.NoError(t, l.Deduct("FOOD", dec("5")))
		assertAmount(t, "45", l.AllExpenses()[0].Amount)
		assertAmount(t, "75", l.CategoryBreakdown()["Food"])
		_, hasUpper := l.CategoryBreakdown()["FOOD"]
		assert.False(t, hasUpper)
		assertInvariants(t, l)
	})

	t.Run("RemovesRecordAtZero", func(t *testing.T) {
		l := seed(t)

		assert.NoError(t, l.Deduct("Fuel", dec("40")))
		assert.Equal(t, 2, l.Len())
		for _, r := range l.AllExpenses() {
			assert.NotEqual(t, "Fuel", r.Category)
		}
		assertAmount(t, "0", l.CategoryBreakdown()["Fuel"])
		assertInvariants(t, l)
	})

	t.Run("MonthBucketsUntouched", func(t *testing.T) {
		l := seed(t)

		assert.NoError(t, l.Deduct("Food", dec("50")))
		assertAmount(t, "80", l.MonthlyBreakdown()["MARCH"])
		assertAmount(t, "30", l.CategoryBreakdown()["Food"])
	})

	t.Run("NeverSplitsAcrossRecords", func(t *testing.T) {
		l := seed(t)

		err := l.Deduct("Food", dec("80"))
		assert.Equal(t, ReasonNotFound, ReasonOf(err))
		var notFound *NotFoundError
		assert.True(t, errors.As(err, &notFound))
		assert.Equal(t, "Food", notFound.Category)
		assertAmount(t, "120", l.Total())
		assertAmount(t, "80", l.CategoryBreakdown()["Food"])
	})

	t.Run("UnknownCategory", func(t *testing.T) {
		l := seed(t)

		err := l.Deduct("Travel", dec("1"))
		assert.Equal(t, ReasonNotFound, ReasonOf(err))
	})

	t.Run("InvalidAmount", func(t *testing.T) {
		l := seed(t)

		for _, amount := range []string{"0", "-1", "120.01"} {
			err := l.Deduct("Food", dec(amount))
			assert.Equal(t, ReasonInvalidAmount, ReasonOf(err), "amount %s", amount)
			var validationErr *ValidationError
			assert.True(t, errors.As(err, &validationErr))
			assert.Equal(t, "deduct", validationErr.Op)
		}
		assertAmount(t, "120", l.Total())
		assert.Equal(t, 3, l.Len())
	})

	t.Run("WholeTotal", func(t *testing.T) {
		l := newTestLedger()
		_, _ = l.Add("Food", dec("12.50"), "2024-03-01", expense.Variable)

		assert.NoError(t, l.Deduct("food", dec("12.5")))
		assert.Equal(t, 0, l.Len())
		assertAmount(t, "0", l.Total())
	})
}

func TestLedger_InvariantsAfterMixedOperations(t *testing.T) {
	l := newTestLedger()
	ops := []struct {
		add      bool
		category string
		amount   string
	}{
		{true, "Food", "50"},
		{true, "Fuel", "20.5"},
		{false, "food", "10"},
		{true, "Food", "5"},
		{false, "Fuel", "20.5"},
		{false, "Food", "45"},
		{true, "Rent", "800"},
		{false, "Rent", "900"},
		{false, "Food", "5"},
		{false, "Food", "1"},
	}

	for _, op := range ops {
		if op.add {
			_, err := l.Add(op.category, dec(op.amount), "2024-06-01", expense.Variable)
			assert.NoError(t, err)
		} else {
			_ = l.Deduct(op.category, dec(op.amount))
		}
		assertInvariants(t, l)
	}

	assert.Equal(t, 3, l.Len())
	assertAmount(t, "839", l.Total())
	assertAmount(t, "39", l.CategoryBreakdown()["Food"])
}

func TestLedger_Reset(t *testing.T) {
	l := newTestLedger(WithCurrency("GBP"), WithMonthlyLimit(dec("250")))
	_, _ = l.Add("Food", dec("50"), "2024-03-01", expense.Variable)
	l.DeclareRecurring("Gym", dec("30"), expense.MustParseDate("2024-01-01"), 30)

	l.Reset()

	assert.Equal(t, 0, len(l.AllExpenses()))
	assertAmount(t, "0", l.Total())
	assertAmount(t, "0", l.YearlyTotal())
	assert.Equal(t, 0, len(l.CategoryReport()))
	assert.Equal(t, 0, len(l.MonthlyReport()))
	assert.Equal(t, 0, len(l.RecurringReport()))
	assert.False(t, l.TotalExpenses().OverLimit)
	_, err := l.FilterByCategory("Food")
	assert.True(t, errors.Is(err, ErrNoExpenses))

	assertAmount(t, "250", l.MonthlyLimit())
	assert.Equal(t, "GBP", l.Currency())

	_, err = l.Add("Food", dec("5"), "2024-03-02", expense.Variable)
	assert.NoError(t, err)
	assert.Equal(t, 1, l.Len())
}

func TestLedger_SetCurrencyAppliesToNewRecords(t *testing.T) {
	l := newTestLedger(WithCurrency("USD"))
	_, _ = l.Add("Food", dec("5"), "2024-03-01", expense.Variable)

	l.SetCurrency("EUR")
	_, _ = l.Add("Food", dec("6"), "2024-03-02", expense.Variable)

	records := l.AllExpenses()
	assert.Equal(t, "USD", records[0].Currency)
	assert.Equal(t, "EUR", records[1].Currency)
}

func TestLedger_AllExpensesReturnsCopies(t *testing.T) {
	l := newTestLedger()
	_, _ = l.Add("Food", dec("5"), "2024-03-01", expense.Variable)

	records := l.AllExpenses()
	records[0].Amount = dec("999")

	assertAmount(t, "5", l.AllExpenses()[0].Amount)
}

func TestRegistry(t *testing.T) {
	l := newTestLedger(WithCurrency("EUR"))
	start := expense.MustParseDate("2024-01-01")

	l.DeclareRecurring("Gym", dec("30"), start, 30)
	l.DeclareRecurring("Rent", dec("800"), start, 30)
	l.DeclareRecurring("Gym", dec("35"), expense.MustParseDate("2024-06-01"), 30)

	report := l.RecurringReport()
	assert.Equal(t, 2, len(report))
	assert.Equal(t, "Gym", report[0].Category)
	assert.Equal(t, 2, len(report[0].Templates))
	assertAmount(t, "35", report[0].Templates[1].Amount)
	assert.Equal(t, "EUR", report[0].Templates[0].Currency)
	assert.Equal(t, 30, report[0].Templates[0].IntervalDays)
	assert.Equal(t, "Rent", report[1].Category)

	assert.Equal(t, 0, l.Len(), "templates never materialize")
	assertAmount(t, "0", l.Total())
	assert.Equal(t, 3, l.recurring.Len())
}
