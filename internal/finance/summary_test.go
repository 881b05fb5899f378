package finance

import (
	"testing"
	"time"

	"project_hub/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: want %s, got %s", msg, want, got)
}

func fixture() Input {
	return Input{
		Year:    2024,
		AsOf:    day(2024, time.March, 15),
		TaxRate: dec("0.25"),
		Invoices: []domain.Invoice{
			{Status: domain.InvoicePaid, PaidAt: ptr(day(2024, time.January, 20)), TaxRate: dec("20"),
				Items: []domain.InvoiceItem{{Quantity: dec("2"), UnitPrice: dec("500")}}},
			{Status: domain.InvoicePaid, PaidAt: ptr(day(2023, time.December, 30)), TaxRate: dec("0"),
				Items: []domain.InvoiceItem{{Quantity: dec("1"), UnitPrice: dec("700")}}},
			{Status: domain.InvoiceSent,
				Items: []domain.InvoiceItem{{Quantity: dec("1"), UnitPrice: dec("900")}}},
			{Status: domain.InvoicePaid, PaidAt: ptr(day(2024, time.March, 20)), TaxRate: dec("0"),
				Items: []domain.InvoiceItem{{Quantity: dec("1"), UnitPrice: dec("400")}}},
		},
		Expenses: []domain.Expense{
			{Category: "Software", Amount: dec("100"), Date: day(2024, time.January, 5), Deductible: true},
			{Category: "Meals", Amount: dec("50"), Date: day(2024, time.February, 10), Deductible: false},
			{Category: "Travel", Amount: dec("999"), Date: day(2024, time.March, 16), Deductible: true},
		},
		Subscriptions: []domain.Subscription{
			{Kind: domain.KindExpense, Status: domain.SubscriptionActive, Amount: dec("20"),
				Frequency: "monthly", StartDate: day(2023, time.November, 1)},
			{Kind: domain.KindRevenue, Status: domain.SubscriptionActive, Amount: dec("300"),
				Frequency: "quarterly", StartDate: day(2024, time.February, 1), TermMonths: 12},
			{Kind: domain.KindExpense, Status: domain.SubscriptionPaused, Amount: dec("1000"),
				Frequency: "monthly", StartDate: day(2023, time.January, 1)},
		},
	}
}

func TestSummarizeMonthlyRollup(t *testing.T) {
	s, err := Summarize(fixture())
	require.NoError(t, err)

	require.Equal(t, 3, s.MonthsCovered)
	require.Len(t, s.Months, 3)

	jan, feb, mar := s.Months[0], s.Months[1], s.Months[2]
	assertDec(t, "1000", jan.Revenue, "jan revenue")
	assertDec(t, "200", jan.TaxCollected, "jan tax collected")
	assertDec(t, "120", jan.Expenses, "jan expenses")
	assertDec(t, "220", jan.EstimatedTax, "jan estimated tax")
	assertDec(t, "660", jan.NetIncome, "jan net")

	assertDec(t, "300", feb.Revenue, "feb revenue")
	assertDec(t, "70", feb.Expenses, "feb expenses")
	assertDec(t, "20", feb.Deductible, "feb deductible")
	assertDec(t, "70", feb.EstimatedTax, "feb estimated tax")
	assertDec(t, "160", feb.NetIncome, "feb net")

	assertDec(t, "0", mar.Revenue, "mar revenue")
	assertDec(t, "0", mar.EstimatedTax, "mar estimated tax never negative")
	assertDec(t, "-20", mar.NetIncome, "mar net")
}

func TestSummarizeTotalsAndAverages(t *testing.T) {
	s, err := Summarize(fixture())
	require.NoError(t, err)

	assertDec(t, "1300", s.Totals.Revenue, "total revenue")
	assertDec(t, "200", s.Totals.TaxCollected, "total tax collected")
	assertDec(t, "210", s.Totals.Expenses, "total expenses")
	assertDec(t, "290", s.Totals.EstimatedTax, "total estimated tax")
	assertDec(t, "800", s.Totals.NetIncome, "total net")

	assertDec(t, "433.33", s.Averages.Revenue, "avg revenue")
	assertDec(t, "66.67", s.Averages.TaxCollected, "avg tax collected")
	assertDec(t, "70", s.Averages.Expenses, "avg expenses")
	assertDec(t, "96.67", s.Averages.EstimatedTax, "avg estimated tax")
	assertDec(t, "266.67", s.Averages.NetIncome, "avg net")
}

func TestSummarizeBreakdownAndRecurring(t *testing.T) {
	s, err := Summarize(fixture())
	require.NoError(t, err)

	require.Len(t, s.ByCategory, 3)
	assert.Equal(t, "Software", s.ByCategory[0].Category)
	assert.Equal(t, SubscriptionCategory, s.ByCategory[1].Category)
	assertDec(t, "60", s.ByCategory[1].Amount, "subscription category")
	assert.Equal(t, "Meals", s.ByCategory[2].Category)

	assertDec(t, "100", s.MonthlyRecurringRevenue, "mrr")
	assertDec(t, "20", s.MonthlyRecurringCost, "mrc")
}

func TestSummarizePastYearCoversTwelveMonths(t *testing.T) {
	in := fixture()
	in.Year = 2023
	s, err := Summarize(in)
	require.NoError(t, err)

	assert.Equal(t, 12, s.MonthsCovered)
	assertDec(t, "700", s.Months[11].Revenue, "december revenue")
	// paused subscription never contributes
	assertDec(t, "20", s.Months[10].Expenses, "november expenses")
}

func TestSummarizeFutureYear(t *testing.T) {
	in := fixture()
	in.Year = 2025
	_, err := Summarize(in)
	assert.ErrorIs(t, err, ErrFutureYear)
}

func TestSummarizeCancelledSubscriptionStopsAtCancellation(t *testing.T) {
	in := Input{
		Year:    2024,
		AsOf:    day(2024, time.June, 30),
		TaxRate: dec("0"),
		Subscriptions: []domain.Subscription{
			{Kind: domain.KindExpense, Status: domain.SubscriptionCancelled, Amount: dec("10"),
				Frequency: "monthly", StartDate: day(2024, time.January, 1), CancelledAt: ptr(day(2024, time.March, 15))},
		},
	}
	s, err := Summarize(in)
	require.NoError(t, err)

	assertDec(t, "30", s.Totals.Expenses, "three billed months")
	assertDec(t, "0", s.MonthlyRecurringCost, "cancelled is not recurring")
}

func TestWindow(t *testing.T) {
	from, to, err := Window(2024, day(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, day(2024, time.January, 1), from)
	assert.Equal(t, time.Date(2024, time.March, 15, 23, 59, 59, 0, time.UTC), to)
}
