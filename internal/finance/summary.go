// Package finance rolls invoices, expenses and subscriptions up into
// year-to-date monthly figures.
package finance

import (
	"errors"
	"sort"
	"time"

	"project_hub/internal/domain"

	"github.com/shopspring/decimal"
)

// ErrFutureYear is returned when asked for a year that has not started yet
var ErrFutureYear = errors.New("finance: year is in the future")

// SubscriptionCategory groups subscription costs in the category breakdown
const SubscriptionCategory = "Subscriptions"

// Input is everything a summary is computed from
type Input struct {
	Year          int
	AsOf          time.Time
	TaxRate       decimal.Decimal // estimated income tax rate, 0.25 = 25%
	Invoices      []domain.Invoice
	Expenses      []domain.Expense
	Subscriptions []domain.Subscription
}

// Month holds the figures of one calendar month
type Month struct {
	Month        int             `json:"month"`
	Revenue      decimal.Decimal `json:"revenue"`
	TaxCollected decimal.Decimal `json:"tax_collected"`
	Expenses     decimal.Decimal `json:"expenses"`
	Deductible   decimal.Decimal `json:"deductible"`
	EstimatedTax decimal.Decimal `json:"estimated_tax"`
	NetIncome    decimal.Decimal `json:"net_income"`
}

// Figures is a set of totals or averages
type Figures struct {
	Revenue      decimal.Decimal `json:"revenue"`
	TaxCollected decimal.Decimal `json:"tax_collected"`
	Expenses     decimal.Decimal `json:"expenses"`
	EstimatedTax decimal.Decimal `json:"estimated_tax"`
	NetIncome    decimal.Decimal `json:"net_income"`
}

// CategoryTotal is the amount spent in one expense category
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// Summary is the year-to-date rollup
type Summary struct {
	Year                    int             `json:"year"`
	MonthsCovered           int             `json:"months_covered"`
	Months                  []Month         `json:"months"`
	Totals                  Figures         `json:"totals"`
	Averages                Figures         `json:"averages"`
	ByCategory              []CategoryTotal `json:"by_category"`
	MonthlyRecurringRevenue decimal.Decimal `json:"monthly_recurring_revenue"`
	MonthlyRecurringCost    decimal.Decimal `json:"monthly_recurring_cost"`
}

// MonthsCovered is 12 for past years and the current month number for the as-of year
func MonthsCovered(year int, asOf time.Time) (int, error) {
	switch {
	case year < asOf.Year():
		return 12, nil
	case year == asOf.Year():
		return int(asOf.Month()), nil
	}
	return 0, ErrFutureYear
}

// Window returns the inclusive date range a summary looks at
func Window(year int, asOf time.Time) (time.Time, time.Time, error) {
	if _, err := MonthsCovered(year, asOf); err != nil {
		return time.Time{}, time.Time{}, err
	}
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 23, 59, 59, 0, time.UTC)
	if year == asOf.Year() {
		to = time.Date(year, asOf.Month(), asOf.Day(), 23, 59, 59, 0, time.UTC)
	}
	return from, to, nil
}

// Summarize computes the monthly rollup, totals, averages and breakdowns
func Summarize(in Input) (*Summary, error) {
	covered, err := MonthsCovered(in.Year, in.AsOf)
	if err != nil {
		return nil, err
	}
	from, to, _ := Window(in.Year, in.AsOf)

	months := make([]Month, covered)
	for i := range months {
		months[i] = Month{
			Month:        i + 1,
			Revenue:      decimal.Zero,
			TaxCollected: decimal.Zero,
			Expenses:     decimal.Zero,
			Deductible:   decimal.Zero,
		}
	}
	inWindow := func(t time.Time) (*Month, bool) {
		t = t.UTC()
		if t.Before(from) || t.After(to) {
			return nil, false
		}
		return &months[int(t.Month())-1], true
	}
	categories := map[string]decimal.Decimal{}

	for i := range in.Invoices {
		inv := &in.Invoices[i]
		if inv.Status != domain.InvoicePaid || inv.PaidAt == nil {
			continue
		}
		m, ok := inWindow(*inv.PaidAt)
		if !ok {
			continue
		}
		m.Revenue = m.Revenue.Add(inv.Subtotal())
		m.TaxCollected = m.TaxCollected.Add(inv.Tax())
	}

	for _, e := range in.Expenses {
		m, ok := inWindow(e.Date)
		if !ok {
			continue
		}
		m.Expenses = m.Expenses.Add(e.Amount)
		if e.Deductible {
			m.Deductible = m.Deductible.Add(e.Amount)
		}
		categories[e.Category] = categories[e.Category].Add(e.Amount)
	}

	for i := range in.Subscriptions {
		sub := &in.Subscriptions[i]
		if sub.Status == domain.SubscriptionPaused {
			continue
		}
		for _, due := range sub.Schedule().Occurrences(from, to) {
			m, ok := inWindow(due)
			if !ok {
				continue
			}
			if sub.Kind == domain.KindRevenue {
				m.Revenue = m.Revenue.Add(sub.Amount)
				continue
			}
			m.Expenses = m.Expenses.Add(sub.Amount)
			m.Deductible = m.Deductible.Add(sub.Amount)
			categories[SubscriptionCategory] = categories[SubscriptionCategory].Add(sub.Amount)
		}
	}

	totals := Figures{Revenue: decimal.Zero, TaxCollected: decimal.Zero, Expenses: decimal.Zero, EstimatedTax: decimal.Zero, NetIncome: decimal.Zero}
	for i := range months {
		m := &months[i]
		taxable := m.Revenue.Sub(m.Deductible)
		m.EstimatedTax = decimal.Zero
		if taxable.IsPositive() {
			m.EstimatedTax = taxable.Mul(in.TaxRate).Round(2)
		}
		m.NetIncome = m.Revenue.Sub(m.Expenses).Sub(m.EstimatedTax)

		totals.Revenue = totals.Revenue.Add(m.Revenue)
		totals.TaxCollected = totals.TaxCollected.Add(m.TaxCollected)
		totals.Expenses = totals.Expenses.Add(m.Expenses)
		totals.EstimatedTax = totals.EstimatedTax.Add(m.EstimatedTax)
		totals.NetIncome = totals.NetIncome.Add(m.NetIncome)
	}

	return &Summary{
		Year:                    in.Year,
		MonthsCovered:           covered,
		Months:                  months,
		Totals:                  totals,
		Averages:                average(totals, covered),
		ByCategory:              sortCategories(categories),
		MonthlyRecurringRevenue: recurring(in.Subscriptions, domain.KindRevenue, in.AsOf),
		MonthlyRecurringCost:    recurring(in.Subscriptions, domain.KindExpense, in.AsOf),
	}, nil
}

func average(f Figures, months int) Figures {
	n := decimal.NewFromInt(int64(months))
	return Figures{
		Revenue:      f.Revenue.Div(n).Round(2),
		TaxCollected: f.TaxCollected.Div(n).Round(2),
		Expenses:     f.Expenses.Div(n).Round(2),
		EstimatedTax: f.EstimatedTax.Div(n).Round(2),
		NetIncome:    f.NetIncome.Div(n).Round(2),
	}
}

func sortCategories(m map[string]decimal.Decimal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(m))
	for name, amount := range m {
		out = append(out, CategoryTotal{Category: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// recurring sums the amortized monthly amount of active subscriptions of one kind
func recurring(subs []domain.Subscription, kind string, asOf time.Time) decimal.Decimal {
	sum := decimal.Zero
	for i := range subs {
		s := &subs[i]
		if s.Kind != kind || s.Status != domain.SubscriptionActive {
			continue
		}
		if !s.Schedule().ActiveInMonth(asOf.Year(), asOf.Month()) {
			continue
		}
		sum = sum.Add(s.MonthlyAmount())
	}
	return sum
}
