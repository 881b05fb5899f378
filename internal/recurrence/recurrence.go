// Package recurrence projects recurring payments forward in time.
//
// A Schedule is anchored at its start date. The k-th occurrence is always
// computed from the anchor rather than from the previous occurrence, so a
// contract starting on the 31st lands on the last day of short months and
// returns to the 31st afterwards.
package recurrence

import (
	"errors"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

// Frequency is the billing cadence of a recurring payment
type Frequency string

const (
	Weekly     Frequency = "weekly"
	Monthly    Frequency = "monthly"
	Quarterly  Frequency = "quarterly"
	Semiannual Frequency = "semiannual"
	Yearly     Frequency = "yearly"
)

// ErrUnknownFrequency is returned for frequencies outside the supported set
var ErrUnknownFrequency = errors.New("recurrence: unknown frequency")

var twelve = decimal.NewFromInt(12)

// ParseFrequency validates a frequency name
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", ErrUnknownFrequency
	}
	return f, nil
}

// Valid reports whether f is a supported frequency
func (f Frequency) Valid() bool {
	return f.PeriodsPerYear() > 0
}

// MonthsPerPeriod is the step in months, zero for weekly schedules
func (f Frequency) MonthsPerPeriod() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Semiannual:
		return 6
	case Yearly:
		return 12
	}
	return 0
}

// PeriodsPerYear is how many payments fall in a year
func (f Frequency) PeriodsPerYear() int {
	if f == Weekly {
		return 52
	}
	if m := f.MonthsPerPeriod(); m > 0 {
		return 12 / m
	}
	return 0
}

// Schedule describes when a recurring payment is due
type Schedule struct {
	Start      time.Time
	Frequency  Frequency
	TermMonths int        // 0 means open-ended
	Until      *time.Time // cancellation, exclusive
}

// AddMonths moves t by n calendar months, clamping the day to the target month's length
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := now.With(first).EndOfMonth().Day(); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// End is the exclusive end of the schedule. ok is false when it runs forever.
func (s Schedule) End() (time.Time, bool) {
	var end time.Time
	ok := false
	if s.TermMonths > 0 {
		end, ok = AddMonths(s.Start, s.TermMonths), true
	}
	if s.Until != nil && (!ok || s.Until.Before(end)) {
		end, ok = *s.Until, true
	}
	return end, ok
}

// nth returns the k-th occurrence counted from the anchor
func (s Schedule) nth(k int) time.Time {
	if s.Frequency == Weekly {
		return s.Start.AddDate(0, 0, 7*k)
	}
	return AddMonths(s.Start, k*s.Frequency.MonthsPerPeriod())
}

// firstIndex is an occurrence index guaranteed to fall before t
func (s Schedule) firstIndex(t time.Time) int {
	if !t.After(s.Start) {
		return 0
	}
	var k int
	if s.Frequency == Weekly {
		k = int(t.Sub(s.Start).Hours()/(24*7)) - 1
	} else {
		months := (t.Year()-s.Start.Year())*12 + int(t.Month()-s.Start.Month())
		k = months/s.Frequency.MonthsPerPeriod() - 1
	}
	if k < 0 {
		return 0
	}
	return k
}

// Occurrences lists due dates within [from, to] that fall before the schedule end
func (s Schedule) Occurrences(from, to time.Time) []time.Time {
	if !s.Frequency.Valid() || to.Before(from) {
		return nil
	}
	end, bounded := s.End()
	var out []time.Time
	for k := s.firstIndex(from); ; k++ {
		o := s.nth(k)
		if bounded && !o.Before(end) {
			break
		}
		if o.After(to) {
			break
		}
		if !o.Before(from) {
			out = append(out, o)
		}
	}
	return out
}

// Next is the first occurrence on or after from. ok is false once the schedule has ended.
func (s Schedule) Next(from time.Time) (time.Time, bool) {
	if !s.Frequency.Valid() {
		return time.Time{}, false
	}
	end, bounded := s.End()
	for k := s.firstIndex(from); ; k++ {
		o := s.nth(k)
		if bounded && !o.Before(end) {
			return time.Time{}, false
		}
		if !o.Before(from) {
			return o, true
		}
	}
}

// Count is the number of occurrences over the whole term
func (s Schedule) Count() (int, bool) {
	end, bounded := s.End()
	if !bounded {
		return 0, false
	}
	return len(s.Occurrences(s.Start, end)), true
}

// ActiveInMonth reports whether the schedule covers any day of the given month
func (s Schedule) ActiveInMonth(year int, month time.Month) bool {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, s.Start.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	if !s.Start.Before(monthEnd) {
		return false
	}
	end, bounded := s.End()
	return !bounded || end.After(monthStart)
}

// MonthlyAmount amortizes a per-period amount into an average monthly amount
func MonthlyAmount(amount decimal.Decimal, f Frequency) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(int64(f.PeriodsPerYear()))).Div(twelve).Round(2)
}

// ContractValue is the amount billed over the full term. ok is false for open-ended schedules.
func ContractValue(amount decimal.Decimal, s Schedule) (decimal.Decimal, bool) {
	n, ok := s.Count()
	if !ok {
		return decimal.Zero, false
	}
	return amount.Mul(decimal.NewFromInt(int64(n))), true
}
