package recurrence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFrequency(t *testing.T) {
	f, err := ParseFrequency("quarterly")
	require.NoError(t, err)
	assert.Equal(t, Quarterly, f)

	_, err = ParseFrequency("fortnightly")
	assert.ErrorIs(t, err, ErrUnknownFrequency)
}

func TestAddMonthsClampsToMonthEnd(t *testing.T) {
	assert.Equal(t, day(2024, time.February, 29), AddMonths(day(2024, time.January, 31), 1))
	assert.Equal(t, day(2023, time.February, 28), AddMonths(day(2023, time.January, 31), 1))
	assert.Equal(t, day(2025, time.January, 15), AddMonths(day(2024, time.October, 15), 3))
	assert.Equal(t, day(2023, time.December, 31), AddMonths(day(2024, time.March, 31), -3))
}

func TestOccurrencesDoNotDriftFromAnchor(t *testing.T) {
	s := Schedule{Start: day(2024, time.January, 31), Frequency: Monthly}

	got := s.Occurrences(day(2024, time.January, 1), day(2024, time.May, 31))

	assert.Equal(t, []time.Time{
		day(2024, time.January, 31),
		day(2024, time.February, 29),
		day(2024, time.March, 31),
		day(2024, time.April, 30),
		day(2024, time.May, 31),
	}, got)
}

func TestOccurrencesStopAtTermEnd(t *testing.T) {
	s := Schedule{Start: day(2024, time.January, 15), Frequency: Quarterly, TermMonths: 12}

	got := s.Occurrences(day(2020, time.January, 1), day(2030, time.January, 1))

	assert.Equal(t, []time.Time{
		day(2024, time.January, 15),
		day(2024, time.April, 15),
		day(2024, time.July, 15),
		day(2024, time.October, 15),
	}, got)
}

func TestOccurrencesStopAtCancellation(t *testing.T) {
	until := day(2024, time.March, 10)
	s := Schedule{Start: day(2024, time.January, 10), Frequency: Monthly, Until: &until}

	got := s.Occurrences(day(2024, time.January, 1), day(2024, time.December, 31))

	assert.Equal(t, []time.Time{day(2024, time.January, 10), day(2024, time.February, 10)}, got)
}

func TestOccurrencesWeeklyWindow(t *testing.T) {
	s := Schedule{Start: day(2024, time.January, 1), Frequency: Weekly}

	got := s.Occurrences(day(2024, time.January, 10), day(2024, time.January, 31))

	assert.Equal(t, []time.Time{
		day(2024, time.January, 15),
		day(2024, time.January, 22),
		day(2024, time.January, 29),
	}, got)
}

func TestOccurrencesLateWindowSkipsAhead(t *testing.T) {
	s := Schedule{Start: day(2000, time.June, 30), Frequency: Semiannual}

	got := s.Occurrences(day(2024, time.January, 1), day(2024, time.December, 31))

	assert.Equal(t, []time.Time{day(2024, time.June, 30), day(2024, time.December, 30)}, got)
}

func TestOccurrencesEmptyCases(t *testing.T) {
	s := Schedule{Start: day(2024, time.January, 1), Frequency: Monthly}
	assert.Empty(t, s.Occurrences(day(2024, time.May, 1), day(2024, time.April, 1)))

	bad := Schedule{Start: day(2024, time.January, 1), Frequency: "daily"}
	assert.Empty(t, bad.Occurrences(day(2024, time.January, 1), day(2024, time.December, 1)))
}

func TestTermShorterThanPeriodYieldsOneOccurrence(t *testing.T) {
	s := Schedule{Start: day(2024, time.March, 1), Frequency: Yearly, TermMonths: 3}

	n, ok := s.Count()

	require.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestNext(t *testing.T) {
	s := Schedule{Start: day(2024, time.January, 31), Frequency: Monthly, TermMonths: 3}

	next, ok := s.Next(day(2024, time.February, 15))
	require.True(t, ok)
	assert.Equal(t, day(2024, time.February, 29), next)

	next, ok = s.Next(day(2024, time.March, 31))
	require.True(t, ok)
	assert.Equal(t, day(2024, time.March, 31), next)

	_, ok = s.Next(day(2024, time.April, 1))
	assert.False(t, ok)

	next, ok = s.Next(day(2023, time.June, 1))
	require.True(t, ok)
	assert.Equal(t, day(2024, time.January, 31), next)
}

func TestEnd(t *testing.T) {
	open := Schedule{Start: day(2024, time.January, 1), Frequency: Monthly}
	_, ok := open.End()
	assert.False(t, ok)

	until := day(2024, time.February, 1)
	cut := Schedule{Start: day(2024, time.January, 1), Frequency: Monthly, TermMonths: 12, Until: &until}
	end, ok := cut.End()
	require.True(t, ok)
	assert.Equal(t, until, end)
}

func TestActiveInMonth(t *testing.T) {
	s := Schedule{Start: day(2024, time.March, 20), Frequency: Monthly, TermMonths: 2}

	assert.False(t, s.ActiveInMonth(2024, time.February))
	assert.True(t, s.ActiveInMonth(2024, time.March))
	assert.True(t, s.ActiveInMonth(2024, time.May))
	assert.False(t, s.ActiveInMonth(2024, time.June))
}

func TestMonthlyAmount(t *testing.T) {
	assert.Equal(t, "10", MonthlyAmount(decimal.NewFromInt(120), Yearly).String())
	assert.Equal(t, "100", MonthlyAmount(decimal.NewFromInt(300), Quarterly).String())
	assert.Equal(t, "43.33", MonthlyAmount(decimal.NewFromInt(10), Weekly).String())
	assert.Equal(t, "25", MonthlyAmount(decimal.NewFromInt(25), Monthly).String())
}

func TestContractValue(t *testing.T) {
	s := Schedule{Start: day(2024, time.January, 15), Frequency: Quarterly, TermMonths: 12}
	v, ok := ContractValue(decimal.NewFromInt(100), s)
	require.True(t, ok)
	assert.Equal(t, "400", v.String())

	_, ok = ContractValue(decimal.NewFromInt(100), Schedule{Start: s.Start, Frequency: Monthly})
	assert.False(t, ok)
}
