package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekKey(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		expected string
	}{
		// 2021-01-01 is a Friday: it belongs to 2020-W53.
		{name: "friday new year 2021", date: date(2021, time.January, 1), expected: "W53"},
		{name: "friday new year 2016", date: date(2016, time.January, 1), expected: "W53"},
		{name: "friday new year 2027", date: date(2027, time.January, 1), expected: "W53"},
		// the Monday of 2021-W01
		{name: "first iso week 2021", date: date(2021, time.January, 4), expected: "W01"},
		// 2024-12-30 is a Monday in the week holding 2025's first Thursday.
		{name: "december in next year week 1", date: date(2024, time.December, 30), expected: "W01"},
		{name: "mid february", date: date(2025, time.February, 10), expected: "W07"},
		{name: "sunday closes the week", date: date(2025, time.February, 16), expected: "W07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, WeekKey(tt.date))
		})
	}
}

func TestWeekKey_FridayNewYearBelongsToPriorYear(t *testing.T) {
	d := date(2021, time.January, 1)
	year, week := d.ISOWeek()

	assert.Equal(t, 2020, year)
	assert.Equal(t, 53, week)
	assert.Equal(t, "W53", WeekKey(d))
}

func TestMonthKey(t *testing.T) {
	tests := []struct {
		month    time.Month
		expected string
	}{
		{month: time.February, expected: "M1"},
		{month: time.March, expected: "M2"},
		{month: time.April, expected: "M3"},
		{month: time.May, expected: "M1"},
		{month: time.January, expected: "M3"},
		{month: time.November, expected: "M1"},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			assert.Equal(t, tt.expected, MonthKey(date(2025, tt.month, 15), time.February))
		})
	}
}

func TestMonthKey_CalendarQuarters(t *testing.T) {
	assert.Equal(t, "M1", MonthKey(date(2025, time.January, 5), time.January))
	assert.Equal(t, "M3", MonthKey(date(2025, time.December, 5), time.January))
}

func TestPeriodKey(t *testing.T) {
	d := date(2025, time.March, 12)

	_, ok := PeriodKey(d, GranularityQuarter, time.February)
	assert.False(t, ok)

	key, ok := PeriodKey(d, GranularityMonth, time.February)
	assert.True(t, ok)
	assert.Equal(t, "M2", key)

	key, ok = PeriodKey(d, GranularityWeek, time.February)
	assert.True(t, ok)
	assert.Equal(t, "W11", key)
}

func TestMonthOptions(t *testing.T) {
	assert.Equal(t, []PeriodOption{
		{Key: "M1", Label: "M1 · Feb"},
		{Key: "M2", Label: "M2 · Mar"},
		{Key: "M3", Label: "M3 · Apr"},
	}, MonthOptions(time.February))

	assert.Equal(t, "M3 · Jan", MonthOptions(time.November)[2].Label)
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, date(2025, time.February, 10), WeekStart(date(2025, time.February, 13)))
	assert.Equal(t, date(2025, time.February, 10), WeekStart(date(2025, time.February, 16)))
	assert.Equal(t, date(2025, time.February, 10), WeekStart(date(2025, time.February, 10)))
}

func TestWeekOptions(t *testing.T) {
	dates := []time.Time{
		date(2025, time.March, 5),
		date(2025, time.February, 13),
		{},
		date(2025, time.February, 10),
	}

	assert.Equal(t, []PeriodOption{
		{Key: "W07", Label: "W07 · Feb 10"},
		{Key: "W10", Label: "W10 · Mar 3"},
	}, WeekOptions(dates))
}

func TestWeekOptions_SameWeekNumberAcrossYears(t *testing.T) {
	dates := []time.Time{
		date(2026, time.February, 10),
		date(2025, time.February, 10),
	}

	options := WeekOptions(dates)

	require.Len(t, options, 1)
	assert.Equal(t, PeriodOption{Key: "W07", Label: "W07 · Feb 10"}, options[0])

	for _, d := range dates {
		key, ok := PeriodKey(d, GranularityWeek, time.February)
		require.True(t, ok)
		assert.Equal(t, options[0].Key, key)
	}
}
