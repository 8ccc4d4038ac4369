package period

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestKeyFor(t *testing.T) {
	tests := []struct {
		name     string
		freq     Frequency
		date     time.Time
		expected Key
	}{
		{"monthly uses the month", FrequencyMonthly, date(2025, time.March, 15), Key{2025, 3}},
		{"weekly shares the monthly period", FrequencyWeekly, date(2025, time.November, 2), Key{2025, 11}},
		{"quarterly first quarter", FrequencyQuarterly, date(2025, time.February, 1), Key{2025, 1}},
		{"quarterly fourth quarter", FrequencyQuarterly, date(2025, time.December, 31), Key{2025, 4}},
		{"semi-annual first half", FrequencySemiAnnual, date(2025, time.June, 30), Key{2025, 1}},
		{"semi-annual second half", FrequencySemiAnnual, date(2025, time.July, 1), Key{2025, 2}},
		{"annual always period one", FrequencyAnnual, date(2025, time.August, 9), Key{2025, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KeyFor(tt.freq, tt.date))
		})
	}
}

func TestDueThisMonth(t *testing.T) {
	tests := []struct {
		name   string
		freq   Frequency
		months map[time.Month]bool
	}{
		{
			name: "monthly fires every month",
			freq: FrequencyMonthly,
			months: map[time.Month]bool{
				time.January: true, time.June: true, time.December: true,
			},
		},
		{
			name: "quarterly fires in quarter-end months only",
			freq: FrequencyQuarterly,
			months: map[time.Month]bool{
				time.January: false, time.February: false, time.March: true,
				time.April: false, time.May: false, time.June: true,
				time.July: false, time.August: false, time.September: true,
				time.October: false, time.November: false, time.December: true,
			},
		},
		{
			name: "semi-annual fires in June and December",
			freq: FrequencySemiAnnual,
			months: map[time.Month]bool{
				time.May: false, time.June: true, time.July: false,
				time.November: false, time.December: true,
			},
		},
		{
			name: "annual fires in January",
			freq: FrequencyAnnual,
			months: map[time.Month]bool{
				time.January: true, time.February: false, time.December: false,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for month, expected := range tt.months {
				assert.Equal(t, expected, DueThisMonth(tt.freq, date(2025, month, 10)),
					"month %s", month)
			}
		})
	}
}

func TestTickAmount(t *testing.T) {
	rent := decimal.NewFromInt(9000)

	tests := []struct {
		freq     Frequency
		expected decimal.Decimal
	}{
		{FrequencyMonthly, decimal.NewFromInt(9000)},
		{FrequencyWeekly, decimal.NewFromInt(2250)},
		{FrequencyQuarterly, decimal.NewFromInt(27000)},
		{FrequencySemiAnnual, decimal.NewFromInt(54000)},
		{FrequencyAnnual, decimal.NewFromInt(108000)},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			assert.True(t, tt.expected.Equal(TickAmount(tt.freq, rent)),
				"expected %s, got %s", tt.expected, TickAmount(tt.freq, rent))
		})
	}
}

func TestTickAmountRoundsWeeklySplit(t *testing.T) {
	// 1000/4 = 250, but 999.99/4 must round to 2 places
	got := TickAmount(FrequencyWeekly, decimal.NewFromFloat(999.99))
	assert.True(t, decimal.NewFromFloat(250.00).Equal(got), "got %s", got)
}

func TestDueDate(t *testing.T) {
	tests := []struct {
		name     string
		freq     Frequency
		key      Key
		expected time.Time
	}{
		{"monthly due in the period month", FrequencyMonthly, Key{2025, 4}, date(2025, time.April, 5)},
		{"quarterly due in quarter-end month", FrequencyQuarterly, Key{2025, 2}, date(2025, time.June, 5)},
		{"semi-annual due in half-end month", FrequencySemiAnnual, Key{2025, 2}, date(2025, time.December, 5)},
		{"annual due in December", FrequencyAnnual, Key{2025, 1}, date(2025, time.December, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DueDate(tt.freq, tt.key, 5, time.UTC))
		})
	}
}

func TestAccrue(t *testing.T) {
	rent := decimal.NewFromInt(20000)

	tests := []struct {
		name     string
		freq     Frequency
		start    time.Time
		asOf     time.Time
		expected decimal.Decimal
	}{
		{
			name:     "monthly accrues once per month inclusive",
			freq:     FrequencyMonthly,
			start:    date(2025, time.January, 15),
			asOf:     date(2025, time.April, 2),
			expected: decimal.NewFromInt(80000), // Jan..Apr
		},
		{
			name:     "quarterly accrues in quarter-end months",
			freq:     FrequencyQuarterly,
			start:    date(2025, time.January, 1),
			asOf:     date(2025, time.July, 10),
			expected: decimal.NewFromInt(120000), // Mar + Jun
		},
		{
			name:     "annual accrues only when January is crossed",
			freq:     FrequencyAnnual,
			start:    date(2025, time.March, 1),
			asOf:     date(2025, time.December, 31),
			expected: decimal.Zero,
		},
		{
			name:     "nothing accrues before the start date",
			freq:     FrequencyMonthly,
			start:    date(2025, time.June, 1),
			asOf:     date(2025, time.May, 31),
			expected: decimal.Zero,
		},
		{
			name:     "weekly accrues a quarter of rent per month",
			freq:     FrequencyWeekly,
			start:    date(2025, time.January, 1),
			asOf:     date(2025, time.February, 28),
			expected: decimal.NewFromInt(10000), // 2 months * 20000/4
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Accrue(tt.freq, rent, tt.start, tt.asOf)
			assert.True(t, tt.expected.Equal(got), "expected %s, got %s", tt.expected, got)
		})
	}
}

func TestSameCalendarMonth(t *testing.T) {
	assert.True(t, SameCalendarMonth(date(2025, time.March, 1), date(2025, time.March, 31)))
	assert.False(t, SameCalendarMonth(date(2025, time.March, 31), date(2025, time.April, 1)))
	assert.False(t, SameCalendarMonth(date(2024, time.March, 1), date(2025, time.March, 1)))
}

func TestFrequencyValid(t *testing.T) {
	assert.True(t, FrequencyMonthly.Valid())
	assert.True(t, FrequencyAnnual.Valid())
	assert.False(t, Frequency("biweekly").Valid())
	assert.False(t, Frequency("").Valid())
}
