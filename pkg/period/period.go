package period

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the closed set of billing cadences an account can carry.
type Frequency string

const (
	FrequencyMonthly    Frequency = "monthly"
	FrequencyWeekly     Frequency = "weekly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySemiAnnual Frequency = "semi_annual"
	FrequencyAnnual     Frequency = "annual"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyMonthly, FrequencyWeekly, FrequencyQuarterly, FrequencySemiAnnual, FrequencyAnnual:
		return true
	}
	return false
}

// Key identifies one billing period. The index semantics depend on the
// frequency: month number for monthly/weekly, quarter number for quarterly,
// half number for semi-annual, always 1 for annual.
type Key struct {
	Year  int
	Index int
}

func (k Key) String() string {
	return fmt.Sprintf("%d-%02d", k.Year, k.Index)
}

// four approximate weekly charges share one monthly generation tick
var weeksPerMonth = decimal.NewFromInt(4)

// KeyFor returns the billing period that date t falls in under frequency f.
func KeyFor(f Frequency, t time.Time) Key {
	year, month := t.Year(), int(t.Month())

	switch f {
	case FrequencyMonthly, FrequencyWeekly:
		return Key{Year: year, Index: month}
	case FrequencyQuarterly:
		return Key{Year: year, Index: (month-1)/3 + 1}
	case FrequencySemiAnnual:
		return Key{Year: year, Index: (month-1)/6 + 1}
	case FrequencyAnnual:
		return Key{Year: year, Index: 1}
	}

	// unreachable for valid frequencies
	return Key{Year: year, Index: month}
}

// DueThisMonth reports whether the generation tick fires for frequency f in
// the month of t. Monthly and weekly accounts accrue every month; quarterly
// accounts accrue in the quarter's closing month, semi-annual in June and
// December, annual in January.
func DueThisMonth(f Frequency, t time.Time) bool {
	month := int(t.Month())

	switch f {
	case FrequencyMonthly, FrequencyWeekly:
		return true
	case FrequencyQuarterly:
		return month%3 == 0
	case FrequencySemiAnnual:
		return month == 6 || month == 12
	case FrequencyAnnual:
		return month == 1
	}
	return false
}

// TickAmount returns the obligation generated by one tick for a base monthly
// rent, rounded to 2 decimal places.
func TickAmount(f Frequency, monthlyRent decimal.Decimal) decimal.Decimal {
	switch f {
	case FrequencyMonthly:
		return monthlyRent.Round(2)
	case FrequencyWeekly:
		return monthlyRent.Div(weeksPerMonth).Round(2)
	case FrequencyQuarterly:
		return monthlyRent.Mul(decimal.NewFromInt(3)).Round(2)
	case FrequencySemiAnnual:
		return monthlyRent.Mul(decimal.NewFromInt(6)).Round(2)
	case FrequencyAnnual:
		return monthlyRent.Mul(decimal.NewFromInt(12)).Round(2)
	}
	return decimal.Zero
}

// EndMonth returns the last calendar month of period k under frequency f.
func EndMonth(f Frequency, k Key) time.Month {
	switch f {
	case FrequencyMonthly, FrequencyWeekly:
		return time.Month(k.Index)
	case FrequencyQuarterly:
		return time.Month(k.Index * 3)
	case FrequencySemiAnnual:
		return time.Month(k.Index * 6)
	case FrequencyAnnual:
		return time.December
	}
	return time.Month(k.Index)
}

// DueDate returns the day of the period's end month on which payment falls
// due, in location loc.
func DueDate(f Frequency, k Key, dueDay int, loc *time.Location) time.Time {
	return time.Date(k.Year, EndMonth(f, k), dueDay, 0, 0, 0, 0, loc)
}

// Accrue walks one calendar month at a time from start through asOf and sums
// the tick amounts that should have accrued under frequency f, regardless of
// whether charge rows were actually generated. The month containing start is
// included.
func Accrue(f Frequency, monthlyRent decimal.Decimal, start, asOf time.Time) decimal.Decimal {
	total := decimal.Zero
	if asOf.Before(start) {
		return total
	}

	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, start.Location())
	end := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())

	for !cursor.After(end) {
		if DueThisMonth(f, cursor) {
			total = total.Add(TickAmount(f, monthlyRent))
		}
		cursor = cursor.AddDate(0, 1, 0)
	}

	return total
}

// SameCalendarMonth reports whether a and b fall in the same calendar month
// of the same year.
func SameCalendarMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}
