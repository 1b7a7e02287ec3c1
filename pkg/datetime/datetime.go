// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/fieldserve/marketing-targets/pkg/constants"
)

// DateLayout is the format expected in scenario files and persisted records.
const DateLayout = constants.DateLayout

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// DaysInMonth returns the number of days in the month containing t.
func DaysInMonth(t time.Time) int {
	firstOfMonth := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

// DaysInYear returns the number of days in the year containing t.
func DaysInYear(t time.Time) int {
	firstOfYear := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
	return int(firstOfYear.AddDate(1, 0, 0).Sub(firstOfYear).Hours() / 24)
}

// DaysInPeriod returns the number of days covered by the given period type
// around the reference date. Formulas that prorate by day consume this.
func DaysInPeriod(period constants.Period, t time.Time) int {
	switch period {
	case constants.PeriodWeekly:
		return constants.DaysPerWeek
	case constants.PeriodYearly:
		return DaysInYear(t)
	default:
		return DaysInMonth(t)
	}
}

// PeriodRange returns the inclusive start and end dates of the period
// containing t, formatted with DateLayout. Weekly periods start on Monday.
func PeriodRange(period constants.Period, t time.Time) (string, string) {
	switch period {
	case constants.PeriodWeekly:
		offset := (int(t.Weekday()) + 6) % 7
		start := t.AddDate(0, 0, -offset)
		end := start.AddDate(0, 0, 6)
		return start.Format(DateLayout), end.Format(DateLayout)
	case constants.PeriodYearly:
		start := time.Date(t.Year(), 1, 1, 0, 0, 0, 0, t.Location())
		end := time.Date(t.Year(), 12, 31, 0, 0, 0, 0, t.Location())
		return start.Format(DateLayout), end.Format(DateLayout)
	default:
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
		end := start.AddDate(0, 1, -1)
		return start.Format(DateLayout), end.Format(DateLayout)
	}
}

// MonthLabel returns the short English label for a 1-based calendar month.
func MonthLabel(month int) string {
	if month < 1 || month > constants.MonthsPerYear {
		return ""
	}
	return time.Month(month).String()[:3]
}
