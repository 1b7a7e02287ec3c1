package datetime

import (
	"testing"

	"github.com/fieldserve/marketing-targets/pkg/constants"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		date     string
		expected int
	}{
		{"2025-01-15", 31},
		{"2025-02-10", 28},
		{"2024-02-10", 29}, // leap year
		{"2025-04-01", 30},
		{"2025-12-31", 31},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			if got := DaysInMonth(MustParseTime(DateLayout, tt.date)); got != tt.expected {
				t.Errorf("DaysInMonth(%s) = %d, want %d", tt.date, got, tt.expected)
			}
		})
	}
}

func TestDaysInYear(t *testing.T) {
	if got := DaysInYear(MustParseTime(DateLayout, "2025-06-01")); got != 365 {
		t.Errorf("DaysInYear(2025) = %d, want 365", got)
	}
	if got := DaysInYear(MustParseTime(DateLayout, "2024-06-01")); got != 366 {
		t.Errorf("DaysInYear(2024) = %d, want 366", got)
	}
}

func TestDaysInPeriod(t *testing.T) {
	ref := MustParseTime(DateLayout, "2025-02-14")

	if got := DaysInPeriod(constants.PeriodWeekly, ref); got != 7 {
		t.Errorf("weekly days = %d, want 7", got)
	}
	if got := DaysInPeriod(constants.PeriodMonthly, ref); got != 28 {
		t.Errorf("monthly days = %d, want 28", got)
	}
	if got := DaysInPeriod(constants.PeriodYearly, ref); got != 365 {
		t.Errorf("yearly days = %d, want 365", got)
	}
}

func TestPeriodRange(t *testing.T) {
	tests := []struct {
		name       string
		period     constants.Period
		date       string
		start, end string
	}{
		{"monthly mid-month", constants.PeriodMonthly, "2025-02-14", "2025-02-01", "2025-02-28"},
		{"yearly", constants.PeriodYearly, "2025-06-15", "2025-01-01", "2025-12-31"},
		{"weekly starts monday", constants.PeriodWeekly, "2025-02-14", "2025-02-10", "2025-02-16"},
		{"weekly on monday", constants.PeriodWeekly, "2025-02-10", "2025-02-10", "2025-02-16"},
		{"weekly on sunday", constants.PeriodWeekly, "2025-02-16", "2025-02-10", "2025-02-16"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PeriodRange(tt.period, MustParseTime(DateLayout, tt.date))
			if start != tt.start || end != tt.end {
				t.Errorf("PeriodRange(%s, %s) = (%s, %s), want (%s, %s)",
					tt.period, tt.date, start, end, tt.start, tt.end)
			}
		})
	}
}

func TestMonthLabel(t *testing.T) {
	if got := MonthLabel(1); got != "Jan" {
		t.Errorf("MonthLabel(1) = %q, want Jan", got)
	}
	if got := MonthLabel(12); got != "Dec" {
		t.Errorf("MonthLabel(12) = %q, want Dec", got)
	}
	if got := MonthLabel(0); got != "" {
		t.Errorf("MonthLabel(0) = %q, want empty", got)
	}
}
