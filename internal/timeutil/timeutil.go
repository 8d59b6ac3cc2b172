package timeutil

import (
	"fmt"
	"time"
)

const MonthKeyLayout = "2006-01"

// StartOfMonth returns the first instant of value's month in UTC.
func StartOfMonth(value time.Time) time.Time {
	if value.IsZero() {
		return time.Time{}
	}
	return time.Date(value.Year(), value.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// SameMonth reports whether a and b fall in the same calendar month.
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthKey formats a month as YYYY-MM; the zero month formats as "".
func MonthKey(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(MonthKeyLayout)
}

// FiscalYear returns the fiscal year a month belongs to when the fiscal year
// starts in startMonth and is named after the calendar year it ends in.
func FiscalYear(value time.Time, startMonth time.Month) int {
	if value.IsZero() {
		return 0
	}
	if startMonth <= time.January || value.Month() < startMonth {
		return value.Year()
	}
	return value.Year() + 1
}

// FiscalMonth returns the 1-based position of value within its fiscal year.
func FiscalMonth(value time.Time, startMonth time.Month) int {
	if value.IsZero() {
		return 0
	}
	if startMonth < time.January {
		startMonth = time.January
	}
	return (int(value.Month())-int(startMonth)+12)%12 + 1
}

func FYLabel(fiscalYear int) string {
	if fiscalYear <= 0 {
		return "Unknown"
	}
	return fmt.Sprintf("FY%02d", fiscalYear%100)
}
