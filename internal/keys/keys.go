// Package keys canonicalises the identifiers used to join the revenue,
// timesheet and quotation ledgers.
package keys

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"jobprofit/internal/timeutil"
)

// Excel serial day numbers outside this range are not treated as dates.
// Serials before 1901 are more likely bare counters than months.
const (
	minExcelSerial = 367
	maxExcelSerial = 2958465
)

// Bare YYYY and YYYYMM values are accepted only inside this year range.
const (
	minCompactYear = 1900
	maxCompactYear = 2999
)

var compactMonth = regexp.MustCompile(`^(\d{4})(\d{2})?$`)

var monthLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"2006/01/02",
	"1/2/2006",
	"1/2/06",
	"1/2/2006 15:04",
	"1-2-06",
	"02.01.2006",
	"Jan 2006",
	"January 2006",
	"Jan-06",
	"Jan-2006",
	"2-Jan-06",
	"2-Jan-2006",
}

func collapse(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

// JobNo trims, collapses whitespace and upper-cases a job number.
func JobNo(raw string) string {
	return strings.ToUpper(collapse(raw))
}

// TaskName trims and collapses whitespace; case is preserved.
func TaskName(raw string) string {
	return collapse(raw)
}

// Department trims and collapses whitespace in a department name.
func Department(raw string) string {
	return collapse(raw)
}

// SameDepartment compares two canonical department names ignoring case.
func SameDepartment(a, b string) bool {
	return strings.EqualFold(Department(a), Department(b))
}

// Month parses a date-like value and returns the first of its month in UTC.
// The second return value is false when the value cannot be parsed.
func Month(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}

	if compactMonth.MatchString(value) {
		return parseCompactMonth(value)
	}

	for _, layout := range monthLayouts {
		if parsed, err := time.Parse(layout, value); err == nil {
			return timeutil.StartOfMonth(parsed), true
		}
	}

	serial, err := strconv.ParseFloat(value, 64)
	if err != nil || serial < minExcelSerial || serial > maxExcelSerial {
		return time.Time{}, false
	}
	parsed, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return timeutil.StartOfMonth(parsed), true
}

// parseCompactMonth reads "2024" as January 2024 and "202403" as March 2024.
// These never fall back to Excel serials.
func parseCompactMonth(value string) (time.Time, bool) {
	layout := "2006"
	if len(value) == 6 {
		layout = "200601"
	}
	parsed, err := time.Parse(layout, value)
	if err != nil || parsed.Year() < minCompactYear || parsed.Year() > maxCompactYear {
		return time.Time{}, false
	}
	return parsed, true
}
