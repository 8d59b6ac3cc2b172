package timeutil

import (
	"testing"
	"time"
)

func TestStartOfMonth(t *testing.T) {
	t.Parallel()

	input := time.Date(2026, 3, 17, 14, 37, 9, 123, time.Local)
	got := StartOfMonth(input)

	if got.Year() != 2026 || got.Month() != time.March || got.Day() != 1 {
		t.Fatalf("unexpected date: %v", got)
	}
	if got.Hour() != 0 || got.Minute() != 0 || got.Second() != 0 || got.Nanosecond() != 0 {
		t.Fatalf("expected midnight, got %v", got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", got.Location())
	}
	if !StartOfMonth(time.Time{}).IsZero() {
		t.Fatalf("expected zero month to stay zero")
	}
}

func TestSameMonth(t *testing.T) {
	t.Parallel()

	a := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b := time.Date(2026, 3, 31, 18, 30, 0, 0, time.UTC)
	c := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	if !SameMonth(a, b) {
		t.Fatalf("expected same month for %v and %v", a, b)
	}
	if SameMonth(a, c) {
		t.Fatalf("expected different months for %v and %v", a, c)
	}
}

func TestFiscalCalendar(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		month     time.Time
		wantYear  int
		wantMonth int
		wantLabel string
	}{
		{name: "july opens fiscal year", month: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), wantYear: 2026, wantMonth: 1, wantLabel: "FY26"},
		{name: "june closes fiscal year", month: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), wantYear: 2026, wantMonth: 12, wantLabel: "FY26"},
		{name: "january mid year", month: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), wantYear: 2026, wantMonth: 7, wantLabel: "FY26"},
		{name: "null month", month: time.Time{}, wantYear: 0, wantMonth: 0, wantLabel: "Unknown"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			year := FiscalYear(tc.month, time.July)
			if year != tc.wantYear {
				t.Fatalf("fiscal year: want %d, got %d", tc.wantYear, year)
			}
			if got := FiscalMonth(tc.month, time.July); got != tc.wantMonth {
				t.Fatalf("fiscal month: want %d, got %d", tc.wantMonth, got)
			}
			if got := FYLabel(year); got != tc.wantLabel {
				t.Fatalf("label: want %q, got %q", tc.wantLabel, got)
			}
		})
	}
}

func TestMonthKey(t *testing.T) {
	t.Parallel()

	if got := MonthKey(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)); got != "2026-02" {
		t.Fatalf("expected 2026-02, got %q", got)
	}
	if got := MonthKey(time.Time{}); got != "" {
		t.Fatalf("expected empty key for zero month, got %q", got)
	}
}
