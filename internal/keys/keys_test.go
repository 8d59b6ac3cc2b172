package keys

import (
	"testing"
	"time"
)

func TestJobNoAndTaskName(t *testing.T) {
	t.Parallel()

	if got := JobNo("  sg-1001 \t a "); got != "SG-1001 A" {
		t.Fatalf("unexpected job number: %q", got)
	}
	if got := TaskName("  Social   Media\tStrategy "); got != "Social Media Strategy" {
		t.Fatalf("unexpected task name: %q", got)
	}
	if got := TaskName("design"); got != "design" {
		t.Fatalf("task name case must be preserved, got %q", got)
	}
	if !SameDepartment(" Design ", "design") {
		t.Fatalf("expected departments to compare equal")
	}
}

func TestMonth(t *testing.T) {
	t.Parallel()

	march := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		input  string
		want   time.Time
		wantOK bool
	}{
		{name: "iso date", input: "2026-03-17", want: march, wantOK: true},
		{name: "iso datetime", input: "2026-03-17 10:30:00", want: march, wantOK: true},
		{name: "month only", input: "2026-03", want: march, wantOK: true},
		{name: "us short", input: "3/17/26", want: march, wantOK: true},
		{name: "us long", input: "3/17/2026", want: march, wantOK: true},
		{name: "month name", input: "Mar 2026", want: march, wantOK: true},
		{name: "month dash", input: "Mar-26", want: march, wantOK: true},
		{name: "excel serial", input: "46098", want: march, wantOK: true},
		{name: "excel serial with fraction", input: "46098.5", want: march, wantOK: true},
		{name: "bare year", input: "2024", want: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "compact year month", input: "202403", want: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), wantOK: true},
		{name: "compact month out of range", input: "202413", wantOK: false},
		{name: "implausible year", input: "1234", wantOK: false},
		{name: "small number", input: "12", wantOK: false},
		{name: "serial before 1901", input: "366", wantOK: false},
		{name: "empty", input: "", wantOK: false},
		{name: "garbage", input: "not a month", wantOK: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Month(tc.input)
			if ok != tc.wantOK {
				t.Fatalf("Month(%q) ok = %v, want %v", tc.input, ok, tc.wantOK)
			}
			if ok && !got.Equal(tc.want) {
				t.Fatalf("Month(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestTaskMap_JobSpecificOverridesGlobal(t *testing.T) {
	t.Parallel()

	m := NewTaskMap([]TaskMapRule{
		{FromTask: "Dev", ToTask: "Development"},
		{JobNo: " j1 ", FromTask: "Dev ", ToTask: "Build"},
		{FromTask: "", ToTask: "ignored"},
	})

	if got := m.Apply("J1", "Dev"); got != "Build" {
		t.Fatalf("expected job-specific mapping, got %q", got)
	}
	if got := m.Apply("J2", "Dev"); got != "Development" {
		t.Fatalf("expected global mapping, got %q", got)
	}
	if got := m.Apply("J2", "Design"); got != "Design" {
		t.Fatalf("expected passthrough, got %q", got)
	}
	if m.Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", m.Len())
	}
}

func TestTaskMap_ZeroValuePassesThrough(t *testing.T) {
	t.Parallel()

	var m TaskMap
	if got := m.Apply("J1", "Design"); got != "Design" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
