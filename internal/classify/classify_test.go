package classify

import (
	"testing"

	"jobprofit/ledger"
)

func TestDepartment(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   DepartmentInput
		want ledger.DeptStatus
	}{
		{name: "match", in: DepartmentInput{DepartmentActual: "Design", DepartmentQuote: "Design"}, want: ledger.DeptMatch},
		{name: "match ignores case and spacing", in: DepartmentInput{DepartmentActual: " design ", DepartmentQuote: "DESIGN"}, want: ledger.DeptMatch},
		{name: "mismatch", in: DepartmentInput{DepartmentActual: "Design", DepartmentQuote: "Dev"}, want: ledger.DeptMismatch},
		{name: "missing quote", in: DepartmentInput{DepartmentActual: "Design"}, want: ledger.DeptMissingQuote},
		{name: "missing actual", in: DepartmentInput{DepartmentQuote: "Dev"}, want: ledger.DeptMissingActual},
		{name: "both missing", in: DepartmentInput{}, want: ledger.DeptMissingActual},
		{
			name: "quote only overrides departments",
			in:   DepartmentInput{Presence: PresenceQuoteOnly, DepartmentActual: "Design", DepartmentQuote: "Design"},
			want: ledger.DeptQuoteOnlyTask,
		},
		{
			name: "actual only overrides departments",
			in:   DepartmentInput{Presence: PresenceActualOnly, DepartmentActual: "Design", DepartmentQuote: "Dev"},
			want: ledger.DeptActualOnlyTask,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Department(tc.in); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestTallyDepartments_IncludesEveryStatus(t *testing.T) {
	t.Parallel()

	counts := TallyDepartments([]ledger.DeptStatus{ledger.DeptMatch, ledger.DeptMatch, ledger.DeptMismatch})
	if len(counts) != len(ledger.DeptStatuses) {
		t.Fatalf("expected %d statuses, got %d", len(ledger.DeptStatuses), len(counts))
	}
	if counts[ledger.DeptMatch] != 2 || counts[ledger.DeptMismatch] != 1 || counts[ledger.DeptQuoteOnlyTask] != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}
}
