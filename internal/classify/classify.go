// Package classify decides how a fact row's actual and quoted departments
// relate to each other.
package classify

import (
	"jobprofit/internal/keys"
	"jobprofit/ledger"
)

// Presence says which side of the actual/quote join a row came from.
type Presence int

const (
	PresenceBoth Presence = iota
	PresenceQuoteOnly
	PresenceActualOnly
)

// DepartmentInput is one row's view of the join.
type DepartmentInput struct {
	Presence         Presence
	DepartmentActual string
	DepartmentQuote  string
}

type departmentState struct {
	presence  Presence
	hasActual bool
	hasQuote  bool
	equal     bool
}

type departmentRule struct {
	status ledger.DeptStatus
	when   func(departmentState) bool
}

// Evaluated top to bottom; the first rule that holds wins.
var departmentRules = []departmentRule{
	{status: ledger.DeptQuoteOnlyTask, when: func(s departmentState) bool { return s.presence == PresenceQuoteOnly }},
	{status: ledger.DeptActualOnlyTask, when: func(s departmentState) bool { return s.presence == PresenceActualOnly }},
	{status: ledger.DeptMatch, when: func(s departmentState) bool { return s.hasActual && s.hasQuote && s.equal }},
	{status: ledger.DeptMismatch, when: func(s departmentState) bool { return s.hasActual && s.hasQuote && !s.equal }},
	{status: ledger.DeptMissingActual, when: func(s departmentState) bool { return !s.hasActual }},
	{status: ledger.DeptMissingQuote, when: func(s departmentState) bool { return !s.hasQuote }},
}

// Department classifies one row.
func Department(in DepartmentInput) ledger.DeptStatus {
	actual := keys.Department(in.DepartmentActual)
	quote := keys.Department(in.DepartmentQuote)
	state := departmentState{
		presence:  in.Presence,
		hasActual: actual != "",
		hasQuote:  quote != "",
		equal:     keys.SameDepartment(actual, quote),
	}
	for _, rule := range departmentRules {
		if rule.when(state) {
			return rule.status
		}
	}
	// Unreachable: the last two rules cover every remaining state.
	return ledger.DeptMissingQuote
}

// TallyDepartments counts rows per status. Every known status is present in
// the result, with zero when no row carries it.
func TallyDepartments(statuses []ledger.DeptStatus) map[ledger.DeptStatus]int {
	counts := make(map[ledger.DeptStatus]int, len(ledger.DeptStatuses))
	for _, status := range ledger.DeptStatuses {
		counts[status] = 0
	}
	for _, status := range statuses {
		counts[status]++
	}
	return counts
}
