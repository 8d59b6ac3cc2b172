package web

import (
	"fmt"
	"strings"
	"time"

	"jobprofit/internal/keys"
	"jobprofit/internal/timeutil"
	"jobprofit/ledger"
	"jobprofit/output"
	"jobprofit/storage"
)

// BuildRow is the list view of a stored build.
type BuildRow struct {
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	Source       string    `json:"source"`
	FactRows     int       `json:"fact_rows"`
	AllocationOK bool      `json:"allocation_ok"`
	UniqueKeysOK bool      `json:"unique_keys_ok"`
}

func buildRows(builds []storage.Build) []BuildRow {
	rows := make([]BuildRow, 0, len(builds))
	for _, build := range builds {
		rows = append(rows, BuildRow{
			RunID:        build.RunID,
			CreatedAt:    build.CreatedAt,
			Source:       build.Source,
			FactRows:     build.FactRows,
			AllocationOK: build.AllocationOK,
			UniqueKeysOK: build.UniqueKeysOK,
		})
	}
	return rows
}

// FactFilter narrows fact rows. Empty fields match everything.
type FactFilter struct {
	JobNo      string
	Month      time.Time
	Department string
	Status     ledger.DeptStatus
}

func parseFactFilter(query map[string][]string) (FactFilter, error) {
	get := func(key string) string {
		if values := query[key]; len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}

	filter := FactFilter{
		JobNo:      keys.JobNo(get("job")),
		Department: get("department"),
		Status:     ledger.DeptStatus(strings.ToUpper(get("dept_status"))),
	}
	if raw := get("month"); raw != "" {
		month, ok := keys.Month(raw)
		if !ok {
			return FactFilter{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", raw)
		}
		filter.Month = month
	}
	if filter.Status != "" && !knownStatus(filter.Status) {
		return FactFilter{}, fmt.Errorf("unknown dept_status %q", filter.Status)
	}
	return filter, nil
}

func knownStatus(status ledger.DeptStatus) bool {
	for _, known := range ledger.DeptStatuses {
		if status == known {
			return true
		}
	}
	return false
}

func (f FactFilter) match(fact ledger.FactRow) bool {
	if f.JobNo != "" && fact.JobNo != f.JobNo {
		return false
	}
	if !f.Month.IsZero() && !timeutil.SameMonth(fact.Month, f.Month) {
		return false
	}
	if f.Department != "" && !keys.SameDepartment(fact.DepartmentReporting, f.Department) {
		return false
	}
	if f.Status != "" && fact.DeptMatchStatus != f.Status {
		return false
	}
	return true
}

func filterFacts(facts []ledger.FactRow, filter FactFilter) []ledger.FactRow {
	out := make([]ledger.FactRow, 0, len(facts))
	for _, fact := range facts {
		if filter.match(fact) {
			out = append(out, fact)
		}
	}
	return out
}

// summaryTable renders one of the published summaries over the facts.
func summaryTable(kind string, facts []ledger.FactRow) (output.Table, bool) {
	switch kind {
	case "job-month":
		return output.JobMonthSummaryTable(output.BuildJobMonthSummaries(facts)), true
	case "job-total":
		return output.JobTotalSummaryTable(output.BuildJobTotalSummaries(facts)), true
	case "quote-vs-actual":
		return output.QuoteVsActualSummaryTable(output.BuildQuoteVsActualSummaries(facts)), true
	default:
		return output.Table{}, false
	}
}

// tableRecords turns a table into JSON objects keyed by column name.
func tableRecords(table output.Table) []map[string]any {
	records := make([]map[string]any, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := make(map[string]any, len(table.Headers))
		for i, header := range table.Headers {
			if i < len(row) {
				record[header] = row[i]
			}
		}
		records = append(records, record)
	}
	return records
}
