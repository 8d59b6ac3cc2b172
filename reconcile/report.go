package reconcile

import "jobprofit/aggregate"

// Report is the QA snapshot of one build. Field names are the published
// contract of qa_report.json.
type Report struct {
	AllocationOK            bool              `json:"allocation_ok" yaml:"allocation_ok"`
	AllocationMaxDelta      float64           `json:"allocation_max_delta" yaml:"allocation_max_delta"`
	AllocationGroupsChecked int               `json:"allocation_groups_checked" yaml:"allocation_groups_checked"`
	AllocationViolations    []AllocationDelta `json:"allocation_violations" yaml:"allocation_violations"`
	RevenueTolerance        float64           `json:"revenue_tolerance" yaml:"revenue_tolerance"`

	UniqueKeysOK  bool     `json:"unique_keys_ok" yaml:"unique_keys_ok"`
	DuplicateKeys []KeyRef `json:"duplicate_keys" yaml:"duplicate_keys"`

	MissingBaseRateGroups int            `json:"missing_base_rate_groups" yaml:"missing_base_rate_groups"`
	NegativeHoursGroups   int            `json:"negative_hours_groups" yaml:"negative_hours_groups"`
	MixedDimensionCounts  map[string]int `json:"mixed_dimension_counts" yaml:"mixed_dimension_counts"`

	UnmatchedTimesheetTasks int              `json:"unmatched_timesheet_tasks" yaml:"unmatched_timesheet_tasks"`
	TaskMatchSuggestions    []TaskSuggestion `json:"task_match_suggestions" yaml:"task_match_suggestions"`

	DeptMismatchCounts         []DeptPairCount     `json:"dept_mismatch_counts" yaml:"dept_mismatch_counts"`
	DeptMismatchTopByHours     []JobTaskHours      `json:"dept_mismatch_top_by_hours" yaml:"dept_mismatch_top_by_hours"`
	DeptMismatchTopByRevenue   []JobTaskRevenue    `json:"dept_mismatch_top_by_revenue" yaml:"dept_mismatch_top_by_revenue"`
	DeptMismatchRevenueByMonth []MonthRevenueShare `json:"dept_mismatch_revenue_by_month" yaml:"dept_mismatch_revenue_by_month"`
	MixedDepartmentShareHours  float64             `json:"mixed_department_share_hours" yaml:"mixed_department_share_hours"`
	DeptStatusCounts           map[string]int      `json:"dept_status_counts" yaml:"dept_status_counts"`

	Inputs InputStats `json:"inputs" yaml:"inputs"`
}

// OK reports whether the build passed the hard checks.
func (r *Report) OK() bool {
	return r.AllocationOK && r.UniqueKeysOK
}

type InputStats struct {
	Revenue   aggregate.RevenueStats   `json:"revenue" yaml:"revenue"`
	Timesheet aggregate.TimesheetStats `json:"timesheet" yaml:"timesheet"`
	Quotation aggregate.QuotationStats `json:"quotation" yaml:"quotation"`
}

type AllocationDelta struct {
	JobNo            string  `json:"job_no" yaml:"job_no"`
	Month            string  `json:"month_key" yaml:"month_key"`
	RevenueMonthly   float64 `json:"revenue_monthly" yaml:"revenue_monthly"`
	RevenueAllocated float64 `json:"revenue_allocated" yaml:"revenue_allocated"`
	Delta            float64 `json:"delta" yaml:"delta"`
}

type KeyRef struct {
	JobNo    string `json:"job_no" yaml:"job_no"`
	TaskName string `json:"task_name" yaml:"task_name"`
	Month    string `json:"month_key" yaml:"month_key"`
}

type TaskSuggestion struct {
	JobNo     string  `json:"job_no" yaml:"job_no"`
	Task      string  `json:"task" yaml:"task"`
	Candidate string  `json:"candidate" yaml:"candidate"`
	Score     float64 `json:"score" yaml:"score"`
}

type DeptPairCount struct {
	DepartmentActual string `json:"department_actual" yaml:"department_actual"`
	DepartmentQuote  string `json:"department_quote" yaml:"department_quote"`
	Count            int    `json:"count" yaml:"count"`
}

type JobTaskHours struct {
	JobNo      string  `json:"job_no" yaml:"job_no"`
	TaskName   string  `json:"task_name" yaml:"task_name"`
	TotalHours float64 `json:"total_hours" yaml:"total_hours"`
}

type JobTaskRevenue struct {
	JobNo            string  `json:"job_no" yaml:"job_no"`
	TaskName         string  `json:"task_name" yaml:"task_name"`
	RevenueAllocated float64 `json:"revenue_allocated" yaml:"revenue_allocated"`
}

type MonthRevenueShare struct {
	Month                string  `json:"month_key" yaml:"month_key"`
	MismatchRevenue      float64 `json:"mismatch_revenue" yaml:"mismatch_revenue"`
	TotalRevenue         float64 `json:"total_revenue" yaml:"total_revenue"`
	MismatchRevenueShare float64 `json:"mismatch_revenue_share" yaml:"mismatch_revenue_share"`
}
