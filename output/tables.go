package output

import (
	"jobprofit/internal/timeutil"
	"jobprofit/ledger"
)

func factColumns() []column[ledger.FactRow] {
	cols := []column[ledger.FactRow]{
		{"job_no", func(f ledger.FactRow) any { return f.JobNo }},
		{"task_name", func(f ledger.FactRow) any { return f.TaskName }},
		{"task_name_raw", func(f ledger.FactRow) any { return f.TaskNameRaw }},
		{"month_key", func(f ledger.FactRow) any { return timeutil.MonthKey(f.Month) }},
		{"fiscal_year", func(f ledger.FactRow) any { return f.FiscalYear }},
		{"fy_label", func(f ledger.FactRow) any { return f.FYLabel }},
		{"fiscal_month", func(f ledger.FactRow) any { return f.FiscalMonth }},
		{"client", func(f ledger.FactRow) any { return f.Client }},
		{"category", func(f ledger.FactRow) any { return f.Category }},
		{"job_name", func(f ledger.FactRow) any { return f.JobName }},
		{"job_status", func(f ledger.FactRow) any { return f.JobStatus }},
		{"product", func(f ledger.FactRow) any { return f.Product }},
		{"department_actual", func(f ledger.FactRow) any { return f.DepartmentActual }},
		{"department_quote", func(f ledger.FactRow) any { return f.DepartmentQuote }},
		{"department_reporting", func(f ledger.FactRow) any { return f.DepartmentReporting }},
		{"dept_match_status", func(f ledger.FactRow) any { return string(f.DeptMatchStatus) }},
		{"mixed_department", func(f ledger.FactRow) any { return f.MixedDepartment }},
		{"department_runner_up", func(f ledger.FactRow) any { return f.DepartmentRunnerUp }},
		{"department_runner_up_share", func(f ledger.FactRow) any { return f.DepartmentRunnerUpShare }},
		{"quote_mixed_department", func(f ledger.FactRow) any { return f.QuoteMixedDepartment }},
	}
	for _, name := range ledger.DimensionNames {
		cols = append(cols, column[ledger.FactRow]{
			name:  ledger.MixedFlagName(name),
			value: func(f ledger.FactRow) any { return f.MixedDimensions[name] },
		})
	}
	return append(cols, []column[ledger.FactRow]{
		{"revenue_monthly", func(f ledger.FactRow) any { return f.RevenueMonthly }},
		{"revenue_allocated", func(f ledger.FactRow) any { return f.RevenueAllocated }},
		{"task_share", func(f ledger.FactRow) any { return f.TaskShare }},
		{"total_hours_job_month", func(f ledger.FactRow) any { return f.TotalHoursJobMonth }},
		{"actual_hours", func(f ledger.FactRow) any { return f.ActualHours }},
		{"billable_hours", func(f ledger.FactRow) any { return f.BillableHours }},
		{"onshore_hours", func(f ledger.FactRow) any { return f.OnshoreHours }},
		{"total_cost", func(f ledger.FactRow) any { return f.TotalCost }},
		{"billable_value", func(f ledger.FactRow) any { return f.BillableValue }},
		{"distinct_staff_count", func(f ledger.FactRow) any { return f.DistinctStaffCount }},
		{"quoted_hours", func(f ledger.FactRow) any { return f.QuotedHours }},
		{"quoted_amount", func(f ledger.FactRow) any { return f.QuotedAmount }},
		{"invoiced_time", func(f ledger.FactRow) any { return f.InvoicedTime }},
		{"invoiced_amount", func(f ledger.FactRow) any { return f.InvoicedAmount }},
		{"quoted_rate_hr", func(f ledger.FactRow) any { return f.QuotedRateHr }},
		{"billable_rate_hr", func(f ledger.FactRow) any { return f.BillableRateHr }},
		{"cost_rate_hr", func(f ledger.FactRow) any { return f.CostRateHr }},
		{"expected_rate_hr", func(f ledger.FactRow) any { return f.ExpectedRateHr }},
		{"effective_rate_hr", func(f ledger.FactRow) any { return f.EffectiveRateHr }},
		{"expected_quote", func(f ledger.FactRow) any { return f.ExpectedQuote }},
		{"quote_gap", func(f ledger.FactRow) any { return f.QuoteGap }},
		{"quote_gap_pct", func(f ledger.FactRow) any { return f.QuoteGapPct }},
		{"margin", func(f ledger.FactRow) any { return f.Margin }},
		{"margin_pct", func(f ledger.FactRow) any { return f.MarginPct }},
		{"actual_margin", func(f ledger.FactRow) any { return f.ActualMargin }},
		{"actual_margin_pct", func(f ledger.FactRow) any { return f.ActualMarginPct }},
		{"margin_variance", func(f ledger.FactRow) any { return f.MarginVariance }},
		{"gross_profit", func(f ledger.FactRow) any { return f.GrossProfit }},
		{"gross_margin_pct", func(f ledger.FactRow) any { return f.GrossMarginPct }},
		{"hours_variance", func(f ledger.FactRow) any { return f.HoursVariance }},
		{"hours_variance_pct", func(f ledger.FactRow) any { return f.HoursVariancePct }},
		{"is_unallocated_row", func(f ledger.FactRow) any { return f.IsUnallocatedRow }},
		{"is_unquoted_task", func(f ledger.FactRow) any { return f.IsUnquotedTask }},
		{"is_quote_only_task", func(f ledger.FactRow) any { return f.IsQuoteOnlyTask }},
		{"is_unworked_task", func(f ledger.FactRow) any { return f.IsUnworkedTask }},
		{"is_overrun", func(f ledger.FactRow) any { return f.IsOverrun }},
		{"is_loss", func(f ledger.FactRow) any { return f.IsLoss }},
		{"is_underquoted", func(f ledger.FactRow) any { return f.IsUnderquoted }},
		{"missing_base_rate_flag", func(f ledger.FactRow) any { return f.MissingBaseRateFlag }},
		{"had_negative_hours_flag", func(f ledger.FactRow) any { return f.HadNegativeHoursFlag }},
	}...)
}

// FactTable lays out the fact rows in published column order.
func FactTable(facts []ledger.FactRow) Table {
	return buildTable(factColumns(), facts)
}

func RevenueTable(records []ledger.RevenueRecord) Table {
	return buildTable([]column[ledger.RevenueRecord]{
		{"job_no", func(r ledger.RevenueRecord) any { return r.JobNo }},
		{"month_key", func(r ledger.RevenueRecord) any { return timeutil.MonthKey(r.Month) }},
		{"revenue_monthly", func(r ledger.RevenueRecord) any { return r.RevenueMonthly }},
		{"source_rows", func(r ledger.RevenueRecord) any { return r.SourceRows }},
		{"source", func(r ledger.RevenueRecord) any { return r.Meta.Source }},
		{"account_manager", func(r ledger.RevenueRecord) any { return r.Meta.AccountManager }},
		{"client", func(r ledger.RevenueRecord) any { return r.Meta.Client }},
		{"industry", func(r ledger.RevenueRecord) any { return r.Meta.Industry }},
		{"category", func(r ledger.RevenueRecord) any { return r.Meta.Category }},
		{"department", func(r ledger.RevenueRecord) any { return r.Meta.Department }},
		{"client_group", func(r ledger.RevenueRecord) any { return r.Meta.ClientGroup }},
		{"fy", func(r ledger.RevenueRecord) any { return r.Meta.FY }},
	}, records)
}

func TimesheetTable(aggregates []ledger.TimesheetAggregate) Table {
	cols := []column[ledger.TimesheetAggregate]{
		{"job_no", func(a ledger.TimesheetAggregate) any { return a.JobNo }},
		{"task_name", func(a ledger.TimesheetAggregate) any { return a.TaskName }},
		{"task_name_raw", func(a ledger.TimesheetAggregate) any { return a.TaskNameRaw }},
		{"month_key", func(a ledger.TimesheetAggregate) any { return timeutil.MonthKey(a.Month) }},
		{"total_hours", func(a ledger.TimesheetAggregate) any { return a.TotalHours }},
		{"total_cost", func(a ledger.TimesheetAggregate) any { return a.TotalCost }},
		{"billable_amount", func(a ledger.TimesheetAggregate) any { return a.BillableAmount }},
		{"billable_hours", func(a ledger.TimesheetAggregate) any { return a.BillableHours }},
		{"onshore_hours", func(a ledger.TimesheetAggregate) any { return a.OnshoreHours }},
		{"distinct_staff_count", func(a ledger.TimesheetAggregate) any { return a.DistinctStaffCount }},
		{"avg_base_rate", func(a ledger.TimesheetAggregate) any { return a.AvgBaseRate }},
		{"avg_billable_rate", func(a ledger.TimesheetAggregate) any { return a.AvgBillableRate }},
		{"department_actual", func(a ledger.TimesheetAggregate) any { return a.DepartmentActual }},
		{"mixed_department", func(a ledger.TimesheetAggregate) any { return a.MixedDepartment }},
		{"department_runner_up", func(a ledger.TimesheetAggregate) any { return a.DepartmentRunnerUp }},
		{"department_runner_up_share", func(a ledger.TimesheetAggregate) any { return a.DepartmentRunnerUpShare }},
	}
	for _, name := range ledger.DimensionNames {
		if name == ledger.DimDepartment {
			continue
		}
		cols = append(cols, column[ledger.TimesheetAggregate]{
			name:  name,
			value: func(a ledger.TimesheetAggregate) any { return a.Dimensions[name] },
		})
	}
	for _, name := range ledger.DimensionNames {
		cols = append(cols, column[ledger.TimesheetAggregate]{
			name:  ledger.MixedFlagName(name),
			value: func(a ledger.TimesheetAggregate) any { return a.MixedDimensions[name] },
		})
	}
	cols = append(cols,
		column[ledger.TimesheetAggregate]{"missing_base_rate_flag", func(a ledger.TimesheetAggregate) any { return a.MissingBaseRateFlag }},
		column[ledger.TimesheetAggregate]{"had_negative_hours_flag", func(a ledger.TimesheetAggregate) any { return a.HadNegativeHoursFlag }},
	)
	return buildTable(cols, aggregates)
}

func QuoteTable(quotes []ledger.QuotationAggregate) Table {
	return buildTable([]column[ledger.QuotationAggregate]{
		{"job_no", func(q ledger.QuotationAggregate) any { return q.JobNo }},
		{"task_name", func(q ledger.QuotationAggregate) any { return q.TaskName }},
		{"task_name_raw", func(q ledger.QuotationAggregate) any { return q.TaskNameRaw }},
		{"quoted_time", func(q ledger.QuotationAggregate) any { return q.QuotedTime }},
		{"quoted_amount", func(q ledger.QuotationAggregate) any { return q.QuotedAmount }},
		{"invoiced_time", func(q ledger.QuotationAggregate) any { return q.InvoicedTime }},
		{"invoiced_amount", func(q ledger.QuotationAggregate) any { return q.InvoicedAmount }},
		{"department_quote", func(q ledger.QuotationAggregate) any { return q.DepartmentQuote }},
		{"quote_mixed_department", func(q ledger.QuotationAggregate) any { return q.QuoteMixedDepartment }},
		{"client", func(q ledger.QuotationAggregate) any { return q.Client }},
		{"job_name", func(q ledger.QuotationAggregate) any { return q.JobName }},
		{"job_category", func(q ledger.QuotationAggregate) any { return q.JobCategory }},
		{"job_status", func(q ledger.QuotationAggregate) any { return q.JobStatus }},
		{"job_start_date", func(q ledger.QuotationAggregate) any { return q.JobStartDate }},
		{"job_completed_date", func(q ledger.QuotationAggregate) any { return q.JobCompletedDate }},
		{"product", func(q ledger.QuotationAggregate) any { return q.Product }},
	}, quotes)
}
