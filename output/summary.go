package output

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"jobprofit/internal/timeutil"
	"jobprofit/ledger"
)

type JobMonthSummary struct {
	JobNo            string
	Month            time.Time
	RevenueMonthly   decimal.Decimal
	RevenueAllocated decimal.Decimal
	Cost             float64
	Hours            float64
	GrossProfit      float64
	MarginPct        float64
}

type JobTotalSummary struct {
	JobNo              string
	RevenueAllocated   decimal.Decimal
	TotalCost          float64
	TotalHours         float64
	QuotedTime         float64
	QuotedAmount       float64
	GrossProfit        float64
	MarginPct          float64
	UtilizationVsQuote float64
}

type QuoteVsActualSummary struct {
	JobNo              string
	TaskName           string
	TotalHours         float64
	QuotedTime         float64
	QuotedAmount       float64
	RevenueAllocated   decimal.Decimal
	UtilizationVsQuote float64
}

type jobMonthKey struct {
	jobNo string
	month time.Time
}

type jobTaskKey struct {
	jobNo    string
	taskName string
}

// BuildJobMonthSummaries rolls facts up to (job, month), sorted by job then
// month. Quote-only rows land in the job's null-month bucket.
func BuildJobMonthSummaries(facts []ledger.FactRow) []JobMonthSummary {
	byKey := make(map[jobMonthKey]*JobMonthSummary)
	order := make([]jobMonthKey, 0)
	for _, f := range facts {
		key := jobMonthKey{jobNo: f.JobNo, month: f.Month}
		summary, ok := byKey[key]
		if !ok {
			summary = &JobMonthSummary{JobNo: f.JobNo, Month: f.Month}
			byKey[key] = summary
			order = append(order, key)
		}
		if summary.RevenueMonthly.IsZero() {
			summary.RevenueMonthly = f.RevenueMonthly
		}
		summary.RevenueAllocated = summary.RevenueAllocated.Add(f.RevenueAllocated)
		summary.Cost += f.TotalCost
		summary.Hours += f.ActualHours
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].jobNo != order[j].jobNo {
			return order[i].jobNo < order[j].jobNo
		}
		return order[i].month.Before(order[j].month)
	})

	summaries := make([]JobMonthSummary, 0, len(order))
	for _, key := range order {
		summary := byKey[key]
		revenue := summary.RevenueAllocated.InexactFloat64()
		summary.GrossProfit = revenue - summary.Cost
		summary.MarginPct = marginPct(summary.GrossProfit, revenue)
		summaries = append(summaries, *summary)
	}
	return summaries
}

// BuildJobTotalSummaries rolls facts up to jobs. Quoted values repeat on
// every month row of a task, so they are counted once per (job, task).
func BuildJobTotalSummaries(facts []ledger.FactRow) []JobTotalSummary {
	byJob := make(map[string]*JobTotalSummary)
	quotedSeen := make(map[jobTaskKey]struct{})
	jobs := make([]string, 0)
	for _, f := range facts {
		summary, ok := byJob[f.JobNo]
		if !ok {
			summary = &JobTotalSummary{JobNo: f.JobNo}
			byJob[f.JobNo] = summary
			jobs = append(jobs, f.JobNo)
		}
		summary.RevenueAllocated = summary.RevenueAllocated.Add(f.RevenueAllocated)
		summary.TotalCost += f.TotalCost
		summary.TotalHours += f.ActualHours

		key := jobTaskKey{jobNo: f.JobNo, taskName: f.TaskName}
		if _, seen := quotedSeen[key]; !seen {
			quotedSeen[key] = struct{}{}
			summary.QuotedTime += f.QuotedHours
			summary.QuotedAmount += f.QuotedAmount
		}
	}
	sort.Strings(jobs)

	summaries := make([]JobTotalSummary, 0, len(jobs))
	for _, jobNo := range jobs {
		summary := byJob[jobNo]
		revenue := summary.RevenueAllocated.InexactFloat64()
		summary.GrossProfit = revenue - summary.TotalCost
		summary.MarginPct = marginPct(summary.GrossProfit, revenue)
		summary.UtilizationVsQuote = ratio(summary.TotalHours, summary.QuotedTime)
		summaries = append(summaries, *summary)
	}
	return summaries
}

// BuildQuoteVsActualSummaries compares worked hours with the quote per
// (job, task) across all months.
func BuildQuoteVsActualSummaries(facts []ledger.FactRow) []QuoteVsActualSummary {
	byKey := make(map[jobTaskKey]*QuoteVsActualSummary)
	order := make([]jobTaskKey, 0)
	for _, f := range facts {
		key := jobTaskKey{jobNo: f.JobNo, taskName: f.TaskName}
		summary, ok := byKey[key]
		if !ok {
			summary = &QuoteVsActualSummary{
				JobNo:        f.JobNo,
				TaskName:     f.TaskName,
				QuotedTime:   f.QuotedHours,
				QuotedAmount: f.QuotedAmount,
			}
			byKey[key] = summary
			order = append(order, key)
		}
		summary.TotalHours += f.ActualHours
		summary.RevenueAllocated = summary.RevenueAllocated.Add(f.RevenueAllocated)
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].jobNo != order[j].jobNo {
			return order[i].jobNo < order[j].jobNo
		}
		return order[i].taskName < order[j].taskName
	})

	summaries := make([]QuoteVsActualSummary, 0, len(order))
	for _, key := range order {
		summary := byKey[key]
		summary.UtilizationVsQuote = ratio(summary.TotalHours, summary.QuotedTime)
		summaries = append(summaries, *summary)
	}
	return summaries
}

func JobMonthSummaryTable(summaries []JobMonthSummary) Table {
	return buildTable([]column[JobMonthSummary]{
		{"job_no", func(s JobMonthSummary) any { return s.JobNo }},
		{"month_key", func(s JobMonthSummary) any { return timeutil.MonthKey(s.Month) }},
		{"revenue_monthly", func(s JobMonthSummary) any { return s.RevenueMonthly }},
		{"revenue_allocated", func(s JobMonthSummary) any { return s.RevenueAllocated }},
		{"cost_month", func(s JobMonthSummary) any { return s.Cost }},
		{"hours_month", func(s JobMonthSummary) any { return s.Hours }},
		{"gp_month", func(s JobMonthSummary) any { return s.GrossProfit }},
		{"margin_month_pct", func(s JobMonthSummary) any { return s.MarginPct }},
	}, summaries)
}

func JobTotalSummaryTable(summaries []JobTotalSummary) Table {
	return buildTable([]column[JobTotalSummary]{
		{"job_no", func(s JobTotalSummary) any { return s.JobNo }},
		{"revenue_allocated", func(s JobTotalSummary) any { return s.RevenueAllocated }},
		{"total_cost", func(s JobTotalSummary) any { return s.TotalCost }},
		{"total_hours", func(s JobTotalSummary) any { return s.TotalHours }},
		{"quoted_time", func(s JobTotalSummary) any { return s.QuotedTime }},
		{"quoted_amount", func(s JobTotalSummary) any { return s.QuotedAmount }},
		{"gross_profit", func(s JobTotalSummary) any { return s.GrossProfit }},
		{"margin_pct", func(s JobTotalSummary) any { return s.MarginPct }},
		{"utilization_vs_quote", func(s JobTotalSummary) any { return s.UtilizationVsQuote }},
	}, summaries)
}

func QuoteVsActualSummaryTable(summaries []QuoteVsActualSummary) Table {
	return buildTable([]column[QuoteVsActualSummary]{
		{"job_no", func(s QuoteVsActualSummary) any { return s.JobNo }},
		{"task_name", func(s QuoteVsActualSummary) any { return s.TaskName }},
		{"total_hours", func(s QuoteVsActualSummary) any { return s.TotalHours }},
		{"quoted_time", func(s QuoteVsActualSummary) any { return s.QuotedTime }},
		{"quoted_amount", func(s QuoteVsActualSummary) any { return s.QuotedAmount }},
		{"revenue_allocated", func(s QuoteVsActualSummary) any { return s.RevenueAllocated }},
		{"utilization_vs_quote", func(s QuoteVsActualSummary) any { return s.UtilizationVsQuote }},
	}, summaries)
}

func marginPct(grossProfit, revenue float64) float64 {
	if revenue == 0 {
		return 0
	}
	return 100 * grossProfit / revenue
}

func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
