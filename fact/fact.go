// Package fact joins allocated actuals with quotations into the published
// (job, task, month) fact table and derives its profitability metrics.
package fact

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"jobprofit/internal/classify"
	"jobprofit/internal/timeutil"
	"jobprofit/ledger"
)

// ErrDuplicateKey reports an input that holds the same key twice.
var ErrDuplicateKey = errors.New("duplicate key")

type Options struct {
	// FiscalYearStartMonth defaults to July.
	FiscalYearStartMonth time.Month
}

type quoteKey struct {
	jobNo    string
	taskName string
}

// Build outer-joins allocated rows with quotation aggregates on (job, task).
// Quotation pairs with no allocated row are synthesised as zero-activity rows
// with a null month. The result is sorted by job, task and month.
func Build(allocated []ledger.AllocatedRow, quotes []ledger.QuotationAggregate, opts Options) ([]ledger.FactRow, error) {
	startMonth := opts.FiscalYearStartMonth
	if startMonth == 0 {
		startMonth = time.July
	}

	quoteByKey := make(map[quoteKey]ledger.QuotationAggregate, len(quotes))
	for _, quote := range quotes {
		key := quoteKey{jobNo: quote.JobNo, taskName: quote.TaskName}
		if _, exists := quoteByKey[key]; exists {
			return nil, fmt.Errorf("quotation %s/%s: %w", quote.JobNo, quote.TaskName, ErrDuplicateKey)
		}
		quoteByKey[key] = quote
	}

	seen := make(map[ledger.FactKey]struct{}, len(allocated))
	worked := make(map[quoteKey]struct{}, len(allocated))
	facts := make([]ledger.FactRow, 0, len(allocated)+len(quotes))
	for _, row := range allocated {
		factKey := ledger.FactKey{JobNo: row.JobNo, TaskName: row.TaskName, Month: row.Month}
		if _, exists := seen[factKey]; exists {
			return nil, fmt.Errorf("allocated %s/%s %s: %w", row.JobNo, row.TaskName, timeutil.MonthKey(row.Month), ErrDuplicateKey)
		}
		seen[factKey] = struct{}{}

		key := quoteKey{jobNo: row.JobNo, taskName: row.TaskName}
		worked[key] = struct{}{}
		quote, quoted := quoteByKey[key]
		facts = append(facts, newFact(row, quote, quoted, startMonth))
	}

	for _, quote := range quotes {
		if _, ok := worked[quoteKey{jobNo: quote.JobNo, taskName: quote.TaskName}]; ok {
			continue
		}
		facts = append(facts, newQuoteOnlyFact(quote, startMonth))
	}

	sort.Slice(facts, func(i, j int) bool {
		a, b := facts[i], facts[j]
		if a.JobNo != b.JobNo {
			return a.JobNo < b.JobNo
		}
		if a.TaskName != b.TaskName {
			return a.TaskName < b.TaskName
		}
		return a.Month.Before(b.Month)
	})
	return facts, nil
}

func newFact(row ledger.AllocatedRow, quote ledger.QuotationAggregate, quoted bool, startMonth time.Month) ledger.FactRow {
	f := ledger.FactRow{
		JobNo:       row.JobNo,
		TaskName:    row.TaskName,
		TaskNameRaw: row.TaskNameRaw,
		Month:       row.Month,

		DepartmentActual:        row.DepartmentActual,
		MixedDepartment:         row.MixedDepartment,
		DepartmentRunnerUp:      row.DepartmentRunnerUp,
		DepartmentRunnerUpShare: row.DepartmentRunnerUpShare,
		MixedDimensions:         copyFlags(row.MixedDimensions),

		RevenueMonthly:     row.RevenueMonthly,
		RevenueAllocated:   row.RevenueAllocated,
		TaskShare:          row.TaskShare,
		TotalHoursJobMonth: row.TotalHoursJobMonth,

		ActualHours:        row.TotalHours,
		BillableHours:      row.BillableHours,
		OnshoreHours:       row.OnshoreHours,
		TotalCost:          row.TotalCost,
		BillableValue:      row.BillableAmount,
		DistinctStaffCount: row.DistinctStaffCount,
		BillableRateHr:     row.AvgBillableRate,
		CostRateHr:         row.AvgBaseRate,

		IsUnallocatedRow:     row.IsUnallocatedRow,
		IsUnquotedTask:       !quoted,
		MissingBaseRateFlag:  row.MissingBaseRateFlag,
		HadNegativeHoursFlag: row.HadNegativeHoursFlag,
	}

	presence := classify.PresenceActualOnly
	if quoted {
		presence = classify.PresenceBoth
		applyQuote(&f, quote)
	}

	f.Client = firstNonEmpty(f.Client, row.RevenueMeta.Client)
	f.Category = firstNonEmpty(f.Category, row.RevenueMeta.Category)
	f.DepartmentReporting = firstNonEmpty(f.DepartmentActual, row.RevenueMeta.Department, f.DepartmentQuote)
	f.DeptMatchStatus = classify.Department(classify.DepartmentInput{
		Presence:         presence,
		DepartmentActual: f.DepartmentActual,
		DepartmentQuote:  f.DepartmentQuote,
	})

	derive(&f, startMonth)
	return f
}

func newQuoteOnlyFact(quote ledger.QuotationAggregate, startMonth time.Month) ledger.FactRow {
	f := ledger.FactRow{
		JobNo:            quote.JobNo,
		TaskName:         quote.TaskName,
		TaskNameRaw:      quote.TaskNameRaw,
		MixedDimensions:  map[string]bool{},
		RevenueMonthly:   decimal.Zero,
		RevenueAllocated: decimal.Zero,
		IsQuoteOnlyTask:  true,
	}
	applyQuote(&f, quote)
	f.DepartmentReporting = f.DepartmentQuote
	f.DeptMatchStatus = classify.Department(classify.DepartmentInput{
		Presence:        classify.PresenceQuoteOnly,
		DepartmentQuote: f.DepartmentQuote,
	})

	derive(&f, startMonth)
	return f
}

func applyQuote(f *ledger.FactRow, quote ledger.QuotationAggregate) {
	f.QuotedHours = quote.QuotedTime
	f.QuotedAmount = quote.QuotedAmount
	f.InvoicedTime = quote.InvoicedTime
	f.InvoicedAmount = quote.InvoicedAmount
	f.DepartmentQuote = quote.DepartmentQuote
	f.QuoteMixedDepartment = quote.QuoteMixedDepartment
	f.Client = quote.Client
	f.Category = quote.JobCategory
	f.JobName = quote.JobName
	f.JobStatus = quote.JobStatus
	f.Product = quote.Product
}

// derive fills every metric that is a pure function of the row's own
// inputs. Percentages are scaled to 0-100.
func derive(f *ledger.FactRow, startMonth time.Month) {
	f.FiscalYear = timeutil.FiscalYear(f.Month, startMonth)
	f.FYLabel = timeutil.FYLabel(f.FiscalYear)
	f.FiscalMonth = timeutil.FiscalMonth(f.Month, startMonth)

	f.QuotedRateHr = ratio(f.QuotedAmount, f.QuotedHours)
	f.ExpectedRateHr = f.BillableRateHr
	if f.ExpectedRateHr <= 0 {
		f.ExpectedRateHr = f.QuotedRateHr
	}
	f.ExpectedQuote = f.QuotedHours * f.ExpectedRateHr
	f.EffectiveRateHr = ratio(f.QuotedAmount, f.ActualHours)

	f.QuoteGap = f.QuotedAmount - f.ExpectedQuote
	f.QuoteGapPct = percentOfPositive(f.QuoteGap, f.ExpectedQuote)

	f.Margin = f.QuotedAmount - f.TotalCost
	f.MarginPct = percentOfPositive(f.Margin, f.QuotedAmount)
	f.ActualMargin = f.BillableValue - f.TotalCost
	f.ActualMarginPct = percentOfPositive(f.ActualMargin, f.BillableValue)
	f.MarginVariance = f.ActualMargin - f.Margin

	revenue := f.RevenueAllocated.InexactFloat64()
	f.GrossProfit = revenue - f.TotalCost
	f.GrossMarginPct = 100 * ratio(f.GrossProfit, revenue)

	f.HoursVariance = f.ActualHours - f.QuotedHours
	switch {
	case f.QuotedHours > 0:
		f.HoursVariancePct = 100 * f.HoursVariance / f.QuotedHours
	case f.ActualHours > 0:
		f.HoursVariancePct = 100
	default:
		f.HoursVariancePct = 0
	}

	f.IsUnworkedTask = f.QuotedHours > 0 && f.ActualHours <= 0
	f.IsOverrun = f.HoursVariance > 0
	f.IsLoss = f.Margin < 0
	f.IsUnderquoted = f.QuoteGap < 0
}

func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

func percentOfPositive(numerator, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return 100 * numerator / base
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

func copyFlags(flags map[string]bool) map[string]bool {
	out := make(map[string]bool, len(flags))
	for name, value := range flags {
		out[name] = value
	}
	return out
}
