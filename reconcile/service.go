// Package reconcile checks a built fact table against the aggregates it was
// built from. It never fails on bad data; every defect becomes a metric.
package reconcile

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/agext/levenshtein"
	"github.com/shopspring/decimal"

	"jobprofit/internal/classify"
	"jobprofit/internal/timeutil"
	"jobprofit/ledger"
)

const (
	DefaultTolerance       = 0.01
	DefaultSuggestionLimit = 10
	DefaultTopN            = 20
)

type Options struct {
	Tolerance       float64
	SuggestionLimit int
	TopN            int
	Inputs          InputStats
}

type jobMonth struct {
	jobNo string
	month time.Time
}

type jobTask struct {
	jobNo    string
	taskName string
}

// Run builds the QA report for one build.
func Run(
	facts []ledger.FactRow,
	revenue []ledger.RevenueRecord,
	timesheet []ledger.TimesheetAggregate,
	quotes []ledger.QuotationAggregate,
	opts Options,
) *Report {
	if opts.Tolerance < 0 {
		opts.Tolerance = DefaultTolerance
	}
	if opts.SuggestionLimit <= 0 {
		opts.SuggestionLimit = DefaultSuggestionLimit
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	report := &Report{
		RevenueTolerance: opts.Tolerance,
		Inputs:           opts.Inputs,
	}
	checkAllocation(report, facts, revenue, opts)
	checkUniqueKeys(report, facts)
	countTimesheetDefects(report, timesheet)
	matchTasks(report, timesheet, quotes, opts.SuggestionLimit)
	diagnoseDepartments(report, facts, opts.TopN)
	return report
}

func checkAllocation(report *Report, facts []ledger.FactRow, revenue []ledger.RevenueRecord, opts Options) {
	expected := make(map[jobMonth]decimal.Decimal, len(revenue))
	for _, record := range revenue {
		key := jobMonth{jobNo: record.JobNo, month: record.Month}
		expected[key] = expected[key].Add(record.RevenueMonthly)
	}
	allocated := make(map[jobMonth]decimal.Decimal)
	for _, f := range facts {
		key := jobMonth{jobNo: f.JobNo, month: f.Month}
		allocated[key] = allocated[key].Add(f.RevenueAllocated)
	}

	groups := make(map[jobMonth]struct{}, len(expected)+len(allocated))
	for key := range expected {
		groups[key] = struct{}{}
	}
	for key := range allocated {
		groups[key] = struct{}{}
	}

	tolerance := decimal.NewFromFloat(opts.Tolerance)
	maxDelta := decimal.Zero
	violations := make([]AllocationDelta, 0)
	for key := range groups {
		delta := expected[key].Sub(allocated[key]).Abs()
		if delta.GreaterThan(maxDelta) {
			maxDelta = delta
		}
		if delta.GreaterThan(tolerance) {
			violations = append(violations, AllocationDelta{
				JobNo:            key.jobNo,
				Month:            timeutil.MonthKey(key.month),
				RevenueMonthly:   expected[key].InexactFloat64(),
				RevenueAllocated: allocated[key].InexactFloat64(),
				Delta:            delta.InexactFloat64(),
			})
		}
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].Delta != violations[j].Delta {
			return violations[i].Delta > violations[j].Delta
		}
		if violations[i].JobNo != violations[j].JobNo {
			return violations[i].JobNo < violations[j].JobNo
		}
		return violations[i].Month < violations[j].Month
	})

	report.AllocationGroupsChecked = len(groups)
	report.AllocationOK = len(violations) == 0
	report.AllocationMaxDelta = maxDelta.InexactFloat64()
	report.AllocationViolations = limit(violations, opts.TopN)
}

func checkUniqueKeys(report *Report, facts []ledger.FactRow) {
	counts := make(map[ledger.FactKey]int, len(facts))
	for _, f := range facts {
		counts[f.Key()]++
	}

	duplicates := make([]KeyRef, 0)
	for key, count := range counts {
		if count > 1 {
			duplicates = append(duplicates, KeyRef{
				JobNo:    key.JobNo,
				TaskName: key.TaskName,
				Month:    timeutil.MonthKey(key.Month),
			})
		}
	}
	sort.Slice(duplicates, func(i, j int) bool {
		a, b := duplicates[i], duplicates[j]
		if a.JobNo != b.JobNo {
			return a.JobNo < b.JobNo
		}
		if a.TaskName != b.TaskName {
			return a.TaskName < b.TaskName
		}
		return a.Month < b.Month
	})

	report.UniqueKeysOK = len(duplicates) == 0
	report.DuplicateKeys = duplicates
}

func countTimesheetDefects(report *Report, timesheet []ledger.TimesheetAggregate) {
	report.MixedDimensionCounts = make(map[string]int, len(ledger.DimensionNames))
	for _, name := range ledger.DimensionNames {
		report.MixedDimensionCounts[ledger.MixedFlagName(name)] = 0
	}

	for _, agg := range timesheet {
		if agg.MissingBaseRateFlag {
			report.MissingBaseRateGroups++
		}
		if agg.HadNegativeHoursFlag {
			report.NegativeHoursGroups++
		}
		for _, name := range ledger.DimensionNames {
			if agg.MixedDimensions[name] {
				report.MixedDimensionCounts[ledger.MixedFlagName(name)]++
			}
		}
	}
}

// matchTasks lists timesheet (job, task) pairs with no quotation and suggests
// the closest quoted task name. Candidates from the same job are preferred;
// a job with no quoted tasks is matched against every quoted task.
func matchTasks(report *Report, timesheet []ledger.TimesheetAggregate, quotes []ledger.QuotationAggregate, suggestionLimit int) {
	quoted := make(map[jobTask]struct{}, len(quotes))
	quotedByJob := make(map[string][]string)
	allQuoted := make([]string, 0, len(quotes))
	seenName := make(map[string]struct{})
	for _, quote := range quotes {
		quoted[jobTask{jobNo: quote.JobNo, taskName: quote.TaskName}] = struct{}{}
		if quote.TaskName == "" {
			continue
		}
		quotedByJob[quote.JobNo] = append(quotedByJob[quote.JobNo], quote.TaskName)
		if _, ok := seenName[quote.TaskName]; !ok {
			seenName[quote.TaskName] = struct{}{}
			allQuoted = append(allQuoted, quote.TaskName)
		}
	}
	sort.Strings(allQuoted)

	unmatchedSet := make(map[jobTask]struct{})
	for _, agg := range timesheet {
		key := jobTask{jobNo: agg.JobNo, taskName: agg.TaskName}
		if _, ok := quoted[key]; ok {
			continue
		}
		unmatchedSet[key] = struct{}{}
	}
	unmatched := make([]jobTask, 0, len(unmatchedSet))
	for key := range unmatchedSet {
		unmatched = append(unmatched, key)
	}
	sort.Slice(unmatched, func(i, j int) bool {
		if unmatched[i].jobNo != unmatched[j].jobNo {
			return unmatched[i].jobNo < unmatched[j].jobNo
		}
		return unmatched[i].taskName < unmatched[j].taskName
	})

	report.UnmatchedTimesheetTasks = len(unmatched)
	report.TaskMatchSuggestions = make([]TaskSuggestion, 0)
	for _, key := range unmatched {
		if len(report.TaskMatchSuggestions) >= suggestionLimit {
			break
		}
		if key.taskName == "" {
			continue
		}
		candidates := quotedByJob[key.jobNo]
		if len(candidates) == 0 {
			candidates = allQuoted
		}
		candidate, score, ok := bestMatch(key.taskName, candidates)
		if !ok {
			continue
		}
		report.TaskMatchSuggestions = append(report.TaskMatchSuggestions, TaskSuggestion{
			JobNo:     key.jobNo,
			Task:      key.taskName,
			Candidate: candidate,
			Score:     score,
		})
	}
}

// bestMatch returns the candidate most similar to task on a 0-100 scale.
// Ties keep the earlier candidate.
func bestMatch(task string, candidates []string) (string, float64, bool) {
	best, bestScore := "", -1.0
	needle := strings.ToLower(task)
	for _, candidate := range candidates {
		score := levenshtein.Similarity(needle, strings.ToLower(candidate), nil)
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore < 0 {
		return "", 0, false
	}
	return best, math.Round(bestScore*1000) / 10, true
}

func diagnoseDepartments(report *Report, facts []ledger.FactRow, topN int) {
	statuses := make([]ledger.DeptStatus, 0, len(facts))
	pairCounts := make(map[[2]string]int)
	hoursByTask := make(map[jobTask]float64)
	revenueByTask := make(map[jobTask]decimal.Decimal)
	mismatchByMonth := make(map[string]decimal.Decimal)
	totalByMonth := make(map[string]decimal.Decimal)

	totalHours, mixedHours := 0.0, 0.0
	for _, f := range facts {
		statuses = append(statuses, f.DeptMatchStatus)
		month := timeutil.MonthKey(f.Month)
		totalByMonth[month] = totalByMonth[month].Add(f.RevenueAllocated)
		totalHours += f.ActualHours
		if f.MixedDepartment {
			mixedHours += f.ActualHours
		}

		if f.DeptMatchStatus != ledger.DeptMismatch {
			continue
		}
		pairCounts[[2]string{f.DepartmentActual, f.DepartmentQuote}]++
		key := jobTask{jobNo: f.JobNo, taskName: f.TaskName}
		hoursByTask[key] += f.ActualHours
		revenueByTask[key] = revenueByTask[key].Add(f.RevenueAllocated)
		mismatchByMonth[month] = mismatchByMonth[month].Add(f.RevenueAllocated)
	}

	report.DeptStatusCounts = make(map[string]int, len(ledger.DeptStatuses))
	for status, count := range classify.TallyDepartments(statuses) {
		report.DeptStatusCounts[string(status)] = count
	}

	pairs := make([]DeptPairCount, 0, len(pairCounts))
	for pair, count := range pairCounts {
		pairs = append(pairs, DeptPairCount{DepartmentActual: pair[0], DepartmentQuote: pair[1], Count: count})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Count != pairs[j].Count {
			return pairs[i].Count > pairs[j].Count
		}
		if pairs[i].DepartmentActual != pairs[j].DepartmentActual {
			return pairs[i].DepartmentActual < pairs[j].DepartmentActual
		}
		return pairs[i].DepartmentQuote < pairs[j].DepartmentQuote
	})
	report.DeptMismatchCounts = limit(pairs, topN)

	byHours := make([]JobTaskHours, 0, len(hoursByTask))
	for key, hours := range hoursByTask {
		byHours = append(byHours, JobTaskHours{JobNo: key.jobNo, TaskName: key.taskName, TotalHours: hours})
	}
	sort.Slice(byHours, func(i, j int) bool {
		if byHours[i].TotalHours != byHours[j].TotalHours {
			return byHours[i].TotalHours > byHours[j].TotalHours
		}
		return lessJobTask(byHours[i].JobNo, byHours[i].TaskName, byHours[j].JobNo, byHours[j].TaskName)
	})
	report.DeptMismatchTopByHours = limit(byHours, topN)

	byRevenue := make([]JobTaskRevenue, 0, len(revenueByTask))
	for key, amount := range revenueByTask {
		byRevenue = append(byRevenue, JobTaskRevenue{JobNo: key.jobNo, TaskName: key.taskName, RevenueAllocated: amount.InexactFloat64()})
	}
	sort.Slice(byRevenue, func(i, j int) bool {
		if byRevenue[i].RevenueAllocated != byRevenue[j].RevenueAllocated {
			return byRevenue[i].RevenueAllocated > byRevenue[j].RevenueAllocated
		}
		return lessJobTask(byRevenue[i].JobNo, byRevenue[i].TaskName, byRevenue[j].JobNo, byRevenue[j].TaskName)
	})
	report.DeptMismatchTopByRevenue = limit(byRevenue, topN)

	byMonth := make([]MonthRevenueShare, 0, len(mismatchByMonth))
	for month, amount := range mismatchByMonth {
		total := totalByMonth[month]
		share := 0.0
		if !total.IsZero() {
			share = amount.Div(total).InexactFloat64()
		}
		byMonth = append(byMonth, MonthRevenueShare{
			Month:                month,
			MismatchRevenue:      amount.InexactFloat64(),
			TotalRevenue:         total.InexactFloat64(),
			MismatchRevenueShare: share,
		})
	}
	sort.Slice(byMonth, func(i, j int) bool { return byMonth[i].Month < byMonth[j].Month })
	report.DeptMismatchRevenueByMonth = byMonth

	if totalHours > 0 {
		report.MixedDepartmentShareHours = mixedHours / totalHours
	}
}

func lessJobTask(jobA, taskA, jobB, taskB string) bool {
	if jobA != jobB {
		return jobA < jobB
	}
	return taskA < taskB
}

func limit[T any](values []T, n int) []T {
	if n > 0 && len(values) > n {
		return values[:n]
	}
	return values
}
