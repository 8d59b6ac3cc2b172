// Package allocate spreads each job-month's billed revenue across the tasks
// worked in that month, in proportion to hours.
package allocate

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"jobprofit/internal/timeutil"
	"jobprofit/ledger"
)

const DefaultUnallocatedTaskName = "Unallocated Revenue"

// ErrDuplicateKey reports an input that holds the same key twice. Aggregated
// inputs never do, so this is a caller bug rather than bad data.
var ErrDuplicateKey = errors.New("duplicate key")

type Options struct {
	UnallocatedTaskName string
}

type jobMonth struct {
	jobNo string
	month time.Time
}

type taskMonth struct {
	jobNo    string
	taskName string
	month    time.Time
}

// Allocate returns one row per timesheet aggregate plus one sentinel row for
// every revenue job-month that has no hours to carry it. For every revenue
// record the allocated amounts sum to RevenueMonthly exactly. Output is
// sorted by job, task and month.
func Allocate(timesheet []ledger.TimesheetAggregate, revenue []ledger.RevenueRecord, opts Options) ([]ledger.AllocatedRow, error) {
	sentinel := opts.UnallocatedTaskName
	if sentinel == "" {
		sentinel = DefaultUnallocatedTaskName
	}

	revenueByKey := make(map[jobMonth]ledger.RevenueRecord, len(revenue))
	for _, record := range revenue {
		key := jobMonth{jobNo: record.JobNo, month: record.Month}
		if _, exists := revenueByKey[key]; exists {
			return nil, fmt.Errorf("revenue %s %s: %w", record.JobNo, timeutil.MonthKey(record.Month), ErrDuplicateKey)
		}
		revenueByKey[key] = record
	}

	seen := make(map[taskMonth]struct{}, len(timesheet))
	byJobMonth := make(map[jobMonth][]ledger.TimesheetAggregate)
	for _, agg := range timesheet {
		key := taskMonth{jobNo: agg.JobNo, taskName: agg.TaskName, month: agg.Month}
		if _, exists := seen[key]; exists {
			return nil, fmt.Errorf("timesheet %s/%s %s: %w", agg.JobNo, agg.TaskName, timeutil.MonthKey(agg.Month), ErrDuplicateKey)
		}
		seen[key] = struct{}{}
		jm := jobMonth{jobNo: agg.JobNo, month: agg.Month}
		byJobMonth[jm] = append(byJobMonth[jm], agg)
	}

	out := make([]ledger.AllocatedRow, 0, len(timesheet)+len(revenue))
	for jm, aggs := range byJobMonth {
		record, hasRevenue := revenueByKey[jm]
		out = append(out, allocateJobMonth(aggs, record, hasRevenue, sentinel)...)
	}
	for jm, record := range revenueByKey {
		if _, worked := byJobMonth[jm]; worked {
			continue
		}
		out = append(out, sentinelRow(jm, record, sentinel))
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.JobNo != b.JobNo {
			return a.JobNo < b.JobNo
		}
		if a.TaskName != b.TaskName {
			return a.TaskName < b.TaskName
		}
		return a.Month.Before(b.Month)
	})
	return out, nil
}

func allocateJobMonth(aggs []ledger.TimesheetAggregate, record ledger.RevenueRecord, hasRevenue bool, sentinel string) []ledger.AllocatedRow {
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].TaskName < aggs[j].TaskName })

	total := 0.0
	for _, agg := range aggs {
		total += agg.TotalHours
	}

	rows := make([]ledger.AllocatedRow, len(aggs))
	for i, agg := range aggs {
		rows[i] = ledger.AllocatedRow{
			TimesheetAggregate: agg,
			RevenueMonthly:     record.RevenueMonthly,
			HasRevenue:         hasRevenue,
			RevenueMeta:        record.Meta,
			TotalHoursJobMonth: total,
			RevenueAllocated:   decimal.Zero,
		}
	}

	if total > 0 {
		totalDec := decimal.NewFromFloat(total)
		allocated := decimal.Zero
		largest := 0
		for i := range rows {
			hours := rows[i].TotalHours
			rows[i].TaskShare = hours / total
			rows[i].RevenueAllocated = record.RevenueMonthly.Mul(decimal.NewFromFloat(hours)).Div(totalDec)
			allocated = allocated.Add(rows[i].RevenueAllocated)
			if hours > rows[largest].TotalHours {
				largest = i
			}
		}
		residual := record.RevenueMonthly.Sub(allocated)
		rows[largest].RevenueAllocated = rows[largest].RevenueAllocated.Add(residual)
		return rows
	}

	if !hasRevenue {
		return rows
	}

	// No hours to carry the revenue: it lands on the sentinel task, reusing a
	// zero-hour row of that name when one exists.
	for i := range rows {
		if rows[i].TaskName == sentinel {
			rows[i].IsUnallocatedRow = true
			rows[i].TaskShare = 1
			rows[i].RevenueAllocated = record.RevenueMonthly
			return rows
		}
	}
	return append(rows, sentinelRow(jobMonth{jobNo: record.JobNo, month: record.Month}, record, sentinel))
}

func sentinelRow(jm jobMonth, record ledger.RevenueRecord, sentinel string) ledger.AllocatedRow {
	return ledger.AllocatedRow{
		TimesheetAggregate: ledger.TimesheetAggregate{
			JobNo:           jm.jobNo,
			TaskName:        sentinel,
			TaskNameRaw:     sentinel,
			Month:           jm.month,
			Dimensions:      map[string]string{},
			MixedDimensions: map[string]bool{},
		},
		RevenueMonthly:   record.RevenueMonthly,
		HasRevenue:       true,
		RevenueMeta:      record.Meta,
		TaskShare:        1,
		RevenueAllocated: record.RevenueMonthly,
		IsUnallocatedRow: true,
	}
}
