package aggregate

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"jobprofit/internal/coerce"
	"jobprofit/internal/keys"
	"jobprofit/internal/mode"
	"jobprofit/ledger"
)

var (
	DefaultBillableValues = []string{"YES"}
	DefaultOnshoreValues  = []string{"1", "TRUE", "YES"}
)

// TimesheetOptions configures Timesheet. Nil value lists fall back to the
// package defaults.
type TimesheetOptions struct {
	TaskMap        keys.TaskMap
	BillableValues []string
	OnshoreValues  []string
	// Workers bounds the number of jobs aggregated concurrently. Values
	// below one run a single worker.
	Workers int
}

// TimesheetStats counts the time entries read and the defects tallied.
type TimesheetStats struct {
	RowsRead            int `json:"rows_read" yaml:"rows_read"`
	NegativeHoursRows   int `json:"negative_hours_rows" yaml:"negative_hours_rows"`
	MissingBaseRateRows int `json:"missing_base_rate_rows" yaml:"missing_base_rate_rows"`
	UnparseableHours    int `json:"unparseable_hours" yaml:"unparseable_hours"`
	NullKeyRows         int `json:"null_key_rows" yaml:"null_key_rows"`
}

// timeEntry is a timesheet row after key normalisation and coercion.
type timeEntry struct {
	taskName     string
	taskNameRaw  string
	month        time.Time
	hours        float64
	negative     bool
	baseRate     float64
	billableRate float64
	billable     bool
	onshore      bool
	staffName    string
	dimensions   map[string]string
}

type taskMonthKey struct {
	taskName string
	month    time.Time
}

type timesheetGroup struct {
	key   taskMonthKey
	jobNo string

	totalHours        float64
	totalCost         float64
	billableAmount    float64
	billableHours     float64
	onshoreHours      float64
	baseRatedHours    float64
	billableRateHours float64
	staff             map[string]struct{}

	taskNameRaw mode.Reducer
	dimensions  map[string]*mode.Reducer

	missingBaseRate bool
	hadNegative     bool
}

// Timesheet returns one aggregate per (job, task, month), sorted by job, task
// and month. Jobs are aggregated concurrently; the result does not depend on
// the worker count. The only error returned is ctx's.
func Timesheet(ctx context.Context, rows []ledger.TimesheetRow, opts TimesheetOptions) ([]ledger.TimesheetAggregate, TimesheetStats, error) {
	billableValues := opts.BillableValues
	if billableValues == nil {
		billableValues = DefaultBillableValues
	}
	onshoreValues := opts.OnshoreValues
	if onshoreValues == nil {
		onshoreValues = DefaultOnshoreValues
	}

	stats := TimesheetStats{}
	byJob := make(map[string][]timeEntry)
	for _, row := range rows {
		stats.RowsRead++

		jobNo := keys.JobNo(row.JobNo)
		rawTask := keys.TaskName(row.TaskName)
		month, ok := keys.Month(row.Month)
		if jobNo == "" || rawTask == "" || !ok {
			stats.NullKeyRows++
		}

		hours, ok := coerce.Float(row.Hours)
		if !ok {
			stats.UnparseableHours++
		}
		negative := hours < 0
		if negative {
			stats.NegativeHoursRows++
			hours = 0
		}

		baseRate, _ := coerce.Float(row.BaseRate)
		if baseRate <= 0 {
			stats.MissingBaseRateRows++
			baseRate = 0
		}
		billableRate, _ := coerce.Float(row.BillableRate)
		if billableRate < 0 {
			billableRate = 0
		}

		byJob[jobNo] = append(byJob[jobNo], timeEntry{
			taskName:     opts.TaskMap.Apply(jobNo, rawTask),
			taskNameRaw:  rawTask,
			month:        month,
			hours:        hours,
			negative:     negative,
			baseRate:     baseRate,
			billableRate: billableRate,
			billable:     coerce.Truthy(row.Billable, billableValues),
			onshore:      coerce.Truthy(row.Onshore, onshoreValues),
			staffName:    keys.TaskName(row.StaffName),
			dimensions:   row.Dimensions,
		})
	}

	jobs := make([]string, 0, len(byJob))
	for jobNo := range byJob {
		jobs = append(jobs, jobNo)
	}
	sort.Strings(jobs)

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	shards := make([][]ledger.TimesheetAggregate, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, jobNo := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			shards[i] = aggregateJob(jobNo, byJob[jobNo])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	total := 0
	for _, shard := range shards {
		total += len(shard)
	}
	aggregates := make([]ledger.TimesheetAggregate, 0, total)
	for _, shard := range shards {
		aggregates = append(aggregates, shard...)
	}
	return aggregates, stats, nil
}

func aggregateJob(jobNo string, entries []timeEntry) []ledger.TimesheetAggregate {
	groups := make(map[taskMonthKey]*timesheetGroup)
	for _, entry := range entries {
		key := taskMonthKey{taskName: entry.taskName, month: entry.month}
		group, ok := groups[key]
		if !ok {
			group = &timesheetGroup{
				key:        key,
				jobNo:      jobNo,
				staff:      make(map[string]struct{}),
				dimensions: make(map[string]*mode.Reducer, len(ledger.DimensionNames)),
			}
			for _, name := range ledger.DimensionNames {
				group.dimensions[name] = &mode.Reducer{}
			}
			groups[key] = group
		}
		group.add(entry)
	}

	out := make([]ledger.TimesheetAggregate, 0, len(groups))
	for _, group := range groups {
		out = append(out, group.result())
	}
	sort.Slice(out, func(i, j int) bool {
		return lessJobTaskMonth(out[i].JobNo, out[i].TaskName, out[i].Month, out[j].JobNo, out[j].TaskName, out[j].Month)
	})
	return out
}

func (g *timesheetGroup) add(entry timeEntry) {
	if entry.negative {
		g.hadNegative = true
	}
	if entry.baseRate <= 0 {
		g.missingBaseRate = true
	}

	g.totalHours += entry.hours
	g.totalCost += entry.hours * entry.baseRate
	g.billableAmount += entry.hours * entry.billableRate
	if entry.baseRate > 0 {
		g.baseRatedHours += entry.hours
	}
	if entry.billableRate > 0 {
		g.billableRateHours += entry.hours
	}
	if entry.billable {
		g.billableHours += entry.hours
	}
	if entry.onshore {
		g.onshoreHours += entry.hours
	}
	if entry.staffName != "" {
		g.staff[entry.staffName] = struct{}{}
	}

	g.taskNameRaw.Count(entry.taskNameRaw)
	for _, name := range ledger.DimensionNames {
		value := entry.dimensions[name]
		if name == ledger.DimDepartment {
			value = keys.Department(value)
		}
		g.dimensions[name].Add(value, entry.hours)
	}
}

func (g *timesheetGroup) result() ledger.TimesheetAggregate {
	agg := ledger.TimesheetAggregate{
		JobNo:                g.jobNo,
		TaskName:             g.key.taskName,
		TaskNameRaw:          g.taskNameRaw.Top(),
		Month:                g.key.month,
		TotalHours:           g.totalHours,
		TotalCost:            g.totalCost,
		BillableAmount:       g.billableAmount,
		BillableHours:        g.billableHours,
		OnshoreHours:         g.onshoreHours,
		DistinctStaffCount:   len(g.staff),
		AvgBaseRate:          safeDiv(g.totalCost, g.baseRatedHours),
		AvgBillableRate:      safeDiv(g.billableAmount, g.billableRateHours),
		Dimensions:           make(map[string]string, len(ledger.DimensionNames)),
		MixedDimensions:      make(map[string]bool, len(ledger.DimensionNames)),
		MissingBaseRateFlag:  g.missingBaseRate,
		HadNegativeHoursFlag: g.hadNegative,
	}
	if agg.TaskNameRaw == "" {
		agg.TaskNameRaw = g.key.taskName
	}

	for _, name := range ledger.DimensionNames {
		res := g.dimensions[name].Result()
		agg.Dimensions[name] = res.Top
		agg.MixedDimensions[name] = res.Mixed
		if name == ledger.DimDepartment {
			agg.DepartmentActual = res.Top
			agg.MixedDepartment = res.Mixed
			agg.DepartmentRunnerUp = res.RunnerUp
			agg.DepartmentRunnerUpShare = res.RunnerUpShare
		}
	}
	return agg
}

func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
