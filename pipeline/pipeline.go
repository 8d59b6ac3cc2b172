// Package pipeline runs the stages that turn the three raw ledgers into the
// fact table and its QA report.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobprofit/aggregate"
	"jobprofit/allocate"
	"jobprofit/fact"
	"jobprofit/internal/keys"
	"jobprofit/ledger"
	"jobprofit/reconcile"
)

type Inputs struct {
	Revenue   []ledger.RevenueRow
	Timesheet []ledger.TimesheetRow
	Quotation []ledger.QuotationRow
}

// Options carries every setting a build depends on. Zero values fall back to
// each stage's defaults.
type Options struct {
	TaskMap keys.TaskMap

	ExclusionValues []string
	BillableValues  []string
	OnshoreValues   []string

	UnallocatedTaskName string
	RevenueTolerance    float64

	// MonthStart and MonthEnd bound the revenue months kept for allocation,
	// inclusive. A zero bound is open. AllHistory disables the window.
	MonthStart           time.Time
	MonthEnd             time.Time
	AllHistory           bool
	FiscalYearStartMonth time.Month

	SuggestionLimit int
	TopN            int
	Workers         int
}

type Result struct {
	Revenue   []ledger.RevenueRecord
	Timesheet []ledger.TimesheetAggregate
	Quotation []ledger.QuotationAggregate
	Allocated []ledger.AllocatedRow
	Facts     []ledger.FactRow
	Report    *reconcile.Report

	// RevenueOutsideWindow counts revenue records dropped by the month window.
	RevenueOutsideWindow int
}

// Build runs every stage in order. It fails only on a cancelled context or a
// broken stage invariant; data defects end up in the report.
func Build(ctx context.Context, in Inputs, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	revenue, revenueStats := aggregate.Revenue(in.Revenue, aggregate.RevenueOptions{
		ExclusionValues: opts.ExclusionValues,
	})
	logger.Info("revenue aggregated",
		zap.Int("rows", revenueStats.RowsRead),
		zap.Int("records", len(revenue)),
		zap.Int("excluded", revenueStats.ExcludedRows),
	)
	if revenueStats.UnparseableAmounts > 0 || revenueStats.NullKeyRows > 0 {
		logger.Warn("revenue rows with defects",
			zap.Int("unparseable_amounts", revenueStats.UnparseableAmounts),
			zap.Int("null_key_rows", revenueStats.NullKeyRows),
		)
	}

	timesheet, timesheetStats, err := aggregate.Timesheet(ctx, in.Timesheet, aggregate.TimesheetOptions{
		TaskMap:        opts.TaskMap,
		BillableValues: opts.BillableValues,
		OnshoreValues:  opts.OnshoreValues,
		Workers:        opts.Workers,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregate timesheet: %w", err)
	}
	logger.Info("timesheet aggregated",
		zap.Int("rows", timesheetStats.RowsRead),
		zap.Int("groups", len(timesheet)),
	)
	if timesheetStats.NegativeHoursRows > 0 || timesheetStats.MissingBaseRateRows > 0 || timesheetStats.UnparseableHours > 0 {
		logger.Warn("timesheet rows with defects",
			zap.Int("negative_hours_rows", timesheetStats.NegativeHoursRows),
			zap.Int("missing_base_rate_rows", timesheetStats.MissingBaseRateRows),
			zap.Int("unparseable_hours", timesheetStats.UnparseableHours),
			zap.Int("null_key_rows", timesheetStats.NullKeyRows),
		)
	}

	quotes, quoteStats := aggregate.Quotation(in.Quotation, aggregate.QuotationOptions{TaskMap: opts.TaskMap})
	logger.Info("quotation aggregated",
		zap.Int("rows", quoteStats.RowsRead),
		zap.Int("tasks", len(quotes)),
	)

	windowed := revenue
	if !opts.AllHistory {
		windowed = filterMonths(revenue, opts.MonthStart, opts.MonthEnd)
	}
	if dropped := len(revenue) - len(windowed); dropped > 0 {
		logger.Info("revenue outside month window", zap.Int("records", dropped))
	}

	allocated, err := allocate.Allocate(timesheet, windowed, allocate.Options{
		UnallocatedTaskName: opts.UnallocatedTaskName,
	})
	if err != nil {
		return nil, fmt.Errorf("allocate revenue: %w", err)
	}
	logger.Info("revenue allocated", zap.Int("rows", len(allocated)))

	facts, err := fact.Build(allocated, quotes, fact.Options{
		FiscalYearStartMonth: opts.FiscalYearStartMonth,
	})
	if err != nil {
		return nil, fmt.Errorf("build facts: %w", err)
	}
	logger.Info("fact table built", zap.Int("rows", len(facts)))

	report := reconcile.Run(facts, windowed, timesheet, quotes, reconcile.Options{
		Tolerance:       opts.RevenueTolerance,
		SuggestionLimit: opts.SuggestionLimit,
		TopN:            opts.TopN,
		Inputs: reconcile.InputStats{
			Revenue:   revenueStats,
			Timesheet: timesheetStats,
			Quotation: quoteStats,
		},
	})
	logger.Info("qa report built",
		zap.Bool("allocation_ok", report.AllocationOK),
		zap.Float64("allocation_max_delta", report.AllocationMaxDelta),
		zap.Bool("unique_keys_ok", report.UniqueKeysOK),
		zap.Int("unmatched_timesheet_tasks", report.UnmatchedTimesheetTasks),
	)

	return &Result{
		Revenue:              windowed,
		Timesheet:            timesheet,
		Quotation:            quotes,
		Allocated:            allocated,
		Facts:                facts,
		Report:               report,
		RevenueOutsideWindow: len(revenue) - len(windowed),
	}, nil
}

// filterMonths keeps records whose month lies in [start, end]. Records with
// a null month are kept so the QA checks still see them.
func filterMonths(records []ledger.RevenueRecord, start, end time.Time) []ledger.RevenueRecord {
	if start.IsZero() && end.IsZero() {
		return records
	}
	out := make([]ledger.RevenueRecord, 0, len(records))
	for _, record := range records {
		if !record.Month.IsZero() {
			if !start.IsZero() && record.Month.Before(start) {
				continue
			}
			if !end.IsZero() && record.Month.After(end) {
				continue
			}
		}
		out = append(out, record)
	}
	return out
}
