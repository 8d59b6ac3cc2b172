// Package aggregate collapses raw ledger rows into one record per reporting
// key. Aggregators never fail on a bad row: they coerce, clip and count.
package aggregate

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"jobprofit/internal/coerce"
	"jobprofit/internal/keys"
	"jobprofit/internal/mode"
	"jobprofit/ledger"
)

// DefaultExclusionValues are the tokens that mark a billing row as excluded.
var DefaultExclusionValues = []string{"Y", "YES", "TRUE", "1"}

// RevenueOptions configures Revenue.
type RevenueOptions struct {
	// ExclusionValues are matched case-insensitively against the Excluded
	// column. Nil falls back to DefaultExclusionValues.
	ExclusionValues []string
}

// RevenueStats counts the billing rows read and the defects tallied.
type RevenueStats struct {
	RowsRead           int `json:"rows_read" yaml:"rows_read"`
	ExcludedRows       int `json:"excluded_rows" yaml:"excluded_rows"`
	UnparseableAmounts int `json:"unparseable_amounts" yaml:"unparseable_amounts"`
	NullKeyRows        int `json:"null_key_rows" yaml:"null_key_rows"`
}

type monthKey struct {
	jobNo string
	month time.Time
}

type revenueGroup struct {
	key    monthKey
	amount decimal.Decimal
	rows   int

	source         mode.Reducer
	accountManager mode.Reducer
	client         mode.Reducer
	industry       mode.Reducer
	category       mode.Reducer
	department     mode.Reducer
	clientGroup    mode.Reducer
	fy             mode.Reducer
}

// Revenue returns one record per (job, month), sorted by job then month.
// Rows whose job or month cannot be parsed are kept under the empty job or
// zero month.
func Revenue(rows []ledger.RevenueRow, opts RevenueOptions) ([]ledger.RevenueRecord, RevenueStats) {
	exclusions := opts.ExclusionValues
	if exclusions == nil {
		exclusions = DefaultExclusionValues
	}

	stats := RevenueStats{}
	groups := make(map[monthKey]*revenueGroup)
	for _, row := range rows {
		stats.RowsRead++
		if coerce.Truthy(row.Excluded, exclusions) {
			stats.ExcludedRows++
			continue
		}

		jobNo := keys.JobNo(row.JobNo)
		month, ok := keys.Month(row.Month)
		if jobNo == "" || !ok {
			stats.NullKeyRows++
		}

		amount, ok := coerce.Decimal(row.Amount)
		if !ok {
			stats.UnparseableAmounts++
		}

		key := monthKey{jobNo: jobNo, month: month}
		group, exists := groups[key]
		if !exists {
			group = &revenueGroup{key: key}
			groups[key] = group
		}
		group.amount = group.amount.Add(amount)
		group.rows++
		group.source.Count(row.Meta.Source)
		group.accountManager.Count(row.Meta.AccountManager)
		group.client.Count(row.Meta.Client)
		group.industry.Count(row.Meta.Industry)
		group.category.Count(row.Meta.Category)
		group.department.Count(keys.Department(row.Meta.Department))
		group.clientGroup.Count(row.Meta.ClientGroup)
		group.fy.Count(row.Meta.FY)
	}

	records := make([]ledger.RevenueRecord, 0, len(groups))
	for _, group := range groups {
		records = append(records, ledger.RevenueRecord{
			JobNo:          group.key.jobNo,
			Month:          group.key.month,
			RevenueMonthly: group.amount,
			SourceRows:     group.rows,
			Meta: ledger.RevenueMeta{
				Source:         group.source.Top(),
				AccountManager: group.accountManager.Top(),
				Client:         group.client.Top(),
				Industry:       group.industry.Top(),
				Category:       group.category.Top(),
				Department:     group.department.Top(),
				ClientGroup:    group.clientGroup.Top(),
				FY:             group.fy.Top(),
			},
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return lessJobMonth(records[i].JobNo, records[i].Month, records[j].JobNo, records[j].Month)
	})
	return records, stats
}

func lessJobMonth(jobA string, monthA time.Time, jobB string, monthB time.Time) bool {
	if jobA != jobB {
		return jobA < jobB
	}
	return monthA.Before(monthB)
}

func lessJobTaskMonth(jobA, taskA string, monthA time.Time, jobB, taskB string, monthB time.Time) bool {
	if jobA != jobB {
		return jobA < jobB
	}
	if taskA != taskB {
		return taskA < taskB
	}
	return monthA.Before(monthB)
}
