package aggregate

import (
	"sort"

	"jobprofit/internal/coerce"
	"jobprofit/internal/keys"
	"jobprofit/internal/mode"
	"jobprofit/ledger"
)

// QuotationOptions configures Quotation.
type QuotationOptions struct {
	TaskMap keys.TaskMap
}

// QuotationStats counts the quote lines read and the defects tallied.
type QuotationStats struct {
	RowsRead          int `json:"rows_read" yaml:"rows_read"`
	UnparseableValues int `json:"unparseable_values" yaml:"unparseable_values"`
	NegativeValues    int `json:"negative_values" yaml:"negative_values"`
	NullKeyRows       int `json:"null_key_rows" yaml:"null_key_rows"`
}

type taskKey struct {
	jobNo    string
	taskName string
}

type quotationGroup struct {
	key taskKey

	quotedTime     float64
	quotedAmount   float64
	invoicedTime   float64
	invoicedAmount float64

	taskNameRaw      mode.Reducer
	department       mode.Reducer
	client           mode.Reducer
	jobName          mode.Reducer
	jobCategory      mode.Reducer
	jobStatus        mode.Reducer
	jobStartDate     mode.Reducer
	jobCompletedDate mode.Reducer
	product          mode.Reducer
}

// Quotation returns one aggregate per (job, task), sorted by job then task.
// Negative quote values are clipped to zero and counted.
func Quotation(rows []ledger.QuotationRow, opts QuotationOptions) ([]ledger.QuotationAggregate, QuotationStats) {
	stats := QuotationStats{}
	groups := make(map[taskKey]*quotationGroup)

	value := func(raw string) float64 {
		parsed, ok := coerce.Float(raw)
		if !ok {
			stats.UnparseableValues++
		}
		if parsed < 0 {
			stats.NegativeValues++
			return 0
		}
		return parsed
	}

	for _, row := range rows {
		stats.RowsRead++

		jobNo := keys.JobNo(row.JobNo)
		rawTask := keys.TaskName(row.TaskName)
		if jobNo == "" || rawTask == "" {
			stats.NullKeyRows++
		}

		key := taskKey{jobNo: jobNo, taskName: opts.TaskMap.Apply(jobNo, rawTask)}
		group, ok := groups[key]
		if !ok {
			group = &quotationGroup{key: key}
			groups[key] = group
		}

		group.quotedTime += value(row.QuotedTime)
		group.quotedAmount += value(row.QuotedAmount)
		group.invoicedTime += value(row.InvoicedTime)
		group.invoicedAmount += value(row.InvoicedAmount)

		group.taskNameRaw.Count(rawTask)
		group.department.Count(keys.Department(row.Department))
		group.client.Count(row.Client)
		group.jobName.Count(row.JobName)
		group.jobCategory.Count(row.JobCategory)
		group.jobStatus.Count(row.JobStatus)
		group.jobStartDate.Count(row.JobStartDate)
		group.jobCompletedDate.Count(row.JobCompletedDate)
		group.product.Count(row.Product)
	}

	out := make([]ledger.QuotationAggregate, 0, len(groups))
	for _, group := range groups {
		department := group.department.Result()
		agg := ledger.QuotationAggregate{
			JobNo:                group.key.jobNo,
			TaskName:             group.key.taskName,
			TaskNameRaw:          group.taskNameRaw.Top(),
			QuotedTime:           group.quotedTime,
			QuotedAmount:         group.quotedAmount,
			InvoicedTime:         group.invoicedTime,
			InvoicedAmount:       group.invoicedAmount,
			DepartmentQuote:      department.Top,
			QuoteMixedDepartment: department.Mixed,
			Client:               group.client.Top(),
			JobName:              group.jobName.Top(),
			JobCategory:          group.jobCategory.Top(),
			JobStatus:            group.jobStatus.Top(),
			JobStartDate:         group.jobStartDate.Top(),
			JobCompletedDate:     group.jobCompletedDate.Top(),
			Product:              group.product.Top(),
		}
		if agg.TaskNameRaw == "" {
			agg.TaskNameRaw = agg.TaskName
		}
		out = append(out, agg)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].JobNo != out[j].JobNo {
			return out[i].JobNo < out[j].JobNo
		}
		return out[i].TaskName < out[j].TaskName
	})
	return out, stats
}
