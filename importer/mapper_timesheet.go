package importer

import "jobprofit/ledger"

var timesheetColumns = struct {
	jobNo, taskName, month, hours column
	baseRate, billableRate        column
	billable, onshore, staffName  column
	dimensions                    map[string]column
}{
	jobNo:        required("[Job] Job No.", "Job No", "Job Number", "job_no"),
	taskName:     required("[Job Task] Name", "Task Name", "task_name"),
	month:        required("Month Key", "Month", "[Time] Date", "Date", "month_key"),
	hours:        required("[Time] Time", "Hours", "Time"),
	baseRate:     optional("[Task] Base Rate", "Base Rate"),
	billableRate: optional("[Task] Billable Rate", "Billable Rate"),
	billable:     optional("Billable?", "Billable"),
	onshore:      optional("Onshore"),
	staffName:    optional("[Staff] Name", "Staff Name", "Staff"),
	dimensions: map[string]column{
		ledger.DimDepartment:  optional("Department", "[Staff] Department"),
		ledger.DimFunction:    optional("Function"),
		ledger.DimCategory:    optional("[Category] Category", "Category"),
		ledger.DimRole:        optional("Role", "[Staff] Role"),
		ledger.DimTask:        optional("Task"),
		ledger.DimDeliverable: optional("Deliverable"),
	},
}

// MapTimesheet maps the time entry sheet to timesheet rows.
func MapTimesheet(table *Table) ([]ledger.TimesheetRow, error) {
	c := timesheetColumns
	if err := checkColumns(table, c.jobNo, c.taskName, c.month, c.hours); err != nil {
		return nil, err
	}

	rows := make([]ledger.TimesheetRow, 0, len(table.Records))
	for _, record := range table.Records {
		dimensions := make(map[string]string, len(ledger.DimensionNames))
		for _, name := range ledger.DimensionNames {
			dimensions[name] = c.dimensions[name].get(record)
		}

		rows = append(rows, ledger.TimesheetRow{
			RowNumber:    record.RowNumber,
			JobNo:        c.jobNo.get(record),
			TaskName:     c.taskName.get(record),
			Month:        c.month.get(record),
			Hours:        c.hours.get(record),
			BaseRate:     c.baseRate.get(record),
			BillableRate: c.billableRate.get(record),
			Billable:     c.billable.get(record),
			Onshore:      c.onshore.get(record),
			StaffName:    c.staffName.get(record),
			Dimensions:   dimensions,
		})
	}
	return rows, nil
}
