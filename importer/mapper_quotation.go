package importer

import "jobprofit/ledger"

var quotationColumns = struct {
	jobNo, taskName                           column
	quotedTime, quotedAmount                  column
	invoicedTime, invoicedAmount              column
	department, client, jobName, jobCategory  column
	jobStatus, jobStartDate, jobCompletedDate column
	product                                   column
}{
	jobNo:            required("[Job] Job No.", "Job No", "Job Number", "job_no"),
	taskName:         required("[Job Task] Name", "Task Name", "task_name"),
	quotedTime:       optional("[Job Task] Quoted Time", "Quoted Time"),
	quotedAmount:     optional("[Job Task] Quoted Amount", "Quoted Amount"),
	invoicedTime:     optional("[Job Task] Invoiced Time", "Invoiced Time"),
	invoicedAmount:   optional("[Job Task] Invoiced Amount", "Invoiced Amount"),
	department:       optional("Department", "[Job Task] Department"),
	client:           optional("[Job] Client", "Client"),
	jobName:          optional("[Job] Name", "Job Name"),
	jobCategory:      optional("[Job] Category", "Job Category"),
	jobStatus:        optional("[Job] Status", "Job Status"),
	jobStartDate:     optional("[Job] Start Date", "Start Date"),
	jobCompletedDate: optional("[Job] Completed Date", "Completed Date"),
	product:          optional("Product", "[Job] Product"),
}

// MapQuotation maps the quote sheet to quotation rows.
func MapQuotation(table *Table) ([]ledger.QuotationRow, error) {
	c := quotationColumns
	if err := checkColumns(table, c.jobNo, c.taskName); err != nil {
		return nil, err
	}

	rows := make([]ledger.QuotationRow, 0, len(table.Records))
	for _, record := range table.Records {
		rows = append(rows, ledger.QuotationRow{
			RowNumber:        record.RowNumber,
			JobNo:            c.jobNo.get(record),
			TaskName:         c.taskName.get(record),
			QuotedTime:       c.quotedTime.get(record),
			QuotedAmount:     c.quotedAmount.get(record),
			InvoicedTime:     c.invoicedTime.get(record),
			InvoicedAmount:   c.invoicedAmount.get(record),
			Department:       c.department.get(record),
			Client:           c.client.get(record),
			JobName:          c.jobName.get(record),
			JobCategory:      c.jobCategory.get(record),
			JobStatus:        c.jobStatus.get(record),
			JobStartDate:     c.jobStartDate.get(record),
			JobCompletedDate: c.jobCompletedDate.get(record),
			Product:          c.product.get(record),
		})
	}
	return rows, nil
}
