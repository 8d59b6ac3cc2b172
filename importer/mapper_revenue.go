package importer

import "jobprofit/ledger"

var revenueColumns = struct {
	jobNo, month, amount, excluded                   column
	source, accountManager, client, industry         column
	category, department, clientGroup, financialYear column
}{
	jobNo:          required("Job Number", "Job No", "Job No.", "job_no"),
	month:          required("Month", "Month Key", "month_key"),
	amount:         required("Amount", "Revenue", "revenue_monthly"),
	excluded:       optional("Excluded", "Exclude"),
	source:         optional("Source"),
	accountManager: optional("Account Manager"),
	client:         optional("Client"),
	industry:       optional("Industry"),
	category:       optional("Category"),
	department:     optional("Department"),
	clientGroup:    optional("Client Group"),
	financialYear:  optional("FY", "Financial Year"),
}

// MapRevenue maps the billing sheet to revenue rows.
func MapRevenue(table *Table) ([]ledger.RevenueRow, error) {
	c := revenueColumns
	if err := checkColumns(table, c.jobNo, c.month, c.amount); err != nil {
		return nil, err
	}

	rows := make([]ledger.RevenueRow, 0, len(table.Records))
	for _, record := range table.Records {
		rows = append(rows, ledger.RevenueRow{
			RowNumber: record.RowNumber,
			JobNo:     c.jobNo.get(record),
			Month:     c.month.get(record),
			Amount:    c.amount.get(record),
			Excluded:  c.excluded.get(record),
			Meta: ledger.RevenueMeta{
				Source:         c.source.get(record),
				AccountManager: c.accountManager.get(record),
				Client:         c.client.get(record),
				Industry:       c.industry.get(record),
				Category:       c.category.get(record),
				Department:     c.department.get(record),
				ClientGroup:    c.clientGroup.get(record),
				FY:             c.financialYear.get(record),
			},
		})
	}
	return rows, nil
}
