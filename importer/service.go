package importer

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"jobprofit/ledger"
)

const (
	DefaultRevenueSheet   = "Monthly Revenue"
	DefaultTimesheetSheet = "Timesheet Data"
	DefaultQuotationSheet = "Quotation Data"
)

type Sheets struct {
	Revenue   string
	Timesheet string
	Quotation string
}

// Source names where the three ledgers live: either one workbook with a
// sheet per ledger, or one file per ledger. Per-ledger files win over the
// workbook.
type Source struct {
	Workbook      string
	Sheets        Sheets
	RevenueFile   string
	TimesheetFile string
	QuotationFile string
	// Format overrides extension-based detection for every file.
	Format string
}

type Result struct {
	FilesProcessed int
	RowsRead       int
	Revenue        []ledger.RevenueRow
	Timesheet      []ledger.TimesheetRow
	Quotation      []ledger.QuotationRow
}

// Run reads and maps all three ledgers. Missing columns across every ledger
// are reported together.
func Run(source Source) (*Result, error) {
	sheets := source.Sheets.withDefaults()
	tables, files, err := readTables(source, sheets)
	if err != nil {
		return nil, err
	}

	result := &Result{FilesProcessed: files}
	var mapErr error

	revenue, err := MapRevenue(tables[sheets.Revenue])
	mapErr = multierr.Append(mapErr, err)
	timesheet, err := MapTimesheet(tables[sheets.Timesheet])
	mapErr = multierr.Append(mapErr, err)
	quotation, err := MapQuotation(tables[sheets.Quotation])
	mapErr = multierr.Append(mapErr, err)
	if mapErr != nil {
		return nil, mapErr
	}

	result.Revenue = revenue
	result.Timesheet = timesheet
	result.Quotation = quotation
	result.RowsRead = len(revenue) + len(timesheet) + len(quotation)
	return result, nil
}

func (s Sheets) withDefaults() Sheets {
	if strings.TrimSpace(s.Revenue) == "" {
		s.Revenue = DefaultRevenueSheet
	}
	if strings.TrimSpace(s.Timesheet) == "" {
		s.Timesheet = DefaultTimesheetSheet
	}
	if strings.TrimSpace(s.Quotation) == "" {
		s.Quotation = DefaultQuotationSheet
	}
	return s
}

// readTables returns the three tables keyed by sheet name and the number of
// distinct files opened.
func readTables(source Source, sheets Sheets) (map[string]*Table, int, error) {
	tables := make(map[string]*Table, 3)
	files := make(map[string]struct{}, 3)

	pending := make([]string, 0, 3)
	for _, item := range []struct {
		sheet string
		path  string
	}{
		{sheet: sheets.Revenue, path: source.RevenueFile},
		{sheet: sheets.Timesheet, path: source.TimesheetFile},
		{sheet: sheets.Quotation, path: source.QuotationFile},
	} {
		if strings.TrimSpace(item.path) == "" {
			pending = append(pending, item.sheet)
			continue
		}
		table, err := readFile(item.path, source.Format, "")
		if err != nil {
			return nil, 0, err
		}
		table.Name = item.sheet
		tables[item.sheet] = table
		files[item.path] = struct{}{}
	}

	if len(pending) == 0 {
		return tables, len(files), nil
	}
	if strings.TrimSpace(source.Workbook) == "" {
		return nil, 0, fmt.Errorf("no workbook configured for sheets: %s", strings.Join(pending, ", "))
	}

	format, err := inferFormat(source.Workbook, source.Format)
	if err != nil {
		return nil, 0, err
	}
	reader, err := ReaderForFormat(format, "")
	if err != nil {
		return nil, 0, err
	}
	excel, ok := reader.(*ExcelReader)
	if !ok {
		return nil, 0, fmt.Errorf("workbook %s must be an excel file", source.Workbook)
	}

	fromWorkbook, err := excel.ReadSheets(source.Workbook, pending...)
	if err != nil {
		return nil, 0, err
	}
	for sheet, table := range fromWorkbook {
		tables[sheet] = table
	}
	files[source.Workbook] = struct{}{}
	return tables, len(files), nil
}

func readFile(path, format, sheet string) (*Table, error) {
	sourceFormat, err := inferFormat(path, format)
	if err != nil {
		return nil, err
	}
	reader, err := ReaderForFormat(sourceFormat, sheet)
	if err != nil {
		return nil, err
	}
	return reader.Read(path)
}
