package output

import (
	"fmt"
	"os"
	"path/filepath"

	"jobprofit/pipeline"
)

const (
	FactFileBase          = "fact_job_task_month"
	RevenueFile           = "revenue_monthly.csv"
	TimesheetFile         = "timesheet_task_month.csv"
	QuoteFile             = "quote_task.csv"
	JobMonthSummaryFile   = "job_month_summary.csv"
	JobTotalSummaryFile   = "job_total_summary.csv"
	QuoteVsActualFile     = "quote_vs_actual_summary.csv"
	ReportFileBase        = "qa_report"
	factExcelSheet        = "Facts"
	supportedFormatsUsage = "csv, excel, parquet, yaml"
)

// Formats selects the optional artifacts. CSV tables and the JSON report are
// always written.
type Formats struct {
	Excel   bool
	Parquet bool
	YAML    bool
}

func ParseFormats(values []string) (Formats, error) {
	var formats Formats
	for _, value := range values {
		switch normalizeFormat(value) {
		case "", "csv", "json":
		case "excel", "xlsx":
			formats.Excel = true
		case "parquet":
			formats.Parquet = true
		case "yaml", "yml":
			formats.YAML = true
		default:
			return Formats{}, fmt.Errorf("unsupported output format %q (supported: %s)", value, supportedFormatsUsage)
		}
	}
	return formats, nil
}

// WriteArtifacts writes every table of a build into dir and returns the
// written paths in write order.
func WriteArtifacts(dir string, formats Formats, result *pipeline.Result) ([]string, error) {
	if result == nil {
		return nil, fmt.Errorf("write artifacts: result is nil")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}

	written := make([]string, 0, 12)
	csvWriter := &CSVWriter{}
	writeTable := func(w Writer, name string, table Table) error {
		path := filepath.Join(dir, name)
		if err := w.Write(path, table); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	facts := FactTable(result.Facts)
	tables := []struct {
		name  string
		table Table
	}{
		{FactFileBase + ".csv", facts},
		{RevenueFile, RevenueTable(result.Revenue)},
		{TimesheetFile, TimesheetTable(result.Timesheet)},
		{QuoteFile, QuoteTable(result.Quotation)},
		{JobMonthSummaryFile, JobMonthSummaryTable(BuildJobMonthSummaries(result.Facts))},
		{JobTotalSummaryFile, JobTotalSummaryTable(BuildJobTotalSummaries(result.Facts))},
		{QuoteVsActualFile, QuoteVsActualSummaryTable(BuildQuoteVsActualSummaries(result.Facts))},
	}
	for _, t := range tables {
		if err := writeTable(csvWriter, t.name, t.table); err != nil {
			return written, err
		}
	}

	if formats.Excel {
		if err := writeTable(&ExcelWriter{Sheet: factExcelSheet}, FactFileBase+".xlsx", facts); err != nil {
			return written, err
		}
	}
	if formats.Parquet {
		path := filepath.Join(dir, FactFileBase+".parquet")
		if err := WriteFactsParquet(path, result.Facts); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	reportPaths := []string{filepath.Join(dir, ReportFileBase+".json")}
	if formats.YAML {
		reportPaths = append(reportPaths, filepath.Join(dir, ReportFileBase+".yaml"))
	}
	for _, path := range reportPaths {
		if err := WriteReport(path, result.Report); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	return written, nil
}
