package output

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xuri/excelize/v2"

	"jobprofit/ledger"
	"jobprofit/pipeline"
	"jobprofit/reconcile"
)

func month(year int, m time.Month) time.Time {
	return time.Date(year, m, 1, 0, 0, 0, 0, time.UTC)
}

func sampleFacts() []ledger.FactRow {
	jan := month(2024, time.January)
	feb := month(2024, time.February)
	return []ledger.FactRow{
		{
			JobNo: "J1", TaskName: "Design", Month: jan,
			RevenueMonthly: decimal.NewFromInt(900), RevenueAllocated: decimal.NewFromInt(300),
			ActualHours: 10, TotalCost: 100, QuotedHours: 20, QuotedAmount: 2000,
		},
		{
			JobNo: "J1", TaskName: "Build", Month: jan,
			RevenueMonthly: decimal.NewFromInt(900), RevenueAllocated: decimal.NewFromInt(600),
			ActualHours: 20, TotalCost: 400, QuotedHours: 10, QuotedAmount: 1000,
		},
		{
			JobNo: "J1", TaskName: "Design", Month: feb,
			RevenueMonthly: decimal.NewFromInt(500), RevenueAllocated: decimal.NewFromInt(500),
			ActualHours: 5, TotalCost: 50, QuotedHours: 20, QuotedAmount: 2000,
		},
		{
			JobNo: "J2", TaskName: "Review", IsQuoteOnlyTask: true,
			QuotedHours: 4, QuotedAmount: 400,
		},
	}
}

func assertFloatEqual(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s: expected %v, got %v", name, want, got)
	}
}

func TestBuildJobMonthSummaries(t *testing.T) {
	t.Parallel()

	summaries := BuildJobMonthSummaries(sampleFacts())
	if len(summaries) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(summaries))
	}

	jan := summaries[0]
	if jan.JobNo != "J1" || !jan.Month.Equal(month(2024, time.January)) {
		t.Fatalf("unexpected first summary key: %s %v", jan.JobNo, jan.Month)
	}
	if !jan.RevenueMonthly.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected monthly revenue 900 counted once, got %s", jan.RevenueMonthly)
	}
	if !jan.RevenueAllocated.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected allocated revenue 900, got %s", jan.RevenueAllocated)
	}
	assertFloatEqual(t, "jan cost", jan.Cost, 500)
	assertFloatEqual(t, "jan hours", jan.Hours, 30)
	assertFloatEqual(t, "jan gross profit", jan.GrossProfit, 400)
	assertFloatEqual(t, "jan margin pct", jan.MarginPct, 100*400.0/900.0)

	if summaries[2].JobNo != "J2" || !summaries[2].Month.IsZero() {
		t.Fatalf("expected quote-only job in null month bucket, got %+v", summaries[2])
	}
	assertFloatEqual(t, "quote-only margin pct", summaries[2].MarginPct, 0)
}

func TestBuildJobTotalSummariesCountsQuoteOncePerTask(t *testing.T) {
	t.Parallel()

	summaries := BuildJobTotalSummaries(sampleFacts())
	if len(summaries) != 2 {
		t.Fatalf("expected 2 job summaries, got %d", len(summaries))
	}

	j1 := summaries[0]
	assertFloatEqual(t, "quoted time", j1.QuotedTime, 30)
	assertFloatEqual(t, "quoted amount", j1.QuotedAmount, 3000)
	assertFloatEqual(t, "total hours", j1.TotalHours, 35)
	assertFloatEqual(t, "total cost", j1.TotalCost, 550)
	assertFloatEqual(t, "gross profit", j1.GrossProfit, 1400-550)
	assertFloatEqual(t, "utilization", j1.UtilizationVsQuote, 35.0/30.0)

	j2 := summaries[1]
	assertFloatEqual(t, "quote-only utilization", j2.UtilizationVsQuote, 0)
	assertFloatEqual(t, "quote-only quoted amount", j2.QuotedAmount, 400)
}

func TestBuildQuoteVsActualSummaries(t *testing.T) {
	t.Parallel()

	summaries := BuildQuoteVsActualSummaries(sampleFacts())
	got := make([]string, 0, len(summaries))
	for _, s := range summaries {
		got = append(got, s.JobNo+"/"+s.TaskName)
	}
	want := []string{"J1/Build", "J1/Design", "J2/Review"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}

	design := summaries[1]
	assertFloatEqual(t, "design hours", design.TotalHours, 15)
	assertFloatEqual(t, "design quoted time", design.QuotedTime, 20)
	assertFloatEqual(t, "design utilization", design.UtilizationVsQuote, 0.75)
	if !design.RevenueAllocated.Equal(decimal.NewFromInt(800)) {
		t.Fatalf("expected design revenue 800, got %s", design.RevenueAllocated)
	}
}

func TestFactTableColumns(t *testing.T) {
	t.Parallel()

	table := FactTable(sampleFacts())
	if len(table.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(table.Rows))
	}
	if table.Headers[0] != "job_no" || table.Headers[1] != "task_name" {
		t.Fatalf("unexpected leading headers: %v", table.Headers[:2])
	}

	seen := make(map[string]bool, len(table.Headers))
	for _, header := range table.Headers {
		if seen[header] {
			t.Fatalf("duplicate header %q", header)
		}
		seen[header] = true
	}
	for _, name := range ledger.DimensionNames {
		if !seen[ledger.MixedFlagName(name)] {
			t.Fatalf("missing mixed flag column for %s", name)
		}
	}
	for i, row := range table.Rows {
		if len(row) != len(table.Headers) {
			t.Fatalf("row %d: expected %d cells, got %d", i, len(table.Headers), len(row))
		}
	}
}

func TestCSVWriterFormatsValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.csv")
	table := Table{
		Headers: []string{"name", "flag", "count", "hours", "revenue"},
		Rows: [][]any{
			{"Design", true, 3, 7.5, decimal.RequireFromString("1000.01")},
		},
	}
	if err := (&CSVWriter{}).Write(path, table); err != nil {
		t.Fatalf("write csv: %v", err)
	}

	records := readCSV(t, path)
	want := [][]string{
		{"name", "flag", "count", "hours", "revenue"},
		{"Design", "true", "3", "7.5", "1000.01"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("expected %v, got %v", want, records)
	}
}

func TestExcelWriterWritesNamedSheet(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.xlsx")
	table := Table{
		Headers: []string{"job_no", "revenue_allocated"},
		Rows:    [][]any{{"J1", decimal.NewFromInt(300)}},
	}
	if err := (&ExcelWriter{Sheet: "Facts"}).Write(path, table); err != nil {
		t.Fatalf("write excel: %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open excel: %v", err)
	}
	defer file.Close()

	rows, err := file.GetRows("Facts")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 2 || rows[1][0] != "J1" || rows[1][1] != "300" {
		t.Fatalf("unexpected excel rows: %v", rows)
	}
}

func TestWriterForFormat(t *testing.T) {
	t.Parallel()

	if _, err := WriterForFormat(" CSV "); err != nil {
		t.Fatalf("csv writer: %v", err)
	}
	if _, err := WriterForFormat("xlsx"); err != nil {
		t.Fatalf("xlsx writer: %v", err)
	}
	if _, err := WriterForFormat("pdf"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestParseFormats(t *testing.T) {
	t.Parallel()

	formats, err := ParseFormats([]string{"csv", "Excel", "parquet", "yaml"})
	if err != nil {
		t.Fatalf("parse formats: %v", err)
	}
	if !formats.Excel || !formats.Parquet || !formats.YAML {
		t.Fatalf("expected all optional formats enabled, got %+v", formats)
	}
	if _, err := ParseFormats([]string{"xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestReportRoundTripYAMLAndJSON(t *testing.T) {
	t.Parallel()

	report := &reconcile.Report{
		AllocationOK:       true,
		AllocationMaxDelta: 0,
		RevenueTolerance:   0.01,
		UniqueKeysOK:       true,
		DeptStatusCounts:   map[string]int{string(ledger.DeptMatch): 2},
		TaskMatchSuggestions: []reconcile.TaskSuggestion{
			{JobNo: "J1", Task: "Desing", Candidate: "Design", Score: 83.3},
		},
	}

	dir := t.TempDir()
	for _, name := range []string{"qa_report.json", "qa_report.yaml"} {
		path := filepath.Join(dir, name)
		if err := WriteReport(path, report); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		loaded, err := ReadReport(path)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if !loaded.OK() {
			t.Fatalf("%s: expected report to pass", name)
		}
		if loaded.DeptStatusCounts[string(ledger.DeptMatch)] != 2 {
			t.Fatalf("%s: unexpected status counts %v", name, loaded.DeptStatusCounts)
		}
		if len(loaded.TaskMatchSuggestions) != 1 || loaded.TaskMatchSuggestions[0].Candidate != "Design" {
			t.Fatalf("%s: unexpected suggestions %+v", name, loaded.TaskMatchSuggestions)
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	t.Parallel()

	result := &pipeline.Result{
		Facts:  sampleFacts(),
		Report: &reconcile.Report{AllocationOK: true, UniqueKeysOK: true},
	}
	dir := filepath.Join(t.TempDir(), "out")

	written, err := WriteArtifacts(dir, Formats{Excel: true, Parquet: true, YAML: true}, result)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}

	expected := []string{
		FactFileBase + ".csv", RevenueFile, TimesheetFile, QuoteFile,
		JobMonthSummaryFile, JobTotalSummaryFile, QuoteVsActualFile,
		FactFileBase + ".xlsx", FactFileBase + ".parquet",
		ReportFileBase + ".json", ReportFileBase + ".yaml",
	}
	if len(written) != len(expected) {
		t.Fatalf("expected %d artifacts, got %d: %v", len(expected), len(written), written)
	}
	for i, name := range expected {
		if filepath.Base(written[i]) != name {
			t.Fatalf("artifact %d: expected %s, got %s", i, name, filepath.Base(written[i]))
		}
		info, err := os.Stat(written[i])
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Fatalf("%s is empty", name)
		}
	}

	facts := readCSV(t, filepath.Join(dir, FactFileBase+".csv"))
	if len(facts) != 5 {
		t.Fatalf("expected header plus 4 fact rows, got %d", len(facts))
	}

	columns, rows := readParquetColumns(t, filepath.Join(dir, FactFileBase+".parquet"))
	if rows != 4 {
		t.Fatalf("expected 4 parquet rows, got %d", rows)
	}
	want := append(append([]string(nil), facts[0]...), revenueValueColumn)
	if len(columns) != len(want) {
		t.Fatalf("expected %d parquet columns, got %d: %v", len(want), len(columns), columns)
	}
	for i := range want {
		if !strings.EqualFold(columns[i], want[i]) {
			t.Fatalf("parquet column %d: expected %s, got %s", i, want[i], columns[i])
		}
	}
}

func TestParquetSchemaCoversFactColumns(t *testing.T) {
	t.Parallel()

	columns := factColumns()
	md, err := parquetSchema(columns)
	if err != nil {
		t.Fatalf("parquet schema: %v", err)
	}
	if len(md) != len(columns)+1 {
		t.Fatalf("expected %d schema entries, got %d", len(columns)+1, len(md))
	}
	for i, col := range columns {
		if !strings.HasPrefix(md[i], "name="+col.name+",") {
			t.Fatalf("schema entry %d = %q, want column %s", i, md[i], col.name)
		}
	}

	facts := sampleFacts()
	rec := parquetRecord(columns, facts[0])
	if len(rec) != len(md) {
		t.Fatalf("record has %d values for %d schema entries", len(rec), len(md))
	}
	for i, value := range rec {
		switch {
		case strings.Contains(md[i], "BYTE_ARRAY"):
			if _, ok := value.(string); !ok {
				t.Fatalf("%s: expected string value, got %T", md[i], value)
			}
		case strings.Contains(md[i], "INT32"):
			if _, ok := value.(int32); !ok {
				t.Fatalf("%s: expected int32 value, got %T", md[i], value)
			}
		case strings.Contains(md[i], "DOUBLE"):
			if _, ok := value.(float64); !ok {
				t.Fatalf("%s: expected float64 value, got %T", md[i], value)
			}
		case strings.Contains(md[i], "BOOLEAN"):
			if _, ok := value.(bool); !ok {
				t.Fatalf("%s: expected bool value, got %T", md[i], value)
			}
		}
	}
}

func readParquetColumns(t *testing.T, path string) ([]string, int64) {
	t.Helper()

	fr, err := local.NewLocalFileReader(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer fr.Close()

	pr, err := reader.NewParquetReader(fr, nil, 1)
	if err != nil {
		t.Fatalf("read parquet footer %s: %v", path, err)
	}
	defer pr.ReadStop()

	var names []string
	for _, element := range pr.Footer.Schema[1:] {
		names = append(names, element.GetName())
	}
	return names, pr.GetNumRows()
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return records
}
