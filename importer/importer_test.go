package importer

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

// writeUTF16LEFile creates a UTF-16LE file with BOM from UTF-8 content.
func writeUTF16LEFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)

	runes := []rune(content)
	buf := make([]byte, 0, 2+len(runes)*2)
	buf = append(buf, 0xFF, 0xFE)
	for _, r := range runes {
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(r))
		buf = append(buf, b[:]...)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNormalizeHeader_IgnoresCaseSpacingAndPunctuation(t *testing.T) {
	t.Parallel()

	if normalizeHeader("[Job] Job No.") != normalizeHeader("job_job-no") {
		t.Fatalf("expected bracketed header to normalise like snake case")
	}
	if got := normalizeHeader("Billable?"); got != "billable" {
		t.Fatalf("unexpected normalised header %q", got)
	}
}

func TestCSVReader_StripsUTF8BOMAndSkipsBlankRows(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := writeFile(t, dir, "revenue.csv", "\uFEFFJob Number,Month,Amount\nJ1,2026-03,100\n,,\nJ2,2026-04,\"1,200\"\n")

	table, err := (&CSVReader{}).Read(path)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if !table.Has("Job Number") {
		t.Fatalf("expected BOM to be stripped from first header, got %v", table.Headers)
	}
	if len(table.Records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(table.Records))
	}
	if table.Records[1].RowNumber != 4 || table.Records[1].Get("amount") != "1,200" {
		t.Fatalf("unexpected second record %+v", table.Records[1])
	}
}

func TestCSVReader_DecodesUTF16TabSeparated(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	path := writeUTF16LEFile(t, dir, "timesheet.tsv", "[Job] Job No.\t[Job Task] Name\n J1 \tDesign\n")

	table, err := (&CSVReader{Comma: '\t'}).Read(path)
	if err != nil {
		t.Fatalf("read tsv: %v", err)
	}
	if len(table.Records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(table.Records))
	}
	if got := table.Records[0].Get("[Job Task] Name"); got != "Design" {
		t.Fatalf("unexpected task %q", got)
	}
}

func TestMapRevenue_ReportsAllMissingColumns(t *testing.T) {
	t.Parallel()

	table := &Table{Name: "Monthly Revenue", Headers: []string{normalizeHeader("Job Number")}}
	_, err := MapRevenue(table)
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected month and amount to be reported, got %d errors: %v", got, err)
	}
}

func TestMapTimesheet_MapsDimensions(t *testing.T) {
	t.Parallel()

	table := &Table{
		Name: "Timesheet Data",
		Headers: []string{
			normalizeHeader("[Job] Job No."), normalizeHeader("[Job Task] Name"),
			normalizeHeader("Month Key"), normalizeHeader("[Time] Time"),
			normalizeHeader("Department"), normalizeHeader("[Category] Category"),
		},
		Records: []Record{{
			RowNumber: 2,
			Values: map[string]string{
				normalizeHeader("[Job] Job No."):       "J1",
				normalizeHeader("[Job Task] Name"):     "Design",
				normalizeHeader("Month Key"):           "2026-03",
				normalizeHeader("[Time] Time"):         "2.5",
				normalizeHeader("Department"):          "Creative",
				normalizeHeader("[Category] Category"): "Studio",
			},
		}},
	}

	rows, err := MapTimesheet(table)
	if err != nil {
		t.Fatalf("map timesheet: %v", err)
	}
	row := rows[0]
	if row.Hours != "2.5" || row.Dimensions["department"] != "Creative" || row.Dimensions["category"] != "Studio" {
		t.Fatalf("unexpected row %+v", row)
	}
	if _, ok := row.Dimensions["deliverable"]; !ok {
		t.Fatalf("expected every dimension key to be present")
	}
}

func TestLoadTaskMap(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	missing, err := LoadTaskMap(filepath.Join(dir, "absent.csv"))
	if err != nil {
		t.Fatalf("missing task map: %v", err)
	}
	if missing.Len() != 0 {
		t.Fatalf("expected empty map for missing file")
	}

	path := writeFile(t, dir, "task_map.csv", "job_no,from_task,to_task\n,Dsgn,Design\nj2,Dsgn,Creative\n,,Ignored\n")
	taskMap, err := LoadTaskMap(path)
	if err != nil {
		t.Fatalf("load task map: %v", err)
	}
	if taskMap.Len() != 2 {
		t.Fatalf("expected 2 rules, got %d", taskMap.Len())
	}
	if got := taskMap.Apply("J2", "Dsgn"); got != "Creative" {
		t.Fatalf("expected job rule, got %q", got)
	}
	if got := taskMap.Apply("J1", "Dsgn"); got != "Design" {
		t.Fatalf("expected global rule, got %q", got)
	}

	bad := writeFile(t, dir, "bad.csv", "job,task\nJ1,A\n")
	if _, err := LoadTaskMap(bad); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestRun_ReadsWorkbookSheets(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.xlsx")

	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", DefaultRevenueSheet); err != nil {
		t.Fatalf("rename sheet: %v", err)
	}
	if _, err := file.NewSheet(DefaultTimesheetSheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	if _, err := file.NewSheet(DefaultQuotationSheet); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	setRows(t, file, DefaultRevenueSheet, [][]any{
		{"Job Number", "Month", "Amount", "Excluded"},
		{"J1", 46082, 900, ""},
	})
	setRows(t, file, DefaultTimesheetSheet, [][]any{
		{"[Job] Job No.", "[Job Task] Name", "Month Key", "[Time] Time", "[Task] Base Rate"},
		{"J1", "Design", "2026-03-01", 3, 50},
		{"J1", "Build", "2026-03-01", 6, 60},
	})
	setRows(t, file, DefaultQuotationSheet, [][]any{
		{"[Job] Job No.", "[Job Task] Name", "[Job Task] Quoted Time", "[Job Task] Quoted Amount"},
		{"J1", "Design", 4, 600},
	})
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	result, err := Run(Source{Workbook: path})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.FilesProcessed != 1 || result.RowsRead != 4 {
		t.Fatalf("unexpected counts files=%d rows=%d", result.FilesProcessed, result.RowsRead)
	}
	if result.Revenue[0].Month != "46082" || result.Revenue[0].Amount != "900" {
		t.Fatalf("expected raw cell values, got %+v", result.Revenue[0])
	}
	if result.Timesheet[1].TaskName != "Build" || result.Quotation[0].QuotedAmount != "600" {
		t.Fatalf("unexpected mapped rows")
	}
}

func TestRun_MissingSheet(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "input.xlsx")

	file := excelize.NewFile()
	if err := file.SaveAs(path); err != nil {
		t.Fatalf("save workbook: %v", err)
	}

	if _, err := Run(Source{Workbook: path}); !errors.Is(err, ErrMissingSheet) {
		t.Fatalf("expected ErrMissingSheet, got %v", err)
	}
}

func setRows(t *testing.T, file *excelize.File, sheet string, rows [][]any) {
	t.Helper()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := file.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("set row: %v", err)
		}
	}
}
