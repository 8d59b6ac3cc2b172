package pipeline

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"jobprofit/internal/keys"
	"jobprofit/ledger"
)

func sampleInputs() Inputs {
	return Inputs{
		Revenue: []ledger.RevenueRow{
			{JobNo: "J1", Month: "2026-03-01", Amount: "900", Meta: ledger.RevenueMeta{Client: "Acme", Department: "Design"}},
			{JobNo: "J2", Month: "2026-03-01", Amount: "1000"},
			{JobNo: "J3", Month: "2024-01-01", Amount: "75"},
			{JobNo: "J1", Month: "2026-03-01", Amount: "500", Excluded: "Y"},
		},
		Timesheet: []ledger.TimesheetRow{
			{JobNo: "J1", TaskName: "Dsgn", Month: "2026-03-04", Hours: "3", BaseRate: "50", BillableRate: "150",
				Dimensions: map[string]string{ledger.DimDepartment: "Design"}},
			{JobNo: "J1", TaskName: "Build", Month: "2026-03-11", Hours: "6", BaseRate: "60", BillableRate: "160",
				Dimensions: map[string]string{ledger.DimDepartment: "Dev"}},
			{JobNo: "J1", TaskName: "Build", Month: "2026-03-12", Hours: "-2", BaseRate: "60",
				Dimensions: map[string]string{ledger.DimDepartment: "Dev"}},
		},
		Quotation: []ledger.QuotationRow{
			{JobNo: "J1", TaskName: "Design", QuotedTime: "4", QuotedAmount: "600", Department: "Design"},
			{JobNo: "J1", TaskName: "Build", QuotedTime: "5", QuotedAmount: "800", Department: "Design"},
			{JobNo: "J1", TaskName: "Launch", QuotedTime: "2", QuotedAmount: "300"},
		},
	}
}

func sampleOptions() Options {
	return Options{
		TaskMap:             keys.NewTaskMap([]keys.TaskMapRule{{FromTask: "Dsgn", ToTask: "Design"}}),
		UnallocatedTaskName: "UNALLOCATED",
		RevenueTolerance:    0.01,
		MonthStart:          time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		MonthEnd:            time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC),
		Workers:             4,
	}
}

func TestBuild_EndToEnd(t *testing.T) {
	result, err := Build(context.Background(), sampleInputs(), sampleOptions(), nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if result.RevenueOutsideWindow != 1 {
		t.Fatalf("expected J3 outside window, got %d", result.RevenueOutsideWindow)
	}
	if !result.Report.AllocationOK || !result.Report.UniqueKeysOK {
		t.Fatalf("expected passing report: %+v", result.Report)
	}

	byKey := map[string]ledger.FactRow{}
	for _, f := range result.Facts {
		byKey[f.JobNo+"/"+f.TaskName] = f
	}
	if len(byKey) != 4 {
		t.Fatalf("expected 4 facts, got %d: %v", len(byKey), byKey)
	}

	design := byKey["J1/Design"]
	if design.RevenueAllocated.String() != "300" || design.DeptMatchStatus != ledger.DeptMatch {
		t.Fatalf("unexpected design row: %s %s", design.RevenueAllocated, design.DeptMatchStatus)
	}
	build := byKey["J1/Build"]
	if build.RevenueAllocated.String() != "600" || !build.HadNegativeHoursFlag || build.DeptMatchStatus != ledger.DeptMismatch {
		t.Fatalf("unexpected build row: %+v", build)
	}
	if !byKey["J1/Launch"].IsQuoteOnlyTask {
		t.Fatalf("expected quote-only Launch row")
	}
	sentinel := byKey["J2/UNALLOCATED"]
	if !sentinel.IsUnallocatedRow || sentinel.RevenueAllocated.String() != "1000" {
		t.Fatalf("unexpected sentinel row: %+v", sentinel)
	}
	if result.Report.Inputs.Revenue.ExcludedRows != 1 {
		t.Fatalf("expected excluded row in report inputs")
	}
}

func TestBuild_IsIdempotent(t *testing.T) {
	first, err := Build(context.Background(), sampleInputs(), sampleOptions(), nil)
	if err != nil {
		t.Fatalf("first build: %v", err)
	}
	opts := sampleOptions()
	opts.Workers = 1
	second, err := Build(context.Background(), sampleInputs(), opts, nil)
	if err != nil {
		t.Fatalf("second build: %v", err)
	}

	if !reflect.DeepEqual(first.Facts, second.Facts) {
		t.Fatalf("expected identical facts across runs")
	}
	firstReport, err := json.Marshal(first.Report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	secondReport, err := json.Marshal(second.Report)
	if err != nil {
		t.Fatalf("marshal report: %v", err)
	}
	if string(firstReport) != string(secondReport) {
		t.Fatalf("expected identical reports:\n%s\n%s", firstReport, secondReport)
	}
}

func TestBuild_AllHistoryKeepsOldRevenue(t *testing.T) {
	opts := sampleOptions()
	opts.AllHistory = true

	result, err := Build(context.Background(), sampleInputs(), opts, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if result.RevenueOutsideWindow != 0 {
		t.Fatalf("expected no revenue dropped, got %d", result.RevenueOutsideWindow)
	}
	found := false
	for _, f := range result.Facts {
		if f.JobNo == "J3" && f.IsUnallocatedRow {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sentinel row for historical J3 revenue")
	}
}
