package fact

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"jobprofit/ledger"
)

var (
	march = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	july  = time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC)
)

func TestBuild_JoinsAndDerivesMetrics(t *testing.T) {
	allocated := []ledger.AllocatedRow{
		{
			TimesheetAggregate: ledger.TimesheetAggregate{
				JobNo: "J1", TaskName: "Design", TaskNameRaw: "Design", Month: march,
				TotalHours: 12, TotalCost: 600, BillableAmount: 1800,
				AvgBaseRate: 50, AvgBillableRate: 150, DepartmentActual: "Design",
			},
			RevenueMonthly:   decimal.NewFromInt(1500),
			RevenueAllocated: decimal.NewFromInt(1000),
			TaskShare:        2.0 / 3.0,
			HasRevenue:       true,
		},
	}
	quotes := []ledger.QuotationAggregate{
		{JobNo: "J1", TaskName: "Design", QuotedTime: 10, QuotedAmount: 1200, DepartmentQuote: "design", Client: "Acme"},
	}

	facts, err := Build(allocated, quotes, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(facts))
	}
	f := facts[0]

	assertFloatEqual(t, 120, f.QuotedRateHr, "quoted rate")
	assertFloatEqual(t, 150, f.ExpectedRateHr, "expected rate")
	assertFloatEqual(t, 1500, f.ExpectedQuote, "expected quote")
	assertFloatEqual(t, -300, f.QuoteGap, "quote gap")
	assertFloatEqual(t, -20, f.QuoteGapPct, "quote gap pct")
	assertFloatEqual(t, 600, f.Margin, "margin")
	assertFloatEqual(t, 50, f.MarginPct, "margin pct")
	assertFloatEqual(t, 1200, f.ActualMargin, "actual margin")
	assertFloatEqual(t, 200.0/3.0, f.ActualMarginPct, "actual margin pct")
	assertFloatEqual(t, 600, f.MarginVariance, "margin variance")
	assertFloatEqual(t, 400, f.GrossProfit, "gross profit")
	assertFloatEqual(t, 40, f.GrossMarginPct, "gross margin pct")
	assertFloatEqual(t, 100, f.EffectiveRateHr, "effective rate")
	assertFloatEqual(t, 2, f.HoursVariance, "hours variance")
	assertFloatEqual(t, 20, f.HoursVariancePct, "hours variance pct")

	if f.DeptMatchStatus != ledger.DeptMatch {
		t.Fatalf("expected MATCH, got %s", f.DeptMatchStatus)
	}
	if !f.IsOverrun || !f.IsUnderquoted || f.IsLoss || f.IsUnquotedTask || f.IsQuoteOnlyTask {
		t.Fatalf("unexpected flags %+v", f)
	}
	if f.Client != "Acme" || f.DepartmentReporting != "Design" {
		t.Fatalf("unexpected metadata client=%q dept=%q", f.Client, f.DepartmentReporting)
	}
	if f.FiscalYear != 2026 || f.FYLabel != "FY26" || f.FiscalMonth != 9 {
		t.Fatalf("unexpected fiscal fields %d %s %d", f.FiscalYear, f.FYLabel, f.FiscalMonth)
	}
}

func TestBuild_SynthesisesQuoteOnlyTasks(t *testing.T) {
	allocated := []ledger.AllocatedRow{
		{TimesheetAggregate: ledger.TimesheetAggregate{JobNo: "J1", TaskName: "Design", Month: july, TotalHours: 1}},
	}
	quotes := []ledger.QuotationAggregate{
		{JobNo: "J1", TaskName: "Design", QuotedTime: 1},
		{JobNo: "J1", TaskName: "Strategy", QuotedTime: 8, QuotedAmount: 800, DepartmentQuote: "Strategy"},
	}

	facts, err := Build(allocated, quotes, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("expected 2 facts, got %d", len(facts))
	}

	design := facts[0]
	if design.FiscalYear != 2027 || design.FiscalMonth != 1 {
		t.Fatalf("expected July to open FY27, got %d month %d", design.FiscalYear, design.FiscalMonth)
	}

	strategy := facts[1]
	if !strategy.IsQuoteOnlyTask || !strategy.Month.IsZero() {
		t.Fatalf("expected quote-only row with null month, got %+v", strategy)
	}
	if strategy.DeptMatchStatus != ledger.DeptQuoteOnlyTask {
		t.Fatalf("expected QUOTE_ONLY_TASK, got %s", strategy.DeptMatchStatus)
	}
	if !strategy.IsUnworkedTask || strategy.ActualHours != 0 || !strategy.RevenueAllocated.IsZero() {
		t.Fatalf("expected zero-activity unworked row")
	}
	if strategy.FYLabel != "Unknown" || strategy.FiscalYear != 0 {
		t.Fatalf("expected unknown fiscal year, got %s", strategy.FYLabel)
	}
	assertFloatEqual(t, 100, strategy.ExpectedRateHr, "fallback to quoted rate")
	assertFloatEqual(t, 0, strategy.QuoteGap, "quote gap")
}

func TestBuild_UnquotedTaskAndZeroBases(t *testing.T) {
	allocated := []ledger.AllocatedRow{
		{
			TimesheetAggregate: ledger.TimesheetAggregate{JobNo: "J2", TaskName: "Ad hoc", Month: march, TotalHours: 3, TotalCost: 90, DepartmentActual: "Dev"},
			RevenueMeta:        ledger.RevenueMeta{Client: "Beta", Category: "Retainer"},
		},
	}

	facts, err := Build(allocated, nil, Options{FiscalYearStartMonth: time.January})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	f := facts[0]

	if !f.IsUnquotedTask || f.DeptMatchStatus != ledger.DeptActualOnlyTask {
		t.Fatalf("expected unquoted actual-only row, got %+v", f)
	}
	assertFloatEqual(t, 0, f.ExpectedQuote, "expected quote with no rates")
	assertFloatEqual(t, 0, f.MarginPct, "margin pct on zero base")
	assertFloatEqual(t, 0, f.GrossMarginPct, "gross margin pct on zero revenue")
	assertFloatEqual(t, 100, f.HoursVariancePct, "hours variance pct without quote")
	if !f.IsLoss {
		t.Fatalf("expected loss when cost exceeds zero quote")
	}
	if f.Client != "Beta" || f.Category != "Retainer" {
		t.Fatalf("expected revenue metadata fallback, got %q %q", f.Client, f.Category)
	}
	if f.FiscalYear != 2026 || f.FiscalMonth != 3 {
		t.Fatalf("expected calendar fiscal year, got %d month %d", f.FiscalYear, f.FiscalMonth)
	}
}

func TestBuild_KeysAreUnique(t *testing.T) {
	allocated := []ledger.AllocatedRow{
		{TimesheetAggregate: ledger.TimesheetAggregate{JobNo: "J1", TaskName: "A", Month: march}},
		{TimesheetAggregate: ledger.TimesheetAggregate{JobNo: "J1", TaskName: "A", Month: july}},
		{TimesheetAggregate: ledger.TimesheetAggregate{JobNo: "J1", TaskName: "B", Month: march}},
	}
	quotes := []ledger.QuotationAggregate{
		{JobNo: "J1", TaskName: "A"},
		{JobNo: "J1", TaskName: "C"},
	}

	facts, err := Build(allocated, quotes, Options{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(facts) != 4 {
		t.Fatalf("expected every input once, got %d rows", len(facts))
	}
	seen := map[ledger.FactKey]bool{}
	for _, f := range facts {
		if seen[f.Key()] {
			t.Fatalf("duplicate key %+v", f.Key())
		}
		seen[f.Key()] = true
	}
}

func TestBuild_RejectsDuplicateInputs(t *testing.T) {
	quotes := []ledger.QuotationAggregate{{JobNo: "J1", TaskName: "A"}, {JobNo: "J1", TaskName: "A"}}
	if _, err := Build(nil, quotes, Options{}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	allocated := []ledger.AllocatedRow{
		{TimesheetAggregate: ledger.TimesheetAggregate{JobNo: "J1", TaskName: "A", Month: march}},
		{TimesheetAggregate: ledger.TimesheetAggregate{JobNo: "J1", TaskName: "A", Month: march}},
	}
	if _, err := Build(allocated, nil, Options{}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}

func assertFloatEqual(t *testing.T, expected, actual float64, label string) {
	t.Helper()
	if math.Abs(expected-actual) > 1e-9 {
		t.Fatalf("%s mismatch: expected %.4f, got %.4f", label, expected, actual)
	}
}
