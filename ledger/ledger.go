// Package ledger holds the row types shared by the importers, the aggregation
// stages and the writers.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

// Dimension names resolved per timesheet group, in output order.
const (
	DimDepartment  = "department"
	DimFunction    = "function"
	DimCategory    = "category"
	DimRole        = "role"
	DimTask        = "task"
	DimDeliverable = "deliverable"
)

var DimensionNames = []string{DimDepartment, DimFunction, DimCategory, DimRole, DimTask, DimDeliverable}

// MixedFlagName returns the report key for a dimension's mixed flag.
func MixedFlagName(dimension string) string {
	return "mixed_dimension_" + dimension
}

// RevenueRow is one raw billing line.
type RevenueRow struct {
	RowNumber int
	JobNo     string
	Month     string
	Amount    string
	Excluded  string
	Meta      RevenueMeta
}

// RevenueMeta carries the descriptive billing columns.
type RevenueMeta struct {
	Source         string
	AccountManager string
	Client         string
	Industry       string
	Category       string
	Department     string
	ClientGroup    string
	FY             string
}

// TimesheetRow is one raw time entry.
type TimesheetRow struct {
	RowNumber    int
	JobNo        string
	TaskName     string
	Month        string
	Hours        string
	BaseRate     string
	BillableRate string
	Billable     string
	Onshore      string
	StaffName    string
	Dimensions   map[string]string
}

// QuotationRow is one raw quote line.
type QuotationRow struct {
	RowNumber        int
	JobNo            string
	TaskName         string
	QuotedTime       string
	QuotedAmount     string
	InvoicedTime     string
	InvoicedAmount   string
	Department       string
	Client           string
	JobName          string
	JobCategory      string
	JobStatus        string
	JobStartDate     string
	JobCompletedDate string
	Product          string
}

// RevenueRecord is billed revenue for one (job, month). A zero Month is the
// null month key.
type RevenueRecord struct {
	JobNo          string
	Month          time.Time
	RevenueMonthly decimal.Decimal
	SourceRows     int
	Meta           RevenueMeta
}

// TimesheetAggregate is worked time for one (job, task, month).
type TimesheetAggregate struct {
	JobNo       string
	TaskName    string
	TaskNameRaw string
	Month       time.Time

	TotalHours         float64
	TotalCost          float64
	BillableAmount     float64
	BillableHours      float64
	OnshoreHours       float64
	DistinctStaffCount int
	AvgBaseRate        float64
	AvgBillableRate    float64

	DepartmentActual        string
	MixedDepartment         bool
	DepartmentRunnerUp      string
	DepartmentRunnerUpShare float64

	Dimensions      map[string]string
	MixedDimensions map[string]bool

	MissingBaseRateFlag  bool
	HadNegativeHoursFlag bool
}

// QuotationAggregate is the quoted and invoiced position for one (job, task).
type QuotationAggregate struct {
	JobNo       string
	TaskName    string
	TaskNameRaw string

	QuotedTime     float64
	QuotedAmount   float64
	InvoicedTime   float64
	InvoicedAmount float64

	DepartmentQuote      string
	QuoteMixedDepartment bool

	Client           string
	JobName          string
	JobCategory      string
	JobStatus        string
	JobStartDate     string
	JobCompletedDate string
	Product          string
}

// AllocatedRow is a timesheet group (or a synthetic sentinel row) carrying
// its share of the job-month revenue.
type AllocatedRow struct {
	TimesheetAggregate

	RevenueMonthly     decimal.Decimal
	HasRevenue         bool
	RevenueMeta        RevenueMeta
	TotalHoursJobMonth float64
	TaskShare          float64
	RevenueAllocated   decimal.Decimal
	IsUnallocatedRow   bool
}

// DeptStatus classifies how actual and quoted departments line up.
type DeptStatus string

const (
	DeptMatch          DeptStatus = "MATCH"
	DeptMismatch       DeptStatus = "MISMATCH"
	DeptMissingActual  DeptStatus = "MISSING_ACTUAL_DEPT"
	DeptMissingQuote   DeptStatus = "MISSING_QUOTE_DEPT"
	DeptQuoteOnlyTask  DeptStatus = "QUOTE_ONLY_TASK"
	DeptActualOnlyTask DeptStatus = "ACTUAL_ONLY_TASK"
)

var DeptStatuses = []DeptStatus{
	DeptMatch, DeptMismatch, DeptMissingActual, DeptMissingQuote, DeptQuoteOnlyTask, DeptActualOnlyTask,
}

// FactRow is the published (job, task, month) row.
type FactRow struct {
	JobNo       string
	TaskName    string
	TaskNameRaw string
	Month       time.Time

	FiscalYear  int
	FYLabel     string
	FiscalMonth int

	Client              string
	Category            string
	JobName             string
	JobStatus           string
	Product             string
	DepartmentActual    string
	DepartmentQuote     string
	DepartmentReporting string
	DeptMatchStatus     DeptStatus

	MixedDepartment         bool
	DepartmentRunnerUp      string
	DepartmentRunnerUpShare float64
	QuoteMixedDepartment    bool
	MixedDimensions         map[string]bool

	RevenueMonthly     decimal.Decimal
	RevenueAllocated   decimal.Decimal
	TaskShare          float64
	TotalHoursJobMonth float64

	ActualHours        float64
	BillableHours      float64
	OnshoreHours       float64
	TotalCost          float64
	BillableValue      float64
	DistinctStaffCount int

	QuotedHours    float64
	QuotedAmount   float64
	InvoicedTime   float64
	InvoicedAmount float64

	QuotedRateHr    float64
	BillableRateHr  float64
	CostRateHr      float64
	ExpectedRateHr  float64
	EffectiveRateHr float64

	ExpectedQuote    float64
	QuoteGap         float64
	QuoteGapPct      float64
	Margin           float64
	MarginPct        float64
	ActualMargin     float64
	ActualMarginPct  float64
	MarginVariance   float64
	GrossProfit      float64
	GrossMarginPct   float64
	HoursVariance    float64
	HoursVariancePct float64

	IsUnallocatedRow     bool
	IsUnquotedTask       bool
	IsQuoteOnlyTask      bool
	IsUnworkedTask       bool
	IsOverrun            bool
	IsLoss               bool
	IsUnderquoted        bool
	MissingBaseRateFlag  bool
	HadNegativeHoursFlag bool
}

// FactKey identifies a fact row.
type FactKey struct {
	JobNo    string
	TaskName string
	Month    time.Time
}

func (f FactRow) Key() FactKey {
	return FactKey{JobNo: f.JobNo, TaskName: f.TaskName, Month: f.Month}
}
