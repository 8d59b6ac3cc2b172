package config

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"jobprofit/aggregate"
	"jobprofit/allocate"
	"jobprofit/importer"
	"jobprofit/internal/keys"
	"jobprofit/reconcile"
)

const (
	KeyInputWorkbook        = "input.workbook"
	KeyInputFormat          = "input.format"
	KeyInputTaskMapFile     = "input.task_map_file"
	KeyInputRevenueFile     = "input.revenue_file"
	KeyInputTimesheetFile   = "input.timesheet_file"
	KeyInputQuotationFile   = "input.quotation_file"
	KeySheetRevenue         = "input.sheets.revenue"
	KeySheetTimesheet       = "input.sheets.timesheet"
	KeySheetQuotation       = "input.sheets.quotation"
	KeyExclusionValues      = "exclusions.truthy_values"
	KeyBillableValues       = "timesheet.billable_values"
	KeyOnshoreValues        = "timesheet.onshore_values"
	KeyUnallocatedTaskName  = "allocation.unallocated_task_name"
	KeyRevenueTolerance     = "allocation.revenue_tolerance"
	KeyMonthsStart          = "months.start"
	KeyMonthsEnd            = "months.end"
	KeyFiscalYearStartMonth = "months.fiscal_year_start_month"
	KeySuggestionLimit      = "qa.suggestion_limit"
	KeyTopN                 = "qa.top_n"
	KeyOutputDir            = "output.dir"
	KeyOutputDB             = "output.db"
	KeyOutputFormats        = "output.formats"
	KeyWorkers              = "workers"
)

type Config struct {
	Input      InputConfig      `mapstructure:"input"`
	Exclusions ExclusionConfig  `mapstructure:"exclusions"`
	Timesheet  TimesheetConfig  `mapstructure:"timesheet"`
	Allocation AllocationConfig `mapstructure:"allocation"`
	Months     MonthsConfig     `mapstructure:"months"`
	QA         QAConfig         `mapstructure:"qa"`
	Output     OutputConfig     `mapstructure:"output"`
	Workers    int              `mapstructure:"workers" validate:"gte=0,lte=256"`
}

type InputConfig struct {
	Workbook      string       `mapstructure:"workbook"`
	Format        string       `mapstructure:"format" validate:"omitempty,oneof=csv tsv tab excel xlsx xlsm"`
	TaskMapFile   string       `mapstructure:"task_map_file"`
	RevenueFile   string       `mapstructure:"revenue_file"`
	TimesheetFile string       `mapstructure:"timesheet_file"`
	QuotationFile string       `mapstructure:"quotation_file"`
	Sheets        SheetsConfig `mapstructure:"sheets"`
}

type SheetsConfig struct {
	Revenue   string `mapstructure:"revenue" validate:"required"`
	Timesheet string `mapstructure:"timesheet" validate:"required"`
	Quotation string `mapstructure:"quotation" validate:"required"`
}

type ExclusionConfig struct {
	TruthyValues []string `mapstructure:"truthy_values" validate:"min=1,dive,required"`
}

type TimesheetConfig struct {
	BillableValues []string `mapstructure:"billable_values" validate:"min=1,dive,required"`
	OnshoreValues  []string `mapstructure:"onshore_values" validate:"min=1,dive,required"`
}

type AllocationConfig struct {
	UnallocatedTaskName string  `mapstructure:"unallocated_task_name" validate:"required"`
	RevenueTolerance    float64 `mapstructure:"revenue_tolerance" validate:"gte=0"`
}

type MonthsConfig struct {
	Start                string `mapstructure:"start"`
	End                  string `mapstructure:"end"`
	FiscalYearStartMonth int    `mapstructure:"fiscal_year_start_month" validate:"gte=1,lte=12"`
}

type QAConfig struct {
	SuggestionLimit int `mapstructure:"suggestion_limit" validate:"gte=0"`
	TopN            int `mapstructure:"top_n" validate:"gte=1"`
}

type OutputConfig struct {
	Dir     string   `mapstructure:"dir" validate:"required"`
	DB      string   `mapstructure:"db" validate:"required"`
	Formats []string `mapstructure:"formats" validate:"dive,oneof=csv json excel xlsx parquet yaml yml"`
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

// LoadAndValidate loads config from Viper and validates it
func LoadAndValidate() (*Config, error) {
	return loadAndValidateFromViper(viper.GetViper())
}

// ValidateYAMLContent validates configuration from raw YAML content.
func ValidateYAMLContent(content []byte) (*Config, error) {
	local := viper.New()
	setDefaults(local)
	local.SetConfigType("yaml")
	if err := local.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("read config content: %w", err)
	}
	return loadAndValidateFromViper(local)
}

// ExampleYAML returns the default configuration template.
func ExampleYAML() string {
	return `# jobprofit configuration
input:
  workbook: "job_data.xlsx"
  task_map_file: ""
  sheets:
    revenue: "Monthly Revenue"
    timesheet: "Timesheet Data"
    quotation: "Quotation Data"

exclusions:
  truthy_values: ["Y", "YES", "TRUE", "1"]

timesheet:
  billable_values: ["YES"]
  onshore_values: ["1", "TRUE", "YES"]

allocation:
  unallocated_task_name: "Unallocated Revenue"
  revenue_tolerance: 0.01

months:
  start: ""
  end: ""
  fiscal_year_start_month: 7

qa:
  suggestion_limit: 10
  top_n: 20

output:
  dir: "out"
  db: "jobprofit.db"
  formats: ["csv"]

workers: 4
`
}

// MonthWindow parses months.start and months.end. An empty bound is returned
// as the zero time.
func (c *Config) MonthWindow() (time.Time, time.Time, error) {
	start, err := parseMonthBound(KeyMonthsStart, c.Months.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := parseMonthBound(KeyMonthsEnd, c.Months.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseMonthBound(key, raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	month, ok := keys.Month(raw)
	if !ok {
		return time.Time{}, fmt.Errorf("validation failed: %s %q is not a month", key, raw)
	}
	return month, nil
}

func loadAndValidateFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if err := validateMonths(&cfg); err != nil {
		return nil, err
	}
	if err := validateSheets(cfg.Input.Sheets); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeySheetRevenue, importer.DefaultRevenueSheet)
	v.SetDefault(KeySheetTimesheet, importer.DefaultTimesheetSheet)
	v.SetDefault(KeySheetQuotation, importer.DefaultQuotationSheet)
	v.SetDefault(KeyExclusionValues, aggregate.DefaultExclusionValues)
	v.SetDefault(KeyBillableValues, aggregate.DefaultBillableValues)
	v.SetDefault(KeyOnshoreValues, aggregate.DefaultOnshoreValues)
	v.SetDefault(KeyUnallocatedTaskName, allocate.DefaultUnallocatedTaskName)
	v.SetDefault(KeyRevenueTolerance, reconcile.DefaultTolerance)
	v.SetDefault(KeyFiscalYearStartMonth, int(time.July))
	v.SetDefault(KeySuggestionLimit, reconcile.DefaultSuggestionLimit)
	v.SetDefault(KeyTopN, reconcile.DefaultTopN)
	v.SetDefault(KeyOutputDir, "out")
	v.SetDefault(KeyOutputDB, "jobprofit.db")
	v.SetDefault(KeyOutputFormats, []string{"csv"})
	v.SetDefault(KeyWorkers, 4)
}

func validateMonths(cfg *Config) error {
	start, end, err := cfg.MonthWindow()
	if err != nil {
		return err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return fmt.Errorf("validation failed: %s %q is before %s %q", KeyMonthsEnd, cfg.Months.End, KeyMonthsStart, cfg.Months.Start)
	}
	return nil
}

func validateSheets(sheets SheetsConfig) error {
	named := []struct{ key, name string }{
		{KeySheetRevenue, sheets.Revenue},
		{KeySheetTimesheet, sheets.Timesheet},
		{KeySheetQuotation, sheets.Quotation},
	}
	seen := make(map[string]string, len(named))
	for _, sheet := range named {
		normalized := strings.ToLower(strings.TrimSpace(sheet.name))
		if other, exists := seen[normalized]; exists {
			return fmt.Errorf("validation failed: %s and %s both name sheet %q", other, sheet.key, sheet.name)
		}
		seen[normalized] = sheet.key
	}
	return nil
}
