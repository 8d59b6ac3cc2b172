package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jobprofit/config"
)

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show active configuration values.",
	Long: `Display the currently loaded configuration and the resolved config file path.

This command validates the configuration before printing values. Defaults are shown
for keys the file does not set.`,
	Example: `
  # Show active configuration
  jobprofit config show
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			fmt.Println("Invalid config:", err)
			return
		}

		if configPath := viper.ConfigFileUsed(); configPath != "" {
			fmt.Println("Config file loaded from:", configPath)
		} else {
			fmt.Println("No config file loaded; showing defaults.")
		}
		fmt.Println("Configuration:")
		for _, line := range configLines(cfg) {
			fmt.Println(line)
		}
		fmt.Println("Summary:")
		for _, line := range describeConfig(cfg) {
			fmt.Println("  " + line)
		}
	},
}

func configLines(cfg *config.Config) []string {
	list := func(values []string) string { return "[" + strings.Join(values, ", ") + "]" }
	return []string{
		fmt.Sprintf("%s: %s", config.KeyInputWorkbook, cfg.Input.Workbook),
		fmt.Sprintf("%s: %s", config.KeyInputFormat, cfg.Input.Format),
		fmt.Sprintf("%s: %s", config.KeyInputTaskMapFile, cfg.Input.TaskMapFile),
		fmt.Sprintf("%s: %s", config.KeyInputRevenueFile, cfg.Input.RevenueFile),
		fmt.Sprintf("%s: %s", config.KeyInputTimesheetFile, cfg.Input.TimesheetFile),
		fmt.Sprintf("%s: %s", config.KeyInputQuotationFile, cfg.Input.QuotationFile),
		fmt.Sprintf("%s: %s", config.KeySheetRevenue, cfg.Input.Sheets.Revenue),
		fmt.Sprintf("%s: %s", config.KeySheetTimesheet, cfg.Input.Sheets.Timesheet),
		fmt.Sprintf("%s: %s", config.KeySheetQuotation, cfg.Input.Sheets.Quotation),
		fmt.Sprintf("%s: %s", config.KeyExclusionValues, list(cfg.Exclusions.TruthyValues)),
		fmt.Sprintf("%s: %s", config.KeyBillableValues, list(cfg.Timesheet.BillableValues)),
		fmt.Sprintf("%s: %s", config.KeyOnshoreValues, list(cfg.Timesheet.OnshoreValues)),
		fmt.Sprintf("%s: %s", config.KeyUnallocatedTaskName, cfg.Allocation.UnallocatedTaskName),
		fmt.Sprintf("%s: %g", config.KeyRevenueTolerance, cfg.Allocation.RevenueTolerance),
		fmt.Sprintf("%s: %s", config.KeyMonthsStart, cfg.Months.Start),
		fmt.Sprintf("%s: %s", config.KeyMonthsEnd, cfg.Months.End),
		fmt.Sprintf("%s: %d", config.KeyFiscalYearStartMonth, cfg.Months.FiscalYearStartMonth),
		fmt.Sprintf("%s: %d", config.KeySuggestionLimit, cfg.QA.SuggestionLimit),
		fmt.Sprintf("%s: %d", config.KeyTopN, cfg.QA.TopN),
		fmt.Sprintf("%s: %s", config.KeyOutputDir, cfg.Output.Dir),
		fmt.Sprintf("%s: %s", config.KeyOutputDB, cfg.Output.DB),
		fmt.Sprintf("%s: %s", config.KeyOutputFormats, list(cfg.Output.Formats)),
		fmt.Sprintf("%s: %d", config.KeyWorkers, cfg.Workers),
	}
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
