package cmd

import "github.com/spf13/cobra"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage jobprofit configuration file values.",
	Long: `Create, edit, display, and delete the jobprofit configuration file.

The configuration stores input locations and build settings:
- input.workbook / input.sheets.* / input.*_file / input.task_map_file
- exclusions.truthy_values, timesheet.billable_values / onshore_values
- allocation.unallocated_task_name / revenue_tolerance
- months.start / end / fiscal_year_start_month
- qa.suggestion_limit / top_n, output.dir / db / formats, workers`,
	Example: `
  # Create default config in $HOME/.jobprofit.yaml
  jobprofit config create

  # Create config pointing at a workbook, fiscal year starting in April
  jobprofit config create --workbook fy25.xlsx --fiscal-start 4

  # Show active config and source file
  jobprofit config show

  # Open active config in editor (creates example if missing)
  jobprofit config edit

  # Delete active config file
  jobprofit config delete
`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
