package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"jobprofit/config"
	"jobprofit/ledger"
	"jobprofit/output"
	"jobprofit/reconcile"
	"jobprofit/storage"
)

var (
	qaDBPath string
	qaRunID  string
	qaPrint  string
	qaOutput string
	qaStrict bool
	qaList   bool
)

var qaCmd = &cobra.Command{
	Use:   "qa",
	Short: "Show the QA report of a stored build",
	Long: `Load a stored build from the SQLite database and print its QA report.

The report covers revenue conservation per job-month, fact key uniqueness, timesheet
data-quality tallies, unmatched task names with suggestions, and department diagnostics.
Without --run, the latest build is used.`,
	Example: `
  # Summary of the latest build
  jobprofit qa

  # List stored builds, newest first
  jobprofit qa --list

  # Full YAML report of one build
  jobprofit qa --run 6f1c... --print yaml

  # Save the report and fail when hard checks failed
  jobprofit qa --output ./qa_report.json --strict
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.OpenSQLite(resolveDBPath(qaDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		if qaList {
			return listBuilds(store)
		}

		build, err := loadBuild(store, qaRunID)
		if err != nil {
			return err
		}

		fmt.Printf("Build %s created %s from %s (%d fact rows)\n",
			build.RunID,
			build.CreatedAt.Format("2006-01-02 15:04:05"),
			build.Source,
			build.FactRows,
		)

		switch mode := strings.ToLower(strings.TrimSpace(qaPrint)); mode {
		case "", "summary":
			printReportSummary(build.Report)
		case "json", "yaml", "yml":
			data, err := output.EncodeReport(build.Report, mode)
			if err != nil {
				return err
			}
			if _, err := os.Stdout.Write(data); err != nil {
				return fmt.Errorf("print report: %w", err)
			}
		default:
			return fmt.Errorf("unsupported print mode: %s (supported: summary, json, yaml)", qaPrint)
		}

		if qaOutput != "" {
			if err := output.WriteReport(qaOutput, build.Report); err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", qaOutput)
		}

		if qaStrict && !build.Report.OK() {
			return errAllocationFailed
		}
		return nil
	},
}

func loadBuild(store *storage.SQLiteStore, runID string) (storage.Build, error) {
	if strings.TrimSpace(runID) != "" {
		build, ok, err := store.GetBuild(runID)
		if err != nil {
			return storage.Build{}, err
		}
		if !ok {
			return storage.Build{}, fmt.Errorf("%w: %s", storage.ErrBuildNotFound, runID)
		}
		return build, nil
	}

	build, ok, err := store.LatestBuild()
	if err != nil {
		return storage.Build{}, err
	}
	if !ok {
		return storage.Build{}, fmt.Errorf("no stored builds; run \"jobprofit build\" first")
	}
	return build, nil
}

func listBuilds(store *storage.SQLiteStore) error {
	builds, err := store.ListBuilds()
	if err != nil {
		return err
	}
	if len(builds) == 0 {
		fmt.Println("No stored builds.")
		return nil
	}
	for _, build := range builds {
		fmt.Printf("%s  %s  facts=%d  allocation_ok=%t  unique_keys_ok=%t  %s\n",
			build.RunID,
			build.CreatedAt.Format("2006-01-02 15:04:05"),
			build.FactRows,
			build.AllocationOK,
			build.UniqueKeysOK,
			build.Source,
		)
	}
	return nil
}

func printReportSummary(report *reconcile.Report) {
	if report == nil {
		return
	}
	fmt.Printf("Allocation: ok=%t, groups checked: %d, max delta: %.4f, tolerance: %.4f\n",
		report.AllocationOK,
		report.AllocationGroupsChecked,
		report.AllocationMaxDelta,
		report.RevenueTolerance,
	)
	fmt.Printf("Keys: unique=%t, duplicates: %d\n", report.UniqueKeysOK, len(report.DuplicateKeys))
	fmt.Printf("Timesheet groups: missing base rate: %d, negative hours: %d\n",
		report.MissingBaseRateGroups,
		report.NegativeHoursGroups,
	)
	fmt.Printf("Unmatched timesheet tasks: %d, suggestions: %d\n",
		report.UnmatchedTimesheetTasks,
		len(report.TaskMatchSuggestions),
	)
	statuses := make([]string, 0, len(ledger.DeptStatuses))
	for _, status := range ledger.DeptStatuses {
		statuses = append(statuses, fmt.Sprintf("%s=%d", status, report.DeptStatusCounts[string(status)]))
	}
	fmt.Printf("Departments: %s, mixed department hours share: %.2f%%\n",
		strings.Join(statuses, " "),
		report.MixedDepartmentShareHours*100,
	)
}

const defaultDBPath = "jobprofit.db"

// resolveDBPath prefers the flag, then output.db from config.
func resolveDBPath(flagValue string) string {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue
	}
	cfg, err := config.LoadAndValidate()
	if err != nil {
		return defaultDBPath
	}
	return cfg.Output.DB
}

func init() {
	rootCmd.AddCommand(qaCmd)

	qaCmd.Flags().StringVar(&qaDBPath, "db", "", "Path to the SQLite build store (default from config)")
	qaCmd.Flags().StringVar(&qaRunID, "run", "", "Build run ID (default: latest build)")
	qaCmd.Flags().StringVar(&qaPrint, "print", "summary", "Print mode: summary|json|yaml")
	qaCmd.Flags().StringVarP(&qaOutput, "output", "o", "", "Also write the report to this .json or .yaml file")
	qaCmd.Flags().BoolVar(&qaList, "list", false, "List stored builds instead of printing a report")
	qaCmd.Flags().BoolVar(&qaStrict, "strict", false, "Exit with an error when allocation or key checks failed")
}
