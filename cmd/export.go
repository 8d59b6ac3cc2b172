package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"jobprofit/ledger"
	"jobprofit/output"
	"jobprofit/storage"
)

var (
	exportFormat string
	exportMode   string
	exportOutput string
	exportDBPath string
	exportRunID  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the fact table or a summary of a stored build",
	Long: `Export tables of a stored build from SQLite.

Modes:
- facts: one row per (job, task, month) with revenue, cost, quote and margin metrics
- job-month: per (job, month) revenue, cost, hours and margin
- job-total: per job totals with quote utilisation
- quote-vs-actual: per (job, task) hours and revenue against the quote

Output format can be selected explicitly via --format or inferred from --output extension.
Parquet is available for the facts mode only.`,
	Example: `
  # Export the latest fact table to CSV
  jobprofit export --mode facts --output ./facts.csv

  # Export job totals of one build to Excel
  jobprofit export --mode job-total --run 6f1c... --output ./job_totals.xlsx

  # Export facts as Parquet
  jobprofit export --mode facts --output ./facts.parquet
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(strings.TrimSpace(exportFormat))
		if format == "" {
			format = detectExportFormat(exportOutput)
		}

		store, err := storage.OpenSQLite(resolveDBPath(exportDBPath))
		if err != nil {
			return err
		}
		defer store.Close()

		build, err := loadBuild(store, exportRunID)
		if err != nil {
			return err
		}

		facts, err := store.ListFacts(build.RunID)
		if err != nil {
			return err
		}

		mode := strings.TrimSpace(strings.ToLower(exportMode))
		if format == "parquet" {
			if mode != "" && mode != "facts" {
				return fmt.Errorf("parquet export supports mode facts only")
			}
			if err := output.WriteFactsParquet(exportOutput, facts); err != nil {
				return err
			}
			fmt.Printf("Export completed. Rows: %d, Mode: facts, Format: parquet, File: %s\n", len(facts), exportOutput)
			return nil
		}

		table, err := exportTable(mode, facts)
		if err != nil {
			return err
		}

		writer, err := output.WriterForFormat(format)
		if err != nil {
			return err
		}
		if err := writer.Write(exportOutput, table); err != nil {
			return err
		}
		fmt.Printf("Export completed. Rows: %d, Mode: %s, Format: %s, File: %s\n", len(table.Rows), mode, format, exportOutput)
		return nil
	},
}

func exportTable(mode string, facts []ledger.FactRow) (output.Table, error) {
	switch mode {
	case "", "facts":
		return output.FactTable(facts), nil
	case "job-month":
		return output.JobMonthSummaryTable(output.BuildJobMonthSummaries(facts)), nil
	case "job-total":
		return output.JobTotalSummaryTable(output.BuildJobTotalSummaries(facts)), nil
	case "quote-vs-actual":
		return output.QuoteVsActualSummaryTable(output.BuildQuoteVsActualSummaries(facts)), nil
	default:
		return output.Table{}, fmt.Errorf("unsupported export mode: %s (supported: facts, job-month, job-total, quote-vs-actual)", mode)
	}
}

func detectExportFormat(path string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	switch ext {
	case "csv":
		return "csv"
	case "xlsx", "xlsm":
		return "excel"
	case "parquet":
		return "parquet"
	default:
		return "csv"
	}
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportMode, "mode", "facts", "Export mode: facts|job-month|job-total|quote-vs-actual")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel|parquet (optional, inferred from output extension)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path")
	exportCmd.Flags().StringVar(&exportDBPath, "db", "", "Path to the SQLite build store (default from config)")
	exportCmd.Flags().StringVar(&exportRunID, "run", "", "Build run ID (default: latest build)")

	_ = exportCmd.MarkFlagRequired("output")
}
