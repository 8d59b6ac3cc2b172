package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobprofit/config"
	"jobprofit/importer"
	"jobprofit/internal/keys"
	"jobprofit/output"
	"jobprofit/pipeline"
	"jobprofit/storage"
)

var errAllocationFailed = errors.New("build failed hard QA checks")

type buildFlags struct {
	workbook      string
	revenueFile   string
	timesheetFile string
	quotationFile string
	format        string
	taskMapFile   string
	outputDir     string
	dbPath        string
	formats       []string
	monthStart    string
	monthEnd      string
	allHistory    bool
	strict        bool
	noStore       bool
	workers       int
}

var buildOpts buildFlags

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the profitability fact table and QA report",
	Long: `Read the revenue, timesheet and quotation ledgers, allocate revenue to tasks by hours,
join quotes, and write the fact table, summaries and QA report to the output directory.

Inputs come from one workbook (one sheet per ledger, sheet names from config) or from
one file per ledger; per-ledger files win over the workbook. Flags override config values.

The build is also stored in the SQLite database so "qa" and "export" can read it later.
With --strict, a build whose allocation or key checks fail exits with an error after
writing its artifacts.`,
	Example: `
  # Build from the workbook named in config
  jobprofit build

  # Build from an explicit workbook and also write Excel and Parquet fact tables
  jobprofit build -w job_data.xlsx --formats csv,excel,parquet

  # Build from per-ledger CSV files for one fiscal year
  jobprofit build --revenue revenue.csv --timesheet timesheet.csv --quotation quotes.csv --month-start 2024-07 --month-end 2025-06

  # Ignore the configured month window
  jobprofit build --all-history --strict
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}
		applyBuildFlags(cmd, cfg, buildOpts)

		logger, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		return runBuild(ctx, cfg, buildOpts, logger)
	},
}

func runBuild(ctx context.Context, cfg *config.Config, flags buildFlags, logger *zap.Logger) error {
	source := importSource(cfg)
	if source.Workbook == "" && (source.RevenueFile == "" || source.TimesheetFile == "" || source.QuotationFile == "") {
		return fmt.Errorf("no input: set --workbook or all of --revenue, --timesheet and --quotation")
	}

	formats, err := output.ParseFormats(cfg.Output.Formats)
	if err != nil {
		return err
	}

	taskMap, err := importer.LoadTaskMap(cfg.Input.TaskMapFile)
	if err != nil {
		return err
	}

	imported, err := importer.Run(source)
	if err != nil {
		return err
	}
	logger.Info("inputs read",
		zap.Int("files", imported.FilesProcessed),
		zap.Int("revenue_rows", len(imported.Revenue)),
		zap.Int("timesheet_rows", len(imported.Timesheet)),
		zap.Int("quotation_rows", len(imported.Quotation)),
		zap.Int("task_map_rules", taskMap.Len()),
	)

	opts, err := pipelineOptions(cfg, taskMap, flags.allHistory)
	if err != nil {
		return err
	}

	result, err := pipeline.Build(ctx, pipeline.Inputs{
		Revenue:   imported.Revenue,
		Timesheet: imported.Timesheet,
		Quotation: imported.Quotation,
	}, opts, logger)
	if err != nil {
		return err
	}

	written, err := output.WriteArtifacts(cfg.Output.Dir, formats, result)
	if err != nil {
		return err
	}

	runID := ""
	if !flags.noStore {
		store, err := storage.OpenSQLite(cfg.Output.DB)
		if err != nil {
			return err
		}
		defer store.Close()

		saved, err := store.SaveBuild(storage.Build{
			Source: describeSource(source),
			Report: result.Report,
		}, result.Facts)
		if err != nil {
			return err
		}
		runID = saved.RunID
	}

	fmt.Printf("Build completed. Rows read: %d, Fact rows: %d, Revenue months outside window: %d, Files written: %d\n",
		imported.RowsRead,
		len(result.Facts),
		result.RevenueOutsideWindow,
		len(written),
	)
	if runID != "" {
		fmt.Printf("Stored build %s in %s\n", runID, cfg.Output.DB)
	}
	printReportSummary(result.Report)

	if flags.strict && !result.Report.OK() {
		return errAllocationFailed
	}
	return nil
}

func applyBuildFlags(cmd *cobra.Command, cfg *config.Config, flags buildFlags) {
	changed := cmd.Flags().Changed
	if changed("workbook") {
		cfg.Input.Workbook = flags.workbook
	}
	if changed("revenue") {
		cfg.Input.RevenueFile = flags.revenueFile
	}
	if changed("timesheet") {
		cfg.Input.TimesheetFile = flags.timesheetFile
	}
	if changed("quotation") {
		cfg.Input.QuotationFile = flags.quotationFile
	}
	if changed("format") {
		cfg.Input.Format = flags.format
	}
	if changed("task-map") {
		cfg.Input.TaskMapFile = flags.taskMapFile
	}
	if changed("output-dir") {
		cfg.Output.Dir = flags.outputDir
	}
	if changed("db") {
		cfg.Output.DB = flags.dbPath
	}
	if changed("formats") {
		cfg.Output.Formats = flags.formats
	}
	if changed("month-start") {
		cfg.Months.Start = flags.monthStart
	}
	if changed("month-end") {
		cfg.Months.End = flags.monthEnd
	}
	if changed("workers") {
		cfg.Workers = flags.workers
	}
}

func importSource(cfg *config.Config) importer.Source {
	return importer.Source{
		Workbook: strings.TrimSpace(cfg.Input.Workbook),
		Sheets: importer.Sheets{
			Revenue:   cfg.Input.Sheets.Revenue,
			Timesheet: cfg.Input.Sheets.Timesheet,
			Quotation: cfg.Input.Sheets.Quotation,
		},
		RevenueFile:   strings.TrimSpace(cfg.Input.RevenueFile),
		TimesheetFile: strings.TrimSpace(cfg.Input.TimesheetFile),
		QuotationFile: strings.TrimSpace(cfg.Input.QuotationFile),
		Format:        cfg.Input.Format,
	}
}

func pipelineOptions(cfg *config.Config, taskMap keys.TaskMap, allHistory bool) (pipeline.Options, error) {
	start, end, err := cfg.MonthWindow()
	if err != nil {
		return pipeline.Options{}, err
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return pipeline.Options{}, fmt.Errorf("month window end %s is before start %s", cfg.Months.End, cfg.Months.Start)
	}

	return pipeline.Options{
		TaskMap:              taskMap,
		ExclusionValues:      cfg.Exclusions.TruthyValues,
		BillableValues:       cfg.Timesheet.BillableValues,
		OnshoreValues:        cfg.Timesheet.OnshoreValues,
		UnallocatedTaskName:  cfg.Allocation.UnallocatedTaskName,
		RevenueTolerance:     cfg.Allocation.RevenueTolerance,
		MonthStart:           start,
		MonthEnd:             end,
		AllHistory:           allHistory,
		FiscalYearStartMonth: time.Month(cfg.Months.FiscalYearStartMonth),
		SuggestionLimit:      cfg.QA.SuggestionLimit,
		TopN:                 cfg.QA.TopN,
		Workers:              cfg.Workers,
	}, nil
}

func describeSource(source importer.Source) string {
	if source.RevenueFile != "" && source.TimesheetFile != "" && source.QuotationFile != "" {
		return strings.Join([]string{source.RevenueFile, source.TimesheetFile, source.QuotationFile}, ",")
	}
	return source.Workbook
}

func init() {
	rootCmd.AddCommand(buildCmd)

	flags := buildCmd.Flags()
	flags.StringVarP(&buildOpts.workbook, "workbook", "w", "", "Workbook with one sheet per ledger")
	flags.StringVar(&buildOpts.revenueFile, "revenue", "", "Revenue ledger file (overrides the workbook sheet)")
	flags.StringVar(&buildOpts.timesheetFile, "timesheet", "", "Timesheet ledger file (overrides the workbook sheet)")
	flags.StringVar(&buildOpts.quotationFile, "quotation", "", "Quotation ledger file (overrides the workbook sheet)")
	flags.StringVarP(&buildOpts.format, "format", "f", "", "Input format: csv|tsv|excel (optional, inferred from extension when omitted)")
	flags.StringVar(&buildOpts.taskMapFile, "task-map", "", "Task map CSV with job_no, from_task, to_task columns")
	flags.StringVarP(&buildOpts.outputDir, "output-dir", "o", "", "Directory for the fact table, summaries and QA report")
	flags.StringVar(&buildOpts.dbPath, "db", "", "Path to the SQLite build store")
	flags.StringSliceVar(&buildOpts.formats, "formats", nil, "Output formats: csv,excel,parquet,yaml")
	flags.StringVar(&buildOpts.monthStart, "month-start", "", "First revenue month to allocate, e.g. 2024-07")
	flags.StringVar(&buildOpts.monthEnd, "month-end", "", "Last revenue month to allocate, e.g. 2025-06")
	flags.BoolVar(&buildOpts.allHistory, "all-history", false, "Ignore the month window and allocate every revenue month")
	flags.BoolVar(&buildOpts.strict, "strict", false, "Exit with an error when allocation or key checks fail")
	flags.BoolVar(&buildOpts.noStore, "no-store", false, "Skip saving the build to the SQLite store")
	flags.IntVar(&buildOpts.workers, "workers", 0, "Timesheet aggregation workers (0 uses config)")
}
