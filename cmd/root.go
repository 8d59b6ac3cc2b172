/*
Copyright © 2025 riad@rsworld.eu

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jobprofit/config"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jobprofit",
	Short: "Build a job/task/month profitability fact table from revenue, timesheet and quotation ledgers.",
	Long: `
**********************************************
*              JOB PROFIT                    *
**********************************************

This CLI reads monthly revenue, timesheet and quotation ledgers (one Excel workbook
or one file per ledger), allocates each job-month's revenue to tasks by hours,
joins the quotes, and publishes a fact table plus a QA report.

Every build is stored in a local SQLite database so reports and fact tables can be
inspected and exported later.

Supported input formats:
- Excel: .xlsx, .xlsm
- CSV: .csv
- TSV: .tsv, .tab
`,
	Example: `
  # Create configuration file
  jobprofit config create

  # Build from one workbook
  jobprofit build -w job_data.xlsx

  # Build from per-ledger CSV files with a task map, failing on allocation drift
  jobprofit build --revenue revenue.csv --timesheet timesheet.csv --quotation quotes.csv --task-map task_map.csv --strict

  # Print the QA report of the latest build
  jobprofit qa

  # Export the fact table of the latest build to Excel
  jobprofit export --mode facts --output ./facts.xlsx
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	config.SetDefaults()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "configFile", "", "Config file override (default discovery: $HOME/.jobprofit.yaml, then ./.jobprofit.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log pipeline progress at debug level")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if !requiresConfig(cmd) {
			return nil
		}

		_, err := config.LoadAndValidate()
		return err
	}
}

func requiresConfig(cmd *cobra.Command) bool {
	return cmd != nil && cmd.Name() == "build"
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".jobprofit" (without extension).
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".jobprofit")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintln(os.Stderr, "No config file found. Using defaults; create one with: jobprofit config create")
	}
}

// newLogger writes warnings to stderr in console format. --verbose switches
// to the development config.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	return cfg.Build()
}
