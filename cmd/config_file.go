package cmd

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"jobprofit/config"
	"jobprofit/internal/timeutil"
)

type configSeed struct {
	workbook    string
	taskMapFile string
	outputDir   string
	fiscalStart int
}

var (
	createSeed    configSeed
	deleteConfirm bool
)

var configCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a configuration file from the example template.",
	Long: `Create a new configuration file from the example template used by "config edit".

Flags seed the most common values into the template; everything else keeps the
example defaults. An existing configuration file is never overwritten.`,
	Example: `
  # Create default config at $HOME/.jobprofit.yaml
  jobprofit config create

  # Point the template at this year's workbook with an April fiscal year
  jobprofit config create --workbook fy25.xlsx --fiscal-start 4
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		content, err := config.TemplateYAML(createSeed.overrides())
		if err != nil {
			return fmt.Errorf("build config template: %w", err)
		}

		created, err := writeConfigIfMissing(configPath, content)
		if err != nil {
			return err
		}
		if !created {
			fmt.Printf("Config file already exists at: %s\n", configPath)
			return nil
		}
		fmt.Printf("New config file created at: %s\n", configPath)
		return nil
	},
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the active config in an editor.",
	Long: `Open the active jobprofit config file in your editor ($VISUAL, then $EDITOR, then vi).

A missing config file is created from the example template first. After the editor
exits the file is validated and the effective inputs and month window are printed.`,
	Example: `
  # Edit active config
  jobprofit config edit
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := resolveConfigPath(cfgFile, viper.ConfigFileUsed())
		if err != nil {
			return err
		}
		created, err := writeConfigIfMissing(configPath, config.ExampleYAML())
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("No config file found. Created example config at: %s\n", configPath)
		}

		editor, err := buildEditorCommand(resolveEditorValue(os.Getenv("VISUAL"), os.Getenv("EDITOR")), configPath)
		if err != nil {
			return err
		}
		editor.Stdin, editor.Stdout, editor.Stderr = os.Stdin, os.Stdout, os.Stderr
		if err := editor.Run(); err != nil {
			return fmt.Errorf("opening editor failed: %w", err)
		}

		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("reading edited config failed: %w", err)
		}
		cfg, err := config.ValidateYAMLContent(content)
		if err != nil {
			return fmt.Errorf("config validation failed in %s: %w", configPath, err)
		}

		fmt.Printf("Configuration saved and validated: %s\n", configPath)
		for _, line := range describeConfig(cfg) {
			fmt.Println("  " + line)
		}
		return nil
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the active configuration file.",
	Long: `Delete the configuration file currently selected by jobprofit.

Stored builds and written artifacts are not touched. Without --yes the command asks
for confirmation first.`,
	Example: `
  # Delete active config
  jobprofit config delete

  # Delete config at a custom path without prompting
  jobprofit --configFile ./custom-jobprofit.yaml config delete --yes
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			return fmt.Errorf("no configuration file found")
		}
		removed, err := deleteConfigFile(configPath, deleteConfirm, cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("Config delete aborted.")
			return nil
		}
		fmt.Printf("Configuration file successfully deleted: %s\n", configPath)
		return nil
	},
}

func (s configSeed) overrides() map[string]string {
	values := map[string]string{}
	if strings.TrimSpace(s.workbook) != "" {
		values[config.KeyInputWorkbook] = s.workbook
	}
	if strings.TrimSpace(s.taskMapFile) != "" {
		values[config.KeyInputTaskMapFile] = s.taskMapFile
	}
	if strings.TrimSpace(s.outputDir) != "" {
		values[config.KeyOutputDir] = s.outputDir
	}
	if s.fiscalStart != 0 {
		values[config.KeyFiscalYearStartMonth] = strconv.Itoa(s.fiscalStart)
	}
	return values
}

func resolveConfigPath(configFileFlag, configFileUsed string) (string, error) {
	if strings.TrimSpace(configFileFlag) != "" {
		return configFileFlag, nil
	}
	if strings.TrimSpace(configFileUsed) != "" {
		return configFileUsed, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".jobprofit.yaml"), nil
}

func writeConfigIfMissing(path, content string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("checking config file failed: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating config directory failed: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return false, fmt.Errorf("creating config file failed: %w", err)
	}
	return true, nil
}

func deleteConfigFile(path string, confirmed bool, input io.Reader, output io.Writer) (bool, error) {
	if !confirmed {
		ok, err := confirmDeletePrompt(input, output, "config file "+path)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("error deleting configuration file: %w", err)
	}
	return true, nil
}

func resolveEditorValue(visual, editor string) string {
	if strings.TrimSpace(visual) != "" {
		return visual
	}
	if strings.TrimSpace(editor) != "" {
		return editor
	}
	return "vi"
}

func buildEditorCommand(editorValue, configPath string) (*exec.Cmd, error) {
	fields := strings.Fields(strings.TrimSpace(editorValue))
	if len(fields) == 0 {
		return nil, fmt.Errorf("editor command is empty")
	}
	args := append(fields[1:], configPath)
	return exec.Command(fields[0], args...), nil
}

// describeConfig summarises what a build with cfg would read and write.
func describeConfig(cfg *config.Config) []string {
	lines := make([]string, 0, 4)

	in := cfg.Input
	if in.RevenueFile != "" && in.TimesheetFile != "" && in.QuotationFile != "" {
		lines = append(lines, fmt.Sprintf("Input: revenue=%s timesheet=%s quotation=%s", in.RevenueFile, in.TimesheetFile, in.QuotationFile))
	} else {
		lines = append(lines, fmt.Sprintf("Input: workbook %s (sheets %q, %q, %q)", displayOrUnset(in.Workbook), in.Sheets.Revenue, in.Sheets.Timesheet, in.Sheets.Quotation))
	}

	start, end, err := cfg.MonthWindow()
	switch {
	case err != nil:
		lines = append(lines, "Month window: invalid ("+err.Error()+")")
	case start.IsZero() && end.IsZero():
		lines = append(lines, "Month window: all history")
	case end.IsZero():
		lines = append(lines, "Month window: from "+timeutil.MonthKey(start))
	case start.IsZero():
		lines = append(lines, "Month window: through "+timeutil.MonthKey(end))
	default:
		lines = append(lines, fmt.Sprintf("Month window: %s to %s", timeutil.MonthKey(start), timeutil.MonthKey(end)))
	}

	lines = append(lines,
		"Fiscal year starts in: "+time.Month(cfg.Months.FiscalYearStartMonth).String(),
		fmt.Sprintf("Output: %s (%s), store %s", cfg.Output.Dir, strings.Join(cfg.Output.Formats, ", "), cfg.Output.DB),
	)
	return lines
}

func displayOrUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "<unset>"
	}
	return value
}

func init() {
	configCmd.AddCommand(configCreateCmd, configEditCmd, configDeleteCmd)

	configCreateCmd.Flags().StringVar(&createSeed.workbook, "workbook", "", "Workbook path to write into input.workbook")
	configCreateCmd.Flags().StringVar(&createSeed.taskMapFile, "task-map", "", "Task map CSV to write into input.task_map_file")
	configCreateCmd.Flags().StringVar(&createSeed.outputDir, "output-dir", "", "Artifact directory to write into output.dir")
	configCreateCmd.Flags().IntVar(&createSeed.fiscalStart, "fiscal-start", 0, "Fiscal year start month (1-12)")

	configDeleteCmd.Flags().BoolVarP(&deleteConfirm, "yes", "y", false, "Delete without asking for confirmation")
}
