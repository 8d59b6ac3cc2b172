package output

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"jobprofit/reconcile"
)

// WriteReport writes the QA report as JSON or YAML, chosen by the file
// extension.
func WriteReport(path string, report *reconcile.Report) error {
	data, err := EncodeReport(report, reportFormat(path))
	if err != nil {
		return fmt.Errorf("encode report %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}

// EncodeReport renders the report as indented JSON or as YAML.
func EncodeReport(report *reconcile.Report, format string) ([]byte, error) {
	if report == nil {
		return nil, fmt.Errorf("report is nil")
	}
	switch normalizeFormat(format) {
	case "yaml", "yml":
		return yaml.Marshal(report)
	case "json", "":
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", format)
	}
}

// ReadReport loads a report written by WriteReport.
func ReadReport(path string) (*reconcile.Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report %s: %w", path, err)
	}
	return DecodeReport(data, reportFormat(path))
}

func DecodeReport(data []byte, format string) (*reconcile.Report, error) {
	report := &reconcile.Report{}
	var err error
	switch normalizeFormat(format) {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, report)
	default:
		err = json.Unmarshal(data, report)
	}
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return report, nil
}

func reportFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "json"
	}
}
