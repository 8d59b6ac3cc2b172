package importer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var ErrMissingSheet = errors.New("missing sheet")

type Reader interface {
	Read(path string) (*Table, error)
}

// ReaderForFormat returns a reader for format. Excel readers use sheet, or
// the first sheet when sheet is empty.
func ReaderForFormat(format, sheet string) (Reader, error) {
	switch normalizeHeader(format) {
	case "csv":
		return &CSVReader{}, nil
	case "tsv", "tab":
		return &CSVReader{Comma: '\t'}, nil
	case "excel", "xlsx", "xlsm":
		return &ExcelReader{Sheet: sheet}, nil
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

func inferFormat(path string, format string) (string, error) {
	if strings.TrimSpace(format) != "" {
		return format, nil
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch extension {
	case "csv":
		return "csv", nil
	case "tsv", "tab":
		return "tsv", nil
	case "xlsx", "xlsm":
		return "excel", nil
	default:
		return "", fmt.Errorf("unsupported file extension for %s", path)
	}
}
