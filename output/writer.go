package output

import (
	"fmt"
	"strings"
)

// Table is a header row plus data rows. Cells hold string, bool, int,
// float64 or decimal.Decimal values; each writer formats them natively.
type Table struct {
	Headers []string
	Rows    [][]any
}

type Writer interface {
	Write(path string, table Table) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

// column extracts one output field from a row of type T.
type column[T any] struct {
	name  string
	value func(T) any
}

func buildTable[T any](columns []column[T], rows []T) Table {
	table := Table{
		Headers: make([]string, len(columns)),
		Rows:    make([][]any, 0, len(rows)),
	}
	for i, col := range columns {
		table.Headers[i] = col.name
	}
	for _, row := range rows {
		values := make([]any, len(columns))
		for i, col := range columns {
			values[i] = col.value(row)
		}
		table.Rows = append(table.Rows, values)
	}
	return table
}
