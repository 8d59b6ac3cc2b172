package importer

import (
	"strings"
	"unicode"
)

type Record struct {
	RowNumber int
	Values    map[string]string
}

// Get returns the trimmed value of the first key present in the record.
func (r Record) Get(keys ...string) string {
	for _, key := range keys {
		normalized := normalizeHeader(key)
		if value, ok := r.Values[normalized]; ok {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// Table is one sheet or file: its normalised headers and data rows.
type Table struct {
	Name    string
	Headers []string
	Records []Record
}

// Has reports whether any of keys is a column of the table.
func (t *Table) Has(keys ...string) bool {
	for _, key := range keys {
		normalized := normalizeHeader(key)
		for _, header := range t.Headers {
			if header == normalized {
				return true
			}
		}
	}
	return false
}

// normalizeHeader lower-cases and drops everything but letters and digits,
// so "[Job] Job No." and "job_job_no" compare equal.
func normalizeHeader(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func newTable(name string, headerRow []string, rows [][]string, firstRowNumber int) *Table {
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = normalizeHeader(header)
	}

	table := &Table{Name: name, Headers: headers, Records: make([]Record, 0, len(rows))}
	for i, row := range rows {
		if isBlankRow(row) {
			continue
		}
		values := make(map[string]string, len(headers))
		for col, header := range headers {
			if header == "" {
				continue
			}
			if _, exists := values[header]; exists {
				continue
			}
			if col < len(row) {
				values[header] = row[col]
			} else {
				values[header] = ""
			}
		}
		table.Records = append(table.Records, Record{RowNumber: firstRowNumber + i, Values: values})
	}
	return table
}

func isBlankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
