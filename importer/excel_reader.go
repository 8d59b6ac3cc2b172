package importer

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExcelReader reads one sheet of a workbook. Cells are read raw, so dates
// arrive as serial day numbers and amounts without display formatting.
type ExcelReader struct {
	Sheet string
}

func (r *ExcelReader) Read(path string) (*Table, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}
	defer file.Close()

	return readSheet(file, path, r.Sheet)
}

// ReadSheets reads several sheets from one workbook, opening it once.
func (r *ExcelReader) ReadSheets(path string, sheets ...string) (map[string]*Table, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open excel file %s: %w", path, err)
	}
	defer file.Close()

	tables := make(map[string]*Table, len(sheets))
	for _, sheet := range sheets {
		table, err := readSheet(file, path, sheet)
		if err != nil {
			return nil, err
		}
		tables[sheet] = table
	}
	return tables, nil
}

func readSheet(file *excelize.File, path, sheetName string) (*Table, error) {
	if sheetName == "" {
		sheetName = file.GetSheetName(0)
		if sheetName == "" {
			return nil, fmt.Errorf("excel file has no sheets: %s", path)
		}
	} else if index, err := file.GetSheetIndex(sheetName); err != nil || index < 0 {
		return nil, fmt.Errorf("sheet %q in %s: %w", sheetName, path, ErrMissingSheet)
	}

	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheetName, err)
	}
	if len(rows) == 0 {
		return &Table{Name: sheetName}, nil
	}

	return newTable(sheetName, rows[0], rows[1:], 2), nil
}
