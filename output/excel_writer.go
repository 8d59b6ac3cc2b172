package output

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

type ExcelWriter struct {
	// Sheet names the data sheet; the default sheet name is kept when empty.
	Sheet string
}

func (w *ExcelWriter) Write(path string, table Table) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	if w.Sheet != "" && w.Sheet != sheet {
		if err := file.SetSheetName(sheet, w.Sheet); err != nil {
			return fmt.Errorf("rename excel sheet: %w", err)
		}
		sheet = w.Sheet
	}

	for col, header := range table.Headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, values := range table.Rows {
		row := i + 2
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, excelValue(value)); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}

func excelValue(value any) any {
	if d, ok := value.(decimal.Decimal); ok {
		return d.InexactFloat64()
	}
	return value
}
