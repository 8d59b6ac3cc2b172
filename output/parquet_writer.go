package output

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/xitongsys/parquet-go-source/writerfile"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"jobprofit/ledger"
)

// revenueValueColumn carries revenue_allocated as a double for tools that
// cannot read the exact decimal string.
const revenueValueColumn = "revenue_allocated_value"

// parquetSchema derives the parquet metadata from the fact columns so the
// parquet file carries the same fields as the CSV and Excel tables.
func parquetSchema(columns []column[ledger.FactRow]) ([]string, error) {
	var sample ledger.FactRow
	md := make([]string, 0, len(columns)+1)
	for _, col := range columns {
		var kind string
		switch col.value(sample).(type) {
		case string, decimal.Decimal:
			kind = "type=BYTE_ARRAY, convertedtype=UTF8"
		case int:
			kind = "type=INT32"
		case float64:
			kind = "type=DOUBLE"
		case bool:
			kind = "type=BOOLEAN"
		default:
			return nil, fmt.Errorf("no parquet type for column %s", col.name)
		}
		md = append(md, fmt.Sprintf("name=%s, %s", col.name, kind))
	}
	return append(md, fmt.Sprintf("name=%s, type=DOUBLE", revenueValueColumn)), nil
}

func parquetRecord(columns []column[ledger.FactRow], f ledger.FactRow) []interface{} {
	rec := make([]interface{}, 0, len(columns)+1)
	for _, col := range columns {
		switch v := col.value(f).(type) {
		case decimal.Decimal:
			rec = append(rec, v.String())
		case int:
			rec = append(rec, int32(v))
		default:
			rec = append(rec, v)
		}
	}
	return append(rec, f.RevenueAllocated.InexactFloat64())
}

// WriteFactsParquet writes the fact table as a snappy-compressed parquet
// file. Decimal revenue is kept as its exact string next to a double copy.
func WriteFactsParquet(path string, facts []ledger.FactRow) error {
	columns := factColumns()
	md, err := parquetSchema(columns)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create parquet file: %w", err)
	}
	fw := writerfile.NewWriterFile(file)
	pw, err := writer.NewCSVWriter(md, fw, 1)
	if err != nil {
		file.Close()
		return fmt.Errorf("parquet schema: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, f := range facts {
		if err := pw.Write(parquetRecord(columns, f)); err != nil {
			pw.WriteStop()
			file.Close()
			return fmt.Errorf("write parquet row %s/%s: %w", f.JobNo, f.TaskName, err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		file.Close()
		return fmt.Errorf("flush parquet file: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close parquet file: %w", err)
	}
	return nil
}
