package tabular

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

const parquetBatchSize = 1024

// readParquet reads every top-level leaf column of a Parquet file and renders
// values as strings so they flow through the same header resolution as
// spreadsheet input. Null values become "".
func readParquet(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat parquet file: %w", err)
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet: %w", err)
	}

	schema := pf.Schema()
	fields := schema.Fields()
	t := &Table{Headers: make([]string, len(fields))}
	for i, field := range fields {
		t.Headers[i] = field.Name()
	}

	reader := parquet.NewReader(pf)
	defer reader.Close()

	buf := make([]parquet.Row, parquetBatchSize)
	for {
		n, readErr := reader.ReadRows(buf)
		for _, row := range buf[:n] {
			rec := make([]string, len(fields))
			for _, v := range row {
				col := v.Column()
				if col < 0 || col >= len(rec) || v.IsNull() {
					continue
				}
				rec[col] = valueString(v)
			}
			t.Rows = append(t.Rows, rec)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("read parquet rows: %w", readErr)
		}
	}
	return t, nil
}

func valueString(v parquet.Value) string {
	switch v.Kind() {
	case parquet.Boolean:
		return strconv.FormatBool(v.Boolean())
	case parquet.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case parquet.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case parquet.Float:
		return strconv.FormatFloat(float64(v.Float()), 'f', -1, 32)
	case parquet.Double:
		return strconv.FormatFloat(v.Double(), 'f', -1, 64)
	default:
		return string(v.ByteArray())
	}
}
