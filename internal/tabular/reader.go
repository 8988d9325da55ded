// Package tabular reads delimited text, spreadsheet, and Parquet files into
// a uniform header-plus-rows table of strings.
package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupported is returned for file extensions no reader handles.
var ErrUnsupported = errors.New("unsupported file type")

// Table is a fully read input file. Rows may be shorter than Headers.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Open reads the file at path, choosing a reader by extension.
func Open(path string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		t   *Table
		err error
	)
	switch ext {
	case ".csv", ".txt":
		t, err = readDelimited(path, ',')
	case ".tsv":
		t, err = readDelimited(path, '\t')
	case ".xlsx", ".xlsm":
		t, err = readWorkbook(path)
	case ".parquet":
		t, err = readParquet(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}
	if err != nil {
		return nil, err
	}
	if len(t.Headers) == 0 {
		return nil, fmt.Errorf("read %s: no header row", filepath.Base(path))
	}
	return t, nil
}
