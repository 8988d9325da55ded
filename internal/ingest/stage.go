package ingest

import (
	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
)

// StageResult holds the normalized claims of one file.
type StageResult struct {
	Claims       []model.Claim
	RowsRead     int64
	RowsRejected int64 // rows without a script or a parseable date
}

// Stage normalizes every data row in file order. Rows without a usable date
// are dropped silently; blank rows are not counted.
func Stage(pf *PreflightResult) *StageResult {
	res := &StageResult{Claims: make([]model.Claim, 0, len(pf.Table.Rows))}
	for _, row := range pf.Table.Rows {
		if blank(row) {
			continue
		}
		res.RowsRead++
		c, ok := normalize.ClaimFromRow(row, pf.Resolution.Index)
		if !ok {
			res.RowsRejected++
			continue
		}
		res.Claims = append(res.Claims, c)
	}
	return res
}

func blank(row []string) bool {
	for _, v := range row {
		if normalize.CleanText(v) != "" {
			return false
		}
	}
	return true
}
