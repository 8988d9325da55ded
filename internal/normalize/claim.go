package normalize

import (
	"github.com/gyeh/owedbook/internal/model"
)

// ClaimFromRow builds a normalized claim from one data row. idx maps
// canonical field names to column positions; absent fields default to empty
// or zero. ok is false when the row has no usable dispense date (or no
// script at all) and must be dropped.
func ClaimFromRow(row []string, idx map[string]int) (c model.Claim, ok bool) {
	c = model.Claim{
		Script:        CleanText(cell(row, idx, model.FieldScript)),
		DateDispensed: NormalizeDate(cell(row, idx, model.FieldDateDispensed)),
		DrugNDC:       DigitsOnly(cell(row, idx, model.FieldDrugNDC)),
		DrugName:      CleanText(cell(row, idx, model.FieldDrugName)),
		Qty:           CleanNumeric(cell(row, idx, model.FieldQty)),
		TotalPaid:     CleanNumeric(cell(row, idx, model.FieldTotalPaid)),
		BIN:           CleanText(cell(row, idx, model.FieldBIN)),
		Status:        model.StatusUntouched,
	}
	return c, c.Script != "" && !c.DateDispensed.IsZero()
}

func cell(row []string, idx map[string]int, field string) string {
	pos, ok := idx[field]
	if !ok || pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}
