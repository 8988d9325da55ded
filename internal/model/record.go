package model

// ClaimRecord is the flat, parquet-tagged form of a claim used for fixture
// files. Column names match the headers a pharmacy export would carry.
type ClaimRecord struct {
	Script        string   `parquet:"Script"`
	TotalPaid     float64  `parquet:"Total Paid"`
	DateDispensed string   `parquet:"Date Dispensed"`
	DrugNDC       *string  `parquet:"Drug NDC,optional"`
	DrugName      *string  `parquet:"Drug Name,optional"`
	Qty           *float64 `parquet:"Qty,optional"`
	BIN           *string  `parquet:"BIN,optional"`
}

// RecordFromClaim flattens c. Empty optional fields become nulls.
func RecordFromClaim(c Claim) ClaimRecord {
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	r := ClaimRecord{
		Script:        c.Script,
		TotalPaid:     c.TotalPaid,
		DateDispensed: c.DateDispensed.Format("2006-01-02"),
		DrugNDC:       opt(c.DrugNDC),
		DrugName:      opt(c.DrugName),
		BIN:           opt(c.BIN),
	}
	if c.Qty != 0 {
		q := c.Qty
		r.Qty = &q
	}
	return r
}
