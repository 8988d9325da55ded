package model

// Canonical claim fields produced by header resolution.
const (
	FieldScript        = "script"
	FieldTotalPaid     = "total_paid"
	FieldDateDispensed = "date_dispensed"
	FieldDrugNDC       = "drug_ndc"
	FieldDrugName      = "drug_name"
	FieldQty           = "qty"
	FieldBIN           = "bin"
)
