package reconcile

import (
	"cmp"
	"slices"
	"strings"
)

// SortKeys lists the accepted Query.SortKey values.
var SortKeys = []string{
	"date", "script", "ndc", "drug", "qty", "rate", "method", "expected",
	"total_paid", "new_paid", "difference", "updated_difference", "bin",
	"payer", "status",
}

func newPaidOrZero(r Row) float64 {
	if r.NewPaid == nil {
		return 0
	}
	return *r.NewPaid
}

func compareBy(key string) func(a, b Row) int {
	switch key {
	case "script":
		return func(a, b Row) int { return cmp.Compare(a.Script, b.Script) }
	case "ndc":
		return func(a, b Row) int { return cmp.Compare(a.NDC, b.NDC) }
	case "drug":
		return func(a, b Row) int { return cmp.Compare(strings.ToLower(a.Drug), strings.ToLower(b.Drug)) }
	case "qty":
		return func(a, b Row) int { return cmp.Compare(a.Qty, b.Qty) }
	case "rate":
		return func(a, b Row) int { return cmp.Compare(a.Rate, b.Rate) }
	case "method":
		return func(a, b Row) int { return cmp.Compare(a.Method.String(), b.Method.String()) }
	case "expected":
		return func(a, b Row) int { return cmp.Compare(a.Expected, b.Expected) }
	case "total_paid":
		return func(a, b Row) int { return cmp.Compare(a.TotalPaid, b.TotalPaid) }
	case "new_paid":
		return func(a, b Row) int { return cmp.Compare(newPaidOrZero(a), newPaidOrZero(b)) }
	case "difference":
		return func(a, b Row) int { return cmp.Compare(a.Difference, b.Difference) }
	case "updated_difference":
		return func(a, b Row) int { return cmp.Compare(a.UpdatedDifference, b.UpdatedDifference) }
	case "bin":
		return func(a, b Row) int { return cmp.Compare(a.BIN, b.BIN) }
	case "payer":
		return func(a, b Row) int { return cmp.Compare(a.Payer, b.Payer) }
	case "status":
		return func(a, b Row) int { return cmp.Compare(a.Status, b.Status) }
	default:
		return func(a, b Row) int { return a.Date.Compare(b.Date) }
	}
}

// sortRows orders rows by key, breaking ties by script ascending.
func sortRows(rows []Row, key string, desc bool) {
	by := compareBy(key)
	slices.SortStableFunc(rows, func(a, b Row) int {
		c := by(a, b)
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
		return cmp.Compare(a.Script, b.Script)
	})
}
