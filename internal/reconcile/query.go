package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/gyeh/owedbook/internal/model"
)

// AllPayers disables the payer filter.
const AllPayers = "All"

// OwedType selects rows by the sign of their difference.
type OwedType string

const (
	OwedAll       OwedType = "All"
	OwedUnderpaid OwedType = "Underpaid"
	OwedOverpaid  OwedType = "Overpaid"
)

// ParseOwedType accepts the display names in any case; empty means All.
func ParseOwedType(s string) (OwedType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return OwedAll, nil
	case "underpaid":
		return OwedUnderpaid, nil
	case "overpaid":
		return OwedOverpaid, nil
	}
	return OwedAll, fmt.Errorf("unknown owed type %q", s)
}

// Query describes one reconciliation request. The zero value of every filter
// field turns that filter off.
type Query struct {
	Start time.Time
	End   time.Time
	Payer string
	Owed  OwedType

	Script string // case-insensitive substring
	NDC    string // case-insensitive substring
	Drug   string // case-insensitive substring
	BIN    string // exact
	Status *model.Status
	Method string // pricing method family: AAC or WAC

	SortKey  string
	SortDesc bool
	Page     int // 1-based
	Limit    int // 0 disables paging
}

var (
	minDate = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	maxDate = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
)

// bounds fills open date ends.
func (q Query) bounds() (time.Time, time.Time) {
	start, end := q.Start, q.End
	if start.IsZero() {
		start = minDate
	}
	if end.IsZero() {
		end = maxDate
	}
	return start, end
}

func (q Query) matches(r Row) bool {
	if q.Payer != "" && q.Payer != AllPayers && r.Payer != q.Payer {
		return false
	}
	switch q.Owed {
	case OwedUnderpaid:
		if r.Difference >= 0 {
			return false
		}
	case OwedOverpaid:
		if r.Difference <= 0 {
			return false
		}
	}
	if !containsFold(r.Script, q.Script) || !containsFold(r.NDC, q.NDC) || !containsFold(r.Drug, q.Drug) {
		return false
	}
	if q.BIN != "" && r.BIN != q.BIN {
		return false
	}
	if q.Status != nil && r.Status != *q.Status {
		return false
	}
	if q.Method != "" && !strings.EqualFold(r.Method.Family(), q.Method) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// page slices rows for the requested page.
func (q Query) page(rows []Row) []Row {
	if q.Limit <= 0 {
		return rows
	}
	p := q.Page
	if p < 1 {
		p = 1
	}
	from := (p - 1) * q.Limit
	if from >= len(rows) {
		return []Row{}
	}
	to := from + q.Limit
	if to > len(rows) {
		to = len(rows)
	}
	return rows[from:to]
}
