package columns

import (
	"strings"

	"github.com/gyeh/owedbook/internal/normalize"
)

// Reference table fields.
const (
	RefBIN              = "bin"
	RefPBMName          = "pbm_name"
	RefEmail            = "email"
	RefNDC              = "ndc"
	RefAAC              = "aac"
	RefWAC              = "wac"
	RefPkgSize          = "pkg_size"
	RefPkgSizeMult      = "pkg_size_mult"
	RefGenericIndicator = "generic_indicator"
)

// RefColumns maps reference fields to column positions.
type RefColumns struct {
	Index   map[string]int
	Missing []string
}

// OK reports whether every required field resolved.
func (c RefColumns) OK() bool { return len(c.Missing) == 0 }

// Has reports whether field resolved.
func (c RefColumns) Has(field string) bool {
	_, ok := c.Index[field]
	return ok
}

// PayerColumns resolves a PBM directory header row. BIN and PBM name are
// required; the first header mentioning "email" supplies the address.
func PayerColumns(headers []string) RefColumns {
	return matchHeaders(headers, []refRule{
		{field: RefBIN, required: true, match: func(k string) bool { return k == "bin" }},
		{field: RefPBMName, required: true, match: func(k string) bool {
			return k == "pbm name" || k == "pbm_name" || k == "pbm"
		}},
		{field: RefEmail, match: func(k string) bool { return strings.Contains(k, "email") }},
	})
}

// BaselineColumns resolves an AAC list header row, ignoring case and spacing.
func BaselineColumns(headers []string) RefColumns {
	squash := func(k string) string {
		return strings.NewReplacer(" ", "", "_", "").Replace(k)
	}
	return matchHeaders(headers, []refRule{
		{field: RefNDC, required: true, match: func(k string) bool { return squash(k) == "ndc" }},
		{field: RefAAC, required: true, match: func(k string) bool { return squash(k) == "aac" }},
	})
}

// AltRateColumns resolves a WAC file header row by keyword. Only the NDC
// column is required; absent numeric columns read as zero.
func AltRateColumns(headers []string) RefColumns {
	return matchHeaders(headers, []refRule{
		{field: RefNDC, required: true, match: func(k string) bool {
			return strings.Contains(k, "ndc") && !strings.Contains(k, "date")
		}},
		{field: RefWAC, match: func(k string) bool { return strings.Contains(k, "wac") }},
		{field: RefPkgSize, match: func(k string) bool {
			return strings.Contains(k, "package size") && !strings.Contains(k, "multiplier")
		}},
		{field: RefPkgSizeMult, match: func(k string) bool { return strings.Contains(k, "multiplier") }},
		{field: RefGenericIndicator, match: func(k string) bool {
			return strings.Contains(k, "generic") && strings.Contains(k, "indicator")
		}},
	})
}

type refRule struct {
	field    string
	required bool
	match    func(key string) bool
}

func matchHeaders(headers []string, rules []refRule) RefColumns {
	keys := make([]string, len(headers))
	for i, h := range headers {
		keys[i] = normalize.HeaderKey(h)
	}
	cols := RefColumns{Index: make(map[string]int)}
	for _, r := range rules {
		found := false
		for i, k := range keys {
			if r.match(k) {
				cols.Index[r.field] = i
				found = true
				break
			}
		}
		if !found && r.required {
			cols.Missing = append(cols.Missing, r.field)
		}
	}
	return cols
}
