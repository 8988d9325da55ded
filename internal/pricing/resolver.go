// Package pricing resolves the expected per-unit reimbursement rate for a
// drug from the AAC baseline table, falling back to WAC-derived rates.
package pricing

import (
	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
)

// BrandDiscount is applied to WAC for brand drugs (generic indicator "N").
const BrandDiscount = 0.96

// Quote is a resolved rate together with the rule that produced it.
type Quote struct {
	Rate     float64
	Method   model.PricingMethod
	FixedFee float64
}

// Expected is qty units at Rate plus the fixed dispensing fee.
func (q Quote) Expected(qty float64) float64 {
	return qty*q.Rate + q.FixedFee
}

// Resolver is a pure lookup over in-memory snapshots of the reference
// tables. It is safe for concurrent use once built.
type Resolver struct {
	baseline map[string]float64
	alt      map[string]model.AltRate
}

// NewResolver indexes the reference rows by NDC. When a table holds the same
// NDC twice the first row wins.
func NewResolver(baseline []model.PricingBaseline, alt []model.AltRate) *Resolver {
	r := &Resolver{
		baseline: make(map[string]float64, len(baseline)),
		alt:      make(map[string]model.AltRate, len(alt)),
	}
	for _, b := range baseline {
		if _, ok := r.baseline[b.NDC]; !ok {
			r.baseline[b.NDC] = b.AAC
		}
	}
	for _, a := range alt {
		if _, ok := r.alt[a.NDC]; !ok {
			r.alt[a.NDC] = a
		}
	}
	return r
}

// Resolve applies the precedence AAC, then WAC fallback, then unresolved.
// A baseline entry wins even when its AAC is zero.
func (r *Resolver) Resolve(ndc string, fixedFee float64) Quote {
	if aac, ok := r.baseline[ndc]; ok {
		return Quote{Rate: aac, Method: model.MethodAAC, FixedFee: fixedFee}
	}
	if a, ok := r.alt[ndc]; ok && a.PkgSize > 0 && a.PkgSizeMult > 0 && a.WAC > 0 {
		units := a.PkgSize * a.PkgSizeMult
		if normalize.UpperTrim(a.GenericIndicator) == "N" {
			return Quote{Rate: a.WAC * BrandDiscount / units, Method: model.MethodWACBrandFallback, FixedFee: fixedFee}
		}
		return Quote{Rate: a.WAC / units, Method: model.MethodWACGenericFallback, FixedFee: fixedFee}
	}
	return Quote{Method: model.MethodUnresolved, FixedFee: fixedFee}
}
