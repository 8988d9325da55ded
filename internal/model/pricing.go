package model

// PricingBaseline is one row of the authoritative AAC table.
type PricingBaseline struct {
	NDC string
	AAC float64
}

// AltRate is one row of the WAC-derived fallback table.
type AltRate struct {
	NDC              string
	WAC              float64
	PkgSize          float64
	PkgSizeMult      float64
	GenericIndicator string
}

// PricingMethod records which rule produced a claim's unit rate.
type PricingMethod int

const (
	MethodUnresolved PricingMethod = iota
	MethodAAC
	MethodWACBrandFallback
	MethodWACGenericFallback
)

func (m PricingMethod) String() string {
	switch m {
	case MethodAAC:
		return "AAC"
	case MethodWACBrandFallback:
		return "0.96*WAC/(pkg_size*pkg_size_mult)"
	case MethodWACGenericFallback:
		return "WAC/(pkg_size*pkg_size_mult)"
	default:
		return ""
	}
}

// Family collapses the method into the coarse AAC/WAC grouping used by
// query filters. Unresolved rows belong to no family.
func (m PricingMethod) Family() string {
	switch m {
	case MethodAAC:
		return "AAC"
	case MethodWACBrandFallback, MethodWACGenericFallback:
		return "WAC"
	default:
		return ""
	}
}

// PayerEntry is one row of the PBM directory.
type PayerEntry struct {
	BIN     string
	PBMName string
	Email   string
}

// FederalPayer is the payer name given to claims whose BIN is not in the
// PBM directory.
const FederalPayer = "Federal"

// CopyValues returns the row in pricing_baseline COPY column order.
func (b PricingBaseline) CopyValues() []any {
	return []any{b.NDC, b.AAC}
}

// CopyValues returns the row in alt_rates COPY column order.
func (r AltRate) CopyValues() []any {
	return []any{r.NDC, r.WAC, r.PkgSize, r.PkgSizeMult, r.GenericIndicator}
}

// CopyValues returns the row in payer_directory COPY column order.
func (p PayerEntry) CopyValues() []any {
	return []any{p.BIN, p.PBMName, p.Email}
}

// Snapshot is one consistent read of the claims in a date range and the
// reference tables they are priced against.
type Snapshot struct {
	Claims   []Claim
	Baseline []PricingBaseline
	AltRates []AltRate
	Payers   []PayerEntry
}
