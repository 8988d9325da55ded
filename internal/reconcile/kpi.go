package reconcile

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/gyeh/owedbook/internal/model"
)

// KPIs are the headline figures for a filtered row set. Commercial figures
// exclude Federal rows; the *All figures include them.
type KPIs struct {
	UnderpaidTotal         float64 `json:"underpaidTotal"`
	ScriptCount            int     `json:"scriptCount"`
	UpdatedDifferenceTotal float64 `json:"updatedDifferenceTotal"`
	Owed                   float64 `json:"owed"`

	ScriptsAll        int     `json:"scriptsAll"`
	UnderpaidAll      float64 `json:"underpaidAll"`
	OwedNetCommercial float64 `json:"owedNetCommercial"`
	OwedNetAll        float64 `json:"owedNetAll"`
}

// ComputeKPIs aggregates rows. Sums are accumulated in decimal and rounded
// to cents.
func ComputeKPIs(rows []Row) KPIs {
	var (
		underCom, underAll   decimal.Decimal
		netCom, netAll       decimal.Decimal
		updatedCom           decimal.Decimal
		scriptsCom, scriptsA = map[string]struct{}{}, map[string]struct{}{}
	)
	for _, r := range rows {
		diff := decimal.NewFromFloat(r.Difference)
		scriptsA[r.Script] = struct{}{}
		netAll = netAll.Sub(diff)
		if r.Difference < 0 {
			underAll = underAll.Sub(diff)
		}
		if !r.Commercial() {
			continue
		}
		scriptsCom[r.Script] = struct{}{}
		netCom = netCom.Sub(diff)
		if r.Difference < 0 {
			underCom = underCom.Sub(diff)
		}
		updatedCom = updatedCom.Add(decimal.NewFromFloat(r.UpdatedDifference))
	}
	return KPIs{
		UnderpaidTotal:         cents(underCom),
		ScriptCount:            len(scriptsCom),
		UpdatedDifferenceTotal: cents(updatedCom),
		Owed:                   cents(underCom.Sub(updatedCom)),
		ScriptsAll:             len(scriptsA),
		UnderpaidAll:           cents(underAll),
		OwedNetCommercial:      cents(netCom),
		OwedNetAll:             cents(netAll),
	}
}

func cents(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// SummaryLine is one payer's difference sum. Exactly one of Commercial and
// Federal is non-zero on a payer line; the total line carries both.
type SummaryLine struct {
	Payer      string  `json:"payer"`
	Commercial float64 `json:"commercial"`
	Federal    float64 `json:"federal"`
}

// PayerSummary groups difference sums by payer name.
type PayerSummary struct {
	Lines []SummaryLine `json:"lines"`
	Total SummaryLine   `json:"total"`
}

// TotalLabel names the grand total line.
const TotalLabel = "Total"

// Summarize sums Difference per payer, rounding each payer to cents. The
// commercial total is the sum of the rounded payer values so the printed
// column adds up.
func Summarize(rows []Row) PayerSummary {
	sums := make(map[string]decimal.Decimal)
	for _, r := range rows {
		sums[r.Payer] = sums[r.Payer].Add(decimal.NewFromFloat(r.Difference))
	}

	names := make([]string, 0, len(sums))
	for name := range sums {
		names = append(names, name)
	}
	sort.Strings(names)

	out := PayerSummary{Total: SummaryLine{Payer: TotalLabel}}
	var comTotal, fedTotal decimal.Decimal
	for _, name := range names {
		rounded := sums[name].Round(2)
		line := SummaryLine{Payer: name}
		if name == model.FederalPayer {
			line.Federal = rounded.InexactFloat64()
			fedTotal = fedTotal.Add(rounded)
		} else {
			line.Commercial = rounded.InexactFloat64()
			comTotal = comTotal.Add(rounded)
		}
		out.Lines = append(out.Lines, line)
	}
	out.Total.Commercial = comTotal.InexactFloat64()
	out.Total.Federal = fedTotal.InexactFloat64()
	return out
}
