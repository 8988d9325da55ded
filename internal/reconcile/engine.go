// Package reconcile joins claims with reference pricing and the payer
// directory, computes per-claim differences, and aggregates KPIs and the
// payer summary. Nothing here is cached; every call reads current state.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/pricing"
)

// Source is the read side of the store the engine needs. Snapshot returns
// the claims dispensed in [start, end] and the reference tables as of one
// consistent point in time.
type Source interface {
	Snapshot(ctx context.Context, start, end time.Time) (model.Snapshot, error)
}

// Row is one claim after pricing and payer resolution.
type Row struct {
	Date              time.Time           `json:"date"`
	Script            string              `json:"script"`
	NDC               string              `json:"ndc"`
	Drug              string              `json:"drug"`
	Qty               float64             `json:"qty"`
	Rate              float64             `json:"rate"`
	Method            model.PricingMethod `json:"-"`
	Expected          float64             `json:"expected"`
	TotalPaid         float64             `json:"totalPaid"`
	NewPaid           *float64            `json:"newPaid"`
	Difference        float64             `json:"difference"`
	UpdatedDifference float64             `json:"updatedDifference"`
	BIN               string              `json:"bin"`
	Payer             string              `json:"payer"`
	Email             string              `json:"email"`
	Status            model.Status        `json:"-"`
	PDFFile           *string             `json:"pdfFile,omitempty"`
}

// Commercial reports whether the row belongs to a PBM rather than Federal.
func (r Row) Commercial() bool {
	return r.Payer != model.FederalPayer
}

// Result is a filtered, sorted and paged evaluation.
type Result struct {
	Rows    []Row        // the requested page
	Total   int          // rows matching the filters before paging
	KPIs    KPIs         // over every matching row
	Summary PayerSummary // over every matching row
}

// Engine evaluates reconciliation queries against a Source.
type Engine struct {
	src      Source
	fixedFee float64
	log      zerolog.Logger
}

// NewEngine returns an engine adding fixedFee to every expected payment.
func NewEngine(src Source, fixedFee float64, log zerolog.Logger) *Engine {
	return &Engine{src: src, fixedFee: fixedFee, log: log}
}

// Evaluate returns every row matching q, sorted, without paging.
func (e *Engine) Evaluate(ctx context.Context, q Query) ([]Row, error) {
	start, end := q.bounds()
	snap, err := e.src.Snapshot(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	claims := snap.Claims

	resolver := pricing.NewResolver(snap.Baseline, snap.AltRates)
	directory := indexPayers(snap.Payers)

	rows := make([]Row, 0, len(claims))
	for _, c := range claims {
		r := e.price(c, resolver, directory)
		if q.matches(r) {
			rows = append(rows, r)
		}
	}
	sortRows(rows, q.SortKey, q.SortDesc)

	e.log.Debug().
		Int("claims", len(claims)).
		Int("matched", len(rows)).
		Str("payer", q.Payer).
		Str("owed", string(q.Owed)).
		Msg("reconciliation evaluated")
	return rows, nil
}

// Run evaluates q and aggregates KPIs and the payer summary over the full
// matching set before slicing out the requested page.
func (e *Engine) Run(ctx context.Context, q Query) (*Result, error) {
	rows, err := e.Evaluate(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Result{
		Rows:    q.page(rows),
		Total:   len(rows),
		KPIs:    ComputeKPIs(rows),
		Summary: Summarize(rows),
	}, nil
}

func (e *Engine) price(c model.Claim, resolver *pricing.Resolver, directory map[string]model.PayerEntry) Row {
	quote := resolver.Resolve(c.DrugNDC, e.fixedFee)
	expected := quote.Expected(c.Qty)

	payer, email := model.FederalPayer, ""
	if p, ok := directory[c.BIN]; ok {
		payer, email = p.PBMName, p.Email
	}

	var updated float64
	if c.NewPaid != nil {
		updated = *c.NewPaid - c.TotalPaid
	}

	return Row{
		Date:              c.DateDispensed,
		Script:            c.Script,
		NDC:               c.DrugNDC,
		Drug:              c.DrugName,
		Qty:               c.Qty,
		Rate:              quote.Rate,
		Method:            quote.Method,
		Expected:          expected,
		TotalPaid:         c.TotalPaid,
		NewPaid:           c.NewPaid,
		Difference:        c.TotalPaid - expected,
		UpdatedDifference: updated,
		BIN:               c.BIN,
		Payer:             payer,
		Email:             email,
		Status:            c.Status,
		PDFFile:           c.PDFFile,
	}
}

// indexPayers keys the directory by BIN; the first entry for a BIN wins.
func indexPayers(payers []model.PayerEntry) map[string]model.PayerEntry {
	m := make(map[string]model.PayerEntry, len(payers))
	for _, p := range payers {
		if _, ok := m[p.BIN]; !ok {
			m[p.BIN] = p
		}
	}
	return m
}

// PayerNames returns the distinct PBM names in directory order, for filter
// pickers. Federal is not included.
func PayerNames(payers []model.PayerEntry) []string {
	seen := make(map[string]struct{}, len(payers))
	var names []string
	for _, p := range payers {
		if p.PBMName == "" {
			continue
		}
		if _, ok := seen[p.PBMName]; ok {
			continue
		}
		seen[p.PBMName] = struct{}{}
		names = append(names, p.PBMName)
	}
	return names
}
