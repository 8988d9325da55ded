// Package columns maps the headers of heterogeneous import files onto the
// canonical claim and reference-table fields.
package columns

import (
	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
)

// SimilarityThreshold is the minimum ratio for a fuzzy header match.
const SimilarityThreshold = 0.7

// Alias lists the accepted header spellings for one canonical field.
type Alias struct {
	Field    string
	Names    []string
	Required bool
}

// ClaimAliases is the alias table for claim import files, in resolution order.
var ClaimAliases = []Alias{
	{Field: model.FieldScript, Required: true,
		Names: []string{"script", "prescription id", "rx number", "rx", "script id", "rx#"}},
	{Field: model.FieldTotalPaid, Required: true,
		Names: []string{"total paid", "total_paid", "paid amount", "amount paid", "payment"}},
	{Field: model.FieldDateDispensed, Required: true,
		Names: []string{"date dispensed", "dispense date", "fill date", "date of fill", "date_filled"}},
	{Field: model.FieldDrugNDC,
		Names: []string{"drug ndc", "ndc", "ndc code"}},
	{Field: model.FieldDrugName,
		Names: []string{"drug name", "medication", "product name", "drug"}},
	{Field: model.FieldQty,
		Names: []string{"qty", "quantity", "quantity billed", "amount dispensed", "dispensed quantity"}},
	{Field: model.FieldBIN,
		Names: []string{"bin"}},
}

// Resolution is the outcome of matching a header row.
type Resolution struct {
	Headers []string          // raw headers as read
	Mapping map[string]string // canonical field -> original header
	Index   map[string]int    // canonical field -> column position
	Missing []string          // required fields that did not resolve
}

// OK reports whether every required field resolved.
func (r Resolution) OK() bool {
	return len(r.Missing) == 0
}

// Resolver resolves headers against an alias table.
type Resolver struct {
	aliases   []Alias
	sim       Similarity
	threshold float64
}

// NewResolver returns a Resolver over the claim alias table. A nil sim
// selects LevenshteinRatio.
func NewResolver(sim Similarity) *Resolver {
	if sim == nil {
		sim = LevenshteinRatio{}
	}
	return &Resolver{aliases: ClaimAliases, sim: sim, threshold: SimilarityThreshold}
}

// Resolve maps headers onto canonical fields. For each field it tries, in
// order: an exact alias match on the normalized header, the best fuzzy match
// of the field name itself, then the best fuzzy match of each alias until one
// clears the threshold.
func (r *Resolver) Resolve(headers []string) Resolution {
	keys := make([]string, len(headers))
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		keys[i] = normalize.HeaderKey(h)
		if _, dup := pos[keys[i]]; !dup {
			pos[keys[i]] = i
		}
	}

	res := Resolution{
		Headers: headers,
		Mapping: make(map[string]string),
		Index:   make(map[string]int),
	}
	for _, a := range r.aliases {
		i, ok := r.find(a, keys, pos)
		if !ok {
			if a.Required {
				res.Missing = append(res.Missing, a.Field)
			}
			continue
		}
		res.Mapping[a.Field] = headers[i]
		res.Index[a.Field] = i
	}
	return res
}

func (r *Resolver) find(a Alias, keys []string, pos map[string]int) (int, bool) {
	for _, name := range a.Names {
		if i, ok := pos[name]; ok {
			return i, true
		}
	}
	if i, ok := r.closest(a.Field, keys); ok {
		return i, true
	}
	for _, name := range a.Names {
		if i, ok := r.closest(name, keys); ok {
			return i, true
		}
	}
	return -1, false
}

// closest returns the header with the highest ratio to word, provided it
// reaches the threshold. Ties go to the earliest header.
func (r *Resolver) closest(word string, keys []string) (int, bool) {
	best, bestScore := -1, 0.0
	for i, k := range keys {
		if k == "" {
			continue
		}
		if s := r.sim.Ratio(word, k); s >= r.threshold && s > bestScore {
			best, bestScore = i, s
		}
	}
	return best, best >= 0
}
