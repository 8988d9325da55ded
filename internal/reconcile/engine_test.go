package reconcile

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/model"
)

type fakeSource struct {
	claims   []model.Claim
	baseline []model.PricingBaseline
	alt      []model.AltRate
	payers   []model.PayerEntry
	calls    int
	err      error
}

func (f *fakeSource) Snapshot(_ context.Context, start, end time.Time) (model.Snapshot, error) {
	f.calls++
	if f.err != nil {
		return model.Snapshot{}, f.err
	}
	snap := model.Snapshot{Baseline: f.baseline, AltRates: f.alt, Payers: f.payers}
	for _, c := range f.claims {
		if !c.DateDispensed.Before(start) && !c.DateDispensed.After(end) {
			snap.Claims = append(snap.Claims, c)
		}
	}
	return snap, nil
}

func day(d int) time.Time { return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC) }

func ptr(f float64) *float64 { return &f }

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-6 }

func fixture() *fakeSource {
	return &fakeSource{
		claims: []model.Claim{
			// expected 10*1 + 10 = 20, paid 15 -> -5
			{Script: "S1", DateDispensed: day(1), DrugNDC: "111", DrugName: "Lisinopril", Qty: 10, TotalPaid: 15, BIN: "610014"},
			// expected 10*1 + 10 = 20, paid 23 -> +3
			{Script: "S2", DateDispensed: day(2), DrugNDC: "111", DrugName: "Lisinopril", Qty: 10, TotalPaid: 23, BIN: "004336"},
			// federal, expected 100*1.152 + 10 = 125.2, paid 100 -> -25.2
			{Script: "S3", DateDispensed: day(3), DrugNDC: "222", DrugName: "Eliquis", Qty: 100, TotalPaid: 100, BIN: "999999"},
			// expected 10, paid 12, corrected to 9
			{Script: "S4", DateDispensed: day(4), DrugNDC: "777", DrugName: "Unknown", Qty: 5, TotalPaid: 12, NewPaid: ptr(9), BIN: "610014", Status: model.StatusEmailedPBM},
			{Script: "S5", DateDispensed: day(20), DrugNDC: "111", DrugName: "Lisinopril", Qty: 1, TotalPaid: 1, BIN: "610014"},
		},
		baseline: []model.PricingBaseline{{NDC: "111", AAC: 1}},
		alt:      []model.AltRate{{NDC: "222", WAC: 120, PkgSize: 100, PkgSizeMult: 1, GenericIndicator: "N"}},
		payers: []model.PayerEntry{
			{BIN: "610014", PBMName: "Express Scripts", Email: "esi@example.com"},
			{BIN: "004336", PBMName: "CVS Caremark", Email: "cvs@example.com"},
			{BIN: "610014", PBMName: "Shadowed", Email: "x@example.com"},
		},
	}
}

func scripts(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Script
	}
	return out
}

func TestEvaluateJoinsAndComputes(t *testing.T) {
	e := NewEngine(fixture(), 10, zerolog.Nop())
	rows, err := e.Evaluate(context.Background(), Query{Start: day(1), End: day(4)})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if diff := cmp.Diff([]string{"S1", "S2", "S3", "S4"}, scripts(rows)); diff != "" {
		t.Fatalf("scripts mismatch (-want +got):\n%s", diff)
	}

	s1, s3, s4 := rows[0], rows[2], rows[3]
	if !approx(s1.Difference, -5) || s1.Payer != "Express Scripts" || s1.Email != "esi@example.com" || s1.Method != model.MethodAAC {
		t.Errorf("unexpected S1 row: %+v", s1)
	}
	if s3.Payer != model.FederalPayer || s3.Email != "" || s3.Method != model.MethodWACBrandFallback || !approx(s3.Difference, -25.2) {
		t.Errorf("unexpected S3 row: %+v", s3)
	}
	if s4.Method != model.MethodUnresolved || !approx(s4.Expected, 10) || !approx(s4.UpdatedDifference, -3) {
		t.Errorf("unexpected S4 row: %+v", s4)
	}
	if s1.UpdatedDifference != 0 {
		t.Errorf("expected no updated difference without new_paid, got %v", s1.UpdatedDifference)
	}
}

func TestEvaluateReadsOneSnapshot(t *testing.T) {
	src := fixture()
	e := NewEngine(src, 10, zerolog.Nop())
	if _, err := e.Run(context.Background(), Query{}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("expected 1 snapshot read, got %d", src.calls)
	}

	src.err = errors.New("connection reset")
	if _, err := e.Evaluate(context.Background(), Query{}); !errors.Is(err, src.err) {
		t.Errorf("expected wrapped snapshot error, got %v", err)
	}
}

func TestQueryFilters(t *testing.T) {
	emailed := model.StatusEmailedPBM
	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"date_range_inclusive", Query{Start: day(2), End: day(3)}, []string{"S2", "S3"}},
		{"payer_exact", Query{Payer: "Express Scripts"}, []string{"S1", "S4", "S5"}},
		{"payer_all", Query{Payer: AllPayers, End: day(4)}, []string{"S1", "S2", "S3", "S4"}},
		{"federal", Query{Payer: model.FederalPayer}, []string{"S3"}},
		{"underpaid", Query{Owed: OwedUnderpaid}, []string{"S1", "S3", "S5"}},
		{"overpaid", Query{Owed: OwedOverpaid}, []string{"S2", "S4"}},
		{"script_substring", Query{Script: "s5"}, []string{"S5"}},
		{"drug_substring", Query{Drug: "ELIQ"}, []string{"S3"}},
		{"ndc_substring", Query{NDC: "77"}, []string{"S4"}},
		{"bin_exact", Query{BIN: "004336"}, []string{"S2"}},
		{"status", Query{Status: &emailed}, []string{"S4"}},
		{"method_wac", Query{Method: "wac"}, []string{"S3"}},
		{"sort_difference_desc", Query{End: day(4), SortKey: "difference", SortDesc: true}, []string{"S2", "S4", "S1", "S3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(fixture(), 10, zerolog.Nop())
			rows, err := e.Evaluate(context.Background(), tt.q)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if diff := cmp.Diff(tt.want, scripts(rows)); diff != "" {
				t.Errorf("scripts mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRunPaging(t *testing.T) {
	e := NewEngine(fixture(), 10, zerolog.Nop())
	res, err := e.Run(context.Background(), Query{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Total != 5 {
		t.Errorf("expected total 5, got %d", res.Total)
	}
	if diff := cmp.Diff([]string{"S3", "S4"}, scripts(res.Rows)); diff != "" {
		t.Errorf("page mismatch (-want +got):\n%s", diff)
	}
	if res.KPIs.ScriptsAll != 5 {
		t.Errorf("expected KPIs over all matching rows, got %d scripts", res.KPIs.ScriptsAll)
	}

	res, err = e.Run(context.Background(), Query{Page: 9, Limit: 2})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Errorf("expected empty page, got %v", scripts(res.Rows))
	}
}

func TestKPIScenario(t *testing.T) {
	rows := []Row{
		{Script: "A", Payer: "Express Scripts", Difference: -5.00},
		{Script: "B", Payer: "CVS Caremark", Difference: 3.00},
	}
	k := ComputeKPIs(rows)
	if k.UnderpaidTotal != 5.00 {
		t.Errorf("expected underpaid 5.00, got %v", k.UnderpaidTotal)
	}
	if k.ScriptCount != 2 {
		t.Errorf("expected 2 scripts, got %d", k.ScriptCount)
	}
	if k.Owed != 5.00 {
		t.Errorf("expected owed 5.00, got %v", k.Owed)
	}

	s := Summarize(rows)
	if s.Total.Commercial != -2.00 {
		t.Errorf("expected commercial total -2.00, got %v", s.Total.Commercial)
	}
	if s.Total.Federal != 0 {
		t.Errorf("expected federal total 0, got %v", s.Total.Federal)
	}
}

func TestKPIsExcludeFederal(t *testing.T) {
	rows := []Row{
		{Script: "A", Payer: "Express Scripts", Difference: -5, UpdatedDifference: 2},
		{Script: "A", Payer: "Express Scripts", Difference: -1},
		{Script: "F", Payer: model.FederalPayer, Difference: -7, UpdatedDifference: 4},
		{Script: "G", Payer: model.FederalPayer, Difference: 2},
	}
	want := KPIs{
		UnderpaidTotal:         6,
		ScriptCount:            1,
		UpdatedDifferenceTotal: 2,
		Owed:                   4,
		ScriptsAll:             3,
		UnderpaidAll:           13,
		OwedNetCommercial:      6,
		OwedNetAll:             11,
	}
	if diff := cmp.Diff(want, ComputeKPIs(rows)); diff != "" {
		t.Errorf("KPIs mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize(t *testing.T) {
	rows := []Row{
		{Payer: "Optum", Difference: -1.005},
		{Payer: "Optum", Difference: -2},
		{Payer: model.FederalPayer, Difference: -4.5},
		{Payer: "Caremark", Difference: 1.25},
	}
	want := PayerSummary{
		Lines: []SummaryLine{
			{Payer: "Caremark", Commercial: 1.25},
			{Payer: model.FederalPayer, Federal: -4.5},
			{Payer: "Optum", Commercial: -3.01},
		},
		Total: SummaryLine{Payer: TotalLabel, Commercial: -1.76, Federal: -4.5},
	}
	if diff := cmp.Diff(want, Summarize(rows)); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestPayerNames(t *testing.T) {
	got := PayerNames(fixture().payers)
	if diff := cmp.Diff([]string{"Express Scripts", "CVS Caremark", "Shadowed"}, got); diff != "" {
		t.Errorf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestParseOwedType(t *testing.T) {
	for in, want := range map[string]OwedType{"": OwedAll, "underpaid": OwedUnderpaid, " Overpaid ": OwedOverpaid, "ALL": OwedAll} {
		got, err := ParseOwedType(in)
		if err != nil || got != want {
			t.Errorf("ParseOwedType(%q) = %v, %v; expected %v", in, got, err, want)
		}
	}
	if _, err := ParseOwedType("sideways"); err == nil {
		t.Error("expected error for unknown owed type")
	}
}
