package store_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/db"
	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/store"
)

const (
	testPort     = 15433
	testDB       = "owedbooktest"
	testUser     = "postgres"
	testPassword = "postgres"
)

var testDSN string

func TestMain(m *testing.M) {
	testDSN = fmt.Sprintf("postgresql://%s:%s@localhost:%d/%s?sslmode=disable",
		testUser, testPassword, testPort, testDB)

	pg := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(uint32(testPort)).
			Database(testDB).
			Username(testUser).
			Password(testPassword).
			Version(embeddedpostgres.V16).
			StartTimeout(30 * time.Second),
	)

	if err := pg.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "SKIP: embedded postgres unavailable: %v\n", err)
		os.Exit(0)
	}

	code := m.Run()

	if err := pg.Stop(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to stop embedded postgres: %v\n", err)
	}

	os.Exit(code)
}

// setupStore drops every table, reapplies migrations and returns a Store.
func setupStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, testDSN)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	for _, table := range []string{"claims", "pricing_baseline", "alt_rates", "payer_directory",
		"report_records", "pharmacy_profile", "import_files", "schema_migrations"} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			t.Fatalf("drop %s: %v", table, err)
		}
	}

	log := zerolog.Nop()
	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return store.New(pool, log)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func claim(script string, paid float64) model.Claim {
	return model.Claim{
		Script:        script,
		DateDispensed: date(2024, 3, 7),
		DrugNDC:       "00002143380",
		DrugName:      "ATORVASTATIN 20MG",
		Qty:           30,
		TotalPaid:     paid,
		BIN:           "610014",
	}
}

func importFile(t *testing.T, s *store.Store, claims ...model.Claim) model.UpsertCounts {
	t.Helper()
	entry := model.ImportFileEntry{
		BatchID:  uuid.NewString(),
		FileName: "claims.csv",
		Outcome:  "imported",
	}
	counts, err := s.ImportFile(context.Background(), entry, claims)
	if err != nil {
		t.Fatalf("import file: %v", err)
	}
	return counts
}

func TestImportIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	first := importFile(t, s, claim("A1", 12.5), claim("A2", 40))
	if first.Inserted != 2 {
		t.Fatalf("expected 2 inserts, got %+v", first)
	}

	before, err := s.Claim(ctx, "A1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}

	second := importFile(t, s, claim("A1", 12.5), claim("A2", 40))
	if diff := cmp.Diff(model.UpsertCounts{Unchanged: 2}, second); diff != "" {
		t.Errorf("second pass counts mismatch (-want +got):\n%s", diff)
	}

	after, err := s.Claim(ctx, "A1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if diff := cmp.Diff(before, after); diff != "" {
		t.Errorf("claim changed on re-import (-before +after):\n%s", diff)
	}
	if after.NewPaid != nil {
		t.Errorf("expected new_paid NULL, got %v", *after.NewPaid)
	}
}

func TestBaselineImmutable(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	importFile(t, s, claim("B1", 10))

	changed := claim("B1", 14)
	changed.Qty = 60
	changed.DrugName = "ATORVASTATIN 20MG TAB"
	counts := importFile(t, s, changed)
	if counts.Updated != 1 {
		t.Fatalf("expected 1 update, got %+v", counts)
	}

	got, err := s.Claim(ctx, "B1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got.TotalPaid != 10 {
		t.Errorf("expected total_paid 10, got %v", got.TotalPaid)
	}
	if got.NewPaid == nil || *got.NewPaid != 14 {
		t.Errorf("expected new_paid 14, got %v", got.NewPaid)
	}
	if got.Qty != 60 || got.DrugName != "ATORVASTATIN 20MG TAB" {
		t.Errorf("descriptive fields not refreshed: %+v", got)
	}

	// A second correction replaces the first.
	importFile(t, s, claim("B1", 16))
	got, err = s.Claim(ctx, "B1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if got.TotalPaid != 10 || got.NewPaid == nil || *got.NewPaid != 16 {
		t.Errorf("expected total_paid 10 new_paid 16, got %v %v", got.TotalPaid, got.NewPaid)
	}
}

func TestDuplicateScriptWithinFile(t *testing.T) {
	s := setupStore(t)

	counts := importFile(t, s, claim("D1", 5), claim("D1", 7))
	want := model.UpsertCounts{Inserted: 1, Updated: 1}
	if diff := cmp.Diff(want, counts); diff != "" {
		t.Errorf("counts mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryBetweenInclusive(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	early, mid, late := claim("Q1", 1), claim("Q2", 1), claim("Q3", 1)
	early.DateDispensed = date(2024, 1, 1)
	mid.DateDispensed = date(2024, 1, 15)
	late.DateDispensed = date(2024, 2, 1)
	importFile(t, s, early, mid, late)

	got, err := s.QueryBetween(ctx, date(2024, 1, 1), date(2024, 1, 15))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	var scripts []string
	for _, c := range got {
		scripts = append(scripts, c.Script)
	}
	if diff := cmp.Diff([]string{"Q1", "Q2"}, scripts); diff != "" {
		t.Errorf("scripts mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	inRange, outOfRange := claim("N1", 4), claim("N2", 4)
	outOfRange.DateDispensed = date(2024, 4, 1)
	importFile(t, s, inRange, outOfRange)

	baseline := []model.PricingBaseline{{NDC: "00002143380", AAC: 0.25}}
	if _, err := s.ReplaceBaseline(ctx, baseline); err != nil {
		t.Fatalf("replace baseline: %v", err)
	}
	rates := []model.AltRate{{NDC: "9", WAC: 120, PkgSize: 100, PkgSizeMult: 1, GenericIndicator: "N"}}
	if _, err := s.ReplaceAltRates(ctx, rates); err != nil {
		t.Fatalf("replace alt rates: %v", err)
	}
	payers := []model.PayerEntry{{BIN: "610014", PBMName: "Express Scripts", Email: "esi@example.com"}}
	if _, err := s.ReplacePayers(ctx, payers); err != nil {
		t.Fatalf("replace payers: %v", err)
	}

	snap, err := s.Snapshot(ctx, date(2024, 3, 1), date(2024, 3, 31))
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(snap.Claims) != 1 || snap.Claims[0].Script != "N1" {
		t.Errorf("expected only claim N1, got %+v", snap.Claims)
	}
	if diff := cmp.Diff(baseline, snap.Baseline); diff != "" {
		t.Errorf("baseline mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(rates, snap.AltRates); diff != "" {
		t.Errorf("alt rates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(payers, snap.Payers); diff != "" {
		t.Errorf("payers mismatch (-want +got):\n%s", diff)
	}
}

func TestStatusTransitions(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	importFile(t, s, claim("S1", 1), claim("S2", 1))

	n, err := s.TransitionStatus(ctx, []string{"S1", "missing"}, model.EventEmailSent)
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 changed, got %d", n)
	}

	emailed, err := s.ScriptsWithStatus(ctx, model.StatusEmailedPBM)
	if err != nil {
		t.Fatalf("scripts with status: %v", err)
	}
	if _, ok := emailed["S1"]; !ok || len(emailed) != 1 {
		t.Errorf("expected only S1 emailed, got %v", emailed)
	}

	if _, err := s.TransitionStatus(ctx, []string{"S1"}, model.EventEmailSent); !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}

	if err := s.SetStatus(ctx, "nope", model.StatusUntouched); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReportRecords(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	importFile(t, s, claim("R1", 1), claim("R2", 1))

	recs := []model.ReportRecord{
		{Script: "R1", Category: model.CategoryCommercial, ArtifactPath: "a.xlsx"},
		{Script: "R2", Category: model.CategoryCommercial, ArtifactPath: "a.xlsx"},
	}
	if err := s.UpsertReportRecords(ctx, recs); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	recs[0].ArtifactPath = "b.xlsx"
	if err := s.UpsertReportRecords(ctx, recs[:1]); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.ReportRecords(ctx, model.CategoryCommercial, nil)
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	want := []model.ReportRecord{
		{Script: "R1", Category: model.CategoryCommercial, ArtifactPath: "b.xlsx"},
		{Script: "R2", Category: model.CategoryCommercial, ArtifactPath: "a.xlsx"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	if _, err := s.TransitionStatus(ctx, []string{"R1"}, model.EventEmailSent); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if err := s.DropReportRecord(ctx, "R1", model.CategoryCommercial); err != nil {
		t.Fatalf("drop: %v", err)
	}
	c, err := s.Claim(ctx, "R1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if c.Status != model.StatusUntouched {
		t.Errorf("expected status reset, got %s", c.Status)
	}
	got, err = s.ReportRecords(ctx, model.CategoryCommercial, []string{"R1"})
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected record deleted, got %v", got)
	}
}

func TestReplaceReference(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.ReplaceBaseline(ctx, []model.PricingBaseline{{NDC: "1", AAC: 0.5}, {NDC: "2", AAC: 0.7}}); err != nil {
		t.Fatalf("replace baseline: %v", err)
	}
	n, err := s.ReplaceBaseline(ctx, []model.PricingBaseline{{NDC: "3", AAC: 0.12}})
	if err != nil {
		t.Fatalf("replace baseline: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 row copied, got %d", n)
	}
	got, err := s.Baseline(ctx)
	if err != nil {
		t.Fatalf("baseline: %v", err)
	}
	if diff := cmp.Diff([]model.PricingBaseline{{NDC: "3", AAC: 0.12}}, got); diff != "" {
		t.Errorf("baseline mismatch (-want +got):\n%s", diff)
	}

	payers := []model.PayerEntry{{BIN: "610014", PBMName: "Express Scripts", Email: "esi@example.com"}}
	if _, err := s.ReplacePayers(ctx, payers); err != nil {
		t.Fatalf("replace payers: %v", err)
	}
	gotPayers, err := s.Payers(ctx)
	if err != nil {
		t.Fatalf("payers: %v", err)
	}
	if diff := cmp.Diff(payers, gotPayers); diff != "" {
		t.Errorf("payers mismatch (-want +got):\n%s", diff)
	}

	rates := []model.AltRate{{NDC: "9", WAC: 120, PkgSize: 100, PkgSizeMult: 1, GenericIndicator: "N"}}
	if _, err := s.ReplaceAltRates(ctx, rates); err != nil {
		t.Fatalf("replace alt rates: %v", err)
	}
	gotRates, err := s.AltRates(ctx)
	if err != nil {
		t.Fatalf("alt rates: %v", err)
	}
	if diff := cmp.Diff(rates, gotRates); diff != "" {
		t.Errorf("alt rates mismatch (-want +got):\n%s", diff)
	}
}

func TestProfileSingleton(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	p, err := s.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if diff := cmp.Diff(model.PharmacyProfile{}, p); diff != "" {
		t.Errorf("expected empty profile (-want +got):\n%s", diff)
	}

	want := model.PharmacyProfile{Name: "Main St Pharmacy", Email: "rx@example.com", NPI: "1234567890"}
	if err := s.SetProfile(ctx, want); err != nil {
		t.Fatalf("set profile: %v", err)
	}
	got, err := s.Profile(ctx)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}
}

func TestImportRegistry(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	importFile(t, s, claim("I1", 1))
	skipped := model.ImportFileEntry{
		BatchID:  uuid.NewString(),
		FileName: "bad.csv",
		Outcome:  "skipped",
		Error:    "missing required columns: script",
	}
	if err := s.RecordImport(ctx, skipped); err != nil {
		t.Fatalf("record import: %v", err)
	}

	got, err := s.RecentImports(ctx, 10)
	if err != nil {
		t.Fatalf("recent imports: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].FileName != "bad.csv" || got[1].Inserted != 1 {
		t.Errorf("unexpected entries: %+v", got)
	}
}

func TestUpsertSingle(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	steps := []struct {
		paid float64
		want model.UpsertOutcome
	}{
		{12.5, model.OutcomeInserted},
		{12.5, model.OutcomeUnchanged},
		{13, model.OutcomeUpdated},
		{14, model.OutcomeUpdated},
	}
	for _, st := range steps {
		got, err := s.Upsert(ctx, claim("U1", st.paid))
		if err != nil {
			t.Fatalf("upsert %v: %v", st.paid, err)
		}
		if got != st.want {
			t.Errorf("upsert %v: expected %s, got %s", st.paid, st.want, got)
		}
	}

	c, err := s.Claim(ctx, "U1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if c.TotalPaid != 12.5 || c.NewPaid == nil || *c.NewPaid != 14 {
		t.Errorf("expected total 12.5 and latest correction 14, got %v %v", c.TotalPaid, c.NewPaid)
	}
	if _, err := s.Claim(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
