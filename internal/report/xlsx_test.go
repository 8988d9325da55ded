package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/reconcile"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	return rows
}

func findRow(rows [][]string, first string) []string {
	for _, r := range rows {
		if len(r) > 0 && r[0] == first {
			return r
		}
	}
	return nil
}

func TestWriteClaims(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report_commercialdollars", "out.xlsx")
	doc := Document{
		Category: model.CategoryCommercial,
		Payer:    "Express Scripts",
		Start:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:      time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Profile:  model.PharmacyProfile{Name: "Main St Pharmacy", NPI: "1234567890"},
		Email:    "rx@example.com",
		Rows: []reconcile.Row{
			{Date: time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), Script: "S1", Qty: 10, Rate: 1, Expected: 20, TotalPaid: 15, Difference: -5, Method: model.MethodAAC},
			{Date: time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), Script: "S2", Qty: 10, Rate: 1, Expected: 20, TotalPaid: 23, Difference: 3, Method: model.MethodAAC},
		},
	}
	if err := (XLSXWriter{}).Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}

	rows := readRows(t, path)
	if rows[0][0] != "Main St Pharmacy" {
		t.Errorf("expected pharmacy name first, got %v", rows[0])
	}
	if findRow(rows, "Express Scripts") == nil {
		t.Error("payer line missing")
	}
	if findRow(rows, "rx@example.com") == nil {
		t.Error("email line missing")
	}
	header := findRow(rows, "Date")
	if header == nil || header[1] != "Script" || header[len(header)-1] != "Owed" {
		t.Fatalf("unexpected header: %v", header)
	}
	if findRow(rows, "2024-03-07") == nil {
		t.Error("claim row S1 missing")
	}
	total := findRow(rows, "Total")
	if total == nil || normalize.CleanNumeric(total[len(total)-1]) != -2 {
		t.Errorf("expected total -2, got %v", total)
	}
}

func TestWriteSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	doc := Document{
		Category: model.CategorySummary,
		Payer:    "All",
		Summary: reconcile.PayerSummary{
			Lines: []reconcile.SummaryLine{{Payer: "Caremark", Commercial: 1.25}, {Payer: "Federal", Federal: -4.5}},
			Total: reconcile.SummaryLine{Payer: reconcile.TotalLabel, Commercial: 1.25, Federal: -4.5},
		},
	}
	if err := (XLSXWriter{}).Write(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	rows := readRows(t, path)
	if h := findRow(rows, "PBM"); h == nil || h[1] != "Commercial" || h[2] != "Federal" {
		t.Fatalf("unexpected summary header: %v", h)
	}
	if findRow(rows, "Caremark") == nil || findRow(rows, reconcile.TotalLabel) == nil {
		t.Errorf("summary lines missing: %v", rows)
	}
}
