package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/reconcile"
)

const sheetName = "Report"

// numFmtMoney is the built-in "#,##0.00" format.
const numFmtMoney = 4

// XLSXWriter writes a Document as a single-sheet workbook.
type XLSXWriter struct{}

type column struct {
	header string
	money  bool
	value  func(r reconcile.Row) any
}

var claimColumns = []column{
	{"Date", false, func(r reconcile.Row) any { return normalize.FormatDate(r.Date) }},
	{"Script", false, func(r reconcile.Row) any { return r.Script }},
	{"NDC", false, func(r reconcile.Row) any { return r.NDC }},
	{"Drug", false, func(r reconcile.Row) any { return r.Drug }},
	{"Qty", false, func(r reconcile.Row) any { return r.Qty }},
	{"Rate", true, func(r reconcile.Row) any { return normalize.Round2(r.Rate) }},
	{"Method", false, func(r reconcile.Row) any { return r.Method.String() }},
	{"Expected", true, func(r reconcile.Row) any { return normalize.Round2(r.Expected) }},
	{"Original Paid", true, func(r reconcile.Row) any { return normalize.Round2(r.TotalPaid) }},
	{"Owed", true, func(r reconcile.Row) any { return normalize.Round2(r.Difference) }},
}

var updatedColumns = []column{
	{"New Paid", true, func(r reconcile.Row) any {
		if r.NewPaid == nil {
			return ""
		}
		return normalize.Round2(*r.NewPaid)
	}},
	{"Updated Difference", true, func(r reconcile.Row) any { return normalize.Round2(r.UpdatedDifference) }},
}

// Write renders doc to path, creating parent directories.
func (XLSXWriter) Write(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("bold style: %w", err)
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: numFmtMoney})
	if err != nil {
		return fmt.Errorf("money style: %w", err)
	}

	w := &sheetWriter{f: f, bold: bold, money: money}
	w.titleBlock(doc)
	if doc.Category == model.CategorySummary {
		w.summary(doc.Summary)
	} else {
		cols := claimColumns
		if doc.Category == model.CategoryUpdated {
			cols = append(append([]column{}, claimColumns...), updatedColumns...)
		}
		w.claims(cols, doc.Rows)
	}
	if w.err != nil {
		return fmt.Errorf("write sheet: %w", w.err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

// sheetWriter appends rows and remembers the first error.
type sheetWriter struct {
	f     *excelize.File
	bold  int
	money int
	row   int
	err   error
}

func (w *sheetWriter) put(values []any, style int, moneyCols map[int]bool) {
	if w.err != nil {
		return
	}
	w.row++
	cell, err := excelize.CoordinatesToCellName(1, w.row)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheetName, cell, &values); err != nil {
		w.err = err
		return
	}
	if len(values) == 0 {
		return
	}
	if style != 0 {
		end, _ := excelize.CoordinatesToCellName(len(values), w.row)
		w.err = w.f.SetCellStyle(sheetName, cell, end, style)
	}
	for col := range moneyCols {
		ref, _ := excelize.CoordinatesToCellName(col+1, w.row)
		if err := w.f.SetCellStyle(sheetName, ref, ref, w.money); err != nil {
			w.err = err
			return
		}
	}
}

func (w *sheetWriter) titleBlock(doc Document) {
	p := doc.Profile
	if p.Name != "" {
		w.put([]any{p.Name}, w.bold, nil)
	}
	if p.Address != "" {
		w.put([]any{p.Address}, 0, nil)
	}
	var ids []string
	for _, kv := range [][2]string{{"Phone", p.Phone}, {"Fax", p.Fax}, {"NCPDP", p.NCPDP}, {"NPI", p.NPI}} {
		if kv[1] != "" {
			ids = append(ids, kv[0]+": "+kv[1])
		}
	}
	if len(ids) > 0 {
		w.put([]any{strings.Join(ids, "  ")}, 0, nil)
	}
	w.put([]any{doc.Payer}, w.bold, nil)
	if doc.Email != "" {
		w.put([]any{doc.Email}, 0, nil)
	}
	w.put([]any{fmt.Sprintf("%s: %s to %s", doc.Category,
		normalize.FormatDate(doc.Start), normalize.FormatDate(doc.End))}, 0, nil)
	w.put(nil, 0, nil)
}

func (w *sheetWriter) claims(cols []column, rows []reconcile.Row) {
	header := make([]any, len(cols))
	moneyCols := make(map[int]bool)
	owedCol := -1
	for i, c := range cols {
		header[i] = c.header
		if c.money {
			moneyCols[i] = true
		}
		if c.header == "Owed" {
			owedCol = i
		}
	}
	w.put(header, w.bold, nil)

	var owed []float64
	for _, r := range rows {
		vals := make([]any, len(cols))
		for i, c := range cols {
			vals[i] = c.value(r)
		}
		w.put(vals, 0, moneyCols)
		owed = append(owed, r.Difference)
	}

	if owedCol >= 0 {
		total := make([]any, owedCol+1)
		total[0] = "Total"
		total[owedCol] = normalize.Sum2(owed)
		w.put(total, w.bold, map[int]bool{owedCol: true})
	}
}

func (w *sheetWriter) summary(s reconcile.PayerSummary) {
	w.put([]any{"PBM", "Commercial", "Federal"}, w.bold, nil)
	cols := map[int]bool{1: true, 2: true}
	for _, l := range s.Lines {
		w.put([]any{l.Payer, l.Commercial, l.Federal}, 0, cols)
	}
	w.put([]any{s.Total.Payer, s.Total.Commercial, s.Total.Federal}, w.bold, cols)
}
