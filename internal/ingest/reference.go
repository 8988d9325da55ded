package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/columns"
	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/tabular"
)

// RefPaths locates the three reference files. An empty or absent path skips
// that table.
type RefPaths struct {
	Payers   string
	Baseline string
	AltRates string
}

// RefSink replaces whole reference tables.
type RefSink interface {
	ReplaceBaseline(ctx context.Context, rows []model.PricingBaseline) (int64, error)
	ReplaceAltRates(ctx context.Context, rows []model.AltRate) (int64, error)
	ReplacePayers(ctx context.Context, rows []model.PayerEntry) (int64, error)
}

// ReloadReference reloads each reference table whose file is present. A
// failure on one table is reported in the joined error and does not stop the
// others.
func ReloadReference(ctx context.Context, sink RefSink, log zerolog.Logger, paths RefPaths) (*model.ReloadSummary, error) {
	summary := &model.ReloadSummary{}
	var errs []error

	steps := []struct {
		table string
		path  string
		run   func(path string) (int64, error)
		count *int64
	}{
		{"payer_directory", paths.Payers, func(p string) (int64, error) {
			rows, err := LoadPayers(p)
			if err != nil {
				return 0, err
			}
			return sink.ReplacePayers(ctx, rows)
		}, &summary.Payers},
		{"pricing_baseline", paths.Baseline, func(p string) (int64, error) {
			rows, err := LoadBaseline(p)
			if err != nil {
				return 0, err
			}
			return sink.ReplaceBaseline(ctx, rows)
		}, &summary.Baseline},
		{"alt_rates", paths.AltRates, func(p string) (int64, error) {
			rows, err := LoadAltRates(p)
			if err != nil {
				return 0, err
			}
			return sink.ReplaceAltRates(ctx, rows)
		}, &summary.AltRates},
	}

	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return summary, &PipelineError{Phase: "reload", Err: err}
		}
		if !present(s.path) {
			log.Warn().Str("table", s.table).Str("file", s.path).Msg("reference file not found, table left unchanged")
			summary.Skipped = append(summary.Skipped, s.path)
			continue
		}
		n, err := s.run(s.path)
		if err != nil {
			log.Error().Err(err).Str("table", s.table).Msg("reference reload failed")
			errs = append(errs, fmt.Errorf("%s: %w", s.table, err))
			continue
		}
		*s.count = n
		log.Info().Str("table", s.table).Int64("rows", n).Msg("reference table reloaded")
	}
	return summary, errors.Join(errs...)
}

func present(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func openReference(path string, resolve func([]string) columns.RefColumns) (*tabular.Table, columns.RefColumns, error) {
	name := filepath.Base(path)
	tbl, err := tabular.Open(path)
	if err != nil {
		return nil, columns.RefColumns{}, &FileError{File: name, Kind: FileUnreadable, Err: err}
	}
	cols := resolve(tbl.Headers)
	if !cols.OK() {
		return nil, cols, &FileError{File: name, Kind: MissingRequiredColumns, Missing: cols.Missing, Headers: tbl.Headers}
	}
	return tbl, cols, nil
}

func refCell(row []string, cols columns.RefColumns, field string) string {
	i, ok := cols.Index[field]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// LoadPayers reads a PBM directory file. Rows without a BIN are skipped and
// the first row for a BIN wins.
func LoadPayers(path string) ([]model.PayerEntry, error) {
	tbl, cols, err := openReference(path, columns.PayerColumns)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []model.PayerEntry
	for _, row := range tbl.Rows {
		bin := normalize.CleanText(refCell(row, cols, columns.RefBIN))
		if bin == "" {
			continue
		}
		if _, dup := seen[bin]; dup {
			continue
		}
		seen[bin] = struct{}{}
		out = append(out, model.PayerEntry{
			BIN:     bin,
			PBMName: normalize.CleanText(refCell(row, cols, columns.RefPBMName)),
			Email:   normalize.CleanText(refCell(row, cols, columns.RefEmail)),
		})
	}
	return out, nil
}

// LoadBaseline reads an AAC list. NDCs are reduced to digits; rows without
// one are skipped and the first row for an NDC wins.
func LoadBaseline(path string) ([]model.PricingBaseline, error) {
	tbl, cols, err := openReference(path, columns.BaselineColumns)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []model.PricingBaseline
	for _, row := range tbl.Rows {
		ndc := normalize.DigitsOnly(refCell(row, cols, columns.RefNDC))
		if ndc == "" {
			continue
		}
		if _, dup := seen[ndc]; dup {
			continue
		}
		seen[ndc] = struct{}{}
		out = append(out, model.PricingBaseline{
			NDC: ndc,
			AAC: normalize.CleanNumeric(refCell(row, cols, columns.RefAAC)),
		})
	}
	return out, nil
}

// LoadAltRates reads a WAC file. Columns that did not resolve read as zero
// or empty.
func LoadAltRates(path string) ([]model.AltRate, error) {
	tbl, cols, err := openReference(path, columns.AltRateColumns)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{})
	var out []model.AltRate
	for _, row := range tbl.Rows {
		ndc := normalize.DigitsOnly(refCell(row, cols, columns.RefNDC))
		if ndc == "" {
			continue
		}
		if _, dup := seen[ndc]; dup {
			continue
		}
		seen[ndc] = struct{}{}
		out = append(out, model.AltRate{
			NDC:              ndc,
			WAC:              normalize.CleanNumeric(refCell(row, cols, columns.RefWAC)),
			PkgSize:          normalize.CleanNumeric(refCell(row, cols, columns.RefPkgSize)),
			PkgSizeMult:      normalize.CleanNumeric(refCell(row, cols, columns.RefPkgSizeMult)),
			GenericIndicator: normalize.CleanText(refCell(row, cols, columns.RefGenericIndicator)),
		})
	}
	return out, nil
}
