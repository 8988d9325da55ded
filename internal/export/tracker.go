// Package export decides which reconciled rows still need a report artifact,
// records artifacts once written, and heals records whose artifact vanished.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/model"
)

// RecordStore is the report_records side of the store.
type RecordStore interface {
	ReportRecords(ctx context.Context, category model.ReportCategory, scripts []string) ([]model.ReportRecord, error)
	UpsertReportRecords(ctx context.Context, recs []model.ReportRecord) error
	DropReportRecord(ctx context.Context, script string, category model.ReportCategory) error
}

// ArtifactChecker answers whether a recorded artifact path still resolves.
type ArtifactChecker interface {
	Exists(path string) bool
}

// DirChecker resolves relative artifact paths against Root.
type DirChecker struct {
	Root string
}

// Exists reports whether path names an existing regular file.
func (d DirChecker) Exists(path string) bool {
	if !filepath.IsAbs(path) {
		path = filepath.Join(d.Root, path)
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Tracker owns the report_records lifecycle.
type Tracker struct {
	store     RecordStore
	artifacts ArtifactChecker
	log       zerolog.Logger
}

// NewTracker returns a Tracker backed by store and artifacts.
func NewTracker(store RecordStore, artifacts ArtifactChecker, log zerolog.Logger) *Tracker {
	return &Tracker{store: store, artifacts: artifacts, log: log}
}

// Records returns the records for category among scripts (nil for every
// script) after dropping those whose artifact no longer exists. Dropping a
// record also resets the claim to Untouched.
func (t *Tracker) Records(ctx context.Context, category model.ReportCategory, scripts []string) ([]model.ReportRecord, error) {
	recs, err := t.store.ReportRecords(ctx, category, scripts)
	if err != nil {
		return nil, fmt.Errorf("load report records: %w", err)
	}
	kept := recs[:0]
	for _, r := range recs {
		if r.ArtifactPath == "" || t.artifacts.Exists(r.ArtifactPath) {
			kept = append(kept, r)
			continue
		}
		if err := t.store.DropReportRecord(ctx, r.Script, r.Category); err != nil {
			return nil, fmt.Errorf("heal report record %s: %w", r.Script, err)
		}
		t.log.Info().
			Str("script", r.Script).
			Str("category", string(r.Category)).
			Str("artifact", r.ArtifactPath).
			Msg("report artifact missing, record dropped")
	}
	return kept, nil
}

// Heal runs Records for every category and discards the result.
func (t *Tracker) Heal(ctx context.Context, scripts []string) error {
	if scripts != nil && len(scripts) == 0 {
		return nil
	}
	for _, c := range model.AllCategories {
		if _, err := t.Records(ctx, c, scripts); err != nil {
			return err
		}
	}
	return nil
}

// PlanExport returns, in candidate order and without duplicates, the
// candidates that have no non-empty record for category. It does not write.
func (t *Tracker) PlanExport(ctx context.Context, candidates []string, category model.ReportCategory) ([]string, error) {
	unique := dedupe(candidates)
	if len(unique) == 0 {
		return nil, nil
	}
	recs, err := t.Records(ctx, category, unique)
	if err != nil {
		return nil, err
	}
	done := make(map[string]struct{}, len(recs))
	for _, r := range recs {
		if r.ArtifactPath != "" {
			done[r.Script] = struct{}{}
		}
	}
	var fresh []string
	for _, s := range unique {
		if _, ok := done[s]; !ok {
			fresh = append(fresh, s)
		}
	}
	return fresh, nil
}

// RecordExport points every script's record for category at path,
// overwriting any previous path.
func (t *Tracker) RecordExport(ctx context.Context, category model.ReportCategory, path string, scripts ...string) error {
	recs := make([]model.ReportRecord, 0, len(scripts))
	for _, s := range dedupe(scripts) {
		recs = append(recs, model.ReportRecord{Script: s, Category: category, ArtifactPath: path})
	}
	if err := t.store.UpsertReportRecords(ctx, recs); err != nil {
		return fmt.Errorf("record export: %w", err)
	}
	return nil
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
