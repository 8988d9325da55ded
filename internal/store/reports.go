package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/owedbook/internal/model"
	embedsql "github.com/gyeh/owedbook/internal/sql"
)

// ReportRecords returns the records for category. A nil scripts slice means
// every script; an empty non-nil slice matches nothing.
func (s *Store) ReportRecords(ctx context.Context, category model.ReportCategory, scripts []string) ([]model.ReportRecord, error) {
	if scripts != nil && len(scripts) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, embedsql.ReportRecords, string(category), scripts)
	if err != nil {
		return nil, fmt.Errorf("query report records: %w", err)
	}
	defer rows.Close()

	var out []model.ReportRecord
	for rows.Next() {
		var (
			rec model.ReportRecord
			cat string
		)
		if err := rows.Scan(&rec.Script, &cat, &rec.ArtifactPath); err != nil {
			return nil, fmt.Errorf("scan report record: %w", err)
		}
		rec.Category = model.ReportCategory(cat)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report records: %w", err)
	}
	return out, nil
}

// UpsertReportRecords records the artifact for each record, overwriting the
// path of an existing (script, category) pair.
func (s *Store) UpsertReportRecords(ctx context.Context, recs []model.ReportRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, r := range recs {
			batch.Queue(embedsql.UpsertReportRecord, r.Script, string(r.Category), r.ArtifactPath)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("upsert report records: %w", err)
		}
		return nil
	})
}

// DropReportRecord deletes a record whose artifact vanished and resets the
// owning claim's status, in one transaction.
func (s *Store) DropReportRecord(ctx context.Context, script string, category model.ReportCategory) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, embedsql.DeleteReportRecord, script, string(category)); err != nil {
			return fmt.Errorf("delete report record %s: %w", script, err)
		}
		_, _, err := transition(ctx, tx, script, model.EventArtifactMissing)
		return err
	})
}
