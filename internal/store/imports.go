package store

import (
	"context"
	"fmt"
	"time"

	"github.com/gyeh/owedbook/internal/model"
	embedsql "github.com/gyeh/owedbook/internal/sql"
)

func insertImportFile(ctx context.Context, q DBTX, e model.ImportFileEntry) (time.Time, error) {
	var at time.Time
	err := q.QueryRow(ctx, embedsql.InsertImportFile, e.BatchID, e.FileName, e.FileSHA256,
		e.Outcome, e.Inserted, e.Updated, e.Unchanged, e.Dropped, e.Error).Scan(&at)
	if err != nil {
		return time.Time{}, fmt.Errorf("record import file %s: %w", e.FileName, err)
	}
	return at, nil
}

// RecordImport registers a file outside any claim transaction, for files that
// were skipped before reaching the store.
func (s *Store) RecordImport(ctx context.Context, e model.ImportFileEntry) error {
	_, err := insertImportFile(ctx, s.pool, e)
	return err
}

// RecentImports lists the newest registry entries first.
func (s *Store) RecentImports(ctx context.Context, limit int) ([]model.ImportFileEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, embedsql.RecentImportFiles, limit)
	if err != nil {
		return nil, fmt.Errorf("query import files: %w", err)
	}
	defer rows.Close()

	var out []model.ImportFileEntry
	for rows.Next() {
		var e model.ImportFileEntry
		if err := rows.Scan(&e.BatchID, &e.FileName, &e.FileSHA256, &e.Outcome, &e.Inserted,
			&e.Updated, &e.Unchanged, &e.Dropped, &e.Error, &e.ImportedAt); err != nil {
			return nil, fmt.Errorf("scan import file: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import files: %w", err)
	}
	return out, nil
}
