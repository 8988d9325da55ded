package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/owedbook/internal/db"
	"github.com/gyeh/owedbook/internal/model"
	embedsql "github.com/gyeh/owedbook/internal/sql"
)

const copyBuffer = 512

// ReplaceBaseline swaps the whole pricing_baseline table for rows.
func (s *Store) ReplaceBaseline(ctx context.Context, rows []model.PricingBaseline) (int64, error) {
	return replaceTable(ctx, s, "pricing_baseline", []string{"ndc", "aac"}, rows)
}

// ReplaceAltRates swaps the whole alt_rates table for rows.
func (s *Store) ReplaceAltRates(ctx context.Context, rows []model.AltRate) (int64, error) {
	return replaceTable(ctx, s, "alt_rates",
		[]string{"ndc", "wac", "pkg_size", "pkg_size_mult", "generic_indicator"}, rows)
}

// ReplacePayers swaps the whole payer_directory table for rows.
func (s *Store) ReplacePayers(ctx context.Context, rows []model.PayerEntry) (int64, error) {
	return replaceTable(ctx, s, "payer_directory", []string{"bin", "pbm_name", "email"}, rows)
}

// replaceTable truncates table and streams rows back in through COPY, in one
// transaction. Readers see either the old table or the new one.
func replaceTable[T db.CopyRow](ctx context.Context, s *Store, table string, cols []string, rows []T) (int64, error) {
	var n int64
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		ident := pgx.Identifier{table}
		if _, err := tx.Exec(ctx, "TRUNCATE "+ident.Sanitize()); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}

		copyCtx, cancel := context.WithCancel(ctx)
		defer cancel()

		ch := make(chan T, copyBuffer)
		go func() {
			defer close(ch)
			for _, r := range rows {
				select {
				case ch <- r:
				case <-copyCtx.Done():
					return
				}
			}
		}()

		var err error
		n, err = tx.CopyFrom(ctx, ident, cols, db.NewChannelSource(copyCtx, ch))
		if err != nil {
			return fmt.Errorf("copy into %s: %w", table, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info().Str("table", table).Int64("rows", n).Msg("reference table replaced")
	return n, nil
}

// Baseline returns every pricing_baseline row.
func (s *Store) Baseline(ctx context.Context) ([]model.PricingBaseline, error) {
	return collectAll[model.PricingBaseline](ctx, s.pool, embedsql.SelectBaseline, "baseline")
}

// AltRates returns every alt_rates row.
func (s *Store) AltRates(ctx context.Context) ([]model.AltRate, error) {
	return collectAll[model.AltRate](ctx, s.pool, embedsql.SelectAltRates, "alt rates")
}

// Payers returns the PBM directory ordered by BIN.
func (s *Store) Payers(ctx context.Context) ([]model.PayerEntry, error) {
	return collectAll[model.PayerEntry](ctx, s.pool, embedsql.SelectPayers, "payers")
}

func collectAll[T any](ctx context.Context, q DBTX, query, what string) ([]T, error) {
	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[T])
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", what, err)
	}
	return out, nil
}
