package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/owedbook/internal/model"
	embedsql "github.com/gyeh/owedbook/internal/sql"
)

// Snapshot reads the claims dispensed in [start, end] together with the
// baseline, alternate rates and payer directory from one read-only
// REPEATABLE READ transaction. A concurrent import or reference reload is
// either wholly visible or not visible at all.
func (s *Store) Snapshot(ctx context.Context, start, end time.Time) (model.Snapshot, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer tx.Rollback(ctx) // no-op after commit

	var snap model.Snapshot
	if snap.Claims, err = queryBetween(ctx, tx, start, end); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Baseline, err = collectAll[model.PricingBaseline](ctx, tx, embedsql.SelectBaseline, "baseline"); err != nil {
		return model.Snapshot{}, err
	}
	if snap.AltRates, err = collectAll[model.AltRate](ctx, tx, embedsql.SelectAltRates, "alt rates"); err != nil {
		return model.Snapshot{}, err
	}
	if snap.Payers, err = collectAll[model.PayerEntry](ctx, tx, embedsql.SelectPayers, "payers"); err != nil {
		return model.Snapshot{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Snapshot{}, fmt.Errorf("commit snapshot: %w", err)
	}
	return snap, nil
}
