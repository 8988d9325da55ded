package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gyeh/owedbook/internal/model"
	embedsql "github.com/gyeh/owedbook/internal/sql"
)

func scanClaim(row pgx.Row) (model.Claim, error) {
	var (
		c      model.Claim
		status string
	)
	err := row.Scan(&c.Script, &c.DateDispensed, &c.DrugNDC, &c.DrugName, &c.Qty,
		&c.TotalPaid, &c.NewPaid, &c.BIN, &c.PDFFile, &status)
	if err != nil {
		return model.Claim{}, err
	}
	c.Status, err = model.ParseStatus(status)
	if err != nil {
		return model.Claim{}, err
	}
	return c, nil
}

// upsertClaim applies model.Merge against the locked stored row.
func upsertClaim(ctx context.Context, q DBTX, in model.Claim) (model.UpsertOutcome, error) {
	var existing *model.Claim
	cur, err := scanClaim(q.QueryRow(ctx, embedsql.SelectClaimForUpdate, in.Script))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
	case err != nil:
		return model.OutcomeUnchanged, fmt.Errorf("select claim %s: %w", in.Script, err)
	default:
		existing = &cur
	}

	merged, outcome := model.Merge(existing, in)
	switch outcome {
	case model.OutcomeInserted:
		_, err = q.Exec(ctx, embedsql.InsertClaim, merged.Script, merged.DateDispensed,
			merged.DrugNDC, merged.DrugName, merged.Qty, merged.TotalPaid, merged.BIN)
	case model.OutcomeUpdated:
		_, err = q.Exec(ctx, embedsql.UpdateClaimCorrection, merged.Script, merged.DateDispensed,
			merged.DrugNDC, merged.DrugName, merged.Qty, merged.BIN, merged.NewPaid)
	}
	if err != nil {
		return model.OutcomeUnchanged, fmt.Errorf("write claim %s: %w", in.Script, err)
	}
	return outcome, nil
}

// Upsert applies one normalized claim in its own transaction.
func (s *Store) Upsert(ctx context.Context, c model.Claim) (model.UpsertOutcome, error) {
	var outcome model.UpsertOutcome
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		var err error
		outcome, err = upsertClaim(ctx, tx, c)
		return err
	})
	return outcome, err
}

// ImportFile upserts every claim of one file in row order and records the
// file in the import registry, all in one transaction. Either every row and
// the registry entry commit, or nothing does.
func (s *Store) ImportFile(ctx context.Context, entry model.ImportFileEntry, claims []model.Claim) (model.UpsertCounts, error) {
	var counts model.UpsertCounts
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		counts = model.UpsertCounts{}
		for _, c := range claims {
			outcome, err := upsertClaim(ctx, tx, c)
			if err != nil {
				return err
			}
			counts.Record(outcome)
		}
		entry.Inserted = counts.Inserted
		entry.Updated = counts.Updated
		entry.Unchanged = counts.Unchanged
		_, err := insertImportFile(ctx, tx, entry)
		return err
	})
	if err != nil {
		return model.UpsertCounts{}, err
	}
	return counts, nil
}

// Claim returns the stored claim for script.
func (s *Store) Claim(ctx context.Context, script string) (model.Claim, error) {
	c, err := scanClaim(s.pool.QueryRow(ctx, embedsql.SelectClaim, script))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Claim{}, fmt.Errorf("claim %s: %w", script, ErrNotFound)
	}
	if err != nil {
		return model.Claim{}, fmt.Errorf("select claim %s: %w", script, err)
	}
	return c, nil
}

// QueryBetween returns claims dispensed in [start, end], both ends inclusive,
// ordered by date then script.
func (s *Store) QueryBetween(ctx context.Context, start, end time.Time) ([]model.Claim, error) {
	return queryBetween(ctx, s.pool, start, end)
}

func queryBetween(ctx context.Context, q DBTX, start, end time.Time) ([]model.Claim, error) {
	rows, err := q.Query(ctx, embedsql.ClaimsBetween, start, end)
	if err != nil {
		return nil, fmt.Errorf("query claims: %w", err)
	}
	defer rows.Close()

	var out []model.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate claims: %w", err)
	}
	return out, nil
}

// SetStatus overwrites a claim's status.
func (s *Store) SetStatus(ctx context.Context, script string, status model.Status) error {
	tag, err := s.pool.Exec(ctx, embedsql.SetClaimStatus, script, status.String())
	if err != nil {
		return fmt.Errorf("set status %s: %w", script, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("claim %s: %w", script, ErrNotFound)
	}
	return nil
}

// TransitionStatus moves every listed claim along ev. Unknown scripts are
// ignored; an invalid transition rolls back the whole set. Returns the number
// of claims whose status changed.
func (s *Store) TransitionStatus(ctx context.Context, scripts []string, ev model.StatusEvent) (int, error) {
	var changed int
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		changed = 0
		for _, script := range scripts {
			ok, moved, err := transition(ctx, tx, script, ev)
			if err != nil {
				return err
			}
			if ok && moved {
				changed++
			}
		}
		return nil
	})
	return changed, err
}

// transition reports whether the claim exists and whether its status moved.
func transition(ctx context.Context, q DBTX, script string, ev model.StatusEvent) (bool, bool, error) {
	var raw string
	err := q.QueryRow(ctx, embedsql.SelectStatusForUpdate, script).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("select status %s: %w", script, err)
	}
	cur, err := model.ParseStatus(raw)
	if err != nil {
		return true, false, err
	}
	next, err := cur.Next(ev)
	if err != nil {
		return true, false, fmt.Errorf("claim %s: %w", script, err)
	}
	if next == cur {
		return true, false, nil
	}
	if _, err := q.Exec(ctx, embedsql.SetClaimStatus, script, next.String()); err != nil {
		return true, false, fmt.Errorf("set status %s: %w", script, err)
	}
	return true, true, nil
}

// ScriptsWithStatus returns the set of scripts currently in status.
func (s *Store) ScriptsWithStatus(ctx context.Context, status model.Status) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, embedsql.ScriptsWithStatus, status.String())
	if err != nil {
		return nil, fmt.Errorf("query scripts: %w", err)
	}
	scripts, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect scripts: %w", err)
	}
	set := make(map[string]struct{}, len(scripts))
	for _, sc := range scripts {
		set[sc] = struct{}{}
	}
	return set, nil
}

// SetPDFFile stores path in the legacy single-slot pdf_file column.
func (s *Store) SetPDFFile(ctx context.Context, scripts []string, path string) error {
	if len(scripts) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, embedsql.SetPDFFile, scripts, path); err != nil {
		return fmt.Errorf("set pdf_file: %w", err)
	}
	return nil
}
