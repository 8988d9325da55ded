// Package ingest imports claim files into the store and reloads the
// reference tables.
package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/columns"
	"github.com/gyeh/owedbook/internal/model"
)

// Outcomes recorded in the import registry.
const (
	OutcomeImported = "imported"
	OutcomeSkipped  = "skipped"
)

// Sink is the store side of a claim import.
type Sink interface {
	// ImportFile applies claims in order and registers the file, atomically.
	ImportFile(ctx context.Context, entry model.ImportFileEntry, claims []model.Claim) (model.UpsertCounts, error)
	// RecordImport registers a file that never reached ImportFile.
	RecordImport(ctx context.Context, entry model.ImportFileEntry) error
}

// Run imports every file in order under one batch id. A file that cannot be
// read, lacks required columns, or fails to store is skipped and the batch
// continues. Cancelling ctx stops before the next file; files already
// committed stay committed and the partial summary is returned with a
// *PipelineError.
func Run(ctx context.Context, sink Sink, resolver *columns.Resolver, log zerolog.Logger, paths []string) (*model.ImportSummary, error) {
	totalStart := time.Now()
	batchID := uuid.New().String()
	summary := &model.ImportSummary{BatchID: batchID}
	log = log.With().Str("batch_id", batchID).Logger()

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			summary.Cancelled = true
			summary.DurationTotal = time.Since(totalStart)
			log.Warn().Int("remaining", len(paths)-i).Msg("import cancelled")
			return summary, &PipelineError{Phase: "batch", Err: err}
		}

		fr := importOne(ctx, sink, resolver, log, batchID, path)
		summary.Files = append(summary.Files, fr)
		summary.Totals.Add(fr.Counts)
		if fr.Skipped {
			summary.FilesSkipped++
		}
	}

	summary.DurationTotal = time.Since(totalStart)
	log.Info().
		Int("files", len(paths)).
		Int("skipped", summary.FilesSkipped).
		Int64("inserted", summary.Totals.Inserted).
		Int64("updated", summary.Totals.Updated).
		Int64("unchanged", summary.Totals.Unchanged).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("import batch complete")
	return summary, nil
}

func importOne(ctx context.Context, sink Sink, resolver *columns.Resolver, log zerolog.Logger, batchID, path string) model.FileResult {
	name := filepath.Base(path)
	fr := model.FileResult{FilePath: path}

	pf, err := Preflight(log, resolver, path)
	if pf != nil {
		fr.FileSHA256 = pf.FileSHA256
		fr.Mapping = pf.Resolution.Mapping
	}
	if err != nil {
		return skip(ctx, sink, log, batchID, fr, err)
	}

	st := Stage(pf)
	fr.RowsRead = st.RowsRead
	fr.RowsDropped = st.RowsRejected

	entry := model.ImportFileEntry{
		BatchID:    batchID,
		FileName:   name,
		FileSHA256: pf.FileSHA256,
		Outcome:    OutcomeImported,
		Dropped:    st.RowsRejected,
	}
	counts, err := sink.ImportFile(ctx, entry, st.Claims)
	if err != nil {
		return skip(ctx, sink, log, batchID, fr, &FileError{File: name, Kind: StoreFailed, Err: err})
	}
	fr.Counts = counts

	log.Info().
		Str("file", name).
		Int64("inserted", counts.Inserted).
		Int64("updated", counts.Updated).
		Int64("unchanged", counts.Unchanged).
		Int64("dropped", st.RowsRejected).
		Msg("file imported")
	return fr
}

// skip marks fr as skipped and registers the failure. A registry write
// failure is logged and does not change the outcome.
func skip(ctx context.Context, sink Sink, log zerolog.Logger, batchID string, fr model.FileResult, err error) model.FileResult {
	fr.Skipped = true
	fr.Err = err
	fr.Counts = model.UpsertCounts{}

	ev := log.Warn().Str("file", filepath.Base(fr.FilePath)).Str("reason", err.Error())
	var fe *FileError
	if errors.As(err, &fe) {
		ev = ev.Str("kind", fe.Kind.String())
	}
	ev.Msg("file skipped")

	entry := model.ImportFileEntry{
		BatchID:    batchID,
		FileName:   filepath.Base(fr.FilePath),
		FileSHA256: fr.FileSHA256,
		Outcome:    OutcomeSkipped,
		Dropped:    fr.RowsDropped,
		Error:      err.Error(),
	}
	if rerr := sink.RecordImport(ctx, entry); rerr != nil {
		log.Warn().Err(rerr).Str("file", entry.FileName).Msg("could not register skipped file")
	}
	return fr
}
