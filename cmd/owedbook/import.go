package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/columns"
	"github.com/gyeh/owedbook/internal/exitcode"
	"github.com/gyeh/owedbook/internal/ingest"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import claim files (csv, tsv, txt, xlsx, xlsm, parquet)",
	Long: "Imports each file in its own transaction. Files that cannot be read or lack the " +
		"script, total paid or date dispensed columns are skipped. Ctrl-C stops before the next file.",
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, st := connect(ctx, log)
	defer pool.Close()

	summary, err := ingest.Run(ctx, st, columns.NewResolver(nil), log, args)
	for _, fr := range summary.Files {
		name := filepath.Base(fr.FilePath)
		if fr.Skipped {
			fmt.Printf("SKIP %s: %v\n", name, fr.Err)
			continue
		}
		fmt.Printf("OK   %s: %d inserted, %d updated, %d unchanged, %d dropped\n",
			name, fr.Counts.Inserted, fr.Counts.Updated, fr.Counts.Unchanged, fr.RowsDropped)
	}
	fmt.Printf("Import complete: %d files, %d skipped, %d inserted, %d updated (%.1fs)\n",
		len(summary.Files), summary.FilesSkipped, summary.Totals.Inserted, summary.Totals.Updated,
		summary.DurationTotal.Seconds())

	if err != nil {
		var pe *ingest.PipelineError
		if errors.As(err, &pe) && summary.Cancelled {
			log.Warn().Str("phase", pe.Phase).Msg("import interrupted; committed files are kept")
			os.Exit(exitcode.Cancelled)
		}
		fail(log, exitcode.ImportError, err, "import failed")
	}
	if summary.FilesSkipped > 0 {
		os.Exit(exitcode.PartialSuccess)
	}
	return nil
}
