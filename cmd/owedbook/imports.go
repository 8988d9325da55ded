package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/exitcode"
)

var importsCmd = &cobra.Command{
	Use:   "imports",
	Short: "List recently imported files",
	Args:  cobra.NoArgs,
	RunE:  runImports,
}

var importsLimit int

func init() {
	importsCmd.Flags().IntVar(&importsLimit, "limit", 50, "Maximum entries to list")
	rootCmd.AddCommand(importsCmd)
}

func runImports(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx := context.Background()

	pool, st := connect(ctx, log)
	defer pool.Close()

	entries, err := st.RecentImports(ctx, importsLimit)
	if err != nil {
		fail(log, exitcode.DBConnError, err, "list imports failed")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	fmt.Fprintln(tw, "Imported\tBatch\tFile\tOutcome\tIns\tUpd\tSame\tDropped\tError")
	for _, e := range entries {
		batch := e.BatchID
		if len(batch) > 8 {
			batch = batch[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			e.ImportedAt.Local().Format("2006-01-02 15:04"), batch, e.FileName, e.Outcome,
			e.Inserted, e.Updated, e.Unchanged, e.Dropped, e.Error)
	}
	return tw.Flush()
}
