package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/exitcode"
	"github.com/gyeh/owedbook/internal/export"
	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a report for claims not yet exported in a category",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var (
	exportQuery    queryFlags
	exportCategory string
)

func init() {
	exportQuery.register(exportCmd.Flags(), false)
	exportCmd.Flags().StringVar(&exportCategory, "category", "commercial", "commercial, updated, federal or summary")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx := context.Background()

	q, err := exportQuery.query()
	if err != nil {
		fail(log, exitcode.UsageError, err, "invalid filters")
	}
	category, err := model.ParseCategory(exportCategory)
	if err != nil {
		fail(log, exitcode.UsageError, err, "invalid category")
	}

	pool, st := connect(ctx, log)
	defer pool.Close()
	svc := newServices(st, log)

	x := export.NewExporter(svc.engine, st, svc.tracker, report.XLSXWriter{}, cfg.ReportDir, log)
	out, err := x.Export(ctx, export.Request{Query: q, Category: category})
	if errors.Is(err, export.ErrNothingNew) {
		fmt.Println("Nothing new to export.")
		return nil
	}
	if err != nil {
		fail(log, exitcode.ExportError, err, "export failed")
	}
	fmt.Printf("Saved %s (%d claims)\n", out.FullPath, len(out.Scripts))
	return nil
}
