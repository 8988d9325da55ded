package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/exitcode"
	"github.com/gyeh/owedbook/internal/ingest"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Replace the pricing baseline, alt rates and PBM directory from the inclusion files",
	Args:  cobra.NoArgs,
	RunE:  runReload,
}

var reloadPaths ingest.RefPaths

func init() {
	f := reloadCmd.Flags()
	f.StringVar(&reloadPaths.Baseline, "baseline", "", "AAC list file (default from config)")
	f.StringVar(&reloadPaths.AltRates, "alt-rates", "", "WAC file (default from config)")
	f.StringVar(&reloadPaths.Payers, "payers", "", "PBM directory file (default from config)")
	rootCmd.AddCommand(reloadCmd)
}

func runReload(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx := context.Background()

	paths := ingest.RefPaths{
		Baseline: cfg.RefFile(cfg.BaselineFile),
		AltRates: cfg.RefFile(cfg.AltRatesFile),
		Payers:   cfg.RefFile(cfg.PayerFile),
	}
	if reloadPaths.Baseline != "" {
		paths.Baseline = reloadPaths.Baseline
	}
	if reloadPaths.AltRates != "" {
		paths.AltRates = reloadPaths.AltRates
	}
	if reloadPaths.Payers != "" {
		paths.Payers = reloadPaths.Payers
	}

	pool, st := connect(ctx, log)
	defer pool.Close()

	sum, err := ingest.ReloadReference(ctx, st, log, paths)
	fmt.Printf("Reload: %d baseline, %d alt rates, %d payers\n", sum.Baseline, sum.AltRates, sum.Payers)
	for _, p := range sum.Skipped {
		fmt.Printf("  not found, left unchanged: %s\n", p)
	}
	if err != nil {
		fail(log, exitcode.PartialSuccess, err, "reference reload incomplete")
	}
	return nil
}
