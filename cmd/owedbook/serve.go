package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/api"
	"github.com/gyeh/owedbook/internal/exitcode"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the reconciliation JSON API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var listenAddr string

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := cfg.ListenAddr
	if listenAddr != "" {
		addr = listenAddr
	}

	pool, st := connect(ctx, log)
	defer pool.Close()
	svc := newServices(st, log)

	srv := api.NewServer(svc.engine, svc.tracker, st, log)
	if err := srv.ListenAndServe(ctx, addr); err != nil {
		fail(log, exitcode.UsageError, err, "http server failed")
	}
	log.Info().Msg("http server stopped")
	return nil
}
