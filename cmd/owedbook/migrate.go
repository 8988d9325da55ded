package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/db"
	"github.com/gyeh/owedbook/internal/exitcode"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database schema migrations",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx := context.Background()

	pool, _ := connect(ctx, log)
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool, log); err != nil {
		fail(log, exitcode.ValidationError, err, "migration failed")
	}

	log.Info().Msg("all migrations applied successfully")
	return nil
}
