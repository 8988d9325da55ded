package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gyeh/owedbook/internal/exitcode"
	"github.com/gyeh/owedbook/internal/export"
	"github.com/gyeh/owedbook/internal/mail"
	"github.com/gyeh/owedbook/internal/model"
)

var emailCmd = &cobra.Command{
	Use:   "email",
	Short: "Draft an email to a PBM with its saved reports and mark the claims emailed",
	Args:  cobra.NoArgs,
	RunE:  runEmail,
}

var (
	emailQuery     queryFlags
	emailCategory  string
	emailArtifacts []string
)

func init() {
	emailQuery.register(emailCmd.Flags(), false)
	f := emailCmd.Flags()
	f.StringVar(&emailCategory, "category", "commercial", "commercial, updated, federal or summary")
	f.StringSliceVar(&emailArtifacts, "attach", nil, "Report paths relative to the report dir (default: all saved for the rows)")
	rootCmd.AddCommand(emailCmd)
}

func runEmail(cmd *cobra.Command, args []string) error {
	log := setupLog()
	ctx := context.Background()

	q, err := emailQuery.query()
	if err != nil {
		fail(log, exitcode.UsageError, err, "invalid filters")
	}
	category, err := model.ParseCategory(emailCategory)
	if err != nil {
		fail(log, exitcode.UsageError, err, "invalid category")
	}

	pool, st := connect(ctx, log)
	defer pool.Close()
	svc := newServices(st, log)

	m := export.NewMailer(svc.engine, st, svc.tracker, mail.EMLComposer{Dir: cfg.ReportDir},
		cfg.ReportDir, cfg.FromEmail, log)
	out, err := m.Send(ctx, export.EmailRequest{Query: q, Category: category, Artifacts: emailArtifacts})
	switch {
	case errors.Is(err, export.ErrNothingNew):
		fmt.Println(err)
		return nil
	case errors.Is(err, export.ErrPayerRequired), errors.Is(err, export.ErrNoRecipient):
		fail(log, exitcode.UsageError, err, "cannot draft email")
	case err != nil:
		fail(log, exitcode.ExportError, err, "email failed")
	}

	fmt.Println(out.Status)
	fmt.Printf("Draft: %s\nTo: %s\nAttachments: %d\nClaims marked emailed: %d\n",
		out.Draft, out.To, len(out.Attachments), len(out.Scripts))
	return nil
}
