package export

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/mail"
	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/reconcile"
)

// Composer turns a message into a draft.
type Composer interface {
	Compose(msg mail.Message) (mail.Result, error)
}

// MailStore is the persistence the mailer needs beyond the tracker.
type MailStore interface {
	Payers(ctx context.Context) ([]model.PayerEntry, error)
	TransitionStatus(ctx context.Context, scripts []string, ev model.StatusEvent) (int, error)
}

// EmailRequest selects the rows, category and optionally the artifacts
// (relative paths) to send. No artifacts means every available one.
type EmailRequest struct {
	Query     reconcile.Query
	Category  model.ReportCategory
	Artifacts []string
}

// EmailOutcome reports the composed draft.
type EmailOutcome struct {
	Draft       string
	To          string
	Attachments []string
	Scripts     []string
	Status      string
}

// Mailer drafts an email to a PBM carrying its saved reports and marks the
// covered claims as emailed once the draft exists.
type Mailer struct {
	eval      Evaluator
	store     MailStore
	tracker   *Tracker
	composer  Composer
	reportDir string
	from      string
	log       zerolog.Logger
}

// NewMailer wires a mailer.
func NewMailer(eval Evaluator, store MailStore, tracker *Tracker, composer Composer, reportDir, from string, log zerolog.Logger) *Mailer {
	return &Mailer{eval: eval, store: store, tracker: tracker, composer: composer, reportDir: reportDir, from: from, log: log}
}

// Subject is the email subject line for a report.
func Subject(payer string, c model.ReportCategory, q reconcile.Query) string {
	return fmt.Sprintf("%s %s Report %s to %s", payer, c,
		normalize.FormatDate(q.Start), normalize.FormatDate(q.End))
}

// Body is the email body for a report.
func Body(payer string, q reconcile.Query) string {
	return fmt.Sprintf("Hello %s,\n\nPlease find attached the selected report(s) for period %s to %s.\n\nRegards,\nPharmacy Owedbook",
		payer, normalize.FormatDate(q.Start), normalize.FormatDate(q.End))
}

// Send composes the draft. Claims move to EmailedPBM only after the composer
// reports success, and only those whose report was attached to the draft. A
// composer failure leaves every status as it was.
func (m *Mailer) Send(ctx context.Context, req EmailRequest) (*EmailOutcome, error) {
	payer := req.Query.Payer
	if payer == "" || payer == reconcile.AllPayers || payer == model.FederalPayer {
		return nil, ErrPayerRequired
	}

	rows, err := m.eval.Evaluate(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	var available []string
	for _, r := range Scope(rows, req.Category) {
		if r.Status != model.StatusEmailedPBM {
			available = append(available, r.Script)
		}
	}
	available = dedupe(available)
	if len(available) == 0 {
		return nil, fmt.Errorf("%w: all rows already emailed", ErrNothingNew)
	}

	recs, err := m.tracker.Records(ctx, req.Category, available)
	if err != nil {
		return nil, err
	}
	wanted := make(map[string]bool, len(req.Artifacts))
	for _, a := range req.Artifacts {
		wanted[a] = true
	}
	byArtifact := make(map[string][]string)
	for _, r := range recs {
		if r.ArtifactPath == "" || (len(wanted) > 0 && !wanted[r.ArtifactPath]) {
			continue
		}
		byArtifact[r.ArtifactPath] = append(byArtifact[r.ArtifactPath], r.Script)
	}
	if len(byArtifact) == 0 {
		return nil, fmt.Errorf("%w: no saved reports available", ErrNothingNew)
	}

	to, err := m.recipient(ctx, payer)
	if err != nil {
		return nil, err
	}

	artifacts := make([]string, 0, len(byArtifact))
	for a := range byArtifact {
		artifacts = append(artifacts, a)
	}
	sort.Strings(artifacts)
	attachments := make([]string, len(artifacts))
	for i, a := range artifacts {
		attachments[i] = filepath.Join(m.reportDir, a)
	}

	res, err := m.composer.Compose(mail.Message{
		From:        m.from,
		To:          to,
		Subject:     Subject(payer, req.Category, req.Query),
		Body:        Body(payer, req.Query),
		Attachments: attachments,
	})
	out := &EmailOutcome{Draft: res.Path, To: to, Status: res.Status}
	if err != nil {
		m.log.Warn().Err(err).Str("payer", payer).Msg("email draft failed")
		return out, fmt.Errorf("compose email: %w", err)
	}

	attached := make(map[string]bool, len(res.Attached))
	for _, p := range res.Attached {
		attached[p] = true
	}
	var covered []string
	for i, a := range artifacts {
		if !attached[attachments[i]] {
			m.log.Warn().Str("payer", payer).Str("artifact", a).Msg("report not attached")
			continue
		}
		out.Attachments = append(out.Attachments, a)
		covered = append(covered, byArtifact[a]...)
	}
	if len(covered) == 0 {
		return out, fmt.Errorf("%w: no saved report could be attached", ErrNothingNew)
	}

	if _, err := m.store.TransitionStatus(ctx, covered, model.EventEmailSent); err != nil {
		return out, err
	}
	out.Scripts = covered
	m.log.Info().
		Str("payer", payer).
		Str("draft", res.Path).
		Int("attachments", len(out.Attachments)).
		Int("scripts", len(covered)).
		Msg("email drafted")
	return out, nil
}

// recipient returns the first non-empty directory email for payer.
func (m *Mailer) recipient(ctx context.Context, payer string) (string, error) {
	payers, err := m.store.Payers(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range payers {
		if p.PBMName == payer && p.Email != "" {
			return p.Email, nil
		}
	}
	return "", fmt.Errorf("%w %s", ErrNoRecipient, payer)
}
