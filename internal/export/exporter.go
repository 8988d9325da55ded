package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/reconcile"
	"github.com/gyeh/owedbook/internal/report"
)

var (
	// ErrNothingNew means every row in scope already has an artifact.
	ErrNothingNew = errors.New("nothing new to export")
	// ErrNoRecipient means the payer directory has no email for the payer.
	ErrNoRecipient = errors.New("no email on file for payer")
	// ErrPayerRequired means the request targets All or Federal.
	ErrPayerRequired = errors.New("select a specific PBM")
)

// Evaluator produces the filtered, sorted reconciliation rows.
type Evaluator interface {
	Evaluate(ctx context.Context, q reconcile.Query) ([]reconcile.Row, error)
}

// Writer renders a report document to a file.
type Writer interface {
	Write(path string, doc report.Document) error
}

// Store is the persistence the exporter needs beyond the tracker.
type Store interface {
	SetPDFFile(ctx context.Context, scripts []string, path string) error
	Profile(ctx context.Context) (model.PharmacyProfile, error)
}

// Scope keeps the rows that belong in a report of category c.
func Scope(rows []reconcile.Row, c model.ReportCategory) []reconcile.Row {
	out := make([]reconcile.Row, 0, len(rows))
	for _, r := range rows {
		switch c {
		case model.CategoryCommercial:
			if !r.Commercial() {
				continue
			}
		case model.CategoryUpdated:
			if !r.Commercial() || r.NewPaid == nil {
				continue
			}
		case model.CategoryFederal:
			if r.Commercial() {
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

// ArtifactName is the file name for a report of category c.
func ArtifactName(c model.ReportCategory, payer string, start, end time.Time) string {
	if payer == "" {
		payer = reconcile.AllPayers
	}
	name := fmt.Sprintf("%s_%s_%s_%s", c.Folder(), payer, normalize.FormatDate(start), normalize.FormatDate(end))
	return normalize.SafeFilename(strings.ReplaceAll(name, " ", "_")) + ".xlsx"
}

// Request selects the rows and category to export.
type Request struct {
	Query    reconcile.Query
	Category model.ReportCategory
}

// Outcome describes a written artifact.
type Outcome struct {
	Path     string   // relative to the report directory, as recorded
	FullPath string
	Scripts  []string // scripts newly covered by the artifact
}

// Exporter writes one artifact per request covering only rows not yet
// exported for the category.
type Exporter struct {
	eval      Evaluator
	store     Store
	tracker   *Tracker
	writer    Writer
	reportDir string
	log       zerolog.Logger
}

// NewExporter wires an exporter writing under reportDir.
func NewExporter(eval Evaluator, store Store, tracker *Tracker, writer Writer, reportDir string, log zerolog.Logger) *Exporter {
	return &Exporter{eval: eval, store: store, tracker: tracker, writer: writer, reportDir: reportDir, log: log}
}

// Export writes the artifact and records it. It returns ErrNothingNew when
// no row in scope lacks an artifact.
func (x *Exporter) Export(ctx context.Context, req Request) (*Outcome, error) {
	rows, err := x.eval.Evaluate(ctx, req.Query)
	if err != nil {
		return nil, err
	}
	scoped := Scope(rows, req.Category)
	if len(scoped) == 0 {
		return nil, fmt.Errorf("%w: no rows match the filters", ErrNothingNew)
	}

	candidates := make([]string, len(scoped))
	for i, r := range scoped {
		candidates[i] = r.Script
	}
	fresh, err := x.tracker.PlanExport(ctx, candidates, req.Category)
	if err != nil {
		return nil, err
	}
	if len(fresh) == 0 {
		return nil, ErrNothingNew
	}

	include := make(map[string]struct{}, len(fresh))
	for _, s := range fresh {
		include[s] = struct{}{}
	}
	subset := make([]reconcile.Row, 0, len(fresh))
	for _, r := range scoped {
		if _, ok := include[r.Script]; ok {
			subset = append(subset, r)
		}
	}

	profile, err := x.store.Profile(ctx)
	if err != nil {
		return nil, err
	}
	email := profile.Email
	if email == "" {
		email = subset[0].Email
	}

	payer := req.Query.Payer
	if payer == "" {
		payer = reconcile.AllPayers
	}
	rel := x.uniquePath(filepath.Join(req.Category.Folder(),
		ArtifactName(req.Category, payer, req.Query.Start, req.Query.End)))
	full := filepath.Join(x.reportDir, rel)

	doc := report.Document{
		Category: req.Category,
		Payer:    payer,
		Start:    req.Query.Start,
		End:      req.Query.End,
		Profile:  profile,
		Email:    email,
		Rows:     subset,
		Summary:  reconcile.Summarize(subset),
	}
	if err := x.writer.Write(full, doc); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if err := x.tracker.RecordExport(ctx, req.Category, rel, fresh...); err != nil {
		return nil, err
	}
	if err := x.store.SetPDFFile(ctx, fresh, rel); err != nil {
		return nil, err
	}

	x.log.Info().
		Str("category", string(req.Category)).
		Str("payer", payer).
		Str("artifact", rel).
		Int("scripts", len(fresh)).
		Msg("report exported")
	return &Outcome{Path: rel, FullPath: full, Scripts: fresh}, nil
}

// uniquePath appends _2, _3, ... before the extension while rel already
// exists, so an earlier artifact for the same payer and period survives.
func (x *Exporter) uniquePath(rel string) string {
	ext := filepath.Ext(rel)
	base := strings.TrimSuffix(rel, ext)
	candidate := rel
	for i := 2; ; i++ {
		if _, err := os.Stat(filepath.Join(x.reportDir, candidate)); err != nil {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}
