// Package report renders reconciled rows into spreadsheet artifacts.
package report

import (
	"time"

	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/reconcile"
)

// Document is everything a writer needs for one artifact.
type Document struct {
	Category model.ReportCategory
	Payer    string
	Start    time.Time
	End      time.Time
	Profile  model.PharmacyProfile
	Email    string // title block contact line
	Rows     []reconcile.Row
	Summary  reconcile.PayerSummary
}
