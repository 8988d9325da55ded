package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Claim is a single dispensed prescription as stored in the claims table.
// TotalPaid is the first paid amount ever imported for the script and is
// never rewritten; later differing amounts land in NewPaid.
type Claim struct {
	Script        string
	DateDispensed time.Time
	DrugNDC       string
	DrugName      string
	Qty           float64
	TotalPaid     float64
	NewPaid       *float64
	BIN           string
	PDFFile       *string
	Status        Status
}

// UpsertOutcome classifies what a single upsert did to the store.
type UpsertOutcome int

const (
	OutcomeUnchanged UpsertOutcome = iota
	OutcomeInserted
	OutcomeUpdated
)

func (o UpsertOutcome) String() string {
	switch o {
	case OutcomeInserted:
		return "inserted"
	case OutcomeUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

// Merge applies an incoming import row to the stored claim (nil when the
// script is new) and returns the row to persist together with the outcome.
//
// A differing paid amount refreshes the descriptive fields and records the
// amount as NewPaid; TotalPaid, Status and PDFFile always keep their stored
// values. An equal paid amount leaves the stored row untouched.
func Merge(existing *Claim, incoming Claim) (Claim, UpsertOutcome) {
	if existing == nil {
		c := incoming
		c.NewPaid = nil
		c.PDFFile = nil
		c.Status = StatusUntouched
		return c, OutcomeInserted
	}
	if incoming.TotalPaid == existing.TotalPaid {
		return *existing, OutcomeUnchanged
	}
	c := *existing
	c.DateDispensed = incoming.DateDispensed
	c.DrugNDC = incoming.DrugNDC
	c.DrugName = incoming.DrugName
	c.Qty = incoming.Qty
	c.BIN = incoming.BIN
	paid := incoming.TotalPaid
	c.NewPaid = &paid
	return c, OutcomeUpdated
}

// Status is the email workflow state of a claim.
type Status int

const (
	StatusUntouched Status = iota
	StatusEmailedPBM
)

// StatusEvent drives Status transitions.
type StatusEvent int

const (
	// EventEmailSent fires when the email composer confirmed a draft that
	// carried the claim's report.
	EventEmailSent StatusEvent = iota
	// EventArtifactMissing fires when a recorded report artifact vanished.
	EventArtifactMissing
)

// ErrInvalidTransition is returned for event/state pairs with no edge.
var ErrInvalidTransition = errors.New("invalid status transition")

// Next returns the state reached from s on ev.
//
//	Untouched  --EmailSent-->       EmailedPBM
//	EmailedPBM --ArtifactMissing--> Untouched
//
// ArtifactMissing on an Untouched claim is a no-op so self-heal can run
// unconditionally.
func (s Status) Next(ev StatusEvent) (Status, error) {
	switch {
	case s == StatusUntouched && ev == EventEmailSent:
		return StatusEmailedPBM, nil
	case ev == EventArtifactMissing:
		return StatusUntouched, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, s)
}

func (s Status) String() string {
	if s == StatusEmailedPBM {
		return "emailed_pbm"
	}
	return "untouched"
}

// Label is the human-facing form used in reports and the API.
func (s Status) Label() string {
	if s == StatusEmailedPBM {
		return "emailed PBM"
	}
	return ""
}

// ParseStatus maps the persisted text back to a Status, ignoring case and
// surrounding space. Empty text and the legacy "emailed PBM" label are
// accepted.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "untouched", "":
		return StatusUntouched, nil
	case "emailed_pbm", "emailed pbm", "emailed":
		return StatusEmailedPBM, nil
	}
	return StatusUntouched, fmt.Errorf("unknown claim status %q", s)
}

func (e StatusEvent) String() string {
	if e == EventArtifactMissing {
		return "artifact_missing"
	}
	return "email_sent"
}
