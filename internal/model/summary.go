package model

import "time"

// UpsertCounts tallies upsert outcomes for one file or one batch.
type UpsertCounts struct {
	Inserted  int64
	Updated   int64
	Unchanged int64
}

// Add accumulates o into c.
func (c *UpsertCounts) Add(o UpsertCounts) {
	c.Inserted += o.Inserted
	c.Updated += o.Updated
	c.Unchanged += o.Unchanged
}

// Record counts a single outcome.
func (c *UpsertCounts) Record(o UpsertOutcome) {
	switch o {
	case OutcomeInserted:
		c.Inserted++
	case OutcomeUpdated:
		c.Updated++
	default:
		c.Unchanged++
	}
}

// FileResult is the outcome of importing one file in a batch.
type FileResult struct {
	FilePath    string
	FileSHA256  string
	Mapping     map[string]string // canonical field -> original header
	RowsRead    int64
	RowsDropped int64 // rows without a parseable date
	Counts      UpsertCounts
	Skipped     bool
	Err         error
}

// ImportSummary captures metrics from a single import batch.
type ImportSummary struct {
	BatchID       string
	Files         []FileResult
	Totals        UpsertCounts
	FilesSkipped  int
	Cancelled     bool
	DurationTotal time.Duration
}

// ImportFileEntry is a row of the import_files registry.
type ImportFileEntry struct {
	BatchID    string
	FileName   string
	FileSHA256 string
	Outcome    string
	Inserted   int64
	Updated    int64
	Unchanged  int64
	Dropped    int64
	Error      string
	ImportedAt time.Time
}

// ReloadSummary reports how many rows each reference table received.
type ReloadSummary struct {
	Baseline int64
	AltRates int64
	Payers   int64
	Skipped  []string // files that were absent
}
