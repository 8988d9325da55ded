package ingest

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/gyeh/owedbook/internal/columns"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/tabular"
)

// PreflightResult holds what is known about a file before any row is
// normalized.
type PreflightResult struct {
	// FilePath is the path as given.
	FilePath string
	// FileSHA256 is the hex SHA-256 of the file contents.
	FileSHA256 string
	// Table is the fully read file.
	Table *tabular.Table
	// Resolution maps canonical claim fields to the file's columns.
	Resolution columns.Resolution
}

// Preflight hashes and reads the file and resolves its header row. A file
// that cannot be read or lacks a required column yields a *FileError.
func Preflight(log zerolog.Logger, resolver *columns.Resolver, filePath string) (*PreflightResult, error) {
	name := filepath.Base(filePath)

	sha, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, &FileError{File: name, Kind: FileUnreadable, Err: err}
	}

	tbl, err := tabular.Open(filePath)
	if err != nil {
		return &PreflightResult{FilePath: filePath, FileSHA256: sha},
			&FileError{File: name, Kind: FileUnreadable, Err: err}
	}

	res := resolver.Resolve(tbl.Headers)
	pf := &PreflightResult{FilePath: filePath, FileSHA256: sha, Table: tbl, Resolution: res}
	if !res.OK() {
		return pf, &FileError{File: name, Kind: MissingRequiredColumns, Missing: res.Missing, Headers: res.Headers}
	}

	log.Debug().
		Str("file", name).
		Str("sha256", sha).
		Int("rows", len(tbl.Rows)).
		Interface("mapping", res.Mapping).
		Msg("preflight complete")
	return pf, nil
}
