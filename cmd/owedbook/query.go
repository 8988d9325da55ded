package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/reconcile"
)

// queryFlags are the filter flags shared by reconcile, export and email.
type queryFlags struct {
	from, to string
	payer    string
	owed     string
	method   string
	script   string
	ndc      string
	drug     string
	bin      string
	status   string
	sortKey  string
	desc     bool
	page     int
	limit    int
}

func (f *queryFlags) register(fs *pflag.FlagSet, paging bool) {
	fs.StringVar(&f.from, "from", "", "Start date YYYY-MM-DD (inclusive)")
	fs.StringVar(&f.to, "to", "", "End date YYYY-MM-DD (inclusive)")
	fs.StringVar(&f.payer, "pbm", reconcile.AllPayers, "PBM name, Federal, or All")
	fs.StringVar(&f.owed, "owed", "All", "All, Underpaid or Overpaid")
	fs.StringVar(&f.method, "method", "", "Pricing method family: AAC or WAC")
	fs.StringVar(&f.script, "script", "", "Script substring")
	fs.StringVar(&f.ndc, "ndc", "", "NDC substring")
	fs.StringVar(&f.drug, "drug", "", "Drug name substring")
	fs.StringVar(&f.bin, "bin", "", "Exact BIN")
	fs.StringVar(&f.status, "status", "", "untouched or emailed_pbm")
	fs.StringVar(&f.sortKey, "sort", "date", "Sort key: "+strings.Join(reconcile.SortKeys, ", "))
	fs.BoolVar(&f.desc, "desc", false, "Sort descending")
	if paging {
		fs.IntVar(&f.page, "page", 1, "Page number (with --limit)")
		fs.IntVar(&f.limit, "limit", 0, "Rows per page; 0 prints every row")
	}
}

func (f *queryFlags) query() (reconcile.Query, error) {
	q := reconcile.Query{
		Payer:    f.payer,
		Script:   f.script,
		NDC:      f.ndc,
		Drug:     f.drug,
		BIN:      f.bin,
		SortKey:  f.sortKey,
		SortDesc: f.desc,
		Page:     f.page,
		Limit:    f.limit,
	}
	var err error
	if q.Start, err = flagDate("from", f.from); err != nil {
		return q, err
	}
	if q.End, err = flagDate("to", f.to); err != nil {
		return q, err
	}
	if q.Owed, err = reconcile.ParseOwedType(f.owed); err != nil {
		return q, err
	}
	switch m := strings.ToUpper(f.method); m {
	case "", "ALL":
	case "AAC", "WAC":
		q.Method = m
	default:
		return q, fmt.Errorf("--method must be AAC or WAC, got %q", f.method)
	}
	if f.status != "" {
		st, err := model.ParseStatus(f.status)
		if err != nil {
			return q, err
		}
		q.Status = &st
	}
	return q, nil
}

func flagDate(name, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}
