package api

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/reconcile"
)

const dateLayout = "2006-01-02"

// MaxLimit caps the page size a client may request.
const MaxLimit = 1000

// parseQuery reads the filter, sort and paging parameters. Absent
// parameters leave the filter off.
func parseQuery(v url.Values) (reconcile.Query, error) {
	var q reconcile.Query
	var err error

	if q.Start, err = parseDate(v, "dateFrom"); err != nil {
		return q, err
	}
	if q.End, err = parseDate(v, "dateTo"); err != nil {
		return q, err
	}
	if !q.Start.IsZero() && !q.End.IsZero() && q.End.Before(q.Start) {
		return q, fmt.Errorf("dateTo %s is before dateFrom %s", v.Get("dateTo"), v.Get("dateFrom"))
	}

	q.Payer = strings.TrimSpace(v.Get("pbm"))
	if q.Owed, err = reconcile.ParseOwedType(v.Get("owedType")); err != nil {
		return q, err
	}

	switch m := strings.ToUpper(strings.TrimSpace(v.Get("method"))); m {
	case "", "ALL":
	case "AAC", "WAC":
		q.Method = m
	default:
		return q, fmt.Errorf("unknown method %q", v.Get("method"))
	}

	q.Script = strings.TrimSpace(v.Get("script"))
	q.NDC = strings.TrimSpace(v.Get("ndc"))
	q.Drug = strings.TrimSpace(v.Get("drug"))
	q.BIN = strings.TrimSpace(v.Get("bin"))

	if raw := strings.TrimSpace(v.Get("status")); raw != "" && !strings.EqualFold(raw, "all") {
		st, err := model.ParseStatus(raw)
		if err != nil {
			return q, err
		}
		q.Status = &st
	}

	if key := v.Get("sortKey"); key != "" {
		if !slices.Contains(reconcile.SortKeys, key) {
			return q, fmt.Errorf("unknown sortKey %q", key)
		}
		q.SortKey = key
	}
	switch strings.ToLower(v.Get("sortDir")) {
	case "", "asc":
	case "desc":
		q.SortDesc = true
	default:
		return q, fmt.Errorf("sortDir must be asc or desc")
	}

	if q.Page, err = parsePositive(v, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = parsePositive(v, "limit"); err != nil {
		return q, err
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q, nil
}

func parseDate(v url.Values, key string) (time.Time, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD, got %q", key, raw)
	}
	return t, nil
}

func parsePositive(v url.Values, key string) (int, error) {
	raw := strings.TrimSpace(v.Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, raw)
	}
	return n, nil
}
