package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gyeh/owedbook/internal/model"
	"github.com/gyeh/owedbook/internal/normalize"
	"github.com/gyeh/owedbook/internal/reconcile"
)

// claimRow adds the display forms of method and status to a row.
type claimRow struct {
	reconcile.Row
	Method string `json:"method"`
	Status string `json:"status"`
}

type claimsResponse struct {
	Rows  []claimRow `json:"rows"`
	Total int        `json:"total"`
	Page  int        `json:"page"`
	Limit int        `json:"limit"`
}

type payersResponse struct {
	Payers    []string           `json:"payers"`
	Directory []model.PayerEntry `json:"directory"`
}

// run evaluates the request's query, heals the report records of the
// returned rows and evaluates again so healed statuses are visible.
func (s *Server) run(w http.ResponseWriter, r *http.Request) (*reconcile.Result, reconcile.Query, bool) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, err)
		return nil, q, false
	}
	res, err := s.engine.Run(r.Context(), q)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return nil, q, false
	}
	if len(res.Rows) == 0 {
		return res, q, true
	}

	scripts := make([]string, len(res.Rows))
	for i, row := range res.Rows {
		scripts[i] = row.Script
	}
	if err := s.healer.Heal(r.Context(), scripts); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, fmt.Errorf("self-heal: %w", err))
		return nil, q, false
	}
	if res, err = s.engine.Run(r.Context(), q); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return nil, q, false
	}
	return res, q, true
}

func (s *Server) handleClaims(w http.ResponseWriter, r *http.Request) {
	res, q, ok := s.run(w, r)
	if !ok {
		return
	}
	out := claimsResponse{
		Rows:  make([]claimRow, len(res.Rows)),
		Total: res.Total,
		Page:  max(q.Page, 1),
		Limit: q.Limit,
	}
	for i, row := range res.Rows {
		row.Expected = normalize.Round2(row.Expected)
		row.Difference = normalize.Round2(row.Difference)
		row.UpdatedDifference = normalize.Round2(row.UpdatedDifference)
		out.Rows[i] = claimRow{Row: row, Method: row.Method.String(), Status: row.Status.Label()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.KPIs)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	res, _, ok := s.run(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Summary)
}

func (s *Server) handlePayers(w http.ResponseWriter, r *http.Request) {
	payers, err := s.store.Payers(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	if payers == nil {
		payers = []model.PayerEntry{}
	}
	names := append([]string{reconcile.AllPayers}, reconcile.PayerNames(payers)...)
	names = append(names, model.FederalPayer)
	writeJSON(w, http.StatusOK, payersResponse{Payers: names, Directory: payers})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.Profile(r.Context())
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	var p model.PharmacyProfile
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		s.respondError(w, r, http.StatusBadRequest, fmt.Errorf("decode profile: %w", err))
		return
	}
	if err := s.store.SetProfile(r.Context(), p); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
