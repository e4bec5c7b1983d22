package http

import (
	"net/http"

	"financas/internal/core"

	"github.com/go-chi/chi/v5"
)

// handleListIncomes returns the incomes that contribute to ?year=&month=.
func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	incomes, err := s.deps.Incomes.ListMonth(r.Context(), caller(r), p.Year, p.Month)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(incomes))
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	inc, err := s.deps.Incomes.Get(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, inc)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var rec core.IncomeRecord
	if err := DecodeJSON(w, r, &rec, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	rec.Description = sanitizeInput(rec.Description)
	inc, err := s.deps.Incomes.Create(r.Context(), caller(r), rec)
	if err != nil {
		fail(w, r, err)
		return
	}
	created(w, inc)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var rec core.IncomeRecord
	if err := DecodeJSON(w, r, &rec, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	rec.Description = sanitizeInput(rec.Description)
	inc, err := s.deps.Incomes.Update(r.Context(), caller(r), chi.URLParam(r, "id"), rec)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, inc)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Incomes.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	NewJSONResponse().Message("income deleted").Write(w)
}

// nonNil makes empty listings encode as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
