package http

import (
	"net/http"

	"financas/internal/core"

	"github.com/go-chi/chi/v5"
)

// handleListSavings returns the ledger, newest first.
func (s *Server) handleListSavings(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Savings.List(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(entries))
}

func (s *Server) handleCreateSavings(w http.ResponseWriter, r *http.Request) {
	var in core.SavingsInput
	if err := DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	in.SourceDescription = sanitizeInput(in.SourceDescription)
	entry, err := s.deps.Savings.Create(r.Context(), caller(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	created(w, entry)
}

func (s *Server) handleUpdateSavings(w http.ResponseWriter, r *http.Request) {
	var in core.SavingsInput
	if err := DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	in.SourceDescription = sanitizeInput(in.SourceDescription)
	entry, err := s.deps.Savings.Update(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, entry)
}

func (s *Server) handleDeleteSavings(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Savings.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	NewJSONResponse().Message("savings entry deleted").Write(w)
}

// handleSavingsEvolution returns the running balance in date order.
func (s *Server) handleSavingsEvolution(w http.ResponseWriter, r *http.Request) {
	points, err := s.deps.Savings.Evolution(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(points))
}
