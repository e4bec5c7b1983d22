package http

import (
	"net/http"

	"financas/internal/core"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.deps.Accounts.List(r.Context(), caller(r))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(accounts))
}

func (s *Server) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Accounts.Get(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, a)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAccount(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	a, err := s.deps.Accounts.Create(r.Context(), caller(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	created(w, a)
}

func (s *Server) handleUpdateAccount(w http.ResponseWriter, r *http.Request) {
	in, err := decodeAccount(w, r)
	if err != nil {
		fail(w, r, err)
		return
	}
	a, err := s.deps.Accounts.Update(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, a)
}

// handleDeleteAccount unlinks the caller's expenses from the account and
// removes it.
func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Accounts.Delete(r.Context(), caller(r), chi.URLParam(r, "id")); err != nil {
		fail(w, r, err)
		return
	}
	NewJSONResponse().Message("account deleted").Write(w)
}

func decodeAccount(w http.ResponseWriter, r *http.Request) (core.AccountInput, error) {
	var in core.AccountInput
	if err := DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		return core.AccountInput{}, err
	}
	in.Name = sanitizeInput(in.Name)
	if in.CardDetails != nil {
		in.CardDetails.HolderName = sanitizeInput(in.CardDetails.HolderName)
	}
	return in, nil
}
