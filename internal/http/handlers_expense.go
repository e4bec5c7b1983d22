package http

import (
	"fmt"
	"net/http"

	"financas/internal/core"

	"github.com/go-chi/chi/v5"
)

type deleteExpenseResponse struct {
	Deleted int `json:"deleted"`
}

// handleListExpenses returns the expenses paid in ?year=&month= with their
// accounts resolved.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	p, err := ParseMonthParams(r.URL.Query())
	if err != nil {
		fail(w, r, err)
		return
	}
	expenses, err := s.deps.Expenses.ListMonth(r.Context(), caller(r), p.Year, p.Month)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(expenses))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Expenses.Get(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, e)
}

// handleCreateExpense stores one expense, or a whole installment group when
// installments is above one.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)
	records, err := s.deps.Expenses.Create(r.Context(), caller(r), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	b := NewJSONResponse().Status(http.StatusCreated).Data(records)
	if len(records) > 1 {
		b.Message(fmt.Sprintf("%d installments created", len(records)))
	}
	b.Write(w)
}

// handleUpdateExpense edits a single expense or rebuilds the installment
// group the expense belongs to.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var in core.ExpenseInput
	if err := DecodeJSON(w, r, &in, maxBodyBytes); err != nil {
		fail(w, r, err)
		return
	}
	in.Description = sanitizeInput(in.Description)
	records, err := s.deps.Expenses.Update(r.Context(), caller(r), chi.URLParam(r, "id"), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, records)
}

// handleDeleteExpense removes the expense, or its whole group.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	n, err := s.deps.Expenses.Delete(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	NewJSONResponse().Data(deleteExpenseResponse{Deleted: n}).Write(w)
}

func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	group, err := s.deps.Expenses.Purchase(r.Context(), caller(r), chi.URLParam(r, "id"))
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, group)
}

// handleListInstallments lists account-linked installments due on or after
// ?from=, today by default.
func (s *Server) handleListInstallments(w http.ResponseWriter, r *http.Request) {
	from, err := ParseDateParam(r.URL.Query(), "from", today())
	if err != nil {
		fail(w, r, err)
		return
	}
	items, err := s.deps.Expenses.ListInstallmentsFrom(r.Context(), caller(r), from)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(items))
}

// handleInstallmentSummary totals future installment debt per month from
// the month containing ?from=.
func (s *Server) handleInstallmentSummary(w http.ResponseWriter, r *http.Request) {
	from, err := ParseDateParam(r.URL.Query(), "from", today())
	if err != nil {
		fail(w, r, err)
		return
	}
	months, err := s.deps.Expenses.InstallmentSummary(r.Context(), caller(r), from)
	if err != nil {
		fail(w, r, err)
		return
	}
	writeData(w, nonNil(months))
}
