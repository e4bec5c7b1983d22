// Package memory is a process-local ports.Store used for development and
// tests. It does not implement ports.Transactor.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"financas/internal/core"
	"financas/internal/ports"
)

type Store struct {
	mu       sync.Mutex
	incomes  []core.Income
	expenses []core.Expense
	accounts []core.Account
	savings  []core.Savings
	users    []core.User
}

func New() *Store {
	return &Store{}
}

func (s *Store) Close() error { return nil }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

// Incomes

func (s *Store) InsertIncome(_ context.Context, inc core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.incomes {
		if cur.ID == inc.ID {
			return fmt.Errorf("income %s: %w", inc.ID, core.ErrConflict)
		}
	}
	s.incomes = append(s.incomes, inc)
	return nil
}

func (s *Store) GetIncome(_ context.Context, userID, id string) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inc := range s.incomes {
		if inc.ID == id && inc.UserID == userID {
			return inc, nil
		}
	}
	return core.Income{}, notFound("income", id)
}

func (s *Store) UpdateIncome(_ context.Context, inc core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.incomes {
		if cur.ID == inc.ID && cur.UserID == inc.UserID {
			inc.CreatedAt = cur.CreatedAt
			s.incomes[i] = inc
			return nil
		}
	}
	return notFound("income", inc.ID)
}

func (s *Store) DeleteIncome(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.incomes {
		if cur.ID == id && cur.UserID == userID {
			s.incomes = append(s.incomes[:i], s.incomes[i+1:]...)
			return nil
		}
	}
	return notFound("income", id)
}

func (s *Store) ListIncomes(_ context.Context, userID string, until core.Date) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Income
	for _, inc := range s.incomes {
		if inc.UserID != userID {
			continue
		}
		if !until.IsZero() && inc.Date().After(until) {
			continue
		}
		out = append(out, inc)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date().Before(out[j].Date()) })
	return out, nil
}

// Expenses

func (s *Store) InsertExpenses(_ context.Context, expenses []core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]bool, len(s.expenses))
	for _, e := range s.expenses {
		ids[e.ID] = true
	}
	for _, e := range expenses {
		if ids[e.ID] {
			return fmt.Errorf("expense %s: %w", e.ID, core.ErrConflict)
		}
		ids[e.ID] = true
	}
	s.expenses = append(s.expenses, expenses...)
	return nil
}

func (s *Store) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expenses {
		if e.ID == id && e.UserID == userID {
			return copyExpense(e), nil
		}
	}
	return core.Expense{}, notFound("expense", id)
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.expenses {
		if cur.ID == e.ID && cur.UserID == e.UserID {
			e.CreatedAt = cur.CreatedAt
			s.expenses[i] = copyExpense(e)
			return nil
		}
	}
	return notFound("expense", e.ID)
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.expenses {
		if cur.ID == id && cur.UserID == userID {
			s.expenses = append(s.expenses[:i], s.expenses[i+1:]...)
			return nil
		}
	}
	return notFound("expense", id)
}

func (s *Store) DeleteByPurchase(_ context.Context, userID, purchaseID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.expenses[:0]
	n := 0
	for _, e := range s.expenses {
		if e.UserID == userID && e.PurchaseID() == purchaseID && purchaseID != "" {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.expenses = kept
	return n, nil
}

func (s *Store) ListExpenses(_ context.Context, userID string, f ports.ExpenseFilter) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.UserID != userID || !matchesFilter(e, f) {
			continue
		}
		out = append(out, copyExpense(e))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PaymentDate.Before(out[j].PaymentDate) })
	return out, nil
}

func (s *Store) ListPurchases(_ context.Context) ([]ports.PurchaseRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[ports.PurchaseRef]bool{}
	var out []ports.PurchaseRef
	for _, e := range s.expenses {
		pid := e.PurchaseID()
		if pid == "" {
			continue
		}
		ref := ports.PurchaseRef{UserID: e.UserID, PurchaseID: pid}
		if !seen[ref] {
			seen[ref] = true
			out = append(out, ref)
		}
	}
	return out, nil
}

func (s *Store) UnlinkAccount(_ context.Context, userID, accountID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.expenses {
		if s.expenses[i].UserID == userID && s.expenses[i].AccountID == accountID {
			s.expenses[i].AccountID = ""
			n++
		}
	}
	return n, nil
}

func matchesFilter(e core.Expense, f ports.ExpenseFilter) bool {
	if !f.From.IsZero() && e.PaymentDate.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.PaymentDate.After(f.To) {
		return false
	}
	if f.InstallmentsOnly && !e.IsInstallment {
		return false
	}
	if f.AccountLinkedOnly && e.AccountID == "" {
		return false
	}
	if f.PurchaseID != "" && e.PurchaseID() != f.PurchaseID {
		return false
	}
	return true
}

func copyExpense(e core.Expense) core.Expense {
	if e.InstallmentDetails != nil {
		d := *e.InstallmentDetails
		e.InstallmentDetails = &d
	}
	return e
}

// Accounts

func (s *Store) InsertAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.accounts {
		if cur.ID == a.ID {
			return fmt.Errorf("account %s: %w", a.ID, core.ErrConflict)
		}
	}
	s.accounts = append(s.accounts, copyAccount(a))
	return nil
}

func (s *Store) GetAccount(_ context.Context, userID, id string) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.ID == id && a.UserID == userID {
			return copyAccount(a), nil
		}
	}
	return core.Account{}, notFound("account", id)
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.accounts {
		if cur.ID == a.ID && cur.UserID == a.UserID {
			a.CreatedAt = cur.CreatedAt
			s.accounts[i] = copyAccount(a)
			return nil
		}
	}
	return notFound("account", a.ID)
}

func (s *Store) DeleteAccount(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.accounts {
		if cur.ID == id && cur.UserID == userID {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return nil
		}
	}
	return notFound("account", id)
}

func (s *Store) ListAccounts(_ context.Context, userID string) ([]core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, copyAccount(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func copyAccount(a core.Account) core.Account {
	if a.CardDetails != nil {
		d := *a.CardDetails
		a.CardDetails = &d
	}
	return a
}

// Savings

func (s *Store) InsertSavings(_ context.Context, sv core.Savings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.savings {
		if cur.ID == sv.ID {
			return fmt.Errorf("savings %s: %w", sv.ID, core.ErrConflict)
		}
	}
	s.savings = append(s.savings, sv)
	return nil
}

func (s *Store) GetSavings(_ context.Context, userID, id string) (core.Savings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sv := range s.savings {
		if sv.ID == id && sv.UserID == userID {
			return sv, nil
		}
	}
	return core.Savings{}, notFound("savings", id)
}

func (s *Store) UpdateSavings(_ context.Context, sv core.Savings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.savings {
		if cur.ID == sv.ID && cur.UserID == sv.UserID {
			sv.CreatedAt = cur.CreatedAt
			s.savings[i] = sv
			return nil
		}
	}
	return notFound("savings", sv.ID)
}

func (s *Store) DeleteSavings(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.savings {
		if cur.ID == id && cur.UserID == userID {
			s.savings = append(s.savings[:i], s.savings[i+1:]...)
			return nil
		}
	}
	return notFound("savings", id)
}

func (s *Store) ListSavings(_ context.Context, userID string) ([]core.Savings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Savings
	for _, sv := range s.savings {
		if sv.UserID == userID {
			out = append(out, sv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// Users

func (s *Store) InsertUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.users {
		if cur.ID == u.ID || strings.EqualFold(cur.Email, u.Email) {
			return fmt.Errorf("user %s: %w", u.Email, core.ErrConflict)
		}
	}
	s.users = append(s.users, u)
	return nil
}

func (s *Store) GetUser(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return core.User{}, notFound("user", id)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return core.User{}, notFound("user", email)
}

func (s *Store) ListUsers(_ context.Context) ([]core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]core.User(nil), s.users...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, u := range s.users {
		if u.ID == id {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return notFound("user", id)
}

func (s *Store) PurgeUserData(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	incomes := s.incomes[:0]
	for _, v := range s.incomes {
		if v.UserID != userID {
			incomes = append(incomes, v)
		}
	}
	s.incomes = incomes
	expenses := s.expenses[:0]
	for _, v := range s.expenses {
		if v.UserID != userID {
			expenses = append(expenses, v)
		}
	}
	s.expenses = expenses
	savings := s.savings[:0]
	for _, v := range s.savings {
		if v.UserID != userID {
			savings = append(savings, v)
		}
	}
	s.savings = savings
	accounts := s.accounts[:0]
	for _, v := range s.accounts {
		if v.UserID != userID {
			accounts = append(accounts, v)
		}
	}
	s.accounts = accounts
	return nil
}

var _ ports.Store = (*Store)(nil)
