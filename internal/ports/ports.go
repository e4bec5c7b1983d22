// Package ports declares the outbound interfaces the services depend on.
// Every read and write is scoped by user id; a record owned by someone else
// is reported as core.ErrNotFound.
package ports

import (
	"context"

	"financas/internal/core"
)

// ExpenseFilter narrows ListExpenses. Zero values do not filter.
type ExpenseFilter struct {
	From              core.Date
	To                core.Date
	InstallmentsOnly  bool
	AccountLinkedOnly bool
	PurchaseID        string
}

// PurchaseRef identifies one installment group.
type PurchaseRef struct {
	UserID     string
	PurchaseID string
}

type (
	IncomeStore interface {
		InsertIncome(ctx context.Context, inc core.Income) error
		GetIncome(ctx context.Context, userID, id string) (core.Income, error)
		UpdateIncome(ctx context.Context, inc core.Income) error
		DeleteIncome(ctx context.Context, userID, id string) error
		// ListIncomes returns incomes anchored on or before until (all when
		// zero), oldest first.
		ListIncomes(ctx context.Context, userID string, until core.Date) ([]core.Income, error)
	}

	ExpenseStore interface {
		// InsertExpenses stores all records or none.
		InsertExpenses(ctx context.Context, expenses []core.Expense) error
		GetExpense(ctx context.Context, userID, id string) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, userID, id string) error
		DeleteByPurchase(ctx context.Context, userID, purchaseID string) (int, error)
		// ListExpenses returns matching expenses by payment date, then
		// insertion order.
		ListExpenses(ctx context.Context, userID string, f ExpenseFilter) ([]core.Expense, error)
		ListPurchases(ctx context.Context) ([]PurchaseRef, error)
		UnlinkAccount(ctx context.Context, userID, accountID string) (int, error)
	}

	AccountStore interface {
		InsertAccount(ctx context.Context, a core.Account) error
		GetAccount(ctx context.Context, userID, id string) (core.Account, error)
		UpdateAccount(ctx context.Context, a core.Account) error
		DeleteAccount(ctx context.Context, userID, id string) error
		// ListAccounts returns accounts in creation order.
		ListAccounts(ctx context.Context, userID string) ([]core.Account, error)
	}

	SavingsStore interface {
		InsertSavings(ctx context.Context, s core.Savings) error
		GetSavings(ctx context.Context, userID, id string) (core.Savings, error)
		UpdateSavings(ctx context.Context, s core.Savings) error
		DeleteSavings(ctx context.Context, userID, id string) error
		// ListSavings returns entries oldest first.
		ListSavings(ctx context.Context, userID string) ([]core.Savings, error)
	}

	UserStore interface {
		InsertUser(ctx context.Context, u core.User) error
		GetUser(ctx context.Context, id string) (core.User, error)
		GetUserByEmail(ctx context.Context, email string) (core.User, error)
		ListUsers(ctx context.Context) ([]core.User, error)
		DeleteUser(ctx context.Context, id string) error
	}

	// Store is the full persistence surface.
	Store interface {
		IncomeStore
		ExpenseStore
		AccountStore
		SavingsStore
		UserStore
		// PurgeUserData removes every income, expense, savings entry and
		// account owned by userID. The user itself is kept.
		PurgeUserData(ctx context.Context, userID string) error
		Close() error
	}

	// Transactor is implemented by stores that can run several writes
	// atomically. fn receives a Store bound to the transaction.
	Transactor interface {
		WithinTx(ctx context.Context, fn func(Store) error) error
	}
)

// PurchaseEvent announces a change to an installment group.
type PurchaseEvent struct {
	UserID     string
	PurchaseID string
	Action     string
	Count      int
}

const (
	PurchaseCreated = "created"
	PurchaseUpdated = "updated"
	PurchaseDeleted = "deleted"
)

// EventPublisher delivers purchase events to the reconcile worker.
type EventPublisher interface {
	PublishPurchaseEvent(ctx context.Context, ev PurchaseEvent) error
}
