package services

import (
	"context"
	"fmt"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/ports"

	"github.com/shopspring/decimal"
)

// ExpenseService manages expenses and installment purchases. A purchase is
// always written and removed as a whole group.
type ExpenseService struct {
	store     ports.Store
	publisher ports.EventPublisher
	reports   Invalidator
}

func NewExpenseService(store ports.Store, publisher ports.EventPublisher, reports Invalidator) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		reports:   orNoop(reports),
	}
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (core.Expense, error) {
	return s.store.GetExpense(ctx, userID, id)
}

// Create stores a plain expense or, for more than one installment, the
// generated purchase group.
func (s *ExpenseService) Create(ctx context.Context, userID string, in core.ExpenseInput) ([]core.Expense, error) {
	if err := requireAccount(ctx, s.store, userID, in.AccountID); err != nil {
		return nil, err
	}
	records, err := core.BuildExpenses(userID, in, "")
	if err != nil {
		return nil, err
	}
	if err := s.store.InsertExpenses(ctx, records); err != nil {
		return nil, fmt.Errorf("save expenses: %w", err)
	}
	s.reports.Invalidate(userID)

	mutationLog(ctx).LogMutation(ctx, applog.ComponentExpense, applog.OpCreate, userID,
		applog.NewFields().WithPurchase(records[0].PurchaseID(), len(records)).With("id", records[0].ID))
	if pid := records[0].PurchaseID(); pid != "" {
		publish(ctx, s.publisher, ports.PurchaseEvent{
			UserID: userID, PurchaseID: pid, Action: ports.PurchaseCreated, Count: len(records),
		})
	}
	return records, nil
}

// Update edits the expense id. Editing a plain expense into another plain
// expense updates it in place. Any edit touching a purchase replaces the
// whole group: the old records are removed and the new set is inserted,
// keeping the purchase id when the result is still a purchase.
func (s *ExpenseService) Update(ctx context.Context, userID, id string, in core.ExpenseInput) ([]core.Expense, error) {
	current, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := requireAccount(ctx, s.store, userID, in.AccountID); err != nil {
		return nil, err
	}

	oldPurchase := current.PurchaseID()
	if oldPurchase == "" && in.Count() == 1 {
		e, err := core.NewExpense(userID, in)
		if err != nil {
			return nil, err
		}
		e.ID = current.ID
		e.CreatedAt = current.CreatedAt
		if err := s.store.UpdateExpense(ctx, e); err != nil {
			return nil, fmt.Errorf("update expense: %w", err)
		}
		s.reports.Invalidate(userID)
		mutationLog(ctx).LogMutation(ctx, applog.ComponentExpense, applog.OpUpdate, userID,
			applog.NewFields().With("id", e.ID))
		return []core.Expense{e}, nil
	}

	records, err := core.BuildExpenses(userID, in, oldPurchase)
	if err != nil {
		return nil, err
	}
	if err := s.replace(ctx, userID, current, records); err != nil {
		return nil, err
	}
	s.reports.Invalidate(userID)

	mutationLog(ctx).LogMutation(ctx, applog.ComponentExpense, applog.OpUpdate, userID,
		applog.NewFields().WithPurchase(records[0].PurchaseID(), len(records)).
			With("id", id).With("old_purchase_id", oldPurchase))
	if oldPurchase != "" && records[0].PurchaseID() != oldPurchase {
		publish(ctx, s.publisher, ports.PurchaseEvent{
			UserID: userID, PurchaseID: oldPurchase, Action: ports.PurchaseDeleted,
		})
	}
	if pid := records[0].PurchaseID(); pid != "" {
		publish(ctx, s.publisher, ports.PurchaseEvent{
			UserID: userID, PurchaseID: pid, Action: ports.PurchaseUpdated, Count: len(records),
		})
	}
	return records, nil
}

// replace removes current (its whole group when it is an installment) and
// inserts records. Without a transaction an insert failure after a
// successful delete is reported as *core.PartialWriteError.
func (s *ExpenseService) replace(ctx context.Context, userID string, current core.Expense, records []core.Expense) error {
	deleted := 0
	inserting := false
	txUsed, err := withinTx(ctx, s.store, func(st ports.Store) error {
		n, err := removeExpense(ctx, st, userID, current)
		if err != nil {
			return fmt.Errorf("delete old records: %w", err)
		}
		deleted = n
		inserting = true
		if err := st.InsertExpenses(ctx, records); err != nil {
			return fmt.Errorf("insert new records: %w", err)
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if !txUsed && inserting {
		key := current.PurchaseID()
		if key == "" {
			key = current.ID
		}
		// The lost input is logged so the purchase can be recreated by hand.
		amounts := make([]decimal.Decimal, len(records))
		for i, e := range records {
			amounts[i] = e.Amount
		}
		mutationLog(ctx).LogError(ctx, "Expense group lost between delete and insert", err,
			applog.ComponentExpense, applog.OpUpdate,
			applog.NewFields().WithUser(userID).WithPurchase(key, deleted).
				With("lost_description", core.BaseDescription(records[0].Description)).
				With("lost_first_payment", records[0].PaymentDate.String()).
				With("lost_records", len(records)).
				With("lost_total", core.Sum(amounts...).String()))
		if pid := records[0].PurchaseID(); pid != "" {
			publish(ctx, s.publisher, ports.PurchaseEvent{
				UserID: userID, PurchaseID: pid, Action: ports.PurchaseUpdated, Count: len(records),
			})
		}
		return &core.PartialWriteError{PurchaseID: key, Deleted: deleted, Err: err}
	}
	return err
}

func removeExpense(ctx context.Context, st ports.ExpenseStore, userID string, e core.Expense) (int, error) {
	if pid := e.PurchaseID(); pid != "" {
		return st.DeleteByPurchase(ctx, userID, pid)
	}
	if err := st.DeleteExpense(ctx, userID, e.ID); err != nil {
		return 0, err
	}
	return 1, nil
}

// Delete removes the expense id, or its whole purchase group, and returns
// how many records were removed.
func (s *ExpenseService) Delete(ctx context.Context, userID, id string) (int, error) {
	current, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return 0, err
	}
	n, err := removeExpense(ctx, s.store, userID, current)
	if err != nil {
		return 0, fmt.Errorf("delete expense: %w", err)
	}
	s.reports.Invalidate(userID)

	mutationLog(ctx).LogMutation(ctx, applog.ComponentExpense, applog.OpDelete, userID,
		applog.NewFields().WithPurchase(current.PurchaseID(), n).With("id", id))
	if pid := current.PurchaseID(); pid != "" {
		publish(ctx, s.publisher, ports.PurchaseEvent{
			UserID: userID, PurchaseID: pid, Action: ports.PurchaseDeleted, Count: n,
		})
	}
	return n, nil
}

// ListMonth returns the month's expenses by payment date with their
// accounts resolved.
func (s *ExpenseService) ListMonth(ctx context.Context, userID string, year, month int) ([]core.ExpenseWithAccount, error) {
	if err := core.ValidMonth(year, month); err != nil {
		return nil, err
	}
	w := core.MonthWindow(year, month)
	expenses, err := s.store.ListExpenses(ctx, userID, ports.ExpenseFilter{From: w.Start, To: w.End})
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.ResolveAccounts(expenses, accounts), nil
}

// ListInstallmentsFrom returns account linked installments due on or after
// from.
func (s *ExpenseService) ListInstallmentsFrom(ctx context.Context, userID string, from core.Date) ([]core.ExpenseWithAccount, error) {
	if from.IsZero() {
		from = core.Today()
	}
	expenses, err := s.store.ListExpenses(ctx, userID, ports.ExpenseFilter{
		From:              from,
		InstallmentsOnly:  true,
		AccountLinkedOnly: true,
	})
	if err != nil {
		return nil, err
	}
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.UpcomingInstallments(expenses, accounts, from), nil
}

// InstallmentSummary totals future installment debt per month starting at
// the month containing from.
func (s *ExpenseService) InstallmentSummary(ctx context.Context, userID string, from core.Date) ([]core.InstallmentMonth, error) {
	if from.IsZero() {
		from = core.Today()
	}
	start := core.NewDate(from.Year(), int(from.Month()), 1)
	expenses, err := s.store.ListExpenses(ctx, userID, ports.ExpenseFilter{From: start, InstallmentsOnly: true})
	if err != nil {
		return nil, err
	}
	return core.InstallmentDebt(expenses, start), nil
}

// Purchase returns every record of one installment group.
func (s *ExpenseService) Purchase(ctx context.Context, userID, purchaseID string) ([]core.Expense, error) {
	group, err := s.store.ListExpenses(ctx, userID, ports.ExpenseFilter{PurchaseID: purchaseID})
	if err != nil {
		return nil, err
	}
	if len(group) == 0 {
		return nil, fmt.Errorf("purchase %s: %w", purchaseID, core.ErrNotFound)
	}
	return group, nil
}
