package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/backup"
	"financas/internal/core"
	"financas/internal/ports"
)

// BackupService exports and restores an admin's own records as an
// encrypted snapshot. The admin's password is checked again on both paths
// and is also the encryption key.
type BackupService struct {
	store   ports.Store
	users   *UserService
	reports Invalidator
}

func NewBackupService(store ports.Store, users *UserService, reports Invalidator) *BackupService {
	return &BackupService{store: store, users: users, reports: orNoop(reports)}
}

// RestoreSummary counts the records written by Import.
type RestoreSummary struct {
	Incomes  int `json:"incomes"`
	Expenses int `json:"expenses"`
	Savings  int `json:"savings"`
	Accounts int `json:"accounts"`
}

func (s *BackupService) authorize(ctx context.Context, adminID, password string) error {
	if password == "" {
		return core.NewValidationError("password", "is required")
	}
	if _, err := s.users.RequireAdmin(ctx, adminID); err != nil {
		return err
	}
	_, err := s.users.VerifyPassword(ctx, adminID, password)
	return err
}

// Export returns the encrypted snapshot of adminID's records.
func (s *BackupService) Export(ctx context.Context, adminID, password string) (string, error) {
	if err := s.authorize(ctx, adminID, password); err != nil {
		return "", err
	}
	snap := backup.Snapshot{Version: backup.Version, ExportedAt: time.Now().UTC()}

	incomes, err := s.store.ListIncomes(ctx, adminID, core.Date{})
	if err != nil {
		return "", err
	}
	snap.Incomes = make([]core.IncomeRecord, len(incomes))
	for i, inc := range incomes {
		snap.Incomes[i] = inc.Record()
	}
	if snap.Expenses, err = s.store.ListExpenses(ctx, adminID, ports.ExpenseFilter{}); err != nil {
		return "", err
	}
	if snap.Savings, err = s.store.ListSavings(ctx, adminID); err != nil {
		return "", err
	}
	if snap.Accounts, err = s.store.ListAccounts(ctx, adminID); err != nil {
		return "", err
	}

	envelope, err := backup.Encrypt(password, snap)
	if err != nil {
		return "", err
	}
	slog.InfoContext(ctx, "Backup exported",
		"user_id", adminID, "incomes", len(snap.Incomes), "expenses", len(snap.Expenses),
		"savings", len(snap.Savings), "accounts", len(snap.Accounts))
	return envelope, nil
}

// Import replaces all of adminID's records with the snapshot. Record ids
// and links between records are kept; ownership is rewritten to adminID.
func (s *BackupService) Import(ctx context.Context, adminID, password, envelope string) (RestoreSummary, error) {
	if err := s.authorize(ctx, adminID, password); err != nil {
		return RestoreSummary{}, err
	}
	snap, err := backup.Decrypt(password, envelope)
	if err != nil {
		if errors.Is(err, backup.ErrDecrypt) {
			return RestoreSummary{}, core.NewValidationError("backup", err.Error())
		}
		return RestoreSummary{}, err
	}

	incomes := make([]core.Income, 0, len(snap.Incomes))
	for i, rec := range snap.Incomes {
		rec.UserID = adminID
		inc, err := rec.Income()
		if err != nil {
			var ve *core.ValidationError
			if errors.As(err, &ve) {
				out := &core.ValidationError{}
				out.Merge(fmt.Sprintf("incomes[%d]", i), ve)
				return RestoreSummary{}, out
			}
			return RestoreSummary{}, err
		}
		incomes = append(incomes, inc)
	}
	for i := range snap.Expenses {
		snap.Expenses[i].UserID = adminID
	}
	for i := range snap.Savings {
		snap.Savings[i].UserID = adminID
	}
	for i := range snap.Accounts {
		snap.Accounts[i].UserID = adminID
	}

	_, err = withinTx(ctx, s.store, func(st ports.Store) error {
		if err := st.PurgeUserData(ctx, adminID); err != nil {
			return fmt.Errorf("purge current data: %w", err)
		}
		for _, a := range snap.Accounts {
			if err := st.InsertAccount(ctx, a); err != nil {
				return fmt.Errorf("restore account: %w", err)
			}
		}
		for _, inc := range incomes {
			if err := st.InsertIncome(ctx, inc); err != nil {
				return fmt.Errorf("restore income: %w", err)
			}
		}
		if len(snap.Expenses) > 0 {
			if err := st.InsertExpenses(ctx, snap.Expenses); err != nil {
				return fmt.Errorf("restore expenses: %w", err)
			}
		}
		for _, sv := range snap.Savings {
			if err := st.InsertSavings(ctx, sv); err != nil {
				return fmt.Errorf("restore savings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return RestoreSummary{}, err
	}
	s.reports.Invalidate(adminID)

	summary := RestoreSummary{
		Incomes:  len(incomes),
		Expenses: len(snap.Expenses),
		Savings:  len(snap.Savings),
		Accounts: len(snap.Accounts),
	}
	slog.InfoContext(ctx, "Backup restored", "user_id", adminID,
		"incomes", summary.Incomes, "expenses", summary.Expenses,
		"savings", summary.Savings, "accounts", summary.Accounts)
	return summary, nil
}
