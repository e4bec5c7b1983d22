package services

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/core"
	"financas/internal/ports"
)

type AccountService struct {
	store   ports.Store
	reports Invalidator
}

func NewAccountService(store ports.Store, reports Invalidator) *AccountService {
	return &AccountService{store: store, reports: orNoop(reports)}
}

// List returns the user's accounts in creation order.
func (s *AccountService) List(ctx context.Context, userID string) ([]core.Account, error) {
	return s.store.ListAccounts(ctx, userID)
}

func (s *AccountService) Get(ctx context.Context, userID, id string) (core.Account, error) {
	return s.store.GetAccount(ctx, userID, id)
}

func (s *AccountService) Create(ctx context.Context, userID string, in core.AccountInput) (core.Account, error) {
	a, err := core.NewAccount(userID, in)
	if err != nil {
		return core.Account{}, err
	}
	if err := s.store.InsertAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("save account: %w", err)
	}
	slog.InfoContext(ctx, "Account created", "user_id", userID, "id", a.ID, "type", a.Type)
	return a, nil
}

func (s *AccountService) Update(ctx context.Context, userID, id string, in core.AccountInput) (core.Account, error) {
	current, err := s.store.GetAccount(ctx, userID, id)
	if err != nil {
		return core.Account{}, err
	}
	a, err := core.NewAccount(userID, in)
	if err != nil {
		return core.Account{}, err
	}
	a.ID = current.ID
	a.CreatedAt = current.CreatedAt
	if err := s.store.UpdateAccount(ctx, a); err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	s.reports.Invalidate(userID)
	slog.InfoContext(ctx, "Account updated", "user_id", userID, "id", id)
	return a, nil
}

// Delete unlinks the owner's expenses from the account and removes it.
// The expenses themselves are kept.
func (s *AccountService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.store.GetAccount(ctx, userID, id); err != nil {
		return err
	}
	unlinked := 0
	_, err := withinTx(ctx, s.store, func(st ports.Store) error {
		n, err := st.UnlinkAccount(ctx, userID, id)
		if err != nil {
			return fmt.Errorf("unlink expenses: %w", err)
		}
		unlinked = n
		return st.DeleteAccount(ctx, userID, id)
	})
	if err != nil {
		return err
	}
	s.reports.Invalidate(userID)
	slog.InfoContext(ctx, "Account deleted", "user_id", userID, "id", id, "unlinked_expenses", unlinked)
	return nil
}
