package services

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/core"
	"financas/internal/ports"
)

type SavingsService struct {
	store ports.SavingsStore
}

func NewSavingsService(store ports.SavingsStore) *SavingsService {
	return &SavingsService{store: store}
}

// List returns the ledger newest first.
func (s *SavingsService) List(ctx context.Context, userID string) ([]core.Savings, error) {
	entries, err := s.store.ListSavings(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]core.Savings, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out, nil
}

func (s *SavingsService) Create(ctx context.Context, userID string, in core.SavingsInput) (core.Savings, error) {
	entry, err := core.NewSavings(userID, in)
	if err != nil {
		return core.Savings{}, err
	}
	if err := s.store.InsertSavings(ctx, entry); err != nil {
		return core.Savings{}, fmt.Errorf("save savings: %w", err)
	}
	slog.InfoContext(ctx, "Savings entry created", "user_id", userID, "id", entry.ID, "amount", entry.Amount.String())
	return entry, nil
}

func (s *SavingsService) Update(ctx context.Context, userID, id string, in core.SavingsInput) (core.Savings, error) {
	current, err := s.store.GetSavings(ctx, userID, id)
	if err != nil {
		return core.Savings{}, err
	}
	entry, err := core.NewSavings(userID, in)
	if err != nil {
		return core.Savings{}, err
	}
	entry.ID = current.ID
	entry.CreatedAt = current.CreatedAt
	if in.Date.IsZero() {
		entry.Date = current.Date
	}
	if err := s.store.UpdateSavings(ctx, entry); err != nil {
		return core.Savings{}, fmt.Errorf("update savings: %w", err)
	}
	slog.InfoContext(ctx, "Savings entry updated", "user_id", userID, "id", id)
	return entry, nil
}

func (s *SavingsService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteSavings(ctx, userID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Savings entry deleted", "user_id", userID, "id", id)
	return nil
}

// Evolution returns the running savings total in date order.
func (s *SavingsService) Evolution(ctx context.Context, userID string) ([]core.EvolutionPoint, error) {
	entries, err := s.store.ListSavings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return core.Evolution(entries), nil
}
