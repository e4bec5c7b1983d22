package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"financas/internal/core"
	"financas/internal/ports"

	"github.com/google/uuid"
)

type IncomeService struct {
	store   ports.IncomeStore
	reports Invalidator
}

func NewIncomeService(store ports.IncomeStore, reports Invalidator) *IncomeService {
	return &IncomeService{store: store, reports: orNoop(reports)}
}

func (s *IncomeService) Get(ctx context.Context, userID, id string) (core.Income, error) {
	return s.store.GetIncome(ctx, userID, id)
}

func (s *IncomeService) Create(ctx context.Context, userID string, rec core.IncomeRecord) (core.Income, error) {
	rec.ID = uuid.NewString()
	rec.UserID = userID
	rec.CreatedAt = time.Now().UTC()
	inc, err := rec.Income()
	if err != nil {
		return core.Income{}, err
	}
	if err := s.store.InsertIncome(ctx, inc); err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	s.reports.Invalidate(userID)
	slog.InfoContext(ctx, "Income created", "user_id", userID, "id", inc.ID, "type", inc.Type())
	return inc, nil
}

// Update replaces the income's fields and schedule wholesale.
func (s *IncomeService) Update(ctx context.Context, userID, id string, rec core.IncomeRecord) (core.Income, error) {
	current, err := s.store.GetIncome(ctx, userID, id)
	if err != nil {
		return core.Income{}, err
	}
	rec.ID = current.ID
	rec.UserID = userID
	rec.CreatedAt = current.CreatedAt
	inc, err := rec.Income()
	if err != nil {
		return core.Income{}, err
	}
	if err := s.store.UpdateIncome(ctx, inc); err != nil {
		return core.Income{}, fmt.Errorf("update income: %w", err)
	}
	s.reports.Invalidate(userID)
	slog.InfoContext(ctx, "Income updated", "user_id", userID, "id", id, "type", inc.Type())
	return inc, nil
}

func (s *IncomeService) Delete(ctx context.Context, userID, id string) error {
	if err := s.store.DeleteIncome(ctx, userID, id); err != nil {
		return err
	}
	s.reports.Invalidate(userID)
	slog.InfoContext(ctx, "Income deleted", "user_id", userID, "id", id)
	return nil
}

// ListMonth returns the incomes contributing to the month, newest first.
func (s *IncomeService) ListMonth(ctx context.Context, userID string, year, month int) ([]core.Income, error) {
	if err := core.ValidMonth(year, month); err != nil {
		return nil, err
	}
	w := core.MonthWindow(year, month)
	incomes, err := s.store.ListIncomes(ctx, userID, w.End)
	if err != nil {
		return nil, err
	}
	out := core.MatchingIncomes(incomes, w)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date().After(out[j].Date()) })
	return out, nil
}
