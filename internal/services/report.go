package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"financas/internal/cache"
	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/ports"

	"golang.org/x/sync/errgroup"
)

// ReportService computes monthly summaries and annual projections. Results
// are cached per user and period until that user changes a record.
type ReportService struct {
	store   ports.Store
	monthly cache.Cache[core.MonthlySummary]
	annual  cache.Cache[core.AnnualReport]

	// generations counts invalidations per user; a result computed before
	// the latest invalidation is not cached.
	mu          sync.Mutex
	generations map[string]uint64
}

// NewReportService accepts nil caches, in which case nothing is cached.
func NewReportService(store ports.Store, monthly cache.Cache[core.MonthlySummary], annual cache.Cache[core.AnnualReport]) *ReportService {
	return &ReportService{
		store:       store,
		monthly:     monthly,
		annual:      annual,
		generations: make(map[string]uint64),
	}
}

func cacheKey(userID, kind, period string) string {
	return userID + "|" + kind + "|" + period
}

// Invalidate drops every cached result of userID.
func (s *ReportService) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++

	n := 0
	if s.monthly != nil {
		n += s.monthly.DeletePrefix(userID + "|")
	}
	if s.annual != nil {
		n += s.annual.DeletePrefix(userID + "|")
	}
	if n > 0 {
		slog.Debug("Report cache invalidated", "user_id", userID, "entries", n)
	}
}

func (s *ReportService) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

// storeIfCurrent runs set unless userID was invalidated after gen was read.
func (s *ReportService) storeIfCurrent(userID string, gen uint64, set func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		slog.Debug("Discarding report computed before invalidation", "user_id", userID)
		return
	}
	set()
}

func logComputed(ctx context.Context, userID string, year, month, expenses int) {
	fields := applog.NewFields().
		WithUser(userID).
		WithPeriod(year, month).
		With("expenses", expenses)
	applog.FromContext(ctx).WithComponent(applog.ComponentReport).
		DebugContext(ctx, "Report computed", fields.ToSlice()...)
}

type snapshot struct {
	incomes  []core.Income
	expenses []core.Expense
	accounts []core.Account
}

// load reads the three collections concurrently.
func (s *ReportService) load(ctx context.Context, userID string, w core.Window) (snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		incomes, err := s.store.ListIncomes(ctx, userID, w.End)
		if err != nil {
			return fmt.Errorf("list incomes: %w", err)
		}
		snap.incomes = incomes
		return nil
	})
	g.Go(func() error {
		expenses, err := s.store.ListExpenses(ctx, userID, ports.ExpenseFilter{From: w.Start, To: w.End})
		if err != nil {
			return fmt.Errorf("list expenses: %w", err)
		}
		snap.expenses = expenses
		return nil
	})
	g.Go(func() error {
		accounts, err := s.store.ListAccounts(ctx, userID)
		if err != nil {
			return fmt.Errorf("list accounts: %w", err)
		}
		snap.accounts = accounts
		return nil
	})
	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

// Summary is the monthly aggregate for year/month.
func (s *ReportService) Summary(ctx context.Context, userID string, year, month int) (core.MonthlySummary, error) {
	if err := core.ValidMonth(year, month); err != nil {
		return core.MonthlySummary{}, err
	}
	key := cacheKey(userID, "summary", fmt.Sprintf("%04d-%02d", year, month))
	if s.monthly != nil {
		if v, ok := s.monthly.Get(key); ok {
			return v, nil
		}
	}
	gen := s.generation(userID)
	snap, err := s.load(ctx, userID, core.MonthWindow(year, month))
	if err != nil {
		return core.MonthlySummary{}, err
	}
	summary := core.SummarizeMonth(year, month, snap.incomes, snap.expenses, snap.accounts)
	logComputed(ctx, userID, year, month, len(snap.expenses))
	if s.monthly != nil {
		s.storeIfCurrent(userID, gen, func() { s.monthly.Set(key, summary) })
	}
	return summary, nil
}

// Annual projects year month by month.
func (s *ReportService) Annual(ctx context.Context, userID string, year int) (core.AnnualReport, error) {
	if err := core.ValidMonth(year, 1); err != nil {
		return core.AnnualReport{}, err
	}
	key := cacheKey(userID, "annual", fmt.Sprintf("%04d", year))
	if s.annual != nil {
		if v, ok := s.annual.Get(key); ok {
			return v, nil
		}
	}
	gen := s.generation(userID)
	snap, err := s.load(ctx, userID, core.YearWindow(year))
	if err != nil {
		return core.AnnualReport{}, err
	}
	report := core.ProjectYear(year, snap.incomes, snap.expenses, snap.accounts)
	logComputed(ctx, userID, year, 0, len(snap.expenses))
	if s.annual != nil {
		s.storeIfCurrent(userID, gen, func() { s.annual.Set(key, report) })
	}
	return report, nil
}

// AvailableYears lists years that have any income or expense, newest first.
func (s *ReportService) AvailableYears(ctx context.Context, userID string) ([]int, error) {
	incomes, err := s.store.ListIncomes(ctx, userID, core.Date{})
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.ListExpenses(ctx, userID, ports.ExpenseFilter{})
	if err != nil {
		return nil, err
	}
	return core.AvailableYears(incomes, expenses), nil
}
