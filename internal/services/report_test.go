package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/ports"
	"financas/internal/storage/memory"
)

func newReportFixture(t *testing.T) (*ReportService, *ExpenseService, *IncomeService) {
	t.Helper()
	store := memory.New()
	reports := NewReportService(store,
		cache.NewLRUCache[core.MonthlySummary](10, time.Minute),
		cache.NewLRUCache[core.AnnualReport](10, time.Minute))
	return reports, NewExpenseService(store, nil, reports), NewIncomeService(store, reports)
}

func TestReportService_Summary(t *testing.T) {
	ctx := context.Background()
	reports, expenses, incomes := newReportFixture(t)
	_, _ = incomes.Create(ctx, "alice", core.IncomeRecord{
		Description: "Salário", Amount: dec("1000"), Date: core.NewDate(2024, 1, 15), Type: core.IncomeMonthly,
	})
	_, _ = expenses.Create(ctx, "alice", plainInput("Mercado", "250.50", core.NewDate(2024, 3, 3)))

	got, err := reports.Summary(ctx, "alice", 2024, 3)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !got.TotalIncome.Equal(dec("1000")) || !got.TotalExpenses.Equal(dec("250.50")) || !got.Balance.Equal(dec("749.50")) {
		t.Errorf("Summary() = income %s expenses %s balance %s", got.TotalIncome, got.TotalExpenses, got.Balance)
	}

	dec2023, _ := reports.Summary(ctx, "alice", 2023, 12)
	if !dec2023.TotalIncome.IsZero() {
		t.Errorf("Summary(2023-12) income = %s, want 0", dec2023.TotalIncome)
	}
}

func TestReportService_CacheInvalidatedOnWrite(t *testing.T) {
	ctx := context.Background()
	reports, expenses, _ := newReportFixture(t)
	_, _ = expenses.Create(ctx, "alice", plainInput("Mercado", "100", core.NewDate(2024, 3, 3)))

	first, _ := reports.Summary(ctx, "alice", 2024, 3)
	_, _ = expenses.Create(ctx, "alice", plainInput("Farmácia", "50", core.NewDate(2024, 3, 4)))
	second, _ := reports.Summary(ctx, "alice", 2024, 3)

	if !first.TotalExpenses.Equal(dec("100")) || !second.TotalExpenses.Equal(dec("150")) {
		t.Errorf("totals = %s then %s, want 100 then 150", first.TotalExpenses, second.TotalExpenses)
	}
}

func TestReportService_Annual(t *testing.T) {
	ctx := context.Background()
	reports, expenses, incomes := newReportFixture(t)
	end := core.NewDate(2024, 8, 31)
	_, _ = incomes.Create(ctx, "alice", core.IncomeRecord{
		Description: "Freela", Amount: dec("500"), Date: core.NewDate(2024, 6, 1), Type: core.IncomeRanged, EndDate: &end,
	})
	_, _ = expenses.Create(ctx, "alice", installmentInput("300", 3, core.NewDate(2024, 11, 10)))

	got, err := reports.Annual(ctx, "alice", 2024)
	if err != nil {
		t.Fatalf("Annual() error = %v", err)
	}
	if !got.TotalAnnualIncome.Equal(dec("1500")) || len(got.DetailedIncomeEvents) != 3 {
		t.Errorf("Annual() income = %s with %d events, want 1500 with 3", got.TotalAnnualIncome, len(got.DetailedIncomeEvents))
	}
	if !got.TotalAnnualExpense.Equal(dec("200")) {
		t.Errorf("Annual() expense = %s, want 200", got.TotalAnnualExpense)
	}

	years, err := reports.AvailableYears(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(years) != 2 || years[0] != 2025 || years[1] != 2024 {
		t.Errorf("AvailableYears() = %v, want [2025 2024]", years)
	}
}

// pausingStore holds the first ListExpenses call until release is closed.
type pausingStore struct {
	*memory.Store
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (p *pausingStore) ListExpenses(ctx context.Context, userID string, f ports.ExpenseFilter) ([]core.Expense, error) {
	p.once.Do(func() {
		close(p.entered)
		<-p.release
	})
	return p.Store.ListExpenses(ctx, userID, f)
}

func TestReportService_WriteDuringLoadIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	paused := &pausingStore{Store: store, entered: make(chan struct{}), release: make(chan struct{})}
	reports := NewReportService(paused,
		cache.NewLRUCache[core.MonthlySummary](10, time.Minute),
		cache.NewLRUCache[core.AnnualReport](10, time.Minute))
	expenses := NewExpenseService(store, nil, reports)

	if _, err := expenses.Create(ctx, "alice", plainInput("Mercado", "100", core.NewDate(2024, 3, 3))); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := reports.Summary(ctx, "alice", 2024, 3)
		done <- err
	}()
	<-paused.entered
	if _, err := expenses.Create(ctx, "alice", plainInput("Farmácia", "50", core.NewDate(2024, 3, 4))); err != nil {
		t.Fatal(err)
	}
	close(paused.release)
	if err := <-done; err != nil {
		t.Fatalf("Summary() error = %v", err)
	}

	got, err := reports.Summary(ctx, "alice", 2024, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !got.TotalExpenses.Equal(dec("150")) {
		t.Errorf("Summary() total = %s after concurrent write, want 150", got.TotalExpenses)
	}

	annual, err := reports.Annual(ctx, "alice", 2024)
	if err != nil {
		t.Fatal(err)
	}
	if !annual.TotalAnnualExpense.Equal(dec("150")) {
		t.Errorf("Annual() total = %s, want 150", annual.TotalAnnualExpense)
	}
	_, _ = expenses.Create(ctx, "alice", plainInput("Padaria", "25", core.NewDate(2024, 3, 5)))
	annual, _ = reports.Annual(ctx, "alice", 2024)
	if !annual.TotalAnnualExpense.Equal(dec("175")) {
		t.Errorf("Annual() total = %s, want 175", annual.TotalAnnualExpense)
	}
}

func TestReportService_TopExpensesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	reports, expenses, _ := newReportFixture(t)

	first, err := expenses.Create(ctx, "alice", plainInput("first", "10", core.NewDate(2024, 5, 28)))
	if err != nil {
		t.Fatal(err)
	}
	for day := 1; day <= 5; day++ {
		time.Sleep(time.Millisecond)
		desc := fmt.Sprintf("day %d", day)
		if _, err := expenses.Create(ctx, "alice", plainInput(desc, "10", core.NewDate(2024, 5, day))); err != nil {
			t.Fatal(err)
		}
	}

	got, err := reports.Summary(ctx, "alice", 2024, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.TopExpenses) != core.TopExpenseLimit {
		t.Fatalf("len(TopExpenses) = %d, want %d", len(got.TopExpenses), core.TopExpenseLimit)
	}
	if got.TopExpenses[0].ID != first[0].ID {
		t.Errorf("TopExpenses[0] = %q, want the first inserted expense", got.TopExpenses[0].Description)
	}
	if got.TopExpenses[4].Description != "day 4" {
		t.Errorf("TopExpenses[4] = %q, want day 4", got.TopExpenses[4].Description)
	}
}
