package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/ports"

	"github.com/shopspring/decimal"
)

func purchase(t *testing.T, userID string, n int) []core.Expense {
	t.Helper()
	group, err := core.BuildExpenses(userID, core.ExpenseInput{
		Description:  "Notebook",
		TotalAmount:  decimal.RequireFromString("300"),
		PaymentDate:  core.NewDate(2024, 1, 31),
		Category:     core.CategoryOnlineShopping,
		Installments: n,
		AccountID:    "acc-1",
	}, "")
	if err != nil {
		t.Fatalf("BuildExpenses() error = %v", err)
	}
	return group
}

func TestExpensesAreScopedByUser(t *testing.T) {
	ctx := context.Background()
	s := New()
	group := purchase(t, "alice", 3)
	if err := s.InsertExpenses(ctx, group); err != nil {
		t.Fatalf("InsertExpenses() error = %v", err)
	}

	if _, err := s.GetExpense(ctx, "bob", group[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("GetExpense() for other user error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteExpense(ctx, "bob", group[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("DeleteExpense() for other user error = %v, want ErrNotFound", err)
	}
	n, err := s.DeleteByPurchase(ctx, "bob", group[0].PurchaseID())
	if err != nil || n != 0 {
		t.Errorf("DeleteByPurchase() for other user = %d, %v, want 0, nil", n, err)
	}

	n, err = s.DeleteByPurchase(ctx, "alice", group[0].PurchaseID())
	if err != nil || n != 3 {
		t.Fatalf("DeleteByPurchase() = %d, %v, want 3, nil", n, err)
	}
	left, _ := s.ListExpenses(ctx, "alice", ports.ExpenseFilter{})
	if len(left) != 0 {
		t.Errorf("ListExpenses() after delete = %d records, want 0", len(left))
	}
}

func TestListExpensesFilter(t *testing.T) {
	ctx := context.Background()
	s := New()
	group := purchase(t, "alice", 3)
	plain, err := core.NewExpense("alice", core.ExpenseInput{
		Description: "Mercado",
		TotalAmount: decimal.RequireFromString("50"),
		PaymentDate: core.NewDate(2024, 2, 10),
		Category:    core.CategoryGroceries,
		Type:        core.ExpenseOneOff,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.InsertExpenses(ctx, append(group, plain)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		filter ports.ExpenseFilter
		want   int
	}{
		{"all", ports.ExpenseFilter{}, 4},
		{"february", ports.ExpenseFilter{From: core.NewDate(2024, 2, 1), To: core.NewDate(2024, 2, 29)}, 2},
		{"installments only", ports.ExpenseFilter{InstallmentsOnly: true}, 3},
		{"account linked", ports.ExpenseFilter{AccountLinkedOnly: true}, 3},
		{"by purchase", ports.ExpenseFilter{PurchaseID: group[0].PurchaseID()}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListExpenses(ctx, "alice", tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != tt.want {
				t.Errorf("ListExpenses() = %d records, want %d", len(got), tt.want)
			}
			for i := 1; i < len(got); i++ {
				if got[i].PaymentDate.Before(got[i-1].PaymentDate) {
					t.Errorf("ListExpenses() not sorted by payment date at %d", i)
				}
			}
		})
	}
}

func TestReturnedExpensesAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	group := purchase(t, "alice", 2)
	_ = s.InsertExpenses(ctx, group)

	got, _ := s.GetExpense(ctx, "alice", group[0].ID)
	got.InstallmentDetails.CurrentInstallment = 99

	again, _ := s.GetExpense(ctx, "alice", group[0].ID)
	if again.InstallmentDetails.CurrentInstallment != 1 {
		t.Errorf("stored installment mutated through returned copy")
	}
}

func TestUnlinkAccount(t *testing.T) {
	ctx := context.Background()
	s := New()
	_ = s.InsertExpenses(ctx, purchase(t, "alice", 2))
	_ = s.InsertExpenses(ctx, purchase(t, "bob", 2))

	n, err := s.UnlinkAccount(ctx, "alice", "acc-1")
	if err != nil || n != 2 {
		t.Fatalf("UnlinkAccount() = %d, %v, want 2, nil", n, err)
	}
	bob, _ := s.ListExpenses(ctx, "bob", ports.ExpenseFilter{AccountLinkedOnly: true})
	if len(bob) != 2 {
		t.Errorf("other user's expenses were unlinked")
	}
}

func TestUsersAndPurge(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := core.User{ID: "u1", Email: "a@b.com", Role: core.RoleAdmin, CreatedAt: time.Now()}
	if err := s.InsertUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	dup := core.User{ID: "u2", Email: "A@B.com"}
	if err := s.InsertUser(ctx, dup); !errors.Is(err, core.ErrConflict) {
		t.Errorf("InsertUser() duplicate email error = %v, want ErrConflict", err)
	}
	if got, err := s.GetUserByEmail(ctx, "A@b.COM"); err != nil || got.ID != "u1" {
		t.Errorf("GetUserByEmail() = %v, %v", got.ID, err)
	}

	_ = s.InsertExpenses(ctx, purchase(t, "u1", 2))
	_ = s.InsertAccount(ctx, core.Account{ID: "acc", UserID: "u1", Name: "Nubank"})
	_ = s.InsertSavings(ctx, core.Savings{ID: "s", UserID: "u1", Amount: decimal.NewFromInt(10)})
	if err := s.PurgeUserData(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	ex, _ := s.ListExpenses(ctx, "u1", ports.ExpenseFilter{})
	acc, _ := s.ListAccounts(ctx, "u1")
	sv, _ := s.ListSavings(ctx, "u1")
	if len(ex)+len(acc)+len(sv) != 0 {
		t.Errorf("PurgeUserData() left %d expenses, %d accounts, %d savings", len(ex), len(acc), len(sv))
	}
	if _, err := s.GetUser(ctx, "u1"); err != nil {
		t.Errorf("PurgeUserData() removed the user: %v", err)
	}
}
