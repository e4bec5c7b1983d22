package services

import (
	"context"
	"errors"
	"testing"

	"financas/internal/core"
	"financas/internal/ports"
	"financas/internal/storage/memory"
)

func TestExpenseService_CreateInstallments(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	inv := &countingInvalidator{}
	svc := NewExpenseService(store, pub, inv)

	got, err := svc.Create(ctx, "alice", installmentInput("299.97", 3, core.NewDate(2024, 1, 10)))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Create() = %d records, want 3", len(got))
	}
	wantDates := []core.Date{core.NewDate(2024, 1, 10), core.NewDate(2024, 2, 10), core.NewDate(2024, 3, 10)}
	wantDesc := []string{"Notebook (1/3)", "Notebook (2/3)", "Notebook (3/3)"}
	for i, e := range got {
		if !e.PaymentDate.Equal(wantDates[i]) || e.Description != wantDesc[i] || !e.Amount.Equal(dec("99.99")) {
			t.Errorf("record %d = %s %q %s", i, e.PaymentDate, e.Description, e.Amount)
		}
		if e.PurchaseID() != got[0].PurchaseID() {
			t.Errorf("record %d purchase id = %s, want %s", i, e.PurchaseID(), got[0].PurchaseID())
		}
	}
	if acts := pub.actions(); len(acts) != 1 || acts[0] != ports.PurchaseCreated {
		t.Errorf("published %v, want [created]", acts)
	}
	if inv.calls["alice"] != 1 {
		t.Errorf("Invalidate(alice) called %d times, want 1", inv.calls["alice"])
	}
}

func TestExpenseService_CreateSingleIsPlain(t *testing.T) {
	ctx := context.Background()
	pub := &recordingPublisher{}
	svc := NewExpenseService(memory.New(), pub, nil)

	got, err := svc.Create(ctx, "alice", plainInput("Mercado", "80", core.NewDate(2024, 1, 5)))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].IsInstallment || got[0].InstallmentDetails != nil {
		t.Errorf("Create() = %+v, want one plain expense", got)
	}
	if len(pub.actions()) != 0 {
		t.Errorf("plain expense published %v", pub.actions())
	}
}

func TestExpenseService_CreateRejectsForeignAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_ = store.InsertAccount(ctx, core.Account{ID: "bob-card", UserID: "bob", Name: "Card"})
	svc := NewExpenseService(store, nil, nil)

	in := plainInput("Mercado", "80", core.NewDate(2024, 1, 5))
	in.AccountID = "bob-card"
	if _, err := svc.Create(ctx, "alice", in); !errors.Is(err, core.ErrValidation) {
		t.Errorf("Create() error = %v, want ErrValidation", err)
	}
}

func TestExpenseService_DeleteMemberRemovesGroup(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewExpenseService(store, nil, nil)

	group, _ := svc.Create(ctx, "alice", installmentInput("300", 3, core.NewDate(2024, 1, 10)))
	other, _ := svc.Create(ctx, "alice", installmentInput("100", 2, core.NewDate(2024, 1, 10)))
	plain, _ := svc.Create(ctx, "alice", plainInput("Mercado", "80", core.NewDate(2024, 1, 5)))

	n, err := svc.Delete(ctx, "alice", group[1].ID)
	if err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Delete() removed %d, want 3", n)
	}
	left, _ := store.ListExpenses(ctx, "alice", ports.ExpenseFilter{})
	if len(left) != len(other)+len(plain) {
		t.Errorf("%d records left, want %d", len(left), len(other)+len(plain))
	}

	n, err = svc.Delete(ctx, "alice", plain[0].ID)
	if err != nil || n != 1 {
		t.Errorf("Delete(plain) = %d, %v, want 1, nil", n, err)
	}
}

func TestExpenseService_OwnershipIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := NewExpenseService(memory.New(), nil, nil)
	group, _ := svc.Create(ctx, "alice", installmentInput("300", 3, core.NewDate(2024, 1, 10)))

	if _, err := svc.Delete(ctx, "bob", group[0].ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() by other user error = %v, want ErrNotFound", err)
	}
	in := plainInput("x", "1", core.NewDate(2024, 1, 1))
	if _, err := svc.Update(ctx, "bob", group[0].ID, in); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Update() by other user error = %v, want ErrNotFound", err)
	}
}

func TestExpenseService_Update(t *testing.T) {
	tests := []struct {
		name        string
		create      core.ExpenseInput
		update      core.ExpenseInput
		wantRecords int
		samePID     bool
	}{
		{
			name:        "plain to plain keeps id",
			create:      plainInput("Mercado", "80", core.NewDate(2024, 1, 5)),
			update:      plainInput("Feira", "60", core.NewDate(2024, 1, 6)),
			wantRecords: 1,
		},
		{
			name:        "plain to installments",
			create:      plainInput("Mercado", "80", core.NewDate(2024, 1, 5)),
			update:      installmentInput("120", 4, core.NewDate(2024, 1, 5)),
			wantRecords: 4,
		},
		{
			name:        "installments regenerated",
			create:      installmentInput("300", 3, core.NewDate(2024, 1, 10)),
			update:      installmentInput("600", 6, core.NewDate(2024, 2, 10)),
			wantRecords: 6,
			samePID:     true,
		},
		{
			name:        "installments to plain",
			create:      installmentInput("300", 3, core.NewDate(2024, 1, 10)),
			update:      plainInput("Notebook", "300", core.NewDate(2024, 1, 10)),
			wantRecords: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := memory.New()
			svc := NewExpenseService(store, nil, nil)
			created, err := svc.Create(ctx, "alice", tt.create)
			if err != nil {
				t.Fatal(err)
			}

			got, err := svc.Update(ctx, "alice", created[len(created)-1].ID, tt.update)
			if err != nil {
				t.Fatalf("Update() error = %v", err)
			}
			all, _ := store.ListExpenses(ctx, "alice", ports.ExpenseFilter{})
			if len(got) != tt.wantRecords || len(all) != tt.wantRecords {
				t.Errorf("Update() = %d records, store has %d, want %d", len(got), len(all), tt.wantRecords)
			}
			if tt.samePID && got[0].PurchaseID() != created[0].PurchaseID() {
				t.Errorf("purchase id changed from %s to %s", created[0].PurchaseID(), got[0].PurchaseID())
			}
			if tt.wantRecords > 1 {
				if problems := core.CheckGroup(all); len(problems) != 0 {
					t.Errorf("CheckGroup() = %v", problems)
				}
			}
			if tt.name == "plain to plain keeps id" && got[0].ID != created[0].ID {
				t.Errorf("in-place update changed id")
			}
		})
	}
}

func TestExpenseService_UpdateClearsAccount(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_ = store.InsertAccount(ctx, core.Account{ID: "card", UserID: "alice", Name: "Card"})
	svc := NewExpenseService(store, nil, nil)

	in := installmentInput("300", 3, core.NewDate(2024, 1, 10))
	in.AccountID = "card"
	created, _ := svc.Create(ctx, "alice", in)

	in.AccountID = ""
	got, err := svc.Update(ctx, "alice", created[0].ID, in)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range got {
		if e.AccountID != "" {
			t.Errorf("record %s still linked to %q", e.ID, e.AccountID)
		}
	}
}

func TestExpenseService_UpdatePartialWrite(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memory.New()}
	pub := &recordingPublisher{}
	svc := NewExpenseService(store, pub, nil)
	created, err := svc.Create(ctx, "alice", installmentInput("300", 3, core.NewDate(2024, 1, 10)))
	if err != nil {
		t.Fatal(err)
	}

	store.failInsert = true
	_, err = svc.Update(ctx, "alice", created[0].ID, installmentInput("400", 4, core.NewDate(2024, 1, 10)))
	if !errors.Is(err, core.ErrPartialWrite) {
		t.Fatalf("Update() error = %v, want ErrPartialWrite", err)
	}
	var pw *core.PartialWriteError
	if !errors.As(err, &pw) || pw.PurchaseID != created[0].PurchaseID() || pw.Deleted != 3 {
		t.Errorf("PartialWriteError = %+v", pw)
	}
	if !errors.Is(err, errInsert) {
		t.Errorf("PartialWriteError does not wrap the insert failure")
	}

	// The lost group is announced so the worker can flag it.
	if got := pub.actions(); len(got) != 2 || got[1] != ports.PurchaseUpdated {
		t.Fatalf("published actions = %v, want [created updated]", got)
	}
	lost := pub.events[1]
	if lost.PurchaseID != created[0].PurchaseID() || lost.Count != 4 {
		t.Errorf("lost group event = %+v", lost)
	}
	report, err := NewReconciler(store).Check(ctx, "alice", lost.PurchaseID)
	if err != nil {
		t.Fatal(err)
	}
	if report = report.Expecting(lost.Action, lost.Count); report.Consistent() {
		t.Errorf("missing group reported consistent: %+v", report)
	}
}

func TestExpenseService_UpdateInTransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	store := &txStore{flakyStore: &flakyStore{Store: memory.New()}}
	svc := NewExpenseService(store, nil, nil)
	created, err := svc.Create(ctx, "alice", installmentInput("300", 3, core.NewDate(2024, 1, 10)))
	if err != nil {
		t.Fatal(err)
	}

	store.failInsert = true
	_, err = svc.Update(ctx, "alice", created[0].ID, installmentInput("400", 4, core.NewDate(2024, 1, 10)))
	if err == nil || errors.Is(err, core.ErrPartialWrite) {
		t.Fatalf("Update() error = %v, want plain insert failure", err)
	}
	if store.rollbacks != 1 {
		t.Errorf("rollbacks = %d, want 1", store.rollbacks)
	}
	left, _ := store.Store.ListExpenses(ctx, "alice", ports.ExpenseFilter{})
	if len(left) != 3 {
		t.Errorf("%d records after rollback, want 3", len(left))
	}
}

func TestExpenseService_Listings(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	_ = store.InsertAccount(ctx, core.Account{ID: "card", UserID: "alice", Name: "Card"})
	svc := NewExpenseService(store, nil, nil)

	linked := installmentInput("300", 3, core.NewDate(2024, 1, 10))
	linked.AccountID = "card"
	_, _ = svc.Create(ctx, "alice", linked)
	_, _ = svc.Create(ctx, "alice", installmentInput("200", 2, core.NewDate(2024, 2, 1)))
	_, _ = svc.Create(ctx, "alice", plainInput("Mercado", "80", core.NewDate(2024, 2, 5)))

	feb, err := svc.ListMonth(ctx, "alice", 2024, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(feb) != 3 {
		t.Errorf("ListMonth() = %d, want 3", len(feb))
	}
	for i := 1; i < len(feb); i++ {
		if feb[i].PaymentDate.Before(feb[i-1].PaymentDate) {
			t.Errorf("ListMonth() not ascending at %d", i)
		}
	}

	upcoming, err := svc.ListInstallmentsFrom(ctx, "alice", core.NewDate(2024, 2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(upcoming) != 2 || upcoming[0].Account == nil || upcoming[0].Account.ID != "card" {
		t.Errorf("ListInstallmentsFrom() = %+v", upcoming)
	}

	debt, err := svc.InstallmentSummary(ctx, "alice", core.NewDate(2024, 2, 20))
	if err != nil {
		t.Fatal(err)
	}
	if len(debt) != 2 || debt[0].Month != 2 || !debt[0].Total.Equal(dec("200")) {
		t.Errorf("InstallmentSummary() = %+v", debt)
	}

	if _, err := svc.ListMonth(ctx, "alice", 2024, 13); !errors.Is(err, core.ErrValidation) {
		t.Errorf("ListMonth(13) error = %v, want ErrValidation", err)
	}
}
