package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"financas/internal/auth"
	"financas/internal/core"
	"financas/internal/ports"
	"financas/internal/storage/memory"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// flakyStore fails InsertExpenses while failInsert is set.
type flakyStore struct {
	*memory.Store
	failInsert bool
}

var errInsert = errors.New("disk full")

func (f *flakyStore) InsertExpenses(ctx context.Context, e []core.Expense) error {
	if f.failInsert {
		return errInsert
	}
	return f.Store.InsertExpenses(ctx, e)
}

// txStore adds a fake transaction to the memory store: writes go to a copy
// that only replaces the original on success.
type txStore struct {
	*flakyStore
	commits   int
	rollbacks int
}

func (t *txStore) WithinTx(ctx context.Context, fn func(ports.Store) error) error {
	before, _ := t.Store.ListExpenses(ctx, "alice", ports.ExpenseFilter{})
	if err := fn(t); err != nil {
		t.rollbacks++
		all, _ := t.Store.ListExpenses(ctx, "alice", ports.ExpenseFilter{})
		for _, e := range all {
			_ = t.Store.DeleteExpense(ctx, "alice", e.ID)
		}
		_ = t.Store.InsertExpenses(ctx, before)
		return err
	}
	t.commits++
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.PurchaseEvent
}

func (p *recordingPublisher) PublishPurchaseEvent(_ context.Context, ev ports.PurchaseEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Action
	}
	return out
}

type countingInvalidator struct {
	calls map[string]int
}

func (c *countingInvalidator) Invalidate(userID string) {
	if c.calls == nil {
		c.calls = map[string]int{}
	}
	c.calls[userID]++
}

func installmentInput(total string, n int, first core.Date) core.ExpenseInput {
	return core.ExpenseInput{
		Description:  "Notebook",
		TotalAmount:  dec(total),
		PaymentDate:  first,
		Category:     core.CategoryOnlineShopping,
		Installments: n,
	}
}

func plainInput(desc, amount string, on core.Date) core.ExpenseInput {
	return core.ExpenseInput{
		Description: desc,
		TotalAmount: dec(amount),
		PaymentDate: on,
		Category:    core.CategoryGroceries,
		Type:        core.ExpenseOneOff,
	}
}

func seedUser(t *testing.T, store ports.Store, id, email, password string, role core.Role) core.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatal(err)
	}
	u := core.User{ID: id, Name: id, Email: email, PasswordHash: hash, Role: role, CreatedAt: time.Now().UTC()}
	if err := store.InsertUser(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}
