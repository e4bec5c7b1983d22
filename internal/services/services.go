// Package services orchestrates the domain over the storage ports. Every
// call takes the caller's user id, already authenticated.
package services

import (
	"context"
	"errors"
	"log/slog"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/ports"
)

// Invalidator drops cached results that depend on a user's records.
type Invalidator interface {
	Invalidate(userID string)
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string) {}

func orNoop(inv Invalidator) Invalidator {
	if inv == nil {
		return noopInvalidator{}
	}
	return inv
}

// withinTx runs fn in a transaction when store supports one, otherwise
// directly against store. The bool reports whether a transaction was used.
func withinTx(ctx context.Context, store ports.Store, fn func(ports.Store) error) (bool, error) {
	if tx, ok := store.(ports.Transactor); ok {
		return true, tx.WithinTx(ctx, fn)
	}
	return false, fn(store)
}

// requireAccount checks that accountID, when set, belongs to userID.
func requireAccount(ctx context.Context, store ports.AccountStore, userID, accountID string) error {
	if accountID == "" {
		return nil
	}
	if _, err := store.GetAccount(ctx, userID, accountID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NewValidationError("accountId", "unknown account")
		}
		return err
	}
	return nil
}

// mutationLog returns the structured logger carried by ctx.
func mutationLog(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx))
}

func publish(ctx context.Context, pub ports.EventPublisher, ev ports.PurchaseEvent) {
	if pub == nil {
		slog.DebugContext(ctx, "Event publisher not configured, skipping purchase event",
			"purchase_id", ev.PurchaseID, "action", ev.Action)
		return
	}
	if err := pub.PublishPurchaseEvent(ctx, ev); err != nil {
		slog.ErrorContext(ctx, "Failed to publish purchase event",
			"purchase_id", ev.PurchaseID, "action", ev.Action, "error", err)
	}
}
