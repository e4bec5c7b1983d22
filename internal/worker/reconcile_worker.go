package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/amqp"
	"financas/internal/services"
)

// GroupChecker verifies purchase groups.
type GroupChecker interface {
	Check(ctx context.Context, userID, purchaseID string) (services.GroupReport, error)
	Sweep(ctx context.Context) ([]services.GroupReport, error)
}

// ReconcileWorker checks installment groups when purchase events arrive and
// sweeps every group periodically as a backup for lost messages.
type ReconcileWorker struct {
	checker  GroupChecker
	interval time.Duration
}

func NewReconcileWorker(checker GroupChecker, interval time.Duration) *ReconcileWorker {
	return &ReconcileWorker{
		checker:  checker,
		interval: interval,
	}
}

// HandlePurchaseMessage checks the group named by a purchase event. An
// inconsistent group is logged, not returned as an error: redelivering the
// message would not change the stored records.
func (w *ReconcileWorker) HandlePurchaseMessage(ctx context.Context, msg *amqp.PurchaseMessage) error {
	slog.InfoContext(ctx, "Processing purchase event",
		"user_id", msg.UserID,
		"purchase_id", msg.PurchaseID,
		"action", msg.Action,
		"count", msg.Count)

	report, err := w.checker.Check(ctx, msg.UserID, msg.PurchaseID)
	if err != nil {
		return fmt.Errorf("check purchase %s: %w", msg.PurchaseID, err)
	}
	report = report.Expecting(msg.Action, msg.Count)

	if !report.Consistent() {
		slog.ErrorContext(ctx, "Purchase group failed reconciliation",
			"user_id", msg.UserID,
			"purchase_id", msg.PurchaseID,
			"records", report.Records,
			"problems", report.Problems)
		return nil
	}

	slog.DebugContext(ctx, "Purchase group consistent",
		"purchase_id", msg.PurchaseID,
		"records", report.Records)

	return nil
}

// SweepOnce checks every stored group and returns how many were inconsistent.
func (w *ReconcileWorker) SweepOnce(ctx context.Context) (int, error) {
	start := time.Now()
	bad, err := w.checker.Sweep(ctx)
	if err != nil {
		return len(bad), fmt.Errorf("sweep purchases: %w", err)
	}

	for _, report := range bad {
		slog.ErrorContext(ctx, "Purchase group failed reconciliation",
			"user_id", report.UserID,
			"purchase_id", report.PurchaseID,
			"records", report.Records,
			"problems", report.Problems)
	}

	slog.InfoContext(ctx, "Reconciliation sweep finished",
		"inconsistent", len(bad),
		"duration", time.Since(start))

	return len(bad), nil
}

// RunPeriodicSweep sweeps once immediately and then on every interval tick
// until ctx is cancelled.
func (w *ReconcileWorker) RunPeriodicSweep(ctx context.Context) {
	if _, err := w.SweepOnce(ctx); err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Startup sweep failed", "error", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Periodic sweep stopped")
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil && ctx.Err() == nil {
				slog.ErrorContext(ctx, "Periodic sweep failed", "error", err)
			}
		}
	}
}
