package services

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/core"
	"financas/internal/ports"
)

// GroupReport is the outcome of checking one purchase group.
type GroupReport struct {
	UserID     string   `json:"userId"`
	PurchaseID string   `json:"purchaseId"`
	Records    int      `json:"records"`
	Problems   []string `json:"problems,omitempty"`
}

func (r GroupReport) Consistent() bool {
	return len(r.Problems) == 0
}

// Expecting flags a group that an event says should hold count records but
// has none left, as after an edit whose re-insert failed.
func (r GroupReport) Expecting(action string, count int) GroupReport {
	if action == ports.PurchaseDeleted || count == 0 || r.Records > 0 {
		return r
	}
	r.Problems = append(r.Problems, fmt.Sprintf("group missing: expected %d records after %s", count, action))
	return r
}

// Reconciler detects installment groups that no longer match the purchase
// they were generated from. It never repairs anything.
type Reconciler struct {
	store ports.ExpenseStore
}

func NewReconciler(store ports.ExpenseStore) *Reconciler {
	return &Reconciler{store: store}
}

// Check verifies one group. A group with no records left is consistent on
// its own; see Expecting for events that promise records.
func (r *Reconciler) Check(ctx context.Context, userID, purchaseID string) (GroupReport, error) {
	group, err := r.store.ListExpenses(ctx, userID, ports.ExpenseFilter{PurchaseID: purchaseID})
	if err != nil {
		return GroupReport{}, fmt.Errorf("load purchase %s: %w", purchaseID, err)
	}
	report := GroupReport{UserID: userID, PurchaseID: purchaseID, Records: len(group)}
	if len(group) == 0 {
		return report, nil
	}
	report.Problems = core.CheckGroup(group)
	if !report.Consistent() {
		slog.WarnContext(ctx, "Inconsistent purchase group",
			"user_id", userID, "purchase_id", purchaseID,
			"records", len(group), "problems", report.Problems)
	}
	return report, nil
}

// Sweep checks every stored group and returns the inconsistent ones. It
// stops early when ctx is cancelled.
func (r *Reconciler) Sweep(ctx context.Context) ([]GroupReport, error) {
	refs, err := r.store.ListPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	var bad []GroupReport
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return bad, err
		}
		report, err := r.Check(ctx, ref.UserID, ref.PurchaseID)
		if err != nil {
			return bad, err
		}
		if !report.Consistent() {
			bad = append(bad, report)
		}
	}
	slog.InfoContext(ctx, "Purchase sweep completed", "groups", len(refs), "inconsistent", len(bad))
	return bad, nil
}
