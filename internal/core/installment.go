package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var installmentSuffix = regexp.MustCompile(`\s*\(\d+/\d+\)$`)

// Purchase is the aggregate root of an installment group. Its installments
// are derived, never edited one by one.
type Purchase struct {
	ID           string
	UserID       string
	Description  string
	TotalAmount  decimal.Decimal
	FirstPayment Date
	Count        int
	Category     Category
	AccountID    string
}

// NewPurchase validates in and returns the purchase it describes. A new
// purchase id is generated when purchaseID is empty.
func NewPurchase(userID string, in ExpenseInput, purchaseID string) (Purchase, error) {
	if err := in.Validate(); err != nil {
		return Purchase{}, err
	}
	if in.Count() < 2 {
		return Purchase{}, NewValidationError("installments", "a purchase needs at least 2 installments")
	}
	if purchaseID == "" {
		purchaseID = uuid.NewString()
	}
	return Purchase{
		ID:           purchaseID,
		UserID:       userID,
		Description:  strings.TrimSpace(in.Description),
		TotalAmount:  in.TotalAmount,
		FirstPayment: in.PaymentDate,
		Count:        in.Count(),
		Category:     in.Category,
		AccountID:    in.AccountID,
	}, nil
}

// InstallmentValue is round(total / count, 2). Every installment carries this
// same value; the rounding difference is not moved to the last one.
func (p Purchase) InstallmentValue() decimal.Decimal {
	return RoundMoney(p.TotalAmount.Div(decimal.NewFromInt(int64(p.Count))))
}

// Drift is the sum of installments minus the total amount. Its magnitude is
// at most count * 0.005.
func (p Purchase) Drift() decimal.Decimal {
	return p.InstallmentValue().Mul(decimal.NewFromInt(int64(p.Count))).Sub(p.TotalAmount)
}

// PaymentDate returns the due date of installment i, 1-based.
func (p Purchase) PaymentDate(i int) Date {
	return p.FirstPayment.AddMonths(i - 1)
}

// Installments generates the expense records of the group, in order.
func (p Purchase) Installments() []Expense {
	value := p.InstallmentValue()
	now := time.Now().UTC()
	out := make([]Expense, p.Count)
	for i := 1; i <= p.Count; i++ {
		out[i-1] = Expense{
			ID:            uuid.NewString(),
			UserID:        p.UserID,
			Description:   InstallmentLabel(p.Description, i, p.Count),
			Amount:        value,
			PaymentDate:   p.PaymentDate(i),
			Category:      p.Category,
			Type:          ExpenseOneOff,
			AccountID:     p.AccountID,
			IsInstallment: true,
			InstallmentDetails: &InstallmentDetails{
				PurchaseID:         p.ID,
				CurrentInstallment: i,
				TotalInstallments:  p.Count,
				TotalAmount:        p.TotalAmount,
			},
			CreatedAt: now,
		}
	}
	return out
}

// InstallmentLabel appends the "(i/N)" marker to desc.
func InstallmentLabel(desc string, i, n int) string {
	return fmt.Sprintf("%s (%d/%d)", desc, i, n)
}

// BaseDescription strips a trailing "(i/N)" marker.
func BaseDescription(desc string) string {
	return installmentSuffix.ReplaceAllString(desc, "")
}

// PurchaseFromGroup rebuilds the purchase a group was generated from. It
// trusts the first installment; use CheckGroup to detect inconsistencies.
func PurchaseFromGroup(group []Expense) (Purchase, error) {
	var first *Expense
	for i := range group {
		d := group[i].InstallmentDetails
		if d == nil {
			continue
		}
		if first == nil || d.CurrentInstallment < first.InstallmentDetails.CurrentInstallment {
			first = &group[i]
		}
	}
	if first == nil {
		return Purchase{}, fmt.Errorf("group has no installments: %w", ErrNotFound)
	}
	d := first.InstallmentDetails
	return Purchase{
		ID:           d.PurchaseID,
		UserID:       first.UserID,
		Description:  BaseDescription(first.Description),
		TotalAmount:  d.TotalAmount,
		FirstPayment: first.PaymentDate.AddMonths(1 - d.CurrentInstallment),
		Count:        d.TotalInstallments,
		Category:     first.Category,
		AccountID:    first.AccountID,
	}, nil
}

// CheckGroup lists the ways a stored group departs from the purchase
// invariant. An empty result means the group is consistent.
func CheckGroup(group []Expense) []string {
	p, err := PurchaseFromGroup(group)
	if err != nil {
		return []string{err.Error()}
	}
	var problems []string
	if len(group) != p.Count {
		problems = append(problems, fmt.Sprintf("has %d records, expected %d", len(group), p.Count))
	}
	seen := make(map[int]bool, len(group))
	value := p.InstallmentValue()
	for _, e := range group {
		d := e.InstallmentDetails
		if d == nil || !e.IsInstallment {
			problems = append(problems, fmt.Sprintf("record %s is not marked as an installment", e.ID))
			continue
		}
		if d.PurchaseID != p.ID {
			problems = append(problems, fmt.Sprintf("record %s belongs to purchase %s", e.ID, d.PurchaseID))
		}
		if d.CurrentInstallment < 1 || d.CurrentInstallment > p.Count {
			problems = append(problems, fmt.Sprintf("record %s has installment %d out of range", e.ID, d.CurrentInstallment))
		} else if seen[d.CurrentInstallment] {
			problems = append(problems, fmt.Sprintf("installment %d appears more than once", d.CurrentInstallment))
		} else {
			seen[d.CurrentInstallment] = true
			if !e.PaymentDate.Equal(p.PaymentDate(d.CurrentInstallment)) {
				problems = append(problems, fmt.Sprintf("installment %d is due %s, expected %s", d.CurrentInstallment, e.PaymentDate, p.PaymentDate(d.CurrentInstallment)))
			}
		}
		if d.TotalInstallments != p.Count {
			problems = append(problems, fmt.Sprintf("record %s says %d installments, expected %d", e.ID, d.TotalInstallments, p.Count))
		}
		if !d.TotalAmount.Equal(p.TotalAmount) {
			problems = append(problems, fmt.Sprintf("record %s has total %s, expected %s", e.ID, d.TotalAmount, p.TotalAmount))
		}
		if !e.Amount.Equal(value) {
			problems = append(problems, fmt.Sprintf("record %s has amount %s, expected %s", e.ID, e.Amount, value))
		}
		if e.AccountID != p.AccountID {
			problems = append(problems, fmt.Sprintf("record %s is linked to account %q, expected %q", e.ID, e.AccountID, p.AccountID))
		}
		if e.Category != p.Category {
			problems = append(problems, fmt.Sprintf("record %s has category %s, expected %s", e.ID, e.Category, p.Category))
		}
		if BaseDescription(e.Description) != p.Description {
			problems = append(problems, fmt.Sprintf("record %s has description %q, expected base %q", e.ID, e.Description, p.Description))
		}
	}
	for i := 1; i <= p.Count; i++ {
		if !seen[i] {
			problems = append(problems, fmt.Sprintf("installment %d is missing", i))
		}
	}
	return problems
}
