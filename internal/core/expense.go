package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	Category    string
	ExpenseType string
)

const (
	CategoryOnlineShopping Category = "compras_internet"
	CategoryGroceries      Category = "mercado"
	CategorySubscriptions  Category = "assinaturas"
	CategoryDebts          Category = "dividas"
	CategoryHousehold      Category = "contas_casa"
	CategoryHealth         Category = "medico_saude"
	CategoryEntertainment  Category = "entretenimento"
	CategoryOther          Category = "outros"
)

const (
	ExpenseRecurring ExpenseType = "recorrente"
	ExpenseOneOff    ExpenseType = "pontual"
)

// MaxInstallments bounds the size of a purchase group.
const MaxInstallments = 360

var categories = []Category{
	CategoryOnlineShopping,
	CategoryGroceries,
	CategorySubscriptions,
	CategoryDebts,
	CategoryHousehold,
	CategoryHealth,
	CategoryEntertainment,
	CategoryOther,
}

// Categories returns the known expense categories.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

func (c Category) Valid() bool {
	for _, known := range categories {
		if c == known {
			return true
		}
	}
	return false
}

func (t ExpenseType) Valid() bool {
	return t == ExpenseRecurring || t == ExpenseOneOff
}

// InstallmentDetails ties an expense to its purchase group.
type InstallmentDetails struct {
	PurchaseID         string          `json:"purchaseId"`
	CurrentInstallment int             `json:"currentInstallment"`
	TotalInstallments  int             `json:"totalInstallments"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
}

// Expense is a single dated payment. Installments of one purchase are
// separate expenses sharing InstallmentDetails.PurchaseID.
type Expense struct {
	ID                 string              `json:"id"`
	UserID             string              `json:"userId"`
	Description        string              `json:"description"`
	Amount             decimal.Decimal     `json:"amount"`
	PaymentDate        Date                `json:"paymentDate"`
	Category           Category            `json:"category"`
	Type               ExpenseType         `json:"type"`
	AccountID          string              `json:"accountId,omitempty"`
	IsInstallment      bool                `json:"isInstallment"`
	InstallmentDetails *InstallmentDetails `json:"installmentDetails,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
}

// PurchaseID returns the group key, empty for plain expenses.
func (e Expense) PurchaseID() string {
	if !e.IsInstallment || e.InstallmentDetails == nil {
		return ""
	}
	return e.InstallmentDetails.PurchaseID
}

// ExpenseWithAccount is an expense with its linked account resolved.
type ExpenseWithAccount struct {
	Expense
	Account *Account `json:"account,omitempty"`
}

// ExpenseInput is what a user submits to create or edit an expense. An
// Installments value above one makes it a purchase group.
type ExpenseInput struct {
	Description  string          `json:"description"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	PaymentDate  Date            `json:"paymentDate"`
	Category     Category        `json:"category"`
	Type         ExpenseType     `json:"type"`
	Installments int             `json:"installments"`
	AccountID    string          `json:"accountId,omitempty"`
}

// Count returns the number of installments, one when unset.
func (in ExpenseInput) Count() int {
	if in.Installments == 0 {
		return 1
	}
	return in.Installments
}

// Validate checks every field and reports all problems at once.
func (in ExpenseInput) Validate() error {
	v := &ValidationError{}
	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		v.Add("description", "is required")
	} else if len(desc) > maxDescriptionLen {
		v.Add("description", "too long (max 200 characters)")
	}
	if !in.TotalAmount.IsPositive() {
		v.Add("totalAmount", "must be greater than zero")
	}
	if in.PaymentDate.IsZero() {
		v.Add("paymentDate", "is required")
	}
	if in.Category == "" {
		v.Add("category", "is required")
	} else if !in.Category.Valid() {
		v.Add("category", fmt.Sprintf("unknown category %q", in.Category))
	}
	n := in.Count()
	if n < 1 || n > MaxInstallments {
		v.Add("installments", fmt.Sprintf("must be between 1 and %d", MaxInstallments))
	}
	if n == 1 {
		if in.Type == "" {
			v.Add("type", "is required")
		} else if !in.Type.Valid() {
			v.Add("type", fmt.Sprintf("unknown expense type %q", in.Type))
		}
	}
	return v.OrNil()
}

// NewExpense builds a plain, non-installment expense from in.
func NewExpense(userID string, in ExpenseInput) (Expense, error) {
	if err := in.Validate(); err != nil {
		return Expense{}, err
	}
	return Expense{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: strings.TrimSpace(in.Description),
		Amount:      in.TotalAmount,
		PaymentDate: in.PaymentDate,
		Category:    in.Category,
		Type:        in.Type,
		AccountID:   in.AccountID,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// BuildExpenses turns an input into the records to store: one plain expense
// when a single installment is requested, otherwise the full purchase group
// keyed by purchaseID (a new one when empty).
func BuildExpenses(userID string, in ExpenseInput, purchaseID string) ([]Expense, error) {
	if in.Count() == 1 {
		e, err := NewExpense(userID, in)
		if err != nil {
			return nil, err
		}
		return []Expense{e}, nil
	}
	p, err := NewPurchase(userID, in, purchaseID)
	if err != nil {
		return nil, err
	}
	return p.Installments(), nil
}
