package core

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

type AccountType string

const (
	AccountBank       AccountType = "bank_account"
	AccountCreditCard AccountType = "credit_card"
)

// DefaultAccountColor is used when an account is saved without a color.
const DefaultAccountColor = "#718096"

var (
	hexColor  = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	fourDigit = regexp.MustCompile(`^\d{4}$`)
)

type CardDetails struct {
	HolderName  string `json:"holderName,omitempty"`
	Last4Digits string `json:"last4Digits,omitempty"`
}

type Account struct {
	ID          string       `json:"id"`
	UserID      string       `json:"userId"`
	Name        string       `json:"name"`
	Type        AccountType  `json:"type"`
	Color       string       `json:"color"`
	CardDetails *CardDetails `json:"cardDetails,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

type AccountInput struct {
	Name        string       `json:"name"`
	Type        AccountType  `json:"type"`
	Color       string       `json:"color,omitempty"`
	CardDetails *CardDetails `json:"cardDetails,omitempty"`
}

func (in AccountInput) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		v.Add("name", "is required")
	}
	switch in.Type {
	case AccountBank, AccountCreditCard:
	case "":
		v.Add("type", "is required")
	default:
		v.Add("type", fmt.Sprintf("unknown account type %q", in.Type))
	}
	if in.Color != "" && !hexColor.MatchString(in.Color) {
		v.Add("color", "must be a #rrggbb hex color")
	}
	if in.CardDetails != nil {
		if d := strings.TrimSpace(in.CardDetails.Last4Digits); d != "" && !fourDigit.MatchString(d) {
			v.Add("cardDetails.last4Digits", "must be exactly 4 digits")
		}
	}
	return v.OrNil()
}

// NewAccount validates in and applies defaults. Card details are kept for
// credit cards only.
func NewAccount(userID string, in AccountInput) (Account, error) {
	if err := in.Validate(); err != nil {
		return Account{}, err
	}
	a := Account{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      strings.TrimSpace(in.Name),
		Type:      in.Type,
		Color:     in.Color,
		CreatedAt: time.Now().UTC(),
	}
	if a.Color == "" {
		a.Color = DefaultAccountColor
	}
	if in.Type == AccountCreditCard && in.CardDetails != nil {
		a.CardDetails = &CardDetails{
			HolderName:  strings.TrimSpace(in.CardDetails.HolderName),
			Last4Digits: strings.TrimSpace(in.CardDetails.Last4Digits),
		}
	}
	return a, nil
}

// AccountIndex maps account ids to accounts.
func AccountIndex(accounts []Account) map[string]Account {
	idx := make(map[string]Account, len(accounts))
	for _, a := range accounts {
		idx[a.ID] = a
	}
	return idx
}

// ResolveAccounts attaches linked accounts to expenses.
func ResolveAccounts(expenses []Expense, accounts []Account) []ExpenseWithAccount {
	idx := AccountIndex(accounts)
	out := make([]ExpenseWithAccount, len(expenses))
	for i, e := range expenses {
		out[i] = ExpenseWithAccount{Expense: e}
		if a, ok := idx[e.AccountID]; ok && e.AccountID != "" {
			acc := a
			out[i].Account = &acc
		}
	}
	return out
}
