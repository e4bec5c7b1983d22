package core

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultSavingsSource describes deposits saved without a source.
const DefaultSavingsSource = "Entrada manual na reserva"

type Savings struct {
	ID                string          `json:"id"`
	UserID            string          `json:"userId"`
	Amount            decimal.Decimal `json:"amount"`
	Date              Date            `json:"date"`
	SourceDescription string          `json:"sourceDescription"`
	SourceIncomeID    string          `json:"sourceIncomeId,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type SavingsInput struct {
	Amount            decimal.Decimal `json:"amount"`
	Date              Date            `json:"date"`
	SourceDescription string          `json:"sourceDescription,omitempty"`
	SourceIncomeID    string          `json:"sourceIncomeId,omitempty"`
}

// NewSavings builds a ledger entry. A zero date means today. Negative
// amounts are withdrawals.
func NewSavings(userID string, in SavingsInput) (Savings, error) {
	if in.Amount.IsZero() {
		return Savings{}, NewValidationError("amount", "must not be zero")
	}
	s := Savings{
		ID:                uuid.NewString(),
		UserID:            userID,
		Amount:            in.Amount,
		Date:              in.Date,
		SourceDescription: strings.TrimSpace(in.SourceDescription),
		SourceIncomeID:    in.SourceIncomeID,
		CreatedAt:         time.Now().UTC(),
	}
	if s.Date.IsZero() {
		s.Date = Today()
	}
	if s.SourceDescription == "" {
		s.SourceDescription = DefaultSavingsSource
	}
	return s, nil
}

// EvolutionPoint is the running savings total after one entry.
type EvolutionPoint struct {
	Date  Date            `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// Evolution folds entries in date order into a running total. Entries on the
// same date keep their input order.
func Evolution(entries []Savings) []EvolutionPoint {
	sorted := make([]Savings, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	total := decimal.Zero
	out := make([]EvolutionPoint, len(sorted))
	for i, s := range sorted {
		total = total.Add(s.Amount)
		out[i] = EvolutionPoint{Date: s.Date, Total: total}
	}
	return out
}
