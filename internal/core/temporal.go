package core

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// eventNamespace seeds synthetic ids of projected income events so the same
// projection always yields the same ids.
var eventNamespace = uuid.MustParse("6f1c52f2-8f0e-4d8b-9d5e-2a3c1b7e4f10")

// IncomeEvent is one concrete landing of an income in a projected year.
type IncomeEvent struct {
	ID          string          `json:"id"`
	IncomeID    string          `json:"incomeId"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        Date            `json:"date"`
	Month       int             `json:"month"`
	Type        IncomeType      `json:"type"`
	Projected   bool            `json:"projected"`
}

// Matches reports whether inc contributes to window w.
func Matches(inc Income, w Window) bool {
	return inc.Schedule != nil && inc.Schedule.Matches(w)
}

// MatchingIncomes keeps the incomes that contribute to w, in input order.
func MatchingIncomes(incomes []Income, w Window) []Income {
	var out []Income
	for _, inc := range incomes {
		if Matches(inc, w) {
			out = append(out, inc)
		}
	}
	return out
}

// Expand projects inc onto year. Single incomes keep their own id; every
// event of a recurring income gets a synthetic id derived from the income id
// and the month, distinct from the persisted id.
func Expand(inc Income, year int) []IncomeEvent {
	if inc.Schedule == nil {
		return nil
	}
	occ := inc.Schedule.Occurrences(year)
	if len(occ) == 0 {
		return nil
	}
	_, single := inc.Schedule.(Single)
	events := make([]IncomeEvent, len(occ))
	for i, o := range occ {
		id := inc.ID
		if !single {
			id = SyntheticEventID(inc.ID, year, o.Month)
		}
		events[i] = IncomeEvent{
			ID:          id,
			IncomeID:    inc.ID,
			Description: inc.Description + o.Suffix,
			Amount:      inc.Amount,
			Date:        o.Date,
			Month:       o.Month,
			Type:        inc.Schedule.Type(),
			Projected:   !single,
		}
	}
	return events
}

// SyntheticEventID derives a stable id for the occurrence of incomeID in
// year/month.
func SyntheticEventID(incomeID string, year, month int) string {
	return uuid.NewSHA1(eventNamespace, []byte(fmt.Sprintf("%s:%04d-%02d", incomeID, year, month))).String()
}

// ExpandAll expands every income onto year, sorted by event date. Events on
// the same date keep the order of incomes.
func ExpandAll(incomes []Income, year int) []IncomeEvent {
	var events []IncomeEvent
	for _, inc := range incomes {
		events = append(events, Expand(inc, year)...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date.Before(events[j].Date)
	})
	return events
}
