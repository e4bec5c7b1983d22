package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MonthData is one row of the annual timeline. Month is 1-12.
type MonthData struct {
	Month   int             `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// AccountTotal is the yearly spend of one account. AccountID is nil for the
// bucket of expenses without an account.
type AccountTotal struct {
	AccountID *string         `json:"accountId"`
	Name      string          `json:"name,omitempty"`
	Color     string          `json:"color,omitempty"`
	Type      AccountType     `json:"type,omitempty"`
	Total     decimal.Decimal `json:"total"`
}

// AnnualReport is the month by month projection of a year.
type AnnualReport struct {
	Year                 int             `json:"year"`
	TotalAnnualIncome    decimal.Decimal `json:"totalAnnualIncome"`
	TotalAnnualExpense   decimal.Decimal `json:"totalAnnualExpense"`
	AnnualBalance        decimal.Decimal `json:"annualBalance"`
	MonthlyData          []MonthData     `json:"monthlyData"`
	DetailedIncomeEvents []IncomeEvent   `json:"detailedIncomeEvents"`
	ExpensesByAccount    []AccountTotal  `json:"expensesByAccount"`
}

// ProjectYear builds the annual report. Annual totals are sums over
// MonthlyData so they always agree with the timeline.
func ProjectYear(year int, incomes []Income, expenses []Expense, accounts []Account) AnnualReport {
	r := AnnualReport{
		Year:                 year,
		MonthlyData:          make([]MonthData, 12),
		DetailedIncomeEvents: []IncomeEvent{},
		ExpensesByAccount:    []AccountTotal{},
	}
	for m := range r.MonthlyData {
		r.MonthlyData[m] = MonthData{Month: m + 1, Income: decimal.Zero, Expense: decimal.Zero}
	}

	events := ExpandAll(incomes, year)
	for _, ev := range events {
		r.MonthlyData[ev.Month-1].Income = r.MonthlyData[ev.Month-1].Income.Add(ev.Amount)
	}
	if events != nil {
		r.DetailedIncomeEvents = events
	}

	w := YearWindow(year)
	idx := AccountIndex(accounts)
	byAccount := make(map[string]*AccountTotal)
	var order []string
	for _, e := range expenses {
		if !w.Contains(e.PaymentDate) {
			continue
		}
		m := int(e.PaymentDate.Month()) - 1
		r.MonthlyData[m].Expense = r.MonthlyData[m].Expense.Add(e.Amount)

		t, ok := byAccount[e.AccountID]
		if !ok {
			t = &AccountTotal{Total: decimal.Zero}
			if e.AccountID != "" {
				id := e.AccountID
				t.AccountID = &id
				if a, found := idx[id]; found {
					t.Name, t.Color, t.Type = a.Name, a.Color, a.Type
				}
			}
			byAccount[e.AccountID] = t
			order = append(order, e.AccountID)
		}
		t.Total = t.Total.Add(e.Amount)
	}
	for _, id := range order {
		r.ExpensesByAccount = append(r.ExpensesByAccount, *byAccount[id])
	}
	sortAccountTotals(r.ExpensesByAccount)

	r.TotalAnnualIncome = decimal.Zero
	r.TotalAnnualExpense = decimal.Zero
	for _, md := range r.MonthlyData {
		r.TotalAnnualIncome = r.TotalAnnualIncome.Add(md.Income)
		r.TotalAnnualExpense = r.TotalAnnualExpense.Add(md.Expense)
	}
	r.AnnualBalance = r.TotalAnnualIncome.Sub(r.TotalAnnualExpense)
	return r
}

// sortAccountTotals orders by total descending with the unlinked bucket
// always last.
func sortAccountTotals(totals []AccountTotal) {
	sort.SliceStable(totals, func(i, j int) bool {
		a, b := totals[i], totals[j]
		if (a.AccountID == nil) != (b.AccountID == nil) {
			return b.AccountID == nil
		}
		return a.Total.GreaterThan(b.Total)
	})
}

// AvailableYears lists the distinct years holding an income date or an
// expense payment date, newest first.
func AvailableYears(incomes []Income, expenses []Expense) []int {
	seen := make(map[int]bool)
	for _, inc := range incomes {
		if d := inc.Date(); !d.IsZero() {
			seen[d.Year()] = true
		}
	}
	for _, e := range expenses {
		if !e.PaymentDate.IsZero() {
			seen[e.PaymentDate.Year()] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
