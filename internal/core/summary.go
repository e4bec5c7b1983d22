package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TopExpenseLimit caps MonthlySummary.TopExpenses.
const TopExpenseLimit = 5

// CategoryTotal is an amount aggregated by category.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MonthlySummary is the rollup of one calendar month.
type MonthlySummary struct {
	Year               int                  `json:"year"`
	Month              int                  `json:"month"`
	TotalIncome        decimal.Decimal      `json:"totalIncome"`
	TotalExpenses      decimal.Decimal      `json:"totalExpenses"`
	Balance            decimal.Decimal      `json:"balance"`
	ExpensesByCategory []CategoryTotal      `json:"expensesByCategory"`
	TopExpenses        []ExpenseWithAccount `json:"topExpenses"`
}

// SummarizeMonth rolls up one month. Records outside the month are ignored,
// so callers may pass a superset.
func SummarizeMonth(year, month int, incomes []Income, expenses []Expense, accounts []Account) MonthlySummary {
	w := MonthWindow(year, month)
	s := MonthlySummary{
		Year:               year,
		Month:              month,
		TotalIncome:        decimal.Zero,
		TotalExpenses:      decimal.Zero,
		ExpensesByCategory: []CategoryTotal{},
		TopExpenses:        []ExpenseWithAccount{},
	}

	for _, inc := range incomes {
		if Matches(inc, w) {
			s.TotalIncome = s.TotalIncome.Add(inc.Amount)
		}
	}

	var inMonth []Expense
	byCategory := make(map[Category]decimal.Decimal)
	var order []Category
	for _, e := range expenses {
		if !w.Contains(e.PaymentDate) {
			continue
		}
		inMonth = append(inMonth, e)
		s.TotalExpenses = s.TotalExpenses.Add(e.Amount)
		if _, ok := byCategory[e.Category]; !ok {
			order = append(order, e.Category)
		}
		byCategory[e.Category] = byCategory[e.Category].Add(e.Amount)
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)

	for _, c := range order {
		s.ExpensesByCategory = append(s.ExpensesByCategory, CategoryTotal{Category: c, Total: byCategory[c]})
	}
	sort.SliceStable(s.ExpensesByCategory, func(i, j int) bool {
		return s.ExpensesByCategory[i].Total.GreaterThan(s.ExpensesByCategory[j].Total)
	})

	// Equal amounts keep insertion order.
	sort.SliceStable(inMonth, func(i, j int) bool {
		return inMonth[i].CreatedAt.Before(inMonth[j].CreatedAt)
	})
	sort.SliceStable(inMonth, func(i, j int) bool {
		return inMonth[i].Amount.GreaterThan(inMonth[j].Amount)
	})
	if len(inMonth) > TopExpenseLimit {
		inMonth = inMonth[:TopExpenseLimit]
	}
	s.TopExpenses = ResolveAccounts(inMonth, accounts)
	return s
}

// InstallmentMonth is the installment debt due in one month.
type InstallmentMonth struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Total decimal.Decimal `json:"totalAmount"`
}

// InstallmentDebt groups installment expenses due on or after from by
// calendar month, in chronological order.
func InstallmentDebt(expenses []Expense, from Date) []InstallmentMonth {
	type key struct{ y, m int }
	totals := make(map[key]decimal.Decimal)
	for _, e := range expenses {
		if !e.IsInstallment || e.PaymentDate.Before(from) {
			continue
		}
		k := key{e.PaymentDate.Year(), int(e.PaymentDate.Month())}
		totals[k] = totals[k].Add(e.Amount)
	}
	out := make([]InstallmentMonth, 0, len(totals))
	for k, t := range totals {
		out = append(out, InstallmentMonth{Year: k.y, Month: k.m, Total: t})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// UpcomingInstallments keeps account linked installments due on or after
// from, sorted by due date.
func UpcomingInstallments(expenses []Expense, accounts []Account, from Date) []ExpenseWithAccount {
	var out []Expense
	for _, e := range expenses {
		if e.IsInstallment && e.AccountID != "" && !e.PaymentDate.Before(from) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PaymentDate.Before(out[j].PaymentDate)
	})
	return ResolveAccounts(out, accounts)
}
