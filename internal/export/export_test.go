package export

import (
	"bytes"
	"testing"

	"financas/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleReport() core.AnnualReport {
	card := "card"
	r := core.AnnualReport{
		Year:               2024,
		TotalAnnualIncome:  dec("1000"),
		TotalAnnualExpense: dec("350.50"),
		AnnualBalance:      dec("649.50"),
		DetailedIncomeEvents: []core.IncomeEvent{
			{ID: "ev1", IncomeID: "salary", Description: "Salário", Amount: dec("1000"), Date: core.NewDate(2024, 3, 5), Month: 3, Type: core.IncomeMonthly, Projected: true},
		},
		ExpensesByAccount: []core.AccountTotal{
			{AccountID: &card, Name: "Nubank", Type: core.AccountCreditCard, Total: dec("300")},
			{Total: dec("50.50")},
		},
	}
	for m := 1; m <= 12; m++ {
		r.MonthlyData = append(r.MonthlyData, core.MonthData{Month: m, Income: decimal.Zero, Expense: decimal.Zero})
	}
	r.MonthlyData[2].Income = dec("1000")
	r.MonthlyData[2].Expense = dec("350.50")
	return r
}

func TestAnnualTables(t *testing.T) {
	tables := AnnualTables(sampleReport())
	if len(tables) != 3 {
		t.Fatalf("len(tables) = %d, want 3", len(tables))
	}

	summary := tables[0]
	if len(summary.Rows) != 13 {
		t.Errorf("summary rows = %d, want 12 months + total", len(summary.Rows))
	}
	march := summary.Rows[2]
	if march[0] != "Março" || march[1] != 1000.0 || march[3] != 649.5 {
		t.Errorf("march row = %v", march)
	}
	if total := summary.Rows[12]; total[0] != "Total" || total[2] != 350.5 {
		t.Errorf("total row = %v", total)
	}

	if got := tables[1].Rows[0]; got[0] != "2024-03-05" || got[4] != "Sim" {
		t.Errorf("income row = %v", got)
	}
	if got := tables[2].Rows[1][0]; got != "Sem conta" {
		t.Errorf("unlinked bucket name = %v, want Sem conta", got)
	}
}

func TestAnnualXLSX(t *testing.T) {
	data, err := AnnualXLSX(sampleReport())
	if err != nil {
		t.Fatalf("AnnualXLSX() error = %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := []string{"Resumo", "Rendas", "Contas"}
	if len(sheets) != len(want) {
		t.Fatalf("sheets = %v, want %v", sheets, want)
	}
	for i := range want {
		if sheets[i] != want[i] {
			t.Errorf("sheet[%d] = %q, want %q", i, sheets[i], want[i])
		}
	}

	rows, err := f.GetRows("Resumo")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 14 {
		t.Errorf("Resumo rows = %d, want header + 13", len(rows))
	}
	if v, _ := f.GetCellValue("Resumo", "A1"); v != "Mês" {
		t.Errorf("A1 = %q, want Mês", v)
	}
	if v, _ := f.GetCellValue("Contas", "A2"); v != "Nubank" {
		t.Errorf("Contas!A2 = %q, want Nubank", v)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName(2024); got != "relatorio_2024.xlsx" {
		t.Errorf("FileName() = %q", got)
	}
}
