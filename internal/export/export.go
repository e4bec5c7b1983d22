// Package export renders reports as spreadsheets.
package export

import (
	"bytes"
	"fmt"

	"financas/internal/core"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ContentType is the media type of XLSX documents.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var monthNames = [12]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// Table is one named block of rows. Cells hold strings, ints, bools or
// float64 amounts so spreadsheet formulas can sum them.
type Table struct {
	Name   string
	Header []string
	Rows   [][]any
	Widths []float64
}

// FileName is the download name of an annual report.
func FileName(year int) string {
	return fmt.Sprintf("relatorio_%d.xlsx", year)
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// AnnualTables lays out an annual report as the monthly timeline, the
// income events and the per-account totals.
func AnnualTables(r core.AnnualReport) []Table {
	summary := Table{
		Name:   "Resumo",
		Header: []string{"Mês", "Receitas", "Despesas", "Saldo"},
		Widths: []float64{14, 14, 14, 14},
	}
	for _, m := range r.MonthlyData {
		summary.Rows = append(summary.Rows, []any{
			monthNames[m.Month-1], amount(m.Income), amount(m.Expense), amount(m.Income.Sub(m.Expense)),
		})
	}
	summary.Rows = append(summary.Rows, []any{
		"Total", amount(r.TotalAnnualIncome), amount(r.TotalAnnualExpense), amount(r.AnnualBalance),
	})

	incomes := Table{
		Name:   "Rendas",
		Header: []string{"Data", "Descrição", "Tipo", "Valor", "Projetada"},
		Widths: []float64{12, 30, 12, 14, 10},
	}
	for _, ev := range r.DetailedIncomeEvents {
		projected := "Não"
		if ev.Projected {
			projected = "Sim"
		}
		incomes.Rows = append(incomes.Rows, []any{
			ev.Date.String(), ev.Description, string(ev.Type), amount(ev.Amount), projected,
		})
	}

	accounts := Table{
		Name:   "Contas",
		Header: []string{"Conta", "Tipo", "Total"},
		Widths: []float64{24, 14, 14},
	}
	for _, a := range r.ExpensesByAccount {
		name := a.Name
		if a.AccountID == nil {
			name = "Sem conta"
		}
		accounts.Rows = append(accounts.Rows, []any{name, string(a.Type), amount(a.Total)})
	}

	return []Table{summary, incomes, accounts}
}

// AnnualXLSX renders r as a workbook with one sheet per table.
func AnnualXLSX(r core.AnnualReport) ([]byte, error) {
	return WriteXLSX(AnnualTables(r))
}

// WriteXLSX renders tables as a workbook, one sheet each, in order.
func WriteXLSX(tables []Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), t.Name); err != nil {
				return nil, fmt.Errorf("rename sheet %s: %w", t.Name, err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", t.Name, err)
		}
		if err := writeTable(f, t); err != nil {
			return nil, err
		}
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeTable(f *excelize.File, t Table) error {
	header := make([]any, len(t.Header))
	for i, h := range t.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", t.Name, err)
	}
	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", t.Name, i+1, err)
		}
	}
	for i, w := range t.Widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(t.Name, col, col, w); err != nil {
			return fmt.Errorf("set %s width: %w", t.Name, err)
		}
	}
	return nil
}
