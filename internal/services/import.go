package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ImportKind names the collection a bulk import targets.
type ImportKind string

const (
	ImportExpenses ImportKind = "expenses"
	ImportIncomes  ImportKind = "incomes"
	ImportSavings  ImportKind = "savings"
	ImportAccounts ImportKind = "accounts"
)

// ImportedExpense is one expense row. AccountName is matched against the
// importer's accounts ignoring case.
type ImportedExpense struct {
	Description  string           `json:"description"`
	Amount       decimal.Decimal  `json:"amount"`
	TotalAmount  *decimal.Decimal `json:"totalAmount,omitempty"`
	PaymentDate  core.Date        `json:"paymentDate"`
	Category     core.Category    `json:"category"`
	Type         core.ExpenseType `json:"type"`
	Installments int              `json:"installments,omitempty"`
	AccountName  string           `json:"accountName,omitempty"`
}

// ImportedAccount is one account row with card details flattened.
type ImportedAccount struct {
	Name        string           `json:"name"`
	Type        core.AccountType `json:"type"`
	Color       string           `json:"color,omitempty"`
	HolderName  string           `json:"holderName,omitempty"`
	Last4Digits string           `json:"last4Digits,omitempty"`
}

// ImportService bulk loads records for an admin.
type ImportService struct {
	store   ports.Store
	users   *UserService
	reports Invalidator
}

func NewImportService(store ports.Store, users *UserService, reports Invalidator) *ImportService {
	return &ImportService{store: store, users: users, reports: orNoop(reports)}
}

func decodeRows[T any](raw json.RawMessage) ([]T, error) {
	var rows []T
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&rows); err != nil {
		return nil, core.NewValidationError("data", fmt.Sprintf("invalid records: %v", err))
	}
	if len(rows) == 0 {
		return nil, core.NewValidationError("data", "must contain at least one record")
	}
	return rows, nil
}

func rowError(v *core.ValidationError, i int, err error) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		v.Merge(fmt.Sprintf("data[%d]", i), ve)
		return nil
	}
	return err
}

// Import validates every row first and writes nothing unless all rows are
// valid. It returns the number of records stored.
func (s *ImportService) Import(ctx context.Context, adminID string, kind ImportKind, raw json.RawMessage) (int, error) {
	if _, err := s.users.RequireAdmin(ctx, adminID); err != nil {
		return 0, err
	}
	var (
		n   int
		err error
	)
	switch kind {
	case ImportExpenses:
		n, err = s.importExpenses(ctx, adminID, raw)
	case ImportIncomes:
		n, err = s.importIncomes(ctx, adminID, raw)
	case ImportSavings:
		n, err = s.importSavings(ctx, adminID, raw)
	case ImportAccounts:
		n, err = s.importAccounts(ctx, adminID, raw)
	case "":
		return 0, core.NewValidationError("type", "is required")
	default:
		return 0, core.NewValidationError("type", fmt.Sprintf("unknown import type %q", kind))
	}
	if err != nil {
		return 0, err
	}
	s.reports.Invalidate(adminID)
	slog.InfoContext(ctx, "Records imported", "user_id", adminID, "type", kind, "count", n)
	return n, nil
}

func (s *ImportService) importExpenses(ctx context.Context, userID string, raw json.RawMessage) (int, error) {
	rows, err := decodeRows[ImportedExpense](raw)
	if err != nil {
		return 0, err
	}
	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return 0, err
	}
	byName := make(map[string]string, len(accounts))
	for _, a := range accounts {
		byName[strings.ToLower(strings.TrimSpace(a.Name))] = a.ID
	}

	v := &core.ValidationError{}
	var records []core.Expense
	for i, row := range rows {
		total := row.Amount
		if row.TotalAmount != nil {
			total = *row.TotalAmount
		}
		in := core.ExpenseInput{
			Description:  row.Description,
			TotalAmount:  total,
			PaymentDate:  row.PaymentDate,
			Category:     row.Category,
			Type:         row.Type,
			Installments: row.Installments,
		}
		if name := strings.ToLower(strings.TrimSpace(row.AccountName)); name != "" {
			id, ok := byName[name]
			if !ok {
				v.Add(fmt.Sprintf("data[%d].accountName", i), fmt.Sprintf("unknown account %q", row.AccountName))
				continue
			}
			in.AccountID = id
		}
		built, err := core.BuildExpenses(userID, in, "")
		if err != nil {
			if err := rowError(v, i, err); err != nil {
				return 0, err
			}
			continue
		}
		records = append(records, built...)
	}
	if err := v.OrNil(); err != nil {
		return 0, err
	}
	if err := s.store.InsertExpenses(ctx, records); err != nil {
		return 0, fmt.Errorf("import expenses: %w", err)
	}
	return len(records), nil
}

func (s *ImportService) importIncomes(ctx context.Context, userID string, raw json.RawMessage) (int, error) {
	rows, err := decodeRows[core.IncomeRecord](raw)
	if err != nil {
		return 0, err
	}
	v := &core.ValidationError{}
	incomes := make([]core.Income, 0, len(rows))
	now := time.Now().UTC()
	for i, rec := range rows {
		rec.ID = uuid.NewString()
		rec.UserID = userID
		rec.CreatedAt = now
		inc, err := rec.Income()
		if err != nil {
			if err := rowError(v, i, err); err != nil {
				return 0, err
			}
			continue
		}
		incomes = append(incomes, inc)
	}
	if err := v.OrNil(); err != nil {
		return 0, err
	}
	_, err = withinTx(ctx, s.store, func(st ports.Store) error {
		for _, inc := range incomes {
			if err := st.InsertIncome(ctx, inc); err != nil {
				return fmt.Errorf("import income: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(incomes), nil
}

func (s *ImportService) importSavings(ctx context.Context, userID string, raw json.RawMessage) (int, error) {
	rows, err := decodeRows[core.SavingsInput](raw)
	if err != nil {
		return 0, err
	}
	v := &core.ValidationError{}
	entries := make([]core.Savings, 0, len(rows))
	for i, in := range rows {
		entry, err := core.NewSavings(userID, in)
		if err != nil {
			if err := rowError(v, i, err); err != nil {
				return 0, err
			}
			continue
		}
		entries = append(entries, entry)
	}
	if err := v.OrNil(); err != nil {
		return 0, err
	}
	_, err = withinTx(ctx, s.store, func(st ports.Store) error {
		for _, e := range entries {
			if err := st.InsertSavings(ctx, e); err != nil {
				return fmt.Errorf("import savings: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *ImportService) importAccounts(ctx context.Context, userID string, raw json.RawMessage) (int, error) {
	rows, err := decodeRows[ImportedAccount](raw)
	if err != nil {
		return 0, err
	}
	v := &core.ValidationError{}
	accounts := make([]core.Account, 0, len(rows))
	for i, row := range rows {
		in := core.AccountInput{Name: row.Name, Type: row.Type, Color: row.Color}
		if row.Type == core.AccountCreditCard && (row.HolderName != "" || row.Last4Digits != "") {
			in.CardDetails = &core.CardDetails{HolderName: row.HolderName, Last4Digits: row.Last4Digits}
		}
		a, err := core.NewAccount(userID, in)
		if err != nil {
			if err := rowError(v, i, err); err != nil {
				return 0, err
			}
			continue
		}
		accounts = append(accounts, a)
	}
	if err := v.OrNil(); err != nil {
		return 0, err
	}
	_, err = withinTx(ctx, s.store, func(st ports.Store) error {
		for _, a := range accounts {
			if err := st.InsertAccount(ctx, a); err != nil {
				return fmt.Errorf("import account: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(accounts), nil
}
