package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/ports"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	schema  SchemaStatus
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	schema, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		schema:  schema,
	}, nil
}

// SchemaVersion is the migration version applied when the repository opened.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schema.Version
}

// Close releases the database. It is a no-op on a transaction-bound
// repository.
func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping is used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}

// WithinTx runs fn against a repository bound to one transaction. fn's error
// rolls everything back. Nested calls reuse the outer transaction.
func (r *SQLiteRepository) WithinTx(ctx context.Context, fn func(ports.Store) error) error {
	if r.db == nil {
		return fn(r)
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&SQLiteRepository{queries: r.queries.WithTx(tx)}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func mapErr(kind, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrConflict)
	default:
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
}

func requireRow(kind, id string, n int64, err error) error {
	if err != nil {
		return mapErr(kind, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
	}
	return nil
}

// Incomes

func (r *SQLiteRepository) InsertIncome(ctx context.Context, inc core.Income) error {
	return mapErr("income", inc.ID, r.queries.CreateIncome(ctx, incomeRow(inc)))
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	row, err := r.queries.GetIncome(ctx, userID, id)
	if err != nil {
		return core.Income{}, mapErr("income", id, err)
	}
	return incomeFromRow(row)
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, inc core.Income) error {
	n, err := r.queries.UpdateIncome(ctx, incomeRow(inc))
	return requireRow("income", inc.ID, n, err)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteIncome(ctx, userID, id)
	return requireRow("income", id, n, err)
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, userID string, until core.Date) ([]core.Income, error) {
	rows, err := r.queries.ListIncomes(ctx, userID, dateString(until))
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	out := make([]core.Income, 0, len(rows))
	for _, row := range rows {
		inc, err := incomeFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, inc)
	}
	return out, nil
}

// Expenses

// InsertExpenses writes the batch in one transaction.
func (r *SQLiteRepository) InsertExpenses(ctx context.Context, expenses []core.Expense) error {
	return r.WithinTx(ctx, func(s ports.Store) error {
		q := s.(*SQLiteRepository).queries
		for _, e := range expenses {
			if err := q.CreateExpense(ctx, expenseRow(e)); err != nil {
				return mapErr("expense", e.ID, err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id string) (core.Expense, error) {
	row, err := r.queries.GetExpense(ctx, userID, id)
	if err != nil {
		return core.Expense{}, mapErr("expense", id, err)
	}
	return expenseFromRow(row)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	n, err := r.queries.UpdateExpense(ctx, expenseRow(e))
	return requireRow("expense", e.ID, n, err)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteExpense(ctx, userID, id)
	return requireRow("expense", id, n, err)
}

func (r *SQLiteRepository) DeleteByPurchase(ctx context.Context, userID, purchaseID string) (int, error) {
	n, err := r.queries.DeleteExpensesByPurchase(ctx, userID, purchaseID)
	if err != nil {
		return 0, mapErr("purchase", purchaseID, err)
	}
	return int(n), nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, f ports.ExpenseFilter) ([]core.Expense, error) {
	rows, err := r.queries.ListExpenses(ctx, ListExpensesParams{
		UserID:            userID,
		From:              dateString(f.From),
		To:                dateString(f.To),
		InstallmentsOnly:  boolInt(f.InstallmentsOnly),
		AccountLinkedOnly: boolInt(f.AccountLinkedOnly),
		PurchaseID:        f.PurchaseID,
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := expenseFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *SQLiteRepository) ListPurchases(ctx context.Context) ([]ports.PurchaseRef, error) {
	rows, err := r.queries.ListPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	out := make([]ports.PurchaseRef, len(rows))
	for i, row := range rows {
		out[i] = ports.PurchaseRef{UserID: row.UserID, PurchaseID: row.PurchaseID}
	}
	return out, nil
}

func (r *SQLiteRepository) UnlinkAccount(ctx context.Context, userID, accountID string) (int, error) {
	n, err := r.queries.UnlinkAccount(ctx, userID, accountID)
	if err != nil {
		return 0, mapErr("account", accountID, err)
	}
	return int(n), nil
}

// Accounts

func (r *SQLiteRepository) InsertAccount(ctx context.Context, a core.Account) error {
	return mapErr("account", a.ID, r.queries.CreateAccount(ctx, accountRow(a)))
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, userID, id string) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, userID, id)
	if err != nil {
		return core.Account{}, mapErr("account", id, err)
	}
	return accountFromRow(row), nil
}

func (r *SQLiteRepository) UpdateAccount(ctx context.Context, a core.Account) error {
	n, err := r.queries.UpdateAccount(ctx, accountRow(a))
	return requireRow("account", a.ID, n, err)
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteAccount(ctx, userID, id)
	return requireRow("account", id, n, err)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context, userID string) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, len(rows))
	for i, row := range rows {
		out[i] = accountFromRow(row)
	}
	return out, nil
}

// Savings

func (r *SQLiteRepository) InsertSavings(ctx context.Context, s core.Savings) error {
	return mapErr("savings", s.ID, r.queries.CreateSaving(ctx, savingRow(s)))
}

func (r *SQLiteRepository) GetSavings(ctx context.Context, userID, id string) (core.Savings, error) {
	row, err := r.queries.GetSaving(ctx, userID, id)
	if err != nil {
		return core.Savings{}, mapErr("savings", id, err)
	}
	return savingFromRow(row)
}

func (r *SQLiteRepository) UpdateSavings(ctx context.Context, s core.Savings) error {
	n, err := r.queries.UpdateSaving(ctx, savingRow(s))
	return requireRow("savings", s.ID, n, err)
}

func (r *SQLiteRepository) DeleteSavings(ctx context.Context, userID, id string) error {
	n, err := r.queries.DeleteSaving(ctx, userID, id)
	return requireRow("savings", id, n, err)
}

func (r *SQLiteRepository) ListSavings(ctx context.Context, userID string) ([]core.Savings, error) {
	rows, err := r.queries.ListSavings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list savings: %w", err)
	}
	out := make([]core.Savings, 0, len(rows))
	for _, row := range rows {
		s, err := savingFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Users

func (r *SQLiteRepository) InsertUser(ctx context.Context, u core.User) error {
	err := r.queries.CreateUser(ctx, User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt.UnixNano(),
	})
	return mapErr("user", u.Email, err)
}

func (r *SQLiteRepository) GetUser(ctx context.Context, id string) (core.User, error) {
	row, err := r.queries.GetUser(ctx, id)
	if err != nil {
		return core.User{}, mapErr("user", id, err)
	}
	return userFromRow(row), nil
}

func (r *SQLiteRepository) GetUserByEmail(ctx context.Context, email string) (core.User, error) {
	row, err := r.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return core.User{}, mapErr("user", email, err)
	}
	return userFromRow(row), nil
}

func (r *SQLiteRepository) ListUsers(ctx context.Context) ([]core.User, error) {
	rows, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]core.User, len(rows))
	for i, row := range rows {
		out[i] = userFromRow(row)
	}
	return out, nil
}

func (r *SQLiteRepository) DeleteUser(ctx context.Context, id string) error {
	n, err := r.queries.DeleteUser(ctx, id)
	return requireRow("user", id, n, err)
}

// PurgeUserData deletes the user's records in one transaction.
func (r *SQLiteRepository) PurgeUserData(ctx context.Context, userID string) error {
	return r.WithinTx(ctx, func(s ports.Store) error {
		q := s.(*SQLiteRepository).queries
		if err := q.DeleteUserExpenses(ctx, userID); err != nil {
			return fmt.Errorf("delete expenses: %w", err)
		}
		if err := q.DeleteUserIncomes(ctx, userID); err != nil {
			return fmt.Errorf("delete incomes: %w", err)
		}
		if err := q.DeleteUserSavings(ctx, userID); err != nil {
			return fmt.Errorf("delete savings: %w", err)
		}
		if err := q.DeleteUserAccounts(ctx, userID); err != nil {
			return fmt.Errorf("delete accounts: %w", err)
		}
		return nil
	})
}

// Row conversions

func dateString(d core.Date) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func parseAmount(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode %s %q: %w", field, s, err)
	}
	return d, nil
}

func incomeRow(inc core.Income) Income {
	rec := inc.Record()
	row := Income{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Description: rec.Description,
		Amount:      rec.Amount.String(),
		Type:        string(rec.Type),
		Date:        dateString(rec.Date),
		CreatedAt:   rec.CreatedAt.UnixNano(),
	}
	if rec.StartDate != nil {
		row.StartDate = nullString(dateString(*rec.StartDate))
	}
	if rec.EndDate != nil {
		row.EndDate = nullString(dateString(*rec.EndDate))
	}
	return row
}

func incomeFromRow(row Income) (core.Income, error) {
	amount, err := parseAmount("amount", row.Amount)
	if err != nil {
		return core.Income{}, err
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Income{}, fmt.Errorf("decode income %s date: %w", row.ID, err)
	}
	var start, end core.Date
	if row.StartDate.Valid {
		if start, err = core.ParseDate(row.StartDate.String); err != nil {
			return core.Income{}, fmt.Errorf("decode income %s start date: %w", row.ID, err)
		}
	}
	if row.EndDate.Valid {
		if end, err = core.ParseDate(row.EndDate.String); err != nil {
			return core.Income{}, fmt.Errorf("decode income %s end date: %w", row.ID, err)
		}
	}
	sched, err := core.NewSchedule(core.IncomeType(row.Type), date, start, end)
	if err != nil {
		return core.Income{}, fmt.Errorf("decode income %s schedule: %w", row.ID, err)
	}
	return core.Income{
		ID:          row.ID,
		UserID:      row.UserID,
		Description: row.Description,
		Amount:      amount,
		Schedule:    sched,
		CreatedAt:   fromNanos(row.CreatedAt),
	}, nil
}

func expenseRow(e core.Expense) Expense {
	row := Expense{
		ID:            e.ID,
		UserID:        e.UserID,
		Description:   e.Description,
		Amount:        e.Amount.String(),
		PaymentDate:   dateString(e.PaymentDate),
		Category:      string(e.Category),
		Type:          string(e.Type),
		AccountID:     nullString(e.AccountID),
		IsInstallment: boolInt(e.IsInstallment),
		CreatedAt:     e.CreatedAt.UnixNano(),
	}
	if d := e.InstallmentDetails; d != nil {
		row.PurchaseID = nullString(d.PurchaseID)
		row.CurrentInstallment = sql.NullInt64{Int64: int64(d.CurrentInstallment), Valid: true}
		row.TotalInstallments = sql.NullInt64{Int64: int64(d.TotalInstallments), Valid: true}
		row.TotalAmount = sql.NullString{String: d.TotalAmount.String(), Valid: true}
	}
	return row
}

func expenseFromRow(row Expense) (core.Expense, error) {
	amount, err := parseAmount("amount", row.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(row.PaymentDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("decode expense %s payment date: %w", row.ID, err)
	}
	e := core.Expense{
		ID:            row.ID,
		UserID:        row.UserID,
		Description:   row.Description,
		Amount:        amount,
		PaymentDate:   date,
		Category:      core.Category(row.Category),
		Type:          core.ExpenseType(row.Type),
		AccountID:     row.AccountID.String,
		IsInstallment: row.IsInstallment == 1,
		CreatedAt:     fromNanos(row.CreatedAt),
	}
	if row.PurchaseID.Valid {
		total, err := parseAmount("total amount", row.TotalAmount.String)
		if err != nil {
			return core.Expense{}, err
		}
		e.InstallmentDetails = &core.InstallmentDetails{
			PurchaseID:         row.PurchaseID.String,
			CurrentInstallment: int(row.CurrentInstallment.Int64),
			TotalInstallments:  int(row.TotalInstallments.Int64),
			TotalAmount:        total,
		}
	}
	return e, nil
}

func accountRow(a core.Account) Account {
	row := Account{
		ID:        a.ID,
		UserID:    a.UserID,
		Name:      a.Name,
		Type:      string(a.Type),
		Color:     a.Color,
		CreatedAt: a.CreatedAt.UnixNano(),
	}
	if a.CardDetails != nil {
		row.HolderName = nullString(a.CardDetails.HolderName)
		row.Last4Digits = nullString(a.CardDetails.Last4Digits)
	}
	return row
}

func accountFromRow(row Account) core.Account {
	a := core.Account{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Type:      core.AccountType(row.Type),
		Color:     row.Color,
		CreatedAt: fromNanos(row.CreatedAt),
	}
	if row.HolderName.Valid || row.Last4Digits.Valid {
		a.CardDetails = &core.CardDetails{
			HolderName:  row.HolderName.String,
			Last4Digits: row.Last4Digits.String,
		}
	}
	return a
}

func savingRow(s core.Savings) Saving {
	return Saving{
		ID:                s.ID,
		UserID:            s.UserID,
		Amount:            s.Amount.String(),
		Date:              dateString(s.Date),
		SourceDescription: s.SourceDescription,
		SourceIncomeID:    nullString(s.SourceIncomeID),
		CreatedAt:         s.CreatedAt.UnixNano(),
	}
}

func savingFromRow(row Saving) (core.Savings, error) {
	amount, err := parseAmount("amount", row.Amount)
	if err != nil {
		return core.Savings{}, err
	}
	date, err := core.ParseDate(row.Date)
	if err != nil {
		return core.Savings{}, fmt.Errorf("decode savings %s date: %w", row.ID, err)
	}
	return core.Savings{
		ID:                row.ID,
		UserID:            row.UserID,
		Amount:            amount,
		Date:              date,
		SourceDescription: row.SourceDescription,
		SourceIncomeID:    row.SourceIncomeID.String,
		CreatedAt:         fromNanos(row.CreatedAt),
	}, nil
}

func userFromRow(row User) core.User {
	return core.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Role:         core.Role(row.Role),
		CreatedAt:    fromNanos(row.CreatedAt),
	}
}

var (
	_ ports.Store      = (*SQLiteRepository)(nil)
	_ ports.Transactor = (*SQLiteRepository)(nil)
)
