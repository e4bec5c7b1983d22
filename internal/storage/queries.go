package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Rows

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    int64
}

type Income struct {
	ID          string
	UserID      string
	Description string
	Amount      string
	Type        string
	Date        string
	StartDate   sql.NullString
	EndDate     sql.NullString
	CreatedAt   int64
}

type Account struct {
	ID          string
	UserID      string
	Name        string
	Type        string
	Color       string
	HolderName  sql.NullString
	Last4Digits sql.NullString
	CreatedAt   int64
}

type Expense struct {
	ID                 string
	UserID             string
	Description        string
	Amount             string
	PaymentDate        string
	Category           string
	Type               string
	AccountID          sql.NullString
	IsInstallment      int64
	PurchaseID         sql.NullString
	CurrentInstallment sql.NullInt64
	TotalInstallments  sql.NullInt64
	TotalAmount        sql.NullString
	CreatedAt          int64
}

type Saving struct {
	ID                string
	UserID            string
	Amount            string
	Date              string
	SourceDescription string
	SourceIncomeID    sql.NullString
	CreatedAt         int64
}

// Users

const userColumns = `id, name, email, password_hash, role, created_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

const createUser = `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateUser(ctx context.Context, u User) error {
	_, err := q.db.ExecContext(ctx, createUser, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.CreatedAt)
	return err
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY created_at, rowid`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteUser, id))
}

// Incomes

const incomeColumns = `id, user_id, description, amount, type, date, start_date, end_date, created_at`

func scanIncome(row interface{ Scan(...interface{}) error }) (Income, error) {
	var i Income
	err := row.Scan(&i.ID, &i.UserID, &i.Description, &i.Amount, &i.Type, &i.Date, &i.StartDate, &i.EndDate, &i.CreatedAt)
	return i, err
}

const createIncome = `INSERT INTO incomes (` + incomeColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateIncome(ctx context.Context, i Income) error {
	_, err := q.db.ExecContext(ctx, createIncome,
		i.ID, i.UserID, i.Description, i.Amount, i.Type, i.Date, i.StartDate, i.EndDate, i.CreatedAt)
	return err
}

const getIncome = `SELECT ` + incomeColumns + ` FROM incomes WHERE id = ? AND user_id = ?`

func (q *Queries) GetIncome(ctx context.Context, userID, id string) (Income, error) {
	return scanIncome(q.db.QueryRowContext(ctx, getIncome, id, userID))
}

const updateIncome = `UPDATE incomes
SET description = ?, amount = ?, type = ?, date = ?, start_date = ?, end_date = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateIncome(ctx context.Context, i Income) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateIncome,
		i.Description, i.Amount, i.Type, i.Date, i.StartDate, i.EndDate, i.ID, i.UserID))
}

const deleteIncome = `DELETE FROM incomes WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteIncome(ctx context.Context, userID, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteIncome, id, userID))
}

const listIncomes = `SELECT ` + incomeColumns + ` FROM incomes
WHERE user_id = ?1 AND (?2 = '' OR date <= ?2)
ORDER BY date, rowid`

func (q *Queries) ListIncomes(ctx context.Context, userID, until string) ([]Income, error) {
	rows, err := q.db.QueryContext(ctx, listIncomes, userID, until)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Income
	for rows.Next() {
		i, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const deleteUserIncomes = `DELETE FROM incomes WHERE user_id = ?`

func (q *Queries) DeleteUserIncomes(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteUserIncomes, userID)
	return err
}

// Accounts

const accountColumns = `id, user_id, name, type, color, holder_name, last4_digits, created_at`

func scanAccount(row interface{ Scan(...interface{}) error }) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Color, &a.HolderName, &a.Last4Digits, &a.CreatedAt)
	return a, err
}

const createAccount = `INSERT INTO accounts (` + accountColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, a Account) error {
	_, err := q.db.ExecContext(ctx, createAccount,
		a.ID, a.UserID, a.Name, a.Type, a.Color, a.HolderName, a.Last4Digits, a.CreatedAt)
	return err
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ? AND user_id = ?`

func (q *Queries) GetAccount(ctx context.Context, userID, id string) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccount, id, userID))
}

const updateAccount = `UPDATE accounts
SET name = ?, type = ?, color = ?, holder_name = ?, last4_digits = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateAccount(ctx context.Context, a Account) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateAccount,
		a.Name, a.Type, a.Color, a.HolderName, a.Last4Digits, a.ID, a.UserID))
}

const deleteAccount = `DELETE FROM accounts WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteAccount(ctx context.Context, userID, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteAccount, id, userID))
}

const listAccounts = `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = ? ORDER BY created_at, rowid`

func (q *Queries) ListAccounts(ctx context.Context, userID string) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const deleteUserAccounts = `DELETE FROM accounts WHERE user_id = ?`

func (q *Queries) DeleteUserAccounts(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteUserAccounts, userID)
	return err
}

// Expenses

const expenseColumns = `id, user_id, description, amount, payment_date, category, type, account_id,
is_installment, purchase_id, current_installment, total_installments, total_amount, created_at`

func scanExpense(row interface{ Scan(...interface{}) error }) (Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Description, &e.Amount, &e.PaymentDate, &e.Category, &e.Type,
		&e.AccountID, &e.IsInstallment, &e.PurchaseID, &e.CurrentInstallment, &e.TotalInstallments,
		&e.TotalAmount, &e.CreatedAt)
	return e, err
}

const createExpense = `INSERT INTO expenses (` + expenseColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateExpense(ctx context.Context, e Expense) error {
	_, err := q.db.ExecContext(ctx, createExpense,
		e.ID, e.UserID, e.Description, e.Amount, e.PaymentDate, e.Category, e.Type, e.AccountID,
		e.IsInstallment, e.PurchaseID, e.CurrentInstallment, e.TotalInstallments, e.TotalAmount, e.CreatedAt)
	return err
}

const getExpense = `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ? AND user_id = ?`

func (q *Queries) GetExpense(ctx context.Context, userID, id string) (Expense, error) {
	return scanExpense(q.db.QueryRowContext(ctx, getExpense, id, userID))
}

const updateExpense = `UPDATE expenses
SET description = ?, amount = ?, payment_date = ?, category = ?, type = ?, account_id = ?,
    is_installment = ?, purchase_id = ?, current_installment = ?, total_installments = ?, total_amount = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateExpense(ctx context.Context, e Expense) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateExpense,
		e.Description, e.Amount, e.PaymentDate, e.Category, e.Type, e.AccountID,
		e.IsInstallment, e.PurchaseID, e.CurrentInstallment, e.TotalInstallments, e.TotalAmount,
		e.ID, e.UserID))
}

const deleteExpense = `DELETE FROM expenses WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteExpense(ctx context.Context, userID, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteExpense, id, userID))
}

const deleteExpensesByPurchase = `DELETE FROM expenses WHERE user_id = ? AND purchase_id = ?`

func (q *Queries) DeleteExpensesByPurchase(ctx context.Context, userID, purchaseID string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteExpensesByPurchase, userID, purchaseID))
}

type ListExpensesParams struct {
	UserID            string
	From              string
	To                string
	InstallmentsOnly  int64
	AccountLinkedOnly int64
	PurchaseID        string
}

const listExpenses = `SELECT ` + expenseColumns + ` FROM expenses
WHERE user_id = ?1
  AND (?2 = '' OR payment_date >= ?2)
  AND (?3 = '' OR payment_date <= ?3)
  AND (?4 = 0 OR is_installment = 1)
  AND (?5 = 0 OR account_id IS NOT NULL)
  AND (?6 = '' OR purchase_id = ?6)
ORDER BY payment_date, rowid`

func (q *Queries) ListExpenses(ctx context.Context, arg ListExpensesParams) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpenses,
		arg.UserID, arg.From, arg.To, arg.InstallmentsOnly, arg.AccountLinkedOnly, arg.PurchaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

type ListPurchasesRow struct {
	UserID     string
	PurchaseID string
}

const listPurchases = `SELECT DISTINCT user_id, purchase_id FROM expenses
WHERE is_installment = 1 AND purchase_id IS NOT NULL
ORDER BY user_id, purchase_id`

func (q *Queries) ListPurchases(ctx context.Context) ([]ListPurchasesRow, error) {
	rows, err := q.db.QueryContext(ctx, listPurchases)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListPurchasesRow
	for rows.Next() {
		var i ListPurchasesRow
		if err := rows.Scan(&i.UserID, &i.PurchaseID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const unlinkAccount = `UPDATE expenses SET account_id = NULL WHERE user_id = ? AND account_id = ?`

func (q *Queries) UnlinkAccount(ctx context.Context, userID, accountID string) (int64, error) {
	return affected(q.db.ExecContext(ctx, unlinkAccount, userID, accountID))
}

const deleteUserExpenses = `DELETE FROM expenses WHERE user_id = ?`

func (q *Queries) DeleteUserExpenses(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteUserExpenses, userID)
	return err
}

// Savings

const savingColumns = `id, user_id, amount, date, source_description, source_income_id, created_at`

func scanSaving(row interface{ Scan(...interface{}) error }) (Saving, error) {
	var s Saving
	err := row.Scan(&s.ID, &s.UserID, &s.Amount, &s.Date, &s.SourceDescription, &s.SourceIncomeID, &s.CreatedAt)
	return s, err
}

const createSaving = `INSERT INTO savings (` + savingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateSaving(ctx context.Context, s Saving) error {
	_, err := q.db.ExecContext(ctx, createSaving,
		s.ID, s.UserID, s.Amount, s.Date, s.SourceDescription, s.SourceIncomeID, s.CreatedAt)
	return err
}

const getSaving = `SELECT ` + savingColumns + ` FROM savings WHERE id = ? AND user_id = ?`

func (q *Queries) GetSaving(ctx context.Context, userID, id string) (Saving, error) {
	return scanSaving(q.db.QueryRowContext(ctx, getSaving, id, userID))
}

const updateSaving = `UPDATE savings
SET amount = ?, date = ?, source_description = ?, source_income_id = ?
WHERE id = ? AND user_id = ?`

func (q *Queries) UpdateSaving(ctx context.Context, s Saving) (int64, error) {
	return affected(q.db.ExecContext(ctx, updateSaving,
		s.Amount, s.Date, s.SourceDescription, s.SourceIncomeID, s.ID, s.UserID))
}

const deleteSaving = `DELETE FROM savings WHERE id = ? AND user_id = ?`

func (q *Queries) DeleteSaving(ctx context.Context, userID, id string) (int64, error) {
	return affected(q.db.ExecContext(ctx, deleteSaving, id, userID))
}

const listSavings = `SELECT ` + savingColumns + ` FROM savings WHERE user_id = ? ORDER BY date, rowid`

func (q *Queries) ListSavings(ctx context.Context, userID string) ([]Saving, error) {
	rows, err := q.db.QueryContext(ctx, listSavings, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Saving
	for rows.Next() {
		s, err := scanSaving(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const deleteUserSavings = `DELETE FROM savings WHERE user_id = ?`

func (q *Queries) DeleteUserSavings(ctx context.Context, userID string) error {
	_, err := q.db.ExecContext(ctx, deleteUserSavings, userID)
	return err
}

func affected(res sql.Result, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
