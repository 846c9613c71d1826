// Package storage persists the ledger bundle in SQLite. The engine never
// touches this package: hosts load a snapshot, hand it to the engine, and
// write mutations back through the repository.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"zenbudget/internal/core"

	_ "modernc.org/sqlite"
)

const dateFormat = time.RFC3339

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// LoadSnapshot reads the full bundle. Every engine call starts from here.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	var err error

	if snap.Accounts, err = r.loadAccounts(ctx); err != nil {
		return snap, fmt.Errorf("load accounts: %w", err)
	}
	if snap.Transactions, err = r.loadTransactions(ctx); err != nil {
		return snap, fmt.Errorf("load transactions: %w", err)
	}
	if snap.Budgets, err = r.loadBudgets(ctx); err != nil {
		return snap, fmt.Errorf("load budgets: %w", err)
	}
	if snap.Categories, err = r.loadCategories(ctx); err != nil {
		return snap, fmt.Errorf("load categories: %w", err)
	}
	if snap.Settings, err = r.loadSettings(ctx); err != nil {
		return snap, fmt.Errorf("load settings: %w", err)
	}
	return snap, nil
}

func (r *SQLiteRepository) loadAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, initial_balance_cents, color, note,
		       debt_amount_cents, repayment_months, savings_goal_cents, savings_months
		FROM accounts ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		var kind string
		if err := rows.Scan(&a.ID, &a.Name, &kind, &a.InitialBalance.Cents, &a.Color, &a.Note,
			&a.DebtAmount.Cents, &a.RepaymentMonths, &a.SavingsGoal.Cents, &a.SavingsMonths); err != nil {
			return nil, err
		}
		a.Kind = core.AccountKind(kind)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadTransactions(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, amount_cents, type, account_id, category, date, note
		FROM transactions ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var tx core.Transaction
		var typ, date string
		if err := rows.Scan(&tx.ID, &tx.Amount.Cents, &typ, &tx.AccountID, &tx.Category, &date, &tx.Note); err != nil {
			return nil, err
		}
		tx.Type = core.TxType(typ)
		if tx.Date, err = time.Parse(dateFormat, date); err != nil {
			return nil, fmt.Errorf("parse date of transaction %s: %w", tx.ID, err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadBudgets(ctx context.Context) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, monthly_limit_cents, daily_limit_cents, yearly_limit_cents
		FROM budgets ORDER BY category`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var b core.Budget
		if err := rows.Scan(&b.Category, &b.MonthlyLimit.Cents, &b.DailyLimit.Cents, &b.YearlyLimit.Cents); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, icon, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) loadSettings(ctx context.Context) (core.Settings, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return core.Settings{}, err
	}
	defer rows.Close()

	var s core.Settings
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return s, err
		}
		on, _ := strconv.ParseBool(value)
		switch key {
		case "link_accounts":
			s.LinkAccounts = on
		case "accumulate_surplus":
			s.AccumulateSurplus = on
		case "deduct_excess":
			s.DeductExcess = on
		}
	}
	return s, rows.Err()
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, amount_cents, type, account_id, category, date, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Amount.Cents, string(tx.Type), tx.AccountID, tx.Category,
		tx.Date.UTC().Format(dateFormat), tx.Note)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SaveAccount(ctx context.Context, a core.Account) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, kind, initial_balance_cents, color, note,
			debt_amount_cents, repayment_months, savings_goal_cents, savings_months)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			initial_balance_cents = excluded.initial_balance_cents,
			color = excluded.color,
			note = excluded.note,
			debt_amount_cents = excluded.debt_amount_cents,
			repayment_months = excluded.repayment_months,
			savings_goal_cents = excluded.savings_goal_cents,
			savings_months = excluded.savings_months`,
		a.ID, a.Name, string(a.Kind), a.InitialBalance.Cents, a.Color, a.Note,
		a.DebtAmount.Cents, a.RepaymentMonths, a.SavingsGoal.Cents, a.SavingsMonths)
	if err != nil {
		return fmt.Errorf("save account: %w", err)
	}
	return nil
}

// DeleteAccount removes the account row only. Referencing transactions are
// kept as tolerated dangling state; they stop contributing to any balance.
func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SaveBudget(ctx context.Context, b core.Budget) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (category, monthly_limit_cents, daily_limit_cents, yearly_limit_cents)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (category) DO UPDATE SET
			monthly_limit_cents = excluded.monthly_limit_cents,
			daily_limit_cents = excluded.daily_limit_cents,
			yearly_limit_cents = excluded.yearly_limit_cents`,
		b.Category, b.MonthlyLimit.Cents, b.DailyLimit.Cents, b.YearlyLimit.Cents)
	if err != nil {
		return fmt.Errorf("save budget: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, category string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE category = ?`, category)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) SaveCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, icon, color)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			icon = excluded.icon,
			color = excluded.color`,
		c.ID, c.Name, c.Icon, c.Color)
	if err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

// DeleteCategory removes the category row only; transactions and budgets
// keep their now-orphaned category strings.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RenameCategory updates the category row and cascades the new name into
// transactions and budgets in one transaction, keeping the name-keyed
// references consistent.
func (r *SQLiteRepository) RenameCategory(ctx context.Context, oldName, newName string) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rename: %w", err)
	}
	defer dbTx.Rollback()

	res, err := dbTx.ExecContext(ctx, `UPDATE categories SET name = ? WHERE name = ?`, newName, oldName)
	if err != nil {
		return fmt.Errorf("rename category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := dbTx.ExecContext(ctx, `UPDATE transactions SET category = ? WHERE category = ?`, newName, oldName); err != nil {
		return fmt.Errorf("cascade rename to transactions: %w", err)
	}
	if _, err := dbTx.ExecContext(ctx, `UPDATE budgets SET category = ? WHERE category = ?`, newName, oldName); err != nil {
		return fmt.Errorf("cascade rename to budgets: %w", err)
	}
	return dbTx.Commit()
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save settings: %w", err)
	}
	defer dbTx.Rollback()

	for key, value := range map[string]bool{
		"link_accounts":      s.LinkAccounts,
		"accumulate_surplus": s.AccumulateSurplus,
		"deduct_excess":      s.DeductExcess,
	} {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO settings (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
			key, strconv.FormatBool(value)); err != nil {
			return fmt.Errorf("save setting %s: %w", key, err)
		}
	}
	return dbTx.Commit()
}

// ReplaceSnapshot swaps the whole stored bundle for the given one, used by
// the import boundary. All or nothing.
func (r *SQLiteRepository) ReplaceSnapshot(ctx context.Context, snap core.Snapshot) error {
	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer dbTx.Rollback()

	for _, table := range []string{"transactions", "accounts", "budgets", "categories", "settings"} {
		if _, err := dbTx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	for _, a := range snap.Accounts {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO accounts (id, name, kind, initial_balance_cents, color, note,
				debt_amount_cents, repayment_months, savings_goal_cents, savings_months)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.ID, a.Name, string(a.Kind), a.InitialBalance.Cents, a.Color, a.Note,
			a.DebtAmount.Cents, a.RepaymentMonths, a.SavingsGoal.Cents, a.SavingsMonths); err != nil {
			return fmt.Errorf("insert account %s: %w", a.ID, err)
		}
	}
	for _, tx := range snap.Transactions {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO transactions (id, amount_cents, type, account_id, category, date, note)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tx.ID, tx.Amount.Cents, string(tx.Type), tx.AccountID, tx.Category,
			tx.Date.UTC().Format(dateFormat), tx.Note); err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}
	for _, b := range snap.Budgets {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO budgets (category, monthly_limit_cents, daily_limit_cents, yearly_limit_cents)
			VALUES (?, ?, ?, ?)`,
			b.Category, b.MonthlyLimit.Cents, b.DailyLimit.Cents, b.YearlyLimit.Cents); err != nil {
			return fmt.Errorf("insert budget %s: %w", b.Category, err)
		}
	}
	for _, c := range snap.Categories {
		if _, err := dbTx.ExecContext(ctx, `
			INSERT INTO categories (id, name, icon, color) VALUES (?, ?, ?, ?)`,
			c.ID, c.Name, c.Icon, c.Color); err != nil {
			return fmt.Errorf("insert category %s: %w", c.ID, err)
		}
	}
	for key, value := range map[string]bool{
		"link_accounts":      snap.Settings.LinkAccounts,
		"accumulate_surplus": snap.Settings.AccumulateSurplus,
		"deduct_excess":      snap.Settings.DeductExcess,
	} {
		if _, err := dbTx.ExecContext(ctx, `INSERT INTO settings (key, value) VALUES (?, ?)`,
			key, strconv.FormatBool(value)); err != nil {
			return fmt.Errorf("insert setting %s: %w", key, err)
		}
	}
	return dbTx.Commit()
}
