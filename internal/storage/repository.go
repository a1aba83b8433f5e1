package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gastos/internal/core"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// dateFormat is the UTC timestamp layout stored in the expenses.date column.
const dateFormat = "2006-01-02 15:04:05"

// SQLiteRepository is the persistent ledger and category catalog. SQLite
// serializes writers internally; the pool is capped at one connection so
// PRAGMAs apply everywhere and write transactions never contend.
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
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
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

// Ping reports whether the database is reachable, for readiness checks.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// IsRegistered reports whether the user exists.
func (r *SQLiteRepository) IsRegistered(ctx context.Context, userID int64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM users WHERE user_id = ?", userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query user: %w", err)
	}
	return true, nil
}

// RegisterUser creates the user and links every seed category to it in one
// transaction. Seed categories are added to the global catalog if absent.
// Returns core.ErrUserExists when the user is already registered.
func (r *SQLiteRepository) RegisterUser(ctx context.Context, userID int64, seed []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var one int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE user_id = ?", userID).Scan(&one)
	if err == nil {
		return core.ErrUserExists
	}
	if err != sql.ErrNoRows {
		return fmt.Errorf("query user: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "INSERT INTO users (user_id) VALUES (?)", userID); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	for _, name := range seed {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO categories (name) VALUES (?)", name); err != nil {
			return fmt.Errorf("seed category %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO user_categories (user_id, category_name) VALUES (?, ?)",
			userID, name); err != nil {
			return fmt.Errorf("link seed category %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", userID, "seed_categories", len(seed))
	return nil
}

// AddGlobalCategory inserts a category into the global catalog if absent
// and reports whether it was newly created. Existing users' links are not
// affected. Safe under concurrent calls (insert-if-absent).
func (r *SQLiteRepository) AddGlobalCategory(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, "INSERT OR IGNORE INTO categories (name) VALUES (?)", name)
	if err != nil {
		return false, fmt.Errorf("insert category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// LinkUserCategory grants the user permission to file expenses under name.
// Returns false when the category does not exist in the global catalog.
// Linking an already-linked category is a no-op that still returns true.
func (r *SQLiteRepository) LinkUserCategory(ctx context.Context, userID int64, name string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE name = ?", name).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query category: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO user_categories (user_id, category_name) VALUES (?, ?)",
		userID, name)
	if err != nil {
		return false, fmt.Errorf("link category: %w", err)
	}
	return true, nil
}

// UnlinkUserCategory removes the membership and reports whether it existed.
func (r *SQLiteRepository) UnlinkUserCategory(ctx context.Context, userID int64, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM user_categories WHERE user_id = ? AND category_name = ?",
		userID, name)
	if err != nil {
		return false, fmt.Errorf("unlink category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// GetUserCategories returns the user's linked category names in stable
// (sorted) order.
func (r *SQLiteRepository) GetUserCategories(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT category_name FROM user_categories WHERE user_id = ? ORDER BY category_name",
		userID)
	if err != nil {
		return nil, fmt.Errorf("query user categories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return names, nil
}

// AddExpense validates that the category is globally known and linked to
// the expense's user, then inserts one row. Nothing is written on
// validation failure.
func (r *SQLiteRepository) AddExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id, err := insertExpense(ctx, tx, e)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"user_id", e.UserID,
		"message_id", e.MessageID,
		"value", e.Value.String(),
		"category", e.Category)
	return id, nil
}

// ReplaceExpense removes any expense stored for (user_id, message_id) and
// inserts the given one, all inside a single transaction. This is the edit
// reconciliation path: latest edit wins, and an original message that
// never stored a record is tolerated.
func (r *SQLiteRepository) ReplaceExpense(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expenses WHERE user_id = ? AND message_id = ?",
		e.UserID, e.MessageID); err != nil {
		return 0, fmt.Errorf("delete previous expense: %w", err)
	}

	id, err := insertExpense(ctx, tx, e)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}

	slog.InfoContext(ctx, "Expense replaced",
		"id", id,
		"user_id", e.UserID,
		"message_id", e.MessageID,
		"category", e.Category)
	return id, nil
}

func insertExpense(ctx context.Context, tx *sql.Tx, e core.Expense) (int64, error) {
	var one int
	err := tx.QueryRowContext(ctx, "SELECT 1 FROM categories WHERE name = ?", e.Category).Scan(&one)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("category %q: %w", e.Category, core.ErrUnknownCategory)
	}
	if err != nil {
		return 0, fmt.Errorf("query category: %w", err)
	}

	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM user_categories WHERE user_id = ? AND category_name = ?",
		e.UserID, e.Category).Scan(&one)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("category %q for user %d: %w", e.Category, e.UserID, core.ErrCategoryNotLinked)
	}
	if err != nil {
		return 0, fmt.Errorf("query user category: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO expenses (message_id, chat_id, user_id, date, value, category_name, currency, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.MessageID, e.ChatID, e.UserID,
		e.Date.UTC().Format(dateFormat),
		e.Value.String(), e.Category, e.Currency, e.Text)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// RemoveByMessageID deletes any expense matching (userID, messageID) and
// reports whether one existed. A missing row is not an error.
func (r *SQLiteRepository) RemoveByMessageID(ctx context.Context, userID, messageID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM expenses WHERE user_id = ? AND message_id = ?",
		userID, messageID)
	if err != nil {
		return false, fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Expense removed", "user_id", userID, "message_id", messageID, "rows", n)
	}
	return n > 0, nil
}

// ListExpenses returns all of the user's expenses, newest insertion first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, message_id, chat_id, user_id, date, value, category_name, currency, text
		FROM expenses
		WHERE user_id = ?
		ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return expenses, nil
}

// GetExpense retrieves a single expense by its surrogate ID. Used by the
// mirror worker to resolve event payloads.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, message_id, chat_id, user_id, date, value, category_name, currency, text
		FROM expenses
		WHERE id = ?`, id)
	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrExpenseNotFound
	}
	return e, err
}

func scanExpense(scan func(...any) error) (core.Expense, error) {
	var (
		e        core.Expense
		date     string
		rawValue string
	)
	if err := scan(&e.ID, &e.MessageID, &e.ChatID, &e.UserID, &date, &rawValue, &e.Category, &e.Currency, &e.Text); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}

	parsed, err := time.ParseInLocation(dateFormat, date, time.UTC)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	e.Date = parsed

	value, err := decimal.NewFromString(rawValue)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense value %q: %w", rawValue, err)
	}
	e.Value = value

	return e, nil
}
