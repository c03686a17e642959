// Package storage owns the durable ledger state: the SQLite database, its
// schema migrations and every query other components run against it.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kharcha/internal/core"
)

// SQLiteRepository is the single writer for one ledger database. Callers
// serialize access to a repository handle; the migrator has always run to
// completion before the constructor returns.
type SQLiteRepository struct {
	db        *sql.DB
	migration MigrationResult
}

func NewSQLiteRepository(dbPath, homeCurrency string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	result, err := RunMigrations(dbPath, homeCurrency)
	if err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite database: %v", core.ErrStoreAccess, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", core.ErrStoreAccess, err)
	}

	slog.Info("Ledger store opened", "path", dbPath, "migration", string(result))

	return &SQLiteRepository{db: db, migration: result}, nil
}

// MigrationResult reports what the open-time migration found.
func (r *SQLiteRepository) MigrationResult() MigrationResult {
	return r.migration
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

const transactionColumns = `id, date, category,
	COALESCE(amount_original, '0'), COALESCE(currency_code, ''),
	COALESCE(amount_home, '0'), COALESCE(description, ''), COALESCE(created_at, '')`

// InsertTransaction persists a fully priced transaction and returns the
// store-assigned id.
func (r *SQLiteRepository) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (date, category, amount_original, currency_code, amount_home, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Date.String(), t.Category, t.AmountOriginal.String(), t.CurrencyCode,
		t.AmountHome.String(), t.Description, t.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("%w: insert transaction: %v", core.ErrStoreAccess, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: last insert id: %v", core.ErrStoreAccess, err)
	}
	return id, nil
}

// GetTransaction returns one transaction by id, or ErrNotFound.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)

	t, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return core.Transaction{}, fmt.Errorf("%w: id %d", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: get transaction: %v", core.ErrStoreAccess, err)
	}
	return t, nil
}

// UpdateTransaction replaces every caller-editable field of an existing
// row. The id must exist; updating an absent id is ErrNotFound.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET date = ?, category = ?, amount_original = ?, currency_code = ?, amount_home = ?, description = ?
		WHERE id = ?`,
		t.Date.String(), t.Category, t.AmountOriginal.String(), t.CurrencyCode,
		t.AmountHome.String(), t.Description, t.ID)
	if err != nil {
		return fmt.Errorf("%w: update transaction: %v", core.ErrStoreAccess, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %v", core.ErrStoreAccess, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id %d", core.ErrNotFound, t.ID)
	}
	return nil
}

// DeleteTransaction removes a row by id and returns how many rows were
// removed. A missing id is a zero count, not an error.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("%w: delete transaction: %v", core.ErrStoreAccess, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: rows affected: %v", core.ErrStoreAccess, err)
	}
	return n, nil
}

// ListAll returns every transaction, newest date first; rows on the same
// date keep insertion order.
func (r *SQLiteRepository) ListAll(ctx context.Context) ([]core.Transaction, error) {
	return r.listWhere(ctx, "", nil)
}

// ListByMonth returns the transactions with a date in
// [first-of-month, first-of-next-month).
func (r *SQLiteRepository) ListByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	start, end, err := core.MonthBounds(year, month)
	if err != nil {
		return nil, err
	}
	return r.listWhere(ctx, "WHERE date >= ? AND date < ?", []any{start.String(), end.String()})
}

// Search returns transactions whose category, description, currency code
// or date contains the keyword, case-insensitively.
func (r *SQLiteRepository) Search(ctx context.Context, keyword string) ([]core.Transaction, error) {
	key := "%" + strings.ToLower(strings.TrimSpace(keyword)) + "%"
	return r.listWhere(ctx, `WHERE LOWER(category) LIKE ?
		OR LOWER(COALESCE(description, '')) LIKE ?
		OR LOWER(COALESCE(currency_code, '')) LIKE ?
		OR date LIKE ?`, []any{key, key, key, key})
}

func (r *SQLiteRepository) listWhere(ctx context.Context, where string, args []any) ([]core.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ` + where + ` ORDER BY date DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", core.ErrStoreAccess, err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan transaction: %v", core.ErrStoreAccess, err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate transactions: %v", core.ErrStoreAccess, err)
	}
	return out, nil
}

// SumInRange sums amount_home over [start, end). An empty range sums to
// zero, not an error.
func (r *SQLiteRepository) SumInRange(ctx context.Context, start, end core.Date) (decimal.Decimal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT COALESCE(amount_home, '0') FROM transactions
		WHERE date >= ? AND date < ?`, start.String(), end.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: sum range: %v", core.ErrStoreAccess, err)
	}
	defer rows.Close()

	// Summed here rather than in SQL so amounts stay exact decimals.
	total := decimal.Zero
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: scan amount: %v", core.ErrStoreAccess, err)
		}
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: malformed amount %q: %v", core.ErrStoreAccess, s, err)
		}
		total = total.Add(amount)
	}
	if err := rows.Err(); err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: iterate amounts: %v", core.ErrStoreAccess, err)
	}
	return total, nil
}

// CategoryTotals sums amount_home per category. With year and month both
// zero it spans the whole store, otherwise it covers that single month.
// Results are ordered by total descending, category name ascending on
// ties.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, year, month int) ([]core.CategoryTotal, error) {
	query := `SELECT category, COALESCE(amount_home, '0') FROM transactions`
	var args []any

	if year != 0 || month != 0 {
		start, end, err := core.MonthBounds(year, month)
		if err != nil {
			return nil, err
		}
		query += ` WHERE date >= ? AND date < ?`
		args = append(args, start.String(), end.String())
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: category totals: %v", core.ErrStoreAccess, err)
	}
	defer rows.Close()

	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var category, s string
		if err := rows.Scan(&category, &s); err != nil {
			return nil, fmt.Errorf("%w: scan category total: %v", core.ErrStoreAccess, err)
		}
		amount, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed amount %q: %v", core.ErrStoreAccess, s, err)
		}
		totals[category] = totals[category].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate category totals: %v", core.ErrStoreAccess, err)
	}

	out := make([]core.CategoryTotal, 0, len(totals))
	for category, total := range totals {
		out = append(out, core.CategoryTotal{Category: category, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

// GetBudget returns the budget for (year, month). The second return is
// false when no budget was set, which is a normal state.
func (r *SQLiteRepository) GetBudget(ctx context.Context, year, month int) (decimal.Decimal, bool, error) {
	var s string
	err := r.db.QueryRowContext(ctx,
		`SELECT amount FROM budgets WHERE year = ? AND month = ?`, year, month).Scan(&s)
	if err == sql.ErrNoRows {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("%w: get budget: %v", core.ErrStoreAccess, err)
	}

	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("%w: malformed budget %q: %v", core.ErrStoreAccess, s, err)
	}
	return amount, true, nil
}

// SetBudget upserts the budget keyed by (year, month); setting an existing
// key overwrites the amount, never creating a second row.
func (r *SQLiteRepository) SetBudget(ctx context.Context, b core.Budget) error {
	if err := b.Validate(); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO budgets (year, month, amount) VALUES (?, ?, ?)
		ON CONFLICT(year, month) DO UPDATE SET amount = excluded.amount`,
		b.Year, b.Month, b.Amount.String())
	if err != nil {
		return fmt.Errorf("%w: set budget: %v", core.ErrStoreAccess, err)
	}
	return nil
}

// CountTransactions returns the number of rows in the store.
func (r *SQLiteRepository) CountTransactions(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count transactions: %v", core.ErrStoreAccess, err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                             core.Transaction
		date, original, home, created string
	)
	if err := row.Scan(&t.ID, &date, &t.Category, &original, &t.CurrencyCode, &home, &t.Description, &created); err != nil {
		return core.Transaction{}, err
	}

	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	t.Date = d

	if t.AmountOriginal, err = decimal.NewFromString(original); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount_original %q: %w", original, err)
	}
	if t.AmountHome, err = decimal.NewFromString(home); err != nil {
		return core.Transaction{}, fmt.Errorf("parse amount_home %q: %w", home, err)
	}
	t.CreatedAt = parseCreatedAt(created)
	return t, nil
}

// parseCreatedAt tolerates both our RFC3339 timestamps and the SQLite
// CURRENT_TIMESTAMP format found in rows written by older versions. The
// field is audit-only, so an unparseable value degrades to zero instead of
// failing the read.
func parseCreatedAt(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
