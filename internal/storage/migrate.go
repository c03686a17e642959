package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"kharcha/internal/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationResult reports what opening the store found on disk.
type MigrationResult string

const (
	// ResultNoStore means no database file existed; a fresh store was created.
	ResultNoStore MigrationResult = "no_store"
	// ResultMigrated means an existing store was brought to the current schema.
	ResultMigrated MigrationResult = "migrated"
	// ResultAlreadyCurrent means the store already had the current schema.
	ResultAlreadyCurrent MigrationResult = "already_current"
)

// legacyStep is one schema-adoption step for stores created before the
// multi-currency schema. Each step can tell whether it already ran, so the
// whole sequence is idempotent and an interrupted run completes on the
// next open.
type legacyStep struct {
	name    string
	applied func(db *sql.DB) (bool, error)
	apply   func(db *sql.DB) error
}

// RunMigrations brings the database at dbPath to the current schema. The
// legacy adoption steps run first (they only touch stores that predate the
// versioned migrations), then the embedded golang-migrate baseline.
func RunMigrations(dbPath, homeCurrency string) (MigrationResult, error) {
	existed := true
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		existed = false
	}

	// Separate connection so migrations don't interfere with the main one.
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return "", fmt.Errorf("%w: open migration database: %v", core.ErrStoreAccess, err)
	}
	defer migrateDB.Close()

	legacyChanged := false
	if existed {
		legacyChanged, err = adoptLegacySchema(migrateDB, homeCurrency)
		if err != nil {
			return "", err
		}
	}

	versionsChanged, err := runVersionedMigrations(dbPath)
	if err != nil {
		return "", err
	}

	switch {
	case !existed:
		return ResultNoStore, nil
	case legacyChanged || versionsChanged:
		return ResultMigrated, nil
	default:
		return ResultAlreadyCurrent, nil
	}
}

// adoptLegacySchema upgrades a pre-versioning store in place: the three
// multi-currency columns are added individually, then legacy single-amount
// rows are back-filled at rate 1 in the home currency. Reports whether any
// step ran.
func adoptLegacySchema(db *sql.DB, homeCurrency string) (bool, error) {
	hasTable, err := tableExists(db, "transactions")
	if err != nil {
		return false, err
	}
	if !hasTable {
		return false, nil
	}

	steps := []legacyStep{
		addColumnStep("amount_original", "TEXT"),
		addColumnStep("currency_code", "TEXT"),
		addColumnStep("amount_home", "TEXT"),
		backfillStep(homeCurrency),
		rebuildStep(),
	}

	changed := false
	for _, step := range steps {
		done, err := step.applied(db)
		if err != nil {
			return changed, fmt.Errorf("%w: check step %s: %v", core.ErrStoreAccess, step.name, err)
		}
		if done {
			continue
		}
		if err := step.apply(db); err != nil {
			return changed, fmt.Errorf("%w: apply step %s: %v", core.ErrStoreAccess, step.name, err)
		}
		slog.Info("Applied legacy schema step", "step", step.name)
		changed = true
	}
	return changed, nil
}

func addColumnStep(column, sqlType string) legacyStep {
	return legacyStep{
		name: "add_column_" + column,
		applied: func(db *sql.DB) (bool, error) {
			return columnExists(db, "transactions", column)
		},
		apply: func(db *sql.DB) error {
			_, err := db.Exec(fmt.Sprintf("ALTER TABLE transactions ADD COLUMN %s %s", column, sqlType))
			return err
		},
	}
}

// backfillStep copies the legacy single amount into the multi-currency
// columns, once per row. The WHERE clause makes it resumable: rows already
// back-filled are skipped, so an interrupted back-fill completes on the
// next run instead of being treated as done.
func backfillStep(homeCurrency string) legacyStep {
	const pending = `SELECT COUNT(*) FROM transactions
		WHERE amount IS NOT NULL AND amount_original IS NULL`

	return legacyStep{
		name: "backfill_legacy_amounts",
		applied: func(db *sql.DB) (bool, error) {
			hasLegacy, err := columnExists(db, "transactions", "amount")
			if err != nil {
				return false, err
			}
			if !hasLegacy {
				return true, nil
			}
			var n int64
			if err := db.QueryRow(pending).Scan(&n); err != nil {
				return false, err
			}
			return n == 0, nil
		},
		apply: func(db *sql.DB) error {
			_, err := db.Exec(`UPDATE transactions
				SET amount_original = CAST(amount AS TEXT),
				    currency_code = ?,
				    amount_home = CAST(amount AS TEXT)
				WHERE amount IS NOT NULL AND amount_original IS NULL`, homeCurrency)
			return err
		},
	}
}

// rebuildStep replaces the legacy table with one matching the current
// schema. The legacy amount column carried NOT NULL, which would reject
// every new row once writes stop supplying it; SQLite cannot drop the
// constraint in place, so the table is rebuilt and the rows copied over.
// Runs after the back-fill so no legacy amount is lost.
func rebuildStep() legacyStep {
	return legacyStep{
		name: "rebuild_transactions",
		applied: func(db *sql.DB) (bool, error) {
			hasLegacy, err := columnExists(db, "transactions", "amount")
			if err != nil {
				return false, err
			}
			return !hasLegacy, nil
		},
		apply: func(db *sql.DB) error {
			tx, err := db.Begin()
			if err != nil {
				return err
			}
			defer tx.Rollback()

			stmts := []string{
				`CREATE TABLE transactions_new (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					date TEXT NOT NULL,
					category TEXT NOT NULL,
					amount_original TEXT,
					currency_code TEXT,
					amount_home TEXT,
					description TEXT,
					created_at TEXT DEFAULT CURRENT_TIMESTAMP
				)`,
				`INSERT INTO transactions_new (id, date, category, amount_original, currency_code, amount_home, description, created_at)
					SELECT id, date, category, amount_original, currency_code, amount_home, description, created_at
					FROM transactions`,
				`DROP TABLE transactions`,
				`ALTER TABLE transactions_new RENAME TO transactions`,
			}
			for _, stmt := range stmts {
				if _, err := tx.Exec(stmt); err != nil {
					return err
				}
			}
			return tx.Commit()
		},
	}
}

func runVersionedMigrations(dbPath string) (bool, error) {
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return false, fmt.Errorf("%w: open migration database: %v", core.ErrStoreAccess, err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return false, fmt.Errorf("%w: create sqlite driver: %v", core.ErrStoreAccess, err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return false, fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return false, fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if err == migrate.ErrNoChange {
			return false, nil
		}
		return false, fmt.Errorf("%w: run migrations: %v", core.ErrStoreAccess, err)
	}
	return true, nil
}

func tableExists(db *sql.DB, table string) (bool, error) {
	var name string
	err := db.QueryRow(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table,
	).Scan(&name)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: inspect schema: %v", core.ErrStoreAccess, err)
	}
	return true, nil
}

func columnExists(db *sql.DB, table, column string) (bool, error) {
	var n int64
	err := db.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`, table, column,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
