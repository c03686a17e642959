package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"kharcha/internal/core"
)

func TestRunMigrationsFreshStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.db")

	result, err := RunMigrations(path, "INR")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result != ResultNoStore {
		t.Errorf("result = %s, want %s", result, ResultNoStore)
	}

	// A second open finds the schema current.
	result, err = RunMigrations(path, "INR")
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if result != ResultAlreadyCurrent {
		t.Errorf("second result = %s, want %s", result, ResultAlreadyCurrent)
	}
}

func seedLegacyStore(t *testing.T, path string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open legacy db: %v", err)
	}
	defer db.Close()

	stmts := []string{
		`CREATE TABLE transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			category TEXT NOT NULL,
			amount REAL NOT NULL,
			description TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP
		)`,
		`INSERT INTO transactions (date, category, amount, description)
			VALUES ('2024-06-01', 'Food', 250.5, 'groceries')`,
		`INSERT INTO transactions (date, category, amount, description)
			VALUES ('2024-06-15', 'Bills', 1200, 'electricity')`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed legacy store: %v", err)
		}
	}
}

func TestRunMigrationsAdoptsLegacyStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	seedLegacyStore(t, path)

	result, err := RunMigrations(path, "INR")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result != ResultMigrated {
		t.Errorf("first result = %s, want %s", result, ResultMigrated)
	}

	result, err = RunMigrations(path, "INR")
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if result != ResultAlreadyCurrent {
		t.Errorf("second result = %s, want %s", result, ResultAlreadyCurrent)
	}

	// Legacy rows were back-filled at rate 1 in the home currency.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open migrated db: %v", err)
	}
	defer db.Close()

	// The legacy amount column is gone after the rebuild.
	var legacyCols int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM pragma_table_info('transactions') WHERE name = 'amount'`).Scan(&legacyCols); err != nil {
		t.Fatalf("inspect schema: %v", err)
	}
	if legacyCols != 0 {
		t.Error("legacy amount column survived the rebuild")
	}

	rows, err := db.Query(`SELECT amount_original, currency_code, amount_home
		FROM transactions ORDER BY id`)
	if err != nil {
		t.Fatalf("query migrated rows: %v", err)
	}
	defer rows.Close()

	want := []struct {
		original string
		home     string
	}{
		{"250.5", "250.5"},
		{"1200.0", "1200.0"}, // REAL to TEXT cast keeps the trailing .0
	}
	i := 0
	for rows.Next() {
		var original, code, home string
		if err := rows.Scan(&original, &code, &home); err != nil {
			t.Fatalf("scan: %v", err)
		}
		if i >= len(want) {
			t.Fatalf("unexpected extra row %d", i)
		}
		if original != want[i].original || home != want[i].home {
			t.Errorf("row %d: original=%s home=%s, want %s/%s", i, original, home, want[i].original, want[i].home)
		}
		if code != "INR" {
			t.Errorf("row %d: currency_code = %s, want INR", i, code)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows: %v", err)
	}
	if i != len(want) {
		t.Fatalf("migrated rows = %d, want %d", i, len(want))
	}
}

func TestRunMigrationsResumesInterruptedBackfill(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.db")

	// A store caught mid-adoption: the multi-currency columns exist but
	// only the first row was back-filled before the process died.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open partial db: %v", err)
	}
	stmts := []string{
		`CREATE TABLE transactions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			category TEXT NOT NULL,
			amount REAL NOT NULL,
			description TEXT,
			created_at TEXT DEFAULT CURRENT_TIMESTAMP,
			amount_original TEXT,
			currency_code TEXT,
			amount_home TEXT
		)`,
		`INSERT INTO transactions (date, category, amount, amount_original, currency_code, amount_home)
			VALUES ('2024-06-01', 'Food', 250.5, '250.5', 'INR', '250.5')`,
		`INSERT INTO transactions (date, category, amount)
			VALUES ('2024-06-15', 'Bills', 1200)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed partial store: %v", err)
		}
	}
	db.Close()

	// Unfinished work means migrated, not already_current.
	result, err := RunMigrations(path, "INR")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if result != ResultMigrated {
		t.Errorf("result = %s, want %s", result, ResultMigrated)
	}

	db, err = sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("reopen db: %v", err)
	}
	defer db.Close()

	var pending int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions WHERE amount_original IS NULL`).Scan(&pending); err != nil {
		t.Fatalf("count pending: %v", err)
	}
	if pending != 0 {
		t.Errorf("%d rows still un-back-filled", pending)
	}

	var original, code, home string
	err = db.QueryRow(`SELECT amount_original, currency_code, amount_home
		FROM transactions WHERE id = 2`).Scan(&original, &code, &home)
	if err != nil {
		t.Fatalf("read resumed row: %v", err)
	}
	if original != "1200.0" || home != "1200.0" || code != "INR" {
		t.Errorf("resumed row = %s/%s/%s, want 1200.0/INR/1200.0", original, code, home)
	}

	// The already-filled row was not touched again.
	err = db.QueryRow(`SELECT amount_original FROM transactions WHERE id = 1`).Scan(&original)
	if err != nil {
		t.Fatalf("read filled row: %v", err)
	}
	if original != "250.5" {
		t.Errorf("filled row amount_original = %s, want 250.5", original)
	}

	result, err = RunMigrations(path, "INR")
	if err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	if result != ResultAlreadyCurrent {
		t.Errorf("second result = %s, want %s", result, ResultAlreadyCurrent)
	}
}

func TestRepositoryReadsMigratedLegacyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")
	seedLegacyStore(t, path)

	repo, err := NewSQLiteRepository(path, "INR")
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	defer repo.Close()

	if repo.MigrationResult() != ResultMigrated {
		t.Errorf("migration result = %s, want %s", repo.MigrationResult(), ResultMigrated)
	}

	all, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("rows = %d, want 2", len(all))
	}
	for _, tx := range all {
		if tx.CurrencyCode != "INR" {
			t.Errorf("id %d: currency = %s, want INR", tx.ID, tx.CurrencyCode)
		}
		if !tx.AmountOriginal.Equal(tx.AmountHome) {
			t.Errorf("id %d: original %s != home %s after rate-1 back-fill",
				tx.ID, tx.AmountOriginal, tx.AmountHome)
		}
	}

	// The adopted store accepts new multi-currency rows alongside legacy ones.
	id, err := repo.InsertTransaction(context.Background(), core.Transaction{
		Date:           core.NewDate(2025, 1, 10),
		Category:       "Travel",
		AmountOriginal: mustDecimal(t, "20"),
		CurrencyCode:   "USD",
		AmountHome:     mustDecimal(t, "1660"),
	})
	if err != nil {
		t.Fatalf("insert into adopted store: %v", err)
	}
	got, err := repo.GetTransaction(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CurrencyCode != "USD" || !got.AmountHome.Equal(mustDecimal(t, "1660")) {
		t.Errorf("adopted-store row = %+v", got)
	}
}
