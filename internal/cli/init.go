// Package cli provides common initialization for the kharcha binaries.
package cli

import (
	"os"

	"github.com/joho/godotenv"

	"kharcha/internal/config"
	"kharcha/internal/currency"
	applog "kharcha/internal/log"
	"kharcha/internal/storage"
)

// SetupLogger initializes structured logging and sets it as the default.
func SetupLogger() *applog.Logger {
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *applog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// InitStore opens the ledger store, running migrations synchronously
// before anything reads from it. Exits the process on failure.
func InitStore(logger *applog.Logger, cfg *config.Config) *storage.SQLiteRepository {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.HomeCurrency)
	if err != nil {
		logger.Error("Failed to open ledger store",
			applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	logger.Info("Ledger store ready",
		"path", cfg.SQLiteDBPath,
		applog.FieldMigration, string(repo.MigrationResult()))
	return repo
}

// InitRates builds the currency table: the built-in defaults plus, when a
// rates file is configured, whatever valid entries it contains. A broken
// rates file is logged and the defaults stand.
func InitRates(logger *applog.Logger, cfg *config.Config) *currency.Table {
	table := currency.NewDefaultTable(cfg.HomeCurrency)

	if cfg.RatesFile != "" {
		applied, err := currency.Refresh(table, currency.FileProvider{Path: cfg.RatesFile})
		if err != nil {
			logger.Warn("Rate file unusable, keeping built-in rates",
				applog.FieldError, err, "path", cfg.RatesFile)
		} else {
			logger.Info("Loaded rates from file", "path", cfg.RatesFile, "applied", applied)
		}
	}

	return table
}
