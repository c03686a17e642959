// Package services holds the write-side orchestration and the read-side
// aggregation over the ledger store.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"kharcha/internal/amqp"
	"kharcha/internal/core"
	"kharcha/internal/currency"
	"kharcha/internal/storage"
)

// LedgerService is the mutation surface of the ledger: it validates input,
// prices it in home currency via the rate table and persists it. Ledger
// events are published to AMQP when a client is configured; publish
// failures never fail the write.
type LedgerService struct {
	storage    *storage.SQLiteRepository
	rates      *currency.Table
	amqpClient *amqp.Client
}

func NewLedgerService(storage *storage.SQLiteRepository, rates *currency.Table, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		storage:    storage,
		rates:      rates,
		amqpClient: amqpClient,
	}
}

// AddTransaction prices and persists a new transaction, returning the
// store-assigned id. The home-currency amount is computed with the rate in
// effect now and stored; later rate updates do not touch it.
func (s *LedgerService) AddTransaction(ctx context.Context, date core.Date, category string, amount decimal.Decimal, currencyCode, description string) (int64, error) {
	t, err := s.priceTransaction(date, category, amount, currencyCode, description)
	if err != nil {
		return 0, err
	}
	t.CreatedAt = time.Now().UTC()

	id, err := s.storage.InsertTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", id,
		"date", t.Date.String(),
		"category", t.Category,
		"amount_original", t.AmountOriginal.String(),
		"currency_code", t.CurrencyCode,
		"amount_home", t.AmountHome.String())

	s.publishEvent(ctx, amqp.EventTransactionCreated, id)
	return id, nil
}

// UpdateTransaction replaces every editable field of an existing row.
// Edits re-price at the current rate: an edit is treated as re-entering
// the transaction, not amending history.
func (s *LedgerService) UpdateTransaction(ctx context.Context, id int64, date core.Date, category string, amount decimal.Decimal, currencyCode, description string) error {
	t, err := s.priceTransaction(date, category, amount, currencyCode, description)
	if err != nil {
		return err
	}
	t.ID = id

	if err := s.storage.UpdateTransaction(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction updated",
		"id", id,
		"category", t.Category,
		"amount_home", t.AmountHome.String())

	s.publishEvent(ctx, amqp.EventTransactionUpdated, id)
	return nil
}

// DeleteTransaction removes a row permanently. Deleting an absent id is a
// zero count, not an error.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) (int64, error) {
	n, err := s.storage.DeleteTransaction(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("delete transaction: %w", err)
	}

	if n > 0 {
		slog.InfoContext(ctx, "Transaction deleted", "id", id)
		s.publishEvent(ctx, amqp.EventTransactionDeleted, id)
	}
	return n, nil
}

// Get returns one transaction by id, or ErrNotFound.
func (s *LedgerService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

// ListAll returns every transaction, newest first.
func (s *LedgerService) ListAll(ctx context.Context) ([]core.Transaction, error) {
	return s.storage.ListAll(ctx)
}

// ListByMonth returns one calendar month of transactions.
func (s *LedgerService) ListByMonth(ctx context.Context, year, month int) ([]core.Transaction, error) {
	return s.storage.ListByMonth(ctx, year, month)
}

// Search filters transactions by keyword across category, description,
// currency code and date.
func (s *LedgerService) Search(ctx context.Context, keyword string) ([]core.Transaction, error) {
	return s.storage.Search(ctx, keyword)
}

// SetBudget upserts the monthly budget.
func (s *LedgerService) SetBudget(ctx context.Context, year, month int, amount decimal.Decimal) error {
	b := core.Budget{Year: year, Month: month, Amount: amount}
	if err := s.storage.SetBudget(ctx, b); err != nil {
		return fmt.Errorf("set budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget set",
		"year", year, "month", month, "amount", amount.String())
	return nil
}

// priceTransaction validates raw input and computes the home-currency
// amount. No store state is touched, so a validation failure leaves the
// ledger unchanged.
func (s *LedgerService) priceTransaction(date core.Date, category string, amount decimal.Decimal, currencyCode, description string) (core.Transaction, error) {
	t := core.Transaction{
		Date:           date,
		Category:       category,
		AmountOriginal: amount,
		CurrencyCode:   currencyCode,
		Description:    description,
	}
	if t.CurrencyCode == "" {
		t.CurrencyCode = s.rates.Home()
	}
	if err := t.ValidateInput(); err != nil {
		return core.Transaction{}, err
	}

	home, err := s.rates.Convert(t.AmountOriginal, t.CurrencyCode)
	if err != nil {
		return core.Transaction{}, err
	}
	t.AmountHome = home
	return t, nil
}

func (s *LedgerService) publishEvent(ctx context.Context, event string, id int64) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishLedgerEvent(ctx, event, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"event", event, "id", id, "error", err)
	}
}

// Close closes the storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}
	return nil
}
