// Package currency maps ISO-style currency codes to home-currency
// conversion rates and prices amounts with them.
//
// A rate is "units of home currency per one unit of the given currency".
// The table is read by every write path of the ledger and replaced
// wholesale by Update; it is never mutated entry-by-entry.
package currency

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
)

// Table holds the conversion rates for one home currency. The home
// currency is always registered with rate 1 and cannot be overridden.
type Table struct {
	mu    sync.RWMutex
	home  string
	rates map[string]decimal.Decimal
}

// NewTable creates a table containing only the home currency at rate 1.
func NewTable(homeCurrency string) *Table {
	home := normalizeCode(homeCurrency)
	return &Table{
		home:  home,
		rates: map[string]decimal.Decimal{home: decimal.NewFromInt(1)},
	}
}

// NewDefaultTable creates a table pre-seeded with the built-in static
// rates on top of the home currency.
func NewDefaultTable(homeCurrency string) *Table {
	t := NewTable(homeCurrency)
	t.Update(DefaultRates())
	return t
}

// Home returns the home currency code.
func (t *Table) Home() string {
	return t.home
}

// Rate returns the home-currency units one unit of code is worth.
func (t *Table) Rate(code string) (decimal.Decimal, error) {
	code = normalizeCode(code)
	if code == "" {
		code = t.home
	}

	t.mu.RLock()
	rate, ok := t.rates[code]
	t.mu.RUnlock()

	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", core.ErrUnknownCurrency, code)
	}
	return rate, nil
}

// Convert prices amount (in code's currency) into home currency using the
// rate currently in effect.
func (t *Table) Convert(amount decimal.Decimal, code string) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Decimal{}, core.ErrInvalidAmount
	}
	rate, err := t.Rate(code)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate), nil
}

// Update merges rates into the table. Invalid entries (empty code,
// non-positive rate) are skipped so a partially bad provider payload never
// corrupts the table; the home currency stays pinned at 1. The internal
// map is replaced in one step, readers never observe a partial merge.
func (t *Table) Update(rates map[string]decimal.Decimal) int {
	if len(rates) == 0 {
		return 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(map[string]decimal.Decimal, len(t.rates)+len(rates))
	for code, rate := range t.rates {
		next[code] = rate
	}

	applied := 0
	for code, rate := range rates {
		code = normalizeCode(code)
		if code == "" || rate.LessThanOrEqual(decimal.Zero) {
			slog.Warn("Skipping invalid currency rate", "code", code, "rate", rate)
			continue
		}
		if code == t.home {
			continue
		}
		next[code] = rate
		applied++
	}

	t.rates = next
	return applied
}

// Codes returns the registered currency codes sorted alphabetically.
func (t *Table) Codes() []string {
	t.mu.RLock()
	codes := make([]string, 0, len(t.rates))
	for code := range t.rates {
		codes = append(codes, code)
	}
	t.mu.RUnlock()

	sort.Strings(codes)
	return codes
}

// Snapshot returns a copy of the current rates.
func (t *Table) Snapshot() map[string]decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]decimal.Decimal, len(t.rates))
	for code, rate := range t.rates {
		out[code] = rate
	}
	return out
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// DefaultRates returns the built-in approximate rates, 1 unit of currency
// to INR. They keep the ledger usable when no rate file is configured.
func DefaultRates() map[string]decimal.Decimal {
	raw := map[string]string{
		"INR": "1.0", "USD": "83.0", "EUR": "90.0", "GBP": "104.0",
		"AED": "22.6", "SAR": "22.15", "QAR": "22.8", "KWD": "270.0",
		"BHD": "220.0", "CAD": "61.0", "AUD": "55.0", "SGD": "62.0",
		"JPY": "0.56", "CNY": "11.5", "CHF": "95.5", "NZD": "50.0",
		"HKD": "10.7", "SEK": "7.9", "NOK": "8.0", "DKK": "12.1",
		"ZAR": "4.3", "PKR": "0.30", "BDT": "0.75", "LKR": "0.28",
		"IDR": "0.0053",
	}
	rates := make(map[string]decimal.Decimal, len(raw))
	for code, s := range raw {
		rates[code] = decimal.RequireFromString(s)
	}
	return rates
}
