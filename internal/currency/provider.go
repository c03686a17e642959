package currency

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"
)

// Provider supplies a rate table from some external source. A provider
// that fails returns an error and the ledger keeps its previous rates;
// the core never blocks on a provider.
type Provider interface {
	Fetch() (map[string]decimal.Decimal, error)
}

// FileProvider reads rates from a JSON file of the form
// {"USD": "83.0", "EUR": 90.0}. Values may be JSON numbers or strings.
type FileProvider struct {
	Path string
}

func (p FileProvider) Fetch() (map[string]decimal.Decimal, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return nil, fmt.Errorf("read rate file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse rate file: %w", err)
	}
	return ParseRates(raw), nil
}

// ParseRates converts a loosely typed payload of code to number-or-string
// into decimals. Entries that are neither are skipped with a warning;
// valid entries still apply, so one bad value never discards a payload.
func ParseRates(raw map[string]any) map[string]decimal.Decimal {
	rates := make(map[string]decimal.Decimal, len(raw))
	for code, v := range raw {
		var s string
		switch val := v.(type) {
		case json.Number:
			s = val.String()
		case string:
			s = val
		default:
			slog.Warn("Skipping non-numeric rate", "code", code)
			continue
		}
		rate, err := decimal.NewFromString(s)
		if err != nil {
			slog.Warn("Skipping unparseable rate", "code", code, "value", s)
			continue
		}
		rates[code] = rate
	}
	return rates
}

// Refresh pulls rates from the provider into the table. A provider error
// leaves the table untouched and is returned for logging only.
func Refresh(t *Table, p Provider) (int, error) {
	rates, err := p.Fetch()
	if err != nil {
		return 0, fmt.Errorf("fetch rates: %w", err)
	}
	return t.Update(rates), nil
}
