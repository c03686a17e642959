package core

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-03-05")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.String() != "2025-03-05" {
		t.Errorf("String() = %s, want 2025-03-05", got)
	}

	for _, bad := range []string{"", "05-03-2025", "2025/03/05", "2025-13-01", "yesterday"} {
		if _, err := ParseDate(bad); err == nil {
			t.Errorf("ParseDate(%q) accepted invalid input", bad)
		}
	}
}

func TestStartOfWeek(t *testing.T) {
	cases := []struct {
		name string
		in   Date
		want string
	}{
		{"monday is its own start", NewDate(2025, 3, 3), "2025-03-03"},
		{"wednesday", NewDate(2025, 3, 5), "2025-03-03"},
		{"sunday belongs to the preceding monday", NewDate(2025, 3, 9), "2025-03-03"},
		{"across month boundary", NewDate(2025, 4, 1), "2025-03-31"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.StartOfWeek(); got.String() != tc.want {
				t.Errorf("StartOfWeek(%s) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestMonthBounds(t *testing.T) {
	cases := []struct {
		name        string
		year, month int
		wantStart   string
		wantEnd     string
	}{
		{"mid year", 2025, 6, "2025-06-01", "2025-07-01"},
		{"december rolls into next year", 2025, 12, "2025-12-01", "2026-01-01"},
		{"february non leap", 2025, 2, "2025-02-01", "2025-03-01"},
		{"february leap", 2024, 2, "2024-02-01", "2024-03-01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, err := MonthBounds(tc.year, tc.month)
			if err != nil {
				t.Fatalf("MonthBounds: %v", err)
			}
			if start.String() != tc.wantStart || end.String() != tc.wantEnd {
				t.Errorf("bounds = [%s, %s), want [%s, %s)", start, end, tc.wantStart, tc.wantEnd)
			}
		})
	}

	for _, month := range []int{0, 13, -1} {
		if _, _, err := MonthBounds(2025, month); !errors.Is(err, ErrInvalidMonth) {
			t.Errorf("month %d: err = %v, want ErrInvalidMonth", month, err)
		}
	}
}

func TestTransactionValidateInput(t *testing.T) {
	valid := Transaction{
		Date:           NewDate(2025, 3, 5),
		Category:       "Food",
		AmountOriginal: d("20"),
		CurrencyCode:   "USD",
	}
	if err := valid.ValidateInput(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"zero amount", func(tx *Transaction) { tx.AmountOriginal = decimal.Zero }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.AmountOriginal = d("-5") }, ErrInvalidAmount},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrInvalidCategory},
		{"blank category", func(tx *Transaction) { tx.Category = "   " }, ErrInvalidCategory},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, ErrInvalidDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			err := tx.ValidateInput()
			if err == nil {
				t.Fatal("invalid transaction accepted")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestBudgetValidate(t *testing.T) {
	good := Budget{Year: 2025, Month: 3, Amount: d("5000")}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	cases := []struct {
		name    string
		budget  Budget
		wantErr error
	}{
		{"month zero", Budget{Year: 2025, Month: 0, Amount: d("5000")}, ErrInvalidMonth},
		{"month thirteen", Budget{Year: 2025, Month: 13, Amount: d("5000")}, ErrInvalidMonth},
		{"zero amount", Budget{Year: 2025, Month: 3, Amount: decimal.Zero}, ErrInvalidAmount},
		{"negative amount", Budget{Year: 2025, Month: 3, Amount: d("-1")}, ErrInvalidAmount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.budget.Validate(); !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCategoriesAreStable(t *testing.T) {
	cats := Categories()
	if len(cats) == 0 {
		t.Fatal("no categories")
	}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		if c == "" {
			t.Error("empty category name")
		}
		if seen[c] {
			t.Errorf("duplicate category %q", c)
		}
		seen[c] = true
	}
	if !seen[CategoryFood] {
		t.Errorf("Categories() missing %q", CategoryFood)
	}
}
