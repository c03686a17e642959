package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Suggested transaction categories. Any non-empty label is accepted;
// these are the ones the adapters offer by default.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryShopping      = "Shopping"
	CategoryBills         = "Bills"
	CategoryHealthcare    = "Healthcare"
	CategoryEntertainment = "Entertainment"
	CategoryEducation     = "Education"
	CategoryOther         = "Other"
)

// Categories lists the suggested categories in display order.
func Categories() []string {
	return []string{
		CategoryFood,
		CategoryTransport,
		CategoryShopping,
		CategoryBills,
		CategoryHealthcare,
		CategoryEntertainment,
		CategoryEducation,
		CategoryOther,
	}
}

type (
	// Date is a calendar date with no time component, kept at UTC midnight.
	Date struct {
		time.Time
	}

	// Transaction is a single recorded expense. AmountHome is the
	// home-currency equivalent computed with the rate in effect when the
	// row was written; it is never recomputed from later rate updates.
	Transaction struct {
		ID             int64
		Date           Date
		Category       string
		AmountOriginal decimal.Decimal
		CurrencyCode   string
		AmountHome     decimal.Decimal
		Description    string
		CreatedAt      time.Time
	}

	// Budget is the spending ceiling for one (year, month), in home
	// currency. At most one row exists per key.
	Budget struct {
		Year   int
		Month  int
		Amount decimal.Decimal
	}
)

var (
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidMonth       = errors.New("invalid month")
	ErrUnknownCurrency    = errors.New("unknown currency")
	ErrNotFound           = errors.New("transaction not found")
	ErrStoreAccess        = errors.New("store access error")
	ErrNoData             = errors.New("no data")
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// String formats the date as YYYY-MM-DD, the storage representation.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// AddDays returns the date n days later.
func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

// StartOfWeek returns the Monday of the week containing d.
func (d Date) StartOfWeek() Date {
	wd := int(d.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return d.AddDays(-(wd - 1))
}

// MonthBounds returns the [first, first-of-next) window for a month.
// December rolls over to January of the next year.
func MonthBounds(year, month int) (Date, Date, error) {
	if month < 1 || month > 12 {
		return Date{}, Date{}, ErrInvalidMonth
	}
	start := NewDate(year, month, 1)
	end := Date{Time: start.AddDate(0, 1, 0)}
	return start, end, nil
}

// ValidateInput checks the caller-supplied fields of a transaction before
// it is priced and persisted. ID, AmountHome and CreatedAt are assigned by
// the store and are not checked here.
func (t Transaction) ValidateInput() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrInvalidCategory
	}
	if t.AmountOriginal.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if len(t.Description) > 200 {
		return fmt.Errorf("%w: longer than 200 characters", ErrInvalidDescription)
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	return nil
}
