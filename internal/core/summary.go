package core

import "github.com/shopspring/decimal"

// CategoryTotal is a home-currency amount aggregated by category name.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// Dashboard holds the figures shown on the landing view, relative to a
// reference date.
type Dashboard struct {
	Today         decimal.Decimal `json:"today"`
	Week          decimal.Decimal `json:"week"`           // Monday-start week containing the date
	Month         decimal.Decimal `json:"month"`          // calendar month containing the date
	TopCategories []CategoryTotal `json:"top_categories"` // at most 5, current month
}

// CategoryShare is a category total with its share of the month's spend.
type CategoryShare struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
	Percent  decimal.Decimal `json:"percent"` // 0 when the month total is zero
}

// MonthlyReport is a compact summary for a specific year+month.
type MonthlyReport struct {
	Year        int             `json:"year"`
	Month       int             `json:"month"` // 1-12
	Total       decimal.Decimal `json:"total"`
	Count       int             `json:"count"`
	Average     decimal.Decimal `json:"average"`
	Largest     decimal.Decimal `json:"largest"`
	TopCategory string          `json:"top_category,omitempty"`
	Breakdown   []CategoryShare `json:"breakdown"`
}

// DailyPoint is one day's spend within a month. Days without transactions
// do not appear in a series.
type DailyPoint struct {
	Date  Date            `json:"date"`
	Total decimal.Decimal `json:"total"`
}

// BudgetProgress compares a month's spend to its budget. HasBudget is
// false when no budget was set for the month; that is a normal state, not
// an error, and the remaining fields are zero.
type BudgetProgress struct {
	Year       int             `json:"year"`
	Month      int             `json:"month"`
	HasBudget  bool            `json:"has_budget"`
	Budget     decimal.Decimal `json:"budget"`
	Spent      decimal.Decimal `json:"spent"`
	Percent    decimal.Decimal `json:"percent"` // 0 when budget is 0 or unset
	OverBudget bool            `json:"over_budget"`
}
