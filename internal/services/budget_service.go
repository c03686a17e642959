package services

import (
	"context"
	"fmt"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

// BudgetService compares a month's spend against its stored budget.
type BudgetService struct {
	storage *storage.SQLiteRepository
}

func NewBudgetService(storage *storage.SQLiteRepository) *BudgetService {
	return &BudgetService{storage: storage}
}

// Progress reports budget utilization for (year, month). A month without a
// budget returns HasBudget=false; that is an expected state, not an error.
func (s *BudgetService) Progress(ctx context.Context, year, month int) (core.BudgetProgress, error) {
	progress := core.BudgetProgress{Year: year, Month: month}

	start, end, err := core.MonthBounds(year, month)
	if err != nil {
		return progress, err
	}

	budget, ok, err := s.storage.GetBudget(ctx, year, month)
	if err != nil {
		return progress, fmt.Errorf("get budget: %w", err)
	}
	if !ok {
		return progress, nil
	}

	spent, err := s.storage.SumInRange(ctx, start, end)
	if err != nil {
		return progress, fmt.Errorf("sum month: %w", err)
	}

	progress.HasBudget = true
	progress.Budget = budget
	progress.Spent = spent
	if budget.IsPositive() {
		progress.Percent = spent.Mul(hundred).Div(budget)
	}
	progress.OverBudget = spent.GreaterThan(budget)
	return progress, nil
}
