package services

import (
	"context"
	"errors"
	"testing"

	"kharcha/internal/core"
)

func TestBudgetProgressOverBudget(t *testing.T) {
	ledger, _, repo := newTestLedger(t)
	budgets := NewBudgetService(repo)
	ctx := context.Background()

	if err := ledger.SetBudget(ctx, 2025, 3, d("5000")); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if _, err := ledger.AddTransaction(ctx, core.NewDate(2025, 3, 10), "Bills", d("6000"), "INR", ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	progress, err := budgets.Progress(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}

	if !progress.HasBudget {
		t.Fatal("HasBudget = false, want true")
	}
	if !progress.Budget.Equal(d("5000")) || !progress.Spent.Equal(d("6000")) {
		t.Errorf("budget/spent = %s/%s, want 5000/6000", progress.Budget, progress.Spent)
	}
	if !progress.Percent.Equal(d("120")) {
		t.Errorf("percent = %s, want 120", progress.Percent)
	}
	if !progress.OverBudget {
		t.Error("OverBudget = false, want true")
	}
}

func TestBudgetProgressUnderBudget(t *testing.T) {
	ledger, _, repo := newTestLedger(t)
	budgets := NewBudgetService(repo)
	ctx := context.Background()

	if err := ledger.SetBudget(ctx, 2025, 3, d("5000")); err != nil {
		t.Fatalf("set budget: %v", err)
	}
	if _, err := ledger.AddTransaction(ctx, core.NewDate(2025, 3, 10), "Food", d("2500"), "INR", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Spend in another month never counts.
	if _, err := ledger.AddTransaction(ctx, core.NewDate(2025, 4, 1), "Food", d("9000"), "INR", ""); err != nil {
		t.Fatalf("add: %v", err)
	}

	progress, err := budgets.Progress(ctx, 2025, 3)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if !progress.Percent.Equal(d("50")) {
		t.Errorf("percent = %s, want 50", progress.Percent)
	}
	if progress.OverBudget {
		t.Error("OverBudget = true, want false")
	}
}

func TestBudgetProgressWithoutBudget(t *testing.T) {
	_, _, repo := newTestLedger(t)
	budgets := NewBudgetService(repo)

	progress, err := budgets.Progress(context.Background(), 2025, 3)
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if progress.HasBudget {
		t.Error("HasBudget = true for a month with no budget")
	}
	if progress.Year != 2025 || progress.Month != 3 {
		t.Errorf("key = %d-%d, want 2025-3", progress.Year, progress.Month)
	}
}

func TestBudgetProgressInvalidMonth(t *testing.T) {
	_, _, repo := newTestLedger(t)
	budgets := NewBudgetService(repo)

	if _, err := budgets.Progress(context.Background(), 2025, 0); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("err = %v, want ErrInvalidMonth", err)
	}
}

func TestSetBudgetValidation(t *testing.T) {
	ledger, _, _ := newTestLedger(t)

	if err := ledger.SetBudget(context.Background(), 2025, 13, d("5000")); !errors.Is(err, core.ErrInvalidMonth) {
		t.Errorf("month 13 err = %v, want ErrInvalidMonth", err)
	}
	if err := ledger.SetBudget(context.Background(), 2025, 3, d("-1")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative amount err = %v, want ErrInvalidAmount", err)
	}
}
