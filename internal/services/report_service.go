package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"kharcha/internal/core"
	"kharcha/internal/storage"
)

var hundred = decimal.NewFromInt(100)

// ReportService derives dashboard and report views by composing store
// queries. It keeps no state of its own.
type ReportService struct {
	storage *storage.SQLiteRepository
}

func NewReportService(storage *storage.SQLiteRepository) *ReportService {
	return &ReportService{storage: storage}
}

// Dashboard computes the today / week / month totals relative to the given
// date plus the month's top five categories. The week starts on Monday.
func (s *ReportService) Dashboard(ctx context.Context, today core.Date) (core.Dashboard, error) {
	var dash core.Dashboard

	todayTotal, err := s.storage.SumInRange(ctx, today, today.AddDays(1))
	if err != nil {
		return dash, fmt.Errorf("today total: %w", err)
	}

	weekStart := today.StartOfWeek()
	weekTotal, err := s.storage.SumInRange(ctx, weekStart, weekStart.AddDays(7))
	if err != nil {
		return dash, fmt.Errorf("week total: %w", err)
	}

	year, month := today.Year(), int(today.Month())
	monthStart, monthEnd, err := core.MonthBounds(year, month)
	if err != nil {
		return dash, err
	}
	monthTotal, err := s.storage.SumInRange(ctx, monthStart, monthEnd)
	if err != nil {
		return dash, fmt.Errorf("month total: %w", err)
	}

	top, err := s.storage.CategoryTotals(ctx, year, month)
	if err != nil {
		return dash, fmt.Errorf("top categories: %w", err)
	}
	if len(top) > 5 {
		top = top[:5]
	}

	dash.Today = todayTotal
	dash.Week = weekTotal
	dash.Month = monthTotal
	dash.TopCategories = top
	return dash, nil
}

// MonthlyReport summarizes one month: total, count, per-category shares
// and a few headline figures. An empty month reports ErrNoData, which
// callers surface as "no data" rather than a failure.
func (s *ReportService) MonthlyReport(ctx context.Context, year, month int) (core.MonthlyReport, error) {
	var report core.MonthlyReport

	rows, err := s.storage.ListByMonth(ctx, year, month)
	if err != nil {
		return report, err
	}
	if len(rows) == 0 {
		return report, fmt.Errorf("%w: no transactions in %04d-%02d", core.ErrNoData, year, month)
	}

	total := decimal.Zero
	largest := decimal.Zero
	for _, t := range rows {
		total = total.Add(t.AmountHome)
		if t.AmountHome.GreaterThan(largest) {
			largest = t.AmountHome
		}
	}

	totals, err := s.storage.CategoryTotals(ctx, year, month)
	if err != nil {
		return report, err
	}

	breakdown := make([]core.CategoryShare, len(totals))
	for i, ct := range totals {
		share := core.CategoryShare{Category: ct.Category, Total: ct.Total}
		if total.IsPositive() {
			share.Percent = ct.Total.Mul(hundred).Div(total)
		}
		breakdown[i] = share
	}

	report.Year = year
	report.Month = month
	report.Total = total
	report.Count = len(rows)
	report.Average = total.Div(decimal.NewFromInt(int64(len(rows))))
	report.Largest = largest
	if len(totals) > 0 {
		report.TopCategory = totals[0].Category
	}
	report.Breakdown = breakdown
	return report, nil
}

// DailySeries returns one point per distinct date with spend in the month,
// ascending. Days without transactions are omitted, not zero-filled.
func (s *ReportService) DailySeries(ctx context.Context, year, month int) ([]core.DailyPoint, error) {
	rows, err := s.storage.ListByMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	// ListByMonth is newest-first; walking it backwards yields the series
	// in ascending date order without re-sorting.
	var series []core.DailyPoint
	for i := len(rows) - 1; i >= 0; i-- {
		t := rows[i]
		if n := len(series); n > 0 && series[n-1].Date.Equal(t.Date.Time) {
			series[n-1].Total = series[n-1].Total.Add(t.AmountHome)
			continue
		}
		series = append(series, core.DailyPoint{Date: t.Date, Total: t.AmountHome})
	}
	return series, nil
}
