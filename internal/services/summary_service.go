package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"expenses/internal/core"
	"expenses/internal/storage"
)

// DefaultSummaryWindowDays is six months of thirty days.
const DefaultSummaryWindowDays = 30 * 6

// SummaryService aggregates a user's ledgers for the charts.
type SummaryService struct {
	store      *storage.Store
	windowDays int
	now        func() time.Time
}

func NewSummaryService(store *storage.Store, windowDays int) *SummaryService {
	if windowDays < 1 {
		windowDays = DefaultSummaryWindowDays
	}
	return &SummaryService{store: store, windowDays: windowDays, now: time.Now}
}

func (s *SummaryService) WithClock(now func() time.Time) *SummaryService {
	s.now = now
	return s
}

// Window returns the inclusive date range the windowed summaries cover.
func (s *SummaryService) Window() (from, to core.Date) {
	to = core.DateOf(s.now())
	return to.AddDays(-s.windowDays), to
}

// ExpenseCategories sums the owner's expenses per category inside the
// window. Categories with no positive total are left out.
func (s *SummaryService) ExpenseCategories(ctx context.Context, ownerID int64) ([]core.CategoryTotal, error) {
	from, to := s.Window()
	rows, err := s.store.ExpenseTotalsInWindow(ctx, ownerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("category summary: %w", err)
	}
	return core.PositiveTotals(rows), nil
}

// Overall computes all-time totals, the balance and the per-category
// breakdown.
func (s *SummaryService) Overall(ctx context.Context, ownerID int64) (core.OverallSummary, error) {
	expenses, err := s.store.TotalExpenses(ctx, ownerID)
	if err != nil {
		return core.OverallSummary{}, fmt.Errorf("overall summary: %w", err)
	}
	income, err := s.store.TotalIncome(ctx, ownerID)
	if err != nil {
		return core.OverallSummary{}, fmt.Errorf("overall summary: %w", err)
	}
	byCategory, err := s.store.ExpenseTotalsByCategory(ctx, ownerID)
	if err != nil {
		return core.OverallSummary{}, fmt.Errorf("overall summary: %w", err)
	}
	return core.NewOverallSummary(expenses, income, byCategory), nil
}

// IncomeSources sums the owner's income per source since the start of the
// window. Records dated in the future are included.
func (s *SummaryService) IncomeSources(ctx context.Context, ownerID int64) (map[string]decimal.Decimal, error) {
	from, _ := s.Window()
	rows, err := s.store.ListIncomesSince(ctx, ownerID, from)
	if err != nil {
		return nil, fmt.Errorf("income summary: %w", err)
	}
	return core.TotalsBySource(rows), nil
}
