package core

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MonthLabelLayout renders trend points as "Jan 2024".
const MonthLabelLayout = "Jan 2006"

// CategoryTotal represents an amount aggregated by category name.
type CategoryTotal struct {
	Name  string
	Total decimal.Decimal
}

// OverallSummary is the all-time picture of a user's ledgers.
// Categories and Amounts are parallel lists for charting.
type OverallSummary struct {
	TotalExpenses decimal.Decimal
	TotalIncome   decimal.Decimal
	Balance       decimal.Decimal
	Categories    []string
	Amounts       []decimal.Decimal
}

// MonthlyPoint is one month of the income trend.
type MonthlyPoint struct {
	Month time.Time
	Label string
	Total decimal.Decimal
}

// NewOverallSummary computes the balance as income minus expenses and
// flattens the category breakdown, keeping its order.
func NewOverallSummary(totalExpenses, totalIncome decimal.Decimal, byCategory []CategoryTotal) OverallSummary {
	s := OverallSummary{
		TotalExpenses: totalExpenses,
		TotalIncome:   totalIncome,
		Balance:       totalIncome.Sub(totalExpenses),
		Categories:    make([]string, 0, len(byCategory)),
		Amounts:       make([]decimal.Decimal, 0, len(byCategory)),
	}
	for _, c := range byCategory {
		s.Categories = append(s.Categories, c.Name)
		s.Amounts = append(s.Amounts, c.Total)
	}
	return s
}

// PositiveTotals drops categories whose total is zero or negative.
func PositiveTotals(rows []CategoryTotal) []CategoryTotal {
	out := make([]CategoryTotal, 0, len(rows))
	for _, r := range rows {
		if r.Total.IsPositive() {
			out = append(out, r)
		}
	}
	return out
}

// TotalsBySource accumulates income per source key.
func TotalsBySource(rows []Income) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, r := range rows {
		key := r.Source.Key()
		out[key] = out[key].Add(r.Amount)
	}
	return out
}

// MonthlyTrend groups income by calendar month, oldest first.
func MonthlyTrend(rows []Income) []MonthlyPoint {
	byMonth := make(map[time.Time]decimal.Decimal)
	for _, r := range rows {
		m := r.Date.MonthStart().Time
		byMonth[m] = byMonth[m].Add(r.Amount)
	}
	points := make([]MonthlyPoint, 0, len(byMonth))
	for m, total := range byMonth {
		points = append(points, MonthlyPoint{Month: m, Label: m.Format(MonthLabelLayout), Total: total})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month.Before(points[j].Month) })
	return points
}
