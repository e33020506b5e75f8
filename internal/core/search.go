package core

import "strings"

// Matches reports whether the expense satisfies a free-text query: the
// amount or date text starts with q, or the description or category name
// contains q ignoring case. An empty query matches everything.
func (e Expense) Matches(q string) bool {
	return strings.HasPrefix(FormatAmount(e.Amount), q) ||
		strings.HasPrefix(e.Date.String(), q) ||
		containsFold(e.Description, q) ||
		containsFold(e.Category, q)
}

// Matches is the income counterpart of Expense.Matches; the source plays
// the role of the category.
func (i Income) Matches(q string) bool {
	return strings.HasPrefix(FormatAmount(i.Amount), q) ||
		strings.HasPrefix(i.Date.String(), q) ||
		containsFold(i.Description, q) ||
		i.Source.Matches(q)
}

// FilterExpenses keeps the rows matching q, preserving order.
func FilterExpenses(rows []Expense, q string) []Expense {
	out := make([]Expense, 0, len(rows))
	for _, e := range rows {
		if e.Matches(q) {
			out = append(out, e)
		}
	}
	return out
}

// FilterIncomes keeps the rows matching q, preserving order.
func FilterIncomes(rows []Income, q string) []Income {
	out := make([]Income, 0, len(rows))
	for _, i := range rows {
		if i.Matches(q) {
			out = append(out, i)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
