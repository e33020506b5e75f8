// Package memory is an in-process export sink, used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"expenses/internal/core"
	"expenses/internal/export"
)

type Store struct {
	mu     sync.Mutex
	sheets map[string][][]any
}

var _ export.Writer = (*Store)(nil)

func New() *Store {
	return &Store{sheets: make(map[string][][]any)}
}

func (s *Store) WriteExpenses(_ context.Context, owner string, expenses []core.Expense) (string, error) {
	return s.append(export.ExpenseSheet(owner), export.ExpenseHeader, export.ExpenseRows(expenses)), nil
}

func (s *Store) WriteIncomes(_ context.Context, owner string, incomes []core.Income) (string, error) {
	return s.append(export.IncomeSheet(owner), export.IncomeHeader, export.IncomeRows(incomes)), nil
}

// append writes the header on first use of a sheet and returns an A1-style
// reference to the appended rows.
func (s *Store) append(sheet string, header []any, rows [][]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sheets[sheet]
	if !ok {
		existing = [][]any{header}
	}
	first := len(existing) + 1
	existing = append(existing, rows...)
	s.sheets[sheet] = existing
	return fmt.Sprintf("mem:%s!A%d:D%d", sheet, first, len(existing))
}

// Rows returns a copy of everything written to sheet, header included.
func (s *Store) Rows(sheet string) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.sheets[sheet]))
	copy(out, s.sheets[sheet])
	return out
}
