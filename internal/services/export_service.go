package services

import (
	"context"
	"fmt"

	"expenses/internal/export"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// ExportResult describes what one export appended.
type ExportResult struct {
	Expenses     int
	Incomes      int
	ExpenseRange string
	IncomeRange  string
}

// ExportService copies a user's ledgers to a spreadsheet writer.
type ExportService struct {
	store  *storage.Store
	writer export.Writer
	logger *log.Logger
}

func NewExportService(store *storage.Store, writer export.Writer, logger *log.Logger) *ExportService {
	if logger == nil {
		logger = log.Default()
	}
	return &ExportService{store: store, writer: writer, logger: logger.WithComponent(log.ComponentExport)}
}

// ExportUser appends every expense and income record of username.
func (s *ExportService) ExportUser(ctx context.Context, username string) (ExportResult, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return ExportResult{}, err
	}
	expenses, err := s.store.ListExpenses(ctx, user.ID)
	if err != nil {
		return ExportResult{}, err
	}
	incomes, err := s.store.ListIncomes(ctx, user.ID)
	if err != nil {
		return ExportResult{}, err
	}

	res := ExportResult{Expenses: len(expenses), Incomes: len(incomes)}
	if res.ExpenseRange, err = s.writer.WriteExpenses(ctx, user.Username, expenses); err != nil {
		return res, fmt.Errorf("export expenses: %w", err)
	}
	if res.IncomeRange, err = s.writer.WriteIncomes(ctx, user.Username, incomes); err != nil {
		return res, fmt.Errorf("export income: %w", err)
	}

	s.logger.InfoContext(ctx, "Ledger exported",
		log.FieldUserID, user.ID,
		log.FieldOperation, log.OpExport,
		"expenses", res.Expenses,
		"incomes", res.Incomes,
		"expense_range", res.ExpenseRange,
		"income_range", res.IncomeRange)
	return res, nil
}
