package backend

import (
	"context"

	"expenses/internal/services"
	"expenses/internal/storage"
)

// CleanupFunc releases what a factory opened.
type CleanupFunc func() error

// Result bundles the wired services of one process.
type Result struct {
	Store       *storage.Store
	Expenses    *services.ExpenseService
	Incomes     *services.IncomeService
	Summaries   *services.SummaryService
	Preferences *services.PreferenceService
	Accounts    *services.AccountService
	Cleanup     CleanupFunc
}

// Factory builds the services from configuration.
type Factory interface {
	Create(ctx context.Context, config Config) (*Result, error)
}
