// Package services holds the use cases behind the HTTP handlers and the
// admin CLI. Every method is scoped to the requesting user.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// ExpensesPerPage is the page size of the expense list.
const ExpensesPerPage = 5

// ExpensePage is one page of a user's expenses, newest first.
type ExpensePage struct {
	Items []core.Expense
	Pager core.Pager
}

// ExpenseService validates and stores expenses.
type ExpenseService struct {
	store  *storage.Store
	policy core.ValidationPolicy
	events *log.StructuredLogger
	now    func() time.Time
}

func NewExpenseService(store *storage.Store, policy core.ValidationPolicy, logger *log.Logger) *ExpenseService {
	return &ExpenseService{
		store:  store,
		policy: policy,
		events: log.NewStructuredLogger(logger),
		now:    time.Now,
	}
}

// WithClock replaces the clock used to decide what "today" is.
func (s *ExpenseService) WithClock(now func() time.Time) *ExpenseService {
	s.now = now
	return s
}

// Categories lists every category, ordered by name.
func (s *ExpenseService) Categories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return cats, nil
}

// Create validates the submission and stores it for ownerID.
func (s *ExpenseService) Create(ctx context.Context, ownerID int64, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.parse(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	e.OwnerID = ownerID

	saved, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.logEntry(ctx, log.OpCreate, saved)
	return saved, nil
}

// Get returns the expense when ownerID owns it, core.ErrNotFound otherwise.
func (s *ExpenseService) Get(ctx context.Context, ownerID, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, ownerID, id)
}

// Update replaces every editable field of an owned expense. An empty
// category keeps the current one.
func (s *ExpenseService) Update(ctx context.Context, ownerID, id int64, in core.ExpenseInput) (core.Expense, error) {
	current, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return core.Expense{}, err
	}
	if strings.TrimSpace(in.Category) == "" {
		in.Category = current.Category
	}
	e, err := s.parse(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	e.ID = id
	e.OwnerID = ownerID

	if err := s.store.UpdateExpense(ctx, e); err != nil {
		return core.Expense{}, fmt.Errorf("save expense: %w", err)
	}
	s.logEntry(ctx, log.OpUpdate, e)
	return e, nil
}

func (s *ExpenseService) Delete(ctx context.Context, ownerID, id int64) error {
	e, err := s.store.GetExpense(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, ownerID, id); err != nil {
		return err
	}
	s.logEntry(ctx, log.OpDelete, e)
	return nil
}

// Page returns the requested page. rawPage is resolved leniently, see
// core.NewPager.
func (s *ExpenseService) Page(ctx context.Context, ownerID int64, rawPage string) (ExpensePage, error) {
	count, err := s.store.CountExpenses(ctx, ownerID)
	if err != nil {
		return ExpensePage{}, err
	}
	pager := core.NewPager(rawPage, count, ExpensesPerPage)
	items, err := s.store.ListExpensesPage(ctx, ownerID, pager.Size, pager.Offset())
	if err != nil {
		return ExpensePage{}, err
	}
	return ExpensePage{Items: items, Pager: pager}, nil
}

// Search returns the owner's expenses matching the free-text query.
func (s *ExpenseService) Search(ctx context.Context, ownerID int64, query string) ([]core.Expense, error) {
	rows, err := s.store.ListExpenses(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return core.FilterExpenses(rows, query), nil
}

// parse validates the fields and resolves the category name.
func (s *ExpenseService) parse(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.policy.ParseExpense(in, core.DateOf(s.now()))
	if err != nil {
		return core.Expense{}, err
	}
	cat, err := s.store.GetCategoryByName(ctx, e.Category)
	if errors.Is(err, core.ErrNotFound) {
		return core.Expense{}, core.UnknownCategory()
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("resolve category: %w", err)
	}
	e.CategoryID = cat.ID
	e.Category = cat.Name
	return e, nil
}

func (s *ExpenseService) logEntry(ctx context.Context, op string, e core.Expense) {
	s.events.LogEntry(ctx, op, e.OwnerID, log.KindExpense, e.ID, core.FormatAmount(e.Amount), e.Category, e.Date.String())
}
