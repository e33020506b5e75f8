package services

import (
	"context"
	"fmt"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

// IncomePerPage is the page size of the income list.
const IncomePerPage = 6

type IncomePage struct {
	Items []core.Income
	Pager core.Pager
}

// IncomeService validates and stores income records.
type IncomeService struct {
	store  *storage.Store
	policy core.ValidationPolicy
	events *log.StructuredLogger
	now    func() time.Time
}

func NewIncomeService(store *storage.Store, policy core.ValidationPolicy, logger *log.Logger) *IncomeService {
	return &IncomeService{
		store:  store,
		policy: policy,
		events: log.NewStructuredLogger(logger),
		now:    time.Now,
	}
}

func (s *IncomeService) WithClock(now func() time.Time) *IncomeService {
	s.now = now
	return s
}

func (s *IncomeService) Create(ctx context.Context, ownerID int64, in core.IncomeInput) (core.Income, error) {
	i, err := s.policy.ParseIncome(in, core.DateOf(s.now()))
	if err != nil {
		return core.Income{}, err
	}
	i.OwnerID = ownerID

	saved, err := s.store.CreateIncome(ctx, i)
	if err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	s.logEntry(ctx, log.OpCreate, saved)
	return saved, nil
}

func (s *IncomeService) Get(ctx context.Context, ownerID, id int64) (core.Income, error) {
	return s.store.GetIncome(ctx, ownerID, id)
}

func (s *IncomeService) Update(ctx context.Context, ownerID, id int64, in core.IncomeInput) (core.Income, error) {
	if _, err := s.store.GetIncome(ctx, ownerID, id); err != nil {
		return core.Income{}, err
	}
	i, err := s.policy.ParseIncome(in, core.DateOf(s.now()))
	if err != nil {
		return core.Income{}, err
	}
	i.ID = id
	i.OwnerID = ownerID

	if err := s.store.UpdateIncome(ctx, i); err != nil {
		return core.Income{}, fmt.Errorf("save income: %w", err)
	}
	s.logEntry(ctx, log.OpUpdate, i)
	return i, nil
}

func (s *IncomeService) Delete(ctx context.Context, ownerID, id int64) error {
	i, err := s.store.GetIncome(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteIncome(ctx, ownerID, id); err != nil {
		return err
	}
	s.logEntry(ctx, log.OpDelete, i)
	return nil
}

func (s *IncomeService) Page(ctx context.Context, ownerID int64, rawPage string) (IncomePage, error) {
	count, err := s.store.CountIncomes(ctx, ownerID)
	if err != nil {
		return IncomePage{}, err
	}
	pager := core.NewPager(rawPage, count, IncomePerPage)
	items, err := s.store.ListIncomesPage(ctx, ownerID, pager.Size, pager.Offset())
	if err != nil {
		return IncomePage{}, err
	}
	return IncomePage{Items: items, Pager: pager}, nil
}

func (s *IncomeService) Search(ctx context.Context, ownerID int64, query string) ([]core.Income, error) {
	rows, err := s.store.ListIncomes(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return core.FilterIncomes(rows, query), nil
}

// Trend sums all of the owner's income per calendar month.
func (s *IncomeService) Trend(ctx context.Context, ownerID int64) ([]core.MonthlyPoint, error) {
	rows, err := s.store.ListIncomes(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return core.MonthlyTrend(rows), nil
}

func (s *IncomeService) logEntry(ctx context.Context, op string, i core.Income) {
	s.events.LogEntry(ctx, op, i.OwnerID, log.KindIncome, i.ID, core.FormatAmount(i.Amount), i.Source.String(), i.Date.String())
}
