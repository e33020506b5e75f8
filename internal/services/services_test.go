package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"expenses/internal/amqp"
	"expenses/internal/auth"
	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/export/memory"
	"expenses/internal/log"
	"expenses/internal/storage"
)

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type recordingPublisher struct {
	mu     sync.Mutex
	mails  []*amqp.ActivationMail
	err    error
	closed bool
}

func (p *recordingPublisher) PublishActivation(_ context.Context, msg *amqp.ActivationMail) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.mails = append(p.mails, msg)
	return nil
}

func (p *recordingPublisher) Close() error {
	p.closed = true
	return p.err
}

type ServicesTestSuite struct {
	suite.Suite
	ctx    context.Context
	store  *storage.Store
	logger *log.Logger
	pub    *recordingPublisher

	expenses    *ExpenseService
	incomes     *IncomeService
	summaries   *SummaryService
	preferences *PreferenceService
	accounts    *AccountService
}

func TestServicesTestSuite(t *testing.T) {
	suite.Run(t, new(ServicesTestSuite))
}

func (s *ServicesTestSuite) SetupTest() {
	s.ctx = context.Background()
	store, err := storage.Open(s.ctx, storage.Options{
		Driver:     storage.DriverSQLite,
		SQLitePath: filepath.Join(s.T().TempDir(), "test.db"),
	})
	require.NoError(s.T(), err)
	s.store = store
	s.logger = log.New(log.Config{Output: io.Discard})
	s.pub = &recordingPublisher{}

	s.expenses = NewExpenseService(store, core.DefaultExpensePolicy(), s.logger).WithClock(clock)
	s.incomes = NewIncomeService(store, core.DefaultIncomePolicy(), s.logger).WithClock(clock)
	s.summaries = NewSummaryService(store, DefaultSummaryWindowDays).WithClock(clock)
	s.preferences = NewPreferenceService(store, "")
	s.accounts = NewAccountService(store,
		auth.NewTokenIssuer("test-secret-0123456789", "expenses"),
		auth.NewSessions(store, auth.DefaultSessionTTL),
		s.pub,
		AccountConfig{BaseURL: "http://example.test/"},
		s.logger)
}

func (s *ServicesTestSuite) TearDownTest() {
	if s.store != nil {
		s.store.Close()
	}
}

func (s *ServicesTestSuite) user(name string) core.User {
	u, err := s.accounts.CreateUser(s.ctx, core.User{Username: name, Email: name + "@example.com", Active: true}, "secret123")
	require.NoError(s.T(), err)
	return u
}

func (s *ServicesTestSuite) addExpense(owner core.User, amount, category, desc, date string) core.Expense {
	e, err := s.expenses.Create(s.ctx, owner.ID, core.ExpenseInput{
		Amount: amount, Category: category, Description: desc, Date: date,
	})
	require.NoError(s.T(), err)
	return e
}

func (s *ServicesTestSuite) addIncome(owner core.User, amount, source, date string) core.Income {
	i, err := s.incomes.Create(s.ctx, owner.ID, core.IncomeInput{Amount: amount, Source: source, Date: date})
	require.NoError(s.T(), err)
	return i
}

func (s *ServicesTestSuite) TestExpenseLifecycle() {
	t := s.T()
	alice := s.user("alice")
	bob := s.user("bob")

	e := s.addExpense(alice, "12.50", " Food ", "  Lunch ", "2024-06-01")
	assert.Equal(t, "Food", e.Category)
	assert.Equal(t, "Lunch", e.Description)
	assert.NotZero(t, e.CategoryID)

	got, err := s.expenses.Get(s.ctx, alice.ID, e.ID)
	require.NoError(t, err)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("12.50")))

	_, err = s.expenses.Get(s.ctx, bob.ID, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)

	updated, err := s.expenses.Update(s.ctx, alice.ID, e.ID, core.ExpenseInput{
		Amount: "20", Category: "Transport", Description: "Taxi", Date: "2024-06-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "Transport", updated.Category)

	kept, err := s.expenses.Update(s.ctx, alice.ID, e.ID, core.ExpenseInput{
		Amount: "21", Description: "Taxi", Date: "2024-06-02",
	})
	require.NoError(t, err)
	assert.Equal(t, "Transport", kept.Category, "empty category keeps the current one")

	_, err = s.expenses.Update(s.ctx, bob.ID, e.ID, core.ExpenseInput{
		Amount: "1", Category: "Food", Description: "x", Date: "2024-06-02",
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	assert.ErrorIs(t, s.expenses.Delete(s.ctx, bob.ID, e.ID), core.ErrNotFound)
	require.NoError(t, s.expenses.Delete(s.ctx, alice.ID, e.ID))
	_, err = s.expenses.Get(s.ctx, alice.ID, e.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func (s *ServicesTestSuite) TestExpenseValidation() {
	t := s.T()
	alice := s.user("alice")

	tests := []struct {
		name    string
		input   core.ExpenseInput
		message string
	}{
		{"bad amount", core.ExpenseInput{Amount: "abc", Category: "Food", Description: "x", Date: "2024-06-01"}, "Invalid amount"},
		{"no description", core.ExpenseInput{Amount: "1", Category: "Food", Description: "  ", Date: "2024-06-01"}, "Description is required"},
		{"bad date", core.ExpenseInput{Amount: "1", Category: "Food", Description: "x", Date: "01/06/2024"}, "Invalid date format"},
		{"unknown category", core.ExpenseInput{Amount: "1", Category: "Yachts", Description: "x", Date: "2024-06-01"}, "Selected category does not exist"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.expenses.Create(s.ctx, alice.ID, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrValidation)
			assert.Equal(t, tt.message, err.Error())
		})
	}

	n, err := s.store.CountExpenses(s.ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func (s *ServicesTestSuite) TestExpensePaging() {
	t := s.T()
	alice := s.user("alice")
	for day := 1; day <= 7; day++ {
		s.addExpense(alice, "1", "Food", "meal", core.NewDate(2024, 6, day).String())
	}

	page, err := s.expenses.Page(s.ctx, alice.ID, "1")
	require.NoError(t, err)
	require.Len(t, page.Items, ExpensesPerPage)
	assert.Equal(t, "2024-06-07", page.Items[0].Date.String())
	assert.True(t, page.Pager.HasNext())

	page, err = s.expenses.Page(s.ctx, alice.ID, "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pager.Number)

	page, err = s.expenses.Page(s.ctx, alice.ID, "99")
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pager.Number)
	assert.Len(t, page.Items, 2)
}

func (s *ServicesTestSuite) TestExpenseSearchIsScopedToOwner() {
	t := s.T()
	alice := s.user("alice")
	bob := s.user("bob")
	s.addExpense(alice, "12.50", "Food", "Lunch", "2024-06-01")
	s.addExpense(alice, "40", "Transport", "Train", "2024-05-20")
	s.addExpense(bob, "12.50", "Food", "Lunch", "2024-06-01")

	got, err := s.expenses.Search(s.ctx, alice.ID, "lun")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice.ID, got[0].OwnerID)

	got, err = s.expenses.Search(s.ctx, alice.ID, "2024-05")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Train", got[0].Description)

	got, err = s.expenses.Search(s.ctx, alice.ID, "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func (s *ServicesTestSuite) TestIncomeLifecycle() {
	t := s.T()
	alice := s.user("alice")

	i := s.addIncome(alice, "1000", "salary", "2024-06-01")
	assert.Equal(t, core.SourceSalary, i.Source.Kind)

	_, err := s.incomes.Create(s.ctx, alice.ID, core.IncomeInput{Amount: "10", Date: "2024-06-16"})
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.ErrorIs(t, err, core.ErrFutureDate)

	_, err = s.incomes.Create(s.ctx, alice.ID, core.IncomeInput{Amount: "-10", Date: "2024-06-01"})
	assert.ErrorIs(t, err, core.ErrNonPositiveAmount)

	updated, err := s.incomes.Update(s.ctx, alice.ID, i.ID, core.IncomeInput{Amount: "50", Source: "Lottery", Date: "2024-06-02"})
	require.NoError(t, err)
	assert.Equal(t, core.SourceOther, updated.Source.Kind)
	assert.Equal(t, "Lottery", updated.Source.Label)

	bob := s.user("bob")
	assert.ErrorIs(t, s.incomes.Delete(s.ctx, bob.ID, i.ID), core.ErrNotFound)
	require.NoError(t, s.incomes.Delete(s.ctx, alice.ID, i.ID))
}

func (s *ServicesTestSuite) TestIncomePagingAndTrend() {
	t := s.T()
	alice := s.user("alice")
	for day := 1; day <= 7; day++ {
		s.addIncome(alice, "100", "salary", core.NewDate(2024, 5, day).String())
	}
	s.addIncome(alice, "25", "business", "2024-04-10")

	page, err := s.incomes.Page(s.ctx, alice.ID, "")
	require.NoError(t, err)
	assert.Len(t, page.Items, IncomePerPage)
	assert.Equal(t, 2, page.Pager.NumPages)

	trend, err := s.incomes.Trend(s.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, trend, 2)
	assert.Equal(t, "Apr 2024", trend[0].Label)
	assert.True(t, trend[1].Total.Equal(decimal.NewFromInt(700)))

	got, err := s.incomes.Search(s.ctx, alice.ID, "busi")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func (s *ServicesTestSuite) TestSummaries() {
	t := s.T()
	alice := s.user("alice")
	s.addExpense(alice, "30", "Food", "groceries", "2024-06-01")
	s.addExpense(alice, "20", "Food", "dinner", "2024-05-01")
	s.addExpense(alice, "100", "Housing", "old rent", "2023-12-01")
	s.addExpense(alice, "-5", "Shopping", "refund", "2024-06-02")
	s.addIncome(alice, "1000", "salary", "2024-06-01")
	s.addIncome(alice, "200", "Gift", "2024-03-01")
	s.addIncome(alice, "300", "salary", "2023-01-01")

	from, to := s.summaries.Window()
	assert.Equal(t, "2023-12-18", from.String())
	assert.Equal(t, "2024-06-15", to.String())

	cats, err := s.summaries.ExpenseCategories(s.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "Food", cats[0].Name)
	assert.True(t, cats[0].Total.Equal(decimal.NewFromInt(50)))

	overall, err := s.summaries.Overall(s.ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, overall.TotalExpenses.Equal(decimal.NewFromInt(145)))
	assert.True(t, overall.TotalIncome.Equal(decimal.NewFromInt(1500)))
	assert.True(t, overall.Balance.Equal(decimal.NewFromInt(1355)))
	assert.Len(t, overall.Categories, len(overall.Amounts))

	sources, err := s.summaries.IncomeSources(s.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
	assert.True(t, sources["SALARY"].Equal(decimal.NewFromInt(1000)))
	assert.True(t, sources["Gift"].Equal(decimal.NewFromInt(200)))
}

func (s *ServicesTestSuite) TestIncomeSearchIsScopedToOwner() {
	t := s.T()
	alice := s.user("alice")
	bob := s.user("bob")
	_, err := s.incomes.Create(s.ctx, alice.ID, core.IncomeInput{Amount: "100", Description: "Bonus June", Source: "salary", Date: "2024-06-01"})
	require.NoError(t, err)
	_, err = s.incomes.Create(s.ctx, bob.ID, core.IncomeInput{Amount: "900", Description: "Bonus June", Source: "Lottery", Date: "2024-06-01"})
	require.NoError(t, err)

	got, err := s.incomes.Search(s.ctx, alice.ID, "bonus")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, alice.ID, got[0].OwnerID)

	got, err = s.incomes.Search(s.ctx, alice.ID, "lottery")
	require.NoError(t, err)
	assert.Empty(t, got)

	sources, err := s.summaries.IncomeSources(s.ctx, alice.ID)
	require.NoError(t, err)
	assert.Len(t, sources, 1)
	assert.True(t, sources["SALARY"].Equal(decimal.NewFromInt(100)))

	trend, err := s.incomes.Trend(s.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	assert.True(t, trend[0].Total.Equal(decimal.NewFromInt(100)))
}

func (s *ServicesTestSuite) TestSummaryWindowIncludesLowerEdge() {
	t := s.T()
	alice := s.user("alice")
	from, _ := s.summaries.Window()
	edge := from.String()
	before := from.AddDays(-1).String()

	s.addExpense(alice, "7", "Food", "on the edge", edge)
	s.addExpense(alice, "11", "Food", "just outside", before)
	s.addIncome(alice, "70", "salary", edge)
	s.addIncome(alice, "110", "salary", before)

	cats, err := s.summaries.ExpenseCategories(s.ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.True(t, cats[0].Total.Equal(decimal.NewFromInt(7)))

	sources, err := s.summaries.IncomeSources(s.ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, sources["SALARY"].Equal(decimal.NewFromInt(70)))
}

func (s *ServicesTestSuite) TestPreferences() {
	t := s.T()
	bare, err := s.store.CreateUser(s.ctx, core.User{Username: "bare", Email: "bare@example.com", PasswordHash: "x"})
	require.NoError(t, err)

	pref, err := s.preferences.Get(s.ctx, bare.ID)
	require.NoError(t, err)
	assert.Equal(t, "USD", pref.Currency)

	_, err = s.preferences.Get(s.ctx, bare.ID)
	require.NoError(t, err)
	n, err := s.store.CountPreferences(s.ctx, bare.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pref, err = s.preferences.SetCurrency(s.ctx, bare.ID, "EUR")
	require.NoError(t, err)
	assert.Equal(t, "EUR", pref.Currency)

	_, err = s.preferences.SetCurrency(s.ctx, bare.ID, "XXX")
	assert.ErrorIs(t, err, core.ErrValidation)

	pref, err = s.preferences.Get(s.ctx, bare.ID)
	require.NoError(t, err)
	assert.Equal(t, "EUR", pref.Currency)
}

func (s *ServicesTestSuite) TestRegisterActivateLogin() {
	t := s.T()
	user, errs, err := s.accounts.Register(s.ctx, auth.RegistrationForm{
		Username: " carol ", Email: "carol@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	require.False(t, errs.Any(), "%v", errs)
	assert.False(t, user.Active)
	assert.Equal(t, "carol", user.Username)

	n, err := s.store.CountPreferences(s.ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.Len(t, s.pub.mails, 1)
	mail := s.pub.mails[0]
	assert.Equal(t, user.ID, mail.UserID)
	prefix := "http://example.test/authentication/activate/"
	require.True(t, strings.HasPrefix(mail.Link, prefix), mail.Link)

	_, _, err = s.accounts.Login(s.ctx, "carol", "secret123")
	assert.ErrorIs(t, err, core.ErrInactiveUser)

	activated, err := s.accounts.Activate(s.ctx, strings.TrimPrefix(mail.Link, prefix))
	require.NoError(t, err)
	assert.True(t, activated.Active)

	_, _, err = s.accounts.Login(s.ctx, "carol", "wrong")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	_, _, err = s.accounts.Login(s.ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)

	sess, loggedIn, err := s.accounts.Login(s.ctx, "carol", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	_, who, _, err := s.accounts.Authenticate(s.ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, "carol", who.Username)

	require.NoError(t, s.accounts.Logout(s.ctx, sess.Token))
	_, _, _, err = s.accounts.Authenticate(s.ctx, sess.Token)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func (s *ServicesTestSuite) TestRegisterRejectsTakenAndMalformed() {
	t := s.T()
	s.user("alice")

	_, errs, err := s.accounts.Register(s.ctx, auth.RegistrationForm{
		Username: "alice", Email: "ALICE@example.com", Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sorry, username in use, choose another one", errs["username"])
	assert.Equal(t, "Sorry, email in use, choose another one", errs["email"])

	_, errs, err = s.accounts.Register(s.ctx, auth.RegistrationForm{
		Username: "bad name", Email: "nope", Password: "123",
	})
	require.NoError(t, err)
	assert.Len(t, errs, 3)
	assert.Empty(t, s.pub.mails)
}

func (s *ServicesTestSuite) TestRegisterSurvivesPublishFailure() {
	s.pub.err = errors.New("broker down")
	user, errs, err := s.accounts.Register(s.ctx, auth.RegistrationForm{
		Username: "dave", Email: "dave@example.com", Password: "secret123",
	})
	require.NoError(s.T(), err)
	assert.False(s.T(), errs.Any())
	assert.NotZero(s.T(), user.ID)
}

func (s *ServicesTestSuite) TestCreateUserIsAtomic() {
	t := s.T()
	s.user("alice")
	_, err := s.accounts.CreateUser(s.ctx, core.User{Username: "alice", Email: "other@example.com"}, "secret123")
	assert.ErrorIs(t, err, core.ErrDuplicate)

	taken, err := s.store.EmailTaken(s.ctx, "other@example.com")
	require.NoError(t, err)
	assert.False(t, taken)
}

func (s *ServicesTestSuite) TestFieldChecks() {
	t := s.T()
	s.user("alice")

	err := s.accounts.CheckUsername(s.ctx, "alice")
	assert.ErrorIs(t, err, core.ErrDuplicate)
	err = s.accounts.CheckUsername(s.ctx, "al ice")
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.NotErrorIs(t, err, core.ErrDuplicate)
	assert.NoError(t, s.accounts.CheckUsername(s.ctx, "bob"))

	assert.ErrorIs(t, s.accounts.CheckEmail(s.ctx, "alice@example.com"), core.ErrDuplicate)
	assert.Equal(t, "Email is invalid", s.accounts.CheckEmail(s.ctx, "nope").Error())
	assert.NoError(t, s.accounts.CheckEmail(s.ctx, "bob@example.com"))
}

func (s *ServicesTestSuite) TestDeleteUserCascades() {
	t := s.T()
	alice := s.user("alice")
	s.addExpense(alice, "5", "Food", "snack", "2024-06-01")

	require.NoError(t, s.accounts.DeleteUser(s.ctx, "alice"))
	n, err := s.store.CountExpenses(s.ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.ErrorIs(t, s.accounts.DeleteUser(s.ctx, "alice"), core.ErrNotFound)
}

func (s *ServicesTestSuite) TestExportUser() {
	t := s.T()
	alice := s.user("alice")
	s.addExpense(alice, "12.50", "Food", "Lunch", "2024-06-01")
	s.addIncome(alice, "1000", "salary", "2024-06-01")

	sink := memory.New()
	res, err := NewExportService(s.store, sink, s.logger).ExportUser(s.ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Expenses)
	assert.Equal(t, 1, res.Incomes)
	assert.Len(t, sink.Rows(export.ExpenseSheet("alice")), 2)
	assert.Len(t, sink.Rows(export.IncomeSheet("alice")), 2)

	_, err = NewExportService(s.store, sink, nil).ExportUser(s.ctx, "ghost")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func (s *ServicesTestSuite) TestCloseReportsPublisherError() {
	s.pub.err = errors.New("boom")
	err := s.accounts.Close()
	require.Error(s.T(), err)
	assert.Contains(s.T(), err.Error(), "close account service")
	assert.True(s.T(), s.pub.closed)
}
